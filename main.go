package main

import (
	"fmt"
	"log"
	"os"
	"schoolpro-backend/config"
	"schoolpro-backend/models"
	"schoolpro-backend/routes"
	"schoolpro-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func init() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	config.ConnectDB()

	config.DB.AutoMigrate(
		&models.Institution{},
		&models.User{},
		&models.Class{},
		&models.Student{},
		&models.FeeHead{},
		&models.FeeStructure{},
		&models.InstallmentPlan{},
		&models.StudentDiscount{},
		&models.FeeVoucher{},
		&models.VoucherItem{},
		&models.Payment{},
		&models.ReminderTemplate{},
		&models.ReminderLog{},
	)
}

func main() {
	scheduler := services.NewScheduler(config.DB)
	scheduler.Start()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	r := routes.SetupRouter()
	printRoutes(r)
	r.Run(":" + port)
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
