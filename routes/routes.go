package routes

import (
	"os"
	"strings"

	"schoolpro-backend/config"
	"schoolpro-backend/controllers"
	"schoolpro-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	origins := []string{"http://localhost:3000"}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		origins = strings.Split(env, ",")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Class routes
		classes := api.Group("/classes")
		{
			classes.POST("", controllers.CreateClass)
			classes.GET("", controllers.GetClasses)
			classes.GET("/:id", controllers.GetClass)
			classes.PUT("/:id", controllers.UpdateClass)
			classes.DELETE("/:id", controllers.DeleteClass)
		}

		// Student routes
		students := api.Group("/students")
		{
			students.POST("", controllers.CreateStudent)
			students.GET("", controllers.GetStudents)
			students.GET("/:id", controllers.GetStudent)
			students.PUT("/:id", controllers.UpdateStudent)
			students.DELETE("/:id", controllers.DeleteStudent)
			students.GET("/:id/ledger", controllers.GetStudentLedger)
		}

		// Fee head catalog routes
		feeHeads := api.Group("/fee-heads")
		{
			feeHeads.POST("", controllers.CreateFeeHead)
			feeHeads.GET("", controllers.GetFeeHeads)
			feeHeads.GET("/:id", controllers.GetFeeHead)
			feeHeads.PUT("/:id", controllers.UpdateFeeHead)
		}

		// Fee structure matrix routes
		feeStructures := api.Group("/fee-structures")
		{
			feeStructures.POST("", controllers.CreateFeeStructure)
			feeStructures.GET("", controllers.GetFeeStructures)
			feeStructures.PUT("/:id", controllers.UpdateFeeStructure)
			feeStructures.DELETE("/:id", controllers.DeleteFeeStructure)
		}

		// Installment plan routes
		plans := api.Group("/installment-plans")
		{
			plans.POST("", controllers.CreateInstallmentPlan)
			plans.GET("", controllers.GetInstallmentPlans)
			plans.PUT("/:id", controllers.UpdateInstallmentPlan)
		}

		// Student discount routes
		discounts := api.Group("/discounts")
		{
			discounts.POST("", controllers.CreateStudentDiscount)
			discounts.GET("", controllers.GetStudentDiscounts)
			discounts.PUT("/:id", controllers.UpdateStudentDiscount)
		}

		// Voucher routes
		vouchers := api.Group("/vouchers")
		{
			vouchers.POST("/generate", controllers.GenerateVoucher)
			vouchers.POST("/generate-batch", controllers.GenerateVoucherBatch)
			vouchers.GET("", controllers.GetVouchers)
			vouchers.GET("/:id", controllers.GetVoucherByID)
			vouchers.GET("/number/:number", controllers.GetVoucherByNumber)
			vouchers.POST("/:id/payments", controllers.ApplyPayment)
			vouchers.DELETE("/:id", controllers.DeleteVoucher)
		}

		// Reports routes
		api.GET("/reports/collections", controllers.GetCollectionReport)
		api.GET("/reports/defaulters", controllers.GetDefaulterReport)

		// Dashboard routes
		api.GET("/dashboard", controllers.GetDashboardStats)

		// Institution profile routes
		profile := api.Group("/profile")
		{
			profile.GET("", controllers.GetInstitutionProfile)
			profile.PUT("", controllers.UpdateInstitutionProfile)
		}

		// Reminder routes
		reminders := api.Group("/reminders")
		{
			reminders.POST("/templates", controllers.CreateReminderTemplate)
			reminders.GET("/templates", controllers.GetReminderTemplates)
			reminders.PUT("/templates/:id", controllers.UpdateReminderTemplate)
			reminders.GET("/logs", controllers.GetReminderLogs)
		}
	}

	return r
}
