// utils/response.go
package utils

import (
	"crypto/rand"
	"math/big"

	"github.com/gin-gonic/gin"
)

// RespondWithError sends a JSON error response with the given status code
func RespondWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

const randomChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateRandomString returns a random string of the given length, used for
// voucher number suffixes. Ambiguous characters (0/O, 1/I) are excluded.
func GenerateRandomString(length int) string {
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(randomChars))))
		if err != nil {
			panic("failed to read random source")
		}
		b[i] = randomChars[n.Int64()]
	}
	return string(b)
}
