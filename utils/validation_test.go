package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhone(t *testing.T) {
	valid := []string{
		"+923001234567",
		"+92 300 1234567",
		"+1 (555) 123-4567",
		"923001234567",
	}
	for _, phone := range valid {
		assert.True(t, ValidatePhone(phone), "expected %q to be valid", phone)
	}

	invalid := []string{
		"",
		"abc",
		"+0123456",
		"7",
	}
	for _, phone := range invalid {
		assert.False(t, ValidatePhone(phone), "expected %q to be invalid", phone)
	}
}

func TestGenerateRandomString(t *testing.T) {
	s := GenerateRandomString(6)
	assert.Len(t, s, 6)

	// No ambiguous characters in the reference-number alphabet
	for _, c := range s {
		assert.NotContains(t, "01IO", string(c))
	}
}
