package services

import (
	"fmt"
	"strings"

	"github.com/gookit/validate"

	"github.com/dmitrijs2005/homekeeper/internal/common"
)

type registrationForm struct {
	Email       string `validate:"required|email" message:"required:Email is required.|email:Please enter a valid email address."`
	Password    string `validate:"required|min_len:8" message:"required:Password is required.|min_len:Password must be at least 8 characters long."`
	DisplayName string `validate:"required|max_len:100" message:"required:Name is required.|max_len:Name must be at most 100 characters long."`
}

type loginForm struct {
	Email    string `validate:"required|email" message:"required:Email is required.|email:Please enter a valid email address."`
	Password string `validate:"required" message:"required:Password is required."`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// checkForm returns an error wrapping common.ErrValidation together with
// the first failed rule's message.
func checkForm(form any) (string, error) {
	v := validate.Struct(form)
	if v.Validate() {
		return "", nil
	}
	msg := v.Errors.One()
	return msg, fmt.Errorf("%w: %s", common.ErrValidation, msg)
}
