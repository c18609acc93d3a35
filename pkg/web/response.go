// Package web defines common components for a web application.
package web

import (
	"github.com/go-playground/validator/v10"
)

// Response holds the common response type for all APIs.
type Response struct {
	AccessToken          string `json:"access_token,omitempty"`
	AccessTokenExpiresAt string `json:"access_token_expires_at,omitempty"`
	Data                 any    `json:"data,omitempty"`
	Error                string `json:"error,omitempty"`
	Code                 string `json:"code,omitempty"`
	Details              any    `json:"details,omitempty"`
}

// Error wraps a given err into json frinedly struct.
func Error(err error) Response {
	return Response{Error: err.Error()}
}

// CodedError wraps err together with its stable error code and structured details.
func CodedError(code string, err error, details any) Response {
	return Response{Error: err.Error(), Code: code, Details: details}
}

// GetErrorMsg returns human readable message for the first failed validation.
func GetErrorMsg(ve validator.ValidationErrors) string {
	if len(ve) == 0 {
		return ""
	}

	fe := ve[0]

	switch fe.Tag() {
	case "required":
		return fe.Field() + " field is required"
	case "min":
		return fe.Field() + " must be at least " + fe.Param()
	case "max":
		return fe.Field() + " must be at most " + fe.Param()
	case "email":
		return fe.Field() + " must be a valid email"
	case "alphanum":
		return fe.Field() + " must contain only letters and digits"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	case "nefield":
		return fe.Field() + " must differ from " + fe.Param()
	case "account_type", "account_status", "role", "money", "account_number":
		return fe.Field() + " is not a valid " + fe.Tag()
	}

	return fe.Field() + " is invalid"
}
