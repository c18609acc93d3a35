package middleware

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/fraol163/Banking-Managment-System-sub001/internal/domain"
	"github.com/fraol163/Banking-Managment-System-sub001/pkg/refpkg"
)

// ValidAccountType validates whether the account type is supported.
var ValidAccountType validator.Func = func(fl validator.FieldLevel) bool {
	if t, ok := fl.Field().Interface().(string); ok {
		return domain.AccountType(t).Valid()
	}
	return false
}

// ValidAccountStatus validates whether the account status is known.
var ValidAccountStatus validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		return domain.AccountStatus(s).Valid()
	}
	return false
}

// ValidRole validates whether the role is known.
var ValidRole validator.Func = func(fl validator.FieldLevel) bool {
	if r, ok := fl.Field().Interface().(string); ok {
		return domain.Role(r).Valid()
	}
	return false
}

// ValidMoney validates a non-negative decimal amount with at most two fractional digits.
var ValidMoney validator.Func = func(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}

	return !d.IsNegative() && d.Equal(d.Truncate(2))
}

// ValidAccountNumber validates the external account number format.
var ValidAccountNumber validator.Func = func(fl validator.FieldLevel) bool {
	if n, ok := fl.Field().Interface().(string); ok {
		return refpkg.ValidAccountNumber(n)
	}
	return false
}

// RegisterValidators registers the custom binding tags used by request structs.
func RegisterValidators(v *validator.Validate) error {
	validators := map[string]validator.Func{
		"account_type":   ValidAccountType,
		"account_status": ValidAccountStatus,
		"role":           ValidRole,
		"money":          ValidMoney,
		"account_number": ValidAccountNumber,
	}

	for tag, fn := range validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}

	return nil
}
