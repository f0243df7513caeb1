// Package forms holds the declarative schemas behind every input screen.
//
// Each form is a struct with `validate` tags. Amounts are kept as the
// strings the user typed and checked with the decimal-aware "amount" and
// "minamount" tags so a value like "10" can be rejected before any request
// is made.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MinWithdrawal is the smallest withdrawal amount in USD.
var MinWithdrawal = decimal.NewFromInt(50)

// Login is the sign-in form.
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Signup is the registration form.
type Signup struct {
	Name                 string `json:"name" validate:"required,min=2,max=100"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,pwd"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	ReferralCode         string `json:"referral_code,omitempty" validate:"omitempty,alphanum,max=32"`
}

// OTP is the step-up verification form.
type OTP struct {
	Code string `json:"otp" validate:"required,otp"`
}

// Deposit records a transfer the user already made on chain.
type Deposit struct {
	Amount  string `json:"amount" validate:"required,amount"`
	ChainID int64  `json:"chain_id" validate:"required,gt=0"`
	TxHash  string `json:"tx_hash,omitempty" validate:"omitempty,min=10,max=128"`
}

// Withdraw requests a payout to an external wallet.
type Withdraw struct {
	Amount        string `json:"amount" validate:"required,amount,minamount=50"`
	ChainID       int64  `json:"chain_id" validate:"required,gt=0"`
	WalletAddress string `json:"wallet_address" validate:"required,min=20,max=128"`
	OTP           string `json:"otp" validate:"required,otp"`
}

// Invest subscribes to a plan. Plan bounds are checked by the investment service.
type Invest struct {
	PlanID int64  `json:"plan_id" validate:"required,gt=0"`
	Amount string `json:"amount" validate:"required,amount"`
}

// Profile edits the user's display details.
type Profile struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Phone string `json:"phone,omitempty" validate:"omitempty,phone"`
}

// ForgotPassword asks the backend to email a reset code.
type ForgotPassword struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPassword completes a reset with the emailed code.
type ResetPassword struct {
	Email                string `json:"email" validate:"required,email"`
	OTP                  string `json:"otp" validate:"required,otp"`
	Password             string `json:"password" validate:"required,pwd"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

// ValidationError maps json field names to a human readable message.
type ValidationError struct {
	Fields map[string]string
}

// Error joins the field messages in field order, one per line.
func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+" "+e.Fields[k])
	}
	return strings.Join(lines, "\n")
}

var (
	once     sync.Once
	validate *validator.Validate
)

func engine() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterAlias("pwd", "min=8")
		v.RegisterAlias("otp", "len=6,numeric")
		v.RegisterAlias("phone", "e164")
		_ = v.RegisterValidation("amount", validAmount)
		_ = v.RegisterValidation("minamount", validMinAmount)
		validate = v
	})
	return validate
}

// Validate checks form and returns a *ValidationError when any rule fails.
func Validate(form any) error {
	err := engine().Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate form: %w", err)
	}
	return &ValidationError{Fields: ToDetails(verrs)}
}

// ToDetails converts validator errors into a field to message map.
func ToDetails(verrs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = formatFieldError(fe)
	}
	return out
}

// ParseAmount parses a validated amount string.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

func validAmount(fl validator.FieldLevel) bool {
	d, err := ParseAmount(fl.Field().String())
	return err == nil && d.IsPositive()
}

func validMinAmount(fl validator.FieldLevel) bool {
	d, err := ParseAmount(fl.Field().String())
	if err != nil {
		return false
	}
	min, err := decimal.NewFromString(fl.Param())
	if err != nil {
		return false
	}
	return d.GreaterThanOrEqual(min)
}

func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + param + " characters long"
		}
		return "must be at least " + param
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + param + " characters long"
		}
		return "must be at most " + param
	case "len":
		return "must be exactly " + param + " characters long"
	case "gt":
		return "must be greater than " + param
	case "eqfield":
		return "must match " + strings.ToLower(param)
	case "alphanum":
		return "must contain letters and digits only"
	case "numeric":
		return "must contain digits only"
	case "e164":
		return "must be a valid phone number"
	case "amount":
		return "must be a positive amount"
	case "minamount":
		return "must be at least $" + param
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
