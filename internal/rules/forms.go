package rules

import (
	"errors"
	"strings"

	"github.com/bricks-admin/dashboard/internal/models"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidationError is a form rejected before any request is sent
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsValidationError reports whether err is a form validation failure
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// BalanceForm is the add-balance dialog
type BalanceForm struct {
	UserID          int64              `validate:"required"`
	FlyashAmount    decimal.Decimal    `validate:"-"`
	BedashAmount    decimal.Decimal    `validate:"-"`
	PaymentMode     models.PaymentMode `validate:"required,oneof=cash online"`
	BankName        string             `validate:"required_if=PaymentMode cash"`
	AccountHolder   string             `validate:"required_if=PaymentMode online"`
	ReferenceNumber string             `validate:"required_if=PaymentMode online"`
}

var balanceMessages = map[string]string{
	"UserID":          "Please fill required fields",
	"PaymentMode":     "Select a payment mode",
	"BankName":        "Enter bank name for cash payment",
	"AccountHolder":   "Fill account holder & reference number",
	"ReferenceNumber": "Fill account holder & reference number",
}

// ValidateBalanceForm checks the add-balance form. A user and at least one
// positive amount are required; cash needs a bank name, online needs the
// account holder and reference number.
func ValidateBalanceForm(f BalanceForm) error {
	f.BankName = strings.TrimSpace(f.BankName)
	f.AccountHolder = strings.TrimSpace(f.AccountHolder)
	f.ReferenceNumber = strings.TrimSpace(f.ReferenceNumber)

	if f.UserID == 0 || (f.FlyashAmount.Sign() <= 0 && f.BedashAmount.Sign() <= 0) {
		return &ValidationError{Field: "Amount", Message: "Please fill required fields"}
	}
	if f.FlyashAmount.Sign() < 0 || f.BedashAmount.Sign() < 0 {
		return &ValidationError{Field: "Amount", Message: "Amounts cannot be negative"}
	}
	return structError(validate.Struct(f), balanceMessages)
}

// Request builds the API payload, dropping the fields the payment mode does not use
func (f BalanceForm) Request() models.AddBalanceRequest {
	req := models.AddBalanceRequest{
		UserID:       f.UserID,
		FlyashAmount: f.FlyashAmount,
		BedashAmount: f.BedashAmount,
		PaymentMode:  f.PaymentMode,
	}
	if f.PaymentMode == models.PaymentCash {
		req.BankName = strings.TrimSpace(f.BankName)
	} else {
		req.AccountHolder = strings.TrimSpace(f.AccountHolder)
		req.ReferenceNumber = strings.TrimSpace(f.ReferenceNumber)
	}
	return req
}

// TokenForm is the create-token dialog
type TokenForm struct {
	UserID       int64               `validate:"required"`
	CustomerName string              `validate:"required"`
	MaterialType models.MaterialType `validate:"required,oneof=flyash bedash"`
}

var tokenMessages = map[string]string{
	"UserID":       "Please select a user first!",
	"CustomerName": "Enter a customer name",
	"MaterialType": "Select a material type",
}

func ValidateTokenForm(f TokenForm) error {
	f.CustomerName = strings.TrimSpace(f.CustomerName)
	return structError(validate.Struct(f), tokenMessages)
}

func (f TokenForm) Request() models.CreateTokenRequest {
	return models.CreateTokenRequest{
		CustomerName: strings.TrimSpace(f.CustomerName),
		MaterialType: f.MaterialType,
		UserID:       f.UserID,
	}
}

// BedashForm is the add-bedash dialog; dates are YYYY-MM-DD
type BedashForm struct {
	UserID       int64               `validate:"required"`
	MaterialType models.MaterialType `validate:"omitempty,oneof=flyash bedash"`
	Amount       decimal.Decimal     `validate:"-"`
	CustomDate   string              `validate:"required,datetime=2006-01-02"`
	TargetDate   string              `validate:"required,datetime=2006-01-02"`
}

func ValidateBedashForm(f BedashForm) error {
	if f.Amount.Sign() <= 0 {
		return &ValidationError{Field: "Amount", Message: "Please fill all required fields."}
	}
	return structError(validate.Struct(f), map[string]string{
		"UserID":       "Please fill all required fields.",
		"MaterialType": "Select a material type",
		"CustomDate":   "Please fill all required fields.",
		"TargetDate":   "Please fill all required fields.",
	})
}

func (f BedashForm) Request() models.AddBedashRequest {
	material := f.MaterialType
	if material == "" {
		material = models.MaterialBedash
	}
	return models.AddBedashRequest{
		UserID:       f.UserID,
		MaterialType: material,
		Amount:       f.Amount,
		CustomDate:   f.CustomDate,
		TargetDate:   f.TargetDate,
	}
}

// UserForm is the add-user dialog
type UserForm struct {
	Name     string      `validate:"required"`
	Email    string      `validate:"required,email"`
	Password string      `validate:"required,min=6"`
	Role     models.Role `validate:"required,oneof=user admin superadmin"`
}

// ValidateUserForm checks the add-user form and that creator may create the role
func ValidateUserForm(creator models.Role, f UserForm) error {
	err := structError(validate.Struct(f), map[string]string{
		"Name":     "Name is required",
		"Email":    "Enter a valid email",
		"Password": "Password must be at least 6 characters",
		"Role":     "Select a role",
	})
	if err != nil {
		return err
	}
	if !CanCreateRole(creator, f.Role) {
		return &ValidationError{Field: "Role", Message: "You cannot create an account with role " + string(f.Role)}
	}
	return nil
}

func (f UserForm) Request() models.RegisterRequest {
	return models.RegisterRequest{
		Name:     strings.TrimSpace(f.Name),
		Email:    strings.TrimSpace(f.Email),
		Password: f.Password,
		Role:     f.Role,
	}
}

func structError(err error, messages map[string]string) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}
	fe := fieldErrs[0]
	msg, ok := messages[fe.Field()]
	if !ok {
		msg = fe.Field() + " is invalid"
	}
	return &ValidationError{Field: fe.Field(), Message: msg}
}
