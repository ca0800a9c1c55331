package models

import (
	"github.com/shopspring/decimal"
)

// Request models
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     Role   `json:"role" binding:"required,oneof=user admin superadmin"`
}

type UpdateUserRequest struct {
	Name     *string `json:"name,omitempty"`
	Email    *string `json:"email,omitempty" binding:"omitempty,email"`
	Role     *Role   `json:"role,omitempty" binding:"omitempty,oneof=user admin superadmin"`
	IsActive *bool   `json:"isActive,omitempty"`
}

type AddBalanceRequest struct {
	UserID          int64           `json:"userId" binding:"required"`
	FlyashAmount    decimal.Decimal `json:"flyashAmount"`
	BedashAmount    decimal.Decimal `json:"bedashAmount"`
	PaymentMode     PaymentMode     `json:"paymentMode" binding:"required,oneof=cash online"`
	BankName        string          `json:"bankName"`
	AccountHolder   string          `json:"accountHolder"`
	ReferenceNumber string          `json:"referenceNumber"`
}

type EditBalanceRequest struct {
	FlyashAmount    *decimal.Decimal `json:"flyashAmount,omitempty"`
	BedashAmount    *decimal.Decimal `json:"bedashAmount,omitempty"`
	PaymentMode     *PaymentMode     `json:"paymentMode,omitempty" binding:"omitempty,oneof=cash online"`
	BankName        *string          `json:"bankName,omitempty"`
	AccountHolder   *string          `json:"accountHolder,omitempty"`
	ReferenceNumber *string          `json:"referenceNumber,omitempty"`
}

type CreateTokenRequest struct {
	CustomerName string       `json:"customerName" binding:"required"`
	MaterialType MaterialType `json:"materialType" binding:"required,oneof=flyash bedash"`
	UserID       int64        `json:"userId" binding:"required"`
}

type UpdateTokenRequest struct {
	TokenID     int64           `json:"tokenId" binding:"required"`
	TruckNumber string          `json:"truckNumber"`
	Weight      decimal.Decimal `json:"weight"`
	Commission  decimal.Decimal `json:"commission"`
	UserID      int64           `json:"userId,omitempty"`
}

type ConfirmTokenRequest struct {
	TokenID    int64           `json:"tokenId" binding:"required"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
}

// AddBedashRequest carries dates as YYYY-MM-DD strings, the way the form submits them
type AddBedashRequest struct {
	UserID       int64           `json:"userId" binding:"required"`
	MaterialType MaterialType    `json:"materialType" binding:"omitempty,oneof=flyash bedash"`
	Amount       decimal.Decimal `json:"amount"`
	CustomDate   string          `json:"customDate" binding:"required"`
	TargetDate   string          `json:"targetDate" binding:"required"`
}

// Response models

// Envelope is the {msg, data, total} wrapper every list and mutation endpoint returns
type Envelope[T any] struct {
	Msg   string `json:"msg"`
	Data  T      `json:"data"`
	Total *int   `json:"total,omitempty"`
}

type LoginResponse struct {
	Msg   string `json:"msg"`
	Token string `json:"token"`
}

type MessageResponse struct {
	Msg string `json:"msg"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}
