package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Role is the access level of a dashboard account
type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// Rank orders roles by privilege; unknown roles rank 0
func (r Role) Rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleSuperAdmin:
		return 3
	}
	return 0
}

func (r Role) Valid() bool { return r.Rank() > 0 }

// IsStaff reports whether the role can manage other accounts' data
func (r Role) IsStaff() bool { return r.Rank() >= RoleAdmin.Rank() }

// MaterialType is one of the two materials sold
type MaterialType string

const (
	MaterialFlyash MaterialType = "flyash"
	MaterialBedash MaterialType = "bedash"
)

func (m MaterialType) Valid() bool {
	return m == MaterialFlyash || m == MaterialBedash
}

// TokenStatus tracks a delivery token from creation to payment
type TokenStatus string

const (
	TokenPending   TokenStatus = "pending"
	TokenUpdated   TokenStatus = "updated"
	TokenCompleted TokenStatus = "completed"
)

func (s TokenStatus) Valid() bool {
	return s == TokenPending || s == TokenUpdated || s == TokenCompleted
}

// CanAdvanceTo reports whether a token in status s may move to next.
// Billing edits keep an updated token updated; nothing leaves completed.
func (s TokenStatus) CanAdvanceTo(next TokenStatus) bool {
	switch s {
	case TokenPending:
		return next == TokenUpdated
	case TokenUpdated:
		return next == TokenUpdated || next == TokenCompleted
	}
	return false
}

// BedashStatus tracks a bedash dispatch message
type BedashStatus string

const (
	BedashPending   BedashStatus = "pending"
	BedashCompleted BedashStatus = "completed"
)

func (s BedashStatus) Valid() bool {
	return s == BedashPending || s == BedashCompleted
}

func (s BedashStatus) CanAdvanceTo(next BedashStatus) bool {
	return s == BedashPending && next == BedashCompleted
}

// PaymentMode is how a balance top-up was paid
type PaymentMode string

const (
	PaymentCash   PaymentMode = "cash"
	PaymentOnline PaymentMode = "online"
)

func (p PaymentMode) Valid() bool {
	return p == PaymentCash || p == PaymentOnline
}

// Identity is the authenticated principal carried in the bearer credential
type Identity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// User represents a dashboard account
type User struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	Password  string    `db:"password" json:"-"` // Password hash, not returned in JSON
	Role      Role      `db:"role" json:"role"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedBy *int64    `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func (u User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Role: u.Role}
}

func (u User) Ref() *UserRef {
	return &UserRef{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, IsActive: u.IsActive, CreatedAt: u.CreatedAt}
}

// Validate checks the shape of a user received over the wire
func (u User) Validate() error {
	if u.ID <= 0 {
		return fmt.Errorf("user: missing id")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("user %d: unknown role %q", u.ID, u.Role)
	}
	return nil
}

// UserRef is the owner summary embedded in tokens and balances
type UserRef struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

// Token is a delivery/billing record for one truckload
type Token struct {
	ID           int64           `db:"id" json:"id"`
	UserID       int64           `db:"user_id" json:"userId"`
	CustomerName string          `db:"customer_name" json:"customerName"`
	TruckNumber  string          `db:"truck_number" json:"truckNumber"`
	MaterialType MaterialType    `db:"material_type" json:"materialType"`
	Weight       decimal.Decimal `db:"weight" json:"weight"`
	RatePerTon   decimal.Decimal `db:"rate_per_ton" json:"ratePerTon"`
	Commission   decimal.Decimal `db:"commission" json:"commission"`
	TotalAmount  decimal.Decimal `db:"total_amount" json:"totalAmount"`
	PaidAmount   decimal.Decimal `db:"paid_amount" json:"paidAmount"`
	CarryForward decimal.Decimal `db:"carry_forward" json:"carryForward"`
	Status       TokenStatus     `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
	ConfirmedAt  *time.Time      `db:"confirmed_at" json:"confirmedAt,omitempty"`
	User         *UserRef        `db:"-" json:"user,omitempty"`
}

func (t Token) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("token: missing id")
	}
	if !t.Status.Valid() {
		return fmt.Errorf("token %d: unknown status %q", t.ID, t.Status)
	}
	return nil
}

// Transaction is one balance top-up for a user
type Transaction struct {
	ID              int64           `db:"id" json:"id"`
	UserID          int64           `db:"user_id" json:"userId"`
	Date            time.Time       `db:"date" json:"date"`
	FlyashAmount    decimal.Decimal `db:"flyash_amount" json:"flyashAmount"`
	BedashAmount    decimal.Decimal `db:"bedash_amount" json:"bedashAmount"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"totalAmount"`
	FlyashTons      decimal.Decimal `db:"flyash_tons" json:"flyashTons"`
	BedashTons      decimal.Decimal `db:"bedash_tons" json:"bedashTons"`
	PaymentMode     PaymentMode     `db:"payment_mode" json:"paymentMode"`
	BankName        string          `db:"bank_name" json:"bankName,omitempty"`
	AccountHolder   string          `db:"account_holder" json:"accountHolder,omitempty"`
	ReferenceNumber string          `db:"reference_number" json:"referenceNumber,omitempty"`
}

func (t Transaction) Validate() error {
	if t.ID <= 0 {
		return fmt.Errorf("transaction: missing id")
	}
	if !t.PaymentMode.Valid() {
		return fmt.Errorf("transaction %d: unknown payment mode %q", t.ID, t.PaymentMode)
	}
	return nil
}

// MaterialBalance is a per-material tonnage account
type MaterialBalance struct {
	Total     decimal.Decimal `json:"total"`
	Used      decimal.Decimal `json:"used"`
	Remaining decimal.Decimal `json:"remaining"`
}

// BalanceSummary is the balance page payload for one user
type BalanceSummary struct {
	User         UserRef         `json:"user"`
	Flyash       MaterialBalance `json:"flyash"`
	Bedash       MaterialBalance `json:"bedash"`
	Transactions []Transaction   `json:"transactions"`
}

func (b BalanceSummary) Validate() error {
	if b.User.ID <= 0 {
		return fmt.Errorf("balance: missing user")
	}
	for _, tx := range b.Transactions {
		if err := tx.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// RemainingTons is the combined remaining tonnage over both materials
func (b BalanceSummary) RemainingTons() decimal.Decimal {
	return b.Flyash.Remaining.Add(b.Bedash.Remaining)
}

// AdminBalanceRow is one line of the all-users balance report
type AdminBalanceRow struct {
	User      UserRef         `json:"user"`
	Flyash    MaterialBalance `json:"flyash"`
	Bedash    MaterialBalance `json:"bedash"`
	TotalTons decimal.Decimal `json:"totalTons"`
}

func (r AdminBalanceRow) Validate() error {
	if r.User.ID <= 0 {
		return fmt.Errorf("balance report: missing user")
	}
	return nil
}

// BedashItem is a scheduled bedash dispatch awaiting confirmation
type BedashItem struct {
	ID            int64           `db:"id" json:"id"`
	UserID        int64           `db:"user_id" json:"userId"`
	UserName      string          `db:"-" json:"userName"`
	MaterialType  MaterialType    `db:"material_type" json:"materialType"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	RemainingTons decimal.Decimal `db:"remaining_tons" json:"remainingTons"`
	Status        BedashStatus    `db:"status" json:"status"`
	CustomDate    *time.Time      `db:"custom_date" json:"customDate"`
	TargetDate    time.Time       `db:"target_date" json:"targetDate"`
	CreatedAt     time.Time       `db:"created_at" json:"createdAt"`
	ConfirmedAt   *time.Time      `db:"confirmed_at" json:"confirmedAt,omitempty"`
}

func (b BedashItem) Validate() error {
	if b.ID <= 0 {
		return fmt.Errorf("bedash: missing id")
	}
	if !b.Status.Valid() {
		return fmt.Errorf("bedash %d: unknown status %q", b.ID, b.Status)
	}
	return nil
}

// NotificationType is the toast severity
type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
	NotifyInfo    NotificationType = "info"
	NotifyWarning NotificationType = "warning"
)

// Notification is the single process-wide toast; the zero value means none
type Notification struct {
	Type    NotificationType `json:"type,omitempty"`
	Message string           `json:"message,omitempty"`
}

func (n Notification) Empty() bool { return n.Type == "" && n.Message == "" }
