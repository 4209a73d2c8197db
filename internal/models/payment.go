package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMode enumerates accepted payment channels.
type PaymentMode string

// Supported payment modes.
const (
	PaymentModeCash         PaymentMode = "cash"
	PaymentModeCard         PaymentMode = "card"
	PaymentModeUPI          PaymentMode = "upi"
	PaymentModeBankTransfer PaymentMode = "bank_transfer"
	PaymentModeCheque       PaymentMode = "cheque"
)

// ValidPaymentMode reports whether the value is a known mode.
func ValidPaymentMode(m PaymentMode) bool {
	switch m {
	case PaymentModeCash, PaymentModeCard, PaymentModeUPI, PaymentModeBankTransfer, PaymentModeCheque:
		return true
	}
	return false
}

// Payment is one transaction against an enrollment. Rows are append-only:
// there is no update or delete path through the API.
type Payment struct {
	ID                string          `db:"id" json:"id"`
	EnrollmentID      string          `db:"enrollment_id" json:"enrollment_id"`
	Amount            decimal.Decimal `db:"amount" json:"amount"`
	PaymentDate       time.Time       `db:"payment_date" json:"payment_date"`
	PaymentMode       PaymentMode     `db:"payment_mode" json:"payment_mode"`
	TransactionID     string          `db:"transaction_id" json:"transaction_id,omitempty"`
	InstallmentNumber *int            `db:"installment_number" json:"installment_number,omitempty"`
	Notes             string          `db:"notes" json:"notes,omitempty"`
	CreatedAt         time.Time       `db:"created_at" json:"created_at"`
}

// PaymentDetail enriches Payment with enrollment context.
type PaymentDetail struct {
	Payment
	StudentName string `db:"student_name" json:"student_name"`
	CourseName  string `db:"course_name" json:"course_name"`
}

// PaymentFilter provides filters for listing payments.
type PaymentFilter struct {
	EnrollmentID string
	Mode         PaymentMode
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}
