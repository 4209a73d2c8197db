package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// FeePlanOption is one entry of a course's free-form fee plan list. The
// list is presentation data only; the fee engine never evaluates it.
type FeePlanOption struct {
	Label       string          `json:"label"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description,omitempty"`
}

// FeePlanOptions is stored as a JSONB column.
type FeePlanOptions []FeePlanOption

// Value implements driver.Valuer.
func (o FeePlanOptions) Value() (driver.Value, error) {
	if o == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// Scan implements sql.Scanner.
func (o *FeePlanOptions) Scan(src interface{}) error {
	if src == nil {
		*o = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	default:
		return fmt.Errorf("unsupported fee plan options source %T", src)
	}
}

// Course is the canonical fee schedule for a course offering.
type Course struct {
	ID             string          `db:"id" json:"id"`
	Name           string          `db:"name" json:"name"`
	Code           string          `db:"code" json:"code"`
	DurationMonths int             `db:"duration_months" json:"duration_months"`
	FullFee        decimal.Decimal `db:"full_fee" json:"full_fee"`
	InstallmentFee decimal.Decimal `db:"installment_fee" json:"installment_fee"`
	Installment1   decimal.Decimal `db:"installment_1" json:"installment_1"`
	Installment2   decimal.Decimal `db:"installment_2" json:"installment_2"`
	FeePlans       FeePlanOptions  `db:"fee_plans" json:"fee_plans,omitempty"`
	Description    string          `db:"description" json:"description"`
	IsActive       bool            `db:"is_active" json:"is_active"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures listing criteria for courses.
type CourseFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
