package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CustomStudentFee is a per-student, per-course fee override. Each figure is
// optional: an unset figure falls back to the course default for that figure
// only. At most one active override should exist per
// (student_name, contact_no, course_id) triple.
type CustomStudentFee struct {
	ID                      string              `db:"id" json:"id"`
	StudentName             string              `db:"student_name" json:"student_name"`
	ContactNo               string              `db:"contact_no" json:"contact_no"`
	CourseID                string              `db:"course_id" json:"course_id"`
	CustomFullFee           decimal.NullDecimal `db:"custom_full_fee" json:"custom_full_fee"`
	CustomInstallmentFee    decimal.NullDecimal `db:"custom_installment_fee" json:"custom_installment_fee"`
	CustomInstallment1      decimal.NullDecimal `db:"custom_installment_1" json:"custom_installment_1"`
	CustomInstallment2      decimal.NullDecimal `db:"custom_installment_2" json:"custom_installment_2"`
	Reason                  string              `db:"reason" json:"reason"`
	CreatedBy               string              `db:"created_by" json:"created_by"`
	IsActive                bool                `db:"is_active" json:"is_active"`
	CreatedAt               time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time           `db:"updated_at" json:"updated_at"`
}

// CustomFeeCheck is the precondition lookup result consumed by enrollment
// surfaces before fee resolution.
type CustomFeeCheck struct {
	HasCustomFee bool              `json:"has_custom_fee"`
	CustomFee    *CustomStudentFee `json:"custom_fee,omitempty"`
}

// CustomFeeFilter provides filters for listing custom fees.
type CustomFeeFilter struct {
	CourseID  string
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// ResyncReport summarises the best-effort enrollment re-sync performed after
// a custom fee is created or updated. Failures do not roll back rows that
// were already updated.
type ResyncReport struct {
	Matched int      `json:"matched"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors,omitempty"`
}
