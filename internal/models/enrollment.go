package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeePlan selects which effective fee figure is frozen at enrollment time.
type FeePlan string

// Supported fee plans.
const (
	FeePlanFull         FeePlan = "full"
	FeePlanInstallments FeePlan = "installments"
)

// ValidFeePlan reports whether the value is a known plan.
func ValidFeePlan(p FeePlan) bool {
	return p == FeePlanFull || p == FeePlanInstallments
}

// Enrollment is a confirmed registration derived from exactly one inquiry.
// TotalFee is a frozen snapshot taken when the enrollment is created or
// re-synced; it does not track later course or custom-fee edits on its own.
type Enrollment struct {
	ID               string          `db:"id" json:"id"`
	InquiryID        string          `db:"inquiry_id" json:"inquiry_id"`
	StudentName      string          `db:"student_name" json:"student_name"`
	CourseID         string          `db:"course_id" json:"course_id"`
	ContactNo        string          `db:"contact_no" json:"contact_no"`
	FatherName       string          `db:"father_name" json:"father_name"`
	FatherContactNo  string          `db:"father_contact_no" json:"father_contact_no"`
	StudentEducation string          `db:"student_education" json:"student_education"`
	StudentEmail     string          `db:"student_email" json:"student_email"`
	StudentAddress   string          `db:"student_address" json:"student_address"`
	StartDate        time.Time       `db:"start_date" json:"start_date"`
	EndDate          time.Time       `db:"end_date" json:"end_date"`
	FeePlan          FeePlan         `db:"fee_plan" json:"fee_plan"`
	TotalFee         decimal.Decimal `db:"total_fee" json:"total_fee"`
	BatchID          string          `db:"batch_id" json:"batch_id"`
	Cancelled        bool            `db:"cancelled" json:"cancelled"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// EnrollmentDetail enriches Enrollment with course info and the payment
// aggregate derived on read.
type EnrollmentDetail struct {
	Enrollment
	CourseName string          `db:"course_name" json:"course_name"`
	CourseCode string          `db:"course_code" json:"course_code"`
	PaidAmount decimal.Decimal `db:"paid_amount" json:"paid_amount"`
	Balance    decimal.Decimal `db:"-" json:"balance"`
	FeeStatus  string          `db:"-" json:"fee_status"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	CourseID  string
	BatchID   string
	Search    string
	Cancelled *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
