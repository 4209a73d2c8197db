package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FeeStatusBreakdown counts enrollments per derived payment status.
type FeeStatusBreakdown struct {
	Paid    int `json:"paid"`
	Partial int `json:"partial"`
	Pending int `json:"pending"`
	Overdue int `json:"overdue"`
}

// InstituteStats is the institution-wide dashboard payload. Fee figures are
// derived on read by summing the payment ledger against frozen totals.
type InstituteStats struct {
	TotalInquiries    int                   `json:"total_inquiries"`
	InquiriesByStatus map[InquiryStatus]int `json:"inquiries_by_status"`
	ActiveCourses     int                   `json:"active_courses"`
	ActiveEnrollments int                   `json:"active_enrollments"`
	TotalFees         decimal.Decimal       `json:"total_fees"`
	TotalCollected    decimal.Decimal       `json:"total_collected"`
	TotalOutstanding  decimal.Decimal       `json:"total_outstanding"`
	FeeStatus         FeeStatusBreakdown    `json:"fee_status"`
	GeneratedAt       time.Time             `json:"generated_at"`
}

// EnrollmentFeeRow is the raw aggregation input for stats and exports: one
// enrollment's frozen total alongside its summed payments.
type EnrollmentFeeRow struct {
	EnrollmentID string          `db:"enrollment_id" json:"enrollment_id"`
	StudentName  string          `db:"student_name" json:"student_name"`
	ContactNo    string          `db:"contact_no" json:"contact_no"`
	CourseName   string          `db:"course_name" json:"course_name"`
	FeePlan      FeePlan         `db:"fee_plan" json:"fee_plan"`
	StartDate    time.Time       `db:"start_date" json:"start_date"`
	TotalFee     decimal.Decimal `db:"total_fee" json:"total_fee"`
	PaidAmount   decimal.Decimal `db:"paid_amount" json:"paid_amount"`
}

// SystemMetrics is a lightweight snapshot of runtime metrics.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	DBQueryCount             uint64    `json:"db_query_count"`
	AverageDBQueryDurationMs float64   `json:"average_db_query_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
