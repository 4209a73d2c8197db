package models

import "time"

// InquiryStatus tracks the informal lifecycle of an inquiry.
type InquiryStatus string

// Possible inquiry statuses.
const (
	InquiryStatusPending           InquiryStatus = "pending"
	InquiryStatusConfirmed         InquiryStatus = "confirmed"
	InquiryStatusEnrolled          InquiryStatus = "enrolled"
	InquiryStatusBooksGiven        InquiryStatus = "books_given"
	InquiryStatusExamCompleted     InquiryStatus = "exam_completed"
	InquiryStatusCertificateIssued InquiryStatus = "certificate_issued"
	InquiryStatusCancelled         InquiryStatus = "cancelled"
)

// ValidInquiryStatus reports whether the value is a known status.
func ValidInquiryStatus(s InquiryStatus) bool {
	switch s {
	case InquiryStatusPending, InquiryStatusConfirmed, InquiryStatusEnrolled,
		InquiryStatusBooksGiven, InquiryStatusExamCompleted,
		InquiryStatusCertificateIssued, InquiryStatusCancelled:
		return true
	}
	return false
}

// Inquiry is a prospective student's interest record, pre-enrollment.
type Inquiry struct {
	ID              string        `db:"id" json:"id"`
	StudentName     string        `db:"student_name" json:"student_name"`
	CourseID        string        `db:"course_id" json:"course_id"`
	ContactNo       string        `db:"contact_no" json:"contact_no"`
	FatherContactNo string        `db:"father_contact_no" json:"father_contact_no"`
	Address         string        `db:"address" json:"address"`
	BatchID         string        `db:"batch_id" json:"batch_id"`
	Status          InquiryStatus `db:"status" json:"status"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// InquiryDetail enriches Inquiry with course info.
type InquiryDetail struct {
	Inquiry
	CourseName string `db:"course_name" json:"course_name"`
	CourseCode string `db:"course_code" json:"course_code"`
}

// InquiryFilter provides filters for listing inquiries.
type InquiryFilter struct {
	CourseID  string
	Status    InquiryStatus
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
