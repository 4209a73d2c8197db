package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/institute-api/internal/fees"
	"github.com/noah-isme/institute-api/internal/models"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/export"
)

type exportEnrollmentRepository interface {
	ListFeeRows(ctx context.Context) ([]models.EnrollmentFeeRow, error)
}

type exportPaymentRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.PaymentDetail, error)
}

// ExportFile is a rendered export ready to be served as a download.
type ExportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders fee reports and payment receipts.
type ExportService struct {
	enrollments exportEnrollmentRepository
	payments    exportPaymentRepository
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
	graceDays   int
}

// NewExportService constructs the export service.
func NewExportService(enrollments exportEnrollmentRepository, payments exportPaymentRepository, csv *export.CSVExporter, pdf *export.PDFExporter, logger *zap.Logger, graceDays int) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if graceDays <= 0 {
		graceDays = fees.DefaultGraceDays
	}
	return &ExportService{enrollments: enrollments, payments: payments, csv: csv, pdf: pdf, logger: logger, graceDays: graceDays}
}

// FeeReportCSV renders the enrollment fee report as CSV.
func (s *ExportService) FeeReportCSV(ctx context.Context) (*ExportFile, error) {
	dataset, err := s.feeReportDataset(ctx)
	if err != nil {
		return nil, err
	}
	content, err := s.csv.Render(*dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return &ExportFile{
		FileName:    fmt.Sprintf("fee-report-%s.csv", time.Now().UTC().Format("2006-01-02")),
		ContentType: "text/csv",
		Content:     content,
	}, nil
}

// FeeReportPDF renders the enrollment fee report as PDF.
func (s *ExportService) FeeReportPDF(ctx context.Context) (*ExportFile, error) {
	dataset, err := s.feeReportDataset(ctx)
	if err != nil {
		return nil, err
	}
	content, err := s.pdf.Render(*dataset, "Fee Report")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return &ExportFile{
		FileName:    fmt.Sprintf("fee-report-%s.pdf", time.Now().UTC().Format("2006-01-02")),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

// PaymentReceiptPDF renders a receipt for one payment.
func (s *ExportService) PaymentReceiptPDF(ctx context.Context, paymentID string) (*ExportFile, error) {
	payment, err := s.payments.FindDetailByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load payment")
	}

	fields := [][2]string{
		{"Receipt No", payment.ID},
		{"Student", payment.StudentName},
		{"Course", payment.CourseName},
		{"Amount", payment.Amount.StringFixed(2)},
		{"Payment Date", payment.PaymentDate.Format("02 Jan 2006")},
		{"Payment Mode", string(payment.PaymentMode)},
	}
	if payment.TransactionID != "" {
		fields = append(fields, [2]string{"Transaction ID", payment.TransactionID})
	}
	if payment.InstallmentNumber != nil {
		fields = append(fields, [2]string{"Installment", fmt.Sprintf("%d", *payment.InstallmentNumber)})
	}

	content, err := s.pdf.RenderReceipt("Payment Receipt", fields)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render receipt")
	}
	return &ExportFile{
		FileName:    fmt.Sprintf("receipt-%s.pdf", payment.ID),
		ContentType: "application/pdf",
		Content:     content,
	}, nil
}

func (s *ExportService) feeReportDataset(ctx context.Context) (*export.Dataset, error) {
	rows, err := s.enrollments.ListFeeRows(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee rows")
	}

	now := time.Now().UTC()
	dataset := &export.Dataset{
		Headers: []string{"Student", "Contact", "Course", "Fee Plan", "Start Date", "Total Fee", "Paid", "Balance", "Status"},
	}
	for _, row := range rows {
		summary := fees.Summarize(row.TotalFee, []decimal.Decimal{row.PaidAmount}, row.StartDate, now, fees.WithGraceDays(s.graceDays))
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student":    row.StudentName,
			"Contact":    row.ContactNo,
			"Course":     row.CourseName,
			"Fee Plan":   string(row.FeePlan),
			"Start Date": row.StartDate.Format("2006-01-02"),
			"Total Fee":  row.TotalFee.StringFixed(2),
			"Paid":       summary.PaidAmount.StringFixed(2),
			"Balance":    summary.Balance.StringFixed(2),
			"Status":     string(summary.Status),
		})
	}
	return dataset, nil
}
