package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/institute-api/internal/middleware"
	"github.com/noah-isme/institute-api/internal/models"
	"github.com/noah-isme/institute-api/internal/service"
)

// Handlers bundles every HTTP handler for route registration.
type Handlers struct {
	Auth       *AuthHandler
	Courses    *CourseHandler
	Inquiries  *InquiryHandler
	Enrollment *EnrollmentHandler
	Payments   *PaymentHandler
	CustomFees *CustomFeeHandler
	Stats      *StatsHandler
	Exports    *ExportHandler
	Reminders  *ReminderHandler
}

// RegisterRoutes attaches all API routes under the given prefix. Every route
// except login and refresh requires a valid token; admin-only routes carry an
// additional role check.
func RegisterRoutes(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	api := r.Group(prefix)

	api.POST("/auth/login", h.Auth.Login)
	api.POST("/auth/refresh", h.Auth.Refresh)

	protected := api.Group("")
	protected.Use(middleware.JWT(auth))

	protected.POST("/auth/logout", h.Auth.Logout)
	protected.POST("/auth/change-password", h.Auth.ChangePassword)
	protected.GET("/auth/me", h.Auth.Me)

	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleStaff)

	courses := protected.Group("/courses")
	courses.GET("", staff, h.Courses.List)
	courses.GET("/:id", staff, h.Courses.Get)
	courses.POST("", adminOnly, h.Courses.Create)
	courses.PUT("/:id", adminOnly, h.Courses.Update)
	courses.DELETE("/:id", adminOnly, h.Courses.Delete)

	inquiries := protected.Group("/inquiries")
	inquiries.GET("", staff, h.Inquiries.List)
	inquiries.GET("/:id", staff, h.Inquiries.Get)
	inquiries.POST("", staff, h.Inquiries.Create)
	inquiries.PUT("/:id", staff, h.Inquiries.Update)
	inquiries.PATCH("/:id/status", staff, h.Inquiries.UpdateStatus)
	inquiries.DELETE("/:id", adminOnly, h.Inquiries.Delete)

	enrollments := protected.Group("/enrollments")
	enrollments.GET("", staff, h.Enrollment.List)
	enrollments.GET("/:id", staff, h.Enrollment.Get)
	enrollments.POST("", staff, h.Enrollment.Convert)
	enrollments.PUT("/:id", staff, h.Enrollment.Update)
	enrollments.DELETE("/:id", adminOnly, h.Enrollment.Cancel)
	enrollments.GET("/:id/payments", staff, h.Payments.ListByEnrollment)
	enrollments.GET("/:id/payments/summary", staff, h.Payments.Summary)

	payments := protected.Group("/payments")
	payments.GET("", staff, h.Payments.List)
	payments.GET("/:id", staff, h.Payments.Get)
	payments.POST("", staff, h.Payments.Record)
	payments.GET("/:id/receipt", staff, h.Exports.PaymentReceipt)

	customFees := protected.Group("/custom-fees")
	customFees.GET("", staff, h.CustomFees.List)
	customFees.GET("/check", staff, h.CustomFees.Check)
	customFees.GET("/:id", staff, h.CustomFees.Get)
	customFees.POST("", adminOnly, h.CustomFees.Create)
	customFees.PUT("/:id", adminOnly, h.CustomFees.Update)
	customFees.DELETE("/:id", adminOnly, h.CustomFees.Delete)

	protected.GET("/stats", staff, h.Stats.Institute)
	protected.GET("/stats/system", adminOnly, h.Stats.System)

	exports := protected.Group("/exports")
	exports.GET("/fee-report.csv", staff, h.Exports.FeeReportCSV)
	exports.GET("/fee-report.pdf", staff, h.Exports.FeeReportPDF)

	protected.POST("/reminders/overdue", adminOnly, h.Reminders.Dispatch)
}
