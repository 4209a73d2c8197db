// Package fees implements the fee resolution and payment status engine.
// Everything here is pure computation over already-loaded records; callers
// are responsible for lookups, validation, and not-found handling.
package fees

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/institute-api/internal/models"
)

// Effective holds the four resolved fee figures for a student and course.
type Effective struct {
	FullFee        decimal.Decimal `json:"full_fee"`
	InstallmentFee decimal.Decimal `json:"installment_fee"`
	Installment1   decimal.Decimal `json:"installment_1"`
	Installment2   decimal.Decimal `json:"installment_2"`
}

// Resolve computes the effective fee figures for a course and an optional
// matching custom override. Fallback is per-field: each set figure on the
// override wins, each unset figure inherits the course default. The caller
// must already have verified the override matches the student identity and
// course and is active.
func Resolve(course models.Course, custom *models.CustomStudentFee) Effective {
	eff := Effective{
		FullFee:        course.FullFee,
		InstallmentFee: course.InstallmentFee,
		Installment1:   course.Installment1,
		Installment2:   course.Installment2,
	}
	if custom == nil {
		return eff
	}
	if custom.CustomFullFee.Valid {
		eff.FullFee = custom.CustomFullFee.Decimal
	}
	if custom.CustomInstallmentFee.Valid {
		eff.InstallmentFee = custom.CustomInstallmentFee.Decimal
	}
	if custom.CustomInstallment1.Valid {
		eff.Installment1 = custom.CustomInstallment1.Decimal
	}
	if custom.CustomInstallment2.Valid {
		eff.Installment2 = custom.CustomInstallment2.Decimal
	}
	return eff
}

// TotalFor returns the figure frozen onto an enrollment for the chosen plan.
func (e Effective) TotalFor(plan models.FeePlan) decimal.Decimal {
	if plan == models.FeePlanInstallments {
		return e.InstallmentFee
	}
	return e.FullFee
}
