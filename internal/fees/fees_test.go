package fees

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/institute-api/internal/models"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func nullDec(v string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: dec(v), Valid: true}
}

func sampleCourse() models.Course {
	return models.Course{
		ID:             "c1",
		Name:           "Diploma in Computer Applications",
		FullFee:        dec("15000"),
		InstallmentFee: dec("16000"),
		Installment1:   dec("8000"),
		Installment2:   dec("8000"),
	}
}

func TestResolveWithoutOverrideIsPassthrough(t *testing.T) {
	course := sampleCourse()

	eff := Resolve(course, nil)

	assert.True(t, eff.FullFee.Equal(course.FullFee))
	assert.True(t, eff.InstallmentFee.Equal(course.InstallmentFee))
	assert.True(t, eff.Installment1.Equal(course.Installment1))
	assert.True(t, eff.Installment2.Equal(course.Installment2))
}

func TestResolveOverridesPerField(t *testing.T) {
	course := sampleCourse()
	custom := &models.CustomStudentFee{
		CustomFullFee:      nullDec("10000"),
		CustomInstallment2: nullDec("5500"),
	}

	eff := Resolve(course, custom)

	assert.True(t, eff.FullFee.Equal(dec("10000")))
	assert.True(t, eff.InstallmentFee.Equal(course.InstallmentFee), "unset figure inherits course default")
	assert.True(t, eff.Installment1.Equal(course.Installment1))
	assert.True(t, eff.Installment2.Equal(dec("5500")))
}

func TestResolveFullOverride(t *testing.T) {
	course := sampleCourse()
	custom := &models.CustomStudentFee{
		CustomFullFee:        nullDec("9000"),
		CustomInstallmentFee: nullDec("9500"),
		CustomInstallment1:   nullDec("5000"),
		CustomInstallment2:   nullDec("4500"),
	}

	eff := Resolve(course, custom)

	assert.True(t, eff.FullFee.Equal(dec("9000")))
	assert.True(t, eff.InstallmentFee.Equal(dec("9500")))
	assert.True(t, eff.Installment1.Equal(dec("5000")))
	assert.True(t, eff.Installment2.Equal(dec("4500")))
}

func TestTotalForPlan(t *testing.T) {
	eff := Effective{FullFee: dec("15000"), InstallmentFee: dec("16000")}

	assert.True(t, eff.TotalFor(models.FeePlanFull).Equal(dec("15000")))
	assert.True(t, eff.TotalFor(models.FeePlanInstallments).Equal(dec("16000")))
}

func TestResolveZeroFees(t *testing.T) {
	course := models.Course{ID: "free"}
	custom := &models.CustomStudentFee{CustomFullFee: nullDec("0")}

	eff := Resolve(course, custom)

	assert.True(t, eff.FullFee.IsZero(), "an explicit zero override is honoured, not treated as unset")
}
