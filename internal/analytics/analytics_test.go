package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/kyefa/internal/models"
)

func student(fee float64, st models.PaymentStatus, active bool) models.Student {
	return models.Student{ID: uuid.New(), FeeAmount: fee, PaymentStatus: st, IsActive: active}
}

func TestSummarize(t *testing.T) {
	students := []models.Student{
		student(100, models.Paid, true),
		student(100, models.Partial, true),
		student(100, models.NotPaid, true),
		student(100, models.Exempt, true),
		student(500, models.NotPaid, false),
	}
	payments := []models.Payment{{Amount: 100}, {Amount: 40}}

	s := Summarize(students, payments)
	assert.InDelta(t, 300, s.TotalExpected, 1e-9)
	assert.InDelta(t, 140, s.TotalReceived, 1e-9)
	assert.InDelta(t, 160, s.TotalPending, 1e-9)
	assert.Equal(t, 1, s.PaidCount)
	assert.Equal(t, 1, s.PartialCount)
	assert.Equal(t, 1, s.UnpaidCount)
	assert.Equal(t, 1, s.ExemptCount)
}

func TestSummarize_OverpaidHasNoPending(t *testing.T) {
	s := Summarize([]models.Student{student(50, models.Paid, true)}, []models.Payment{{Amount: 80}})
	assert.Zero(t, s.TotalPending)
}

func TestProject(t *testing.T) {
	p := Project(1000)
	assert.InDelta(t, 300, p.Admin, 1e-9)
	assert.InDelta(t, 200, p.Staff, 1e-9)
	assert.InDelta(t, 500, p.Teachers, 1e-9)
}

func TestEarnings(t *testing.T) {
	periods := []models.TeachingPeriod{
		{TeacherName: "Mr. Kobi", Rate: 50},
		{TeacherName: "Mrs. Mensah", Rate: 30},
		{TeacherName: "Mr. Kobi", Rate: 20},
	}
	got := Earnings(periods)
	require.Len(t, got, 2)
	assert.Equal(t, "Mr. Kobi", got[0].TeacherName)
	assert.Equal(t, 2, got[0].TotalPeriods)
	assert.InDelta(t, 70, got[0].TotalEarnings, 1e-9)
	assert.InDelta(t, 70, got[0].SharePercentage, 1e-9)
	assert.InDelta(t, 30, got[1].SharePercentage, 1e-9)
}

func TestBuild_DateFilter(t *testing.T) {
	from := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC)
	payments := []models.Payment{
		{Amount: 10, DatePaid: models.NewDate(2025, 1, 9)},
		{Amount: 20, DatePaid: models.NewDate(2025, 1, 10)},
		{Amount: 30, DatePaid: models.NewDate(2025, 1, 20)},
		{Amount: 40},
	}
	r := Build([]models.Student{student(100, models.Partial, true)}, payments, nil, Filter{From: &from, To: &to})

	assert.InDelta(t, 50, r.TotalRevenue, 1e-9)
	assert.InDelta(t, 50, r.CollectionRate, 1e-9)
	require.Len(t, r.Payments, 2)
	assert.InDelta(t, 30, r.Payments[0].Amount, 1e-9, "сначала свежие платежи")
}

func TestBuild_NoExpectedRevenue(t *testing.T) {
	r := Build(nil, []models.Payment{{Amount: 5}}, nil, Filter{})
	assert.Zero(t, r.CollectionRate)
	assert.Zero(t, r.TotalStudents)
}
