package analytics

import (
	"sort"
	"strings"
	"time"

	"github.com/Spok95/kyefa/internal/models"
)

// Доли распределения прогнозируемого дохода, в процентах.
const (
	AdminSharePct   = 30.0
	StaffSharePct   = 20.0
	TeacherSharePct = 50.0
)

type ProjectedIncome struct {
	Total    float64
	Admin    float64
	Staff    float64
	Teachers float64
}

// Filter — включительный диапазон дат; nil-граница не ограничивает.
type Filter struct {
	From *time.Time
	To   *time.Time
}

func (f Filter) Active() bool { return f.From != nil || f.To != nil }

func (f Filter) contains(d models.Date) bool {
	if !f.Active() {
		return true
	}
	if d.IsZero() {
		return false
	}
	if f.From != nil && d.Before(*f.From) {
		return false
	}
	if f.To != nil && d.After(*f.To) {
		return false
	}
	return true
}

type Report struct {
	TotalStudents   int
	ExpectedRevenue float64
	TotalRevenue    float64
	CollectionRate  float64
	Summary         models.PaymentSummary
	Projected       ProjectedIncome
	TeacherEarnings []models.TeacherEarnings
	Payments        []models.Payment
	// StudentNames: id → полное имя, для строк платежей.
	StudentNames map[string]string
}

func Build(students []models.Student, payments []models.Payment, periods []models.TeachingPeriod, f Filter) Report {
	var ps []models.Payment
	for _, p := range payments {
		if f.contains(p.DatePaid) {
			ps = append(ps, p)
		}
	}
	var tp []models.TeachingPeriod
	for _, p := range periods {
		if f.contains(p.Date) {
			tp = append(tp, p)
		}
	}
	sort.SliceStable(ps, func(i, j int) bool { return ps[i].DatePaid.After(ps[j].DatePaid.Time) })

	sum := Summarize(students, ps)
	r := Report{
		TotalStudents:   countActive(students),
		ExpectedRevenue: sum.TotalExpected,
		TotalRevenue:    sum.TotalReceived,
		Summary:         sum,
		Projected:       Project(sum.TotalExpected),
		TeacherEarnings: Earnings(tp),
		Payments:        ps,
		StudentNames:    make(map[string]string, len(students)),
	}
	for _, st := range students {
		r.StudentNames[st.ID.String()] = st.Name.Full()
	}
	if sum.TotalExpected > 0 {
		r.CollectionRate = sum.TotalReceived / sum.TotalExpected * 100
	}
	return r
}

func countActive(students []models.Student) int {
	n := 0
	for _, s := range students {
		if s.IsActive {
			n++
		}
	}
	return n
}

// Summarize: ожидаемое — сумма сборов активных учеников, полученное — сумма платежей.
func Summarize(students []models.Student, payments []models.Payment) models.PaymentSummary {
	var s models.PaymentSummary
	for _, st := range students {
		if !st.IsActive {
			continue
		}
		if st.PaymentStatus != models.Exempt {
			s.TotalExpected += st.FeeAmount
		}
		switch st.PaymentStatus {
		case models.Paid:
			s.PaidCount++
		case models.Partial:
			s.PartialCount++
		case models.Exempt:
			s.ExemptCount++
		default:
			s.UnpaidCount++
		}
	}
	for _, p := range payments {
		s.TotalReceived += p.Amount
	}
	if pending := s.TotalExpected - s.TotalReceived; pending > 0 {
		s.TotalPending = pending
	}
	return s
}

func Project(total float64) ProjectedIncome {
	return ProjectedIncome{
		Total:    total,
		Admin:    total * AdminSharePct / 100,
		Staff:    total * StaffSharePct / 100,
		Teachers: total * TeacherSharePct / 100,
	}
}

// Earnings группирует проведённые уроки по учителю; сортировка — по сумме, затем по имени.
func Earnings(periods []models.TeachingPeriod) []models.TeacherEarnings {
	byName := map[string]*models.TeacherEarnings{}
	var total float64
	for _, p := range periods {
		name := strings.TrimSpace(p.TeacherName)
		if name == "" {
			name = "Unassigned"
		}
		e, ok := byName[name]
		if !ok {
			e = &models.TeacherEarnings{TeacherName: name}
			byName[name] = e
		}
		e.TotalPeriods++
		e.TotalEarnings += p.Rate
		total += p.Rate
	}
	out := make([]models.TeacherEarnings, 0, len(byName))
	for _, e := range byName {
		if total > 0 {
			e.SharePercentage = e.TotalEarnings / total * 100
		}
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalEarnings != out[j].TotalEarnings {
			return out[i].TotalEarnings > out[j].TotalEarnings
		}
		return out[i].TeacherName < out[j].TeacherName
	})
	return out
}
