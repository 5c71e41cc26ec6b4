package export

import (
	"fmt"
	"strconv"

	"github.com/Spok95/kyefa/internal/analytics"
	"github.com/Spok95/kyefa/internal/models"
)

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func pct(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "%" }

// ReportSheet раскладывает выбранный отчёт в таблицу.
func ReportSheet(r analytics.Report, t models.ReportType) (SheetSpec, error) {
	switch t {
	case models.ReportProjectedIncome:
		return SheetSpec{
			Title:  t.Title(),
			Header: []string{"Category", "Share", "Amount"},
			Rows: [][]string{
				{"Administration", pct(analytics.AdminSharePct), money(r.Projected.Admin)},
				{"Staff", pct(analytics.StaffSharePct), money(r.Projected.Staff)},
				{"Teachers", pct(analytics.TeacherSharePct), money(r.Projected.Teachers)},
				{"Total", pct(100), money(r.Projected.Total)},
			},
		}, nil
	case models.ReportCollectionStatus:
		s := r.Summary
		return SheetSpec{
			Title:  t.Title(),
			Header: []string{"Metric", "Value"},
			Rows: [][]string{
				{"Total students", strconv.Itoa(r.TotalStudents)},
				{"Expected revenue", money(r.ExpectedRevenue)},
				{"Received", money(s.TotalReceived)},
				{"Pending", money(s.TotalPending)},
				{"Collection rate", pct(r.CollectionRate)},
				{"Paid", strconv.Itoa(s.PaidCount)},
				{"Partial", strconv.Itoa(s.PartialCount)},
				{"Not paid", strconv.Itoa(s.UnpaidCount)},
				{"Exempt", strconv.Itoa(s.ExemptCount)},
			},
		}, nil
	case models.ReportTeacherEarnings:
		rows := make([][]string, 0, len(r.TeacherEarnings))
		for _, e := range r.TeacherEarnings {
			rows = append(rows, []string{e.TeacherName, strconv.Itoa(e.TotalPeriods), money(e.TotalEarnings), pct(e.SharePercentage)})
		}
		return SheetSpec{
			Title:  t.Title(),
			Header: []string{"Teacher", "Periods", "Earnings", "Share"},
			Rows:   rows,
		}, nil
	case models.ReportStudentPayments:
		rows := make([][]string, 0, len(r.Payments))
		for _, p := range r.Payments {
			date := ""
			if !p.DatePaid.IsZero() {
				date = p.DatePaid.Format("02/01/2006")
			}
			name, ok := r.StudentNames[p.StudentID]
			if !ok {
				name = p.StudentID
			}
			rows = append(rows, []string{date, name, money(p.Amount), p.Method, string(p.Status), p.Description})
		}
		return SheetSpec{
			Title:  t.Title(),
			Header: []string{"Date", "Student", "Amount", "Method", "Status", "Description"},
			Rows:   rows,
		}, nil
	}
	return SheetSpec{}, fmt.Errorf("unknown report type %q", t)
}

// ReportWorkbook — выбранный отчёт первым листом, остальные следом.
func ReportWorkbook(r analytics.Report, first models.ReportType) (*Workbook, error) {
	order := []models.ReportType{first}
	for _, t := range models.ReportTypes {
		if t != first {
			order = append(order, t)
		}
	}
	sheets := make([]SheetSpec, 0, len(order))
	for _, t := range order {
		s, err := ReportSheet(r, t)
		if err != nil {
			return nil, err
		}
		sheets = append(sheets, s)
	}
	return NewWorkbook(sheets)
}
