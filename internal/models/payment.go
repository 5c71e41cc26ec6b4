package models

type Payment struct {
	ID          string        `json:"id,omitempty"`
	StudentID   string        `json:"student_id"`
	Amount      float64       `json:"amount"`
	Method      string        `json:"method"`
	Description string        `json:"description"`
	Status      PaymentStatus `json:"status"`
	DatePaid    Date          `json:"date_paid"`
}

type PaymentSummary struct {
	TotalExpected float64
	TotalReceived float64
	TotalPending  float64
	PaidCount     int
	PartialCount  int
	UnpaidCount   int
	ExemptCount   int
}

type TeacherEarnings struct {
	TeacherName     string
	TotalPeriods    int
	TotalEarnings   float64
	SharePercentage float64
}

type ReportType string

const (
	ReportProjectedIncome  ReportType = "projected_income"
	ReportCollectionStatus ReportType = "collection_status"
	ReportTeacherEarnings  ReportType = "teacher_earnings"
	ReportStudentPayments  ReportType = "student_payments"
)

var ReportTypes = []ReportType{
	ReportProjectedIncome,
	ReportCollectionStatus,
	ReportTeacherEarnings,
	ReportStudentPayments,
}

func ParseReportType(s string) (ReportType, bool) {
	for _, r := range ReportTypes {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

func (r ReportType) Title() string {
	switch r {
	case ReportProjectedIncome:
		return "Projected Income"
	case ReportCollectionStatus:
		return "Collection Status"
	case ReportTeacherEarnings:
		return "Teacher Earnings"
	case ReportStudentPayments:
		return "Student Payments"
	}
	return string(r)
}
