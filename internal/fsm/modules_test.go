package fsm

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/kyefa/internal/dialog"
	"github.com/Spok95/kyefa/internal/models"
)

func fillPeriod(h *harness, subject, class, teacher, rate, date, start, end string) {
	h.dispatch(PeriodFieldChanged{Field: PeriodSubject, Value: subject})
	h.dispatch(PeriodFieldChanged{Field: PeriodClass, Value: class})
	h.dispatch(PeriodFieldChanged{Field: PeriodTeacher, Value: teacher})
	h.dispatch(PeriodFieldChanged{Field: PeriodRate, Value: rate})
	h.dispatch(PeriodFieldChanged{Field: PeriodDate, Value: date})
	h.dispatch(PeriodFieldChanged{Field: PeriodStart, Value: start})
	h.dispatch(PeriodFieldChanged{Field: PeriodEnd, Value: end})
}

func TestPeriods_CreateValidateAndSort(t *testing.T) {
	h := newHarness(t)
	d := h.login()
	p := d.Periods

	h.dispatch(ShowAddPeriodDialog{})
	fillPeriod(h, "Maths", "IGCSE1", "Mr. Kobi", "abc", "05/03/2025", "8", "10")
	assert.Empty(t, h.app.Update(SubmitPeriod{}))
	assert.Equal(t, "Rate must be a number.", p.FormError)

	fillPeriod(h, "Maths", "IGCSE1", "Mr. Kobi", "50", "2025/03/05", "8", "10")
	h.dispatch(SubmitPeriod{})
	assert.Equal(t, "Date must be in DD/MM/YYYY format.", p.FormError)

	fillPeriod(h, "Maths", "IGCSE1", "Mr. Kobi", "50", "05/03/2025", "10", "9")
	h.dispatch(SubmitPeriod{})
	assert.Equal(t, "End hour must be after start hour.", p.FormError)

	fillPeriod(h, "Maths", "IGCSE1", "Mr. Kobi", "50", "05/03/2025", "8", "10")
	h.dispatch(SubmitPeriod{})
	require.Empty(t, p.FormError)
	assert.False(t, p.ShowDialog)

	h.dispatch(ShowAddPeriodDialog{})
	fillPeriod(h, "Physics", "WASSCE1", "Mrs. Mensah", "40", "01/03/2025", "9", "11")
	h.dispatch(SubmitPeriod{})

	require.Len(t, p.Periods, 2)
	assert.Equal(t, "Physics", p.Periods[0].Subject, "сначала более ранняя дата")
	assert.Equal(t, uint32(2), p.Periods[1].Hours())

	h.dispatch(UpdatePeriodSearch{Query: "wassce"})
	vis := p.Visible()
	require.Len(t, vis, 1)
	assert.Equal(t, "Physics", vis[0].Subject)
}

func TestPeriods_EditAndDelete(t *testing.T) {
	h := newHarness(t)
	d := h.login()
	p := d.Periods
	h.gw.periods = []models.TeachingPeriod{
		{ID: "p1", Subject: "Maths", Class: "IGCSE1", TeacherName: "Mr. Kobi", Rate: 50,
			Date: models.NewDate(2025, 3, 5), StartTime: 8, EndTime: 10},
	}
	h.dispatch(FetchPeriods{})
	require.Len(t, p.Periods, 1)

	assert.Empty(t, h.app.Update(EditPeriod{ID: "missing"}))
	assert.False(t, p.ShowDialog)

	h.dispatch(EditPeriod{ID: "p1"})
	require.True(t, p.ShowDialog)
	assert.Equal(t, "05/03/2025", p.Form.Date)
	assert.Equal(t, "50", p.Form.Rate)

	h.dispatch(PeriodFieldChanged{Field: PeriodRate, Value: "65"})
	h.dispatch(SubmitPeriod{})
	require.Len(t, p.Periods, 1)
	assert.InDelta(t, 65, p.Periods[0].Rate, 1e-9)

	h.dispatch(DeletePeriod{ID: "p1"})
	assert.Empty(t, p.Periods)
}

func TestPayments_RecordWithBanner(t *testing.T) {
	h := newHarness(t)
	d := h.login()
	p := d.Payments
	id := uuid.NewString()

	h.dispatch(PaymentFieldChanged{Field: PaymentStudent, Value: id})
	h.dispatch(PaymentFieldChanged{Field: PaymentAmount, Value: "ten"})
	h.dispatch(SubmitPayment{})
	assert.Equal(t, "Amount must be a number.", p.FormError)

	h.dispatch(PaymentFieldChanged{Field: PaymentAmount, Value: "120.50"})
	h.dispatch(SubmitPayment{})
	assert.Equal(t, "Please enter a payment method.", p.FormError)

	h.dispatch(PaymentFieldChanged{Field: PaymentMethod, Value: "Mobile Money"})
	h.dispatch(SubmitPayment{})
	require.Len(t, p.Payments, 1)
	got := p.Payments[0]
	assert.Equal(t, id, got.StudentID)
	assert.InDelta(t, 120.5, got.Amount, 1e-9)
	assert.Equal(t, models.NewDate(2025, 3, 1), got.DatePaid)
	assert.True(t, p.ShowSuccess)
	assert.Equal(t, PaymentForm{}, p.Form)

	h.dispatch(ClearPaymentBanner{Seq: p.BannerSeq() - 1})
	assert.True(t, p.ShowSuccess)
	h.fireTimers()
	assert.False(t, p.ShowSuccess)
}

func TestUsers_CreateDeleteReset(t *testing.T) {
	h := newHarness(t)
	d := h.login()
	u := d.Users
	h.gw.users = []models.UserRecord{
		{ID: "u2", Username: "zara", Role: models.Teacher},
		{ID: "u1", Username: "kofi", Role: models.Staff, FirstName: "Kofi", Surname: "Mensah"},
	}
	h.dispatch(FetchUsers{})
	require.Len(t, u.Users, 2)
	assert.Equal(t, "kofi", u.Users[0].Username)

	h.dispatch(ShowAddUserDialog{})
	h.dispatch(UserFieldChanged{Field: UserUsername, Value: "ab"})
	h.dispatch(SubmitNewUser{})
	assert.Equal(t, "Username must be at least 3 characters.", u.FormError)

	h.dispatch(UserFieldChanged{Field: UserUsername, Value: "esi"})
	h.dispatch(UserFieldChanged{Field: UserFirstName, Value: "Esi"})
	h.dispatch(UserFieldChanged{Field: UserSurname, Value: "Adjei"})
	h.dispatch(UserFieldChanged{Field: UserRole, Value: "dataentry"})
	h.dispatch(UserFieldChanged{Field: UserPassword, Value: "password1"})
	h.dispatch(SubmitNewUser{})
	require.Empty(t, u.FormError)
	require.Len(t, u.Users, 3)
	assert.Equal(t, "esi", u.Users[0].Username)
	assert.Equal(t, models.DataEntry, u.Users[0].Role)
	assert.False(t, u.ShowDialog)

	h.dispatch(UpdateUserSearch{Query: "mensah"})
	require.Len(t, u.Visible(), 1)

	h.gw.resetMsg = "Temporary password: X1y2Z3"
	h.dispatch(ResetUserPassword{ID: "u1"})
	assert.Equal(t, "Temporary password: X1y2Z3", u.Notice)

	h.dispatch(DeleteUser{ID: "u2"})
	assert.Len(t, u.Users, 2)

	self := d.Session.UserID.String()
	assert.Empty(t, h.app.Update(DeleteUser{ID: self}))
	assert.Equal(t, msgSelfDelete, u.ActionError)
}

func TestReports_LoadFilterExport(t *testing.T) {
	dir := t.TempDir()
	h := newHarness(t, func(d *Deps) { d.Dialogs = dialog.Preset{Save: dir} })
	d := h.login()
	r := d.Reports

	h.dispatch(ExportReport{Format: FormatXLSX})
	assert.Equal(t, msgNotLoaded, r.ExportError)

	st := studentFrom(uuid.New(), "Ama", "Owusu", nil, models.Female, models.IGCSE1)
	h.gw.students = []models.Student{st}
	h.gw.payments = []models.Payment{
		{StudentID: st.ID.String(), Amount: 100, DatePaid: models.NewDate(2025, 1, 15)},
		{StudentID: st.ID.String(), Amount: 50, DatePaid: models.NewDate(2025, 2, 15)},
	}
	h.gw.periods = []models.TeachingPeriod{{TeacherName: "Mr. Kobi", Rate: 40, Date: models.NewDate(2025, 1, 20)}}
	h.dispatch(RefreshReports{})
	require.True(t, r.Loaded)
	assert.InDelta(t, 150, r.Report.TotalRevenue, 1e-9)
	assert.InDelta(t, 30, r.Report.CollectionRate, 1e-9)

	h.dispatch(UpdateDateFilterFrom{Value: "01/02/2025"})
	h.dispatch(UpdateDateFilterTo{Value: "01/01/2025"})
	h.dispatch(ApplyReportFilters{})
	assert.NotEmpty(t, r.FilterError)

	h.dispatch(UpdateDateFilterTo{Value: "28/02/2025"})
	h.dispatch(ApplyReportFilters{})
	require.Empty(t, r.FilterError)
	assert.InDelta(t, 50, r.Report.TotalRevenue, 1e-9)
	assert.Empty(t, r.Report.TeacherEarnings)

	h.dispatch(SelectReportType{Type: models.ReportStudentPayments})
	h.dispatch(ExportReport{Format: FormatPDF})
	require.Empty(t, r.ExportError)
	assert.Equal(t, filepath.Join(dir, "Kyefa - Student Payments - 2025-03-01.pdf"), r.LastExport)
	b, err := os.ReadFile(r.LastExport)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(b, []byte("%PDF")))

	h.dispatch(ExportReport{Format: FormatXLSX})
	require.Empty(t, r.ExportError)
	assert.FileExists(t, filepath.Join(dir, "Kyefa - Student Payments - 2025-03-01.xlsx"))
}
