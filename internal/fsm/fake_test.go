package fsm

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/kyefa/internal/dialog"
	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/export"
	"github.com/Spok95/kyefa/internal/models"
)

// fakeGateway — бэкенд в памяти; ошибки задаются полями.
type fakeGateway struct {
	mu    sync.Mutex
	calls []string

	user     models.UserRecord
	loginErr error

	students  []models.Student
	listErr   error
	createErr error
	updateErr error
	deleteErr error
	importErr error

	periods  []models.TeachingPeriod
	payments []models.Payment
	users    []models.UserRecord
	resetMsg string
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		user: models.UserRecord{
			ID: uuid.NewString(), Username: "admin", Role: models.Admin,
			IsActive: true, FirstName: "Ama", Surname: "Boateng",
		},
	}
}

func (g *fakeGateway) called(op string) {
	g.mu.Lock()
	g.calls = append(g.calls, op)
	g.mu.Unlock()
}

func (g *fakeGateway) Calls() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.calls...)
}

func (g *fakeGateway) Login(_ context.Context, _, _ string) (models.UserRecord, error) {
	g.called("login")
	return g.user, g.loginErr
}

func (g *fakeGateway) ListStudents(context.Context) ([]models.Student, error) {
	g.called("list_students")
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]models.Student(nil), g.students...), nil
}

func studentFrom(id uuid.UUID, first, surname string, other *string, gd models.Gender, cl models.ClassLevel) models.Student {
	return models.Student{
		ID:            id,
		Name:          models.PersonName{FirstName: first, Surname: surname, OtherNames: other},
		Gender:        gd,
		ClassLevel:    cl,
		IsActive:      true,
		FeeAmount:     500,
		PaymentStatus: models.NotPaid,
	}
}

func (g *fakeGateway) CreateStudent(_ context.Context, p models.CreateStudentPayload) (models.Student, error) {
	g.called("create_student")
	if g.createErr != nil {
		return models.Student{}, g.createErr
	}
	st := studentFrom(uuid.New(), p.FirstName, p.Surname, p.OtherNames, p.Gender, p.ClassLevel)
	g.students = append(g.students, st)
	return st, nil
}

func (g *fakeGateway) UpdateStudent(_ context.Context, p models.UpdateStudentPayload) (models.Student, error) {
	g.called("update_student")
	if g.updateErr != nil {
		return models.Student{}, g.updateErr
	}
	return studentFrom(p.ID, p.FirstName, p.Surname, p.OtherNames, p.Gender, p.ClassLevel), nil
}

func (g *fakeGateway) DeleteStudent(context.Context, uuid.UUID) error {
	g.called("delete_student")
	return g.deleteErr
}

// ImportStudents разбирает файл тем же парсером, что и клиент, как это делал бы сервер.
func (g *fakeGateway) ImportStudents(_ context.Context, _ string, data []byte) error {
	g.called("import_students")
	if g.importErr != nil {
		return g.importErr
	}
	p, err := export.ParseStudents("upload.xlsx", data)
	if err != nil {
		return err
	}
	for _, r := range p.Rows {
		g.students = append(g.students, studentFrom(uuid.New(), r.FirstName, r.Surname, r.OtherNames, r.Gender, r.ClassLevel))
	}
	return nil
}

func (g *fakeGateway) ListTeachingPeriods(context.Context) ([]models.TeachingPeriod, error) {
	g.called("list_periods")
	return append([]models.TeachingPeriod(nil), g.periods...), nil
}

func (g *fakeGateway) SaveTeachingPeriod(_ context.Context, p models.TeachingPeriod) (models.TeachingPeriod, error) {
	g.called("save_period")
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return p, nil
}

func (g *fakeGateway) DeleteTeachingPeriod(context.Context, string) error {
	g.called("delete_period")
	return nil
}

func (g *fakeGateway) ListPayments(context.Context) ([]models.Payment, error) {
	g.called("list_payments")
	return append([]models.Payment(nil), g.payments...), nil
}

func (g *fakeGateway) RecordPayment(_ context.Context, p models.Payment) (models.Payment, error) {
	g.called("record_payment")
	p.ID = uuid.NewString()
	p.Status = models.Partial
	return p, nil
}

func (g *fakeGateway) ListUsers(context.Context) ([]models.UserRecord, error) {
	g.called("list_users")
	return append([]models.UserRecord(nil), g.users...), nil
}

func (g *fakeGateway) CreateUser(_ context.Context, p models.CreateUserPayload) (models.UserRecord, error) {
	g.called("create_user")
	return models.UserRecord{ID: uuid.NewString(), Username: p.Username, Role: p.Role, IsActive: true,
		FirstName: p.FirstName, Surname: p.Surname}, nil
}

func (g *fakeGateway) DeleteUser(context.Context, string) error {
	g.called("delete_user")
	return nil
}

func (g *fakeGateway) ResetUserPassword(context.Context, string) (string, error) {
	g.called("reset_password")
	return g.resetMsg, nil
}

type memCache struct {
	rosters map[string][]models.Student
}

func (c *memCache) SaveRoster(_ context.Context, owner string, list []models.Student) error {
	c.rosters[owner] = list
	return nil
}

func (c *memCache) LoadRoster(_ context.Context, owner string) ([]models.Student, error) {
	return c.rosters[owner], nil
}

// harness прогоняет эффекты синхронно, как цикл с одним исполнителем.
// Таймеры не запускаются, а складываются в timers.
type harness struct {
	t      *testing.T
	app    *App
	gw     *fakeGateway
	timers []effect.Effect
}

func newHarness(t *testing.T, mod ...func(*Deps)) *harness {
	gw := newFakeGateway()
	d := Deps{
		Gateway:   gw,
		Dialogs:   dialog.Preset{},
		BannerTTL: time.Millisecond,
		Now:       func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) },
	}
	for _, m := range mod {
		m(&d)
	}
	return &harness{t: t, app: New(d), gw: gw}
}

func (h *harness) dispatch(msg Msg) {
	queue := []Msg{msg}
	for len(queue) > 0 {
		m := queue[0]
		queue = queue[1:]
		for _, eff := range h.app.Update(m) {
			if eff.Timer {
				h.timers = append(h.timers, eff)
				continue
			}
			if out := eff.Run(context.Background()); out != nil {
				queue = append(queue, out)
			}
		}
	}
}

// fireTimers отдаёт накопленные таймеры в порядке постановки.
func (h *harness) fireTimers() {
	timers := h.timers
	h.timers = nil
	for _, eff := range timers {
		if out := eff.Run(context.Background()); out != nil {
			h.dispatch(out)
		}
	}
}

func (h *harness) login() *DashboardState {
	h.t.Helper()
	h.dispatch(AttemptLogin{})
	d := h.app.Dashboard()
	require.NotNil(h.t, d, "ожидали дашборд после входа")
	return d
}

func (h *harness) students() *StudentManagerState {
	h.t.Helper()
	d := h.app.Dashboard()
	require.NotNil(h.t, d)
	return d.Students
}

func (h *harness) fillCreate(first, surname string, g models.Gender, cl models.ClassLevel) {
	h.dispatch(CreateFieldChanged{Field: FieldFirstName, Value: first})
	h.dispatch(CreateFieldChanged{Field: FieldSurname, Value: surname})
	h.dispatch(CreateFieldChanged{Field: FieldGender, Value: string(g)})
	h.dispatch(CreateFieldChanged{Field: FieldClassLevel, Value: string(cl)})
}

func (h *harness) create(first, surname string) models.Student {
	h.t.Helper()
	h.fillCreate(first, surname, models.Male, models.IGCSE1)
	h.dispatch(SubmitNewStudent{})
	s := h.students()
	require.Empty(h.t, s.FormError)
	for _, st := range s.Students {
		if st.Name.FirstName == first && st.Name.Surname == surname {
			return st
		}
	}
	h.t.Fatalf("ученик %s %s не появился в списке", first, surname)
	return models.Student{}
}
