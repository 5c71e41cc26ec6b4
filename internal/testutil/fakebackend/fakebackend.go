// Package fakebackend — бэкенд kyefa в памяти поверх httptest, для тестов
// шлюза, цикла и CLI. Контракт тот же, что у настоящего сервера.
package fakebackend

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Spok95/kyefa/internal/export"
	"github.com/Spok95/kyefa/internal/models"
)

const DefaultFee = 500

type account struct {
	rec      models.UserRecord
	password string
}

type failure struct {
	status int
	body   string
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]*account // по логину
	students []models.Student
	periods  []models.TeachingPeriod
	payments []models.Payment
	fail     map[string]failure // "METHOD /path" → ответ
	hits     []string
}

// New поднимает сервер с учётной записью admin/secret.
func New() *Server {
	s := &Server{
		accounts: map[string]*account{},
		fail:     map[string]failure{},
	}
	s.AddUser(models.UserRecord{
		ID: uuid.NewString(), Username: "admin", Role: models.Admin,
		IsActive: true, FirstName: "Ama", Surname: "Boateng",
	}, "secret")
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) AddUser(rec models.UserRecord, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[rec.Username] = &account{rec: rec, password: password}
}

// Fail задаёт ответ для следующего запроса "METHOD /path" (один раз).
func (s *Server) Fail(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[route] = failure{status: status, body: body}
}

func (s *Server) Students() []models.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Student(nil), s.students...)
}

func (s *Server) SeedStudents(list ...models.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students = append(s.students, list...)
}

func (s *Server) SeedPeriods(list ...models.TeachingPeriod) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods = append(s.periods, list...)
}

func (s *Server) SeedPayments(list ...models.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments = append(s.payments, list...)
}

// Hits — маршруты в порядке обращения.
func (s *Server) Hits() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.hits...)
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Post("/login", s.login)

	r.Get("/students", s.listStudents)
	r.Post("/students", s.createStudent)
	r.Put("/students", s.updateStudent)
	r.Delete("/students/{id}", s.deleteStudent)
	r.Post("/students/import", s.importStudents)

	r.Get("/teaching-periods", s.listPeriods)
	r.Post("/teaching-periods", s.savePeriod)
	r.Put("/teaching-periods", s.savePeriod)
	r.Delete("/teaching-periods/{id}", s.deletePeriod)

	r.Get("/payments", s.listPayments)
	r.Post("/payments", s.recordPayment)

	r.Get("/users", s.listUsers)
	r.Post("/users", s.createUser)
	r.Delete("/users/{id}", s.deleteUser)
	r.Post("/users/{id}/reset-password", s.resetPassword)
	return r
}

// record пишет обращение и отдаёт заранее заданный отказ, если он есть.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		s.mu.Lock()
		s.hits = append(s.hits, route)
		f, ok := s.fail[route]
		delete(s.fail, route)
		s.mu.Unlock()
		if ok {
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "Malformed request body.")
		return false
	}
	return true
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !readJSON(w, r, &in) {
		return
	}
	s.mu.Lock()
	acc, ok := s.accounts[in.Username]
	s.mu.Unlock()
	switch {
	case !ok:
		w.WriteHeader(http.StatusNotFound)
	case acc.password != in.Password:
		w.WriteHeader(http.StatusUnauthorized)
	default:
		writeJSON(w, http.StatusOK, acc.rec)
	}
}

func newStudent(p models.CreateStudentPayload) models.Student {
	return models.Student{
		ID:            uuid.New(),
		Name:          models.PersonName{FirstName: p.FirstName, Surname: p.Surname, OtherNames: p.OtherNames},
		Gender:        p.Gender,
		ClassLevel:    p.ClassLevel,
		IsActive:      true,
		FeeAmount:     DefaultFee,
		PaymentStatus: models.NotPaid,
	}
}

func (s *Server) listStudents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Students())
}

func (s *Server) createStudent(w http.ResponseWriter, r *http.Request) {
	var p models.CreateStudentPayload
	if !readJSON(w, r, &p) {
		return
	}
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.Surname) == "" {
		writeMessage(w, http.StatusBadRequest, "Name is required.")
		return
	}
	st := newStudent(p)
	s.mu.Lock()
	s.students = append(s.students, st)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) updateStudent(w http.ResponseWriter, r *http.Request) {
	var p models.UpdateStudentPayload
	if !readJSON(w, r, &p) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.students {
		if s.students[i].ID == p.ID {
			st := &s.students[i]
			st.Name = models.PersonName{FirstName: p.FirstName, Surname: p.Surname, OtherNames: p.OtherNames}
			st.Gender = p.Gender
			st.ClassLevel = p.ClassLevel
			writeJSON(w, http.StatusOK, *st)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Student not found.")
}

func (s *Server) deleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid student id.")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.students {
		if s.students[i].ID == id {
			s.students = append(s.students[:i:i], s.students[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Student not found.")
}

// importStudents разбирает файл тем же парсером, что и клиент.
func (s *Server) importStudents(w http.ResponseWriter, r *http.Request) {
	f, hdr, err := r.FormFile("file")
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "File field is missing.")
		return
	}
	defer func() { _ = f.Close() }()
	data, err := io.ReadAll(f)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	preview, err := export.ParseStudents(hdr.Filename, data)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mu.Lock()
	for _, row := range preview.Rows {
		s.students = append(s.students, newStudent(row.Payload()))
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"imported": len(preview.Rows)})
}

func (s *Server) listPeriods(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]models.TeachingPeriod(nil), s.periods...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) savePeriod(w http.ResponseWriter, r *http.Request) {
	var p models.TeachingPeriod
	if !readJSON(w, r, &p) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Method == http.MethodPost {
		p.ID = uuid.NewString()
		s.periods = append(s.periods, p)
		writeJSON(w, http.StatusCreated, p)
		return
	}
	for i := range s.periods {
		if s.periods[i].ID == p.ID {
			s.periods[i] = p
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Teaching period not found.")
}

func (s *Server) deletePeriod(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.periods {
		if s.periods[i].ID == id {
			s.periods = append(s.periods[:i:i], s.periods[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeMessage(w, http.StatusNotFound, "Teaching period not found.")
}

func (s *Server) listPayments(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := append([]models.Payment(nil), s.payments...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

// recordPayment пересчитывает статус оплаты ученика по сумме платежей.
func (s *Server) recordPayment(w http.ResponseWriter, r *http.Request) {
	var p models.Payment
	if !readJSON(w, r, &p) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var st *models.Student
	for i := range s.students {
		if s.students[i].ID.String() == p.StudentID {
			st = &s.students[i]
		}
	}
	if st == nil {
		writeMessage(w, http.StatusNotFound, "Student not found.")
		return
	}
	p.ID = uuid.NewString()
	paid := p.Amount
	for _, q := range s.payments {
		if q.StudentID == p.StudentID {
			paid += q.Amount
		}
	}
	if paid >= st.FeeAmount {
		st.PaymentStatus = models.Paid
	} else {
		st.PaymentStatus = models.Partial
	}
	p.Status = st.PaymentStatus
	s.payments = append(s.payments, p)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) listUsers(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]models.UserRecord, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a.rec)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var p models.CreateUserPayload
	if !readJSON(w, r, &p) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[p.Username]; ok {
		writeMessage(w, http.StatusConflict, "Username is already taken.")
		return
	}
	rec := models.UserRecord{
		ID: uuid.NewString(), Username: p.Username, Role: p.Role, IsActive: true,
		FirstName: p.FirstName, Surname: p.Surname, OtherNames: p.OtherNames,
	}
	s.accounts[p.Username] = &account{rec: rec, password: p.Password}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) byID(id string) *account {
	for _, a := range s.accounts {
		if a.rec.ID == id {
			return a
		}
	}
	return nil
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.byID(chi.URLParam(r, "id"))
	if a == nil {
		writeMessage(w, http.StatusNotFound, "User not found.")
		return
	}
	delete(s.accounts, a.rec.Username)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetPassword(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := s.byID(chi.URLParam(r, "id"))
	if a == nil {
		writeMessage(w, http.StatusNotFound, "User not found.")
		return
	}
	a.password = "changeme1"
	writeMessage(w, http.StatusOK, "Temporary password: changeme1")
}
