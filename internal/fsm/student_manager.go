package fsm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/kyefa/internal/apperr"
	"github.com/Spok95/kyefa/internal/dialog"
	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/export"
	"github.com/Spok95/kyefa/internal/models"
	"github.com/Spok95/kyefa/internal/validators"
)

type StudentField int

const (
	FieldFirstName StudentField = iota + 1
	FieldSurname
	FieldOtherNames
	FieldGender
	FieldClassLevel
)

// StudentForm — содержимое формы создания или редактирования.
type StudentForm struct {
	FirstName  string
	Surname    string
	OtherNames string
	Gender     models.Gender
	ClassLevel models.ClassLevel
}

func (f *StudentForm) set(field StudentField, v string) {
	switch field {
	case FieldFirstName:
		f.FirstName = v
	case FieldSurname:
		f.Surname = v
	case FieldOtherNames:
		f.OtherNames = v
	case FieldGender:
		// неизвестное значение — «не выбрано»
		f.Gender, _ = models.ParseGender(v)
	case FieldClassLevel:
		f.ClassLevel, _ = models.ParseClassLevel(v)
	}
}

func (f StudentForm) validate() error {
	return validators.ValidateStudent(validators.StudentForm{
		FirstName:  f.FirstName,
		Surname:    f.Surname,
		Gender:     f.Gender,
		ClassLevel: f.ClassLevel,
	})
}

func formFromStudent(s models.Student) StudentForm {
	f := StudentForm{
		FirstName:  s.Name.FirstName,
		Surname:    s.Name.Surname,
		Gender:     s.Gender,
		ClassLevel: s.ClassLevel,
	}
	if s.Name.OtherNames != nil {
		f.OtherNames = *s.Name.OtherNames
	}
	return f
}

// ---- сообщения ----

type CreateFieldChanged struct {
	studentScoped
	Field StudentField
	Value string
}

type EditFieldChanged struct {
	studentScoped
	Field StudentField
	Value string
}

type FetchStudents struct{ studentScoped }

type StudentsFetched struct {
	studentScoped
	Students []models.Student
}

type StudentFetchFailed struct {
	studentScoped
	Err error
}

// CachedRosterLoaded — снимок из локального кэша; применяется только до первой загрузки.
type CachedRosterLoaded struct {
	studentScoped
	Students []models.Student
}

type SubmitNewStudent struct{ studentScoped }

type StudentCreated struct {
	studentScoped
	Student models.Student
}

type StudentCreationFailed struct {
	studentScoped
	Err error
}

type ClearForm struct{ studentScoped }

type EditStudent struct {
	studentScoped
	ID uuid.UUID
}

type CancelEdit struct{ studentScoped }

type UpdateStudent struct {
	studentScoped
	ID uuid.UUID
}

type StudentUpdated struct {
	studentScoped
	Student models.Student
}

type StudentUpdateFailed struct {
	studentScoped
	ID  uuid.UUID
	Err error
}

type DeleteStudent struct {
	studentScoped
	ID uuid.UUID
}

type StudentDeleted struct {
	studentScoped
	ID uuid.UUID
}

type StudentDeletionFailed struct {
	studentScoped
	ID  uuid.UUID
	Err error
}

// ClearSuccessMessage снимает баннер, только если Seq — последний поднятый.
type ClearSuccessMessage struct {
	studentScoped
	Seq uint64
}

type GenerateExcelTemplate struct{ studentScoped }

type TemplateGenerated struct {
	studentScoped
	Path string
}

type TemplateGenerationFailed struct {
	studentScoped
	Err error
}

type ImportStudentsFromExcel struct{ studentScoped }

type ImportPreviewReady struct {
	studentScoped
	Preview *export.ImportPreview
}

type ConfirmImport struct{ studentScoped }

type CancelImport struct{ studentScoped }

type StudentsImported struct {
	studentScoped
	Count int
}

type ImportFailed struct {
	studentScoped
	Err error
}

// ---- состояние ----

type StudentManagerState struct {
	// Students всегда отсортирован по фамилии.
	Students []models.Student

	Create            StudentForm
	FormError         string
	IsCreating        bool
	ShowCreateSuccess bool

	Edit             StudentForm
	EditingStudentID *uuid.UUID
	EditError        string
	IsUpdating       bool
	ShowEditSuccess  bool

	// Notice — текст текущего баннера.
	Notice string

	FetchError string
	// Stale: список из кэша, сервер его ещё не подтвердил.
	Stale   bool
	fetched bool

	ImportPreview *export.ImportPreview
	ImportError   string
	IsImporting   bool
	TemplatePath  string
	TemplateError string

	bannerSeq uint64
}

func (s *StudentManagerState) BannerSeq() uint64 { return s.bannerSeq }

// Find — ученик по id из текущего списка.
func (s *StudentManagerState) Find(id uuid.UUID) (models.Student, bool) {
	for _, st := range s.Students {
		if st.ID == id {
			return st, true
		}
	}
	return models.Student{}, false
}

func (s *StudentManagerState) update(msg DashboardMsg, e *env) []effect.Effect {
	switch m := msg.(type) {
	case CreateFieldChanged:
		s.Create.set(m.Field, m.Value)
		s.FormError = ""
	case EditFieldChanged:
		if s.EditingStudentID == nil {
			return nil
		}
		s.Edit.set(m.Field, m.Value)
		s.EditError = ""

	case FetchStudents:
		s.FetchError = ""
		return one(listStudents(e))
	case StudentsFetched:
		s.Students = sortedBySurname(m.Students)
		s.Stale = false
		s.fetched = true
		s.FetchError = ""
		if e.Cache != nil {
			return one(cacheRoster(e, s.Students))
		}
	case StudentFetchFailed:
		s.FetchError = apperr.Message(m.Err)
		e.Log.Warn("fetch students failed", zap.Error(m.Err))
	case CachedRosterLoaded:
		if s.fetched || len(m.Students) == 0 {
			return nil
		}
		s.Students = sortedBySurname(m.Students)
		s.Stale = true

	case SubmitNewStudent:
		if s.IsCreating {
			return nil
		}
		if err := s.Create.validate(); err != nil {
			s.FormError = err.Error()
			return nil
		}
		s.FormError = ""
		s.IsCreating = true
		return one(createStudent(e, s.Create))
	case StudentCreated:
		s.IsCreating = false
		s.Students = insertSorted(s.Students, m.Student)
		s.Create = StudentForm{}
		s.FormError = ""
		return s.raiseBanner(e, true, "Student created successfully.")
	case StudentCreationFailed:
		s.IsCreating = false
		s.FormError = apperr.Message(m.Err)
	case ClearForm:
		s.Create = StudentForm{}
		s.FormError = ""

	case EditStudent:
		st, ok := s.Find(m.ID)
		if !ok {
			return nil
		}
		id := st.ID
		s.Edit = formFromStudent(st)
		s.EditingStudentID = &id
		s.EditError = ""
	case CancelEdit:
		s.clearEdit()
	case UpdateStudent:
		if s.EditingStudentID == nil || *s.EditingStudentID != m.ID || s.IsUpdating {
			return nil
		}
		if err := s.Edit.validate(); err != nil {
			s.EditError = err.Error()
			return nil
		}
		s.EditError = ""
		s.IsUpdating = true
		return one(updateStudent(e, m.ID, s.Edit))
	case StudentUpdated:
		s.IsUpdating = false
		if !s.replace(m.Student) {
			// запись удалили, пока шёл запрос; ничего не возвращаем в список
			e.Log.Debug("updated student no longer in roster", zap.Stringer("id", m.Student.ID))
		}
		if s.EditingStudentID != nil && *s.EditingStudentID == m.Student.ID {
			s.clearEdit()
		}
		return s.raiseBanner(e, false, "Student updated successfully.")
	case StudentUpdateFailed:
		s.IsUpdating = false
		s.EditError = apperr.Message(m.Err)

	case DeleteStudent:
		return one(deleteStudent(e, m.ID))
	case StudentDeleted:
		s.remove(m.ID)
		if s.EditingStudentID != nil && *s.EditingStudentID == m.ID {
			s.clearEdit()
		}
		return s.raiseBanner(e, false, "Student deleted.")
	case StudentDeletionFailed:
		s.EditError = apperr.Message(m.Err)

	case ClearSuccessMessage:
		if m.Seq != s.bannerSeq {
			return nil
		}
		s.ShowCreateSuccess = false
		s.ShowEditSuccess = false
		s.Notice = ""

	case GenerateExcelTemplate:
		s.TemplateError = ""
		return one(saveTemplate(e))
	case TemplateGenerated:
		s.TemplatePath = m.Path
		s.TemplateError = ""
	case TemplateGenerationFailed:
		s.TemplateError = apperr.Message(m.Err)

	case ImportStudentsFromExcel:
		if s.IsImporting {
			return nil
		}
		s.IsImporting = true
		s.ImportError = ""
		s.ImportPreview = nil
		return one(readImport(e))
	case ImportPreviewReady:
		s.IsImporting = false
		s.ImportPreview = m.Preview
	case ConfirmImport:
		p := s.ImportPreview
		if p == nil || s.IsImporting {
			return nil
		}
		s.ImportPreview = nil
		s.IsImporting = true
		return one(uploadImport(e, p))
	case CancelImport:
		s.ImportPreview = nil
		s.ImportError = ""
	case StudentsImported:
		s.IsImporting = false
		effs := s.raiseBanner(e, true, fmt.Sprintf("Imported %d students.", m.Count))
		// после импорта список всегда перечитывается целиком
		return append(effs, listStudents(e))
	case ImportFailed:
		s.IsImporting = false
		s.ImportError = apperr.Message(m.Err)
	}
	return nil
}

// raiseBanner показывает один баннер из двух и заводит таймер.
// Новый таймер вытесняет старый через номер: старый ClearSuccessMessage игнорируется.
func (s *StudentManagerState) raiseBanner(e *env, create bool, notice string) []effect.Effect {
	s.bannerSeq++
	s.ShowCreateSuccess = create
	s.ShowEditSuccess = !create
	s.Notice = notice
	return one(effect.After("clear_banner", e.BannerTTL, ClearSuccessMessage{Seq: s.bannerSeq}))
}

func (s *StudentManagerState) clearEdit() {
	s.Edit = StudentForm{}
	s.EditingStudentID = nil
	s.EditError = ""
}

func (s *StudentManagerState) replace(st models.Student) bool {
	for i := range s.Students {
		if s.Students[i].ID == st.ID {
			s.Students[i] = st
			sortStudents(s.Students)
			return true
		}
	}
	return false
}

func (s *StudentManagerState) remove(id uuid.UUID) {
	out := make([]models.Student, 0, len(s.Students))
	for _, st := range s.Students {
		if st.ID != id {
			out = append(out, st)
		}
	}
	s.Students = out
}

func sortStudents(list []models.Student) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Name.Surname < list[j].Name.Surname
	})
}

func sortedBySurname(in []models.Student) []models.Student {
	out := append([]models.Student(nil), in...)
	sortStudents(out)
	return out
}

func insertSorted(list []models.Student, st models.Student) []models.Student {
	list = append(list, st)
	sortStudents(list)
	return list
}

// ---- эффекты ----

func listStudents(e *env) effect.Effect {
	return e.effect("list_students", func(ctx context.Context) Msg {
		list, err := e.Gateway.ListStudents(ctx)
		if err != nil {
			return StudentFetchFailed{Err: err}
		}
		return StudentsFetched{Students: list}
	})
}

func createStudent(e *env, f StudentForm) effect.Effect {
	p := models.CreateStudentPayload{
		FirstName:  strings.TrimSpace(f.FirstName),
		Surname:    strings.TrimSpace(f.Surname),
		OtherNames: models.OptionalString(f.OtherNames),
		Gender:     f.Gender,
		ClassLevel: f.ClassLevel,
	}
	return e.effect("create_student", func(ctx context.Context) Msg {
		st, err := e.Gateway.CreateStudent(ctx, p)
		if err != nil {
			return StudentCreationFailed{Err: err}
		}
		return StudentCreated{Student: st}
	})
}

func updateStudent(e *env, id uuid.UUID, f StudentForm) effect.Effect {
	p := models.UpdateStudentPayload{
		ID:         id,
		FirstName:  strings.TrimSpace(f.FirstName),
		Surname:    strings.TrimSpace(f.Surname),
		OtherNames: models.OptionalString(f.OtherNames),
		Gender:     f.Gender,
		ClassLevel: f.ClassLevel,
	}
	return e.effect("update_student", func(ctx context.Context) Msg {
		st, err := e.Gateway.UpdateStudent(ctx, p)
		if err != nil {
			return StudentUpdateFailed{ID: id, Err: err}
		}
		return StudentUpdated{Student: st}
	})
}

func deleteStudent(e *env, id uuid.UUID) effect.Effect {
	return e.effect("delete_student", func(ctx context.Context) Msg {
		if err := e.Gateway.DeleteStudent(ctx, id); err != nil {
			return StudentDeletionFailed{ID: id, Err: err}
		}
		return StudentDeleted{ID: id}
	})
}

const templateFilename = "kyefa_students_template.xlsx"

func saveTemplate(e *env) effect.Effect {
	return e.effect("save_template", func(ctx context.Context) Msg {
		path, err := e.Dialogs.SaveFile(ctx, templateFilename, dialog.Spreadsheet)
		if err != nil {
			return TemplateGenerationFailed{Err: apperr.NewIO(err)}
		}
		if err := export.WriteTemplate(path); err != nil {
			return TemplateGenerationFailed{Err: apperr.NewIO(err)}
		}
		return TemplateGenerated{Path: path}
	})
}

func readImport(e *env) effect.Effect {
	return e.effect("read_import", func(ctx context.Context) Msg {
		path, err := e.Dialogs.OpenFile(ctx, dialog.Spreadsheet)
		if err != nil {
			return ImportFailed{Err: apperr.NewIO(err)}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return ImportFailed{Err: apperr.NewIO(err)}
		}
		p, err := export.ParseStudents(path, data)
		if err != nil {
			return ImportFailed{Err: apperr.NewValidation(err)}
		}
		return ImportPreviewReady{Preview: p}
	})
}

func uploadImport(e *env, p *export.ImportPreview) effect.Effect {
	name, data, count := filepath.Base(p.Path), p.Data, p.TotalRows
	return e.effect("upload_import", func(ctx context.Context) Msg {
		if err := e.Gateway.ImportStudents(ctx, name, data); err != nil {
			return ImportFailed{Err: err}
		}
		return StudentsImported{Count: count}
	})
}

func cacheRoster(e *env, list []models.Student) effect.Effect {
	owner := e.session.Username
	snapshot := append([]models.Student(nil), list...)
	return e.effect("cache_roster", func(ctx context.Context) Msg {
		if err := e.Cache.SaveRoster(ctx, owner, snapshot); err != nil {
			e.Log.Warn("roster cache write failed", zap.Error(err))
		}
		return nil
	})
}

func loadCachedRoster(e *env) effect.Effect {
	owner := e.session.Username
	return e.effect("load_cached_roster", func(ctx context.Context) Msg {
		list, err := e.Cache.LoadRoster(ctx, owner)
		if err != nil {
			e.Log.Warn("roster cache read failed", zap.Error(err))
			return nil
		}
		if len(list) == 0 {
			return nil
		}
		return CachedRosterLoaded{Students: list}
	})
}
