package fsm

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/Spok95/kyefa/internal/apperr"
	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/fsm/fsmutil"
	"github.com/Spok95/kyefa/internal/models"
	"github.com/Spok95/kyefa/internal/validators"
)

type PeriodField int

const (
	PeriodSubject PeriodField = iota + 1
	PeriodClass
	PeriodTeacher
	PeriodRate
	PeriodDate
	PeriodStart
	PeriodEnd
)

// PeriodForm хранит ввод как есть; числа и дата разбираются при отправке.
type PeriodForm struct {
	Subject     string
	Class       string
	TeacherName string
	Rate        string
	Date        string
	StartTime   string
	EndTime     string
}

func (f *PeriodForm) set(field PeriodField, v string) {
	switch field {
	case PeriodSubject:
		f.Subject = v
	case PeriodClass:
		f.Class = v
	case PeriodTeacher:
		f.TeacherName = v
	case PeriodRate:
		f.Rate = v
	case PeriodDate:
		f.Date = v
	case PeriodStart:
		f.StartTime = v
	case PeriodEnd:
		f.EndTime = v
	}
}

func periodToForm(p models.TeachingPeriod) PeriodForm {
	return PeriodForm{
		Subject:     p.Subject,
		Class:       p.Class,
		TeacherName: p.TeacherName,
		Rate:        strconv.FormatFloat(p.Rate, 'f', -1, 64),
		Date:        fsmutil.FormatDate(p.Date.Time),
		StartTime:   strconv.FormatUint(uint64(p.StartTime), 10),
		EndTime:     strconv.FormatUint(uint64(p.EndTime), 10),
	}
}

// parse: сначала формат чисел и даты, затем правила validators.ValidatePeriod.
func (f PeriodForm) parse() (models.TeachingPeriod, string) {
	rate, ok := parseNumber(f.Rate)
	if !ok {
		return models.TeachingPeriod{}, "Rate must be a number."
	}
	start, ok := parseHour(f.StartTime)
	if !ok {
		return models.TeachingPeriod{}, "Start hour must be a whole number."
	}
	end, ok := parseHour(f.EndTime)
	if !ok {
		return models.TeachingPeriod{}, "End hour must be a whole number."
	}
	form := validators.PeriodForm{
		Subject:     f.Subject,
		Class:       f.Class,
		TeacherName: f.TeacherName,
		Rate:        rate,
		StartTime:   start,
		EndTime:     end,
	}
	if err := validators.ValidatePeriod(form); err != nil {
		return models.TeachingPeriod{}, err.Error()
	}
	d, err := fsmutil.ParseDate(f.Date)
	if err != nil {
		return models.TeachingPeriod{}, "Date must be in DD/MM/YYYY format."
	}
	return models.TeachingPeriod{
		Subject:     strings.TrimSpace(f.Subject),
		Class:       strings.TrimSpace(f.Class),
		TeacherName: strings.TrimSpace(f.TeacherName),
		Rate:        rate,
		Date:        models.Date{Time: d},
		StartTime:   start,
		EndTime:     end,
	}, ""
}

// пустое поле — 0, пусть о нём скажет валидатор
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func parseHour(s string) (uint32, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseUint(s, 10, 32)
	return uint32(v), err == nil
}

// ---- сообщения ----

type FetchPeriods struct{ periodScoped }

type PeriodsFetched struct {
	periodScoped
	Periods []models.TeachingPeriod
}

type PeriodFetchFailed struct {
	periodScoped
	Err error
}

type UpdatePeriodSearch struct {
	periodScoped
	Query string
}

type ShowAddPeriodDialog struct{ periodScoped }

type HidePeriodDialog struct{ periodScoped }

type PeriodFieldChanged struct {
	periodScoped
	Field PeriodField
	Value string
}

type EditPeriod struct {
	periodScoped
	ID string
}

type SubmitPeriod struct{ periodScoped }

type PeriodSaved struct {
	periodScoped
	Period models.TeachingPeriod
}

type PeriodSaveFailed struct {
	periodScoped
	Err error
}

type DeletePeriod struct {
	periodScoped
	ID string
}

type PeriodDeleted struct {
	periodScoped
	ID string
}

type PeriodDeletionFailed struct {
	periodScoped
	ID  string
	Err error
}

// ---- состояние ----

type TeachingPeriodState struct {
	// Periods отсортированы по дате и часу начала.
	Periods []models.TeachingPeriod
	Search  string

	ShowDialog bool
	Form       PeriodForm
	EditingID  string
	FormError  string
	IsSaving   bool

	IsLoading   bool
	FetchError  string
	ActionError string
}

// Visible — периоды, подходящие под строку поиска (предмет или класс).
func (s *TeachingPeriodState) Visible() []models.TeachingPeriod {
	out := make([]models.TeachingPeriod, 0, len(s.Periods))
	for _, p := range s.Periods {
		if fsmutil.MatchesQuery(s.Search, p.Subject, p.Class) {
			out = append(out, p)
		}
	}
	return out
}

func (s *TeachingPeriodState) update(msg DashboardMsg, e *env) []effect.Effect {
	switch m := msg.(type) {
	case FetchPeriods:
		s.IsLoading = true
		s.FetchError = ""
		return one(listPeriods(e))
	case PeriodsFetched:
		s.IsLoading = false
		s.Periods = append([]models.TeachingPeriod(nil), m.Periods...)
		sortPeriods(s.Periods)
	case PeriodFetchFailed:
		s.IsLoading = false
		s.FetchError = apperr.Message(m.Err)

	case UpdatePeriodSearch:
		s.Search = m.Query
	case ShowAddPeriodDialog:
		s.openDialog("", PeriodForm{})
	case HidePeriodDialog:
		s.closeDialog()
	case PeriodFieldChanged:
		s.Form.set(m.Field, m.Value)
		s.FormError = ""
	case EditPeriod:
		for _, p := range s.Periods {
			if p.ID == m.ID {
				s.openDialog(p.ID, periodToForm(p))
				return nil
			}
		}

	case SubmitPeriod:
		if !s.ShowDialog || s.IsSaving {
			return nil
		}
		p, problem := s.Form.parse()
		if problem != "" {
			s.FormError = problem
			return nil
		}
		p.ID = s.EditingID
		s.FormError = ""
		s.IsSaving = true
		return one(savePeriod(e, p))
	case PeriodSaved:
		s.IsSaving = false
		s.upsert(m.Period)
		s.closeDialog()
	case PeriodSaveFailed:
		s.IsSaving = false
		s.FormError = apperr.Message(m.Err)

	case DeletePeriod:
		s.ActionError = ""
		return one(deletePeriod(e, m.ID))
	case PeriodDeleted:
		out := make([]models.TeachingPeriod, 0, len(s.Periods))
		for _, p := range s.Periods {
			if p.ID != m.ID {
				out = append(out, p)
			}
		}
		s.Periods = out
		if s.EditingID == m.ID {
			s.closeDialog()
		}
	case PeriodDeletionFailed:
		s.ActionError = apperr.Message(m.Err)
	}
	return nil
}

func (s *TeachingPeriodState) openDialog(id string, f PeriodForm) {
	s.ShowDialog = true
	s.EditingID = id
	s.Form = f
	s.FormError = ""
}

func (s *TeachingPeriodState) closeDialog() {
	s.ShowDialog = false
	s.EditingID = ""
	s.Form = PeriodForm{}
	s.FormError = ""
}

func (s *TeachingPeriodState) upsert(p models.TeachingPeriod) {
	for i := range s.Periods {
		if p.ID != "" && s.Periods[i].ID == p.ID {
			s.Periods[i] = p
			sortPeriods(s.Periods)
			return
		}
	}
	s.Periods = append(s.Periods, p)
	sortPeriods(s.Periods)
}

func sortPeriods(list []models.TeachingPeriod) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.Date.Equal(b.Date.Time) {
			return a.Date.Before(b.Date.Time)
		}
		return a.StartTime < b.StartTime
	})
}

func listPeriods(e *env) effect.Effect {
	return e.effect("list_periods", func(ctx context.Context) Msg {
		list, err := e.Gateway.ListTeachingPeriods(ctx)
		if err != nil {
			return PeriodFetchFailed{Err: err}
		}
		return PeriodsFetched{Periods: list}
	})
}

func savePeriod(e *env, p models.TeachingPeriod) effect.Effect {
	return e.effect("save_period", func(ctx context.Context) Msg {
		saved, err := e.Gateway.SaveTeachingPeriod(ctx, p)
		if err != nil {
			return PeriodSaveFailed{Err: err}
		}
		return PeriodSaved{Period: saved}
	})
}

func deletePeriod(e *env, id string) effect.Effect {
	return e.effect("delete_period", func(ctx context.Context) Msg {
		if err := e.Gateway.DeleteTeachingPeriod(ctx, id); err != nil {
			return PeriodDeletionFailed{ID: id, Err: err}
		}
		return PeriodDeleted{ID: id}
	})
}
