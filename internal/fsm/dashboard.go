package fsm

import (
	"go.uber.org/zap"

	"github.com/Spok95/kyefa/internal/apperr"
	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/models"
)

// DashboardState создаётся при входе и целиком выбрасывается при выходе.
type DashboardState struct {
	CurrentView ViewID
	Session     models.Session

	Students *StudentManagerState
	Periods  *TeachingPeriodState
	Payments *PaymentTrackingState
	Users    *UserAccessState
	Reports  *ReportsState

	IsLoading bool
	LastError string
}

func newDashboardState(s models.Session) *DashboardState {
	return &DashboardState{
		CurrentView: ViewHome,
		Session:     s,
		Students:    &StudentManagerState{},
		Periods:     &TeachingPeriodState{},
		Payments:    &PaymentTrackingState{},
		Users:       &UserAccessState{},
		Reports:     newReportsState(),
	}
}

// update маршрутизирует по Module() сообщения. CurrentView на маршрут не влияет:
// фоновые результаты для скрытого модуля применяются сразу.
func (d *DashboardState) update(msg DashboardMsg, e *env) []effect.Effect {
	d.trackLoading(msg)

	switch msg.Module() {
	case ModuleDashboard:
		return d.updateSelf(msg, e)
	case ModuleStudents:
		return d.Students.update(msg, e)
	case ModulePeriods:
		return d.Periods.update(msg, e)
	case ModulePayments:
		return d.Payments.update(msg, e)
	case ModuleUsers:
		return d.Users.update(msg, e)
	case ModuleReports:
		return d.Reports.update(msg, e)
	}
	return nil
}

func (d *DashboardState) updateSelf(msg DashboardMsg, e *env) []effect.Effect {
	switch m := msg.(type) {
	case NavigateTo:
		d.CurrentView = m.View
	case ErrorOccurred:
		d.LastError = apperr.Message(m.Err)
		e.Log.Warn("dashboard error", zap.Error(m.Err))
	case ClearError:
		d.LastError = ""
	}
	return nil
}

// trackLoading — общий индикатор загрузки списка учеников.
func (d *DashboardState) trackLoading(msg DashboardMsg) {
	switch m := msg.(type) {
	case FetchStudents, StudentsImported:
		d.IsLoading = true
	case StudentsFetched:
		d.IsLoading = false
		d.LastError = ""
	case StudentFetchFailed:
		d.IsLoading = false
		d.LastError = apperr.Message(m.Err)
	}
}
