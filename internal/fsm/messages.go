package fsm

import (
	"github.com/Spok95/kyefa/internal/apperr"
	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/models"
)

type Msg = effect.Msg

// ModuleID — адресат сообщения дашборда. Маршрутизация идёт по нему,
// а не по открытому экрану.
type ModuleID int

const (
	ModuleDashboard ModuleID = iota + 1
	ModuleStudents
	ModulePeriods
	ModulePayments
	ModuleUsers
	ModuleReports
)

func (m ModuleID) String() string {
	switch m {
	case ModuleDashboard:
		return "dashboard"
	case ModuleStudents:
		return "students"
	case ModulePeriods:
		return "teaching_periods"
	case ModulePayments:
		return "payments"
	case ModuleUsers:
		return "users"
	case ModuleReports:
		return "reports"
	}
	return "unknown"
}

// DashboardMsg — любое сообщение, которое имеет смысл только внутри дашборда.
type DashboardMsg interface {
	Module() ModuleID
}

type dashboardScoped struct{}

func (dashboardScoped) Module() ModuleID { return ModuleDashboard }

type studentScoped struct{}

func (studentScoped) Module() ModuleID { return ModuleStudents }

type periodScoped struct{}

func (periodScoped) Module() ModuleID { return ModulePeriods }

type paymentScoped struct{}

func (paymentScoped) Module() ModuleID { return ModulePayments }

type userScoped struct{}

func (userScoped) Module() ModuleID { return ModuleUsers }

type reportScoped struct{}

func (reportScoped) Module() ModuleID { return ModuleReports }

// ---- корень ----

type UsernameChanged struct{ Value string }

type PasswordChanged struct{ Value string }

type AttemptLogin struct{}

type LoginSuccess struct{ Session models.Session }

type LoginFailed struct{ Err *apperr.LoginError }

type Logout struct{}

// ---- дашборд ----

type ViewID int

const (
	ViewHome ViewID = iota
	ViewStudents
	ViewTeachingPeriods
	ViewPayments
	ViewUsers
	ViewReports
)

func (v ViewID) String() string {
	switch v {
	case ViewHome:
		return "home"
	case ViewStudents:
		return "students"
	case ViewTeachingPeriods:
		return "teaching_periods"
	case ViewPayments:
		return "payments"
	case ViewUsers:
		return "users"
	case ViewReports:
		return "reports"
	}
	return "unknown"
}

// NavigateTo меняет только CurrentView.
type NavigateTo struct {
	dashboardScoped
	View ViewID
}

type ErrorOccurred struct {
	dashboardScoped
	Err error
}

type ClearError struct{ dashboardScoped }
