// Package fsm — состояние приложения и функции переходов.
//
// Корень выбирает между входом и дашбордом, дашборд раздаёт сообщения
// модулям по их тегу. Переходы только меняют состояние и возвращают
// эффекты; сеть, файлы и таймеры выполняет цикл в internal/app.
package fsm

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Spok95/kyefa/internal/apperr"
	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/metrics"
	"github.com/Spok95/kyefa/internal/models"
)

// AppState — либо *LoginState, либо *DashboardState.
type AppState interface {
	isAppState()
}

func (*LoginState) isAppState()     {}
func (*DashboardState) isAppState() {}

type App struct {
	deps  Deps
	state AppState
}

func New(deps Deps) *App {
	deps.normalize()
	return &App{deps: deps, state: &LoginState{}}
}

func (a *App) State() AppState { return a.state }

// Dashboard — текущий дашборд или nil на экране входа.
func (a *App) Dashboard() *DashboardState {
	d, _ := a.state.(*DashboardState)
	return d
}

// Login — текущее состояние входа или nil.
func (a *App) Login() *LoginState {
	l, _ := a.state.(*LoginState)
	return l
}

// Update применяет сообщение и возвращает эффекты. Вызывается только из цикла.
func (a *App) Update(msg Msg) []effect.Effect {
	if msg == nil {
		return nil
	}
	metrics.MessagesDispatched.WithLabelValues(moduleLabel(msg)).Inc()

	switch m := msg.(type) {
	case Logout:
		if d, ok := a.state.(*DashboardState); ok {
			a.deps.Log.Info("logout", zap.String("user", d.Session.Username))
		}
		a.state = &LoginState{}
		return nil
	case LoginSuccess:
		if _, ok := a.state.(*LoginState); !ok {
			a.drop(msg)
			return nil
		}
		return a.enterDashboard(m.Session)
	case UsernameChanged, PasswordChanged, AttemptLogin, LoginFailed:
		ls, ok := a.state.(*LoginState)
		if !ok {
			a.drop(msg)
			return nil
		}
		return ls.update(msg, &a.deps)
	case DashboardMsg:
		d, ok := a.state.(*DashboardState)
		if !ok {
			// результат эффекта прошлой сессии
			a.drop(msg)
			return nil
		}
		return d.update(m, &env{Deps: &a.deps, session: d.Session})
	}
	a.deps.Log.Warn("unknown message", zap.String("type", fmt.Sprintf("%T", msg)))
	return nil
}

func (a *App) enterDashboard(s models.Session) []effect.Effect {
	d := newDashboardState(s)
	a.state = d
	a.deps.Log.Info("login ok", zap.String("user", s.Username), zap.String("role", string(s.Role)))

	e := &env{Deps: &a.deps, session: s}
	effs := d.update(FetchStudents{}, e)
	if a.deps.Cache != nil {
		effs = append(effs, loadCachedRoster(e))
	}
	return effs
}

func (a *App) drop(msg Msg) {
	metrics.MessagesDropped.Inc()
	a.deps.Log.Debug("message dropped", zap.String("type", fmt.Sprintf("%T", msg)))
}

func moduleLabel(msg Msg) string {
	if m, ok := msg.(DashboardMsg); ok {
		return m.Module().String()
	}
	return "root"
}

// LoginState — экран входа.
type LoginState struct {
	Username         string
	Password         string
	IsAuthenticating bool
	Error            *apperr.LoginError
}

func (s *LoginState) update(msg Msg, d *Deps) []effect.Effect {
	switch m := msg.(type) {
	case UsernameChanged:
		s.Username = m.Value
	case PasswordChanged:
		s.Password = m.Value
	case AttemptLogin:
		// повторное нажатие, пока идёт запрос, игнорируем
		if s.IsAuthenticating {
			return nil
		}
		s.IsAuthenticating = true
		s.Error = nil
		return one(loginEffect(d.Gateway, s.Username, s.Password))
	case LoginFailed:
		s.IsAuthenticating = false
		s.Error = m.Err
	}
	return nil
}

func loginEffect(gw Gateway, username, password string) effect.Effect {
	return effect.New("login", func(ctx context.Context) Msg {
		rec, err := gw.Login(ctx, username, password)
		if err != nil {
			var le *apperr.LoginError
			if errors.As(err, &le) {
				return LoginFailed{Err: le}
			}
			return LoginFailed{Err: apperr.NewLoginError(apperr.ServerError, err.Error())}
		}
		s, err := models.NewSession(rec)
		if err != nil {
			return LoginFailed{Err: apperr.NewLoginError(apperr.ServerError,
				fmt.Sprintf("Server returned an invalid user record: %v", err))}
		}
		return LoginSuccess{Session: s}
	})
}
