package fsm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Spok95/kyefa/internal/ctxutil"
	"github.com/Spok95/kyefa/internal/dialog"
	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/logging"
	"github.com/Spok95/kyefa/internal/models"
)

// Gateway — то, что переходы ожидают от бэкенда. Реализация: gateway.Client.
type Gateway interface {
	Login(ctx context.Context, username, password string) (models.UserRecord, error)

	ListStudents(ctx context.Context) ([]models.Student, error)
	CreateStudent(ctx context.Context, p models.CreateStudentPayload) (models.Student, error)
	UpdateStudent(ctx context.Context, p models.UpdateStudentPayload) (models.Student, error)
	DeleteStudent(ctx context.Context, id uuid.UUID) error
	ImportStudents(ctx context.Context, filename string, data []byte) error

	ListTeachingPeriods(ctx context.Context) ([]models.TeachingPeriod, error)
	SaveTeachingPeriod(ctx context.Context, p models.TeachingPeriod) (models.TeachingPeriod, error)
	DeleteTeachingPeriod(ctx context.Context, id string) error

	ListPayments(ctx context.Context) ([]models.Payment, error)
	RecordPayment(ctx context.Context, p models.Payment) (models.Payment, error)

	ListUsers(ctx context.Context) ([]models.UserRecord, error)
	CreateUser(ctx context.Context, p models.CreateUserPayload) (models.UserRecord, error)
	DeleteUser(ctx context.Context, id string) error
	ResetUserPassword(ctx context.Context, id string) (string, error)
}

// RosterCache — локальный снимок последнего подтверждённого списка учеников.
type RosterCache interface {
	SaveRoster(ctx context.Context, owner string, students []models.Student) error
	LoadRoster(ctx context.Context, owner string) ([]models.Student, error)
}

const DefaultBannerTTL = 3 * time.Second

type Deps struct {
	Gateway Gateway
	Dialogs dialog.Dialogs
	// Cache может быть nil — тогда кэш выключен.
	Cache     RosterCache
	Log       *zap.Logger
	BannerTTL time.Duration
	Now       func() time.Time
}

func (d *Deps) normalize() {
	d.Log = logging.Or(d.Log)
	if d.BannerTTL <= 0 {
		d.BannerTTL = DefaultBannerTTL
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Dialogs == nil {
		d.Dialogs = dialog.Preset{}
	}
}

// env — зависимости плюс сессия; передаётся в переходы модулей.
type env struct {
	*Deps
	session models.Session
}

// effect подписывает контекст эффекта именем пользователя сессии.
func (e *env) effect(name string, run func(ctx context.Context) Msg) effect.Effect {
	user := e.session.Username
	return effect.New(name, func(ctx context.Context) Msg {
		return run(ctxutil.WithUsername(ctx, user))
	})
}

func one(e effect.Effect) []effect.Effect { return []effect.Effect{e} }
