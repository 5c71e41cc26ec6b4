package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/kyefa/internal/app"
	"github.com/Spok95/kyefa/internal/config"
	"github.com/Spok95/kyefa/internal/db"
	"github.com/Spok95/kyefa/internal/dialog"
	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/fsm"
	"github.com/Spok95/kyefa/internal/gateway"
	"github.com/Spok95/kyefa/internal/logging"
	"github.com/Spok95/kyefa/internal/observability"
)

// idleTimeout — сколько команда ждёт ответов бэкенда.
const idleTimeout = 2 * time.Minute

// session — один запуск цикла: вход, команды, выход.
type session struct {
	cfg   *config.Config
	log   *logging.Log
	cache *db.Cache
	app   *fsm.App
	prog  *app.Program

	stop   context.CancelFunc
	done   chan struct{}
	closer []func()
}

type sessionOpts struct {
	dialogs dialog.Dialogs
	// live: настоящий TTL баннеров (serve). Иначе баннер держится до конца команды.
	live bool
}

func startSession(ctx context.Context, o sessionOpts) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	s := &session{cfg: cfg, log: lg, closer: []func(){lg.Closer}}

	flush, err := observability.InitSentry(cfg.SentryDSN, cfg.Env, cfg.Release)
	if err != nil {
		lg.Base.Warn("sentry init failed", zap.Error(err))
	}
	s.closer = append(s.closer, flush)

	deps := fsm.Deps{
		Gateway:   gateway.New(cfg, lg.Base),
		Dialogs:   o.dialogs,
		Log:       lg.Base,
		BannerTTL: cfg.BannerTTL,
	}
	if cfg.CachePath != "" {
		cache, err := db.Open(ctx, cfg.CachePath)
		if err != nil {
			// без кэша можно работать
			lg.Base.Warn("roster cache disabled", zap.String("path", cfg.CachePath), zap.Error(err))
		} else {
			s.cache = cache
			deps.Cache = cache
			s.closer = append(s.closer, func() { _ = cache.Close() })
		}
	}
	if !o.live {
		deps.BannerTTL = idleTimeout
	}

	s.app = fsm.New(deps)
	s.prog = app.NewProgram(s.app, lg.Base)

	runCtx, stop := context.WithCancel(ctx)
	s.stop = stop
	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		_ = s.prog.Run(runCtx)
	}()
	return s, nil
}

// dispatch отправляет сообщения по порядку и ждёт, пока всё уляжется.
func (s *session) dispatch(ctx context.Context, msgs ...effect.Msg) error {
	for _, m := range msgs {
		if err := s.prog.Send(m); err != nil {
			return err
		}
	}
	ctx, cancel := context.WithTimeout(ctx, idleTimeout)
	defer cancel()
	return s.prog.WaitIdle(ctx)
}

func (s *session) login(ctx context.Context, user, password string) error {
	if user == "" {
		return errors.New("username is required (--user or KYEFA_USER)")
	}
	if err := s.dispatch(ctx,
		fsm.UsernameChanged{Value: user},
		fsm.PasswordChanged{Value: password},
		fsm.AttemptLogin{},
	); err != nil {
		return err
	}
	var loginErr error
	s.prog.Inspect(func() {
		if ls := s.app.Login(); ls != nil {
			loginErr = errors.New("login failed")
			if ls.Error != nil {
				loginErr = errors.New(ls.Error.Message)
			}
		}
	})
	return loginErr
}

// view читает дашборд между переходами.
func (s *session) view(fn func(d *fsm.DashboardState)) {
	s.prog.Inspect(func() {
		if d := s.app.Dashboard(); d != nil {
			fn(d)
		}
	})
}

func (s *session) Close() {
	_ = s.prog.Send(fsm.Logout{})
	s.stop()
	<-s.done
	for i := len(s.closer) - 1; i >= 0; i-- {
		s.closer[i]()
	}
}

// withSession: старт, вход, fn, выход.
func (c *cli) withSession(ctx context.Context, o sessionOpts, fn func(s *session) error) error {
	s, err := startSession(ctx, o)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.login(ctx, c.user(), c.password()); err != nil {
		return err
	}
	return fn(s)
}
