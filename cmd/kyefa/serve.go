package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Spok95/kyefa/internal/app"
	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/fsm"
)

type status struct {
	User      string `json:"user"`
	View      string `json:"view"`
	Students  int    `json:"students"`
	Stale     bool   `json:"stale"`
	Loading   bool   `json:"loading"`
	LastError string `json:"last_error,omitempty"`
}

func newServeCmd(c *cli) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Stay logged in, refresh the roster and expose /healthz, /metrics, /status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return c.withSession(ctx, sessionOpts{live: true}, func(s *session) error {
				if addr == "" {
					addr = s.cfg.MetricsAddr
				}
				if addr != "" {
					var pinger app.Pinger
					if s.cache != nil {
						pinger = s.cache
					}
					app.StartHTTP(ctx, addr, app.Router(pinger, s.snapshot), s.log.Base)
				}
				s.log.Base.Info("serving", zap.String("addr", addr), zap.Duration("refresh", s.cfg.RefreshInterval))

				if s.cfg.RefreshInterval > 0 {
					s.prog.Every(ctx, s.cfg.RefreshInterval, "refresh_students", func() effect.Msg {
						return fsm.FetchStudents{}
					})
				}
				<-ctx.Done()
				s.log.Base.Info("shutting down")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address for /healthz, /metrics, /status (default METRICS_ADDR; empty disables)")
	return cmd
}

func (s *session) snapshot() any {
	var st status
	s.view(func(d *fsm.DashboardState) {
		st = status{
			User:      d.Session.Username,
			View:      d.CurrentView.String(),
			Students:  len(d.Students.Students),
			Stale:     d.Students.Stale,
			Loading:   d.IsLoading,
			LastError: d.LastError,
		}
	})
	return st
}
