package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/kyefa/internal/ctxutil"
	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/jobs"
	"github.com/Spok95/kyefa/internal/logging"
	"github.com/Spok95/kyefa/internal/observability"
)

var ErrStopped = errors.New("dispatch loop is not running")

// Updater — функция переходов. Реализация: *fsm.App.
type Updater interface {
	Update(msg effect.Msg) []effect.Effect
}

// Program — цикл с единственным писателем состояния.
// Сообщения применяются строго по одному; эффекты выполняются параллельно,
// их результаты возвращаются в очередь.
type Program struct {
	upd Updater
	log *zap.Logger

	inbox chan effect.Msg
	done  chan struct{}

	// stateMu: Update и Inspect не пересекаются.
	stateMu sync.Mutex

	mu       sync.Mutex
	idle     *sync.Cond
	inflight int
	running  bool
}

func NewProgram(upd Updater, log *zap.Logger) *Program {
	p := &Program{
		upd:   upd,
		log:   logging.Or(log).Named("loop"),
		inbox: make(chan effect.Msg, 64),
		done:  make(chan struct{}),
	}
	p.idle = sync.NewCond(&p.mu)
	return p
}

// Send ставит сообщение в очередь. После остановки цикла возвращает ErrStopped.
func (p *Program) Send(msg effect.Msg) error {
	if msg == nil {
		return nil
	}
	select {
	case <-p.done:
		return ErrStopped
	default:
	}
	p.track(1)
	select {
	case p.inbox <- msg:
		return nil
	case <-p.done:
		p.track(-1)
		return ErrStopped
	}
}

// Run крутит цикл до отмены ctx и ждёт завершения эффектов.
func (p *Program) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("dispatch loop already running")
	}
	p.running = true
	p.mu.Unlock()

	runner := jobs.New(ctx)
	defer func() {
		close(p.done)
		runner.Wait()
		p.drain()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-p.inbox:
			p.apply(runner, msg)
		}
	}
}

// Every периодически отправляет msg в цикл, пока жив ctx.
func (p *Program) Every(ctx context.Context, interval time.Duration, name string, msg func() effect.Msg) {
	jobs.New(ctx).Every(interval, name, func(context.Context) error {
		if err := p.Send(msg()); err != nil && !errors.Is(err, ErrStopped) {
			return err
		}
		return nil
	})
}

func (p *Program) apply(runner *jobs.Runner, msg effect.Msg) {
	defer p.track(-1)

	p.stateMu.Lock()
	effs := p.update(msg)
	p.stateMu.Unlock()

	for _, eff := range effs {
		counted := !eff.Timer
		if counted {
			p.track(1)
		}
		runner.Go(eff.Name, func(ctx context.Context) error {
			if counted {
				defer p.track(-1)
			}
			out, err := p.runEffect(ctx, eff)
			if err != nil {
				return err
			}
			if out != nil {
				_ = p.Send(out)
			}
			return nil
		})
	}
}

func (p *Program) update(msg effect.Msg) (effs []effect.Effect) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("update %T: panic: %v", msg, r)
			p.log.Error("transition panicked", zap.Error(err))
			observability.CaptureOp("update", err)
			effs = nil
		}
	}()
	effs = p.upd.Update(msg)
	if len(effs) > 0 {
		p.log.Debug("effects", zap.String("msg", fmt.Sprintf("%T", msg)), zap.Strings("effects", effect.Names(effs)))
	}
	return effs
}

func (p *Program) runEffect(ctx context.Context, eff effect.Effect) (out effect.Msg, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("effect %s: panic: %v", eff.Name, r)
			p.log.Error("effect panicked", zap.Error(err))
			observability.CaptureOp(eff.Name, err)
		}
	}()
	return eff.Run(ctxutil.WithOp(ctx, eff.Name)), nil
}

// Inspect даёт прочитать состояние между переходами.
func (p *Program) Inspect(fn func()) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	fn()
}

// WaitIdle ждёт, пока очередь опустеет и все эффекты, кроме таймеров, вернутся.
func (p *Program) WaitIdle(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		p.mu.Lock()
		p.idle.Broadcast()
		p.mu.Unlock()
	})
	defer stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	for p.inflight > 0 {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.idle.Wait()
	}
	return nil
}

func (p *Program) track(delta int) {
	p.mu.Lock()
	p.inflight += delta
	if p.inflight <= 0 {
		p.inflight = 0
		p.idle.Broadcast()
	}
	p.mu.Unlock()
}

// drain выбрасывает то, что не успели применить до остановки.
func (p *Program) drain() {
	for {
		select {
		case <-p.inbox:
			p.track(-1)
		default:
			return
		}
	}
}
