// Package effect — описания асинхронной работы, которые возвращают функции
// переходов. Сами переходы ничего не выполняют: эффекты запускает цикл
// диспетчеризации, а результат каждого возвращается в него сообщением.
package effect

import (
	"context"
	"time"
)

// Msg — любое сообщение цикла. nil означает «ответа нет».
type Msg any

type Effect struct {
	// Name идёт в логи и метрики (op).
	Name string
	Run  func(ctx context.Context) Msg
	// Timer: отложенное сообщение; цикл не ждёт его в WaitIdle.
	Timer bool
}

func New(name string, run func(ctx context.Context) Msg) Effect {
	return Effect{Name: name, Run: run}
}

// After — таймер: через d возвращает msg. При отмене контекста сообщения нет.
func After(name string, d time.Duration, msg Msg) Effect {
	return Effect{Name: name, Timer: true, Run: func(ctx context.Context) Msg {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			return msg
		}
	}}
}

// Emit сразу возвращает msg; так переход ставит в очередь следующую команду.
func Emit(name string, msg Msg) Effect {
	return Effect{Name: name, Run: func(context.Context) Msg { return msg }}
}

func Names(effs []Effect) []string {
	out := make([]string, len(effs))
	for i, e := range effs {
		out[i] = e.Name
	}
	return out
}
