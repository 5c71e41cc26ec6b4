package effect

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAfter(t *testing.T) {
	e := After("clear_banner", 10*time.Millisecond, "done")
	assert.Equal(t, "clear_banner", e.Name)
	assert.True(t, e.Timer)
	assert.Equal(t, "done", e.Run(context.Background()))
}

func TestAfter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := After("clear_banner", time.Hour, "done")
	assert.Nil(t, e.Run(ctx))
}

func TestEmitAndNames(t *testing.T) {
	effs := []Effect{Emit("a", 1), New("b", func(context.Context) Msg { return nil })}
	assert.Equal(t, []string{"a", "b"}, Names(effs))
	assert.Equal(t, 1, effs[0].Run(context.Background()))
	assert.False(t, effs[0].Timer)
}
