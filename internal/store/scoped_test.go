package store

import (
	"context"
	"errors"
	"testing"

	"plantkeeper/internal/logging"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// brokenKV fails every operation, like a full or locked device store.
type brokenKV struct{}

var errQuota = errors.New("quota exceeded")

func (brokenKV) Get(context.Context, string) (string, bool, error) { return "", false, errQuota }
func (brokenKV) Set(context.Context, string, string) error         { return errQuota }
func (brokenKV) Remove(context.Context, string) error              { return errQuota }

func TestScopedDegradesOnFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	restore := logging.ReplaceLogger(zap.New(core))
	defer restore()

	s := NewScoped(brokenKV{})
	ctx := context.Background()

	v, ok := s.Get(ctx, "k")
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.False(t, s.Set(ctx, "k", "v"))
	assert.False(t, s.Remove(ctx, "k"))

	assert.Equal(t, 3, logs.Len())
}

func TestScopedJSON(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	s := NewScoped(mem)

	type rec struct {
		ID string `json:"id"`
	}

	assert.True(t, s.SetJSON(ctx, "k", []rec{{ID: "a"}, {ID: "b"}}))

	var got []rec
	assert.True(t, s.GetJSON(ctx, "k", &got))
	assert.Equal(t, []rec{{ID: "a"}, {ID: "b"}}, got)

	var missing []rec
	assert.False(t, s.GetJSON(ctx, "absent", &missing))

	_ = mem.Set(ctx, "garbage", "{not json")
	assert.False(t, s.GetJSON(ctx, "garbage", &got))
}

func TestMemoryClose(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	assert.NoError(t, m.Set(ctx, "a", "1"))
	assert.Equal(t, 1, m.Len())

	assert.NoError(t, m.Close())
	_, _, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Set(ctx, "a", "2"), ErrClosed)
}
