package middlewares_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/anvil/internal"
	"github.com/dmitrymomot/anvil/middlewares"
)

func TestTimeoutError(t *testing.T) {
	t.Parallel()

	require.Equal(t, "request timeout after 5s", (&middlewares.TimeoutError{Duration: 5 * time.Second}).Error())
	require.Equal(t, "request timeout after 100ms", (&middlewares.TimeoutError{Duration: 100 * time.Millisecond}).Error())

	t.Run("found through wrapping", func(t *testing.T) {
		t.Parallel()

		wrapped := fmt.Errorf("handler: %w", &middlewares.TimeoutError{Duration: time.Second})
		require.True(t, middlewares.IsTimeoutError(wrapped))

		te, ok := middlewares.AsTimeoutError(errors.Join(errors.New("other"), wrapped))
		require.True(t, ok)
		require.Equal(t, time.Second, te.Duration)
	})

	t.Run("other errors", func(t *testing.T) {
		t.Parallel()

		require.False(t, middlewares.IsTimeoutError(nil))
		te, ok := middlewares.AsTimeoutError(errors.New("regular error"))
		require.False(t, ok)
		require.Nil(t, te)
	})
}

func TestPanicError(t *testing.T) {
	t.Parallel()

	t.Run("is the internal type", func(t *testing.T) {
		t.Parallel()

		var pe *internal.PanicError = &middlewares.PanicError{Value: 42}
		require.Equal(t, "panic: 42", pe.Error())
		require.Equal(t, "panic: <nil>", (&middlewares.PanicError{}).Error())
	})

	t.Run("found through wrapping", func(t *testing.T) {
		t.Parallel()

		original := &middlewares.PanicError{Value: "boom", Stack: []byte("stack")}
		wrapped := errors.Join(original, errors.New("other"))
		require.True(t, middlewares.IsPanicError(wrapped))

		pe, ok := middlewares.AsPanicError(wrapped)
		require.True(t, ok)
		require.Same(t, original, pe)
	})

	t.Run("other errors", func(t *testing.T) {
		t.Parallel()

		require.False(t, middlewares.IsPanicError(nil))
		pe, ok := middlewares.AsPanicError(errors.New("regular error"))
		require.False(t, ok)
		require.Nil(t, pe)
	})
}

func TestInvalidOption(t *testing.T) {
	t.Parallel()

	app := newApp(t)
	factories := map[string]struct {
		factory internal.MiddlewareFactory
		opts    map[string]any
	}{
		"recover stackSize":   {middlewares.Recover, map[string]any{"stackSize": "big"}},
		"requestid headers":   {middlewares.RequestID, map[string]any{"headers": struct{}{}}},
		"requestid generator": {middlewares.RequestID, map[string]any{"generator": "uuid"}},
		"resource fs":         {middlewares.Resource, map[string]any{"fs": "www"}},
		"resource publicPath": {middlewares.Resource, map[string]any{"publicPath": "^/(static"}},
		"cors origin":         {middlewares.CORS, map[string]any{"origin": struct{}{}}},
		"cors maxAge":         {middlewares.CORS, map[string]any{"maxAge": "forever"}},
		"locale locales":      {middlewares.Locale, map[string]any{"locales": []any{}}},
		"locale tag":          {middlewares.Locale, map[string]any{"locales": []any{"en", "not a tag"}}},
	}
	for name, tc := range factories {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			mw, err := tc.factory(tc.opts, app)
			require.ErrorIs(t, err, middlewares.ErrInvalidOption)
			require.Nil(t, mw)
		})
	}
}
