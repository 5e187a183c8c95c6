package carousel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cih-portal/pkg/uilock"
)

func TestLightboxHoldsLockWhileOpen(t *testing.T) {
	var scrollLocked bool
	lock := uilock.New(uilock.Hooks{
		OnAcquire: func() { scrollLocked = true },
		OnRelease: func() { scrollLocked = false },
	})
	e, _ := newEngine(3)
	lb := NewLightbox(lock)

	slide, err := lb.Open(e, 1)
	require.NoError(t, err)
	assert.Equal(t, "/img/b.jpg", slide.Source)
	assert.True(t, scrollLocked)

	_, err = lb.Open(e, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, lock.Holders(), "switching image must not stack holds")

	assert.True(t, lb.Close())
	assert.False(t, scrollLocked)
	assert.False(t, lb.Close())
}

func TestLightboxEscape(t *testing.T) {
	lock := uilock.New(uilock.Hooks{})
	e, _ := newEngine(2)
	lb := NewLightbox(lock)

	require.NoError(t, e.JumpTo(1))
	_, err := lb.Open(e, -1)
	require.NoError(t, err)
	_, idx, open := lb.Current()
	assert.True(t, open)
	assert.Equal(t, 1, idx)

	assert.False(t, lb.HandleKey("Enter"))
	assert.True(t, lb.IsOpen())
	assert.True(t, lb.HandleKey(EscapeKey))
	assert.False(t, lb.IsOpen())
	assert.False(t, lock.Held())
}

func TestLightboxRejectsBadIndex(t *testing.T) {
	lock := uilock.New(uilock.Hooks{})
	lb := NewLightbox(lock)

	empty, _ := newEngine(0)
	_, err := lb.Open(empty, 0)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	e, _ := newEngine(2)
	_, err = lb.Open(e, 5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.False(t, lock.Held())
}
