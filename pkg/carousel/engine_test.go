package carousel

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualScheduler 由测试手动触发的定时器
type manualScheduler struct {
	mu      sync.Mutex
	pending []*manualTimer
	armed   int
}

type manualTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Stopper {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{d: d, f: f}
	s.pending = append(s.pending, t)
	s.armed++
	return t
}

// fire 触发最早的待执行定时器，包括已停止的，用来模拟迟到的回调
func (s *manualScheduler) fire(t *testing.T) {
	t.Helper()
	s.mu.Lock()
	require.NotEmpty(t, s.pending, "no timer armed")
	next := s.pending[0]
	s.pending = s.pending[1:]
	s.mu.Unlock()
	next.f()
}

func (s *manualScheduler) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.pending {
		if !p.stopped {
			n++
		}
	}
	return n
}

func slides(n int) []Slide {
	out := make([]Slide, n)
	for i := range out {
		out[i] = Slide{Source: "/img/" + string(rune('a'+i)) + ".jpg", AltText: "foto"}
	}
	return out
}

func newEngine(n int) (*Engine, *manualScheduler) {
	s := &manualScheduler{}
	return New(slides(n), DefaultInterval, WithScheduler(s)), s
}

func TestInitialState(t *testing.T) {
	e, s := newEngine(3)
	assert.Equal(t, 0, e.SelectedIndex())
	assert.False(t, e.IsPaused())
	assert.Equal(t, 3, e.Len())
	assert.Equal(t, 1, s.armed)
	assert.Equal(t, DefaultInterval, s.pending[0].d)
}

func TestNextPreviousCircular(t *testing.T) {
	for n := 1; n <= 5; n++ {
		for start := 0; start < n; start++ {
			e, _ := newEngine(n)
			require.NoError(t, e.JumpTo(start))

			for i := 0; i < n; i++ {
				e.Next()
			}
			assert.Equal(t, start, e.SelectedIndex(), "next n=%d start=%d", n, start)

			for i := 0; i < n; i++ {
				e.Previous()
			}
			assert.Equal(t, start, e.SelectedIndex(), "previous n=%d start=%d", n, start)
		}
	}
}

func TestWrapAround(t *testing.T) {
	e, _ := newEngine(3)
	e.Previous()
	assert.Equal(t, 2, e.SelectedIndex())
	e.Next()
	assert.Equal(t, 0, e.SelectedIndex())
}

func TestSingleSlideNavigationIsNoop(t *testing.T) {
	e, s := newEngine(1)
	e.Next()
	e.Previous()
	s.fire(t)
	assert.Equal(t, 0, e.SelectedIndex())
}

func TestAutoplayAdvancesAndRearms(t *testing.T) {
	e, s := newEngine(3)

	s.fire(t)
	assert.Equal(t, 1, e.SelectedIndex())
	s.fire(t)
	assert.Equal(t, 2, e.SelectedIndex())
	s.fire(t)
	assert.Equal(t, 0, e.SelectedIndex())
	assert.Equal(t, 4, s.armed)
}

func TestManualNavigationDoesNotResetTimer(t *testing.T) {
	e, s := newEngine(4)
	e.Next()
	assert.Equal(t, 1, s.armed)

	s.fire(t)
	assert.Equal(t, 2, e.SelectedIndex())
}

func TestPauseSkipsTickButKeepsRearming(t *testing.T) {
	e, s := newEngine(3)

	assert.True(t, e.TogglePause())
	s.fire(t)
	assert.Equal(t, 0, e.SelectedIndex())
	assert.Equal(t, 1, s.live(), "paused tick must still re-arm")

	assert.False(t, e.TogglePause())
	assert.Equal(t, 0, e.SelectedIndex(), "resume must not advance immediately")

	s.fire(t)
	assert.Equal(t, 1, e.SelectedIndex())
}

func TestEmptyCarouselIsSafe(t *testing.T) {
	e, s := newEngine(0)
	assert.Equal(t, 0, s.armed)

	e.Next()
	e.Previous()
	assert.NoError(t, e.JumpTo(0))
	assert.NoError(t, e.JumpTo(7))
	e.TogglePause()
	e.Dispose()

	_, ok := e.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, e.State().Count)
	assert.Nil(t, e.State().Current)
}

func TestJumpToRejectsOutOfRange(t *testing.T) {
	e, _ := newEngine(3)
	require.NoError(t, e.JumpTo(2))

	err := e.JumpTo(3)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
	assert.ErrorIs(t, e.JumpTo(-1), ErrIndexOutOfRange)
	assert.Equal(t, 2, e.SelectedIndex())
}

func TestInvalidIntervalFallsBack(t *testing.T) {
	s := &manualScheduler{}
	New(slides(2), 0, WithScheduler(s))
	require.Len(t, s.pending, 1)
	assert.Equal(t, DefaultInterval, s.pending[0].d)
}

func TestDisposeStopsTimerAndIgnoresLateTick(t *testing.T) {
	e, s := newEngine(3)
	changes := 0
	e.OnChange(func(State) { changes++ })

	e.Dispose()
	e.Dispose()
	assert.True(t, e.Disposed())
	assert.Equal(t, 0, s.live())

	s.fire(t)
	assert.Equal(t, 0, e.SelectedIndex())
	assert.Equal(t, 0, changes)
	assert.Empty(t, s.pending, "late tick must not re-arm")

	e.Next()
	assert.Equal(t, 0, e.SelectedIndex())
	assert.ErrorIs(t, e.JumpTo(1), ErrDisposed)
}

func TestOnChangeNotifiesAndCancels(t *testing.T) {
	e, s := newEngine(3)
	var got []State
	cancel := e.OnChange(func(st State) { got = append(got, st) })

	e.Next()
	s.fire(t)
	e.TogglePause()
	require.NoError(t, e.JumpTo(0))
	require.NoError(t, e.JumpTo(0))

	require.Len(t, got, 4, "jumping to the current index is not a change")
	assert.Equal(t, 1, got[0].SelectedIndex)
	assert.Equal(t, 2, got[1].SelectedIndex)
	assert.True(t, got[2].IsPaused)
	assert.Equal(t, 0, got[3].SelectedIndex)
	assert.Equal(t, "/img/a.jpg", got[3].Current.Source)

	cancel()
	e.Previous()
	assert.Len(t, got, 4)
}

func TestObserverMayCallEngine(t *testing.T) {
	e, _ := newEngine(3)
	var seen []int
	e.OnChange(func(st State) { seen = append(seen, e.SelectedIndex()) })

	e.Next()
	assert.Equal(t, []int{1}, seen)
}

func TestSlidesAreCopied(t *testing.T) {
	in := slides(2)
	e := New(in, time.Second, WithScheduler(&manualScheduler{}))
	in[0].Source = "changed"

	cur, ok := e.Current()
	require.True(t, ok)
	assert.Equal(t, "/img/a.jpg", cur.Source)
}
