// Package carousel 循环幻灯片引擎：自动播放、手动导航、暂停与灯箱。
package carousel

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cih-portal/pkg/logger"
)

// DefaultInterval 自动播放间隔
const DefaultInterval = 4800 * time.Millisecond

var (
	// ErrIndexOutOfRange JumpTo 的索引超出范围，状态不变
	ErrIndexOutOfRange = errors.New("carousel: index out of range")
	// ErrDisposed 引擎已释放
	ErrDisposed = errors.New("carousel: disposed")
)

// Slide 一张幻灯片
type Slide struct {
	Source  string `json:"source"`
	AltText string `json:"altText"`
}

// State 对外可读的状态快照
type State struct {
	Name          string `json:"name"`
	SelectedIndex int    `json:"selectedIndex"`
	IsPaused      bool   `json:"isPaused"`
	Count         int    `json:"count"`
	Current       *Slide `json:"current,omitempty"`
}

// Option 引擎选项
type Option func(*Engine)

// WithScheduler 替换定时器来源
func WithScheduler(s Scheduler) Option {
	return func(e *Engine) { e.scheduler = s }
}

// WithLogger 设置日志器
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithName 设置轮播图名称
func WithName(name string) Option {
	return func(e *Engine) { e.name = name }
}

// Engine 轮播引擎
type Engine struct {
	mu        sync.Mutex
	name      string
	slides    []Slide
	interval  time.Duration
	selected  int
	paused    bool
	disposed  bool
	timer     Stopper
	scheduler Scheduler
	logger    logger.Logger

	nextObserver int
	observers    map[int]func(State)
}

// New 创建引擎并在有幻灯片时启动自动播放
func New(slides []Slide, interval time.Duration, opts ...Option) *Engine {
	e := &Engine{
		slides:    append([]Slide(nil), slides...),
		interval:  interval,
		scheduler: SystemScheduler,
		logger:    logger.NewNop(),
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.interval <= 0 {
		e.logger.Warn(context.Background(), "Invalid carousel interval, using default",
			logger.F("carousel", e.name),
			logger.F("interval", interval.String()),
			logger.F("default", DefaultInterval.String()))
		e.interval = DefaultInterval
	}

	if len(e.slides) > 0 {
		e.mu.Lock()
		e.arm()
		e.mu.Unlock()
	}
	return e
}

// arm 安排下一次触发，调用方持有锁
func (e *Engine) arm() {
	e.timer = e.scheduler.AfterFunc(e.interval, e.tick)
}

// tick 自动播放回调：未暂停时前进一格，然后重新安排
func (e *Engine) tick() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	changed := false
	if !e.paused && len(e.slides) > 1 {
		e.selected = (e.selected + 1) % len(e.slides)
		changed = true
	}
	e.arm()
	state, observers := e.snapshotLocked(changed)
	e.mu.Unlock()

	notify(observers, state)
}

// Next 前进一格，到末尾后回到第一张
func (e *Engine) Next() {
	e.step(1)
}

// Previous 后退一格，在第一张时回到最后一张
func (e *Engine) Previous() {
	e.step(-1)
}

func (e *Engine) step(delta int) {
	e.mu.Lock()
	n := len(e.slides)
	if e.disposed || n <= 1 {
		e.mu.Unlock()
		return
	}
	e.selected = ((e.selected+delta)%n + n) % n
	state, observers := e.snapshotLocked(true)
	e.mu.Unlock()

	notify(observers, state)
}

// JumpTo 跳到指定索引，越界时返回 ErrIndexOutOfRange 且不改变状态；空轮播为空操作
func (e *Engine) JumpTo(index int) error {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return ErrDisposed
	}
	n := len(e.slides)
	if n == 0 {
		e.mu.Unlock()
		return nil
	}
	if index < 0 || index >= n {
		e.mu.Unlock()
		return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, index, n)
	}
	changed := e.selected != index
	e.selected = index
	state, observers := e.snapshotLocked(changed)
	e.mu.Unlock()

	notify(observers, state)
	return nil
}

// TogglePause 切换暂停；定时器照常重新安排，恢复后在下一次触发时前进
func (e *Engine) TogglePause() bool {
	e.mu.Lock()
	if e.disposed {
		paused := e.paused
		e.mu.Unlock()
		return paused
	}
	e.paused = !e.paused
	paused := e.paused
	state, observers := e.snapshotLocked(true)
	e.mu.Unlock()

	notify(observers, state)
	return paused
}

// Dispose 停止定时器并解除所有观察者，可重复调用
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		return
	}
	e.disposed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.observers = make(map[int]func(State))
}

// OnChange 注册状态变化观察者，返回取消函数；回调在引擎锁之外执行
func (e *Engine) OnChange(fn func(State)) (cancel func()) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		return func() {}
	}
	id := e.nextObserver
	e.nextObserver++
	e.observers[id] = fn

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.observers, id)
	}
}

// State 当前状态快照
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	state, _ := e.snapshotLocked(false)
	return state
}

// SelectedIndex 当前索引
func (e *Engine) SelectedIndex() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// IsPaused 是否暂停
func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.paused
}

// Len 幻灯片数量
func (e *Engine) Len() int {
	return len(e.slides)
}

// Slides 幻灯片副本
func (e *Engine) Slides() []Slide {
	return append([]Slide(nil), e.slides...)
}

// Current 当前幻灯片
func (e *Engine) Current() (Slide, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.slides) == 0 {
		return Slide{}, false
	}
	return e.slides[e.selected], true
}

// Disposed 是否已释放
func (e *Engine) Disposed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.disposed
}

// snapshotLocked 生成快照；changed 为 false 时不返回观察者
func (e *Engine) snapshotLocked(changed bool) (State, []func(State)) {
	state := State{
		Name:          e.name,
		SelectedIndex: e.selected,
		IsPaused:      e.paused,
		Count:         len(e.slides),
	}
	if len(e.slides) > 0 {
		current := e.slides[e.selected]
		state.Current = &current
	}
	if !changed || len(e.observers) == 0 {
		return state, nil
	}
	observers := make([]func(State), 0, len(e.observers))
	for _, fn := range e.observers {
		observers = append(observers, fn)
	}
	return state, observers
}

func notify(observers []func(State), state State) {
	for _, fn := range observers {
		fn(state)
	}
}
