package contentapi

import (
	"errors"
	"sync"
	"time"

	"github.com/eapache/go-resiliency/breaker"
)

// haltGuard 连续失败达到阈值后快速失败；成功一次即清零。
// breaker 在关闭状态下不会因成功而清零错误计数，所以成功时换一个新的 breaker。
type haltGuard struct {
	mu        sync.Mutex
	threshold int
	cooldown  time.Duration
	b         *breaker.Breaker
	failures  int
	openedAt  time.Time
	now       func() time.Time
}

func newHaltGuard(threshold int, cooldown time.Duration) *haltGuard {
	g := &haltGuard{threshold: threshold, cooldown: cooldown, now: time.Now}
	g.b = g.fresh()
	return g
}

func (g *haltGuard) fresh() *breaker.Breaker {
	return breaker.New(g.threshold, 1, g.cooldown)
}

// run 执行 fn；fn 返回的错误计为一次失败
func (g *haltGuard) run(fn func() error) error {
	g.mu.Lock()
	if g.openLocked() {
		g.mu.Unlock()
		return ErrHalted
	}
	b := g.b
	g.mu.Unlock()

	err := b.Run(fn)
	if errors.Is(err, breaker.ErrBreakerOpen) {
		return ErrHalted
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.b != b {
		// 期间被 resume 过，结果不再计入
		return err
	}
	if err == nil {
		if g.failures > 0 {
			g.failures = 0
			g.openedAt = time.Time{}
			g.b = g.fresh()
		}
		return nil
	}
	g.failures++
	if g.failures >= g.threshold {
		g.openedAt = g.now()
	}
	return err
}

// resume 手动重试：清零失败并立即放行
func (g *haltGuard) resume() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failures = 0
	g.openedAt = time.Time{}
	g.b = g.fresh()
}

// halted 当前是否处于暂停
func (g *haltGuard) halted() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.openLocked()
}

// openLocked 失败数达到阈值且仍在冷却期内。
// breaker 会遗忘间隔超过 cooldown 的错误，暂停与否以这里的计数为准
func (g *haltGuard) openLocked() bool {
	if g.failures < g.threshold || g.openedAt.IsZero() {
		return false
	}
	return g.now().Before(g.openedAt.Add(g.cooldown))
}

// consecutiveFailures 当前连续失败次数
func (g *haltGuard) consecutiveFailures() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.failures
}
