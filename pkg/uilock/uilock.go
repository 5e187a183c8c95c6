// Package uilock 模态层的全局界面锁：禁止背景滚动并捕获 Escape。
//
// 第一个持有者获取时执行 OnAcquire，最后一个释放时执行 OnRelease。
// Acquire 返回的 Release 可以重复调用，只生效一次，适合 defer。
package uilock

import "sync"

// Hooks 获取与释放时的副作用
type Hooks struct {
	OnAcquire func()
	OnRelease func()
}

// Release 释放一次持有
type Release func()

// Lock 引用计数的界面锁
type Lock struct {
	mu      sync.Mutex
	holders int
	hooks   Hooks
}

// New 创建界面锁
func New(hooks Hooks) *Lock {
	return &Lock{hooks: hooks}
}

// Acquire 获取锁
func (l *Lock) Acquire() Release {
	l.mu.Lock()
	l.holders++
	first := l.holders == 1
	l.mu.Unlock()

	if first && l.hooks.OnAcquire != nil {
		l.hooks.OnAcquire()
	}

	var once sync.Once
	return func() {
		once.Do(l.release)
	}
}

func (l *Lock) release() {
	l.mu.Lock()
	if l.holders == 0 {
		l.mu.Unlock()
		return
	}
	l.holders--
	last := l.holders == 0
	l.mu.Unlock()

	if last && l.hooks.OnRelease != nil {
		l.hooks.OnRelease()
	}
}

// Held 当前是否有持有者
func (l *Lock) Held() bool {
	return l.Holders() > 0
}

// Holders 当前持有者数量
func (l *Lock) Holders() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.holders
}
