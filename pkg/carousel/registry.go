package carousel

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"cih-portal/pkg/logger"
)

// ErrGalleryNotFound 图库未登记
var ErrGalleryNotFound = errors.New("carousel: gallery not found")

// Gallery 一个具名图库的定义
type Gallery struct {
	Name     string
	Interval time.Duration
	Shuffle  bool
	Slides   []Slide
}

// Registry 图库目录。只保存定义与打乱后的顺序；引擎由每个使用者通过 Open 独占创建
type Registry struct {
	mu        sync.RWMutex
	galleries map[string]Gallery
	live      map[*Engine]struct{}
	orders    *OrderCache
	logger    logger.Logger
	opts      []Option
	closed    bool
}

// NewRegistry 创建注册表，opts 会传给每个引擎
func NewRegistry(seed int64, log logger.Logger, opts ...Option) *Registry {
	return &Registry{
		galleries: make(map[string]Gallery),
		live:      make(map[*Engine]struct{}),
		orders:    NewOrderCache(seed),
		logger:    log,
		opts:      opts,
	}
}

// Add 登记图库；打乱顺序在此计算一次，之后所有引擎共用
func (r *Registry) Add(g Gallery) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrDisposed
	}
	if _, ok := r.galleries[g.Name]; ok {
		return fmt.Errorf("carousel %q already registered", g.Name)
	}

	slides := append([]Slide(nil), g.Slides...)
	if g.Shuffle {
		slides = r.orders.Order(g.Name, g.Slides)
	}
	g.Slides = slides
	r.galleries[g.Name] = g

	r.logger.Info(context.Background(), "Carousel registered",
		logger.F("carousel", g.Name),
		logger.F("slides", len(slides)),
		logger.F("shuffle", g.Shuffle))
	return nil
}

// Get 按名称查找图库定义，Slides 为最终展示顺序的副本
func (r *Registry) Get(name string) (Gallery, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.galleries[name]
	if !ok {
		return Gallery{}, false
	}
	g.Slides = append([]Slide(nil), g.Slides...)
	return g, true
}

// Names 已登记的名称，按字母排序
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.galleries))
	for name := range r.galleries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open 为一个使用者创建新引擎，从第 0 张、未暂停开始；用完交给 Release
func (r *Registry) Open(name string, opts ...Option) (*Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrDisposed
	}
	g, ok := r.galleries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrGalleryNotFound, name)
	}

	all := make([]Option, 0, len(r.opts)+len(opts)+2)
	all = append(all, WithName(g.Name), WithLogger(r.logger))
	all = append(all, r.opts...)
	all = append(all, opts...)
	e := New(g.Slides, g.Interval, all...)
	r.live[e] = struct{}{}
	return e, nil
}

// Release 释放 Open 得到的引擎，可重复调用
func (r *Registry) Release(e *Engine) {
	r.mu.Lock()
	delete(r.live, e)
	r.mu.Unlock()
	e.Dispose()
}

// Live 当前未释放的引擎数量
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.live)
}

// Close 拒绝新的 Open，并释放仍在使用的引擎
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	for e := range r.live {
		e.Dispose()
	}
	r.logger.Info(context.Background(), "Carousels disposed",
		logger.F("galleries", len(r.galleries)),
		logger.F("engines", len(r.live)))
	r.live = make(map[*Engine]struct{})
	return nil
}
