package service

import (
	"context"
	"errors"
	"slices"
	"sync"

	"cih-portal/apps/web-service/model"
	"cih-portal/pkg/contentapi"
)

// Status 加载状态
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PostFetcher 文章来源
type PostFetcher interface {
	FetchPublished(ctx context.Context) ([]model.Post, error)
	FetchBySlug(ctx context.Context, slug string) (model.Post, error)
}

// ListState 列表状态；Items 只在成功时整体替换
type ListState struct {
	Status Status
	Items  []model.Post
	Err    error
}

// ListController 已发布文章列表
type ListController struct {
	fetcher PostFetcher
	mu      sync.Mutex
	state   ListState
	attempt uint64
	closed  bool
}

// NewListController 创建列表控制器
func NewListController(fetcher PostFetcher) *ListController {
	return &ListController{fetcher: fetcher}
}

// LoadPublished 加载已发布文章；重复调用即重试，只有最后一次的结果生效
func (c *ListController) LoadPublished(ctx context.Context) ListState {
	c.mu.Lock()
	if c.closed {
		defer c.mu.Unlock()
		return c.snapshotLocked()
	}
	c.attempt++
	attempt := c.attempt
	c.state.Status = StatusLoading
	c.state.Err = nil
	c.mu.Unlock()

	items, err := c.fetcher.FetchPublished(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || attempt != c.attempt {
		return c.snapshotLocked()
	}
	if err != nil {
		c.state.Status = StatusFailed
		c.state.Err = err
		return c.snapshotLocked()
	}
	if items == nil {
		items = []model.Post{}
	}
	c.state = ListState{Status: StatusLoaded, Items: items}
	return c.snapshotLocked()
}

// State 当前状态
func (c *ListController) State() ListState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close 视图销毁；之后到达的结果被丢弃
func (c *ListController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *ListController) snapshotLocked() ListState {
	s := c.state
	s.Items = slices.Clone(c.state.Items)
	return s
}

// DetailState 详情状态
type DetailState struct {
	Status Status
	Post   model.Post
	Err    error
}

// NotFound 是否是未找到
func (s DetailState) NotFound() bool {
	return s.Status == StatusFailed && errors.Is(s.Err, contentapi.ErrNotFound)
}

// DetailController 按 slug 加载单篇文章，状态独立于列表
type DetailController struct {
	fetcher PostFetcher
	mu      sync.Mutex
	state   DetailState
	attempt uint64
	closed  bool
}

// NewDetailController 创建详情控制器
func NewDetailController(fetcher PostFetcher) *DetailController {
	return &DetailController{fetcher: fetcher}
}

// LoadBySlug 加载文章；零结果进入 Failed 且 NotFound 为真
func (c *DetailController) LoadBySlug(ctx context.Context, slug string) DetailState {
	c.mu.Lock()
	if c.closed {
		defer c.mu.Unlock()
		return c.state
	}
	c.attempt++
	attempt := c.attempt
	c.state.Status = StatusLoading
	c.state.Err = nil
	c.mu.Unlock()

	post, err := c.fetcher.FetchBySlug(ctx, slug)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || attempt != c.attempt {
		return c.state
	}
	if err != nil {
		c.state.Status = StatusFailed
		c.state.Err = err
		return c.state
	}
	c.state = DetailState{Status: StatusLoaded, Post: post}
	return c.state
}

// State 当前状态
func (c *DetailController) State() DetailState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close 视图销毁
func (c *DetailController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
