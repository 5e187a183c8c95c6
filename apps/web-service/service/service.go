package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"cih-portal/apps/web-service/converter"
	"cih-portal/apps/web-service/model"
	"cih-portal/pkg/cache"
	"cih-portal/pkg/contentapi"
	tracecontext "cih-portal/pkg/context"
	"cih-portal/pkg/logger"
	"cih-portal/pkg/motion"
	"cih-portal/pkg/telemetry"
)

const (
	cacheKeyPublished  = "posts:published"
	cacheKeySlugPrefix = "post:slug:"
)

// ContentSource 内容API
type ContentSource interface {
	ListPosts(ctx context.Context, status contentapi.Status) ([]contentapi.PostRecord, error)
	PostBySlug(ctx context.Context, slug string) (contentapi.PostRecord, error)
	Resume()
	Halted() bool
}

// Options 服务参数
type Options struct {
	RecentLimit  int
	RelatedLimit int
	CacheTTL     time.Duration
	Location     *time.Location
	ServiceLines []model.ServiceLine
}

// Service 博客与站点内容服务
type Service struct {
	source    ContentSource
	store     cache.Store
	converter *converter.Converter
	opts      Options
	logger    logger.Logger
}

// NewService 创建服务实例；store 为 nil 时不缓存
func NewService(source ContentSource, store cache.Store, conv *converter.Converter, opts Options, log logger.Logger) *Service {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = model.DefaultRecentLimit
	}
	if opts.RelatedLimit <= 0 {
		opts.RelatedLimit = model.DefaultRelatedLimit
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		source:    source,
		store:     store,
		converter: conv,
		opts:      opts,
		logger:    log,
	}
}

// FetchPublished 已发布文章，优先读缓存
func (s *Service) FetchPublished(ctx context.Context) ([]model.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "blog.service.FetchPublished")
	defer span.End()

	var records []contentapi.PostRecord
	if s.cacheGet(ctx, cacheKeyPublished, &records) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return s.converter.PostsFromRecords(records), nil
	}

	records, err := s.source.ListPosts(ctx, contentapi.StatusPublished)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to list published posts")
		return nil, fmt.Errorf("list published posts: %w", err)
	}
	s.cacheSet(ctx, cacheKeyPublished, records)

	span.SetAttributes(attribute.Int("post.count", len(records)))
	return s.converter.PostsFromRecords(records), nil
}

// FetchBySlug 单篇文章；未找到不缓存
func (s *Service) FetchBySlug(ctx context.Context, slug string) (model.Post, error) {
	ctx, span := telemetry.StartSpan(ctx, "blog.service.FetchBySlug")
	defer span.End()
	span.SetAttributes(attribute.String("post.slug", slug))

	var record contentapi.PostRecord
	if s.cacheGet(ctx, cacheKeySlugPrefix+slug, &record) {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return s.converter.PostFromRecord(record), nil
	}

	record, err := s.source.PostBySlug(ctx, slug)
	if err != nil {
		if !errors.Is(err, contentapi.ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to get post")
		}
		return model.Post{}, fmt.Errorf("get post %q: %w", slug, err)
	}
	s.cacheSet(ctx, cacheKeySlugPrefix+slug, record)
	return s.converter.PostFromRecord(record), nil
}

// ListView 博客列表页；请求结束即视图销毁
func (s *Service) ListView(ctx context.Context, category string) (model.ListView, error) {
	ctx, span := telemetry.StartSpan(ctx, "blog.service.ListView")
	defer span.End()

	if category == "" {
		category = model.AllCategories
	}
	ctx = tracecontext.WithCategory(ctx, category)
	span.SetAttributes(attribute.String("blog.category", category))

	ctrl := NewListController(s)
	defer ctrl.Close()
	stop := context.AfterFunc(ctx, ctrl.Close)
	defer stop()

	state := ctrl.LoadPublished(ctx)
	if state.Status != StatusLoaded {
		err := state.Err
		if err == nil {
			err = ctx.Err()
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "list view failed")
		s.logger.Error(ctx, "Failed to load blog list", logger.F("error", err))
		return model.ListView{}, err
	}

	items := state.Items
	posts := FilterByCategory(items, category)
	view := model.ListView{
		Categories:       append([]string{model.AllCategories}, DistinctCategories(items)...),
		SelectedCategory: category,
		Posts:            posts,
		Recent:           Recent(items, s.opts.RecentLimit),
		Archive:          DistinctArchiveLabels(items, s.opts.Location),
		Cues:             motion.Sequence(motion.DefaultFadeIn(), motion.DefaultStagger(), len(posts)),
	}
	span.SetAttributes(attribute.Int("blog.posts", len(posts)))
	return view, nil
}

// DetailView 文章详情页；文章与侧边栏列表并发加载，状态互不影响
func (s *Service) DetailView(ctx context.Context, slug string) (model.DetailView, error) {
	ctx, span := telemetry.StartSpan(ctx, "blog.service.DetailView")
	defer span.End()
	ctx = tracecontext.WithPostSlug(ctx, slug)

	detail := NewDetailController(s)
	list := NewListController(s)
	defer detail.Close()
	defer list.Close()
	stopDetail := context.AfterFunc(ctx, detail.Close)
	defer stopDetail()
	stopList := context.AfterFunc(ctx, list.Close)
	defer stopList()

	var (
		detailState DetailState
		listState   ListState
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		detailState = detail.LoadBySlug(gctx, slug)
		switch {
		case detailState.Status == StatusLoaded:
			return nil
		case detailState.Err != nil:
			return detailState.Err
		default:
			// 视图已随请求关闭，迟到的结果被丢弃
			return ctx.Err()
		}
	})
	g.Go(func() error {
		listState = list.LoadPublished(gctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		if detailState.NotFound() {
			s.logger.Info(ctx, "Post not found", logger.F("slug", slug))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, "detail view failed")
			s.logger.Error(ctx, "Failed to load post", logger.F("slug", slug), logger.F("error", err))
		}
		return model.DetailView{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.DetailView{}, err
	}

	view := model.DetailView{Post: detailState.Post, Recent: []model.Post{}}
	if listState.Status == StatusLoaded {
		view.Recent = RecentExcluding(listState.Items, detailState.Post.ID, s.opts.RelatedLimit)
	} else {
		s.logger.Warn(ctx, "Recent posts unavailable for detail view", logger.F("error", listState.Err))
	}
	return view, nil
}

// Retry 手动重试：解除暂停并丢弃列表缓存后重新加载
func (s *Service) Retry(ctx context.Context, category string) (model.ListView, error) {
	s.source.Resume()
	if s.store != nil {
		if err := s.store.Delete(ctx, cacheKeyPublished); err != nil {
			s.logger.Warn(ctx, "Failed to drop cached posts", logger.F("error", err))
		}
	}
	s.logger.Info(ctx, "Blog list retry requested")
	return s.ListView(ctx, category)
}

// Halted 内容API是否因连续失败暂停
func (s *Service) Halted() bool {
	return s.source.Halted()
}

// ServiceLines 服务线目录
func (s *Service) ServiceLines() []model.ServiceLine {
	return append([]model.ServiceLine(nil), s.opts.ServiceLines...)
}

func (s *Service) cacheGet(ctx context.Context, key string, out interface{}) bool {
	if s.store == nil {
		return false
	}
	data, ok, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn(ctx, "Cache read failed", logger.F("key", key), logger.F("error", err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn(ctx, "Cache entry corrupt", logger.F("key", key), logger.F("error", err))
		return false
	}
	return true
}

func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.store == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn(ctx, "Cache encode failed", logger.F("key", key), logger.F("error", err))
		return
	}
	if err := s.store.Set(ctx, key, data, s.opts.CacheTTL); err != nil {
		s.logger.Warn(ctx, "Cache write failed", logger.F("key", key), logger.F("error", err))
	}
}
