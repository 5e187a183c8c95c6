// Package contentapi 远程内容API的只读客户端。
//
// 约定：
//
//	GET {base}{posts}?status=published  文章集合
//	GET {base}{posts}?slug={slug}       集合；0 条为未找到，多条取第一条
package contentapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	tracecontext "cih-portal/pkg/context"
	"cih-portal/pkg/logger"
	"cih-portal/pkg/telemetry"
)

const maxBodyBytes = 8 << 20

// Options 客户端参数
type Options struct {
	BaseURL       string
	PostsPath     string
	Timeout       time.Duration
	HaltThreshold int
	HaltCooldown  time.Duration
	HTTPClient    *http.Client
	Logger        logger.Logger
}

// Client 内容API客户端
type Client struct {
	postsURL string
	http     *http.Client
	guard    *haltGuard
	logger   logger.Logger
}

// New 创建客户端
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("contentapi: base url is required")
	}
	if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("contentapi: invalid base url: %w", err)
	}
	if opts.PostsPath == "" {
		opts.PostsPath = "/posts"
	}
	postsURL, err := url.JoinPath(opts.BaseURL, opts.PostsPath)
	if err != nil {
		return nil, fmt.Errorf("contentapi: invalid posts path: %w", err)
	}
	if opts.HaltThreshold <= 0 {
		opts.HaltThreshold = 5
	}
	if opts.HaltCooldown <= 0 {
		opts.HaltCooldown = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   opts.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return &Client{
		postsURL: postsURL,
		http:     httpClient,
		guard:    newHaltGuard(opts.HaltThreshold, opts.HaltCooldown),
		logger:   opts.Logger,
	}, nil
}

// ListPosts 按状态获取文章集合
func (c *Client) ListPosts(ctx context.Context, status Status) ([]PostRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "contentapi.ListPosts")
	defer span.End()
	span.SetAttributes(attribute.String("post.status", string(status)))

	records, err := c.query(ctx, url.Values{"status": {string(status)}})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("post.count", len(records)))
	return records, nil
}

// PostBySlug 按 slug 获取单篇文章
func (c *Client) PostBySlug(ctx context.Context, slug string) (PostRecord, error) {
	ctx, span := telemetry.StartSpan(ctx, "contentapi.PostBySlug")
	defer span.End()
	span.SetAttributes(attribute.String("post.slug", slug))

	if slug == "" {
		return PostRecord{}, ErrNotFound
	}

	records, err := c.query(ctx, url.Values{"slug": {slug}})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		return PostRecord{}, err
	}
	if len(records) == 0 {
		return PostRecord{}, ErrNotFound
	}
	if len(records) > 1 {
		c.logger.Warn(ctx, "Slug lookup returned multiple posts, using first",
			logger.F("slug", slug),
			logger.F("count", len(records)))
	}
	return records[0], nil
}

// Resume 解除暂停，对应界面上的"重试"
func (c *Client) Resume() {
	c.guard.resume()
}

// Halted 是否处于暂停；列表错误响应据此提示用户手动重试
func (c *Client) Halted() bool {
	return c.guard.halted()
}

// query 发起请求；404 与调用方取消不计为失败
func (c *Client) query(ctx context.Context, params url.Values) ([]PostRecord, error) {
	var (
		records []PostRecord
		soft    error
	)
	err := c.guard.run(func() error {
		recs, err := c.fetch(ctx, params)
		switch {
		case err == nil:
			records = recs
			return nil
		case errors.Is(err, ErrNotFound), ctx.Err() != nil:
			soft = err
			return nil
		default:
			return err
		}
	})
	if errors.Is(err, ErrHalted) {
		c.logger.Warn(ctx, "Content API halted, request skipped",
			logger.F("failures", c.guard.consecutiveFailures()))
		return nil, err
	}
	if err != nil {
		c.logger.Error(ctx, "Content API request failed",
			logger.F("error", err),
			logger.F("failures", c.guard.consecutiveFailures()))
		return nil, err
	}
	if soft != nil {
		return nil, soft
	}
	return records, nil
}

func (c *Client) fetch(ctx context.Context, params url.Values) ([]PostRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.postsURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &APIError{Kind: KindTransport, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if requestID := tracecontext.GetRequestID(ctx); requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &APIError{Kind: KindTransport, Err: err}
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Kind: KindStatus, StatusCode: resp.StatusCode}
		if env, ok := peekMessage(body); ok {
			apiErr.Message = env
		}
		return nil, apiErr
	}

	return decodeCollection(body)
}
