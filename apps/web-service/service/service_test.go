package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cih-portal/apps/web-service/converter"
	"cih-portal/apps/web-service/model"
	"cih-portal/pkg/cache"
	"cih-portal/pkg/config"
	"cih-portal/pkg/contentapi"
	"cih-portal/pkg/logger"
	"cih-portal/pkg/theme"
)

type fakeSource struct {
	mu        sync.Mutex
	records   []contentapi.PostRecord
	listErr   error
	listCalls int
	slugCalls int
	resumed   int
	halted    bool
}

func (f *fakeSource) ListPosts(ctx context.Context, status contentapi.Status) ([]contentapi.PostRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.records, nil
}

func (f *fakeSource) PostBySlug(_ context.Context, slug string) (contentapi.PostRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.slugCalls++
	for _, r := range f.records {
		if r.Slug == slug {
			return r, nil
		}
	}
	return contentapi.PostRecord{}, contentapi.ErrNotFound
}

func (f *fakeSource) Resume() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resumed++
}

func (f *fakeSource) Halted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.halted
}

// gatedSource 的 PostBySlug 忽略 ctx，直到 gate 关闭才返回
type gatedSource struct {
	*fakeSource
	started chan struct{}
	gate    chan struct{}
}

func (g *gatedSource) PostBySlug(ctx context.Context, slug string) (contentapi.PostRecord, error) {
	g.started <- struct{}{}
	<-g.gate
	return g.fakeSource.PostBySlug(ctx, slug)
}

func sampleRecords() []contentapi.PostRecord {
	return []contentapi.PostRecord{
		{ID: "1", Slug: "feria", Category: "Noticias", PublishedAt: "2025-11-01"},
		{ID: "2", Slug: "vivero", Category: "Proyectos", PublishedAt: "2025-10-24"},
		{ID: "3", Slug: "taller", Category: "Noticias", CreatedAt: "2025-11-15"},
		{ID: "4", Slug: "sin-categoria", PublishedAt: "2025-09-03"},
	}
}

func newTestService(src ContentSource, store cache.Store) *Service {
	conv := converter.NewConverter("http://api", "/fallback.jpg", time.UTC)
	return NewService(src, store, conv, Options{RecentLimit: 2, RelatedLimit: 2, CacheTTL: time.Minute}, logger.NewNop())
}

func TestListView(t *testing.T) {
	svc := newTestService(&fakeSource{records: sampleRecords()}, nil)

	view, err := svc.ListView(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, model.AllCategories, view.SelectedCategory)
	assert.Equal(t, []string{"Todos", "Noticias", "Proyectos"}, view.Categories)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(view.Posts))
	assert.Equal(t, []string{"3", "1"}, ids(view.Recent))
	assert.Equal(t, []string{"noviembre 2025", "octubre 2025", "septiembre 2025"}, view.Archive)
	require.Len(t, view.Cues, 4)
	assert.Equal(t, int64(100), view.Cues[0].DelayMs)
	assert.Equal(t, int64(160), view.Cues[1].DelayMs)

	view, err = svc.ListView(context.Background(), "Noticias")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3"}, ids(view.Posts))
	assert.Equal(t, []string{"Todos", "Noticias", "Proyectos"}, view.Categories, "categories come from the full set")
	assert.Len(t, view.Cues, 2)
}

func TestListViewFailure(t *testing.T) {
	src := &fakeSource{listErr: &contentapi.APIError{Kind: contentapi.KindStatus, StatusCode: 500}}
	svc := newTestService(src, nil)

	_, err := svc.ListView(context.Background(), "")
	require.Error(t, err)
	assert.True(t, contentapi.IsKind(err, contentapi.KindStatus))
}

func TestListViewCanceledRequest(t *testing.T) {
	svc := newTestService(&fakeSource{records: sampleRecords()}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ListView(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestListViewUsesCacheAndRetryRefreshes(t *testing.T) {
	src := &fakeSource{records: sampleRecords()}
	svc := newTestService(src, cache.NewMemoryStore(16, time.Hour))
	ctx := context.Background()

	_, err := svc.ListView(ctx, "")
	require.NoError(t, err)
	_, err = svc.ListView(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, src.listCalls)

	_, err = svc.Retry(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, src.resumed)
	assert.Equal(t, 2, src.listCalls)
}

func TestFailuresAreNotCached(t *testing.T) {
	src := &fakeSource{listErr: errors.New("down")}
	svc := newTestService(src, cache.NewMemoryStore(16, time.Hour))

	_, err := svc.ListView(context.Background(), "")
	require.Error(t, err)

	src.listErr = nil
	src.records = sampleRecords()
	view, err := svc.ListView(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, view.Posts, 4)
	assert.Equal(t, 2, src.listCalls)
}

func TestDetailView(t *testing.T) {
	src := &fakeSource{records: sampleRecords()}
	svc := newTestService(src, cache.NewMemoryStore(16, time.Hour))

	view, err := svc.DetailView(context.Background(), "taller")
	require.NoError(t, err)
	assert.Equal(t, "3", view.Post.ID)
	assert.Equal(t, "Noticias", view.Post.CategoryLabel)
	assert.Equal(t, "15 de noviembre de 2025", view.Post.DisplayDate)
	assert.Equal(t, []string{"1", "2"}, ids(view.Recent))

	_, err = svc.DetailView(context.Background(), "taller")
	require.NoError(t, err)
	assert.Equal(t, 1, src.slugCalls, "second lookup served from cache")
}

func TestDetailViewNotFound(t *testing.T) {
	svc := newTestService(&fakeSource{records: sampleRecords()}, cache.NewMemoryStore(16, time.Hour))

	_, err := svc.DetailView(context.Background(), "no-existe")
	assert.ErrorIs(t, err, contentapi.ErrNotFound)
}

func TestDetailViewDiscardsResultAfterCancel(t *testing.T) {
	src := &gatedSource{
		fakeSource: &fakeSource{records: sampleRecords()},
		started:    make(chan struct{}, 1),
		gate:       make(chan struct{}),
	}
	svc := newTestService(src, nil)
	ctx, cancel := context.WithCancel(context.Background())

	type result struct {
		view model.DetailView
		err  error
	}
	done := make(chan result, 1)
	go func() {
		view, err := svc.DetailView(ctx, "feria")
		done <- result{view, err}
	}()

	<-src.started
	cancel()
	close(src.gate)

	select {
	case res := <-done:
		assert.ErrorIs(t, res.err, context.Canceled)
		assert.Empty(t, res.view.Post.ID, "late post must not be rendered")
	case <-time.After(2 * time.Second):
		t.Fatal("DetailView did not return")
	}
}

func TestHaltedFollowsSource(t *testing.T) {
	src := &fakeSource{}
	svc := newTestService(src, nil)
	assert.False(t, svc.Halted())

	src.halted = true
	assert.True(t, svc.Halted())
}

func TestDetailViewWithoutRecentPosts(t *testing.T) {
	src := &fakeSource{records: sampleRecords()}
	svc := newTestService(src, nil)
	src.listErr = errors.New("list down")

	view, err := svc.DetailView(context.Background(), "feria")
	require.NoError(t, err)
	assert.Equal(t, "1", view.Post.ID)
	assert.NotNil(t, view.Recent)
	assert.Empty(t, view.Recent)
}

func TestBuildServiceLines(t *testing.T) {
	lines, err := BuildServiceLines(nil)
	require.NoError(t, err)
	require.Len(t, lines, 7)
	assert.Equal(t, "Capacitación", lines[0].Title)
	assert.Equal(t, theme.Blue, lines[0].Theme)
	assert.Equal(t, theme.Blue.Style(), lines[0].Style)
	assert.Equal(t, theme.Pink, lines[5].Theme)
	assert.Equal(t, int64(100), lines[0].Cue.DelayMs)

	_, err = BuildServiceLines([]config.ServiceLineConfig{{Title: "X", Theme: "teal"}})
	assert.Error(t, err)

	_, err = BuildServiceLines([]config.ServiceLineConfig{{Theme: "blue"}})
	assert.Error(t, err)
}

func TestServiceLinesReturnsCopy(t *testing.T) {
	lines, err := BuildServiceLines(nil)
	require.NoError(t, err)
	conv := converter.NewConverter("", "", nil)
	svc := NewService(&fakeSource{}, nil, conv, Options{ServiceLines: lines}, logger.NewNop())

	got := svc.ServiceLines()
	got[0].Title = "cambiado"
	assert.Equal(t, "Capacitación", svc.ServiceLines()[0].Title)
}
