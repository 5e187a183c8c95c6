package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cih-portal/apps/web-service/model"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func post(id, category, published string) model.Post {
	p := model.Post{ID: id, Slug: "post-" + id, Category: category}
	if published != "" {
		p.PublishedAt = day(published)
	}
	return p
}

func ids(posts []model.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestRecentOrdering(t *testing.T) {
	items := []model.Post{
		post("t1", "", "2025-01-01"),
		post("t2", "", "2025-03-01"),
		post("t3", "", "2025-02-01"),
	}
	before := ids(items)

	assert.Equal(t, []string{"t2", "t3"}, ids(Recent(items, 2)))
	assert.Equal(t, before, ids(items), "input must not be reordered")
}

func TestRecentFallsBackToCreatedAt(t *testing.T) {
	created := post("created", "", "")
	created.CreatedAt = *day("2025-05-01")
	items := []model.Post{
		post("april", "", "2025-04-01"),
		created,
		post("june", "", "2025-06-01"),
	}

	assert.Equal(t, []string{"june", "created", "april"}, ids(Recent(items, 10)))
}

func TestRecentStableOnTies(t *testing.T) {
	items := []model.Post{
		post("a", "", "2025-02-01"),
		post("b", "", "2025-02-01"),
		post("c", "", "2025-03-01"),
		post("d", "", "2025-02-01"),
	}
	assert.Equal(t, []string{"c", "a", "b", "d"}, ids(Recent(items, 4)))
}

func TestRecentLimits(t *testing.T) {
	items := []model.Post{post("a", "", "2025-01-01")}
	assert.Empty(t, Recent(items, 0))
	assert.NotNil(t, Recent(nil, 3))
	assert.Len(t, Recent(items, 3), 1)
}

func TestFilterByCategory(t *testing.T) {
	items := []model.Post{
		post("1", "Noticias", "2025-11-01"),
		post("2", "Proyectos", "2025-10-24"),
		post("3", "Noticias", "2025-09-01"),
		post("4", "", "2025-08-01"),
	}

	assert.Equal(t, items, FilterByCategory(items, model.AllCategories))
	assert.Equal(t, items, FilterByCategory(items, ""))

	once := FilterByCategory(items, "Noticias")
	assert.Equal(t, []string{"1", "3"}, ids(once))
	assert.Equal(t, once, FilterByCategory(once, "Noticias"))

	assert.Empty(t, FilterByCategory(items, "Eventos"))
}

func TestRecentExcluding(t *testing.T) {
	items := []model.Post{
		post("1", "", "2025-01-01"),
		post("2", "", "2025-02-01"),
		post("3", "", "2025-03-01"),
		post("4", "", "2025-04-01"),
		post("5", "", "2025-05-01"),
	}

	got := RecentExcluding(items, "3", 5)
	require.Len(t, got, 4)
	assert.NotContains(t, ids(got), "3")
	assert.Equal(t, []string{"5", "4", "2", "1"}, ids(got))

	assert.Equal(t, []string{"5", "4"}, ids(RecentExcluding(items, "3", 2)))
	assert.Len(t, RecentExcluding(items, "missing", 5), 5)
}

func TestDistinctCategories(t *testing.T) {
	items := []model.Post{
		post("1", "Proyectos", ""),
		post("2", "", ""),
		post("3", "Noticias", ""),
		post("4", "Proyectos", ""),
	}
	assert.Equal(t, []string{"Proyectos", "Noticias"}, DistinctCategories(items))
	assert.Empty(t, DistinctCategories(nil))
}

func TestDistinctArchiveLabels(t *testing.T) {
	created := post("c", "", "")
	created.CreatedAt = *day("2025-10-02")
	items := []model.Post{
		post("1", "", "2025-11-01"),
		post("2", "", "2025-11-20"),
		created,
		post("3", "", ""),
		post("4", "", "2024-01-15"),
	}

	assert.Equal(t, []string{"noviembre 2025", "octubre 2025", "enero 2024"},
		DistinctArchiveLabels(items, time.UTC))
}

func TestEndToEndViews(t *testing.T) {
	items := []model.Post{
		post("1", "Noticias", "2025-11-01"),
		post("2", "Proyectos", "2025-10-24"),
	}

	assert.ElementsMatch(t, []string{"Noticias", "Proyectos"}, DistinctCategories(items))
	assert.Equal(t, []string{"1"}, ids(Recent(items, 1)))
	assert.Equal(t, []string{"2"}, ids(FilterByCategory(items, "Proyectos")))
}
