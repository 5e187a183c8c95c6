package converter

import (
	"strings"
	"time"

	"cih-portal/apps/web-service/model"
	"cih-portal/pkg/contentapi"
	"cih-portal/pkg/utils"
)

// Converter 把内容API记录转换成页面使用的文章
type Converter struct {
	assetBase string
	fallback  string
	loc       *time.Location
}

// NewConverter 创建转换器；assetBase 用于补全相对封面路径
func NewConverter(assetBase, fallbackImage string, loc *time.Location) *Converter {
	if loc == nil {
		loc = time.UTC
	}
	return &Converter{
		assetBase: strings.TrimRight(assetBase, "/"),
		fallback:  fallbackImage,
		loc:       loc,
	}
}

// PostFromRecord 单条转换
func (c *Converter) PostFromRecord(rec contentapi.PostRecord) model.Post {
	post := model.Post{
		ID:            string(rec.ID),
		Slug:          rec.Slug,
		Title:         rec.Title,
		Excerpt:       rec.Excerpt,
		Body:          rec.Body,
		Category:      strings.TrimSpace(rec.Category),
		CoverImage:    c.CoverURL(rec.CoverImage),
		AuthorName:    strings.TrimSpace(rec.AuthorName),
		Status:        string(rec.Status),
		VideoURL:      rec.VideoURL,
		CategoryLabel: model.DefaultCategory,
	}
	if post.Category != "" {
		post.CategoryLabel = post.Category
	}
	if post.AuthorName == "" {
		post.AuthorName = model.DefaultAuthor
	}

	if t, err := utils.ParseTimestamp(rec.PublishedAt, c.loc); err == nil {
		post.PublishedAt = &t
	}
	if t, err := utils.ParseTimestamp(rec.CreatedAt, c.loc); err == nil {
		post.CreatedAt = t
	}
	if ts := post.EffectiveTime(); !ts.IsZero() {
		post.DisplayDate = utils.SpanishLongDate(ts, c.loc)
	}
	return post
}

// PostsFromRecords 批量转换，保持顺序
func (c *Converter) PostsFromRecords(records []contentapi.PostRecord) []model.Post {
	posts := make([]model.Post, 0, len(records))
	for _, rec := range records {
		posts = append(posts, c.PostFromRecord(rec))
	}
	return posts
}

// CoverURL 绝对地址原样返回，相对路径补全为资源地址，空值使用占位图
func (c *Converter) CoverURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return c.fallback
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"), strings.HasPrefix(raw, "//"):
		return raw
	case c.assetBase == "":
		return raw
	default:
		return c.assetBase + "/" + strings.TrimLeft(raw, "/")
	}
}
