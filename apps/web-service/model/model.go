package model

import (
	"time"

	"cih-portal/pkg/carousel"
	"cih-portal/pkg/motion"
	"cih-portal/pkg/theme"
)

// Post 博客文章，已完成封面与显示字段的处理
type Post struct {
	ID            string     `json:"id"`
	Slug          string     `json:"slug"`
	Title         string     `json:"title"`
	Excerpt       string     `json:"excerpt"`
	Body          string     `json:"body"`
	Category      string     `json:"category,omitempty"` // 原始分类，可能为空
	CategoryLabel string     `json:"category_label"`
	CoverImage    string     `json:"cover_image"`
	AuthorName    string     `json:"author_name"`
	Status        string     `json:"status"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	DisplayDate   string     `json:"display_date"`
	VideoURL      string     `json:"video_url,omitempty"`
}

// EffectiveTime 排序用时间：优先发布时间，其次创建时间
func (p Post) EffectiveTime() time.Time {
	if p.PublishedAt != nil && !p.PublishedAt.IsZero() {
		return *p.PublishedAt
	}
	return p.CreatedAt
}

// ListView 博客列表页
type ListView struct {
	Categories       []string     `json:"categories"`
	SelectedCategory string       `json:"selected_category"`
	Posts            []Post       `json:"posts"`
	Recent           []Post       `json:"recent"`
	Archive          []string     `json:"archive"`
	Cues             []motion.Cue `json:"cues"`
}

// DetailView 文章详情页
type DetailView struct {
	Post   Post   `json:"post"`
	Recent []Post `json:"recent"`
}

// ServiceLine 服务线
type ServiceLine struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Theme       theme.Theme `json:"theme"`
	Style       theme.Style `json:"style"`
	Cue         motion.Cue  `json:"cue"`
}

// GalleryView 图库定义；导航状态属于各自的 websocket 会话
type GalleryView struct {
	Name       string           `json:"name"`
	IntervalMs int64            `json:"intervalMs"`
	Count      int              `json:"count"`
	Slides     []carousel.Slide `json:"slides"`
	Socket     string           `json:"socket"`
}
