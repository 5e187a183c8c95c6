package service

import (
	"slices"
	"time"

	"cih-portal/apps/web-service/model"
	"cih-portal/pkg/utils"
)

// 以下函数只读取已加载的集合，不访问网络，也不修改入参。

// FilterByCategory 按分类筛选；AllCategories 或空值返回原集合
func FilterByCategory(items []model.Post, category string) []model.Post {
	if category == "" || category == model.AllCategories {
		return items
	}
	out := make([]model.Post, 0, len(items))
	for _, p := range items {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out
}

// Recent 按生效时间倒序取前 limit 篇，时间相同保持原顺序
func Recent(items []model.Post, limit int) []model.Post {
	if limit <= 0 {
		return []model.Post{}
	}
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b model.Post) int {
		return b.EffectiveTime().Compare(a.EffectiveTime())
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	if sorted == nil {
		sorted = []model.Post{}
	}
	return sorted
}

// RecentExcluding 去掉 excludeID 后的 Recent
func RecentExcluding(items []model.Post, excludeID string, limit int) []model.Post {
	rest := make([]model.Post, 0, len(items))
	for _, p := range items {
		if p.ID != excludeID {
			rest = append(rest, p)
		}
	}
	return Recent(rest, limit)
}

// DistinctCategories 非空分类，按首次出现排序
func DistinctCategories(items []model.Post) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0)
	for _, p := range items {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// DistinctArchiveLabels "月份 年份" 归档标签，按首次出现排序；没有时间的文章跳过
func DistinctArchiveLabels(items []model.Post, loc *time.Location) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0)
	for _, p := range items {
		ts := p.EffectiveTime()
		if ts.IsZero() {
			continue
		}
		label := utils.SpanishMonthYear(ts, loc)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}
