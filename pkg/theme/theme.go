// Package theme 服务线等卡片使用的封闭主题集合。
package theme

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Theme 视觉主题
type Theme int

const (
	Blue Theme = iota + 1
	Green
	Purple
	Orange
	Cyan
	Pink
)

var names = map[Theme]string{
	Blue:   "blue",
	Green:  "green",
	Purple: "purple",
	Orange: "orange",
	Cyan:   "cyan",
	Pink:   "pink",
}

// Style 主题对应的固定样式类
type Style struct {
	Background      string `json:"bg"`
	Border          string `json:"border"`
	Text            string `json:"text"`
	BackgroundLight string `json:"bgLight"`
	Hover           string `json:"hover"`
}

// All 全部主题，按声明顺序
func All() []Theme {
	return []Theme{Blue, Green, Purple, Orange, Cyan, Pink}
}

// Parse 解析主题名称，未知名称返回错误
func Parse(name string) (Theme, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for t, n := range names {
		if n == key {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown theme %q", name)
}

// MustParse 用于静态数据
func MustParse(name string) Theme {
	t, err := Parse(name)
	if err != nil {
		panic(err)
	}
	return t
}

// Valid 是否是已知主题
func (t Theme) Valid() bool {
	_, ok := names[t]
	return ok
}

func (t Theme) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("Theme(%d)", int(t))
}

// Style 返回主题的样式描述
func (t Theme) Style() Style {
	n, ok := names[t]
	if !ok {
		return Style{}
	}
	return Style{
		Background:      "bg-" + n + "-600",
		Border:          "border-" + n + "-600/40",
		Text:            "text-" + n + "-600",
		BackgroundLight: "bg-" + n + "-50",
		Hover:           "hover:border-" + n + "-300",
	}
}

func (t Theme) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("marshal invalid theme %d", int(t))
	}
	return json.Marshal(t.String())
}

func (t *Theme) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
