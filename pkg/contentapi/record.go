package contentapi

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Status 文章发布状态
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// ID 文章标识，服务端可能返回数字或字符串
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("post id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// PostRecord 内容API返回的文章，时间字段保持原始字符串
type PostRecord struct {
	ID          ID     `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Excerpt     string `json:"excerpt"`
	Body        string `json:"body"`
	Category    string `json:"category"`
	CoverImage  string `json:"cover_image"`
	AuthorName  string `json:"author_name"`
	Status      Status `json:"status"`
	PublishedAt string `json:"published_at"`
	CreatedAt   string `json:"created_at"`
	VideoURL    string `json:"video_url"`
}

// envelope 服务端的 {success, data, message} 信封
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// decodeCollection 规范化响应体：
// 裸数组直接使用；信封取 data，data 不是数组时视为空集合；
// 没有信封字段的裸对象以及 null 同样视为空集合。
func decodeCollection(body []byte) ([]PostRecord, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return []PostRecord{}, nil
	}

	switch body[0] {
	case '[':
		return decodeArray(body)
	case '{':
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, &APIError{Kind: KindDecode, Err: err}
		}
		if env.Success != nil && !*env.Success {
			return nil, &APIError{Kind: KindRejected, Message: env.Message}
		}
		data := bytes.TrimSpace(env.Data)
		if len(data) > 0 && data[0] == '[' {
			return decodeArray(data)
		}
		return []PostRecord{}, nil
	default:
		if !json.Valid(body) {
			return nil, &APIError{Kind: KindDecode, Err: fmt.Errorf("invalid JSON body")}
		}
		return []PostRecord{}, nil
	}
}

func decodeArray(b []byte) ([]PostRecord, error) {
	var records []PostRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, &APIError{Kind: KindDecode, Err: err}
	}
	if records == nil {
		records = []PostRecord{}
	}
	return records, nil
}

// peekMessage 从错误响应中取出 message
func peekMessage(body []byte) (string, bool) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil || env.Message == "" {
		return "", false
	}
	return env.Message, true
}
