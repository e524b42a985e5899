package mcproto

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ============================================================================
//                              Chat
// ============================================================================

// Chat 文本组件（只使用 text 字段，颜色用 § 格式码表达）
type Chat struct {
	Text  string `json:"text"`
	Extra []Chat `json:"extra,omitempty"`
}

// Text 构造纯文本组件
func Text(s string) Chat {
	return Chat{Text: s}
}

// JSON 编码为字符串
func (c Chat) JSON() (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// String 拼接 text 与 extra 的纯文本
func (c Chat) String() string {
	if len(c.Extra) == 0 {
		return c.Text
	}
	var b bytes.Buffer
	b.WriteString(c.Text)
	for _, e := range c.Extra {
		b.WriteString(e.String())
	}
	return b.String()
}

// UnmarshalJSON 同时接受字符串与对象两种形式
func (c *Chat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Chat{Text: s}
		return nil
	}

	type plain Chat
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Chat(p)
	return nil
}

// ============================================================================
//                              Status
// ============================================================================

// Version 版本信息
type Version struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

// PlayerSample 玩家列表样本
type PlayerSample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Players 玩家信息
type Players struct {
	Max    int            `json:"max"`
	Online int            `json:"online"`
	Sample []PlayerSample `json:"sample,omitempty"`
}

// Status 状态响应 JSON
type Status struct {
	Version     Version `json:"version"`
	Players     Players `json:"players"`
	Description Chat    `json:"description"`

	// Favicon data URI；为空时整个字段省略
	Favicon string `json:"favicon,omitempty"`
}

// JSON 编码为字符串
func (s Status) JSON() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("encode status: %w", err)
	}
	return string(data), nil
}

// ParseStatus 解析状态 JSON
func ParseStatus(data []byte) (Status, error) {
	var s Status
	if err := json.Unmarshal(data, &s); err != nil {
		return Status{}, fmt.Errorf("%w: status json: %v", ErrMalformedPacket, err)
	}
	return s, nil
}
