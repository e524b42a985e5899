// Package icon 加载服务器列表图标
//
// 图标在启动时读取一次，之后只读共享。文件不存在不是错误。
package icon

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"io/fs"
	"os"

	"github.com/dep2p/go-wakegate/internal/util/logger"
)

var log = logger.Logger("icon")

// Size 客户端期望的边长（像素）
const Size = 64

// dataURIPrefix favicon 字段前缀
const dataURIPrefix = "data:image/png;base64,"

// ErrNotPNG 文件不是 PNG
var ErrNotPNG = errors.New("icon: not a png image")

// ServerIcon 不可变图标
type ServerIcon struct {
	data    []byte
	dataURI string
	width   int
	height  int
}

// Parse 解析 PNG 数据
func Parse(data []byte) (*ServerIcon, error) {
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotPNG, err)
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	return &ServerIcon{
		data:    buf,
		dataURI: dataURIPrefix + base64.StdEncoding.EncodeToString(data),
		width:   cfg.Width,
		height:  cfg.Height,
	}, nil
}

// LoadFile 读取并解析图标文件
func LoadFile(path string) (*ServerIcon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Load 加载图标；任何失败都返回 nil（不带图标）
func Load(path string) *ServerIcon {
	if path == "" {
		return nil
	}

	ic, err := LoadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Info("未找到服务器图标", "path", path)
		return nil
	case err != nil:
		log.Warn("服务器图标不可用", "path", path, "err", err)
		return nil
	}

	if w, h := ic.Dimensions(); w != Size || h != Size {
		log.Warn("服务器图标尺寸不是 64x64，客户端可能无法显示",
			"path", path,
			"width", w,
			"height", h)
	}
	log.Info("已加载服务器图标", "path", path, "bytes", len(ic.data))
	return ic
}

// DataURI 返回 favicon 字段值；nil 时返回空串
func (i *ServerIcon) DataURI() string {
	if i == nil {
		return ""
	}
	return i.dataURI
}

// Dimensions 返回宽高
func (i *ServerIcon) Dimensions() (int, int) {
	if i == nil {
		return 0, 0
	}
	return i.width, i.height
}
