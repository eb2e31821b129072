//go:build stdjson || !((linux || darwin) && (amd64 || arm64))

package json

import "encoding/json"

// Name 是当前使用的 JSON 实现。
const Name = "encoding/json"

var (
	// Marshal 编码为 JSON。
	Marshal = json.Marshal
	// Unmarshal 解码 JSON。
	Unmarshal = json.Unmarshal
	// MarshalIndent 编码为带缩进的 JSON。
	MarshalIndent = json.MarshalIndent
	// NewEncoder 创建写入 io.Writer 的编码器。
	NewEncoder = json.NewEncoder
)
