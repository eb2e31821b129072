//go:build (linux || darwin) && (amd64 || arm64) && !stdjson

package json

import "github.com/bytedance/sonic"

// Name 是当前使用的 JSON 实现。
const Name = "sonic"

var (
	api = sonic.ConfigStd
	// Marshal 编码为 JSON。
	Marshal = api.Marshal
	// Unmarshal 解码 JSON。
	Unmarshal = api.Unmarshal
	// MarshalIndent 编码为带缩进的 JSON。
	MarshalIndent = api.MarshalIndent
	// NewEncoder 创建写入 io.Writer 的编码器。
	NewEncoder = api.NewEncoder
)
