package errors

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrTimeout        = errors.New("timeout")
	ErrInterrupted    = errors.New("等待被信号中断")
	ErrEndpointClosed = errors.New("端点已关闭")
	ErrNoCandidates   = errors.New("没有可用的候选地址")
	ErrNotConnected   = errors.New("端点未连接")
	ErrNotListening   = errors.New("端点未处于监听状态")
)

type ErrorType uint64

// Error 表示一个带有错误类型和元信息的错误规范。
type Error struct {
	Err  error
	Type ErrorType
	Meta any
}

// 返回错误的消息字符串。
func (msg *Error) Error() string {
	switch meta := msg.Meta.(type) {
	case nil:
		return msg.Type.String() + ": " + msg.Err.Error()
	case ErrorChain:
		return fmt.Sprintf("%s: %s [%s]", msg.Type, msg.Err, strings.Join(meta.Errors(), "; "))
	default:
		return fmt.Sprintf("%s: %s (%v)", msg.Type, msg.Err, meta)
	}
}

func (msg *Error) JSON() any {
	jsonData := make(map[string]any)
	if msg.Meta != nil {
		value := reflect.ValueOf(msg.Meta)
		switch value.Kind() {
		case reflect.Struct:
			return msg.Meta
		case reflect.Map:
			for _, key := range value.MapKeys() {
				jsonData[key.String()] = value.MapIndex(key).Interface()
			}
		default:
			jsonData["meta"] = fmt.Sprint(msg.Meta)
		}
	}
	if _, ok := jsonData["error"]; !ok {
		jsonData["error"] = msg.Err.Error()
	}
	jsonData["type"] = msg.Type.String()
	return jsonData
}

func (msg *Error) Unwrap() error {
	return msg.Err
}

func (msg *Error) IsType(flags ErrorType) bool {
	return (msg.Type & flags) > 0
}

func (msg *Error) SetType(flags ErrorType) *Error {
	msg.Type = flags
	return msg
}

func (msg *Error) SetMeta(data any) *Error {
	msg.Meta = data
	return msg
}

const (
	// ErrorTypeResolution 名称或服务解析失败。
	ErrorTypeResolution ErrorType = 1 << iota
	// ErrorTypeConnect 所有候选地址均无法连接。
	ErrorTypeConnect
	// ErrorTypeBind 所有候选地址均无法绑定。
	ErrorTypeBind
	// ErrorTypeReuseAddr 系统拒绝开启地址复用。
	ErrorTypeReuseAddr
	// ErrorTypeListen 监听失败。
	ErrorTypeListen
	// ErrorTypeNonBlocking 无法将描述符切换为非阻塞模式。
	ErrorTypeNonBlocking
	// ErrorTypeWait 就绪等待失败，如描述符无效或超时。
	ErrorTypeWait
	// ErrorTypeSignal 就绪等待被信号中断。
	ErrorTypeSignal
	// ErrorTypeTransfer 读写调用出现了非“稍后重试”的错误。
	ErrorTypeTransfer
	// ErrorTypeLookup 对端身份反向解析失败。
	ErrorTypeLookup
	// ErrorTypeAny 表示任何其他错误。
	ErrorTypeAny
)

var typeNames = map[ErrorType]string{
	ErrorTypeResolution:  "resolution",
	ErrorTypeConnect:     "connect",
	ErrorTypeBind:        "bind",
	ErrorTypeReuseAddr:   "reuseaddr",
	ErrorTypeListen:      "listen",
	ErrorTypeNonBlocking: "nonblocking",
	ErrorTypeWait:        "wait",
	ErrorTypeSignal:      "signal",
	ErrorTypeTransfer:    "transfer",
	ErrorTypeLookup:      "lookup",
	ErrorTypeAny:         "any",
}

func (t ErrorType) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	var names []string
	for bit := ErrorTypeResolution; bit <= ErrorTypeAny; bit <<= 1 {
		if t&bit != 0 {
			names = append(names, typeNames[bit])
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("type(%d)", uint64(t))
	}
	return strings.Join(names, "|")
}

var _ error = (*Error)(nil)

// New 新建一个指定错误和错误类型及元数据的自定义错误。
func New(err error, t ErrorType, meta any) *Error {
	return &Error{
		Err:  err,
		Type: t,
		Meta: meta,
	}
}

func Newf(t ErrorType, meta any, format string, v ...any) *Error {
	return New(fmt.Errorf(format, v...), t, meta)
}

// TypeOf 返回错误链中首个 *Error 的类型，找不到则返回 0。
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return 0
}

// Is 判断错误链中是否存在指定类型的 *Error。
func Is(err error, t ErrorType) bool {
	return TypeOf(err)&t > 0
}

// ErrorChain 错误链。
type ErrorChain []*Error

func (c ErrorChain) String() string {
	if len(c) == 0 {
		return ""
	}
	var buf strings.Builder
	for i, msg := range c {
		fmt.Fprintf(&buf, "Error #%02d: %s\n", i+1, msg.Err)
		if msg.Meta != nil {
			fmt.Fprintf(&buf, "     Meta: %v\n", msg.Meta)
		}
	}
	return buf.String()
}

// Errors 返回错误的消息字符串切片。
func (c ErrorChain) Errors() []string {
	if len(c) == 0 {
		return nil
	}
	errorStrings := make([]string, len(c))
	for i, err := range c {
		errorStrings[i] = err.Error()
	}
	return errorStrings
}

// ByType 返回按指定类型过滤的错误数组。支持位或|操作。
func (c ErrorChain) ByType(t ErrorType) ErrorChain {
	if len(c) == 0 {
		return nil
	}
	if t == ErrorTypeAny {
		return c
	}
	var result ErrorChain
	for _, msg := range c {
		if msg.IsType(t) {
			result = append(result, msg)
		}
	}
	return result
}

// Last 返回错误链中最后一个错误。
func (c ErrorChain) Last() *Error {
	if length := len(c); length > 0 {
		return c[length-1]
	}
	return nil
}

func (c ErrorChain) JSON() any {
	switch length := len(c); length {
	case 0:
		return nil
	case 1:
		return c.Last().JSON()
	default:
		jsonData := make([]any, length)
		for i, err := range c {
			jsonData[i] = err.JSON()
		}
		return jsonData
	}
}
