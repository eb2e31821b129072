package config

import (
	"time"

	"github.com/favbox/libcom/network"
)

const (
	defaultBacklog       = 12
	defaultConnectFamily = network.FamilyUnspec
	defaultBindFamily    = network.FamilyIPv4
)

// Option 是用于配置 Options 唯一结构体。
type Option struct {
	F func(o *Options)
}

// Options 是连接器的配置项。
type Options struct {
	// ConnectFamily 是建立连接时解析的地址族，默认不限，IPv4 和 IPv6 均会尝试。
	ConnectFamily network.Family

	// BindFamily 是绑定时解析的地址族，默认 IPv4。
	BindFamily network.Family

	// Backlog 是流式套接字的监听队列长度，默认 12。
	Backlog int

	// ReuseAddr 是否为流式监听套接字开启 SO_REUSEADDR，默认开启。
	ReuseAddr bool

	// DialTimeout 是单个候选地址的连接超时，默认 0，即阻塞直至内核给出结果。
	DialTimeout time.Duration

	// ResolveTimeout 是名称解析的超时，默认 0，即不限时。
	ResolveTimeout time.Duration

	// Resolver 是名称解析器，默认使用系统解析器。
	Resolver network.Resolver

	// NameRequired 为真时，查询对端信息找不到主机名即视为失败；默认回退为数字地址。
	NameRequired bool

	// OnAttempt 在每次尝试候选地址后同步调用，可选。
	OnAttempt network.AttemptHook
}

// Apply 将指定的一组配置方法 opts 应用到配置项上。
func (o *Options) Apply(opts []Option) {
	for _, opt := range opts {
		opt.F(o)
	}
}

// NewOptions 创建基于给定配置函数的配置项。
func NewOptions(opts []Option) *Options {
	options := &Options{
		ConnectFamily: defaultConnectFamily,
		BindFamily:    defaultBindFamily,
		Backlog:       defaultBacklog,
		ReuseAddr:     true,
		Resolver:      network.SystemResolver(),
	}
	options.Apply(opts)
	return options
}
