package socket

import (
	"time"

	"github.com/favbox/libcom/common/config"
	"github.com/favbox/libcom/network"
)

// WithFamily 同时设置连接和绑定时解析的地址族。
func WithFamily(f network.Family) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.ConnectFamily = f
		o.BindFamily = f
	}}
}

// WithConnectFamily 设置连接时解析的地址族。默认值：不限。
func WithConnectFamily(f network.Family) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.ConnectFamily = f
	}}
}

// WithBindFamily 设置绑定时解析的地址族。默认值：IPv4。
func WithBindFamily(f network.Family) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.BindFamily = f
	}}
}

// WithBacklog 设置流式监听队列长度。默认值：12。
func WithBacklog(n int) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.Backlog = n
	}}
}

// WithReuseAddr 设置是否为流式监听套接字开启 SO_REUSEADDR。默认值：开启。
func WithReuseAddr(b bool) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.ReuseAddr = b
	}}
}

// WithDialTimeout 设置单个候选地址的连接超时。默认值：0，不限时。
//
// 超时的候选地址计入失败，继续尝试下一个。
func WithDialTimeout(t time.Duration) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.DialTimeout = t
	}}
}

// WithResolveTimeout 设置名称解析超时。默认值：0，不限时。
func WithResolveTimeout(t time.Duration) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.ResolveTimeout = t
	}}
}

// WithResolver 设置名称解析器。默认值：系统解析器。
func WithResolver(r network.Resolver) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.Resolver = r
	}}
}

// WithNameRequired 设置查询对端信息时是否必须得到主机名。
func WithNameRequired(b bool) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.NameRequired = b
	}}
}

// WithAttemptHook 设置候选地址尝试钩子，每次尝试后同步调用。
func WithAttemptHook(h network.AttemptHook) config.Option {
	return config.Option{F: func(o *config.Options) {
		o.OnAttempt = h
	}}
}
