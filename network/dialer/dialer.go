package dialer

import "github.com/favbox/libcom/network/socket"

// 全局默认连接器。
var defaultConnector *socket.Connector

// SetConnector 设置全局默认连接器。
// Deprecated: 此函数仅用于测试，请使用 socket.NewConnector 创建独立的连接器。
func SetConnector(c *socket.Connector) {
	defaultConnector = c
}

// DefaultConnector 返回全局连接器。
func DefaultConnector() *socket.Connector {
	return defaultConnector
}

// ConnectStream 用全局连接器：连接 host:service 的流式服务。
func ConnectStream(host, service string) (*socket.Endpoint, error) {
	return defaultConnector.ConnectStream(host, service)
}

// ConnectDgram 用全局连接器：创建已连接到 host:service 的数据报端点。
func ConnectDgram(host, service string) (*socket.Endpoint, error) {
	return defaultConnector.ConnectDgram(host, service)
}

// BindStream 用全局连接器：在 service 端口上监听流式连接。
func BindStream(service string) (*socket.Endpoint, error) {
	return defaultConnector.BindStream(service)
}

// BindDgram 用全局连接器：在 service 端口上绑定数据报端点。
func BindDgram(service string) (*socket.Endpoint, error) {
	return defaultConnector.BindDgram(service)
}

// PeerInfo 用全局连接器：查询端点对端的主机名和端口。
func PeerInfo(ep *socket.Endpoint) (host, service string, err error) {
	return defaultConnector.PeerInfo(ep)
}
