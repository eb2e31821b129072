//go:build unix

package dialer

import "github.com/favbox/libcom/network/socket"

func init() {
	// 默认连接器使用系统解析器：连接不限地址族，绑定仅 IPv4。
	defaultConnector = socket.NewConnector()
}
