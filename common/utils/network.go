package utils

import (
	"net"
	"sync"
)

// UnknownIPAddr 表示无法确定本机地址。
const UnknownIPAddr = "-"

var (
	localIP     string
	localIPOnce sync.Once
)

// LocalIP 返回本机首个处于启用状态的非回环地址，找不到时返回 UnknownIPAddr。
//
// 结果在首次调用时确定并缓存。
func LocalIP() string {
	localIPOnce.Do(func() {
		localIP = firstNonLoopback()
	})
	return localIP
}

func firstNonLoopback() string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return UnknownIPAddr
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok && !ipNet.IP.IsLoopback() && ipNet.IP.To4() != nil {
				return ipNet.IP.String()
			}
		}
	}
	return UnknownIPAddr
}
