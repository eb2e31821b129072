package utils

import (
	"net"
	"net/netip"
	"strconv"

	"golang.org/x/sys/unix"
)

var _ net.Addr = (*NetAddr)(nil)

// NetAddr 实现 net.Addr 接口，用于无法映射为 TCP/UDP 地址的套接字地址。
type NetAddr struct {
	network string
	address string
}

// NewNetAddr 创建给定网络和地址的 NetAddr 对象。
func NewNetAddr(network, address string) net.Addr {
	return &NetAddr{
		network: network,
		address: address,
	}
}

func (na *NetAddr) Network() string {
	return na.network
}

func (na *NetAddr) String() string {
	return na.address
}

// SockaddrToAddr 将套接字地址转为 net.Addr。network 为 "tcp" 或 "udp"。
func SockaddrToAddr(network string, sa unix.Sockaddr) net.Addr {
	ip, port, zone, ok := SockaddrIP(sa)
	if !ok {
		if u, isUnix := sa.(*unix.SockaddrUnix); isUnix {
			return NewNetAddr("unix", u.Name)
		}
		return nil
	}
	if network == "udp" {
		return &net.UDPAddr{IP: ip, Port: port, Zone: zone}
	}
	return &net.TCPAddr{IP: ip, Port: port, Zone: zone}
}

// SockaddrIP 拆出 IPv4/IPv6 套接字地址中的 IP、端口和区域。
func SockaddrIP(sa unix.Sockaddr) (ip net.IP, port int, zone string, ok bool) {
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return net.IP(append([]byte(nil), sa.Addr[:]...)), sa.Port, "", true
	case *unix.SockaddrInet6:
		if sa.ZoneId != 0 {
			if ifi, err := net.InterfaceByIndex(int(sa.ZoneId)); err == nil {
				zone = ifi.Name
			} else {
				zone = strconv.Itoa(int(sa.ZoneId))
			}
		}
		return net.IP(append([]byte(nil), sa.Addr[:]...)), sa.Port, zone, true
	}
	return nil, 0, "", false
}

// IPToSockaddr 将 IP 和端口转为套接字地址。IPv4 映射地址按 IPv4 处理。
func IPToSockaddr(addr netip.Addr, port int) unix.Sockaddr {
	if addr.Is4() || addr.Is4In6() {
		return &unix.SockaddrInet4{Port: port, Addr: addr.Unmap().As4()}
	}
	sa := &unix.SockaddrInet6{Port: port, Addr: addr.As16()}
	if zone := addr.Zone(); zone != "" {
		if ifi, err := net.InterfaceByName(zone); err == nil {
			sa.ZoneId = uint32(ifi.Index)
		} else if n, err := strconv.Atoi(zone); err == nil {
			sa.ZoneId = uint32(n)
		}
	}
	return sa
}
