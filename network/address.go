package network

import (
	"net"
	"strconv"

	"github.com/favbox/libcom/common/utils"
	"golang.org/x/sys/unix"
)

// Family 表示套接字地址族。
type Family int

const (
	// FamilyUnspec 不限地址族，IPv4 和 IPv6 均可。
	FamilyUnspec Family = unix.AF_UNSPEC
	// FamilyIPv4 仅 IPv4。
	FamilyIPv4 Family = unix.AF_INET
	// FamilyIPv6 仅 IPv6。
	FamilyIPv6 Family = unix.AF_INET6
)

func (f Family) String() string {
	switch f {
	case FamilyUnspec:
		return "unspec"
	case FamilyIPv4:
		return "ipv4"
	case FamilyIPv6:
		return "ipv6"
	}
	return "family(" + strconv.Itoa(int(f)) + ")"
}

// IPNetwork 返回解析器使用的网络名称："ip"、"ip4" 或 "ip6"。
func (f Family) IPNetwork() string {
	switch f {
	case FamilyIPv4:
		return "ip4"
	case FamilyIPv6:
		return "ip6"
	}
	return "ip"
}

// SockType 表示套接字类型。
type SockType int

const (
	// Stream 流式套接字（TCP）。
	Stream SockType = unix.SOCK_STREAM
	// Datagram 数据报套接字（UDP）。
	Datagram SockType = unix.SOCK_DGRAM
)

// Network 返回 "tcp" 或 "udp"。
func (t SockType) Network() string {
	if t == Datagram {
		return "udp"
	}
	return "tcp"
}

func (t SockType) String() string {
	switch t {
	case Stream:
		return "stream"
	case Datagram:
		return "dgram"
	}
	return "socktype(" + strconv.Itoa(int(t)) + ")"
}

// Protocol 返回该类型默认的 IP 协议号。
func (t SockType) Protocol() int {
	if t == Datagram {
		return unix.IPPROTO_UDP
	}
	return unix.IPPROTO_TCP
}

// Candidate 是一个可用于创建套接字的候选地址。
type Candidate struct {
	Family   Family
	SockType SockType
	Protocol int
	Sockaddr unix.Sockaddr
}

// Addr 以 net.Addr 形式返回候选地址。
func (c Candidate) Addr() net.Addr {
	return utils.SockaddrToAddr(c.SockType.Network(), c.Sockaddr)
}

func (c Candidate) String() string {
	if addr := c.Addr(); addr != nil {
		return addr.String()
	}
	return "<nil>"
}

// AttemptHook 在连接器每次尝试候选地址后被同步调用，err 为空表示尝试成功。
type AttemptHook func(c Candidate, err error)
