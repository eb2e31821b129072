package network

import (
	"context"
	"net"
	"net/netip"

	errs "github.com/favbox/libcom/common/errors"
	"github.com/favbox/libcom/common/utils"
)

// Resolver 定义名称服务接口，*net.Resolver 天然满足该接口。
type Resolver interface {
	// LookupIP 解析主机的 IP 地址，network 为 "ip"、"ip4" 或 "ip6"。
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
	// LookupPort 解析服务名或数字端口，network 为 "tcp" 或 "udp"。
	LookupPort(ctx context.Context, network, service string) (int, error)
	// LookupAddr 反向解析地址对应的主机名。
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

var _ Resolver = (*net.Resolver)(nil)

// SystemResolver 返回系统默认的名称解析器。
func SystemResolver() Resolver {
	return net.DefaultResolver
}

// Hints 约束解析结果。
type Hints struct {
	// Family 限定地址族，FamilyUnspec 表示不限。
	Family Family
	// SockType 决定候选地址的套接字类型和协议。
	SockType SockType
	// Passive 为真且主机为空时，返回通配地址（用于绑定）；否则返回回环地址。
	Passive bool
}

// Resolve 将 (host, service) 解析为按解析器顺序排列的候选地址。
//
// host 可以为空，此时按 hints.Passive 返回通配地址或回环地址；
// service 为空等同于端口 0。失败时返回 ErrorTypeResolution 类型的错误。
func Resolve(ctx context.Context, r Resolver, host, service string, hints Hints) ([]Candidate, error) {
	if r == nil {
		r = SystemResolver()
	}
	if hints.SockType == 0 {
		hints.SockType = Stream
	}

	port := 0
	if service != "" {
		p, err := r.LookupPort(ctx, hints.SockType.Network(), service)
		if err != nil {
			return nil, errs.New(err, errs.ErrorTypeResolution, map[string]any{"service": service})
		}
		port = p
	}

	addrs, err := lookupAddrs(ctx, r, host, hints)
	if err != nil {
		return nil, errs.New(err, errs.ErrorTypeResolution, map[string]any{"host": host})
	}

	candidates := make([]Candidate, 0, len(addrs))
	for _, addr := range addrs {
		family := FamilyIPv6
		if addr.Is4() || addr.Is4In6() {
			family = FamilyIPv4
		}
		if hints.Family != FamilyUnspec && hints.Family != family {
			continue
		}
		candidates = append(candidates, Candidate{
			Family:   family,
			SockType: hints.SockType,
			Protocol: hints.SockType.Protocol(),
			Sockaddr: utils.IPToSockaddr(addr, port),
		})
	}
	if len(candidates) == 0 {
		return nil, errs.New(errs.ErrNoCandidates, errs.ErrorTypeResolution, map[string]any{
			"host":   host,
			"family": hints.Family.String(),
		})
	}
	return candidates, nil
}

func lookupAddrs(ctx context.Context, r Resolver, host string, hints Hints) ([]netip.Addr, error) {
	if host == "" {
		if hints.Passive {
			return []netip.Addr{netip.IPv6Unspecified(), netip.IPv4Unspecified()}, nil
		}
		return []netip.Addr{netip.IPv6Loopback(), netip.AddrFrom4([4]byte{127, 0, 0, 1})}, nil
	}

	// 数字地址不经过名称服务，区域标识如 fe80::1%eth0 一并保留。
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr}, nil
	}

	ips, err := r.LookupIP(ctx, hints.Family.IPNetwork(), host)
	if err != nil {
		return nil, err
	}
	addrs := make([]netip.Addr, 0, len(ips))
	for _, ip := range ips {
		if addr, ok := netip.AddrFromSlice(ip); ok {
			addrs = append(addrs, addr.Unmap())
		}
	}
	return addrs, nil
}
