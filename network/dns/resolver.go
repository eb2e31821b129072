// Package dns 提供直接查询 DNS 服务器的名称解析器。
//
// 与系统解析器不同，它绕过 /etc/hosts 和 nsswitch，只向配置的服务器发出
// A、AAAA 和 PTR 查询，适合需要指定服务器或在测试中替换解析结果的场景。
package dns

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/favbox/libcom/common/wlog"
	"github.com/favbox/libcom/network"
	mdns "github.com/miekg/dns"
	"golang.org/x/sync/singleflight"
)

const defaultTimeout = 5 * time.Second

var (
	errNotFound = errors.New("no such host")
	errNoServer = errors.New("未配置 DNS 服务器")
)

var _ network.Resolver = (*Resolver)(nil)

// Resolver 直接向 DNS 服务器查询地址和反向名称。
//
// 同一时刻对相同问题的并发查询会合并为一次网络请求。Resolver 可被多个协程共享。
type Resolver struct {
	servers []string
	udp     *mdns.Client
	tcp     *mdns.Client
	sfg     singleflight.Group
}

// NewResolver 创建一个向 servers 查询的解析器，每次查询超时为 timeout。
//
// servers 中未带端口的地址使用 53 端口；timeout 不大于 0 时使用 5 秒。
func NewResolver(servers []string, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	addrs := make([]string, 0, len(servers))
	for _, s := range servers {
		if _, _, err := net.SplitHostPort(s); err != nil {
			s = net.JoinHostPort(s, "53")
		}
		addrs = append(addrs, s)
	}
	return &Resolver{
		servers: addrs,
		udp:     &mdns.Client{Net: "udp", Timeout: timeout},
		tcp:     &mdns.Client{Net: "tcp", Timeout: timeout},
	}
}

// FromResolvConf 按 resolv.conf 格式的文件创建解析器。
func FromResolvConf(path string) (*Resolver, error) {
	conf, err := mdns.ClientConfigFromFile(path)
	if err != nil {
		return nil, err
	}
	servers := make([]string, 0, len(conf.Servers))
	for _, s := range conf.Servers {
		servers = append(servers, net.JoinHostPort(s, conf.Port))
	}
	return NewResolver(servers, time.Duration(conf.Timeout)*time.Second), nil
}

// Servers 返回查询的服务器地址。
func (r *Resolver) Servers() []string {
	return r.servers
}

// LookupIP 查询主机的地址，network 为 "ip" 时先返回 A 记录再返回 AAAA 记录。
func (r *Resolver) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	if addr, err := netip.ParseAddr(host); err == nil {
		return []net.IP{net.IP(addr.AsSlice())}, nil
	}

	var qtypes []uint16
	switch network {
	case "ip4":
		qtypes = []uint16{mdns.TypeA}
	case "ip6":
		qtypes = []uint16{mdns.TypeAAAA}
	case "ip":
		qtypes = []uint16{mdns.TypeA, mdns.TypeAAAA}
	default:
		return nil, net.UnknownNetworkError(network)
	}

	var ips []net.IP
	var lastErr error
	for _, qtype := range qtypes {
		answers, err := r.query(ctx, mdns.Fqdn(host), qtype)
		if err != nil {
			lastErr = err
			continue
		}
		for _, rr := range answers {
			switch rr := rr.(type) {
			case *mdns.A:
				ips = append(ips, rr.A)
			case *mdns.AAAA:
				ips = append(ips, rr.AAAA)
			}
		}
	}
	if len(ips) == 0 {
		if lastErr == nil {
			lastErr = errNotFound
		}
		return nil, r.dnsError(host, lastErr)
	}
	return ips, nil
}

// LookupPort 解析端口，非数字的服务名查询系统服务数据库。
func (r *Resolver) LookupPort(ctx context.Context, network, service string) (int, error) {
	if port, err := strconv.Atoi(service); err == nil {
		if port < 0 || port > 0xFFFF {
			return 0, &net.DNSError{Err: "invalid port", Name: service}
		}
		return port, nil
	}
	return net.DefaultResolver.LookupPort(ctx, network, service)
}

// LookupAddr 反向查询地址对应的主机名，返回的名称保留末尾的点。
func (r *Resolver) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	ip, err := netip.ParseAddr(addr)
	if err != nil {
		return nil, &net.DNSError{Err: "unrecognized address", Name: addr}
	}
	arpa, err := mdns.ReverseAddr(ip.WithZone("").String())
	if err != nil {
		return nil, &net.DNSError{Err: err.Error(), Name: addr}
	}

	answers, err := r.query(ctx, arpa, mdns.TypePTR)
	if err != nil {
		return nil, r.dnsError(addr, err)
	}
	var names []string
	for _, rr := range answers {
		if ptr, ok := rr.(*mdns.PTR); ok {
			names = append(names, ptr.Ptr)
		}
	}
	if len(names) == 0 {
		return nil, r.dnsError(addr, errNotFound)
	}
	return names, nil
}

func (r *Resolver) query(ctx context.Context, name string, qtype uint16) ([]mdns.RR, error) {
	v, err, _ := r.sfg.Do(key(name, qtype), func() (any, error) {
		return r.exchange(ctx, name, qtype)
	})
	if err != nil {
		return nil, err
	}
	return v.([]mdns.RR), nil
}

// exchange 依次向各服务器查询，首个给出确定答复的服务器为准。
func (r *Resolver) exchange(ctx context.Context, name string, qtype uint16) ([]mdns.RR, error) {
	m := new(mdns.Msg)
	m.SetQuestion(name, qtype)
	m.RecursionDesired = true

	lastErr := errNoServer
	for _, server := range r.servers {
		resp, _, err := r.udp.ExchangeContext(ctx, m, server)
		if err == nil && resp.Truncated {
			wlog.SystemLogger().Debugf("%s %s 应答被截断，改用 TCP 重试", server, key(name, qtype))
			resp, _, err = r.tcp.ExchangeContext(ctx, m, server)
		}
		if err != nil {
			lastErr = err
			continue
		}
		switch resp.Rcode {
		case mdns.RcodeSuccess:
			return resp.Answer, nil
		case mdns.RcodeNameError:
			return nil, errNotFound
		default:
			lastErr = fmt.Errorf("%s 返回 %s", server, mdns.RcodeToString[resp.Rcode])
		}
	}
	return nil, lastErr
}

func (r *Resolver) dnsError(name string, err error) error {
	dnsErr := &net.DNSError{
		Err:        err.Error(),
		Name:       name,
		IsNotFound: errors.Is(err, errNotFound),
	}
	if len(r.servers) > 0 {
		dnsErr.Server = strings.Join(r.servers, ",")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		dnsErr.IsTimeout = true
	}
	return dnsErr
}

func key(name string, qtype uint16) string {
	return name + "/" + mdns.TypeToString[qtype]
}
