package socket

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/favbox/libcom/common/config"
	errs "github.com/favbox/libcom/common/errors"
	"github.com/favbox/libcom/common/wlog"
	"github.com/favbox/libcom/network"
	"golang.org/x/sys/unix"
)

// Connector 负责将主机和服务解析为候选地址，并逐个尝试直至建立可用的端点。
//
// Connector 创建后只读，可被多个协程共享。
type Connector struct {
	opts *config.Options
}

// NewConnector 创建一个使用给定配置的连接器。
func NewConnector(opts ...config.Option) *Connector {
	return &Connector{opts: config.NewOptions(opts)}
}

// Options 返回连接器的配置项。
func (c *Connector) Options() *config.Options {
	return c.opts
}

// ConnectStream 连接到 host:service 的流式服务。
func (c *Connector) ConnectStream(host, service string) (*Endpoint, error) {
	return c.connect(host, service, network.Stream)
}

// ConnectDgram 创建一个已连接到 host:service 的数据报端点。
func (c *Connector) ConnectDgram(host, service string) (*Endpoint, error) {
	return c.connect(host, service, network.Datagram)
}

// BindStream 在本机所有地址的 service 端口上监听流式连接。
func (c *Connector) BindStream(service string) (*Endpoint, error) {
	return c.bind(service, network.Stream)
}

// BindDgram 在本机所有地址的 service 端口上绑定数据报端点。
func (c *Connector) BindDgram(service string) (*Endpoint, error) {
	return c.bind(service, network.Datagram)
}

func (c *Connector) resolve(host, service string, hints network.Hints) ([]network.Candidate, error) {
	ctx, cancel := c.lookupContext()
	defer cancel()
	return network.Resolve(ctx, c.opts.Resolver, host, service, hints)
}

func (c *Connector) lookupContext() (context.Context, context.CancelFunc) {
	if c.opts.ResolveTimeout > 0 {
		return context.WithTimeout(context.Background(), c.opts.ResolveTimeout)
	}
	return context.WithCancel(context.Background())
}

func (c *Connector) connect(host, service string, sotype network.SockType) (*Endpoint, error) {
	candidates, err := c.resolve(host, service, network.Hints{
		Family:   c.opts.ConnectFamily,
		SockType: sotype,
	})
	if err != nil {
		return nil, err
	}

	var failures errs.ErrorChain
	for _, cand := range candidates {
		fd, err := c.dialCandidate(cand)
		c.report(cand, err)
		if err != nil {
			if errs.Is(err, errs.ErrorTypeNonBlocking) {
				return nil, err
			}
			failures = append(failures, errs.New(err, errs.ErrorTypeConnect, cand.String()))
			continue
		}
		return newEndpoint(fd, cand.Family, sotype, false)
	}

	address := net.JoinHostPort(host, service)
	return nil, errs.New(fmt.Errorf("无法连接 %s: %w", address, failures.Last().Err), errs.ErrorTypeConnect, failures)
}

// dialCandidate 创建套接字并连接到候选地址，失败时套接字已关闭。
func (c *Connector) dialCandidate(cand network.Candidate) (int, error) {
	fd, err := sysSocket(int(cand.Family), int(cand.SockType), cand.Protocol)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}

	// 设置了连接超时时先切换为非阻塞，连接结果由就绪等待取得。
	if c.opts.DialTimeout > 0 {
		if err = setNonblock(fd, true); err != nil {
			_ = closeFD(fd)
			return -1, errs.New(os.NewSyscallError("fcntl", err), errs.ErrorTypeNonBlocking, fdMeta(fd))
		}
	}

	switch err = unix.Connect(fd, cand.Sockaddr); err {
	case nil:
	case unix.EINPROGRESS, unix.EALREADY, unix.EINTR:
		err = awaitConnect(fd, c.opts.DialTimeout)
	default:
		err = os.NewSyscallError("connect", err)
	}
	if err != nil {
		_ = closeFD(fd)
		return -1, err
	}
	return fd, nil
}

// awaitConnect 等待进行中的连接完成，timeout 不大于 0 时无限等待。
func awaitConnect(fd int, timeout time.Duration) error {
	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		wait := Forever
		if !deadline.IsZero() {
			if wait = time.Until(deadline); wait <= 0 {
				return fmt.Errorf("connect: %w", errs.ErrTimeout)
			}
		}

		ready, err := waitReady(fd, unix.POLLOUT, wait)
		if err != nil {
			// 连接仍在内核中进行，信号中断后继续等待。
			if errs.Is(err, errs.ErrorTypeSignal) {
				continue
			}
			return err
		}
		if !ready {
			return fmt.Errorf("connect: %w", errs.ErrTimeout)
		}

		soerr, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
		if err != nil {
			return os.NewSyscallError("getsockopt", err)
		}
		switch e := unix.Errno(soerr); e {
		case 0, unix.EISCONN:
			return nil
		case unix.EINPROGRESS, unix.EALREADY, unix.EINTR:
		default:
			return os.NewSyscallError("connect", e)
		}
	}
}

func (c *Connector) bind(service string, sotype network.SockType) (*Endpoint, error) {
	candidates, err := c.resolve("", service, network.Hints{
		Family:   c.opts.BindFamily,
		SockType: sotype,
		Passive:  true,
	})
	if err != nil {
		return nil, err
	}

	var failures errs.ErrorChain
	for _, cand := range candidates {
		fd, err := sysSocket(int(cand.Family), int(cand.SockType), cand.Protocol)
		if err != nil {
			err = os.NewSyscallError("socket", err)
			c.report(cand, err)
			failures = append(failures, errs.New(err, errs.ErrorTypeBind, cand.String()))
			continue
		}

		// SO_REUSEADDR 只在 bind 之前设置才生效。
		if sotype == network.Stream && c.opts.ReuseAddr {
			if err = setReuseAddr(fd); err != nil {
				_ = closeFD(fd)
				e := errs.New(os.NewSyscallError("setsockopt", err), errs.ErrorTypeReuseAddr, cand.String())
				c.report(cand, e)
				return nil, e
			}
		}

		if err = unix.Bind(fd, cand.Sockaddr); err != nil {
			_ = closeFD(fd)
			err = os.NewSyscallError("bind", err)
			c.report(cand, err)
			failures = append(failures, errs.New(err, errs.ErrorTypeBind, cand.String()))
			continue
		}

		listening := false
		if sotype == network.Stream {
			if err = listenFD(fd, c.opts.Backlog); err != nil {
				_ = closeFD(fd)
				e := errs.New(os.NewSyscallError("listen", err), errs.ErrorTypeListen, cand.String())
				c.report(cand, e)
				return nil, e
			}
			listening = true
		}

		c.report(cand, nil)
		return newEndpoint(fd, cand.Family, sotype, listening)
	}

	return nil, errs.New(fmt.Errorf("无法绑定端口 %s: %w", service, failures.Last().Err), errs.ErrorTypeBind, failures)
}

// report 记录一次候选地址尝试，并通知尝试钩子。
func (c *Connector) report(cand network.Candidate, err error) {
	if err != nil {
		wlog.SystemLogger().Debugf("%s %s 尝试失败：%v", cand.SockType, cand, err)
	} else {
		wlog.SystemLogger().Debugf("%s %s 尝试成功", cand.SockType, cand)
	}
	if c.opts.OnAttempt != nil {
		c.opts.OnAttempt(cand, err)
	}
}
