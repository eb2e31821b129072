package socket

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	errs "github.com/favbox/libcom/common/errors"
	"github.com/favbox/libcom/common/utils"
	"golang.org/x/sys/unix"
)

// Close 先双向关闭连接再释放描述符。
//
// 监听和数据报套接字的 shutdown 可能返回 ENOTCONN，一律忽略。重复关闭返回 ErrEndpointClosed。
func (ep *Endpoint) Close() error {
	if ep.fd < 0 {
		return errs.New(errs.ErrEndpointClosed, errs.ErrorTypeAny, nil)
	}
	fd := ep.fd
	ep.fd = -1
	_ = unix.Shutdown(fd, unix.SHUT_RDWR)
	if err := closeFD(fd); err != nil {
		return errs.New(os.NewSyscallError("close", err), errs.ErrorTypeAny, fdMeta(fd))
	}
	return nil
}

// Accept 在监听端点 ln 上等待并接受一个连接，返回的端点为非阻塞模式。
//
// timeout 语义与 Read 相同，超时返回 ErrorTypeWait 类型的 ErrTimeout。
func Accept(ln *Endpoint, timeout time.Duration) (*Endpoint, error) {
	if ln.fd < 0 {
		return nil, errs.New(errs.ErrEndpointClosed, errs.ErrorTypeAny, nil)
	}
	if !ln.listening {
		return nil, errs.New(errs.ErrNotListening, errs.ErrorTypeAny, fdMeta(ln.fd))
	}

	for {
		nfd, _, err := sysAccept(ln.fd)
		switch err {
		case nil:
			return newEndpoint(nfd, ln.family, ln.sotype, false)
		case unix.EINTR, unix.ECONNABORTED:
			continue
		case unix.EAGAIN:
		default:
			return nil, errs.New(os.NewSyscallError("accept", err), errs.ErrorTypeAny, fdMeta(ln.fd))
		}

		if timeout == 0 {
			return nil, errs.New(errs.ErrTimeout, errs.ErrorTypeWait, fdMeta(ln.fd))
		}
		ready, err := waitReady(ln.fd, unix.POLLIN, timeout)
		if err != nil {
			return nil, err
		}
		if !ready {
			return nil, errs.New(errs.ErrTimeout, errs.ErrorTypeWait, fdMeta(ln.fd))
		}
	}
}

// PeerInfo 返回 ep 对端的主机名和十进制端口。
//
// 找不到主机名时回退为数字地址，除非开启了 NameRequired。端点未连接时返回 ErrorTypeLookup 类型的错误。
func (c *Connector) PeerInfo(ep *Endpoint) (host, service string, err error) {
	if ep.fd < 0 {
		return "", "", errs.New(errs.ErrEndpointClosed, errs.ErrorTypeLookup, nil)
	}
	sa, err := unix.Getpeername(ep.fd)
	if err != nil {
		return "", "", errs.New(fmt.Errorf("%w: %w", errs.ErrNotConnected, os.NewSyscallError("getpeername", err)),
			errs.ErrorTypeLookup, fdMeta(ep.fd))
	}
	ip, port, zone, ok := utils.SockaddrIP(sa)
	if !ok {
		return "", "", errs.Newf(errs.ErrorTypeLookup, fdMeta(ep.fd), "不支持的地址类型 %T", sa)
	}

	addr := ip.String()
	if zone != "" {
		addr += "%" + zone
	}
	service = strconv.Itoa(port)

	ctx, cancel := c.lookupContext()
	defer cancel()
	names, err := c.opts.Resolver.LookupAddr(ctx, addr)
	if err == nil && len(names) > 0 {
		return strings.TrimSuffix(names[0], "."), service, nil
	}
	if c.opts.NameRequired {
		if err == nil {
			err = fmt.Errorf("%s 没有对应的主机名", addr)
		}
		return "", "", errs.New(err, errs.ErrorTypeLookup, addr)
	}
	return addr, service, nil
}
