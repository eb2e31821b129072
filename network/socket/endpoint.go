package socket

import (
	"fmt"
	"net"
	"os"
	"time"

	errs "github.com/favbox/libcom/common/errors"
	"github.com/favbox/libcom/common/utils"
	"github.com/favbox/libcom/internal/nocopy"
	"github.com/favbox/libcom/network"
	"golang.org/x/sys/unix"
)

const (
	// Forever 表示无限等待，直至读写完成、对端关闭或出错。
	Forever time.Duration = -1
	// NoWait 表示不等待，只做一次尝试即返回剩余字节数。
	NoWait time.Duration = 0
)

// Endpoint 是一个已打开套接字的独占句柄。
//
// 自创建起直至关闭，描述符始终处于非阻塞模式。同一个 Endpoint 不可并发读写，
// 调用方需自行串行化；不同 Endpoint 之间互不影响。
type Endpoint struct {
	noCopy nocopy.NoCopy

	fd        int
	family    network.Family
	sotype    network.SockType
	listening bool
}

// newEndpoint 接管 fd 并强制切换为非阻塞模式，失败时关闭 fd。
func newEndpoint(fd int, family network.Family, sotype network.SockType, listening bool) (*Endpoint, error) {
	if err := setNonblock(fd, true); err != nil {
		_ = closeFD(fd)
		return nil, errs.New(os.NewSyscallError("fcntl", err), errs.ErrorTypeNonBlocking, fdMeta(fd))
	}
	return &Endpoint{
		fd:        fd,
		family:    family,
		sotype:    sotype,
		listening: listening,
	}, nil
}

// FromFD 接管一个外部创建的套接字描述符（例如由外部 accept 得到），并强制切换为非阻塞模式。
//
// 无论成功与否，fd 的所有权都转移给本函数：失败时 fd 已被关闭。
func FromFD(fd int) (*Endpoint, error) {
	sotype, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
	if err != nil {
		_ = closeFD(fd)
		return nil, errs.New(os.NewSyscallError("getsockopt", err), errs.ErrorTypeAny, fdMeta(fd))
	}
	sa, err := unix.Getsockname(fd)
	if err != nil {
		_ = closeFD(fd)
		return nil, errs.New(os.NewSyscallError("getsockname", err), errs.ErrorTypeAny, fdMeta(fd))
	}
	acceptConn, _ := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ACCEPTCONN)
	return newEndpoint(fd, sockaddrFamily(sa), network.SockType(sotype), acceptConn == 1)
}

func sockaddrFamily(sa unix.Sockaddr) network.Family {
	switch sa.(type) {
	case *unix.SockaddrInet4:
		return network.FamilyIPv4
	case *unix.SockaddrInet6:
		return network.FamilyIPv6
	case *unix.SockaddrUnix:
		return network.Family(unix.AF_UNIX)
	}
	return network.FamilyUnspec
}

// Fd 返回底层描述符，关闭后返回 -1。描述符仍归 Endpoint 所有，调用方不得自行关闭。
func (ep *Endpoint) Fd() int {
	return ep.fd
}

// Family 返回套接字地址族。
func (ep *Endpoint) Family() network.Family {
	return ep.family
}

// SockType 返回套接字类型。
func (ep *Endpoint) SockType() network.SockType {
	return ep.sotype
}

// Listening 报告该端点是否为监听套接字。
func (ep *Endpoint) Listening() bool {
	return ep.listening
}

// LocalAddr 返回本地地址，获取失败返回 nil。
func (ep *Endpoint) LocalAddr() net.Addr {
	if ep.fd < 0 {
		return nil
	}
	sa, err := unix.Getsockname(ep.fd)
	if err != nil {
		return nil
	}
	return utils.SockaddrToAddr(ep.sotype.Network(), sa)
}

// RemoteAddr 返回对端地址，未连接时返回 nil。
func (ep *Endpoint) RemoteAddr() net.Addr {
	if ep.fd < 0 {
		return nil
	}
	sa, err := unix.Getpeername(ep.fd)
	if err != nil {
		return nil
	}
	return utils.SockaddrToAddr(ep.sotype.Network(), sa)
}

func (ep *Endpoint) String() string {
	if ep.fd < 0 {
		return fmt.Sprintf("%s(closed)", ep.sotype)
	}
	if local := ep.LocalAddr(); local != nil {
		return fmt.Sprintf("%s(fd=%d %s)", ep.sotype, ep.fd, local)
	}
	return fmt.Sprintf("%s(fd=%d)", ep.sotype, ep.fd)
}
