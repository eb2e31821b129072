package socket

import (
	"fmt"
	"math"
	"os"
	"time"

	errs "github.com/favbox/libcom/common/errors"
	"golang.org/x/sys/unix"
)

// 以下系统调用经由变量间接调用，便于测试注入故障。
var (
	setNonblock  = unix.SetNonblock
	closeFD      = unix.Close
	listenFD     = unix.Listen
	setReuseAddr = func(fd int) error {
		return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	}
)

// pollTimeout 将超时时长换算为 poll 使用的毫秒数，不足 1 毫秒按 1 毫秒计，负数表示无限等待。
func pollTimeout(d time.Duration) int {
	if d < 0 {
		return -1
	}
	ms := (d + time.Millisecond - 1) / time.Millisecond
	if ms > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(ms)
}

// waitReady 等待 fd 上出现 events 事件。超时返回 false 且无错误。
//
// 被信号中断时返回 ErrorTypeSignal 类型的错误，不会自动重试。
// POLLHUP 和 POLLERR 视为就绪，交由随后的读写调用报告具体结果。
func waitReady(fd int, events int16, timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
	n, err := unix.Poll(fds, pollTimeout(timeout))
	if err != nil {
		if err == unix.EINTR {
			return false, errs.New(fmt.Errorf("%w: %w", errs.ErrInterrupted, err), errs.ErrorTypeSignal, fdMeta(fd))
		}
		return false, errs.New(os.NewSyscallError("poll", err), errs.ErrorTypeWait, fdMeta(fd))
	}
	if n == 0 {
		return false, nil
	}
	if fds[0].Revents&unix.POLLNVAL != 0 {
		return false, errs.New(os.NewSyscallError("poll", unix.EBADF), errs.ErrorTypeWait, fdMeta(fd))
	}
	return true, nil
}

func fdMeta(fd int) string {
	return fmt.Sprintf("fd=%d", fd)
}
