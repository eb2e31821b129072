package socket

import (
	"os"
	"time"

	errs "github.com/favbox/libcom/common/errors"
	"github.com/favbox/libcom/common/wlog"
	"github.com/favbox/libcom/network"
	"golang.org/x/sys/unix"
)

// Direction 表示传输方向。
type Direction int

const (
	DirRead Direction = iota
	DirWrite
)

func (d Direction) String() string {
	if d == DirWrite {
		return "write"
	}
	return "read"
}

func (d Direction) events() int16 {
	if d == DirWrite {
		return unix.POLLOUT
	}
	return unix.POLLIN
}

// StopReason 说明一次传输为何结束。
type StopReason int

const (
	// StopDone 全部字节传输完成。
	StopDone StopReason = iota
	// StopWouldBlock 超时为 0 且描述符未就绪。
	StopWouldBlock
	// StopTimeout 就绪等待超时。
	StopTimeout
	// StopPeerClosed 对端有序关闭（仅流式读）。
	StopPeerClosed
	// StopInterrupted 就绪等待被信号中断。
	StopInterrupted
	// StopError 读写或等待出错。
	StopError
)

var stopReasonNames = [...]string{
	StopDone:        "done",
	StopWouldBlock:  "would-block",
	StopTimeout:     "timeout",
	StopPeerClosed:  "peer-closed",
	StopInterrupted: "interrupted",
	StopError:       "error",
}

func (r StopReason) String() string {
	if r >= 0 && int(r) < len(stopReasonNames) {
		return stopReasonNames[r]
	}
	return "unknown"
}

// Result 是一次传输的结果。
type Result struct {
	// Remaining 是未传输的字节数。
	Remaining int
	// Reason 是传输结束的原因。
	Reason StopReason
}

// Transfer 在 ep 上按 dir 方向传输 p 的全部字节，并给出结束原因。
//
// 首次读写立即进行；描述符未就绪时按 timeout 等待：0 表示不等待，
// 正数为每次就绪等待的上限，负数表示无限等待。超时、对端关闭都不视为错误，
// 通过 Result.Remaining 和 Result.Reason 体现。
func Transfer(ep *Endpoint, dir Direction, p []byte, timeout time.Duration) (Result, error) {
	remaining := len(p)
	if ep.fd < 0 {
		return Result{Remaining: remaining, Reason: StopError},
			errs.New(errs.ErrEndpointClosed, errs.ErrorTypeTransfer, dir.String())
	}

	cursor := 0
	for remaining > 0 {
		n, err := ep.sysTransfer(dir, p[cursor:])
		switch {
		case err == nil && n > 0:
			cursor += n
			remaining -= n
			continue
		case err == nil && dir == DirRead:
			if ep.sotype == network.Stream {
				return Result{Remaining: remaining, Reason: StopPeerClosed}, nil
			}
			// 空数据报。
			continue
		case err == unix.EINTR:
			continue
		case err != nil && err != unix.EAGAIN:
			return Result{Remaining: remaining, Reason: StopError},
				errs.New(os.NewSyscallError(dir.String(), err), errs.ErrorTypeTransfer, fdMeta(ep.fd))
		}

		if timeout == 0 {
			return Result{Remaining: remaining, Reason: StopWouldBlock}, nil
		}
		ready, err := waitReady(ep.fd, dir.events(), timeout)
		if err != nil {
			if errs.Is(err, errs.ErrorTypeSignal) {
				return Result{Remaining: remaining, Reason: StopInterrupted}, err
			}
			return Result{Remaining: remaining, Reason: StopError}, err
		}
		if !ready {
			wlog.SystemLogger().Debugf(wlog.TransferTimeoutFormat, dir, ep.fd, timeout, remaining)
			return Result{Remaining: remaining, Reason: StopTimeout}, nil
		}
	}
	return Result{Reason: StopDone}, nil
}

func (ep *Endpoint) sysTransfer(dir Direction, p []byte) (int, error) {
	if dir == DirWrite {
		return sysWrite(ep.fd, p)
	}
	return unix.Read(ep.fd, p)
}

// Read 从 ep 读满 p，返回未读到的字节数。
//
// 对端关闭或等待超时时提前返回，剩余字节数大于 0 且错误为空；
// 信号中断时同时返回剩余字节数和 ErrorTypeSignal 类型的错误。
func (ep *Endpoint) Read(p []byte, timeout time.Duration) (remaining int, err error) {
	res, err := Transfer(ep, DirRead, p, timeout)
	return res.Remaining, err
}

// Write 将 p 全部写入 ep，返回未写出的字节数。语义同 Read。
func (ep *Endpoint) Write(p []byte, timeout time.Duration) (remaining int, err error) {
	res, err := Transfer(ep, DirWrite, p, timeout)
	return res.Remaining, err
}

// ReadSome 最多等待一次就绪，然后读取不超过 len(p) 的字节，返回读到的字节数。
//
// 超时或对端关闭时返回 0 且错误为空。
func (ep *Endpoint) ReadSome(p []byte, timeout time.Duration) (n int, err error) {
	if ep.fd < 0 {
		return 0, errs.New(errs.ErrEndpointClosed, errs.ErrorTypeTransfer, DirRead.String())
	}
	if len(p) == 0 {
		return 0, nil
	}

	n, again, err := ep.readOnce(p)
	if !again || timeout == 0 {
		return n, err
	}
	ready, err := waitReady(ep.fd, unix.POLLIN, timeout)
	if err != nil || !ready {
		return 0, err
	}
	n, _, err = ep.readOnce(p)
	return n, err
}

// readOnce 执行一次读取，EINTR 时重试，未就绪时 again 为真。
func (ep *Endpoint) readOnce(p []byte) (n int, again bool, err error) {
	for {
		n, err = unix.Read(ep.fd, p)
		switch err {
		case nil:
			return n, false, nil
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			return 0, true, nil
		}
		return 0, false, errs.New(os.NewSyscallError("read", err), errs.ErrorTypeTransfer, fdMeta(ep.fd))
	}
}
