package socket

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/bytedance/gopkg/lang/fastrand"
	errs "github.com/favbox/libcom/common/errors"
	"github.com/favbox/libcom/network"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

func socketPair(t *testing.T, sotype int) (*Endpoint, *Endpoint) {
	fds, err := unix.Socketpair(unix.AF_UNIX, sotype, 0)
	require.Nil(t, err)
	a, err := FromFD(fds[0])
	require.Nil(t, err)
	b, err := FromFD(fds[1])
	require.Nil(t, err)
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	return a, b
}

func randomPayload(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(fastrand.Intn(256))
	}
	return p
}

func TestFromFDNonBlocking(t *testing.T) {
	a, _ := socketPair(t, unix.SOCK_STREAM)
	flags, err := unix.FcntlInt(uintptr(a.Fd()), unix.F_GETFL, 0)
	assert.Nil(t, err)
	assert.NotZero(t, flags&unix.O_NONBLOCK)
	assert.Equal(t, network.Stream, a.SockType())
	assert.Equal(t, network.Family(unix.AF_UNIX), a.Family())
	assert.False(t, a.Listening())
}

func TestFromFDInvalid(t *testing.T) {
	_, err := FromFD(-1)
	assert.NotNil(t, err)
	assert.True(t, errors.Is(err, unix.EBADF))
}

func TestReadWriteFull(t *testing.T) {
	a, b := socketPair(t, unix.SOCK_STREAM)
	payload := randomPayload(4 << 20)
	got := make([]byte, len(payload))

	var g errgroup.Group
	g.Go(func() error {
		remaining, err := a.Write(payload, Forever)
		if err == nil && remaining != 0 {
			return errors.New("写入未完成")
		}
		return err
	})
	g.Go(func() error {
		remaining, err := b.Read(got, Forever)
		if err == nil && remaining != 0 {
			return errors.New("读取未完成")
		}
		return err
	})
	assert.Nil(t, g.Wait())
	assert.True(t, bytes.Equal(payload, got))
}

func TestReadNoWait(t *testing.T) {
	a, _ := socketPair(t, unix.SOCK_STREAM)
	p := make([]byte, 16)

	start := time.Now()
	res, err := Transfer(a, DirRead, p, NoWait)
	assert.Nil(t, err)
	assert.Less(t, time.Since(start), 10*time.Millisecond)
	assert.Equal(t, len(p), res.Remaining)
	assert.Equal(t, StopWouldBlock, res.Reason)
}

func TestReadTimeout(t *testing.T) {
	a, b := socketPair(t, unix.SOCK_STREAM)
	remaining, err := b.Write([]byte("abc"), NoWait)
	require.Nil(t, err)
	require.Zero(t, remaining)

	p := make([]byte, 10)
	start := time.Now()
	res, err := Transfer(a, DirRead, p, 50*time.Millisecond)
	assert.Nil(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 45*time.Millisecond)
	assert.Equal(t, 7, res.Remaining)
	assert.Equal(t, StopTimeout, res.Reason)
	assert.Equal(t, []byte("abc"), p[:3])
}

func TestReadPeerClosed(t *testing.T) {
	a, b := socketPair(t, unix.SOCK_STREAM)
	remaining, err := b.Write([]byte("TEST"), Forever)
	require.Nil(t, err)
	require.Zero(t, remaining)
	require.Nil(t, b.Close())

	p := make([]byte, 10)
	res, err := Transfer(a, DirRead, p, Forever)
	assert.Nil(t, err)
	assert.Equal(t, 6, res.Remaining)
	assert.Equal(t, StopPeerClosed, res.Reason)
	assert.Equal(t, []byte("TEST"), p[:4])

	// 后续读取保持一致。
	remaining, err = a.Read(p, Forever)
	assert.Nil(t, err)
	assert.Equal(t, 10, remaining)
}

func TestWriteTimeout(t *testing.T) {
	a, _ := socketPair(t, unix.SOCK_STREAM)
	payload := randomPayload(8 << 20)

	start := time.Now()
	res, err := Transfer(a, DirWrite, payload, 50*time.Millisecond)
	elapsed := time.Since(start)
	assert.Nil(t, err)
	assert.Equal(t, StopTimeout, res.Reason)
	assert.Greater(t, res.Remaining, 0)
	assert.LessOrEqual(t, res.Remaining, len(payload))
	assert.GreaterOrEqual(t, elapsed, 45*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestSplitWriteResume(t *testing.T) {
	a, b := socketPair(t, unix.SOCK_STREAM)
	payload := randomPayload(2 << 20)

	remaining, err := a.Write(payload, NoWait)
	require.Nil(t, err)
	require.Greater(t, remaining, 0)

	got := make([]byte, len(payload))
	var g errgroup.Group
	g.Go(func() error {
		_, err := b.Read(got, Forever)
		return err
	})
	rest, err := a.Write(payload[len(payload)-remaining:], Forever)
	assert.Nil(t, err)
	assert.Zero(t, rest)
	assert.Nil(t, g.Wait())
	assert.True(t, bytes.Equal(payload, got))
}

func TestDatagramEmptyIsNotEOF(t *testing.T) {
	a, b := socketPair(t, unix.SOCK_DGRAM)
	_, err := unix.Write(b.Fd(), nil)
	require.Nil(t, err)
	remaining, err := b.Write([]byte("ab"), NoWait)
	require.Nil(t, err)
	require.Zero(t, remaining)

	p := make([]byte, 2)
	res, err := Transfer(a, DirRead, p, time.Second)
	assert.Nil(t, err)
	assert.Equal(t, StopDone, res.Reason)
	assert.Equal(t, []byte("ab"), p)
}

func TestReadSome(t *testing.T) {
	a, b := socketPair(t, unix.SOCK_STREAM)
	p := make([]byte, 10)

	n, err := a.ReadSome(p, NoWait)
	assert.Nil(t, err)
	assert.Zero(t, n)

	n, err = a.ReadSome(p, 10*time.Millisecond)
	assert.Nil(t, err)
	assert.Zero(t, n)

	_, err = b.Write([]byte("abc"), Forever)
	require.Nil(t, err)
	n, err = a.ReadSome(p, Forever)
	assert.Nil(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []byte("abc"), p[:n])

	require.Nil(t, b.Close())
	n, err = a.ReadSome(p, Forever)
	assert.Nil(t, err)
	assert.Zero(t, n)
}

func TestClosedEndpoint(t *testing.T) {
	a, _ := socketPair(t, unix.SOCK_STREAM)
	assert.Nil(t, a.Close())
	assert.Equal(t, -1, a.Fd())
	assert.Equal(t, "stream(closed)", a.String())
	assert.Nil(t, a.LocalAddr())

	err := a.Close()
	assert.True(t, errors.Is(err, errs.ErrEndpointClosed))

	remaining, err := a.Read(make([]byte, 4), Forever)
	assert.Equal(t, 4, remaining)
	assert.True(t, errs.Is(err, errs.ErrorTypeTransfer))
	assert.True(t, errors.Is(err, errs.ErrEndpointClosed))

	_, err = a.ReadSome(make([]byte, 4), Forever)
	assert.True(t, errors.Is(err, errs.ErrEndpointClosed))
}

func TestWriteBrokenPipe(t *testing.T) {
	a, b := socketPair(t, unix.SOCK_STREAM)
	require.Nil(t, b.Close())

	res, err := Transfer(a, DirWrite, []byte("TEST"), time.Second)
	assert.Equal(t, StopError, res.Reason)
	assert.Equal(t, 4, res.Remaining)
	assert.True(t, errs.Is(err, errs.ErrorTypeTransfer))
	assert.True(t, errors.Is(err, unix.EPIPE))
}

func TestStopReasonString(t *testing.T) {
	assert.Equal(t, "done", StopDone.String())
	assert.Equal(t, "peer-closed", StopPeerClosed.String())
	assert.Equal(t, "unknown", StopReason(42).String())
	assert.Equal(t, "read", DirRead.String())
	assert.Equal(t, "write", DirWrite.String())
}

func TestPollTimeout(t *testing.T) {
	assert.Equal(t, -1, pollTimeout(Forever))
	assert.Equal(t, 0, pollTimeout(NoWait))
	assert.Equal(t, 1, pollTimeout(time.Microsecond))
	assert.Equal(t, 50, pollTimeout(50*time.Millisecond))
	assert.Equal(t, 2, pollTimeout(1500*time.Microsecond))
}
