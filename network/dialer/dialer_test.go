package dialer

import (
	"context"
	"errors"
	"net"
	"strconv"
	"testing"
	"time"

	errs "github.com/favbox/libcom/common/errors"
	"github.com/favbox/libcom/network/socket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockResolver struct{}

func (m *mockResolver) LookupIP(_ context.Context, _, host string) ([]net.IP, error) {
	return nil, errors.New("方法尚未实现")
}

func (m *mockResolver) LookupPort(_ context.Context, _, service string) (int, error) {
	return strconv.Atoi(service)
}

func (m *mockResolver) LookupAddr(_ context.Context, addr string) ([]string, error) {
	return []string{"peer.test."}, nil
}

func TestDialer(t *testing.T) {
	orig := DefaultConnector()
	defer SetConnector(orig)
	assert.NotNil(t, orig)

	c := socket.NewConnector(socket.WithResolver(&mockResolver{}))
	SetConnector(c)
	assert.Equal(t, c, DefaultConnector())

	_, err := ConnectStream("host.test", "80")
	assert.True(t, errs.Is(err, errs.ErrorTypeResolution))

	_, err = ConnectDgram("host.test", "53")
	assert.True(t, errs.Is(err, errs.ErrorTypeResolution))
}

func TestDefaultConnector(t *testing.T) {
	orig := DefaultConnector()
	defer SetConnector(orig)
	SetConnector(socket.NewConnector(socket.WithResolver(&mockResolver{})))

	ln, err := BindStream("0")
	require.Nil(t, err)
	defer ln.Close()
	port := strconv.Itoa(ln.LocalAddr().(*net.TCPAddr).Port)

	conn, err := ConnectStream("127.0.0.1", port)
	require.Nil(t, err)
	defer conn.Close()

	host, service, err := PeerInfo(conn)
	assert.Nil(t, err)
	assert.Equal(t, "peer.test", host)
	assert.Equal(t, port, service)

	udp, err := BindDgram("0")
	require.Nil(t, err)
	defer udp.Close()

	peer, err := socket.Accept(ln, time.Second)
	require.Nil(t, err)
	assert.Nil(t, peer.Close())
}
