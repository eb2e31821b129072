package dns

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/favbox/libcom/network"
	mdns "github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testZone struct {
	records map[string][]string
	udpHits atomic.Int32
	tcpHits atomic.Int32
}

func (z *testZone) ServeDNS(w mdns.ResponseWriter, req *mdns.Msg) {
	m := new(mdns.Msg)
	m.SetReply(req)
	q := req.Question[0]

	isTCP := w.RemoteAddr().Network() == "tcp"
	if isTCP {
		z.tcpHits.Add(1)
	} else {
		z.udpHits.Add(1)
	}

	// big.test. 仅在 TCP 上应答。
	if q.Name == "big.test." && !isTCP {
		m.Truncated = true
		_ = w.WriteMsg(m)
		return
	}

	rrs, ok := z.records[q.Name]
	if !ok {
		m.Rcode = mdns.RcodeNameError
		_ = w.WriteMsg(m)
		return
	}
	for _, s := range rrs {
		rr, err := mdns.NewRR(s)
		if err == nil && rr.Header().Rrtype == q.Qtype {
			m.Answer = append(m.Answer, rr)
		}
	}
	_ = w.WriteMsg(m)
}

func newTestZone() *testZone {
	return &testZone{records: map[string][]string{
		"dual.test.": {
			"dual.test. 60 IN AAAA 2001:db8::1",
			"dual.test. 60 IN A 192.0.2.1",
			"dual.test. 60 IN A 192.0.2.2",
		},
		"big.test.":               {"big.test. 60 IN A 192.0.2.9"},
		"1.2.0.192.in-addr.arpa.": {"1.2.0.192.in-addr.arpa. 60 IN PTR dual.test."},
		"v6only.test.":            {"v6only.test. 60 IN AAAA 2001:db8::6"},
	}}
}

// startServer 在同一端口上启动 UDP 和 TCP 服务，返回服务地址。
func startServer(t *testing.T, handler mdns.Handler) string {
	var pc net.PacketConn
	var ln net.Listener
	for i := 0; i < 5 && ln == nil; i++ {
		var err error
		pc, err = net.ListenPacket("udp", "127.0.0.1:0")
		require.Nil(t, err)
		ln, err = net.Listen("tcp", pc.LocalAddr().String())
		if err != nil {
			_ = pc.Close()
			ln = nil
		}
	}
	require.NotNil(t, ln)

	for _, srv := range []*mdns.Server{
		{PacketConn: pc, Handler: handler},
		{Listener: ln, Handler: handler},
	} {
		started := make(chan struct{})
		srv.NotifyStartedFunc = func() { close(started) }
		go func(s *mdns.Server) { _ = s.ActivateAndServe() }(srv)
		<-started
		t.Cleanup(func(s *mdns.Server) func() {
			return func() { _ = s.Shutdown() }
		}(srv))
	}
	return pc.LocalAddr().String()
}

func TestLookupIP(t *testing.T) {
	zone := newTestZone()
	r := NewResolver([]string{startServer(t, zone)}, time.Second)

	ips, err := r.LookupIP(context.Background(), "ip", "dual.test")
	assert.Nil(t, err)
	if assert.Len(t, ips, 3) {
		assert.Equal(t, "192.0.2.1", ips[0].String())
		assert.Equal(t, "192.0.2.2", ips[1].String())
		assert.Equal(t, "2001:db8::1", ips[2].String())
	}

	ips, err = r.LookupIP(context.Background(), "ip6", "dual.test")
	assert.Nil(t, err)
	assert.Len(t, ips, 1)

	ips, err = r.LookupIP(context.Background(), "ip", "v6only.test")
	assert.Nil(t, err)
	assert.Len(t, ips, 1)
}

func TestLookupIPNotFound(t *testing.T) {
	r := NewResolver([]string{startServer(t, newTestZone())}, time.Second)

	_, err := r.LookupIP(context.Background(), "ip4", "missing.test")
	var dnsErr *net.DNSError
	require.True(t, errors.As(err, &dnsErr))
	assert.True(t, dnsErr.IsNotFound)
	assert.Equal(t, "missing.test", dnsErr.Name)

	_, err = r.LookupIP(context.Background(), "tcp", "dual.test")
	assert.NotNil(t, err)
}

func TestLookupIPNumeric(t *testing.T) {
	r := NewResolver(nil, 0)
	ips, err := r.LookupIP(context.Background(), "ip", "127.0.0.1")
	assert.Nil(t, err)
	assert.Equal(t, []net.IP{net.IPv4(127, 0, 0, 1).To4()}, ips)

	_, err = r.LookupIP(context.Background(), "ip", "host.test")
	assert.NotNil(t, err)
}

func TestTruncatedFallsBackToTCP(t *testing.T) {
	zone := newTestZone()
	r := NewResolver([]string{startServer(t, zone)}, time.Second)

	ips, err := r.LookupIP(context.Background(), "ip4", "big.test")
	assert.Nil(t, err)
	assert.Len(t, ips, 1)
	assert.Equal(t, int32(1), zone.udpHits.Load())
	assert.Equal(t, int32(1), zone.tcpHits.Load())
}

func TestLookupAddr(t *testing.T) {
	r := NewResolver([]string{startServer(t, newTestZone())}, time.Second)

	names, err := r.LookupAddr(context.Background(), "192.0.2.1")
	assert.Nil(t, err)
	assert.Equal(t, []string{"dual.test."}, names)

	_, err = r.LookupAddr(context.Background(), "192.0.2.99")
	var dnsErr *net.DNSError
	require.True(t, errors.As(err, &dnsErr))
	assert.True(t, dnsErr.IsNotFound)

	_, err = r.LookupAddr(context.Background(), "not-an-ip")
	assert.NotNil(t, err)
}

func TestLookupPort(t *testing.T) {
	r := NewResolver(nil, 0)
	port, err := r.LookupPort(context.Background(), "tcp", "9000")
	assert.Nil(t, err)
	assert.Equal(t, 9000, port)

	_, err = r.LookupPort(context.Background(), "tcp", "70000")
	assert.NotNil(t, err)
}

func TestResolveThroughDNS(t *testing.T) {
	r := NewResolver([]string{startServer(t, newTestZone())}, time.Second)
	cands, err := network.Resolve(context.Background(), r, "dual.test", "80",
		network.Hints{Family: network.FamilyIPv4, SockType: network.Datagram})
	assert.Nil(t, err)
	if assert.Len(t, cands, 2) {
		assert.Equal(t, "192.0.2.1:80", cands[0].String())
	}
}

func TestNewResolverDefaultPort(t *testing.T) {
	r := NewResolver([]string{"192.0.2.53", "[2001:db8::53]:5353"}, 0)
	assert.Equal(t, []string{"192.0.2.53:53", "[2001:db8::53]:5353"}, r.Servers())
}
