package debug

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/binary"
	"encoding/pem"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/quic-go/quic-go"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/rigidscene/internal/core/observability/log"
	"github.com/zeusync/rigidscene/internal/core/physics"
)

func splitHostPort(t *testing.T, addr string) (string, uint16) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.ParseUint(portStr, 10, 16)
	require.NoError(t, err)
	return host, uint16(port)
}

func TestDial_WebSocketStreamsHelloAndFrames(t *testing.T) {
	received := make(chan []byte, 8)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != WebSocketPath {
			http.NotFound(w, r)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				close(received)
				return
			}
			received <- msg
		}
	}))
	defer srv.Close()

	host, port := splitHostPort(t, srv.Listener.Addr().String())
	link, err := Dial(context.Background(), Config{
		Transport:      TransportWebSocket,
		Host:           host,
		Port:           port,
		Timeout:        time.Second,
		FullConnection: true,
	}, log.Nop())
	require.NoError(t, err)
	require.NotEmpty(t, link.SessionID())
	require.True(t, link.Full())

	require.NoError(t, link.Publish(Frame{
		Session: link.SessionID(),
		Seq:     1,
		Step:    1.0 / 60,
		Actors:  []ActorState{{Handle: 42, Shape: "box", Mobility: "dynamic", Position: physics.Vec3(1, 2, 3), Rotation: physics.IdentityQuat()}},
	}))

	hello := <-received
	require.Contains(t, string(hello), link.SessionID())
	frame := <-received
	require.Contains(t, string(frame), `"handle":42`)

	require.NoError(t, link.Close())
	require.NoError(t, link.Close())
	require.ErrorIs(t, link.Publish(Frame{}), ErrLinkClosed)
}

func TestDial_WebSocketRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, port := splitHostPort(t, ln.Addr().String())
	require.NoError(t, ln.Close())

	_, err = Dial(context.Background(), Config{Host: host, Port: port, Timeout: 200 * time.Millisecond}, log.Nop())
	require.Error(t, err)
}

func TestDial_UnknownTransport(t *testing.T) {
	_, err := Dial(context.Background(), Config{Transport: "carrier-pigeon", Host: "localhost", Port: 1}, log.Nop())
	require.ErrorIs(t, err, ErrUnknownTransport)
}

func testTLSConfig(t *testing.T) *tls.Config {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{Organization: []string{"rigidscene"}},
		NotBefore:    time.Now().Add(-time.Minute),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:  []net.IP{net.IPv4(127, 0, 0, 1)},
	}
	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	require.NoError(t, err)

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	require.NoError(t, err)

	return &tls.Config{Certificates: []tls.Certificate{cert}, NextProtos: []string{ALPN}}
}

func TestDial_QUICStreamsLengthPrefixedFrames(t *testing.T) {
	ln, err := quic.ListenAddr("127.0.0.1:0", testTLSConfig(t), nil)
	require.NoError(t, err)
	defer ln.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	type result struct {
		hello Hello
		frame Frame
		err   error
	}
	done := make(chan result, 1)
	go func() {
		var res result
		conn, err := ln.Accept(ctx)
		if err != nil {
			done <- result{err: err}
			return
		}
		stream, err := conn.AcceptStream(ctx)
		if err != nil {
			done <- result{err: err}
			return
		}
		if res.err = ReadMessage(stream, &res.hello); res.err == nil {
			res.err = ReadMessage(stream, &res.frame)
		}
		done <- res
	}()

	host, port := splitHostPort(t, ln.Addr().String())
	link, err := Dial(ctx, Config{Transport: TransportQUIC, Host: host, Port: port, Timeout: 2 * time.Second}, log.Nop())
	require.NoError(t, err)
	require.False(t, link.Full())
	require.NoError(t, link.Publish(Frame{Session: link.SessionID(), Seq: 7, Time: 0.5, Step: 0.25}))

	res := <-done
	require.NoError(t, res.err)
	require.Equal(t, link.SessionID(), res.hello.Session)
	require.Equal(t, uint64(7), res.frame.Seq)
	require.Equal(t, float32(0.25), res.frame.Step)

	require.NoError(t, link.Close())
}

func TestReadMessage_FrameSizeLimit(t *testing.T) {
	frame := func(size uint32, payload string) *bytes.Buffer {
		var buf bytes.Buffer
		var header [4]byte
		binary.BigEndian.PutUint32(header[:], size)
		buf.Write(header[:])
		buf.WriteString(payload)
		return &buf
	}

	var hello Hello
	payload := `{"session":"abc","full":true}`
	require.NoError(t, ReadMessage(frame(uint32(len(payload)), payload), &hello))
	require.Equal(t, "abc", hello.Session)
	require.True(t, hello.Full)

	err := ReadMessage(frame(MaxFrameSize+1, "{}"), &hello)
	require.ErrorIs(t, err, ErrFrameTooLarge)

	err = ReadMessage(frame(0xFFFFFFFF, ""), &hello)
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder(true)
	dial := RecorderDialer(r)
	link, err := dial(context.Background(), Config{}, nil)
	require.NoError(t, err)
	require.Same(t, r, link)

	require.NoError(t, link.Publish(Frame{Seq: 1}))
	require.NoError(t, link.Publish(Frame{Seq: 2}))
	require.Len(t, r.Frames(), 2)

	require.NoError(t, link.Close())
	require.True(t, r.Closed())
	require.ErrorIs(t, link.Publish(Frame{Seq: 3}), ErrLinkClosed)
}
