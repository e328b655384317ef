package elevnetwork

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"errors"
	"fmt"
	"io"
	"math/big"
	"time"

	quic "github.com/quic-go/quic-go"
)

const (
	QUIC_ALPN = "elevsim-quic"
	// Every control message travels as one zero-padded frame of this size.
	QUIC_FRAME_SIZE = 4096

	controlCertName     = "elevsim-control"
	controlCertLifetime = 7 * 24 * time.Hour
)

var ErrFrameTooLarge = errors.New("payload larger than frame")

// NewQUICServerTLSConfig gives the control server a throwaway self-signed
// identity. Clients cannot verify it, so control traffic is encrypted but not
// authenticated.
func NewQUICServerTLSConfig() (*tls.Config, error) {
	cert, err := selfSignedCert(controlCertName, controlCertLifetime)
	if err != nil {
		return nil, fmt.Errorf("server tls config: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{cert},
		NextProtos:   []string{QUIC_ALPN},
		MinVersion:   tls.VersionTLS13,
	}, nil
}

// NewQUICClientTLSConfig accepts any server certificate that speaks the control
// ALPN.
func NewQUICClientTLSConfig() *tls.Config {
	return &tls.Config{
		InsecureSkipVerify: true,
		ServerName:         controlCertName,
		NextProtos:         []string{QUIC_ALPN},
		MinVersion:         tls.VersionTLS13,
	}
}

func selfSignedCert(name string, lifetime time.Duration) (tls.Certificate, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("ecdsa key: %w", err)
	}
	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 62))
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("serial: %w", err)
	}

	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber:          serial,
		Subject:               pkix.Name{CommonName: name},
		DNSNames:              []string{name},
		NotBefore:             now.Add(-time.Minute),
		NotAfter:              now.Add(lifetime),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		return tls.Certificate{}, fmt.Errorf("create cert: %w", err)
	}
	return tls.Certificate{Certificate: [][]byte{der}, PrivateKey: key}, nil
}

func DefaultQUICConfig() *quic.Config {
	return &quic.Config{
		KeepAlivePeriod:      2 * time.Second,
		HandshakeIdleTimeout: 3 * time.Second,
		MaxIdleTimeout:       10 * time.Second,
	}
}

func ListenQUIC(listenAddr string, quicConf *quic.Config) (*quic.Listener, error) {
	tlsConf, err := NewQUICServerTLSConfig()
	if err != nil {
		return nil, err
	}

	ln, err := quic.ListenAddr(listenAddr, tlsConf, quicConf)
	if err != nil {
		return nil, fmt.Errorf("quic listen %s: %w", listenAddr, err)
	}
	return ln, nil
}

// AcceptQUIC hands every accepted connection to connHandler on its own goroutine
// until ctx is done or ln is closed.
func AcceptQUIC(ctx context.Context, ln *quic.Listener, connHandler func(conn *quic.Conn)) error {
	for {
		conn, err := ln.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, quic.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("quic accept: %w", err)
		}

		go connHandler(conn)
	}
}

// DialQUIC connects to remoteAddr and opens the single bidirectional stream the
// control protocol runs on.
func DialQUIC(
	ctx context.Context,
	remoteAddr string,
	quicConf *quic.Config,
	openStreamTimeout time.Duration,
) (*quic.Conn, *quic.Stream, error) {
	conn, err := quic.DialAddr(ctx, remoteAddr, NewQUICClientTLSConfig(), quicConf)
	if err != nil {
		return nil, nil, fmt.Errorf("quic dial %s: %w", remoteAddr, err)
	}

	stCtx := ctx
	if openStreamTimeout > 0 {
		var cancel context.CancelFunc
		stCtx, cancel = context.WithTimeout(ctx, openStreamTimeout)
		defer cancel()
	}

	stream, err := conn.OpenStreamSync(stCtx)
	if err != nil {
		_ = conn.CloseWithError(0, "open stream failed")
		return nil, nil, fmt.Errorf("open stream: %w", err)
	}
	return conn, stream, nil
}

func CloseQUIC(conn *quic.Conn, stream *quic.Stream, reason string) {
	if stream != nil {
		_ = stream.Close()
	}
	if conn != nil {
		_ = conn.CloseWithError(0, reason)
	}
}

// ReadFixedFramesQUIC feeds handler every control frame read from r until ctx
// is done or the peer ends the stream, which returns nil. Each frame is a fresh
// slice the handler may keep.
func ReadFixedFramesQUIC(
	ctx context.Context,
	r io.Reader,
	frameSize int,
	handler func(frame []byte),
) error {
	for ctx.Err() == nil {
		frame, err := ReadFixedFrameQUIC(r, frameSize, 0)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return nil
		case err != nil:
			return err
		}
		handler(frame)
	}
	return nil
}

// ReadFixedFrameQUIC reads one zero-padded frame, waiting at most timeout when r
// supports read deadlines. Zero waits forever.
func ReadFixedFrameQUIC(r io.Reader, frameSize int, timeout time.Duration) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("reader is nil")
	}
	if frameSize <= 0 {
		frameSize = QUIC_FRAME_SIZE
	}
	if d, ok := r.(interface{ SetReadDeadline(time.Time) error }); ok && timeout > 0 {
		_ = d.SetReadDeadline(time.Now().Add(timeout))
		defer d.SetReadDeadline(time.Time{})
	}

	frame := make([]byte, frameSize)
	if _, err := io.ReadFull(r, frame); err != nil {
		return nil, fmt.Errorf("read quic frame: %w", err)
	}
	return frame, nil
}

func WriteFixedFrameQUIC(
	w io.Writer,
	payload []byte,
	frameSize int,
	timeout time.Duration,
) (int, error) {
	if w == nil {
		return 0, fmt.Errorf("writer is nil")
	}
	if frameSize <= 0 {
		frameSize = QUIC_FRAME_SIZE
	}
	if len(payload) > frameSize {
		return 0, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, len(payload), frameSize)
	}

	frame := make([]byte, frameSize)
	copy(frame, payload) // zero-padding

	if d, ok := w.(interface{ SetWriteDeadline(time.Time) error }); ok && timeout > 0 {
		_ = d.SetWriteDeadline(time.Now().Add(timeout))
	}

	total := 0
	for total < frameSize {
		n, err := w.Write(frame[total:])
		total += n
		if err != nil {
			return total, fmt.Errorf("write quic frame: %w", err)
		}
		if n == 0 {
			return total, fmt.Errorf("write quic frame: wrote 0 bytes")
		}
	}
	return total, nil
}
