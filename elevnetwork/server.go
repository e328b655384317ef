// server.go
// Purpose: QUIC control server. Remote clients request trips and query the fleet
// over one stream each; every step report is pushed to all connected clients.
package elevnetwork

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	quic "github.com/quic-go/quic-go"

	"elevsim/elevdispatch"
	"elevsim/logger"
)

var Log = logger.GetLogger()

const (
	helloTimeout      = 2 * time.Second
	openStreamTimeout = 2 * time.Second
	writeTimeout      = 2 * time.Second
)

// TripService is the part of the dispatcher the control server exposes.
type TripService interface {
	RequestTrip(pickup, dropoff int) (elevdispatch.Assignment, error)
	Status() elevdispatch.Status
}

type ControlServer struct {
	selfID    string
	frameSize int
	service   TripService
	ln        *quic.Listener

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	origin string
	conn   *quic.Conn
	stream *quic.Stream

	writeMu sync.Mutex
}

func (c *client) send(msg netMsg, frameSize int) error {
	b, err := encodeNetMsg(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = WriteFixedFrameQUIC(c.stream, b, frameSize, writeTimeout)
	return err
}

// NewControlServer starts listening on listenAddr right away, so Addr is valid
// before Serve runs.
func NewControlServer(selfID, listenAddr string, frameSize int, service TripService) (*ControlServer, error) {
	if frameSize <= 0 {
		frameSize = QUIC_FRAME_SIZE
	}
	ln, err := ListenQUIC(listenAddr, DefaultQUICConfig())
	if err != nil {
		return nil, err
	}
	return &ControlServer{
		selfID:    selfID,
		frameSize: frameSize,
		service:   service,
		ln:        ln,
		clients:   make(map[string]*client),
	}, nil
}

func (s *ControlServer) Addr() net.Addr { return s.ln.Addr() }

// Serve accepts clients until ctx is done, then closes the listener and every
// client connection.
func (s *ControlServer) Serve(ctx context.Context) error {
	Log.Info().Str("node", s.selfID).Str("addr", s.Addr().String()).Msg("Control server listening")

	err := AcceptQUIC(ctx, s.ln, func(conn *quic.Conn) {
		s.handleConn(ctx, conn)
	})

	_ = s.ln.Close()
	s.mu.Lock()
	for origin, c := range s.clients {
		CloseQUIC(c.conn, c.stream, "server shutting down")
		delete(s.clients, origin)
	}
	s.mu.Unlock()
	return err
}

func (s *ControlServer) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *ControlServer) handleConn(ctx context.Context, conn *quic.Conn) {
	st, err := conn.AcceptStream(ctx)
	if err != nil {
		_ = conn.CloseWithError(0, "no stream")
		return
	}

	c, err := s.exchangeHello(conn, st)
	if err != nil {
		Log.Warn().Err(err).Str("remote", conn.RemoteAddr().String()).Msg("Hello failed")
		CloseQUIC(conn, st, "hello failed")
		return
	}
	s.addClient(c)
	Log.Info().Str("client", c.origin).Str("remote", conn.RemoteAddr().String()).Msg("Client connected")

	err = ReadFixedFramesQUIC(ctx, st, s.frameSize, func(frame []byte) {
		s.handleFrame(c, frame)
	})
	if err != nil && ctx.Err() == nil {
		Log.Debug().Err(err).Str("client", c.origin).Msg("Client stream ended")
	}

	s.removeClient(c)
	CloseQUIC(conn, st, "bye")
	Log.Info().Str("client", c.origin).Msg("Client disconnected")
}

func (s *ControlServer) exchangeHello(conn *quic.Conn, st *quic.Stream) (*client, error) {
	frame, err := ReadFixedFrameQUIC(st, s.frameSize, helloTimeout)
	if err != nil {
		return nil, fmt.Errorf("read hello: %w", err)
	}
	msg, err := decodeNetMsg(frame)
	if err != nil {
		return nil, fmt.Errorf("read hello: %w", err)
	}
	if msg.Kind != MsgHello || msg.Origin == "" {
		return nil, fmt.Errorf("%w: expected hello, got %q", ErrBadMessage, msg.Kind)
	}

	c := &client{origin: msg.Origin, conn: conn, stream: st}
	if err := c.send(netMsg{Kind: MsgHello, Origin: s.selfID}, s.frameSize); err != nil {
		return nil, fmt.Errorf("send hello: %w", err)
	}
	return c, nil
}

func (s *ControlServer) handleFrame(c *client, frame []byte) {
	msg, err := decodeNetMsg(frame)
	if err != nil {
		Log.Warn().Err(err).Str("client", c.origin).Msg("Dropping bad frame")
		s.reply(c, netMsg{Kind: MsgReject, Code: codeBadMessage, Error: err.Error()})
		return
	}

	switch msg.Kind {
	case MsgRequest:
		a, err := s.service.RequestTrip(msg.Pickup, msg.Dropoff)
		if err != nil {
			Log.Info().Str("client", c.origin).Int("pickup", msg.Pickup).Int("dropoff", msg.Dropoff).Err(err).Msg("Remote request rejected")
			s.reply(c, netMsg{Kind: MsgReject, Counter: msg.Counter, Code: rejectCode(err), Error: err.Error()})
			return
		}
		am := NewAssignmentMsg(a)
		Log.Info().Str("client", c.origin).Str("trip", am.TripID).Int("car", am.Car).Bool("queued", am.Queued).Msg("Remote request admitted")
		s.reply(c, netMsg{Kind: MsgAck, Counter: msg.Counter, Assignment: &am})
	case MsgStatus:
		status := s.service.Status()
		s.reply(c, netMsg{Kind: MsgStatus, Counter: msg.Counter, Status: &status})
	default:
		s.reply(c, netMsg{
			Kind:    MsgReject,
			Counter: msg.Counter,
			Code:    codeBadMessage,
			Error:   fmt.Sprintf("unexpected %q message", msg.Kind),
		})
	}
}

// reply answers a client. A reply too large for a frame is swapped for a
// too_large rejection; only a failed write drops the client.
func (s *ControlServer) reply(c *client, msg netMsg) {
	err := c.send(msg, s.frameSize)
	if errors.Is(err, ErrFrameTooLarge) {
		Log.Warn().Err(err).Str("client", c.origin).Str("kind", string(msg.Kind)).Msg("Reply does not fit a frame, rejecting")
		err = c.send(netMsg{
			Kind:    MsgReject,
			Counter: msg.Counter,
			Code:    codeTooLarge,
			Error:   fmt.Sprintf("%s reply does not fit a %d-byte frame", msg.Kind, s.frameSize),
		}, s.frameSize)
	}
	if err != nil {
		Log.Warn().Err(err).Str("client", c.origin).Msg("Reply failed")
		s.dropClient(c, "write failed")
	}
}

// Broadcast pushes a step report to every connected client. Clients whose write
// fails are dropped.
func (s *ControlServer) Broadcast(report elevdispatch.StepReport) {
	rm := NewReportMsg(report)
	b, err := encodeNetMsg(netMsg{Kind: MsgReport, Origin: s.selfID, Report: &rm})
	if err != nil {
		Log.Error().Err(err).Int("step", report.Step).Msg("Encode report failed")
		return
	}
	if len(b) > s.frameSize {
		Log.Warn().Int("step", report.Step).Int("size", len(b)).Int("frameSize", s.frameSize).Msg("Report does not fit a frame, not sent")
		return
	}

	s.mu.RLock()
	targets := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	for _, c := range targets {
		c.writeMu.Lock()
		_, err := WriteFixedFrameQUIC(c.stream, b, s.frameSize, writeTimeout)
		c.writeMu.Unlock()
		if err != nil {
			Log.Warn().Err(err).Str("client", c.origin).Msg("Report send failed")
			s.dropClient(c, "write failed")
		}
	}
}

// addClient replaces any earlier connection with the same origin.
func (s *ControlServer) addClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing := s.clients[c.origin]; existing != nil {
		CloseQUIC(existing.conn, existing.stream, "replaced")
		Log.Info().Str("client", c.origin).Msg("Replacing existing connection")
	}
	s.clients[c.origin] = c
}

func (s *ControlServer) removeClient(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[c.origin] == c {
		delete(s.clients, c.origin)
	}
}

func (s *ControlServer) dropClient(c *client, reason string) {
	s.removeClient(c)
	CloseQUIC(c.conn, c.stream, reason)
}
