package elevnetwork

import (
	"context"
	"errors"
	"fmt"
	"sync"

	quic "github.com/quic-go/quic-go"

	"elevsim/elevdispatch"
)

const reportBufSize = 64

var ErrClientClosed = errors.New("control connection closed")

// ControlClient talks to a ControlServer. Requests may be issued from several
// goroutines; replies are matched to requests by counter.
type ControlClient struct {
	origin    string
	serverID  string
	frameSize int

	conn   *quic.Conn
	stream *quic.Stream

	writeMu sync.Mutex

	mu      sync.Mutex
	counter uint64
	pending map[uint64]chan netMsg

	reports chan ReportMsg
	done    chan struct{}
}

// Dial connects to a control server and completes the hello exchange.
// frameSize must match the server's.
func Dial(ctx context.Context, addr, origin string, frameSize int) (*ControlClient, error) {
	if frameSize <= 0 {
		frameSize = QUIC_FRAME_SIZE
	}
	conn, st, err := DialQUIC(ctx, addr, DefaultQUICConfig(), openStreamTimeout)
	if err != nil {
		return nil, err
	}

	c := &ControlClient{
		origin:    origin,
		frameSize: frameSize,
		conn:      conn,
		stream:    st,
		pending:   make(map[uint64]chan netMsg),
		reports:   make(chan ReportMsg, reportBufSize),
		done:      make(chan struct{}),
	}

	if err := c.write(netMsg{Kind: MsgHello, Origin: origin}); err != nil {
		CloseQUIC(conn, st, "hello failed")
		return nil, fmt.Errorf("send hello: %w", err)
	}
	frame, err := ReadFixedFrameQUIC(st, frameSize, helloTimeout)
	if err != nil {
		CloseQUIC(conn, st, "hello failed")
		return nil, fmt.Errorf("read hello: %w", err)
	}
	hello, err := decodeNetMsg(frame)
	if err != nil || hello.Kind != MsgHello {
		CloseQUIC(conn, st, "hello failed")
		return nil, fmt.Errorf("%w: expected hello from %s", ErrBadMessage, addr)
	}
	c.serverID = hello.Origin

	go c.readLoop()
	return c, nil
}

func (c *ControlClient) ServerID() string { return c.serverID }

// Reports delivers step reports pushed by the server. It is closed when the
// connection ends. Reports are dropped while the channel is full.
func (c *ControlClient) Reports() <-chan ReportMsg { return c.reports }

// Done is closed when the connection ends.
func (c *ControlClient) Done() <-chan struct{} { return c.done }

// RequestTrip asks the server to admit a trip. A rejection wraps ErrRejected and
// the matching elevdispatch error.
func (c *ControlClient) RequestTrip(ctx context.Context, pickup, dropoff int) (AssignmentMsg, error) {
	reply, err := c.roundTrip(ctx, netMsg{Kind: MsgRequest, Pickup: pickup, Dropoff: dropoff})
	if err != nil {
		return AssignmentMsg{}, err
	}
	switch {
	case reply.Kind == MsgReject:
		return AssignmentMsg{}, rejectError(reply)
	case reply.Kind == MsgAck && reply.Assignment != nil:
		return *reply.Assignment, nil
	default:
		return AssignmentMsg{}, fmt.Errorf("%w: unexpected %q reply to request", ErrBadMessage, reply.Kind)
	}
}

func (c *ControlClient) Status(ctx context.Context) (elevdispatch.Status, error) {
	reply, err := c.roundTrip(ctx, netMsg{Kind: MsgStatus})
	if err != nil {
		return elevdispatch.Status{}, err
	}
	switch {
	case reply.Kind == MsgReject:
		return elevdispatch.Status{}, rejectError(reply)
	case reply.Kind == MsgStatus && reply.Status != nil:
		return *reply.Status, nil
	default:
		return elevdispatch.Status{}, fmt.Errorf("%w: unexpected %q reply to status", ErrBadMessage, reply.Kind)
	}
}

func (c *ControlClient) Close() error {
	CloseQUIC(c.conn, c.stream, "bye")
	<-c.done
	return nil
}

func (c *ControlClient) roundTrip(ctx context.Context, msg netMsg) (netMsg, error) {
	ch := make(chan netMsg, 1)

	c.mu.Lock()
	c.counter++
	msg.Counter = c.counter
	msg.Origin = c.origin
	c.pending[msg.Counter] = ch
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, msg.Counter)
		c.mu.Unlock()
	}()

	if err := c.write(msg); err != nil {
		return netMsg{}, err
	}

	select {
	case reply := <-ch:
		return reply, nil
	case <-ctx.Done():
		return netMsg{}, ctx.Err()
	case <-c.done:
		return netMsg{}, ErrClientClosed
	}
}

func (c *ControlClient) write(msg netMsg) error {
	b, err := encodeNetMsg(msg)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = WriteFixedFrameQUIC(c.stream, b, c.frameSize, writeTimeout)
	return err
}

func (c *ControlClient) readLoop() {
	defer close(c.done)
	defer close(c.reports)

	err := ReadFixedFramesQUIC(context.Background(), c.stream, c.frameSize, func(frame []byte) {
		msg, err := decodeNetMsg(frame)
		if err != nil {
			Log.Warn().Err(err).Str("server", c.serverID).Msg("Dropping bad frame")
			return
		}

		if msg.Kind == MsgReport {
			if msg.Report == nil {
				return
			}
			select {
			case c.reports <- *msg.Report:
			default:
				Log.Debug().Int("step", msg.Report.Step).Msg("Report channel full, dropping report")
			}
			return
		}

		c.mu.Lock()
		ch, ok := c.pending[msg.Counter]
		c.mu.Unlock()
		if !ok {
			Log.Debug().Str("kind", string(msg.Kind)).Uint64("counter", msg.Counter).Msg("Reply without a waiting request")
			return
		}
		select {
		case ch <- msg:
		default:
		}
	})
	if err != nil {
		Log.Debug().Err(err).Str("server", c.serverID).Msg("Control stream ended")
	}
}
