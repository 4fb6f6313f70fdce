package events

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/shipgrid/internal/ctxlog"
	"github.com/vk/shipgrid/internal/stage"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// SocketEvent is the socket.io event name stage events are emitted under.
const SocketEvent = "shipgrid:stage"

// ConnectTimeout bounds how long Dial waits for the handshake.
const ConnectTimeout = 15 * time.Second

// emitter is the part of a socket.io client the reporter uses.
type emitter interface {
	emit(ev Event)
	close()
}

type socketEmitter struct {
	io *socket.Socket
}

func (s *socketEmitter) emit(ev Event) {
	s.io.Emit(SocketEvent, ev)
}

func (s *socketEmitter) close() {
	s.io.Disconnect()
}

// SocketReporter broadcasts stage events to a socket.io dashboard. Emission
// is fire-and-forget and never affects the pipeline result.
type SocketReporter struct {
	emitter emitter
	now     func() time.Time
}

// SocketOptions configure Dial.
type SocketOptions struct {
	Namespace          string
	InsecureSkipVerify bool
}

// Dial connects to the socket.io server at rawURL.
func Dial(ctx context.Context, rawURL string, o SocketOptions) (*SocketReporter, error) {
	logger := ctxlog.FromContext(ctx).With("reporter", "socketio", "url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if parsedURL.Scheme == "" || parsedURL.Host == "" {
		return nil, fmt.Errorf("events URL %q must be absolute", rawURL)
	}

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" {
		opts.SetPath(parsedURL.Path)
	}
	if o.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(o.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Connected to events server", "sid", io.Id())
		select {
		case connectChan <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect_error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connectChan <- err:
		default:
		}
	})

	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return newSocketReporter(&socketEmitter{io: io}), nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, fmt.Errorf("context cancelled while waiting for socket.io connection: %w", ctx.Err())
	case <-time.After(ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", ConnectTimeout)
	}
}

func newSocketReporter(e emitter) *SocketReporter {
	return &SocketReporter{emitter: e, now: time.Now}
}

func (r *SocketReporter) StageStarted(_ context.Context, s *stage.Stage) {
	r.emitter.emit(startedEvent(s, r.now()))
}

func (r *SocketReporter) StageFinished(_ context.Context, res *stage.Result) {
	r.emitter.emit(finishedEvent(res, r.now()))
}

// Close disconnects from the server.
func (r *SocketReporter) Close() {
	r.emitter.close()
}
