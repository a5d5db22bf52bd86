// Package gateway owns the persistent event-stream connection: dial,
// authenticate, heartbeat, staleness detection, and reconnect with
// resume. The session is the sole owner of the physical connection and
// the sole producer of decoded events; it never touches the cache
// directly, the dispatcher does that.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dgnsrekt/revoltkit/wire"
)

const (
	defaultHandshakeTimeout  = 10 * time.Second
	defaultHeartbeatInterval = 30 * time.Second
	defaultBackoffMin        = 1 * time.Second
	defaultBackoffMax        = 60 * time.Second

	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second
)

// ErrNotReady is returned by Send when no live session exists.
var ErrNotReady = errors.New("gateway: session not ready")

// errResumeRejected is an internal signal that the server refused the
// resume credentials. The token is already cleared; the next attempt
// authenticates from scratch and receives a fresh Ready baseline.
var errResumeRejected = errors.New("gateway: resume rejected")

// State is the observable session lifecycle phase.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAuthenticating
	StateReady
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAuthenticating:
		return "authenticating"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Dispatcher receives every decoded event, in arrival order.
type Dispatcher interface {
	Dispatch(ev wire.Event)
}

// Recorder receives every raw inbound frame before decoding. Optional;
// used for capture/replay tooling.
type Recorder interface {
	Record(data []byte) error
}

// Options configures a session.
type Options struct {
	// URL is the websocket gateway endpoint.
	URL string

	// Token is the full session credential. Immutable for the life of
	// the session.
	Token string

	// HandshakeTimeout bounds dialing and the authentication exchange.
	HandshakeTimeout time.Duration

	// HeartbeatInterval is the fallback cadence when the server does
	// not advertise one.
	HeartbeatInterval time.Duration

	// BackoffMin and BackoffMax bound the reconnect delay schedule.
	BackoffMin time.Duration
	BackoffMax time.Duration

	// Recorder, when set, captures raw inbound frames.
	Recorder Recorder
}

func (o *Options) withDefaults() {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = defaultHandshakeTimeout
	}
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = defaultHeartbeatInterval
	}
	if o.BackoffMin <= 0 {
		o.BackoffMin = defaultBackoffMin
	}
	if o.BackoffMax <= 0 {
		o.BackoffMax = defaultBackoffMax
	}
}

// Session drives one logical gateway connection across any number of
// physical reconnects.
type Session struct {
	opts       Options
	dispatcher Dispatcher
	logger     *zap.Logger

	mu          sync.Mutex
	state       State
	conn        *websocket.Conn
	sessionID   string
	resumeToken string
	closing     bool

	// closed is closed by Close so the reconnect loop can stop even
	// while waiting out a backoff delay.
	closed chan struct{}

	writeMu sync.Mutex

	lastPong  atomic.Int64 // unix nanos of last heartbeat ack
	pingNonce atomic.Int64
}

// NewSession creates a session. Run must be called to connect.
func NewSession(opts Options, dispatcher Dispatcher, logger *zap.Logger) *Session {
	opts.withDefaults()
	return &Session{
		opts:       opts,
		dispatcher: dispatcher,
		logger:     logger,
		closed:     make(chan struct{}),
	}
}

// Run connects and keeps the session alive until ctx is cancelled,
// Close is called, or the server rejects the credentials. Transport
// failures reconnect forever under exponential backoff with jitter;
// only an AuthError (or shutdown) is terminal. Returns nil on graceful
// shutdown.
func (s *Session) Run(ctx context.Context) error {
	bo := newBackoff(s.opts.BackoffMin, s.opts.BackoffMax)

	for {
		ready, err := s.runOnce(ctx)

		if ctx.Err() != nil || s.isClosing() {
			s.setState(StateDisconnected)
			s.logger.Info("session shut down")
			return nil
		}

		var authErr *AuthError
		if errors.As(err, &authErr) {
			s.clearResume()
			s.setState(StateDisconnected)
			s.logger.Error("session ended", zap.Error(authErr))
			return authErr
		}

		if ready {
			bo.Reset()
		}
		s.setState(StateDisconnected)

		delay := bo.Next()
		s.logger.Warn("gateway connection lost, reconnecting",
			zap.Error(err),
			zap.Duration("delay", delay),
			zap.Bool("resumable", s.canResume()),
		)

		select {
		case <-ctx.Done():
			s.setState(StateDisconnected)
			return nil
		case <-s.closed:
			s.setState(StateDisconnected)
			s.logger.Info("session shut down")
			return nil
		case <-time.After(delay):
		}
	}
}

// runOnce performs a single connect/authenticate/stream cycle. ready
// reports whether the session reached Ready, which resets the backoff
// schedule.
func (s *Session) runOnce(ctx context.Context) (ready bool, err error) {
	if s.isClosing() {
		return false, nil
	}
	s.setState(StateConnecting)

	dialer := websocket.Dialer{HandshakeTimeout: s.opts.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.opts.URL, nil)
	if err != nil {
		return false, fmt.Errorf("dial gateway: %w", err)
	}
	if s.isClosing() {
		// Close raced the dial; the connection was never registered.
		conn.Close()
		return false, nil
	}
	s.setConn(conn)

	done := make(chan struct{})
	defer close(done)
	go func() {
		// Unblock the read loop if the caller cancels or closes
		// mid-stream.
		select {
		case <-ctx.Done():
			conn.Close()
		case <-s.closed:
			conn.Close()
		case <-done:
		}
	}()
	defer func() {
		conn.Close()
		s.setConn(nil)
	}()

	s.setState(StateAuthenticating)

	sessionID, resumeToken := s.resumeCreds()
	resuming := resumeToken != ""
	auth := wire.Authenticate{Token: s.opts.Token}
	if resuming {
		auth = wire.Authenticate{SessionID: sessionID, ResumeToken: resumeToken}
	}
	if err := s.send(auth); err != nil {
		return false, fmt.Errorf("send authenticate: %w", err)
	}

	heartbeat, err := s.awaitAuthenticated(conn, resuming)
	if err != nil {
		return false, err
	}

	s.setState(StateReady)
	s.lastPong.Store(time.Now().UnixNano())
	s.logger.Info("session ready",
		zap.Bool("resumed", resuming),
		zap.Duration("heartbeat", heartbeat),
	)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.heartbeatLoop(stop, conn, heartbeat)
	}()

	err = s.readLoop(conn, heartbeat)
	close(stop)
	wg.Wait()
	return true, err
}

// awaitAuthenticated reads frames until the server acknowledges the
// handshake or rejects it. The wait is bounded by the handshake
// timeout; exceeding it is a transport failure, never a silent hang.
func (s *Session) awaitAuthenticated(conn *websocket.Conn, resuming bool) (time.Duration, error) {
	if err := conn.SetReadDeadline(time.Now().Add(s.opts.HandshakeTimeout)); err != nil {
		return 0, fmt.Errorf("set handshake deadline: %w", err)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return 0, fmt.Errorf("handshake read: %w", err)
		}
		s.record(data)

		ev, err := wire.Decode(data)
		if err != nil {
			s.logger.Warn("dropping malformed frame during handshake", zap.Error(err))
			continue
		}

		switch e := ev.(type) {
		case wire.ErrorEvent:
			if resuming {
				// Stale resume credentials. Clear them and retry with
				// the full token; the fresh session gets a Ready
				// baseline that replaces the cache.
				s.clearResume()
				s.logger.Warn("resume rejected, falling back to full authentication",
					zap.String("reason", e.Reason),
				)
				return 0, errResumeRejected
			}
			return 0, &AuthError{Reason: e.Reason}

		case wire.Authenticated:
			if e.SessionID != "" && e.ResumeToken != "" {
				s.storeResume(e.SessionID, e.ResumeToken)
			}
			interval := s.opts.HeartbeatInterval
			if e.HeartbeatMS > 0 {
				interval = time.Duration(e.HeartbeatMS) * time.Millisecond
			}
			s.dispatcher.Dispatch(ev)
			return interval, nil

		default:
			// Servers should not stream before acknowledging, but if
			// one does, preserve order rather than drop.
			s.dispatcher.Dispatch(ev)
		}
	}
}

// readLoop is the sole consumer of inbound frames for one connection.
// Events reach the dispatcher in strict receipt order. A frame that
// fails to decode is reported and skipped; the stream keeps flowing
// unless the connection itself is unusable.
func (s *Session) readLoop(conn *websocket.Conn, heartbeat time.Duration) error {
	staleAfter := 2 * heartbeat

	if err := conn.SetReadDeadline(time.Now().Add(staleAfter)); err != nil {
		return fmt.Errorf("set read deadline: %w", err)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return s.classifyReadError(err)
		}
		conn.SetReadDeadline(time.Now().Add(staleAfter))
		s.record(data)

		ev, err := wire.Decode(data)
		if err != nil {
			s.logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}

		if _, ok := ev.(wire.Pong); ok {
			s.lastPong.Store(time.Now().UnixNano())
		}

		s.dispatcher.Dispatch(ev)
	}
}

// classifyReadError maps a broken read to reconnect policy: auth close
// codes are fatal, non-resumable codes drop the resume token, plain
// transport errors keep it so the next attempt resumes.
func (s *Session) classifyReadError(err error) error {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		if ce.Code == CloseInvalidToken {
			return &AuthError{Reason: ce.Text}
		}
		if !resumableCloseCode(ce.Code) {
			s.clearResume()
		}
		return fmt.Errorf("gateway closed (%d): %w", ce.Code, err)
	}
	return fmt.Errorf("gateway read: %w", err)
}

// heartbeatLoop pings at the advertised cadence and forces a reconnect
// when an ack goes missing for a full interval. The forced close is
// observed by the read loop as a transport error, feeding the normal
// reconnect path.
func (s *Session) heartbeatLoop(stop <-chan struct{}, conn *websocket.Conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastSent int64
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if lastSent != 0 && s.lastPong.Load() < lastSent {
				s.logger.Warn("heartbeat ack missed, forcing reconnect")
				conn.Close()
				return
			}
			nonce := s.pingNonce.Add(1)
			if err := s.send(wire.Ping{Nonce: nonce}); err != nil {
				s.logger.Debug("heartbeat write failed", zap.Error(err))
				conn.Close()
				return
			}
			lastSent = time.Now().UnixNano()
		}
	}
}

// Send transmits a pass-through control frame (typing indicators) on
// the live connection.
func (s *Session) Send(f wire.ControlFrame) error {
	if s.State() != StateReady {
		return ErrNotReady
	}
	return s.send(f)
}

func (s *Session) send(f wire.ControlFrame) error {
	data, err := wire.Encode(f)
	if err != nil {
		return err
	}

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotReady
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

// Close requests graceful shutdown: no further reconnects, transport
// closed, heartbeat cancelled. Safe to call more than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.closing = true
	s.state = StateClosing
	conn := s.conn
	close(s.closed)
	s.mu.Unlock()

	if conn != nil {
		deadline := time.Now().Add(writeWait)
		s.writeMu.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		s.writeMu.Unlock()
		conn.Close()
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SessionID returns the server-assigned id of the current session,
// empty before the first successful handshake.
func (s *Session) SessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing && st != StateDisconnected {
		return
	}
	s.state = st
}

func (s *Session) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

func (s *Session) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *Session) resumeCreds() (sessionID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID, s.resumeToken
}

func (s *Session) canResume() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resumeToken != ""
}

func (s *Session) storeResume(sessionID, token string) {
	s.mu.Lock()
	s.sessionID = sessionID
	s.resumeToken = token
	s.mu.Unlock()
}

func (s *Session) clearResume() {
	s.mu.Lock()
	s.sessionID = ""
	s.resumeToken = ""
	s.mu.Unlock()
}

func (s *Session) record(data []byte) {
	if s.opts.Recorder == nil {
		return
	}
	if err := s.opts.Recorder.Record(data); err != nil {
		s.logger.Debug("frame capture failed", zap.Error(err))
	}
}
