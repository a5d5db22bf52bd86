// Package revoltkit is a client library for Revolt-style chat
// platforms. It keeps a long-lived gateway session, mirrors server
// state into an in-memory cache, and hands every decoded event to the
// application after the cache already reflects it.
package revoltkit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/revoltkit/cache"
	"github.com/dgnsrekt/revoltkit/config"
	"github.com/dgnsrekt/revoltkit/dispatch"
	"github.com/dgnsrekt/revoltkit/gateway"
	"github.com/dgnsrekt/revoltkit/model"
	"github.com/dgnsrekt/revoltkit/rest"
	"github.com/dgnsrekt/revoltkit/wire"
)

// Options configures a Client.
type Options struct {
	GatewayURL string
	APIBaseURL string
	Token      string

	HandshakeTimeout  time.Duration
	HeartbeatInterval time.Duration
	BackoffMin        time.Duration
	BackoffMax        time.Duration

	APITimeout       time.Duration
	APIRetryCount    int
	APIRetryDelay    time.Duration
	APIRatePerSecond int

	// Recorder, when set, captures raw gateway frames.
	Recorder gateway.Recorder

	// Logger defaults to zap.NewNop.
	Logger *zap.Logger
}

// Client wires the cache store, updater, dispatcher, gateway session,
// and REST client together.
type Client struct {
	store      *cache.Store
	dispatcher *dispatch.Dispatcher
	session    *gateway.Session
	rest       *rest.HTTPClient
	logger     *zap.Logger

	mu      sync.Mutex
	started bool
	err     error
	done    chan struct{}
}

// New creates a client. Start must be called to connect.
func New(opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store := cache.NewStore()
	updater := cache.NewUpdater(store, logger.Named("cache"))
	dispatcher := dispatch.New(updater, logger.Named("dispatch"))

	session := gateway.NewSession(gateway.Options{
		URL:               opts.GatewayURL,
		Token:             opts.Token,
		HandshakeTimeout:  opts.HandshakeTimeout,
		HeartbeatInterval: opts.HeartbeatInterval,
		BackoffMin:        opts.BackoffMin,
		BackoffMax:        opts.BackoffMax,
		Recorder:          opts.Recorder,
	}, dispatcher, logger.Named("gateway"))

	if opts.APITimeout <= 0 {
		opts.APITimeout = 30 * time.Second
	}
	if opts.APIRetryCount <= 0 {
		opts.APIRetryCount = 3
	}
	if opts.APIRetryDelay <= 0 {
		opts.APIRetryDelay = time.Second
	}
	if opts.APIRatePerSecond <= 0 {
		opts.APIRatePerSecond = 5
	}
	restClient := rest.NewClient(opts.APIBaseURL, opts.Token, opts.APIRatePerSecond,
		opts.APITimeout, opts.APIRetryDelay, opts.APIRetryCount, logger.Named("rest"))

	return &Client{
		store:      store,
		dispatcher: dispatcher,
		session:    session,
		rest:       restClient,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// OptionsFromConfig translates a loaded configuration into Options.
// Callers can adjust the result (attach a Recorder, swap the logger)
// before handing it to New.
func OptionsFromConfig(cfg *config.Config, logger *zap.Logger) Options {
	return Options{
		GatewayURL:        cfg.Gateway.URL,
		APIBaseURL:        cfg.API.BaseURL,
		Token:             cfg.Gateway.Token,
		HandshakeTimeout:  time.Duration(cfg.Gateway.HandshakeTimeoutSec) * time.Second,
		HeartbeatInterval: time.Duration(cfg.Gateway.HeartbeatSec) * time.Second,
		BackoffMin:        time.Duration(cfg.Gateway.BackoffMinSec) * time.Second,
		BackoffMax:        time.Duration(cfg.Gateway.BackoffMaxSec) * time.Second,
		APITimeout:        time.Duration(cfg.API.TimeoutSec) * time.Second,
		APIRetryCount:     cfg.API.RetryCount,
		APIRetryDelay:     time.Duration(cfg.API.RetryDelaySec) * time.Second,
		APIRatePerSecond:  cfg.API.RatePerSecond,
		Logger:            logger,
	}
}

// FromConfig builds a client from a loaded configuration.
func FromConfig(cfg *config.Config, logger *zap.Logger) *Client {
	return New(OptionsFromConfig(cfg, logger))
}

// Start runs the gateway session in the background. The session
// reconnects on its own; Done is closed only when it ends for good,
// either graceful shutdown or a credential rejection, never a
// transient fault.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go func() {
		err := c.session.Run(ctx)
		c.dispatcher.Close()
		c.mu.Lock()
		c.err = err
		c.mu.Unlock()
		close(c.done)
	}()
}

// Done is closed when the session has terminally ended.
func (c *Client) Done() <-chan struct{} { return c.done }

// Err returns the terminal cause after Done is closed: nil for
// graceful shutdown, an AuthError for credential rejection.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Close requests graceful shutdown.
func (c *Client) Close() {
	c.session.Close()
}

// Cache exposes the state mirror for direct reads.
func (c *Client) Cache() *cache.Store { return c.store }

// Rest exposes the REST collaborator.
func (c *Client) Rest() *rest.HTTPClient { return c.rest }

// State returns the gateway session state.
func (c *Client) State() gateway.State { return c.session.State() }

// OnEvent registers a subscriber called for every decoded event after
// cache application. Returns an id for OffEvent.
func (c *Client) OnEvent(fn dispatch.HandlerFunc) int {
	return c.dispatcher.Subscribe(fn)
}

// OffEvent removes a subscriber.
func (c *Client) OffEvent(id int) {
	c.dispatcher.Unsubscribe(id)
}

// Events returns a buffered event channel and its cancel func. Slow
// consumers drop events rather than stalling the stream.
func (c *Client) Events(buffer int) (<-chan wire.Event, func()) {
	return c.dispatcher.SubscribeChan(buffer)
}

// User returns a user from the cache, falling back to the REST API on
// a miss. Fetched snapshots are committed so the next lookup hits.
func (c *Client) User(ctx context.Context, id string) (model.User, error) {
	if snap, ok := c.store.Get(model.KindUser, id); ok {
		return snap.(model.User), nil
	}
	u, err := c.rest.FetchUser(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	c.store.Put(model.KindUser, u)
	return u, nil
}

// Server returns a server from the cache, falling back to REST.
func (c *Client) Server(ctx context.Context, id string) (model.Server, error) {
	if snap, ok := c.store.Get(model.KindServer, id); ok {
		return snap.(model.Server), nil
	}
	sv, err := c.rest.FetchServer(ctx, id)
	if err != nil {
		return model.Server{}, err
	}
	c.store.Put(model.KindServer, sv)
	return sv, nil
}

// Channel returns a channel from the cache, falling back to REST.
func (c *Client) Channel(ctx context.Context, id string) (model.Channel, error) {
	if snap, ok := c.store.Get(model.KindChannel, id); ok {
		return snap.(model.Channel), nil
	}
	ch, err := c.rest.FetchChannel(ctx, id)
	if err != nil {
		return model.Channel{}, err
	}
	c.store.Put(model.KindChannel, ch)
	return ch, nil
}

// SendMessage posts a message through the REST API.
func (c *Client) SendMessage(ctx context.Context, channelID, content string) (model.Message, error) {
	return c.rest.SendMessage(ctx, channelID, content)
}

// BeginTyping starts a typing indicator in a channel.
func (c *Client) BeginTyping(channelID string) error {
	return c.session.Send(wire.BeginTyping{Channel: channelID})
}

// EndTyping stops a typing indicator in a channel.
func (c *Client) EndTyping(channelID string) error {
	return c.session.Send(wire.EndTyping{Channel: channelID})
}
