// Package slcan implements the bridge's inbound/outbound CAN transport:
// a line-oriented SLCAN framing (T<id:8hex><len:1>[<data:2N hex>]\r)
// carried over a TCP connection to a network-attached CAN interface.
package slcan

import (
	"bufio"
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/rvcbridge/internal/rvc/frame"
)

// closeOnce wraps a channel with sync.Once to prevent double-close panics,
// following the teacher's internal/bridges/knx/knxd.go idiom.
type closeOnce struct {
	ch   chan struct{}
	once sync.Once
}

func newCloseOnce() *closeOnce {
	return &closeOnce{ch: make(chan struct{})}
}

func (c *closeOnce) Close() { c.once.Do(func() { close(c.ch) }) }

func (c *closeOnce) Done() <-chan struct{} { return c.ch }

// Default timeouts and intervals, same shape as the teacher's KNXDConfig.
const (
	defaultConnectTimeout    = 10 * time.Second
	defaultReadTimeout       = 30 * time.Second
	defaultWriteTimeout      = 5 * time.Second
	defaultReconnectInterval = 5 * time.Second
	maxReconnectInterval     = 2 * time.Minute

	inboundQueueSize = 256
	maxLineLength    = 64
)

// Config holds SLCAN TCP connection configuration.
type Config struct {
	// Address is "host:port" of the network-attached CAN interface.
	Address string

	ConnectTimeout    time.Duration
	ReadTimeout       time.Duration
	ReconnectInterval time.Duration
}

// Stats holds operational statistics, mirroring the teacher's KNXDStats.
type Stats struct {
	FramesTx        uint64
	FramesRx        uint64
	FramesDropped   uint64
	ErrorsTotal     uint64
	ReconnectsTotal uint64
	LastActivity    time.Time
	Connected       bool
	Reconnecting    bool
}

// Logger is the optional logging surface.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Client implements bridge.FrameTransport over a SLCAN TCP connection,
// with automatic reconnection on read failure.
//
// Thread Safety: ReadFrame/WriteFrame/Close are all safe for concurrent
// use; WriteFrame serializes writes since SLCAN is a single shared byte
// stream and interleaved writes would corrupt framing.
type Client struct {
	cfg Config

	connMu    sync.RWMutex
	conn      net.Conn
	connected bool

	reconnecting   atomic.Bool
	reconnectCount atomic.Int32

	writeMu sync.Mutex

	inbound chan frame.Raw

	done *closeOnce
	wg   sync.WaitGroup

	logger   Logger
	loggerMu sync.RWMutex

	framesTx        atomic.Uint64
	framesRx        atomic.Uint64
	framesDropped   atomic.Uint64
	errorsTotal     atomic.Uint64
	reconnectsTotal atomic.Uint64
	lastActivity    atomic.Int64
}

// Connect dials the SLCAN interface and starts the background receive
// loop that feeds ReadFrame.
func Connect(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.ReconnectInterval == 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}

	conn, err := dialWithTimeout(ctx, cfg.Address, cfg.ConnectTimeout)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:       cfg,
		conn:      conn,
		connected: true,
		done:      newCloseOnce(),
		inbound:   make(chan frame.Raw, inboundQueueSize),
	}
	c.lastActivity.Store(time.Now().Unix())

	c.wg.Add(1)
	go c.receiveLoop()

	return c, nil
}

func dialWithTimeout(ctx context.Context, address string, timeout time.Duration) (net.Conn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(dialCtx, "tcp", address)
	if err != nil {
		return nil, &wrappedError{ErrConnectionFailed, err}
	}
	return conn, nil
}

// ReadFrame blocks until a frame arrives, ctx is cancelled, or the
// transport is closed.
func (c *Client) ReadFrame(ctx context.Context) (frame.Raw, error) {
	select {
	case <-ctx.Done():
		return frame.Raw{}, ctx.Err()
	case <-c.done.Done():
		return frame.Raw{}, ErrClosed
	case raw := <-c.inbound:
		return raw, nil
	}
}

// WriteFrame encodes and writes one SLCAN transmit line for arbID/payload.
func (c *Client) WriteFrame(ctx context.Context, arbID uint32, payload []byte) error {
	line, err := encodeLine(arbID, payload)
	if err != nil {
		return err
	}

	c.connMu.RLock()
	conn := c.conn
	connected := c.connected
	c.connMu.RUnlock()

	if !connected || conn == nil {
		return ErrNotConnected
	}

	deadline := time.Now().Add(defaultWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := conn.SetWriteDeadline(deadline); err != nil {
		return &wrappedError{ErrConnectionFailed, err}
	}
	if _, err := conn.Write([]byte(line)); err != nil {
		c.errorsTotal.Add(1)
		return &wrappedError{ErrConnectionFailed, err}
	}

	c.framesTx.Add(1)
	c.lastActivity.Store(time.Now().Unix())
	return nil
}

// Close stops the receive loop and closes the underlying connection. Safe
// to call multiple times.
func (c *Client) Close() error {
	c.done.Close()

	c.connMu.Lock()
	c.connected = false
	conn := c.conn
	c.connMu.Unlock()

	if conn != nil {
		conn.Close()
	}

	c.wg.Wait()
	c.logInfo("slcan connection closed")
	return nil
}

// IsConnected reports the last known connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected
}

// Stats returns current operational statistics.
func (c *Client) Stats() Stats {
	return Stats{
		FramesTx:        c.framesTx.Load(),
		FramesRx:        c.framesRx.Load(),
		FramesDropped:   c.framesDropped.Load(),
		ErrorsTotal:     c.errorsTotal.Load(),
		ReconnectsTotal: c.reconnectsTotal.Load(),
		LastActivity:    time.Unix(c.lastActivity.Load(), 0),
		Connected:       c.IsConnected(),
		Reconnecting:    c.reconnecting.Load(),
	}
}

// SetLogger installs a logger for connection-lifecycle reporting.
func (c *Client) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Client) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

func (c *Client) logInfo(msg string, kv ...any) {
	if logger := c.getLogger(); logger != nil {
		logger.Info(msg, kv...)
	}
}

func (c *Client) logWarn(msg string, kv ...any) {
	if logger := c.getLogger(); logger != nil {
		logger.Warn(msg, kv...)
	}
}

func (c *Client) logError(msg string, err error) {
	if logger := c.getLogger(); logger != nil {
		logger.Error(msg, "error", err)
	}
}

// receiveLoop reads SLCAN lines and decodes them into the inbound queue.
// On read failure it attempts reconnection with exponential backoff,
// following the teacher's knxd.go receiveLoop/reconnect shape.
func (c *Client) receiveLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done.Done():
			return
		default:
		}

		c.connMu.RLock()
		conn := c.conn
		c.connMu.RUnlock()
		if conn == nil {
			if !c.reconnect() {
				return
			}
			continue
		}

		if err := c.scanLines(conn); err != nil {
			if c.isClosed() {
				return
			}
			c.handleDisconnect()
			if !c.reconnect() {
				return
			}
		}
	}
}

func (c *Client) scanLines(conn net.Conn) error {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, maxLineLength), maxLineLength)
	scanner.Split(scanLinesCR)

	for scanner.Scan() {
		select {
		case <-c.done.Done():
			return nil
		default:
		}

		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] != 'T' {
			// Non-extended ("t") frames and any other line prefix are
			// ignored per spec.md §8.
			continue
		}

		raw, err := decodeLine(line)
		if err != nil {
			c.errorsTotal.Add(1)
			c.logError("malformed slcan line", err)
			continue
		}

		c.framesRx.Add(1)
		c.lastActivity.Store(time.Now().Unix())

		select {
		case c.inbound <- raw:
		default:
			c.framesDropped.Add(1)
			c.logWarn("inbound queue full, dropping frame")
		}
	}
	return scanner.Err()
}

// scanLinesCR is a bufio.SplitFunc that splits on the SLCAN carriage
// return terminator instead of newlines.
func scanLinesCR(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		if b == '\r' {
			return i + 1, data[:i], nil
		}
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func (c *Client) handleDisconnect() {
	c.connMu.Lock()
	wasConnected := c.connected
	c.connected = false
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connMu.Unlock()

	if wasConnected {
		c.logWarn("slcan connection lost, will attempt reconnection")
	}
}

// reconnect attempts to re-establish the connection with exponential
// backoff. Returns true on success, false if shutdown was signalled.
func (c *Client) reconnect() bool {
	if !c.reconnecting.CompareAndSwap(false, true) {
		return c.waitForReconnection()
	}
	defer c.reconnecting.Store(false)

	backoff := c.cfg.ReconnectInterval
	if backoff == 0 {
		backoff = defaultReconnectInterval
	}

	for {
		if c.isClosed() {
			return false
		}

		attempt := c.reconnectCount.Add(1)
		c.logInfo("attempting slcan reconnection", "attempt", attempt, "backoff", backoff.String())

		conn, err := dialWithTimeout(context.Background(), c.cfg.Address, c.cfg.ConnectTimeout)
		if err != nil {
			c.errorsTotal.Add(1)
			c.logError("slcan reconnect dial failed", err)

			select {
			case <-c.done.Done():
				return false
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * 1.5)
			if backoff > maxReconnectInterval {
				backoff = maxReconnectInterval
			}
			continue
		}

		c.connMu.Lock()
		c.conn = conn
		c.connected = true
		c.connMu.Unlock()

		c.reconnectCount.Store(0)
		c.reconnectsTotal.Add(1)
		c.lastActivity.Store(time.Now().Unix())
		c.logInfo("slcan reconnection successful", "total_reconnects", c.reconnectsTotal.Load())
		return true
	}
}

func (c *Client) waitForReconnection() bool {
	for c.reconnecting.Load() && !c.isClosed() {
		time.Sleep(100 * time.Millisecond)
	}
	return !c.isClosed() && c.IsConnected()
}

func (c *Client) isClosed() bool {
	select {
	case <-c.done.Done():
		return true
	default:
		return false
	}
}

type wrappedError struct {
	sentinel error
	cause    error
}

func (e *wrappedError) Error() string { return e.sentinel.Error() + ": " + e.cause.Error() }
func (e *wrappedError) Unwrap() error { return e.sentinel }
