package base

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dShop/rpc/common"
	"github.com/ValentinKolb/dShop/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport/rpc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection based on the provided configuration
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// reply is what the reader of a connection hands to a waiting request
type reply struct {
	payload []byte
	err     error
}

// clientConnection is one stream to an endpoint. Requests are written under mu,
// responses are matched to the waiting request by the reader goroutine.
type clientConnection struct {
	endpoint string
	parent   *clientTransport
	done     chan struct{} // closed by close
	pending  *xsync.MapOf[uint64, chan reply]

	mu   sync.Mutex // guards conn and serializes writes
	conn net.Conn
}

// clientTransport spreads requests round robin over a pool of connections
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector IClientConnector
	config    common.ClientConfig
	limit     int
	timeout   time.Duration

	mu          sync.RWMutex // guards connections
	connections []*clientConnection

	nextConn    atomic.Uint64
	nextRequest atomic.Uint64
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{connector: connector}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if len(config.Transport.Endpoints) == 0 {
		return fmt.Errorf("no endpoints provided")
	}
	t.closeConnections()

	t.config = config
	t.limit = config.Transport.FrameLimit()
	t.timeout = time.Duration(config.TimeoutSecond) * time.Second

	perEndpoint := max(1, config.Transport.ConnectionsPerEndpoint)
	total := len(config.Transport.Endpoints) * perEndpoint

	connections := make([]*clientConnection, 0, total)
	for _, endpoint := range config.Transport.Endpoints {
		for i := 0; i < perEndpoint; i++ {
			c := &clientConnection{
				endpoint: endpoint,
				parent:   t,
				done:     make(chan struct{}),
				pending:  xsync.NewMapOf[uint64, chan reply](),
			}
			if err := c.dial(); err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, perEndpoint, err)
				continue
			}
			connections = append(connections, c)
			go c.readLoop()
		}
	}

	if len(connections) == 0 {
		return fmt.Errorf("failed to connect to any endpoint")
	}

	t.mu.Lock()
	t.connections = connections
	t.mu.Unlock()

	Logger.Infof("Connected %d of %d connections to %d endpoints using %s transport",
		len(connections), total, len(config.Transport.Endpoints), t.connector.GetName())
	return nil
}

func (t *clientTransport) Send(shardId uint64, req []byte) (resp []byte, err error) {
	out := frame{shardID: shardId, requestID: t.nextRequest.Add(1), payload: req}
	attempts := max(1, t.config.Transport.RetryCount)

	var lastErr error
	for i := 0; i < attempts; i++ {
		c := t.pick()
		if c == nil {
			return nil, fmt.Errorf("no active connections available")
		}

		resp, err := c.roundTrip(out)
		if err == nil {
			return resp, nil
		}

		// An oversized request fails the same way on every connection
		var tooLarge *transport.FrameTooLargeError
		if errors.As(err, &tooLarge) {
			return nil, err
		}

		lastErr = err
		Logger.Debugf("Request attempt %d/%d failed: %v", i+1, attempts, err)
		if i < attempts-1 {
			time.Sleep(backoff(i))
		}
	}

	return nil, fmt.Errorf("failed to send request after %d attempts: %w", attempts, lastErr)
}

func (t *clientTransport) Close() error {
	t.closeConnections()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// backoff returns the pause after the given failed attempt,
// 50ms doubled per attempt with a jitter of +-10%
func backoff(attempt int) time.Duration {
	d := 50 * time.Millisecond << min(attempt, 8)
	return time.Duration(float64(d) * (0.9 + 0.2*rand.Float64()))
}

// pick returns the next connection round robin or nil if there is none
func (t *clientTransport) pick() *clientConnection {
	t.mu.RLock()
	defer t.mu.RUnlock()

	n := uint64(len(t.connections))
	if n == 0 {
		return nil
	}
	return t.connections[t.nextConn.Add(1)%n]
}

// closeConnections closes and forgets all connections
func (t *clientTransport) closeConnections() {
	t.mu.Lock()
	connections := t.connections
	t.connections = nil
	t.mu.Unlock()

	for _, c := range connections {
		c.close()
	}
}

// roundTrip writes one request and waits for its response, the configured timeout
// or the connection being closed
func (c *clientConnection) roundTrip(req frame) ([]byte, error) {
	ch := make(chan reply, 1)
	c.pending.Store(req.requestID, ch)
	defer c.pending.Delete(req.requestID)

	if err := c.write(req); err != nil {
		return nil, err
	}

	var timeout <-chan time.Time
	if c.parent.timeout > 0 {
		timer := time.NewTimer(c.parent.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case r := <-ch:
		return r.payload, r.err
	case <-timeout:
		return nil, fmt.Errorf("request %d to %s timed out after %s", req.requestID, c.endpoint, c.parent.timeout)
	case <-c.done:
		return nil, fmt.Errorf("connection to %s closed", c.endpoint)
	}
}

// write sends a frame under the connection lock
func (c *clientConnection) write(f frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return fmt.Errorf("connection to %s is not established", c.endpoint)
	}
	if c.parent.timeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.parent.timeout)); err != nil {
			return err
		}
	}
	return f.writeTo(c.conn, c.parent.limit)
}

// readLoop hands every response to its waiting request. If the stream breaks all
// pending requests of the connection fail and the connection is dialed again.
func (c *clientConnection) readLoop() {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		// No read deadline, roundTrip enforces the request timeout
		in, err := readFrame(conn, nil, c.parent.limit)
		if err == nil {
			c.deliver(in.requestID, reply{payload: in.payload})
			continue
		}
		if c.closed() {
			return
		}

		var tooLarge *transport.FrameTooLargeError
		if errors.As(err, &tooLarge) {
			c.deliver(in.requestID, reply{err: err})
		}
		Logger.Warningf("Lost connection to %s: %v", c.endpoint, err)
		c.failPending(err)

		if err := c.dial(); err != nil {
			if !c.closed() {
				Logger.Errorf("Failed to reconnect to %s: %v", c.endpoint, err)
			}
			return
		}
	}
}

// deliver passes a reply to the request waiting for requestID
func (c *clientConnection) deliver(requestID uint64, r reply) {
	ch, ok := c.pending.Load(requestID)
	if !ok {
		Logger.Warningf("Received response for unknown request ID %d from %s", requestID, c.endpoint)
		return
	}
	select {
	case ch <- r:
	default: // already answered
	}
}

// failPending fails every request still waiting on this connection
func (c *clientConnection) failPending(cause error) {
	err := fmt.Errorf("connection to %s lost: %w", c.endpoint, cause)
	c.pending.Range(func(_ uint64, ch chan reply) bool {
		select {
		case ch <- reply{err: err}:
		default:
		}
		return true
	})
}

// dial establishes the connection, replacing a previous one
func (c *clientConnection) dial() error {
	conn, err := c.parent.connector.Connect(c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}
	if err := c.parent.connector.UpgradeConnection(conn, c.parent.config); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to upgrade connection to %s: %w", c.endpoint, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		_ = c.conn.Close()
	}
	if c.closed() {
		_ = conn.Close()
		c.conn = nil
		return net.ErrClosed
	}
	c.conn = conn
	return nil
}

func (c *clientConnection) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// close stops the reader and closes the stream
func (c *clientConnection) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	close(c.done)
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}
