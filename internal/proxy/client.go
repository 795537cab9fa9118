package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// checkTimeout is the minimum time allowed for the SOCKS5 handshake
// performed by CheckConnection.
const checkTimeout = 2 * time.Second

// SOCKS5 protocol constants
const (
	socks5Version       = 0x05
	socks5AuthNone      = 0x00
	socks5CmdConnect    = 0x01
	socks5AddrTypeDomID = 0x03

	// socks5ProbeHost is a reserved name that never resolves. The probe only
	// needs the proxy to answer the CONNECT request, not to succeed.
	socks5ProbeHost = "coinhunter-probe.invalid"
)

// Client dials through a SOCKS5 proxy.
type Client struct {
	// address is the proxy address in "host:port" format.
	address string

	// dialer is the SOCKS5 dialer. Its forward dialer carries the connect
	// timeout.
	dialer proxy.Dialer

	// connectTimeout bounds establishing the TCP connection to the proxy.
	connectTimeout time.Duration
}

// NewClient creates a Client for the SOCKS5 proxy at address.
// connectTimeout bounds establishing the TCP connection to the proxy.
//
// NewClient validates the address but does not contact the proxy.
// Call CheckConnection to verify it.
func NewClient(address string, connectTimeout time.Duration) (*Client, error) {
	if !isValidAddress(address) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	forward := &net.Dialer{Timeout: connectTimeout}
	dialer, err := proxy.SOCKS5("tcp", address, nil, forward)
	if err != nil {
		return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
	}

	return &Client{
		address:        address,
		dialer:         dialer,
		connectTimeout: connectTimeout,
	}, nil
}

// isValidAddress checks that address is "host:port" with a port in 1-65535.
func isValidAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 65535
}

// Address returns the configured proxy address.
func (c *Client) Address() string {
	return c.address
}

// DialContext establishes a TCP connection to address through the proxy.
func (c *Client) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	if cd, ok := c.dialer.(proxy.ContextDialer); ok {
		return cd.DialContext(ctx, network, address)
	}

	type dialResult struct {
		conn net.Conn
		err  error
	}
	resultCh := make(chan dialResult, 1)

	go func() {
		conn, err := c.dialer.Dial(network, address)
		resultCh <- dialResult{conn, err}
	}()

	select {
	case result := <-resultCh:
		return result.conn, result.err
	case <-ctx.Done():
		// Close a connection that arrives after we gave up.
		go func() {
			if result := <-resultCh; result.conn != nil {
				_ = result.conn.Close()
			}
		}()
		return nil, ctx.Err()
	}
}

// Transport returns an HTTP transport that dials through the proxy.
func (c *Client) Transport() *http.Transport {
	return &http.Transport{
		DialContext:         c.DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
}

// handshakeTimeout is the connect timeout, but never less than checkTimeout.
func (c *Client) handshakeTimeout() time.Duration {
	return max(c.connectTimeout, checkTimeout)
}

// CheckConnection verifies that the proxy is reachable and speaks SOCKS5.
//
// It performs the SOCKS5 greeting offering "no authentication" and then
// sends a CONNECT request for an unresolvable probe host. Any well-formed
// SOCKS5 reply, including a failure code, counts as success.
func (c *Client) CheckConnection(ctx context.Context) Status {
	timeout := c.handshakeTimeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.address)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return StatusTimeout
		}
		return StatusCannotConnect
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return StatusCannotConnect
	}

	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return StatusCannotConnect
	}

	authResp := make([]byte, 2)
	if _, err := io.ReadFull(conn, authResp); err != nil {
		return readFailure(err)
	}
	if authResp[0] != socks5Version || authResp[1] != socks5AuthNone {
		return StatusWrongType
	}

	const probePort = 80
	req := []byte{
		socks5Version,
		socks5CmdConnect,
		0x00, // reserved
		socks5AddrTypeDomID,
		byte(len(socks5ProbeHost)),
	}
	req = append(req, socks5ProbeHost...)
	req = append(req, byte(probePort>>8), byte(probePort&0xFF))

	if _, err := conn.Write(req); err != nil {
		return StatusCannotConnect
	}

	// version + reply + reserved + address type
	resp := make([]byte, 4)
	if _, err := io.ReadFull(conn, resp); err != nil {
		return readFailure(err)
	}
	if resp[0] != socks5Version {
		return StatusWrongType
	}

	return StatusOK
}

func readFailure(err error) Status {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusTimeout
	}
	return StatusWrongType
}
