package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"
)

func NewClient(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, errors.New("transport: host required")
	}

	c := &Client{
		host:        cfg.Host,
		port:        cfg.Port,
		path:        cfg.Path,
		credential:  cfg.Credential,
		userAgent:   cfg.UserAgent,
		dialTimeout: time.Duration(cfg.DialTimeoutMs) * time.Millisecond,
		idleTimeout: time.Duration(cfg.IdleTimeoutMs) * time.Millisecond,
	}

	if c.port == 0 {
		c.port = DefaultPort
	}
	if c.path == "" {
		c.path = DefaultPath
	}
	if c.credential == "" && (cfg.Username != "" || cfg.Password != "") {
		c.credential = base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	if c.dialTimeout <= 0 {
		c.dialTimeout = DefaultDialTimeout
	}
	if c.idleTimeout <= 0 {
		c.idleTimeout = DefaultIdleTimeout
	}

	return c, nil
}

func (c *Client) Address() string {
	return net.JoinHostPort(c.host, strconv.Itoa(c.port))
}

// Post sends body in a single HTTP/1.1 request over a fresh connection and
// drains whatever the server answers. The connection is always closed before
// returning. A dial failure is reported as ErrConnect.
func (c *Client) Post(ctx context.Context, body []byte) (Response, error) {
	slog.Debug(">>Post", "address", c.Address())
	defer slog.Debug("<<Post")

	var resp Response

	d := net.Dialer{Timeout: c.dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", c.Address())
	if err != nil {
		return resp, fmt.Errorf("%w: %s: %w", ErrConnect, c.Address(), err)
	}
	defer conn.Close()

	// unblock reads if the process is shutting down
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	slog.Info("connected", "address", c.Address())

	req := BuildRequest(c.host, c.port, c.path, c.credential, c.userAgent, body)

	_ = conn.SetWriteDeadline(time.Now().Add(c.dialTimeout))
	if err := writeAll(conn, req); err != nil {
		return resp, fmt.Errorf("failed to send request: %w", err)
	}

	resp.Raw, err = drain(conn, c.idleTimeout)
	resp.StatusCode, resp.Status = parseStatusLine(resp.Raw)
	if err != nil && ctx.Err() == nil {
		return resp, fmt.Errorf("failed to read response: %w", err)
	}

	return resp, nil
}

// BuildRequest assembles the request bytes. Header order is fixed.
func BuildRequest(host string, port int, path, credential, userAgent string, body []byte) []byte {
	var buf bytes.Buffer

	hostHeader := host
	if port != 0 && port != DefaultPort {
		hostHeader = net.JoinHostPort(host, strconv.Itoa(port))
	} else if strings.Contains(host, ":") {
		// IPv6 literal
		hostHeader = "[" + host + "]"
	}

	fmt.Fprintf(&buf, "POST %s HTTP/1.1\r\n", path)
	fmt.Fprintf(&buf, "Host: %s\r\n", hostHeader)
	if credential != "" {
		fmt.Fprintf(&buf, "Authorization: Basic %s\r\n", credential)
	}
	buf.WriteString("Content-Type: application/json\r\n")
	fmt.Fprintf(&buf, "User-Agent: %s\r\n", userAgent)
	buf.WriteString("Connection: close\r\n")
	fmt.Fprintf(&buf, "Content-Length: %d\r\n", len(body))
	buf.WriteString("\r\n")
	buf.Write(body)

	return buf.Bytes()
}

// drain reads until the peer closes or nothing arrives for idle.
func drain(conn net.Conn, idle time.Duration) ([]byte, error) {
	var out []byte
	chunk := make([]byte, 512)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(idle))
		n, err := conn.Read(chunk)
		if n > 0 {
			slog.Debug("response bytes", "data", string(chunk[:n]))
			out = append(out, chunk[:n]...)
		}

		if err == nil {
			continue
		}

		if errors.Is(err, io.EOF) {
			return out, nil
		}

		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			slog.Debug("response idle timeout", "idle", idle)
			return out, nil
		}

		return out, err
	}
}

// parseStatusLine extracts the code and reason from "HTTP/1.1 200 OK".
func parseStatusLine(raw []byte) (int, string) {
	line, _, _ := bytes.Cut(raw, []byte("\n"))
	line = bytes.TrimRight(line, "\r")

	if !bytes.HasPrefix(line, []byte("HTTP/")) {
		return 0, ""
	}

	_, rest, ok := bytes.Cut(line, []byte(" "))
	if !ok || len(rest) < 3 {
		return 0, ""
	}

	code, err := strconv.Atoi(string(rest[:3]))
	if err != nil {
		return 0, ""
	}

	return code, string(rest)
}

func (r Response) Delivered() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func writeAll(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}

	return nil
}
