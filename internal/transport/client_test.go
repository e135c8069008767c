package transport

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBody = `{ "readings": { "0x28ff123456789abc": 20.50 } }`

func TestBuildRequestHeaderOrder(t *testing.T) {
	req := BuildRequest("api.example.com", 80, "/v1/ingest", "dXNlcjpwYXNz", "w1-test", []byte(testBody))

	want := "POST /v1/ingest HTTP/1.1\r\n" +
		"Host: api.example.com\r\n" +
		"Authorization: Basic dXNlcjpwYXNz\r\n" +
		"Content-Type: application/json\r\n" +
		"User-Agent: w1-test\r\n" +
		"Connection: close\r\n" +
		"Content-Length: " + strconv.Itoa(len(testBody)) + "\r\n" +
		"\r\n" +
		testBody

	assert.Equal(t, want, string(req))
}

func TestBuildRequestWithoutCredential(t *testing.T) {
	req := string(BuildRequest("10.0.0.2", 8080, "/", "", "w1-test", []byte(`{ "readings": {} }`)))

	assert.NotContains(t, req, "Authorization")
	assert.Contains(t, req, "Host: 10.0.0.2:8080\r\n")
	assert.Contains(t, req, "Content-Length: 18\r\n")
}

func TestBuildRequestBracketsIPv6Host(t *testing.T) {
	req := string(BuildRequest("::1", 80, "/", "", "w1-test", nil))
	assert.Contains(t, req, "Host: [::1]\r\n")

	req = string(BuildRequest("fe80::2", 8080, "/", "", "w1-test", nil))
	assert.Contains(t, req, "Host: [fe80::2]:8080\r\n")
}

func TestBuildRequestIsParseable(t *testing.T) {
	body := []byte(testBody)
	raw := BuildRequest("localhost", 9000, "/readings", "", DefaultUserAgent, body)

	r, err := http.ReadRequest(bufio.NewReader(strings.NewReader(string(raw))))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, r.Method)
	assert.Equal(t, "/readings", r.URL.Path)
	assert.Equal(t, "localhost:9000", r.Host)
	assert.Equal(t, int64(len(body)), r.ContentLength)
	assert.True(t, r.Close)

	got, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Equal(t, testBody, string(got))
}

func TestNewClientDefaults(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)

	c, err := NewClient(Config{Host: "example.com", Username: "user", Password: "pass"})
	require.NoError(t, err)

	assert.Equal(t, "example.com:80", c.Address())
	assert.Equal(t, DefaultPath, c.path)
	assert.Equal(t, "dXNlcjpwYXNz", c.credential)
	assert.Equal(t, DefaultIdleTimeout, c.idleTimeout)

	c, err = NewClient(Config{Host: "example.com", Credential: "abc", Username: "user"})
	require.NoError(t, err)
	assert.Equal(t, "abc", c.credential)
}

// serve accepts one connection, reads the full request and hands the
// connection to respond.
func serve(t *testing.T, respond func(conn net.Conn)) (*Client, <-chan *http.Request) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	reqs := make(chan *http.Request, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r, err := http.ReadRequest(bufio.NewReader(conn))
		if err != nil {
			return
		}
		_, _ = io.ReadAll(io.LimitReader(r.Body, r.ContentLength))
		reqs <- r

		respond(conn)
	}()

	addr := ln.Addr().(*net.TCPAddr)
	c, err := NewClient(Config{
		Host:          "127.0.0.1",
		Port:          addr.Port,
		Path:          "/ingest",
		IdleTimeoutMs: 200,
	})
	require.NoError(t, err)

	return c, reqs
}

func TestPostReadsUntilClose(t *testing.T) {
	c, reqs := serve(t, func(conn net.Conn) {
		_, _ = io.WriteString(conn, "HTTP/1.1 201 Created\r\nContent-Length: 0\r\n\r\n")
	})

	resp, err := c.Post(context.Background(), []byte(testBody))
	require.NoError(t, err)

	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "201 Created", resp.Status)
	assert.True(t, resp.Delivered())

	r := <-reqs
	assert.Equal(t, "/ingest", r.URL.Path)
	assert.Equal(t, int64(len(testBody)), r.ContentLength)
}

func TestPostStopsAfterIdleTimeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	c, _ := serve(t, func(conn net.Conn) {
		_, _ = io.WriteString(conn, "HTTP/1.1 500 Internal Server Error\r\n\r\n")
		// hold the connection open
		<-release
	})

	start := time.Now()
	resp, err := c.Post(context.Background(), []byte(testBody))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	assert.Equal(t, 500, resp.StatusCode)
	assert.False(t, resp.Delivered())
	assert.Contains(t, string(resp.Raw), "Internal Server Error")
}

func TestPostConnectFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	c, err := NewClient(Config{Host: "127.0.0.1", Port: port, DialTimeoutMs: 500})
	require.NoError(t, err)

	_, err = c.Post(context.Background(), []byte(testBody))
	assert.ErrorIs(t, err, ErrConnect)
}

func TestParseStatusLine(t *testing.T) {
	tests := map[string]struct {
		raw    string
		code   int
		status string
	}{
		"ok":      {"HTTP/1.1 200 OK\r\n\r\n", 200, "200 OK"},
		"no crlf": {"HTTP/1.0 404 Not Found", 404, "404 Not Found"},
		"empty":   {"", 0, ""},
		"garbage": {"hello world\r\n", 0, ""},
		"short":   {"HTTP/1.1 2", 0, ""},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			code, status := parseStatusLine([]byte(tc.raw))
			assert.Equal(t, tc.code, code)
			assert.Equal(t, tc.status, status)
		})
	}
}
