package transport

import (
	"errors"
	"time"
)

const (
	DefaultPort        = 80
	DefaultPath        = "/"
	DefaultUserAgent   = "w1-reporter/1.0"
	DefaultDialTimeout = 5 * time.Second
	// DefaultIdleTimeout is the longest gap between received bytes before
	// the response is considered complete.
	DefaultIdleTimeout = 3000 * time.Millisecond
)

var ErrConnect = errors.New("connection failed")

type (
	Config struct {
		Host string `json:"host" yaml:"host"`
		Port int    `json:"port" yaml:"port"`
		Path string `json:"path" yaml:"path"`

		// Credential is an already base64 encoded user:password pair. When
		// empty, Username and Password are encoded instead. No Authorization
		// header is sent when neither is set.
		Credential string `json:"credential" yaml:"credential"`
		Username   string `json:"username" yaml:"username"`
		Password   string `json:"password" yaml:"password"`

		UserAgent     string `json:"user_agent" yaml:"user_agent"`
		DialTimeoutMs int    `json:"dial_timeout_ms" yaml:"dial_timeout_ms"`
		IdleTimeoutMs int    `json:"idle_timeout_ms" yaml:"idle_timeout_ms"`
	}

	// Response holds everything the server sent before closing or going
	// idle. StatusCode is 0 when no status line could be parsed.
	Response struct {
		Raw        []byte
		StatusCode int
		Status     string
	}

	Client struct {
		host        string
		port        int
		path        string
		credential  string
		userAgent   string
		dialTimeout time.Duration
		idleTimeout time.Duration
	}
)
