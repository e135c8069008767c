package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	paho_mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	DefaultClientID = "w1-reporter"
	DefaultTopic    = "w1/readings"

	tokenTimeout = time.Second * 5
	disconnectMs = 250
)

var ErrTimeout = errors.New("mqtt: timed out waiting for broker")

type Config struct {
	Broker   string `json:"broker" yaml:"broker"`
	ClientID string `json:"client_id" yaml:"client_id"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	Topic    string `json:"topic" yaml:"topic"`
}

// client is the part of paho_mqtt.Client the publisher uses.
type client interface {
	Connect() paho_mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho_mqtt.Token
	Disconnect(quiesce uint)
}

type Publisher struct {
	client client
	topic  string
}

// NewClient builds a paho client for the broker in cfg. It reconnects on its
// own after the first successful Connect.
func NewClient(cfg Config) paho_mqtt.Client {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}

	opts := paho_mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetConnectTimeout(tokenTimeout).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ paho_mqtt.Client, err error) {
			slog.Warn("mqtt connection lost", "error", err)
		})

	return paho_mqtt.NewClient(opts)
}

func New(c client, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}

	return &Publisher{
		client: c,
		topic:  topic,
	}
}

func (p *Publisher) Name() string {
	return "mqtt"
}

func (p *Publisher) Connect() error {
	slog.Debug(">>mqtt.Connect")
	defer slog.Debug("<<mqtt.Connect")

	return wait(p.client.Connect())
}

// Publish sends payload to the configured topic at QoS 0, not retained.
func (p *Publisher) Publish(ctx context.Context, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := wait(p.client.Publish(p.topic, 0, false, payload)); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}

	return nil
}

func (p *Publisher) Close() {
	p.client.Disconnect(disconnectMs)
}

func wait(token paho_mqtt.Token) error {
	if !token.WaitTimeout(tokenTimeout) {
		return ErrTimeout
	}

	return token.Error()
}
