// Package publisher pushes stored readings to an MQTT broker so dashboards
// and downstream collectors can follow the air quality feed without polling
// the HTTP API. Publishing is fire-and-forget; the prediction path never
// depends on the broker being up.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aqi_backend/internal/logger"
	"aqi_backend/internal/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTConfig describes the broker connection and target topic.
type MQTTConfig struct {
	Broker   string // hostname or IP, no scheme
	Port     int
	ClientID string
	Topic    string
}

// publishWait bounds how long a QoS 0 publish may hold the request path.
const publishWait = time.Second

// pahoClient is the slice of mqtt.Client the publisher uses; tests substitute
// a scripted fake.
type pahoClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

// MQTT publishes each reading as one JSON message, QoS 0.
type MQTT struct {
	client pahoClient
	topic  string
	log    *logger.Logger
}

// NewMQTT builds the client with auto-reconnect. Call Connect before the
// first publish.
func NewMQTT(cfg MQTTConfig, log *logger.Logger) *MQTT {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Broker, cfg.Port))
	opts.SetClientID(cfg.ClientID)

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)

	opts.SetKeepAlive(30 * time.Second)
	opts.SetPingTimeout(10 * time.Second)

	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		if log != nil {
			log.Infow("mqtt connected", "broker", cfg.Broker, "port", cfg.Port)
		}
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		if log != nil {
			log.Warnw("mqtt connection lost", "err", err)
		}
	})

	return &MQTT{
		client: mqtt.NewClient(opts),
		topic:  cfg.Topic,
		log:    log,
	}
}

// Connect starts the connect attempt and waits for the first result in a
// ctx-aware loop. With connect retries enabled a broker outage at boot does
// not fail startup; the client keeps retrying in the background.
func (p *MQTT) Connect(ctx context.Context) error {
	token := p.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

// PublishReading sends one reading to the configured topic.
func (p *MQTT) PublishReading(_ context.Context, e models.ReadingEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal reading %s: %w", e.ID, err)
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	if !token.WaitTimeout(publishWait) {
		return fmt.Errorf("publish reading %s: timed out after %v", e.ID, publishWait)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish reading %s: %w", e.ID, err)
	}
	return nil
}

// Connected reports whether the broker link is currently up.
func (p *MQTT) Connected() bool {
	return p.client.IsConnected()
}

// Disconnect closes the broker connection, allowing a short drain.
func (p *MQTT) Disconnect() {
	p.client.Disconnect(250)
	if p.log != nil {
		p.log.Infow("mqtt publisher disconnected")
	}
}
