package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/padshift/internal/action"
)

const (
	// DefaultClientID is the MQTT client ID when none is configured.
	DefaultClientID = "padshift"

	// DefaultBufferSize is how many messages are kept while disconnected.
	DefaultBufferSize = 1000

	publishTimeout = 5 * time.Second
)

// Config configures a RealPublisher.
type Config struct {
	Broker     string
	ClientID   string
	BufferSize int
}

// RealPublisher publishes to an actual MQTT broker. Actions and system
// events published while disconnected are buffered and replayed on
// reconnect; haptics and axes are only worth sending live.
type RealPublisher struct {
	client paho.Client
	log    *zap.SugaredLogger

	mu  sync.Mutex
	buf *ring[message]
}

// NewRealPublisher creates a publisher for the given broker. The connection
// is made in the background and retried until it succeeds.
func NewRealPublisher(cfg Config, logger *zap.SugaredLogger) *RealPublisher {
	p := newPublisher(cfg.BufferSize, logger)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = DefaultClientID
	}
	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	p.client.Connect()
	return p
}

func newPublisher(bufferSize int, logger *zap.SugaredLogger) *RealPublisher {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &RealPublisher{
		log: logger,
		buf: newRing[message](bufferSize),
	}
}

// onConnect replays anything buffered while offline, oldest first.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.buf.drain()
	p.mu.Unlock()

	p.log.Infow("mqtt connected", "replay", len(pending))
	for _, m := range pending {
		c.Publish(m.topic, m.qos, m.retained, m.payload)
	}

	payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
	c.Publish(TopicSystem, 1, false, payload)
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.log.Warnw("mqtt connection lost", "error", err)
}

// Publish sends a binding action to the MQTT broker.
func (p *RealPublisher) Publish(event action.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 1: a lost release would leave the binding held downstream.
	return p.publish(message{topic: TopicActions, payload: payload, qos: 1}, true)
}

// PublishHaptic sends a trigger effect. It is dropped while offline.
func (p *RealPublisher) PublishHaptic(event HapticEvent) error {
	payload, err := FormatHapticPayload(event)
	if err != nil {
		return fmt.Errorf("format haptic payload: %w", err)
	}
	return p.publish(message{topic: TopicHaptics, payload: payload}, false)
}

// PublishAxis sends a passthrough position. It is dropped while offline.
func (p *RealPublisher) PublishAxis(event AxisEvent) error {
	payload, err := FormatAxisPayload(event)
	if err != nil {
		return fmt.Errorf("format axis payload: %w", err)
	}
	return p.publish(message{topic: TopicAxes, payload: payload}, false)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(message{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained}, true)
}

func (p *RealPublisher) publish(m message, buffer bool) error {
	if !p.client.IsConnectionOpen() {
		if buffer {
			p.enqueue(m)
		}
		return nil
	}

	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(publishTimeout) {
		if buffer {
			p.enqueue(m)
		}
		return fmt.Errorf("publish %s timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		if buffer {
			p.enqueue(m)
		}
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

func (p *RealPublisher) enqueue(m message) {
	p.mu.Lock()
	dropped := p.buf.push(m)
	p.mu.Unlock()
	if dropped {
		p.log.Warnw("mqtt buffer full, dropping oldest", "capacity", p.buf.cap())
	}
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}
