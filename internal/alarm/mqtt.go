package alarm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"codeberg.org/mutker/trendalarm/internal/catalog"
	"codeberg.org/mutker/trendalarm/internal/errors"
	"codeberg.org/mutker/trendalarm/internal/logger"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	qos      = 0
	retained = false

	defaultClientID    = "trendalarm"
	defaultWaitTimeout = 10 * time.Second
	disconnectQuiesce  = 250
)

// ClientFactory creates an MQTT client from options
type ClientFactory func(opts *mqtt.ClientOptions) mqtt.Client

// MQTTPublisher publishes alarms to a broker. The connection is opened on
// first use and reused for later events.
type MQTTPublisher struct {
	mu        sync.Mutex
	client    mqtt.Client
	broker    string
	clientID  string
	wait      time.Duration
	newClient ClientFactory
	locBroker catalog.Locator
	locTopic  catalog.Locator
}

// Option configures an MQTTPublisher
type Option func(*MQTTPublisher)

// WithClientID sets the MQTT client id
func WithClientID(id string) Option {
	return func(p *MQTTPublisher) {
		if id != "" {
			p.clientID = id
		}
	}
}

// WithTimeout bounds connect and publish waits
func WithTimeout(d time.Duration) Option {
	return func(p *MQTTPublisher) {
		if d > 0 {
			p.wait = d
		}
	}
}

// WithClientFactory replaces mqtt.NewClient
func WithClientFactory(f ClientFactory) Option {
	return func(p *MQTTPublisher) {
		p.newClient = f
	}
}

// NewMQTT returns a publisher resolving broker and topic at publish time
func NewMQTT(broker, topic catalog.Locator, opts ...Option) *MQTTPublisher {
	p := &MQTTPublisher{
		clientID:  defaultClientID,
		wait:      defaultWaitTimeout,
		newClient: mqtt.NewClient,
		locBroker: broker,
		locTopic:  topic,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Publish sends one event. Failures are returned as ErrPublishFailed and are
// not retried.
func (p *MQTTPublisher) Publish(ctx context.Context, event Event) error {
	errFactory := errors.New()

	topic, err := p.locTopic(ctx)
	if err != nil {
		return errFactory.Wrap(errors.ErrPublishFailed, fmt.Errorf("resolve alarms topic: %w", err))
	}
	if topic == "" {
		topic = DefaultTopic
	}

	body, err := json.Marshal(Payload{DeviceID: event.DeviceID, Message: event.Message()})
	if err != nil {
		return errFactory.Wrap(errors.ErrPublishFailed, err)
	}

	client, err := p.connect(ctx)
	if err != nil {
		return errFactory.Wrap(errors.ErrPublishFailed, err)
	}

	token := client.Publish(topic, qos, retained, body)
	if err := p.await(ctx, token); err != nil {
		return errFactory.Wrap(errors.ErrPublishFailed, fmt.Errorf("publish to %s: %w", topic, err))
	}

	logger.Debug().
		Str("topic", topic).
		Str("device", event.DeviceID).
		Str("variable", event.Variable).
		Int("day", event.DayOffset).
		Msg("Alarm published")

	return nil
}

// Close disconnects from the broker if connected
func (p *MQTTPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil && p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesce)
	}
	p.client = nil
}

func (p *MQTTPublisher) connect(ctx context.Context) (mqtt.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	address, err := p.locBroker(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve broker address: %w", err)
	}
	address = BrokerURL(address)

	// broker moved in the registry
	if p.client != nil && address != p.broker {
		p.client.Disconnect(disconnectQuiesce)
		p.client = nil
	}

	if p.client != nil && p.client.IsConnectionOpen() {
		return p.client, nil
	}

	if p.client == nil {
		opts := mqtt.NewClientOptions().
			AddBroker(address).
			SetClientID(p.clientID).
			SetConnectTimeout(p.wait).
			SetAutoReconnect(false)
		p.client = p.newClient(opts)
		p.broker = address
	}

	logger.Debug().Str("broker", address).Msg("Connecting to MQTT broker")

	if err := p.await(ctx, p.client.Connect()); err != nil {
		p.client = nil
		return nil, fmt.Errorf("connect to %s: %w", address, err)
	}

	return p.client, nil
}

func (p *MQTTPublisher) await(ctx context.Context, token mqtt.Token) error {
	timer := time.NewTimer(p.wait)
	defer timer.Stop()

	select {
	case <-token.Done():
		return token.Error()
	case <-timer.C:
		return errors.New().New(errors.ErrTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}
