// Package mqttx wraps the paho MQTT client with connection management,
// re-subscription on reconnect and a last-will availability topic.
package mqttx

import (
	"errors"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
)

const (
	ConnectTimeout    = time.Second * 10
	PublishTimeout    = time.Second * 5
	DisconnectQuiesce = 1000 // milliseconds
	KeepAlive         = time.Second * 60

	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

var (
	ErrNotConnected     = errors.New("mqtt: client not connected")
	ErrConnectionFailed = errors.New("mqtt: connection failed")
	ErrPublishFailed    = errors.New("mqtt: publish failed")
	ErrSubscribeFailed  = errors.New("mqtt: subscribe failed")
	ErrInvalidTopic     = errors.New("mqtt: topic cannot be empty")
)

// Opts configures the broker connection.
type Opts struct {
	BrokerURL         string
	ClientID          string
	User              string
	Password          string
	QOS               byte
	AvailabilityTopic string
}

// MessageHandler receives messages; errors are logged, not acknowledged.
type MessageHandler func(topic string, payload []byte) error

type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// Client is safe for concurrent use. Subscriptions are restored after the
// broker connection drops and comes back.
type Client struct {
	client pahomqtt.Client
	opts   Opts

	subscriptionMutex sync.RWMutex
	subscriptions     map[string]subscription

	onConnect func()
}

// Connect dials the broker. The availability topic carries a retained
// last-will so readers see the bridge go offline even after a crash.
func Connect(opts Opts) (*Client, error) {
	result := &Client{opts: opts, subscriptions: map[string]subscription{}}

	clientOpts := pahomqtt.NewClientOptions()
	clientOpts.AddBroker(opts.BrokerURL)
	clientOpts.SetClientID(opts.ClientID)
	if opts.User != "" {
		clientOpts.SetUsername(opts.User)
		clientOpts.SetPassword(opts.Password)
	}
	clientOpts.SetCleanSession(true)
	clientOpts.SetAutoReconnect(true)
	clientOpts.SetConnectRetry(true)
	clientOpts.SetConnectTimeout(ConnectTimeout)
	clientOpts.SetKeepAlive(KeepAlive)
	if opts.AvailabilityTopic != "" {
		clientOpts.SetWill(opts.AvailabilityTopic, PayloadOffline, opts.QOS, true)
	}
	clientOpts.SetOnConnectHandler(func(_ pahomqtt.Client) { result.handleConnect() })
	clientOpts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Warnf("mqtt: connection to broker '%s' lost: %s", opts.BrokerURL, err)
	})

	result.client = pahomqtt.NewClient(clientOpts)
	token := result.client.Connect()
	if !token.WaitTimeout(ConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return result, nil
}

func (c *Client) handleConnect() {
	log.Infof("mqtt: connected to broker '%s'", c.opts.BrokerURL)
	c.restoreSubscriptions()
	if c.opts.AvailabilityTopic != "" {
		c.client.Publish(c.opts.AvailabilityTopic, c.opts.QOS, true, PayloadOnline)
	}
	if c.onConnect != nil {
		c.onConnect()
	}
}

// OnConnect registers a callback fired on initial connect and every
// reconnect; set it before Connect-triggered callbacks matter.
func (c *Client) OnConnect(callback func()) {
	c.onConnect = callback
}

func (c *Client) restoreSubscriptions() {
	c.subscriptionMutex.RLock()
	defer c.subscriptionMutex.RUnlock()
	for _, sub := range c.subscriptions {
		c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
	}
}

func (c *Client) IsConnected() bool {
	return c.client != nil && c.client.IsConnected()
}

// Publish sends a message and waits for the broker to acknowledge it.
func (c *Client) Publish(topic string, payload []byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	token := c.client.Publish(topic, c.opts.QOS, retained, payload)
	if !token.WaitTimeout(PublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, PublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

func (c *Client) PublishString(topic string, payload string, retained bool) error {
	return c.Publish(topic, []byte(payload), retained)
}

// Subscribe registers a handler; the subscription survives reconnects.
func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	c.subscriptionMutex.Lock()
	c.subscriptions[topic] = subscription{topic: topic, qos: c.opts.QOS, handler: handler}
	c.subscriptionMutex.Unlock()

	token := c.client.Subscribe(topic, c.opts.QOS, c.wrapHandler(handler))
	if !token.WaitTimeout(PublishTimeout) {
		c.forgetSubscription(topic)
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, PublishTimeout)
	}
	if err := token.Error(); err != nil {
		c.forgetSubscription(topic)
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

func (c *Client) forgetSubscription(topic string) {
	c.subscriptionMutex.Lock()
	delete(c.subscriptions, topic)
	c.subscriptionMutex.Unlock()
}

func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf("mqtt: handler panic recovered on topic '%s': %v", msg.Topic(), r)
			}
		}()
		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			log.Warnf("mqtt: handler failed on topic '%s': %s", msg.Topic(), err)
		}
	}
}

// Close publishes a graceful offline status then disconnects.
func (c *Client) Close() {
	if c.client == nil {
		return
	}
	if c.IsConnected() && c.opts.AvailabilityTopic != "" {
		token := c.client.Publish(c.opts.AvailabilityTopic, c.opts.QOS, true, PayloadOffline)
		token.WaitTimeout(PublishTimeout)
	}
	c.client.Disconnect(DisconnectQuiesce)
}
