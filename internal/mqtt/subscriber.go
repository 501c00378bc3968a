// Package mqtt adapts a paho MQTT subscription to the ingestion pipeline.
// It owns the connect-with-retry loop and dispatches inbound messages one
// at a time; everything per-message is the pipeline's problem.
package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const disconnectQuiesceMs = 250

// MessageHandler processes one inbound message. It must not panic and must
// swallow per-message failures; the subscriber treats every invocation as
// fire-and-forget.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Config holds the broker connection settings.
type Config struct {
	Host            string
	Port            int
	Topic           string
	ClientID        string
	QoS             byte
	ConnectAttempts int           // attempts before giving up for good
	ConnectBackoff  time.Duration // fixed delay between attempts
}

// BrokerURL returns the tcp:// address of the broker.
func (c Config) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.Host, c.Port)
}

// Subscriber is a single long-lived MQTT subscription feeding a handler.
type Subscriber struct {
	config  Config
	handler MessageHandler
	logger  *slog.Logger

	// newClient is swapped out by tests.
	newClient func(*paho.ClientOptions) paho.Client
}

// NewSubscriber creates a Subscriber dispatching to handler.
func NewSubscriber(config Config, handler MessageHandler, logger *slog.Logger) *Subscriber {
	return &Subscriber{
		config:    config,
		handler:   handler,
		logger:    logger,
		newClient: paho.NewClient,
	}
}

// BrokerURL returns the address this subscriber connects to.
func (s *Subscriber) BrokerURL() string {
	return s.config.BrokerURL()
}

// Run connects with bounded retry, subscribes and blocks dispatching
// messages until ctx is cancelled. Messages are handled sequentially on the
// client's callback routine, so each message finishes its full pass before
// the next starts. Exhausting the connect attempts is fatal and returned as
// an error; after a successful connect, broker drops are handled by paho's
// auto-reconnect and the subscription is restored on reconnect.
func (s *Subscriber) Run(ctx context.Context) error {
	opts := paho.NewClientOptions().
		AddBroker(s.config.BrokerURL()).
		SetClientID(s.config.ClientID).
		SetAutoReconnect(true).
		SetOrderMatters(true).
		SetKeepAlive(60 * time.Second)

	opts.SetOnConnectHandler(func(c paho.Client) {
		// Runs on every (re)connect, so the subscription survives broker
		// restarts.
		token := c.Subscribe(s.config.Topic, s.config.QoS, func(_ paho.Client, msg paho.Message) {
			s.handler(ctx, msg.Topic(), msg.Payload())
		})
		if token.Wait() && token.Error() != nil {
			s.logger.Error("subscribing", slog.String("topic", s.config.Topic), slog.String("error", token.Error().Error()))
			return
		}
		s.logger.Info("subscribed", slog.String("topic", s.config.Topic))
	})

	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		s.logger.Warn("connection lost, reconnecting", slog.String("error", err.Error()))
	})

	client := s.newClient(opts)

	if err := s.connectWithRetry(ctx, client); err != nil {
		return err
	}

	<-ctx.Done()

	client.Unsubscribe(s.config.Topic)
	client.Disconnect(disconnectQuiesceMs)
	return nil
}

func (s *Subscriber) connectWithRetry(ctx context.Context, client paho.Client) error {
	var lastErr error
	for attempt := 1; attempt <= s.config.ConnectAttempts; attempt++ {
		token := client.Connect()
		token.Wait()
		if lastErr = token.Error(); lastErr == nil {
			s.logger.Info("connected to broker", slog.String("broker", s.config.BrokerURL()))
			return nil
		}

		s.logger.Warn("connect failed",
			slog.Int("attempt", attempt),
			slog.Int("attempts", s.config.ConnectAttempts),
			slog.String("error", lastErr.Error()))

		if attempt == s.config.ConnectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.config.ConnectBackoff):
		}
	}

	return fmt.Errorf("connecting to %s after %d attempts: %w", s.config.BrokerURL(), s.config.ConnectAttempts, lastErr)
}
