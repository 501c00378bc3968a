package mqtt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

// fakeClient fails the first failures connect attempts, then succeeds and
// fires the configured OnConnect handler.
type fakeClient struct {
	opts     *paho.ClientOptions
	failures int
	connects int
	callback paho.MessageHandler
}

func (c *fakeClient) IsConnected() bool      { return c.connects > c.failures }
func (c *fakeClient) IsConnectionOpen() bool { return c.IsConnected() }

func (c *fakeClient) Connect() paho.Token {
	c.connects++
	if c.connects <= c.failures {
		return &fakeToken{err: errors.New("connection refused")}
	}
	if c.opts.OnConnect != nil {
		c.opts.OnConnect(c)
	}
	return &fakeToken{}
}

func (c *fakeClient) Disconnect(uint) {}

func (c *fakeClient) Publish(string, byte, bool, interface{}) paho.Token { return &fakeToken{} }

func (c *fakeClient) Subscribe(_ string, _ byte, callback paho.MessageHandler) paho.Token {
	c.callback = callback
	return &fakeToken{}
}

func (c *fakeClient) SubscribeMultiple(map[string]byte, paho.MessageHandler) paho.Token {
	return &fakeToken{}
}

func (c *fakeClient) Unsubscribe(...string) paho.Token { return &fakeToken{} }

func (c *fakeClient) AddRoute(string, paho.MessageHandler) {}

func (c *fakeClient) OptionsReader() paho.ClientOptionsReader { return paho.ClientOptionsReader{} }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func newTestSubscriber(failures int, handler MessageHandler) (*Subscriber, *fakeClient) {
	client := &fakeClient{failures: failures}

	s := NewSubscriber(Config{
		Host:            "localhost",
		Port:            1883,
		Topic:           "thing/product/+/osd",
		ClientID:        "test",
		ConnectAttempts: 3,
		ConnectBackoff:  time.Millisecond,
	}, handler, slog.New(slog.NewTextHandler(io.Discard, nil)))

	s.newClient = func(opts *paho.ClientOptions) paho.Client {
		client.opts = opts
		return client
	}
	return s, client
}

func TestRun_DispatchesMessages(t *testing.T) {
	type received struct {
		topic   string
		payload string
	}

	got := make(chan received, 1)
	s, client := newTestSubscriber(0, func(_ context.Context, topic string, payload []byte) {
		got <- received{topic, string(payload)}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Wait for the subscription callback to be installed.
	deadline := time.Now().Add(time.Second)
	for client.callback == nil {
		if time.Now().After(deadline) {
			t.Fatal("subscription callback never installed")
		}
		time.Sleep(time.Millisecond)
	}

	client.callback(client, &fakeMessage{topic: "thing/product/DR1/osd", payload: []byte(`{}`)})

	select {
	case r := <-got:
		if r.topic != "thing/product/DR1/osd" || r.payload != "{}" {
			t.Errorf("handler got %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatal("handler never invoked")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v, want nil after cancel", err)
	}
}

func TestRun_RetriesThenConnects(t *testing.T) {
	s, client := newTestSubscriber(2, func(context.Context, string, []byte) {})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	go func() {
		// Let the connect retries run, then stop the loop.
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	if err := s.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() = %v", err)
	}
	if client.connects != 3 {
		t.Errorf("connect attempts = %d, want 3", client.connects)
	}
}

func TestRun_ExhaustedAttemptsFatal(t *testing.T) {
	s, client := newTestSubscriber(10, func(context.Context, string, []byte) {})

	err := s.Run(context.Background())
	if err == nil {
		t.Fatal("Run() = nil, want error after exhausted attempts")
	}
	if client.connects != 3 {
		t.Errorf("connect attempts = %d, want 3", client.connects)
	}
}

func TestBrokerURL(t *testing.T) {
	c := Config{Host: "broker.local", Port: 1883}
	if got := c.BrokerURL(); got != "tcp://broker.local:1883" {
		t.Errorf("BrokerURL() = %q", got)
	}
}
