package pv

import (
	"context"
	"fmt"
	"sync"

	"github.com/nerrad567/beamline-core/internal/infrastructure/mqtt"
)

// Subscriber is the part of the MQTT client the transport needs.
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// watch is one shared subscription to a PV status topic.
type watch struct {
	refs int
	once sync.Once
	seen chan struct{}
}

// MQTTTransport treats a PV as reachable once the gateway has published on
// its status topic. Concurrent waiters on one PV share a subscription.
type MQTTTransport struct {
	client Subscriber
	topics mqtt.Topics
	qos    byte

	mu      sync.Mutex
	watches map[string]*watch
}

// NewMQTTTransport creates a transport over client.
func NewMQTTTransport(client Subscriber, topics mqtt.Topics, qos byte) *MQTTTransport {
	return &MQTTTransport{
		client:  client,
		topics:  topics,
		qos:     qos,
		watches: make(map[string]*watch),
	}
}

// Name returns "mqtt".
func (t *MQTTTransport) Name() string { return "mqtt" }

// Reach subscribes to the PV status topic and waits for the first message.
func (t *MQTTTransport) Reach(ctx context.Context, pv string) error {
	topic := t.topics.PVStatus(pv)

	w, err := t.acquire(topic)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnreachable, pv, err)
	}
	defer t.release(topic)

	select {
	case <-w.seen:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %s: %w", ErrUnreachable, pv, ctx.Err())
	}
}

func (t *MQTTTransport) acquire(topic string) (*watch, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if w, ok := t.watches[topic]; ok {
		w.refs++
		return w, nil
	}

	w := &watch{refs: 1, seen: make(chan struct{})}
	handler := func(string, []byte) error {
		w.once.Do(func() { close(w.seen) })
		return nil
	}
	if err := t.client.Subscribe(topic, t.qos, handler); err != nil {
		return nil, err
	}
	t.watches[topic] = w
	return w, nil
}

func (t *MQTTTransport) release(topic string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.watches[topic]
	if !ok {
		return
	}
	w.refs--
	if w.refs > 0 {
		return
	}
	delete(t.watches, topic)
	_ = t.client.Unsubscribe(topic)
}
