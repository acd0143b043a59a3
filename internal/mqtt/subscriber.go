package mqtt

import (
	"context"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"brewtracker/internal/config"
	"brewtracker/internal/telemetry"
)

// HandlerFunc processes one decoded telemetry message.
type HandlerFunc func(ctx context.Context, t telemetry.Telemetry) error

// Subscriber receives telemetry from every device and hands it to a handler.
type Subscriber struct {
	*conn
	topic string

	handlerMu sync.RWMutex
	handler   HandlerFunc

	subMu sync.Mutex
	want  bool
}

func NewSubscriber(cfg config.MQTT, logger *slog.Logger) *Subscriber {
	s := &Subscriber{topic: telemetry.SubscribeTopic}
	// The session is clean, so the subscription is made on every connect.
	s.conn = newConn(cfg, logger, nil, func() {
		s.subMu.Lock()
		want := s.want
		s.subMu.Unlock()
		if want {
			go func() {
				if err := s.subscribe(); err != nil {
					logger.Error("mqtt subscribe failed", "topic", s.topic, "error", err)
				}
			}()
		}
	})
	return s
}

// SetMessageHandler sets the handler for telemetry messages.
func (s *Subscriber) SetMessageHandler(h HandlerFunc) {
	s.handlerMu.Lock()
	s.handler = h
	s.handlerMu.Unlock()
}

// Connect connects to the broker; the telemetry subscription follows from
// the connect handler. If ctx ends before the broker answers, Connect
// returns its error and the client keeps retrying, subscribing once it
// gets through.
func (s *Subscriber) Connect(ctx context.Context) error {
	s.subMu.Lock()
	s.want = true
	s.subMu.Unlock()
	return s.connect(ctx)
}

func (s *Subscriber) subscribe() error {
	const qos = byte(1)
	token := s.client.Subscribe(s.topic, qos, func(_ paho.Client, msg paho.Message) {
		s.handleMessage(msg.Topic(), msg.Payload())
	})
	if err := wait(token, "subscribe "+s.topic); err != nil {
		return err
	}
	s.logger.Info("subscribed to mqtt topic", "topic", s.topic, "qos", qos)
	return nil
}

func (s *Subscriber) handleMessage(topic string, payload []byte) {
	s.logger.Debug("received mqtt message", "topic", topic, "size", len(payload))

	t, err := Decode(topic, payload, time.Now())
	if err != nil {
		s.logger.Warn("invalid telemetry message", "topic", topic, "error", err, "payload", string(payload))
		return
	}

	s.handlerMu.RLock()
	h := s.handler
	s.handlerMu.RUnlock()
	if h == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h(ctx, t); err != nil {
		s.logger.Error("telemetry handler failed", "topic", topic, "device_id", t.DeviceID, "error", err)
		return
	}
	s.logger.Debug("processed telemetry message", "device_id", t.DeviceID, "timestamp", t.Timestamp)
}

// Disconnect unsubscribes and closes the connection. Safe to call more than
// once.
func (s *Subscriber) Disconnect() {
	s.stop(func() {
		s.client.Unsubscribe(s.topic).WaitTimeout(2 * time.Second)
	})
	s.logger.Info("mqtt subscriber disconnected")
}
