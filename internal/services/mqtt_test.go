package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"sysmonitor/internal/config"
	"sysmonitor/internal/models"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Error() error                   { return t.err }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeMQTT struct {
	mu           sync.Mutex
	messages     []published
	publishErr   error
	disconnected bool
	sent         chan struct{}
}

func newFakeMQTT() *fakeMQTT { return &fakeMQTT{sent: make(chan struct{}, 16)} }

func (f *fakeMQTT) Connect() mqtt.Token { return doneToken{} }

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	f.messages = append(f.messages, published{topic, qos, retained, payload.([]byte)})
	err := f.publishErr
	f.mu.Unlock()
	f.sent <- struct{}{}
	return doneToken{err: err}
}

func (f *fakeMQTT) Disconnect(uint) {
	f.mu.Lock()
	f.disconnected = true
	f.mu.Unlock()
}

func TestMQTTPublishesEachSnapshot(t *testing.T) {
	store := NewSnapshotStore()
	client := newFakeMQTT()
	cfg := config.MQTTConfig{Topic: "lab/host1", QoS: 1, Retain: true}
	pub := newMQTTPublisher(client, cfg, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pub.Run(ctx) }()

	// Run subscribes before connecting; wait for that before publishing
	waitFor(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.subs) == 1
	})

	store.Publish(&models.Snapshot{Seq: 1, CPUPercent: models.Float64(10), Sensors: []models.SensorReading{}})
	select {
	case <-client.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("snapshot was not published")
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run returned %v", err)
	}

	client.mu.Lock()
	defer client.mu.Unlock()
	if !client.disconnected {
		t.Error("client should disconnect on shutdown")
	}
	if len(client.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(client.messages))
	}
	msg := client.messages[0]
	if msg.topic != "lab/host1" || msg.qos != 1 || !msg.retained {
		t.Errorf("message metadata = %+v", msg)
	}
	var decoded models.Snapshot
	if err := json.Unmarshal(msg.payload, &decoded); err != nil {
		t.Fatalf("payload is not a snapshot: %v", err)
	}
	if decoded.Seq != 1 || decoded.CPUPercent == nil || *decoded.CPUPercent != 10 {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestMQTTPublishErrorIsReported(t *testing.T) {
	client := newFakeMQTT()
	client.publishErr = errors.New("not connected")
	pub := newMQTTPublisher(client, config.MQTTConfig{Topic: "t"}, NewSnapshotStore(), zerolog.Nop())

	err := pub.publish(models.EmptySnapshot())
	if err == nil || !errors.Is(err, client.publishErr) {
		t.Errorf("publish error = %v, want wrapped %v", err, client.publishErr)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
