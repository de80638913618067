package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"sysmonitor/internal/config"
	"sysmonitor/internal/models"
)

const (
	mqttPublishTimeout = 5 * time.Second
	mqttDisconnectWait = 250 // milliseconds
)

// mqttClient is the part of mqtt.Client the publisher uses
type mqttClient interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher forwards every published snapshot to a broker topic
type MQTTPublisher struct {
	client mqttClient
	store  *SnapshotStore
	topic  string
	qos    byte
	retain bool
	log    zerolog.Logger
}

// NewMQTTPublisher creates a publisher for the configured broker. The
// connection is made by Run.
func NewMQTTPublisher(cfg config.MQTTConfig, store *SnapshotStore, log zerolog.Logger) *MQTTPublisher {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectTimeout(10 * time.Second)

	// Keep trying in the background so a missing broker never blocks sampling
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetMaxReconnectInterval(time.Minute)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info().Str("broker", cfg.Broker).Msg("connected")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("connection lost, will reconnect")
	})

	return newMQTTPublisher(mqtt.NewClient(opts), cfg, store, log)
}

func newMQTTPublisher(client mqttClient, cfg config.MQTTConfig, store *SnapshotStore, log zerolog.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		client: client,
		store:  store,
		topic:  cfg.Topic,
		qos:    cfg.QoS,
		retain: cfg.Retain,
		log:    log,
	}
}

// Run publishes snapshots until ctx is cancelled
func (p *MQTTPublisher) Run(ctx context.Context) error {
	updates, cancel := p.store.Subscribe()
	defer cancel()

	token := p.client.Connect()
	if token.WaitTimeout(mqttPublishTimeout) && token.Error() != nil {
		p.log.Warn().Err(token.Error()).Msg("initial connect failed, retrying in background")
	}
	defer p.client.Disconnect(mqttDisconnectWait)

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-updates:
			if !ok {
				return nil
			}
			if err := p.publish(snap); err != nil {
				p.log.Warn().Err(err).Uint64("seq", snap.Seq).Msg("publish failed")
			}
		}
	}
}

func (p *MQTTPublisher) publish(snap *models.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	token := p.client.Publish(p.topic, p.qos, p.retain, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("publish to %s: timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, err)
	}
	p.log.Debug().Uint64("seq", snap.Seq).Int("bytes", len(payload)).Msg("published")
	return nil
}
