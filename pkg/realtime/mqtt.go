package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/models"
	"liyu1981.xyz/sos-response-service/pkg/sos"
)

const (
	mqttTopicPrefix = "sos"
	mqttQoS         = byte(1)
	publishTimeout  = 5 * time.Second
)

// ConnectMQTT opens an auto-reconnecting session to the configured broker.
func ConnectMQTT(cfg common.MQTTConfig) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}

// MQTTPublisher mirrors events to sos/<kind>/<id> topics.
type MQTTPublisher struct {
	client mqtt.Client
	logger *zap.Logger
}

func NewMQTTPublisher(client mqtt.Client) *MQTTPublisher {
	return &MQTTPublisher{
		client: client,
		logger: common.GetLoggerWith(common.LoggerNameRealtime, zap.String("transport", "mqtt")),
	}
}

func (p *MQTTPublisher) Publish(_ context.Context, topic, event string, payload any) {
	data, err := encode(topic, event, payload)
	if err != nil {
		p.logger.Error("Could not encode event", zap.String("event", event), zap.Error(err))
		return
	}
	target := mqttTopic(mqttTopicPrefix, topic)
	token := p.client.Publish(target, mqttQoS, false, data)
	go func() {
		if !token.WaitTimeout(publishTimeout) {
			p.logger.Warn("MQTT publish timed out", zap.String("topic", target))
			return
		}
		if err := token.Error(); err != nil {
			p.logger.Warn("MQTT publish failed", zap.String("topic", target), zap.Error(err))
		}
	}()
}

// DeviceHandler consumes one decoded device event.
type DeviceHandler func(ctx context.Context, ev models.DeviceEvent) (*sos.DeviceResult, error)

// DeviceSubscriber turns messages on the device topic into device events. The device id falls
// back to the second topic level, so "devices/<id>/events" payloads may omit it.
type DeviceSubscriber struct {
	client   mqtt.Client
	topic    string
	handle   DeviceHandler
	limiters *sos.RateLimiterStore
	logger   *zap.Logger
}

func NewDeviceSubscriber(client mqtt.Client, topic string, handle DeviceHandler, limiters *sos.RateLimiterStore) *DeviceSubscriber {
	return &DeviceSubscriber{
		client:   client,
		topic:    topic,
		handle:   handle,
		limiters: limiters,
		logger:   common.GetLoggerWith(common.LoggerNameRealtime, zap.String("transport", "mqtt")),
	}
}

func (d *DeviceSubscriber) Start() error {
	token := d.client.Subscribe(d.topic, mqttQoS, func(_ mqtt.Client, msg mqtt.Message) {
		d.onMessage(msg.Topic(), msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", d.topic, token.Error())
	}
	d.logger.Info("Device subscriber started", zap.String("topic", d.topic))
	return nil
}

func (d *DeviceSubscriber) Stop() {
	d.client.Unsubscribe(d.topic).WaitTimeout(publishTimeout)
}

func deviceIDFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) >= 2 {
		return parts[1]
	}
	return ""
}

func (d *DeviceSubscriber) onMessage(topic string, payload []byte) {
	var ev models.DeviceEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		d.logger.Warn("Dropping malformed device message", zap.String("topic", topic), zap.Error(err))
		return
	}
	if ev.DeviceID == "" {
		ev.DeviceID = deviceIDFromTopic(topic)
	}
	if d.limiters != nil && !d.limiters.Allow("mqtt", ev.DeviceID) {
		d.logger.Warn("Device rate limited", zap.String("device_id", ev.DeviceID))
		return
	}

	res, err := d.handle(context.Background(), ev)
	if err != nil {
		d.logger.Error("Device event rejected",
			zap.String("device_id", ev.DeviceID),
			zap.String("event_id", ev.EventID),
			zap.Error(err),
		)
		return
	}
	if res != nil && res.IncidentID != "" {
		d.logger.Info("Device event opened incident",
			zap.String("device_id", ev.DeviceID), zap.String("incident_id", res.IncidentID))
	}
}
