package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"fieldwave.io/rf/mlrgw/modem"
)

// Bridge connects the modem to an MQTT broker: received radio telegrams go
// out on the uplink topic, transmit requests come in on the downlink topic.
type Bridge struct {
	Logger *slog.Logger
	Modem  *modem.Modem

	uplinkTopic   string
	downlinkTopic string
	client        mqtt.Client
}

// downlinkMessage is the downlink topic payload; the radio payload travels
// as base64 in JSON, like on the HTTP side.
type downlinkMessage struct {
	Payload []byte `json:"payload"`
}

type uplinkMessage struct {
	Payload    []byte    `json:"payload"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewBridge connects to the broker and subscribes to the downlink topic.
// A nil Bridge is returned when no broker is configured.
func NewBridge(config *Config, logger *slog.Logger, m *modem.Modem) (*Bridge, error) {
	if config.MqttBroker == "" {
		return nil, nil
	}

	b := &Bridge{
		Logger:        logger,
		Modem:         m,
		uplinkTopic:   config.MqttUplinkTopic,
		downlinkTopic: config.MqttDownlinkTopic,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.MqttBroker)
	opts.SetClientID(config.MqttClientID)
	if config.MqttUsername != "" {
		opts.SetUsername(config.MqttUsername)
		opts.SetPassword(config.MqttPassword)
	}
	opts.SetOrderMatters(false)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		logger.Info("MQTT connected, subscribing", "topic", b.downlinkTopic)
		if token := c.Subscribe(b.downlinkTopic, 0, b.handleDownlink); token.Wait() && token.Error() != nil {
			logger.Error("MQTT subscribe failed", "error", token.Error())
		}
	})

	b.client = mqtt.NewClient(opts)
	token := b.client.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return nil, err
	}
	return b, nil
}

// handleDownlink transmits a payload received from the broker. Failures are
// logged, not retried; the publisher decides whether to resend.
func (b *Bridge) handleDownlink(_ mqtt.Client, m mqtt.Message) {
	var msg downlinkMessage
	if err := json.Unmarshal(m.Payload(), &msg); err != nil {
		b.Logger.Warn("Invalid downlink payload", "error", err)
		return
	}
	if len(msg.Payload) == 0 {
		b.Logger.Warn("Empty downlink payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := b.Modem.Transmit(ctx, msg.Payload); err != nil {
		b.Logger.Error("Downlink transmit failed", "error", err, "length", len(msg.Payload))
		return
	}
	b.Logger.Info("Downlink transmitted", "length", len(msg.Payload))
}

// PublishUplink forwards a received radio telegram to the broker.
func (b *Bridge) PublishUplink(payload []byte) {
	msg, err := json.Marshal(uplinkMessage{Payload: payload, ReceivedAt: time.Now().UTC()})
	if err != nil {
		b.Logger.Error("Failed to encode uplink", "error", err)
		return
	}
	token := b.client.Publish(b.uplinkTopic, 0, false, msg)
	token.Wait()
	if err := token.Error(); err != nil {
		b.Logger.Error("Uplink publish failed", "error", err)
	}
}

// Close disconnects from the broker.
func (b *Bridge) Close() {
	b.client.Disconnect(500)
}
