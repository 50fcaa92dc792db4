// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package transcript mirrors terminal exchanges to an MQTT topic so they can
// be watched or recorded from another machine.
package transcript

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Exchange is one request/response cycle of the terminal, suitable for JSON
// and MQTT.
type Exchange struct {
	Time       time.Time `json:"time"`
	Command    string    `json:"command"`            // as typed by the operator
	Sent       string    `json:"sent,omitempty"`     // with checksum appended
	Response   string    `json:"response,omitempty"` // raw reply line
	ChecksumOK bool      `json:"checksum_ok"`        // reply checksum verified
	Summary    string    `json:"summary,omitempty"`  // decoded reply, if known
	Error      string    `json:"error,omitempty"`
}

// Publisher receives every exchange the terminal completes.
type Publisher interface {
	Publish(Exchange) error
	Close()
}

// Nop discards exchanges. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(Exchange) error { return nil }
func (Nop) Close()                 {}

// MQTTPublisher publishes exchanges as non-retained QoS 0 JSON messages.
type MQTTPublisher struct {
	client mqtt.Client
	topic  string
}

// NewMQTTPublisher connects to broker and returns a publisher for topic.
func NewMQTTPublisher(broker, clientID, topic string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", broker, token.Error())
	}
	log.Printf("transcript: connected to MQTT broker at %s, publishing to %s", broker, topic)

	return &MQTTPublisher{client: client, topic: topic}, nil
}

func (p *MQTTPublisher) Publish(e Exchange) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal exchange: %w", err)
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("publish to %s: %w", p.topic, token.Error())
	}
	return nil
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// Subscribe connects to broker and calls fn for every exchange published on
// topic. Malformed payloads are logged and skipped. The returned function
// disconnects.
func Subscribe(broker, clientID, topic string, fn func(Exchange)) (func(), error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", broker, token.Error())
	}
	log.Printf("transcript: connected to MQTT broker at %s", broker)

	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		e, err := Unmarshal(msg.Payload())
		if err != nil {
			log.Printf("transcript: %v", err)
			return
		}
		fn(e)
	})
	token.Wait()
	if token.Error() != nil {
		client.Disconnect(250)
		return nil, fmt.Errorf("subscribe to %s: %w", topic, token.Error())
	}
	log.Printf("transcript: subscribed to %s", topic)

	return func() { client.Disconnect(250) }, nil
}

// Unmarshal decodes a published exchange.
func Unmarshal(payload []byte) (Exchange, error) {
	var e Exchange
	if err := json.Unmarshal(payload, &e); err != nil {
		return Exchange{}, fmt.Errorf("exchange unmarshal error: %w", err)
	}
	return e, nil
}

// Format renders an exchange the way the monitor prints it.
func Format(e Exchange) string {
	s := fmt.Sprintf("[%s] %s", e.Time.Format("15:04:05"), e.Command)
	if e.Sent != "" {
		s += " -> " + e.Sent
	}
	if e.Response != "" {
		s += " <- " + e.Response
	}
	if e.Response != "" && !e.ChecksumOK {
		s += " (bad checksum)"
	}
	if e.Summary != "" {
		s += " | " + e.Summary
	}
	if e.Error != "" {
		s += " ! " + e.Error
	}
	return s
}
