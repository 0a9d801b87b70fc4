package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	totalconnect "github.com/craigjmidwinter/total-connect-client"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
)

const (
	mqttConnectTimeout = 10 * time.Second
	mqttPublishTimeout = 5 * time.Second
	mqttQoS            = 1
)

// publisher sends location state to an MQTT broker as retained messages.
// A nil publisher does nothing.
type publisher struct {
	client pahomqtt.Client
	topic  string
	last   map[string]string
}

func newPublisher(broker, topic string) (*publisher, error) {
	if broker == "" {
		return nil, nil
	}
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("homekit-totalconnect-" + uuid.NewString()[:8])
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(mqttConnectTimeout)
	opts.SetWill(strings.TrimSuffix(topic, "/")+"/status", "offline", mqttQoS, true)
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		log.Warn("mqtt connection lost", "err", err)
	})

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(mqttConnectTimeout) {
		return nil, fmt.Errorf("could not connect to %s: timeout after %s", broker, mqttConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("could not connect to %s: %w", broker, err)
	}

	p := &publisher{
		client: client,
		topic:  strings.TrimSuffix(topic, "/"),
		last:   map[string]string{},
	}
	if err := p.publish("status", "online"); err != nil {
		return nil, err
	}
	log.Info("connected to mqtt", "broker", broker, "topic", p.topic)
	return p, nil
}

type partitionState struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	ArmingState string `json:"arming_state"`
	Armed       bool   `json:"armed"`
}

type zoneState struct {
	ID          int    `json:"id"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Open        bool   `json:"open"`
	Bypassed    bool   `json:"bypassed"`
}

type locationState struct {
	ID            int              `json:"id"`
	Name          string           `json:"name"`
	ArmingState   string           `json:"arming_state"`
	Code          int              `json:"arming_state_code"`
	Triggered     bool             `json:"triggered"`
	LowBattery    bool             `json:"low_battery"`
	ACLoss        bool             `json:"ac_loss"`
	CoverTampered bool             `json:"cover_tampered"`
	Partitions    []partitionState `json:"partitions"`
	Zones         []zoneState      `json:"zones"`
}

// messages renders the location as topic suffix to payload.
func messages(loc *totalconnect.Location) (map[string]string, error) {
	state := locationState{
		ID:            loc.ID,
		Name:          loc.Name,
		ArmingState:   loc.ArmingState.String(),
		Code:          int(loc.ArmingState),
		Triggered:     loc.IsTriggered(),
		LowBattery:    loc.LowBattery,
		ACLoss:        loc.ACLoss,
		CoverTampered: loc.CoverTampered,
	}
	msgs := map[string]string{}
	for _, id := range loc.PartitionIDs() {
		p, _ := loc.Partition(id)
		state.Partitions = append(state.Partitions, partitionState{
			ID:          p.ID,
			Name:        p.Name,
			ArmingState: p.ArmingState.String(),
			Armed:       p.IsArmed(),
		})
		msgs[fmt.Sprintf("%d/partition/%d", loc.ID, p.ID)] = p.ArmingState.String()
	}
	for _, id := range loc.ZoneIDs() {
		z, _ := loc.Zone(id)
		state.Zones = append(state.Zones, zoneState{
			ID:          z.ID,
			Description: z.Description,
			Status:      z.Status.String(),
			Open:        z.IsOpen(),
			Bypassed:    z.IsBypassed(),
		})
		msgs[fmt.Sprintf("%d/zone/%d", loc.ID, z.ID)] = z.Status.String()
	}

	bts, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("could not encode location %d: %w", loc.ID, err)
	}
	msgs[fmt.Sprintf("%d/state", loc.ID)] = string(bts)
	return msgs, nil
}

// Publish sends what changed since the previous call.
func (p *publisher) Publish(loc *totalconnect.Location) error {
	if p == nil {
		return nil
	}
	msgs, err := messages(loc)
	if err != nil {
		return err
	}
	for suffix, payload := range msgs {
		if p.last[suffix] == payload {
			continue
		}
		if err := p.publish(suffix, payload); err != nil {
			return err
		}
		p.last[suffix] = payload
	}
	return nil
}

func (p *publisher) publish(suffix, payload string) error {
	topic := p.topic + "/" + suffix
	token := p.client.Publish(topic, mqttQoS, true, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("could not publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("could not publish %s: %w", topic, err)
	}
	return nil
}

func (p *publisher) Close() {
	if p == nil {
		return
	}
	_ = p.publish("status", "offline")
	p.client.Disconnect(250)
}
