package health

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/beamline-core/internal/infrastructure/mqtt"
)

// Publisher is the part of the MQTT client the sink needs.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

type deviceState struct {
	State string `json:"state"`
	Kind  string `json:"kind,omitempty"`
	Error string `json:"error,omitempty"`
	RunID string `json:"run_id"`
}

// MQTTSink publishes the report, and each device's resulting state, as
// retained messages.
type MQTTSink struct {
	client Publisher
	topics mqtt.Topics
	qos    byte
}

// NewMQTTSink creates a sink publishing through client.
func NewMQTTSink(client Publisher, topics mqtt.Topics, qos byte) *MQTTSink {
	return &MQTTSink{client: client, topics: topics, qos: qos}
}

// Name returns "mqtt".
func (s *MQTTSink) Name() string { return "mqtt" }

// Record publishes r.
func (s *MQTTSink) Record(_ context.Context, r *Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := s.client.Publish(s.topics.ConnectReport(r.Beamline), payload, s.qos, true); err != nil {
		return fmt.Errorf("publishing report: %w", err)
	}

	run := r.RunID.String()
	for _, name := range r.Connected {
		if err := s.publishState(r.Beamline, name, deviceState{State: "connected", RunID: run}); err != nil {
			return err
		}
	}
	for _, f := range r.Failures {
		st := deviceState{State: "failed", Kind: string(f.Kind), Error: f.Error, RunID: run}
		if err := s.publishState(r.Beamline, f.Device, st); err != nil {
			return err
		}
	}
	return nil
}

func (s *MQTTSink) publishState(beamline, name string, st deviceState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding state of %s: %w", name, err)
	}
	if err := s.client.Publish(s.topics.DeviceState(beamline, name), payload, s.qos, true); err != nil {
		return fmt.Errorf("publishing state of %s: %w", name, err)
	}
	return nil
}
