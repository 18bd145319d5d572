package mqtt

import "fmt"

// DefaultTopicPrefix roots every topic when no prefix is configured.
const DefaultTopicPrefix = "beamline"

// Topics builds beamline-core MQTT topics under one prefix. The zero value
// uses DefaultTopicPrefix.
//
//	topics := mqtt.Topics{Prefix: cfg.MQTT.TopicPrefix}
//	topics.PVStatus("BL22I-MO-STAGE-01:X")
//	// Returns: "beamline/pv/BL22I-MO-STAGE-01:X"
type Topics struct {
	Prefix string
}

func (t Topics) root() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return t.Prefix
}

// PVStatus returns the topic a PV gateway publishes a PV's status on.
//
// Example: beamline/pv/BL22I-EA-PILAT-01:CAM:Acquire
func (t Topics) PVStatus(pv string) string {
	return fmt.Sprintf("%s/pv/%s", t.root(), pv)
}

// ConnectReport returns the topic connection reports are published on.
//
// Example: beamline/health/i22
func (t Topics) ConnectReport(beamline string) string {
	return fmt.Sprintf("%s/health/%s", t.root(), beamline)
}

// DeviceState returns the topic for one device's connection state.
//
// Example: beamline/device/i22/saxs/state
func (t Topics) DeviceState(beamline, device string) string {
	return fmt.Sprintf("%s/device/%s/%s/state", t.root(), beamline, device)
}

// SystemStatus returns the service online/offline topic.
//
// Example: beamline/system/status
func (t Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", t.root())
}
