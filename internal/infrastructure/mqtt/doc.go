// Package mqtt provides MQTT client connectivity for beamline-core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//
// # Architecture
//
// A PV gateway mirrors EPICS PV status onto the broker. The pv package
// subscribes to those topics to decide whether a device's PVs are
// reachable, and connection reports are published back for dashboards.
//
//	IOCs ↔ PV gateway ↔ MQTT Broker ↔ beamline-core
//
// # Topics
//
//	<prefix>/pv/<pv>                   PV status, published by the gateway
//	<prefix>/health/<beamline>         connection report (retained)
//	<prefix>/device/<beamline>/<name>/state
//	<prefix>/system/status             online/offline and LWT
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Publish(client.Topics().ConnectReport("i22"), payload, 1, true)
package mqtt
