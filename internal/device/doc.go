// Package device provides the device contract and the Device Registry.
//
// The Device Registry is the single authoritative inventory of the devices
// built for a beamline. Bulk connection, the inspection API and tests all
// answer "which devices exist" from it.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                        Device Registry                        │
//	│                                                               │
//	│  ┌────────────────────┐         ┌─────────────────────────┐  │
//	│  │      Registry      │         │    Device contract      │  │
//	│  │   (registry.go)    │         │      (types.go)         │  │
//	│  │                    │         │                         │  │
//	│  │ • ordered names    │         │ • Device (name)         │  │
//	│  │ • singleton Put    │         │ • Connector (coop)      │  │
//	│  │ • state tracking   │         │ • Waiter (blocking)     │  │
//	│  │ • change hooks     │         │ • Strategy              │  │
//	│  └────────────────────┘         └─────────────────────────┘  │
//	└──────────────────────────────────────────────────────────────┘
//	            ▲                                  │
//	            │ Put / MarkConnected              │ change hooks
//	┌───────────┴──────────┐          ┌────────────▼─────────────┐
//	│  factory controllers │          │  WebSocket state feed    │
//	└──────────────────────┘          └──────────────────────────┘
//
// # Singleton contract
//
// A name maps to at most one device. Registering a second device under a
// taken name returns the stored instance when both share a concrete type,
// and fails with *DuplicateNameError otherwise.
//
// # Usage
//
//	reg := device.NewRegistry()
//	reg.SetLogger(log)
//
//	dev, err := reg.Put("sample_stage", stage)
//	if err != nil {
//	    return err
//	}
//	_ = reg.MarkConnected("sample_stage")
//
//	for _, e := range reg.Entries() {
//	    fmt.Println(e.Name, e.State, e.LastError)
//	}
//
// # Thread Safety
//
// The Registry is safe for concurrent use. Change hooks are invoked after
// the internal lock is released and must not block.
package device
