package midi

import (
	"context"
	"strings"
	"sync"
	"time"

	"apc-sequence/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// DeviceEvent is emitted when controllers connect/disconnect
type DeviceEvent struct {
	Type       DeviceEventType
	Controller Controller
	ID         string
}

type DeviceEventType int

const (
	DeviceConnected DeviceEventType = iota
	DeviceDisconnected
)

func (t DeviceEventType) String() string {
	if t == DeviceDisconnected {
		return "disconnected"
	}
	return "connected"
}

// DeviceManager handles hot-plug detection of MIDI controllers.
// Events are read by a single consumer, the real-time cycle, one per cycle.
// A controller belongs to the consumer once its DeviceConnected event is
// received: the consumer closes it after DeviceDisconnected or on shutdown.
type DeviceManager struct {
	controllers map[string]Controller
	mu          sync.RWMutex
	events      chan DeviceEvent
	pollRate    time.Duration

	ports      map[string]Model // explicit port name -> model
	autoDetect bool
	keyboard   string
}

// NewDeviceManager creates a new device manager that detects APCs by port name
func NewDeviceManager() *DeviceManager {
	return &DeviceManager{
		controllers: make(map[string]Controller),
		events:      make(chan DeviceEvent, 16),
		pollRate:    time.Second,
		ports:       make(map[string]Model),
		autoDetect:  true,
	}
}

// AddPort registers a port that carries a controller of the given model
func (dm *DeviceManager) AddPort(name string, model Model) {
	dm.ports[strings.ToLower(name)] = model
}

// SetAutoDetect enables detection of APCs by port name
func (dm *DeviceManager) SetAutoDetect(on bool) {
	dm.autoDetect = on
}

// SetKeyboard selects the input port used for note recording
func (dm *DeviceManager) SetKeyboard(name string) {
	dm.keyboard = strings.ToLower(name)
}

// SetPollRate sets the interval between port scans
func (dm *DeviceManager) SetPollRate(d time.Duration) {
	dm.pollRate = d
}

// Events returns a channel of device connect/disconnect events
func (dm *DeviceManager) Events() <-chan DeviceEvent {
	return dm.events
}

// Run starts the polling loop (blocking - run in goroutine)
func (dm *DeviceManager) Run(ctx context.Context) {
	ticker := time.NewTicker(dm.pollRate)
	defer ticker.Stop()

	dm.scan(ctx)

	for {
		select {
		case <-ctx.Done():
			dm.mu.Lock()
			dm.controllers = make(map[string]Controller)
			dm.mu.Unlock()
			close(dm.events)
			return
		case <-ticker.C:
			dm.scan(ctx)
		}
	}
}

// modelFor returns the model a port carries, ModelUnknown if it is not a controller
func (dm *DeviceManager) modelFor(name string) Model {
	if m, ok := dm.ports[strings.ToLower(name)]; ok {
		return m
	}
	if dm.autoDetect {
		return ModelForPort(name)
	}
	return ModelUnknown
}

func (dm *DeviceManager) scan(ctx context.Context) {
	// port enumeration can hang on some drivers
	type portsResult struct {
		inPorts  []drivers.In
		outPorts []drivers.Out
	}

	ch := make(chan portsResult, 1)
	go func() {
		ch <- portsResult{inPorts: gomidi.GetInPorts(), outPorts: gomidi.GetOutPorts()}
	}()

	var inPorts []drivers.In
	var outPorts []drivers.Out

	select {
	case result := <-ch:
		inPorts = result.inPorts
		outPorts = result.outPorts
	case <-time.After(3 * time.Second):
		debug.Log("devices", "port scan timed out")
		return
	}

	seenIDs := make(map[string]bool)

	for _, inPort := range inPorts {
		id := inPort.String()
		name := strings.ToLower(id)

		var c Controller
		model := dm.modelFor(id)
		isKeyboard := dm.keyboard != "" && name == dm.keyboard
		if model == ModelUnknown && !isKeyboard {
			continue
		}
		seenIDs[id] = true

		dm.mu.RLock()
		_, exists := dm.controllers[id]
		dm.mu.RUnlock()
		if exists {
			continue
		}

		var err error
		if model != ModelUnknown {
			var outPort drivers.Out
			for j, op := range outPorts {
				if strings.ToLower(op.String()) == name {
					outPort = outPorts[j]
					break
				}
			}
			c, err = NewAPCController(id, model, inPort, outPort)
		} else {
			c, err = NewKeyboardController(id, inPort)
		}
		if err != nil {
			debug.Log("devices", "open %s: %v", id, err)
			continue
		}

		dm.mu.Lock()
		dm.controllers[id] = c
		dm.mu.Unlock()

		debug.Log("devices", "connected %s (%s %s)", id, c.Type(), c.Model())
		if !dm.post(ctx, DeviceEvent{Type: DeviceConnected, Controller: c, ID: id}) {
			// never handed over
			dm.mu.Lock()
			delete(dm.controllers, id)
			dm.mu.Unlock()
			c.Close()
			return
		}
	}

	dm.mu.Lock()
	var removed []DeviceEvent
	for id, c := range dm.controllers {
		if !seenIDs[id] {
			// the consumer detaches and closes it
			delete(dm.controllers, id)
			removed = append(removed, DeviceEvent{Type: DeviceDisconnected, Controller: c, ID: id})
		}
	}
	dm.mu.Unlock()

	for _, ev := range removed {
		debug.Log("devices", "disconnected %s", ev.ID)
		if !dm.post(ctx, ev) {
			return
		}
	}
}

func (dm *DeviceManager) post(ctx context.Context, ev DeviceEvent) bool {
	select {
	case dm.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
