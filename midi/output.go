package midi

import (
	"fmt"
	"strings"
	"sync"

	"apc-sequence/debug"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// MaxPorts bounds the output ports a Router addresses: the synth on port 0
// and up to MaxPorts-1 controllers.
const MaxPorts = 8

// SynthPort is the port notes are sent to
const SynthPort = 0

// Sender writes one message
type Sender interface {
	Send(msg Message) error
}

// SendFunc adapts a function to a Sender
type SendFunc func(msg Message) error

func (f SendFunc) Send(msg Message) error { return f(msg) }

// Router hands sorted output messages to the sender of their port
type Router struct {
	mu      sync.Mutex
	senders [MaxPorts]Sender
	errors  uint64
}

// SetPort attaches a sender to a port; nil detaches it
func (r *Router) SetPort(port int, s Sender) {
	if port < 0 || port >= MaxPorts {
		return
	}
	r.mu.Lock()
	r.senders[port] = s
	r.mu.Unlock()
}

// Write sends messages in order. Failures are logged and do not stop the
// remaining messages.
func (r *Router) Write(msgs []Timed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range msgs {
		port := msgs[i].Port
		if port < 0 || port >= MaxPorts || r.senders[port] == nil {
			continue
		}
		if err := r.senders[port].Send(msgs[i].Msg); err != nil {
			r.errors++
			debug.LogEvery(100, "out", "port %d: %v", port, err)
		}
	}
}

// Errors returns how many writes failed
func (r *Router) Errors() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errors
}

// OpenOutput opens an output port by name (case-insensitive substring match)
func OpenOutput(name string) (Sender, string, error) {
	want := strings.ToLower(name)
	for _, port := range gomidi.GetOutPorts() {
		if strings.Contains(strings.ToLower(port.String()), want) {
			send, err := gomidi.SendTo(port)
			if err != nil {
				return nil, "", fmt.Errorf("open output %s: %w", port, err)
			}
			return SendFunc(func(msg Message) error {
				return send(msg.Gomidi())
			}), port.String(), nil
		}
	}
	return nil, "", fmt.Errorf("output port %q not found", name)
}
