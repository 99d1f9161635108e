// Package registry provides the message registry: it turns protocol messages
// into self-describing binary payloads and back, and dispatches decoded
// messages to the callback registered for their type. The transport treats
// the encoded payload as opaque bytes.
package registry

import (
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/xerrors"

	"github.com/ZeroXClem/locutus/types"
)

// Exec is the type of function executed on a message received for its
// registered type.
type Exec func(msg types.Message) error

// Registry encodes, decodes and dispatches protocol messages.
type Registry interface {
	// RegisterMessageCallback registers the handler executed when a
	// message of msg's type is processed. Registering again for the same
	// type replaces the handler.
	RegisterMessageCallback(msg types.Message, exec Exec)

	// Marshal encodes a message into a self-describing payload. The
	// message type must be known, either registered or a known prototype.
	Marshal(msg types.Message) ([]byte, error)

	// Unmarshal decodes a payload produced by Marshal. Fails if the
	// payload names a message type never registered on this peer.
	Unmarshal(data []byte) (types.Message, error)

	// ProcessMessage executes the callback registered for msg's type.
	ProcessMessage(msg types.Message) error
}

// wireMessage is the self-describing envelope payload: the message type name
// plus the msgpack encoding of the message itself.
type wireMessage struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload"`
}

type registry struct {
	mu        sync.RWMutex
	prototype map[string]types.Message
	callback  map[string]Exec
}

// NewRegistry returns an empty message registry.
func NewRegistry() Registry {
	return &registry{
		prototype: make(map[string]types.Message),
		callback:  make(map[string]Exec),
	}
}

// RegisterMessageCallback implements registry.Registry.
func (r *registry) RegisterMessageCallback(msg types.Message, exec Exec) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prototype[msg.Name()] = msg.NewEmpty()
	r.callback[msg.Name()] = exec
}

// Marshal implements registry.Registry.
func (r *registry) Marshal(msg types.Message) ([]byte, error) {
	payload, err := msgpack.Marshal(msg)
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal %s message: %v", msg.Name(), err)
	}
	data, err := msgpack.Marshal(wireMessage{Type: msg.Name(), Payload: payload})
	if err != nil {
		return nil, xerrors.Errorf("failed to marshal wire envelope: %v", err)
	}
	return data, nil
}

// Unmarshal implements registry.Registry.
func (r *registry) Unmarshal(data []byte) (types.Message, error) {
	var wire wireMessage
	if err := msgpack.Unmarshal(data, &wire); err != nil {
		return nil, xerrors.Errorf("failed to unmarshal wire envelope: %v", err)
	}

	r.mu.RLock()
	proto, ok := r.prototype[wire.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, xerrors.Errorf("unknown message type: %q", wire.Type)
	}

	msg := proto.NewEmpty()
	if err := msgpack.Unmarshal(wire.Payload, msg); err != nil {
		return nil, xerrors.Errorf("failed to unmarshal %q message: %v", wire.Type, err)
	}
	return msg, nil
}

// ProcessMessage implements registry.Registry.
func (r *registry) ProcessMessage(msg types.Message) error {
	r.mu.RLock()
	exec, ok := r.callback[msg.Name()]
	r.mu.RUnlock()
	if !ok {
		return xerrors.Errorf("no callback registered for message type %q", msg.Name())
	}
	return exec(msg)
}
