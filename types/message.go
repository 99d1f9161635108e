package types

// Message describes a protocol message carried between peers. Every message
// belongs to exactly one transaction, and carries an explicit step marker so
// operation state machines can detect reordered or duplicated deliveries:
// the transport makes no ordering guarantee whatsoever.
type Message interface {
	// NewEmpty returns a new empty initialized instance of the message.
	// Used by the registry when unmarshalling a wire payload.
	NewEmpty() Message

	// Name returns the unique name of the message type on the wire.
	Name() string

	// Tx returns the transaction this message belongs to.
	Tx() Transaction

	// Step returns the position of this message inside its transaction's
	// exchange. Handlers must ignore steps they have already processed.
	Step() uint32

	// String returns a one-line description of the message.
	String() string
}
