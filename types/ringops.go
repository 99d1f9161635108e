package types

import "fmt"

// -----------------------------------------------------------------------------
// JoinRequestMessage

// NewEmpty implements types.Message.
func (m JoinRequestMessage) NewEmpty() Message {
	return &JoinRequestMessage{}
}

// Name implements types.Message.
func (m JoinRequestMessage) Name() string {
	return "joinrequest"
}

// Tx implements types.Message.
func (m JoinRequestMessage) Tx() Transaction {
	return m.Transaction
}

// Step implements types.Message.
func (m JoinRequestMessage) Step() uint32 {
	return m.StepN
}

// String implements types.Message.
func (m JoinRequestMessage) String() string {
	return fmt.Sprintf("{joinrequest %s from %s}", m.Transaction, m.Joiner.Peer)
}

// -----------------------------------------------------------------------------
// JoinAcceptMessage

// NewEmpty implements types.Message.
func (m JoinAcceptMessage) NewEmpty() Message {
	return &JoinAcceptMessage{}
}

// Name implements types.Message.
func (m JoinAcceptMessage) Name() string {
	return "joinaccept"
}

// Tx implements types.Message.
func (m JoinAcceptMessage) Tx() Transaction {
	return m.Transaction
}

// Step implements types.Message.
func (m JoinAcceptMessage) Step() uint32 {
	return m.StepN
}

// String implements types.Message.
func (m JoinAcceptMessage) String() string {
	return fmt.Sprintf("{joinaccept %s at %s with %d neighbors}",
		m.Transaction, m.AssignedLocation, len(m.Neighbors))
}

// -----------------------------------------------------------------------------
// JoinRejectMessage

// NewEmpty implements types.Message.
func (m JoinRejectMessage) NewEmpty() Message {
	return &JoinRejectMessage{}
}

// Name implements types.Message.
func (m JoinRejectMessage) Name() string {
	return "joinreject"
}

// Tx implements types.Message.
func (m JoinRejectMessage) Tx() Transaction {
	return m.Transaction
}

// Step implements types.Message.
func (m JoinRejectMessage) Step() uint32 {
	return m.StepN
}

// String implements types.Message.
func (m JoinRejectMessage) String() string {
	return fmt.Sprintf("{joinreject %s: %s}", m.Transaction, m.Reason)
}

// -----------------------------------------------------------------------------
// PutRequestMessage

// NewEmpty implements types.Message.
func (m PutRequestMessage) NewEmpty() Message {
	return &PutRequestMessage{}
}

// Name implements types.Message.
func (m PutRequestMessage) Name() string {
	return "putrequest"
}

// Tx implements types.Message.
func (m PutRequestMessage) Tx() Transaction {
	return m.Transaction
}

// Step implements types.Message.
func (m PutRequestMessage) Step() uint32 {
	return m.StepN
}

// String implements types.Message.
func (m PutRequestMessage) String() string {
	return fmt.Sprintf("{putrequest %s key %s htl %d}", m.Transaction, m.Key, m.Htl)
}

// -----------------------------------------------------------------------------
// PutAckMessage

// NewEmpty implements types.Message.
func (m PutAckMessage) NewEmpty() Message {
	return &PutAckMessage{}
}

// Name implements types.Message.
func (m PutAckMessage) Name() string {
	return "putack"
}

// Tx implements types.Message.
func (m PutAckMessage) Tx() Transaction {
	return m.Transaction
}

// Step implements types.Message.
func (m PutAckMessage) Step() uint32 {
	return m.StepN
}

// String implements types.Message.
func (m PutAckMessage) String() string {
	return fmt.Sprintf("{putack %s stored at %s}", m.Transaction, m.Storer.Peer)
}

// -----------------------------------------------------------------------------
// GetRequestMessage

// NewEmpty implements types.Message.
func (m GetRequestMessage) NewEmpty() Message {
	return &GetRequestMessage{}
}

// Name implements types.Message.
func (m GetRequestMessage) Name() string {
	return "getrequest"
}

// Tx implements types.Message.
func (m GetRequestMessage) Tx() Transaction {
	return m.Transaction
}

// Step implements types.Message.
func (m GetRequestMessage) Step() uint32 {
	return m.StepN
}

// String implements types.Message.
func (m GetRequestMessage) String() string {
	return fmt.Sprintf("{getrequest %s key %s htl %d}", m.Transaction, m.Key, m.Htl)
}

// -----------------------------------------------------------------------------
// GetResponseMessage

// NewEmpty implements types.Message.
func (m GetResponseMessage) NewEmpty() Message {
	return &GetResponseMessage{}
}

// Name implements types.Message.
func (m GetResponseMessage) Name() string {
	return "getresponse"
}

// Tx implements types.Message.
func (m GetResponseMessage) Tx() Transaction {
	return m.Transaction
}

// Step implements types.Message.
func (m GetResponseMessage) Step() uint32 {
	return m.StepN
}

// String implements types.Message.
func (m GetResponseMessage) String() string {
	return fmt.Sprintf("{getresponse %s key %s found %t}", m.Transaction, m.Key, m.Found)
}
