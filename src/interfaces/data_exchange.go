package interfaces

// -----------------------------------------------------------------------------
// IDataExchanger shares decoded stream values with external listeners.
// -----------------------------------------------------------------------------

type IDataExchanger interface {
	// -----------------------------------------------------------------------------
	// Broadcast pushes a value to every listener of its stream and records it
	// as the stream's latest value.
	Broadcast(payload interface{})

	// -----------------------------------------------------------------------------
	// UpdateState records a value as its stream's latest without pushing it.
	UpdateState(payload interface{})

	// -----------------------------------------------------------------------------
	// Start the server
	Start() error

	// -----------------------------------------------------------------------------
	// Stop the server gracefully
	Stop() error
}
