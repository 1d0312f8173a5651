package link

import "errors"

var (
	// ErrTransportDisabled means the Bluetooth adapter is off. Not retried automatically.
	ErrTransportDisabled = errors.New("bluetooth adapter is disabled")
	ErrCharacteristicNotFound = errors.New("characteristic not found")
	ErrDescriptorNotFound = errors.New("notification descriptor not found")
	ErrTransportDisconnected = errors.New("transport disconnected")

	ErrAttemptInProgress = errors.New("connection attempt already in progress")
	ErrShutdown = errors.New("link is shut down")
)
