package link

import "strconv"

type State uint8

const (
	StateIdle State = iota
	StateConnecting
	StateDiscovering
	StateSubscribing
	StateReady
	StateDisconnected
)

var allStates = []State{
	StateIdle,
	StateConnecting,
	StateDiscovering,
	StateSubscribing,
	StateReady,
	StateDisconnected,
}

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateConnecting:
		return "Connecting"
	case StateDiscovering:
		return "Discovering"
	case StateSubscribing:
		return "Subscribing"
	case StateReady:
		return "Ready"
	case StateDisconnected:
		return "Disconnected"
	default:
		panic("unknown link state: " + strconv.Itoa(int(s)))
	}
}

// attempting reports whether a transport attempt is in flight or established.
func (s State) attempting() bool {
	switch s {
	case StateConnecting, StateDiscovering, StateSubscribing, StateReady:
		return true
	}

	return false
}
