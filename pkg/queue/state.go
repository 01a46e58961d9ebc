package queue

// State is the lifecycle position of a Client.
//
//	Unconnected -> ConnectionPending -> Connected -> ChannelPending -> ChannelReady
//	ChannelReady -> ChannelPending      (termination signal)
//	* -> ConnectionClosed               (CloseConnection)
//	ChannelReady -> QueueDestroyed      (Destroy, connection unaffected)
type State int

const (
	StateUnconnected State = iota
	StateConnectionPending
	StateConnected
	StateChannelPending
	StateChannelReady
	StateConnectionClosed
	StateQueueDestroyed
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnectionPending:
		return "connection_pending"
	case StateConnected:
		return "connected"
	case StateChannelPending:
		return "channel_pending"
	case StateChannelReady:
		return "channel_ready"
	case StateConnectionClosed:
		return "connection_closed"
	case StateQueueDestroyed:
		return "queue_destroyed"
	default:
		return "unknown"
	}
}
