package events

// Subscriber receives flightpath events from the bus.
type Subscriber interface {
	// Subscribe delivers messages on subjects matching topic. A non-empty
	// user hides route events that belong to someone else. The returned
	// cancel function unsubscribes and closes the channel.
	Subscribe(topic, user string) (<-chan Message, func(), error)
	Close() error
}

var _ Subscriber = (*NATSSubscriber)(nil)
