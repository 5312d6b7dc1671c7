package realtime

// Sink is anything that accepts a broadcast message.
type Sink interface {
	Broadcast(event string, payload interface{})
}

// Fanout duplicates every broadcast to each sink. The engine sees one
// broadcaster while SSE and WebSocket transports both receive events.
type Fanout []Sink

// Broadcast forwards the message to every sink in order.
func (f Fanout) Broadcast(event string, payload interface{}) {
	for _, s := range f {
		s.Broadcast(event, payload)
	}
}
