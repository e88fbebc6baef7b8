package events

// Sink receives session events. Deliver is called while the session is locked,
// so implementations must not block and must not call back into the session.
type Sink interface {
	Deliver(e Event)
}

// SinkFunc adapts a plain function to Sink
type SinkFunc func(e Event)

func (f SinkFunc) Deliver(e Event) { f(e) }

// MultiSink fans every event out to each sink in order
type MultiSink []Sink

func (m MultiSink) Deliver(e Event) {
	for _, s := range m {
		if s != nil {
			s.Deliver(e)
		}
	}
}

// Discard drops every event
var Discard Sink = SinkFunc(func(Event) {})
