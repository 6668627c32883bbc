// Package eventlog holds the operator-facing progress log: plain text lines
// appended in the order a batch produces them.
package eventlog

type Sink interface {
	Append(line string)
	Clear()
}

type multi []Sink

// Multi fans every call out to all sinks in order.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}

func (m multi) Append(line string) {
	for _, s := range m {
		s.Append(line)
	}
}

func (m multi) Clear() {
	for _, s := range m {
		s.Clear()
	}
}
