package signals

import (
	"voyo/api_curator/pkg/logging"
)

// Emitter is a synchronous in-process event bus. Subscribers are invoked in
// registration order on the caller's goroutine; there is no buffering and no
// fan-out concurrency.
type Emitter struct {
	logger      logging.Logger
	subscribers []func(Signal)
}

// NewEmitter creates an emitter.
func NewEmitter(logger logging.Logger) *Emitter {
	return &Emitter{logger: logger}
}

// Subscribe registers a handler for every emitted signal.
func (e *Emitter) Subscribe(handler func(Signal)) {
	e.subscribers = append(e.subscribers, handler)
}

// Emit delivers a signal to all subscribers synchronously.
func (e *Emitter) Emit(sig Signal) {
	if !sig.Type.Valid() {
		e.logger.WithFields(logging.Fields{
			"type":       sig.Type,
			"session_id": sig.SessionID,
		}).Warn("Dropping signal with unknown type")
		return
	}
	for _, handler := range e.subscribers {
		handler(sig)
	}
}
