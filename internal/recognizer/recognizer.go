// Package recognizer defines the capability boundary between the dispatch
// core and the speech model. Nothing in this package knows about acoustic
// features, model weights, or inference numerics — those live entirely
// behind the Recognizer interface, per the external-collaborator boundary
// drawn in the specification.
package recognizer

// Stream is per-connection decoding state owned by the recognizer. It is
// shared between the owning connection and the dispatcher: the connection
// appends waveform and signals end-of-input, the dispatcher drives decode
// steps. Callers must never invoke DecodeStream concurrently on the same
// Stream — the dispatcher's active set is what makes that safe.
type Stream interface {
	AcceptWaveform(sampleRate int, samples []float32)
	InputFinished()
	NumFramesReady() int
	IsLastFrame(index int) bool
}

// Result is the current hypothesis produced by a decode step.
type Result interface {
	AsJSON() (string, error)
}

// Recognizer is the opaque speech decoder capability. Implementations own
// model state and must be safe for concurrent DecodeStream calls across
// distinct Streams.
type Recognizer interface {
	SampleRate() int
	CreateStream() (Stream, error)
	IsReady(s Stream) bool
	DecodeStream(s Stream) error
	Result(s Stream) (Result, error)
	Close() error
}
