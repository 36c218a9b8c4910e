package recognizer

import (
	"encoding/json"
	"fmt"
	"sync"
)

// FakeRecognizer is a deterministic, model-free stand-in for a real speech
// decoder. It lets the dispatch core run — and its tests exercise every
// invariant in the specification — without a trained acoustic model
// attached. Production deployments wire a real Recognizer in its place;
// the dispatcher never knows the difference.
type FakeRecognizer struct {
	sampleRate int
	frameSize  int
}

// NewFakeRecognizer builds a fake recognizer. frameSize is the number of
// samples consumed per decode step; sampleRate mirrors a loaded model's
// fixed feature configuration.
func NewFakeRecognizer(sampleRate, frameSize int) *FakeRecognizer {
	if frameSize <= 0 {
		frameSize = 1600 // 100ms at 16kHz
	}
	return &FakeRecognizer{sampleRate: sampleRate, frameSize: frameSize}
}

func (r *FakeRecognizer) SampleRate() int { return r.sampleRate }

func (r *FakeRecognizer) CreateStream() (Stream, error) {
	return &fakeStream{frameSize: r.frameSize}, nil
}

func (r *FakeRecognizer) IsReady(s Stream) bool {
	fs := s.(*fakeStream)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.unconsumedLocked() >= fs.frameSize || (fs.finished && fs.unconsumedLocked() > 0)
}

func (r *FakeRecognizer) DecodeStream(s Stream) error {
	fs := s.(*fakeStream)
	fs.mu.Lock()
	defer fs.mu.Unlock()

	n := fs.frameSize
	if avail := fs.unconsumedLocked(); avail < n {
		n = avail
	}
	if n <= 0 {
		return nil
	}
	chunk := fs.samples[fs.consumed : fs.consumed+n]
	fs.consumed += n
	fs.decodedFrames++

	var sum float64
	for _, v := range chunk {
		if v < 0 {
			v = -v
		}
		sum += float64(v)
	}
	energy := sum / float64(len(chunk))
	fs.hypothesis = fmt.Sprintf("%s word%d", fs.hypothesis, fs.decodedFrames)
	fs.lastEnergy = energy
	return nil
}

func (r *FakeRecognizer) Result(s Stream) (Result, error) {
	fs := s.(*fakeStream)
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fakeResult{text: trimLeadingSpace(fs.hypothesis)}, nil
}

func (r *FakeRecognizer) Close() error { return nil }

type fakeStream struct {
	mu            sync.Mutex
	frameSize     int
	samples       []float32
	consumed      int
	decodedFrames int
	finished      bool
	hypothesis    string
	lastEnergy    float64
}

func (s *fakeStream) AcceptWaveform(sampleRate int, samples []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, samples...)
}

func (s *fakeStream) InputFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished = true
}

// NumFramesReady reports the total number of decode steps the currently
// buffered input will require: floor(total/frameSize), plus one more for a
// trailing partial frame once the stream is finished. Unlike "unconsumed",
// this count is stable once finished, so a caller can compare a freshly
// decoded frame's index against it to detect the terminal step.
func (s *fakeStream) NumFramesReady() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frameSize == 0 {
		return 0
	}
	total := len(s.samples)
	frames := total / s.frameSize
	if s.finished && total%s.frameSize > 0 {
		frames++
	}
	return frames
}

func (s *fakeStream) IsLastFrame(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.finished || s.frameSize == 0 {
		return false
	}
	total := len(s.samples)
	frames := total / s.frameSize
	if total%s.frameSize > 0 {
		frames++
	}
	return index == frames-1
}

func (s *fakeStream) unconsumedLocked() int {
	return len(s.samples) - s.consumed
}

type fakeResult struct {
	text string
}

func (r fakeResult) AsJSON() (string, error) {
	b, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: r.text})
	return string(b), err
}

func trimLeadingSpace(s string) string {
	for len(s) > 0 && s[0] == ' ' {
		s = s[1:]
	}
	return s
}
