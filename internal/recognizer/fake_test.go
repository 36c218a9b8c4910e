package recognizer

import (
	"encoding/json"
	"testing"
)

func TestFakeRecognizer_DecodeAccumulatesHypothesis(t *testing.T) {
	rec := NewFakeRecognizer(16000, 4)
	s, err := rec.CreateStream()
	if err != nil {
		t.Fatalf("CreateStream: %v", err)
	}

	s.AcceptWaveform(16000, []float32{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8})

	if !rec.IsReady(s) {
		t.Fatal("expected stream to be ready after 8 samples with frameSize 4")
	}
	if err := rec.DecodeStream(s); err != nil {
		t.Fatalf("DecodeStream: %v", err)
	}
	result, err := rec.Result(s)
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	text, err := result.AsJSON()
	if err != nil {
		t.Fatalf("AsJSON: %v", err)
	}

	var decoded struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(text), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Text != "word1" {
		t.Fatalf("expected \"word1\" after one decode step, got %q", decoded.Text)
	}
}

func TestFakeRecognizer_NotReadyBelowFrameSize(t *testing.T) {
	rec := NewFakeRecognizer(16000, 100)
	s, _ := rec.CreateStream()
	s.AcceptWaveform(16000, make([]float32, 10))

	if rec.IsReady(s) {
		t.Fatal("expected stream not ready: fewer samples than frameSize and not finished")
	}

	s.InputFinished()
	if !rec.IsReady(s) {
		t.Fatal("expected stream ready once finished, even with a partial trailing frame")
	}
}

func TestFakeRecognizer_IsLastFrameOnlyAtFinalStep(t *testing.T) {
	rec := NewFakeRecognizer(16000, 4)
	s, _ := rec.CreateStream()
	s.AcceptWaveform(16000, make([]float32, 10))
	s.InputFinished()

	total := s.NumFramesReady()
	for i := 0; i < total; i++ {
		if err := rec.DecodeStream(s); err != nil {
			t.Fatalf("DecodeStream step %d: %v", i, err)
		}
	}
	if !s.IsLastFrame(total - 1) {
		t.Fatalf("expected IsLastFrame(%d) true after decoding all %d frames", total-1, total)
	}
	if s.IsLastFrame(0) && total > 1 {
		t.Fatal("expected only the final index to report IsLastFrame for a multi-frame stream")
	}
}

func TestFakeRecognizer_SampleRate(t *testing.T) {
	rec := NewFakeRecognizer(8000, 0)
	if rec.SampleRate() != 8000 {
		t.Fatalf("expected SampleRate 8000, got %d", rec.SampleRate())
	}
}
