package registry

import (
	"errors"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/misaka00251/sherpa/internal/recognizer"
)

type stubSender struct {
	mu  sync.Mutex
	got []string
}

func (s *stubSender) SendText(h Handle, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, text)
	return nil
}

type failingSender struct{}

func (failingSender) SendText(h Handle, text string) error {
	return errors.New("boom")
}

func TestRegistry_OnOpenInsertsAndContains(t *testing.T) {
	r := New(zap.NewNop())
	rec := recognizer.NewFakeRecognizer(16000, 160)

	h, s, err := r.OnOpen(rec, &stubSender{})
	if err != nil {
		t.Fatalf("OnOpen: %v", err)
	}
	if s == nil {
		t.Fatal("expected non-nil stream")
	}
	if !r.Contains(h) {
		t.Fatal("expected registry to contain freshly opened handle")
	}
	if r.Len() != 1 {
		t.Fatalf("expected Len()==1, got %d", r.Len())
	}
}

func TestRegistry_OnCloseRemoves(t *testing.T) {
	r := New(zap.NewNop())
	rec := recognizer.NewFakeRecognizer(16000, 160)
	h, _, _ := r.OnOpen(rec, &stubSender{})

	r.OnClose(h)

	if r.Contains(h) {
		t.Fatal("expected handle removed after OnClose")
	}
	if r.Len() != 0 {
		t.Fatalf("expected Len()==0, got %d", r.Len())
	}
}

func TestRegistry_SendAfterCloseIsNoop(t *testing.T) {
	r := New(zap.NewNop())
	rec := recognizer.NewFakeRecognizer(16000, 160)
	sender := &stubSender{}
	h, _, _ := r.OnOpen(rec, sender)
	r.OnClose(h)

	r.Send(h, "late hypothesis")

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.got) != 0 {
		t.Fatalf("expected no sends delivered after close, got %v", sender.got)
	}
}

func TestRegistry_SendDeliversToOpenHandle(t *testing.T) {
	r := New(zap.NewNop())
	rec := recognizer.NewFakeRecognizer(16000, 160)
	sender := &stubSender{}
	h, _, _ := r.OnOpen(rec, sender)

	r.Send(h, "hello")

	sender.mu.Lock()
	defer sender.mu.Unlock()
	if len(sender.got) != 1 || sender.got[0] != "hello" {
		t.Fatalf("expected [\"hello\"], got %v", sender.got)
	}
}

func TestRegistry_SendSwallowsTransportErrors(t *testing.T) {
	r := New(zap.NewNop())
	rec := recognizer.NewFakeRecognizer(16000, 160)
	h, _, _ := r.OnOpen(rec, failingSender{})

	// Must not panic even though SendText always errors.
	r.Send(h, "text")
}

func TestRegistry_UnknownHandleOperationsAreSafe(t *testing.T) {
	r := New(zap.NewNop())
	unknown := Handle{}

	if r.Contains(unknown) {
		t.Fatal("expected unknown handle to report not-contained")
	}
	r.Send(unknown, "text") // must not panic
	r.OnClose(unknown)      // must not panic
}
