package samplepool

import "testing"

func TestPool_GetReturnsRequestedLength(t *testing.T) {
	p := New()
	buf := p.Get(10)
	if len(buf) != 10 {
		t.Fatalf("expected length 10, got %d", len(buf))
	}
}

func TestPool_PutGetReusesCapacity(t *testing.T) {
	p := New()
	buf := p.Get(64)
	for i := range buf {
		buf[i] = float32(i)
	}
	p.Put(buf)

	reused := p.Get(32)
	if cap(reused) < 32 {
		t.Fatalf("expected reused buffer capacity >= 32, got %d", cap(reused))
	}
}

func TestPool_GetLargerThanCapacityAllocatesFresh(t *testing.T) {
	p := New()
	small := p.Get(4)
	p.Put(small)

	big := p.Get(4096)
	if len(big) != 4096 {
		t.Fatalf("expected length 4096, got %d", len(big))
	}
}
