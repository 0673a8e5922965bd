package membuf

import "testing"

func TestGetLengthAndCapacity(t *testing.T) {
	p := New()

	tests := []struct {
		n       int
		wantCap int
	}{
		{0, minClassBytes},
		{1, minClassBytes},
		{minClassBytes, minClassBytes},
		{minClassBytes + 1, minClassBytes * 2},
		{maxClassBytes, maxClassBytes},
	}
	for _, tt := range tests {
		buf := p.Get(tt.n)
		if len(buf) != tt.n {
			t.Errorf("Get(%d) len = %d", tt.n, len(buf))
		}
		if cap(buf) != tt.wantCap {
			t.Errorf("Get(%d) cap = %d, want %d", tt.n, cap(buf), tt.wantCap)
		}
		p.Put(buf)
	}
}

func TestOversizedRequestBypassesPool(t *testing.T) {
	p := New()

	buf := p.Get(maxClassBytes + 1)
	if len(buf) != maxClassBytes+1 {
		t.Fatalf("len = %d", len(buf))
	}
	p.Put(buf)

	pooled, direct := p.Stats()
	if pooled != 0 || direct != 1 {
		t.Errorf("stats = %d pooled / %d direct, want 0/1", pooled, direct)
	}
}

func TestPutIgnoresForeignSlices(t *testing.T) {
	p := New()
	// Odd capacity cannot have come from a size class.
	p.Put(make([]byte, 3000))
	p.Put(nil)
}

func TestRecycleRoundTrip(t *testing.T) {
	p := New()

	buf := p.Get(100)
	buf[0] = 0xff
	p.Put(buf)

	again := p.Get(200)
	if len(again) != 200 {
		t.Errorf("len = %d after recycle", len(again))
	}

	pooled, _ := p.Stats()
	if pooled != 2 {
		t.Errorf("pooled = %d, want 2", pooled)
	}
}
