package api

import "testing"

func TestVersionCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Version
		want int
	}{
		{"equal", "1.2.3", "1.2.3", 0},
		{"patch newer", "1.2.4", "1.2.3", 1},
		{"minor older", "1.1.9", "1.2.0", -1},
		{"major wins", "2.0.0", "1.9.9", 1},
		{"short form padded", "1.2", "1.2.0", 0},
		{"leading v tolerated", "v1.2.3", "1.2.3", 0},
		{"zero value lowest", "", "0.0.1", -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestVersionParts(t *testing.T) {
	major, minor, patch := Version("3.14.159").Parts()
	if major != 3 || minor != 14 || patch != 159 {
		t.Errorf("Parts() = %d.%d.%d, want 3.14.159", major, minor, patch)
	}

	major, minor, patch = Version("2").Parts()
	if major != 2 || minor != 0 || patch != 0 {
		t.Errorf("Parts() = %d.%d.%d, want 2.0.0", major, minor, patch)
	}
}

func TestSDKVersionRoundTrip(t *testing.T) {
	v := NewVersion(1, 1, 1)
	token := PackSDKVersion(v)

	got, ok := UnpackSDKVersion(token)
	if !ok {
		t.Fatalf("UnpackSDKVersion rejected its own token %#x", token)
	}
	if got != v {
		t.Errorf("round trip = %q, want %q", got, v)
	}
}

func TestSDKVersionRejectsBadMagic(t *testing.T) {
	// A raw version number is the most likely bad input for the token slot.
	if _, ok := UnpackSDKVersion(111); ok {
		t.Error("UnpackSDKVersion accepted a token without the magic suffix")
	}
	if _, ok := UnpackSDKVersion(0); ok {
		t.Error("UnpackSDKVersion accepted zero")
	}
}
