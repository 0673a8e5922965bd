package wire

import "testing"

func TestHandshakeRoundTrip(t *testing.T) {
	port, err := ParseHandshake(Handshake(50123))
	if err != nil {
		t.Fatalf("ParseHandshake failed: %v", err)
	}
	if port != 50123 {
		t.Errorf("port = %d, want 50123", port)
	}
}

func TestParseHandshakeRejects(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"random output", "starting up..."},
		{"wrong version", "GPF-PLUGIN|2|4000"},
		{"missing port", "GPF-PLUGIN|1|"},
		{"non-numeric port", "GPF-PLUGIN|1|abc"},
		{"port out of range", "GPF-PLUGIN|1|99999"},
		{"zero port", "GPF-PLUGIN|1|0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseHandshake(tt.line); err == nil {
				t.Errorf("ParseHandshake(%q) accepted a bad line", tt.line)
			}
		})
	}
}

func TestParseHandshakeTrimsNewline(t *testing.T) {
	port, err := ParseHandshake("GPF-PLUGIN|1|4321\n")
	if err != nil {
		t.Fatalf("ParseHandshake failed: %v", err)
	}
	if port != 4321 {
		t.Errorf("port = %d, want 4321", port)
	}
}
