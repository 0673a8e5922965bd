package api

import (
	"testing"

	"github.com/google/uuid"
)

func TestPluginIDChecksum(t *testing.T) {
	id := NewPluginID(uuid.MustParse("b70a0623-2b71-43e6-aa46-a8d9bb6ee5e2"))
	if !id.Valid() {
		t.Fatal("freshly derived identity failed its own checksum")
	}
	if id.CRC > 0xffffff {
		t.Errorf("checksum %#x exceeds 24 bits", id.CRC)
	}

	// Tampering with either half must be detectable.
	forged := id
	forged.CRC ^= 1
	if forged.Valid() {
		t.Error("identity with flipped checksum bit passed validation")
	}

	forged = id
	forged.UID[0] ^= 1
	if forged.Valid() {
		t.Error("identity with altered UUID passed validation")
	}
}

func TestParsePluginID(t *testing.T) {
	id, err := ParsePluginID("b70a0623-2b71-43e6-aa46-a8d9bb6ee5e2")
	if err != nil {
		t.Fatalf("ParsePluginID failed: %v", err)
	}
	if !id.Valid() {
		t.Error("parsed identity failed validation")
	}

	if _, err := ParsePluginID("not-a-uuid"); err == nil {
		t.Error("ParsePluginID accepted garbage")
	}
}

func TestPluginIDChecksumIsStable(t *testing.T) {
	u := uuid.MustParse("0f331a2f-9a23-4e54-8a38-3b9a02f1bb2b")
	if NewPluginID(u) != NewPluginID(u) {
		t.Error("checksum not deterministic for the same UUID")
	}

	other := uuid.MustParse("0f331a2f-9a23-4e54-8a38-3b9a02f1bb2c")
	if NewPluginID(u).CRC == NewPluginID(other).CRC {
		t.Log("checksum collision between adjacent UUIDs (allowed, but suspicious)")
	}
}
