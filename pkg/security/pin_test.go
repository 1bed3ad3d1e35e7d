package security

import (
	"strings"
	"testing"

	"github.com/posbill/billsync-backend/pkg/config"
)

func testPinConfig() config.PinConfig {
	return config.PinConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPin(t *testing.T) {
	encoded, err := HashPin("4321", testPinConfig())
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format %q", encoded)
	}

	ok, err := VerifyPin("4321", encoded)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected matching pin to verify")
	}

	ok, err = VerifyPin("9999", encoded)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if ok {
		t.Fatalf("expected mismatched pin to fail")
	}
}

func TestVerifyPinRejectsMalformedHash(t *testing.T) {
	if _, err := VerifyPin("4321", "not-a-hash"); err != ErrInvalidHash {
		t.Fatalf("expected ErrInvalidHash, got %v", err)
	}
}

func TestValidatePin(t *testing.T) {
	cases := []struct {
		pin     string
		wantErr bool
	}{
		{"4321", false},
		{"123456", false},
		{"123", true},
		{"1234567", true},
		{"12a4", true},
	}
	for _, tc := range cases {
		err := ValidatePin(tc.pin)
		if tc.wantErr && err == nil {
			t.Fatalf("expected error for pin %q", tc.pin)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("unexpected error for pin %q: %v", tc.pin, err)
		}
	}
}
