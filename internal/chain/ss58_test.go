package chain

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcutil/base58"
)

func TestEncodeDecodeSS58_RoundTrip(t *testing.T) {
	pubkey := make([]byte, 32)
	for i := range pubkey {
		pubkey[i] = byte(i)
	}

	for _, prefix := range []uint16{0, 42, 63, 64, 255, 16383} {
		address, err := EncodeSS58(prefix, pubkey)
		if err != nil {
			t.Fatalf("EncodeSS58 prefix %d failed: %v", prefix, err)
		}

		decodedPrefix, decodedKey, err := DecodeSS58(address)
		if err != nil {
			t.Fatalf("DecodeSS58 prefix %d failed: %v", prefix, err)
		}
		if decodedPrefix != prefix {
			t.Errorf("Expected prefix %d, got %d", prefix, decodedPrefix)
		}
		if !bytes.Equal(decodedKey, pubkey) {
			t.Errorf("Public key did not round-trip for prefix %d", prefix)
		}
	}
}

func TestEncodeSS58_InvalidKeyLength(t *testing.T) {
	if _, err := EncodeSS58(42, make([]byte, 16)); err == nil {
		t.Fatal("Expected error for short public key")
	}
}

func TestDecodeSS58_Malformed(t *testing.T) {
	cases := []struct {
		name    string
		address string
	}{
		{"empty", ""},
		{"not base58", "0OIl"},
		{"garbage", "zzzzzz"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, _, err := DecodeSS58(tc.address); err == nil {
				t.Errorf("Expected error for %q", tc.address)
			}
		})
	}
}

func TestDecodeSS58_CorruptedChecksum(t *testing.T) {
	address, err := EncodeSS58(42, make([]byte, 32))
	if err != nil {
		t.Fatalf("EncodeSS58 failed: %v", err)
	}

	raw := base58.Decode(address)
	raw[len(raw)-1] ^= 0x01
	corrupted := base58.Encode(raw)

	if _, _, err := DecodeSS58(corrupted); err == nil {
		t.Fatal("Expected checksum mismatch for corrupted address")
	}
}

func TestIsValidSS58(t *testing.T) {
	address, err := EncodeSS58(42, make([]byte, 32))
	if err != nil {
		t.Fatalf("EncodeSS58 failed: %v", err)
	}

	if !IsValidSS58(address, 42) {
		t.Error("Expected address to be valid for its own prefix")
	}
	if IsValidSS58(address, 0) {
		t.Error("Expected address to be invalid for another network prefix")
	}
	if IsValidSS58("not-an-address", 42) {
		t.Error("Expected malformed address to be invalid")
	}
}

func TestGenerateKeypair(t *testing.T) {
	keypair, err := GenerateKeypair(42)
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}

	if !IsValidSS58(keypair.Address, 42) {
		t.Errorf("Generated address %s is not valid SS58", keypair.Address)
	}
	if keypair.Mnemonic == "" {
		t.Error("Expected a mnemonic")
	}
}

func TestKeypairFromMnemonic_Deterministic(t *testing.T) {
	original, err := GenerateKeypair(42)
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}

	rebuilt, err := KeypairFromMnemonic(original.Mnemonic, 42)
	if err != nil {
		t.Fatalf("KeypairFromMnemonic failed: %v", err)
	}
	if rebuilt.Address != original.Address {
		t.Errorf("Expected address %s, got %s", original.Address, rebuilt.Address)
	}
}

func TestKeypairFromMnemonic_Invalid(t *testing.T) {
	if _, err := KeypairFromMnemonic("definitely not a mnemonic", 42); err == nil {
		t.Fatal("Expected error for invalid mnemonic")
	}
}

func TestSignVerify(t *testing.T) {
	keypair, err := GenerateKeypair(42)
	if err != nil {
		t.Fatalf("GenerateKeypair failed: %v", err)
	}

	payload := TransferPayload(keypair.Address, "5Destination", 1_000_000_000)
	signature := keypair.Sign(payload)

	if !keypair.Verify(payload, signature) {
		t.Error("Expected signature to verify")
	}
	if keypair.Verify(append(payload, 0x00), signature) {
		t.Error("Expected signature over different payload to fail")
	}
}
