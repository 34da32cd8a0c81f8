package chain

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"golang.org/x/crypto/blake2b"
)

// ss58Prelude is hashed in front of the payload when computing the address
// checksum, per the SS58 registry.
var ss58Prelude = []byte("SS58PRE")

const (
	pubkeyLength   = 32
	checksumLength = 2
)

// EncodeSS58 renders a 32-byte public key as an SS58 address for the given
// network prefix.
func EncodeSS58(prefix uint16, pubkey []byte) (string, error) {
	if len(pubkey) != pubkeyLength {
		return "", fmt.Errorf("invalid public key length: expected %d bytes, got %d", pubkeyLength, len(pubkey))
	}

	payload := appendPrefix(nil, prefix)
	payload = append(payload, pubkey...)
	checksum := ss58Checksum(payload)
	return base58.Encode(append(payload, checksum[:checksumLength]...)), nil
}

// DecodeSS58 parses an SS58 address into its network prefix and public key,
// verifying the checksum.
func DecodeSS58(address string) (uint16, []byte, error) {
	raw := base58.Decode(address)
	if len(raw) == 0 {
		return 0, nil, fmt.Errorf("invalid base58 encoding")
	}

	var prefix uint16
	var prefixLen int
	switch {
	case raw[0] < 64:
		prefix = uint16(raw[0])
		prefixLen = 1
	case raw[0] < 128:
		if len(raw) < 2 {
			return 0, nil, fmt.Errorf("truncated address prefix")
		}
		// Two-byte prefix encoding for networks 64..16383
		lower := (uint16(raw[0]&0x3f) << 2) | (uint16(raw[1]) >> 6)
		upper := uint16(raw[1]&0x3f) << 8
		prefix = lower | upper
		prefixLen = 2
	default:
		return 0, nil, fmt.Errorf("reserved address prefix: %d", raw[0])
	}

	if len(raw) != prefixLen+pubkeyLength+checksumLength {
		return 0, nil, fmt.Errorf("invalid address length: %d bytes", len(raw))
	}

	payload := raw[:prefixLen+pubkeyLength]
	checksum := ss58Checksum(payload)
	if !bytes.Equal(raw[prefixLen+pubkeyLength:], checksum[:checksumLength]) {
		return 0, nil, fmt.Errorf("checksum mismatch")
	}

	return prefix, raw[prefixLen : prefixLen+pubkeyLength], nil
}

// IsValidSS58 reports whether the address parses and carries a valid
// checksum for the expected network prefix.
func IsValidSS58(address string, prefix uint16) bool {
	decoded, _, err := DecodeSS58(address)
	if err != nil {
		return false
	}
	return decoded == prefix
}

func appendPrefix(dst []byte, prefix uint16) []byte {
	if prefix < 64 {
		return append(dst, byte(prefix))
	}
	first := byte(((prefix & 0xfc) >> 2) | 0x40)
	second := byte((prefix >> 8) | ((prefix & 0x03) << 6))
	return append(dst, first, second)
}

func ss58Checksum(payload []byte) [64]byte {
	return blake2b.Sum512(append(append([]byte{}, ss58Prelude...), payload...))
}
