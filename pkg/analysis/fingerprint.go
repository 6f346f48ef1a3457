package analysis

import (
	"encoding/binary"
	"fmt"

	"github.com/minio/highwayhash"
)

// fingerprintKey is the fixed HighwayHash key; fingerprints only need to be
// stable, not secret.
var fingerprintKey = []byte("netpec-config-fingerprint-key-32")

// Fingerprint returns a 64-bit HighwayHash of parts as 16 hex digits. Each
// part is length-prefixed so that ("ab", "c") and ("a", "bc") differ.
func Fingerprint(parts ...[]byte) (string, error) {
	hash, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return "", err
	}
	var size [8]byte
	for _, part := range parts {
		binary.BigEndian.PutUint64(size[:], uint64(len(part)))
		hash.Write(size[:])
		hash.Write(part)
	}
	return fmt.Sprintf("%016x", hash.Sum64()), nil
}
