// Package checksum provides content identity for raw module bytecode.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
)

// Sha256Len is length of checksum raw bytes.
const Sha256Len = sha256.Size

// Checksum is sha256 digest of raw module bytecode. Comparable, usable as map
// key. Two computations over identical bytes always yield equal checksums.
type Checksum [Sha256Len]byte

// New computes checksum of code. Pure and deterministic.
func New(code []byte) Checksum {
	return Checksum(sha256.Sum256(code))
}

// FromHex parses checksum from its hex representation.
func FromHex(s string) (cs Checksum, err error) {
	if len(s) != 2*Sha256Len {
		err = errors.Errorf("checksum hex length %v, want %v", len(s), 2*Sha256Len)
		return
	}
	var raw []byte
	raw, err = hex.DecodeString(s)
	if err != nil {
		err = errors.Wrap(err, "checksum hex decode")
		return
	}
	copy(cs[:], raw)
	return
}

// FromDigest converts a canonical OCI digest into Checksum.
func FromDigest(d digest.Digest) (Checksum, error) {
	if err := d.Validate(); err != nil {
		return Checksum{}, errors.Wrap(err, "invalid digest")
	}
	if d.Algorithm() != digest.SHA256 {
		return Checksum{}, errors.Errorf("unsupported digest algorithm %q", d.Algorithm())
	}
	return FromHex(d.Encoded())
}

// Digest returns the checksum in canonical OCI digest form
// ("sha256:<hex>"), the interchange format used in operator tooling.
func (cs Checksum) Digest() digest.Digest {
	return digest.NewDigestFromEncoded(digest.SHA256, cs.Hex())
}

func (cs Checksum) Hex() string {
	return hex.EncodeToString(cs[:])
}

func (cs Checksum) String() string {
	return cs.Hex()
}
