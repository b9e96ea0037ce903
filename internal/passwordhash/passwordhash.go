// Package passwordhash verifies the legacy password hashes inherited from the
// tenants' previous identity system. Two incompatible on-disk formats coexist
// in the user tables; both are PBKDF2-based and distinguished by the first
// decoded byte. The package only verifies pre-existing hashes, it never
// produces new ones.
package passwordhash

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/binary"
	"hash"
	"log/slog"

	"golang.org/x/crypto/pbkdf2"
)

const (
	markerV2 = 0x00
	markerV3 = 0x01

	v2SaltLen    = 16
	v2SubkeyLen  = 32
	v2Iterations = 1000
	v2TotalLen   = 1 + v2SaltLen + v2SubkeyLen

	v3HeaderLen = 13 // marker + prf + iterations + salt length
)

// legacyHash is the closed variant over the two supported formats, parsed
// once from the leading marker byte.
type legacyHash interface {
	verify(password string) bool
}

// v3Hash is the modern layout:
// [0x01][prf u32 LE][iterations u32 LE][saltLen u32 LE][salt][subkey...].
type v3Hash struct {
	prf        func() hash.Hash
	iterations int
	salt       []byte
	subkey     []byte
}

func (h v3Hash) verify(password string) bool {
	derived := pbkdf2.Key([]byte(password), h.salt, h.iterations, len(h.subkey), h.prf)
	return subtle.ConstantTimeCompare(derived, h.subkey) == 1
}

// v2Hash is the historical layout: [0x00][salt 16][subkey 32], fixed
// PBKDF2-HMAC-SHA1 at 1000 iterations. relaxed marks a truncated subkey
// section that was read tolerantly.
type v2Hash struct {
	salt    []byte
	subkey  []byte
	relaxed bool
}

func (h v2Hash) verify(password string) bool {
	derived := pbkdf2.Key([]byte(password), h.salt, v2Iterations, len(h.subkey), sha1.New)
	return subtle.ConstantTimeCompare(derived, h.subkey) == 1
}

func parseV3(decoded []byte) (v3Hash, bool) {
	if len(decoded) < v3HeaderLen || decoded[0] != markerV3 {
		return v3Hash{}, false
	}
	prfID := binary.LittleEndian.Uint32(decoded[1:5])
	iterations := binary.LittleEndian.Uint32(decoded[5:9])
	saltLen := binary.LittleEndian.Uint32(decoded[9:13])

	var prf func() hash.Hash
	switch prfID {
	case 0:
		prf = sha1.New
	case 1:
		prf = sha256.New
	case 2:
		prf = sha512.New
	default:
		return v3Hash{}, false
	}
	if iterations == 0 {
		return v3Hash{}, false
	}
	if uint64(v3HeaderLen)+uint64(saltLen) >= uint64(len(decoded)) {
		// salt overruns the payload or leaves no subkey bytes
		return v3Hash{}, false
	}
	salt := decoded[v3HeaderLen : v3HeaderLen+int(saltLen)]
	subkey := decoded[v3HeaderLen+int(saltLen):]
	return v3Hash{prf: prf, iterations: int(iterations), salt: salt, subkey: subkey}, true
}

func parseV2(decoded []byte) (v2Hash, bool) {
	// A fully formed hash is 49 bytes. Shorter subkey sections are read
	// tolerantly for compatibility with existing tenant data, but the salt
	// must be intact and at least one subkey byte must remain; an empty
	// subkey would make every password match.
	if len(decoded) <= 1+v2SaltLen || decoded[0] != markerV2 {
		return v2Hash{}, false
	}
	salt := decoded[1 : 1+v2SaltLen]
	subkey := decoded[1+v2SaltLen:]
	if len(subkey) > v2SubkeyLen {
		subkey = subkey[:v2SubkeyLen]
	}
	return v2Hash{salt: salt, subkey: subkey, relaxed: len(decoded) != v2TotalLen}, true
}

// Verifier checks candidate passwords against stored legacy hashes.
// The zero value is usable; options add operational visibility.
type Verifier struct {
	logger        *slog.Logger
	onRelaxedRead func()
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger attaches a logger used to flag tolerated truncated hashes.
func WithLogger(logger *slog.Logger) Option {
	return func(v *Verifier) {
		v.logger = logger
	}
}

// WithRelaxedReadHook registers a callback fired whenever a truncated V2 hash
// successfully verifies. Typically wired to a metrics counter.
func WithRelaxedReadHook(fn func()) Option {
	return func(v *Verifier) {
		v.onRelaxedRead = fn
	}
}

// New creates a Verifier.
func New(opts ...Option) *Verifier {
	v := &Verifier{}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify reports whether password matches the stored base64-encoded hash.
// It never fails with an error: malformed base64, a truncated layout, an
// unsupported PRF id, and a subkey mismatch all collapse to false so callers
// cannot learn anything about the stored format.
func (v *Verifier) Verify(storedHash, password string) bool {
	decoded, err := base64.StdEncoding.DecodeString(storedHash)
	if err != nil || len(decoded) == 0 {
		return false
	}

	// V3 first: tenants that migrated partially keep a mixed user table with
	// no per-user format metadata.
	if h, ok := parseV3(decoded); ok && h.verify(password) {
		return true
	}

	h, ok := parseV2(decoded)
	if !ok || !h.verify(password) {
		return false
	}
	if h.relaxed {
		v.flagRelaxedRead()
	}
	return true
}

func (v *Verifier) flagRelaxedRead() {
	if v.logger != nil {
		v.logger.Warn("accepted legacy V2 hash with truncated derived key")
	}
	if v.onRelaxedRead != nil {
		v.onRelaxedRead()
	}
}
