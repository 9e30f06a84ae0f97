// Package etaggen creates syntactically valid entity-tags from application
// values: strings, integers, floats, or arbitrary JSON-encodable state fed
// through a digest.
//
// All helpers are deterministic: the same input always yields the same
// entity-tag, which is what callers rely on for cache validation.
package etaggen

import (
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"hash"
	"math"

	"golang.org/x/crypto/sha3"

	"github.com/hal-serve/hal-serve/rfc7232"
)

// FromString wraps s in an entity-tag. The string must consist of etagc
// characters; anything else panics, see rfc7232.Etaggify.
func FromString(s string, weak bool) rfc7232.ETag {
	return rfc7232.Etaggify(s, weak)
}

// FromInt packs n into the smallest two's-complement representation out of
// 1, 2, 4 or 8 bytes that can hold it, big-endian, and base64url-encodes the
// result. The width classes are [-2^7,2^7) one byte, [-2^15,2^15) two bytes,
// [-2^31,2^31) four bytes, everything else eight bytes. Big-endian packing
// keeps the encoding identical across platforms.
func FromInt(n int64, weak bool) rfc7232.ETag {
	var packed []byte
	switch {
	case math.MinInt8 <= n && n <= math.MaxInt8:
		packed = []byte{byte(int8(n))}
	case math.MinInt16 <= n && n <= math.MaxInt16:
		packed = make([]byte, 2)
		binary.BigEndian.PutUint16(packed, uint16(int16(n)))
	case math.MinInt32 <= n && n <= math.MaxInt32:
		packed = make([]byte, 4)
		binary.BigEndian.PutUint32(packed, uint32(int32(n)))
	default:
		packed = make([]byte, 8)
		binary.BigEndian.PutUint64(packed, uint64(n))
	}
	return fromBytes(packed, weak)
}

// FromFloat packs x as an IEEE-754 64-bit value, big-endian, and
// base64url-encodes the result.
func FromFloat(x float64, weak bool) rfc7232.ETag {
	packed := make([]byte, 8)
	binary.BigEndian.PutUint64(packed, math.Float64bits(x))
	return fromBytes(packed, weak)
}

func fromBytes(b []byte, weak bool) rfc7232.ETag {
	return rfc7232.Etaggify(base64.URLEncoding.EncodeToString(b), weak)
}

// Generator derives an entity-tag from a sequence of structured values.
//
// Each value is serialized canonically (JSON with sorted map keys, no
// extraneous whitespace, UTF-8) and fed into a SHA3-224 digest. Two
// generators fed the same ordered sequence of structurally equal values
// produce the same entity-tag.
//
//	gen := etaggen.NewGenerator()
//	gen.Update(state)
//	gen.Update(otherState)
//	etag := gen.ETag(false)
type Generator struct {
	digest hash.Hash
}

// NewGenerator returns a generator seeded with the given values.
// It panics if any of them cannot be serialized; seed values are produced by
// the caller, so an unserializable one is a defect, not input to recover from.
func NewGenerator(values ...interface{}) *Generator {
	g := &Generator{digest: sha3.New224()}
	for _, v := range values {
		if err := g.Update(v); err != nil {
			panic(err)
		}
	}
	return g
}

// Update feeds one value into the generator. The value must be serializable
// with encoding/json.
func (g *Generator) Update(v interface{}) error {
	encoded, err := json.Marshal(v)
	if err != nil {
		return err
	}
	g.digest.Write(encoded)
	return nil
}

// ETag returns the entity-tag for the state fed so far. The generator can
// keep accepting updates afterwards.
func (g *Generator) ETag(weak bool) rfc7232.ETag {
	return fromBytes(g.digest.Sum(nil), weak)
}
