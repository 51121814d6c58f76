// Package group abstracts the two elliptic-curve groups this module's
// protocols run over: a ristretto255 group (selectable backend) used by
// cwPRF PSI, and the P256 group used by the
// dlog-equality NIZK. Ported from the teacher's pkg/dhpsi Ristretto
// interface (GR/R255 backends) and internal/crypto's Point type.
package group

import (
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha512"
	"fmt"
	"io"
	"math/big"

	gr "github.com/bwesterb/go-ristretto"
	r255 "github.com/gtank/ristretto255"
	"github.com/zeebo/blake3"
)

// EncodedLen is the length, in bytes, of an encoded ristretto255 element.
const EncodedLen = 32

// Backend selects which ristretto255 implementation a Ristretto group uses.
type Backend int

const (
	// GoRistretto selects github.com/bwesterb/go-ristretto.
	GoRistretto Backend = iota
	// Ristretto255 selects github.com/gtank/ristretto255.
	Ristretto255
)

// Ristretto is an additive group of prime order with a hash-to-group map,
// used for cwPRF PSI's F_k(x) = H(x)^k evaluation (pkg/ot's Naor-Pinkas
// calls go-ristretto directly, not this interface). Two interchangeable backends are
// wired: callers pick one up front and every party in a run must agree on
// the same Backend.
type Ristretto interface {
	// HashToElement maps arbitrary bytes onto a uniformly random group element.
	HashToElement(data []byte) [EncodedLen]byte
	// ScalarMult raises an encoded element to the receiver's secret scalar.
	ScalarMult(encoded [EncodedLen]byte) [EncodedLen]byte
	// HashAndMult composes HashToElement and ScalarMult in one call, the
	// operation cwPRF PSI performs on every input record.
	HashAndMult(data []byte) [EncodedLen]byte
	// PublicKey returns g^secret.
	PublicKey() [EncodedLen]byte
}

// NewRistretto samples a fresh secret scalar and returns a Ristretto group
// context keyed by it, using the given backend.
func NewRistretto(backend Backend) (Ristretto, error) {
	switch backend {
	case GoRistretto:
		var key gr.Scalar
		key.Rand()
		return &groRistretto{key: &key}, nil
	case Ristretto255:
		uniform := make([]byte, 64)
		if _, err := rand.Read(uniform); err != nil {
			return nil, fmt.Errorf("group: sampling ristretto255 scalar: %w", err)
		}
		key := r255.NewScalar().FromUniformBytes(uniform)
		return &r255Ristretto{key: key}, nil
	default:
		return nil, fmt.Errorf("group: unknown ristretto backend %d", backend)
	}
}

type groRistretto struct {
	key *gr.Scalar
}

func (g *groRistretto) HashToElement(data []byte) [EncodedLen]byte {
	var p gr.Point
	p.DeriveDalek(data)
	var out [EncodedLen]byte
	p.BytesInto(&out)
	return out
}

func (g *groRistretto) ScalarMult(encoded [EncodedLen]byte) [EncodedLen]byte {
	var p gr.Point
	p.SetBytes(&encoded)
	p.ScalarMult(&p, g.key)
	var out [EncodedLen]byte
	p.BytesInto(&out)
	return out
}

func (g *groRistretto) HashAndMult(data []byte) [EncodedLen]byte {
	var p gr.Point
	p.DeriveDalek(data)
	p.ScalarMult(&p, g.key)
	var out [EncodedLen]byte
	p.BytesInto(&out)
	return out
}

func (g *groRistretto) PublicKey() [EncodedLen]byte {
	var base gr.Point
	base.SetBase()
	base.ScalarMult(&base, g.key)
	var out [EncodedLen]byte
	base.BytesInto(&out)
	return out
}

type r255Ristretto struct {
	key *r255.Scalar
}

func (r *r255Ristretto) HashToElement(data []byte) [EncodedLen]byte {
	p := r255.NewElement()
	sum := sha512.Sum512(data)
	p.FromUniformBytes(sum[:])
	return encodeR255(p)
}

func (r *r255Ristretto) ScalarMult(encoded [EncodedLen]byte) [EncodedLen]byte {
	p := r255.NewElement()
	if err := p.Decode(encoded[:]); err != nil {
		panic(err) // unreachable: encoded was produced by this same group
	}
	p.ScalarMult(r.key, p)
	return encodeR255(p)
}

func (r *r255Ristretto) HashAndMult(data []byte) [EncodedLen]byte {
	p := r255.NewElement()
	sum := sha512.Sum512(data)
	p.FromUniformBytes(sum[:])
	p.ScalarMult(r.key, p)
	return encodeR255(p)
}

func (r *r255Ristretto) PublicKey() [EncodedLen]byte {
	p := r255.NewElement().ScalarBaseMult(r.key)
	return encodeR255(p)
}

func encodeR255(p *r255.Element) [EncodedLen]byte {
	var out [EncodedLen]byte
	enc := p.Encode(nil)
	copy(out[:], enc)
	return out
}

// DeriveKey derives a 32-byte symmetric key from an encoded group element
// by hashing it with blake3.
func DeriveKey(encoded [EncodedLen]byte) []byte {
	sum := blake3.Sum256(encoded[:])
	return sum[:]
}

// P256Point is a point on the NIST P-256 curve, the group the
// dlog-equality NIZK runs over instead of ristretto255: the Sigma
// protocol's Fiat-Shamir challenge needs a big.Int-friendly scalar field.
type P256Point struct {
	x, y *big.Int
}

var p256 = elliptic.P256()

// P256Order is the order of the P-256 base point's subgroup.
func P256Order() *big.Int {
	return p256.Params().N
}

// P256Generator returns the curve's standard base point.
func P256Generator() *P256Point {
	return &P256Point{x: p256.Params().Gx, y: p256.Params().Gy}
}

// RandomScalar samples a uniform scalar in [1, order).
func RandomScalar() (*big.Int, error) {
	k, err := rand.Int(rand.Reader, new(big.Int).Sub(P256Order(), big.NewInt(1)))
	if err != nil {
		return nil, err
	}
	return k.Add(k, big.NewInt(1)), nil
}

// NewP256Point builds a point with explicit coordinates, used when
// unmarshaling a peer's NIZK transcript element.
func NewP256Point(x, y *big.Int) *P256Point {
	return &P256Point{x: new(big.Int).Set(x), y: new(big.Int).Set(y)}
}

// ScalarMult returns p^k (i.e. [k]P in additive notation).
func (p *P256Point) ScalarMult(k *big.Int) *P256Point {
	x, y := p256.ScalarMult(p.x, p.y, k.Bytes())
	return &P256Point{x: x, y: y}
}

// Add returns p + q.
func (p *P256Point) Add(q *P256Point) *P256Point {
	x, y := p256.Add(p.x, p.y, q.x, q.y)
	return &P256Point{x: x, y: y}
}

// Marshal returns the point's compressed encoding.
func (p *P256Point) Marshal() []byte {
	return elliptic.MarshalCompressed(p256, p.x, p.y)
}

// UnmarshalP256Point decodes a compressed P256 point.
func UnmarshalP256Point(data []byte) (*P256Point, error) {
	x, y := elliptic.UnmarshalCompressed(p256, data)
	if x == nil {
		return nil, fmt.Errorf("group: invalid P256 point encoding")
	}
	return &P256Point{x: x, y: y}, nil
}

// Equal reports whether p and q are the same point.
func (p *P256Point) Equal(q *P256Point) bool {
	return p.x.Cmp(q.x) == 0 && p.y.Cmp(q.y) == 0
}

// WritePoint writes a P256 point's compressed encoding to w.
func WritePoint(w io.Writer, p *P256Point) error {
	_, err := w.Write(p.Marshal())
	return err
}

// P256EncodedLen is the byte length of a compressed P256 point.
const P256EncodedLen = 33

// ReadPoint reads a compressed P256 point from r.
func ReadPoint(r io.Reader) (*P256Point, error) {
	buf := make([]byte, P256EncodedLen)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return UnmarshalP256Point(buf)
}
