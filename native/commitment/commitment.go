package commitment

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	bn256 "github.com/ethereum/go-ethereum/crypto/bn256/cloudflare"
)

// ErrMalformedCommitment is returned when bytes do not decode to a valid
// curve point. Structural corruption is fatal to the request, never to the
// process.
var ErrMalformedCommitment = errors.New("commitment: malformed commitment")

// Size is the marshalled length of a commitment in bytes.
const Size = 64

// blindingGeneratorSeed domain-separates the derivation of the blinding
// generator H from the base generator G. Deployments with a trusted setup
// should replace the derived generator via SetBlindingGenerator.
const blindingGeneratorSeed = "zklend/commitment/blinding-generator/v1"

var blindingGenerator = deriveBlindingGenerator()

func deriveBlindingGenerator() *bn256.G1 {
	scalar := new(big.Int).SetBytes(crypto.Keccak256([]byte(blindingGeneratorSeed)))
	scalar.Mod(scalar, bn256.Order)
	return new(bn256.G1).ScalarBaseMult(scalar)
}

// SetBlindingGenerator installs an externally generated H point, encoded as a
// 64-byte marshalled G1 element.
func SetBlindingGenerator(raw []byte) error {
	point := new(bn256.G1)
	if _, err := point.Unmarshal(raw); err != nil {
		return ErrMalformedCommitment
	}
	blindingGenerator = point
	return nil
}

// Commitment is an opaque, binding, hiding representation of a numeric value.
// It supports homomorphic combination: Commit(a,r) + Commit(b,s) opens to
// a+b under blinding r+s. No operation in this package ever recovers the
// hidden value.
type Commitment struct {
	point *bn256.G1
}

// Zero returns the identity commitment, the homomorphic neutral element.
func Zero() Commitment {
	return Commitment{point: new(bn256.G1).ScalarBaseMult(big.NewInt(0))}
}

// Commit binds a hidden value under the supplied blinding factor:
// C = value*G + blinding*H. Negative values are reduced modulo the group
// order so debit deltas remain well formed.
func Commit(value, blinding *big.Int) Commitment {
	v := new(big.Int)
	if value != nil {
		v.Mod(value, bn256.Order)
	}
	r := new(big.Int)
	if blinding != nil {
		r.Mod(blinding, bn256.Order)
	}
	left := new(bn256.G1).ScalarBaseMult(v)
	right := new(bn256.G1).ScalarMult(blindingGenerator, r)
	return Commitment{point: new(bn256.G1).Add(left, right)}
}

// NewBlinding samples a uniformly random blinding factor.
func NewBlinding() (*big.Int, error) {
	return rand.Int(rand.Reader, bn256.Order)
}

// FromBytes decodes a marshalled commitment, rejecting structurally invalid
// points with ErrMalformedCommitment.
func FromBytes(raw []byte) (Commitment, error) {
	if len(raw) != Size {
		return Commitment{}, ErrMalformedCommitment
	}
	point := new(bn256.G1)
	if _, err := point.Unmarshal(raw); err != nil {
		return Commitment{}, ErrMalformedCommitment
	}
	return Commitment{point: point}, nil
}

// Bytes returns the canonical 64-byte encoding.
func (c Commitment) Bytes() []byte {
	if c.point == nil {
		return Zero().Bytes()
	}
	return c.point.Marshal()
}

// Hex returns the hex encoding used in event payloads.
func (c Commitment) Hex() string {
	return hex.EncodeToString(c.Bytes())
}

// Valid reports whether the commitment carries a decodable point.
func (c Commitment) Valid() bool {
	return c.point != nil
}

// Clone returns an independent copy.
func (c Commitment) Clone() Commitment {
	if c.point == nil {
		return Zero()
	}
	return Commitment{point: new(bn256.G1).Set(c.point)}
}

// Add returns the homomorphic sum c + other.
func (c Commitment) Add(other Commitment) Commitment {
	a, b := c.ensure(), other.ensure()
	return Commitment{point: new(bn256.G1).Add(a, b)}
}

// Sub returns the homomorphic difference c - other.
func (c Commitment) Sub(other Commitment) Commitment {
	a := c.ensure()
	neg := new(bn256.G1).Neg(other.ensure())
	return Commitment{point: new(bn256.G1).Add(a, neg)}
}

// Equal compares canonical encodings. Equality of commitments never reveals
// equality of hidden values to third parties without the matching openings.
func (c Commitment) Equal(other Commitment) bool {
	return string(c.Bytes()) == string(other.Bytes())
}

// IsIdentity reports whether the commitment is the group identity. This is a
// structural property of the point; whether the hidden value is zero is a
// proof-gated question.
func (c Commitment) IsIdentity() bool {
	return c.Equal(Zero())
}

func (c Commitment) ensure() *bn256.G1 {
	if c.point == nil {
		return new(bn256.G1).ScalarBaseMult(big.NewInt(0))
	}
	return c.point
}

// Aggregate folds a set of commitments into their homomorphic sum.
func Aggregate(cs ...Commitment) Commitment {
	sum := Zero()
	for _, c := range cs {
		sum = sum.Add(c)
	}
	return sum
}
