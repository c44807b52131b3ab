// Package ctf implements the Conditional Token Framework identifier
// derivations used by the Gnosis conditional tokens contract and the
// markets built on top of it.
//
// All derivations are pure functions of their inputs and reproduce the
// on-chain hashing scheme bit for bit, so a locally derived ID can be
// compared against the one carried in an emitted event.
package ctf

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/bn256"
)

// alt_bn128 base field modulus and curve constant (y^2 = x^3 + 3),
// as used by CTHelpers.sol for collection ID derivation.
var (
	bnP = mustBig("21888242871839275222246405745257275088696311157297823662689037894645226208583")
	bnB = big.NewInt(3)

	// (P+1)/4 — valid square root exponent since P ≡ 3 (mod 4)
	bnSqrtExp = new(big.Int).Rsh(new(big.Int).Add(bnP, big.NewInt(1)), 2)
)

var (
	addressTy = mustType("address")
	bytes32Ty = mustType("bytes32")
	uint256Ty = mustType("uint256")

	legacyConditionArgs = abi.Arguments{
		{Type: addressTy},
		{Type: bytes32Ty},
		{Type: uint256Ty},
	}
)

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("ctf: bad integer literal " + s)
	}
	return n
}

func mustType(name string) abi.Type {
	t, err := abi.NewType(name, "", nil)
	if err != nil {
		panic("ctf: " + err.Error())
	}
	return t
}

// ConditionID derives the condition identifier the conditional tokens
// contract assigns in prepareCondition:
//
//	keccak256(abi.encodePacked(oracle, questionId, outcomeSlotCount))
//
// The packed encoding is 20 + 32 + 32 bytes. This matches the ID carried
// in the ConditionPreparation event.
func ConditionID(oracle common.Address, questionID common.Hash, outcomeSlotCount *big.Int) common.Hash {
	return crypto.Keccak256Hash(
		oracle.Bytes(),
		questionID.Bytes(),
		common.BigToHash(outcomeSlotCount).Bytes(),
	)
}

// LegacyConditionID derives a condition identifier using the padded ABI
// encoding (abi.encode) instead of the packed one. No contract uses this
// scheme; it exists so a mismatched ID can be attributed to the wrong
// encoding when verifying derivations against on-chain events.
func LegacyConditionID(oracle common.Address, questionID common.Hash, outcomeSlotCount *big.Int) (common.Hash, error) {
	packed, err := legacyConditionArgs.Pack(oracle, [32]byte(questionID), outcomeSlotCount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("abi encode: %w", err)
	}
	return crypto.Keccak256Hash(packed), nil
}

// CollectionID derives the outcome collection identifier per CTHelpers.sol.
//
// The keccak of (conditionId, indexSet) seeds a search for an alt_bn128
// curve point; bit 255 of the seed selects the y parity and bit 254 of the
// result carries the parity flag. A non-zero parent collection is decoded
// back to its curve point and added to the fresh point before encoding.
func CollectionID(parentCollectionID, conditionID common.Hash, indexSet *big.Int) (common.Hash, error) {
	x1, y1 := hashToPoint(crypto.Keccak256(conditionID.Bytes(), common.BigToHash(indexSet).Bytes()))

	if parentCollectionID != (common.Hash{}) {
		x2, y2, err := decodePoint(parentCollectionID)
		if err != nil {
			return common.Hash{}, err
		}
		x1, y1, err = addPoints(x1, y1, x2, y2)
		if err != nil {
			return common.Hash{}, err
		}
	}

	if y1.Bit(0) == 1 {
		x1.SetBit(x1, 254, 1)
	}
	return common.BigToHash(x1), nil
}

// PositionID derives the ERC-1155 token ID for a position:
//
//	keccak256(abi.encodePacked(collateralToken, collectionId))
func PositionID(collateralToken common.Address, collectionID common.Hash) *big.Int {
	return new(big.Int).SetBytes(crypto.Keccak256(collateralToken.Bytes(), collectionID.Bytes()))
}

// hashToPoint maps a 32-byte seed onto the curve by incrementing x until
// x^3 + 3 is a quadratic residue. Bit 255 of the seed selects y parity.
func hashToPoint(seed []byte) (*big.Int, *big.Int) {
	x := new(big.Int).SetBytes(seed)
	odd := x.Bit(255) == 1

	y := new(big.Int)
	yy := new(big.Int)
	check := new(big.Int)
	one := big.NewInt(1)
	for {
		x.Add(x, one).Mod(x, bnP)
		yy.Mul(x, x).Mod(yy, bnP)
		yy.Mul(yy, x).Mod(yy, bnP)
		yy.Add(yy, bnB).Mod(yy, bnP)
		y.Exp(yy, bnSqrtExp, bnP)
		if check.Mul(y, y).Mod(check, bnP).Cmp(yy) == 0 {
			break
		}
	}

	if odd != (y.Bit(0) == 1) {
		y.Sub(bnP, y)
	}
	return x, y
}

// decodePoint recovers the curve point a collection ID encodes: bit 254
// is the y parity flag and the remaining bits are the x coordinate.
func decodePoint(id common.Hash) (*big.Int, *big.Int, error) {
	raw := new(big.Int).SetBytes(id.Bytes())
	odd := raw.Bit(254) == 1

	x := new(big.Int).Set(raw)
	x.SetBit(x, 254, 0)
	x.SetBit(x, 255, 0)
	if x.Cmp(bnP) >= 0 {
		return nil, nil, fmt.Errorf("collection ID %s: x coordinate out of field", id)
	}

	yy := new(big.Int).Mul(x, x)
	yy.Mod(yy, bnP)
	yy.Mul(yy, x).Mod(yy, bnP)
	yy.Add(yy, bnB).Mod(yy, bnP)
	y := new(big.Int).Exp(yy, bnSqrtExp, bnP)

	check := new(big.Int).Mul(y, y)
	if check.Mod(check, bnP).Cmp(yy) != 0 {
		return nil, nil, fmt.Errorf("collection ID %s: not a curve point", id)
	}
	if odd != (y.Bit(0) == 1) {
		y.Sub(bnP, y)
	}
	return x, y, nil
}

// addPoints adds two affine alt_bn128 points using go-ethereum's bn256.
func addPoints(x1, y1, x2, y2 *big.Int) (*big.Int, *big.Int, error) {
	a, err := marshalPoint(x1, y1)
	if err != nil {
		return nil, nil, err
	}
	b, err := marshalPoint(x2, y2)
	if err != nil {
		return nil, nil, err
	}

	sum := new(bn256.G1).Add(a, b)
	out := sum.Marshal()
	return new(big.Int).SetBytes(out[:32]), new(big.Int).SetBytes(out[32:]), nil
}

func marshalPoint(x, y *big.Int) (*bn256.G1, error) {
	buf := make([]byte, 64)
	x.FillBytes(buf[:32])
	y.FillBytes(buf[32:])

	p := new(bn256.G1)
	if _, err := p.Unmarshal(buf); err != nil {
		return nil, fmt.Errorf("bn256 point: %w", err)
	}
	return p, nil
}
