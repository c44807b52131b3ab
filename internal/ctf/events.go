package ctf

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// Canonical event signatures.
const (
	ConditionPreparationSig = "ConditionPreparation(bytes32,address,bytes32,uint256)"
	ConditionResolutionSig  = "ConditionResolution(bytes32,address,bytes32,uint256,uint256[])"
	OrderFilledSig          = "OrderFilled(bytes32,address,address,uint256,uint256,uint256,uint256,uint256)"
	TransferSig             = "Transfer(address,address,uint256)"
)

// Topic0 hashes for log filtering and dispatch.
var (
	ConditionPreparationTopic = crypto.Keccak256Hash([]byte(ConditionPreparationSig))
	ConditionResolutionTopic  = crypto.Keccak256Hash([]byte(ConditionResolutionSig))
	OrderFilledTopic          = crypto.Keccak256Hash([]byte(OrderFilledSig))
	TransferTopic             = crypto.Keccak256Hash([]byte(TransferSig))
)

// ConditionPreparation is the decoded form of the event the conditional
// tokens contract emits when a condition is registered.
type ConditionPreparation struct {
	ConditionID      common.Hash
	Oracle           common.Address
	QuestionID       common.Hash
	OutcomeSlotCount *big.Int

	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
}

// ConditionResolution is the decoded form of the event the conditional
// tokens contract emits when the oracle reports payouts.
type ConditionResolution struct {
	ConditionID      common.Hash
	Oracle           common.Address
	QuestionID       common.Hash
	OutcomeSlotCount *big.Int
	PayoutNumerators []*big.Int

	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
}

// OrderFilled is the decoded form of the CTF Exchange fill event.
// Asset IDs are ERC-1155 position IDs; ID zero denotes the collateral leg.
type OrderFilled struct {
	OrderHash         common.Hash
	Maker             common.Address
	Taker             common.Address
	MakerAssetID      *big.Int
	TakerAssetID      *big.Int
	MakerAmountFilled *big.Int
	TakerAmountFilled *big.Int
	Fee               *big.Int

	Exchange    common.Address
	BlockNumber uint64
	TxHash      common.Hash
	LogIndex    uint
}

// Reconciliation compares an event-carried condition ID against the
// locally derived one. The event value is authoritative; a mismatch that
// reproduces under the padded ABI encoding points at the derivation
// scheme rather than the inputs.
type Reconciliation struct {
	Emitted        common.Hash
	Derived        common.Hash
	Match          bool
	LegacyEncoding bool
}

// ParseConditionPreparation decodes a ConditionPreparation log.
func ParseConditionPreparation(log types.Log) (*ConditionPreparation, error) {
	if len(log.Topics) != 4 {
		return nil, fmt.Errorf("condition preparation log: want 4 topics, got %d", len(log.Topics))
	}
	if log.Topics[0] != ConditionPreparationTopic {
		return nil, fmt.Errorf("condition preparation log: unexpected topic0 %s", log.Topics[0])
	}
	if len(log.Data) < 32 {
		return nil, fmt.Errorf("condition preparation log: short data (%d bytes)", len(log.Data))
	}

	return &ConditionPreparation{
		ConditionID:      log.Topics[1],
		Oracle:           topicAddress(log.Topics[2]),
		QuestionID:       log.Topics[3],
		OutcomeSlotCount: new(big.Int).SetBytes(log.Data[:32]),
		BlockNumber:      log.BlockNumber,
		TxHash:           log.TxHash,
		LogIndex:         log.Index,
	}, nil
}

// ParseConditionResolution decodes a ConditionResolution log. The data
// is the ABI encoding of (outcomeSlotCount, payoutNumerators[]): slot
// count, array offset, array length, then one word per numerator.
func ParseConditionResolution(log types.Log) (*ConditionResolution, error) {
	if len(log.Topics) != 4 {
		return nil, fmt.Errorf("condition resolution log: want 4 topics, got %d", len(log.Topics))
	}
	if log.Topics[0] != ConditionResolutionTopic {
		return nil, fmt.Errorf("condition resolution log: unexpected topic0 %s", log.Topics[0])
	}
	if len(log.Data) < 96 {
		return nil, fmt.Errorf("condition resolution log: short data (%d bytes)", len(log.Data))
	}

	count := new(big.Int).SetBytes(log.Data[64:96])
	if !count.IsUint64() || count.Uint64() > uint64(len(log.Data)-96)/32 {
		return nil, fmt.Errorf("condition resolution log: payout array truncated")
	}

	payouts := make([]*big.Int, count.Uint64())
	for i := range payouts {
		payouts[i] = new(big.Int).SetBytes(log.Data[96+i*32 : 128+i*32])
	}

	return &ConditionResolution{
		ConditionID:      log.Topics[1],
		Oracle:           topicAddress(log.Topics[2]),
		QuestionID:       log.Topics[3],
		OutcomeSlotCount: new(big.Int).SetBytes(log.Data[:32]),
		PayoutNumerators: payouts,
		BlockNumber:      log.BlockNumber,
		TxHash:           log.TxHash,
		LogIndex:         log.Index,
	}, nil
}

// ParseOrderFilled decodes an OrderFilled log. The fee word is optional:
// historical exchange deployments emitted four data words.
func ParseOrderFilled(log types.Log) (*OrderFilled, error) {
	if len(log.Topics) != 4 {
		return nil, fmt.Errorf("order filled log: want 4 topics, got %d", len(log.Topics))
	}
	if log.Topics[0] != OrderFilledTopic {
		return nil, fmt.Errorf("order filled log: unexpected topic0 %s", log.Topics[0])
	}
	if len(log.Data) < 128 {
		return nil, fmt.Errorf("order filled log: short data (%d bytes)", len(log.Data))
	}

	ev := &OrderFilled{
		OrderHash:         log.Topics[1],
		Maker:             topicAddress(log.Topics[2]),
		Taker:             topicAddress(log.Topics[3]),
		MakerAssetID:      new(big.Int).SetBytes(log.Data[0:32]),
		TakerAssetID:      new(big.Int).SetBytes(log.Data[32:64]),
		MakerAmountFilled: new(big.Int).SetBytes(log.Data[64:96]),
		TakerAmountFilled: new(big.Int).SetBytes(log.Data[96:128]),
		Fee:               new(big.Int),
		Exchange:          log.Address,
		BlockNumber:       log.BlockNumber,
		TxHash:            log.TxHash,
		LogIndex:          log.Index,
	}
	if len(log.Data) >= 160 {
		ev.Fee.SetBytes(log.Data[128:160])
	}
	return ev, nil
}

// Reconcile recomputes the condition ID from the event fields and
// classifies any mismatch.
func (e *ConditionPreparation) Reconcile() Reconciliation {
	derived := ConditionID(e.Oracle, e.QuestionID, e.OutcomeSlotCount)
	rec := Reconciliation{
		Emitted: e.ConditionID,
		Derived: derived,
		Match:   derived == e.ConditionID,
	}
	if !rec.Match {
		if legacy, err := LegacyConditionID(e.Oracle, e.QuestionID, e.OutcomeSlotCount); err == nil {
			rec.LegacyEncoding = legacy == e.ConditionID
		}
	}
	return rec
}

// topicAddress extracts an address from a 32-byte indexed topic.
func topicAddress(topic common.Hash) common.Address {
	return common.BytesToAddress(topic.Bytes()[12:])
}
