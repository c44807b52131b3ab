package cli

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/ppiankov/ctfscan/internal/ctf"
	"github.com/ppiankov/ctfscan/internal/model"
	"github.com/ppiankov/ctfscan/internal/scanner"
)

var (
	verifyOnChain bool
	verifyFrom    uint64
)

// derivation is the condition command's output payload.
type derivation struct {
	Oracle            string `json:"oracle"`
	QuestionID        string `json:"questionId"`
	OutcomeSlotCount  uint64 `json:"outcomeSlotCount"`
	ConditionID       string `json:"conditionId"`
	LegacyConditionID string `json:"legacyConditionId"`
	YesTokenID        string `json:"yesTokenId,omitempty"`
	NoTokenID         string `json:"noTokenId,omitempty"`

	Verified *verification `json:"verified,omitempty"`
}

// verification records the on-chain cross-check of a derivation.
type verification struct {
	Found           bool   `json:"found"`
	EmittedID       string `json:"emittedId,omitempty"`
	Match           bool   `json:"match"`
	LegacyEncoding  bool   `json:"legacyEncoding,omitempty"`
	PreparedInTx    string `json:"preparedInTx,omitempty"`
	PreparedInBlock uint64 `json:"preparedInBlock,omitempty"`
}

// conditionCmd represents the condition command
var conditionCmd = &cobra.Command{
	Use:   "condition <oracle> <questionId> <outcomeSlotCount>",
	Short: "Derive a condition ID from its preparation inputs",
	Long: `Condition derives the condition ID for the given oracle, question ID
and outcome slot count, using the packed keccak256 scheme the
conditional-token contract applies on-chain. The padded abi.encode
variant is printed alongside it, since older tooling derived IDs that
way and produced values no contract ever emitted.

Binary conditions also get their YES/NO position IDs.

With --verify the chain is searched for a ConditionPreparation event
carrying the derived ID, confirming the derivation against what the
contract actually emitted.

Example:
  ctfscan condition 0x157Ce2... 0x6a0d29... 2
  ctfscan condition 0x157Ce2... 0x6a0d29... 2 --verify`,
	Args: cobra.ExactArgs(3),
	RunE: runCondition,
}

func init() {
	rootCmd.AddCommand(conditionCmd)
	conditionCmd.Flags().BoolVar(&verifyOnChain, "verify", false, "cross-check the derived ID against emitted events")
	conditionCmd.Flags().Uint64Var(&verifyFrom, "from", 0, "first block to search when verifying")
}

func runCondition(cmd *cobra.Command, args []string) error {
	if !common.IsHexAddress(args[0]) {
		return fmt.Errorf("invalid oracle address: %s", args[0])
	}
	oracle := common.HexToAddress(args[0])

	questionID, err := parseHash(args[1])
	if err != nil {
		return fmt.Errorf("invalid question ID: %s", args[1])
	}

	slots, err := strconv.ParseUint(args[2], 10, 64)
	if err != nil || slots < 2 {
		return fmt.Errorf("invalid outcome slot count: %s (need an integer >= 2)", args[2])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	slotCount := new(big.Int).SetUint64(slots)
	conditionID := ctf.ConditionID(oracle, questionID, slotCount)
	legacyID, err := ctf.LegacyConditionID(oracle, questionID, slotCount)
	if err != nil {
		return fmt.Errorf("legacy derivation: %w", err)
	}

	d := &derivation{
		Oracle:            oracle.Hex(),
		QuestionID:        questionID.Hex(),
		OutcomeSlotCount:  slots,
		ConditionID:       conditionID.Hex(),
		LegacyConditionID: legacyID.Hex(),
	}

	if slots == 2 {
		collateral := common.HexToAddress(cfg.Chain.CollateralAddress)
		if yes, err := ctf.CollectionID(common.Hash{}, conditionID, big.NewInt(1)); err == nil {
			d.YesTokenID = fmt.Sprintf("%#x", ctf.PositionID(collateral, yes))
		}
		if no, err := ctf.CollectionID(common.Hash{}, conditionID, big.NewInt(2)); err == nil {
			d.NoTokenID = fmt.Sprintf("%#x", ctf.PositionID(collateral, no))
		}
	}

	if verifyOnChain {
		d.Verified, err = verifyCondition(cfg, conditionID, legacyID)
		if err != nil {
			return err
		}
	}

	if asJSON {
		return newRenderer().JSON(d)
	}
	return printDerivation(d)
}

// verifyCondition searches the chain for a preparation event carrying
// the derived ID, falling back to the legacy-encoded variant so a
// mismatch can be attributed.
func verifyCondition(cfg *model.Config, conditionID, legacyID common.Hash) (*verification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	s, closeFn, err := newScanner(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	market, err := s.MarketByCondition(ctx, conditionID, verifyFrom)
	if err == nil {
		return &verification{
			Found:           true,
			EmittedID:       market.ConditionID,
			Match:           true,
			PreparedInTx:    market.TxHash,
			PreparedInBlock: market.BlockNumber,
		}, nil
	}
	if !errors.Is(err, scanner.ErrMarketNotFound) {
		return nil, fmt.Errorf("verify on chain: %w", err)
	}

	market, err = s.MarketByCondition(ctx, legacyID, verifyFrom)
	if err == nil {
		return &verification{
			Found:           true,
			EmittedID:       market.ConditionID,
			Match:           false,
			LegacyEncoding:  true,
			PreparedInTx:    market.TxHash,
			PreparedInBlock: market.BlockNumber,
		}, nil
	}
	if errors.Is(err, scanner.ErrMarketNotFound) {
		return &verification{Found: false}, nil
	}
	return nil, fmt.Errorf("verify on chain: %w", err)
}

func printDerivation(d *derivation) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Oracle:\t%s\n", d.Oracle)
	fmt.Fprintf(w, "Question ID:\t%s\n", d.QuestionID)
	fmt.Fprintf(w, "Outcome slots:\t%d\n", d.OutcomeSlotCount)
	fmt.Fprintf(w, "Condition ID:\t%s\n", d.ConditionID)
	fmt.Fprintf(w, "Legacy (abi.encode):\t%s\n", d.LegacyConditionID)
	if d.YesTokenID != "" {
		fmt.Fprintf(w, "YES token:\t%s\n", d.YesTokenID)
	}
	if d.NoTokenID != "" {
		fmt.Fprintf(w, "NO token:\t%s\n", d.NoTokenID)
	}

	if v := d.Verified; v != nil {
		switch {
		case !v.Found:
			fmt.Fprintf(w, "On-chain:\tno preparation event found\n")
		case v.Match:
			fmt.Fprintf(w, "On-chain:\tconfirmed in %s (block %d)\n", v.PreparedInTx, v.PreparedInBlock)
		case v.LegacyEncoding:
			fmt.Fprintf(w, "On-chain:\tMISMATCH, contract emitted the legacy-encoded %s\n", v.EmittedID)
		default:
			fmt.Fprintf(w, "On-chain:\tMISMATCH, contract emitted %s\n", v.EmittedID)
		}
	}
	return w.Flush()
}
