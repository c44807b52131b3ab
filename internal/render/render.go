// Package render formats scan results for the terminal, either as
// pretty-printed JSON or as aligned text tables.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/ppiankov/ctfscan/internal/model"
)

// Renderer writes reports to a single output stream. With asJSON set
// every view emits indented JSON instead of tables, so output can be
// piped to jq without a separate flag per command.
type Renderer struct {
	out    io.Writer
	asJSON bool
}

func New(out io.Writer, asJSON bool) *Renderer {
	return &Renderer{out: out, asJSON: asJSON}
}

// JSON writes any value as indented JSON. Commands with one-off
// payloads (derivation results, config dumps) use it directly.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Trades renders a trade report as a table, one row per fill.
func (r *Renderer) Trades(report *model.TradeReport) error {
	if r.asJSON {
		return r.JSON(report)
	}

	if len(report.Trades) == 0 {
		fmt.Fprintf(r.out, "No OrderFilled events in blocks %d-%d\n", report.FromBlock, report.ToBlock)
		return nil
	}

	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BLOCK\tTX\tSIDE\tPRICE\tTOKEN\tMAKER\tTAKER")
	for _, t := range report.Trades {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.BlockNumber,
			truncate(t.TxHash, 12),
			t.Side,
			t.Price,
			truncate(t.TokenID, 12),
			truncate(t.Maker, 10),
			truncate(t.Taker, 10),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "\n%d fills in blocks %d-%d\n", len(report.Trades), report.FromBlock, report.ToBlock)
	return nil
}

// Markets renders prepared conditions as a table. The DERIVED column
// flags conditions whose emitted ID does not reproduce from the event
// inputs, with legacy-encoded IDs called out separately.
func (r *Renderer) Markets(report *model.MarketReport) error {
	if r.asJSON {
		return r.JSON(report)
	}

	if len(report.Markets) == 0 {
		fmt.Fprintf(r.out, "No ConditionPreparation events in blocks %d-%d\n", report.FromBlock, report.ToBlock)
		return nil
	}

	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BLOCK\tCONDITION\tORACLE\tSLOTS\tDERIVED")
	for _, m := range report.Markets {
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n",
			m.BlockNumber,
			truncate(m.ConditionID, 14),
			truncate(m.Oracle, 10),
			m.OutcomeSlotCount,
			derivationLabel(&m),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(r.out, "\n%d conditions in blocks %d-%d\n", len(report.Markets), report.FromBlock, report.ToBlock)
	return nil
}

// Market renders a single market in full.
func (r *Renderer) Market(m *model.Market) error {
	if r.asJSON {
		return r.JSON(m)
	}

	w := tabwriter.NewWriter(r.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Condition ID:\t%s\n", m.ConditionID)
	fmt.Fprintf(w, "Question ID:\t%s\n", m.QuestionID)
	fmt.Fprintf(w, "Oracle:\t%s\n", m.Oracle)
	fmt.Fprintf(w, "Outcome slots:\t%d\n", m.OutcomeSlotCount)
	fmt.Fprintf(w, "Collateral:\t%s\n", m.CollateralToken)
	fmt.Fprintf(w, "Prepared in:\t%s (block %d)\n", m.TxHash, m.BlockNumber)
	fmt.Fprintf(w, "Derived ID:\t%s\n", m.DerivedConditionID)
	fmt.Fprintf(w, "Derivation:\t%s\n", derivationLabel(m))
	if m.YesTokenID != "" {
		fmt.Fprintf(w, "YES token:\t%s\n", m.YesTokenID)
	}
	if m.NoTokenID != "" {
		fmt.Fprintf(w, "NO token:\t%s\n", m.NoTokenID)
	}
	if m.Resolution != nil {
		fmt.Fprintf(w, "Resolved:\tpayouts [%s] in %s (block %d)\n",
			strings.Join(m.Resolution.PayoutNumerators, " "),
			truncate(m.Resolution.TxHash, 12),
			m.Resolution.BlockNumber,
		)
	} else {
		fmt.Fprintf(w, "Resolved:\tno\n")
	}
	return w.Flush()
}

func derivationLabel(m *model.Market) string {
	switch {
	case m.DerivationMatch:
		return "match"
	case m.LegacyEncoding:
		return "MISMATCH (legacy abi.encode)"
	default:
		return "MISMATCH"
	}
}

// truncate shortens a hex string for table cells, keeping the prefix.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
