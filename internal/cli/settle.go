package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mmynk/warikan/internal/calculator"
	"github.com/mmynk/warikan/internal/models"
)

// Ledger is the YAML input of the settle command. Participants are referred
// to by name.
type Ledger struct {
	Participants []string        `yaml:"participants"`
	Payments     []LedgerPayment `yaml:"payments"`
}

// LedgerPayment is one payment of a Ledger. Omitted targets mean everyone.
type LedgerPayment struct {
	Title   string   `yaml:"title"`
	Payer   string   `yaml:"payer"`
	Amount  int64    `yaml:"amount"`
	Targets []string `yaml:"targets"`
}

// SettleReport is the output of the settle command.
type SettleReport struct {
	Balances  []BalanceLine  `json:"balances"`
	Transfers []TransferLine `json:"transfers"`
}

type BalanceLine struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type TransferLine struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// NewSettleCommand creates the settle command.
func NewSettleCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "settle <ledger.yaml>",
		Short: "Compute settlements for a ledger file",
		Long: `Compute balances and the minimal list of transfers for the payments in a
YAML ledger. Nothing is stored.

Example ledger:

  participants: [Aki, Ben]
  payments:
    - title: Dinner
      payer: Aki
      amount: 3000
      targets: [Ben]`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettle(rootOpts, args[0], cmd)
		},
	}
}

func runSettle(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return formatter.Failure(WrapExitError(ExitCommandError, "failed to read ledger", err))
	}
	var ledger Ledger
	if err := yaml.Unmarshal(data, &ledger); err != nil {
		return formatter.Failure(WrapExitError(ExitCommandError, "failed to parse ledger", err))
	}
	formatter.VerboseLog("Loaded %d participant(s) and %d payment(s) from %s", len(ledger.Participants), len(ledger.Payments), path)

	report, err := Settle(ledger)
	if err != nil {
		return formatter.Failure(WrapExitError(ExitCommandError, "invalid ledger", err))
	}
	return formatter.Success(report)
}

// Settle validates a ledger and computes its report. Names are matched after
// normalisation and reported with the spelling from the participants list.
func Settle(ledger Ledger) (*SettleReport, error) {
	names := make(map[string]string, len(ledger.Participants))
	for _, name := range ledger.Participants {
		key := models.NormalizeName(name)
		if key == "" {
			return nil, fmt.Errorf("participant name is required")
		}
		if _, ok := names[key]; ok {
			return nil, fmt.Errorf("duplicate participant %q", name)
		}
		names[key] = name
	}
	lookup := func(name string) (string, error) {
		canonical, ok := names[models.NormalizeName(name)]
		if !ok {
			return "", fmt.Errorf("unknown participant %q", name)
		}
		return canonical, nil
	}

	payments := make([]models.Payment, 0, len(ledger.Payments))
	for i, lp := range ledger.Payments {
		payer, err := lookup(lp.Payer)
		if err != nil {
			return nil, fmt.Errorf("payment %d: %w", i+1, err)
		}
		targets := lp.Targets
		if len(targets) == 0 {
			targets = ledger.Participants
		}
		payment := models.Payment{Title: lp.Title, Amount: lp.Amount, PayerID: payer}
		for _, target := range targets {
			id, err := lookup(target)
			if err != nil {
				return nil, fmt.Errorf("payment %d: %w", i+1, err)
			}
			payment.BeneficiaryIDs = append(payment.BeneficiaryIDs, id)
		}
		if err := payment.Validate(); err != nil {
			return nil, fmt.Errorf("payment %d: %w", i+1, err)
		}
		payments = append(payments, payment)
	}

	balances := calculator.ComputeBalances(ledger.Participants, payments)
	report := &SettleReport{
		Balances:  make([]BalanceLine, len(balances)),
		Transfers: []TransferLine{},
	}
	for i, b := range balances {
		report.Balances[i] = BalanceLine{Name: b.ParticipantID, Amount: b.Amount}
	}
	for _, s := range calculator.MatchSettlements(balances) {
		report.Transfers = append(report.Transfers, TransferLine{From: s.FromID, To: s.ToID, Amount: s.Amount})
	}
	return report, nil
}

// WriteText renders the report for a terminal.
func (r *SettleReport) WriteText(w io.Writer) error {
	fmt.Fprintln(w, "Balances")
	for _, b := range r.Balances {
		fmt.Fprintf(w, "  %s: %s\n", b.Name, formatBalance(b.Amount))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Transfers")
	if len(r.Transfers) == 0 {
		_, err := fmt.Fprintln(w, "  (none)")
		return err
	}
	for _, t := range r.Transfers {
		if _, err := fmt.Fprintf(w, "  %s -> %s: %d\n", t.From, t.To, t.Amount); err != nil {
			return err
		}
	}
	return nil
}

// formatBalance prints a balance to two decimals at most, signed when non-zero.
func formatBalance(amount float64) string {
	d := decimal.NewFromFloat(amount).Round(2)
	if d.IsPositive() {
		return "+" + d.String()
	}
	return d.String()
}
