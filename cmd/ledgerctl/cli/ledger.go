package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"

	"github.com/fixserve-erp/fixserve-ledger/internal/ledger"
)

// LedgerService exposes the movement operations the CLI drives.
type LedgerService interface {
	ListLocations(ctx context.Context, includeInactive bool) ([]ledger.MoneyLocation, error)
	RecordTransfer(ctx context.Context, input ledger.TransferInput) (*ledger.MoneyMovement, error)
	RecordDeposit(ctx context.Context, input ledger.ManualInput) (*ledger.MoneyMovement, error)
	RecordWithdrawal(ctx context.Context, input ledger.ManualInput) (*ledger.MoneyMovement, error)
	Reverse(ctx context.Context, movementID, actorID int64) (*ledger.MoneyMovement, error)
}

// LedgerCLI offers manual ledger operations for operators.
type LedgerCLI struct {
	service LedgerService
}

// NewLedgerCLI constructs a helper bound to the given service.
func NewLedgerCLI(service LedgerService) (*LedgerCLI, error) {
	if service == nil {
		return nil, errors.New("ledger cli: service is required")
	}
	return &LedgerCLI{service: service}, nil
}

// BalancesOptions configures the balances listing.
type BalancesOptions struct {
	IncludeInactive bool
	JSONOutput      bool
	Stdout          io.Writer
	Stderr          io.Writer
}

// BalancesCommand prints every money location with its cached balance.
func (c *LedgerCLI) BalancesCommand(ctx context.Context, opts BalancesOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	locations, err := c.service.ListLocations(ctx, opts.IncludeInactive)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "list locations: %v\n", err)
		return 1
	}
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(locations); err != nil {
			fmt.Fprintf(opts.Stderr, "encode locations: %v\n", err)
			return 1
		}
		return 0
	}
	total := decimal.Zero
	for _, loc := range locations {
		state := ""
		if !loc.IsActive {
			state = " (inactive)"
		}
		fmt.Fprintf(opts.Stdout, "%4d  %-24s %-14s %12s%s\n", loc.ID, loc.Name, loc.Type, loc.Balance.StringFixed(2), state)
		total = total.Add(loc.Balance)
	}
	fmt.Fprintf(opts.Stdout, "total across %d location(s): %s\n", len(locations), total.StringFixed(2))
	return 0
}

// MoveOptions configures a manual transfer, deposit or withdrawal.
type MoveOptions struct {
	Kind        string
	From        int64
	To          int64
	Amount      string
	Description string
	ActorID     int64
	JSONOutput  bool
	Stdout      io.Writer
	Stderr      io.Writer
}

// MoveCommand records a manual movement. Kind selects transfer, deposit or withdrawal.
func (c *LedgerCLI) MoveCommand(ctx context.Context, opts MoveOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	amount, err := decimal.NewFromString(opts.Amount)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "parse amount %q: %v\n", opts.Amount, err)
		return 2
	}

	var movement *ledger.MoneyMovement
	switch opts.Kind {
	case "transfer":
		input := ledger.TransferInput{
			ToLocationID: opts.To,
			Amount:       amount,
			Description:  opts.Description,
			ActorID:      opts.ActorID,
		}
		if opts.From > 0 {
			from := opts.From
			input.FromLocationID = &from
		}
		movement, err = c.service.RecordTransfer(ctx, input)
	case "deposit":
		movement, err = c.service.RecordDeposit(ctx, ledger.ManualInput{
			LocationID:  opts.To,
			Amount:      amount,
			Description: opts.Description,
			ActorID:     opts.ActorID,
		})
	case "withdrawal":
		movement, err = c.service.RecordWithdrawal(ctx, ledger.ManualInput{
			LocationID:  opts.From,
			Amount:      amount,
			Description: opts.Description,
			ActorID:     opts.ActorID,
		})
	default:
		fmt.Fprintf(opts.Stderr, "unsupported movement kind %q\n", opts.Kind)
		return 2
	}
	if err != nil {
		fmt.Fprintf(opts.Stderr, "record %s: %v\n", opts.Kind, err)
		return 1
	}
	return printMovement(opts, movement)
}

// ReverseOptions configures a movement reversal.
type ReverseOptions struct {
	MovementID int64
	ActorID    int64
	JSONOutput bool
	Stdout     io.Writer
	Stderr     io.Writer
}

// ReverseCommand creates the offsetting movement for a recorded one.
func (c *LedgerCLI) ReverseCommand(ctx context.Context, opts ReverseOptions) int {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	movement, err := c.service.Reverse(ctx, opts.MovementID, opts.ActorID)
	if err != nil {
		fmt.Fprintf(opts.Stderr, "reverse movement %d: %v\n", opts.MovementID, err)
		return 1
	}
	return printMovement(MoveOptions{JSONOutput: opts.JSONOutput, Stdout: opts.Stdout, Stderr: opts.Stderr}, movement)
}

func printMovement(opts MoveOptions, m *ledger.MoneyMovement) int {
	if opts.JSONOutput {
		if err := json.NewEncoder(opts.Stdout).Encode(m); err != nil {
			fmt.Fprintf(opts.Stderr, "encode movement: %v\n", err)
			return 1
		}
		return 0
	}
	from, to := "-", "-"
	if m.FromLocationID != nil {
		from = fmt.Sprintf("%d", *m.FromLocationID)
	}
	if m.ToLocationID != nil {
		to = fmt.Sprintf("%d", *m.ToLocationID)
	}
	fmt.Fprintf(opts.Stdout, "recorded movement id=%d type=%s amount=%s from=%s to=%s\n",
		m.ID, m.Type, m.Amount.StringFixed(2), from, to)
	return 0
}
