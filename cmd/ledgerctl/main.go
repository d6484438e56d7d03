package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fixserve-erp/fixserve-ledger/cmd/ledgerctl/cli"
	"github.com/fixserve-erp/fixserve-ledger/internal/app"
	"github.com/fixserve-erp/fixserve-ledger/internal/ledger"
	"github.com/fixserve-erp/fixserve-ledger/internal/platform/cache"
	"github.com/fixserve-erp/fixserve-ledger/internal/platform/db"
	"github.com/fixserve-erp/fixserve-ledger/internal/shared"
	"github.com/fixserve-erp/fixserve-ledger/internal/summary"
)

const usage = `usage: ledgerctl <command> [flags]

commands:
  summary recalc   -month YYYY-MM [-json]     rebuild one month's snapshot
  summary backfill -from YYYY-MM -to YYYY-MM [-json]
                                              rebuild a range of snapshots
  balances         [-all] [-json]             list money locations with balances
  move             -kind transfer|deposit|withdrawal -amount N
                   [-from ID] [-to ID] [-desc text] [-actor ID] [-json]
                                              record a manual movement
  reverse          -id N [-actor ID] [-json]  offset a recorded movement
  reconcile        [-json]                    audit cached balances against the log
  jobs trigger     -name <task> [-month YYYY-MM]
                                              enqueue a background job
  jobs stats                                  show queue depth
  jobs scheduled   [-size N]                  list tasks waiting on the scheduler
  migrate                                     apply pending schema migrations
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}
	logger := app.NewLogger(cfg)

	switch args[0] {
	case "summary":
		return runSummary(ctx, cfg, args[1:])
	case "balances", "move", "reverse":
		return runLedger(ctx, cfg, args)
	case "reconcile":
		return runReconcile(ctx, cfg, logger, args[1:])
	case "jobs":
		return runJobs(ctx, cfg, args[1:])
	case "migrate":
		if err := db.Migrate(cfg.PGDSN); err != nil {
			fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
			return 1
		}
		fmt.Println("migrations applied")
		return 0
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
}

func newSummaryCLI(ctx context.Context, cfg *app.Config) (*cli.SummaryCLI, func(), error) {
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	// Redis is optional here. The summary cache degrades to loader-only when
	// the client is nil, which is fine for a one-shot command.
	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		redisClient = nil
	}
	cleanup := func() {
		pool.Close()
		if redisClient != nil {
			_ = redisClient.Close()
		}
	}

	repo := summary.NewRepository(pool)
	cache := summary.NewCache(redisClient, cfg.SummaryCacheTTL)
	svc := summary.NewService(repo, cache)

	c, err := cli.NewSummaryCLI(svc)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return c, cleanup, nil
}

func runSummary(ctx context.Context, cfg *app.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	switch args[0] {
	case "recalc":
		fs := flag.NewFlagSet("summary recalc", flag.ExitOnError)
		month := fs.String("month", shared.CurrentMonthKey(), "month key (YYYY-MM)")
		jsonOut := fs.Bool("json", false, "emit JSON")
		_ = fs.Parse(args[1:])

		c, cleanup, err := newSummaryCLI(ctx, cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer cleanup()
		return c.RecalcCommand(ctx, cli.SummaryRecalcOptions{Month: *month, JSONOutput: *jsonOut})
	case "backfill":
		fs := flag.NewFlagSet("summary backfill", flag.ExitOnError)
		from := fs.String("from", "", "first month key (YYYY-MM)")
		to := fs.String("to", shared.CurrentMonthKey(), "last month key (YYYY-MM)")
		jsonOut := fs.Bool("json", false, "emit JSON")
		_ = fs.Parse(args[1:])
		if *from == "" {
			fmt.Fprintln(os.Stderr, "summary backfill: -from is required")
			return 2
		}

		c, cleanup, err := newSummaryCLI(ctx, cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		defer cleanup()
		return c.BackfillCommand(ctx, cli.SummaryBackfillOptions{From: *from, To: *to, JSONOutput: *jsonOut})
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
}

func runLedger(ctx context.Context, cfg *app.Config, args []string) int {
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect database: %v\n", err)
		return 1
	}
	defer pool.Close()

	c, err := cli.NewLedgerCLI(ledger.NewService(ledger.NewRepository(pool), ledger.ServiceConfig{DefaultLocationName: cfg.DefaultLocationName}))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	switch args[0] {
	case "balances":
		fs := flag.NewFlagSet("balances", flag.ExitOnError)
		all := fs.Bool("all", false, "include deactivated locations")
		jsonOut := fs.Bool("json", false, "emit JSON")
		_ = fs.Parse(args[1:])
		return c.BalancesCommand(ctx, cli.BalancesOptions{IncludeInactive: *all, JSONOutput: *jsonOut})
	case "move":
		fs := flag.NewFlagSet("move", flag.ExitOnError)
		kind := fs.String("kind", "transfer", "transfer, deposit or withdrawal")
		from := fs.Int64("from", 0, "source location id")
		to := fs.Int64("to", 0, "destination location id")
		amount := fs.String("amount", "", "movement amount")
		desc := fs.String("desc", "", "description")
		actor := fs.Int64("actor", 0, "acting user id")
		jsonOut := fs.Bool("json", false, "emit JSON")
		_ = fs.Parse(args[1:])
		return c.MoveCommand(ctx, cli.MoveOptions{
			Kind:        *kind,
			From:        *from,
			To:          *to,
			Amount:      *amount,
			Description: *desc,
			ActorID:     *actor,
			JSONOutput:  *jsonOut,
		})
	case "reverse":
		fs := flag.NewFlagSet("reverse", flag.ExitOnError)
		id := fs.Int64("id", 0, "movement id to reverse")
		actor := fs.Int64("actor", 0, "acting user id")
		jsonOut := fs.Bool("json", false, "emit JSON")
		_ = fs.Parse(args[1:])
		return c.ReverseCommand(ctx, cli.ReverseOptions{MovementID: *id, ActorID: *actor, JSONOutput: *jsonOut})
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
}

func runReconcile(ctx context.Context, cfg *app.Config, logger *slog.Logger, args []string) int {
	fs := flag.NewFlagSet("reconcile", flag.ExitOnError)
	jsonOut := fs.Bool("json", false, "emit JSON")
	_ = fs.Parse(args)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect database: %v\n", err)
		return 1
	}
	defer pool.Close()

	checker := ledger.NewReconciler(ledger.NewRepository(pool), logger, cfg.ReconcileWorkers)
	c, err := cli.NewReconcileCLI(checker)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return c.Command(ctx, cli.ReconcileOptions{JSONOutput: *jsonOut})
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}

	c, err := cli.NewJobsCLI(cfg.RedisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "jobs: %v\n", err)
		return 1
	}
	defer func() {
		_ = c.Close()
	}()

	switch args[0] {
	case "trigger":
		fs := flag.NewFlagSet("jobs trigger", flag.ExitOnError)
		name := fs.String("name", "", "task type to enqueue")
		month := fs.String("month", "", "month key for summary refresh")
		_ = fs.Parse(args[1:])
		if *name == "" {
			fmt.Fprintln(os.Stderr, "jobs trigger: -name is required")
			return 2
		}
		info, err := c.Trigger(ctx, *name, *month)
		if err != nil {
			fmt.Fprintf(os.Stderr, "trigger %s: %v\n", *name, err)
			return 1
		}
		fmt.Printf("enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return 0
	case "stats":
		stats, err := c.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "stats: %v\n", err)
			return 1
		}
		fmt.Printf("queue=%s pending=%d active=%d scheduled=%d retry=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
		return 0
	case "scheduled":
		fs := flag.NewFlagSet("jobs scheduled", flag.ExitOnError)
		size := fs.Int("size", 10, "maximum tasks to list")
		_ = fs.Parse(args[1:])
		tasks, err := c.ListScheduled(ctx, *size)
		if err != nil {
			fmt.Fprintf(os.Stderr, "scheduled: %v\n", err)
			return 1
		}
		if len(tasks) == 0 {
			fmt.Println("no scheduled tasks")
			return 0
		}
		for _, t := range tasks {
			fmt.Printf("%s id=%s queue=%s next=%s\n",
				t.Type, t.ID, t.Queue, t.NextProcessAt.UTC().Format(time.RFC3339))
		}
		return 0
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
}
