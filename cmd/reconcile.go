package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"vendhub-backend/core/config"
	"vendhub-backend/core/database"
	"vendhub-backend/core/logger"
	"vendhub-backend/feature/machines"
	"vendhub-backend/feature/reconciliation"
	reconmodels "vendhub-backend/feature/reconciliation/models"
	"vendhub-backend/feature/reconciliation/source"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Flags for the reconcile run command
	runFrom         string
	runTo           string
	runSources      []string
	runMachines     []string
	runTimeTol      int
	runAmountTol    int64
	runJSONOutput   bool
	runSkipPrecheck bool
)

// reconcileCmd performs a one-shot reconciliation run from the CLI.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run a reconciliation synchronously and print the results",
	Long: `Run a reconciliation over a date range and source set without the server.

The run executes synchronously and the summary plus mismatches are
printed to stdout. The same validation, matching and persistence paths
as the server apply, so the run is visible afterwards via the API.

Examples:
  # Reconcile POS against hardware sales for one day
  reconcile --from 2026-08-01 --to 2026-08-01 --sources sales_report,hardware

  # Three-way with custom tolerances, JSON output
  reconcile --from 2026-08-01 --to 2026-08-07 \
    --sources sales_report,hardware,gateway \
    --time-tolerance 10 --amount-tolerance 50 --json`,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().StringVar(&runFrom, "from", "", "Start date (YYYY-MM-DD, inclusive)")
	reconcileCmd.Flags().StringVar(&runTo, "to", "", "End date (YYYY-MM-DD, inclusive)")
	reconcileCmd.Flags().StringSliceVar(&runSources, "sources", nil, "Source identifiers, anchor first (e.g. sales_report,hardware)")
	reconcileCmd.Flags().StringSliceVar(&runMachines, "machines", nil, "Optional machine ID allow-list")
	reconcileCmd.Flags().IntVar(&runTimeTol, "time-tolerance", reconciliation.DefaultTimeToleranceSeconds, "Time tolerance in seconds [0..60]")
	reconcileCmd.Flags().Int64Var(&runAmountTol, "amount-tolerance", reconciliation.DefaultAmountTolerance, "Amount tolerance in minor units [0..10000]")
	reconcileCmd.Flags().BoolVar(&runJSONOutput, "json", false, "Print the full report as JSON")
	reconcileCmd.Flags().BoolVar(&runSkipPrecheck, "skip-precheck", false, "Skip the source table existence check")
	_ = reconcileCmd.MarkFlagRequired("from")
	_ = reconcileCmd.MarkFlagRequired("to")
	_ = reconcileCmd.MarkFlagRequired("sources")

	RootCmd.AddCommand(reconcileCmd)
}

// syncQueue executes runs inline so the CLI blocks until completion.
type syncQueue struct {
	service *reconciliation.Service
}

func (q *syncQueue) Enqueue(runID string) bool {
	_ = q.service.Execute(context.Background(), runID)
	return true
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer l.Sync()

	dateFrom, err := time.Parse("2006-01-02", runFrom)
	if err != nil {
		return fmt.Errorf("invalid --from date: %w", err)
	}
	dateTo, err := time.Parse("2006-01-02", runTo)
	if err != nil {
		return fmt.Errorf("invalid --to date: %w", err)
	}
	// Make the end date inclusive of its whole day.
	dateTo = dateTo.Add(24*time.Hour - time.Second)

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(
		&reconmodels.ReconciliationRun{},
		&reconmodels.ReconciliationMismatch{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// Preflight: the source tables are owned by other subsystems; fail
	// fast with a clear message when they are absent.
	if !runSkipPrecheck {
		var tables []string
		for _, src := range runSources {
			if table := source.TableFor(src); table != "" {
				tables = append(tables, table)
			}
		}
		if missing := database.MissingTables(db, tables); len(missing) > 0 {
			return fmt.Errorf("missing source tables: %s (run the importer first, or use --skip-precheck)", strings.Join(missing, ", "))
		}
	}

	machineDir := machines.NewService(db, machines.DefaultCacheTTL, l)
	svc := reconciliation.NewService(db, source.DefaultRegistry(), machineDir, nil, l)
	svc.AttachQueue(&syncQueue{service: svc})

	l.Info("Starting reconciliation run",
		zap.Strings("sources", runSources),
		zap.String("from", runFrom),
		zap.String("to", runTo),
	)

	run, err := svc.CreateAndRun(ctx, "cli", reconciliation.RunParams{
		DateFrom:             dateFrom,
		DateTo:               dateTo,
		Sources:              runSources,
		MachineIDs:           runMachines,
		TimeToleranceSeconds: &runTimeTol,
		AmountTolerance:      &runAmountTol,
	})
	if err != nil {
		return err
	}

	// The sync queue has already executed the run; re-read the outcome.
	run, err = svc.FindOne(ctx, run.ID)
	if err != nil {
		return err
	}
	mismatches, _, err := svc.GetMismatches(ctx, run.ID, 1, 200, "")
	if err != nil {
		return err
	}

	if runJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"run":        run,
			"mismatches": mismatches,
		})
	}

	printRunReport(run, mismatches)

	if run.Status == reconmodels.RunStatusFailed {
		return fmt.Errorf("run failed: %s", run.ErrorMessage)
	}
	return nil
}

func printRunReport(run *reconmodels.ReconciliationRun, mismatches []reconmodels.ReconciliationMismatch) {
	fmt.Printf("Run %s: %s\n", run.ID, run.Status)
	if run.Summary != nil {
		fmt.Printf("  records: %d  matched groups: %d  reconciled amount: %d\n",
			run.Summary.TotalRecords, run.Summary.MatchedGroups, run.Summary.TotalAmountReconciled)
		for src, n := range run.Summary.RecordsBySource {
			fmt.Printf("  source %-16s %d records\n", src, n)
		}
	}
	if run.ErrorMessage != "" {
		fmt.Printf("  notes: %s\n", run.ErrorMessage)
	}
	if len(mismatches) == 0 {
		fmt.Println("  no mismatches")
		return
	}
	fmt.Printf("  %d mismatch(es):\n", len(mismatches))
	for _, m := range mismatches {
		machine := m.MachineNumber
		if machine == "" {
			machine = m.MachineID
		}
		fmt.Printf("    [%s] machine=%s amount=%d discrepancy=%d refs=%v\n",
			m.Type, machine, m.Amount, m.DiscrepancyAmount, m.SourceRefs)
	}
}
