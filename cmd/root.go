package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/gridflex/gridflex/app"
	"github.com/gridflex/gridflex/config"
	"github.com/gridflex/gridflex/core/events"
	"github.com/gridflex/gridflex/infra/feed"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "gridflex",
	Short: "Grid-aware compute workload scheduler",
	Long: "gridflex shifts flexible compute workloads into cheap, low-carbon " +
		"grid windows and negotiates the energy purchase with a marketplace " +
		"counterparty, keeping a signed audit trail of every step.",
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	catalog, err := feed.LoadCatalog(cfg.Feed.WorkloadsPath)
	if err != nil {
		return err
	}
	signals, err := feed.LoadSignals(cfg.Feed.SignalsPath)
	if err != nil {
		return err
	}

	svc, err := app.New(cfg, catalog, signals)
	if err != nil {
		return err
	}

	// Negotiation progress streams off the event bus while the cycle runs.
	sub := svc.Bus().Subscribe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range sub {
			if p, ok := e.(events.PhaseEvent); ok {
				src := "live"
				if !p.Live {
					src = "degraded"
				}
				fmt.Printf("  %-8s %s (%s)\n", p.Phase, p.State, src)
			}
		}
	}()

	report, err := svc.Run(ctx)
	<-done
	if err != nil {
		return err
	}
	render(report)
	return nil
}

func render(r *app.CycleReport) {
	if len(r.Decisions) == 0 {
		fmt.Println("No schedulable workloads.")
		return
	}

	fmt.Printf("Order %s (%s)\n\n", r.OrderID, r.Journey.State)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Workload", "Start", "End", "Cost", "Carbon kg", "Revenue", "Score")
	for _, d := range r.Decisions {
		table.Append(
			d.WorkloadID,
			d.Start.Format("Jan 02 15:04"),
			d.End.Format("Jan 02 15:04"),
			fmt.Sprintf("%.2f", d.ExpectedCost),
			fmt.Sprintf("%.2f", d.CarbonKg()),
			fmt.Sprintf("%.2f", d.ExpectedRevenue),
			fmt.Sprintf("%.2f", d.Score),
		)
	}
	table.Render()

	for _, w := range r.Warnings {
		fmt.Printf("warning: %s: %s\n", w.WorkloadID, w.Reason)
	}

	s := r.Settlement
	fmt.Printf("\nSettlement: %d jobs, %.2f cost savings, %.2f flex revenue, "+
		"%.2f kg CO2 avoided (%.1f tree-years), %d audit entries\n",
		s.JobsCompleted, s.CostSavings, s.FlexRevenue, s.CarbonSavingsKg,
		s.TreeEquivalent, s.Entries)
}
