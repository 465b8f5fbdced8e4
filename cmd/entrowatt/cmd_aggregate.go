package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"entrowatt/pkg/aggregate"
	"entrowatt/pkg/logging"
)

var aggOpts struct {
	summaries  string
	powerDir   string
	idle       string
	store      string
	out        string
	minSamples int
}

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Join run summaries with power logs into the aggregate table",
	Long: `Aggregate matches every per-run summary with its power log by naming
convention, windows the power series to the run's wall-clock span,
subtracts the idle baseline, and integrates net power into net energy.
Results are upserted into a SQLite table keyed by run id and mode, so
re-aggregating never duplicates rows, and exported as CSV.`,
	RunE: runAggregate,
}

func init() {
	aggregateCmd.Flags().StringVar(&aggOpts.summaries, "summaries", filepath.Join("data", "raw", "summaries"), "per-run summary directory")
	aggregateCmd.Flags().StringVar(&aggOpts.powerDir, "power", filepath.Join("data", "raw", "power"), "power log directory")
	aggregateCmd.Flags().StringVar(&aggOpts.idle, "idle", filepath.Join("data", "raw", "power", "idle.csv"), "idle baseline power log ('' to skip)")
	aggregateCmd.Flags().StringVar(&aggOpts.store, "store", filepath.Join("data", "aggregate", "aggregate.db"), "results database")
	aggregateCmd.Flags().StringVar(&aggOpts.out, "out", filepath.Join("data", "aggregate", "aggregate_results.csv"), "CSV export path")
	aggregateCmd.Flags().IntVar(&aggOpts.minSamples, "min-idle-samples", 10, "minimum idle samples for a trustworthy baseline")
}

func runAggregate(cmd *cobra.Command, args []string) error {
	log := logging.New("aggregate")

	res, err := aggregate.Aggregate(aggregate.Options{
		SummariesDir:   aggOpts.summaries,
		PowerDir:       aggOpts.powerDir,
		IdlePath:       aggOpts.idle,
		MinIdleSamples: aggOpts.minSamples,
		Log:            log,
	})
	if err != nil {
		return err
	}

	st, err := aggregate.OpenStore(aggOpts.store)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Upsert(res.Rows); err != nil {
		return err
	}
	table, err := st.Rows()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(aggOpts.out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(aggOpts.out)
	if err != nil {
		return err
	}
	if err := aggregate.WriteCSV(f, table); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	printReports(res)
	printTotals(res, len(table))
	log.Info("aggregate table written", "rows", len(table), "csv", aggOpts.out, "store", aggOpts.store)
	return nil
}

func printReports(res *aggregate.Result) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tMODE\tSTATUS\tNET AVG (W)\tNET ENERGY (J)")
	fmt.Fprintln(tw, "---\t----\t------\t-----------\t--------------")
	rowByKey := make(map[string]aggregate.Row, len(res.Rows))
	for _, r := range res.Rows {
		rowByKey[r.RunID+"/"+string(r.Mode)] = r
	}
	for _, rep := range res.Reports {
		net, energy := "-", "-"
		if r, ok := rowByKey[rep.RunID+"/"+string(rep.Mode)]; ok && !math.IsNaN(r.NetAvgW) {
			net = fmt.Sprintf("%.3f", r.NetAvgW)
			energy = fmt.Sprintf("%.3f", r.NetEnergyJ)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", rep.RunID, rep.Mode, rep.Status, net, energy)
	}
	tw.Flush()
}

func printTotals(res *aggregate.Result, tableRows int) {
	var totalJ, totalS float64
	for _, r := range res.Rows {
		if !math.IsNaN(r.NetEnergyJ) {
			totalJ += r.NetEnergyJ
		}
		totalS += r.DurationS
	}

	fmt.Println()
	if res.IdleOK {
		fmt.Printf("idle baseline:    %.3f W\n", res.IdleW)
	} else {
		fmt.Println("idle baseline:    (none; net columns blank)")
	}
	fmt.Printf("aggregated runs:  %d this pass, %d in table\n", len(res.Rows), tableRows)
	fmt.Printf("measured span:    %s\n", (time.Duration(totalS * float64(time.Second))).Round(time.Millisecond))
	fmt.Printf("net energy:       %s J\n", humanize.CommafWithDigits(totalJ, 2))
	fmt.Println()
}
