package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"entrowatt/pkg/config"
	"entrowatt/pkg/logging"
	"entrowatt/pkg/model"
	"entrowatt/pkg/probe"
	"entrowatt/pkg/protocol"
	"entrowatt/pkg/summary"
)

var runOpts struct {
	runID     string
	mode      string
	modelPath string
	outDir    string
	cfgPath   string
	tokenA    string
	tokenB    string
	note      string
	overwrite bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the intervention protocol and write per-run summaries",
	Long: `Run forces token A and token B into the model in the order given by
--mode, probing before and after each injection. BOTH executes the two
orders over independently loaded model states and writes one summary
file per order.`,
	RunE: runProtocol,
}

func init() {
	runCmd.Flags().StringVar(&runOpts.runID, "run-id", "", "unique run identifier (default: generated UUID)")
	runCmd.Flags().StringVar(&runOpts.mode, "mode", "BOTH", "protocol direction: A2B, B2A or BOTH")
	runCmd.Flags().StringVar(&runOpts.modelPath, "model", "", "model file (overrides "+config.EnvModelPath+" and config)")
	runCmd.Flags().StringVar(&runOpts.outDir, "out-dir", "", "summary output directory (overrides "+config.EnvOutDir+" and config)")
	runCmd.Flags().StringVar(&runOpts.cfgPath, "config", "", "YAML config file")
	runCmd.Flags().StringVar(&runOpts.tokenA, "token-a", "", `token A text (default " Yes"; leading space is intentional)`)
	runCmd.Flags().StringVar(&runOpts.tokenB, "token-b", "", `token B text (default " No")`)
	runCmd.Flags().StringVar(&runOpts.note, "session-note", "", "free-form session conditions note (power plan, AC state)")
	runCmd.Flags().BoolVar(&runOpts.overwrite, "overwrite", false, "replace an existing summary for the same run id and mode")
}

func runProtocol(cmd *cobra.Command, args []string) error {
	log := logging.New("run")

	cfg, err := config.Load(runOpts.cfgPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("model") {
		cfg.ModelPath = runOpts.modelPath
	}
	if cmd.Flags().Changed("out-dir") {
		cfg.OutDir = runOpts.outDir
	}
	if cmd.Flags().Changed("token-a") {
		cfg.TokenA = runOpts.tokenA
	}
	if cmd.Flags().Changed("token-b") {
		cfg.TokenB = runOpts.tokenB
	}
	if cmd.Flags().Changed("session-note") {
		cfg.SessionNote = runOpts.note
	}
	if cfg.ModelPath == "" {
		return fmt.Errorf("model path required: use --model, %s, or the config file", config.EnvModelPath)
	}

	mode, err := protocol.ParseMode(runOpts.mode)
	if err != nil {
		return err
	}

	runID := runOpts.runID
	if runID == "" {
		runID = uuid.NewString()
		log.Info("no run id given, generated one", "run_id", runID)
	}

	spec := protocol.Spec{
		RunID:       runID,
		SessionID:   uuid.NewString(),
		SessionNote: cfg.SessionNote,
		TokenA:      model.Token(cfg.TokenA),
		TokenB:      model.Token(cfg.TokenB),
		Probe:       probe.Options{SumTolerance: cfg.SumTolerance},
	}

	recs, err := protocol.Execute(model.ScriptLoader{}, cfg.ModelPath, spec, mode)
	if err != nil {
		return err
	}

	w := summary.Writer{Dir: cfg.OutDir, Overwrite: runOpts.overwrite}
	for _, rec := range recs {
		path, err := w.Write(rec)
		if err != nil {
			return err
		}
		log.Info("run finalized",
			"run_id", rec.RunID,
			"mode", rec.Mode,
			"steps", len(rec.Steps),
			"delta_h_bits", rec.DeltaEntropyBits(),
			"summary", path,
		)
	}

	if mode == protocol.ModeBoth {
		log.Info("order effect", "run_id", runID, "bits", protocol.OrderEffectBits(recs[0], recs[1]))
	}
	return nil
}
