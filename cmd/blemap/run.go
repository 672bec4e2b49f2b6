package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"blemap/internal/corpus"
	"blemap/internal/errors"
	"blemap/internal/mapping"
	"blemap/internal/metrics"
	"blemap/internal/output"
	"blemap/internal/stats"
	"blemap/internal/storage"
)

func runRoot(cmd *cobra.Command, args []string) error {
	if !statsFlag && !mapFlag {
		return nil
	}
	if appFlag != "" && !mapFlag {
		return errors.New(errors.ConfigInvalid, "--app requires --map", nil)
	}

	e, err := newEnv(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()

	if cmd.Flags().Changed("validation") {
		e.cfg.Mapping.ValidationMode = validationFlag
	}
	if cmd.Flags().Changed("workers") {
		if workersFlag < 1 {
			return errors.New(errors.ConfigInvalid, "--workers must be positive", nil)
		}
		e.cfg.Mapping.Workers = workersFlag
	}
	if outputFlag != "" {
		e.paths.Output = outputFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	started := time.Now()
	m := metrics.New()

	// Every required reference file is loaded before any analysis starts.
	cls, err := e.loadClassifier()
	if err != nil {
		return err
	}
	var assigner *mapping.Assigner
	if mapFlag {
		if assigner, err = e.newAssigner(cls); err != nil {
			return err
		}
	}
	c, err := corpus.Load(e.paths.Corpus, e.logger)
	if err != nil {
		return err
	}

	if statsFlag {
		report := stats.NewAggregator(cls, e.cfg.Classifier.DFUCategory).Aggregate(c)
		report.Log(e.logger)
		m.ObserveReport(report)
	}

	if mapFlag {
		if err := runMapping(ctx, e, assigner, c, m, started); err != nil {
			return err
		}
	}

	if e.paths.MetricsFile != "" {
		m.ObserveRun(started, time.Now())
		if err := m.WriteTextfile(e.paths.MetricsFile); err != nil {
			return err
		}
		e.logger.Debug("Wrote metrics", "path", e.paths.MetricsFile)
	}
	return nil
}

func runMapping(ctx context.Context, e *env, assigner *mapping.Assigner, c *corpus.Corpus, m *metrics.Metrics, started time.Time) error {
	if e.cfg.Mapping.ValidationMode {
		e.logger.Info("Validation mode: mapping known-functionality identifiers")
	}

	var (
		out mapping.Output
		err error
	)
	if appFlag != "" {
		app, ok := c.App(strings.ToUpper(appFlag))
		if !ok {
			return errors.New(errors.InputMissing, "application not in corpus: "+appFlag, nil)
		}
		out = mapping.Output{}
		if res := assigner.AssignApp(app); len(res) > 0 {
			out[app.Key] = res
		}
	} else {
		out, err = assigner.Assign(ctx, c)
		if err != nil {
			return errors.New(errors.InternalError, "mapping interrupted", err)
		}
	}
	m.ObserveMapping(assigner.Stats())

	if err := output.WriteFile(e.paths.Output, out); err != nil {
		return err
	}
	e.logger.Info("Wrote functionality mapping", "path", e.paths.Output)

	if e.paths.ResultsDB == "" {
		return nil
	}
	db, err := storage.Open(e.paths.ResultsDB, e.logger)
	if err != nil {
		return errors.New(errors.OutputFailed, "cannot open results database", err)
	}
	defer func() { _ = db.Close() }()

	finished := time.Now().UTC()
	run := &storage.Run{
		RunID:          uuid.NewString(),
		StartedAt:      started.UTC(),
		FinishedAt:     &finished,
		CorpusDigest:   c.Digest(),
		ValidationMode: e.cfg.Mapping.ValidationMode,
	}
	if err := storage.NewAssignmentRepository(db).SaveRun(run, out); err != nil {
		return errors.New(errors.OutputFailed, "cannot store mapping run", err)
	}
	e.logger.Info("Stored mapping run", "runId", run.RunID, "db", e.paths.ResultsDB)
	return nil
}
