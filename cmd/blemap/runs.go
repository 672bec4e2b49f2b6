package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"blemap/internal/corpus"
	"blemap/internal/errors"
	"blemap/internal/mapping"
	"blemap/internal/output"
	"blemap/internal/storage"
)

var (
	runsListFormat string
	runsShowFormat string
	runsDigest string
	runsCounts bool
	runsOutput string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect mapping runs stored in the results database",
	Long: `List, show, import and delete the mapping runs recorded in the results
database.

Examples:
  blemap runs list
  blemap runs list --digest 3f2a...
  blemap runs show <run-id> --counts
  blemap runs show <run-id> -o mapping.json.zst
  blemap runs import mapping.json
  blemap runs delete <run-id>`,
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List runs over a corpus, most recent first",
	Long: `List the runs over the configured extraction corpus. --digest selects
another corpus by its digest without reading any input file.`,
	Args: cobra.NoArgs,
	RunE: runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a stored run and its mapping",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

var runsImportCmd = &cobra.Command{
	Use:   "import <mapping-file>",
	Short: "Store an existing mapping file as a run",
	Long: `Read a mapping file written by --map (optionally zstd-compressed) and
record it as a new run. The run is attributed to the configured corpus unless
--digest is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runRunsImport,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a run and its assignments",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsDelete,
}

func init() {
	runsListCmd.Flags().StringVar(&runsListFormat, "format", "human", "Output format (json, human)")
	runsListCmd.Flags().StringVar(&runsDigest, "digest", "", "Corpus digest (default: digest of the configured corpus)")

	runsShowCmd.Flags().StringVar(&runsShowFormat, "format", "json", "Output format (json, human)")
	runsShowCmd.Flags().BoolVar(&runsCounts, "counts", false, "Include the number of identifiers per final category")
	runsShowCmd.Flags().StringVarP(&runsOutput, "output", "o", "", "Write the run's mapping to a file instead; .zst compresses")

	runsImportCmd.Flags().StringVar(&runsDigest, "digest", "", "Corpus digest (default: digest of the configured corpus)")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsImportCmd)
	runsCmd.AddCommand(runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

// RunCLI is one stored run.
type RunCLI struct {
	RunID          string     `json:"runId"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	CorpusDigest   string     `json:"corpusDigest"`
	ValidationMode bool       `json:"validationMode"`
	Apps           int        `json:"apps"`
	Identifiers    int        `json:"identifiers"`
	Resolved       int        `json:"resolved"`
}

// RunsListResponseCLI is the runs list command's result.
type RunsListResponseCLI struct {
	Database     string   `json:"database"`
	CorpusDigest string   `json:"corpusDigest"`
	Runs         []RunCLI `json:"runs"`
}

// RunShowResponseCLI is the runs show command's result.
type RunShowResponseCLI struct {
	Run            RunCLI         `json:"run"`
	CategoryCounts map[string]int `json:"categoryCounts,omitempty"`
	OutputFile     string         `json:"outputFile,omitempty"`
	Output         mapping.Output `json:"output,omitempty"`
}

func convertRun(r *storage.Run) RunCLI {
	return RunCLI{
		RunID:          r.RunID,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		CorpusDigest:   r.CorpusDigest,
		ValidationMode: r.ValidationMode,
		Apps:           r.Apps,
		Identifiers:    r.Identifiers,
		Resolved:       r.Resolved,
	}
}

// openResults loads the configuration and opens the results database.
func openResults(cmd *cobra.Command) (*env, *storage.DB, error) {
	e, err := newEnv(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	if e.paths.ResultsDB == "" {
		_ = e.Close()
		return nil, nil, errors.New(errors.ConfigInvalid, "no results database configured (paths.resultsDb)", nil)
	}
	db, err := storage.Open(e.paths.ResultsDB, e.logger)
	if err != nil {
		_ = e.Close()
		return nil, nil, errors.New(errors.OutputFailed, "cannot open results database", err)
	}
	return e, db, nil
}

// corpusDigest returns --digest, or the digest of the configured corpus.
func corpusDigest(e *env) (string, error) {
	if runsDigest != "" {
		return runsDigest, nil
	}
	c, err := corpus.Load(e.paths.Corpus, e.logger)
	if err != nil {
		return "", err
	}
	return c.Digest(), nil
}

func printResponse(cmd *cobra.Command, resp interface{}, format string) error {
	out, err := FormatResponse(resp, OutputFormat(format))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func runRunsList(cmd *cobra.Command, args []string) error {
	e, db, err := openResults(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()
	defer func() { _ = db.Close() }()

	digest, err := corpusDigest(e)
	if err != nil {
		return err
	}
	runs, err := storage.NewRunRepository(db).ListByDigest(digest)
	if err != nil {
		return errors.New(errors.InternalError, "cannot list runs", err)
	}

	resp := &RunsListResponseCLI{Database: db.Path(), CorpusDigest: digest, Runs: []RunCLI{}}
	for _, r := range runs {
		resp.Runs = append(resp.Runs, convertRun(r))
	}
	return printResponse(cmd, resp, runsListFormat)
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	e, db, err := openResults(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()
	defer func() { _ = db.Close() }()

	run, err := storage.NewRunRepository(db).GetByID(args[0])
	if err != nil {
		return errors.New(errors.InternalError, "cannot read run", err)
	}
	if run == nil {
		return errors.New(errors.InputMissing, "run not found: "+args[0], nil)
	}

	assignments := storage.NewAssignmentRepository(db)
	out, err := assignments.LoadOutput(run.RunID)
	if err != nil {
		return errors.New(errors.InternalError, "cannot read run assignments", err)
	}

	resp := &RunShowResponseCLI{Run: convertRun(run)}
	if runsCounts {
		if resp.CategoryCounts, err = assignments.CategoryCounts(run.RunID); err != nil {
			return errors.New(errors.InternalError, "cannot count categories", err)
		}
	}
	if runsOutput != "" {
		if err := output.WriteFile(runsOutput, out); err != nil {
			return err
		}
		resp.OutputFile = runsOutput
	} else {
		resp.Output = out
	}
	return printResponse(cmd, resp, runsShowFormat)
}

func runRunsImport(cmd *cobra.Command, args []string) error {
	e, db, err := openResults(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()
	defer func() { _ = db.Close() }()

	var out mapping.Output
	if err := output.ReadFile(args[0], &out); err != nil {
		return errors.New(errors.InputMissing, "cannot read mapping file "+args[0], err)
	}
	digest, err := corpusDigest(e)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	run := &storage.Run{
		RunID:        uuid.NewString(),
		StartedAt:    now,
		FinishedAt:   &now,
		CorpusDigest: digest,
	}
	if err := storage.NewAssignmentRepository(db).SaveRun(run, out); err != nil {
		return errors.New(errors.OutputFailed, "cannot store mapping run", err)
	}
	e.logger.Info("Imported mapping run", "runId", run.RunID, "apps", run.Apps, "identifiers", run.Identifiers)
	fmt.Fprintln(cmd.OutOrStdout(), run.RunID)
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	e, db, err := openResults(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = e.Close() }()
	defer func() { _ = db.Close() }()

	repo := storage.NewRunRepository(db)
	run, err := repo.GetByID(args[0])
	if err != nil {
		return errors.New(errors.InternalError, "cannot read run", err)
	}
	if run == nil {
		return errors.New(errors.InputMissing, "run not found: "+args[0], nil)
	}
	if err := repo.Delete(run.RunID); err != nil {
		return errors.New(errors.OutputFailed, "cannot delete run", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", run.RunID)
	return nil
}
