package main

import (
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"blemap/internal/corpus"
	"blemap/internal/errors"
	"blemap/internal/slogutil"
)

var (
	doctorFormat string
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration and reference files",
	Long: `Load the configuration and every configured reference file and report
what is missing or malformed. Exits non-zero when any check fails.`,
	RunE: runDoctor,
}

func init() {
	doctorCmd.Flags().StringVar(&doctorFormat, "format", "human", "Output format (json, human)")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorCheck is the outcome of one diagnostic.
type DoctorCheck struct {
	Name           string             `json:"name"`
	Status         string             `json:"status"`
	Message        string             `json:"message"`
	SuggestedFixes []errors.FixAction `json:"suggestedFixes,omitempty"`
}

// DoctorResponseCLI is the doctor command's result.
type DoctorResponseCLI struct {
	Healthy bool          `json:"healthy"`
	Checks  []DoctorCheck `json:"checks"`
}

func (r *DoctorResponseCLI) add(name string, err error, ok string) {
	if err == nil {
		r.Checks = append(r.Checks, DoctorCheck{Name: name, Status: "pass", Message: ok})
		return
	}
	r.Healthy = false
	check := DoctorCheck{Name: name, Status: "fail", Message: err.Error()}
	var be *errors.BlemapError
	if stderrors.As(err, &be) {
		check.SuggestedFixes = be.SuggestedFixes
	}
	r.Checks = append(r.Checks, check)
}

func (r *DoctorResponseCLI) warn(name, msg string) {
	r.Checks = append(r.Checks, DoctorCheck{Name: name, Status: "warn", Message: msg})
}

func runDoctor(cmd *cobra.Command, args []string) error {
	start := time.Now()
	resp := diagnose()

	out, err := FormatResponse(resp, OutputFormat(doctorFormat))
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	if doctorFormat == string(FormatHuman) {
		fmt.Fprintf(cmd.OutOrStdout(), "\n(Diagnostics took %dms)\n", time.Since(start).Milliseconds())
	}

	if !resp.Healthy {
		return fmt.Errorf("%d check(s) failed", resp.failed())
	}
	return nil
}

func (r *DoctorResponseCLI) failed() int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == "fail" {
			n++
		}
	}
	return n
}

// diagnose runs every check. Loading output goes to a discard logger so only
// the report is printed.
func diagnose() *DoctorResponseCLI {
	resp := &DoctorResponseCLI{Healthy: true}

	cfg, err := loadConfig()
	resp.add("config", err, "configuration is valid")
	if err != nil {
		return resp
	}
	e := &env{cfg: cfg, paths: resolvePaths(cfg.Paths), logger: slogutil.NewDiscardLogger()}

	cls, err := e.loadClassifier()
	if err == nil {
		reg := cls.Registry()
		resp.add("registry", nil, fmt.Sprintf("%d adopted identifiers in %d services, %d member identifiers, %d known-functionality identifiers",
			reg.StandardCount(), len(reg.Services()), reg.MemberCount(), reg.Known().Len()))
		if _, ok := reg.Known().Category(cfg.Classifier.DFUCategory); !ok {
			resp.warn("dfu-category", fmt.Sprintf("known-functionality table has no %q category", cfg.Classifier.DFUCategory))
		}
	} else {
		resp.add("registry", err, "")
	}

	m, err := e.loadMatcher()
	if err == nil {
		db := m.Database()
		resp.add("categories", nil, fmt.Sprintf("%d roots in %d categories", db.Len(), len(db.Categories())))
	} else {
		resp.add("categories", err, "")
	}

	for _, path := range e.paths.Corpus {
		if _, err := os.Stat(path); err != nil {
			resp.add("corpus", errors.New(errors.InputMissing, "extraction corpus not found: "+path, err), "")
		}
	}
	if len(e.paths.Corpus) > 0 && resp.Healthy {
		c, err := corpus.Load(e.paths.Corpus, e.logger)
		if err == nil {
			resp.add("corpus", nil, fmt.Sprintf("%d apps, %d identifiers (%d skipped)", c.Len(), len(c.Identifiers()), c.Skipped()))
		} else {
			resp.add("corpus", err, "")
		}
	}

	sideDirs := []struct{ name, dir string }{
		{"strings", e.paths.StringsDir},
		{"fields", e.paths.FieldsDir},
	}
	for _, sd := range sideDirs {
		if sd.dir == "" {
			continue
		}
		if info, err := os.Stat(sd.dir); err != nil || !info.IsDir() {
			resp.warn(sd.name, "side-file directory not found: "+sd.dir+" (mapping will use empty "+sd.name+")")
		}
	}
	return resp
}
