package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"blemap/internal/classify"
	"blemap/internal/config"
	"blemap/internal/corpus"
	"blemap/internal/errors"
	"blemap/internal/mapping"
	"blemap/internal/matcher"
	"blemap/internal/paths"
	"blemap/internal/registry"
	"blemap/internal/slogutil"
	"blemap/internal/taxonomy"
)

// env is the loaded configuration with every path resolved.
type env struct {
	cfg    *config.Config
	paths  config.PathsConfig
	logger *slog.Logger
	closer io.Closer
}

// loadConfig reads --config, or .blemap/config.json under the working
// directory, and validates it.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFlag != "" {
		cfg, err = config.LoadFile(configFlag)
	} else {
		var wd string
		wd, err = os.Getwd()
		if err == nil {
			cfg, err = config.LoadConfig(wd)
		}
	}
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "cannot load configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.New(errors.ConfigInvalid, err.Error(), err)
	}
	return cfg, nil
}

// resolvePaths resolves every configured path against baseDir.
func resolvePaths(p config.PathsConfig) config.PathsConfig {
	base := p.BaseDir
	return config.PathsConfig{
		BaseDir:      base,
		Corpus:       paths.ResolveAll(base, p.Corpus),
		StandardList: paths.Resolve(base, p.StandardList),
		MemberList:   paths.Resolve(base, p.MemberList),
		KnownTable:   paths.Resolve(base, p.KnownTable),
		Categories:   paths.Resolve(base, p.Categories),
		Senses:       paths.Resolve(base, p.Senses),
		StringsDir:   paths.Resolve(base, p.StringsDir),
		FieldsDir:    paths.Resolve(base, p.FieldsDir),
		Output:       paths.Resolve(base, p.Output),
		ResultsDB:    paths.Resolve(base, p.ResultsDB),
		MetricsFile:  paths.Resolve(base, p.MetricsFile),
	}
}

// newEnv loads configuration and builds the run logger on stderr.
func newEnv(stderr io.Writer) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, closer, err := slogutil.NewRunLogger(cfg.Logging, stderr, logLevelFlag)
	if err != nil {
		return nil, errors.New(errors.ConfigInvalid, "cannot open log file", err)
	}
	return &env{cfg: cfg, paths: resolvePaths(cfg.Paths), logger: logger, closer: closer}, nil
}

func (e *env) Close() error {
	return e.closer.Close()
}

func (e *env) loadClassifier() (*classify.Classifier, error) {
	reg, err := registry.Load(registry.Files{
		StandardList: e.paths.StandardList,
		MemberList:   e.paths.MemberList,
		KnownTable:   e.paths.KnownTable,
	}, e.logger)
	if err != nil {
		return nil, err
	}
	return classify.New(reg, e.cfg.Classifier.CoreServices), nil
}

// loadMatcher loads the category database and, when configured, the gloss
// file used for sense refinement.
func (e *env) loadMatcher() (*matcher.Matcher, error) {
	db, err := taxonomy.Load(e.paths.Categories, e.logger)
	if err != nil {
		return nil, err
	}

	var senses matcher.SenseResolver
	if e.paths.Senses != "" {
		glosses, err := matcher.LoadGlosses(e.paths.Senses)
		if err != nil {
			return nil, errors.New(errors.ReferenceInvalid, fmt.Sprintf("cannot load glosses %s", e.paths.Senses), err)
		}
		e.logger.Info("Loaded sense glosses", "path", e.paths.Senses, "words", glosses.Words())
		senses = glosses
	}
	return matcher.New(db, e.cfg.Matcher, senses), nil
}

// newAssigner loads the category database and prepares the side-file source.
func (e *env) newAssigner(cls *classify.Classifier) (*mapping.Assigner, error) {
	match, err := e.loadMatcher()
	if err != nil {
		return nil, err
	}
	side, err := corpus.NewSideFiles(e.paths.StringsDir, e.paths.FieldsDir, e.cfg.Mapping.SideFileCacheSize, e.logger)
	if err != nil {
		return nil, errors.New(errors.InternalError, "cannot create side-file cache", err)
	}
	return mapping.NewAssigner(match, cls, side, e.cfg.Mapping, e.logger), nil
}
