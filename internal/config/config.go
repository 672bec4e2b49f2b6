package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// CurrentVersion is the config schema version this build understands.
const CurrentVersion = 1

// Config represents the complete blemap configuration
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Paths      PathsConfig      `json:"paths" mapstructure:"paths"`
	Matcher    MatcherConfig    `json:"matcher" mapstructure:"matcher"`
	Classifier ClassifierConfig `json:"classifier" mapstructure:"classifier"`
	Mapping    MappingConfig    `json:"mapping" mapstructure:"mapping"`
	Logging    LoggingConfig    `json:"logging" mapstructure:"logging"`
}

// PathsConfig locates every input and output of a run.
// Relative entries are resolved against BaseDir.
type PathsConfig struct {
	BaseDir      string   `json:"baseDir" mapstructure:"baseDir"`
	Corpus       []string `json:"corpus" mapstructure:"corpus"`
	StandardList string   `json:"standardList" mapstructure:"standardList"`
	MemberList   string   `json:"memberList" mapstructure:"memberList"`
	KnownTable   string   `json:"knownTable" mapstructure:"knownTable"`
	Categories   string   `json:"categories" mapstructure:"categories"`
	Senses       string   `json:"senses" mapstructure:"senses"`
	StringsDir   string   `json:"stringsDir" mapstructure:"stringsDir"`
	FieldsDir    string   `json:"fieldsDir" mapstructure:"fieldsDir"`
	Output       string   `json:"output" mapstructure:"output"`
	ResultsDB    string   `json:"resultsDb" mapstructure:"resultsDb"`
	MetricsFile  string   `json:"metricsFile" mapstructure:"metricsFile"`
}

// MatcherConfig tunes the category matcher
type MatcherConfig struct {
	ShortTextThreshold   int      `json:"shortTextThreshold" mapstructure:"shortTextThreshold"`
	MeaningWindow        int      `json:"meaningWindow" mapstructure:"meaningWindow"`
	BlacklistWindowExtra int      `json:"blacklistWindowExtra" mapstructure:"blacklistWindowExtra"`
	Disambiguate         bool     `json:"disambiguate" mapstructure:"disambiguate"`
	Stopwords            []string `json:"stopwords" mapstructure:"stopwords"`
}

// ClassifierConfig names the registry categories with special handling
type ClassifierConfig struct {
	CoreServices []string `json:"coreServices" mapstructure:"coreServices"`
	DFUCategory  string   `json:"dfuCategory" mapstructure:"dfuCategory"`
}

// MappingConfig controls functionality assignment
type MappingConfig struct {
	ValidationMode    bool   `json:"validationMode" mapstructure:"validationMode"`
	Workers           int    `json:"workers" mapstructure:"workers"`
	SideFileCacheSize int    `json:"sideFileCacheSize" mapstructure:"sideFileCacheSize"`
	StringMode        string `json:"stringMode" mapstructure:"stringMode"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
	File   string `json:"file" mapstructure:"file"`
}

// DefaultStopwords are dropped from the token sequence used for space-joined phrases.
var DefaultStopwords = []string{
	"a", "an", "the", "of", "to", "for", "and", "or", "in", "on", "at", "by",
	"is", "are", "be", "your", "my", "this", "that", "with", "from",
}

// DefaultConfig returns the default configuration. Paths follow the
// resources/ and input-output/ data layout.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Paths: PathsConfig{
			BaseDir:      ".",
			Corpus:       []string{"input-output/uuid-extractor-output.json"},
			StandardList: "resources/common/adopted-uuid-list.csv",
			MemberList:   "resources/common/sig-member-list.txt",
			KnownTable:   "resources/common/kfus.json",
			Categories:   "resources/common/functional_categories_database.json",
			StringsDir:   "resources/app-specific/strings",
			FieldsDir:    "resources/app-specific/fields",
			Output:       "input-output/apk_matcher_output.json",
		},
		Matcher: MatcherConfig{
			ShortTextThreshold:   10,
			MeaningWindow:        20,
			BlacklistWindowExtra: 0,
			Disambiguate:         false,
			Stopwords:            append([]string(nil), DefaultStopwords...),
		},
		Classifier: ClassifierConfig{
			CoreServices: []string{"GATT", "GAP", "GSS"},
			DFUCategory:  "DFU",
		},
		Mapping: MappingConfig{
			ValidationMode:    false,
			Workers:           1,
			SideFileCacheSize: 64,
			StringMode:        "text",
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// setDefaults mirrors DefaultConfig into viper so partial files keep defaults.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("paths.baseDir", d.Paths.BaseDir)
	v.SetDefault("paths.corpus", d.Paths.Corpus)
	v.SetDefault("paths.standardList", d.Paths.StandardList)
	v.SetDefault("paths.memberList", d.Paths.MemberList)
	v.SetDefault("paths.knownTable", d.Paths.KnownTable)
	v.SetDefault("paths.categories", d.Paths.Categories)
	v.SetDefault("paths.senses", d.Paths.Senses)
	v.SetDefault("paths.stringsDir", d.Paths.StringsDir)
	v.SetDefault("paths.fieldsDir", d.Paths.FieldsDir)
	v.SetDefault("paths.output", d.Paths.Output)
	v.SetDefault("paths.resultsDb", d.Paths.ResultsDB)
	v.SetDefault("paths.metricsFile", d.Paths.MetricsFile)
	v.SetDefault("matcher.shortTextThreshold", d.Matcher.ShortTextThreshold)
	v.SetDefault("matcher.meaningWindow", d.Matcher.MeaningWindow)
	v.SetDefault("matcher.blacklistWindowExtra", d.Matcher.BlacklistWindowExtra)
	v.SetDefault("matcher.disambiguate", d.Matcher.Disambiguate)
	v.SetDefault("matcher.stopwords", d.Matcher.Stopwords)
	v.SetDefault("classifier.coreServices", d.Classifier.CoreServices)
	v.SetDefault("classifier.dfuCategory", d.Classifier.DFUCategory)
	v.SetDefault("mapping.validationMode", d.Mapping.ValidationMode)
	v.SetDefault("mapping.workers", d.Mapping.Workers)
	v.SetDefault("mapping.sideFileCacheSize", d.Mapping.SideFileCacheSize)
	v.SetDefault("mapping.stringMode", d.Mapping.StringMode)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
}

// LoadConfig loads configuration from <dir>/.blemap/config.json.
// A .env file in dir is loaded first; BLEMAP_* variables override file values
// (for example BLEMAP_MAPPING_WORKERS=4).
func LoadConfig(dir string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(dir, ".blemap"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	return unmarshal(v)
}

// LoadFile loads configuration from an explicit file of any viper-supported type.
func LoadFile(path string) (*Config, error) {
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("BLEMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the configuration to <dir>/.blemap/config.json
func (c *Config) Save(dir string) error {
	configDir := filepath.Join(dir, ".blemap")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir, "config.json"), data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if len(c.Paths.Corpus) == 0 {
		return &ConfigError{Field: "paths.corpus", Message: "at least one corpus file is required"}
	}
	if c.Matcher.ShortTextThreshold < 0 {
		return &ConfigError{Field: "matcher.shortTextThreshold", Message: "must not be negative"}
	}
	if c.Matcher.MeaningWindow <= 0 {
		return &ConfigError{Field: "matcher.meaningWindow", Message: "must be positive"}
	}
	if c.Matcher.BlacklistWindowExtra < 0 {
		return &ConfigError{Field: "matcher.blacklistWindowExtra", Message: "must not be negative"}
	}
	if c.Mapping.Workers <= 0 {
		return &ConfigError{Field: "mapping.workers", Message: "must be positive"}
	}
	if c.Mapping.SideFileCacheSize <= 0 {
		return &ConfigError{Field: "mapping.sideFileCacheSize", Message: "must be positive"}
	}
	switch c.Mapping.StringMode {
	case "text", "identifier":
	default:
		return &ConfigError{Field: "mapping.stringMode", Message: "must be 'text' or 'identifier'"}
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be 'human' or 'json'"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
