// Package config loads idmend settings from a config file, .env files and
// IDMEND_ environment variables using viper.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/idmend"
	"github.com/agentstation/idmend/pkg/constants"
	"github.com/agentstation/idmend/pkg/errors"
	"github.com/agentstation/idmend/pkg/reconciler"
)

const (
	// EnvPrefix prefixes every environment variable idmend reads.
	EnvPrefix = "IDMEND"

	// FileName is the config file searched for in the home and working directory.
	FileName = ".idmend"
)

// Keys understood in the config file and environment.
const (
	KeyInputDir        = "input_dir"
	KeyDispositionFile = "disposition_file"
	KeyOutputDir       = "output_dir"
	KeyStrategy        = "strategy"
	KeyOnInconsistent  = "on_inconsistent"
	KeyRequiredVisits  = "required_visits"
	KeyCompareAnchor   = "compare_anchor"
	KeyDerivedColumns  = "derived_columns"
	KeyTimestampColumn = "timestamp_column"
	KeyDelimiter       = "delimiter"
	KeyExcludedFiles   = "excluded_files"
	KeyWorkers         = "workers"
	KeyAnnotate        = "annotate"
	KeySiteReference   = "site_reference"
	KeyVisitCodesFile  = "visit_codes_file"
	KeySQLitePath      = "sqlite_path"
	KeyDryRun          = "dry_run"
	KeyLogLevel        = "log_level"
	KeyLogFormat       = "log_format"
	KeyLogOutput       = "log_output"
)

// Settings is the resolved configuration of one invocation.
type Settings struct {
	InputDir        string
	DispositionFile string
	OutputDir       string
	Strategy        string
	OnInconsistent  string
	RequiredVisits  []string
	CompareAnchor   string
	DerivedColumns  int
	TimestampColumn string
	Delimiter       string
	ExcludedFiles   []string
	Workers         int
	Annotate        bool
	SiteReference   string
	VisitCodesFile  string
	SQLitePath      string
	DryRun          bool

	LogLevel  string
	LogFormat string
	LogOutput string

	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string
}

// New returns a viper instance with idmend defaults and environment
// binding. Values in .env and .env.local are loaded into the environment
// first, without overriding variables that are already set.
func New() *viper.Viper {
	LoadEnvFiles(".env", ".env.local")

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyStrategy, string(reconciler.StrategyAuto))
	v.SetDefault(KeyOnInconsistent, string(reconciler.PolicyAbort))
	v.SetDefault(KeyCompareAnchor, constants.ColumnDiaryDate)
	v.SetDefault(KeyDerivedColumns, constants.DefaultDerivedColumns)
	v.SetDefault(KeyTimestampColumn, constants.ColumnCreatedAt)
	v.SetDefault(KeyDelimiter, string(constants.DefaultDelimiter))
	v.SetDefault(KeyExcludedFiles, constants.ExcludedTables)
	v.SetDefault(KeyWorkers, constants.DefaultWorkers)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "auto")
	v.SetDefault(KeyLogOutput, "stderr")
	return v
}

// LoadEnvFiles loads the given .env files, ignoring the ones that do not exist.
func LoadEnvFiles(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// ReadFile reads path, or searches for .idmend.yaml in the home and
// working directory when path is empty. A missing searched-for file is
// not an error; a missing explicit one is.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(FileName)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return errors.NewConfigError("config", fmt.Sprintf("reading %s", path), err)
	}
	return nil
}

// Load resolves Settings from v. List values may be YAML sequences or
// comma-separated strings as they arrive from the environment.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		InputDir:        v.GetString(KeyInputDir),
		DispositionFile: v.GetString(KeyDispositionFile),
		OutputDir:       v.GetString(KeyOutputDir),
		Strategy:        v.GetString(KeyStrategy),
		OnInconsistent:  v.GetString(KeyOnInconsistent),
		RequiredVisits:  List(v, KeyRequiredVisits),
		CompareAnchor:   v.GetString(KeyCompareAnchor),
		DerivedColumns:  v.GetInt(KeyDerivedColumns),
		TimestampColumn: v.GetString(KeyTimestampColumn),
		Delimiter:       v.GetString(KeyDelimiter),
		ExcludedFiles:   List(v, KeyExcludedFiles),
		Workers:         v.GetInt(KeyWorkers),
		Annotate:        v.GetBool(KeyAnnotate),
		SiteReference:   v.GetString(KeySiteReference),
		VisitCodesFile:  v.GetString(KeyVisitCodesFile),
		SQLitePath:      v.GetString(KeySQLitePath),
		DryRun:          v.GetBool(KeyDryRun),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFormat:       v.GetString(KeyLogFormat),
		LogOutput:       v.GetString(KeyLogOutput),
		ConfigFile:      v.ConfigFileUsed(),
	}
	if _, err := reconciler.ParseStrategy(s.Strategy); err != nil {
		return nil, err
	}
	if _, err := reconciler.ParsePolicy(s.OnInconsistent); err != nil {
		return nil, err
	}
	if _, err := s.delimiter(); err != nil {
		return nil, err
	}
	return s, nil
}

// List reads key as a list. A single string is split on commas.
func List(v *viper.Viper, key string) []string {
	var raw []string
	switch val := v.Get(key).(type) {
	case nil:
		return nil
	case string:
		raw = strings.Split(val, ",")
	default:
		raw = v.GetStringSlice(key)
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (s *Settings) delimiter() (rune, error) {
	r := []rune(s.Delimiter)
	if len(r) != 1 {
		return 0, errors.NewValidationError(KeyDelimiter, s.Delimiter, "must be a single character")
	}
	return r[0], nil
}

// EngineOptions maps the settings onto idmend options.
func (s *Settings) EngineOptions() ([]idmend.Option, error) {
	delim, err := s.delimiter()
	if err != nil {
		return nil, err
	}
	opts := []idmend.Option{
		idmend.WithInputDir(s.InputDir),
		idmend.WithDispositionFile(s.DispositionFile),
		idmend.WithOutputDir(s.OutputDir),
		idmend.WithStrategy(reconciler.RelocationStrategy(s.Strategy)),
		idmend.WithInconsistencyPolicy(reconciler.InconsistencyPolicy(s.OnInconsistent)),
		idmend.WithWorkers(s.Workers),
		idmend.WithCompareAnchor(s.CompareAnchor),
		idmend.WithDerivedColumns(s.DerivedColumns),
		idmend.WithTimestampColumn(s.TimestampColumn),
		idmend.WithDelimiter(delim),
		idmend.WithExcludedFiles(s.ExcludedFiles...),
		idmend.WithRequiredVisits(s.RequiredVisits...),
		idmend.WithAnnotate(s.Annotate),
		idmend.WithSiteReference(s.SiteReference),
		idmend.WithVisitCodesFile(s.VisitCodesFile),
		idmend.WithSQLite(s.SQLitePath),
		idmend.WithDryRun(s.DryRun),
	}
	return opts, nil
}
