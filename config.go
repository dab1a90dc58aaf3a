package lintbridge

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// DefaultCacheLocation is where lint results are stored when caching is
// enabled and no cacheLocation is configured.
const DefaultCacheLocation = ".cache/lintbridge"

// ReportOptions configures the side-channel report artifact.
type ReportOptions struct {
	// FilePath may contain template tokens ([contenthash], [hash], [name])
	// interpolated against the analyzed source content.
	FilePath string `yaml:"filePath" mapstructure:"filePath"`
	// FormatterName selects the formatter for the report body; empty means
	// reuse the main formatter output.
	FormatterName string `yaml:"formatter" mapstructure:"formatter"`
}

// Options is the recognized configuration surface. Option names follow the
// ESLint plugin convention so host-level yaml defaults and per-invocation
// maps use the same keys.
type Options struct {
	Fix             bool          `yaml:"fix" mapstructure:"fix"`
	Quiet           bool          `yaml:"quiet" mapstructure:"quiet"`
	Cache           bool          `yaml:"cache" mapstructure:"cache"`
	CacheLocation   string        `yaml:"cacheLocation" mapstructure:"cacheLocation"`
	CacheIdentifier string        `yaml:"cacheIdentifier" mapstructure:"cacheIdentifier"`
	ESLintPath      string        `yaml:"eslintPath" mapstructure:"eslintPath"`
	FormatterName   string        `yaml:"formatter" mapstructure:"formatter"`
	EmitError       bool          `yaml:"emitError" mapstructure:"emitError"`
	EmitWarning     bool          `yaml:"emitWarning" mapstructure:"emitWarning"`
	FailOnError     bool          `yaml:"failOnError" mapstructure:"failOnError"`
	FailOnWarning   bool          `yaml:"failOnWarning" mapstructure:"failOnWarning"`
	OutputReport    ReportOptions `yaml:"outputReport" mapstructure:"outputReport"`
}

// configHash fingerprints the effective options. The cache identifier is
// excluded: two configurations that differ only in their declared cache salt
// still share one engine instance.
func (o Options) configHash() string {
	d := xxhash.New()
	fmt.Fprintf(d, "fix=%t;quiet=%t;cache=%t;", o.Fix, o.Quiet, o.Cache)
	fmt.Fprintf(d, "cacheLocation=%s;eslintPath=%s;formatter=%s;", o.CacheLocation, o.ESLintPath, o.FormatterName)
	fmt.Fprintf(d, "emitError=%t;emitWarning=%t;failOnError=%t;failOnWarning=%t;", o.EmitError, o.EmitWarning, o.FailOnError, o.FailOnWarning)
	fmt.Fprintf(d, "outputReport=%s|%s", o.OutputReport.FilePath, o.OutputReport.FormatterName)
	return strconv.FormatUint(d.Sum64(), 16)
}

// EffectiveConfig is the merged, resolved configuration for one invocation.
// Immutable once derived.
type EffectiveConfig struct {
	Options

	hash            string
	provider        EngineProvider
	engineVersion   string
	formatter       Formatter
	reportFormatter Formatter
}

// Hash returns the configuration fingerprint used to key the engine registry.
func (c *EffectiveConfig) Hash() string { return c.hash }

// EngineVersion returns the version the resolved provider reported.
func (c *EffectiveConfig) EngineVersion() string { return c.engineVersion }

// ResultFormatter returns the formatter for the main diagnostic message.
func (c *EffectiveConfig) ResultFormatter() Formatter { return c.formatter }

// ReportFormatter returns the formatter for the report artifact body, or the
// main formatter when outputReport.formatter is unset.
func (c *EffectiveConfig) ReportFormatter() Formatter {
	if c.reportFormatter != nil {
		return c.reportFormatter
	}
	return c.formatter
}

// Merge combines host-level defaults and per-invocation options into one
// effective configuration. Invocation options override defaults key-for-key;
// nested objects are replaced wholesale, not deep-merged. Always injected:
// the default formatter, the default engine selector, and a cache identifier
// embedding the lintbridge and engine versions so upgrades invalidate old
// cache entries automatically.
//
// The engine implementation is resolved here so an unknown or incompatible
// selector fails before anything is linted.
func Merge(hostDefaults, invocation map[string]any, fs afero.Fs, logger *slog.Logger) (*EffectiveConfig, error) {
	// Viper lowercases keys, callers usually don't. Fold case so an
	// invocation key overrides the matching default regardless of source.
	merged := make(map[string]any, len(hostDefaults)+len(invocation))
	for k, v := range hostDefaults {
		merged[strings.ToLower(k)] = v
	}
	for k, v := range invocation {
		merged[strings.ToLower(k)] = v
	}

	var opts Options
	if err := mapstructure.Decode(merged, &opts); err != nil {
		return nil, NewConfigError("failed to decode merged options", err)
	}

	if opts.ESLintPath == "" {
		opts.ESLintPath = "eslint"
	}
	if opts.FormatterName == "" {
		opts.FormatterName = "stylish"
	}
	if opts.CacheLocation == "" {
		opts.CacheLocation = DefaultCacheLocation
	}

	provider, version, err := resolveProvider(opts.ESLintPath, fs, logger)
	if err != nil {
		return nil, err
	}

	if opts.CacheIdentifier == "" {
		opts.CacheIdentifier = fmt.Sprintf("lintbridge=%s;eslint=%s", Version, version)
	}

	formatter, err := NewFormatter(opts.FormatterName)
	if err != nil {
		return nil, NewConfigError("unknown formatter", err)
	}

	var reportFormatter Formatter
	if opts.OutputReport.FormatterName != "" {
		reportFormatter, err = NewFormatter(opts.OutputReport.FormatterName)
		if err != nil {
			return nil, NewConfigError("unknown report formatter", err)
		}
	}

	return &EffectiveConfig{
		Options:         opts,
		hash:            opts.configHash(),
		provider:        provider,
		engineVersion:   version,
		formatter:       formatter,
		reportFormatter: reportFormatter,
	}, nil
}

// LoadDefaults reads a host-defaults option file (yaml) and returns it as an
// option map suitable for Merge. A missing file name falls back to
// lintbridge.yml in the working directory.
func LoadDefaults(fs afero.Fs, cfgFile string) (map[string]any, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigType("yml")

	fileInfo, statErr := fs.Stat(cfgFile)
	if statErr == nil && !fileInfo.IsDir() {
		v.SetConfigFile(cfgFile)
	} else {
		if cfgFile != "" {
			if strings.HasSuffix(cfgFile, ".yml") || strings.HasSuffix(cfgFile, ".yaml") {
				v.SetConfigFile(cfgFile)
			} else {
				v.SetConfigName(cfgFile)
			}
		} else {
			v.SetConfigName("lintbridge")
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, NewConfigError("defaults file not found", err)
		}
		return nil, NewConfigError("failed loading defaults file", err)
	}

	return v.AllSettings(), nil
}
