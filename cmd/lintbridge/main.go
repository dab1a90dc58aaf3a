package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bundlekit/lintbridge"
	"github.com/charmbracelet/fang"
	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	cfgFile       string
	path          string
	rootContext   string
	extensions    []string
	fix           bool
	quiet         bool
	cache         bool
	failOnError   bool
	failOnWarning bool
	watch         bool
	verbose       bool
)

var errFindings = errors.New("lint findings")

func main() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "defaults file (yaml, lintbridge option names)")
	rootCmd.PersistentFlags().StringVar(&path, "path", ".", "path to lint")
	rootCmd.PersistentFlags().StringVar(&rootContext, "context", "", "project base directory for path normalization")
	rootCmd.PersistentFlags().StringSliceVar(&extensions, "ext", []string{".js", ".jsx", ".ts", ".tsx"}, "file extensions to lint")
	rootCmd.PersistentFlags().BoolVar(&fix, "fix", false, "apply auto-fixes")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "suppress warnings")
	rootCmd.PersistentFlags().BoolVar(&cache, "cache", false, "enable content-addressed result caching")
	rootCmd.PersistentFlags().BoolVar(&failOnError, "fail-on-error", false, "abort on lint errors")
	rootCmd.PersistentFlags().BoolVar(&failOnWarning, "fail-on-warning", false, "abort on lint warnings")
	rootCmd.PersistentFlags().BoolVar(&watch, "watch", false, "re-lint on file changes")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose logging")

	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lintbridge",
	Short: "Run ESLint over a source tree the way a bundler would",
	Long:  `lintbridge is a standalone host for the bundler-side ESLint adapter: it feeds each matching file through the bridge and reports findings on the warning or error channel.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logLevel := slog.LevelInfo
		if verbose {
			logLevel = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		}))

		fs := afero.NewOsFs()

		defaults := map[string]any{}
		if cfgFile != "" {
			loaded, err := lintbridge.LoadDefaults(fs, cfgFile)
			if err != nil {
				logger.Error("failed to load defaults", "error", err)
				return err
			}
			defaults = loaded
		}

		bridge := lintbridge.NewBridge(
			lintbridge.WithDefaults(defaults),
			lintbridge.WithLogger(logger),
			lintbridge.WithFs(fs),
		)

		invocation := flagOptions(cmd)

		base := rootContext
		if base == "" {
			if abs, err := filepath.Abs(path); err == nil {
				base = abs
			}
		}

		run := newRunner(bridge, fs, logger, invocation, base)

		failed, err := run.lintTree(cmd.Context(), path)
		if err != nil {
			return err
		}

		if watch {
			watcher, err := lintbridge.NewWatcher(lintbridge.WatchConfig{
				Logger:     logger,
				FS:         fs,
				Extensions: extensions,
			}, func(p string) {
				if _, err := run.lintFile(cmd.Context(), p); err != nil {
					logger.Error("lint failed", "path", p, "error", err)
				}
			})
			if err != nil {
				return err
			}
			defer watcher.Stop()
			if err := watcher.Start(cmd.Context(), path); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		}

		if failed {
			return errFindings
		}
		return nil
	},
}

// flagOptions turns explicitly set flags into invocation options, so unset
// flags don't clobber defaults from the config file.
func flagOptions(cmd *cobra.Command) map[string]any {
	opts := map[string]any{}
	set := func(flag, key string, value any) {
		if cmd.Flags().Changed(flag) {
			opts[key] = value
		}
	}
	set("fix", "fix", fix)
	set("quiet", "quiet", quiet)
	set("cache", "cache", cache)
	set("fail-on-error", "failOnError", failOnError)
	set("fail-on-warning", "failOnWarning", failOnWarning)
	return opts
}

// runner adapts the CLI to the bridge's host contract.
type runner struct {
	bridge     *lintbridge.Bridge
	fs         afero.Fs
	logger     *slog.Logger
	invocation map[string]any
	base       string

	warnColor *color.Color
	errColor  *color.Color
}

func newRunner(bridge *lintbridge.Bridge, fs afero.Fs, logger *slog.Logger, invocation map[string]any, base string) *runner {
	return &runner{
		bridge:     bridge,
		fs:         fs,
		logger:     logger,
		invocation: invocation,
		base:       base,
		warnColor:  color.New(color.FgYellow),
		errColor:   color.New(color.FgRed),
	}
}

// lintTree walks root and feeds every matching file through the bridge.
// It reports whether any invocation surfaced findings or aborted.
func (r *runner) lintTree(ctx context.Context, root string) (bool, error) {
	failed := false
	err := afero.Walk(r.fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), ".") && p != root {
				return filepath.SkipDir
			}
			if info.Name() == "node_modules" {
				return filepath.SkipDir
			}
			return nil
		}
		if !matchesExt(p) {
			return nil
		}

		found, err := r.lintFile(ctx, p)
		if err != nil {
			return err
		}
		if found {
			failed = true
		}
		return nil
	})
	return failed, err
}

// lintFile runs one file through the bridge. The returned bool reports
// findings (emitted or fatal); only infrastructure errors come back as err.
func (r *runner) lintFile(ctx context.Context, p string) (bool, error) {
	source, err := afero.ReadFile(r.fs, p)
	if err != nil {
		return false, err
	}

	abs := p
	if a, err := filepath.Abs(p); err == nil {
		abs = a
	}

	found := false
	host := &lintbridge.HostContext{
		ResourcePath: abs,
		RootContext:  r.base,
		Options:      r.invocation,
		EmitWarning: func(err error) {
			found = true
			fmt.Fprintln(os.Stderr, r.warnColor.Sprint(err.Error()))
		},
		EmitError: func(err error) {
			found = true
			fmt.Fprintln(os.Stderr, r.errColor.Sprint(err.Error()))
		},
		EmitFile: func(name string, data []byte) error {
			if dir := filepath.Dir(name); dir != "." {
				if err := r.fs.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			return afero.WriteFile(r.fs, name, data, 0o644)
		},
	}

	if err := r.bridge.Process(ctx, source, host); err != nil {
		var lintErr *lintbridge.ESLintError
		if errors.As(err, &lintErr) {
			fmt.Fprintln(os.Stderr, r.errColor.Sprint(lintErr.Message))
			return true, nil
		}
		return false, err
	}
	return found, nil
}

func matchesExt(p string) bool {
	ext := filepath.Ext(p)
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
