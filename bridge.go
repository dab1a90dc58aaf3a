package lintbridge

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/afero"
)

// HostContext is the execution context one bundler invocation exposes to
// the bridge: the resource being built, the merged per-invocation options,
// and the host's diagnostic capabilities. Emitters are nil when the host
// lacks the corresponding channel.
type HostContext struct {
	// ResourcePath is the absolute path of the module being built.
	ResourcePath string
	// RootContext is the project base directory; when set, the resource
	// path is rewritten relative to it so ignore patterns match as if the
	// engine ran from the project root.
	RootContext string
	// Options are the per-invocation options, merged over the bridge's
	// host-level defaults.
	Options map[string]any

	EmitWarning func(err error)
	EmitError   func(err error)
	EmitFile    func(path string, data []byte) error
}

// Bridge wires one host process to the linter: it owns the host-level
// defaults, the shared engine registry, and the per-location result caches.
// A single Bridge serves many concurrent invocations.
type Bridge struct {
	defaults map[string]any
	registry *EngineRegistry
	fs       afero.Fs
	logger   *slog.Logger
	encoder  CacheEncoder

	mu     sync.Mutex
	caches map[string]*ResultCache
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithDefaults sets the host-level default options.
func WithDefaults(defaults map[string]any) BridgeOption {
	return func(b *Bridge) { b.defaults = defaults }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) BridgeOption {
	return func(b *Bridge) { b.logger = logger }
}

// WithFs sets the filesystem used for fix output and cache storage.
func WithFs(fs afero.Fs) BridgeOption {
	return func(b *Bridge) { b.fs = fs }
}

// WithCacheEncoder selects the encoding for cached results.
func WithCacheEncoder(enc CacheEncoder) BridgeOption {
	return func(b *Bridge) { b.encoder = enc }
}

// WithRegistry injects a shared engine registry, for hosts that spread
// invocations across multiple bridges.
func WithRegistry(r *EngineRegistry) BridgeOption {
	return func(b *Bridge) { b.registry = r }
}

// NewBridge creates a bridge with the given options.
func NewBridge(opts ...BridgeOption) *Bridge {
	b := &Bridge{
		registry: NewEngineRegistry(),
		fs:       afero.NewOsFs(),
		caches:   make(map[string]*ResultCache),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = ensureLogger(b.logger)
	return b
}

// ensureLogger creates a default logger if none is provided
func ensureLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))
	}
	return logger
}

// MergeConfig merges the bridge defaults with one invocation's options.
func (b *Bridge) MergeConfig(invocation map[string]any) (*EffectiveConfig, error) {
	return Merge(b.defaults, invocation, b.fs, b.logger)
}

func (b *Bridge) resultCache(location string) (*ResultCache, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if rc, ok := b.caches[location]; ok {
		return rc, nil
	}
	rc, err := NewResultCache(ResultCacheConfig{
		Location: location,
		Encoder:  b.encoder,
		Fs:       b.fs,
	})
	if err != nil {
		return nil, err
	}
	b.caches[location] = rc
	return rc, nil
}

// hostSink adapts a HostContext and an Engine to the policy sink.
type hostSink struct {
	host   *HostContext
	engine Engine
}

func (s *hostSink) EmitArtifact(path string, data []byte) error {
	if s.host.EmitFile == nil {
		return NewHostError("host cannot emit build artifacts", nil)
	}
	return s.host.EmitFile(path, data)
}

func (s *hostSink) ApplyFixes(res *LintResult) error {
	// The engine reports the virtual (root-relative) path; fix output must
	// land at the resource's real location.
	for i := range res.Results {
		res.Results[i].FilePath = s.host.ResourcePath
	}
	return s.engine.ApplyFixes(res)
}

func (s *hostSink) SupportsWarnings() bool { return s.host.EmitWarning != nil }
func (s *hostSink) SupportsErrors() bool   { return s.host.EmitError != nil }

// Process runs one invocation end to end: merge configuration, obtain the
// engine for it, lint (through the cache when enabled), apply the output
// policy, and perform the host-facing effect. A nil return means the build
// continues with the source unchanged; a returned error aborts the current
// build step.
func (b *Bridge) Process(ctx context.Context, source []byte, host *HostContext) error {
	cfg, err := b.MergeConfig(host.Options)
	if err != nil {
		return err
	}

	engine, err := b.registry.GetOrCreate(cfg.Hash(), func() (Engine, error) {
		return cfg.provider.New(cfg)
	})
	if err != nil {
		return err
	}

	virtualPath := host.ResourcePath
	if host.RootContext != "" {
		virtualPath = RelativeTo(host.ResourcePath, host.RootContext)
	}

	var res *LintResult
	if cfg.Cache {
		rc, err := b.resultCache(cfg.CacheLocation)
		if err != nil {
			return err
		}
		res, err = rc.Fetch(ctx, source, cfg.CacheIdentifier, func() (*LintResult, error) {
			return engine.Lint(ctx, source, virtualPath, host.RootContext)
		})
		if err != nil {
			return err
		}
	} else {
		res, err = engine.Lint(ctx, source, virtualPath, host.RootContext)
		if err != nil {
			return err
		}
	}

	outcome, err := ApplyPolicy(res, cfg, host.ResourcePath, source, &hostSink{host: host, engine: engine})
	if err != nil {
		return err
	}

	b.logger.Debug("invocation complete",
		"path", host.ResourcePath,
		"outcome", outcome.Kind.String(),
		"errors", res.ErrorCount,
		"warnings", res.WarningCount)

	switch outcome.Kind {
	case OutcomeWarn:
		host.EmitWarning(NewESLintError(outcome.Message))
	case OutcomeError:
		host.EmitError(NewESLintError(outcome.Message))
	case OutcomeFail:
		return NewESLintError(outcome.Message)
	}
	return nil
}
