package lintbridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/mod/semver"
)

// Engine is the narrow capability interface the bridge needs from a linter
// implementation: analyze a text buffer under a virtual path, and persist
// fix output back to disk. Concrete implementations are resolved from the
// eslintPath selector at configuration-merge time.
type Engine interface {
	// Lint analyzes src as if it lived at virtualPath, with auto-fix
	// information attached to the result. rootDir is the directory the
	// virtual path is relative to; engines that resolve paths (ignore
	// files, overrides) anchor there, or in the process cwd when empty.
	// Engine-internal failures propagate unchanged; there are no retries.
	Lint(ctx context.Context, src []byte, virtualPath, rootDir string) (*LintResult, error)

	// ApplyFixes writes the fixed output of each analyzed file back to
	// its real path.
	ApplyFixes(result *LintResult) error
}

// EngineProvider constructs engines for one linter implementation. Version
// is probed before any engine is built so the configuration merger can bake
// it into the cache identifier and fail fast on incompatible engines.
type EngineProvider interface {
	Name() string
	Version() (string, error)
	New(cfg *EffectiveConfig) (Engine, error)
}

var (
	providersMu sync.RWMutex
	providers   = make(map[string]EngineProvider)
)

// RegisterEngine makes a provider resolvable by name through the eslintPath
// option. Registering a duplicate name panics, mirroring database/sql.
func RegisterEngine(p EngineProvider) {
	providersMu.Lock()
	defer providersMu.Unlock()

	if _, dup := providers[p.Name()]; dup {
		panic(fmt.Sprintf("lintbridge: engine provider %q registered twice", p.Name()))
	}
	providers[p.Name()] = p
}

func lookupProvider(name string) (EngineProvider, bool) {
	providersMu.RLock()
	defer providersMu.RUnlock()

	p, ok := providers[name]
	return p, ok
}

// resolveProvider maps an eslintPath selector to a provider: a registered
// name wins, anything else is treated as the path of an ESLint executable.
// The probed version is gated against minEngineVersion.
func resolveProvider(selector string, fs afero.Fs, logger *slog.Logger) (EngineProvider, string, error) {
	provider, ok := lookupProvider(selector)
	if !ok {
		provider = execProviderFor(selector, fs, logger)
	}

	version, err := provider.Version()
	if err != nil {
		return nil, "", NewEngineError("failed to resolve engine version", err).
			WithDetails("Selector: " + selector + ". Check that the engine is installed and on PATH.")
	}

	v := version
	if len(v) == 0 || v[0] != 'v' {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return nil, "", NewEngineError("engine reported an invalid version", nil).
			WithDetails("Selector: " + selector + ", version: " + version)
	}
	if semver.Compare(v, minEngineVersion) < 0 {
		return nil, "", NewEngineError("engine version is not supported", nil).
			WithDetails(fmt.Sprintf("Selector: %s, version: %s, minimum: %s", selector, version, minEngineVersion))
	}

	return provider, version, nil
}
