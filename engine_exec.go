package lintbridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os/exec"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// execProvider resolves an ESLint executable on the host system. It is the
// fallback for any eslintPath selector that is not a registered provider
// name, which keeps multiple installed ESLint versions selectable by path.
type execProvider struct {
	bin    string
	fs     afero.Fs
	logger *slog.Logger

	once    sync.Once
	version string
	verErr  error
}

var (
	execProvidersMu sync.Mutex
	execProviders   = make(map[string]*execProvider)
)

// execProviderFor memoizes providers per binary path. The version probe sits
// behind a sync.Once on the provider, so reusing the instance is what keeps
// the probe at one subprocess per binary instead of one per invocation.
func execProviderFor(bin string, fs afero.Fs, logger *slog.Logger) *execProvider {
	execProvidersMu.Lock()
	defer execProvidersMu.Unlock()

	if p, ok := execProviders[bin]; ok {
		return p
	}
	p := &execProvider{bin: bin, fs: fs, logger: ensureLogger(logger)}
	execProviders[bin] = p
	return p
}

func (p *execProvider) Name() string { return p.bin }

// Version probes the executable once; later calls reuse the result.
func (p *execProvider) Version() (string, error) {
	p.once.Do(func() {
		out, err := exec.Command(p.bin, "--version").Output()
		if err != nil {
			p.verErr = err
			return
		}
		p.version = strings.TrimPrefix(strings.TrimSpace(string(out)), "v")
	})
	return p.version, p.verErr
}

func (p *execProvider) New(cfg *EffectiveConfig) (Engine, error) {
	return &ExecEngine{
		bin:    p.bin,
		fix:    cfg.Fix,
		fs:     p.fs,
		logger: p.logger,
	}, nil
}

// ExecEngine runs the ESLint executable per invocation, feeding the source
// over stdin so the engine analyzes the bundler's buffer rather than
// whatever is on disk. The virtual path makes ignore files and overrides
// resolve as if the file were linted in place.
type ExecEngine struct {
	bin    string
	fix    bool
	fs     afero.Fs
	logger *slog.Logger
}

func (e *ExecEngine) Lint(ctx context.Context, src []byte, virtualPath, rootDir string) (*LintResult, error) {
	args := []string{"--format", "json", "--stdin", "--stdin-filename", virtualPath}
	if e.fix {
		// Dry-run keeps the engine from writing; fix output lands in the
		// result and is persisted by ApplyFixes under policy control.
		args = append(args, "--fix-dry-run")
	}

	cmd := exec.CommandContext(ctx, e.bin, args...)
	// The engine resolves the relative --stdin-filename against its cwd;
	// anchoring at the project root keeps ignore files and overrides
	// matching no matter where the host process was started.
	cmd.Dir = rootDir
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// Exit status 1 just means findings; the JSON on stdout is valid.
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
			return nil, NewLintError("engine execution failed", err).
				WithFile(virtualPath).
				WithDetails(strings.TrimSpace(stderr.String()))
		}
	}

	var files []FileResult
	if err := json.Unmarshal(stdout.Bytes(), &files); err != nil {
		return nil, NewLintError("failed to decode engine output", err).WithFile(virtualPath)
	}

	e.logger.Debug("engine run complete", "path", virtualPath, "files", len(files))

	return NewLintResult(files), nil
}

// ApplyFixes writes each file's fixed output back to its real path.
func (e *ExecEngine) ApplyFixes(res *LintResult) error {
	for _, f := range res.Results {
		if f.Output == "" {
			continue
		}
		if err := afero.WriteFile(e.fs, f.FilePath, []byte(f.Output), 0o644); err != nil {
			return NewLintError("failed to write fix output", err).WithFile(f.FilePath)
		}
	}
	return nil
}
