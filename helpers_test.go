package lintbridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeEngine is an in-process Engine used across the test suite.
type fakeEngine struct {
	mu         sync.Mutex
	calls      int
	lastPath   string
	lastRoot   string
	result     *LintResult
	err        error
	fixedRuns  int
	fixedPaths []string
}

func (e *fakeEngine) Lint(ctx context.Context, src []byte, virtualPath, rootDir string) (*LintResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls++
	e.lastPath = virtualPath
	e.lastRoot = rootDir
	if e.err != nil {
		return nil, e.err
	}
	// A real engine produces a fresh result per run; clone so callers can
	// mutate freely.
	return cloneResult(e.result), nil
}

func (e *fakeEngine) ApplyFixes(res *LintResult) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.fixedRuns++
	for _, f := range res.Results {
		e.fixedPaths = append(e.fixedPaths, f.FilePath)
	}
	return nil
}

func (e *fakeEngine) lintCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

type fakeProvider struct {
	name     string
	version  string
	engine   *fakeEngine
	verErr   error
	newErr   error
	newCount atomic.Int64
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Version() (string, error) { return p.version, p.verErr }

func (p *fakeProvider) New(cfg *EffectiveConfig) (Engine, error) {
	p.newCount.Add(1)
	if p.newErr != nil {
		return nil, p.newErr
	}
	return p.engine, nil
}

var providerSeq atomic.Int64

// registerFakeProvider registers a uniquely named provider and returns the
// name to use as the eslintPath selector.
func registerFakeProvider(t *testing.T, p *fakeProvider) string {
	t.Helper()

	p.name = fmt.Sprintf("fake-engine-%d", providerSeq.Add(1))
	if p.version == "" {
		p.version = "9.0.0"
	}
	RegisterEngine(p)
	return p.name
}

func cloneResult(r *LintResult) *LintResult {
	data, err := json.Marshal(r)
	if err != nil {
		panic(err)
	}
	var c LintResult
	if err := json.Unmarshal(data, &c); err != nil {
		panic(err)
	}
	return &c
}

// sampleResult builds a one-file result with the given findings.
func sampleResult(errs, warns int) *LintResult {
	msgs := make([]Message, 0, errs+warns)
	for i := 0; i < errs; i++ {
		msgs = append(msgs, Message{
			RuleID:   "no-unused-vars",
			Severity: SeverityError,
			Message:  "'x' is defined but never used.",
			Line:     i + 1,
			Column:   1,
		})
	}
	for i := 0; i < warns; i++ {
		msgs = append(msgs, Message{
			RuleID:   "no-console",
			Severity: SeverityWarning,
			Message:  "Unexpected console statement.",
			Line:     errs + i + 1,
			Column:   3,
		})
	}
	return &LintResult{
		ErrorCount:   errs,
		WarningCount: warns,
		Results: []FileResult{{
			FilePath:     "src/a.js",
			Messages:     msgs,
			ErrorCount:   errs,
			WarningCount: warns,
		}},
	}
}

// ignoredFileResult mimics the engine's notice for an ignored file.
func ignoredFileResult() *LintResult {
	return &LintResult{
		WarningCount: 1,
		Results: []FileResult{{
			FilePath: "src/vendor.js",
			Messages: []Message{{
				Severity: SeverityWarning,
				Message:  "File ignored because of a matching ignore pattern. Use \"--no-ignore\" to override.",
			}},
			WarningCount: 1,
		}},
	}
}

// fakeSink records the policy engine's side effects.
type fakeSink struct {
	warnOK    bool
	errOK     bool
	artifacts map[string][]byte
	fixCalls  int
	fixErr    error
}

func newFakeSink() *fakeSink {
	return &fakeSink{warnOK: true, errOK: true, artifacts: map[string][]byte{}}
}

func (s *fakeSink) EmitArtifact(path string, data []byte) error {
	s.artifacts[path] = data
	return nil
}

func (s *fakeSink) ApplyFixes(res *LintResult) error {
	s.fixCalls++
	return s.fixErr
}

func (s *fakeSink) SupportsWarnings() bool { return s.warnOK }
func (s *fakeSink) SupportsErrors() bool   { return s.errOK }
