package lintbridge

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// OutcomeKind is the four-way decision handed back to the host shim.
type OutcomeKind int

const (
	// OutcomeContinue means the result is clean, nothing to signal.
	OutcomeContinue OutcomeKind = iota
	// OutcomeWarn means the message goes to the host's warning channel.
	OutcomeWarn
	// OutcomeError means the message goes to the host's error channel.
	OutcomeError
	// OutcomeFail means the current build step must abort.
	OutcomeFail
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeContinue:
		return "continue"
	case OutcomeWarn:
		return "warn"
	case OutcomeError:
		return "error"
	case OutcomeFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Outcome carries the decision and, for everything but Continue, the
// formatted message.
type Outcome struct {
	Kind    OutcomeKind
	Message string
}

// PolicySink is the slice of host capability the policy engine needs for
// its side effects. Keeping the engine behind this interface keeps it free
// of host-specific signaling and unit-testable.
type PolicySink interface {
	// EmitArtifact publishes a build artifact at the given path.
	EmitArtifact(path string, data []byte) error
	// ApplyFixes persists the engine's fix output to disk.
	ApplyFixes(res *LintResult) error
	// SupportsWarnings reports whether the host has a warning channel.
	SupportsWarnings() bool
	// SupportsErrors reports whether the host has an error channel.
	SupportsErrors() bool
}

const hostTooOldMessage = "host does not support non-fatal diagnostics"

// suppressedIgnoreNotice detects the engine's "file ignored because of a
// matching ignore pattern" notice: exactly one warning, no errors, a single
// message whose text mentions "ignore". The substring match is brittle and
// format-dependent, but it is what hosts depend on; keep it exact, don't
// extend it.
func suppressedIgnoreNotice(res *LintResult) bool {
	if res.WarningCount != 1 || res.ErrorCount != 0 || res.MessageCount() != 1 {
		return false
	}
	for _, f := range res.Results {
		for _, m := range f.Messages {
			return strings.Contains(m.Message, "ignore")
		}
	}
	return false
}

// dropWarnings removes every warning-severity message and zeroes warning
// counts at both the aggregate and per-file level. Errors are untouched.
func dropWarnings(res *LintResult) {
	for i := range res.Results {
		f := &res.Results[i]
		kept := make([]Message, 0, len(f.Messages))
		for _, m := range f.Messages {
			if m.Severity != SeverityWarning {
				kept = append(kept, m)
			}
		}
		f.Messages = kept
		f.WarningCount = 0
	}
	res.WarningCount = 0
}

// ApplyPolicy consumes a lint result and the effective configuration and
// decides the bundler-facing effect. It mutates res locally (quiet
// filtering, resource-path stamping); the mutation is never written back to
// the cache. Side-effect failures (fix writing, artifact emission,
// formatting) are fatal and returned as errors; everything else comes back
// as an Outcome.
func ApplyPolicy(res *LintResult, cfg *EffectiveConfig, resourcePath string, source []byte, sink PolicySink) (Outcome, error) {
	if suppressedIgnoreNotice(res) {
		return Outcome{Kind: OutcomeContinue}, nil
	}

	if cfg.Quiet && res.WarningCount > 0 {
		dropWarnings(res)
	}

	// Fix output is written outside the bundler's normal output pipeline.
	if cfg.Fix && len(res.Results) > 0 && res.Results[0].Output != "" {
		if err := sink.ApplyFixes(res); err != nil {
			return Outcome{}, err
		}
	}

	if res.Clean() {
		return Outcome{Kind: OutcomeContinue}, nil
	}

	// Stamp the module's resource path so the formatter reports the path
	// the bundler knows, not the engine's virtual one.
	for i := range res.Results {
		res.Results[i].FilePath = resourcePath
	}

	formatted, err := cfg.ResultFormatter().Format(res)
	if err != nil {
		return Outcome{}, NewConfigError("formatter failed", err)
	}
	message := string(formatted)

	if cfg.OutputReport.FilePath != "" {
		body := formatted
		if cfg.reportFormatter != nil {
			body, err = cfg.reportFormatter.Format(res)
			if err != nil {
				return Outcome{}, NewConfigError("report formatter failed", err)
			}
		}

		content := res.combinedSource()
		if content == "" {
			content = string(source)
		}
		target := interpolateReportPath(cfg.OutputReport.FilePath, resourcePath, []byte(content))
		if err := sink.EmitArtifact(target, body); err != nil {
			return Outcome{}, NewHostError("failed to emit report artifact", err).WithFile(target)
		}
	}

	// Default channel follows the counts; emitError/emitWarning force it.
	useErrorChannel := res.ErrorCount > 0
	switch {
	case cfg.EmitError:
		useErrorChannel = true
	case cfg.EmitWarning:
		useErrorChannel = false
	}

	if (cfg.FailOnError && res.ErrorCount > 0) || (cfg.FailOnWarning && res.WarningCount > 0) {
		return Outcome{Kind: OutcomeFail, Message: message}, nil
	}

	if useErrorChannel {
		if !sink.SupportsErrors() {
			return Outcome{Kind: OutcomeFail, Message: hostTooOldMessage}, nil
		}
		return Outcome{Kind: OutcomeError, Message: message}, nil
	}

	if !sink.SupportsWarnings() {
		return Outcome{Kind: OutcomeFail, Message: hostTooOldMessage}, nil
	}
	return Outcome{Kind: OutcomeWarn, Message: message}, nil
}

// interpolateReportPath resolves template tokens in a report target path.
// [contenthash] and [hash] hash the analyzed source content; [name] is the
// resource file name without extension.
func interpolateReportPath(pattern, resourcePath string, content []byte) string {
	if strings.Contains(pattern, "[contenthash]") || strings.Contains(pattern, "[hash]") {
		sum := strconv.FormatUint(xxhash.Sum64(content), 16)
		pattern = strings.ReplaceAll(pattern, "[contenthash]", sum)
		pattern = strings.ReplaceAll(pattern, "[hash]", sum)
	}
	if strings.Contains(pattern, "[name]") {
		base := filepath.Base(resourcePath)
		name := strings.TrimSuffix(base, filepath.Ext(base))
		pattern = strings.ReplaceAll(pattern, "[name]", name)
	}
	return pattern
}
