package lintbridge

import (
	"errors"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func policyConfig(t *testing.T, opts map[string]any) *EffectiveConfig {
	t.Helper()

	selector := registerFakeProvider(t, &fakeProvider{engine: &fakeEngine{result: sampleResult(0, 0)}})
	if opts == nil {
		opts = map[string]any{}
	}
	opts["eslintPath"] = selector

	cfg, err := Merge(nil, opts, afero.NewMemMapFs(), nil)
	require.NoError(t, err)
	return cfg
}

func TestPolicyQuietMode(t *testing.T) {
	cfg := policyConfig(t, map[string]any{"quiet": true})
	res := sampleResult(0, 3)

	outcome, err := ApplyPolicy(res, cfg, "/proj/src/a.js", nil, newFakeSink())
	require.NoError(t, err)

	assert.Equal(t, OutcomeContinue, outcome.Kind)
	assert.Equal(t, 0, res.WarningCount)
	for _, f := range res.Results {
		assert.Equal(t, 0, f.WarningCount)
		for _, m := range f.Messages {
			assert.NotEqual(t, SeverityWarning, m.Severity)
		}
	}
}

func TestPolicyQuietKeepsErrors(t *testing.T) {
	cfg := policyConfig(t, map[string]any{"quiet": true})
	res := sampleResult(2, 1)

	outcome, err := ApplyPolicy(res, cfg, "/proj/src/a.js", nil, newFakeSink())
	require.NoError(t, err)

	assert.Equal(t, OutcomeError, outcome.Kind)
	assert.Equal(t, 2, res.ErrorCount)
	assert.Equal(t, 0, res.WarningCount)
}

func TestPolicyIgnoreSuppression(t *testing.T) {
	// Unconditional: not even failOnWarning turns the ignore notice into a
	// finding.
	cfg := policyConfig(t, map[string]any{"failOnWarning": true})
	res := ignoredFileResult()

	outcome, err := ApplyPolicy(res, cfg, "/proj/src/vendor.js", nil, newFakeSink())
	require.NoError(t, err)

	assert.Equal(t, OutcomeContinue, outcome.Kind)
}

func TestPolicyFailEscalation(t *testing.T) {
	cfg := policyConfig(t, map[string]any{"failOnError": true, "emitWarning": true})
	res := sampleResult(1, 0)

	outcome, err := ApplyPolicy(res, cfg, "/proj/src/a.js", nil, newFakeSink())
	require.NoError(t, err)

	assert.Equal(t, OutcomeFail, outcome.Kind)
	assert.NotEmpty(t, outcome.Message)
}

func TestPolicyFailOnWarning(t *testing.T) {
	cfg := policyConfig(t, map[string]any{"failOnWarning": true})
	res := sampleResult(0, 1)

	outcome, err := ApplyPolicy(res, cfg, "/proj/src/a.js", nil, newFakeSink())
	require.NoError(t, err)

	assert.Equal(t, OutcomeFail, outcome.Kind)
}

func TestPolicyForcedErrorChannel(t *testing.T) {
	cfg := policyConfig(t, map[string]any{"emitError": true})
	res := sampleResult(0, 2)

	outcome, err := ApplyPolicy(res, cfg, "/proj/src/a.js", nil, newFakeSink())
	require.NoError(t, err)

	assert.Equal(t, OutcomeError, outcome.Kind)
}

func TestPolicyForcedWarningChannel(t *testing.T) {
	cfg := policyConfig(t, map[string]any{"emitWarning": true})
	res := sampleResult(1, 0)

	outcome, err := ApplyPolicy(res, cfg, "/proj/src/a.js", nil, newFakeSink())
	require.NoError(t, err)

	assert.Equal(t, OutcomeWarn, outcome.Kind)
}

func TestPolicyDefaultChannels(t *testing.T) {
	cfg := policyConfig(t, nil)

	outcome, err := ApplyPolicy(sampleResult(1, 1), cfg, "/proj/src/a.js", nil, newFakeSink())
	require.NoError(t, err)
	assert.Equal(t, OutcomeError, outcome.Kind, "errors pick the error channel")

	outcome, err = ApplyPolicy(sampleResult(0, 2), cfg, "/proj/src/a.js", nil, newFakeSink())
	require.NoError(t, err)
	assert.Equal(t, OutcomeWarn, outcome.Kind, "warnings alone pick the warning channel")
}

func TestPolicyCleanResultContinues(t *testing.T) {
	cfg := policyConfig(t, nil)

	outcome, err := ApplyPolicy(sampleResult(0, 0), cfg, "/proj/src/a.js", nil, newFakeSink())
	require.NoError(t, err)
	assert.Equal(t, OutcomeContinue, outcome.Kind)
}

func TestPolicyHostMissingChannel(t *testing.T) {
	cfg := policyConfig(t, nil)
	sink := newFakeSink()
	sink.errOK = false

	outcome, err := ApplyPolicy(sampleResult(1, 0), cfg, "/proj/src/a.js", nil, sink)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFail, outcome.Kind)
	assert.Equal(t, hostTooOldMessage, outcome.Message)
}

func TestPolicyStampsResourcePath(t *testing.T) {
	cfg := policyConfig(t, nil)
	res := sampleResult(1, 0)

	_, err := ApplyPolicy(res, cfg, "/proj/src/a.js", nil, newFakeSink())
	require.NoError(t, err)

	for _, f := range res.Results {
		assert.Equal(t, "/proj/src/a.js", f.FilePath)
	}
}

func TestPolicyReportArtifact(t *testing.T) {
	cfg := policyConfig(t, map[string]any{
		"outputReport": map[string]any{
			"filePath": "reports/[name]-[contenthash].txt",
		},
	})
	res := sampleResult(0, 1)
	res.Results[0].Source = "console.log('hi')\n"
	sink := newFakeSink()

	outcome, err := ApplyPolicy(res, cfg, "/proj/src/a.js", nil, sink)
	require.NoError(t, err)

	assert.Equal(t, OutcomeWarn, outcome.Kind, "report emission is independent of the main outcome")
	require.Len(t, sink.artifacts, 1)
	for target, body := range sink.artifacts {
		assert.True(t, strings.HasPrefix(target, "reports/a-"), "got %q", target)
		assert.True(t, strings.HasSuffix(target, ".txt"), "got %q", target)
		assert.NotContains(t, target, "[contenthash]")
		assert.NotEmpty(t, body)
	}
}

func TestPolicyReportFormatterOverride(t *testing.T) {
	cfg := policyConfig(t, map[string]any{
		"outputReport": map[string]any{
			"filePath":  "reports/lint.json",
			"formatter": "json",
		},
	})
	sink := newFakeSink()

	_, err := ApplyPolicy(sampleResult(1, 0), cfg, "/proj/src/a.js", nil, sink)
	require.NoError(t, err)

	body, ok := sink.artifacts["reports/lint.json"]
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(string(body), "["), "json formatter emits the result array")
}

func TestPolicyAppliesFixes(t *testing.T) {
	cfg := policyConfig(t, map[string]any{"fix": true})
	res := sampleResult(0, 1)
	res.Results[0].Output = "const x = 1\n"
	sink := newFakeSink()

	outcome, err := ApplyPolicy(res, cfg, "/proj/src/a.js", nil, sink)
	require.NoError(t, err)

	assert.Equal(t, 1, sink.fixCalls)
	assert.Equal(t, OutcomeWarn, outcome.Kind)
}

func TestPolicyFixWithoutOutput(t *testing.T) {
	cfg := policyConfig(t, map[string]any{"fix": true})
	sink := newFakeSink()

	_, err := ApplyPolicy(sampleResult(0, 1), cfg, "/proj/src/a.js", nil, sink)
	require.NoError(t, err)

	assert.Equal(t, 0, sink.fixCalls)
}

func TestPolicyFixErrorIsFatal(t *testing.T) {
	cfg := policyConfig(t, map[string]any{"fix": true})
	res := sampleResult(0, 1)
	res.Results[0].Output = "fixed\n"
	sink := newFakeSink()
	sink.fixErr = errors.New("disk full")

	_, err := ApplyPolicy(res, cfg, "/proj/src/a.js", nil, sink)
	require.ErrorIs(t, err, sink.fixErr)
}
