package lintbridge

import (
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, encoder CacheEncoder) *ResultCache {
	t.Helper()

	rc, err := NewResultCache(ResultCacheConfig{
		Location: "cache-dir",
		Encoder:  encoder,
		Fs:       afero.NewMemMapFs(),
	})
	require.NoError(t, err)
	return rc
}

func TestResultCacheMissThenHit(t *testing.T) {
	rc := newTestCache(t, EncoderJSON)
	expected := sampleResult(1, 2)
	content := []byte("const x = 1\n")
	computeCalls := 0
	compute := func() (*LintResult, error) {
		computeCalls++
		return cloneResult(expected), nil
	}

	first, err := rc.Fetch(context.Background(), content, "id-1", compute)
	require.NoError(t, err)
	assert.Equal(t, expected, first)
	assert.Equal(t, 1, computeCalls)

	second, err := rc.Fetch(context.Background(), content, "id-1", compute)
	require.NoError(t, err)
	assert.Equal(t, expected, second, "hit is deep-equal to what the invoker produced")
	assert.Equal(t, 1, computeCalls, "hit must not invoke the linter again")
}

func TestResultCacheKeyedByIdentifier(t *testing.T) {
	rc := newTestCache(t, EncoderJSON)
	content := []byte("const x = 1\n")
	computeCalls := 0
	compute := func() (*LintResult, error) {
		computeCalls++
		return sampleResult(0, 0), nil
	}

	_, err := rc.Fetch(context.Background(), content, "eslint=8", compute)
	require.NoError(t, err)
	_, err = rc.Fetch(context.Background(), content, "eslint=9", compute)
	require.NoError(t, err)

	assert.Equal(t, 2, computeCalls, "an identifier change invalidates old entries")
}

func TestResultCacheKeyedByContent(t *testing.T) {
	rc := newTestCache(t, EncoderJSON)
	computeCalls := 0
	compute := func() (*LintResult, error) {
		computeCalls++
		return sampleResult(0, 0), nil
	}

	_, err := rc.Fetch(context.Background(), []byte("a"), "id", compute)
	require.NoError(t, err)
	_, err = rc.Fetch(context.Background(), []byte("b"), "id", compute)
	require.NoError(t, err)

	assert.Equal(t, 2, computeCalls)
}

func TestResultCacheComputeErrorNotStored(t *testing.T) {
	rc := newTestCache(t, EncoderJSON)
	content := []byte("const x = 1\n")
	boom := errors.New("rule crashed")
	computeCalls := 0

	_, err := rc.Fetch(context.Background(), content, "id", func() (*LintResult, error) {
		computeCalls++
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	res, err := rc.Fetch(context.Background(), content, "id", func() (*LintResult, error) {
		computeCalls++
		return sampleResult(0, 0), nil
	})
	require.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, 2, computeCalls, "a failed compute caches nothing")
}

func TestResultCacheMusEncoder(t *testing.T) {
	rc := newTestCache(t, EncoderMUS)
	expected := sampleResult(1, 1)
	expected.Results[0].Messages[0].Fix = &Fix{Range: [2]int{10, 14}, Text: "let"}
	expected.Results[0].Output = "let x = 1\n"
	content := []byte("var x = 1\n")
	computeCalls := 0
	compute := func() (*LintResult, error) {
		computeCalls++
		return cloneResult(expected), nil
	}

	_, err := rc.Fetch(context.Background(), content, "id", compute)
	require.NoError(t, err)

	hit, err := rc.Fetch(context.Background(), content, "id", compute)
	require.NoError(t, err)
	assert.Equal(t, expected, hit)
	assert.Equal(t, 1, computeCalls)
}
