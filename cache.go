package lintbridge

import (
	"context"
	"encoding/json"

	"github.com/gophersatwork/granular"
	"github.com/spf13/afero"
)

// CacheEncoder defines the encoding format for cached lint results.
type CacheEncoder int

const (
	// EncoderJSON uses JSON encoding (slower but human-readable)
	EncoderJSON CacheEncoder = iota
	// EncoderMUS uses MUS encoding (faster, more compact, binary)
	EncoderMUS
)

// ResultCacheConfig holds configuration for the result cache.
type ResultCacheConfig struct {
	Location string
	Encoder  CacheEncoder
	Fs       afero.Fs
}

// ResultCache is the content-addressed gateway in front of the lint
// invoker. Keys derive from (source content, configuration identifier);
// a given pair always maps to the same lint outcome, so entries are
// effectively immutable once written and never explicitly invalidated
// here. Eviction belongs to the underlying store.
type ResultCache struct {
	gCache  *granular.Cache
	encoder CacheEncoder
}

// NewResultCache opens (or creates) the cache at the given location.
func NewResultCache(cfg ResultCacheConfig) (*ResultCache, error) {
	opts := []granular.Option{}
	if cfg.Fs != nil {
		opts = append(opts, granular.WithFs(cfg.Fs))
	}

	cache, err := granular.New(cfg.Location, opts...)
	if err != nil {
		return nil, NewCacheError("failed to open result cache", err)
	}

	return &ResultCache{gCache: cache, encoder: cfg.Encoder}, nil
}

// cacheKey builds a content-addressed key over the configuration identifier
// and the source bytes. The keyed bytes live on a throwaway in-memory fs so
// the store hashes the invocation's content, not whatever is on disk at the
// resource path.
func cacheKey(content []byte, identifier string) (granular.Key, error) {
	mem := afero.NewMemMapFs()

	payload := make([]byte, 0, len(identifier)+1+len(content))
	payload = append(payload, identifier...)
	payload = append(payload, 0)
	payload = append(payload, content...)

	if err := afero.WriteFile(mem, "entry", payload, 0o644); err != nil {
		return granular.Key{}, err
	}

	return granular.Key{
		Inputs: []granular.Input{granular.FileInput{
			Path: "entry",
			Fs:   mem,
		}},
	}, nil
}

// Fetch returns the stored result for (content, identifier) if present;
// otherwise it invokes compute, stores the result, and returns it. Storage
// and decode failures propagate rather than falling back to recomputation:
// caching is correctness-neutral but its failure is not silently swallowed.
// A compute failure propagates unchanged and caches nothing.
func (c *ResultCache) Fetch(ctx context.Context, content []byte, identifier string, compute func() (*LintResult, error)) (*LintResult, error) {
	key, err := cacheKey(content, identifier)
	if err != nil {
		return nil, NewCacheError("failed to derive cache key", err)
	}

	stored, found, err := c.gCache.Get(key)
	if err != nil {
		return nil, NewCacheError("failed to read result cache", err)
	}
	if found {
		if encoded, ok := stored.Metadata["result"]; ok {
			res, err := c.decodeResult(encoded)
			if err != nil {
				return nil, NewCacheError("cached result is invalid", err)
			}
			return res, nil
		}
		// Entry without a payload is malformed; recompute and overwrite.
	}

	res, err := compute()
	if err != nil {
		return nil, err
	}

	encoded, err := c.encodeResult(res)
	if err != nil {
		return nil, NewCacheError("failed to encode result", err)
	}

	entry := granular.Result{
		Metadata: map[string]string{"result": encoded},
	}
	if err := c.gCache.Store(key, entry); err != nil {
		return nil, NewCacheError("failed to store result", err)
	}

	return res, nil
}

func (c *ResultCache) encodeResult(res *LintResult) (string, error) {
	switch c.encoder {
	case EncoderMUS:
		data, err := marshalLintResult(res)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		data, err := json.Marshal(res)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}

func (c *ResultCache) decodeResult(data string) (*LintResult, error) {
	switch c.encoder {
	case EncoderMUS:
		return unmarshalLintResult([]byte(data))
	default:
		var res LintResult
		if err := json.Unmarshal([]byte(data), &res); err != nil {
			return nil, err
		}
		return &res, nil
	}
}
