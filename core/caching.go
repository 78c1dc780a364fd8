package core

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/huangsam/hydrocheck/internal/contract"
	"github.com/huangsam/hydrocheck/internal/loader"
	"github.com/huangsam/hydrocheck/schema"
	"github.com/klauspost/compress/zstd"
)

// currentCacheVersion defines the version of the cache payload
const currentCacheVersion = 1

// cacheTTL is how long a decoded series stays valid.
const cacheTTL = 7 * 24 * time.Hour

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// loadOptions maps the config to loader options.
func loadOptions(cfg *contract.Config) loader.Options {
	return loader.Options{
		Format:       cfg.Format,
		Compressed:   cfg.Compressed,
		SaveInterval: cfg.SaveInterval,
		Nodes:        cfg.NodeFilter,
	}
}

// cachedLoadNodeSet decodes the results file, reusing a cached decode when the
// file is unchanged. The node filter and save interval apply after the cache.
func cachedLoadNodeSet(cfg *contract.Config, mgr contract.CacheManager) (schema.NodeSet, error) {
	opts := loadOptions(cfg)
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetSeriesStore()
	}
	if store == nil {
		// Fallback to direct decoding
		return loader.Load(cfg.InputPath, opts)
	}

	key, err := generateCacheKey(cfg)
	if err != nil {
		return loader.Load(cfg.InputPath, opts)
	}

	set, ok := checkCacheHit(store, key)
	if !ok {
		set, err = computeAndStore(cfg, store, key)
		if err != nil {
			return schema.NodeSet{}, err
		}
	}
	return loader.Finalize(set, opts)
}

// checkCacheHit attempts to retrieve and validate a cached decode.
func checkCacheHit(store contract.CacheStore, key string) (schema.NodeSet, bool) {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return schema.NodeSet{}, false // Cache miss
	}
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheTTL {
		return schema.NodeSet{}, false // Stale or version mismatch
	}
	raw, err := zstdDecoder.DecodeAll(data, nil)
	if err != nil {
		return schema.NodeSet{}, false
	}
	var set schema.NodeSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return schema.NodeSet{}, false
	}
	return set, true
}

// computeAndStore decodes the whole file and stores it in the cache.
func computeAndStore(cfg *contract.Config, store contract.CacheStore, key string) (schema.NodeSet, error) {
	set, err := loader.Load(cfg.InputPath, loader.Options{Format: cfg.Format, Compressed: cfg.Compressed})
	if err != nil {
		return schema.NodeSet{}, err
	}
	if data, err := json.Marshal(set); err == nil {
		if err := store.Set(key, zstdEncoder.EncodeAll(data, nil), currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to cache decoded series", err)
		}
	}
	return set, nil
}

// generateCacheKey fingerprints the results file by path, size and modification time.
func generateCacheKey(cfg *contract.Config) (string, error) {
	abs, err := filepath.Abs(cfg.InputPath)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%s:%d:%d:%s:%t",
		abs,
		info.Size(),
		info.ModTime().UnixNano(),
		cfg.Format,
		cfg.Compressed,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key))), nil
}
