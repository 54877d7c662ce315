package pass1

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"autopsy/internal/artifact"
	"autopsy/internal/logging"
	"autopsy/internal/overview"
	"autopsy/internal/registry"
)

// Cache wraps the engine with config-keyed memoization. The key is a pure
// function of (measurement id, overview config, detection config); repeated
// identical calls replay the persisted result verbatim.
type Cache struct {
	store *artifact.Store
	reg   *registry.Registry
}

// NewCache returns a result cache over the given artifact store and registry.
func NewCache(store *artifact.Store, reg *registry.Registry) *Cache {
	return &Cache{store: store, reg: reg}
}

// Key computes the result cache key for a scan configuration.
func (c *Cache) Key(measurementID string, ovCfg overview.Config, cfg Config) (string, error) {
	return artifact.ConfigKey(map[string]any{
		"measurement_id": measurementID,
		"overview":       ovCfg.WithDefaults(),
		"pass1":          cfg.WithDefaults(),
	})
}

// Run returns the first-pass result for the given configuration, building
// the overview and running the engine on a miss, replaying the persisted
// artifact on a hit. The persisted artifact is published atomically, so a
// partially written result is never visible as a hit.
func (c *Cache) Run(measurementID string, ovCfg overview.Config, cfg Config) (*Result, error) {
	ovCfg = ovCfg.WithDefaults()
	cfg = cfg.WithDefaults()
	if err := ovCfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	key, err := c.Key(measurementID, ovCfg, cfg)
	if err != nil {
		return nil, err
	}
	path, err := c.store.CachePath(measurementID, "pass1", key, ".json")
	if err != nil {
		return nil, err
	}
	logger := logging.New("pass1-cache")

	if artifact.Exists(path) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read cached result: %w", err)
		}
		var res Result
		if err := json.Unmarshal(data, &res); err != nil {
			return nil, fmt.Errorf("decode cached result %s: %w", path, err)
		}
		res.CacheHit = true
		logger.Debug("cache hit", "id", measurementID, "key", key)
		return &res, nil
	}

	bres, err := overview.Build(c.reg, c.store, measurementID, ovCfg)
	if err != nil {
		return nil, err
	}
	tbl, err := overview.Load(c.store, measurementID, bres.Key)
	if err != nil {
		return nil, err
	}

	res, err := Run(tbl, measurementID, ovCfg, cfg, key)
	if err != nil {
		return nil, err
	}
	res.CreatedAtUnix = float64(time.Now().UnixNano()) / 1e9

	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	if err := artifact.WriteAtomic(path, data); err != nil {
		return nil, err
	}
	logger.Info("scan persisted", "id", measurementID, "key", key, "windows", len(res.Windows))
	return res, nil
}

// Load reads a persisted result by key. Absent results are NotFound.
func (c *Cache) Load(measurementID, key string) (*Result, error) {
	path, err := c.store.CachePath(measurementID, "pass1", key, ".json")
	if err != nil {
		return nil, err
	}
	if !artifact.Exists(path) {
		return nil, fmt.Errorf("%w: pass1 %s/%s", artifact.ErrNotFound, measurementID, key)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", path, err)
	}
	return &res, nil
}
