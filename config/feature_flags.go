package config

import (
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags switches optional parts of the export pipeline on and off.
// Every flag can be overridden with FEATURE_<NAME>=true|false.
type FeatureFlags struct {
	mu       sync.RWMutex
	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool
}

// Predefined feature flag names.
const (
	FeatureSourceCache       = "cache.source"          // Redis read-through cache for inputs
	FeatureBatchCache        = "cache.batch"           // Reuse batches built from identical inputs
	FeatureSourceBreaker     = "source.circuit_breaker" // Fail fast while the source is down
	FeatureAmbiguityWarnings = "journal.ambiguity_warnings"
	FeatureMigrateOnStart    = "postgres.migrate_on_start"
)

// LoadFeatureFlags returns the defaults with environment overrides applied.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{features: make(map[string]*Feature)}
	ff.initializeDefaults()
	ff.loadFromEnvironment()
	return ff
}

func (ff *FeatureFlags) initializeDefaults() {
	ff.register(FeatureSourceCache, "cache timetable, curriculum and calendar reads in Redis", true)
	ff.register(FeatureBatchCache, "return a cached batch when inputs did not change", true)
	ff.register(FeatureSourceBreaker, "open a circuit breaker after repeated source failures", true)
	ff.register(FeatureAmbiguityWarnings, "log a warning for overlapping curriculum rows", true)
	ff.register(FeatureMigrateOnStart, "apply database migrations before reading", false)
}

func (ff *FeatureFlags) register(name, description string, enabled bool) {
	ff.features[name] = &Feature{Name: name, Description: description, Enabled: enabled}
}

// loadFromEnvironment applies FEATURE_<NAME> overrides.
// Example: FEATURE_CACHE_BATCH=false
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		if val := os.Getenv(featureNameToEnvKey(name)); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
			}
		}
	}
}

// featureNameToEnvKey converts a feature name to its environment variable key.
// "cache.batch" -> "FEATURE_CACHE_BATCH"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled reports whether a feature is on. Unknown features are off.
func (ff *FeatureFlags) IsEnabled(name string) bool {
	if ff == nil {
		return false
	}
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	f, ok := ff.features[name]
	return ok && f.Enabled
}

// Set switches a feature on or off.
func (ff *FeatureFlags) Set(name string, enabled bool) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	f, ok := ff.features[name]
	if !ok {
		return ErrFeatureNotFound
	}
	f.Enabled = enabled
	return nil
}

// GetAllFeatures returns a copy of all features sorted by name.
func (ff *FeatureFlags) GetAllFeatures() []Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make([]Feature, 0, len(ff.features))
	for _, f := range ff.features {
		result = append(result, *f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

var ErrFeatureNotFound = &FeatureFlagError{Message: "feature not found"}

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
