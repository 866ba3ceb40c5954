package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles for the rank engine.
// Flags can be flipped per deployment via environment variables and
// rolled out gradually per community: a community is inside the rollout
// when the hash of its ID falls under the rollout percentage.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	communityOverrides map[string]map[string]bool // communityID -> feature -> enabled
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100).
	// Communities are assigned based on hash of their ID.
	RolloutPercent int
}

// Predefined feature flag names.
const (
	// FeatureLeaderboardCache toggles the Redis leaderboard cache.
	FeatureLeaderboardCache = "leaderboard.cache"

	// FeatureEventPublishing toggles domain event publishing.
	FeatureEventPublishing = "events.publish"

	// FeatureEventAsync toggles async handler execution on the event bus.
	FeatureEventAsync = "events.async"

	// FeatureStatsQuery toggles the community stats aggregation query.
	FeatureStatsQuery = "query.stats"
)

// defaultFeatures returns the built-in feature set.
func defaultFeatures() map[string]*Feature {
	return map[string]*Feature{
		FeatureLeaderboardCache: {
			Name:           FeatureLeaderboardCache,
			Description:    "Cache built leaderboards in Redis",
			Enabled:        true,
			RolloutPercent: 100,
		},
		FeatureEventPublishing: {
			Name:           FeatureEventPublishing,
			Description:    "Publish domain events after mutations",
			Enabled:        true,
			RolloutPercent: 100,
		},
		FeatureEventAsync: {
			Name:           FeatureEventAsync,
			Description:    "Run event handlers asynchronously",
			Enabled:        true,
			RolloutPercent: 100,
		},
		FeatureStatsQuery: {
			Name:           FeatureStatsQuery,
			Description:    "Expose community stats aggregation",
			Enabled:        true,
			RolloutPercent: 100,
		},
	}
}

// LoadFeatureFlags builds the flag set from defaults plus environment
// overrides. FEATURE_<NAME>=true/false flips a flag, where <NAME> is the
// flag name uppercased with dots replaced by underscores:
// FEATURE_LEADERBOARD_CACHE=false.
func LoadFeatureFlags() *FeatureFlags {
	flags := &FeatureFlags{
		features:           defaultFeatures(),
		communityOverrides: make(map[string]map[string]bool),
	}

	for name, feature := range flags.features {
		envKey := "FEATURE_" + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))
		if val := os.Getenv(envKey); val != "" {
			if enabled, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = enabled
			}
		}
		if val := os.Getenv(envKey + "_ROLLOUT"); val != "" {
			if percent, err := strconv.Atoi(val); err == nil && percent >= 0 && percent <= 100 {
				feature.RolloutPercent = percent
			}
		}
	}

	return flags
}

// IsEnabled reports whether a feature is globally enabled.
func (f *FeatureFlags) IsEnabled(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	feature, ok := f.features[name]
	return ok && feature.Enabled
}

// IsEnabledFor reports whether a feature is enabled for a community,
// honoring overrides and the rollout percentage.
func (f *FeatureFlags) IsEnabledFor(name, communityID string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if overrides, ok := f.communityOverrides[communityID]; ok {
		if enabled, ok := overrides[name]; ok {
			return enabled
		}
	}

	feature, ok := f.features[name]
	if !ok || !feature.Enabled {
		return false
	}

	if feature.RolloutPercent >= 100 {
		return true
	}
	if feature.RolloutPercent <= 0 {
		return false
	}

	return bucketOf(communityID) < feature.RolloutPercent
}

// SetOverride forces a feature on or off for one community.
func (f *FeatureFlags) SetOverride(communityID, name string, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.communityOverrides[communityID] == nil {
		f.communityOverrides[communityID] = make(map[string]bool)
	}
	f.communityOverrides[communityID][name] = enabled
}

// ClearOverrides removes all overrides for a community.
func (f *FeatureFlags) ClearOverrides(communityID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.communityOverrides, communityID)
}

// SetEnabled flips a feature globally at runtime.
func (f *FeatureFlags) SetEnabled(name string, enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if feature, ok := f.features[name]; ok {
		feature.Enabled = enabled
	}
}

// bucketOf maps a community ID to a stable bucket in [0, 100).
func bucketOf(communityID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(communityID))
	return int(h.Sum32() % 100)
}
