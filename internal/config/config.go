package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete retrieval-core configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Store   StoreConfig   `yaml:"store" json:"store"`
	Search  SearchConfig  `yaml:"search" json:"search"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	MMR     MMRConfig     `yaml:"mmr" json:"mmr"`
	Explore ExploreConfig `yaml:"exploration" json:"exploration"`
	Rerank  RerankConfig  `yaml:"rerank" json:"rerank"`
	Server  ServerConfig  `yaml:"server" json:"server"`
}

// StoreConfig configures the persistent store.
type StoreConfig struct {
	// Path is the SQLite database file for the active workspace.
	Path string `yaml:"path" json:"path"`
	// CacheSizeMB is the SQLite page cache size in MB. store.Open does not
	// read it; the store always sets a 64 MB page cache.
	CacheSizeMB int `yaml:"cache_size_mb" json:"cache_size_mb"`
	// BusyTimeoutMS is how long a writer waits on a lock before failing.
	// store.Open does not read it; the store always uses 5000 ms.
	BusyTimeoutMS int `yaml:"busy_timeout_ms" json:"busy_timeout_ms"`
}

// SearchConfig configures hybrid search parameters.
// The RRF constant and the fields below are configurable via (the
// intent weights are fixed in code and have no config fields):
// 1. User config (~/.config/retrieval-core/config.yaml) - personal defaults
// 2. Project config (.retrieval-core.yaml) - per-workspace tuning
// 3. Env vars (RETRIEVAL_CORE_RRF_CONSTANT,...) - highest precedence
type SearchConfig struct {
	// RRFConstant is the RRF fusion smoothing parameter (K). Default 60.
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`
	// DefaultLimit is the number of results returned to the caller when
	// SearchOptions.Limit is unset.
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
	// CriticalLatencyMS is the EMA threshold above which dense search is
	// bypassed (the "critical latency" escape hatch).
	CriticalLatencyMS float64 `yaml:"critical_latency_ms" json:"critical_latency_ms"`
	// DegradedLatencyMS is the EMA threshold above which retrievalLimit
	// shrinks to limit*3.
	DegradedLatencyMS float64 `yaml:"degraded_latency_ms" json:"degraded_latency_ms"`
}

// CacheConfig configures the two-layer query cache.
type CacheConfig struct {
	// ExactCapacity is the Layer 1 LRU capacity (default 100).
	ExactCapacity int `yaml:"exact_capacity" json:"exact_capacity"`
	// SemanticCapacity is loaded and validated but not passed to the
	// engine: both cache layers are sized by ExactCapacity (default 100).
	SemanticCapacity int `yaml:"semantic_capacity" json:"semantic_capacity"`
	// SemanticThreshold is the cosine-similarity hit threshold (default 0.95).
	SemanticThreshold float64 `yaml:"semantic_threshold" json:"semantic_threshold"`
}

// MMRConfig configures the adaptive MMR diversifier.
type MMRConfig struct {
	// Enabled toggles experimental-MMR mode.
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// ExploreConfig configures the exploration probe.
type ExploreConfig struct {
	// Enabled toggles the exploration probe.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// StabilityThreshold is the minimum stability for eligibility (default 0.6).
	StabilityThreshold float64 `yaml:"stability_threshold" json:"stability_threshold"`
	// TrustCeiling is the maximum trust_score for an unclicked candidate
	// (default 1.0).
	TrustCeiling float64 `yaml:"trust_ceiling" json:"trust_ceiling"`
	// SimilarityFloor is the minimum raw cosine similarity (default 0.65).
	SimilarityFloor float64 `yaml:"similarity_floor" json:"similarity_floor"`
}

// RerankConfig configures the optional cross-encoder reranking stage.
type RerankConfig struct {
	// Enabled toggles cross-encoder reranking.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Endpoint is the HTTP scoring backend URL.
	Endpoint string `yaml:"endpoint" json:"endpoint"`
	// Model is the reranker model's descriptor key, used to namespace its
	// persisted calibration statistics in workspace_metadata.
	Model string `yaml:"model" json:"model"`
	// Timeout bounds a single batch-scoring request.
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// CandidateCount is how many fused candidates are sent to the backend
	// (default 10).
	CandidateCount int `yaml:"candidate_count" json:"candidate_count"`
}

// ServerConfig configures ambient process behavior: logging and workspace
// discovery. No network transport is configured here; the core is a
// library and CLI, not a server.
type ServerConfig struct {
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Store: StoreConfig{
			Path:          defaultStorePath(),
			CacheSizeMB:   64,
			BusyTimeoutMS: 5000,
		},
		Search: SearchConfig{
			RRFConstant:       60,
			DefaultLimit:      10,
			CriticalLatencyMS: 4000,
			DegradedLatencyMS: 1500,
		},
		Cache: CacheConfig{
			ExactCapacity:     100,
			SemanticCapacity:  100,
			SemanticThreshold: 0.95,
		},
		MMR: MMRConfig{
			Enabled: false,
		},
		Explore: ExploreConfig{
			Enabled:            false,
			StabilityThreshold: 0.6,
			TrustCeiling:       1.0,
			SimilarityFloor:    0.65,
		},
		Rerank: RerankConfig{
			Enabled:        false,
			Endpoint:       "",
			Model:          "",
			Timeout:        5 * time.Second,
			CandidateCount: 10,
		},
		Server: ServerConfig{
			LogLevel: "info",
		},
	}
}

// defaultStorePath returns the default workspace database location.
func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".retrieval-core", "workspace.db")
	}
	return filepath.Join(home, ".retrieval-core", "workspace.db")
}

// GetUserConfigPath returns the path to the user/global configuration file,
// following XDG Base Directory conventions.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "retrieval-core", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "retrieval-core", "config.yaml")
	}
	return filepath.Join(home, ".config", "retrieval-core", "config.yaml")
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	return fileExists(GetUserConfigPath())
}

// loadUserConfig loads the user/global configuration file if present.
// Returns nil config and nil error if the file doesn't exist.
func loadUserConfig() (*Config, error) {
	configPath := GetUserConfigPath()
	if !fileExists(configPath) {
		return nil, nil
	}
	cfg := NewConfig()
	if err := cfg.loadYAML(configPath); err != nil {
		return nil, fmt.Errorf("failed to load user config from %s: %w", configPath, err)
	}
	return cfg, nil
}

// Load loads configuration from the specified directory, applying
// increasing precedence:
// 1. Hardcoded defaults
// 2. User/global config (~/.config/retrieval-core/config.yaml)
// 3. Project config (.retrieval-core.yaml in the workspace root)
// 4. Environment variables (RETRIEVAL_CORE_*)
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromFile loads .retrieval-core.yaml or .retrieval-core.yml from dir.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ".retrieval-core.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}
	ymlPath := filepath.Join(dir, ".retrieval-core.yml")
	if _, err := os.Stat(ymlPath); err == nil {
		return c.loadYAML(ymlPath)
	}
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}
	if other.Store.CacheSizeMB != 0 {
		c.Store.CacheSizeMB = other.Store.CacheSizeMB
	}
	if other.Store.BusyTimeoutMS != 0 {
		c.Store.BusyTimeoutMS = other.Store.BusyTimeoutMS
	}
	if other.Search.RRFConstant != 0 {
		c.Search.RRFConstant = other.Search.RRFConstant
	}
	if other.Search.DefaultLimit != 0 {
		c.Search.DefaultLimit = other.Search.DefaultLimit
	}
	if other.Search.CriticalLatencyMS != 0 {
		c.Search.CriticalLatencyMS = other.Search.CriticalLatencyMS
	}
	if other.Search.DegradedLatencyMS != 0 {
		c.Search.DegradedLatencyMS = other.Search.DegradedLatencyMS
	}
	if other.Cache.ExactCapacity != 0 {
		c.Cache.ExactCapacity = other.Cache.ExactCapacity
	}
	if other.Cache.SemanticCapacity != 0 {
		c.Cache.SemanticCapacity = other.Cache.SemanticCapacity
	}
	if other.Cache.SemanticThreshold != 0 {
		c.Cache.SemanticThreshold = other.Cache.SemanticThreshold
	}
	if other.MMR.Enabled {
		c.MMR.Enabled = other.MMR.Enabled
	}
	if other.Explore.Enabled {
		c.Explore.Enabled = other.Explore.Enabled
	}
	if other.Explore.StabilityThreshold != 0 {
		c.Explore.StabilityThreshold = other.Explore.StabilityThreshold
	}
	if other.Explore.TrustCeiling != 0 {
		c.Explore.TrustCeiling = other.Explore.TrustCeiling
	}
	if other.Explore.SimilarityFloor != 0 {
		c.Explore.SimilarityFloor = other.Explore.SimilarityFloor
	}
	if other.Rerank.Enabled {
		c.Rerank.Enabled = other.Rerank.Enabled
	}
	if other.Rerank.Endpoint != "" {
		c.Rerank.Endpoint = other.Rerank.Endpoint
	}
	if other.Rerank.Model != "" {
		c.Rerank.Model = other.Rerank.Model
	}
	if other.Rerank.Timeout != 0 {
		c.Rerank.Timeout = other.Rerank.Timeout
	}
	if other.Rerank.CandidateCount != 0 {
		c.Rerank.CandidateCount = other.Rerank.CandidateCount
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
}

// applyEnvOverrides applies RETRIEVAL_CORE_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("RETRIEVAL_CORE_RRF_CONSTANT"); v != "" {
		if k, err := strconv.Atoi(v); err == nil && k > 0 {
			c.Search.RRFConstant = k
		}
	}
	if v := os.Getenv("RETRIEVAL_CORE_STORE_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("RETRIEVAL_CORE_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
	if v := os.Getenv("RETRIEVAL_CORE_RERANK_ENDPOINT"); v != "" {
		c.Rerank.Endpoint = v
		c.Rerank.Enabled = true
	}
	if v := os.Getenv("RETRIEVAL_CORE_MMR_ENABLED"); v != "" {
		c.MMR.Enabled = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("RETRIEVAL_CORE_EXPLORATION_ENABLED"); v != "" {
		c.Explore.Enabled = strings.ToLower(v) == "true" || v == "1"
	}
}

// FindProjectRoot finds the workspace root by walking up from startDir
// looking for .git or a .retrieval-core.yaml/.yml file.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) {
			return currentDir, nil
		}
		if fileExists(filepath.Join(currentDir, ".retrieval-core.yaml")) ||
			fileExists(filepath.Join(currentDir, ".retrieval-core.yml")) {
			return currentDir, nil
		}
		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// dirExists checks if a directory exists.
func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Search.RRFConstant <= 0 {
		return fmt.Errorf("rrf_constant must be positive, got %d", c.Search.RRFConstant)
	}
	if c.Search.DefaultLimit < 0 {
		return fmt.Errorf("default_limit must be non-negative, got %d", c.Search.DefaultLimit)
	}
	if c.Cache.ExactCapacity < 0 || c.Cache.SemanticCapacity < 0 {
		return fmt.Errorf("cache capacities must be non-negative")
	}
	if c.Cache.SemanticThreshold < 0 || c.Cache.SemanticThreshold > 1 {
		return fmt.Errorf("semantic_threshold must be between 0 and 1, got %f", c.Cache.SemanticThreshold)
	}
	if math.IsNaN(c.Cache.SemanticThreshold) {
		return fmt.Errorf("semantic_threshold must not be NaN")
	}
	if c.Rerank.Enabled && c.Rerank.Endpoint == "" {
		return fmt.Errorf("rerank.endpoint is required when rerank.enabled is true")
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Server.LogLevel)] {
		return fmt.Errorf("server.log_level must be 'debug', 'info', 'warn', or 'error', got %s", c.Server.LogLevel)
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// LoadUserConfig loads the user configuration file.
// Returns nil config and nil error if the file doesn't exist.
func LoadUserConfig() (*Config, error) {
	return loadUserConfig()
}
