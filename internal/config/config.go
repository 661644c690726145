package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DataDirName is the per-folder directory holding the index. The leading
// dot keeps it out of its own scan.
const DataDirName = ".docfinder"

// Granularity values for search results.
const (
	GranularityDocument = "document"
	GranularityChunk    = "chunk"
)

// Match modes for substring boosts.
const (
	MatchPhrase = "phrase"
	MatchTokens = "tokens"
)

// Fingerprint modes for change detection.
const (
	FingerprintMtime = "mtime"
	FingerprintHash  = "hash"
)

// Config represents the complete docfinder configuration.
type Config struct {
	Version    int              `yaml:"version" toml:"version" json:"version"`
	Paths      PathsConfig      `yaml:"paths" toml:"paths" json:"paths"`
	Extract    ExtractConfig    `yaml:"extract" toml:"extract" json:"extract"`
	Index      IndexConfig      `yaml:"index" toml:"index" json:"index"`
	Embeddings EmbeddingsConfig `yaml:"embeddings" toml:"embeddings" json:"embeddings"`
	Search     SearchConfig     `yaml:"search" toml:"search" json:"search"`
	Watch      WatchConfig      `yaml:"watch" toml:"watch" json:"watch"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging" json:"logging"`
}

// PathsConfig extends the built-in path guard.
type PathsConfig struct {
	// Denylist holds extra roots that are never scanned.
	Denylist []string `yaml:"denylist" toml:"denylist" json:"denylist"`
	// IgnoreNames holds extra directory names skipped anywhere in the tree.
	IgnoreNames []string `yaml:"ignore_names" toml:"ignore_names" json:"ignore_names"`
	// Exclude holds gitignore-style patterns relative to the folder,
	// applied on top of its .docfinderignore file.
	Exclude []string `yaml:"exclude" toml:"exclude" json:"exclude"`
}

// ExtractConfig configures text extraction.
type ExtractConfig struct {
	MaxFileSizeMB int `yaml:"max_file_size_mb" toml:"max_file_size_mb" json:"max_file_size_mb"`
	// MaxTextChars caps normalized document text, in characters.
	MaxTextChars int `yaml:"max_text_chars" toml:"max_text_chars" json:"max_text_chars"`
	// TextEncodings is the decode order for .txt files.
	TextEncodings []string `yaml:"text_encodings" toml:"text_encodings" json:"text_encodings"`
	// PDFToText is the pdftotext binary name or path.
	PDFToText string `yaml:"pdftotext" toml:"pdftotext" json:"pdftotext"`
}

// IndexConfig configures indexing.
type IndexConfig struct {
	ChunkMaxLength int    `yaml:"chunk_max_length" toml:"chunk_max_length" json:"chunk_max_length"`
	ChunkOverlap   int    `yaml:"chunk_overlap" toml:"chunk_overlap" json:"chunk_overlap"`
	Workers        int    `yaml:"workers" toml:"workers" json:"workers"`
	Fingerprint    string `yaml:"fingerprint" toml:"fingerprint" json:"fingerprint"`
	// DataDir overrides <folder>/.docfinder.
	DataDir string `yaml:"data_dir" toml:"data_dir" json:"data_dir"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	// Provider is "ollama" or "static".
	Provider   string `yaml:"provider" toml:"provider" json:"provider"`
	Model      string `yaml:"model" toml:"model" json:"model"`
	OllamaHost string `yaml:"ollama_host" toml:"ollama_host" json:"ollama_host"`
	BatchSize  int    `yaml:"batch_size" toml:"batch_size" json:"batch_size"`
	// MaxInputChars truncates each input before embedding.
	MaxInputChars int `yaml:"max_input_chars" toml:"max_input_chars" json:"max_input_chars"`
	// Timeout is a Go duration string applied per request.
	Timeout   string `yaml:"timeout" toml:"timeout" json:"timeout"`
	CacheSize int    `yaml:"cache_size" toml:"cache_size" json:"cache_size"`
}

// SearchConfig configures hybrid ranking.
type SearchConfig struct {
	TopK                int     `yaml:"top_k" toml:"top_k" json:"top_k"`
	OverFetchMultiplier int     `yaml:"over_fetch_multiplier" toml:"over_fetch_multiplier" json:"over_fetch_multiplier"`
	TitleBoost          float64 `yaml:"title_boost" toml:"title_boost" json:"title_boost"`
	ContentBoost        float64 `yaml:"content_boost" toml:"content_boost" json:"content_boost"`
	Granularity         string  `yaml:"granularity" toml:"granularity" json:"granularity"`
	MatchMode           string  `yaml:"match_mode" toml:"match_mode" json:"match_mode"`
	// ANN uses the HNSW graph for candidate generation instead of a full scan.
	ANN bool `yaml:"ann" toml:"ann" json:"ann"`
}

// WatchConfig configures watch mode.
type WatchConfig struct {
	Debounce string `yaml:"debounce" toml:"debounce" json:"debounce"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level" toml:"level" json:"level"`
}

// NewConfig returns a Config with defaults.
func NewConfig() *Config {
	workers := runtime.NumCPU() / 2
	if workers < 1 {
		workers = 1
	}

	return &Config{
		Version: 1,
		Extract: ExtractConfig{
			MaxFileSizeMB: 50,
			MaxTextChars:  100000,
			TextEncodings: []string{"utf-8", "utf-16", "windows-1252", "iso-8859-1"},
			PDFToText:     "pdftotext",
		},
		Index: IndexConfig{
			ChunkMaxLength: 500,
			ChunkOverlap:   50,
			Workers:        workers,
			Fingerprint:    FingerprintMtime,
		},
		Embeddings: EmbeddingsConfig{
			Provider:      "ollama",
			Model:         "all-minilm",
			BatchSize:     32,
			MaxInputChars: 2000,
			Timeout:       "60s",
			CacheSize:     1000,
		},
		Search: SearchConfig{
			TopK:                20,
			OverFetchMultiplier: 3,
			TitleBoost:          0.25,
			ContentBoost:        0.15,
			Granularity:         GranularityDocument,
			MatchMode:           MatchPhrase,
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetUserConfigPath returns the path to the user configuration file:
//   - $XDG_CONFIG_HOME/docfinder/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/docfinder/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "docfinder", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "docfinder", "config.yaml")
	}
	return filepath.Join(home, ".config", "docfinder", "config.yaml")
}

// Load loads configuration for a document folder.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/docfinder/config.yaml)
//  3. Folder config (.docfinder.yaml, .docfinder.yml or .docfinder.toml)
//  4. Environment variables (DOCFINDER_*)
//
// dir may be empty, in which case only steps 1, 2 and 4 apply.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if path := GetUserConfigPath(); fileExists(path) {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load user config: %w", err)
		}
	}

	if dir != "" {
		if err := cfg.loadFromDir(dir); err != nil {
			return nil, err
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadFromDir loads the first folder config file found. YAML wins over TOML.
func (c *Config) loadFromDir(dir string) error {
	for _, name := range []string{".docfinder.yaml", ".docfinder.yml", ".docfinder.toml"} {
		path := filepath.Join(dir, name)
		if fileExists(path) {
			return c.loadFile(path)
		}
	}
	return nil
}

// loadFile parses a YAML or TOML file and merges its non-zero values.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var parsed Config
	if strings.HasSuffix(path, ".toml") {
		err = toml.Unmarshal(data, &parsed)
	} else {
		err = yaml.Unmarshal(data, &parsed)
	}
	if err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
// Denylist and ignore names are appended rather than replaced.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	c.Paths.Denylist = append(c.Paths.Denylist, other.Paths.Denylist...)
	c.Paths.IgnoreNames = append(c.Paths.IgnoreNames, other.Paths.IgnoreNames...)
	c.Paths.Exclude = append(c.Paths.Exclude, other.Paths.Exclude...)

	if other.Extract.MaxFileSizeMB != 0 {
		c.Extract.MaxFileSizeMB = other.Extract.MaxFileSizeMB
	}
	if other.Extract.MaxTextChars != 0 {
		c.Extract.MaxTextChars = other.Extract.MaxTextChars
	}
	if len(other.Extract.TextEncodings) > 0 {
		c.Extract.TextEncodings = other.Extract.TextEncodings
	}
	if other.Extract.PDFToText != "" {
		c.Extract.PDFToText = other.Extract.PDFToText
	}

	if other.Index.ChunkMaxLength != 0 {
		c.Index.ChunkMaxLength = other.Index.ChunkMaxLength
	}
	if other.Index.ChunkOverlap != 0 {
		c.Index.ChunkOverlap = other.Index.ChunkOverlap
	}
	if other.Index.Workers != 0 {
		c.Index.Workers = other.Index.Workers
	}
	if other.Index.Fingerprint != "" {
		c.Index.Fingerprint = other.Index.Fingerprint
	}
	if other.Index.DataDir != "" {
		c.Index.DataDir = other.Index.DataDir
	}

	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.MaxInputChars != 0 {
		c.Embeddings.MaxInputChars = other.Embeddings.MaxInputChars
	}
	if other.Embeddings.Timeout != "" {
		c.Embeddings.Timeout = other.Embeddings.Timeout
	}
	if other.Embeddings.CacheSize != 0 {
		c.Embeddings.CacheSize = other.Embeddings.CacheSize
	}

	if other.Search.TopK != 0 {
		c.Search.TopK = other.Search.TopK
	}
	if other.Search.OverFetchMultiplier != 0 {
		c.Search.OverFetchMultiplier = other.Search.OverFetchMultiplier
	}
	if other.Search.TitleBoost != 0 {
		c.Search.TitleBoost = other.Search.TitleBoost
	}
	if other.Search.ContentBoost != 0 {
		c.Search.ContentBoost = other.Search.ContentBoost
	}
	if other.Search.Granularity != "" {
		c.Search.Granularity = other.Search.Granularity
	}
	if other.Search.MatchMode != "" {
		c.Search.MatchMode = other.Search.MatchMode
	}
	if other.Search.ANN {
		c.Search.ANN = true
	}

	if other.Watch.Debounce != "" {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
}

// applyEnvOverrides applies DOCFINDER_* environment variables.
// Unparseable numbers are ignored.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DOCFINDER_EMBEDDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("DOCFINDER_EMBEDDINGS_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("DOCFINDER_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("DOCFINDER_DATA_DIR"); v != "" {
		c.Index.DataDir = v
	}
	if v := os.Getenv("DOCFINDER_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DOCFINDER_GRANULARITY"); v != "" {
		c.Search.Granularity = v
	}
	if v := os.Getenv("DOCFINDER_MATCH_MODE"); v != "" {
		c.Search.MatchMode = v
	}
	if n, err := strconv.Atoi(os.Getenv("DOCFINDER_TOP_K")); err == nil {
		c.Search.TopK = n
	}
	if n, err := strconv.Atoi(os.Getenv("DOCFINDER_CHUNK_MAX_LENGTH")); err == nil {
		c.Index.ChunkMaxLength = n
	}
	if f, err := strconv.ParseFloat(os.Getenv("DOCFINDER_TITLE_BOOST"), 64); err == nil {
		c.Search.TitleBoost = f
	}
	if f, err := strconv.ParseFloat(os.Getenv("DOCFINDER_CONTENT_BOOST"), 64); err == nil {
		c.Search.ContentBoost = f
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.Index.ChunkMaxLength < 50 {
		return fmt.Errorf("index.chunk_max_length must be at least 50, got %d", c.Index.ChunkMaxLength)
	}
	if c.Index.ChunkOverlap < 0 || c.Index.ChunkOverlap >= c.Index.ChunkMaxLength/2 {
		return fmt.Errorf("index.chunk_overlap must be in [0, chunk_max_length/2), got %d", c.Index.ChunkOverlap)
	}
	if c.Index.Workers < 1 {
		return fmt.Errorf("index.workers must be positive, got %d", c.Index.Workers)
	}
	switch c.Index.Fingerprint {
	case FingerprintMtime, FingerprintHash:
	default:
		return fmt.Errorf("index.fingerprint must be 'mtime' or 'hash', got %s", c.Index.Fingerprint)
	}

	if c.Extract.MaxTextChars <= 0 || c.Extract.MaxFileSizeMB <= 0 {
		return fmt.Errorf("extract limits must be positive")
	}

	switch strings.ToLower(c.Embeddings.Provider) {
	case "ollama", "static":
	default:
		return fmt.Errorf("embeddings.provider must be 'ollama' or 'static', got %s", c.Embeddings.Provider)
	}
	if c.Embeddings.BatchSize < 1 {
		return fmt.Errorf("embeddings.batch_size must be positive, got %d", c.Embeddings.BatchSize)
	}
	if _, err := time.ParseDuration(c.Embeddings.Timeout); err != nil {
		return fmt.Errorf("embeddings.timeout: %w", err)
	}

	if c.Search.TopK < 1 {
		return fmt.Errorf("search.top_k must be positive, got %d", c.Search.TopK)
	}
	if c.Search.OverFetchMultiplier < 1 {
		return fmt.Errorf("search.over_fetch_multiplier must be at least 1, got %d", c.Search.OverFetchMultiplier)
	}
	if c.Search.TitleBoost < 0 || c.Search.ContentBoost < 0 {
		return fmt.Errorf("search boosts must be non-negative")
	}
	switch c.Search.Granularity {
	case GranularityDocument, GranularityChunk:
	default:
		return fmt.Errorf("search.granularity must be 'document' or 'chunk', got %s", c.Search.Granularity)
	}
	switch c.Search.MatchMode {
	case MatchPhrase, MatchTokens:
	default:
		return fmt.Errorf("search.match_mode must be 'phrase' or 'tokens', got %s", c.Search.MatchMode)
	}

	if _, err := time.ParseDuration(c.Watch.Debounce); err != nil {
		return fmt.Errorf("watch.debounce: %w", err)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}
	return nil
}

// EmbeddingTimeout returns the parsed per-request timeout.
func (c *Config) EmbeddingTimeout() time.Duration {
	d, err := time.ParseDuration(c.Embeddings.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// WatchDebounce returns the parsed watch debounce.
func (c *Config) WatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// DataDirFor returns the index directory for a document folder.
func (c *Config) DataDirFor(root string) string {
	if c.Index.DataDir != "" {
		return c.Index.DataDir
	}
	return filepath.Join(root, DataDirName)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
