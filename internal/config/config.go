package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var modelsYAML []byte

type Config struct {
	Matcher   MatcherConfig
	Face      FaceConfig
	Embedding EmbeddingConfig
	Database  DatabaseConfig
	Legacy    LegacyConfig
	Models    ModelsConfig
}

type MatcherConfig struct {
	Strategy  string  // "embedding" (default) or "hash"
	Threshold float64 // default match threshold in percent (default 70)
	Workers   int     // parallel feature extraction workers in batch mode (default 4)
}

type FaceConfig struct {
	CascadePath      string // path to the pigo facefinder cascade binary
	RequireDetection bool   // skip images without a detected face instead of using the whole frame
}

type EmbeddingConfig struct {
	Provider  string // "server" (default) or "onnx"
	URL       string // embedding server base URL, defaults to http://localhost:8000
	Model     string // model preset name, defaults to inception_resnet_v2
	ONNXModel string // path to an ONNX model file, required for the onnx provider
	ONNXLib   string // path to the onnxruntime shared library (optional, uses system default)
}

type DatabaseConfig struct {
	URL           string // PostgreSQL connection URL
	MaxOpenConns  int    // Maximum open connections (default 25)
	MaxIdleConns  int    // Maximum idle connections (default 5)
	HNSWIndexPath string // Path to persist the embedding HNSW index (optional, rebuilt on startup if empty)
}

type LegacyConfig struct {
	DSN string // MariaDB DSN of a legacy record database for one-shot imports
}

// ModelsConfig holds the embedding model presets shipped with the binary.
type ModelsConfig struct {
	Models map[string]ModelPreset `yaml:"models"`
}

// ModelPreset describes the fixed input geometry and output width of an
// embedding model. Representations are only comparable within one preset.
type ModelPreset struct {
	InputSize int `yaml:"input_size"` // square input side in pixels
	Dim       int `yaml:"dim"`        // embedding vector length
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean ("true", "1").
func envBool(key string) bool {
	s := os.Getenv(key)
	return s == "true" || s == "1"
}

func Load() *Config {
	var models ModelsConfig
	if err := yaml.Unmarshal(modelsYAML, &models); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded models.yaml: " + err.Error())
	}

	return &Config{
		Matcher: MatcherConfig{
			Strategy:  envString("MATCHER_STRATEGY", "embedding"),
			Threshold: envFloat("MATCHER_THRESHOLD", 70),
			Workers:   envInt("MATCHER_WORKERS", 4),
		},
		Face: FaceConfig{
			CascadePath:      os.Getenv("FACE_CASCADE_PATH"),
			RequireDetection: envBool("FACE_REQUIRE_DETECTION"),
		},
		Embedding: EmbeddingConfig{
			Provider:  envString("EMBEDDING_PROVIDER", "server"),
			URL:       os.Getenv("EMBEDDING_URL"),
			Model:     envString("EMBEDDING_MODEL", "inception_resnet_v2"),
			ONNXModel: os.Getenv("EMBEDDING_ONNX_MODEL"),
			ONNXLib:   os.Getenv("EMBEDDING_ONNX_LIB"),
		},
		Database: DatabaseConfig{
			URL:           os.Getenv("DATABASE_URL"),
			MaxOpenConns:  envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:  envInt("DATABASE_MAX_IDLE_CONNS", 5),
			HNSWIndexPath: os.Getenv("HNSW_INDEX_PATH"),
		},
		Legacy: LegacyConfig{
			DSN: os.Getenv("LEGACY_DATABASE_URL"),
		},
		Models: models,
	}
}

// GetModelPreset returns the preset for a model name, falling back to the
// default inception_resnet_v2 geometry for unknown names.
func (c *Config) GetModelPreset(name string) ModelPreset {
	if preset, ok := c.Models.Models[name]; ok {
		return preset
	}
	return ModelPreset{InputSize: 299, Dim: 1536}
}
