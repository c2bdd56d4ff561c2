package config

import (
	"os"
	"strconv"
	"strings"
)

// Config holds all service configuration, read once at startup.
type Config struct {
	Server  ServerConfig
	Model   ModelConfig
	Dataset DatasetConfig
	Log     LogConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	MaxUploadBytes int64
	TopK           int
}

// ModelConfig holds model artifact locations.
type ModelConfig struct {
	ModelPath    string
	ManifestPath string
	// ORTLibraryPath overrides the ONNX Runtime shared library location.
	// Empty means "libonnxruntime.so next to the model file".
	ORTLibraryPath string
}

// DatasetConfig holds the labeled directory tree settings.
type DatasetConfig struct {
	// TrainDir is the training split root; its immediate subdirectory names
	// are the class labels, in lexicographic order.
	TrainDir string
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string // "debug", "info", "warn", "error"
	Format string // "text" or "json"
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Server: ServerConfig{
			Addr:           getenv("CATTLE_ADDR", ":8080"),
			AllowedOrigins: getenvList("CATTLE_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
			MaxUploadBytes: getenvInt64("CATTLE_MAX_UPLOAD_BYTES", 10<<20),
			TopK:           getenvInt("CATTLE_TOP_K", 5),
		},
		Model: ModelConfig{
			ModelPath:      getenv("CATTLE_MODEL_PATH", "model/cattle_classifier.onnx"),
			ManifestPath:   getenv("CATTLE_MANIFEST_PATH", "model/cattle_classifier.json"),
			ORTLibraryPath: os.Getenv("CATTLE_ORT_LIBRARY_PATH"),
		},
		Dataset: DatasetConfig{
			TrainDir: getenv("CATTLE_DATASET_PATH", "dataset/train"),
		},
		Log: LogConfig{
			Level:  getenv("CATTLE_LOG_LEVEL", "info"),
			Format: getenv("CATTLE_LOG_FORMAT", "text"),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// getenvList parses a comma-separated env var, trimming whitespace and
// dropping empty entries.
func getenvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
