// Package config loads recognizer settings from the environment.
//
// Values come from process environment variables, optionally seeded from a
// dotenv file. Variables already present in the environment take precedence
// over the file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// ErrInvalidConfig is returned by Validate for any rejected setting.
var ErrInvalidConfig = errors.New("invalid configuration")

// Detector backends.
const (
	DetectorCascade = "cascade"
	DetectorEdge    = "edge"
)

// Preprocessor backends.
const (
	PreprocessorNative = "native"
	PreprocessorOpenCV = "opencv"
)

// OCR engines.
const (
	EngineTesseract = "tesseract"
	EngineONNX      = "onnx"
)

// Config holds recognizer configuration.
type Config struct {
	LogLevel string

	// Detection
	Detector    string
	CascadePath string
	Padding     int

	// Preprocessing
	Preprocessor string

	// OCR
	Engine         string
	Language       string
	TessdataPrefix string
	ONNXModel      string
	ONNXCharset    string
	ONNXRuntime    string

	// AnnotateOutput, when set, is where the annotated image is written.
	AnnotateOutput string
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		LogLevel:     "info",
		Detector:     DetectorCascade,
		CascadePath:  "haarcascade_plate_number.xml",
		Padding:      2,
		Preprocessor: PreprocessorNative,
		Engine:       EngineTesseract,
		Language:     "eng",
	}
}

// Load reads configuration from the environment after applying envFiles.
// Missing dotenv files are ignored; malformed ones are an error.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return nil, errors.Wrapf(err, "load %s", f)
		}
	}

	def := Default()
	padding, err := getEnvAsIntOrDefault("PLATE_PADDING", def.Padding)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:       getEnvOrDefault("PLATE_LOG_LEVEL", def.LogLevel),
		Detector:       getEnvOrDefault("PLATE_DETECTOR", def.Detector),
		CascadePath:    getEnvOrDefault("PLATE_CASCADE_PATH", def.CascadePath),
		Padding:        padding,
		Preprocessor:   getEnvOrDefault("PLATE_PREPROCESSOR", def.Preprocessor),
		Engine:         getEnvOrDefault("PLATE_OCR_ENGINE", def.Engine),
		Language:       getEnvOrDefault("PLATE_OCR_LANGUAGE", def.Language),
		TessdataPrefix: os.Getenv("PLATE_TESSDATA_PREFIX"),
		ONNXModel:      os.Getenv("PLATE_ONNX_MODEL"),
		ONNXCharset:    os.Getenv("PLATE_ONNX_CHARSET"),
		ONNXRuntime:    os.Getenv("PLATE_ONNX_RUNTIME"),
		AnnotateOutput: os.Getenv("PLATE_ANNOTATE_OUTPUT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every setting names a supported option.
func (c *Config) Validate() error {
	switch c.Detector {
	case DetectorCascade:
		if c.CascadePath == "" {
			return errors.Wrap(ErrInvalidConfig, "PLATE_CASCADE_PATH is required for the cascade detector")
		}
	case DetectorEdge:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown detector %q", c.Detector)
	}

	switch c.Preprocessor {
	case PreprocessorNative, PreprocessorOpenCV:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown preprocessor %q", c.Preprocessor)
	}

	switch c.Engine {
	case EngineTesseract:
		if c.Language == "" {
			return errors.Wrap(ErrInvalidConfig, "PLATE_OCR_LANGUAGE must not be empty")
		}
	case EngineONNX:
		if c.ONNXModel == "" {
			return errors.Wrap(ErrInvalidConfig, "PLATE_ONNX_MODEL is required for the onnx engine")
		}
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown OCR engine %q", c.Engine)
	}

	if c.Padding < 0 {
		return errors.Wrapf(ErrInvalidConfig, "PLATE_PADDING must be >= 0, got %d", c.Padding)
	}

	return nil
}

func getEnvOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvAsIntOrDefault(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrap(ErrInvalidConfig, fmt.Sprintf("%s must be an integer, got %q", key, v))
	}
	return n, nil
}
