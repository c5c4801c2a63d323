package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	DefaultAPIKeyPath = "/run/secrets/api_keys/openrouter"
	APIKeyPathEnvVar  = "OPENROUTER_API_KEY_FILE"
	EnvFileEnvVar     = "SCREEN_TRANSLATOR_ENV"

	OCRBackendTesseract  = "tesseract"
	OCRBackendOpenRouter = "openrouter"

	TranslateBackendLibre      = "libretranslate"
	TranslateBackendOpenRouter = "openrouter"

	OutputStdout    = "stdout"
	OutputClipboard = "clipboard"
	OutputBoth      = "both"

	defaultAccent = "#ff0000"
)

type LoadOptions struct {
	APIKeyPathOverride string
	ServiceURLOverride string
	DictionaryOverride string
	OutputModeOverride string
}

type Config struct {
	APIKey         string
	APIKeyPath     string
	Model          string
	TranslateModel string
	Providers      []string

	ServiceAddr string
	ServiceURL  string
	SourceLang  string
	TargetLang  string

	DictionaryPath string

	OCRBackend   string
	OCRLanguages []string

	TranslateBackend string
	LibreURL         string
	LibreAPIKey      string

	DeadlineSec int

	CaptureOutput    string
	CaptureAccent    string
	CaptureBorder    int
	CaptureDim       int
	CapturePollMS    int
	CaptureCancelKey string

	OutputMode string
	ResultDir  string
	Trigger    string

	EnableFileLogging bool
}

func Load() (*Config, error) {
	return LoadWithOptions(LoadOptions{})
}

func LoadWithOptions(opts LoadOptions) (*Config, error) {
	// Load configuration from sources in priority order:
	// 1) .env in the application (executable) directory
	// 2) If not found, use SCREEN_TRANSLATOR_ENV as a path to a config file
	envPath := resolveEnvPath()
	dotenvValues := readDotenvValues(envPath)
	if envPath != "" {
		_ = godotenv.Load(envPath)
	}

	apiKeyPath := resolveAPIKeyPath(opts, dotenvValues)

	cfg := &Config{
		APIKey:         resolveAPIKey(apiKeyPath),
		APIKeyPath:     apiKeyPath,
		Model:          os.Getenv("MODEL"),
		TranslateModel: getEnvWithDefault("TRANSLATE_MODEL", os.Getenv("MODEL")),
		Providers:      splitList(os.Getenv("PROVIDERS")),

		ServiceAddr: getEnvWithDefault("SERVICE_ADDR", "127.0.0.1:5000"),
		ServiceURL:  firstNonEmpty(opts.ServiceURLOverride, getEnvWithDefault("SERVICE_URL", "http://127.0.0.1:5000")),
		SourceLang:  getEnvWithDefault("SOURCE_LANG", "en"),
		TargetLang:  getEnvWithDefault("TARGET_LANG", "zh"),

		DictionaryPath: firstNonEmpty(opts.DictionaryOverride, getEnvWithDefault("DICTIONARY_PATH", "stardict.db")),

		OCRBackend:   resolveChoice(os.Getenv("OCR_BACKEND"), OCRBackendTesseract, OCRBackendTesseract, OCRBackendOpenRouter),
		OCRLanguages: splitList(getEnvWithDefault("OCR_LANGUAGES", "eng")),

		TranslateBackend: resolveChoice(os.Getenv("TRANSLATE_BACKEND"), TranslateBackendLibre, TranslateBackendLibre, TranslateBackendOpenRouter),
		LibreURL:         strings.TrimRight(getEnvWithDefault("LIBRETRANSLATE_URL", "http://127.0.0.1:5050"), "/"),
		LibreAPIKey:      os.Getenv("LIBRETRANSLATE_API_KEY"),

		DeadlineSec: getPositiveInt("DEADLINE_SEC", 20),

		CaptureOutput:    getEnvWithDefault("CAPTURE_OUTPUT", filepath.Join("temp", "screenshot.png")),
		CaptureAccent:    resolveAccent(os.Getenv("CAPTURE_ACCENT")),
		CaptureBorder:    getPositiveInt("CAPTURE_BORDER", 3),
		CaptureDim:       getBoundedInt("CAPTURE_DIM", 100, 0, 255),
		CapturePollMS:    getPositiveInt("CAPTURE_POLL_MS", 100),
		CaptureCancelKey: strings.ToLower(getEnvWithDefault("CAPTURE_CANCEL_KEY", "esc")),

		OutputMode: resolveChoice(firstNonEmpty(opts.OutputModeOverride, os.Getenv("OUTPUT_MODE")), OutputStdout, OutputStdout, OutputClipboard, OutputBoth),
		ResultDir:  getEnvWithDefault("RESULT_DIR", "temp"),
		Trigger:    getEnvWithDefault("TRIGGER", "middle"),

		EnableFileLogging: strings.ToLower(os.Getenv("ENABLE_FILE_LOGGING")) == "true",
	}

	return cfg, nil
}

func resolveEnvPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}

	execDir := filepath.Dir(execPath)
	exeEnv := filepath.Join(execDir, ".env")
	if _, err := os.Stat(exeEnv); err == nil {
		return exeEnv
	}

	if alt := os.Getenv(EnvFileEnvVar); alt != "" {
		if _, err := os.Stat(alt); err == nil {
			return alt
		}
	}

	return ""
}

func readDotenvValues(envPath string) map[string]string {
	if envPath == "" {
		return map[string]string{}
	}

	values, err := godotenv.Read(envPath)
	if err != nil {
		return map[string]string{}
	}

	return values
}

func resolveAPIKeyPath(opts LoadOptions, dotenvValues map[string]string) string {
	keyPath := DefaultAPIKeyPath

	if envPath := strings.TrimSpace(os.Getenv(APIKeyPathEnvVar)); envPath != "" {
		keyPath = envPath
	}

	if dotenvPath := strings.TrimSpace(dotenvValues[APIKeyPathEnvVar]); dotenvPath != "" {
		keyPath = dotenvPath
	}

	if overridePath := strings.TrimSpace(opts.APIKeyPathOverride); overridePath != "" {
		keyPath = overridePath
	}

	return keyPath
}

func resolveAPIKey(keyPath string) string {
	if data, err := os.ReadFile(keyPath); err == nil {
		if fileKey := strings.TrimSpace(string(data)); fileKey != "" {
			return fileKey
		}
	}

	return os.Getenv("OPENROUTER_API_KEY")
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getPositiveInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func getBoundedInt(key string, defaultValue, lo, hi int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n >= lo && n <= hi {
			return n
		}
	}
	return defaultValue
}

// splitList parses a comma-separated value, dropping empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func resolveChoice(value, defaultValue string, allowed ...string) string {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return a
		}
	}
	return defaultValue
}

// resolveAccent accepts any hex color go-colorful can parse and normalizes it.
func resolveAccent(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultAccent
	}
	if !strings.HasPrefix(value, "#") {
		value = "#" + value
	}
	c, err := colorful.Hex(value)
	if err != nil {
		return defaultAccent
	}
	return c.Hex()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
