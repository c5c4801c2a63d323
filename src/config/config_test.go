package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "test_api_key")
	t.Setenv(APIKeyPathEnvVar, filepath.Join(t.TempDir(), "missing"))
	t.Setenv("MODEL", "test_model")
	t.Setenv("ENABLE_FILE_LOGGING", "true")
	t.Setenv("SOURCE_LANG", "en")
	t.Setenv("TARGET_LANG", "de")
	t.Setenv("OCR_BACKEND", "OpenRouter")
	t.Setenv("OCR_LANGUAGES", "eng, deu")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.APIKey != "test_api_key" {
		t.Errorf("Expected APIKey to be 'test_api_key', got '%s'", cfg.APIKey)
	}
	if cfg.Model != "test_model" {
		t.Errorf("Expected Model to be 'test_model', got '%s'", cfg.Model)
	}
	if cfg.TranslateModel != "test_model" {
		t.Errorf("Expected TranslateModel to fall back to MODEL, got '%s'", cfg.TranslateModel)
	}
	if !cfg.EnableFileLogging {
		t.Errorf("Expected EnableFileLogging to be true, got %v", cfg.EnableFileLogging)
	}
	if cfg.TargetLang != "de" {
		t.Errorf("Expected TargetLang 'de', got '%s'", cfg.TargetLang)
	}
	if cfg.OCRBackend != OCRBackendOpenRouter {
		t.Errorf("Expected OCRBackend %q, got %q", OCRBackendOpenRouter, cfg.OCRBackend)
	}
	if len(cfg.OCRLanguages) != 2 || cfg.OCRLanguages[1] != "deu" {
		t.Errorf("Expected OCRLanguages [eng deu], got %v", cfg.OCRLanguages)
	}
}

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"SERVICE_ADDR", "TRANSLATE_BACKEND", "DEADLINE_SEC", "CAPTURE_OUTPUT", "CAPTURE_ACCENT", "CAPTURE_DIM", "OUTPUT_MODE", "OCR_BACKEND"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServiceAddr != "127.0.0.1:5000" {
		t.Errorf("ServiceAddr = %q", cfg.ServiceAddr)
	}
	if cfg.TranslateBackend != TranslateBackendLibre {
		t.Errorf("TranslateBackend = %q", cfg.TranslateBackend)
	}
	if cfg.DeadlineSec != 20 {
		t.Errorf("DeadlineSec = %d", cfg.DeadlineSec)
	}
	if cfg.CaptureOutput != filepath.Join("temp", "screenshot.png") {
		t.Errorf("CaptureOutput = %q", cfg.CaptureOutput)
	}
	if cfg.CaptureAccent != "#ff0000" || cfg.CaptureBorder != 3 || cfg.CaptureDim != 100 || cfg.CapturePollMS != 100 {
		t.Errorf("capture defaults = %q %d %d %d", cfg.CaptureAccent, cfg.CaptureBorder, cfg.CaptureDim, cfg.CapturePollMS)
	}
	if cfg.OCRBackend != OCRBackendTesseract {
		t.Errorf("OCRBackend = %q", cfg.OCRBackend)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("DEADLINE_SEC", "-4")
	t.Setenv("CAPTURE_DIM", "900")
	t.Setenv("CAPTURE_ACCENT", "not-a-color")
	t.Setenv("OUTPUT_MODE", "fax")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DeadlineSec != 20 {
		t.Errorf("DeadlineSec = %d, want 20", cfg.DeadlineSec)
	}
	if cfg.CaptureDim != 100 {
		t.Errorf("CaptureDim = %d, want 100", cfg.CaptureDim)
	}
	if cfg.CaptureAccent != "#ff0000" {
		t.Errorf("CaptureAccent = %q", cfg.CaptureAccent)
	}
	if cfg.OutputMode != OutputStdout {
		t.Errorf("OutputMode = %q", cfg.OutputMode)
	}
}

func TestAccentNormalized(t *testing.T) {
	t.Setenv("CAPTURE_ACCENT", "00FF00")
	cfg, _ := Load()
	if cfg.CaptureAccent != "#00ff00" {
		t.Errorf("CaptureAccent = %q, want #00ff00", cfg.CaptureAccent)
	}
}

func TestAPIKeyFileTakesPrecedence(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "key")
	if err := os.WriteFile(keyFile, []byte("  file_key \n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENROUTER_API_KEY", "env_key")

	cfg, err := LoadWithOptions(LoadOptions{APIKeyPathOverride: keyFile})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.APIKey != "file_key" {
		t.Errorf("APIKey = %q, want file_key", cfg.APIKey)
	}
	if cfg.APIKeyPath != keyFile {
		t.Errorf("APIKeyPath = %q", cfg.APIKeyPath)
	}
}

func TestOverrides(t *testing.T) {
	cfg, err := LoadWithOptions(LoadOptions{
		ServiceURLOverride: "http://10.0.0.2:9000",
		DictionaryOverride: "/data/ecdict.db",
		OutputModeOverride: "clipboard",
	})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ServiceURL != "http://10.0.0.2:9000" || cfg.DictionaryPath != "/data/ecdict.db" || cfg.OutputMode != OutputClipboard {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}
