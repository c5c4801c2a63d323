// Package runtimeinit loads configuration and builds the engine handles that
// the service owns.
package runtimeinit

import (
	"fmt"
	"log"
	"os"

	"screen-translator/src/config"
	"screen-translator/src/lexicon"
	"screen-translator/src/llm"
	"screen-translator/src/logutil"
	"screen-translator/src/ocr"
	"screen-translator/src/service"
	"screen-translator/src/translator"
)

type Options struct {
	LoadOptions config.LoadOptions
	Verbose     bool
}

// Bootstrap loads the configuration and routes logging.
func Bootstrap(opts Options) (*config.Config, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logutil.Setup(cfg.EnableFileLogging, opts.Verbose)
	return cfg, nil
}

// NewService builds every engine selected by cfg. A missing dictionary is
// logged and left out; engine construction failures are fatal.
func NewService(cfg *config.Config) (*service.Service, error) {
	rec, err := newRecognizer(cfg)
	if err != nil {
		return nil, err
	}
	log.Printf("Recognizer: %s", rec.Name())

	tr, err := newTranslator(cfg)
	if err != nil {
		rec.Close()
		return nil, err
	}
	log.Printf("Translator: %s (%s -> %s)", tr.Name(), cfg.SourceLang, cfg.TargetLang)

	var store *lexicon.Store
	if _, statErr := os.Stat(cfg.DictionaryPath); statErr == nil {
		store, err = lexicon.Open(cfg.DictionaryPath)
		if err != nil {
			rec.Close()
			return nil, fmt.Errorf("failed to open dictionary: %w", err)
		}
		log.Printf("Dictionary: %s", cfg.DictionaryPath)
	} else {
		log.Printf("Dictionary %s not found; single words go to the translator", cfg.DictionaryPath)
	}

	return service.New(service.Options{
		Recognizer: rec,
		Translator: tr,
		Lexicon:    store,
		Source:     cfg.SourceLang,
		Target:     cfg.TargetLang,
	}), nil
}

func newLLM(cfg *config.Config, model string) (*llm.Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required. Checked key file %s and OPENROUTER_API_KEY env var", cfg.APIKeyPath)
	}
	if model == "" {
		return nil, fmt.Errorf("MODEL is required. Please set it in your .env file")
	}
	log.Printf("OpenRouter model %s, key %s", model, logutil.RedactKey(cfg.APIKey))
	return llm.New(llm.Config{APIKey: cfg.APIKey, Model: model, Providers: cfg.Providers}), nil
}

func newRecognizer(cfg *config.Config) (ocr.Recognizer, error) {
	switch cfg.OCRBackend {
	case config.OCRBackendOpenRouter:
		client, err := newLLM(cfg, cfg.Model)
		if err != nil {
			return nil, err
		}
		return ocr.NewVision(client), nil
	default:
		t, err := ocr.NewTesseract(cfg.OCRLanguages)
		if err != nil {
			return nil, fmt.Errorf("failed to start tesseract: %w", err)
		}
		return t, nil
	}
}

func newTranslator(cfg *config.Config) (translator.Engine, error) {
	switch cfg.TranslateBackend {
	case config.TranslateBackendOpenRouter:
		client, err := newLLM(cfg, cfg.TranslateModel)
		if err != nil {
			return nil, err
		}
		return translator.NewOpenRouter(client), nil
	default:
		return translator.NewLibreTranslate(cfg.LibreURL, cfg.LibreAPIKey), nil
	}
}
