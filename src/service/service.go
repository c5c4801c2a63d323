// Package service owns the recognition and translation engines and the
// dictionary, and routes each query to the dictionary or the translator.
package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"
	"unicode"

	"screen-translator/src/apperr"
	"screen-translator/src/lexicon"
	"screen-translator/src/logutil"
	"screen-translator/src/ocr"
	"screen-translator/src/translator"
	"screen-translator/src/worker"
)

// Source tags where a translation came from.
type Source string

const (
	SourceLexicon Source = "lexicon"
	SourceEngine  Source = "engine"
)

const pingTimeout = 3 * time.Second

type Options struct {
	Recognizer ocr.Recognizer
	Translator translator.Engine
	Lexicon    *lexicon.Store
	Source     string
	Target     string
}

// Service holds the engine handles for the process lifetime. Engine calls are
// serialized per engine; dictionary reads run concurrently.
type Service struct {
	recognizer ocr.Recognizer
	translator translator.Engine
	lexicon    *lexicon.Store
	source     string
	target     string

	recognizeLane *worker.Pool
	translateLane *worker.Pool
}

type Recognition struct {
	Text      string   `json:"text"`
	Fragments []string `json:"fragments"`
	Empty     bool     `json:"empty"`
}

type TranslationResult struct {
	Success bool           `json:"success"`
	Text    string         `json:"translated"`
	Source  Source         `json:"source_tag"`
	Query   string         `json:"query"`
	Entry   *lexicon.Entry `json:"entry,omitempty"`
}

// New takes ownership of the handles in opts. Any handle may be nil; calls
// that need it fail with EngineUnavailable.
func New(opts Options) *Service {
	if opts.Source == "" {
		opts.Source = "en"
	}
	if opts.Target == "" {
		opts.Target = "zh"
	}
	return &Service{
		recognizer:    opts.Recognizer,
		translator:    opts.Translator,
		lexicon:       opts.Lexicon,
		source:        opts.Source,
		target:        opts.Target,
		recognizeLane: worker.New("recognize", 1),
		translateLane: worker.New("translate", 1),
	}
}

// Close releases the engines and the dictionary.
func (s *Service) Close() error {
	s.recognizeLane.Close()
	s.translateLane.Close()

	var errs []error
	if s.recognizer != nil {
		errs = append(errs, s.recognizer.Close())
	}
	if s.lexicon != nil {
		errs = append(errs, s.lexicon.Close())
	}
	return errors.Join(errs...)
}

func (s *Service) Languages() (string, string) { return s.source, s.target }

// Recognize runs the recognition engine and joins its fragments with single
// spaces. No fragments is reported as Empty, not as an error.
func (s *Service) Recognize(ctx context.Context, png []byte) (Recognition, error) {
	if s.recognizer == nil {
		return Recognition{}, apperr.NewUnavailable("recognizer", nil)
	}
	if len(png) == 0 {
		return Recognition{}, apperr.NewInvalidRequest("empty image")
	}

	start := time.Now()
	fragments, err := worker.Call(ctx, s.recognizeLane, func(ctx context.Context) ([]string, error) {
		return s.recognizer.Recognize(ctx, png)
	})
	if err != nil {
		log.Printf("Recognize: %s failed after %v: %v", s.recognizer.Name(), time.Since(start), err)
		return Recognition{}, engineError(apperr.RecognitionFailed, err)
	}

	text := strings.Join(fragments, " ")
	log.Printf("Recognize: %d fragments in %v: %s", len(fragments), time.Since(start), logutil.Sanitize(text))
	return Recognition{
		Text:      text,
		Fragments: fragments,
		Empty:     strings.TrimSpace(text) == "",
	}, nil
}

// Translate routes text with the configured language pair.
func (s *Service) Translate(ctx context.Context, text string) (TranslationResult, error) {
	return s.TranslateWith(ctx, text, s.source, s.target)
}

// TranslateWith answers single tokens from the dictionary when possible and
// sends everything else to the translation engine. A dictionary miss falls
// through to the engine silently.
func (s *Service) TranslateWith(ctx context.Context, text, source, target string) (TranslationResult, error) {
	query := strings.TrimSpace(text)
	if query == "" {
		return TranslationResult{}, apperr.NewInvalidRequest("text is required")
	}
	if source == "" {
		source = s.source
	}
	if target == "" {
		target = s.target
	}

	if s.lexicon != nil && IsSingleToken(query) {
		entry, err := s.lexicon.Lookup(ctx, query)
		switch {
		case err == nil:
			return TranslationResult{
				Success: true,
				Text:    lexicon.Format(entry),
				Source:  SourceLexicon,
				Query:   query,
				Entry:   &entry,
			}, nil
		case apperr.Is(err, apperr.LexiconMiss):
			log.Printf("Translate: %q not in dictionary, using engine", logutil.Sanitize(query))
		default:
			log.Printf("Translate: dictionary error, using engine: %v", err)
		}
	}

	if s.translator == nil {
		return TranslationResult{}, apperr.NewUnavailable("translator", nil)
	}

	translated, err := worker.Call(ctx, s.translateLane, func(ctx context.Context) (string, error) {
		return s.translator.Translate(ctx, query, source, target)
	})
	if err != nil {
		log.Printf("Translate: %s failed: %v", s.translator.Name(), err)
		return TranslationResult{}, engineError(apperr.TranslationFailed, err)
	}

	return TranslationResult{
		Success: true,
		Text:    translated,
		Source:  SourceEngine,
		Query:   query,
	}, nil
}

// DictionaryLookup queries the dictionary directly. Unlike Translate a miss is
// reported as NotFound.
func (s *Service) DictionaryLookup(ctx context.Context, word string) (lexicon.Entry, error) {
	if s.lexicon == nil {
		return lexicon.Entry{}, apperr.NewUnavailable("lexicon", nil)
	}
	word = strings.TrimSpace(word)
	if word == "" {
		return lexicon.Entry{}, apperr.NewInvalidRequest("word is required")
	}

	entry, err := s.lexicon.Lookup(ctx, word)
	if apperr.Is(err, apperr.LexiconMiss) {
		return lexicon.Entry{}, apperr.NewNotFound(word)
	}
	if err != nil {
		return lexicon.Entry{}, apperr.Wrap(apperr.Internal, err)
	}
	return entry, nil
}

// Similar lists dictionary words that start with prefix.
func (s *Service) Similar(ctx context.Context, prefix string, limit int) ([]string, error) {
	if s.lexicon == nil {
		return nil, apperr.NewUnavailable("lexicon", nil)
	}
	if strings.TrimSpace(prefix) == "" {
		return nil, apperr.NewInvalidRequest("prefix is required")
	}
	words, err := s.lexicon.Similar(ctx, prefix, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, err)
	}
	return words, nil
}

// Family returns word and its inflected forms.
func (s *Service) Family(ctx context.Context, word string) ([]lexicon.Inflection, error) {
	entry, err := s.DictionaryLookup(ctx, word)
	if err != nil {
		return nil, err
	}
	return lexicon.Family(entry), nil
}

// IsSingleToken reports whether text should be looked up as one dictionary
// word: after removing hyphens and apostrophes, what is left must be
// non-empty and made only of letters.
func IsSingleToken(text string) bool {
	text = strings.TrimSpace(text)
	n := 0
	for _, r := range text {
		switch r {
		case '-', '\'', '’':
			continue
		}
		if !unicode.IsLetter(r) {
			return false
		}
		n++
	}
	return n > 0
}

// engineError classifies an engine failure. Unavailable engines keep their
// code; deadline overruns get the timeout reason.
func engineError(code apperr.ErrorCode, err error) error {
	if apperr.Is(err, apperr.EngineUnavailable) {
		return err
	}
	return apperr.Timeout(code, err)
}
