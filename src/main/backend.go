package main

import (
	"context"
	"time"

	"screen-translator/src/client"
	"screen-translator/src/lexicon"
	"screen-translator/src/runtimeinit"
	"screen-translator/src/service"
)

// backend is what the front-end commands need from either a remote service
// or an in-process one.
type backend interface {
	Recognize(ctx context.Context, png []byte) (service.Recognition, error)
	Translate(ctx context.Context, text string) (service.TranslationResult, error)
	TranslateWith(ctx context.Context, text, source, target string) (service.TranslationResult, error)
	DictionaryLookup(ctx context.Context, word string) (lexicon.Entry, error)
	Similar(ctx context.Context, prefix string, limit int) ([]string, error)
	HealthCheck(ctx context.Context) service.Health
}

var (
	_ backend = (*service.Service)(nil)
	_ backend = (*client.Client)(nil)
)

func (o *mainOptions) deadline() time.Duration {
	return time.Duration(o.cfg.DeadlineSec) * time.Second
}

// openBackend returns the service selected by --local. The close func is
// always non-nil.
func (o *mainOptions) openBackend() (backend, func(), error) {
	if o.local {
		svc, err := runtimeinit.NewService(o.cfg)
		if err != nil {
			return nil, func() {}, err
		}
		return svc, func() { svc.Close() }, nil
	}
	// Leave headroom over the per-stage deadline so the service reports
	// its own timeout first.
	return client.New(o.cfg.ServiceURL, o.deadline()+5*time.Second), func() {}, nil
}
