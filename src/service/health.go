package service

import (
	"context"
	"sort"
)

// EngineStatus describes one owned handle.
type EngineStatus struct {
	Name        string `json:"name"`
	Initialized bool   `json:"initialized"`
	Reachable   bool   `json:"reachable"`
	Required    bool   `json:"required"`
	Error       string `json:"error,omitempty"`
}

type Health struct {
	OK      bool                    `json:"ok"`
	Engines map[string]EngineStatus `json:"engines"`
}

// Unavailable lists the required engines that are not ready.
func (h Health) Unavailable() []string {
	var out []string
	for key, st := range h.Engines {
		if st.Required && !(st.Initialized && st.Reachable) {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}

type pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck pings every handle. The dictionary is optional: without it
// every query goes to the translation engine.
func (s *Service) HealthCheck(ctx context.Context) Health {
	h := Health{Engines: map[string]EngineStatus{}}

	check := func(key, name string, p pinger, initialized, required bool) {
		st := EngineStatus{Name: name, Initialized: initialized, Required: required}
		if !initialized {
			st.Error = "not initialized"
			h.Engines[key] = st
			return
		}
		pctx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := p.Ping(pctx); err != nil {
			st.Error = err.Error()
		} else {
			st.Reachable = true
		}
		h.Engines[key] = st
	}

	if s.recognizer != nil {
		check("recognizer", s.recognizer.Name(), s.recognizer, true, true)
	} else {
		check("recognizer", "", nil, false, true)
	}
	if s.translator != nil {
		check("translator", s.translator.Name(), s.translator, true, true)
	} else {
		check("translator", "", nil, false, true)
	}
	if s.lexicon != nil {
		check("lexicon", s.lexicon.Path(), s.lexicon, true, false)
	} else {
		check("lexicon", "", nil, false, false)
	}

	h.OK = len(h.Unavailable()) == 0
	return h
}
