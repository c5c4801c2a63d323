package lexicon

import (
	"strconv"
	"strings"
)

// Entry is one dictionary record. Entries are immutable once loaded.
type Entry struct {
	Word        string       `json:"word"`
	Stem        string       `json:"stem,omitempty"`
	Phonetic    string       `json:"phonetic,omitempty"`
	Definition  string       `json:"definition,omitempty"`
	Translation string       `json:"translation,omitempty"`
	POS         []POSShare   `json:"pos,omitempty"`
	Collins     int          `json:"collins,omitempty"`
	Oxford      bool         `json:"oxford"`
	Tag         string       `json:"tag,omitempty"`
	BNC         int          `json:"bnc,omitempty"`
	Frequency   int          `json:"frequency,omitempty"`
	Exchange    []Inflection `json:"exchange,omitempty"`
	Audio       string       `json:"audio,omitempty"`
}

// POSShare is one part-of-speech tag and its usage share. Shares are display
// only and need not sum to 100.
type POSShare struct {
	Tag     string `json:"tag"`
	Percent int    `json:"percent"`
}

// InflectionKind is the one-character exchange key used by ECDICT.
type InflectionKind string

const (
	Past           InflectionKind = "p"
	PastParticiple InflectionKind = "d"
	PresentPart    InflectionKind = "i"
	ThirdPerson    InflectionKind = "3"
	Comparative    InflectionKind = "r"
	Superlative    InflectionKind = "t"
	Plural         InflectionKind = "s"
	Lemma          InflectionKind = "0"
	LemmaVariant   InflectionKind = "1"
)

var inflectionLabels = map[InflectionKind]string{
	Past:           "past",
	PastParticiple: "past participle",
	PresentPart:    "present participle",
	ThirdPerson:    "third person",
	Comparative:    "comparative",
	Superlative:    "superlative",
	Plural:         "plural",
	Lemma:          "lemma",
	LemmaVariant:   "lemma form",
}

// Label returns a readable name, or the raw key for unknown kinds.
func (k InflectionKind) Label() string {
	if l, ok := inflectionLabels[k]; ok {
		return l
	}
	return string(k)
}

// Inflection is one row of the inflection table.
type Inflection struct {
	Kind InflectionKind `json:"kind"`
	Form string         `json:"form"`
}

// Form returns the surface form for kind, if present.
func (e Entry) Form(kind InflectionKind) (string, bool) {
	for _, in := range e.Exchange {
		if in.Kind == kind {
			return in.Form, true
		}
	}
	return "", false
}

// ParsePOS parses a distribution like "u:97/n:3". Malformed items are skipped.
func ParsePOS(s string) []POSShare {
	var out []POSShare
	for _, part := range strings.Split(s, "/") {
		tag, pct, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		tag = strings.TrimSpace(tag)
		n, err := strconv.Atoi(strings.TrimSpace(pct))
		if tag == "" || err != nil {
			continue
		}
		out = append(out, POSShare{Tag: tag, Percent: n})
	}
	return out
}

// ParseExchange parses an inflection table like "p:ran/d:run/i:running/3:runs".
func ParseExchange(s string) []Inflection {
	var out []Inflection
	for _, part := range strings.Split(s, "/") {
		key, form, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		form = strings.TrimSpace(form)
		if key == "" || form == "" {
			continue
		}
		out = append(out, Inflection{Kind: InflectionKind(key), Form: form})
	}
	return out
}

// Glosses returns translation lines, dropping sentence-style explanations
// (lines containing '。'). ECDICT stores line breaks either raw or escaped.
func Glosses(translation string) []string {
	var out []string
	for _, line := range splitLines(translation) {
		if strings.Contains(line, "。") {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Definitions returns the non-empty English definition lines.
func Definitions(definition string) []string {
	return splitLines(definition)
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// StripWord computes ECDICT's "sw" key: lower-cased letters and digits only.
func StripWord(w string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(w) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}
