package lexicon

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const schema = `
CREATE TABLE IF NOT EXISTS stardict (
	id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL UNIQUE,
	word VARCHAR(64) COLLATE NOCASE NOT NULL UNIQUE,
	sw VARCHAR(64) COLLATE NOCASE NOT NULL,
	phonetic VARCHAR(64),
	definition TEXT,
	translation TEXT,
	pos VARCHAR(16),
	collins INTEGER DEFAULT(0),
	oxford INTEGER DEFAULT(0),
	tag VARCHAR(64),
	bnc INTEGER DEFAULT(NULL),
	frq INTEGER DEFAULT(NULL),
	exchange TEXT,
	detail TEXT,
	audio TEXT
);
CREATE INDEX IF NOT EXISTS stardict_sw ON stardict (sw, word COLLATE NOCASE);
`

// Create writes entries into a dictionary database at path, creating the
// schema when missing. Existing words are replaced.
func Create(ctx context.Context, path string, entries []Entry) error {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("failed to create dictionary: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO stardict
		(word, sw, phonetic, definition, translation, pos, collins, oxford, tag, bnc, frq, exchange, audio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if strings.TrimSpace(e.Word) == "" {
			continue
		}
		stem := e.Stem
		if stem == "" {
			stem = StripWord(e.Word)
		}
		oxford := 0
		if e.Oxford {
			oxford = 1
		}
		if _, err := stmt.ExecContext(ctx, e.Word, stem, e.Phonetic, e.Definition, e.Translation,
			FormatPOS(e.POS), e.Collins, oxford, e.Tag, e.BNC, e.Frequency, FormatExchange(e.Exchange), e.Audio); err != nil {
			return fmt.Errorf("insert %q: %w", e.Word, err)
		}
	}
	return tx.Commit()
}

// ImportCSV loads an ECDICT CSV export (with header row) into path and
// returns the number of entries written.
func ImportCSV(ctx context.Context, r io.Reader, path string) (int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return 0, fmt.Errorf("failed to read csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	if _, ok := col["word"]; !ok {
		return 0, errors.New("csv has no word column")
	}

	field := func(rec []string, name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return rec[i]
		}
		return ""
	}
	num := func(rec []string, name string) int {
		n, _ := strconv.Atoi(strings.TrimSpace(field(rec, name)))
		return n
	}

	var entries []Entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("csv line %d: %w", len(entries)+2, err)
		}
		entries = append(entries, Entry{
			Word:        field(rec, "word"),
			Phonetic:    field(rec, "phonetic"),
			Definition:  field(rec, "definition"),
			Translation: field(rec, "translation"),
			POS:         ParsePOS(field(rec, "pos")),
			Collins:     num(rec, "collins"),
			Oxford:      num(rec, "oxford") != 0,
			Tag:         field(rec, "tag"),
			BNC:         num(rec, "bnc"),
			Frequency:   num(rec, "frq"),
			Exchange:    ParseExchange(field(rec, "exchange")),
			Audio:       field(rec, "audio"),
		})
	}

	if err := Create(ctx, path, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// FormatPOS is the inverse of ParsePOS.
func FormatPOS(shares []POSShare) string {
	parts := make([]string, 0, len(shares))
	for _, p := range shares {
		parts = append(parts, p.Tag+":"+strconv.Itoa(p.Percent))
	}
	return strings.Join(parts, "/")
}

// FormatExchange is the inverse of ParseExchange.
func FormatExchange(in []Inflection) string {
	parts := make([]string, 0, len(in))
	for _, i := range in {
		parts = append(parts, string(i.Kind)+":"+i.Form)
	}
	return strings.Join(parts, "/")
}
