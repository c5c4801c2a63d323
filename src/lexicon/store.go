package lexicon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"screen-translator/src/apperr"
)

const selectColumns = `word, sw, phonetic, definition, translation, pos, collins, oxford, tag, bnc, frq, exchange, audio`

// Store is a read-only view of an ECDICT "stardict" table. It is safe for
// concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens an existing dictionary database read-only.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dictionary database not found: %w", err)
	}

	dsn := path + "?_pragma=query_only(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary: %w", err)
	}

	var name string
	err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'stardict'`).Scan(&name)
	if err != nil {
		db.Close()
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s has no stardict table", path)
		}
		return nil, fmt.Errorf("failed to inspect dictionary: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error { return s.db.Close() }

// Ping checks that the database still answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Lookup finds word by exact (case-insensitive) match on the word column, or
// by its stripped form on the stem column. A miss returns an apperr.LexiconMiss
// error.
func (s *Store) Lookup(ctx context.Context, word string) (Entry, error) {
	key := strings.ToLower(strings.TrimSpace(word))
	if key == "" {
		return Entry{}, apperr.New(apperr.LexiconMiss, "empty word")
	}

	stem := StripWord(key)
	if stem == "" {
		stem = key
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM stardict WHERE word = ? OR sw = ? ORDER BY word = ? DESC LIMIT 1`,
		key, stem, key)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, apperr.New(apperr.LexiconMiss, "no entry for "+key)
	}
	if err != nil {
		return Entry{}, fmt.Errorf("dictionary lookup failed: %w", err)
	}
	return e, nil
}

// Similar lists up to limit words starting with prefix.
func (s *Store) Similar(ctx context.Context, prefix string, limit int) ([]string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, nil
	}
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT word FROM stardict WHERE word LIKE ? ESCAPE '\' ORDER BY word LIMIT ?`,
		escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("similar-word query failed: %w", err)
	}
	defer rows.Close()

	var words []string
	for rows.Next() {
		var w string
		if err := rows.Scan(&w); err != nil {
			return nil, err
		}
		words = append(words, w)
	}
	return words, rows.Err()
}

// Count returns the number of entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stardict`).Scan(&n)
	return n, err
}

// Family returns the base word followed by its inflections.
func Family(e Entry) []Inflection {
	out := []Inflection{{Kind: "base", Form: e.Word}}
	return append(out, e.Exchange...)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (Entry, error) {
	var (
		word, sw                               string
		phonetic, definition, translation, pos sql.NullString
		tag, exchange, audio                   sql.NullString
		collins, oxford, bnc, frq              sql.NullInt64
	)
	if err := row.Scan(&word, &sw, &phonetic, &definition, &translation, &pos,
		&collins, &oxford, &tag, &bnc, &frq, &exchange, &audio); err != nil {
		return Entry{}, err
	}
	return Entry{
		Word:        word,
		Stem:        sw,
		Phonetic:    phonetic.String,
		Definition:  definition.String,
		Translation: translation.String,
		POS:         ParsePOS(pos.String),
		Collins:     int(collins.Int64),
		Oxford:      oxford.Int64 != 0,
		Tag:         tag.String,
		BNC:         int(bnc.Int64),
		Frequency:   int(frq.Int64),
		Exchange:    ParseExchange(exchange.String),
		Audio:       audio.String,
	}, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
