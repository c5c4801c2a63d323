package lexicon

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	// MaxGlosses caps the translation lines shown for one entry.
	MaxGlosses = 5
	// ExcerptWidth is the display width of the definition excerpt.
	ExcerptWidth = 80

	separator = " · "
)

// Display is the parsed form of Format's output.
type Display struct {
	Word     string
	Phonetic string
	POS      []POSShare
	Glosses  []string
	Excerpt  string
}

// Excerpt joins the English definitions and truncates them to width display
// cells, ending in an ellipsis when cut.
func Excerpt(definition string, width int) string {
	if width <= 0 {
		width = ExcerptWidth
	}
	joined := strings.Join(Definitions(definition), "; ")
	return runewidth.Truncate(joined, width, "…")
}

// Format renders e as the multi-line text returned for single-token lookups.
// Sections without data are omitted.
func Format(e Entry) string {
	var b strings.Builder

	b.WriteString(e.Word)
	if e.Phonetic != "" {
		fmt.Fprintf(&b, " [%s]", e.Phonetic)
	}
	b.WriteByte('\n')

	if len(e.POS) > 0 {
		parts := make([]string, 0, len(e.POS))
		for _, p := range e.POS {
			parts = append(parts, fmt.Sprintf("%s %d%%", p.Tag, p.Percent))
		}
		b.WriteString("pos: " + strings.Join(parts, separator) + "\n")
	}

	glosses := Glosses(e.Translation)
	if len(glosses) > MaxGlosses {
		glosses = glosses[:MaxGlosses]
	}
	for i, g := range glosses {
		fmt.Fprintf(&b, "%d. %s\n", i+1, g)
	}

	if ex := Excerpt(e.Definition, ExcerptWidth); ex != "" {
		b.WriteString("def: " + ex + "\n")
	}

	if info := extraInfo(e); info != "" {
		b.WriteString("info: " + info + "\n")
	}

	if len(e.Exchange) > 0 {
		parts := make([]string, 0, len(e.Exchange))
		for _, in := range e.Exchange {
			parts = append(parts, in.Kind.Label()+" "+in.Form)
		}
		b.WriteString("forms: " + strings.Join(parts, separator) + "\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func extraInfo(e Entry) string {
	var parts []string
	if e.Collins > 0 {
		parts = append(parts, "Collins "+strings.Repeat("★", e.Collins))
	}
	if e.Oxford {
		parts = append(parts, "Oxford 3000")
	}
	if e.Frequency > 0 {
		parts = append(parts, "frq "+strconv.Itoa(e.Frequency))
	}
	if e.BNC > 0 {
		parts = append(parts, "bnc "+strconv.Itoa(e.BNC))
	}
	return strings.Join(parts, separator)
}

// ParseDisplay recovers the structured fields from Format output.
func ParseDisplay(s string) Display {
	lines := strings.Split(s, "\n")
	var d Display
	if len(lines) == 0 {
		return d
	}

	head := lines[0]
	if i := strings.LastIndex(head, " ["); i >= 0 && strings.HasSuffix(head, "]") {
		d.Word = head[:i]
		d.Phonetic = head[i+2 : len(head)-1]
	} else {
		d.Word = head
	}

	for _, line := range lines[1:] {
		switch {
		case strings.HasPrefix(line, "pos: "):
			d.POS = parsePOSLine(strings.TrimPrefix(line, "pos: "))
		case strings.HasPrefix(line, "def: "):
			d.Excerpt = strings.TrimPrefix(line, "def: ")
		case strings.HasPrefix(line, "info: "), strings.HasPrefix(line, "forms: "):
		default:
			if g, ok := glossLine(line); ok {
				d.Glosses = append(d.Glosses, g)
			}
		}
	}
	return d
}

func parsePOSLine(s string) []POSShare {
	var out []POSShare
	for _, part := range strings.Split(s, separator) {
		tag, pct, ok := strings.Cut(part, " ")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(pct, "%"))
		if err != nil {
			continue
		}
		out = append(out, POSShare{Tag: tag, Percent: n})
	}
	return out
}

func glossLine(line string) (string, bool) {
	num, rest, ok := strings.Cut(line, ". ")
	if !ok {
		return "", false
	}
	if _, err := strconv.Atoi(num); err != nil {
		return "", false
	}
	return rest, true
}
