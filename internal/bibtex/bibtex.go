// Package bibtex parses BibTeX entry records from raw text.
//
// Field values in BibTeX may contain nested braces (e.g. {The {PaLI} Model}),
// so both entry bodies and field values are delimited by tracking brace depth
// rather than matching to the first closing brace.
package bibtex

import (
	"regexp"
	"strconv"
	"strings"
)

// Entry is a single bibliographic record. Entries are immutable once parsed.
type Entry struct {
	Key     string   `json:"key"`
	Type    string   `json:"type"`
	Title   string   `json:"title"`
	Year    int      `json:"year,omitempty"` // 0 when absent or non-numeric
	Authors []string `json:"authors,omitempty"`
	ArXivID string   `json:"arxiv_id,omitempty"`
}

// entryHeaderRe matches an entry header: @type{key,
// It deliberately matches only the header; the body is delimited separately
// by brace counting since bodies contain nested braces.
var entryHeaderRe = regexp.MustCompile(`@(\w+)\s*\{\s*([^,]+),`)

// arXiv identifiers appear either inline (arXiv:2301.00001) or in an
// eprint field.
var (
	arxivInlineRe = regexp.MustCompile(`(?i)arXiv:(\d+\.\d+)`)
	arxivEprintRe = regexp.MustCompile(`(?i)\beprint\s*=\s*\{?(\d+\.\d+)\}?`)
)

// Parse scans raw text for BibTeX entries and returns them in document order.
//
// Entries whose body never balances its braces are skipped entirely, and
// entries without a usable title are dropped. A year that fails integer
// conversion leaves Year zero rather than failing the entry.
func Parse(text string) []Entry {
	var entries []Entry

	for _, loc := range entryHeaderRe.FindAllStringSubmatchIndex(text, -1) {
		end := balancedEnd(text, loc[0])
		if end < 0 {
			continue // malformed entry, no closing brace
		}

		body := text[loc[1]:end]
		e := Entry{
			Type:  text[loc[2]:loc[3]],
			Key:   strings.TrimSpace(text[loc[4]:loc[5]]),
			Title: ExtractField(body, "title"),
		}
		if e.Title == "" {
			continue // not a usable record
		}

		if year, err := strconv.Atoi(ExtractField(body, "year")); err == nil {
			e.Year = year
		}
		e.Authors = SplitAuthors(ExtractField(body, "author"))
		e.ArXivID = findArXivID(body)

		entries = append(entries, e)
	}

	return entries
}

// balancedEnd scans forward from start and returns the index of the brace
// that closes the entry opened after the key, or -1 if the braces never
// balance before end of input.
func balancedEnd(text string, start int) int {
	depth := 0
	opened := false
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
			opened = true
		case '}':
			depth--
		}
		if opened && depth == 0 {
			return i
		}
	}
	return -1
}

// ExtractField extracts the named field's value from an entry body.
// Returns "" if the field is absent.
func ExtractField(body, name string) string {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\s*=\s*`)
	m := re.FindStringIndex(body)
	if m == nil {
		return ""
	}
	return CleanValue(fieldValue(body[m[1]:]))
}

// fieldValue reads a raw field value starting at s[0].
//
// A braced value runs to the brace balancing the opener, so nesting inside
// the value does not truncate it. A quoted value runs to the next unescaped
// quote. A bare value runs to the next comma or line break.
func fieldValue(s string) string {
	if s == "" {
		return ""
	}

	switch s[0] {
	case '{':
		depth := 0
		for i := 0; i < len(s); i++ {
			switch s[i] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				return s[1:i]
			}
		}
		return s[1:] // unterminated, take the rest

	case '"':
		for i := 1; i < len(s); i++ {
			if s[i] == '"' && s[i-1] != '\\' {
				return s[1:i]
			}
		}
		return s[1:]

	default:
		end := len(s)
		if c := strings.IndexByte(s, ','); c >= 0 && c < end {
			end = c
		}
		if n := strings.IndexByte(s, '\n'); n >= 0 && n < end {
			end = n
		}
		return s[:end]
	}
}

// CleanValue strips braces remaining inside a value, collapses newlines,
// tabs, and whitespace runs to single spaces, and trims the result.
func CleanValue(v string) string {
	v = strings.NewReplacer("{", "", "}", "", "\n", " ", "\r", " ", "\t", " ").Replace(v)
	return strings.Join(strings.Fields(v), " ")
}

var authorSepRe = regexp.MustCompile(`(?i)\s+and\s+`)

// SplitAuthors splits a BibTeX author field on the "and" separator into
// individually whitespace-normalized author names.
func SplitAuthors(field string) []string {
	if field == "" {
		return nil
	}

	var authors []string
	for _, name := range authorSepRe.Split(field, -1) {
		name = strings.Join(strings.Fields(name), " ")
		if name != "" {
			authors = append(authors, name)
		}
	}
	return authors
}

// findArXivID looks for an arXiv identifier either as an inline token
// anywhere in the body or as an eprint field.
func findArXivID(body string) string {
	if m := arxivInlineRe.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	if m := arxivEprintRe.FindStringSubmatch(body); m != nil {
		return m[1]
	}
	return ""
}
