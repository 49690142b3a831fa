package validation

import (
	"strings"

	"plancheck/internal/extraction"
)

// Index is a case-insensitive full-text search over a submission's text
// blocks and table cells. Built once per dispatch pass; read-only after.
type Index struct {
	entries []indexEntry
}

type indexEntry struct {
	text  string // original casing, for snippets
	lower string
	page  int
}

// snippetRadius bounds how much surrounding text a snippet carries.
const snippetRadius = 60

// NewIndex flattens text blocks and table cells into a searchable form.
func NewIndex(res *extraction.Result) *Index {
	idx := &Index{}
	if res == nil {
		return idx
	}
	for _, block := range res.TextBlocks {
		if block.Content == "" {
			continue
		}
		idx.entries = append(idx.entries, indexEntry{
			text:  block.Content,
			lower: strings.ToLower(block.Content),
			page:  block.PageNumber,
		})
	}
	for _, table := range res.Tables {
		for _, row := range table.Rows {
			joined := strings.Join(row, " | ")
			if strings.TrimSpace(joined) == "" {
				continue
			}
			idx.entries = append(idx.entries, indexEntry{
				text:  joined,
				lower: strings.ToLower(joined),
				page:  table.PageNumber,
			})
		}
	}
	return idx
}

// Contains reports whether the term appears anywhere in the indexed text.
func (idx *Index) Contains(term string) bool {
	_, ok := idx.Snippet(term)
	return ok
}

// Snippet returns a short excerpt around the first occurrence of term.
func (idx *Index) Snippet(term string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return "", false
	}
	for _, e := range idx.entries {
		pos := strings.Index(e.lower, needle)
		if pos < 0 {
			continue
		}
		start := pos - snippetRadius
		if start < 0 {
			start = 0
		}
		end := pos + len(needle) + snippetRadius
		if end > len(e.text) {
			end = len(e.text)
		}
		return strings.TrimSpace(e.text[start:end]), true
	}
	return "", false
}

// AnyOf reports the first term from the list found in the index.
func (idx *Index) AnyOf(terms []string) (string, bool) {
	for _, t := range terms {
		if idx.Contains(t) {
			return t, true
		}
	}
	return "", false
}
