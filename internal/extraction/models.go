// Package extraction models the normalized output of the external document
// layout/text extraction service. The engine consumes this bundle as-is;
// extraction accuracy is the collaborator's concern.
package extraction

// FieldValue is one extracted field with its confidence and optional unit.
type FieldValue struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Unit       string  `json:"unit,omitempty"`
}

// DocumentRef identifies one submitted document. Content hashes, not
// filenames, are the stable identity across submission versions.
type DocumentRef struct {
	Type        string `json:"type"`
	ContentHash string `json:"content_hash"`
	Filename    string `json:"filename,omitempty"`
}

// TextBlock is one contiguous run of extracted text with its page anchor.
type TextBlock struct {
	Content    string `json:"content"`
	PageNumber int    `json:"page_number"`
}

// Table is one extracted table; cells are row-major strings.
type Table struct {
	Rows       [][]string `json:"rows"`
	PageNumber int        `json:"page_number"`
}

// Result is the full normalized extraction bundle for one submission version.
type Result struct {
	Fields      map[string]FieldValue `json:"fields"`
	Documents   []DocumentRef         `json:"documents"`
	TextBlocks  []TextBlock           `json:"text_blocks"`
	Tables      []Table               `json:"tables"`
	PageAnchors map[string]int        `json:"page_anchors,omitempty"`
}

// Field returns the extracted value for name, if present and non-empty.
func (r *Result) Field(name string) (FieldValue, bool) {
	if r == nil || r.Fields == nil {
		return FieldValue{}, false
	}
	fv, ok := r.Fields[name]
	if !ok || fv.Value == "" {
		return FieldValue{}, false
	}
	return fv, true
}

// HasDocumentType reports whether any submitted document carries the type.
func (r *Result) HasDocumentType(docType string) bool {
	if r == nil {
		return false
	}
	for _, d := range r.Documents {
		if d.Type == docType {
			return true
		}
	}
	return false
}
