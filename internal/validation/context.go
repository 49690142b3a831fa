package validation

import (
	"context"

	"plancheck/internal/delta"
	"plancheck/internal/extraction"
	id "plancheck/pkg/domain"
)

// Context bundles everything a validator may need for one submission.
// Version-aware categories additionally need the submission identity and a
// repository handle; validators that find them missing fail soft.
type Context struct {
	// Extraction is the normalized bundle for the submission under review.
	Extraction *extraction.Result

	// Index searches text blocks and table cells. Built by NewContext when
	// nil so validators can always assume it exists.
	Index *Index

	// SubmissionID is zero when the caller validates raw extraction output
	// that has not been persisted yet.
	SubmissionID id.SubmissionID

	// Submissions is the repository handle for version-aware rules; may be
	// nil in repository-less runs.
	Submissions delta.SubmissionStore

	// ApplicationType scopes applies_to filtering, e.g. "householder".
	ApplicationType string
}

// NewContext builds a dispatch context, constructing the search index.
func NewContext(res *extraction.Result) *Context {
	return &Context{Extraction: res, Index: NewIndex(res)}
}

// index returns the search index, building it lazily for hand-rolled
// contexts in tests.
func (c *Context) index() *Index {
	if c.Index == nil {
		c.Index = NewIndex(c.Extraction)
	}
	return c.Index
}

// versionAware reports whether the context can serve version-aware rules.
func (c *Context) versionAware() bool {
	return c.SubmissionID != 0 && c.Submissions != nil
}

// lookupVersion fetches the persisted view of the submission under review.
func (c *Context) lookupVersion(ctx context.Context) (*delta.SubmissionVersion, error) {
	return c.Submissions.GetVersion(ctx, c.SubmissionID)
}
