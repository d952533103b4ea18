// Package query builds incremental search requests for one supplier.
package query

import (
	"fmt"
	"time"

	"supwatch/internal/config"
	"supwatch/internal/perplexity"
)

const systemPrompt = "You are a monitoring assistant that scans websites for new content. " +
	"List only content that has been published recently. Format each result item with a title, " +
	"brief summary, and link. If no new content is found, clearly state that."

// The recency filter is a coarse upper bound; the date filter derived
// from the last scan is the tighter constraint when one exists.
const recencyFilter = "month"

// Builder turns a supplier descriptor plus the last-scan timestamp into
// an API request payload.
type Builder struct {
	model string
	now   func() time.Time
}

// NewBuilder creates a builder for the given model.
func NewBuilder(model string) *Builder {
	return &Builder{model: model, now: time.Now}
}

// NewBuilderWithClock creates a builder with an injected clock, useful
// for testing.
func NewBuilderWithClock(model string, now func() time.Time) *Builder {
	return &Builder{model: model, now: now}
}

// Build constructs the request for one supplier. A nil lastScan means
// first run: no time-frame phrase and no date filter.
func (b *Builder) Build(supplier config.SupplierConfig, lastScan *time.Time) perplexity.Request {
	instruction := fmt.Sprintf(
		"Find %s from %s%s. Focus only on new content published since yesterday. "+
			"Format each result with the title, a brief summary, and the URL.",
		supplier.Query,
		supplier.Domain,
		phraseSuffix(b.timeFramePhrase(lastScan)),
	)

	req := perplexity.Request{
		Model: b.model,
		Messages: []perplexity.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: instruction},
		},
		SearchDomainFilter:  []string{supplier.Domain},
		SearchRecencyFilter: recencyFilter,
	}

	if lastScan != nil {
		req.SearchAfterDateFilter = lastScan.Format("01/02/2006")
	}

	return req
}

// timeFramePhrase derives the advisory phrase from how long ago the last
// scan was. The phrase and the date filter both derive from the same
// timestamp but the phrase is not authoritative.
func (b *Builder) timeFramePhrase(lastScan *time.Time) string {
	if lastScan == nil {
		return ""
	}

	days := int(b.now().Sub(*lastScan).Hours() / 24)

	switch {
	case days <= 1:
		return "in the last day"
	case days <= 7:
		return "in the last week"
	default:
		return fmt.Sprintf("in the last %d days", days)
	}
}

func phraseSuffix(phrase string) string {
	if phrase == "" {
		return ""
	}

	return " " + phrase
}
