// Package parser extracts structured article records from the free-form
// natural-language answer text.
//
// The answer format is not contractually structured, so parsing is a
// line-oriented heuristic: a single-article accumulator steps through the
// lines, classifying each as a title line, a bullet line, or a link line,
// and never fabricates a field it did not see.
package parser

import (
	"strings"

	"supwatch/internal/logger"
	"supwatch/internal/models"
)

// Phrases signaling that the answering system found nothing new. Any of
// them short-circuits the parse to an empty result.
var noContentPhrases = []string{
	"no new content",
	"no recent",
	"couldn't find",
}

var bulletMarkers = []string{"*", "-", "•"}

// Parser converts raw answer text into an ordered sequence of articles.
type Parser struct {
	logger *logger.Logger
}

// NewParser creates a new parser instance.
func NewParser(log *logger.Logger) *Parser {
	return &Parser{logger: log}
}

// Parse extracts articles from the answer text. It is total over any
// input; the worst case is an empty sequence. The supplier name is used
// for logging context only.
func (p *Parser) Parse(text, supplierName string) []models.Article {
	if hasNoContentSignal(text) {
		p.logger.Info("no new content found", "supplier", supplierName)

		return nil
	}

	var (
		articles []models.Article
		current  *models.Article
	)

	emit := func() {
		if current != nil {
			articles = append(articles, *current)
			current = nil
		}
	}

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		switch {
		case isBulletLine(line):
			rest := strings.TrimSpace(trimBulletMarker(line))

			if containsURL(rest) {
				// Bullet links attach without closing, so a following
				// bullet can still fill in the summary.
				if current != nil && current.Link == "" {
					current.Link = extractURL(rest)
				}

				continue
			}

			if current == nil {
				continue
			}

			switch {
			case current.Title == "":
				current.Title = rest
			case current.Summary == "":
				current.Summary = rest
			}
			// An article takes at most one title and one summary this
			// way; further bullets are discarded.

		case containsURL(line):
			// A bare URL line completes the pending article. With no
			// pending article there is nothing to attach it to.
			if current != nil && current.Link == "" {
				current.Link = extractURL(line)
				emit()
			}

		default:
			emit()
			current = &models.Article{Title: line}
		}
	}

	emit()

	filtered := make([]models.Article, 0, len(articles))

	for _, a := range articles {
		if a.Valid() {
			filtered = append(filtered, a)
		}
	}

	p.logger.Info("parsed answer", "supplier", supplierName, "articles", len(filtered))

	return filtered
}

func hasNoContentSignal(text string) bool {
	lowered := strings.ToLower(text)

	for _, phrase := range noContentPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}

	return false
}

func isBulletLine(line string) bool {
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(line, marker) {
			return true
		}
	}

	return false
}

func trimBulletMarker(line string) string {
	for _, marker := range bulletMarkers {
		if strings.HasPrefix(line, marker) {
			return line[len(marker):]
		}
	}

	return line
}

func containsURL(line string) bool {
	return strings.Contains(line, "http") && strings.Contains(line, "://")
}

// extractURL returns the URL substring starting at "http" and ending at
// the next whitespace or end of line.
func extractURL(line string) string {
	start := strings.Index(line, "http")
	if start < 0 {
		return ""
	}

	url := line[start:]
	if end := strings.IndexByte(url, ' '); end > 0 {
		url = url[:end]
	}

	return strings.TrimSpace(url)
}
