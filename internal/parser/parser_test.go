package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supwatch/internal/logger"
	"supwatch/internal/models"
)

func newTestParser() *Parser {
	return NewParser(logger.NewNop())
}

func TestParser_Parse_NoContentSignals(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{
			name: "No new content",
			text: "No new content was found for this supplier in the given period.",
		},
		{
			name: "No recent, mixed case",
			text: "There are NO RECENT updates from this domain.",
		},
		{
			name: "Couldn't find",
			text: "I couldn't find anything relevant published since your last check.",
		},
		{
			name: "Signal buried in otherwise parseable text",
			text: "Edgecore launches NG-OLT\n* Summary here.\nUnfortunately no new content beyond that.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			articles := newTestParser().Parse(tt.text, "Edgecore Networks")
			assert.Empty(t, articles)
		})
	}
}

func TestParser_Parse_TitleBulletsAndLink(t *testing.T) {
	text := "Edgecore launches NG-OLT\n" +
		"* New line of optical line terminals.\n" +
		"* https://edgecore.com/news/1\n"

	articles := newTestParser().Parse(text, "Edgecore Networks")

	require.Len(t, articles, 1)
	assert.Equal(t, models.Article{
		Title:   "Edgecore launches NG-OLT",
		Summary: "New line of optical line terminals.",
		Link:    "https://edgecore.com/news/1",
	}, articles[0])
}

func TestParser_Parse_BulletLinkDoesNotClose(t *testing.T) {
	// The link arrives before the summary; bullet links attach without
	// closing, so the summary still lands on the same article.
	text := "Edgecore launches NG-OLT\n" +
		"* https://edgecore.com/news/1\n" +
		"* New line of optical line terminals.\n"

	articles := newTestParser().Parse(text, "Edgecore Networks")

	require.Len(t, articles, 1)
	assert.Equal(t, "Edgecore launches NG-OLT", articles[0].Title)
	assert.Equal(t, "New line of optical line terminals.", articles[0].Summary)
	assert.Equal(t, "https://edgecore.com/news/1", articles[0].Link)
}

func TestParser_Parse_BareLinkClosesArticle(t *testing.T) {
	text := "First announcement\n" +
		"* First summary.\n" +
		"https://edgecore.com/news/1\n" +
		"Second announcement\n" +
		"* Second summary.\n" +
		"https://edgecore.com/news/2\n"

	articles := newTestParser().Parse(text, "Edgecore Networks")

	require.Len(t, articles, 2)
	assert.Equal(t, "https://edgecore.com/news/1", articles[0].Link)
	assert.Equal(t, "Second announcement", articles[1].Title)
	assert.Equal(t, "https://edgecore.com/news/2", articles[1].Link)
}

func TestParser_Parse_URLExtractionStopsAtWhitespace(t *testing.T) {
	text := "Product launch\n" +
		"* Short summary.\n" +
		"Read more at https://edgecore.com/news/1 for details\n"

	articles := newTestParser().Parse(text, "Edgecore Networks")

	require.Len(t, articles, 1)
	assert.Equal(t, "https://edgecore.com/news/1", articles[0].Link)
}

func TestParser_Parse_BareLinkWithoutPendingArticleIgnored(t *testing.T) {
	text := "https://edgecore.com/news/1\n" +
		"Title without anything else\n"

	articles := newTestParser().Parse(text, "Edgecore Networks")

	// The orphan URL carries nothing on its own and the trailing
	// title-only article fails the validity filter.
	assert.Empty(t, articles)
}

func TestParser_Parse_ExtraBulletsDiscarded(t *testing.T) {
	text := "Announcement\n" +
		"- First summary.\n" +
		"- Second bullet that has nowhere to go.\n" +
		"- https://edgecore.com/news/1\n"

	articles := newTestParser().Parse(text, "Edgecore Networks")

	require.Len(t, articles, 1)
	assert.Equal(t, "First summary.", articles[0].Summary)
	assert.Equal(t, "https://edgecore.com/news/1", articles[0].Link)
}

func TestParser_Parse_OrphanBulletDiscarded(t *testing.T) {
	text := "* A bullet with no article open\n"

	articles := newTestParser().Parse(text, "Edgecore Networks")

	assert.Empty(t, articles)
}

func TestParser_Parse_UnicodeBulletMarker(t *testing.T) {
	text := "Announcement\n" +
		"• Bullet summary.\n" +
		"• https://edgecore.com/news/1\n"

	articles := newTestParser().Parse(text, "Edgecore Networks")

	require.Len(t, articles, 1)
	assert.Equal(t, "Bullet summary.", articles[0].Summary)
	assert.Equal(t, "https://edgecore.com/news/1", articles[0].Link)
}

func TestParser_Parse_ConsecutiveTitleLines(t *testing.T) {
	// A plain line opens a new article and closes the previous one; a
	// closed article with neither summary nor link is filtered out.
	text := "Edgecore launches NG-OLT\n" +
		"New line of optical line terminals.\n" +
		"https://edgecore.com/news/1\n"

	articles := newTestParser().Parse(text, "Edgecore Networks")

	require.Len(t, articles, 1)
	assert.Equal(t, "New line of optical line terminals.", articles[0].Title)
	assert.Equal(t, "https://edgecore.com/news/1", articles[0].Link)
}

func TestParser_Parse_BlankLinesAndWhitespace(t *testing.T) {
	text := "\n\n   Announcement   \n\n" +
		"   * Trimmed summary.   \n\n"

	articles := newTestParser().Parse(text, "Edgecore Networks")

	require.Len(t, articles, 1)
	assert.Equal(t, "Announcement", articles[0].Title)
	assert.Equal(t, "Trimmed summary.", articles[0].Summary)
}

func TestParser_Parse_ValidityFilter(t *testing.T) {
	text := "Title without substance\n" +
		"Another bare title\n"

	articles := newTestParser().Parse(text, "Edgecore Networks")

	assert.Empty(t, articles)
}

func TestParser_Parse_EmptyInput(t *testing.T) {
	assert.Empty(t, newTestParser().Parse("", "Edgecore Networks"))
}
