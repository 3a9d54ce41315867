package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casebook-dev/casebook/internal/models"
)

func TestEncodeEntry_Frontmatter(t *testing.T) {
	e := &models.JournalEntry{
		ProjectID: "checkout-redesign",
		Date:      "2026-03-14",
		Tags:      []string{"decision", "milestone"},
		Assets:    []string{"1700000000-flow.png"},
		Content: models.EntryContent{
			Decision: "Switched to a single-page checkout.",
			Why:      "Drop-off between steps was 40%.",
		},
	}

	data, err := EncodeEntry(e)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "2026-03-14")
	assert.Contains(t, out, "- decision")
	assert.Contains(t, out, "- 1700000000-flow.png")
	assert.Contains(t, out, "## Decision")
	assert.Contains(t, out, "## Why")
	assert.Contains(t, out, "Switched to a single-page checkout.")
}

func TestEncodeEntry_RawMarkdownWins(t *testing.T) {
	e := &models.JournalEntry{
		Date:        "2026-03-14",
		RawMarkdown: "just some notes",
		Content:     models.EntryContent{Decision: "ignored"},
	}

	data, err := EncodeEntry(e)
	require.NoError(t, err)
	assert.Contains(t, string(data), "just some notes")
	assert.NotContains(t, string(data), "## Decision")
}

func TestDecodeEntry_RoundTrip(t *testing.T) {
	orig := &models.JournalEntry{
		ProjectID: "checkout-redesign",
		Date:      "2026-03-14",
		Tags:      []string{"decision"},
		Content: models.EntryContent{
			Text:     "General context for the day.",
			Decision: "Use optimistic writes.",
			Tradeoff: "Conflicts must be surfaced to the user.",
		},
	}
	data, err := EncodeEntry(orig)
	require.NoError(t, err)

	got, err := DecodeEntry("checkout-redesign", "2026-03-14", data)
	require.NoError(t, err)

	assert.Equal(t, "checkout-redesign", got.ProjectID)
	assert.Equal(t, "2026-03-14", got.Date)
	assert.Equal(t, []string{"decision"}, got.Tags)
	assert.Equal(t, "General context for the day.", got.Content.Text)
	assert.Equal(t, "Use optimistic writes.", got.Content.Decision)
	assert.Equal(t, "Conflicts must be surfaced to the user.", got.Content.Tradeoff)
	assert.Empty(t, got.Content.Milestone)
}

func TestDecodeEntry_NoFrontmatter(t *testing.T) {
	got, err := DecodeEntry("p", "2026-01-01", []byte("plain text only\n"))
	require.NoError(t, err)

	assert.Equal(t, "2026-01-01", got.Date)
	assert.Empty(t, got.Tags)
	assert.Equal(t, "plain text only", got.Content.Text)
}

func TestDecodeEntry_FrontmatterDateWins(t *testing.T) {
	src := []byte("---\ndate: \"2026-02-02\"\ntags:\n  - insight\n---\n\nbody\n")
	got, err := DecodeEntry("p", "2026-01-01", src)
	require.NoError(t, err)

	assert.Equal(t, "2026-02-02", got.Date)
	assert.Equal(t, []string{"insight"}, got.Tags)
	assert.Equal(t, "body", got.RawMarkdown)
}

func TestExtractSections_UnknownHeadingGoesToText(t *testing.T) {
	body := "## Decision\n\nship it\n\n## Random Notes\n\nmisc\n"
	c := extractSections(body)

	assert.Equal(t, "ship it", c.Decision)
	assert.Contains(t, c.Text, "## Random Notes")
	assert.Contains(t, c.Text, "misc")
}
