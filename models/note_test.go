package models

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name   string
		title  string
		strict bool
		issues []string
	}{
		{"valid title", "Sample Title", true, nil},
		{"punctuated title", "Don't Panic: A How-To, Part 2 & 3!", true, nil},
		{"too short strict", "Hi", true, []string{"title should not be less than 5 characters"}},
		{"short draft allowed", "Hi", false, nil},
		{"empty draft allowed", "", false, nil},
		{"too long", strings.Repeat("a", 66), true, []string{"title should not exceed 65 characters"}},
		{"too long draft", strings.Repeat("a", 66), false, []string{"title should not exceed 65 characters"}},
		{"multibyte counted as characters", strings.Repeat("é", 65), false, nil},
		{"multibyte too long", strings.Repeat("é", 66), false, []string{"title should not exceed 65 characters"}},
		{"invalid characters", "Hello #World#", true, []string{"title contains invalid characters"}},
		{"leading separator", "-Hello World", true, []string{"title contains invalid characters"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.issues, ValidateTitle(tt.title, tt.strict))
		})
	}
}

func TestValidateURLFragment(t *testing.T) {
	assert.Empty(t, ValidateURLFragment("sample-title-abc123def456"))
	assert.Contains(t, ValidateURLFragment(""), "url fragment should not be empty")
	assert.Contains(t, ValidateURLFragment("Bad-Fragment"), "url fragment contains invalid characters")
	assert.Contains(t, ValidateURLFragment("double--hyphen"), "url fragment contains invalid characters")

	long := strings.Repeat("a", MaxCharsInNoteURLFragment+1)
	assert.Contains(t, ValidateURLFragment(long), "url fragment should not exceed 78 characters")
}

func TestNoteValidate(t *testing.T) {
	note := &Note{ID: "abc123def456", Title: "Sample Title", Content: "<p>Hello</p>"}
	note.URLFragment = GenerateURLFragment(note.Title, note.ID)
	assert.Empty(t, note.Validate(true))

	empty := &Note{ID: "abc123def456", Title: "Sample Title"}
	empty.URLFragment = GenerateURLFragment(empty.Title, empty.ID)
	assert.Contains(t, empty.Validate(true), "content should not be empty")

	// Drafts only enforce the title maximum.
	draft := &Note{ID: "abc123def456"}
	assert.Empty(t, draft.Validate(false))
}

func TestGenerateURLFragment(t *testing.T) {
	assert.Equal(t, "sample-title-abc123def456", GenerateURLFragment("Sample Title", "abc123def456"))
	assert.Equal(t, "dont-panic-abc123def456", GenerateURLFragment("Don't Panic!", "abc123def456"))
	assert.Equal(t, "a-b-c-abc123def456", GenerateURLFragment("  A   b -- c  ", "abc123def456"))
	// A title with no usable characters falls back to the id alone.
	assert.Equal(t, "abc123def456", GenerateURLFragment("!!!", "ABC123DEF456"))
}

func TestNewNoteID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		id := NewNoteID()
		assert.Len(t, id, NoteIDLength)
		assert.Empty(t, ValidateURLFragment(strings.ToLower(id)))
		assert.False(t, seen[id], "ids should not repeat")
		seen[id] = true
	}
}

func TestGenerateSummary(t *testing.T) {
	content := "<h1>Heading Gone</h1><p>Keep <strong>not this</strong> this &amp; that.</p>"
	assert.Equal(t, "Keep this & that.", GenerateSummary(content))

	long := "<p>" + strings.Repeat("word ", 100) + "</p>"
	summary := GenerateSummary(long)
	assert.LessOrEqual(t, len(summary), MaxCharsInNoteSummary)
	assert.True(t, strings.HasSuffix(summary, "..."))

	assert.Equal(t, "", GenerateSummary("<h1>Only a heading</h1>"))
}

func TestGenerateSummaryMultibyte(t *testing.T) {
	// Truncation counts characters, so multi-byte text is never cut
	// mid-rune and the summary stays valid UTF-8.
	summary := GenerateSummary("<p>" + strings.Repeat("é", 400) + "</p>")
	assert.True(t, utf8.ValidString(summary))
	assert.True(t, strings.HasSuffix(summary, "..."))
	assert.Equal(t, MaxCharsInNoteSummary, utf8.RuneCountInString(summary))

	short := GenerateSummary("<p>" + strings.Repeat("日", 200) + "</p>")
	assert.True(t, utf8.ValidString(short))
	assert.Equal(t, 200, utf8.RuneCountInString(short))
	assert.False(t, strings.HasSuffix(short, "..."))
}

func TestNoteChange(t *testing.T) {
	base := &Note{ID: "abc123def456", Title: "Old Title", Subtitle: "sub", Content: "body"}
	edited := *base
	edited.Title = "New Title"
	edited.Content = "new body"

	change := edited.ChangeFrom(base)
	assert.NotNil(t, change.Title)
	assert.Nil(t, change.Subtitle)
	assert.NotNil(t, change.Content)
	assert.False(t, change.IsEmpty())
	assert.True(t, NoteChange{}.IsEmpty())

	applied := *base
	applied.Apply(change)
	assert.Equal(t, "New Title", applied.Title)
	assert.Equal(t, "sub", applied.Subtitle)
	assert.Equal(t, "new body", applied.Content)
	assert.Equal(t, "new-title-abc123def456", applied.URLFragment)
}

func TestApplyTrimsTitle(t *testing.T) {
	note := &Note{ID: "abc123def456"}
	title := "  Padded Title  "
	note.Apply(NoteChange{Title: &title})
	assert.Equal(t, "Padded Title", note.Title)
	assert.Equal(t, "padded-title-abc123def456", note.URLFragment)
}
