package models

import (
	"crypto/rand"
	"html"
	"math/big"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// NoteIDLength is the length of the random alphanumeric note id.
	NoteIDLength = 12

	MinCharsInNoteTitle = 5
	MaxCharsInNoteTitle = 65

	// MaxCharsInNoteURLFragment covers "<hyphenated-title>-<id>".
	MaxCharsInNoteURLFragment = MaxCharsInNoteTitle + 1 + NoteIDLength

	// MaxCharsInNoteSummary bounds the derived summary text, including the
	// trailing ellipsis.
	MaxCharsInNoteSummary = 300
)

// Words of a-zA-Z0-9, apostrophes and exclamation marks, separated by
// spaces, hyphens, commas, ampersands and colons.
var validTitleRegex = regexp.MustCompile(`^[a-zA-Z0-9'!]+([\s\-,&:]+[a-zA-Z0-9'!]+)*$`)

// Lowercase alphanumeric words separated by single hyphens.
var validURLFragmentRegex = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

var noteIDAlphabet = []byte("abcdefghijklmnopqrstuvwxyz0123456789")

// Note is the full note entity as edited on the notes page.
type Note struct {
	ID            string     `json:"id"`
	AuthorID      int        `json:"-"`
	Title         string     `json:"title"`
	Subtitle      string     `json:"subtitle"`
	Content       string     `json:"content"`
	URLFragment   string     `json:"url_fragment"`
	ThumbnailName string     `json:"thumbnail_filename,omitempty"`
	LastUpdated   *time.Time `json:"last_updated"`
	PublishedOn   *time.Time `json:"published_on"`
}

// NoteSummary is the card-sized snapshot of a note used on the homepage,
// in search results and on the editor dashboard.
type NoteSummary struct {
	ID                  string     `json:"id"`
	AuthorUsername      string     `json:"author_username"`
	DisplayedAuthorName string     `json:"displayed_author_name"`
	Title               string     `json:"title"`
	Subtitle            string     `json:"subtitle"`
	Summary             string     `json:"summary"`
	URLFragment         string     `json:"url_fragment"`
	LastUpdated         *time.Time `json:"last_updated"`
	PublishedOn         *time.Time `json:"published_on"`
}

// NoteChange is the change dict applied to a note by the editor. Nil fields
// are left untouched.
type NoteChange struct {
	Title    *string `json:"title,omitempty"`
	Subtitle *string `json:"subtitle,omitempty"`
	Content  *string `json:"content,omitempty"`
}

// IsEmpty reports whether the change dict carries no edits.
func (c NoteChange) IsEmpty() bool {
	return c.Title == nil && c.Subtitle == nil && c.Content == nil
}

// ChangeFrom builds the change dict that turns base into n, carrying exactly
// the editable fields that differ.
func (n *Note) ChangeFrom(base *Note) NoteChange {
	var change NoteChange
	if n.Title != base.Title {
		title := n.Title
		change.Title = &title
	}
	if n.Subtitle != base.Subtitle {
		subtitle := n.Subtitle
		change.Subtitle = &subtitle
	}
	if n.Content != base.Content {
		content := n.Content
		change.Content = &content
	}
	return change
}

// Apply mutates the note with the non-nil fields of the change dict. A title
// change regenerates the url fragment.
func (n *Note) Apply(change NoteChange) {
	if change.Title != nil {
		n.Title = strings.TrimSpace(*change.Title)
		n.URLFragment = GenerateURLFragment(n.Title, n.ID)
	}
	if change.Subtitle != nil {
		n.Subtitle = *change.Subtitle
	}
	if change.Content != nil {
		n.Content = *change.Content
	}
}

// ValidateTitle checks a note title. In strict mode (publishing) the length
// minimum and the character-set rule apply; drafts only need to stay within
// the maximum length.
func ValidateTitle(title string, strict bool) []string {
	var issues []string
	if utf8.RuneCountInString(title) > MaxCharsInNoteTitle {
		return append(issues, "title should not exceed 65 characters")
	}
	if strict {
		if utf8.RuneCountInString(title) < MinCharsInNoteTitle {
			return append(issues, "title should not be less than 5 characters")
		}
		if !validTitleRegex.MatchString(title) {
			issues = append(issues, "title contains invalid characters")
		}
	}
	return issues
}

// ValidateURLFragment checks the generated url fragment of a note.
func ValidateURLFragment(urlFragment string) []string {
	var issues []string
	if urlFragment == "" {
		return append(issues, "url fragment should not be empty")
	}
	if len(urlFragment) > MaxCharsInNoteURLFragment {
		issues = append(issues, "url fragment should not exceed 78 characters")
	}
	if !validURLFragmentRegex.MatchString(urlFragment) {
		issues = append(issues, "url fragment contains invalid characters")
	}
	return issues
}

// Validate returns the list of human-readable issues blocking this note.
// Strict mode is used when the note is published or about to be published.
func (n *Note) Validate(strict bool) []string {
	issues := ValidateTitle(n.Title, strict)
	if strict {
		issues = append(issues, ValidateURLFragment(n.URLFragment)...)
		if n.Content == "" {
			issues = append(issues, "content should not be empty")
		}
	}
	return issues
}

// Summarize returns the card summary derived from this note.
func (n *Note) Summarize() string {
	return GenerateSummary(n.Content)
}

// NewNoteID returns a random 12-char lowercase alphanumeric note id.
func NewNoteID() string {
	b := make([]byte, NoteIDLength)
	alphabetSize := big.NewInt(int64(len(noteIDAlphabet)))
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			panic(err)
		}
		b[i] = noteIDAlphabet[n.Int64()]
	}
	return string(b)
}

// GenerateURLFragment derives the url fragment of a note from its title and
// id: special characters are dropped, whitespace runs become hyphens and the
// lowercased id is appended.
func GenerateURLFragment(title, noteID string) string {
	simple := nonURLCharsRe.ReplaceAllString(strings.ToLower(title), "")
	hyphenated := hyphenRunsRe.ReplaceAllString(strings.TrimSpace(simple), "-")
	if hyphenated == "" {
		return strings.ToLower(noteID)
	}
	return hyphenated + "-" + strings.ToLower(noteID)
}

var (
	nonURLCharsRe = regexp.MustCompile(`[^a-z0-9 ]`)
	hyphenRunsRe  = regexp.MustCompile(`[\s-]+`)
	headingRe     = regexp.MustCompile(`(?s)<h1>.*?</h1>`)
	strongRe      = regexp.MustCompile(`(?s)<strong>.*?</strong>`)
	htmlTagRe     = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

// GenerateSummary derives the card summary text from note content: headings
// and bold passages are dropped, remaining tags are stripped and the text is
// truncated with an ellipsis. Truncation counts characters, not bytes, so
// multi-byte text is never cut mid-rune.
func GenerateSummary(content string) string {
	raw := strongRe.ReplaceAllString(headingRe.ReplaceAllString(content, ""), "")
	text := html.UnescapeString(htmlTagRe.ReplaceAllString(raw, ""))
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	maxChars := MaxCharsInNoteSummary - 3
	runes := []rune(text)
	if len(runes) > maxChars {
		return strings.TrimSpace(string(runes[:maxChars])) + "..."
	}
	return text
}
