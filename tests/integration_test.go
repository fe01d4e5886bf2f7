package tests

import (
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/suite"

	"notehub-api/initializers"
	"notehub-api/models"
	"notehub-api/repository"
)

// IntegrationTestSuite exercises the repository layer against a real
// Postgres instance pointed at by DATABASE_URL.
type IntegrationTestSuite struct {
	suite.Suite
	db        *sql.DB
	notesRepo *repository.NotesRepository
	usersRepo *repository.UsersRepository
	authorID  int
}

func (suite *IntegrationTestSuite) SetupSuite() {
	db, err := sql.Open("postgres", os.Getenv("DATABASE_URL"))
	suite.Require().NoError(err)
	suite.Require().NoError(db.Ping())
	suite.db = db
	suite.prepareDatabase()

	suite.notesRepo = repository.NewNotesRepository(db)
	suite.usersRepo = repository.NewUsersRepository(db)

	user, err := suite.usersRepo.CreateUser("repoauthor", "repoauthorpass", "Repo Author")
	suite.Require().NoError(err)
	suite.authorID = user.ID
}

func (suite *IntegrationTestSuite) TearDownSuite() {
	suite.db.Close()
}

func (suite *IntegrationTestSuite) prepareDatabase() {
	_, err := suite.db.Exec("DROP SCHEMA public CASCADE; CREATE SCHEMA public;")
	suite.Require().NoError(err)

	driver, err := postgres.WithInstance(suite.db, &postgres.Config{})
	suite.Require().NoError(err)
	m, err := migrate.NewWithDatabaseInstance("file://../migrations", "postgres", driver)
	suite.Require().NoError(err)
	suite.Require().NoError(m.Up())

	suite.Require().NoError(initializers.InitDefaults(suite.db))
}

func (suite *IntegrationTestSuite) publishNote(title, content string) *models.Note {
	note, err := suite.notesRepo.CreateDraft(suite.authorID)
	suite.Require().NoError(err)
	note.Apply(models.NoteChange{Title: &title, Content: &content})
	suite.Require().NoError(suite.notesRepo.UpdateNote(note))
	suite.Require().NoError(suite.notesRepo.SetPublished(note.ID, true))
	fresh, err := suite.notesRepo.GetNoteByID(note.ID)
	suite.Require().NoError(err)
	return fresh
}

func (suite *IntegrationTestSuite) TestRolesAndAccess() {
	user, err := suite.usersRepo.CreateUser("roleuser", "roleuserpass", "")
	suite.Require().NoError(err)
	suite.Equal("roleuser", user.DisplayedAuthorName)

	hasRole, err := suite.usersRepo.HasRole(user.ID, models.RoleNoteEditor)
	suite.Require().NoError(err)
	suite.False(hasRole)

	suite.Require().NoError(suite.usersRepo.GrantRole(user.ID, models.RoleNoteEditor))
	hasRole, err = suite.usersRepo.HasRole(user.ID, models.RoleNoteEditor)
	suite.Require().NoError(err)
	suite.True(hasRole)

	// Granting twice stays idempotent.
	suite.Require().NoError(suite.usersRepo.GrantRole(user.ID, models.RoleNoteEditor))

	suite.Require().NoError(suite.usersRepo.RevokeRole(user.ID, models.RoleNoteEditor))
	hasRole, err = suite.usersRepo.HasRole(user.ID, models.RoleNoteEditor)
	suite.Require().NoError(err)
	suite.False(hasRole)
}

func (suite *IntegrationTestSuite) TestDraftLifecycle() {
	note, err := suite.notesRepo.CreateDraft(suite.authorID)
	suite.Require().NoError(err)
	suite.Len(note.ID, models.NoteIDLength)
	suite.Nil(note.PublishedOn)

	// The creating author is the first editor.
	isEditor, err := suite.notesRepo.IsEditor(note.ID, suite.authorID)
	suite.Require().NoError(err)
	suite.True(isEditor)

	title := "Lifecycle Title"
	content := "<p>Body text for the lifecycle note.</p>"
	note.Apply(models.NoteChange{Title: &title, Content: &content})
	suite.Require().NoError(suite.notesRepo.UpdateNote(note))

	saved, err := suite.notesRepo.GetNoteByID(note.ID)
	suite.Require().NoError(err)
	suite.Equal("Lifecycle Title", saved.Title)
	suite.Equal("lifecycle-title-"+note.ID, saved.URLFragment)

	byURL, err := suite.notesRepo.GetNoteByURLFragment(saved.URLFragment)
	suite.Require().NoError(err)
	suite.Equal(note.ID, byURL.ID)

	exists, err := suite.notesRepo.TitleExists("Lifecycle Title", "other0000000")
	suite.Require().NoError(err)
	suite.True(exists)
	exists, err = suite.notesRepo.TitleExists("Lifecycle Title", note.ID)
	suite.Require().NoError(err)
	suite.False(exists)

	suite.Require().NoError(suite.notesRepo.DeleteNote(note.ID))
	gone, err := suite.notesRepo.GetNoteByID(note.ID)
	suite.Require().NoError(err)
	suite.Nil(gone)
}

func (suite *IntegrationTestSuite) TestPublishStampsOnce() {
	note := suite.publishNote("Stamped Exactly Once", "<p>content</p>")
	suite.Require().NotNil(note.PublishedOn)
	first := *note.PublishedOn

	// Re-publishing keeps the original timestamp.
	time.Sleep(10 * time.Millisecond)
	suite.Require().NoError(suite.notesRepo.SetPublished(note.ID, true))
	again, err := suite.notesRepo.GetNoteByID(note.ID)
	suite.Require().NoError(err)
	suite.Require().NotNil(again.PublishedOn)
	suite.True(first.Equal(*again.PublishedOn))

	// Unpublishing clears it, so the next publish stamps fresh.
	suite.Require().NoError(suite.notesRepo.SetPublished(note.ID, false))
	cleared, err := suite.notesRepo.GetNoteByID(note.ID)
	suite.Require().NoError(err)
	suite.Nil(cleared.PublishedOn)
}

func (suite *IntegrationTestSuite) TestFeedPaginationAndSearch() {
	for i := 1; i <= 7; i++ {
		suite.publishNote(
			fmt.Sprintf("Pagination Note %d", i),
			fmt.Sprintf("<p>Feed pagination body number %d with banana flavor.</p>", i),
		)
	}

	page, total, err := suite.notesRepo.GetPublishedSummaries(0, 5)
	suite.Require().NoError(err)
	suite.Len(page, 5)
	suite.GreaterOrEqual(total, 7)

	rest, _, err := suite.notesRepo.GetPublishedSummaries(5, 5)
	suite.Require().NoError(err)
	suite.NotEmpty(rest)
	suite.NotEqual(page[0].ID, rest[0].ID)

	matches, err := suite.notesRepo.SearchSummaries("banana", 0, 10)
	suite.Require().NoError(err)
	suite.Len(matches, 7)

	none, err := suite.notesRepo.SearchSummaries("xyzzynothing", 0, 10)
	suite.Require().NoError(err)
	suite.Empty(none)

	// The empty query behaves like the published feed.
	all, err := suite.notesRepo.SearchSummaries("", 0, 5)
	suite.Require().NoError(err)
	suite.Len(all, 5)
}

func (suite *IntegrationTestSuite) TestEditorSummaries() {
	note := suite.publishNote("Editor Summary Note", "<p>editor content</p>")

	published, err := suite.notesRepo.GetEditorSummaries(suite.authorID, true)
	suite.Require().NoError(err)
	var found bool
	for _, s := range published {
		if s.ID == note.ID {
			found = true
			suite.Equal("Repo Author", s.DisplayedAuthorName)
		}
	}
	suite.True(found)

	editorIDs, err := suite.notesRepo.GetEditorIDs(note.ID)
	suite.Require().NoError(err)
	suite.Contains(editorIDs, suite.authorID)

	coauthor, err := suite.usersRepo.CreateUser("cowriter", "cowriterpass", "")
	suite.Require().NoError(err)
	suite.Require().NoError(suite.notesRepo.AddEditor(note.ID, coauthor.ID))
	// Adding the same editor again stays idempotent.
	suite.Require().NoError(suite.notesRepo.AddEditor(note.ID, coauthor.ID))

	isEditor, err := suite.notesRepo.IsEditor(note.ID, coauthor.ID)
	suite.Require().NoError(err)
	suite.True(isEditor)

	coauthorNotes, err := suite.notesRepo.GetEditorSummaries(coauthor.ID, true)
	suite.Require().NoError(err)
	suite.Len(coauthorNotes, 1)
	suite.Equal(note.ID, coauthorNotes[0].ID)
}

func TestIntegrationTestSuite(t *testing.T) {
	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set; integration suite needs Postgres")
	}
	suite.Run(t, new(IntegrationTestSuite))
}
