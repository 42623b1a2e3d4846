package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/traceofthetides/tides-go/internal/model"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	// Create temp file for test database
	f, err := os.CreateTemp("", "tides-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	// Open database
	db, err := NewDB(dbPath)
	if err != nil {
		os.Remove(dbPath)
		t.Fatalf("NewDB: %v", err)
	}

	// Run migrations
	if err := Migrate(db); err != nil {
		db.Close()
		os.Remove(dbPath)
		t.Fatalf("Migrate: %v", err)
	}

	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func createTestUser(t *testing.T, q *Queries, uid, email, role string) model.User {
	t.Helper()

	now := time.Now()
	user, err := q.CreateUser(context.Background(), CreateUserParams{
		UID:          uid,
		Email:        email,
		PasswordHash: "hashed-password",
		DisplayName:  "Test User",
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return user
}

func TestCreateUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	user := createTestUser(t, q, "uid-1", "test@example.com", model.RoleUser)

	if user.ID == 0 {
		t.Error("CreateUser returned zero ID")
	}
	if user.UID != "uid-1" {
		t.Errorf("UID = %q, want %q", user.UID, "uid-1")
	}
	if user.Role != model.RoleUser {
		t.Errorf("Role = %q, want %q", user.Role, model.RoleUser)
	}
	if user.AuthorApproved {
		t.Error("AuthorApproved should default to false")
	}
	if user.EmailVerified {
		t.Error("EmailVerified should default to false")
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	_, err := New(db).GetUserByEmail(context.Background(), "missing@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetUserByEmail = %v, want sql.ErrNoRows", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	createTestUser(t, q, "uid-1", "dup@example.com", model.RoleUser)

	now := time.Now()
	_, err := q.CreateUser(context.Background(), CreateUserParams{
		UID:          "uid-2",
		Email:        "dup@example.com",
		PasswordHash: "hashed-password",
		Role:         model.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err == nil {
		t.Fatal("CreateUser should fail on duplicate email")
	}
}

func TestUpdateUserRole(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "uid-1", "author@example.com", model.RoleUser)

	err := q.UpdateUserRole(ctx, UpdateUserRoleParams{
		UID:            user.UID,
		Role:           model.RoleAuthor,
		AuthorApproved: false,
	})
	if err != nil {
		t.Fatalf("UpdateUserRole: %v", err)
	}

	got, err := q.GetUserByUID(ctx, user.UID)
	if err != nil {
		t.Fatalf("GetUserByUID: %v", err)
	}
	if got.Role != model.RoleAuthor {
		t.Errorf("Role = %q, want %q", got.Role, model.RoleAuthor)
	}
	if got.AuthorApproved {
		t.Error("AuthorApproved should be false after a role request")
	}

	// Unknown UID reports no rows
	err = q.UpdateUserRole(ctx, UpdateUserRoleParams{UID: "nope", Role: model.RoleAuthor})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("UpdateUserRole unknown uid = %v, want sql.ErrNoRows", err)
	}
}

func TestUserTokens(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "uid-1", "token@example.com", model.RoleUser)

	err := q.CreateUserToken(ctx, CreateUserTokenParams{
		Token:     "tok-verify",
		UserID:    user.ID,
		Purpose:   TokenPurposeVerify,
		ExpiresAt: time.Now().Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("CreateUserToken: %v", err)
	}

	got, err := q.GetUserToken(ctx, "tok-verify", TokenPurposeVerify)
	if err != nil {
		t.Fatalf("GetUserToken: %v", err)
	}
	if got.UserID != user.ID {
		t.Errorf("UserID = %d, want %d", got.UserID, user.ID)
	}

	// Wrong purpose misses
	if _, err := q.GetUserToken(ctx, "tok-verify", TokenPurposeReset); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetUserToken wrong purpose = %v, want sql.ErrNoRows", err)
	}

	// Expired tokens are invisible and prunable
	err = q.CreateUserToken(ctx, CreateUserTokenParams{
		Token:     "tok-old",
		UserID:    user.ID,
		Purpose:   TokenPurposeReset,
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("CreateUserToken: %v", err)
	}
	if _, err := q.GetUserToken(ctx, "tok-old", TokenPurposeReset); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetUserToken expired = %v, want sql.ErrNoRows", err)
	}
	pruned, err := q.DeleteExpiredUserTokens(ctx)
	if err != nil {
		t.Fatalf("DeleteExpiredUserTokens: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}
}

func TestContributionLifecycle(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	c, err := q.CreateContribution(ctx, CreateContributionParams{
		Kind:      model.ContributionKindTestimony,
		Title:     "Childhood in the Camps",
		Slug:      "childhood-in-the-camps",
		Body:      "A narrative of growing up in Jenin refugee camp.",
		BodyHTML:  "<p>A narrative of growing up in Jenin refugee camp.</p>",
		AuthorUID: "uid-author",
		Section:   "salt",
		Tags:      "Refugee Camp,Childhood,Jenin",
	})
	if err != nil {
		t.Fatalf("CreateContribution: %v", err)
	}
	if c.Status != model.ContributionStatusPending {
		t.Errorf("Status = %q, want %q", c.Status, model.ContributionStatusPending)
	}

	pending, err := q.ListContributionsByStatus(ctx, model.ContributionStatusPending, 10, 0)
	if err != nil {
		t.Fatalf("ListContributionsByStatus: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	now := time.Now()
	if err := q.PublishContribution(ctx, c.ID, now); err != nil {
		t.Fatalf("PublishContribution: %v", err)
	}

	got, err := q.GetContributionByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("GetContributionByID: %v", err)
	}
	if !got.IsPublished() {
		t.Error("contribution should be published")
	}
	if !got.PublishedAt.Valid {
		t.Error("PublishedAt should be set")
	}

	// Publishing a missing ID reports no rows
	if err := q.PublishContribution(ctx, 9999, now); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("PublishContribution missing = %v, want sql.ErrNoRows", err)
	}
}

func TestScheduledContributions(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	due, err := q.CreateContribution(ctx, CreateContributionParams{
		Kind:        model.ContributionKindStory,
		Title:       "Due Story",
		Slug:        "due-story",
		AuthorUID:   "uid-author",
		ScheduledAt: sql.NullTime{Time: time.Now().Add(-time.Hour), Valid: true},
	})
	if err != nil {
		t.Fatalf("CreateContribution: %v", err)
	}
	_, err = q.CreateContribution(ctx, CreateContributionParams{
		Kind:        model.ContributionKindStory,
		Title:       "Future Story",
		Slug:        "future-story",
		AuthorUID:   "uid-author",
		ScheduledAt: sql.NullTime{Time: time.Now().Add(time.Hour), Valid: true},
	})
	if err != nil {
		t.Fatalf("CreateContribution: %v", err)
	}

	got, err := q.GetScheduledContributionsDue(ctx, time.Now())
	if err != nil {
		t.Fatalf("GetScheduledContributionsDue: %v", err)
	}
	if len(got) != 1 || got[0].ID != due.ID {
		t.Errorf("due = %+v, want only %d", got, due.ID)
	}
}

func TestCreateEventAndVisit(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	e, err := q.CreateEvent(ctx, CreateEventParams{
		Level:     model.EventLevelInfo,
		Category:  model.EventCategoryAuth,
		Message:   "user logged in",
		Metadata:  "{}",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if e.ID == 0 {
		t.Error("CreateEvent returned zero ID")
	}

	events, err := q.ListRecentEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}

	day := time.Now().Format("2006-01-02")
	err = q.CreateVisit(ctx, CreateVisitParams{
		Path:    "/coast/salt",
		Section: "salt",
		Browser: "Firefox",
		OS:      "Linux",
		Device:  "desktop",
		Country: "PS",
		Day:     day,
	})
	if err != nil {
		t.Fatalf("CreateVisit: %v", err)
	}

	n, err := q.CountVisitsByDay(ctx, day)
	if err != nil {
		t.Fatalf("CountVisitsByDay: %v", err)
	}
	if n != 1 {
		t.Errorf("CountVisitsByDay = %d, want 1", n)
	}

	bySection, err := q.CountVisitsBySection(ctx, day, day)
	if err != nil {
		t.Fatalf("CountVisitsBySection: %v", err)
	}
	if len(bySection) != 1 || bySection[0].Section != "salt" || bySection[0].Count != 1 {
		t.Errorf("CountVisitsBySection = %+v", bySection)
	}
}

func TestSeed_Idempotent(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	n, err := New(db).CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if n != 1 {
		t.Errorf("CountUsers = %d, want 1", n)
	}
}
