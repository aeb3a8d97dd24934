package store

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolio-api/internal/model"
)

func TestMemoryStore(t *testing.T) {
	t.Run("submissions", func(t *testing.T) {
		testSubmissionStore(t, NewMemoryStore())
	})
	t.Run("projects", func(t *testing.T) {
		testProjectStore(t, NewMemoryStore())
	})
	t.Run("admins", func(t *testing.T) {
		testAdminStore(t, NewMemoryStore())
	})
}

func TestFileStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	st, err := NewFileStore(dir)
	require.NoError(t, err)

	sub := newSubmission(model.KindContact, "a@example.com", "203.0.113.7", hashOf('a'), baseTime)
	require.NoError(t, st.CreateSubmission(ctx, sub))
	_, err = st.UpsertProject(ctx, &model.Project{Slug: "site", Title: "Site", SortOrder: 1})
	require.NoError(t, err)
	require.NoError(t, st.CreateAdmin(ctx, &model.Admin{Username: "Owner", PasswordHash: "$2a$10$hash"}))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)

	subs, err := reopened.ListSubmissions(ctx, model.SubmissionListOptions{})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, sub.ID, subs[0].ID)
	assert.Equal(t, "203.0.113.7", subs[0].OriginAddress)

	projects, err := reopened.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 1)
	assert.Equal(t, "site", projects[0].Slug)

	admin, err := reopened.FindAdminByUsername(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, "Owner", admin.Username)
	assert.Equal(t, "$2a$10$hash", admin.PasswordHash)
}

func TestFileStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	st, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(st.file, []byte("{not json"), 0o600))

	_, err = NewFileStore(dir)
	assert.ErrorContains(t, err, "decode store file")
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func hashOf(c byte) string {
	return strings.Repeat(string(c), 64)
}

func newSubmission(kind, email, origin, hash string, createdAt time.Time) *model.Submission {
	return &model.Submission{
		Kind:          kind,
		Name:          "Tester",
		Email:         email,
		Subject:       "Hello",
		Message:       "message body",
		OriginAddress: origin,
		UserAgent:     "go-test",
		ContentHash:   hash,
		CreatedAt:     createdAt,
	}
}

// testSubmissionStore expects st to hold no submissions.
func testSubmissionStore(t *testing.T, st Store) {
	ctx := context.Background()

	_, found, err := st.LatestByOrigin(ctx, "198.51.100.1")
	require.NoError(t, err)
	assert.False(t, found)

	first := newSubmission(model.KindContact, "a@example.com", "198.51.100.1", hashOf('a'), baseTime)
	second := newSubmission(model.KindContact, "a@example.com", "198.51.100.2", hashOf('a'), baseTime.Add(2*time.Minute))
	third := newSubmission(model.KindFeedback, "", "198.51.100.1", hashOf('b'), baseTime.Add(5*time.Minute))
	noOrigin := newSubmission(model.KindFeedback, "", "", hashOf('c'), baseTime.Add(7*time.Minute))
	for _, sub := range []*model.Submission{first, second, third, noOrigin} {
		require.NoError(t, st.CreateSubmission(ctx, sub))
		assert.NotEmpty(t, sub.ID)
	}

	t.Run("latest by origin", func(t *testing.T) {
		latest, found, err := st.LatestByOrigin(ctx, "198.51.100.1")
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, third.CreatedAt.Equal(latest))
	})

	t.Run("duplicate by email spans origins", func(t *testing.T) {
		latest, found, err := st.LatestDuplicate(ctx, DuplicateQuery{
			Email:       "a@example.com",
			Origin:      "198.51.100.9",
			ContentHash: hashOf('a'),
			Since:       baseTime,
		})
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, second.CreatedAt.Equal(latest))
	})

	t.Run("duplicate since bound is inclusive", func(t *testing.T) {
		latest, found, err := st.LatestDuplicate(ctx, DuplicateQuery{
			Email:       "a@example.com",
			ContentHash: hashOf('a'),
			Since:       second.CreatedAt,
		})
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, second.CreatedAt.Equal(latest))

		_, found, err = st.LatestDuplicate(ctx, DuplicateQuery{
			Email:       "a@example.com",
			ContentHash: hashOf('a'),
			Since:       second.CreatedAt.Add(time.Second),
		})
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("duplicate by origin", func(t *testing.T) {
		latest, found, err := st.LatestDuplicate(ctx, DuplicateQuery{
			Origin:      "198.51.100.1",
			ContentHash: hashOf('b'),
			Since:       baseTime,
		})
		require.NoError(t, err)
		require.True(t, found)
		assert.True(t, third.CreatedAt.Equal(latest))

		_, found, err = st.LatestDuplicate(ctx, DuplicateQuery{
			Origin:      "198.51.100.2",
			ContentHash: hashOf('b'),
			Since:       baseTime,
		})
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("duplicate without key", func(t *testing.T) {
		_, found, err := st.LatestDuplicate(ctx, DuplicateQuery{
			ContentHash: hashOf('c'),
			Since:       baseTime,
		})
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("list newest first", func(t *testing.T) {
		subs, err := st.ListSubmissions(ctx, model.SubmissionListOptions{Limit: 50})
		require.NoError(t, err)
		require.Len(t, subs, 4)
		assert.Equal(t, []string{noOrigin.ID, third.ID, second.ID, first.ID}, submissionIDs(subs))
		assert.Empty(t, subs[0].OriginAddress)
	})

	t.Run("list by kind with paging", func(t *testing.T) {
		subs, err := st.ListSubmissions(ctx, model.SubmissionListOptions{Kind: model.KindContact, Limit: 1, Offset: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{first.ID}, submissionIDs(subs))

		subs, err = st.ListSubmissions(ctx, model.SubmissionListOptions{Kind: model.KindContact, Limit: 10, Offset: 5})
		require.NoError(t, err)
		assert.Empty(t, subs)
	})

	t.Run("mark handled", func(t *testing.T) {
		at := baseTime.Add(time.Hour)
		n, err := st.MarkHandled(ctx, []string{first.ID, third.ID, "00000000-0000-0000-0000-000000000000"}, at)
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		n, err = st.MarkHandled(ctx, nil, at)
		require.NoError(t, err)
		assert.Zero(t, n)

		handled := true
		subs, err := st.ListSubmissions(ctx, model.SubmissionListOptions{Handled: &handled, Limit: 50})
		require.NoError(t, err)
		assert.Equal(t, []string{third.ID, first.ID}, submissionIDs(subs))
		for _, sub := range subs {
			assert.True(t, sub.IsHandled)
			require.NotNil(t, sub.HandledAt)
			assert.True(t, at.Equal(*sub.HandledAt))
		}

		open := false
		subs, err = st.ListSubmissions(ctx, model.SubmissionListOptions{Handled: &open, Limit: 50})
		require.NoError(t, err)
		assert.Equal(t, []string{noOrigin.ID, second.ID}, submissionIDs(subs))
	})
}

func testProjectStore(t *testing.T, st Store) {
	ctx := context.Background()

	projects, err := st.ListProjects(ctx)
	require.NoError(t, err)
	assert.NotNil(t, projects)
	assert.Empty(t, projects)

	created, err := st.UpsertProject(ctx, &model.Project{Slug: "zeta", Title: "Zeta", SortOrder: 20})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = st.UpsertProject(ctx, &model.Project{Slug: "beta", Title: "Beta", SortOrder: 10})
	require.NoError(t, err)
	assert.True(t, created)
	created, err = st.UpsertProject(ctx, &model.Project{Slug: "alpha", Title: "Alpha", SortOrder: 20, IsFeatured: true})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = st.UpsertProject(ctx, &model.Project{Slug: "beta", Title: "Beta v2", Description: "updated", SortOrder: 10})
	require.NoError(t, err)
	assert.False(t, created)

	projects, err = st.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 3)
	assert.Equal(t, "beta", projects[0].Slug)
	assert.Equal(t, "Beta v2", projects[0].Title)
	assert.Equal(t, "updated", projects[0].Description)
	assert.Equal(t, "alpha", projects[1].Slug)
	assert.True(t, projects[1].IsFeatured)
	assert.Equal(t, "zeta", projects[2].Slug)

	deleted, err := st.ClearProjects(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)

	projects, err = st.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, projects)
}

func testAdminStore(t *testing.T, st Store) {
	ctx := context.Background()

	_, err := st.FindAdminByUsername(ctx, "owner")
	assert.ErrorIs(t, err, ErrNotFound)

	admin := &model.Admin{Username: "Owner", PasswordHash: "hash"}
	require.NoError(t, st.CreateAdmin(ctx, admin))
	assert.NotEmpty(t, admin.ID)
	assert.False(t, admin.CreatedAt.IsZero())

	err = st.CreateAdmin(ctx, &model.Admin{Username: "owner", PasswordHash: "other"})
	assert.ErrorIs(t, err, ErrConflict)

	found, err := st.FindAdminByUsername(ctx, "OWNER")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, found.ID)
	assert.Equal(t, "Owner", found.Username)
	assert.Equal(t, "hash", found.PasswordHash)
}

func submissionIDs(subs []*model.Submission) []string {
	ids := make([]string, 0, len(subs))
	for _, sub := range subs {
		ids = append(ids, sub.ID)
	}
	return ids
}
