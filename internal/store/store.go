package store

import (
	"context"
	"errors"
	"time"

	"portfolio-api/internal/model"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("already exists")
)

// DuplicateQuery selects submissions with the same content hash created at or
// after Since. Email takes precedence over Origin when both are set.
type DuplicateQuery struct {
	Email       string
	Origin      string
	ContentHash string
	Since       time.Time
}

// SubmissionStore persists submissions. Lookups return the creation time of the
// most recent match and whether one exists.
type SubmissionStore interface {
	LatestByOrigin(ctx context.Context, origin string) (time.Time, bool, error)
	LatestDuplicate(ctx context.Context, q DuplicateQuery) (time.Time, bool, error)
	CreateSubmission(ctx context.Context, sub *model.Submission) error
	ListSubmissions(ctx context.Context, opts model.SubmissionListOptions) ([]*model.Submission, error)
	MarkHandled(ctx context.Context, ids []string, at time.Time) (int64, error)
}

// ProjectStore persists portfolio projects.
type ProjectStore interface {
	ListProjects(ctx context.Context) ([]*model.Project, error)
	UpsertProject(ctx context.Context, p *model.Project) (created bool, err error)
	ClearProjects(ctx context.Context) (int64, error)
}

// AdminStore persists operator accounts.
type AdminStore interface {
	CreateAdmin(ctx context.Context, admin *model.Admin) error
	FindAdminByUsername(ctx context.Context, username string) (*model.Admin, error)
}

// Store is the full persistence surface used by the server.
type Store interface {
	SubmissionStore
	ProjectStore
	AdminStore
	Ping(ctx context.Context) error
	Close()
}
