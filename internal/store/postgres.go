package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"portfolio-api/internal/model"
)

const uniqueViolation = "23505"

// PgStore is the PostgreSQL implementation of Store.
type PgStore struct {
	pool *pgxpool.Pool
}

var _ Store = (*PgStore)(nil)

// NewPool opens a pgx pool and verifies the connection.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PgStore) Close() {
	s.pool.Close()
}

func (s *PgStore) LatestByOrigin(ctx context.Context, origin string) (time.Time, bool, error) {
	return s.latest(ctx,
		`SELECT created_at FROM submissions
		 WHERE origin_address = $1
		 ORDER BY created_at DESC
		 LIMIT 1`,
		origin,
	)
}

func (s *PgStore) LatestDuplicate(ctx context.Context, q DuplicateQuery) (time.Time, bool, error) {
	if q.Email != "" {
		return s.latest(ctx,
			`SELECT created_at FROM submissions
			 WHERE email = $1 AND content_hash = $2 AND created_at >= $3
			 ORDER BY created_at DESC
			 LIMIT 1`,
			q.Email, q.ContentHash, q.Since,
		)
	}
	if q.Origin == "" {
		return time.Time{}, false, nil
	}
	return s.latest(ctx,
		`SELECT created_at FROM submissions
		 WHERE origin_address = $1 AND content_hash = $2 AND created_at >= $3
		 ORDER BY created_at DESC
		 LIMIT 1`,
		q.Origin, q.ContentHash, q.Since,
	)
}

func (s *PgStore) latest(ctx context.Context, query string, args ...any) (time.Time, bool, error) {
	var createdAt time.Time
	err := s.pool.QueryRow(ctx, query, args...).Scan(&createdAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return createdAt, true, nil
}

// CreateSubmission inserts sub, assigning an ID when it has none.
func (s *PgStore) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO submissions (
			id, kind, name, email, subject, message, page_url, origin_address,
			user_agent, captcha_provider, captcha_verified, captcha_error_codes,
			content_hash, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9, $10, $11, $12, $13, $14)`,
		sub.ID, sub.Kind, sub.Name, sub.Email, sub.Subject, sub.Message, sub.PageURL,
		sub.OriginAddress, sub.UserAgent, sub.CaptchaProvider, sub.CaptchaVerified,
		sub.CaptchaErrorCodes, sub.ContentHash, sub.CreatedAt,
	)
	return err
}

func (s *PgStore) ListSubmissions(ctx context.Context, opts model.SubmissionListOptions) ([]*model.Submission, error) {
	var conditions []string
	var args []any

	if opts.Handled != nil {
		args = append(args, *opts.Handled)
		conditions = append(conditions, "is_handled = $"+strconv.Itoa(len(args)))
	}
	if opts.Kind != "" {
		args = append(args, opts.Kind)
		conditions = append(conditions, "kind = $"+strconv.Itoa(len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, opts.Limit, opts.Offset)
	query := `SELECT id, kind, name, email, subject, message, page_url,
	                 COALESCE(origin_address, ''), user_agent, captcha_provider,
	                 captcha_verified, captcha_error_codes, content_hash, created_at,
	                 is_handled, handled_at
	          FROM submissions ` + where + `
	          ORDER BY created_at DESC
	          LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subs := []*model.Submission{}
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(
			&sub.ID, &sub.Kind, &sub.Name, &sub.Email, &sub.Subject, &sub.Message, &sub.PageURL,
			&sub.OriginAddress, &sub.UserAgent, &sub.CaptchaProvider,
			&sub.CaptchaVerified, &sub.CaptchaErrorCodes, &sub.ContentHash, &sub.CreatedAt,
			&sub.IsHandled, &sub.HandledAt,
		); err != nil {
			return nil, err
		}
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}

func (s *PgStore) MarkHandled(ctx context.Context, ids []string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE submissions SET is_handled = TRUE, handled_at = $2 WHERE id::text = ANY($1)`,
		ids, at,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PgStore) ListProjects(ctx context.Context) ([]*model.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT slug, title, description, live_url, repo_url, sort_order, is_featured
		 FROM projects
		 ORDER BY sort_order ASC, title ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []*model.Project{}
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.Slug, &p.Title, &p.Description, &p.LiveURL, &p.RepoURL, &p.SortOrder, &p.IsFeatured); err != nil {
			return nil, err
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// UpsertProject inserts or updates a project keyed by slug and reports whether
// a new row was created.
func (s *PgStore) UpsertProject(ctx context.Context, p *model.Project) (bool, error) {
	var created bool
	err := s.pool.QueryRow(ctx,
		`INSERT INTO projects (slug, title, description, live_url, repo_url, sort_order, is_featured)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (slug) DO UPDATE SET
		   title = EXCLUDED.title,
		   description = EXCLUDED.description,
		   live_url = EXCLUDED.live_url,
		   repo_url = EXCLUDED.repo_url,
		   sort_order = EXCLUDED.sort_order,
		   is_featured = EXCLUDED.is_featured
		 RETURNING (xmax = 0)`,
		p.Slug, p.Title, p.Description, p.LiveURL, p.RepoURL, p.SortOrder, p.IsFeatured,
	).Scan(&created)
	return created, err
}

func (s *PgStore) ClearProjects(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *PgStore) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO admins (id, username, password_hash)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`,
		admin.ID, admin.Username, admin.PasswordHash,
	).Scan(&admin.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrConflict
	}
	return err
}

func (s *PgStore) FindAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	var admin model.Admin
	err := s.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at
		 FROM admins
		 WHERE lower(username) = lower($1)`,
		username,
	).Scan(&admin.ID, &admin.Username, &admin.PasswordHash, &admin.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}
