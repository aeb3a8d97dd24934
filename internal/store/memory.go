package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-api/internal/model"
)

// MemoryStore keeps everything in process memory and, when created with a data
// directory, mirrors it to a JSON file after every write. Development only.
type MemoryStore struct {
	mu          sync.Mutex
	file        string
	submissions []*model.Submission
	projects    map[string]*model.Project
	admins      map[string]*model.Admin
}

type memoryFile struct {
	Submissions []*model.Submission       `json:"submissions"`
	Projects    map[string]*model.Project `json:"projects"`
	Admins      map[string]adminRecord    `json:"admins"`
}

// adminRecord exists because model.Admin hides the hash from JSON.
type adminRecord struct {
	model.Admin
	PasswordHash string `json:"password_hash"`
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a store without file persistence.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]*model.Project),
		admins:   make(map[string]*model.Admin),
	}
}

// NewFileStore returns a MemoryStore backed by dataDir/store.json.
func NewFileStore(dataDir string) (*MemoryStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	s := NewMemoryStore()
	s.file = filepath.Join(dataDir, "store.json")
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

func (s *MemoryStore) Close() {}

func (s *MemoryStore) LatestByOrigin(ctx context.Context, origin string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest time.Time
	found := false
	for _, sub := range s.submissions {
		if sub.OriginAddress != origin {
			continue
		}
		if !found || sub.CreatedAt.After(latest) {
			latest = sub.CreatedAt
			found = true
		}
	}
	return latest, found, nil
}

func (s *MemoryStore) LatestDuplicate(ctx context.Context, q DuplicateQuery) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest time.Time
	found := false
	for _, sub := range s.submissions {
		if sub.ContentHash != q.ContentHash || sub.CreatedAt.Before(q.Since) {
			continue
		}
		if q.Email != "" {
			if sub.Email != q.Email {
				continue
			}
		} else if q.Origin == "" || sub.OriginAddress != q.Origin {
			continue
		}
		if !found || sub.CreatedAt.After(latest) {
			latest = sub.CreatedAt
			found = true
		}
	}
	return latest, found, nil
}

func (s *MemoryStore) CreateSubmission(ctx context.Context, sub *model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	stored := *sub
	s.submissions = append(s.submissions, &stored)
	return s.save()
}

func (s *MemoryStore) ListSubmissions(ctx context.Context, opts model.SubmissionListOptions) ([]*model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]*model.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		if opts.Handled != nil && sub.IsHandled != *opts.Handled {
			continue
		}
		if opts.Kind != "" && sub.Kind != opts.Kind {
			continue
		}
		copied := *sub
		matched = append(matched, &copied)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if opts.Offset >= len(matched) {
		return []*model.Submission{}, nil
	}
	matched = matched[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func (s *MemoryStore) MarkHandled(ctx context.Context, ids []string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}

	var updated int64
	for _, sub := range s.submissions {
		if _, ok := wanted[sub.ID]; !ok {
			continue
		}
		handledAt := at
		sub.IsHandled = true
		sub.HandledAt = &handledAt
		updated++
	}
	if updated == 0 {
		return 0, nil
	}
	return updated, s.save()
}

func (s *MemoryStore) ListProjects(ctx context.Context) ([]*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	projects := make([]*model.Project, 0, len(s.projects))
	for _, p := range s.projects {
		copied := *p
		projects = append(projects, &copied)
	}
	sort.Slice(projects, func(i, j int) bool {
		if projects[i].SortOrder != projects[j].SortOrder {
			return projects[i].SortOrder < projects[j].SortOrder
		}
		return projects[i].Title < projects[j].Title
	})
	return projects, nil
}

func (s *MemoryStore) UpsertProject(ctx context.Context, p *model.Project) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.projects[p.Slug]
	copied := *p
	s.projects[p.Slug] = &copied
	return !exists, s.save()
}

func (s *MemoryStore) ClearProjects(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := int64(len(s.projects))
	s.projects = make(map[string]*model.Project)
	return deleted, s.save()
}

func (s *MemoryStore) CreateAdmin(ctx context.Context, admin *model.Admin) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(admin.Username)
	if _, exists := s.admins[key]; exists {
		return ErrConflict
	}
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = time.Now().UTC()
	}
	copied := *admin
	s.admins[key] = &copied
	return s.save()
}

func (s *MemoryStore) FindAdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	admin, ok := s.admins[strings.ToLower(username)]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *admin
	return &copied, nil
}

func (s *MemoryStore) load() error {
	data, err := os.ReadFile(s.file)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read store file: %w", err)
	}

	var payload memoryFile
	if err := json.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("decode store file: %w", err)
	}

	s.submissions = payload.Submissions
	if payload.Projects != nil {
		s.projects = payload.Projects
	}
	for key, rec := range payload.Admins {
		admin := rec.Admin
		admin.PasswordHash = rec.PasswordHash
		s.admins[key] = &admin
	}
	return nil
}

// save must be called with s.mu held.
func (s *MemoryStore) save() error {
	if s.file == "" {
		return nil
	}

	admins := make(map[string]adminRecord, len(s.admins))
	for key, admin := range s.admins {
		admins[key] = adminRecord{Admin: *admin, PasswordHash: admin.PasswordHash}
	}
	payload := memoryFile{Submissions: s.submissions, Projects: s.projects, Admins: admins}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}
	if err := os.WriteFile(s.file, data, 0o600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return nil
}
