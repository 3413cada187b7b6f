// Package filestore keeps every collection in a single JSON document on disk.
// It is the zero-infrastructure driver for local development and tests; each
// mutation rewrites the file atomically.
package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/coursesphere/coursesphere-api/internal/core/domain"
)

// document is the on-disk layout.
type document struct {
	Users       []userRecord       `json:"users"`
	Courses     []*domain.Course   `json:"courses"`
	Lessons     []*domain.Lesson   `json:"lessons"`
	Invitations []invitationRecord `json:"invitations"`
	Counters    map[string]int64   `json:"counters"`
}

// userRecord and invitationRecord carry the secret fields the API hides.
type userRecord struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type invitationRecord struct {
	ID         int64                   `json:"id"`
	CourseID   int64                   `json:"course_id"`
	Email      string                  `json:"email"`
	InviterID  int64                   `json:"inviter_id"`
	Status     domain.InvitationStatus `json:"status"`
	TokenHash  string                  `json:"token_hash"`
	CreatedAt  time.Time               `json:"created_at"`
	AcceptedAt *time.Time              `json:"accepted_at,omitempty"`
	DeclinedAt *time.Time              `json:"declined_at,omitempty"`
}

const (
	counterUsers       = "users"
	counterCourses     = "courses"
	counterLessons     = "lessons"
	counterInvitations = "invitations"
)

// Store holds the collections in memory behind one RWMutex.
type Store struct {
	mu   sync.RWMutex
	path string

	users       map[int64]*domain.User
	courses     map[int64]*domain.Course
	lessons     map[int64]*domain.Lesson
	invitations map[int64]*domain.Invitation
	counters    map[string]int64
}

// Open loads path, creating an empty store when the file does not exist.
// An empty path keeps the store in memory only.
func Open(path string) (*Store, error) {
	s := &Store{
		path:        path,
		users:       make(map[int64]*domain.User),
		courses:     make(map[int64]*domain.Course),
		lessons:     make(map[int64]*domain.Lesson),
		invitations: make(map[int64]*domain.Invitation),
		counters:    make(map[string]int64),
	}
	if path == "" {
		return s, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read store: %w", err)
	}
	if len(raw) == 0 {
		return s, nil
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode store %s: %w", path, err)
	}
	s.load(doc)
	return s, nil
}

func (s *Store) load(doc document) {
	for _, u := range doc.Users {
		s.users[u.ID] = &domain.User{
			ID: u.ID, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash,
			Role: u.Role, CreatedAt: u.CreatedAt,
		}
		s.seed(counterUsers, u.ID)
	}
	for _, c := range doc.Courses {
		if c.Instructors == nil {
			c.Instructors = domain.NewIDSet()
		}
		// The creator is always an instructor, whatever the file says.
		c.Instructors.Add(c.CreatorID)
		s.courses[c.ID] = c
		s.seed(counterCourses, c.ID)
	}
	for _, l := range doc.Lessons {
		s.lessons[l.ID] = l
		s.seed(counterLessons, l.ID)
	}
	for _, r := range doc.Invitations {
		s.invitations[r.ID] = &domain.Invitation{
			ID: r.ID, CourseID: r.CourseID, Email: r.Email, InviterID: r.InviterID,
			Status: r.Status, TokenHash: r.TokenHash, CreatedAt: r.CreatedAt,
			AcceptedAt: r.AcceptedAt, DeclinedAt: r.DeclinedAt,
		}
		s.seed(counterInvitations, r.ID)
	}
	for name, v := range doc.Counters {
		s.seed(name, v)
	}
}

// seed raises a counter to at least v.
func (s *Store) seed(name string, v int64) {
	if v > s.counters[name] {
		s.counters[name] = v
	}
}

// nextID must be called with the write lock held.
func (s *Store) nextID(name string) int64 {
	s.counters[name]++
	return s.counters[name]
}

// persist writes the whole store to a temp file and renames it over path.
// Must be called with the write lock held.
func (s *Store) persist() error {
	if s.path == "" {
		return nil
	}

	raw, err := json.MarshalIndent(s.snapshot(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write store: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace store: %w", err)
	}
	return nil
}

func (s *Store) snapshot() document {
	doc := document{
		Users:       make([]userRecord, 0, len(s.users)),
		Courses:     make([]*domain.Course, 0, len(s.courses)),
		Lessons:     make([]*domain.Lesson, 0, len(s.lessons)),
		Invitations: make([]invitationRecord, 0, len(s.invitations)),
		Counters:    s.counters,
	}
	for _, u := range s.users {
		doc.Users = append(doc.Users, userRecord{
			ID: u.ID, Name: u.Name, Email: u.Email, PasswordHash: u.PasswordHash,
			Role: u.Role, CreatedAt: u.CreatedAt,
		})
	}
	for _, c := range s.courses {
		doc.Courses = append(doc.Courses, c)
	}
	for _, l := range s.lessons {
		doc.Lessons = append(doc.Lessons, l)
	}
	for _, inv := range s.invitations {
		doc.Invitations = append(doc.Invitations, invitationRecord{
			ID: inv.ID, CourseID: inv.CourseID, Email: inv.Email, InviterID: inv.InviterID,
			Status: inv.Status, TokenHash: inv.TokenHash, CreatedAt: inv.CreatedAt,
			AcceptedAt: inv.AcceptedAt, DeclinedAt: inv.DeclinedAt,
		})
	}

	sort.Slice(doc.Users, func(i, j int) bool { return doc.Users[i].ID < doc.Users[j].ID })
	sort.Slice(doc.Courses, func(i, j int) bool { return doc.Courses[i].ID < doc.Courses[j].ID })
	sort.Slice(doc.Lessons, func(i, j int) bool { return doc.Lessons[i].ID < doc.Lessons[j].ID })
	sort.Slice(doc.Invitations, func(i, j int) bool { return doc.Invitations[i].ID < doc.Invitations[j].ID })
	return doc
}

// Ping reports whether the backing file's directory is writable.
func (s *Store) Ping() error {
	if s.path == "" {
		return nil
	}
	info, err := os.Stat(filepath.Dir(s.path))
	if err != nil {
		return fmt.Errorf("store dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("store dir %s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

func cloneCourse(c *domain.Course) *domain.Course {
	out := *c
	out.Instructors = c.Instructors.Clone()
	return &out
}

func cloneLesson(l *domain.Lesson) *domain.Lesson {
	out := *l
	return &out
}

func cloneUser(u *domain.User) *domain.User {
	out := *u
	return &out
}

func cloneInvitation(inv *domain.Invitation) *domain.Invitation {
	out := *inv
	out.Token = ""
	if inv.AcceptedAt != nil {
		t := *inv.AcceptedAt
		out.AcceptedAt = &t
	}
	if inv.DeclinedAt != nil {
		t := *inv.DeclinedAt
		out.DeclinedAt = &t
	}
	return &out
}

// paginate slices items for a 1-based page; limit 0 returns everything.
func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
