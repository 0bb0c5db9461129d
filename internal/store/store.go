// Package store implements the comment record store: CRUD, filtering,
// usage tracking, and ranked retrieval over a single persisted blob.
package store

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/quiphq/quip/internal/comment"
	"github.com/quiphq/quip/internal/errors"
	"github.com/quiphq/quip/internal/kv"
)

const blobKey = "comments"

// Store persists comments as a single JSON blob and serializes all
// read-modify-write cycles behind a mutex, so per-call operations like
// IncrementUse are atomic within the process.
type Store struct {
	kv kv.Store
	mu sync.Mutex
}

// New creates a Store backed by the given blob storage.
func New(blobs kv.Store) *Store {
	return &Store{kv: blobs}
}

// AddInput contains the fields accepted when creating a comment.
type AddInput struct {
	Text      string
	Shortcode string
	Category  string
}

// UpdateInput contains the fields accepted when updating a comment.
// Nil fields are left unchanged.
type UpdateInput struct {
	Text      *string
	Shortcode *string
	Category  *string
}

// load reads and decodes the full comment list.
// Callers must hold s.mu.
func (s *Store) load(ctx context.Context) ([]comment.Comment, error) {
	data, found, err := s.kv.Get(ctx, blobKey)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if !found {
		return nil, nil
	}

	var comments []comment.Comment
	if err := json.Unmarshal(data, &comments); err != nil {
		return nil, errors.NewInternal(err)
	}

	return comments, nil
}

// save encodes and writes the full comment list.
// Callers must hold s.mu.
func (s *Store) save(ctx context.Context, comments []comment.Comment) error {
	data, err := json.Marshal(comments)
	if err != nil {
		return errors.NewInternal(err)
	}

	if err := s.kv.Put(ctx, blobKey, data); err != nil {
		return errors.NewPersistence(err)
	}

	return nil
}

// GetAll returns comments matching the optional category and search term,
// sorted by usage count descending, then creation time descending.
// An empty category or the reserved "All" value matches every category.
// The search term matches case-insensitively against text and shortcode;
// whitespace in the term is significant.
func (s *Store) GetAll(ctx context.Context, category, search string) ([]comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]comment.Comment, 0, len(comments))
	needle := strings.ToLower(search)

	for _, c := range comments {
		if category != "" && category != comment.FilterAll && c.Category != category {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(c.Text), needle) &&
			!strings.Contains(strings.ToLower(c.Shortcode), needle) {
			continue
		}
		filtered = append(filtered, c)
	}

	comment.SortDefault(filtered)

	return filtered, nil
}

// GetByID returns the comment with the given id.
func (s *Store) GetByID(ctx context.Context, id string) (comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments, err := s.load(ctx)
	if err != nil {
		return comment.Comment{}, err
	}

	for _, c := range comments {
		if c.ID == id {
			return c, nil
		}
	}

	return comment.Comment{}, errors.NewNotFound(id)
}

// Add creates a new comment and returns it.
// Text is required; a missing shortcode is derived from the text and a
// missing category falls back to the default.
func (s *Store) Add(ctx context.Context, input AddInput) (comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.addLocked(ctx, input)
}

// addLocked is Add without locking, for callers that batch several
// inserts under one critical section.
func (s *Store) addLocked(ctx context.Context, input AddInput) (comment.Comment, error) {
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return comment.Comment{}, errors.NewValidation("text is required")
	}

	shortcode := strings.TrimSpace(input.Shortcode)
	if shortcode == "" {
		shortcode = comment.DeriveShortcode(text)
	}

	category := strings.TrimSpace(input.Category)
	if category == "" || category == comment.FilterAll {
		category = comment.DefaultCategory
	}

	comments, err := s.load(ctx)
	if err != nil {
		return comment.Comment{}, err
	}

	id, err := generateULID()
	if err != nil {
		return comment.Comment{}, errors.NewInternal(err)
	}

	c := comment.Comment{
		ID:        id,
		Text:      text,
		Shortcode: shortcode,
		Category:  category,
		CreatedAt: time.Now().UnixMilli(),
		UsedCount: 0,
	}

	comments = append(comments, c)
	if err := s.save(ctx, comments); err != nil {
		return comment.Comment{}, err
	}

	return c, nil
}

// Update modifies the comment with the given id. Only non-nil input
// fields are applied. Returns false if no comment has that id.
func (s *Store) Update(ctx context.Context, id string, input UpdateInput) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	for i := range comments {
		if comments[i].ID != id {
			continue
		}

		if input.Text != nil {
			text := strings.TrimSpace(*input.Text)
			if text == "" {
				return false, errors.NewValidation("text is required")
			}
			comments[i].Text = text
		}
		if input.Shortcode != nil {
			comments[i].Shortcode = strings.TrimSpace(*input.Shortcode)
			if comments[i].Shortcode == "" {
				comments[i].Shortcode = comment.DeriveShortcode(comments[i].Text)
			}
		}
		if input.Category != nil {
			category := strings.TrimSpace(*input.Category)
			if category == "" || category == comment.FilterAll {
				category = comment.DefaultCategory
			}
			comments[i].Category = category
		}

		if err := s.save(ctx, comments); err != nil {
			return false, err
		}

		return true, nil
	}

	return false, nil
}

// Delete removes the comment with the given id.
// Returns false if no comment has that id.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	for i := range comments {
		if comments[i].ID == id {
			comments = append(comments[:i], comments[i+1:]...)
			if err := s.save(ctx, comments); err != nil {
				return false, err
			}
			return true, nil
		}
	}

	return false, nil
}

// IncrementUse bumps the usage counter of the comment with the given id
// and returns its text.
func (s *Store) IncrementUse(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments, err := s.load(ctx)
	if err != nil {
		return "", err
	}

	for i := range comments {
		if comments[i].ID == id {
			comments[i].UsedCount++
			if err := s.save(ctx, comments); err != nil {
				return "", err
			}
			return comments[i].Text, nil
		}
	}

	return "", errors.NewNotFound(id)
}

// TopComments returns up to limit comments ranked by usage count
// descending. Comments tied on usage keep their stored order.
// A limit of zero or less falls back to 8.
func (s *Store) TopComments(ctx context.Context, limit int) ([]comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = 8
	}

	return comment.TopByUsage(comments, limit), nil
}

// Categories returns the distinct categories in use, with the reserved
// "All" filter first and the rest sorted lexically.
func (s *Store) Categories(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var categories []string
	for _, c := range comments {
		if c.Category != "" && !seen[c.Category] {
			seen[c.Category] = true
			categories = append(categories, c.Category)
		}
	}

	sort.Strings(categories)

	return append([]string{comment.FilterAll}, categories...), nil
}

// SeedSamples inserts the built-in sample comments into an empty store.
// It is a no-op on a non-empty store. Returns the number of comments added.
func (s *Store) SeedSamples(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comments, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	if len(comments) > 0 {
		return 0, nil
	}

	added := 0
	for _, sample := range comment.Samples() {
		if _, err := s.addLocked(ctx, AddInput{
			Text:      sample.Text,
			Shortcode: sample.Shortcode,
			Category:  sample.Category,
		}); err != nil {
			return added, err
		}
		added++
	}

	return added, nil
}

// generateULID returns a new ULID string for use as a comment id.
func generateULID() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
