package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/ButyrinIA/board/internal/models"
	"github.com/ButyrinIA/board/internal/storage"
)

// MemoryStorage держит посты и комментарии в памяти процесса.
// Один RWMutex на оба индекса: голосование - это read-modify-write под записью.
type MemoryStorage struct {
	posts    map[string]*models.Post
	comments map[string]*models.Comment
	// порядок вставки комментариев
	order []string
	mu    sync.RWMutex
}

func New() *MemoryStorage {
	return &MemoryStorage{
		posts:    make(map[string]*models.Post),
		comments: make(map[string]*models.Comment),
	}
}

func (s *MemoryStorage) CreatePost(ctx context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	post.ID = strconv.Itoa(len(s.posts) + 1)
	post.Comments = nil
	s.posts[post.ID] = post.Clone()
	return nil
}

func (s *MemoryStorage) GetPost(ctx context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	post, exists := s.posts[id]
	if !exists {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}

	return post.Clone(), nil
}

func (s *MemoryStorage) VotePost(ctx context.Context, id string, action models.VoteAction) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post, exists := s.posts[id]
	if !exists {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	post.Score += action.Delta()

	return post.Clone(), nil
}

func (s *MemoryStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment.ID = strconv.Itoa(len(s.comments) + 1)
	comment.Replies = nil
	comment.RepliesExist = false
	s.comments[comment.ID] = comment.Clone()
	s.order = append(s.order, comment.ID)

	// Привязка к родителю: ответ - к комментарию, иначе - к посту
	if comment.ParentID != nil {
		if parent, ok := s.comments[*comment.ParentID]; ok {
			parent.Replies = append(parent.Replies, comment.ID)
		}
		return nil
	}
	if post, ok := s.posts[comment.PostID]; ok {
		post.Comments = append(post.Comments, comment.ID)
	}

	return nil
}

func (s *MemoryStorage) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	comment, exists := s.comments[id]
	if !exists {
		return nil, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}

	return comment.Clone(), nil
}

func (s *MemoryStorage) GetComments(ctx context.Context, ids []string) ([]*models.Comment, []error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Comment, len(ids))
	var errs []error
	for i, id := range ids {
		comment, exists := s.comments[id]
		if !exists {
			if errs == nil {
				errs = make([]error, len(ids))
			}
			errs[i] = fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
			continue
		}
		result[i] = comment.Clone()
	}

	return result, errs
}

func (s *MemoryStorage) ListComments(ctx context.Context) ([]*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.Comment, 0, len(s.order))
	for _, id := range s.order {
		result = append(result, s.comments[id].Clone())
	}

	return result, nil
}

func (s *MemoryStorage) VoteComment(ctx context.Context, id string, action models.VoteAction) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	comment, exists := s.comments[id]
	if !exists {
		return nil, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	comment.Score += action.Delta()

	return comment.Clone(), nil
}

// Close очищает хранилище
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.posts = make(map[string]*models.Post)
	s.comments = make(map[string]*models.Comment)
	s.order = nil
	return nil
}
