// Package board реализует операции доски обсуждений: посты, комментарии,
// голосование, топ комментариев, раскрытие ветки и мониторинг счета.
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ButyrinIA/board/internal/config"
	"github.com/ButyrinIA/board/internal/models"
	"github.com/ButyrinIA/board/internal/storage"
)

type Options struct {
	// ValidatePostID - отклонять комментарии к несуществующим постам
	ValidatePostID bool
	// RankPostOnly - ранжировать только комментарии поста, а не все
	RankPostOnly bool
	// Synthesize - создавать заглушки ответов при раскрытии листа
	Synthesize   bool
	Placeholders int
	// Push - рассылать изменения счета активным сессиям мониторинга
	Push         bool
	NotifyBuffer int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		ValidatePostID: cfg.Board.ValidatePostID,
		RankPostOnly:   cfg.Ranking.Scope == config.ScopePost,
		Synthesize:     cfg.Expand.Synthesize,
		Placeholders:   cfg.Expand.Placeholders,
		Push:           cfg.Monitor.Push,
		NotifyBuffer:   cfg.Monitor.Buffer,
	}
}

// Service - точка входа для всех операций, хранилище передается явно
type Service struct {
	storage  storage.Storage
	opts     Options
	notifier *notifier
	// expandMu делает проверку листа и создание заглушек атомарными
	expandMu sync.Mutex
}

func NewService(store storage.Storage, opts Options) *Service {
	s := &Service{storage: store, opts: opts}
	if opts.Push {
		s.notifier = newNotifier(opts.NotifyBuffer)
	}
	return s
}

func (s *Service) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	switch post.State {
	case "":
		post.State = models.PostVisible
	case models.PostVisible, models.PostHidden:
	default:
		return nil, fmt.Errorf("%w: unknown post state %q", ErrInvalidArgument, post.State)
	}

	p := post.Clone()
	if err := s.storage.CreatePost(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return p, nil
}

func (s *Service) GetPostContent(ctx context.Context, id string) (*models.Post, error) {
	post, err := s.storage.GetPost(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

func (s *Service) VotePost(ctx context.Context, id string, action models.VoteAction) (*models.Post, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	post, err := s.storage.VotePost(ctx, id, action)
	if err != nil {
		return nil, fmt.Errorf("failed to vote post: %w", err)
	}
	s.publish(models.KindPost, post.ID)
	return post, nil
}

// CreateComment сохраняет комментарий. Ссылка на несуществующий пост или
// родителя либо отклоняется, либо принимается с предупреждением, см. Options.
func (s *Service) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	c := comment.Clone()

	if c.ParentID != nil {
		parent, err := s.storage.GetComment(ctx, *c.ParentID)
		switch {
		case err == nil:
			if c.PostID == "" {
				c.PostID = parent.PostID
			}
		case errors.Is(err, ErrNotFound):
			if err := s.danglingReference("parent comment", *c.ParentID); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("failed to check parent comment: %w", err)
		}
	}

	_, err := s.storage.GetPost(ctx, c.PostID)
	switch {
	case errors.Is(err, ErrNotFound):
		if err := s.danglingReference("post", c.PostID); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, fmt.Errorf("failed to check post: %w", err)
	}

	if err := s.storage.CreateComment(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return c, nil
}

func (s *Service) danglingReference(kind, id string) error {
	if s.opts.ValidatePostID {
		return fmt.Errorf("%w: %s %q does not exist", ErrInvalidArgument, kind, id)
	}
	slog.Warn("comment references missing entity", "kind", kind, "id", id)
	return nil
}

func (s *Service) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	comment, err := s.storage.GetComment(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	comment.RepliesExist = len(comment.Replies) > 0
	return comment, nil
}

func (s *Service) VoteComment(ctx context.Context, id string, action models.VoteAction) (*models.Comment, error) {
	if err := action.Validate(); err != nil {
		return nil, err
	}
	comment, err := s.storage.VoteComment(ctx, id, action)
	if err != nil {
		return nil, fmt.Errorf("failed to vote comment: %w", err)
	}
	comment.RepliesExist = len(comment.Replies) > 0
	s.publish(models.KindComment, comment.ID)
	return comment, nil
}

func (s *Service) publish(kind models.EntityKind, id string) {
	if s.notifier != nil {
		s.notifier.Publish(entityKey{kind: kind, id: id})
	}
}

// emit отдает элементы в канал по одному, пока потребитель читает
func emit(ctx context.Context, comments []*models.Comment) <-chan *models.Comment {
	out := make(chan *models.Comment)
	go func() {
		defer close(out)
		for _, c := range comments {
			select {
			case out <- c:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
