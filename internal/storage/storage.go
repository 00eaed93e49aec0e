package storage

import (
	"context"
	"errors"
	"strconv"

	"github.com/ButyrinIA/board/internal/models"
)

var ErrNotFound = errors.New("not found")

// Storage - хранилище сущностей. Идентификаторы назначает хранилище,
// наружу отдаются только копии.
type Storage interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id string) (*models.Post, error)
	VotePost(ctx context.Context, id string, action models.VoteAction) (*models.Post, error)
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	// GetComments ищет комментарии пачкой; ошибки позиционные, nil при успехе
	GetComments(ctx context.Context, ids []string) ([]*models.Comment, []error)
	// ListComments возвращает все комментарии в порядке создания
	ListComments(ctx context.Context) ([]*models.Comment, error)
	VoteComment(ctx context.Context, id string, action models.VoteAction) (*models.Comment, error)
	Close() error
}

// CompareIDs сравнивает десятичные идентификаторы как числа,
// нечисловые идут после числовых в лексикографическом порядке.
func CompareIDs(a, b string) int {
	x, errA := strconv.ParseUint(a, 10, 64)
	y, errB := strconv.ParseUint(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if x < y {
			return -1
		}
		if x > y {
			return 1
		}
		return 0
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
