package board

import (
	"context"
	"fmt"
	"sort"

	"github.com/ButyrinIA/board/internal/models"
	"github.com/ButyrinIA/board/internal/storage"
)

// TopComments отдает n комментариев с наибольшим счетом.
// Кандидаты - все комментарии хранилища, либо только комментарии поста при RankPostOnly.
// Отсутствующий пост дает ErrNotFound до открытия потока.
func (s *Service) TopComments(ctx context.Context, postID string, n int) (<-chan *models.Comment, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: n must not be negative", ErrInvalidArgument)
	}

	post, err := s.storage.GetPost(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get top comments: %w", err)
	}

	var candidates []*models.Comment
	if s.opts.RankPostOnly {
		candidates, err = s.loadComments(ctx, post.Comments)
	} else {
		candidates, err = s.storage.ListComments(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	return emit(ctx, rankComments(candidates, n)), nil
}

// rankComments сортирует по убыванию счета, при равенстве - по возрастанию id
func rankComments(comments []*models.Comment, n int) []*models.Comment {
	sort.SliceStable(comments, func(i, j int) bool {
		if comments[i].Score != comments[j].Score {
			return comments[i].Score > comments[j].Score
		}
		return storage.CompareIDs(comments[i].ID, comments[j].ID) < 0
	})

	if n < len(comments) {
		comments = comments[:n]
	}
	for _, c := range comments {
		c.RepliesExist = len(c.Replies) > 0
	}
	return comments
}
