package board

import (
	"context"
	"errors"
	"time"

	"github.com/ButyrinIA/board/internal/models"
	"github.com/ButyrinIA/board/internal/storage"
	"github.com/graph-gophers/dataloader/v7"
)

type commentLoader = dataloader.Loader[string, *models.Comment]

// newCommentLoader собирает поиск комментариев в один батч к хранилищу.
// Кэш выключен: счет меняется между запросами.
func newCommentLoader(store storage.Storage) *commentLoader {
	batch := func(ctx context.Context, ids []string) []*dataloader.Result[*models.Comment] {
		comments, errs := store.GetComments(ctx, ids)
		results := make([]*dataloader.Result[*models.Comment], len(ids))
		for i := range ids {
			results[i] = &dataloader.Result[*models.Comment]{Data: comments[i]}
			if errs != nil {
				results[i].Error = errs[i]
			}
		}
		return results
	}

	return dataloader.NewBatchedLoader(batch,
		dataloader.WithCache[string, *models.Comment](&dataloader.NoCache[string, *models.Comment]{}),
		dataloader.WithWait[string, *models.Comment](time.Millisecond),
	)
}

// loadComments возвращает найденные комментарии в порядке ids, пропуская отсутствующие
func (s *Service) loadComments(ctx context.Context, ids []string) ([]*models.Comment, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	comments, errs := newCommentLoader(s.storage).LoadMany(ctx, ids)()
	result := make([]*models.Comment, 0, len(comments))
	for i, c := range comments {
		if i < len(errs) && errs[i] != nil {
			if errors.Is(errs[i], ErrNotFound) {
				continue
			}
			return nil, errs[i]
		}
		c.RepliesExist = len(c.Replies) > 0
		result = append(result, c)
	}
	return result, nil
}
