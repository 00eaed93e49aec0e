package board

import (
	"context"
	"fmt"

	"github.com/ButyrinIA/board/internal/models"
)

const placeholderDate = "2023-12-12T12:00:00Z"

// ExpandBranch отдает сам комментарий и до n его ответов.
// У листа при включенном Synthesize создаются заглушки ответов,
// они сохраняются в хранилище как обычные ответы.
func (s *Service) ExpandBranch(ctx context.Context, commentID string, n int) (<-chan *models.Comment, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: n must not be negative", ErrInvalidArgument)
	}

	root, err := s.storage.GetComment(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("failed to expand branch: %w", err)
	}

	if len(root.Replies) == 0 && s.opts.Synthesize && n > 0 {
		root, err = s.fillLeaf(ctx, commentID, min(n, s.opts.Placeholders))
		if err != nil {
			return nil, fmt.Errorf("failed to synthesize replies: %w", err)
		}
	}

	ids := root.Replies
	if len(ids) > n {
		ids = ids[:n]
	}
	children, err := s.loadComments(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load replies: %w", err)
	}

	root.RepliesExist = len(root.Replies) > 0
	return emit(ctx, append([]*models.Comment{root}, children...)), nil
}

// fillLeaf перечитывает комментарий под блокировкой и создает заглушки,
// только если ответов у него все еще нет. Блокировка действует в пределах процесса.
func (s *Service) fillLeaf(ctx context.Context, commentID string, count int) (*models.Comment, error) {
	s.expandMu.Lock()
	defer s.expandMu.Unlock()

	root, err := s.storage.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if len(root.Replies) > 0 {
		return root, nil
	}

	for i := 1; i <= count; i++ {
		parentID := root.ID
		reply := models.NewComment(
			root.PostID,
			&parentID,
			fmt.Sprintf("This is a child comment %d.", i),
			fmt.Sprintf("Child Author %d", i),
			int64(i),
			false,
			placeholderDate,
		)
		if err := s.storage.CreateComment(ctx, reply); err != nil {
			return nil, err
		}
		root.Replies = append(root.Replies, reply.ID)
	}
	return root, nil
}
