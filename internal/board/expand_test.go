package board

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandBranch_Leaf(t *testing.T) {
	svc := newTestService(t, defaultOptions())
	ctx := context.Background()

	post := createPost(t, svc)
	root := createComment(t, svc, post.ID, nil, 5)

	ch, err := svc.ExpandBranch(ctx, root.ID, 5)
	require.NoError(t, err)
	branch := collect(ch)

	require.Len(t, branch, 3, "Корень и две заглушки")
	assert.Equal(t, root.ID, branch[0].ID, "Корень идет первым")
	assert.True(t, branch[0].RepliesExist)
	assert.Equal(t, []string{"2", "3"}, branch[0].Replies)

	for i, child := range branch[1:] {
		assert.Equal(t, int64(i+1), child.Score)
		assert.Equal(t, post.ID, child.PostID)
		require.NotNil(t, child.ParentID)
		assert.Equal(t, root.ID, *child.ParentID)

		stored, err := svc.GetComment(ctx, child.ID)
		require.NoError(t, err, "Заглушки сохраняются в хранилище")
		assert.Equal(t, child.Author, stored.Author)
	}

	// повторное раскрытие отдает уже сохраненные ответы
	ch, err = svc.ExpandBranch(ctx, root.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, ids(branch), ids(collect(ch)))
}

func TestExpandBranch_CapsChildren(t *testing.T) {
	svc := newTestService(t, defaultOptions())
	ctx := context.Background()

	post := createPost(t, svc)
	root := createComment(t, svc, post.ID, nil, 0)
	for i := 0; i < 4; i++ {
		createComment(t, svc, post.ID, &root.ID, int64(i))
	}

	ch, err := svc.ExpandBranch(ctx, root.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3", "4"}, ids(collect(ch)))

	ch, err = svc.ExpandBranch(ctx, root.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(collect(ch)))

	ch, err = svc.ExpandBranch(ctx, root.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{root.ID, "2"}, ids(collect(ch)))
}

func TestExpandBranch_SynthesisBoundedByN(t *testing.T) {
	svc := newTestService(t, defaultOptions())
	post := createPost(t, svc)
	root := createComment(t, svc, post.ID, nil, 0)

	ch, err := svc.ExpandBranch(context.Background(), root.ID, 1)
	require.NoError(t, err)
	assert.Len(t, collect(ch), 2)
}

func TestExpandBranch_WithoutSynthesis(t *testing.T) {
	opts := defaultOptions()
	opts.Synthesize = false
	svc := newTestService(t, opts)
	post := createPost(t, svc)
	root := createComment(t, svc, post.ID, nil, 0)

	ch, err := svc.ExpandBranch(context.Background(), root.ID, 5)
	require.NoError(t, err)
	branch := collect(ch)
	require.Len(t, branch, 1)
	assert.False(t, branch[0].RepliesExist)
}

func TestExpandBranch_NotFound(t *testing.T) {
	svc := newTestService(t, defaultOptions())

	ch, err := svc.ExpandBranch(context.Background(), "1", 2)
	assert.Nil(t, ch)
	assert.Equal(t, CodeNotFound, CodeOf(err))

	post := createPost(t, svc)
	root := createComment(t, svc, post.ID, nil, 0)
	_, err = svc.ExpandBranch(context.Background(), root.ID, -3)
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

func TestExpandBranch_ConcurrentLeaf(t *testing.T) {
	svc := newTestService(t, defaultOptions())
	ctx := context.Background()
	post := createPost(t, svc)
	root := createComment(t, svc, post.ID, nil, 0)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, err := svc.ExpandBranch(ctx, root.ID, 5)
			if assert.NoError(t, err) {
				assert.Len(t, collect(ch), 3)
			}
		}()
	}
	wg.Wait()

	got, err := svc.GetComment(ctx, root.ID)
	require.NoError(t, err)
	assert.Len(t, got.Replies, 2, "Заглушки создаются один раз")
}
