package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/ButyrinIA/board/internal/models"
	"github.com/ButyrinIA/board/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPost() *models.Post {
	return models.NewPost("Тестовый пост", "Содержимое", "", "user1", 0, models.PostVisible, "2023-12-10T12:00:00Z")
}

func TestMemoryStorage(t *testing.T) {
	t.Run("CreatePost and GetPost", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		post := newPost()
		err := store.CreatePost(ctx, post)
		assert.NoError(t, err, "Ошибка при создании поста")
		assert.Equal(t, "1", post.ID, "Идентификатор назначает хранилище")

		retrieved, err := store.GetPost(ctx, post.ID)
		assert.NoError(t, err, "Ошибка при получении поста")
		assert.Equal(t, post, retrieved, "Полученный пост не совпадает с созданным")
	})

	t.Run("Identifiers are sequential per namespace", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		for i, want := range []string{"1", "2", "3"} {
			post := newPost()
			require.NoError(t, store.CreatePost(ctx, post))
			assert.Equal(t, want, post.ID, "пост %d", i)
		}
		comment := models.NewComment("1", nil, "Комментарий", "user1", 0, false, "")
		require.NoError(t, store.CreateComment(ctx, comment))
		assert.Equal(t, "1", comment.ID, "У комментариев свое пространство идентификаторов")
	})

	t.Run("GetPost Not Found", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		_, err := store.GetPost(ctx, "non-existent-id")
		assert.ErrorIs(t, err, storage.ErrNotFound, "Ожидалась ошибка для несуществующего поста")

		_, err = store.GetComment(ctx, "42")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("Returned entities are copies", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		post := newPost()
		require.NoError(t, store.CreatePost(ctx, post))

		retrieved, err := store.GetPost(ctx, post.ID)
		require.NoError(t, err)
		retrieved.Score = 100
		retrieved.Comments = append(retrieved.Comments, "x")

		again, err := store.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(0), again.Score)
		assert.Empty(t, again.Comments)
	})

	t.Run("CreateComment links into post and parent", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		post := newPost()
		require.NoError(t, store.CreatePost(ctx, post))

		top := models.NewComment(post.ID, nil, "Родительский комментарий", "user1", 0, false, "")
		require.NoError(t, store.CreateComment(ctx, top))
		reply := models.NewComment(post.ID, &top.ID, "Ответ", "user2", 0, false, "")
		require.NoError(t, store.CreateComment(ctx, reply))

		retrieved, err := store.GetPost(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{top.ID}, retrieved.Comments, "Ответ не попадает в список поста")

		parent, err := store.GetComment(ctx, top.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{reply.ID}, parent.Replies)
	})

	t.Run("CreateComment for missing post", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		comment := models.NewComment("404", nil, "Сирота", "user1", 0, false, "")
		assert.NoError(t, store.CreateComment(ctx, comment), "Хранилище не проверяет пост")

		retrieved, err := store.GetComment(ctx, comment.ID)
		require.NoError(t, err)
		assert.Equal(t, "404", retrieved.PostID)
	})

	t.Run("GetComments keeps positions", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		for i := 0; i < 2; i++ {
			require.NoError(t, store.CreateComment(ctx, models.NewComment("1", nil, "c", "a", 0, false, "")))
		}

		comments, errs := store.GetComments(ctx, []string{"2", "9", "1"})
		require.Len(t, comments, 3)
		require.Len(t, errs, 3)
		assert.Equal(t, "2", comments[0].ID)
		assert.NoError(t, errs[0])
		assert.Nil(t, comments[1])
		assert.ErrorIs(t, errs[1], storage.ErrNotFound)
		assert.Equal(t, "1", comments[2].ID)

		_, errs = store.GetComments(ctx, []string{"1"})
		assert.Nil(t, errs, "Без ошибок срез ошибок пустой")
	})

	t.Run("ListComments in insertion order", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		for _, postID := range []string{"1", "2", "1"} {
			require.NoError(t, store.CreateComment(ctx, models.NewComment(postID, nil, "c", "a", 0, false, "")))
		}

		comments, err := store.ListComments(ctx)
		require.NoError(t, err)
		require.Len(t, comments, 3)
		for i, c := range comments {
			assert.Equal(t, []string{"1", "2", "3"}[i], c.ID)
		}
	})

	t.Run("Votes add up", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		post := newPost()
		post.Score = 5
		require.NoError(t, store.CreatePost(ctx, post))
		comment := models.NewComment(post.ID, nil, "c", "a", -2, false, "")
		require.NoError(t, store.CreateComment(ctx, comment))

		for i := 0; i < 4; i++ {
			_, err := store.VotePost(ctx, post.ID, models.Upvote)
			require.NoError(t, err)
			_, err = store.VoteComment(ctx, comment.ID, models.Downvote)
			require.NoError(t, err)
		}
		updated, err := store.VotePost(ctx, post.ID, models.Downvote)
		require.NoError(t, err)
		assert.Equal(t, int64(5+4-1), updated.Score)

		c, err := store.GetComment(ctx, comment.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(-6), c.Score, "Счет может быть отрицательным")
	})

	t.Run("Vote Not Found", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		post, err := store.VotePost(ctx, "1", models.Upvote)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.Nil(t, post)

		comment, err := store.VoteComment(ctx, "1", models.Upvote)
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.Nil(t, comment)
	})

	t.Run("Concurrent votes are not lost", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		comment := models.NewComment("1", nil, "c", "a", 0, false, "")
		require.NoError(t, store.CreateComment(ctx, comment))

		const ups, downs = 300, 120
		var wg sync.WaitGroup
		vote := func(action models.VoteAction) {
			defer wg.Done()
			_, err := store.VoteComment(ctx, comment.ID, action)
			assert.NoError(t, err)
		}
		for i := 0; i < ups; i++ {
			wg.Add(1)
			go vote(models.Upvote)
		}
		for i := 0; i < downs; i++ {
			wg.Add(1)
			go vote(models.Downvote)
		}
		wg.Wait()

		want := int64(ups - downs)
		c, err := store.GetComment(ctx, comment.ID)
		require.NoError(t, err)
		assert.Equal(t, want, c.Score)
	})

	t.Run("Close", func(t *testing.T) {
		store := New()
		ctx := context.Background()

		post := newPost()
		assert.NoError(t, store.CreatePost(ctx, post))

		err := store.Close()
		assert.NoError(t, err, "Ошибка при закрытии хранилища")

		_, err = store.GetPost(ctx, post.ID)
		assert.Error(t, err, "Ожидалась ошибка после очистки хранилища")
	})
}
