package board

import (
	"context"
	"errors"
	"testing"

	"github.com/ButyrinIA/board/internal/models"
	"github.com/ButyrinIA/board/internal/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// мок для интерфейса storage.Storage
type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) CreatePost(ctx context.Context, post *models.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *mockStorage) GetPost(ctx context.Context, id string) (*models.Post, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *mockStorage) VotePost(ctx context.Context, id string, action models.VoteAction) (*models.Post, error) {
	args := m.Called(ctx, id, action)
	return args.Get(0).(*models.Post), args.Error(1)
}

func (m *mockStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	args := m.Called(ctx, comment)
	return args.Error(0)
}

func (m *mockStorage) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *mockStorage) GetComments(ctx context.Context, ids []string) ([]*models.Comment, []error) {
	args := m.Called(ctx, ids)
	return args.Get(0).([]*models.Comment), args.Get(1).([]error)
}

func (m *mockStorage) ListComments(ctx context.Context) ([]*models.Comment, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*models.Comment), args.Error(1)
}

func (m *mockStorage) VoteComment(ctx context.Context, id string, action models.VoteAction) (*models.Comment, error) {
	args := m.Called(ctx, id, action)
	return args.Get(0).(*models.Comment), args.Error(1)
}

func (m *mockStorage) Close() error {
	args := m.Called()
	return args.Error(0)
}

func defaultOptions() Options {
	return Options{Synthesize: true, Placeholders: 2, Push: true, NotifyBuffer: 16}
}

func newTestService(t *testing.T, opts Options) *Service {
	t.Helper()
	return NewService(memory.New(), opts)
}

func createPost(t *testing.T, svc *Service) *models.Post {
	t.Helper()
	post, err := svc.CreatePost(context.Background(), models.NewPost("Тестовый пост", "Содержимое", "", "user1", 0, models.PostVisible, "2023-12-10T12:00:00Z"))
	require.NoError(t, err)
	return post
}

func createComment(t *testing.T, svc *Service, postID string, parentID *string, score int64) *models.Comment {
	t.Helper()
	comment, err := svc.CreateComment(context.Background(), models.NewComment(postID, parentID, "Комментарий", "user1", score, false, "2023-12-10T12:00:00Z"))
	require.NoError(t, err)
	return comment
}

func collect(ch <-chan *models.Comment) []*models.Comment {
	var out []*models.Comment
	for c := range ch {
		out = append(out, c)
	}
	return out
}

func TestCreatePost(t *testing.T) {
	svc := newTestService(t, defaultOptions())
	ctx := context.Background()

	input := models.NewPost("Заголовок", "Текст", "https://example.com/v.mp4", "author", -1, "", "2023-12-10T12:00:00Z")
	post, err := svc.CreatePost(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "1", post.ID)
	assert.Equal(t, models.PostVisible, post.State)
	assert.Equal(t, int64(-1), post.Score)

	second, err := svc.CreatePost(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "2", second.ID, "Дубликаты не отсекаются")

	_, err = svc.CreatePost(ctx, &models.Post{State: "DELETED"})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

func TestGetPostContent_NotFound(t *testing.T) {
	svc := newTestService(t, defaultOptions())

	post, err := svc.GetPostContent(context.Background(), "1")
	assert.Nil(t, post)
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestVoting(t *testing.T) {
	svc := newTestService(t, defaultOptions())
	ctx := context.Background()
	post := createPost(t, svc)
	comment := createComment(t, svc, post.ID, nil, 0)

	for _, tc := range []struct {
		ups, downs int
	}{{0, 0}, {3, 1}, {1, 4}, {10, 10}} {
		before, err := svc.GetComment(ctx, comment.ID)
		require.NoError(t, err)
		for i := 0; i < tc.downs; i++ {
			_, err := svc.VoteComment(ctx, comment.ID, models.Downvote)
			require.NoError(t, err)
		}
		for i := 0; i < tc.ups; i++ {
			_, err := svc.VoteComment(ctx, comment.ID, models.Upvote)
			require.NoError(t, err)
		}
		after, err := svc.GetComment(ctx, comment.ID)
		require.NoError(t, err)
		assert.Equal(t, before.Score+int64(tc.ups-tc.downs), after.Score, "ups=%d downs=%d", tc.ups, tc.downs)
	}

	updated, err := svc.VotePost(ctx, post.ID, models.Upvote)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.Score)
}

func TestVoting_Errors(t *testing.T) {
	svc := newTestService(t, defaultOptions())
	ctx := context.Background()

	post, err := svc.VotePost(ctx, "1", models.Upvote)
	assert.Nil(t, post, "Для отсутствующего поста не возвращается пустая сущность")
	assert.Equal(t, CodeNotFound, CodeOf(err))

	comment, err := svc.VoteComment(ctx, "1", models.Downvote)
	assert.Nil(t, comment)
	assert.Equal(t, CodeNotFound, CodeOf(err))

	p := createPost(t, svc)
	_, err = svc.VotePost(ctx, p.ID, models.VoteAction("SIDEWAYS"))
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

func TestCreateComment_MissingPost(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted by default", func(t *testing.T) {
		svc := newTestService(t, defaultOptions())
		comment, err := svc.CreateComment(ctx, models.NewComment("404", nil, "text", "author", 0, false, ""))
		require.NoError(t, err)
		assert.Equal(t, "1", comment.ID)
	})

	t.Run("rejected when validating", func(t *testing.T) {
		opts := defaultOptions()
		opts.ValidatePostID = true
		svc := newTestService(t, opts)

		_, err := svc.CreateComment(ctx, models.NewComment("404", nil, "text", "author", 0, false, ""))
		assert.ErrorIs(t, err, ErrInvalidArgument)

		missing := "77"
		post := createPost(t, svc)
		_, err = svc.CreateComment(ctx, models.NewComment(post.ID, &missing, "text", "author", 0, false, ""))
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}

func TestCreateComment_ReplyInheritsPost(t *testing.T) {
	svc := newTestService(t, defaultOptions())
	post := createPost(t, svc)
	parent := createComment(t, svc, post.ID, nil, 0)

	reply := createComment(t, svc, "", &parent.ID, 0)
	assert.Equal(t, post.ID, reply.PostID)

	got, err := svc.GetComment(context.Background(), parent.ID)
	require.NoError(t, err)
	assert.True(t, got.RepliesExist)
	assert.Equal(t, []string{reply.ID}, got.Replies)
}

func TestStorageFailureIsInternal(t *testing.T) {
	store := &mockStorage{}
	store.On("GetPost", mock.Anything, "1").Return((*models.Post)(nil), errors.New("connection reset"))

	svc := NewService(store, defaultOptions())
	_, err := svc.TopComments(context.Background(), "1", 3)
	assert.Error(t, err)
	assert.Equal(t, CodeInternal, CodeOf(err))
	store.AssertExpectations(t)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeOK, CodeOf(nil))
	assert.Equal(t, CodeCancelled, CodeOf(context.Canceled))
	assert.Equal(t, CodeInvalidArgument, CodeOf(models.ErrBadUpdateRequest))
	assert.Equal(t, CodeInvalidArgument, CodeOf(models.VoteAction("x").Validate()))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}
