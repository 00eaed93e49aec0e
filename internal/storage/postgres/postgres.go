package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ButyrinIA/board/internal/models"
	"github.com/ButyrinIA/board/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStorage struct {
	pool *pgxpool.Pool
}

const commentColumns = `id::text, post_id, parent_id, text, author, score, hidden, publication_date`

func New(ctx context.Context, dsn string) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	// post_id без внешнего ключа: комментарий к несуществующему посту допустим
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			id BIGSERIAL PRIMARY KEY,
			title TEXT NOT NULL,
			text TEXT NOT NULL,
			video_url TEXT NOT NULL,
			author TEXT NOT NULL,
			score BIGINT NOT NULL,
			state TEXT NOT NULL,
			publication_date TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS comments (
			id BIGSERIAL PRIMARY KEY,
			post_id TEXT NOT NULL,
			parent_id TEXT,
			text TEXT NOT NULL,
			author TEXT NOT NULL,
			score BIGINT NOT NULL,
			hidden BOOLEAN NOT NULL,
			publication_date TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
		CREATE INDEX IF NOT EXISTS idx_comments_parent_id ON comments(parent_id);
	`)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

// parseID переводит идентификатор в ключ таблицы; нечисловой id не может существовать
func parseID(kind, id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", kind, id, storage.ErrNotFound)
	}
	return n, nil
}

func (s *PostgresStorage) CreatePost(ctx context.Context, post *models.Post) error {
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO posts (title, text, video_url, author, score, state, publication_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text`,
		post.Title, post.Text, post.VideoURL, post.Author, post.Score, string(post.State), post.PublicationDate).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	post.ID = id
	post.Comments = nil
	return nil
}

func (s *PostgresStorage) GetPost(ctx context.Context, id string) (*models.Post, error) {
	key, err := parseID("post", id)
	if err != nil {
		return nil, err
	}

	var p models.Post
	var state string
	err = s.pool.QueryRow(ctx, `
		SELECT id::text, title, text, video_url, author, score, state, publication_date
		FROM posts
		WHERE id=$1`, key).Scan(&p.ID, &p.Title, &p.Text, &p.VideoURL, &p.Author, &p.Score, &state, &p.PublicationDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	p.State = models.PostState(state)

	if err := s.loadPostComments(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStorage) loadPostComments(ctx context.Context, p *models.Post) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text FROM comments
		WHERE post_id=$1 AND parent_id IS NULL
		ORDER BY id`, p.ID)
	if err != nil {
		return err
	}
	p.Comments, err = pgx.CollectRows(rows, pgx.RowTo[string])
	return err
}

func (s *PostgresStorage) VotePost(ctx context.Context, id string, action models.VoteAction) (*models.Post, error) {
	key, err := parseID("post", id)
	if err != nil {
		return nil, err
	}

	// Инкремент одним выражением, гонки read-modify-write нет
	var p models.Post
	var state string
	err = s.pool.QueryRow(ctx, `
		UPDATE posts SET score = score + $2
		WHERE id=$1
		RETURNING id::text, title, text, video_url, author, score, state, publication_date`,
		key, action.Delta()).Scan(&p.ID, &p.Title, &p.Text, &p.VideoURL, &p.Author, &p.Score, &state, &p.PublicationDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("post %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	p.State = models.PostState(state)

	if err := s.loadPostComments(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStorage) CreateComment(ctx context.Context, comment *models.Comment) error {
	var id string
	err := s.pool.QueryRow(ctx, `
		INSERT INTO comments (post_id, parent_id, text, author, score, hidden, publication_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id::text`,
		comment.PostID, comment.ParentID, comment.Text, comment.Author, comment.Score, comment.Hidden, comment.PublicationDate).Scan(&id)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}
	comment.ID = id
	comment.Replies = nil
	comment.RepliesExist = false
	return nil
}

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.ParentID, &c.Text, &c.Author, &c.Score, &c.Hidden, &c.PublicationDate)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStorage) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	key, err := parseID("comment", id)
	if err != nil {
		return nil, err
	}

	c, err := scanComment(s.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id=$1`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachReplies(ctx, []*models.Comment{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStorage) GetComments(ctx context.Context, ids []string) ([]*models.Comment, []error) {
	keys := make([]int64, 0, len(ids))
	for _, id := range ids {
		if key, err := strconv.ParseInt(id, 10, 64); err == nil {
			keys = append(keys, key)
		}
	}

	found, err := s.queryComments(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = ANY($1) ORDER BY id`, keys)
	if err != nil {
		errs := make([]error, len(ids))
		for i := range errs {
			errs[i] = err
		}
		return make([]*models.Comment, len(ids)), errs
	}

	byID := make(map[string]*models.Comment, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	result := make([]*models.Comment, len(ids))
	var errs []error
	for i, id := range ids {
		c, ok := byID[id]
		if !ok {
			if errs == nil {
				errs = make([]error, len(ids))
			}
			errs[i] = fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
			continue
		}
		// повторяющиеся id не должны делить одну структуру
		result[i] = c.Clone()
	}
	return result, errs
}

func (s *PostgresStorage) ListComments(ctx context.Context) ([]*models.Comment, error) {
	return s.queryComments(ctx, `SELECT `+commentColumns+` FROM comments ORDER BY id`)
}

func (s *PostgresStorage) queryComments(ctx context.Context, query string, args ...any) ([]*models.Comment, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachReplies(ctx, comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// attachReplies заполняет списки ответов одним запросом
func (s *PostgresStorage) attachReplies(ctx context.Context, comments []*models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	parents := make([]string, len(comments))
	byID := make(map[string]*models.Comment, len(comments))
	for i, c := range comments {
		parents[i] = c.ID
		byID[c.ID] = c
	}

	rows, err := s.pool.Query(ctx, `
		SELECT parent_id, id::text FROM comments
		WHERE parent_id = ANY($1)
		ORDER BY id`, parents)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var parentID, id string
		if err := rows.Scan(&parentID, &id); err != nil {
			return err
		}
		if parent, ok := byID[parentID]; ok {
			parent.Replies = append(parent.Replies, id)
		}
	}
	return rows.Err()
}

func (s *PostgresStorage) VoteComment(ctx context.Context, id string, action models.VoteAction) (*models.Comment, error) {
	key, err := parseID("comment", id)
	if err != nil {
		return nil, err
	}

	c, err := scanComment(s.pool.QueryRow(ctx, `
		UPDATE comments SET score = score + $2
		WHERE id=$1
		RETURNING `+commentColumns, key, action.Delta()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachReplies(ctx, []*models.Comment{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}
