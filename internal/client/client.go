// Package client - клиент HTTP/WebSocket интерфейса доски.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ButyrinIA/board/internal/models"
	"github.com/gorilla/websocket"
)

// Error - ответ сервера с кодом ошибки
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	dialer  *websocket.Dialer
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		dialer:  websocket.DefaultDialer,
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return json.NewDecoder(resp.Body).Decode(out)
}

// send выполняет запрос и превращает ответ с ошибкой в *Error
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		apiErr := &Error{Status: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, apiErr
	}
	return resp, nil
}

func (c *Client) CreatePost(ctx context.Context, post *models.Post) (*models.Post, error) {
	var created models.Post
	if err := c.do(ctx, http.MethodPost, "/posts", post, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) GetPostContent(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(postID), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) VotePost(ctx context.Context, postID string, action models.VoteAction) (*models.Post, error) {
	var post models.Post
	body := models.VoteRequest{PostID: postID, Action: action}
	if err := c.do(ctx, http.MethodPost, "/posts/"+url.PathEscape(postID)+"/vote", body, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	var created models.Comment
	if err := c.do(ctx, http.MethodPost, "/comments", comment, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (c *Client) GetComment(ctx context.Context, commentID string) (*models.Comment, error) {
	var comment models.Comment
	if err := c.do(ctx, http.MethodGet, "/comments/"+url.PathEscape(commentID), nil, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) VoteComment(ctx context.Context, commentID string, action models.VoteAction) (*models.Comment, error) {
	var comment models.Comment
	body := models.VoteRequest{CommentID: commentID, Action: action}
	if err := c.do(ctx, http.MethodPost, "/comments/"+url.PathEscape(commentID)+"/vote", body, &comment); err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) GetTopComments(ctx context.Context, postID string, n int) ([]*models.Comment, error) {
	return c.stream(ctx, "/posts/"+url.PathEscape(postID)+"/top-comments?n="+strconv.Itoa(n))
}

func (c *Client) ExpandCommentBranch(ctx context.Context, commentID string, n int) ([]*models.Comment, error) {
	return c.stream(ctx, "/comments/"+url.PathEscape(commentID)+"/branch?n="+strconv.Itoa(n))
}

// stream читает NDJSON-ответ до конца
func (c *Client) stream(ctx context.Context, path string) ([]*models.Comment, error) {
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var comments []*models.Comment
	dec := json.NewDecoder(resp.Body)
	for {
		var comment models.Comment
		err := dec.Decode(&comment)
		if errors.Is(err, io.EOF) {
			return comments, nil
		}
		if err != nil {
			return comments, err
		}
		comments = append(comments, &comment)
	}
}
