package models

import (
	"errors"
	"fmt"
)

// PostState - видимость поста
type PostState string

const (
	PostVisible PostState = "VISIBLE"
	PostHidden  PostState = "HIDDEN"
)

// EntityKind различает пространства идентификаторов постов и комментариев
type EntityKind string

const (
	KindPost    EntityKind = "post"
	KindComment EntityKind = "comment"
)

// VoteAction - действие голосования
type VoteAction string

const (
	Upvote   VoteAction = "UPVOTE"
	Downvote VoteAction = "DOWNVOTE"
)

var ErrUnknownAction = errors.New("unknown vote action")

// Validate проверяет, что действие известно
func (a VoteAction) Validate() error {
	switch a {
	case Upvote, Downvote:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownAction, string(a))
}

// Delta возвращает изменение счета: +1 для UPVOTE, -1 для DOWNVOTE
func (a VoteAction) Delta() int64 {
	if a == Downvote {
		return -1
	}
	return 1
}

type Post struct {
	ID              string    `json:"postId"`
	Title           string    `json:"title"`
	Text            string    `json:"text"`
	VideoURL        string    `json:"videoUrl,omitempty"`
	Author          string    `json:"author"`
	Score           int64     `json:"score"`
	State           PostState `json:"state"`
	PublicationDate string    `json:"publicationDate"`
	Comments        []string  `json:"comments"`
}

type Comment struct {
	ID              string   `json:"commentId"`
	PostID          string   `json:"postId"`
	ParentID        *string  `json:"parentId,omitempty"`
	Text            string   `json:"text"`
	Author          string   `json:"author"`
	Score           int64    `json:"score"`
	Hidden          bool     `json:"hidden"`
	PublicationDate string   `json:"publicationDate"`
	RepliesExist    bool     `json:"repliesExist"`
	Replies         []string `json:"replies"`
}

// NewPost создает пост без идентификатора, его назначает хранилище
func NewPost(title, text, videoURL, author string, score int64, state PostState, publicationDate string) *Post {
	if state == "" {
		state = PostVisible
	}
	return &Post{
		Title:           title,
		Text:            text,
		VideoURL:        videoURL,
		Author:          author,
		Score:           score,
		State:           state,
		PublicationDate: publicationDate,
	}
}

// NewComment создает комментарий без идентификатора
func NewComment(postID string, parentID *string, text, author string, score int64, hidden bool, publicationDate string) *Comment {
	return &Comment{
		PostID:          postID,
		ParentID:        parentID,
		Text:            text,
		Author:          author,
		Score:           score,
		Hidden:          hidden,
		PublicationDate: publicationDate,
	}
}

// Clone возвращает независимую копию поста
func (p *Post) Clone() *Post {
	c := *p
	c.Comments = append([]string(nil), p.Comments...)
	return &c
}

// Clone возвращает независимую копию комментария
func (c *Comment) Clone() *Comment {
	cc := *c
	if c.ParentID != nil {
		parent := *c.ParentID
		cc.ParentID = &parent
	}
	cc.Replies = append([]string(nil), c.Replies...)
	return &cc
}

type VoteRequest struct {
	PostID    string     `json:"postId,omitempty"`
	CommentID string     `json:"commentId,omitempty"`
	Action    VoteAction `json:"action"`
}

type TopCommentsRequest struct {
	PostID    string `json:"postId,omitempty"`
	CommentID string `json:"commentId,omitempty"`
	N         int    `json:"n"`
}

var ErrBadUpdateRequest = errors.New("exactly one of postId and commentId must be set")

// UpdateRequest - входящее сообщение сессии мониторинга
type UpdateRequest struct {
	PostID    string `json:"postId,omitempty"`
	CommentID string `json:"commentId,omitempty"`
}

func (r UpdateRequest) Validate() error {
	if (r.PostID == "") == (r.CommentID == "") {
		return ErrBadUpdateRequest
	}
	return nil
}

// Entity возвращает вид и идентификатор сущности из запроса
func (r UpdateRequest) Entity() (EntityKind, string) {
	if r.PostID != "" {
		return KindPost, r.PostID
	}
	return KindComment, r.CommentID
}

// UpdateResponse - снимок счета или сигнал ошибки по одному элементу
type UpdateResponse struct {
	Kind     EntityKind `json:"kind"`
	EntityID string     `json:"entityId"`
	Score    int64      `json:"score"`
	Code     string     `json:"code,omitempty"`
	Message  string     `json:"message,omitempty"`
}
