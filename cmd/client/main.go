package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ButyrinIA/board/internal/client"
	"github.com/ButyrinIA/board/internal/models"
)

func main() {
	addr := flag.String("addr", "http://localhost:50053", "адрес сервера")
	op := flag.String("op", "", "операция: create-post, vote-post, get-post, create-comment, vote-comment, top-comments, expand, monitor")
	id := flag.String("id", "1", "идентификатор поста или комментария")
	action := flag.String("action", string(models.Upvote), "UPVOTE или DOWNVOTE")
	n := flag.Int("n", 5, "количество комментариев")
	watch := flag.String("watch", "", "комментарии для мониторинга через запятую")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(*addr)
	var err error
	switch *op {
	case "create-post":
		var post *models.Post
		post, err = c.CreatePost(ctx, models.NewPost(
			"Dummy Post Title",
			"This is a dummy post text.",
			"https://example.com/dummy_video.mp4",
			"Dummy Author",
			0,
			models.PostVisible,
			"2023-12-10T12:00:00Z",
		))
		show(post)
	case "vote-post":
		var post *models.Post
		post, err = c.VotePost(ctx, *id, models.VoteAction(*action))
		show(post)
	case "get-post":
		var post *models.Post
		post, err = c.GetPostContent(ctx, *id)
		show(post)
	case "create-comment":
		var comment *models.Comment
		comment, err = c.CreateComment(ctx, models.NewComment(*id, nil, "This is a dummy comment.", "Dummy Author", 0, false, "2023-12-10T12:00:00Z"))
		show(comment)
	case "vote-comment":
		var comment *models.Comment
		comment, err = c.VoteComment(ctx, *id, models.VoteAction(*action))
		show(comment)
	case "top-comments":
		var comments []*models.Comment
		comments, err = c.GetTopComments(ctx, *id, *n)
		for _, comment := range comments {
			fmt.Printf("Comment ID: %s, Score: %d, Replies Exist: %t\n", comment.ID, comment.Score, comment.RepliesExist)
		}
	case "expand":
		var comments []*models.Comment
		comments, err = c.ExpandCommentBranch(ctx, *id, *n)
		for _, comment := range comments {
			fmt.Printf("Comment ID: %s, Score: %d\n", comment.ID, comment.Score)
		}
	case "monitor":
		err = monitor(ctx, c, *id, *watch)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("call failed", "op", *op, "err", err)
		os.Exit(1)
	}
}

func show[T any](v *T) {
	if v != nil {
		fmt.Printf("%+v\n", v)
	}
}

func monitor(ctx context.Context, c *client.Client, postID, watch string) error {
	session, err := c.MonitorUpdates(ctx, postID)
	if err != nil {
		return err
	}
	defer session.Close()

	go func() {
		<-ctx.Done()
		_ = session.Cancel()
	}()

	for _, commentID := range strings.Split(watch, ",") {
		if commentID = strings.TrimSpace(commentID); commentID != "" {
			if err := session.Watch(commentID); err != nil {
				return err
			}
		}
	}

	for {
		update, err := session.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if update.Code != "" {
			fmt.Printf("Entity ID: %s, %s: %s\n", update.EntityID, update.Code, update.Message)
			continue
		}
		fmt.Printf("Entity ID: %s, Updated Score: %d\n", update.EntityID, update.Score)
	}
}
