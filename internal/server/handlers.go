package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ButyrinIA/board/internal/board"
	"github.com/ButyrinIA/board/internal/models"
	"github.com/gorilla/mux"
)

// 499 - клиент закрыл запрос
const statusClientClosedRequest = 499

const defaultN = 5

type errorBody struct {
	Code    board.Code `json:"code"`
	Message string     `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "err", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := board.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case board.CodeNotFound:
		status = http.StatusNotFound
	case board.CodeInvalidArgument:
		status = http.StatusBadRequest
	case board.CodeCancelled:
		status = statusClientClosedRequest
	default:
		slog.Error("request failed", "method", r.Method, "url", r.URL.String(), "err", err)
	}
	writeJSON(w, status, errorBody{Code: code, Message: err.Error()})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %v", board.ErrInvalidArgument, err)
	}
	return nil
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	var post models.Post
	if err := decode(r, &post); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.svc.CreatePost(r.Context(), &post)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getPostContent(w http.ResponseWriter, r *http.Request) {
	post, err := s.svc.GetPostContent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) votePost(w http.ResponseWriter, r *http.Request) {
	var req models.VoteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	post, err := s.svc.VotePost(r.Context(), mux.Vars(r)["id"], req.Action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	var comment models.Comment
	if err := decode(r, &comment); err != nil {
		writeError(w, r, err)
		return
	}
	created, err := s.svc.CreateComment(r.Context(), &comment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) getComment(w http.ResponseWriter, r *http.Request) {
	comment, err := s.svc.GetComment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (s *Server) voteComment(w http.ResponseWriter, r *http.Request) {
	var req models.VoteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	comment, err := s.svc.VoteComment(r.Context(), mux.Vars(r)["id"], req.Action)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

// topCommentsRequest собирает запрос из пути и параметра n
func topCommentsRequest(r *http.Request) (models.TopCommentsRequest, error) {
	req := models.TopCommentsRequest{N: defaultN}
	if raw := r.URL.Query().Get("n"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("%w: n must be an integer", board.ErrInvalidArgument)
		}
		req.N = n
	}
	return req, nil
}

func (s *Server) getTopComments(w http.ResponseWriter, r *http.Request) {
	req, err := topCommentsRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.PostID = mux.Vars(r)["id"]
	s.streamComments(w, r, func(ctx context.Context) (<-chan *models.Comment, error) {
		return s.svc.TopComments(ctx, req.PostID, req.N)
	})
}

func (s *Server) expandCommentBranch(w http.ResponseWriter, r *http.Request) {
	req, err := topCommentsRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.CommentID = mux.Vars(r)["id"]
	s.streamComments(w, r, func(ctx context.Context) (<-chan *models.Comment, error) {
		return s.svc.ExpandBranch(ctx, req.CommentID, req.N)
	})
}

// streamComments пишет поток комментариев как NDJSON, по строке на элемент.
// Ошибка до первого элемента отдается обычным ответом с кодом.
func (s *Server) streamComments(w http.ResponseWriter, r *http.Request, open func(context.Context) (<-chan *models.Comment, error)) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	comments, err := open(ctx)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	for c := range comments {
		if err := enc.Encode(c); err != nil {
			slog.Warn("stream interrupted", "url", r.URL.String(), "err", err)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
}
