package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ButyrinIA/board/internal/models"
	"github.com/google/uuid"
)

// UpdateStream - дуплексный канал одной сессии мониторинга.
// Recv возвращает io.EOF, когда клиент закончил отправку,
// и context.Canceled, когда клиент оборвал сессию.
type UpdateStream interface {
	Recv() (*models.UpdateRequest, error)
	Send(*models.UpdateResponse) error
}

type sessionState int

const (
	stateInit sessionState = iota
	stateActive
	stateClosed
)

func (s sessionState) String() string {
	switch s {
	case stateInit:
		return "INIT"
	case stateActive:
		return "ACTIVE"
	case stateClosed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

// session хранит набор наблюдаемых сущностей и последний отданный счет
type session struct {
	id    uuid.UUID
	state sessionState
	watch map[entityKey]int64
}

func newSession() *session {
	return &session{
		id:    uuid.New(),
		state: stateInit,
		watch: make(map[entityKey]int64),
	}
}

func (s *session) observe(kind models.EntityKind, id string, score int64) *models.UpdateResponse {
	s.watch[entityKey{kind: kind, id: id}] = score
	return &models.UpdateResponse{Kind: kind, EntityID: id, Score: score}
}

func (s *session) close() {
	s.state = stateClosed
	s.watch = nil
}

type Monitor struct {
	svc *Service
}

func NewMonitor(svc *Service) *Monitor {
	return &Monitor{svc: svc}
}

type received struct {
	req *models.UpdateRequest
	err error
}

// Serve ведет сессию до конца входящего потока или отмены ctx.
// Завершение клиентом и отмена ошибкой не считаются.
func (m *Monitor) Serve(ctx context.Context, stream UpdateStream) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sess := newSession()
	log := slog.With("session", sess.id.String())
	log.Info("monitor session opened")
	defer func() {
		log.Info("monitor session closed", "watched", len(sess.watch), "state", sess.state.String())
		sess.close()
	}()

	var pushes <-chan entityKey
	if m.svc.notifier != nil {
		_, pushes = m.svc.notifier.Subscribe(ctx)
	}

	// Следующее сообщение читается только после ответа на предыдущее,
	// иначе закрытие от клиента может обогнать еще не отправленные снимки.
	inbound := make(chan received)
	next := make(chan struct{})
	go func() {
		for {
			req, err := stream.Recv()
			select {
			case inbound <- received{req: req, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
			select {
			case <-next:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info("monitor session cancelled")
			return nil

		case r := <-inbound:
			if r.err != nil {
				return streamFault(log, "recv", r.err)
			}
			for _, resp := range m.process(ctx, sess, r.req) {
				if err := stream.Send(resp); err != nil {
					return streamFault(log, "send", err)
				}
			}
			// читатель мог уже выйти по отмене ctx
			select {
			case next <- struct{}{}:
			case <-ctx.Done():
				log.Info("monitor session cancelled")
				return nil
			}

		case key, ok := <-pushes:
			if !ok {
				pushes = nil
				continue
			}
			if resp := m.refresh(ctx, sess, key); resp != nil {
				if err := stream.Send(resp); err != nil {
					return streamFault(log, "send", err)
				}
			}
		}
	}
}

// streamFault отделяет штатное завершение потока от сбоя
func streamFault(log *slog.Logger, op string, err error) error {
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case errors.Is(err, context.Canceled):
		log.Info("client stream terminated", "op", op)
		return nil
	}
	return fmt.Errorf("monitor %s: %w", op, err)
}

// process выполняет один переход автомата и возвращает снимки для отправки
func (m *Monitor) process(ctx context.Context, sess *session, req *models.UpdateRequest) []*models.UpdateResponse {
	if req == nil {
		return []*models.UpdateResponse{failure("", "", models.ErrBadUpdateRequest)}
	}
	kind, id := req.Entity()
	if err := req.Validate(); err != nil {
		return []*models.UpdateResponse{failure(kind, id, err)}
	}

	if sess.state == stateInit {
		if kind != models.KindPost {
			err := fmt.Errorf("%w: first message must carry a post id", ErrInvalidArgument)
			return []*models.UpdateResponse{failure(kind, id, err)}
		}
		return m.start(ctx, sess, id)
	}

	score, err := m.score(ctx, entityKey{kind: kind, id: id})
	if err != nil {
		return []*models.UpdateResponse{failure(kind, id, err)}
	}
	return []*models.UpdateResponse{sess.observe(kind, id, score)}
}

// start переводит сессию в ACTIVE: пост, затем его комментарии по порядку
func (m *Monitor) start(ctx context.Context, sess *session, postID string) []*models.UpdateResponse {
	post, err := m.svc.GetPostContent(ctx, postID)
	if err != nil {
		return []*models.UpdateResponse{failure(models.KindPost, postID, err)}
	}
	comments, err := m.svc.loadComments(ctx, post.Comments)
	if err != nil {
		return []*models.UpdateResponse{failure(models.KindPost, postID, err)}
	}

	sess.state = stateActive
	out := make([]*models.UpdateResponse, 0, len(comments)+1)
	out = append(out, sess.observe(models.KindPost, post.ID, post.Score))
	for _, c := range comments {
		out = append(out, sess.observe(models.KindComment, c.ID, c.Score))
	}
	return out
}

// refresh перечитывает счет наблюдаемой сущности после сигнала и отдает его,
// только если он отличается от последнего отправленного
func (m *Monitor) refresh(ctx context.Context, sess *session, key entityKey) *models.UpdateResponse {
	last, watched := sess.watch[key]
	if !watched {
		return nil
	}
	score, err := m.score(ctx, key)
	if err != nil || score == last {
		return nil
	}
	return sess.observe(key.kind, key.id, score)
}

func (m *Monitor) score(ctx context.Context, key entityKey) (int64, error) {
	if key.kind == models.KindPost {
		post, err := m.svc.GetPostContent(ctx, key.id)
		if err != nil {
			return 0, err
		}
		return post.Score, nil
	}
	comment, err := m.svc.GetComment(ctx, key.id)
	if err != nil {
		return 0, err
	}
	return comment.Score, nil
}

func failure(kind models.EntityKind, id string, err error) *models.UpdateResponse {
	return &models.UpdateResponse{
		Kind:     kind,
		EntityID: id,
		Code:     string(CodeOf(err)),
		Message:  err.Error(),
	}
}
