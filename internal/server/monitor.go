package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ButyrinIA/board/internal/models"
	"github.com/gorilla/websocket"
)

// wsStream - сессия мониторинга поверх WebSocket.
// Кадр закрытия 1000 означает конец отправки клиентом, 1001 и обрыв - отмену.
type wsStream struct {
	conn *websocket.Conn
}

func (s *wsStream) Recv() (*models.UpdateRequest, error) {
	_, data, err := s.conn.ReadMessage()
	if err != nil {
		switch {
		case websocket.IsCloseError(err, websocket.CloseNormalClosure):
			return nil, io.EOF
		case websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNoStatusReceived, websocket.CloseAbnormalClosure):
			return nil, context.Canceled
		}
		return nil, err
	}

	var req models.UpdateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		// пустой запрос не пройдет проверку и вернется клиенту как INVALID_ARGUMENT
		slog.Warn("malformed monitor request", "err", err)
		return &models.UpdateRequest{}, nil
	}
	return &req, nil
}

func (s *wsStream) Send(resp *models.UpdateResponse) error {
	err := s.conn.WriteJSON(resp)
	if errors.Is(err, websocket.ErrCloseSent) {
		return io.EOF
	}
	return err
}

func (s *Server) monitorUpdates(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade", "err", err)
		return
	}
	defer conn.Close()

	closeCode, reason := websocket.CloseNormalClosure, ""
	if err := s.monitor.Serve(r.Context(), &wsStream{conn: conn}); err != nil {
		slog.Error("monitor session failed", "err", err)
		closeCode, reason = websocket.CloseInternalServerErr, err.Error()
	}
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(closeCode, reason), time.Now().Add(time.Second))
}
