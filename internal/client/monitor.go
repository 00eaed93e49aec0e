package client

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/ButyrinIA/board/internal/models"
	"github.com/gorilla/websocket"
)

// MonitorSession - клиентская сторона сессии мониторинга.
// Watch и CloseSend вызываются из одной горутины, Recv - из другой.
type MonitorSession struct {
	conn *websocket.Conn
}

// MonitorUpdates открывает сессию и отправляет первый запрос с постом
func (c *Client) MonitorUpdates(ctx context.Context, postID string) (*MonitorSession, error) {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/monitor"
	conn, _, err := c.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}

	s := &MonitorSession{conn: conn}
	if err := s.send(models.UpdateRequest{PostID: postID}); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

func (s *MonitorSession) send(req models.UpdateRequest) error {
	return s.conn.WriteJSON(req)
}

// Watch добавляет комментарий в набор наблюдения
func (s *MonitorSession) Watch(commentID string) error {
	return s.send(models.UpdateRequest{CommentID: commentID})
}

func (s *MonitorSession) WatchPost(postID string) error {
	return s.send(models.UpdateRequest{PostID: postID})
}

// Recv возвращает io.EOF после штатного закрытия сессии сервером
func (s *MonitorSession) Recv() (*models.UpdateResponse, error) {
	var resp models.UpdateResponse
	if err := s.conn.ReadJSON(&resp); err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
			return nil, io.EOF
		}
		return nil, err
	}
	return &resp, nil
}

// CloseSend сообщает серверу, что новых идентификаторов не будет
func (s *MonitorSession) CloseSend() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	return s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
}

// Cancel обрывает сессию без ожидания оставшихся снимков
func (s *MonitorSession) Cancel() error {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "")
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return s.conn.Close()
}

func (s *MonitorSession) Close() error {
	return s.conn.Close()
}
