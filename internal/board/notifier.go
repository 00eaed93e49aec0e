package board

import (
	"context"
	"sync"

	"github.com/ButyrinIA/board/internal/models"
	"github.com/google/uuid"
)

type entityKey struct {
	kind models.EntityKind
	id   string
}

// notifier рассылает сигналы об изменении счета подписчикам.
// Публикация не блокируется: медленный подписчик теряет сигнал.
type notifier struct {
	subscribers map[uuid.UUID]chan entityKey
	buffer      int
	mu          sync.RWMutex
}

func newNotifier(buffer int) *notifier {
	return &notifier{
		subscribers: make(map[uuid.UUID]chan entityKey),
		buffer:      buffer,
	}
}

// Subscribe регистрирует подписчика до завершения ctx
func (n *notifier) Subscribe(ctx context.Context) (uuid.UUID, <-chan entityKey) {
	id := uuid.New()
	ch := make(chan entityKey, n.buffer)

	n.mu.Lock()
	n.subscribers[id] = ch
	n.mu.Unlock()

	// Очистка канала после завершения подписки
	go func() {
		<-ctx.Done()
		n.mu.Lock()
		if ch, exists := n.subscribers[id]; exists {
			close(ch)
			delete(n.subscribers, id)
		}
		n.mu.Unlock()
	}()

	return id, ch
}

func (n *notifier) Publish(key entityKey) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, ch := range n.subscribers {
		select {
		case ch <- key:
		default:
		}
	}
}

func (n *notifier) len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers)
}
