package content

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

const subscriberBuffer = 16

// Broker 进度事件广播器
// 发布方永不阻塞：订阅者缓冲满时事件直接丢弃
type Broker struct {
	mu     sync.RWMutex
	subs   map[int]chan ProgressEvent
	nextID int
}

// NewBroker 创建事件广播器
func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan ProgressEvent)}
}

// Subscribe 订阅进度事件，返回事件通道和取消函数
func (b *Broker) Subscribe() (<-chan ProgressEvent, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan ProgressEvent, subscriberBuffer)
	b.subs[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if ch, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
	}
	return ch, unsubscribe
}

// Publish 广播事件，慢订阅者丢事件而不是阻塞发布方
func (b *Broker) Publish(event ProgressEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
			log.Debugf("progress event dropped: task_id=%s, phase=%s", event.TaskID, event.Phase)
		}
	}
}

// SubscriberCount 当前订阅者数量
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
