package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrokerPublishSubscribe(t *testing.T) {
	broker := NewBroker()

	events, unsubscribe := broker.Subscribe()
	defer unsubscribe()
	assert.Equal(t, 1, broker.SubscriberCount())

	broker.Publish(ProgressEvent{TaskID: "task-1", Phase: PhaseDraft, Percent: 30})

	select {
	case event := <-events:
		assert.Equal(t, "task-1", event.TaskID)
		assert.Equal(t, PhaseDraft, event.Phase)
		// 发布时补时间戳
		assert.False(t, event.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("事件未送达")
	}
}

func TestBrokerNeverBlocks(t *testing.T) {
	broker := NewBroker()

	// 订阅后不消费，填满缓冲
	_, unsubscribe := broker.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*3; i++ {
			broker.Publish(ProgressEvent{TaskID: "task-1", Percent: i})
		}
	}()

	// 慢订阅者丢事件，发布方不能被阻塞
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("发布被慢订阅者阻塞")
	}
}

func TestBrokerUnsubscribe(t *testing.T) {
	broker := NewBroker()

	events, unsubscribe := broker.Subscribe()
	unsubscribe()
	assert.Equal(t, 0, broker.SubscriberCount())

	// 取消后通道关闭
	_, ok := <-events
	assert.False(t, ok)

	// 重复取消安全
	assert.NotPanics(t, unsubscribe)

	// 取消后发布不受影响
	assert.NotPanics(t, func() {
		broker.Publish(ProgressEvent{TaskID: "task-1"})
	})
}

func TestBrokerMultipleSubscribers(t *testing.T) {
	broker := NewBroker()

	first, stopFirst := broker.Subscribe()
	second, stopSecond := broker.Subscribe()
	defer stopFirst()
	defer stopSecond()

	broker.Publish(ProgressEvent{TaskID: "task-1", Percent: 50})

	for _, events := range []<-chan ProgressEvent{first, second} {
		select {
		case event := <-events:
			require.Equal(t, "task-1", event.TaskID)
		case <-time.After(time.Second):
			t.Fatal("订阅者未收到事件")
		}
	}
}
