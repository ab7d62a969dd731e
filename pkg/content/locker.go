package content

import (
	"context"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// ExecLocker 单任务执行锁：同一任务同一时刻只允许一个执行者
type ExecLocker interface {
	// TryAcquire 尝试获取锁，成功时返回释放函数
	TryAcquire(ctx context.Context, taskID string) (release func(), ok bool)
}

// LocalLocker 进程内执行锁
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker 创建进程内执行锁
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) TryAcquire(_ context.Context, taskID string) (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.held[taskID]; ok {
		return nil, false
	}
	l.held[taskID] = struct{}{}

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, taskID)
	}, true
}

const (
	lockKeyPrefix = "ai_content:exec_lock:"
	lockTTL       = 10 * time.Minute
)

// 仅当持有者一致时删除锁，避免释放别人的锁
const releaseLockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end`

// RedisLocker 基于 redis SETNX 的跨进程执行锁
type RedisLocker struct {
	client *goredis.Client
}

// NewRedisLocker 创建 redis 执行锁
func NewRedisLocker(client *goredis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) TryAcquire(ctx context.Context, taskID string) (func(), bool) {
	key := lockKeyPrefix + taskID
	token := uuid.New().String()

	ok, err := l.client.SetNX(ctx, key, token, lockTTL).Result()
	if err != nil {
		log.Errorf("exec lock SetNX error: task_id=%s, err=%v", taskID, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	return func() {
		if err := l.client.Eval(context.Background(), releaseLockScript, []string{key}, token).Err(); err != nil {
			log.Warnf("exec lock release error: task_id=%s, err=%v", taskID, err)
		}
	}, true
}
