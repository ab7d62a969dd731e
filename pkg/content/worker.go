package content

import (
	"context"
	"sync"
	"time"

	"ai_content/model"

	log "github.com/sirupsen/logrus"
)

// Pool 任务工作池
// 每个工作协程轮询待处理任务，抢到执行锁的协程独占该任务的整条流水线
type Pool struct {
	cfg    *EngineConfig
	store  Store
	engine *Engine
	locker ExecLocker

	mu      sync.Mutex
	cancels map[string]context.CancelFunc // 运行中任务的取消函数

	wg       sync.WaitGroup
	stopOnce sync.Once
	stop     context.CancelFunc
}

// NewPool 创建工作池
func NewPool(cfg *EngineConfig, store Store, engine *Engine, locker ExecLocker) *Pool {
	return &Pool{
		cfg:     cfg,
		store:   store,
		engine:  engine,
		locker:  locker,
		cancels: make(map[string]context.CancelFunc),
	}
}

// Start 启动工作协程
func (p *Pool) Start(ctx context.Context) {
	ctx, p.stop = context.WithCancel(ctx)

	workers := p.cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.workerLoop(ctx, i)
	}
	log.Infof("worker pool started: workers=%d, poll_interval=%s", workers, p.cfg.PollInterval)
}

// Stop 停止工作池并等待运行中任务退出
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		if p.stop != nil {
			p.stop()
		}
	})
	p.wg.Wait()
	log.Info("worker pool stopped")
}

// Cancel 取消运行中任务的执行，任务未在本进程运行时为空操作
func (p *Pool) Cancel(taskID string) {
	p.mu.Lock()
	cancel, ok := p.cancels[taskID]
	p.mu.Unlock()
	if ok {
		cancel()
	}
}

func (p *Pool) workerLoop(ctx context.Context, workerID int) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.pollOnce(ctx, workerID)
		}
	}
}

// pollOnce 认领并执行一个待处理任务
func (p *Pool) pollOnce(ctx context.Context, workerID int) {
	status := TaskStatusPending
	tasks, _, err := p.store.List(&TaskFilter{Status: &status, Limit: p.cfg.Workers * 2})
	if err != nil {
		log.Errorf("worker poll failed: worker=%d, err=%v", workerID, err)
		return
	}

	for _, candidate := range tasks {
		release, ok := p.locker.TryAcquire(ctx, candidate.ID)
		if !ok {
			continue
		}

		// 抢锁后再做状态迁移，输掉竞争的协程在这里退出
		if _, err := p.store.Update(candidate.ID, func(t *Task) error {
			t.Status = TaskStatusGenerating
			return nil
		}); err != nil {
			release()
			if !model.IsCode(err, model.ErrorState) {
				log.Errorf("worker claim failed: worker=%d, task_id=%s, err=%v", workerID, candidate.ID, err)
			}
			continue
		}

		p.runTask(ctx, workerID, candidate.ID, release)
		return
	}
}

// runTask 执行单个任务的流水线，无论成败都释放锁
func (p *Pool) runTask(ctx context.Context, workerID int, taskID string, release func()) {
	taskCtx, cancel := context.WithCancel(ctx)

	p.mu.Lock()
	p.cancels[taskID] = cancel
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.cancels, taskID)
		p.mu.Unlock()
		cancel()
		release()
	}()

	log.Infof("worker picked task: worker=%d, task_id=%s", workerID, taskID)
	if err := p.engine.RunPipeline(taskCtx, taskID); err != nil {
		if model.IsCode(err, model.ErrorCancelled) {
			log.Infof("task cancelled: worker=%d, task_id=%s", workerID, taskID)
			return
		}
		log.Errorf("task pipeline failed: worker=%d, task_id=%s, err=%v", workerID, taskID, err)
	}
}
