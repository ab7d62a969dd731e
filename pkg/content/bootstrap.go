package content

import (
	"context"
	"fmt"

	"ai_content/config"
	"ai_content/constant"
	"ai_content/pkg/clients/assets"
	"ai_content/pkg/clients/cms"
	"ai_content/pkg/clients/redis"
	"ai_content/repository/factory"
)

// Module 一套组装完成的内容生成编排组件
type Module struct {
	Config  *EngineConfig
	Store   Store
	Service *Service
	Pool    *Pool
	Broker  *Broker
}

// EngineConfigFromSettings 从配置文件读取引擎配置，未配置项使用默认值
func EngineConfigFromSettings() *EngineConfig {
	conf := config.GetInstance()
	cfg := DefaultEngineConfig()

	cfg.StorageType = StorageType(conf.GetStringOrDefault(config.EngineStorageType, cfg.StorageType.String()))
	cfg.StoragePath = conf.GetStringOrDefault(config.EngineStoragePath, cfg.StoragePath)
	cfg.EnableFileSync = conf.GetBoolOrDefault(config.EngineEnableFileSync, cfg.EnableFileSync)
	cfg.Workers = conf.GetIntOrDefault(config.EngineWorkers, cfg.Workers)
	cfg.MaxIterations = conf.GetIntOrDefault(config.EngineMaxIterations, cfg.MaxIterations)
	cfg.PhaseTimeout = conf.GetDurationSecondsOrDefault(config.EnginePhaseTimeout, cfg.PhaseTimeout)
	cfg.PhaseRetries = conf.GetIntOrDefault(config.EnginePhaseRetries, cfg.PhaseRetries)
	cfg.PollInterval = conf.GetDurationSecondsOrDefault(config.EnginePollInterval, cfg.PollInterval)
	cfg.QualityThreshold = conf.GetFloat64OrDefault(config.QualityThreshold, cfg.QualityThreshold)
	cfg.EvalMode = EvalMode(conf.GetStringOrDefault(config.QualityMode, cfg.EvalMode.String()))

	return cfg
}

// NewModule 按配置组装全部组件
// redis 未配置时退化为进程内锁和日志成本记录
func NewModule(repoFactory factory.Factory) (*Module, error) {
	conf := config.GetInstance()
	cfg := EngineConfigFromSettings()
	if !cfg.StorageType.IsValid() {
		return nil, fmt.Errorf("invalid storage type: %s", cfg.StorageType)
	}

	store, err := NewStore(cfg, repoFactory)
	if err != nil {
		return nil, fmt.Errorf("failed to create task store: %w", err)
	}

	selector := NewModelSelectorFromConfig()
	evaluator := NewQualityEvaluator(cfg.EvalMode, cfg.QualityThreshold)

	var searcher AssetSearcher
	if conf.GetString(config.AssetsBaseURL) != constant.EmptyString {
		searcher = &assetSearcher{client: assets.GetInstance()}
	}

	var locker ExecLocker
	var costs CostRecorder
	if conf.GetString(config.RedisClientHost) != constant.EmptyString {
		locker = NewRedisLocker(redis.GetInstance().Client)
		costs = NewRedisCostRecorder(redis.GetInstance().Client)
	} else {
		locker = NewLocalLocker()
		costs = LogCostRecorder{}
	}

	broker := NewBroker()
	registry := NewHandlerRegistry(evaluator, searcher)
	engine := NewEngine(cfg, store, selector, registry, broker, costs)
	pool := NewPool(cfg, store, engine, locker)
	gate := NewApprovalGate(store, &cmsPublisher{client: cms.GetInstance()})
	service := NewService(cfg, store, selector, gate, broker, pool)

	return &Module{
		Config:  cfg,
		Store:   store,
		Service: service,
		Pool:    pool,
		Broker:  broker,
	}, nil
}

// cmsPublisher CMS 客户端到发布协作方的适配
type cmsPublisher struct {
	client *cms.Client
}

func (p *cmsPublisher) Publish(ctx context.Context, taskID, title, body string, tags []string) (string, string, error) {
	result, err := p.client.Publish(ctx, &cms.PublishRequest{
		TaskID:  taskID,
		Title:   title,
		Content: body,
		Tags:    tags,
	})
	if err != nil {
		return "", "", err
	}
	return result.ExternalID, result.URL, nil
}

// assetSearcher 素材客户端到检索协作方的适配
type assetSearcher struct {
	client *assets.Client
}

func (s *assetSearcher) SearchAsset(ctx context.Context, query string) (string, bool, error) {
	ref, err := s.client.Search(ctx, query)
	if err != nil {
		return "", false, err
	}
	if ref == nil {
		return "", false, nil
	}
	return ref.URL, true, nil
}
