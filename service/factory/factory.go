package factory

import (
	"sync"

	"ai_content/config"
	"ai_content/pkg/content"
	repofactory "ai_content/repository/factory"
	"ai_content/repository/xormimplement"

	log "github.com/sirupsen/logrus"
)

var instance *Factory
var once sync.Once

// 创建
type Factory struct {
	moduleOnce    sync.Once
	contentModule *content.Module
}

// 实例化instance
func init() {
	once.Do(func() {
		instance = &Factory{}
	})
}

// 单例模式，
func GetServiceFactory() *Factory {
	return instance
}

// ContentModule 获取内容编排模块，首次调用时组装
// 文件存储模式不建数据库连接
func (f *Factory) ContentModule() *content.Module {
	f.moduleOnce.Do(func() {
		storageType := content.StorageType(config.GetInstance().GetStringOrDefault(
			config.EngineStorageType, content.StorageTypeFile.String()))

		var repoFactory repofactory.Factory
		if storageType != content.StorageTypeFile {
			repoFactory = xormimplement.GetRepositoryFactoryInstance()
		}

		module, err := content.NewModule(repoFactory)
		if err != nil {
			log.Fatalf("Failed to create content module: %v", err)
		}
		f.contentModule = module
	})
	return f.contentModule
}

// NewContentService 获取内容任务服务
func (f *Factory) NewContentService() *content.Service {
	return f.ContentModule().Service
}
