//nolint:typecheck
package config

import (
	"ai_content/constant"
	"ai_content/pkg/file"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	Path = "config"

	OSConfigPath      = "CONFIG_PATH"
	DefaultConfigName = "config.yaml"
	TypeYaml          = "yaml"
	ProjectName       = "ai_content"

	ApplicationLogRequest = "app.log.request"
	AppLogLevel           = "app.log.level"
	AppLogReportcaller    = "app.log.reportcaller"
	AppHost               = "app.host"

	BaseDbXormType     = "base.db.xorm.type"
	BaseDbXormUsername = "base.db.xorm.username"
	BaseDbXormPassword = "base.db.xorm.password"
	BaseDbXormHost     = "base.db.xorm.host"
	BaseDbXormPort     = "base.db.xorm.port"
	BaseDbXormName     = "base.db.xorm.name"
	BaseDbXormShowsql  = "base.db.xorm.showsql"

	ClientsCommonRequestLog = "clients.http.requestLog" // pkg/clients http client 是否打印请求日志

	// 模型供应商配置，<name> 取 openai / deepseek / local
	// API key 从环境变量读取：PROVIDER_<NAME>_API_KEY
	ProviderOpenAIAddr        = "clients.providers.openai.addr"
	ProviderOpenAIModel       = "clients.providers.openai.model"
	ProviderOpenAITemperature = "clients.providers.openai.temperature"
	ProviderOpenAIMaxTokens   = "clients.providers.openai.maxTokens"

	ProviderDeepseekAddr        = "clients.providers.deepseek.addr"
	ProviderDeepseekModel       = "clients.providers.deepseek.model"
	ProviderDeepseekTemperature = "clients.providers.deepseek.temperature"
	ProviderDeepseekMaxTokens   = "clients.providers.deepseek.maxTokens"

	ProviderLocalAddr        = "clients.providers.local.addr"
	ProviderLocalModel       = "clients.providers.local.model"
	ProviderLocalTemperature = "clients.providers.local.temperature"
	ProviderLocalMaxTokens   = "clients.providers.local.maxTokens"

	// redis 配置
	RedisClientDb       = "clients.redisClient.db"
	RedisClientHost     = "clients.redisClient.host"
	RedisClientPassword = "clients.redisClient.password"

	// CMS 发布端配置
	CMSBaseURL = "clients.cms.baseUrl"
	CMSToken   = "clients.cms.token"

	// 素材检索配置
	AssetsBaseURL = "clients.assets.baseUrl"
	AssetsToken   = "clients.assets.token"

	// 编排引擎配置
	EngineWorkers        = "engine.workers"
	EngineMaxIterations  = "engine.maxIterations"
	EnginePhaseTimeout   = "engine.phaseTimeoutSeconds"
	EnginePhaseRetries   = "engine.phaseRetries"
	EnginePollInterval   = "engine.pollIntervalSeconds"
	EngineStorageType    = "engine.storageType"
	EngineStoragePath    = "engine.storagePath"
	EngineEnableFileSync = "engine.enableFileSync"

	// 质量评估配置
	QualityThreshold = "quality.threshold"
	QualityMode      = "quality.mode"
)

var instance *config
var once sync.Once

type config struct {
	*viper.Viper
}

func GetInstance() *config {
	once.Do(func() {
		var configPath string

		envConfigPath := os.Getenv(OSConfigPath)
		if strings.EqualFold(envConfigPath, constant.EmptyString) {
			configPath = fmt.Sprintf("./%v", DefaultConfigName)
			if !file.Exists(configPath) {
				path, err := os.Getwd()
				if err != nil {
					panic("get config path error:" + err.Error())
				}
				configPath = fmt.Sprintf("%v/%v", path[:strings.Index(path, ProjectName)+len(ProjectName)], DefaultConfigName)
			}
			log.Infof("use default path %s", configPath)
		} else {
			log.Infof("find success in constant CONFIG_PATH, use %s", envConfigPath)
			configPath = fmt.Sprintf("%v/%v", envConfigPath, DefaultConfigName)
		}

		configInstance := &config{Viper: viper.New()}
		configInstance.SetConfigType(TypeYaml)
		configInstance.SetConfigFile(configPath)
		if err := configInstance.ReadInConfig(); err != nil {
			panic(err)
		}

		configInstance.AutomaticEnv()
		replacer := strings.NewReplacer(".", "_")
		configInstance.SetEnvKeyReplacer(replacer)

		keys := configInstance.AllKeys()
		for _, key := range keys {
			fmt.Println(key, ":", configInstance.Get(key))
		}

		instance = configInstance
	})
	return instance
}

func (c *config) GetString(key string) string {
	return c.Viper.GetString(key)
}

func (c *config) GetStringOrDefault(key string, defaultValue string) string {
	if c.IsSet(key) {
		return c.GetString(key)
	}

	return defaultValue
}

func (c *config) GetInt(key string) int {
	return c.Viper.GetInt(key)
}

func (c *config) GetIntOrDefault(key string, defaultValue int) int {
	if c.IsSet(key) {
		return c.GetInt(key)
	}

	return defaultValue
}

func (c *config) GetBool(key string) bool {
	return c.Viper.GetBool(key)
}

func (c *config) GetBoolOrDefault(key string, defaultValue bool) bool {
	if c.IsSet(key) {
		return c.GetBool(key)
	}

	return defaultValue
}

func (c *config) GetFloat64(key string) float64 {
	return c.Viper.GetFloat64(key)
}

func (c *config) GetFloat64OrDefault(key string, defaultValue float64) float64 {
	if c.IsSet(key) {
		return c.GetFloat64(key)
	}

	return defaultValue
}

func (c *config) GetDurationSecondsOrDefault(key string, defaultValue time.Duration) time.Duration {
	if c.IsSet(key) {
		return time.Duration(c.GetInt(key)) * time.Second
	}

	return defaultValue
}
