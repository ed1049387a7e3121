package config

import (
	"log"

	"github.com/BurntSushi/toml"
)

type MainConfig struct {
	AppName string `toml:"appName"`
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
}

type MysqlConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	DatabaseName string `toml:"databaseName"`
}

type LogConfig struct {
	LogPath string `toml:"logPath"`
}

type JwtConfig struct {
	Key         string `toml:"key"`
	ExpireHours int    `toml:"expireHours"`
	Issuer      string `toml:"issuer"`
}

type KafkaConfig struct {
	Brokers              []string `toml:"brokers"`
	ClientID             string   `toml:"clientID"`
	EventFeedTopic       string   `toml:"eventFeedTopic"`
	DeliveryRequestTopic string   `toml:"deliveryRequestTopic"`
	ConsumerGroupID      string   `toml:"consumerGroupID"`
	Partitions           int32    `toml:"partitions"`
	Replication          int16    `toml:"replication"`
}

type RedisConfig struct {
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Password     string `toml:"password"`
	DB           int    `toml:"db"`
	PoolSize     int    `toml:"poolSize"`
	MinIdleConns int    `toml:"minIdleConns"`
}

// WorkerConfig 账号连接工作单元配置
type WorkerConfig struct {
	GatewayURL             string `toml:"gatewayURL"`
	ReconnectDelaySeconds  int    `toml:"reconnectDelaySeconds"`
	MaxReconnectAttempts   int    `toml:"maxReconnectAttempts"`
	StatusIntervalSeconds  int    `toml:"statusIntervalSeconds"`
	ShutdownTimeoutSeconds int    `toml:"shutdownTimeoutSeconds"`
}

// TriggerConfig 触发判定配置
type TriggerConfig struct {
	CooldownMinutes int `toml:"cooldownMinutes"`
}

// ContentConfig 外部内容检索服务配置
type ContentConfig struct {
	BaseURL        string `toml:"baseURL"`
	APIKey         string `toml:"apiKey"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
	MaxCandidates  int    `toml:"maxCandidates"`
}

// CryptoConfig 账号凭证加密配置，key 为 32 字节十六进制字符串
type CryptoConfig struct {
	CredentialKey string `toml:"credentialKey"`
}

type Config struct {
	MainConfig    `toml:"mainConfig"`
	MysqlConfig   `toml:"mysqlConfig"`
	JwtConfig     `toml:"jwtConfig"`
	KafkaConfig   `toml:"kafkaConfig"`
	LogConfig     `toml:"logConfig"`
	RedisConfig   `toml:"redisConfig"`
	WorkerConfig  `toml:"workerConfig"`
	TriggerConfig `toml:"triggerConfig"`
	ContentConfig `toml:"contentConfig"`
	CryptoConfig  `toml:"cryptoConfig"`
}

var config *Config

func LoadConfig() error {
	configPath := "configs/config_local.toml"
	if _, err := toml.DecodeFile(configPath, config); err != nil {
		log.Printf("加载配置文件失败: %v, 尝试使用默认设置", err)
		return err
	}
	return nil
}

func GetConfig() *Config {
	if config == nil {
		config = new(Config)
		_ = LoadConfig()
	}
	return config
}
