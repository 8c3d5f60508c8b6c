package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 结构体用于存储服务器配置
type Config struct {
	Account struct {
		Uin      int64  `yaml:"uin"`
		Nickname string `yaml:"nickname"`
	} `yaml:"account"`

	Logging struct {
		Level     string `yaml:"level"`
		FilePath  string `yaml:"file_path"`
		AddSource bool   `yaml:"add_source"`
		JSON      bool   `yaml:"json"`
	} `yaml:"logging"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Channels []Channel `yaml:"channels"`
}

// Channel 表示单个通道配置
type Channel struct {
	WS        *WS        `yaml:"ws,omitempty"`
	WSReverse *WSReverse `yaml:"ws-reverse,omitempty"`
}

// WS 表示正向 WebSocket 服务配置
type WS struct {
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	AccessToken       string `yaml:"access-token"`
	HeartbeatInterval int64  `yaml:"heartbeat-interval"`
}

// WSReverse 表示反向 WebSocket 连接配置
type WSReverse struct {
	Universal         string `yaml:"universal"`
	ReconnectInterval int64  `yaml:"reconnect-interval"`
	Authorization     string `yaml:"authorization"`
	MaxRetries        int    `yaml:"max-retries"`
	HeartbeatInterval int64  `yaml:"heartbeat-interval"`
}

// overrides 环境变量覆盖项，前缀 LAGRANGE_
type overrides struct {
	AccessToken  string `env:"ACCESS_TOKEN"`
	LogLevel     string `env:"LOG_LEVEL"`
	DatabasePath string `env:"DATABASE_PATH"`
}

// 全局配置变量
var config Config

// LoadConfig 从 YAML 文件加载配置，并应用环境变量覆盖
func LoadConfig(filename string) error {
	// .env 文件不存在时忽略
	_ = godotenv.Load()

	file, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("打开配置文件失败: %v", err)
	}

	config = Config{}
	if err = yaml.Unmarshal(file, &config); err != nil {
		return fmt.Errorf("无法解析 YAML 文件: %v", err)
	}

	// 设置默认值
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Database.Path == "" {
		config.Database.Path = "lagrange.db"
	}
	for _, channel := range config.Channels {
		if channel.WS != nil {
			if channel.WS.Host == "" {
				channel.WS.Host = "0.0.0.0"
			}
			if channel.WS.HeartbeatInterval <= 0 {
				channel.WS.HeartbeatInterval = 5000
			}
		}
		if channel.WSReverse != nil {
			if channel.WSReverse.ReconnectInterval <= 0 {
				channel.WSReverse.ReconnectInterval = 5000
			}
			if channel.WSReverse.HeartbeatInterval <= 0 {
				channel.WSReverse.HeartbeatInterval = 5000
			}
		}
	}

	var o overrides
	if err = env.ParseWithOptions(&o, env.Options{Prefix: "LAGRANGE_"}); err != nil {
		return fmt.Errorf("解析环境变量失败: %v", err)
	}
	if o.LogLevel != "" {
		config.Logging.Level = o.LogLevel
	}
	if o.DatabasePath != "" {
		config.Database.Path = o.DatabasePath
	}
	if o.AccessToken != "" {
		for _, channel := range config.Channels {
			if channel.WS != nil {
				channel.WS.AccessToken = o.AccessToken
			}
			if channel.WSReverse != nil {
				channel.WSReverse.Authorization = o.AccessToken
			}
		}
	}

	return nil
}

func GetConfig() *Config {
	return &config
}
