package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Telnet   TelnetConfig   `mapstructure:"telnet"`
	Runner   RunnerConfig   `mapstructure:"runner"`
	Database DatabaseConfig `mapstructure:"database"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	SimulateEnable bool          `mapstructure:"simulate_enable"`
}

// TelnetConfig 会话默认参数：任务未指定时的兜底值
type TelnetConfig struct {
	Port           int           `mapstructure:"port"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	StepTimeout    time.Duration `mapstructure:"step_timeout"`
	Charset        string        `mapstructure:"charset"`
	Debug          bool          `mapstructure:"debug"`
}

// RunnerConfig 任务执行配置
type RunnerConfig struct {
	// Concurrent 同时运行的会话数上限；每个会话内部仍是严格串行的
	Concurrent int `mapstructure:"concurrent"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

// SQLiteConfig SQLite配置
type SQLiteConfig struct {
	Path            string        `mapstructure:"path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ArchiveConfig 脚本输出归档配置
type ArchiveConfig struct {
	// Backend 默认存储后端：local | minio
	Backend string             `mapstructure:"backend"`
	Prefix  string             `mapstructure:"prefix"`
	Local   LocalArchiveConfig `mapstructure:"local"`
	Minio   MinioConfig        `mapstructure:"minio"`
}

// LocalArchiveConfig 本地归档配置
type LocalArchiveConfig struct {
	BaseDir        string `mapstructure:"base_dir"`
	MkdirIfMissing bool   `mapstructure:"mkdir_if_missing"`
}

// MinioConfig 对象存储配置
type MinioConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Secure    bool   `mapstructure:"secure"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

var globalConfig *Config

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")

	setDefaults()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("../configs")
		viper.AddConfigPath("../../configs")
	}

	// 环境变量覆盖，前缀 TELNET_SCRIPT
	viper.SetEnvPrefix("TELNET_SCRIPT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)
	viper.SetDefault("server.simulate_enable", false)

	// 会话默认值：经典 telnet 端口与保守超时
	viper.SetDefault("telnet.port", 23)
	viper.SetDefault("telnet.connect_timeout", 10*time.Second)
	viper.SetDefault("telnet.step_timeout", 5*time.Second)
	viper.SetDefault("telnet.charset", "utf-8")

	viper.SetDefault("runner.concurrent", 8)

	viper.SetDefault("database.sqlite.path", "./data/telnetscript.db")
	viper.SetDefault("database.sqlite.max_idle_conns", 1)
	viper.SetDefault("database.sqlite.max_open_conns", 1)
	viper.SetDefault("database.sqlite.conn_max_lifetime", time.Hour)

	viper.SetDefault("archive.backend", "local")
	viper.SetDefault("archive.prefix", "scripts")
	viper.SetDefault("archive.local.base_dir", "./data/archives")
	viper.SetDefault("archive.local.mkdir_if_missing", true)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.output", "console")
}

// Get 获取全局配置
func Get() *Config {
	return globalConfig
}

// GetServerAddr 获取服务器地址
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
