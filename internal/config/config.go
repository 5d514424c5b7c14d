package config

import (
	"strings"

	"github.com/blues/crowdcampaign/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
	Campaign CampaignConfig `mapstructure:"campaign"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	LogLevel string `mapstructure:"log_level"` // gorm 日志级别: silent, error, warn, info
}

// ChainConfig 链上发放配置，未启用时奖池记入本地账本
type ChainConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ChainId        int64  `mapstructure:"chain_id"`        // 链ID
	RpcUrl         string `mapstructure:"rpc_url"`         // RPC节点URL
	PrivateKey     string `mapstructure:"private_key"`     // 托管账户私钥
	GasLimit       uint64 `mapstructure:"gas_limit"`       // 转账 gas 上限
	ReceiptTimeout int    `mapstructure:"receipt_timeout"` // 等待回执的秒数
	WeiPerUnit     int64  `mapstructure:"wei_per_unit"`    // 奖池单位对应的 wei
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
	Workers  int `mapstructure:"workers"`  // 同步任务协程池大小
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// CampaignConfig 活动注册表配置
type CampaignConfig struct {
	FactoryAddress string `mapstructure:"factory_address"` // 派生活动句柄的工厂地址
	StartPaused    bool   `mapstructure:"start_paused"`    // 启动时是否处于暂停状态
	AdminAddress   string `mapstructure:"admin_address"`   // 可以暂停/恢复系统的地址，为空时禁用
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

// SetDefaults 写入默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "crowdcampaign")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.log_level", "silent")
	v.SetDefault("chain.enabled", false)
	v.SetDefault("chain.gas_limit", 21000)
	v.SetDefault("chain.receipt_timeout", 120)
	v.SetDefault("chain.wei_per_unit", 1)
	v.SetDefault("task.interval", 60)
	v.SetDefault("task.workers", 8)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
	v.SetDefault("campaign.factory_address", "0x000000000000000000000000000000000000cf01")
	v.SetDefault("campaign.start_paused", false)
	v.SetDefault("campaign.admin_address", "")
}

// New 创建带默认值与环境变量覆盖的 viper 实例
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/campaignd")

	SetDefaults(v)

	// 自动读取环境变量，chain.rpc_url 对应 CHAIN_RPC_URL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Decode 把 viper 中的配置解码为结构体
func Decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func Load() *Config {
	v := New()
	if err := v.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	config, err := Decode(v)
	if err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}
	return config
}
