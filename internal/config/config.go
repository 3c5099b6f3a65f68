package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/blues/mfs/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Governance GovernanceConfig `mapstructure:"governance"`
	Task       TaskConfig       `mapstructure:"task"`
	Feed       FeedConfig       `mapstructure:"feed"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // postgres, sqlite
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"` // sqlite 文件路径或 DSN
}

// AuthConfig 调用者认证配置
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"` // 签发令牌的有效期
}

// GovernanceConfig 治理参数：投票阈值、释放比例和保证金规则
type GovernanceConfig struct {
	OwnerAddress      string        `mapstructure:"owner_address"`       // 平台所有者地址
	QuorumPercent     uint64        `mapstructure:"quorum_percent"`      // 法定参与率
	VetoPercent       uint64        `mapstructure:"veto_percent"`        // 反对票否决线
	ReleasePercents   []uint64      `mapstructure:"release_percents"`    // 三轮释放比例
	BondDivisor       uint64        `mapstructure:"bond_divisor"`        // 保证金 = 目标金额 / BondDivisor
	OwnerSharePercent uint64        `mapstructure:"owner_share_percent"` // 有人投资时取消，平台分得的保证金比例
	VotingPeriod      time.Duration `mapstructure:"voting_period"`       // 投票期，0 表示不强制结束
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

// FeedConfig 事件推送配置
type FeedConfig struct {
	PoolSize int `mapstructure:"pool_size"` // 推送协程池大小
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
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

// DefaultGovernance 默认治理参数
func DefaultGovernance() GovernanceConfig {
	return GovernanceConfig{
		QuorumPercent:     70,
		VetoPercent:       40,
		ReleasePercents:   []uint64{20, 30, 50},
		BondDivisor:       10,
		OwnerSharePercent: 50,
		VotingPeriod:      7 * 24 * time.Hour,
	}
}

// Validate 校验治理参数
func (g GovernanceConfig) Validate() error {
	if g.QuorumPercent == 0 || g.QuorumPercent > 100 {
		return fmt.Errorf("quorum_percent must be in (0,100], got %d", g.QuorumPercent)
	}
	if g.VetoPercent == 0 || g.VetoPercent > 100 {
		return fmt.Errorf("veto_percent must be in (0,100], got %d", g.VetoPercent)
	}
	if len(g.ReleasePercents) != 3 {
		return fmt.Errorf("release_percents must have 3 entries, got %d", len(g.ReleasePercents))
	}
	var sum uint64
	for _, p := range g.ReleasePercents {
		sum += p
	}
	if sum != 100 {
		return fmt.Errorf("release_percents must sum to 100, got %d", sum)
	}
	if g.BondDivisor == 0 {
		return fmt.Errorf("bond_divisor must be positive")
	}
	if g.OwnerSharePercent > 100 {
		return fmt.Errorf("owner_share_percent must be at most 100, got %d", g.OwnerSharePercent)
	}
	if g.VotingPeriod < 0 {
		return fmt.Errorf("voting_period must not be negative")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	g := DefaultGovernance()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "milestone_funding")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "mfs.db")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("governance.quorum_percent", g.QuorumPercent)
	v.SetDefault("governance.veto_percent", g.VetoPercent)
	v.SetDefault("governance.release_percents", g.ReleasePercents)
	v.SetDefault("governance.bond_divisor", g.BondDivisor)
	v.SetDefault("governance.owner_share_percent", g.OwnerSharePercent)
	v.SetDefault("governance.voting_period", g.VotingPeriod)
	v.SetDefault("task.interval", 60)
	v.SetDefault("feed.pool_size", 16)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("log.file", "logs/app.log")
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// 环境变量覆盖，如 MFS_DATABASE_HOST
	v.SetEnvPrefix("mfs")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := config.Governance.Validate(); err != nil {
		return nil, fmt.Errorf("invalid governance config: %w", err)
	}
	return &config, nil
}

// Load 从默认路径加载配置
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/mfs")

	if err := v.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	return decode(v)
}

// LoadFile 从指定文件加载配置
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(v)
}
