package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Load 初始化 Viper 配置
// cfgFile: 可选，用户显式指定的配置文件路径
func Load(cfgFile string) error {
	// 1. 设置默认值 (Defaults)
	setDefaults()

	// 2. 配置搜索路径
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}

		// 搜索顺序：当前目录 -> ./.qur -> ~/.qur
		viper.AddConfigPath(".")
		viper.AddConfigPath(".qur")
		viper.AddConfigPath(filepath.Join(home, ".qur"))

		viper.SetConfigType("yaml")
		viper.SetConfigName("config") // 找 config.yaml
	}

	// 3. 读取环境变量 (QUR_UR_MAX_FRAGMENT_LENGTH 等)
	viper.SetEnvPrefix("QUR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 4. 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		// 没找到配置文件不算错，格式错才算
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			slog.Debug("no config file found, using defaults/env vars")
		} else {
			return fmt.Errorf("fatal error config file: %w", err)
		}
	} else {
		slog.Debug("using config file", "path", viper.ConfigFileUsed())
	}

	return nil
}

func setDefaults() {
	// UR 编码默认值
	viper.SetDefault("ur.type", "quantus-sign-request")
	viper.SetDefault("ur.max_fragment_length", 200)
	viper.SetDefault("ur.uppercase", true)
	viper.SetDefault("ur.extra_parts", 0)
	viper.SetDefault("ur.max_message_length", 1<<20)

	// 扫描会话的持久化
	wd, _ := os.Getwd()
	viper.SetDefault("storage.type", "disk")
	viper.SetDefault("storage.path", filepath.Join(wd, ".qur", "sessions"))

	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("redis.ttl", time.Hour)

	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", filepath.Join(wd, ".qur", "sessions.db"))

	// gRPC 服务
	viper.SetDefault("server.addr", ":8080")
}
