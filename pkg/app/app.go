// pkg/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"

	"quantusur/pkg/meta"
	"quantusur/pkg/session"
	"quantusur/pkg/signreq"
	"quantusur/pkg/storage"
	"quantusur/pkg/storage/cache"
	"quantusur/pkg/storage/disk"

	"github.com/spf13/viper"
)

// App 是整个应用程序的依赖容器 (Dependency Container)
type App struct {
	Codec    *signreq.Codec
	Store    storage.PartStore
	Sessions *session.Manager

	closers []func() error
}

// CodecOptions 从 Viper 读出编码选项
func CodecOptions() signreq.Options {
	return signreq.Options{
		Type:              viper.GetString("ur.type"),
		MaxFragmentLength: viper.GetInt("ur.max_fragment_length"),
		Uppercase:         viper.GetBool("ur.uppercase"),
		ExtraParts:        viper.GetInt("ur.extra_parts"),
		MaxMessageLength:  viper.GetInt("ur.max_message_length"),
	}
}

// NewCodec 只构建编解码器，encode / decode 这类命令不需要存储层
func NewCodec() (*signreq.Codec, error) {
	codec, err := signreq.New(CodecOptions())
	if err != nil {
		return nil, fmt.Errorf("invalid ur config: %w", err)
	}
	return codec, nil
}

// NewApp 是工厂函数，负责组装这一台机器
// 它遵循 Viper 的配置，但不知道具体的 CLI 命令
func NewApp(ctx context.Context) (*App, error) {
	// 1. 编解码器
	codec, err := NewCodec()
	if err != nil {
		return nil, err
	}

	// 2. 初始化存储层 (Dependency Injection)
	store, closer, err := initStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}

	a := &App{
		Codec:    codec,
		Store:    store,
		Sessions: session.NewManager(store, codec),
	}
	if closer != nil {
		a.closers = append(a.closers, closer)
	}
	return a, nil
}

// initStore 根据 storage.type 选择 PartStore 实现
func initStore(ctx context.Context) (storage.PartStore, func() error, error) {
	storeType := viper.GetString("storage.type")

	switch storeType {
	case "disk", "":
		path := viper.GetString("storage.path")
		if path == "" {
			return nil, nil, fmt.Errorf("storage path not set")
		}
		store, err := disk.NewAdapter(path)
		return store, nil, err

	case "redis":
		store, err := cache.NewRedisStore(cache.Config{
			RedisURL: viper.GetString("redis.url"),
			TTL:      viper.GetDuration("redis.ttl"),
		})
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	case "sql":
		db, err := meta.NewDB(ctx, meta.Config{
			Driver:  viper.GetString("database.driver"),
			DSN:     viper.GetString("database.dsn"),
			Verbose: viper.GetBool("verbose"),
		})
		if err != nil {
			return nil, nil, err
		}
		return meta.NewRepository(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s", storeType)
	}
}

// Close 释放存储层持有的连接
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
