// Package redis 提供基于 Redis 的模块安装状态存储
// 多个进程共享同一构建 ID 时，模块仍然只会安装一次。
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL 安装标记的过期时间
const DefaultTTL = 24 * time.Hour

// Options Redis 客户端配置选项
type Options struct {
	Addr         string        // Redis 服务器地址 (host:port)
	Password     string        // 密码（可选）
	DB           int           // 数据库编号
	DialTimeout  time.Duration // 连接超时时间
	ReadTimeout  time.Duration // 读取超时时间
	WriteTimeout time.Duration // 写入超时时间
	PoolSize     int           // 连接池大小
	MaxRetries   int           // 最大重试次数

	Prefix string        // 键前缀，默认 modkit
	TTL    time.Duration // 安装标记过期时间，默认 24 小时
}

// NewDefaultOptions 创建默认配置
func NewDefaultOptions() *Options {
	return &Options{
		Addr:         "localhost:6379",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MaxRetries:   3,
		Prefix:       "modkit",
		TTL:          DefaultTTL,
	}
}

// Validate 验证配置
func (o *Options) Validate() error {
	if o.Addr == "" {
		return fmt.Errorf("redis address is required")
	}
	if o.DB < 0 {
		return fmt.Errorf("redis database number must be non-negative")
	}
	if o.DialTimeout <= 0 {
		return fmt.Errorf("redis dial timeout must be positive")
	}
	if o.TTL <= 0 {
		return fmt.Errorf("install marker ttl must be positive")
	}
	return nil
}

// InstallStore 基于 SETNX 的安装状态存储
type InstallStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
	close  func() error
}

// Open 按配置创建客户端并检查连通性
func Open(ctx context.Context, configure func(*Options)) (*InstallStore, error) {
	opts := NewDefaultOptions()
	if configure != nil {
		configure(opts)
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis configuration: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  opts.DialTimeout,
		ReadTimeout:  opts.ReadTimeout,
		WriteTimeout: opts.WriteTimeout,
		PoolSize:     opts.PoolSize,
		MaxRetries:   opts.MaxRetries,
	})

	pingCtx, cancel := context.WithTimeout(ctx, opts.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	store := NewInstallStore(client, opts.Prefix, opts.TTL)
	store.close = client.Close
	return store, nil
}

// NewInstallStore 使用已有客户端创建存储
func NewInstallStore(client redis.Cmdable, prefix string, ttl time.Duration) *InstallStore {
	if prefix == "" {
		prefix = "modkit"
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InstallStore{client: client, prefix: prefix, ttl: ttl}
}

// Key 安装标记的键：<prefix>:<buildID>:installed:<key>
func (s *InstallStore) Key(buildID, key string) string {
	return s.prefix + ":" + buildID + ":installed:" + key
}

func (s *InstallStore) MarkInstalled(ctx context.Context, buildID, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.Key(buildID, key), 1, s.ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (s *InstallStore) IsInstalled(ctx context.Context, buildID, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.Key(buildID, key)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close 关闭由 Open 创建的客户端
func (s *InstallStore) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}
