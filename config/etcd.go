package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
	"gopkg.in/yaml.v3"
)

// EtcdOptions etcd 配置选项
type EtcdOptions struct {
	Endpoints   []string      // etcd 服务器地址列表
	Username    string        // 用户名（可选）
	Password    string        // 密码（可选）
	Prefix      string        // 键前缀（可选），例如 /modkit/my-site
	Timeout     time.Duration // 读取超时时间（默认 5 秒）
	DialTimeout time.Duration // 拨号超时时间（默认 5 秒）
}

// AddEtcd 添加 etcd 配置源
// 用于在多个构建节点间共享项目级模块选项
func (b *ConfigurationBuilder) AddEtcd(opts EtcdOptions) *ConfigurationBuilder {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 5 * time.Second
	}
	return b.Add(&EtcdSource{Options: opts})
}

// EtcdSource etcd 配置源
// 键 /prefix/a/b 映射为 a.b；值优先按 JSON 解析，其次 YAML，最后保留字符串
type EtcdSource struct {
	Options EtcdOptions
}

func (s *EtcdSource) Name() string {
	return fmt.Sprintf("Etcd(%v)", s.Options.Endpoints)
}

func (s *EtcdSource) Load() (map[string]any, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   s.Options.Endpoints,
		Username:    s.Options.Username,
		Password:    s.Options.Password,
		DialTimeout: s.Options.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(context.Background(), s.Options.Timeout)
	defer cancel()

	prefix := s.Options.Prefix
	if prefix == "" {
		prefix = "/"
	}

	resp, err := cli.Get(ctx, prefix, clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to get config from etcd: %w", err)
	}

	result := make(map[string]any)
	for _, kv := range resp.Kvs {
		key := etcdKeyPath(string(kv.Key), s.Options.Prefix)
		if key == "" {
			continue
		}
		setNestedValue(result, key, decodeEtcdValue(kv.Value))
	}

	return result, nil
}

// etcdKeyPath 去掉前缀并把 / 转为 : 分隔的路径
func etcdKeyPath(key, prefix string) string {
	if prefix != "" {
		key = strings.TrimPrefix(key, prefix)
	}
	key = strings.Trim(key, "/")
	return strings.ReplaceAll(key, "/", ":")
}

func decodeEtcdValue(raw []byte) any {
	var jsonValue any
	if err := json.Unmarshal(raw, &jsonValue); err == nil {
		return jsonValue
	}

	var yamlValue any
	if err := yaml.Unmarshal(raw, &yamlValue); err == nil {
		if m, ok := yamlValue.(map[string]any); ok {
			return m
		}
	}

	return string(raw)
}
