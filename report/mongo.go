package report

import (
	"context"
	"fmt"
	"time"

	"github.com/gocrud/mgo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoOptions MongoDB 连接选项
type MongoOptions struct {
	URI         string
	Username    string
	Password    string
	Database    string // 默认 modkit
	Collection  string // 默认 install_reports
	MaxPoolSize uint64
	MinPoolSize uint64
	Timeout     time.Duration // 默认 10 秒
}

// Validate 验证配置
func (o *MongoOptions) Validate() error {
	if o.URI == "" {
		return fmt.Errorf("mongodb uri is required")
	}
	return nil
}

func (o *MongoOptions) applyDefaults() {
	if o.Database == "" {
		o.Database = "modkit"
	}
	if o.Collection == "" {
		o.Collection = "install_reports"
	}
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
}

// clientOptions 构建驱动的客户端选项；URI 由 mgo.NewClient 应用
func (o *MongoOptions) clientOptions() *options.ClientOptions {
	clientOpts := options.Client()
	if o.Username != "" || o.Password != "" {
		clientOpts.SetAuth(options.Credential{
			Username: o.Username,
			Password: o.Password,
		})
	}
	if o.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(o.MaxPoolSize)
	}
	if o.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(o.MinPoolSize)
	}
	clientOpts.SetConnectTimeout(o.Timeout)
	clientOpts.SetTimeout(o.Timeout)
	return clientOpts
}

// MongoSink 基于 MongoDB 的 Sink
type MongoSink struct {
	client *mgo.Client
	coll   *mgo.Collection
}

// OpenMongo 连接 MongoDB 并创建 Sink
func OpenMongo(ctx context.Context, opts MongoOptions) (*MongoSink, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mongodb configuration: %w", err)
	}
	opts.applyDefaults()

	connectCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	client, err := mgo.NewClient(connectCtx, opts.URI, opts.clientOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to connect mongodb: %w", err)
	}

	return &MongoSink{
		client: client,
		coll:   client.DB(opts.Database).Coll(opts.Collection),
	}, nil
}

func (s *MongoSink) Record(ctx context.Context, entry Entry) error {
	if _, err := s.coll.InsertOne(ctx, entry); err != nil {
		return fmt.Errorf("failed to save install report for %s: %w", entry.Module, err)
	}
	return nil
}

func (s *MongoSink) List(ctx context.Context, buildID string) ([]Entry, error) {
	out := make([]Entry, 0)
	err := s.coll.Query(ctx).
		Filter(listFilter(buildID)).
		Asc("time").
		All(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to list install reports: %w", err)
	}
	return out, nil
}

// Close 断开连接
func (s *MongoSink) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func listFilter(buildID string) *mgo.FilterBuilder {
	filter := mgo.Filter()
	if buildID != "" {
		filter.Eq("build_id", buildID)
	}
	return filter
}
