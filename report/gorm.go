package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// GormOptions 数据库连接选项
type GormOptions struct {
	GormConfig   *gorm.Config
	MaxIdleConns int
	MaxOpenConns int
	MaxLifetime  time.Duration
}

// installRecord 表结构
type installRecord struct {
	ID          uint   `gorm:"primaryKey"`
	BuildID     string `gorm:"size:64;index"`
	Module      string `gorm:"size:255;index"`
	Status      string `gorm:"size:32"`
	SetupMillis float64
	Issues      string
	CreatedAt   time.Time
}

func (installRecord) TableName() string {
	return "modkit_install_reports"
}

// GormSink 基于 GORM 的 Sink（任意 gorm 方言）
type GormSink struct {
	db *gorm.DB
}

// OpenGorm 打开数据库并创建 GormSink
func OpenGorm(dialector gorm.Dialector, configure func(*GormOptions)) (*GormSink, error) {
	opts := &GormOptions{
		GormConfig:   &gorm.Config{},
		MaxIdleConns: 2,
		MaxOpenConns: 10,
		MaxLifetime:  time.Hour,
	}
	if configure != nil {
		configure(opts)
	}

	db, err := gorm.Open(dialector, opts.GormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(opts.MaxLifetime)

	return NewGormSink(db)
}

// NewGormSink 使用已有连接创建 Sink，并自动迁移表结构
func NewGormSink(db *gorm.DB) (*GormSink, error) {
	if err := db.AutoMigrate(&installRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate report table: %w", err)
	}
	return &GormSink{db: db}, nil
}

func (s *GormSink) Record(ctx context.Context, entry Entry) error {
	rec := installRecord{
		BuildID:     entry.BuildID,
		Module:      entry.Module,
		Status:      entry.Status,
		SetupMillis: entry.SetupMillis,
		Issues:      strings.Join(entry.Issues, "\n"),
		CreatedAt:   entry.Time,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to save install report for %s: %w", entry.Module, err)
	}
	return nil
}

func (s *GormSink) List(ctx context.Context, buildID string) ([]Entry, error) {
	var recs []installRecord
	q := s.db.WithContext(ctx).Order("id")
	if buildID != "" {
		q = q.Where("build_id = ?", buildID)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list install reports: %w", err)
	}

	out := make([]Entry, 0, len(recs))
	for _, r := range recs {
		e := Entry{
			BuildID:     r.BuildID,
			Module:      r.Module,
			Status:      r.Status,
			SetupMillis: r.SetupMillis,
			Time:        r.CreatedAt,
		}
		if r.Issues != "" {
			e.Issues = strings.Split(r.Issues, "\n")
		}
		out = append(out, e)
	}
	return out, nil
}

// Close 关闭底层连接
func (s *GormSink) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
