// Package devtools 提供查看构建中模块安装情况的 HTTP 接口（基于 Gin）
package devtools

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/modkit/core"
	"github.com/gocrud/modkit/logging"
	"github.com/gocrud/modkit/metrics"
	"github.com/gocrud/modkit/report"
)

const basePath = "/__modkit"

// shutdownTimeout Start 因 ctx 取消而退出时关闭服务的超时时间
const shutdownTimeout = 5 * time.Second

// Inspector 构建检查器
type Inspector struct {
	bc     *core.BuildContext
	port   int
	lister report.Lister
	engine *gin.Engine
	server *http.Server
	logger logging.Logger

	stopOnce sync.Once
	stopErr  error
}

// Option 检查器选项
type Option func(*Inspector)

// WithPort 设置端口（默认 4000）
func WithPort(port int) Option {
	return func(i *Inspector) {
		i.port = port
	}
}

// WithLister 指定报告来源；默认使用构建上下文的 Reporter（需实现 report.Lister）
func WithLister(l report.Lister) Option {
	return func(i *Inspector) {
		i.lister = l
	}
}

// New 创建检查器
func New(bc *core.BuildContext, opts ...Option) *Inspector {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())

	i := &Inspector{
		bc:     bc,
		port:   4000,
		engine: engine,
		logger: bc.Logger().WithCategory("devtools"),
	}
	if l, ok := bc.Reporter().(report.Lister); ok {
		i.lister = l
	}
	for _, opt := range opts {
		opt(i)
	}

	group := engine.Group(basePath)
	group.GET("/context", i.handleContext)
	group.GET("/modules", i.handleModules)
	if pr, ok := bc.Recorder().(*metrics.PrometheusRecorder); ok {
		group.GET("/metrics", gin.WrapH(pr.Handler()))
	}

	i.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", i.port),
		Handler: engine,
	}
	return i
}

// Handler 返回 http.Handler
func (i *Inspector) Handler() http.Handler {
	return i.engine
}

// Start 启动服务；阻塞直到出错或 ctx 取消，ctx 取消时关闭服务
func (i *Inspector) Start(ctx context.Context) error {
	i.logger.Info("Starting devtools inspector", logging.Field{Key: "address", Value: i.server.Addr})

	errCh := make(chan error, 1)
	go func() {
		if err := i.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			i.logger.Error("Devtools inspector error", logging.Field{Key: "error", Value: err.Error()})
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return i.Stop(shutdownCtx)
	}
}

// Stop 停止服务，重复调用返回第一次的结果
func (i *Inspector) Stop(ctx context.Context) error {
	i.stopOnce.Do(func() {
		i.logger.Info("Stopping devtools inspector")
		if err := i.server.Shutdown(ctx); err != nil {
			i.logger.Error("Failed to shutdown devtools inspector gracefully", logging.Field{Key: "error", Value: err.Error()})
			i.stopErr = err
			return
		}
		i.logger.Info("Devtools inspector stopped")
	})
	return i.stopErr
}

// Attach 在后台启动服务，并在构建结束时停止
func (i *Inspector) Attach(ctx context.Context) {
	go func() {
		_ = i.Start(ctx)
	}()
	i.bc.OnClose(i.Stop)
}

type contextView struct {
	ID             string `json:"id"`
	Version        string `json:"version"`
	Generation     int    `json:"generation"`
	Builder        string `json:"builder,omitempty"`
	BuilderVersion string `json:"builderVersion,omitempty"`
	Debug          bool   `json:"debug"`
	SrcDir         string `json:"srcDir"`
	BuildDir       string `json:"buildDir"`
}

func (i *Inspector) handleContext(c *gin.Context) {
	bc := i.bc
	c.JSON(http.StatusOK, contextView{
		ID:             bc.ID(),
		Version:        bc.Version(),
		Generation:     int(bc.Generation()),
		Builder:        bc.Builder(),
		BuilderVersion: bc.BuilderVersion(),
		Debug:          bc.Debug(),
		SrcDir:         bc.SrcDir(),
		BuildDir:       bc.BuildDir(),
	})
}

// handleModules 列出安装记录；?build=all 列出所有构建，?build=<id> 指定构建，默认为当前构建
func (i *Inspector) handleModules(c *gin.Context) {
	if i.lister == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "install reports are not queryable"})
		return
	}

	buildID := c.DefaultQuery("build", i.bc.ID())
	if buildID == "all" {
		buildID = ""
	}

	entries, err := i.lister.List(c.Request.Context(), buildID)
	if err != nil {
		i.logger.Warn("Failed to list install reports", logging.Field{Key: "error", Value: err})
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"buildId": buildID,
		"modules": entries,
	})
}
