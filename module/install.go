package module

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gocrud/modkit/config"
	"github.com/gocrud/modkit/core"
	"github.com/gocrud/modkit/legacy"
	"github.com/gocrud/modkit/logging"
	"github.com/gocrud/modkit/report"
	"github.com/google/uuid"
)

// Install 在构建上下文中安装模块
//
// 顺序：安装守卫 -> 兼容性检查 -> 旧版模板兼容层 -> 解析选项 -> 注册钩子 -> 调用 Setup。
// 同一上下文中有标识的模块只安装一次，重复调用返回 StatusSkipped 且不做任何事。
// 选项解析和 Setup 的错误原样返回。
func (m *Module) Install(ctx context.Context, inline map[string]any, bc *core.BuildContext) (Outcome, error) {
	key := m.UniqueKey()
	name := m.displayName()
	logger := bc.Logger().WithCategory("module:" + name)

	if key != "" {
		first, err := bc.MarkInstalled(ctx, key)
		if err != nil {
			return Outcome{}, err
		}
		if !first {
			return Outcome{Status: StatusSkipped}, nil
		}
	}

	if !m.meta.Compatibility.IsZero() {
		if issues := bc.Checker().Check(ctx, m.meta.Compatibility, bc); len(issues) > 0 {
			logger.Warn(incompatibleMessage(name, issues))
			out := Outcome{Status: StatusIncompatible, Issues: issues}
			m.record(ctx, bc, logger, out)
			return out, nil
		}
	}

	legacy.Install(bc)

	opts, err := m.Options(inline, bc)
	if err != nil {
		return Outcome{}, err
	}

	if len(m.def.Hooks) > 0 {
		if hooks := bc.Hooks(); hooks != nil {
			hooks.AddHooks(m.def.Hooks)
		} else {
			for hook, fn := range m.def.Hooks {
				bc.Hook(hook, fn)
			}
		}
	}

	return m.invoke(ctx, opts, bc, logger)
}

// invoke 调用 Setup 并计时
func (m *Module) invoke(ctx context.Context, opts map[string]any, bc *core.BuildContext, logger logging.Logger) (Outcome, error) {
	key := m.UniqueKey()
	name := m.displayName()

	timingKey := key
	if timingKey == "" {
		timingKey = uuid.NewString()
	}
	timingKey = "modkit:module:" + timingKey + ":setup"

	start := time.Now()
	var (
		result map[string]any
		err    error
	)
	if m.def.Setup != nil {
		result, err = m.def.Setup(ctx, opts, bc)
	}
	elapsed := time.Since(start)

	if err != nil && !errors.Is(err, ErrSkip) {
		bc.Recorder().IncOutcome(name, "failed")
		return Outcome{}, err
	}

	ms := roundMillis(elapsed)
	timing := logging.Field{Key: "timing", Value: timingKey}
	if bc.SetupPolicy().IsSlow(key, elapsed) {
		logger.Warn(fmt.Sprintf("Slow module `%s` took `%sms` to setup.", name, formatMillis(ms)), timing)
	} else if bc.Debug() {
		logger.Info(fmt.Sprintf("Module `%s` took `%sms` to setup.", name, formatMillis(ms)), timing)
	}
	bc.Recorder().ObserveSetup(name, elapsed)

	if err != nil {
		out := Outcome{Status: StatusSkipped}
		m.record(ctx, bc, logger, out)
		return out, nil
	}

	out := Outcome{Status: StatusInstalled, Result: mergeResult(result, ms, logger)}
	m.record(ctx, bc, logger, out)
	return out, nil
}

// record 写入指标和安装报告；报告写入失败只记录告警
func (m *Module) record(ctx context.Context, bc *core.BuildContext, logger logging.Logger, out Outcome) {
	name := m.displayName()
	bc.Recorder().IncOutcome(name, out.Status.String())

	sink := bc.Reporter()
	if sink == nil {
		return
	}
	entry := report.Entry{
		BuildID:     bc.ID(),
		Module:      name,
		Status:      out.Status.String(),
		SetupMillis: out.SetupMillis(),
		Issues:      out.Issues,
		Time:        time.Now(),
	}
	if err := sink.Record(ctx, entry); err != nil {
		logger.Warn("Failed to record install report", logging.Field{Key: "error", Value: err})
	}
}

// mergeResult 合并 Setup 结果与耗时
// 用户的键优先，timings.setup 始终为测得的耗时，timings 中的其他键保留。
func mergeResult(result map[string]any, ms float64, logger logging.Logger) map[string]any {
	out := config.CloneMap(result)

	timings, ok := out["timings"].(map[string]any)
	if !ok {
		if v, exists := out["timings"]; exists && v != nil {
			logger.Debug("Replacing non-object timings in setup result",
				logging.Field{Key: "type", Value: fmt.Sprintf("%T", v)})
		}
		timings = make(map[string]any, 1)
	}
	timings["setup"] = ms
	out["timings"] = timings
	return out
}

func roundMillis(d time.Duration) float64 {
	ms := float64(d) / float64(time.Millisecond)
	return math.Round(ms*100) / 100
}

func formatMillis(ms float64) string {
	return strconv.FormatFloat(ms, 'f', -1, 64)
}

func incompatibleMessage(name string, issues []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Module %s is disabled due to incompatibility issues:", name)
	for _, issue := range issues {
		b.WriteString("\n- ")
		b.WriteString(issue)
	}
	return b.String()
}
