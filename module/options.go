package module

import (
	"encoding/json"
	"fmt"

	"github.com/gocrud/modkit/config"
	"github.com/gocrud/modkit/core"
	"github.com/gocrud/modkit/logging"
)

// Options 解析模块最终选项
// 优先级：inline > 项目配置（bc.Options()[ConfigKey]）> 默认值；
// map 类型的值递归合并，其余类型整体替换。声明了 Schema 时以其输出为最终结果，错误原样返回。
// 输入不会被修改。bc 可以为 nil。
func (m *Module) Options(inline map[string]any, bc *core.BuildContext) (map[string]any, error) {
	key := m.meta.ConfigKey
	if key == "" {
		key = m.meta.Name
	}

	var defaults map[string]any
	if m.def.DefaultsFunc != nil {
		defaults = m.def.DefaultsFunc(bc)
	} else {
		defaults = m.def.Defaults
	}

	merged := config.CloneMap(defaults)
	config.MergeMaps(merged, m.projectOptions(key, bc))
	config.MergeMaps(merged, inline)

	if m.def.Schema != nil {
		return m.def.Schema.ApplyDefaults(merged)
	}
	return merged, nil
}

func (m *Module) projectOptions(key string, bc *core.BuildContext) map[string]any {
	if bc == nil || key == "" {
		return nil
	}

	v, ok := bc.Option(key)
	if !ok || v == nil {
		return nil
	}

	project, ok := v.(map[string]any)
	if !ok {
		bc.Logger().Debug("Ignoring non-object project options",
			logging.Field{Key: "module", Value: m.displayName()},
			logging.Field{Key: "key", Value: key},
			logging.Field{Key: "type", Value: fmt.Sprintf("%T", v)})
		return nil
	}
	return project
}

// BindOptions 把解析后的选项绑定到结构体
// 使用 JSON 序列化/反序列化完成绑定
func BindOptions[T any](opts map[string]any) (T, error) {
	var t T
	data, err := json.Marshal(opts)
	if err != nil {
		return t, fmt.Errorf("failed to marshal options: %w", err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	return t, nil
}
