// Package schema 对合并后的模块选项应用默认值并做校验
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// ErrInvalidOptions 选项不满足 schema
var ErrInvalidOptions = errors.New("schema: invalid options")

// Schema 选项 schema
// ApplyDefaults 返回填充默认值并完成类型约束后的选项，输入不会被修改
type Schema interface {
	ApplyDefaults(opts map[string]any) (map[string]any, error)
}

// Func 函数适配器
type Func func(opts map[string]any) (map[string]any, error)

func (f Func) ApplyDefaults(opts map[string]any) (map[string]any, error) {
	return f(opts)
}

// CUE 基于 CUE 的 schema
//
//	hostname: string | *"localhost"
//	limit:    int & >=0 | *50000
type CUE struct {
	ctx    *cue.Context
	schema cue.Value
	mu     sync.Mutex
}

// CompileCUE 编译 CUE 源码
// path 非空时使用其中的定义，例如 "#Options"
func CompileCUE(src, path string) (*CUE, error) {
	ctx := cuecontext.New()

	v := ctx.CompileString(src, cue.Filename("schema.cue"))
	if v.Err() != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", v.Err())
	}

	if path != "" {
		v = v.LookupPath(cue.ParsePath(path))
		if v.Err() != nil {
			return nil, fmt.Errorf("schema definition %s not found: %w", path, v.Err())
		}
		if !v.Exists() {
			return nil, fmt.Errorf("schema definition %s not found", path)
		}
	}

	return &CUE{ctx: ctx, schema: v}, nil
}

// MustCompileCUE 同 CompileCUE，失败时 panic；用于包级变量
func MustCompileCUE(src, path string) *CUE {
	s, err := CompileCUE(src, path)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *CUE) ApplyDefaults(opts map[string]any) (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if opts == nil {
		opts = map[string]any{}
	}

	data := s.ctx.Encode(normalizeNumbers(opts))
	if data.Err() != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, data.Err())
	}

	unified := s.schema.Unify(data)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	var out map[string]any
	if err := unified.Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

// normalizeNumbers 把没有小数部分的 float64 和 json.Number 转为 int64
// JSON 配置源解码出的整数都是 float64，直接编码会被 CUE 视为 float 而不满足 int 约束。
func normalizeNumbers(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = normalizeNumbers(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = normalizeNumbers(val)
		}
		return out
	case float64:
		if x == math.Trunc(x) && x >= math.MinInt64 && x < math.MaxInt64 {
			return int64(x)
		}
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return normalizeNumbers(f)
		}
		return x.String()
	default:
		return v
	}
}
