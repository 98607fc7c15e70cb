// Package compat 检查模块声明的兼容性约束
package compat

import (
	"context"
	"fmt"
)

// Constraints 模块兼容性约束
type Constraints struct {
	// Host 宿主版本范围，例如 "^3.0.0"、">=2.16 <4"、"2.x || 3.x"
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	// Bridge 为 false 时不支持旧版（v2）桥接环境
	Bridge *bool `json:"bridge,omitempty" yaml:"bridge,omitempty"`
	// Builders 构建器名 -> 版本范围；值为 "false" 表示不支持该构建器
	Builders map[string]string `json:"builders,omitempty" yaml:"builders,omitempty"`
}

// IsZero 约束是否为空
func (c Constraints) IsZero() bool {
	return c.Host == "" && c.Bridge == nil && len(c.Builders) == 0
}

// Env 检查所需的构建环境信息
type Env interface {
	Version() string
	IsLegacy() bool
	Builder() string
	BuilderVersion() string
}

// Checker 兼容性检查器
// 返回问题描述列表；列表为空表示兼容
type Checker interface {
	Check(ctx context.Context, c Constraints, env Env) []string
}

// CheckerFunc 函数适配器
type CheckerFunc func(ctx context.Context, c Constraints, env Env) []string

func (f CheckerFunc) Check(ctx context.Context, c Constraints, env Env) []string {
	return f(ctx, c, env)
}

// SemverChecker 默认检查器，按 semver 范围比较版本
type SemverChecker struct{}

func (SemverChecker) Check(_ context.Context, c Constraints, env Env) []string {
	var issues []string

	if c.Host != "" {
		if issue := checkRange("Host", c.Host, env.Version()); issue != "" {
			issues = append(issues, issue)
		}
	}

	if c.Bridge != nil && !*c.Bridge && env.IsLegacy() {
		issues = append(issues, "Not compatible with the legacy bridge")
	}

	if len(c.Builders) > 0 && env.Builder() != "" {
		if r, ok := c.Builders[env.Builder()]; ok {
			if r == "false" {
				issues = append(issues, fmt.Sprintf("Not compatible with `%s`", env.Builder()))
			} else if issue := checkRange(fmt.Sprintf("`%s`", env.Builder()), r, env.BuilderVersion()); issue != "" {
				issues = append(issues, issue)
			}
		}
	}

	return issues
}

func checkRange(subject, rng, version string) string {
	r, err := ParseRange(rng)
	if err != nil {
		return fmt.Sprintf("Invalid %s version range `%s`: %v", subject, rng, err)
	}
	ok, err := r.Match(version)
	if err != nil {
		return fmt.Sprintf("%s version `%s` is required but the current version `%s` is not valid semver", subject, rng, version)
	}
	if !ok {
		return fmt.Sprintf("%s version `%s` is required but currently using `%s`", subject, rng, version)
	}
	return ""
}
