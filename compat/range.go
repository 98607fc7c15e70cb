package compat

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	// ErrInvalidVersion 版本号不是合法的 semver
	ErrInvalidVersion = errors.New("compat: invalid version")
	// ErrInvalidRange 范围表达式无法解析
	ErrInvalidRange = errors.New("compat: invalid range")
)

// Range semver 范围
// 语法: 比较符 >= > <= < = !=，^ 和 ~，x-range（3.x、3、*），连字符范围（1.2 - 2.3），
// 空格或逗号表示 AND，|| 表示 OR。空表达式匹配任意版本。
type Range struct {
	raw         string
	constraints *semver.Constraints
}

// ParseRange 解析范围表达式
func ParseRange(s string) (*Range, error) {
	r := &Range{raw: s}
	if strings.TrimSpace(s) == "" {
		return r, nil
	}
	c, err := semver.NewConstraint(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRange, err)
	}
	r.constraints = c
	return r, nil
}

// String 返回原始表达式
func (r *Range) String() string {
	return r.raw
}

// Match 判断 version 是否满足范围
// version 可带 v 前缀，也可以是 3 或 3.1 这样的简写。
// 预发布版本不满足时按其正式版本再判断一次，例如 3.1.0-rc.1 视为 3.1.0。
func (r *Range) Match(version string) (bool, error) {
	v, err := semver.NewVersion(strings.TrimSpace(version))
	if err != nil {
		return false, fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	if r.constraints == nil {
		return true, nil
	}
	if r.constraints.Check(v) {
		return true, nil
	}
	if v.Prerelease() == "" {
		return false, nil
	}
	release, err := v.SetPrerelease("")
	if err != nil {
		return false, nil
	}
	return r.constraints.Check(&release), nil
}
