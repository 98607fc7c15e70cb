package templates

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"
)

// Utils 模板工具函数
type Utils struct{}

// Serialize 序列化为 JSON 字面量
func (Utils) Serialize(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serialize: %w", err)
	}
	return string(b), nil
}

// Hash 返回 8 位短哈希
func (Utils) Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:8]
}

// ImportName 由路径生成合法的标识符，例如 plugins/foo-bar.js -> plugins_foo_bar_1a2b3c4d
func (u Utils) ImportName(path string) string {
	base := strings.TrimSuffix(path, filepath.Ext(path))
	var b strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" || unicode.IsDigit(rune(name[0])) {
		name = "_" + name
	}
	return name + "_" + u.Hash(path)
}

// Relative 返回 to 相对 from 目录的路径，始终以 ./ 或 ../ 开头并使用 /
func (Utils) Relative(from, to string) (string, error) {
	rel, err := filepath.Rel(from, to)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if !strings.HasPrefix(rel, "../") && rel != ".." {
		rel = "./" + rel
	}
	return rel, nil
}

// FuncMap text/template 函数表
func (u Utils) FuncMap() template.FuncMap {
	return template.FuncMap{
		"serialize":  u.Serialize,
		"hash":       u.Hash,
		"importName": u.ImportName,
		"relative":   u.Relative,
	}
}
