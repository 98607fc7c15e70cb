package templates

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

var (
	// ErrNoSource 模板既没有 Src 也没有 GetContents
	ErrNoSource = errors.New("templates: template has neither src nor getContents")
	// ErrNoDestination 模板既没有 Dst 也没有 Filename
	ErrNoDestination = errors.New("templates: template has neither dst nor filename")
)

// Compiler 计算模板内容
type Compiler interface {
	Compile(ctx context.Context, t *Template, rc *RenderContext) (string, error)
}

// CompilerFunc 函数适配器
type CompilerFunc func(ctx context.Context, t *Template, rc *RenderContext) (string, error)

func (f CompilerFunc) Compile(ctx context.Context, t *Template, rc *RenderContext) (string, error) {
	return f(ctx, t, rc)
}

// DefaultCompiler 默认编译器
// 优先调用 GetContents；否则用 text/template 渲染 Src，模板中 .Options 为该模板的选项
type DefaultCompiler struct{}

func (DefaultCompiler) Compile(ctx context.Context, t *Template, rc *RenderContext) (string, error) {
	data := rc.forTemplate(t)

	if t.GetContents != nil {
		return t.GetContents(ctx, data)
	}
	if t.Src == "" {
		return "", fmt.Errorf("%w: %s", ErrNoSource, t.Name())
	}

	raw, err := os.ReadFile(t.Src)
	if err != nil {
		return "", err
	}

	tpl, err := template.New(filepath.Base(t.Src)).Funcs(rc.Utils.FuncMap()).Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", t.Src, err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", t.Src, err)
	}
	return buf.String(), nil
}

// WriteVirtual 依次编译并写入模板
// 写入是顺序的；遇到第一个错误即停止，已写入的文件保留。
func WriteVirtual(ctx context.Context, compiler Compiler, tpls []*Template, rc *RenderContext, buildDir string) error {
	for _, t := range tpls {
		if err := ctx.Err(); err != nil {
			return err
		}

		dst, err := t.Destination(buildDir)
		if err != nil {
			return fmt.Errorf("template %s: %w", t.Name(), err)
		}

		contents, err := compiler.Compile(ctx, t, rc)
		if err != nil {
			return fmt.Errorf("template %s: %w", t.Name(), err)
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("template %s: %w", t.Name(), err)
		}
		if err := os.WriteFile(dst, []byte(contents), 0o644); err != nil {
			return fmt.Errorf("template %s: %w", t.Name(), err)
		}
	}
	return nil
}
