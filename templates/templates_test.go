package templates

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTemplateDestination(t *testing.T) {
	dst, err := (&Template{Dst: "/out/x.js", Filename: "y.js"}).Destination("/build")
	require.NoError(t, err)
	assert.Equal(t, "/out/x.js", dst)

	dst, err = (&Template{Filename: "y.js"}).Destination("/build")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/build", "y.js"), dst)

	_, err = (&Template{Src: "plugin.tmpl"}).Destination("/build")
	assert.ErrorIs(t, err, ErrNoDestination)
}

func TestTemplateName(t *testing.T) {
	assert.Equal(t, "a.js", (&Template{Filename: "a.js", Dst: "/x/b.js"}).Name())
	assert.Equal(t, "b.js", (&Template{Dst: "/x/b.js"}).Name())
	assert.Equal(t, "src/c.tmpl", (&Template{Src: "src/c.tmpl"}).Name())
}

func TestDefaultCompilerGetContents(t *testing.T) {
	rc := &RenderContext{App: App{SrcDir: "/src"}}
	tpl := &Template{
		Filename: "a.js",
		Options:  map[string]any{"name": "world"},
		GetContents: func(_ context.Context, data *RenderContext) (string, error) {
			return "hello " + data.Options["name"].(string) + " from " + data.App.SrcDir, nil
		},
	}

	out, err := DefaultCompiler{}.Compile(context.Background(), tpl, rc)
	require.NoError(t, err)
	assert.Equal(t, "hello world from /src", out)
	assert.Nil(t, rc.Options)
}

func TestDefaultCompilerSrc(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "plugin.js.tmpl")
	require.NoError(t, os.WriteFile(src, []byte(`export default {{ serialize .Options }} // {{ .App.SrcDir }}`), 0o644))

	out, err := DefaultCompiler{}.Compile(context.Background(),
		&Template{Src: src, Options: map[string]any{"a": 1}},
		&RenderContext{App: App{SrcDir: "/src"}})
	require.NoError(t, err)
	assert.Equal(t, `export default {"a":1} // /src`, out)
}

func TestDefaultCompilerNoSource(t *testing.T) {
	_, err := DefaultCompiler{}.Compile(context.Background(), &Template{Filename: "x"}, &RenderContext{})
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestWriteVirtual(t *testing.T) {
	dir := t.TempDir()
	compiler := CompilerFunc(func(_ context.Context, tpl *Template, _ *RenderContext) (string, error) {
		return "hello " + tpl.Name(), nil
	})

	tpls := []*Template{
		{Filename: "nested/a.txt"},
		{Dst: filepath.Join(dir, "explicit", "b.txt")},
	}
	require.NoError(t, WriteVirtual(context.Background(), compiler, tpls, &RenderContext{}, dir))

	a, err := os.ReadFile(filepath.Join(dir, "nested", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello nested/a.txt", string(a))

	b, err := os.ReadFile(filepath.Join(dir, "explicit", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello b.txt", string(b))
}

func TestWriteVirtualRejectsMissingDestination(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	compiler := CompilerFunc(func(context.Context, *Template, *RenderContext) (string, error) {
		calls++
		return "ok", nil
	})

	tpls := []*Template{{Filename: "a.txt"}, {Src: "virtual.tmpl"}}
	err := WriteVirtual(context.Background(), compiler, tpls, &RenderContext{}, dir)
	require.ErrorIs(t, err, ErrNoDestination)
	assert.Contains(t, err.Error(), "template virtual.tmpl")
	assert.Equal(t, 1, calls)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))
}

func TestWriteVirtualStopsAtFirstError(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")
	calls := 0
	compiler := CompilerFunc(func(_ context.Context, tpl *Template, _ *RenderContext) (string, error) {
		calls++
		if tpl.Filename == "b.txt" {
			return "", boom
		}
		return "ok", nil
	})

	tpls := []*Template{{Filename: "a.txt"}, {Filename: "b.txt"}, {Filename: "c.txt"}}
	err := WriteVirtual(context.Background(), compiler, tpls, &RenderContext{}, dir)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "b.txt")
	assert.Equal(t, 2, calls)

	assert.FileExists(t, filepath.Join(dir, "a.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "c.txt"))
}

func TestUtils(t *testing.T) {
	u := Utils{}

	s, err := u.Serialize(map[string]any{"a": []int{1, 2}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1,2]}`, s)

	assert.Len(t, u.Hash("x"), 8)
	assert.Equal(t, u.Hash("x"), u.Hash("x"))

	name := u.ImportName("plugins/foo-bar.js")
	assert.Regexp(t, `^plugins_foo_bar_[0-9a-f]{8}$`, name)
	assert.Regexp(t, `^_1x_[0-9a-f]{8}$`, u.ImportName("1x.js"))

	rel, err := u.Relative("/build", "/build/plugins/a.js")
	require.NoError(t, err)
	assert.Equal(t, "./plugins/a.js", rel)

	rel, err = u.Relative("/build/a", "/src/b.js")
	require.NoError(t, err)
	assert.Equal(t, "../../src/b.js", rel)
}
