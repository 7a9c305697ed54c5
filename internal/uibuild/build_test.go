package uibuild

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInline(t *testing.T) {
	tests := []struct {
		name    string
		html    string
		js      string
		want    string
		inlined bool
	}{
		{
			name:    "replaces tag",
			html:    `<body><script src="ui.js"></script></body>`,
			js:      `alert(1)`,
			want:    "<body><script>\nalert(1)\n</script></body>",
			inlined: true,
		},
		{
			name:    "only first occurrence",
			html:    `<script src="ui.js"></script><script src="ui.js"></script>`,
			js:      `x()`,
			want:    "<script>\nx()\n</script><script src=\"ui.js\"></script>",
			inlined: true,
		},
		{
			name:    "dollar signs are literal",
			html:    `<script src="ui.js"></script>`,
			js:      "a.replace(/x/, '$&$1')",
			want:    "<script>\na.replace(/x/, '$&$1')\n</script>",
			inlined: true,
		},
		{
			name: "missing tag leaves html alone",
			html: `<script src="app.js"></script>`,
			js:   `x()`,
			want: `<script src="app.js"></script>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Inline(tt.html, tt.js)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.inlined, ok)
		})
	}
}

func writeSources(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
	return dir
}

func TestBuild_JavaScript(t *testing.T) {
	src := writeSources(t, map[string]string{
		HTMLFile: "<html><script src=\"ui.js\"></script></html>",
		JSFile:   "console.log('hi');",
	})
	out := filepath.Join(t.TempDir(), "dist")

	res, err := Build(Options{SrcDir: src, OutDir: out})
	require.NoError(t, err)
	assert.True(t, res.Inlined)
	assert.Equal(t, filepath.Join(out, HTMLFile), res.Path)

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "<html><script>\nconsole.log('hi');\n</script></html>", string(data))
}

func TestBuild_TypeScriptBundle(t *testing.T) {
	src := writeSources(t, map[string]string{
		HTMLFile:   "<html><script src=\"ui.js\"></script></html>",
		TSFile:     "import { greet } from './greet';\nconst el: string = greet('ui');\nconsole.log(el);\n",
		"greet.ts": "export function greet(name: string): string { return 'hello ' + name; }\n",
	})
	out := t.TempDir()

	res, err := Build(Options{SrcDir: src, OutDir: out, OutFile: "index.html", TypeScript: true, Minify: true})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(out, "index.html"))
	require.NoError(t, err)
	html := string(data)
	assert.Equal(t, res.Size, len(html))
	assert.NotContains(t, html, "ui.js")
	assert.NotContains(t, html, ": string", "types are stripped")
	assert.True(t, strings.Contains(html, "hello "))
}

func TestBuild_Errors(t *testing.T) {
	t.Run("missing html", func(t *testing.T) {
		_, err := Build(Options{SrcDir: t.TempDir(), OutDir: t.TempDir()})
		assert.ErrorContains(t, err, "reading HTML shell")
	})

	t.Run("syntax error", func(t *testing.T) {
		src := writeSources(t, map[string]string{
			HTMLFile: ScriptTag,
			TSFile:   "const = ;",
		})
		_, err := Build(Options{SrcDir: src, OutDir: t.TempDir(), TypeScript: true})
		assert.ErrorContains(t, err, "esbuild errors")
	})
}
