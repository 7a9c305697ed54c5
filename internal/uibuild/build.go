// Package uibuild packages the plugin UI into a single HTML file by inlining
// its script, optionally bundling a TypeScript entry point with esbuild.
package uibuild

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// ScriptTag is the external script reference replaced by Inline.
const ScriptTag = `<script src="ui.js"></script>`

// File names inside the source and output directories.
const (
	HTMLFile = "ui.html"
	JSFile   = "ui.js"
	TSFile   = "ui.ts"
)

// Options configures Build.
type Options struct {
	SrcDir     string
	OutDir     string
	OutFile    string // defaults to HTMLFile
	TypeScript bool   // bundle ui.ts instead of reading ui.js
	Minify     bool
}

// Result describes a finished build.
type Result struct {
	Path    string
	Inlined bool // false when the shell had no script tag to replace
	Size    int
}

// Inline replaces the first ScriptTag in html with an inline script holding
// js. The second result reports whether the tag was found; html is returned
// unchanged otherwise.
func Inline(html, js string) (string, bool) {
	i := strings.Index(html, ScriptTag)
	if i < 0 {
		return html, false
	}
	var b strings.Builder
	b.Grow(len(html) + len(js))
	b.WriteString(html[:i])
	b.WriteString("<script>\n")
	b.WriteString(js)
	b.WriteString("\n</script>")
	b.WriteString(html[i+len(ScriptTag):])
	return b.String(), true
}

// Build reads the HTML shell and script from SrcDir and writes the inlined
// page to OutDir.
func Build(opts Options) (*Result, error) {
	html, err := os.ReadFile(filepath.Join(opts.SrcDir, HTMLFile))
	if err != nil {
		return nil, fmt.Errorf("reading HTML shell: %w", err)
	}

	var js string
	if opts.TypeScript {
		js, err = bundle(filepath.Join(opts.SrcDir, TSFile), opts.Minify)
	} else {
		js, err = readScript(filepath.Join(opts.SrcDir, JSFile), opts.Minify)
	}
	if err != nil {
		return nil, err
	}

	out, inlined := Inline(string(html), js)

	if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	name := opts.OutFile
	if name == "" {
		name = HTMLFile
	}
	path := filepath.Join(opts.OutDir, name)
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}

	return &Result{Path: path, Inlined: inlined, Size: len(out)}, nil
}

func readScript(path string, minify bool) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading script: %w", err)
	}
	if !minify {
		return string(data), nil
	}

	result := api.Transform(string(data), api.TransformOptions{
		Loader:            api.LoaderJS,
		Target:            api.ES2017,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
	})
	if len(result.Errors) > 0 {
		return "", buildError(result.Errors)
	}
	return strings.TrimSpace(string(result.Code)), nil
}

func bundle(entry string, minify bool) (string, error) {
	opts := api.BuildOptions{
		EntryPoints: []string{entry},
		Bundle:      true,
		Write:       false,
		Outdir:      "out",
		Loader: map[string]api.Loader{
			".ts": api.LoaderTS,
		},
		Platform:    api.PlatformBrowser,
		Format:      api.FormatIIFE,
		Target:      api.ES2017,
		TreeShaking: api.TreeShakingTrue,
		Sourcemap:   api.SourceMapNone,
		LogLevel:    api.LogLevelSilent,
	}
	if minify {
		opts.MinifyWhitespace = true
		opts.MinifyIdentifiers = true
		opts.MinifySyntax = true
	}

	result := api.Build(opts)
	if len(result.Errors) > 0 {
		return "", buildError(result.Errors)
	}

	for _, file := range result.OutputFiles {
		if filepath.Ext(file.Path) == ".js" {
			return strings.TrimSpace(string(file.Contents)), nil
		}
	}
	return "", fmt.Errorf("no JavaScript output generated")
}

func buildError(msgs []api.Message) error {
	var b strings.Builder
	for _, m := range msgs {
		if m.Location != nil {
			fmt.Fprintf(&b, "%s:%d:%d: ", m.Location.File, m.Location.Line, m.Location.Column)
		}
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	return fmt.Errorf("esbuild errors:\n%s", b.String())
}
