package templates

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"io"
	"maps"
	texttemplate "text/template"

	ferrors "git.home.luguber.info/inful/pagebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/pagebuilder/internal/markdown"
)

const (
	// MaxLayoutDepth bounds layout chains and nested includes.
	MaxLayoutDepth = 10
	// ContentKey is the slot a layout reads its child's rendered output from.
	ContentKey = "content"
)

type executor interface {
	Execute(w io.Writer, data any) error
}

// Engine renders Sources with Go templates. Layouts are applied as a second
// render phase: the child's output is bound to ContentKey and the layout
// named by the child's front matter is rendered with the child's data.
type Engine struct {
	resolver   *Resolver
	md         *markdown.Converter
	autoescape bool
	globals    map[string]any
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithAutoescape selects html/template (true) or text/template (false).
func WithAutoescape(enabled bool) EngineOption {
	return func(e *Engine) { e.autoescape = enabled }
}

// WithGlobals sets variables visible to every render.
func WithGlobals(globals map[string]any) EngineOption {
	return func(e *Engine) { e.globals = maps.Clone(globals) }
}

// WithMarkdown sets the converter used by the markdown filter.
func WithMarkdown(md *markdown.Converter) EngineOption {
	return func(e *Engine) { e.md = md }
}

// NewEngine creates an Engine resolving layouts and includes through resolver.
func NewEngine(resolver *Resolver, opts ...EngineOption) *Engine {
	e := &Engine{
		resolver:   resolver,
		autoescape: true,
		globals:    map[string]any{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.md == nil {
		e.md = markdown.New()
	}
	return e
}

// Render executes src with data and applies its layout chain.
// Keys in data take precedence over globals.
func (e *Engine) Render(ctx context.Context, src Source, data map[string]any) (string, error) {
	scope := e.scope(data)

	out, err := e.execute(src, scope, 0)
	if err != nil {
		return "", err
	}

	visited := map[string]bool{}
	if src.Path != "" {
		visited[src.Path] = true
	}
	current := src
	for depth := 0; current.Layout != ""; depth++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if depth >= MaxLayoutDepth {
			return "", ferrors.TemplateError("layout chain too deep").
				WithContext("template", src.Name).
				WithContext("layout", current.Layout).
				Build()
		}

		layout, err := e.resolver.Load(current.Layout)
		if err != nil {
			return "", err
		}
		if layout.Path != "" && visited[layout.Path] {
			return "", ferrors.TemplateError("layout cycle detected").
				WithContext("template", src.Name).
				WithContext("layout", current.Layout).
				Build()
		}
		visited[layout.Path] = true

		layoutScope := maps.Clone(scope)
		layoutScope[ContentKey] = e.trusted(out)
		layoutScope["layout"] = layout.FrontMatter

		out, err = e.execute(layout, layoutScope, 0)
		if err != nil {
			return "", err
		}
		current = layout
	}
	return out, nil
}

// RenderString executes an inline template body with data.
func (e *Engine) RenderString(ctx context.Context, name, body string, data map[string]any) (string, error) {
	return e.Render(ctx, Source{Name: name, Body: body, FrontMatter: map[string]any{}}, data)
}

func (e *Engine) scope(data map[string]any) map[string]any {
	scope := make(map[string]any, len(e.globals)+len(data)+1)
	maps.Copy(scope, e.globals)
	maps.Copy(scope, data)
	return scope
}

func (e *Engine) trusted(s string) any {
	if e.autoescape {
		// #nosec G203 -- already rendered by the engine.
		return htmltemplate.HTML(s)
	}
	return s
}

func (e *Engine) execute(src Source, data map[string]any, depth int) (string, error) {
	if src.Body == "" {
		return "", nil
	}

	tpl, err := e.parse(src, depth)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryTemplate, "cannot parse template").
			WithContext("template", src.Name).
			WithContext("path", src.Path).
			Build()
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryRender, "cannot render template").
			WithContext("template", src.Name).
			WithContext("path", src.Path).
			Build()
	}
	return buf.String(), nil
}

func (e *Engine) parse(src Source, depth int) (executor, error) {
	name := src.Path
	if name == "" {
		name = src.Name
	}

	funcs := filterFuncs(e.md)
	funcs["include"] = e.includeFunc(depth)

	if e.autoescape {
		return htmltemplate.New(name).Funcs(htmltemplate.FuncMap(funcs)).Option("missingkey=zero").Parse(src.Body)
	}
	return texttemplate.New(name).Funcs(texttemplate.FuncMap(funcs)).Option("missingkey=zero").Parse(src.Body)
}

// includeFunc renders another named template in place:
// {{ include "nav.html" . }}. Without a data argument the partial sees nothing.
func (e *Engine) includeFunc(depth int) func(name string, data ...any) (any, error) {
	return func(name string, data ...any) (any, error) {
		if depth+1 > MaxLayoutDepth {
			return "", fmt.Errorf("include %q: nesting deeper than %d", name, MaxLayoutDepth)
		}
		src, err := e.resolver.Load(name)
		if err != nil {
			return "", err
		}

		scope := map[string]any{}
		if len(data) > 0 {
			switch d := data[0].(type) {
			case map[string]any:
				scope = d
			default:
				scope = map[string]any{"value": d}
			}
		}

		out, err := e.execute(src, scope, depth+1)
		if err != nil {
			return "", err
		}
		return e.trusted(out), nil
	}
}
