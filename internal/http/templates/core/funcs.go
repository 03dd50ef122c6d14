package core

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/target/mmk-blog/internal/http/uiutil"
)

// Deps holds optional dependencies for constructing the core template func map.
type Deps struct {
	Template           **template.Template
	ContentTemplateFor func(string) string
}

// Funcs returns a template.FuncMap containing helpers that are broadly useful across templates.
func Funcs(deps Deps) template.FuncMap {
	funcs := template.FuncMap{
		"sectionTmpl":  deps.ContentTemplateFor,
		"friendlyDate": timeFormatter(uiutil.FormatFriendlyDate),
		"timeTag":      createTimeTagFunc(),
		"paragraphs":   uiutil.Paragraphs,
	}

	addRenderFuncs(funcs, deps)
	return funcs
}

func addRenderFuncs(funcs template.FuncMap, deps Deps) {
	funcs["renderSection"] = func(page string, data any) (template.HTML, error) {
		if deps.Template == nil || *deps.Template == nil {
			return "", errors.New("template not initialized")
		}
		var buf bytes.Buffer
		if err := (*deps.Template).ExecuteTemplate(&buf, deps.ContentTemplateFor(page), data); err != nil {
			return "", err
		}
		// #nosec G203 - rendered by our own html/template set; values were escaped above.
		return template.HTML(buf.String()), nil
	}
}

func asTime(ts any) time.Time {
	switch v := ts.(type) {
	case time.Time:
		return v
	case *time.Time:
		if v != nil {
			return *v
		}
	}
	return time.Time{}
}

func timeFormatter(format func(time.Time) string) func(any) string {
	return func(ts any) string {
		return format(asTime(ts))
	}
}

func createTimeTagFunc() func(any) template.HTML {
	return func(ts any) template.HTML {
		t0 := asTime(ts)
		if t0.IsZero() {
			return ""
		}
		// #nosec G203 - constructed from formatted timestamps only
		return template.HTML(
			fmt.Sprintf(
				"<time datetime=\"%s\" title=\"%s\">%s</time>",
				t0.UTC().Format(time.RFC3339),
				template.HTMLEscapeString(uiutil.FormatFriendlyDateTime(t0)),
				template.HTMLEscapeString(uiutil.FormatFriendlyDate(t0)),
			),
		)
	}
}
