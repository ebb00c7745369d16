package guard

import (
	"html/template"
	"net/http"
)

// Fragments rendered in place of guarded content.
const (
	DeniedNotice    template.HTML = `<div class="notice notice-denied" role="alert"><strong>Access denied.</strong> You don't have permission to view this content.</div>`
	LoadingFragment template.HTML = `<div class="notice notice-loading" aria-busy="true">Checking your access…</div>`
)

// InlineView is the template-level soft guard.
type InlineView struct {
	ShowError bool
}

// Render returns content when d is allowed, the loading fragment while
// pending, and the denied notice or nothing otherwise.
func (v InlineView) Render(d Decision, content template.HTML) template.HTML {
	switch d.State {
	case Allowed:
		return content
	case Loading:
		return LoadingFragment
	default:
		if v.ShowError {
			return DeniedNotice
		}
		return ""
	}
}

func writeFragment(w http.ResponseWriter, status int, fragment template.HTML) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(fragment))
}
