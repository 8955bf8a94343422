package react

import (
	"html/template"
	"strings"
	"time"
)

const excerptLen = 80

var funcs = template.FuncMap{
	"excerpt": func(s string) string {
		s = strings.Join(strings.Fields(s), " ")
		r := []rune(s)
		if len(r) <= excerptLen {
			return s
		}
		return string(r[:excerptLen]) + "…"
	},
	"listDate": func(t time.Time) string {
		if t.Format("2006-01-02") == time.Now().In(t.Location()).Format("2006-01-02") {
			return t.Format("3:04 PM")
		}
		return t.Format("1/2/06")
	},
	"longDate": func(t time.Time) string {
		return t.Format("2 Jan 2006 at 3:04 PM")
	},
}

// The tree is written in two chunks: the sidebar is flushed before the
// note pane is fetched and rendered.
var tmpl = template.Must(template.New("tree").Funcs(funcs).Parse(`
{{define "sidebar"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>React Notes</title>
<link rel="stylesheet" href="/style.css">
</head>
<body>
<div class="main">
<section class="col sidebar">
<section class="sidebar-header"><strong>React Notes</strong></section>
<section class="sidebar-menu" role="menubar">
<form class="search" role="search" method="get" action="/react">
<input type="hidden" name="location" value="{{.LocationJSON}}">
<label class="offscreen" for="sidebar-search-input">Search for a note by title</label>
<input id="sidebar-search-input" name="q" placeholder="Search" value="{{.Location.SearchText}}">
</form>
<a class="edit-button edit-button--solid" role="menuitem" href="/react?location={{.NewNoteLink}}">New</a>
</section>
<nav>
{{- if .Items}}
<ul class="notes-list">
{{- range .Items}}
<li>
<div class="sidebar-note-list-item{{if .Active}} sidebar-note-list-item--active{{end}}" data-id="{{.Note.ID}}">
<a class="sidebar-note-open" href="/react?location={{.Link}}">
<header class="sidebar-note-header"><strong>{{.Note.Title}}</strong><small>{{listDate .Note.UpdatedAt}}</small></header>
<p class="sidebar-note-excerpt">{{with excerpt .Note.Body}}{{.}}{{else}}<i>(No content)</i>{{end}}</p>
</a>
</div>
</li>
{{- end}}
</ul>
{{- else}}
<div class="notes-empty">{{if .Location.SearchText}}Couldn't find any notes titled "{{.Location.SearchText}}".{{else}}No notes created yet!{{end}}</div>
{{- end}}
</nav>
</section>
{{end}}

{{define "pane"}}<section class="col note-viewer">
{{- if .Error}}
<div class="note--empty-state"><span class="note-text--empty-state">Could not load this note: {{.Error}}</span></div>
{{- else if .Location.IsEditing}}
<div class="note-editor">
<form class="note-editor-form" autocomplete="off" method="post" action="{{if .Note}}/notes/{{.Note.ID}}{{else}}/notes{{end}}?location={{.SaveLocation}}">
<label class="offscreen" for="note-title-input">Enter a title for your note</label>
<input id="note-title-input" name="title" type="text" value="{{if .Note}}{{.Note.Title}}{{else}}Untitled{{end}}">
<label class="offscreen" for="note-body-input">Enter the body for your note</label>
<textarea id="note-body-input" name="body">{{if .Note}}{{.Note.Body}}{{end}}</textarea>
<button class="note-editor-done" type="submit" role="menuitem">Done</button>
</form>
<div class="note-editor-preview">
<div class="label label--preview" role="status">Preview</div>
<h1 class="note-title">{{if .Note}}{{.Note.Title}}{{else}}Untitled{{end}}</h1>
<div class="note-preview">{{if .Note}}{{.Note.Body}}{{end}}</div>
</div>
</div>
{{- else if .Note}}
<div class="note">
<div class="note-header">
<h1 class="note-title">{{.Note.Title}}</h1>
<div class="note-menu" role="menubar">
<small class="note-updated-at" role="status">Last updated on {{longDate .Note.UpdatedAt}}</small>
<a class="edit-button edit-button--outline" role="menuitem" href="/react?location={{.EditLink}}">Edit</a>
</div>
</div>
<div class="note-preview">{{.Note.Body}}</div>
</div>
{{- else}}
<div class="note--empty-state"><span class="note-text--empty-state">Click a note on the left to view something! 🥺</span></div>
{{- end}}
</section>
</div>
</body>
</html>
{{end}}`))

// shell is served at / before the client has any location state.
const shell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>React Notes</title>
<link rel="stylesheet" href="/style.css">
</head>
<body>
<div id="root"></div>
<script>
  fetch('/react?location=' + encodeURIComponent(JSON.stringify({selectedId: null, isEditing: false, searchText: ''})))
    .then((res) => res.text())
    .then((html) => { document.open(); document.write(html); document.close(); });
</script>
</body>
</html>
`
