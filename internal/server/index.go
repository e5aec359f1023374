package server

import (
	"html/template"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/resload/internal/server/resources"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// The assets block renders on a single line; live updates patch it by id.
const assetsTemplate = `{{define "assets" -}}
<table id="assets"><thead><tr><th>Path</th><th>Type</th><th>Identity</th><th>Size</th></tr></thead><tbody>
{{- range . -}}
<tr><td><a href="{{.URL}}">{{.Path}}</a></td><td class="kind-{{.Kind}}">{{.Kind}}</td><td><code>{{.Identity}}</code></td><td>{{.Size}}</td></tr>
{{- else -}}
<tr><td colspan="4">No scripts or styles found.</td></tr>
{{- end -}}
</tbody></table>
{{- end}}`

const indexTemplate = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>resload</title>
<link rel="stylesheet" href="{{.Stylesheet}}">
<script type="module" src="{{.Datastar}}"></script>
</head>
<body data-init="@get('/events')">
<h1>Assets</h1>
{{template "assets" .Entries}}
</body>
</html>
`

var pageTemplate = template.Must(template.New("index").Parse(assetsTemplate + indexTemplate))

type pageData struct {
	Stylesheet string
	Datastar   string
	Entries    []assetEntry
}

func indexPage(entries []assetEntry) templ.Component {
	return templ.FromGoHTML(pageTemplate, pageData{
		Stylesheet: resources.StaticPath("index.css"),
		Datastar:   datastarScript,
		Entries:    entries,
	})
}

// assetTable is the element patched on live updates; its id must stay
// stable.
func assetTable(entries []assetEntry) templ.Component {
	return templ.FromGoHTML(pageTemplate.Lookup("assets"), entries)
}
