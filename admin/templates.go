package admin

import (
	"fmt"
	"html/template"
	"time"

	"github.com/asaidimu/go-filterable/core/formsync"
)

var funcs = template.FuncMap{
	"cell": func(v any) string {
		switch t := v.(type) {
		case nil:
			return ""
		case time.Time:
			return t.Format(time.RFC3339)
		case []byte:
			return string(t)
		default:
			return fmt.Sprint(t)
		}
	},
	"kind": func(c *formsync.Control) string { return c.Kind.String() },
}

const layoutTemplate = `{{define "layout"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body class="{{.BodyClass}}">
<nav class="filterable__nav">
<form method="post" action="/toggle">
<input type="hidden" name="return_to" value="{{.Self}}">
<button type="submit">Menu</button>
</form>
<ul>
{{range .Dashboards}}<li><a href="/{{.Resource}}">{{.Label}}</a></li>
{{end}}</ul>
</nav>
<main>
{{template "content" .}}
</main>
</body>
</html>{{end}}`

const indexTemplate = `{{define "content"}}<h1>Dashboards</h1>
<ul>
{{range .Dashboards}}<li><a href="/{{.Resource}}">{{.Label}}</a></li>
{{end}}</ul>{{end}}`

const listTemplate = `{{define "content"}}<h1>{{.Title}}</h1>
{{with .Listing}}
<form class="filterable" method="post" action="/{{.Resource}}/filter">
<input type="hidden" name="return_to" value="{{$.Self}}">
{{range .Filters.Fields}}<fieldset>
<legend>{{.Label}}</legend>
{{range .Controls}}{{$k := kind .}}{{if eq $k "select"}}<select name="{{.Name}}">
{{range .Options}}<option value="{{.Value}}"{{if .Selected}} selected{{end}}>{{.Label}}</option>
{{end}}</select>
{{else if or (eq $k "checkbox") (eq $k "radio")}}<label><input type="{{$k}}" name="{{.Name}}" value="{{.Value}}"{{if .Checked}} checked{{end}}> {{.Value}}</label>
{{else}}<input type="{{$k}}" name="{{.Name}}" value="{{.Value}}">
{{end}}{{end}}</fieldset>
{{end}}<button type="submit">Filter</button>
<a href="/{{.Resource}}/filter/clear?return_to={{$.Self}}">Clear</a>
</form>
<p>{{.Total}} results</p>
<table>
<thead><tr>{{range .Columns}}<th><a href="{{.SortURL}}">{{.Name}}</a>{{if .Active}} ({{.Direction}}){{end}}</th>{{end}}</tr></thead>
<tbody>
{{range $row := .Rows}}<tr>{{range $.Listing.Columns}}<td>{{cell (index $row .Name)}}</td>{{end}}</tr>
{{end}}</tbody>
</table>
<p class="pagination">
{{if .PrevURL}}<a href="{{.PrevURL}}">Previous</a>{{end}}
Page {{.Page}} of {{.Pages}}
{{if .NextURL}}<a href="{{.NextURL}}">Next</a>{{end}}
</p>
{{end}}{{end}}`

// pages holds one template set per page, each sharing the layout.
type pages struct {
	index *template.Template
	list  *template.Template
}

func parsePages() (*pages, error) {
	index, err := template.New("index").Funcs(funcs).Parse(layoutTemplate + indexTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse index template: %w", err)
	}
	list, err := template.New("list").Funcs(funcs).Parse(layoutTemplate + listTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse list template: %w", err)
	}
	return &pages{index: index, list: list}, nil
}
