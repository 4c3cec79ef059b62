package render

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/projetoecoscan/ecoscan/internal/app"
	"github.com/projetoecoscan/ecoscan/internal/locale"
	"github.com/projetoecoscan/ecoscan/internal/schema"
)

const textTemplate = `{{ define "scan" -}}
{{ if eq .Phase "scanning" }}{{ t "ScanPrompt" }}
{{ else if eq .Phase "looking-up" }}... {{ .Barcode }}
{{ end -}}
{{ with .Product -}}
{{ t "LabelProduct" }}: {{ .ProductName }}
{{ t "LabelBarcode" }}: {{ .Barcode }}
{{ t "LabelMaterial" }}: {{ .Material }}
{{ t "LabelDisposalTips" }}: {{ .DisposalTips }}
{{ t "LabelRecycling" }}: {{ .RecyclingInfo }}
{{ t "LabelImpact" }}: {{ .SustainabilityImpact }}
{{ t "LabelSource" }}: {{ .DataSource }}
{{ end -}}
{{ with .Draft }}{{ template "draft" . }}{{ end -}}
{{ with .Notice }}> {{ .Text }}
{{ end -}}
{{ with .Error }}! {{ . }}
{{ end -}}
{{ end }}

{{- define "draft" -}}
{{ field "barcode" }}: {{ .Barcode }}
{{ field "productName" }}: {{ .ProductName }}
{{ field "material" }}: {{ .Material }}
{{ end }}

{{- define "review" -}}
{{ t "ReviewTitle" }}
{{ if .Loading }}...
{{ else if not .Suggestions }}{{ t "NoPending" }}
{{ end -}}
{{ range .Suggestions }}  #{{ .ID }} {{ .Barcode }} {{ .ProductName }} ({{ .Material }})
{{ end -}}
{{ with .Selected }}{{ t "LabelSuggestionID" }}: {{ .ID }}
{{ end -}}
{{ with .Draft }}{{ template "draft" . }}{{ end -}}
{{ range .Changes }}  ~ {{ field .Field }}: {{ .Inline }}
{{ end -}}
{{ with .Notice }}> {{ .Text }}
{{ end -}}
{{ with .Error }}! {{ . }}
{{ end -}}
{{ end }}

{{- with .Warning }}! {{ .Text }}
{{ end -}}
{{ if eq .Screen "role-selection" -}}
{{ t "RoleSelection" }}: USER | ADMIN
{{ else if eq .Screen "admin-login" -}}
{{ t "AdminLogin" }}
{{ with .LoginError }}! {{ .Text }}
{{ end -}}
{{ else -}}
{{ t "LabelRole" }}: {{ .Role }}
{{ with .Scan }}{{ template "scan" . }}{{ end -}}
{{ with .Review }}{{ template "review" . }}{{ end -}}
{{ end -}}
{{ if .Busy }}({{ t "Busy" }})
{{ end -}}
`

type textRenderer struct {
	tmpl *template.Template
}

func newTextRenderer(loc *locale.Localizer) *textRenderer {
	funcs := template.FuncMap{
		"t":     func(id string) string { return loc.T(id) },
		"field": func(f schema.Field) string { return loc.FieldLabel(f) },
	}
	return &textRenderer{tmpl: template.Must(template.New("view").Funcs(funcs).Parse(textTemplate))}
}

func (r *textRenderer) Render(v app.View) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("rendering text: %w", err)
	}
	return buf.Bytes(), nil
}
