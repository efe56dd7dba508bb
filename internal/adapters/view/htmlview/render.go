package htmlview

import (
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"

	"github.com/kirillkom/docdesk/internal/core/domain"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Document Desk</title>
{{- if .Busy}}
<meta http-equiv="refresh" content="1">
{{- end}}
</head>
<body>
{{- range .Alerts}}
<div class="alert" role="alert">{{.}}</div>
{{- end}}
<section>
<h2>Upload</h2>
<form method="post" action="/actions/upload" enctype="multipart/form-data">
<input type="file" id="fileInput" name="files" multiple>
<button type="submit" id="uploadBtn"{{if .Disabled.uploadBtn}} disabled{{end}}>Upload</button>
</form>
<pre id="uploadStatus">{{.Status.uploadStatus}}</pre>
</section>
<section>
<h2>Ask</h2>
<div id="chatBox">{{range .Transcript}}{{.}}{{end}}</div>
<form method="post" action="/actions/ask">
<input type="text" id="questionInput" name="question" value="{{.Question}}">
<button type="submit" id="askBtn"{{if .Disabled.askBtn}} disabled{{end}}>Ask</button>
</form>
<form method="post" action="/actions/clear">
<button type="submit" id="clearBtn">Clear</button>
</form>
</section>
<section>
<h2>Report</h2>
<form method="post" action="/actions/report">
<button type="submit" id="reportBtn"{{if .Disabled.reportBtn}} disabled{{end}}>Get report</button>
</form>
<pre id="report">{{.Status.report}}</pre>
</section>
{{- if .Scroll}}
<script>var c=document.getElementById("chatBox");c.scrollTop=c.scrollHeight;</script>
{{- end}}
</body>
</html>
`))

type pageData struct {
	State
	Transcript []template.HTML
	Scroll     bool
}

// Render writes the page. Pending alerts and a pending scroll are shown once
// and then dropped.
func (p *Page) Render(w io.Writer) error {
	p.mu.Lock()
	data := pageData{State: p.stateLocked(), Scroll: p.scrollPending}
	p.alerts = nil
	p.scrollPending = false
	p.mu.Unlock()

	data.Transcript = make([]template.HTML, 0, len(data.Blocks))
	for _, block := range data.Blocks {
		data.Transcript = append(data.Transcript, BlockHTML(block))
	}
	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render page: %w", err)
	}
	return nil
}

// BlockHTML renders one transcript block. The body is inserted as-is since
// blocks carry escaped text.
func BlockHTML(block domain.Block) template.HTML {
	var b strings.Builder
	switch block.Kind {
	case domain.BlockUser:
		b.WriteString(`<div class="user-msg"><b>` + domain.LabelUser + `</b> `)
		b.WriteString(block.Body)
	case domain.BlockPlaceholder:
		b.WriteString(`<div` + idAttr(block.ID) + ` class="assistant-msg"><i>`)
		b.WriteString(block.Body)
		b.WriteString(`</i>`)
	case domain.BlockAssistant:
		b.WriteString(`<div` + idAttr(block.ID) + ` class="assistant-msg"><b>` + domain.LabelAssistant + `</b> `)
		b.WriteString(block.Body)
	case domain.BlockSource:
		b.WriteString(`<div class="sources">`)
		b.WriteString(block.Body)
	default:
		b.WriteString(`<div>`)
		b.WriteString(block.Body)
	}
	b.WriteString(`</div>`)
	return template.HTML(b.String())
}

func idAttr(id string) string {
	if id == "" {
		return ""
	}
	return ` id="` + html.EscapeString(id) + `"`
}
