package email

import (
	"html/template"
	"strings"
)

// NotificationEmail is the data rendered into the transactional
// notification template.
type NotificationEmail struct {
	Title   string
	Message string
	Link    string // optional "view details" target
	AppName string // footer attribution, defaults to "LocalServe"
}

var notificationTmpl = template.Must(template.New("notification").Parse(`<div style="font-family: Arial, sans-serif; line-height:1.4; color:#111;">
  <h3>{{.Title}}</h3>
  <p>{{.Message}}</p>
  {{if .Link}}<p><a href="{{.Link}}">View details</a></p>{{end}}
  <hr/>
  <p style="font-size:12px;color:#777">Sent by {{.AppName}}</p>
</div>`))

// RenderNotification renders the HTML body for a notification email.
// All fields are escaped; notification text is user-influenced content.
func RenderNotification(data NotificationEmail) (string, error) {
	if data.AppName == "" {
		data.AppName = "LocalServe"
	}

	var sb strings.Builder
	if err := notificationTmpl.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}
