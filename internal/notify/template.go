package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"elderguard/internal/models"
)

// 邮件配色与 models.PresentationFor 的卡片配色不同
var emailColors = map[models.WarningKind]string{
	models.KindFire:  "#FF3D71",
	models.KindFall:  "#FFB800",
	models.KindSOS:   "#1E86FF",
	models.KindOther: "#00C9A7",
}

const fallbackColor = "#5F4BB6"

// EmailColor 邮件主题色
func EmailColor(kind models.WarningKind) string {
	if c, ok := emailColors[kind]; ok {
		return c
	}
	return fallbackColor
}

var emailTemplate = template.Must(template.New("alert").Parse(`
<div style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto;">
  <div style="padding: 20px; background-color: #f7f7f7; border-radius: 5px; margin-bottom: 20px; border-top: 5px solid {{.Color}}">
    <table width="100%" cellpadding="0" cellspacing="0">
      <tr>
        <td>
          <h1 style="font-size: 24px; color: {{.Color}}; margin-bottom: 15px;">{{.Icon}} ElderGuard Alert</h1>
          <p style="font-size: 16px; margin-bottom: 10px;">Hello {{.UserName}},</p>
          <p style="font-size: 16px; line-height: 1.5; margin-bottom: 20px;">{{.Message}}</p>
          <div style="background-color: {{.Color}}; color: white; padding: 10px 15px; border-radius: 4px; display: inline-block; font-size: 16px;">{{.Label}} Warning</div>
          <p style="font-size: 14px; color: #666; margin-top: 20px; border-top: 1px solid #eee; padding-top: 20px;">
            This is an automated alert from the ElderGuard system. Please check the ElderGuard dashboard for more details.
          </p>
        </td>
      </tr>
    </table>
  </div>
  <div style="text-align: center; color: #999; font-size: 12px; padding: 10px;">&copy; {{.Year}} ElderGuard. All rights reserved.</div>
</div>
`))

type emailView struct {
	Color    template.CSS
	Icon     string
	UserName string
	Message  string
	Label    string
	Year     int
}

// RenderEmail 渲染报警邮件 HTML
func RenderEmail(n models.Notification, now time.Time) (string, error) {
	kind := string(n.Kind)
	label := kind
	if kind != "" {
		label = strings.ToUpper(kind[:1]) + kind[1:]
	}

	view := emailView{
		Color:    template.CSS(EmailColor(n.Kind)),
		Icon:     models.PresentationFor(n.Kind).Icon,
		UserName: n.DisplayName,
		Message:  n.Message,
		Label:    label,
		Year:     now.Year(),
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("failed to render email: %w", err)
	}
	return buf.String(), nil
}
