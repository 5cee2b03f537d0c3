// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
)

// DonorMatchEmailData holds data for the "a request matches your blood
// type" email.
type DonorMatchEmailData struct {
	SiteName    string
	DonorName   string
	BloodType   string
	Urgency     string
	Hospital    string
	PatientName string
}

// BuildDonorMatchEmail creates a donor match email with both HTML and text bodies.
func BuildDonorMatchEmail(data DonorMatchEmailData) Email {
	subject := fmt.Sprintf("%s: %s blood needed at %s", data.SiteName, data.BloodType, data.Hospital)
	if data.Urgency != "" && data.Urgency != "normal" {
		subject = fmt.Sprintf("[%s] %s", strings.ToUpper(data.Urgency), subject)
	}
	return Email{
		To:       "", // Set by caller
		Subject:  subject,
		TextBody: buildDonorMatchText(data),
		HTMLBody: buildDonorMatchHTML(data),
	}
}

func buildDonorMatchText(data DonorMatchEmailData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Hello %s,\n\n", data.DonorName)
	fmt.Fprintf(&buf, "A patient at %s needs %s blood", data.Hospital, data.BloodType)
	if data.Urgency != "" {
		fmt.Fprintf(&buf, " (urgency: %s)", data.Urgency)
	}
	buf.WriteString(".\n\n")
	buf.WriteString("If you are able to donate, please contact the hospital or sign in to see the request.\n\n")
	fmt.Fprintf(&buf, "Thank you for being a %s donor.\n", data.SiteName)
	return buf.String()
}

var donorMatchHTML = template.Must(template.New("donormatch").Parse(donorMatchHTMLTemplate))

func buildDonorMatchHTML(data DonorMatchEmailData) string {
	var buf bytes.Buffer
	_ = donorMatchHTML.Execute(&buf, data)
	return buf.String()
}

const donorMatchHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Blood Request</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #b91c1c;">{{.SiteName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Hello {{.DonorName}},</p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                A patient at <strong>{{.Hospital}}</strong> needs blood that matches yours.
              </p>
              <div style="background-color: #fef2f2; border-radius: 8px; padding: 24px; text-align: center; margin-bottom: 24px;">
                <span style="font-size: 32px; font-weight: 700; color: #b91c1c;">{{.BloodType}}</span>
                {{if .Urgency}}<p style="margin: 8px 0 0; font-size: 14px; color: #7f1d1d; text-transform: uppercase;">{{.Urgency}}</p>{{end}}
              </div>
              <p style="margin: 0; font-size: 14px; color: #6b7280; text-align: center;">
                If you are able to donate, please contact the hospital or sign in to see the request.
              </p>
            </td>
          </tr>
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                You receive this because you are registered as an available donor. Set yourself unavailable to stop these emails.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
