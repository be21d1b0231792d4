package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"time"

	"copyscan/internal/models"
	"copyscan/shared/config"
)

type Sender struct {
	config *config.EmailConfig
}

func NewSender(cfg *config.EmailConfig) *Sender {
	return &Sender{
		config: cfg,
	}
}

// digest feeds the HTML template for one watch-run notification.
type digest struct {
	UserName    string
	ChannelName string
	Date        time.Time
	Entries     []models.RiskEntry
}

// SendRiskDigest mails the newly flagged High-risk entries found by a watch
// run for one target. No entries means no email.
func (s *Sender) SendRiskDigest(userName, channelName string, entries []models.RiskEntry) error {
	if len(entries) == 0 {
		return nil
	}

	d := digest{
		UserName:    userName,
		ChannelName: channelName,
		Date:        time.Now(),
		Entries:     entries,
	}

	subject := fmt.Sprintf("Copyright risk digest - %d new high-risk videos for %s (%s)",
		len(entries), userName, d.Date.Format("Jan 2, 2006"))

	body, err := s.generateDigestBody(d)
	if err != nil {
		return fmt.Errorf("failed to generate digest body: %w", err)
	}

	return s.SendHTML(subject, body)
}

// SendHTML sends an email with custom HTML content
func (s *Sender) SendHTML(subject, htmlBody string) error {
	return s.sendViaSMTP(subject, htmlBody)
}

func (s *Sender) sendViaSMTP(subject, body string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)

	to := []string{s.config.ToEmail}
	msg := []byte(fmt.Sprintf(`To: %s
From: %s
Subject: %s
MIME-Version: 1.0
Content-Type: text/html; charset=UTF-8

%s`, s.config.ToEmail, s.config.FromEmail, subject, body))

	addr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.FromEmail, to, msg)
}

var digestTemplate = template.Must(template.New("digest").Parse(`<html>
<body style="font-family: sans-serif; max-width: 640px;">
  <h2>Copyright risk digest for {{.UserName}}</h2>
  <p>Scan of {{.Date.Format "Jan 2, 2006 15:04"}} against channel <strong>{{.ChannelName}}</strong>
  found {{len .Entries}} new high-risk videos.</p>
  <table border="1" cellpadding="6" cellspacing="0">
    <tr><th>Title</th><th>Channel</th><th>Published</th><th>Why</th></tr>
    {{range .Entries}}
    <tr>
      <td><a href="https://www.youtube.com/watch?v={{.VideoID}}">{{.Title}}</a></td>
      <td>{{.Channel}}</td>
      <td>{{.PublishedAt}}</td>
      <td>{{range .Rationale}}{{.}}<br>{{end}}</td>
    </tr>
    {{end}}
  </table>
  <p><em>Automated heuristic triage. Verify each entry before acting.</em></p>
</body>
</html>`))

func (s *Sender) generateDigestBody(d digest) (string, error) {
	var buf bytes.Buffer
	if err := digestTemplate.Execute(&buf, d); err != nil {
		return "", err
	}
	return buf.String(), nil
}
