package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// EmailAdapter sends via SMTP. Auth is optional (nil for open relays).
type EmailAdapter struct {
	Addr string
	From string
	Auth smtp.Auth
}

func NewEmailAdapter(addr, from string, auth smtp.Auth) *EmailAdapter {
	return &EmailAdapter{Addr: addr, From: from, Auth: auth}
}

func (a *EmailAdapter) Class() string { return "smtp" }

func (a *EmailAdapter) Send(ctx context.Context, destination string, msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", a.From)
	fmt.Fprintf(&b, "To: %s\r\n", destination)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)
	b.WriteString("\r\n")
	return smtp.SendMail(a.Addr, a.Auth, a.From, []string{destination}, []byte(b.String()))
}
