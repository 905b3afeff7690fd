// mail.go

package main

import "net/smtp"

type Mailer interface {
	Send(to, subject, html string) error
}

// mailer is swapped for a stub in tests.
var mailer Mailer

type smtpMailer struct {
	host, port string
	user, pass string
}

func newSMTPMailer(c Config) *smtpMailer {
	return &smtpMailer{host: c.SMTPHost, port: c.SMTPPort, user: c.EmailUser, pass: c.EmailPass}
}

func (m *smtpMailer) Send(to, subject, html string) error {
	msg := "From: " + m.user + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\nContent-Type: text/html; charset=utf-8\r\n\r\n" +
		html
	auth := smtp.PlainAuth("", m.user, m.pass, m.host)
	return smtp.SendMail(m.host+":"+m.port, auth, m.user, []string{to}, []byte(msg))
}
