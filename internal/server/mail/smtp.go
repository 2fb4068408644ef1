package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// DefaultSMTPTimeout ограничивает соединение с relay целиком
const DefaultSMTPTimeout = 10 * time.Second

// SMTPConfig настройки SMTP сервера
type SMTPConfig struct {
	Host     string
	Username string
	Password string
	From     string
	Port     int
	// Timeout bounds dial plus the whole SMTP dialogue.
	Timeout time.Duration
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// SMTPMailer sends messages through an SMTP relay, upgrading to STARTTLS
// when the server offers it. Every delivery is bounded by the request
// context and by SMTPConfig.Timeout, whichever ends first.
type SMTPMailer struct {
	dial   dialFunc
	now    func() time.Time
	config SMTPConfig
}

// NewSMTPMailer создает SMTPMailer
func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultSMTPTimeout
	}

	var dialer net.Dialer

	return &SMTPMailer{
		dial:   dialer.DialContext,
		now:    time.Now,
		config: cfg,
	}
}

func (m *SMTPMailer) SendVerification(ctx context.Context, to, name, link string) error {
	return m.deliver(ctx, render(KindVerification, to, name, link))
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	return m.deliver(ctx, render(KindPasswordReset, to, name, link))
}

func (m *SMTPMailer) deliver(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}

	if strings.ContainsAny(msg.To, "\r\n") {
		return fmt.Errorf("%w: invalid recipient", ErrDispatch)
	}

	ctx, cancel := context.WithTimeout(ctx, m.config.Timeout)
	defer cancel()

	addr := net.JoinHostPort(m.config.Host, strconv.Itoa(m.config.Port))
	conn, err := m.dial(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}

	// Дедлайн на каждое чтение/запись, отмена ctx рвет соединение
	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := m.session(conn, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %v", ErrDispatch, ctxErr)
		}
		return fmt.Errorf("%w: %v", ErrDispatch, err)
	}

	return nil
}

// session проводит SMTP диалог поверх уже открытого соединения
func (m *SMTPMailer) session(conn net.Conn, msg Message) error {
	c, err := smtp.NewClient(conn, m.config.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("greeting: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.config.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if m.config.Username != "" {
		auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(envelopeAddress(m.config.From)); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(msg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(m.compose(msg)); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("end data: %w", err)
	}

	return c.Quit()
}

func (m *SMTPMailer) compose(msg Message) []byte {
	var b strings.Builder

	to := (&netmail.Address{Name: msg.Name, Address: msg.To}).String()

	b.WriteString("From: " + m.config.From + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + "\r\n")
	b.WriteString("Date: " + m.now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))

	return []byte(b.String())
}

// envelopeAddress достает голый адрес из "Name <addr>" для MAIL FROM
func envelopeAddress(from string) string {
	addr, err := netmail.ParseAddress(from)
	if err != nil {
		return from
	}
	return addr.Address
}
