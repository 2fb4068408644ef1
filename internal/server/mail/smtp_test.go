package mail

import (
	"context"
	"mime"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRelay минимальный SMTP сервер на одно соединение
type fakeRelay struct {
	ln       net.Listener
	done     chan struct{}
	commands []string
	data     string
}

func newFakeRelay(t *testing.T) *fakeRelay {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	r := &fakeRelay{ln: ln, done: make(chan struct{})}
	go r.serve()

	return r
}

func (r *fakeRelay) port() int {
	return r.ln.Addr().(*net.TCPAddr).Port
}

func (r *fakeRelay) serve() {
	defer close(r.done)

	conn, err := r.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(5 * time.Second))

	tp := textproto.NewConn(conn)
	_ = tp.PrintfLine("220 localhost ESMTP")

	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		r.commands = append(r.commands, line)

		switch verb, _, _ := strings.Cut(line, " "); strings.ToUpper(verb) {
		case "EHLO":
			_ = tp.PrintfLine("250-localhost")
			_ = tp.PrintfLine("250 AUTH PLAIN")
		case "AUTH":
			_ = tp.PrintfLine("235 2.7.0 Authentication successful")
		case "MAIL", "RCPT":
			_ = tp.PrintfLine("250 OK")
		case "DATA":
			_ = tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
			body, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			r.data = string(body)
			_ = tp.PrintfLine("250 Queued")
		case "QUIT":
			_ = tp.PrintfLine("221 Bye")
			return
		default:
			_ = tp.PrintfLine("502 Command not implemented")
		}
	}
}

func (r *fakeRelay) wait(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(5 * time.Second):
		t.Fatal("relay did not finish")
	}
}

// silentListener принимает соединения и ничего не отвечает
func silentListener(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		conns []net.Conn
	)
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}
	}()

	t.Cleanup(func() {
		_ = ln.Close()
		mu.Lock()
		defer mu.Unlock()
		for _, c := range conns {
			_ = c.Close()
		}
	})

	return ln.Addr().(*net.TCPAddr).Port
}

func TestSMTPMailer(t *testing.T) {
	relay := newFakeRelay(t)

	mailer := NewSMTPMailer(SMTPConfig{
		Host:     "127.0.0.1",
		Port:     relay.port(),
		Username: "user",
		Password: "pass",
		From:     "Storefront <shop@example.com>",
	})
	mailer.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

	err := mailer.SendPasswordReset(context.Background(), "alice@example.com", "Alice", "http://x/reset-password?token=t")
	require.NoError(t, err)
	relay.wait(t)

	require.Len(t, relay.commands, 6)
	assert.True(t, strings.HasPrefix(relay.commands[1], "AUTH PLAIN "))
	assert.Equal(t, "MAIL FROM:<shop@example.com>", relay.commands[2])
	assert.Equal(t, "RCPT TO:<alice@example.com>", relay.commands[3])
	assert.Equal(t, "QUIT", relay.commands[5])

	assert.Contains(t, relay.data, "From: Storefront <shop@example.com>\n")
	assert.Contains(t, relay.data, "To: \"Alice\" <alice@example.com>\n")
	assert.Contains(t, relay.data, "Subject: Reset your password\n")
	assert.Contains(t, relay.data, "Date: Tue, 02 Jan 2024 03:04:05 +0000\n")
	assert.Contains(t, relay.data, "http://x/reset-password?token=t")
}

func TestSMTPMailer_EncodesHeaders(t *testing.T) {
	relay := newFakeRelay(t)

	mailer := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: relay.port(), From: "shop@example.com"})

	err := mailer.SendVerification(context.Background(), "alice@example.com", "Алиса Петрова", "http://x/verify-email?token=t")
	require.NoError(t, err)
	relay.wait(t)

	var toHeader string
	for _, line := range strings.Split(relay.data, "\n") {
		if value, ok := strings.CutPrefix(line, "To: "); ok {
			toHeader = value
		}
	}
	require.NotEmpty(t, toHeader)

	// Заголовок только ASCII, имя восстанавливается декодером
	for _, ch := range toHeader {
		require.Less(t, ch, rune(0x80), "raw non-ASCII in To header: %q", toHeader)
	}
	decoded, err := new(mime.WordDecoder).DecodeHeader(toHeader)
	require.NoError(t, err)
	assert.Equal(t, "Алиса Петрова <alice@example.com>", decoded)

	// Тело письма в UTF-8 как есть
	assert.Contains(t, relay.data, "Hello Алиса Петрова,")
}

func TestSMTPMailer_SilentRelay(t *testing.T) {
	port := silentListener(t)

	t.Run("context deadline", func(t *testing.T) {
		mailer := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: port, From: "shop@example.com"})

		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()

		start := time.Now()
		err := mailer.SendVerification(ctx, "alice@example.com", "Alice", "http://x")
		assert.ErrorIs(t, err, ErrDispatch)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("configured timeout", func(t *testing.T) {
		mailer := NewSMTPMailer(SMTPConfig{
			Host:    "127.0.0.1",
			Port:    port,
			From:    "shop@example.com",
			Timeout: 200 * time.Millisecond,
		})

		start := time.Now()
		err := mailer.SendPasswordReset(context.Background(), "alice@example.com", "Alice", "http://x")
		assert.ErrorIs(t, err, ErrDispatch)
		assert.Less(t, time.Since(start), 2*time.Second)
	})
}

func TestSMTPMailer_Errors(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	closedPort := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	mailer := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: closedPort, From: "shop@example.com"})

	t.Run("connection refused", func(t *testing.T) {
		err := mailer.SendVerification(context.Background(), "alice@example.com", "", "http://x")
		assert.ErrorIs(t, err, ErrDispatch)
	})

	t.Run("header injection", func(t *testing.T) {
		err := mailer.SendVerification(context.Background(), "alice@example.com\r\nBcc: evil@example.com", "", "http://x")
		assert.ErrorIs(t, err, ErrDispatch)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := mailer.SendVerification(ctx, "alice@example.com", "", "http://x")
		assert.ErrorIs(t, err, ErrDispatch)
	})
}

func TestEnvelopeAddress(t *testing.T) {
	assert.Equal(t, "shop@example.com", envelopeAddress("Storefront <shop@example.com>"))
	assert.Equal(t, "shop@example.com", envelopeAddress("shop@example.com"))
	assert.Equal(t, "not an address", envelopeAddress("not an address"))
}
