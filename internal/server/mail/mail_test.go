package mail

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinks(t *testing.T) {
	assert.Equal(t, "https://shop.example.com/verify-email?token=abc", VerificationLink("https://shop.example.com/", "abc"))
	assert.Equal(t, "http://localhost:3000/reset-password?token=a%2Bb", ResetLink("http://localhost:3000", "a+b"))
}

func TestTokenFromLink(t *testing.T) {
	token, err := TokenFromLink(VerificationLink("http://localhost", "deadbeef"))
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", token)

	_, err = TokenFromLink("http://localhost/verify-email")
	assert.Error(t, err)
}

func TestOutbox(t *testing.T) {
	ctx := context.Background()
	outbox := NewOutbox()

	require.NoError(t, outbox.SendVerification(ctx, "alice@example.com", "Alice", "http://x/verify-email?token=1"))
	require.NoError(t, outbox.SendPasswordReset(ctx, "alice@example.com", "Alice", "http://x/reset-password?token=2"))
	require.NoError(t, outbox.SendVerification(ctx, "alice@example.com", "Alice", "http://x/verify-email?token=3"))

	assert.Len(t, outbox.Messages(), 3)

	msg, ok := outbox.Last("alice@example.com", KindVerification)
	require.True(t, ok)
	assert.Equal(t, "http://x/verify-email?token=3", msg.Link)
	assert.Contains(t, msg.Body, msg.Link)
	assert.Contains(t, msg.Body, "Hello Alice")

	_, ok = outbox.Last("bob@example.com", KindVerification)
	assert.False(t, ok)

	outbox.Fail(errors.New("smtp down"))
	err := outbox.SendPasswordReset(ctx, "alice@example.com", "Alice", "http://x")
	assert.ErrorIs(t, err, ErrDispatch)
	assert.Len(t, outbox.Messages(), 3)

	outbox.Fail(nil)
	assert.NoError(t, outbox.SendPasswordReset(ctx, "alice@example.com", "Alice", "http://x"))
}

func TestLogMailer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	mailer := NewLogMailer(logger)

	err := mailer.SendVerification(context.Background(), "alice@example.com", "Alice", "http://x/verify-email?token=abc")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "alice@example.com")
	assert.Contains(t, out, "kind=verification")
	assert.Contains(t, out, "token=abc")
}
