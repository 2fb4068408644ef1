// Package mail delivers account emails (verification and password reset).
package mail

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// Kind identifies the purpose of a message
type Kind string

const (
	KindVerification  Kind = "verification"
	KindPasswordReset Kind = "password_reset"
)

// ErrDispatch is returned when a message could not be handed to the transport
var ErrDispatch = errors.New("email dispatch failed")

// Mailer sends account emails. link already embeds the raw token.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, link string) error
	SendPasswordReset(ctx context.Context, to, name, link string) error
}

// Message is a rendered email
type Message struct {
	Kind    Kind
	To      string
	Name    string
	Subject string
	Body    string
	Link    string
}

// VerificationLink builds the email verification URL
func VerificationLink(baseURL, rawToken string) string {
	return buildLink(baseURL, "/verify-email", rawToken)
}

// ResetLink builds the password reset URL
func ResetLink(baseURL, rawToken string) string {
	return buildLink(baseURL, "/reset-password", rawToken)
}

func buildLink(baseURL, path, rawToken string) string {
	return strings.TrimRight(baseURL, "/") + path + "?token=" + url.QueryEscape(rawToken)
}

func render(kind Kind, to, name, link string) Message {
	msg := Message{Kind: kind, To: to, Name: name, Link: link}

	greeting := "Hello"
	if name != "" {
		greeting += " " + name
	}

	switch kind {
	case KindVerification:
		msg.Subject = "Verify your email address"
		msg.Body = greeting + ",\n\n" +
			"Thanks for signing up. Please confirm your email address by opening the link below:\n\n" +
			link + "\n\n" +
			"The link expires in 24 hours.\n"
	case KindPasswordReset:
		msg.Subject = "Reset your password"
		msg.Body = greeting + ",\n\n" +
			"We received a request to reset your password. Open the link below to choose a new one:\n\n" +
			link + "\n\n" +
			"The link expires in 1 hour. If you did not request a reset, you can ignore this email.\n"
	}

	return msg
}
