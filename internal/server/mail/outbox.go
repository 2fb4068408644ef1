package mail

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
)

// Outbox keeps sent messages in memory. Tests read tokens back from it.
type Outbox struct {
	failWith error
	messages []Message
	mu       sync.Mutex
}

// NewOutbox создает пустой Outbox
func NewOutbox() *Outbox {
	return &Outbox{}
}

// Fail makes subsequent sends fail with err. nil restores normal delivery.
func (o *Outbox) Fail(err error) {
	o.mu.Lock()
	o.failWith = err
	o.mu.Unlock()
}

func (o *Outbox) SendVerification(_ context.Context, to, name, link string) error {
	return o.add(render(KindVerification, to, name, link))
}

func (o *Outbox) SendPasswordReset(_ context.Context, to, name, link string) error {
	return o.add(render(KindPasswordReset, to, name, link))
}

func (o *Outbox) add(msg Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.failWith != nil {
		return fmt.Errorf("%w: %v", ErrDispatch, o.failWith)
	}

	o.messages = append(o.messages, msg)
	return nil
}

// Messages returns a copy of everything sent so far
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()

	result := make([]Message, len(o.messages))
	copy(result, o.messages)
	return result
}

// Last returns the latest message sent to addr of the given kind
func (o *Outbox) Last(to string, kind Kind) (Message, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i := len(o.messages) - 1; i >= 0; i-- {
		if o.messages[i].To == to && o.messages[i].Kind == kind {
			return o.messages[i], true
		}
	}

	return Message{}, false
}

// TokenFromLink extracts the raw token embedded in a message link
func TokenFromLink(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", err
	}

	token := u.Query().Get("token")
	if token == "" {
		return "", errors.New("link has no token")
	}

	return token, nil
}
