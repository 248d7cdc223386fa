package mail

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capture struct {
	addr string
	auth smtp.Auth
	from string
	to   []string
	raw  string
}

func newCapturing(cfg SMTP, err error) (*Mailer, *capture) {
	c := &capture{}
	m := New(cfg)
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		c.addr, c.auth, c.from, c.to, c.raw = addr, a, from, to, string(msg)
		return err
	}
	return m, c
}

func TestSend(t *testing.T) {
	m, c := newCapturing(SMTP{Host: "smtp.test", Port: "587", Username: "u", Password: "p", From: "market@test", FromName: "Kwanza"}, nil)

	err := m.Send(context.Background(), Message{To: []string{"farmer@test"}, Subject: "Sale", Body: "line one\nline two"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.test:587", c.addr)
	assert.NotNil(t, c.auth)
	assert.Equal(t, "market@test", c.from)
	assert.Equal(t, []string{"farmer@test"}, c.to)
	assert.Contains(t, c.raw, "From: Kwanza <market@test>\r\n")
	assert.Contains(t, c.raw, "Subject: Sale\r\n")
	assert.Contains(t, c.raw, "\r\n\r\nline one\r\nline two")
}

func TestSendWithoutCredentialsSkipsAuth(t *testing.T) {
	m, c := newCapturing(SMTP{Host: "localhost", Port: "25", From: "market@test"}, nil)

	require.NoError(t, m.Send(context.Background(), Message{To: []string{"a@test"}}))
	assert.Nil(t, c.auth)
	assert.Contains(t, c.raw, "From: market@test\r\n")
}

func TestSendErrors(t *testing.T) {
	m, _ := newCapturing(SMTP{Host: "localhost", Port: "25"}, errors.New("connection refused"))

	assert.ErrorIs(t, m.Send(context.Background(), Message{}), ErrNoRecipients)
	assert.ErrorContains(t, m.Send(context.Background(), Message{To: []string{"a@test"}}), "connection refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: []string{"a@test"}}), context.Canceled)
}
