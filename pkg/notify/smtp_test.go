package notify

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	_, ok := New(SMTPConfig{}).(Noop)
	assert.True(t, ok)

	s, ok := New(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "bot@example.com"}).(*SMTP)
	require.True(t, ok)
	assert.Equal(t, "bot@example.com", s.conf.From)
	assert.Equal(t, DefaultTimeout, s.conf.Timeout)
}

func TestNoop(t *testing.T) {
	assert.False(t, Noop{}.Send(context.Background(), []string{"a@example.com"}, "s", "b"))
}

func TestSMTP_InvalidInput(t *testing.T) {
	s := NewSMTP(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "monitor@example.com"})

	assert.False(t, s.Send(context.Background(), nil, "subject", "body"), "no recipients")
	assert.False(t, s.Send(context.Background(), []string{"not an address"}, "subject", "body"))

	bad := NewSMTP(SMTPConfig{Host: "127.0.0.1", Port: 1, From: "nobody"})
	assert.False(t, bad.Send(context.Background(), []string{"ops@example.com"}, "subject", "body"))
}

func TestSMTP_StalledServerIsTimeBounded(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	// Accept connections but never write the SMTP greeting.
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			defer conn.Close()
		}
	}()

	addr := l.Addr().(*net.TCPAddr)
	s := NewSMTP(SMTPConfig{
		Host:    "127.0.0.1",
		Port:    addr.Port,
		From:    "monitor@example.com",
		Timeout: 300 * time.Millisecond,
	})

	start := time.Now()
	sent := s.Send(context.Background(), []string{"ops@example.com"}, "subject", "body")

	assert.False(t, sent)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSMTP_ServerHangsUp(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	s := NewSMTP(SMTPConfig{
		Host:    "127.0.0.1",
		Port:    l.Addr().(*net.TCPAddr).Port,
		From:    "monitor@example.com",
		Timeout: 2 * time.Second,
	})

	assert.False(t, s.Send(context.Background(), []string{"ops@example.com"}, "subject", "body"))
}

func TestFunc(t *testing.T) {
	var got []string
	n := Func(func(_ context.Context, recipients []string, subject, body string) bool {
		got = append(append(got, recipients...), subject, body)
		return true
	})

	assert.True(t, n.Send(context.Background(), []string{"a@example.com"}, "s", "b"))
	assert.Equal(t, []string{"a@example.com", "s", "b"}, got)
}
