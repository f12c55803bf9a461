package tg

import (
	"errors"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func TestIsSystemErr(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("Too Many Requests: retry after 5"), true},
		{errors.New("502 Bad Gateway"), true},
		{errors.New("net/http: request canceled (Client.Timeout exceeded)"), true},
		{errors.New("dial tcp: i/o timeout"), true},
		{errors.New("Bad Request: chat not found"), false},
		{errors.New("Bad Request: message is not modified"), false},
	}
	for _, c := range cases {
		if got := isSystemErr(c.err); got != c.want {
			t.Fatalf("%v: got %v want %v", c.err, got, c.want)
		}
	}
}

type stubSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (s *stubSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.sent = append(s.sent, c)
	return tgbotapi.Message{MessageID: len(s.sent)}, s.err
}

func TestSend(t *testing.T) {
	s := &stubSender{}
	m, err := Send(s, tgbotapi.NewMessage(1, "hi"))
	if err != nil || m.MessageID != 1 || len(s.sent) != 1 {
		t.Fatalf("unexpected %+v %v", m, err)
	}

	s.err = errors.New("Bad Request: chat not found")
	if _, err := Send(s, tgbotapi.NewMessage(1, "hi")); err == nil {
		t.Fatal("error must be returned")
	}
}
