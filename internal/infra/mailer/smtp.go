package mailer

import (
	"context"
	"errors"
	"fmt"

	"backoffice/internal/config"

	"github.com/wneessen/go-mail"
)

var ErrNotConfigured = errors.New("smtp is not configured")

type Message struct {
	To      string
	Subject string
	HTML    string
}

// 宛先ごとの送信結果
type Result struct {
	To  string
	Err error
}

// 1回の呼び出しで1本のSMTP接続を使う
type Sender interface {
	Send(ctx context.Context, msgs []Message) ([]Result, error)
}

type SMTPSender struct {
	cfg config.SMTPConfig
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.User),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return mail.NewClient(s.cfg.Host, opts...)
}

func (s *SMTPSender) build(m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("from %q: %w", s.cfg.From, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("to %q: %w", m.To, err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextHTML, m.HTML)
	return msg, nil
}

// 接続・認証に失敗したら全件失敗。個別の失敗は Result に入る
func (s *SMTPSender) Send(ctx context.Context, msgs []Message) ([]Result, error) {
	if s.cfg.Host == "" {
		return nil, ErrNotConfigured
	}

	results := make([]Result, len(msgs))
	built := make([]*mail.Msg, 0, len(msgs))
	idx := make([]int, 0, len(msgs))
	for i, m := range msgs {
		results[i].To = m.To
		msg, err := s.build(m)
		if err != nil {
			results[i].Err = err
			continue
		}
		built = append(built, msg)
		idx = append(idx, i)
	}
	if len(built) == 0 {
		return results, nil
	}

	c, err := s.client()
	if err != nil {
		return nil, err
	}

	sendErr := c.DialAndSendWithContext(ctx, built...)
	for j, msg := range built {
		if msg.HasSendError() {
			results[idx[j]].Err = msg.SendError()
		}
	}

	//接続自体に失敗した場合はメッセージ単位のエラーが付かない
	if sendErr != nil {
		anyMarked := false
		for _, msg := range built {
			if msg.HasSendError() {
				anyMarked = true
				break
			}
		}
		if !anyMarked {
			return nil, sendErr
		}
	}
	return results, nil
}
