package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// SMTPMailer はSMTP経由で確認メールを送信するメーラー。
// auth.Mailerを実装する。
type SMTPMailer struct {
	addr         string
	auth         smtp.Auth
	from         string
	siteName     string
	clientDomain string

	// sendMail はテスト用に差し替え可能な送信関数。
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer はSMTPMailerの新しいインスタンスを生成する。
// usernameが空の場合は認証なしで送信する。
func NewSMTPMailer(host, port, username, password, from, siteName, clientDomain string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	return &SMTPMailer{
		addr:         host + ":" + port,
		auth:         auth,
		from:         from,
		siteName:     siteName,
		clientDomain: clientDomain,
		sendMail:     smtp.SendMail,
	}
}

// SendConfirmation はメールアドレス確認用のメールを送信する。
func (m *SMTPMailer) SendConfirmation(ctx context.Context, email, name, token string) error {
	msg := m.buildConfirmationMessage(email, name, token)
	if err := m.sendMail(m.addr, m.auth, m.from, []string{email}, msg); err != nil {
		return fmt.Errorf("確認メールの送信に失敗しました: %w", err)
	}
	return nil
}

// buildConfirmationMessage は確認メールの本文を組み立てる。
func (m *SMTPMailer) buildConfirmationMessage(email, name, token string) []byte {
	confirmURL := fmt.Sprintf("%s/confirm?token=%s", m.clientDomain, token)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("From: %s <%s>\r\n", m.siteName, m.from))
	sb.WriteString(fmt.Sprintf("To: %s\r\n", email))
	sb.WriteString(fmt.Sprintf("Subject: %s - メールアドレスの確認\r\n", m.siteName))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(fmt.Sprintf("%s さん\r\n\r\n", name))
	sb.WriteString(fmt.Sprintf("%s へのご登録ありがとうございます。\r\n", m.siteName))
	sb.WriteString("以下のリンクを開いてメールアドレスを確認してください。\r\n\r\n")
	sb.WriteString(confirmURL + "\r\n\r\n")
	sb.WriteString("このメールに心当たりがない場合は破棄してください。\r\n")
	return []byte(sb.String())
}
