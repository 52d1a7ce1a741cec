package notify

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"strings"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// IndexNow通知がURLとキーをクエリに載せて送られることを検証
func TestIndexNowClient_Ping(t *testing.T) {
	var gotURL, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.Query().Get("url")
		gotKey = r.URL.Query().Get("key")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewIndexNowClient(server.Client(), discardLogger(), "test-key", "example.com")
	client.endpoint = server.URL

	err := client.Ping(context.Background(), "https://example.com/post/1")
	if err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if gotURL != "https://example.com/post/1" {
		t.Errorf("url = %q", gotURL)
	}
	if gotKey != "test-key" {
		t.Errorf("key = %q", gotKey)
	}
}

// IndexNow APIのエラーステータスがエラーとして返ることを検証
func TestIndexNowClient_Ping_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewIndexNowClient(server.Client(), discardLogger(), "test-key", "example.com")
	client.endpoint = server.URL

	if err := client.Ping(context.Background(), "https://example.com/post/1"); err == nil {
		t.Error("エラーステータスでnilが返った")
	}
}

// 通報がボットトークン付きのsendMessageに転送されることを検証
func TestTelegramClient_SendComplaint(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewTelegramClient(server.Client(), discardLogger(), "bot-token", "chat-42")
	client.endpoint = server.URL

	err := client.SendComplaint(context.Background(), "https://example.com/post/7", "スパム")
	if err != nil {
		t.Fatalf("SendComplaint() error = %v", err)
	}
	if gotPath != "/botbot-token/sendMessage" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody["chat_id"] != "chat-42" {
		t.Errorf("chat_id = %q", gotBody["chat_id"])
	}
	if !strings.Contains(gotBody["text"], "https://example.com/post/7") || !strings.Contains(gotBody["text"], "スパム") {
		t.Errorf("text = %q", gotBody["text"])
	}
}

func TestTelegramClient_SendComplaint_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewTelegramClient(server.Client(), discardLogger(), "bad-token", "chat-42")
	client.endpoint = server.URL

	if err := client.SendComplaint(context.Background(), "https://example.com/post/7", "スパム"); err == nil {
		t.Error("エラーステータスでnilが返った")
	}
}

// 確認メールが宛先・確認URL付きで送信されることを検証
func TestSMTPMailer_SendConfirmation(t *testing.T) {
	var gotTo []string
	var gotMsg []byte
	mailer := NewSMTPMailer("localhost", "25", "", "", "noreply@example.com", "Epyson", "https://example.com")
	mailer.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotTo = to
		gotMsg = msg
		return nil
	}

	err := mailer.SendConfirmation(context.Background(), "gopher@example.com", "gopher", "token-123")
	if err != nil {
		t.Fatalf("SendConfirmation() error = %v", err)
	}
	if len(gotTo) != 1 || gotTo[0] != "gopher@example.com" {
		t.Errorf("to = %v", gotTo)
	}
	msg := string(gotMsg)
	if !strings.Contains(msg, "https://example.com/confirm?token=token-123") {
		t.Errorf("確認URLがない: %q", msg)
	}
	if !strings.Contains(msg, "gopher さん") {
		t.Errorf("宛名がない: %q", msg)
	}
}
