package repository

import (
	"testing"

	"github.com/hitoshi/epyson/internal/feed"
)

// 各リポジトリがインターフェースを満たすことを検証
func TestRepositories_ImplementInterfaces(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
	var _ TokenRepository = (*PostgresTokenRepo)(nil)
	var _ TopicRepository = (*PostgresTopicRepo)(nil)
	var _ PostRepository = (*PostgresPostRepo)(nil)
	var _ CommentRepository = (*PostgresCommentRepo)(nil)
	var _ SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)
	var _ NotificationRepository = (*PostgresNotificationRepo)(nil)
	var _ feed.Store = (*PostgresFeedRepo)(nil)
}

// 各コンストラクタが正しく初期化されることを検証
func TestNewRepositories_Initialize(t *testing.T) {
	if NewPostgresUserRepo(nil) == nil {
		t.Fatal("expected non-nil user repo")
	}
	if NewPostgresTokenRepo(nil) == nil {
		t.Fatal("expected non-nil token repo")
	}
	if NewPostgresTopicRepo(nil) == nil {
		t.Fatal("expected non-nil topic repo")
	}
	if NewPostgresPostRepo(nil) == nil {
		t.Fatal("expected non-nil post repo")
	}
	if NewPostgresCommentRepo(nil) == nil {
		t.Fatal("expected non-nil comment repo")
	}
	if NewPostgresSubscriptionRepo(nil) == nil {
		t.Fatal("expected non-nil subscription repo")
	}
	if NewPostgresNotificationRepo(nil) == nil {
		t.Fatal("expected non-nil notification repo")
	}
	if NewPostgresFeedRepo(nil) == nil {
		t.Fatal("expected non-nil feed repo")
	}
}
