package post

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/epyson/internal/model"
	"github.com/hitoshi/epyson/internal/repository"
	"github.com/hitoshi/epyson/internal/security"
)

// --- モック ---

type mockPostRepo struct {
	repository.PostRepository
	createFunc         func(ctx context.Context, post *model.Post, tags []string) error
	updateFunc         func(ctx context.Context, post *model.Post, tags []string) error
	deleteFunc         func(ctx context.Context, id int64) error
	findByIDFunc       func(ctx context.Context, id int64) (*model.Post, error)
	findDetailByIDFunc func(ctx context.Context, id int64) (*model.PostDetail, error)
	recordViewFunc     func(ctx context.Context, postID int64, ip string) error
	addLikeFunc        func(ctx context.Context, postID, userID int64) (bool, error)
	removeLikeFunc     func(ctx context.Context, postID, userID int64) (bool, error)
	infoFunc           func(ctx context.Context, postID int64, viewerID *int64) (*model.EngagementInfo, error)
}

func (m *mockPostRepo) Create(ctx context.Context, post *model.Post, tags []string) error {
	return m.createFunc(ctx, post, tags)
}

func (m *mockPostRepo) Update(ctx context.Context, post *model.Post, tags []string) error {
	return m.updateFunc(ctx, post, tags)
}

func (m *mockPostRepo) Delete(ctx context.Context, id int64) error {
	return m.deleteFunc(ctx, id)
}

func (m *mockPostRepo) FindByID(ctx context.Context, id int64) (*model.Post, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockPostRepo) FindDetailByID(ctx context.Context, id int64) (*model.PostDetail, error) {
	return m.findDetailByIDFunc(ctx, id)
}

func (m *mockPostRepo) RecordView(ctx context.Context, postID int64, ip string) error {
	return m.recordViewFunc(ctx, postID, ip)
}

func (m *mockPostRepo) AddLike(ctx context.Context, postID, userID int64) (bool, error) {
	return m.addLikeFunc(ctx, postID, userID)
}

func (m *mockPostRepo) RemoveLike(ctx context.Context, postID, userID int64) (bool, error) {
	return m.removeLikeFunc(ctx, postID, userID)
}

func (m *mockPostRepo) Info(ctx context.Context, postID int64, viewerID *int64) (*model.EngagementInfo, error) {
	return m.infoFunc(ctx, postID, viewerID)
}

type mockNotificationRepo struct {
	repository.NotificationRepository
	createFunc  func(ctx context.Context, n *model.Notification) error
	retractFunc func(ctx context.Context, senderID, recipientID int64, nType model.NotificationType, postID *int64) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return m.createFunc(ctx, n)
}

func (m *mockNotificationRepo) Retract(ctx context.Context, senderID, recipientID int64, nType model.NotificationType, postID *int64) error {
	return m.retractFunc(ctx, senderID, recipientID, nType, postID)
}

type mockPinger struct {
	pinged chan string
}

func (m *mockPinger) Ping(ctx context.Context, pageURL string) error {
	m.pinged <- pageURL
	return nil
}

type mockMetrics struct {
	sent     []string
	failures []string
}

func (m *mockMetrics) RecordNotificationSent(notificationType string) {
	m.sent = append(m.sent, notificationType)
}

func (m *mockMetrics) RecordOutboundFailure(collaborator string) {
	m.failures = append(m.failures, collaborator)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(posts *mockPostRepo, notifications *mockNotificationRepo, pinger IndexPinger, metrics Metrics) *Service {
	svc := NewService(posts, notifications, security.NewContentSanitizer(), pinger, metrics, discardLogger(), "https://example.com")
	svc.now = func() int64 { return 1700000000 }
	return svc
}

func validInput() *Input {
	return &Input{
		Title:       "テスト投稿",
		Text:        "<p>本文テキスト</p>",
		Attachments: json.RawMessage(`[]`),
		TopicID:     1,
		Tags:        []string{"go", "web"},
	}
}

func TestCreate_SanitizesAndPings(t *testing.T) {
	var created *model.Post
	var createdTags []string
	repo := &mockPostRepo{
		createFunc: func(ctx context.Context, post *model.Post, tags []string) error {
			post.ID = 5
			created = post
			createdTags = tags
			return nil
		},
		findDetailByIDFunc: func(ctx context.Context, id int64) (*model.PostDetail, error) {
			return &model.PostDetail{ID: id}, nil
		},
	}
	pinger := &mockPinger{pinged: make(chan string, 1)}
	svc := newTestService(repo, &mockNotificationRepo{}, pinger, nil)

	input := validInput()
	input.Text = `<p>本文テキスト</p><script>alert(1)</script>`
	detail, err := svc.Create(context.Background(), 3, input)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if detail.ID != 5 {
		t.Errorf("ID = %d, want 5", detail.ID)
	}
	if strings.Contains(created.Text, "script") {
		t.Errorf("本文がサニタイズされていない: %q", created.Text)
	}
	if created.AuthorID != 3 || created.CreatedAt != 1700000000 {
		t.Errorf("AuthorID/CreatedAt = %d/%d", created.AuthorID, created.CreatedAt)
	}
	if len(createdTags) != 2 {
		t.Errorf("len(tags) = %d, want 2", len(createdTags))
	}

	select {
	case url := <-pinger.pinged:
		if url != "https://example.com/post/5" {
			t.Errorf("ping URL = %q", url)
		}
	case <-time.After(time.Second):
		t.Error("インデックス通知が送られていない")
	}
}

func TestCreate_TitleLength(t *testing.T) {
	svc := newTestService(&mockPostRepo{}, &mockNotificationRepo{}, nil, nil)

	for _, title := range []string{"", strings.Repeat("あ", 501)} {
		input := validInput()
		input.Title = title
		_, err := svc.Create(context.Background(), 3, input)
		var apiErr *model.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTitleLength {
			t.Errorf("title len %d: error = %v, want TITLE_LENGTH", len([]rune(title)), err)
		}
	}
}

func TestCreate_TextLengthAfterStripping(t *testing.T) {
	svc := newTestService(&mockPostRepo{}, &mockNotificationRepo{}, nil, nil)

	// タグを除去すると1文字しか残らない
	input := validInput()
	input.Text = "<p><strong>a</strong></p>"
	_, err := svc.Create(context.Background(), 3, input)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTextLength {
		t.Errorf("Create() error = %v, want TEXT_LENGTH", err)
	}

	input = validInput()
	input.Text = strings.Repeat("あ", 2500)
	_, err = svc.Create(context.Background(), 3, input)
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeTextLength {
		t.Errorf("Create() error = %v, want TEXT_LENGTH", err)
	}
}

func TestUpdate_NotOwnerForbidden(t *testing.T) {
	repo := &mockPostRepo{
		findByIDFunc: func(ctx context.Context, id int64) (*model.Post, error) {
			return &model.Post{ID: id, AuthorID: 99}, nil
		},
	}
	svc := newTestService(repo, &mockNotificationRepo{}, nil, nil)

	_, err := svc.Update(context.Background(), 3, 5, validInput())
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeForbidden {
		t.Errorf("Update() error = %v, want FORBIDDEN", err)
	}
}

func TestDelete_Owner(t *testing.T) {
	deleted := false
	repo := &mockPostRepo{
		findByIDFunc: func(ctx context.Context, id int64) (*model.Post, error) {
			return &model.Post{ID: id, AuthorID: 3}, nil
		},
		deleteFunc: func(ctx context.Context, id int64) error {
			deleted = true
			return nil
		},
	}
	svc := newTestService(repo, &mockNotificationRepo{}, nil, nil)

	if err := svc.Delete(context.Background(), 3, 5); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if !deleted {
		t.Error("リポジトリの削除が呼ばれていない")
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo := &mockPostRepo{
		findByIDFunc: func(ctx context.Context, id int64) (*model.Post, error) {
			return nil, nil
		},
	}
	svc := newTestService(repo, &mockNotificationRepo{}, nil, nil)

	err := svc.Delete(context.Background(), 3, 5)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodePostNotFound {
		t.Errorf("Delete() error = %v, want POST_NOT_FOUND", err)
	}
}

func TestDetail_RecordsView(t *testing.T) {
	var viewedIP string
	repo := &mockPostRepo{
		findDetailByIDFunc: func(ctx context.Context, id int64) (*model.PostDetail, error) {
			return &model.PostDetail{ID: id}, nil
		},
		recordViewFunc: func(ctx context.Context, postID int64, ip string) error {
			viewedIP = ip
			return nil
		},
	}
	svc := newTestService(repo, &mockNotificationRepo{}, nil, nil)

	if _, err := svc.Detail(context.Background(), 5, "203.0.113.1"); err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if viewedIP != "203.0.113.1" {
		t.Errorf("view ip = %q", viewedIP)
	}
}

func TestDetail_ViewFailureDoesNotFail(t *testing.T) {
	repo := &mockPostRepo{
		findDetailByIDFunc: func(ctx context.Context, id int64) (*model.PostDetail, error) {
			return &model.PostDetail{ID: id}, nil
		},
		recordViewFunc: func(ctx context.Context, postID int64, ip string) error {
			return errors.New("db down")
		},
	}
	svc := newTestService(repo, &mockNotificationRepo{}, nil, nil)

	detail, err := svc.Detail(context.Background(), 5, "203.0.113.1")
	if err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
	if detail.ID != 5 {
		t.Errorf("ID = %d, want 5", detail.ID)
	}
}

func TestDetail_EmptyIPSkipsView(t *testing.T) {
	repo := &mockPostRepo{
		findDetailByIDFunc: func(ctx context.Context, id int64) (*model.PostDetail, error) {
			return &model.PostDetail{ID: id}, nil
		},
		recordViewFunc: func(ctx context.Context, postID int64, ip string) error {
			t.Error("空IPで閲覧が記録された")
			return nil
		},
	}
	svc := newTestService(repo, &mockNotificationRepo{}, nil, nil)

	if _, err := svc.Detail(context.Background(), 5, ""); err != nil {
		t.Fatalf("Detail() error = %v", err)
	}
}

func TestReact_LikeNotifiesAuthor(t *testing.T) {
	var notified *model.Notification
	repo := &mockPostRepo{
		findByIDFunc: func(ctx context.Context, id int64) (*model.Post, error) {
			return &model.Post{ID: id, AuthorID: 9}, nil
		},
		addLikeFunc: func(ctx context.Context, postID, userID int64) (bool, error) {
			return true, nil
		},
		infoFunc: func(ctx context.Context, postID int64, viewerID *int64) (*model.EngagementInfo, error) {
			if viewerID == nil || *viewerID != 3 {
				t.Errorf("viewerID = %v, want 3", viewerID)
			}
			return &model.EngagementInfo{Likes: 1, Liked: true}, nil
		},
	}
	notifications := &mockNotificationRepo{
		createFunc: func(ctx context.Context, n *model.Notification) error {
			notified = n
			return nil
		},
	}
	metrics := &mockMetrics{}
	svc := newTestService(repo, notifications, nil, metrics)

	info, err := svc.React(context.Background(), 3, 5, true)
	if err != nil {
		t.Fatalf("React() error = %v", err)
	}
	if !info.Liked {
		t.Error("Liked = false, want true")
	}
	if notified == nil {
		t.Fatal("通知が作成されていない")
	}
	if notified.SenderID != 3 || notified.RecipientID != 9 || notified.Type != model.NotificationTypeLike {
		t.Errorf("notification = %+v", notified)
	}
	if notified.PostID == nil || *notified.PostID != 5 {
		t.Errorf("PostID = %v, want 5", notified.PostID)
	}
	if len(metrics.sent) != 1 || metrics.sent[0] != "like" {
		t.Errorf("metrics.sent = %v", metrics.sent)
	}
}

func TestReact_DuplicateLikeDoesNotNotify(t *testing.T) {
	repo := &mockPostRepo{
		findByIDFunc: func(ctx context.Context, id int64) (*model.Post, error) {
			return &model.Post{ID: id, AuthorID: 9}, nil
		},
		addLikeFunc: func(ctx context.Context, postID, userID int64) (bool, error) {
			return false, nil
		},
		infoFunc: func(ctx context.Context, postID int64, viewerID *int64) (*model.EngagementInfo, error) {
			return &model.EngagementInfo{Likes: 1, Liked: true}, nil
		},
	}
	notifications := &mockNotificationRepo{
		createFunc: func(ctx context.Context, n *model.Notification) error {
			t.Error("重複いいねで通知が作成された")
			return nil
		},
	}
	svc := newTestService(repo, notifications, nil, nil)

	if _, err := svc.React(context.Background(), 3, 5, true); err != nil {
		t.Fatalf("React() error = %v", err)
	}
}

func TestReact_SelfLikeDoesNotNotify(t *testing.T) {
	repo := &mockPostRepo{
		findByIDFunc: func(ctx context.Context, id int64) (*model.Post, error) {
			return &model.Post{ID: id, AuthorID: 3}, nil
		},
		addLikeFunc: func(ctx context.Context, postID, userID int64) (bool, error) {
			return true, nil
		},
		infoFunc: func(ctx context.Context, postID int64, viewerID *int64) (*model.EngagementInfo, error) {
			return &model.EngagementInfo{Likes: 1, Liked: true}, nil
		},
	}
	notifications := &mockNotificationRepo{
		createFunc: func(ctx context.Context, n *model.Notification) error {
			t.Error("自分の投稿へのいいねで通知が作成された")
			return nil
		},
	}
	svc := newTestService(repo, notifications, nil, nil)

	if _, err := svc.React(context.Background(), 3, 5, true); err != nil {
		t.Fatalf("React() error = %v", err)
	}
}

func TestReact_UnlikeRetracts(t *testing.T) {
	retracted := false
	repo := &mockPostRepo{
		findByIDFunc: func(ctx context.Context, id int64) (*model.Post, error) {
			return &model.Post{ID: id, AuthorID: 9}, nil
		},
		removeLikeFunc: func(ctx context.Context, postID, userID int64) (bool, error) {
			return true, nil
		},
		infoFunc: func(ctx context.Context, postID int64, viewerID *int64) (*model.EngagementInfo, error) {
			return &model.EngagementInfo{Liked: false}, nil
		},
	}
	notifications := &mockNotificationRepo{
		retractFunc: func(ctx context.Context, senderID, recipientID int64, nType model.NotificationType, postID *int64) error {
			if senderID != 3 || recipientID != 9 || nType != model.NotificationTypeLike {
				t.Errorf("Retract(%d, %d, %s)", senderID, recipientID, nType)
			}
			if postID == nil || *postID != 5 {
				t.Errorf("postID = %v, want 5", postID)
			}
			retracted = true
			return nil
		},
	}
	svc := newTestService(repo, notifications, nil, nil)

	if _, err := svc.React(context.Background(), 3, 5, false); err != nil {
		t.Fatalf("React() error = %v", err)
	}
	if !retracted {
		t.Error("通知の取り下げが呼ばれていない")
	}
}
