package notification

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hitoshi/epyson/internal/model"
	"github.com/hitoshi/epyson/internal/repository"
)

// --- モック ---

type mockNotificationRepo struct {
	repository.NotificationRepository
	listByRecipientFunc        func(ctx context.Context, recipientID int64, skip, limit int) ([]model.NotificationWithSender, error)
	countByRecipientFunc       func(ctx context.Context, recipientID int64) (int, error)
	markReadByRecipientFunc    func(ctx context.Context, recipientID int64) error
	countUnreadByRecipientFunc func(ctx context.Context, recipientID int64) (int, error)
}

func (m *mockNotificationRepo) ListByRecipient(ctx context.Context, recipientID int64, skip, limit int) ([]model.NotificationWithSender, error) {
	return m.listByRecipientFunc(ctx, recipientID, skip, limit)
}

func (m *mockNotificationRepo) CountByRecipient(ctx context.Context, recipientID int64) (int, error) {
	return m.countByRecipientFunc(ctx, recipientID)
}

func (m *mockNotificationRepo) MarkReadByRecipient(ctx context.Context, recipientID int64) error {
	return m.markReadByRecipientFunc(ctx, recipientID)
}

func (m *mockNotificationRepo) CountUnreadByRecipient(ctx context.Context, recipientID int64) (int, error) {
	return m.countUnreadByRecipientFunc(ctx, recipientID)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestList_MarksReadForRecipientOnly(t *testing.T) {
	var markedFor int64
	repo := &mockNotificationRepo{
		countByRecipientFunc: func(ctx context.Context, recipientID int64) (int, error) {
			return 25, nil
		},
		listByRecipientFunc: func(ctx context.Context, recipientID int64, skip, limit int) ([]model.NotificationWithSender, error) {
			if recipientID != 7 {
				t.Errorf("recipientID = %d, want 7", recipientID)
			}
			if skip != 10 || limit != 10 {
				t.Errorf("skip/limit = %d/%d, want 10/10", skip, limit)
			}
			return []model.NotificationWithSender{{Notification: model.Notification{ID: 1, RecipientID: 7}}}, nil
		},
		markReadByRecipientFunc: func(ctx context.Context, recipientID int64) error {
			markedFor = recipientID
			return nil
		},
	}
	svc := NewService(repo, discardLogger())

	page, err := svc.List(context.Background(), 7, 2, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if markedFor != 7 {
		t.Errorf("既読化の対象 = %d, want 7", markedFor)
	}
	if page.NextPage == nil || *page.NextPage != 3 {
		t.Errorf("NextPage = %v, want 3", page.NextPage)
	}
}

func TestList_MarkReadFailureDoesNotFail(t *testing.T) {
	repo := &mockNotificationRepo{
		countByRecipientFunc: func(ctx context.Context, recipientID int64) (int, error) {
			return 1, nil
		},
		listByRecipientFunc: func(ctx context.Context, recipientID int64, skip, limit int) ([]model.NotificationWithSender, error) {
			return []model.NotificationWithSender{{Notification: model.Notification{ID: 1}}}, nil
		},
		markReadByRecipientFunc: func(ctx context.Context, recipientID int64) error {
			return errors.New("db down")
		},
	}
	svc := NewService(repo, discardLogger())

	page, err := svc.List(context.Background(), 7, 1, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(page.Data) != 1 {
		t.Errorf("len(Data) = %d, want 1", len(page.Data))
	}
}

func TestList_LastPage(t *testing.T) {
	repo := &mockNotificationRepo{
		countByRecipientFunc: func(ctx context.Context, recipientID int64) (int, error) {
			return 10, nil
		},
		listByRecipientFunc: func(ctx context.Context, recipientID int64, skip, limit int) ([]model.NotificationWithSender, error) {
			return nil, nil
		},
		markReadByRecipientFunc: func(ctx context.Context, recipientID int64) error {
			return nil
		},
	}
	svc := NewService(repo, discardLogger())

	page, err := svc.List(context.Background(), 7, 1, 10)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.NextPage != nil {
		t.Errorf("NextPage = %v, want nil", *page.NextPage)
	}
}

func TestList_InvalidPagination(t *testing.T) {
	svc := NewService(&mockNotificationRepo{}, discardLogger())

	_, err := svc.List(context.Background(), 7, 0, 10)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInvalidPagination {
		t.Errorf("List() error = %v, want INVALID_PAGINATION", err)
	}
}

func TestUnreadCount(t *testing.T) {
	repo := &mockNotificationRepo{
		countUnreadByRecipientFunc: func(ctx context.Context, recipientID int64) (int, error) {
			if recipientID != 7 {
				t.Errorf("recipientID = %d, want 7", recipientID)
			}
			return 4, nil
		},
	}
	svc := NewService(repo, discardLogger())

	info, err := svc.UnreadCount(context.Background(), 7)
	if err != nil {
		t.Fatalf("UnreadCount() error = %v", err)
	}
	if info.Unread != 4 {
		t.Errorf("Unread = %d, want 4", info.Unread)
	}
}
