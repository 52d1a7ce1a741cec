package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/epyson/internal/comment"
	"github.com/hitoshi/epyson/internal/model"
)

// --- モック定義 ---

// mockCommentService はCommentServiceInterfaceのモック実装。
type mockCommentService struct {
	createFn  func(ctx context.Context, userID, postID int64, parentID *int64, text string) (*model.CommentWithAuthor, error)
	listFn    func(ctx context.Context, postID int64, page, limit int, order model.CommentOrder) (*comment.Page, error)
	repliesFn func(ctx context.Context, postID int64) ([]model.CommentWithAuthor, error)
	getFn     func(ctx context.Context, commentID int64) (*model.CommentWithAuthor, error)
	deleteFn  func(ctx context.Context, userID, commentID int64) error
}

func (m *mockCommentService) Create(ctx context.Context, userID, postID int64, parentID *int64, text string) (*model.CommentWithAuthor, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, postID, parentID, text)
	}
	return &model.CommentWithAuthor{}, nil
}

func (m *mockCommentService) List(ctx context.Context, postID int64, page, limit int, order model.CommentOrder) (*comment.Page, error) {
	if m.listFn != nil {
		return m.listFn(ctx, postID, page, limit, order)
	}
	return &comment.Page{}, nil
}

func (m *mockCommentService) Replies(ctx context.Context, postID int64) ([]model.CommentWithAuthor, error) {
	if m.repliesFn != nil {
		return m.repliesFn(ctx, postID)
	}
	return nil, nil
}

func (m *mockCommentService) Get(ctx context.Context, commentID int64) (*model.CommentWithAuthor, error) {
	if m.getFn != nil {
		return m.getFn(ctx, commentID)
	}
	return &model.CommentWithAuthor{}, nil
}

func (m *mockCommentService) Delete(ctx context.Context, userID, commentID int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, userID, commentID)
	}
	return nil
}

// --- POST /posts/{id}/comments テスト ---

func TestCommentHandler_Create_TopLevel(t *testing.T) {
	svc := &mockCommentService{
		createFn: func(ctx context.Context, userID, postID int64, parentID *int64, text string) (*model.CommentWithAuthor, error) {
			if userID != 42 || postID != 5 {
				t.Errorf("args = (userID=%d, postID=%d), want (42, 5)", userID, postID)
			}
			if parentID != nil {
				t.Errorf("parentID = %v, want nil", parentID)
			}
			return &model.CommentWithAuthor{Comment: model.Comment{ID: 100, PostID: postID, Text: text}}, nil
		},
	}
	h := NewCommentHandler(svc)

	body := `{"text": "<p>いいですね</p>"}`
	req := httptest.NewRequest(http.MethodPost, "/posts/5/comments", bytes.NewBufferString(body))
	req = withUserID(req, 42)
	req = withChiURLParam(req, "id", "5")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestCommentHandler_Create_Reply(t *testing.T) {
	var gotParent *int64
	svc := &mockCommentService{
		createFn: func(ctx context.Context, userID, postID int64, parentID *int64, text string) (*model.CommentWithAuthor, error) {
			gotParent = parentID
			return &model.CommentWithAuthor{}, nil
		},
	}
	h := NewCommentHandler(svc)

	body := `{"text": "返信です", "parent_id": 100}`
	req := httptest.NewRequest(http.MethodPost, "/posts/5/comments", bytes.NewBufferString(body))
	req = withUserID(req, 42)
	req = withChiURLParam(req, "id", "5")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if gotParent == nil || *gotParent != 100 {
		t.Errorf("parentID = %v, want 100", gotParent)
	}
}

func TestCommentHandler_Create_Unauthorized(t *testing.T) {
	h := NewCommentHandler(&mockCommentService{
		createFn: func(ctx context.Context, userID, postID int64, parentID *int64, text string) (*model.CommentWithAuthor, error) {
			t.Fatal("Create should not be called")
			return nil, nil
		},
	})

	body := `{"text": "匿名コメント"}`
	req := httptest.NewRequest(http.MethodPost, "/posts/5/comments", bytes.NewBufferString(body))
	req = withChiURLParam(req, "id", "5")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestCommentHandler_Create_EmptyText(t *testing.T) {
	h := NewCommentHandler(&mockCommentService{
		createFn: func(ctx context.Context, userID, postID int64, parentID *int64, text string) (*model.CommentWithAuthor, error) {
			return nil, model.NewEmptyCommentError()
		},
	})

	body := `{"text": "<p></p>"}`
	req := httptest.NewRequest(http.MethodPost, "/posts/5/comments", bytes.NewBufferString(body))
	req = withUserID(req, 42)
	req = withChiURLParam(req, "id", "5")
	w := httptest.NewRecorder()

	h.Create(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	resp := parseAPIErrorResponse(t, w)
	if resp["code"] != model.ErrCodeTextLength {
		t.Errorf("code = %q, want %q", resp["code"], model.ErrCodeTextLength)
	}
}

// --- GET /posts/{id}/comments テスト ---

func TestCommentHandler_List_PassesPagination(t *testing.T) {
	var gotPage, gotLimit int
	var gotOrder model.CommentOrder
	h := NewCommentHandler(&mockCommentService{
		listFn: func(ctx context.Context, postID int64, page, limit int, order model.CommentOrder) (*comment.Page, error) {
			gotPage, gotLimit, gotOrder = page, limit, order
			return &comment.Page{Data: []model.CommentWithAuthor{}, Pages: 3}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/posts/5/comments?page=2&limit=10", nil)
	req = withChiURLParam(req, "id", "5")
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotPage != 2 || gotLimit != 10 {
		t.Errorf("page/limit = %d/%d, want 2/10", gotPage, gotLimit)
	}
	if gotOrder != model.CommentOrderAsc {
		t.Errorf("order = %s, want ASC", gotOrder)
	}
}

func TestCommentHandler_List_FilterControlsOrder(t *testing.T) {
	tests := []struct {
		name   string
		filter string
		want   model.CommentOrder
	}{
		{"desc指定で降順", "desc", model.CommentOrderDesc},
		{"asc指定で昇順", "asc", model.CommentOrderAsc},
		{"大文字DESCも許容", "DESC", model.CommentOrderDesc},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotOrder model.CommentOrder
			h := NewCommentHandler(&mockCommentService{
				listFn: func(ctx context.Context, postID int64, page, limit int, order model.CommentOrder) (*comment.Page, error) {
					gotOrder = order
					return &comment.Page{}, nil
				},
			})

			req := httptest.NewRequest(http.MethodGet, "/posts/5/comments?page=1&limit=10&filter="+tt.filter, nil)
			req = withChiURLParam(req, "id", "5")
			w := httptest.NewRecorder()

			h.List(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if gotOrder != tt.want {
				t.Errorf("order = %s, want %s", gotOrder, tt.want)
			}
		})
	}
}

func TestCommentHandler_List_InvalidFilter(t *testing.T) {
	called := false
	h := NewCommentHandler(&mockCommentService{
		listFn: func(ctx context.Context, postID int64, page, limit int, order model.CommentOrder) (*comment.Page, error) {
			called = true
			return &comment.Page{}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/posts/5/comments?page=1&limit=10&filter=random", nil)
	req = withChiURLParam(req, "id", "5")
	w := httptest.NewRecorder()

	h.List(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	resp := parseAPIErrorResponse(t, w)
	if resp["code"] != model.ErrCodeInvalidFilter {
		t.Errorf("code = %q, want %q", resp["code"], model.ErrCodeInvalidFilter)
	}
	if called {
		t.Error("無効なfilterでListが呼ばれている")
	}
}

// --- DELETE /posts/comments/{comment_id} テスト ---

func TestCommentHandler_Delete_Success(t *testing.T) {
	var deleted int64
	h := NewCommentHandler(&mockCommentService{
		deleteFn: func(ctx context.Context, userID, commentID int64) error {
			deleted = commentID
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/posts/comments/100", nil)
	req = withUserID(req, 42)
	req = withChiURLParam(req, "comment_id", "100")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if deleted != 100 {
		t.Errorf("deleted commentID = %d, want 100", deleted)
	}
}

func TestCommentHandler_Delete_NotOwner(t *testing.T) {
	h := NewCommentHandler(&mockCommentService{
		deleteFn: func(ctx context.Context, userID, commentID int64) error {
			return model.NewForbiddenError()
		},
	})

	req := httptest.NewRequest(http.MethodDelete, "/posts/comments/100", nil)
	req = withUserID(req, 42)
	req = withChiURLParam(req, "comment_id", "100")
	w := httptest.NewRecorder()

	h.Delete(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}
