package user

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/epyson/internal/model"
	"github.com/hitoshi/epyson/internal/repository"
)

// --- モック ---

type mockUserRepo struct {
	repository.UserRepository
	findByIDFunc      func(ctx context.Context, id int64) (*model.User, error)
	updateProfileFunc func(ctx context.Context, id int64, name, description string) error
	searchFunc        func(ctx context.Context, query string, skip, limit int) ([]model.UserSearchResult, error)
	countSearchFunc   func(ctx context.Context, query string) (int, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return m.findByIDFunc(ctx, id)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id int64, name, description string) error {
	return m.updateProfileFunc(ctx, id, name, description)
}

func (m *mockUserRepo) Search(ctx context.Context, query string, skip, limit int) ([]model.UserSearchResult, error) {
	return m.searchFunc(ctx, query, skip, limit)
}

func (m *mockUserRepo) CountSearch(ctx context.Context, query string) (int, error) {
	return m.countSearchFunc(ctx, query)
}

func testUser() *model.User {
	return &model.User{
		ID:          7,
		Name:        "gopher",
		Email:       "gopher@example.com",
		Avatar:      "https://example.com/a.png",
		Cover:       "https://example.com/c.png",
		Description: "hello",
		Confirmed:   true,
		CreatedAt:   1700000000,
	}
}

func TestProfile_IncludesEmail(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id int64) (*model.User, error) {
			if id != 7 {
				t.Errorf("id = %d, want 7", id)
			}
			return testUser(), nil
		},
	}
	svc := NewService(repo)

	p, err := svc.Profile(context.Background(), 7)
	if err != nil {
		t.Fatalf("Profile() error = %v", err)
	}
	if p.Email != "gopher@example.com" {
		t.Errorf("Email = %q, want gopher@example.com", p.Email)
	}
	if p.Name != "gopher" {
		t.Errorf("Name = %q, want gopher", p.Name)
	}
}

func TestPublicProfile_OmitsEmail(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id int64) (*model.User, error) {
			return testUser(), nil
		},
	}
	svc := NewService(repo)

	p, err := svc.PublicProfile(context.Background(), 7)
	if err != nil {
		t.Fatalf("PublicProfile() error = %v", err)
	}
	if p.Email != "" {
		t.Errorf("Email = %q, want empty", p.Email)
	}
	if p.ID != 7 {
		t.Errorf("ID = %d, want 7", p.ID)
	}
}

func TestProfile_NotFound(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFunc: func(ctx context.Context, id int64) (*model.User, error) {
			return nil, nil
		},
	}
	svc := NewService(repo)

	_, err := svc.Profile(context.Background(), 99)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Profile() error = %v, want APIError", err)
	}
	if apiErr.Code != model.ErrCodeUserNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeUserNotFound)
	}
}

func TestUpdateProfile_ReturnsUpdated(t *testing.T) {
	updated := false
	repo := &mockUserRepo{
		updateProfileFunc: func(ctx context.Context, id int64, name, description string) error {
			if name != "new-name" || description != "new-desc" {
				t.Errorf("UpdateProfile(%q, %q), want new-name/new-desc", name, description)
			}
			updated = true
			return nil
		},
		findByIDFunc: func(ctx context.Context, id int64) (*model.User, error) {
			u := testUser()
			u.Name = "new-name"
			u.Description = "new-desc"
			return u, nil
		},
	}
	svc := NewService(repo)

	p, err := svc.UpdateProfile(context.Background(), 7, "new-name", "new-desc")
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if !updated {
		t.Error("リポジトリの更新が呼ばれていない")
	}
	if p.Name != "new-name" {
		t.Errorf("Name = %q, want new-name", p.Name)
	}
}

func TestSearch_Pagination(t *testing.T) {
	repo := &mockUserRepo{
		countSearchFunc: func(ctx context.Context, query string) (int, error) {
			return 25, nil
		},
		searchFunc: func(ctx context.Context, query string, skip, limit int) ([]model.UserSearchResult, error) {
			if query != "go" {
				t.Errorf("query = %q, want go", query)
			}
			if skip != 10 || limit != 10 {
				t.Errorf("skip/limit = %d/%d, want 10/10", skip, limit)
			}
			return []model.UserSearchResult{{ID: 1, Name: "gopher", Subscribers: 3}}, nil
		},
	}
	svc := NewService(repo)

	page, err := svc.Search(context.Background(), "go", 2, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(page.Data) != 1 {
		t.Fatalf("len(Data) = %d, want 1", len(page.Data))
	}
	if page.NextPage == nil || *page.NextPage != 3 {
		t.Errorf("NextPage = %v, want 3", page.NextPage)
	}
}

func TestSearch_LastPage(t *testing.T) {
	repo := &mockUserRepo{
		countSearchFunc: func(ctx context.Context, query string) (int, error) {
			return 5, nil
		},
		searchFunc: func(ctx context.Context, query string, skip, limit int) ([]model.UserSearchResult, error) {
			return []model.UserSearchResult{}, nil
		},
	}
	svc := NewService(repo)

	page, err := svc.Search(context.Background(), "go", 1, 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if page.NextPage != nil {
		t.Errorf("NextPage = %v, want nil", *page.NextPage)
	}
}

func TestSearch_InvalidPagination(t *testing.T) {
	svc := NewService(&mockUserRepo{})

	_, err := svc.Search(context.Background(), "go", 0, 10)
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Search() error = %v, want APIError", err)
	}
	if apiErr.Code != model.ErrCodeInvalidPagination {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidPagination)
	}
}
