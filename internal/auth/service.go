package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/epyson/internal/model"
	"github.com/hitoshi/epyson/internal/repository"
)

// Mailer は確認メール送信のインターフェース。
type Mailer interface {
	// SendConfirmation はメールアドレス確認用のメールを送信する。
	SendConfirmation(ctx context.Context, email, name, token string) error
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	VerificationTokenTTL time.Duration // 確認トークンの有効期間
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	tm     *TokenManager
	mailer Mailer
	config ServiceConfig
}

// NewService はServiceを生成する。mailerはnil可（メール送信なし）。
func NewService(
	users repository.UserRepository,
	tokens repository.TokenRepository,
	tm *TokenManager,
	mailer Mailer,
	config ServiceConfig,
) *Service {
	return &Service{
		users:  users,
		tokens: tokens,
		tm:     tm,
		mailer: mailer,
		config: config,
	}
}

// Signup は未確認ユーザーを作成し、確認トークンを発行してメールを送る。
// メール送信の失敗はサインアップ自体を失敗させない（トークンは有効なまま残り、
// 確認されなければクリーンアップワーカーが回収する）。
func (s *Service) Signup(ctx context.Context, name, email, password string) (*model.User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:      name,
		Email:     email,
		Password:  hash,
		Confirmed: false,
		CreatedAt: time.Now().Unix(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	token := &model.EmailVerificationToken{
		UserID:    user.ID,
		Token:     uuid.New().String(),
		CreatedAt: time.Now().Unix(),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to create verification token: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendConfirmation(ctx, user.Email, user.Name, token.Token); err != nil {
			slog.Warn("failed to send confirmation mail",
				slog.Int64("user_id", user.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	slog.Info("user signed up", slog.Int64("user_id", user.ID))
	return user, nil
}

// Login はパスワードを検証し、トークンペアを発行する。
// メールアドレス・パスワードのどちらが誤っているかは明かさない。
// 未確認・ブロック済みユーザーも同じエラーで拒否する。
func (s *Service) Login(ctx context.Context, email, password string) (*model.User, *TokenPair, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil || !CheckPassword(user.Password, password) {
		return nil, nil, model.NewInvalidCredentialsError()
	}
	if !user.Confirmed || user.Blocked {
		return nil, nil, model.NewInvalidCredentialsError()
	}

	pair, err := s.tm.IssuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user logged in", slog.Int64("user_id", user.ID))
	return user, pair, nil
}

// Confirm は確認トークンを消費してユーザーを確認済みにし、トークンペアを発行する。
// 期限切れ・未知のトークンは無効として拒否する。
func (s *Service) Confirm(ctx context.Context, tokenString string) (*model.User, *TokenPair, error) {
	token, err := s.tokens.FindByToken(ctx, tokenString)
	if err != nil {
		return nil, nil, err
	}
	if token == nil {
		return nil, nil, model.NewInvalidTokenError()
	}
	if time.Now().Unix()-token.CreatedAt > int64(s.config.VerificationTokenTTL/time.Second) {
		return nil, nil, model.NewInvalidTokenError()
	}

	if err := s.users.Confirm(ctx, token.UserID); err != nil {
		return nil, nil, err
	}
	if err := s.tokens.DeleteByUserID(ctx, token.UserID); err != nil {
		return nil, nil, err
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, model.NewUserNotFoundError()
	}

	pair, err := s.tm.IssuePair(user.ID)
	if err != nil {
		return nil, nil, err
	}

	slog.Info("user confirmed", slog.Int64("user_id", user.ID))
	return user, pair, nil
}

// Refresh はリフレッシュトークンを検証し、新しいアクセストークンを発行する。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.tm.VerifyRefresh(refreshToken)
	if err != nil {
		return "", err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "", err
	}
	if user == nil || user.Blocked {
		return "", model.NewInvalidTokenError()
	}

	return s.tm.IssueAccess(userID)
}
