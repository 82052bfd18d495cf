// Package auth はパスワード認証、アクセストークンの発行と検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"

	"github.com/hitoshi/jwtauth/internal/metrics"
	"github.com/hitoshi/jwtauth/internal/model"
	"github.com/hitoshi/jwtauth/internal/repository"
)

// クライアントに返す検証メッセージ
const (
	msgAllFieldsRequired     = "All fields are required"
	msgPasswordTooShort      = "Password must be at least 6 characters long"
	msgPasswordTooLong       = "Password must be at most 72 bytes long"
	msgUsernameLength        = "Username must be between 3 and 20 characters"
	msgInvalidEmail          = "Please provide a valid email address"
	msgEmailPasswordRequired = "Email and password are required"
)

// CredentialHasher はパスワードのハッシュ化と照合のインターフェース。
type CredentialHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// TokenIssuer はアクセストークン発行のインターフェース。
type TokenIssuer interface {
	Issue(identity Identity) (string, error)
}

// SignupInput はサインアップ要求の入力。
type SignupInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput はログイン要求の入力。
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult はサインアップ・ログイン成功時の結果。
type AuthResult struct {
	Token string
	User  model.PublicUser
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	hasher   CredentialHasher
	tokens   TokenIssuer
	metrics  metrics.MetricsCollector
	now      func() time.Time
}

// NewService はServiceを生成する。collectorがnilの場合はメトリクスを記録しない。
func NewService(
	userRepo repository.UserRepository,
	hasher CredentialHasher,
	tokens TokenIssuer,
	collector metrics.MetricsCollector,
) *Service {
	if collector == nil {
		collector = metrics.Nop{}
	}
	return &Service{
		userRepo: userRepo,
		hasher:   hasher,
		tokens:   tokens,
		metrics:  collector,
		now:      time.Now,
	}
}

// Signup は新規ユーザーを登録し、アクセストークンを発行する。
// 入力が不正な場合やusername/emailが既に使われている場合はDBに書き込まない。
func (s *Service) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)

	if err := validateSignup(in); err != nil {
		s.metrics.RecordSignup(metrics.OutcomeInvalid)
		return nil, err
	}

	existing, err := s.userRepo.FindByEmailOrUsername(ctx, in.Email, in.Username)
	if err != nil {
		s.metrics.RecordSignup(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		s.metrics.RecordSignup(metrics.OutcomeDuplicate)
		return nil, model.NewDuplicateUserError()
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		s.metrics.RecordSignup(metrics.OutcomeError)
		return nil, err
	}

	user := &model.User{
		ID:           uuid.New().String(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: digest,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// 事前チェックとINSERTの間に同じusername/emailが登録された場合
		if errors.Is(err, repository.ErrDuplicateKey) {
			s.metrics.RecordSignup(metrics.OutcomeDuplicate)
			return nil, model.NewDuplicateUserError()
		}
		s.metrics.RecordSignup(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	result, err := s.issue(user)
	if err != nil {
		s.metrics.RecordSignup(metrics.OutcomeError)
		return nil, err
	}

	slog.Info("user signed up",
		slog.String("user_id", user.ID),
		slog.String("username", user.Username),
	)
	s.metrics.RecordSignup(metrics.OutcomeSuccess)
	return result, nil
}

// Login はemailとパスワードを照合し、アクセストークンを発行する。
// email不明とパスワード不一致は同じエラーを返す。
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = normalizeEmail(in.Email)

	if err := validateLogin(in); err != nil {
		s.metrics.RecordLogin(metrics.OutcomeInvalid)
		return nil, err
	}

	user, err := s.userRepo.FindByEmail(ctx, in.Email)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !s.hasher.Verify(in.Password, user.PasswordHash) {
		s.metrics.RecordLogin(metrics.OutcomeInvalid)
		return nil, model.NewInvalidCredentialsError()
	}

	result, err := s.issue(user)
	if err != nil {
		s.metrics.RecordLogin(metrics.OutcomeError)
		return nil, err
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	s.metrics.RecordLogin(metrics.OutcomeSuccess)
	return result, nil
}

func (s *Service) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateSignup はサインアップ入力を順に検証し、最初の違反を返す。
func validateSignup(in SignupInput) error {
	checks := []struct {
		value string
		rules []validation.Rule
	}{
		{in.Username, []validation.Rule{validation.Required.Error(msgAllFieldsRequired)}},
		{in.Email, []validation.Rule{validation.Required.Error(msgAllFieldsRequired)}},
		{in.Password, []validation.Rule{validation.Required.Error(msgAllFieldsRequired)}},
		{in.Password, []validation.Rule{
			validation.RuneLength(6, 0).Error(msgPasswordTooShort),
			validation.Length(0, MaxPasswordBytes).Error(msgPasswordTooLong),
		}},
		{in.Username, []validation.Rule{validation.RuneLength(3, 20).Error(msgUsernameLength)}},
		{in.Email, []validation.Rule{is.Email.Error(msgInvalidEmail)}},
	}

	for _, c := range checks {
		if err := validation.Validate(c.value, c.rules...); err != nil {
			return model.NewValidationError(err.Error())
		}
	}
	return nil
}

func validateLogin(in LoginInput) error {
	required := validation.Required.Error(msgEmailPasswordRequired)
	if err := validation.Validate(in.Email, required); err != nil {
		return model.NewValidationError(err.Error())
	}
	if err := validation.Validate(in.Password, required); err != nil {
		return model.NewValidationError(err.Error())
	}
	return nil
}
