// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/hitoshi/jwtauth/internal/model"
	"github.com/hitoshi/jwtauth/internal/repository"
)

// AccountStatusActive はダッシュボードに表示するアカウント状態。
const AccountStatusActive = "Active"

// defaultNotifications はダッシュボードに表示する固定のお知らせ。
var defaultNotifications = []string{
	"Welcome to your dashboard!",
	"Your account is verified",
	"New features available",
}

// DashboardData はダッシュボード表示用のデータ。
// 実際の集計値ではなく、表示確認用の値を返す。
type DashboardData struct {
	TotalLogins   int       `json:"totalLogins"`
	LastLogin     time.Time `json:"lastLogin"`
	AccountStatus string    `json:"accountStatus"`
	Notifications []string  `json:"notifications"`
}

// Dashboard はダッシュボードの表示内容。
type Dashboard struct {
	User model.PublicUser
	Data DashboardData
}

// Service はユーザー管理のサービス層。
type Service struct {
	userRepo repository.UserRepository
	now      func() time.Time
	intN     func(n int) int
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository) *Service {
	return &Service{
		userRepo: userRepo,
		now:      time.Now,
		intN:     rand.IntN,
	}
}

// Dashboard はトークンのユーザーIDでユーザーを再取得し、ダッシュボード表示内容を返す。
// トークン発行後にユーザーが存在しなくなった場合はUSER_NOT_FOUNDを返す。
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	notifications := make([]string, len(defaultNotifications))
	copy(notifications, defaultNotifications)

	return &Dashboard{
		User: user.Profile(),
		Data: DashboardData{
			TotalLogins:   s.intN(100),
			LastLogin:     s.now().UTC(),
			AccountStatus: AccountStatusActive,
			Notifications: notifications,
		},
	}, nil
}
