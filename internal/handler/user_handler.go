package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/jwtauth/internal/middleware"
	"github.com/hitoshi/jwtauth/internal/model"
	"github.com/hitoshi/jwtauth/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Dashboard はユーザーを再取得し、ダッシュボード表示内容を返す。
	Dashboard(ctx context.Context, userID string) (*user.Dashboard, error)
}

// dashboardResponse はダッシュボードのレスポンス。
type dashboardResponse struct {
	Success       bool               `json:"success"`
	Message       string             `json:"message"`
	User          model.PublicUser   `json:"user"`
	DashboardData user.DashboardData `json:"dashboardData"`
}

// UserHandler はユーザー関連のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// Dashboard は認証済みユーザーのダッシュボードを返す。
// GET /api/dashboard
func (h *UserHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	d, err := h.service.Dashboard(r.Context(), claims.UserID)
	if err != nil {
		handleServiceError(w, err, "Server error accessing dashboard")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, dashboardResponse{
		Success:       true,
		Message:       "Welcome to your dashboard!",
		User:          d.User,
		DashboardData: d.Data,
	})
}
