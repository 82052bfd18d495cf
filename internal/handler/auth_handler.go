// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/jwtauth/internal/auth"
	"github.com/hitoshi/jwtauth/internal/middleware"
	"github.com/hitoshi/jwtauth/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Signup(ctx context.Context, in auth.SignupInput) (*auth.AuthResult, error)
	Login(ctx context.Context, in auth.LoginInput) (*auth.AuthResult, error)
}

// authResponse はサインアップ・ログイン成功時のレスポンス。
type authResponse struct {
	Success bool             `json:"success"`
	Message string           `json:"message"`
	Token   string           `json:"token"`
	User    model.PublicUser `json:"user"`
}

// verifyTokenResponse はトークン検証成功時のレスポンス。userにはクレームをそのまま返す。
type verifyTokenResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *auth.Claims `json:"user"`
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// Signup は新規ユーザーを登録し、トークンを返す。
// POST /api/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var in auth.SignupInput
	if err := decodeJSONBody(w, r, &in); err != nil {
		handleServiceError(w, err, "Server error during signup")
		return
	}

	result, err := h.service.Signup(r.Context(), in)
	if err != nil {
		handleServiceError(w, err, "Server error during signup")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, authResponse{
		Success: true,
		Message: "User created successfully",
		Token:   result.Token,
		User:    result.User,
	})
}

// Login は認証情報を照合し、トークンを返す。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in auth.LoginInput
	if err := decodeJSONBody(w, r, &in); err != nil {
		handleServiceError(w, err, "Server error during login")
		return
	}

	result, err := h.service.Login(r.Context(), in)
	if err != nil {
		handleServiceError(w, err, "Server error during login")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, authResponse{
		Success: true,
		Message: "Login successful",
		Token:   result.Token,
		User:    result.User,
	})
}

// VerifyToken は認証ミドルウェアを通過したトークンのクレームを返す。
// GET /api/verify-token
func (h *AuthHandler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	claims, err := middleware.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	middleware.WriteJSON(w, http.StatusOK, verifyTokenResponse{
		Success: true,
		Message: "Token is valid",
		User:    claims,
	})
}

// Logout はログアウト応答を返す。
// トークンはクライアント側で破棄する。サーバー側では失効させない。
// POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Logged out successfully",
	})
}
