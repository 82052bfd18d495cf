package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL はアクセストークンの有効期間。
const DefaultTokenTTL = 24 * time.Hour

// ErrInvalidToken は署名不正・形式不正・期限切れなど、検証に失敗したトークンを表す。
var ErrInvalidToken = errors.New("invalid token")

// Identity はトークンに埋め込むユーザー識別情報。
type Identity struct {
	UserID   string
	Username string
	Email    string
}

// Claims はアクセストークンのペイロード。
// subにはUserIDと同じ値を設定する。
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Identity はクレームからIdentityを取り出す。
func (c *Claims) Identity() Identity {
	return Identity{
		UserID:   c.UserID,
		Username: c.Username,
		Email:    c.Email,
	}
}

// TokenCodec はHS256署名付きアクセストークンの発行と検証を行う。
// 署名鍵は生成時に1回だけ受け取り、実行中に変更しない。
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec はTokenCodecを生成する。
func NewTokenCodec(secret []byte, ttl time.Duration) *TokenCodec {
	return &TokenCodec{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue はIdentityを埋め込んだトークンを発行する。
// iatは現在時刻、expはiat+TTLとなる。
func (c *TokenCodec) Issue(identity Identity) (string, error) {
	now := c.now()
	claims := Claims{
		UserID:   identity.UserID,
		Username: identity.Username,
		Email:    identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify はトークンの署名と有効期限を検証し、クレームを返す。
// HS256以外のアルゴリズムやexpを持たないトークンは拒否する。猶予時間は設けない。
func (c *TokenCodec) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
