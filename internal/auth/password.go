package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost はbcryptのコストファクター。
const PasswordCost = 10

// MaxPasswordBytes はbcryptが扱える入力長の上限。
const MaxPasswordBytes = 72

// PasswordHasher はbcryptによるパスワードハッシュ化と照合を行う。
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher は固定コストのPasswordHasherを生成する。
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: PasswordCost}
}

// Hash は平文パスワードをソルト付きbcryptダイジェストに変換する。
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify は平文がダイジェストと一致するかを返す。
// 不一致や不正なダイジェストはすべてfalseとして扱う。
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
