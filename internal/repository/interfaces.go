// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/jwtauth/internal/model"
)

// ErrDuplicateKey はusernameまたはemailの一意制約違反を表す。
var ErrDuplicateKey = errors.New("duplicate key")

// UserRepository はユーザーデータの永続化インターフェース。
// 見つからない場合はいずれもnil, nilを返す。
type UserRepository interface {
	// FindByEmailOrUsername はemailまたはusernameが一致するユーザーを取得する。
	FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。PasswordHashは読み込まない。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はemailが一致するユーザーをPasswordHash込みで取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。一意制約違反の場合はErrDuplicateKeyを返す。
	Create(ctx context.Context, user *model.User) error
}
