package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/hitoshi/jwtauth/internal/model"
)

// SQLUserRepo はdatabase/sqlを使用したユーザーリポジトリ。
// クエリはPostgreSQLとSQLiteで共通で、一意制約違反の判定のみドライバごとに切り替える。
type SQLUserRepo struct {
	db                *sql.DB
	isUniqueViolation func(error) bool
}

// NewPostgresUserRepo はPostgreSQL（lib/pq）向けのSQLUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *SQLUserRepo {
	return &SQLUserRepo{db: db, isUniqueViolation: isPostgresUniqueViolation}
}

// NewSQLiteUserRepo はSQLite（modernc.org/sqlite）向けのSQLUserRepoを生成する。
func NewSQLiteUserRepo(db *sql.DB) *SQLUserRepo {
	return &SQLUserRepo{db: db, isUniqueViolation: isSQLiteUniqueViolation}
}

// FindByEmailOrUsername はemailまたはusernameが一致するユーザーを取得する。
// 見つからない場合はnilを返す。
func (r *SQLUserRepo) FindByEmailOrUsername(ctx context.Context, email, username string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, created_at FROM users
		 WHERE email = $1 OR username = $2
		 LIMIT 1`,
		email, username,
	).Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email or username: %w", err)
	}

	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *SQLUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, created_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Username, &user.Email, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindByEmail はemailが一致するユーザーを取得する。見つからない場合はnilを返す。
func (r *SQLUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}

// Create はユーザーを作成する。
// usernameまたはemailが既に存在する場合はErrDuplicateKeyを返す。
func (r *SQLUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.CreatedAt,
	)
	if err != nil {
		if r.isUniqueViolation(err) {
			return fmt.Errorf("failed to insert user: %w", ErrDuplicateKey)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func isPostgresUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505"
}

func isSQLiteUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// compile-time interface check
var _ UserRepository = (*SQLUserRepo)(nil)
