package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/lib/pq"

	"userlist/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates the users table when it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) domain.UserRepository {
	return &userRepository{DB: db}
}

// List returns one page of users in insertion order.
func (r *userRepository) List(ctx context.Context, page domain.PageRequest) ([]domain.User, error) {
	if err := page.Validate(); err != nil {
		return nil, err
	}
	query := `
		SELECT id, first_name, last_name, email, child_first_name, child_last_name, child_email
		FROM users
		ORDER BY seq
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.QueryContext(ctx, query, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email,
			&u.Children.FirstName, &u.Children.LastName, &u.Children.Email); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// BulkInsert loads users with a single COPY inside a transaction.
func (r *userRepository) BulkInsert(ctx context.Context, users []domain.User) (int, error) {
	if len(users) == 0 {
		return 0, domain.ErrEmptyUserList
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("users",
		"id", "first_name", "last_name", "email", "child_first_name", "child_last_name", "child_email"))
	if err != nil {
		return 0, fmt.Errorf("prepare copy: %w", err)
	}
	for _, u := range users {
		if _, err := stmt.ExecContext(ctx, u.ID, u.FirstName, u.LastName, u.Email,
			u.Children.FirstName, u.Children.LastName, u.Children.Email); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("copy user %s: %w", u.ID, err)
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return 0, fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, fmt.Errorf("close copy: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(users), nil
}
