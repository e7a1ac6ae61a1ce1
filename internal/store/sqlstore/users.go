package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/store"
	"papeleria/backend/internal/xid"
)

const userColumns = `id, name, email, password_hash, role, created_at`

func (s *Store) CreateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Name == "" || user.Email == "" || user.PasswordHash == "" {
		return nil, store.ErrInvalid
	}
	if user.ID == "" {
		user.ID = xid.New("usr")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = nowUTC()
	}

	_, err := exec(ctx, s.db, `
		INSERT INTO users (id, name, email, password_hash, role, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already registered", store.ErrConflict)
		}
		return nil, err
	}
	saved := user
	return &saved, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := get(ctx, s.db, &user, `SELECT `+userColumns+` FROM users WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	email = strings.ToLower(strings.TrimSpace(email))
	if err := get(ctx, s.db, &user, `SELECT `+userColumns+` FROM users WHERE email = ?`, email); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	users := make([]domain.User, 0, 16)
	if err := selectAll(ctx, s.db, &users, `SELECT `+userColumns+` FROM users ORDER BY name ASC`); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUser(ctx context.Context, user domain.User) (*domain.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	affected, err := exec(ctx, s.db, `
		UPDATE users SET name = ?, email = ?, role = ?
		WHERE id = ?
	`, user.Name, user.Email, user.Role, user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email already registered", store.ErrConflict)
		}
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetUserByID(ctx, user.ID)
}

func (s *Store) UpdateUserPassword(ctx context.Context, id string, passwordHash string) error {
	affected, err := exec(ctx, s.db, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		n, err := count(ctx, tx, `SELECT COUNT(*) FROM users WHERE id = ?`, id)
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}

		references := []struct {
			query string
			what  string
		}{
			{`SELECT COUNT(*) FROM sales WHERE user_id = ?`, "sales"},
			{`SELECT COUNT(*) FROM client_orders WHERE user_id = ?`, "client orders"},
			{`SELECT COUNT(*) FROM payments WHERE user_id = ?`, "payments"},
		}
		for _, ref := range references {
			n, err := count(ctx, tx, ref.query, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: user has registered %s", store.ErrConflict, ref.what)
			}
		}

		_, err = exec(ctx, tx, `DELETE FROM users WHERE id = ?`, id)
		return err
	})
}
