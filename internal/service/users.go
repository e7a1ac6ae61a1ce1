package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/store"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

var commonPasswords = map[string]struct{}{
	"123456": {}, "1234567": {}, "12345678": {}, "123456789": {}, "password": {},
	"qwerty": {}, "abc123": {}, "111111": {}, "123123": {}, "contraseña": {},
	"admin123": {}, "papeleria": {}, "000000": {}, "654321": {},
}

// Authenticate checks credentials and returns the matching actor. Legacy
// SHA-256 hashes are replaced with bcrypt on the first successful login.
func (s *Service) Authenticate(ctx context.Context, email string, password string) (domain.Actor, error) {
	if err := s.check(domain.LoginRequest{Email: strings.TrimSpace(email), Password: password}); err != nil {
		return domain.Actor{}, ErrInvalidCredentials
	}
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Actor{}, ErrInvalidCredentials
		}
		return domain.Actor{}, err
	}

	switch {
	case isPasswordHash(user.PasswordHash):
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
			return domain.Actor{}, ErrInvalidCredentials
		}
	case isLegacyHash(user.PasswordHash):
		sum := sha256.Sum256([]byte(password))
		if subtle.ConstantTimeCompare([]byte(hex.EncodeToString(sum[:])), []byte(strings.ToLower(user.PasswordHash))) != 1 {
			return domain.Actor{}, ErrInvalidCredentials
		}
		if hashed, err := hashPassword(password); err == nil {
			if err := s.repo.UpdateUserPassword(ctx, user.ID, hashed); err != nil {
				log.Warn().Err(err).Str("user_id", user.ID).Msg("failed to upgrade legacy password hash")
			}
		}
	default:
		return domain.Actor{}, ErrInvalidCredentials
	}

	return domain.Actor{UserID: user.ID, Name: user.Name, Role: user.Role}, nil
}

func (s *Service) Me(ctx context.Context) (*domain.User, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, actor.UserID)
}

func (s *Service) ListUsers(ctx context.Context) ([]domain.User, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.repo.ListUsers(ctx)
}

func (s *Service) CreateUser(ctx context.Context, req domain.UserCreateRequest) (*domain.User, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	req.Name = clean(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == "" {
		req.Role = domain.RoleCashier
	}
	if err := s.check(req); err != nil {
		return nil, err
	}
	if err := checkPasswordPolicy(req.Password); err != nil {
		return nil, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.CreateUser(ctx, domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         req.Role,
	})
	if err != nil {
		return nil, err
	}

	s.logAudit(ctx, "user_create", "user", created.ID, fmt.Sprintf("email=%s,role=%s", created.Email, created.Role))
	return created, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, req domain.UserUpdateRequest) (*domain.User, error) {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.check(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *existing
	if req.Name != nil {
		updated.Name = clean(*req.Name)
		if len([]rune(updated.Name)) < 2 {
			return nil, fmt.Errorf("%w: name must be min 2", store.ErrInvalid)
		}
	}
	if req.Email != nil {
		updated.Email = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		updated.Role = *req.Role
	}

	if existing.Role == domain.RoleAdmin && updated.Role != domain.RoleAdmin {
		if existing.ID == actor.UserID {
			return nil, fmt.Errorf("%w: you cannot remove your own admin role", store.ErrConflict)
		}
		if err := s.ensureAnotherAdmin(ctx, existing.ID); err != nil {
			return nil, err
		}
	}

	saved, err := s.repo.UpdateUser(ctx, updated)
	if err != nil {
		return nil, err
	}
	s.logAudit(ctx, "user_update", "user", saved.ID, fmt.Sprintf("email=%s,role=%s", saved.Email, saved.Role))
	return saved, nil
}

// ChangePassword is allowed to admins and to the user changing their own password.
func (s *Service) ChangePassword(ctx context.Context, id string, req domain.PasswordChangeRequest) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}
	if actor.Role != domain.RoleAdmin && actor.UserID != id {
		return fmt.Errorf("%w: cannot change another user's password", ErrForbidden)
	}
	if err := s.check(req); err != nil {
		return err
	}
	if err := checkPasswordPolicy(req.Password); err != nil {
		return err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return err
	}
	if err := s.repo.UpdateUserPassword(ctx, id, hashed); err != nil {
		return err
	}
	s.logAudit(ctx, "user_password_change", "user", id, "")
	return nil
}

func (s *Service) DeleteUser(ctx context.Context, id string) error {
	actor, err := requireAdmin(ctx)
	if err != nil {
		return err
	}
	if id == actor.UserID {
		return fmt.Errorf("%w: you cannot delete your own account", store.ErrConflict)
	}
	existing, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Role == domain.RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, id); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logAudit(ctx, "user_delete", "user", id, existing.Email)
	return nil
}

// EnsureAdmin creates the first admin account when the user table is empty.
// It reports whether an account was created.
func (s *Service) EnsureAdmin(ctx context.Context, name string, email string, password string) (bool, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return false, err
	}
	if len(users) > 0 {
		return false, nil
	}
	req := domain.UserCreateRequest{
		Name:     clean(name),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: password,
		Role:     domain.RoleAdmin,
	}
	if err := s.check(req); err != nil {
		return false, err
	}
	if err := checkPasswordPolicy(req.Password); err != nil {
		return false, err
	}
	hashed, err := hashPassword(req.Password)
	if err != nil {
		return false, err
	}
	created, err := s.repo.CreateUser(ctx, domain.User{Name: req.Name, Email: req.Email, PasswordHash: hashed, Role: domain.RoleAdmin})
	if err != nil {
		return false, err
	}
	s.logAudit(ctx, "user_bootstrap", "user", created.ID, created.Email)
	return true, nil
}

func (s *Service) ensureAnotherAdmin(ctx context.Context, exceptID string) error {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return err
	}
	for _, u := range users {
		if u.ID != exceptID && u.Role == domain.RoleAdmin {
			return nil
		}
	}
	return fmt.Errorf("%w: at least one admin must remain", store.ErrConflict)
}

func checkPasswordPolicy(password string) error {
	if utf8.RuneCountInString(password) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", store.ErrInvalid)
	}
	first, _ := utf8.DecodeRuneInString(password)
	if strings.Count(password, string(first)) == utf8.RuneCountInString(password) {
		return fmt.Errorf("%w: password cannot repeat a single character", store.ErrInvalid)
	}
	if _, common := commonPasswords[strings.ToLower(password)]; common {
		return fmt.Errorf("%w: password is too common", store.ErrInvalid)
	}
	return nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}

func isLegacyHash(value string) bool {
	if len(value) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(value)
	return err == nil
}
