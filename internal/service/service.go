package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/kennygrant/sanitize"
	"github.com/rs/zerolog/log"

	"papeleria/backend/internal/cache"
	"papeleria/backend/internal/domain"
	"papeleria/backend/internal/store"
)

var ErrForbidden = errors.New("forbidden")

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo       store.Repository
	catalog    cache.CatalogCache
	catalogTTL time.Duration
	validate   *validator.Validate
	now        func() time.Time
}

func New(repo store.Repository, catalog cache.CatalogCache, catalogTTL time.Duration) *Service {
	if catalog == nil {
		catalog = cache.NoopCatalogCache{}
	}
	if catalogTTL <= 0 {
		catalogTTL = 30 * time.Second
	}

	return &Service{
		repo:       repo,
		catalog:    catalog,
		catalogTTL: catalogTTL,
		validate:   newValidator(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return countDigits(fl.Field().String()) >= 10
	})
	return v
}

// check runs struct validation and turns the first failure into ErrInvalid.
func (s *Service) check(req any) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("%w: %v", store.ErrInvalid, err)
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%w: %s is required", store.ErrInvalid, fe.Field())
	case "email":
		return fmt.Errorf("%w: %s is not a valid email", store.ErrInvalid, fe.Field())
	case "phone":
		return fmt.Errorf("%w: %s must contain at least 10 digits", store.ErrInvalid, fe.Field())
	case "min", "max", "gt", "gte":
		return fmt.Errorf("%w: %s must be %s %s", store.ErrInvalid, fe.Field(), fe.Tag(), fe.Param())
	case "oneof":
		return fmt.Errorf("%w: %s must be one of %s", store.ErrInvalid, fe.Field(), fe.Param())
	default:
		return fmt.Errorf("%w: %s is invalid", store.ErrInvalid, fe.Field())
	}
}

func requireActor(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.UserID == "" {
		return domain.Actor{}, fmt.Errorf("%w: authentication required", ErrForbidden)
	}
	return actor, nil
}

func requireAdmin(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Actor{}, fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	return actor, nil
}

func (s *Service) logAudit(ctx context.Context, action string, entity string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{UserID: "system", Role: "system"}
	}

	if err := s.repo.CreateAuditLog(ctx, domain.AuditLog{
		ActorID:   actor.UserID,
		ActorRole: actor.Role,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Detail:    truncate(detail, 1000),
		CreatedAt: s.now().Truncate(time.Second),
	}); err != nil {
		log.Warn().Err(err).Str("action", action).Str("entity", entity).Str("entity_id", entityID).Msg("failed to write audit log")
	}
}

func (s *Service) invalidateCatalog(ctx context.Context) {
	if err := s.catalog.Delete(ctx, cache.SellableKey); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate catalog cache")
	}
}

// clean trims input and drops any markup.
func clean(value string) string {
	return strings.TrimSpace(sanitize.HTML(value))
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}

func countDigits(value string) int {
	n := 0
	for _, r := range value {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}

func optionalID(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", store.ErrInvalid, err)
}
