package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ludoteca/catalog-api/internal/config"
	"github.com/ludoteca/catalog-api/internal/domain"
	"github.com/ludoteca/catalog-api/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const userScope = "users"

type UserService struct {
	repo   repository.UserRepository
	cache  repository.Cache
	ledger repository.IdempotencyLedger
	cfg    *config.Config
	logger *zap.Logger
}

func NewUserService(
	repo repository.UserRepository,
	cache repository.Cache,
	ledger repository.IdempotencyLedger,
	cfg *config.Config,
	logger *zap.Logger,
) *UserService {
	return &UserService{repo: repo, cache: cache, ledger: ledger, cfg: cfg, logger: logger}
}

type UserDTO struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	Created   bool      `json:"created,omitempty"`
}

type CreateUserInput struct {
	Name     string
	Email    string
	Password string
}

type UpdateUserInput struct {
	Name  string
	Email string
}

func userDTO(u *domain.User) UserDTO {
	return UserDTO{ID: u.ID, Name: u.Name, Email: u.Email, CreatedAt: u.CreatedAt}
}

func userListKey(req domain.PageRequest) string {
	if req.CreatedAt != nil {
		return fmt.Sprintf("users:createdAt:%s:limit:%d", req.CreatedAt.UTC().Format(time.RFC3339Nano), req.Limit)
	}
	return fmt.Sprintf("users:page:%d:limit:%d", req.Page, req.Limit)
}

func userIDKey(id uint) string   { return fmt.Sprintf("users:id:%d", id) }
func userETagKey(id uint) string { return userIDKey(id) + ":etag" }

// List serves a pagination envelope cache-aside: the exact pagination
// parameters form the cache key, and a miss fetches limit+1 rows to derive
// hasNextPage before populating the cache.
func (s *UserService) List(ctx context.Context, req domain.PageRequest) (domain.Page[UserDTO], error) {
	req = req.Normalize()
	key := userListKey(req)

	if body, ok, err := s.cache.Get(ctx, key); err != nil {
		return domain.Page[UserDTO]{}, s.fail("user list cache read", err)
	} else if ok {
		var page domain.Page[UserDTO]
		if err := json.Unmarshal(body, &page); err == nil {
			return page, nil
		}
		// Corrupt entry: fall through and recompute.
	}

	users, err := s.repo.List(ctx, req)
	if err != nil {
		return domain.Page[UserDTO]{}, err
	}

	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = userDTO(u)
	}
	page := domain.NewPage(dtos, req)

	body, err := json.Marshal(page)
	if err != nil {
		return domain.Page[UserDTO]{}, s.fail("user list marshal", err)
	}
	if err := s.cache.Set(ctx, key, body, s.cfg.CacheTTL); err != nil {
		return domain.Page[UserDTO]{}, s.fail("user list cache write", err)
	}

	return page, nil
}

// GetByID resolves a user cache-aside and refreshes the stored ETag. When
// conditionalTag matches the current tag the caller gets notModified=true
// and maps it to an empty 304.
func (s *UserService) GetByID(ctx context.Context, id uint, conditionalTag string) (*UserDTO, string, bool, error) {
	if conditionalTag != "" {
		stored, ok, err := s.cache.Get(ctx, userETagKey(id))
		if err != nil {
			return nil, "", false, s.fail("user etag read", err)
		}
		if ok && string(stored) == conditionalTag {
			return nil, conditionalTag, true, nil
		}
	}

	body, ok, err := s.cache.Get(ctx, userIDKey(id))
	if err != nil {
		return nil, "", false, s.fail("user cache read", err)
	}
	if !ok {
		user, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, "", false, err
		}
		dto := userDTO(user)
		body, err = json.Marshal(dto)
		if err != nil {
			return nil, "", false, s.fail("user marshal", err)
		}
		if err := s.cache.Set(ctx, userIDKey(id), body, s.cfg.CacheTTL); err != nil {
			return nil, "", false, s.fail("user cache write", err)
		}
	}

	tag := etagFor(body)
	if err := s.cache.Set(ctx, userETagKey(id), []byte(tag), s.cfg.CacheTTL); err != nil {
		return nil, "", false, s.fail("user etag write", err)
	}

	var dto UserDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, "", false, s.fail("user unmarshal", err)
	}
	return &dto, tag, false, nil
}

// Create inserts a new user, honoring the idempotency key when supplied: a
// key already bound in the ledger replays the original resource without the
// created flag. Duplicate emails surface as a conflict and never touch the
// ledger.
func (s *UserService) Create(ctx context.Context, input CreateUserInput, idempotencyKey string) (*UserDTO, error) {
	if idempotencyKey != "" {
		if dto, err := s.replay(ctx, idempotencyKey); err != nil {
			return nil, err
		} else if dto != nil {
			return dto, nil
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, s.fail("password hash", err)
	}

	user := &domain.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		id := strconv.FormatUint(uint64(user.ID), 10)
		if err := s.ledger.Bind(ctx, userScope, idempotencyKey, id, s.cfg.IdempotencyTTL); err != nil {
			// The user exists; a lost binding only widens the replay window.
			s.logger.Warn("idempotency bind failed",
				zap.String("scope", userScope), zap.Uint("id", user.ID), zap.Error(err))
		}
	}

	dto := userDTO(user)
	dto.Created = true
	return &dto, nil
}

func (s *UserService) replay(ctx context.Context, idempotencyKey string) (*UserDTO, error) {
	idStr, ok, err := s.ledger.Resolve(ctx, userScope, idempotencyKey)
	if err != nil {
		return nil, s.fail("idempotency resolve", err)
	}
	if !ok {
		return nil, nil
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return nil, s.fail("idempotency id parse", err)
	}

	user, err := s.repo.GetByID(ctx, uint(id))
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			// The bound resource is gone; drop the stale binding and insert.
			if err := s.ledger.Unbind(ctx, userScope, idStr); err != nil {
				return nil, s.fail("idempotency unbind", err)
			}
			return nil, nil
		}
		return nil, err
	}

	dto := userDTO(user)
	return &dto, nil
}

func (s *UserService) Update(ctx context.Context, id uint, input UpdateUserInput) (*UserDTO, error) {
	user := &domain.User{ID: id, Name: input.Name, Email: input.Email}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, userIDKey(id), userETagKey(id)); err != nil {
		return nil, s.fail("user cache invalidate", err)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := userDTO(updated)
	return &dto, nil
}

// Delete removes the user, its ledger entries (both directions, tolerated
// as a no-op when absent) and its cache entries.
func (s *UserService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	idStr := strconv.FormatUint(uint64(id), 10)
	if err := s.ledger.Unbind(ctx, userScope, idStr); err != nil {
		return s.fail("idempotency unbind", err)
	}
	if err := s.cache.Delete(ctx, userIDKey(id), userETagKey(id)); err != nil {
		return s.fail("user cache invalidate", err)
	}
	return nil
}

func (s *UserService) fail(op string, err error) error {
	s.logger.Error("user service failure", zap.String("op", op), zap.Error(err))
	return domain.Wrap(domain.KindInternal, "internal server error", err)
}
