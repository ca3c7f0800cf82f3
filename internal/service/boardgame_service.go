package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/ludoteca/catalog-api/internal/config"
	"github.com/ludoteca/catalog-api/internal/domain"
	"github.com/ludoteca/catalog-api/internal/queue"
	"github.com/ludoteca/catalog-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const boardGameScope = "boardgames"

type BoardGameService struct {
	repo   repository.BoardGameRepository
	cache  repository.Cache
	ledger repository.IdempotencyLedger
	queue  repository.JobQueue
	cfg    *config.Config
	logger *zap.Logger
}

func NewBoardGameService(
	repo repository.BoardGameRepository,
	cache repository.Cache,
	ledger repository.IdempotencyLedger,
	jobQueue repository.JobQueue,
	cfg *config.Config,
	logger *zap.Logger,
) *BoardGameService {
	return &BoardGameService{repo: repo, cache: cache, ledger: ledger, queue: jobQueue, cfg: cfg, logger: logger}
}

type BoardGameDTO struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Complexity  float64   `json:"complexity"`
	MinAge      int       `json:"minAge"`
	PlayTime    int       `json:"playTime"`
	Year        int       `json:"year"`
	Mechanics   []string  `json:"mechanics,omitempty"`
	OwnerID     uint      `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	Created     bool      `json:"created,omitempty"`
}

type BoardGameInput struct {
	Name        string
	Description string
	Complexity  float64
	MinAge      int
	PlayTime    int
	Year        int
	Mechanics   []string
}

func boardGameDTO(g *domain.BoardGame) BoardGameDTO {
	dto := BoardGameDTO{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		Complexity:  g.Complexity,
		MinAge:      g.MinAge,
		PlayTime:    g.PlayTime,
		Year:        g.Year,
		OwnerID:     g.OwnerID,
		CreatedAt:   g.CreatedAt,
	}
	if len(g.Mechanics) > 0 {
		_ = json.Unmarshal(g.Mechanics, &dto.Mechanics)
	}
	return dto
}

func mechanicsJSON(mechanics []string) datatypes.JSON {
	if len(mechanics) == 0 {
		return nil
	}
	raw, err := json.Marshal(mechanics)
	if err != nil {
		return nil
	}
	return raw
}

func gameListKey(req domain.PageRequest) string {
	if req.CreatedAt != nil {
		return fmt.Sprintf("boardgames:createdAt:%s:limit:%d", req.CreatedAt.UTC().Format(time.RFC3339Nano), req.Limit)
	}
	return fmt.Sprintf("boardgames:page:%d:limit:%d", req.Page, req.Limit)
}

func gameIDKey(id uint) string   { return fmt.Sprintf("boardgames:id:%d", id) }
func gameETagKey(id uint) string { return gameIDKey(id) + ":etag" }

func (s *BoardGameService) List(ctx context.Context, req domain.PageRequest) (domain.Page[BoardGameDTO], error) {
	req = req.Normalize()
	key := gameListKey(req)

	if body, ok, err := s.cache.Get(ctx, key); err != nil {
		return domain.Page[BoardGameDTO]{}, s.fail("board game list cache read", err)
	} else if ok {
		var page domain.Page[BoardGameDTO]
		if err := json.Unmarshal(body, &page); err == nil {
			return page, nil
		}
	}

	games, err := s.repo.List(ctx, req)
	if err != nil {
		return domain.Page[BoardGameDTO]{}, err
	}

	dtos := make([]BoardGameDTO, len(games))
	for i, g := range games {
		dtos[i] = boardGameDTO(g)
	}
	page := domain.NewPage(dtos, req)

	body, err := json.Marshal(page)
	if err != nil {
		return domain.Page[BoardGameDTO]{}, s.fail("board game list marshal", err)
	}
	if err := s.cache.Set(ctx, key, body, s.cfg.CacheTTL); err != nil {
		return domain.Page[BoardGameDTO]{}, s.fail("board game list cache write", err)
	}

	return page, nil
}

func (s *BoardGameService) GetByID(ctx context.Context, id uint, conditionalTag string) (*BoardGameDTO, string, bool, error) {
	if conditionalTag != "" {
		stored, ok, err := s.cache.Get(ctx, gameETagKey(id))
		if err != nil {
			return nil, "", false, s.fail("board game etag read", err)
		}
		if ok && string(stored) == conditionalTag {
			return nil, conditionalTag, true, nil
		}
	}

	body, ok, err := s.cache.Get(ctx, gameIDKey(id))
	if err != nil {
		return nil, "", false, s.fail("board game cache read", err)
	}
	if !ok {
		game, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, "", false, err
		}
		dto := boardGameDTO(game)
		body, err = json.Marshal(dto)
		if err != nil {
			return nil, "", false, s.fail("board game marshal", err)
		}
		if err := s.cache.Set(ctx, gameIDKey(id), body, s.cfg.CacheTTL); err != nil {
			return nil, "", false, s.fail("board game cache write", err)
		}
	}

	tag := etagFor(body)
	if err := s.cache.Set(ctx, gameETagKey(id), []byte(tag), s.cfg.CacheTTL); err != nil {
		return nil, "", false, s.fail("board game etag write", err)
	}

	var dto BoardGameDTO
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, "", false, s.fail("board game unmarshal", err)
	}
	return &dto, tag, false, nil
}

func (s *BoardGameService) Create(ctx context.Context, input BoardGameInput, ownerID uint, idempotencyKey string) (*BoardGameDTO, error) {
	if idempotencyKey != "" {
		if dto, err := s.replay(ctx, idempotencyKey); err != nil {
			return nil, err
		} else if dto != nil {
			return dto, nil
		}
	}

	game := &domain.BoardGame{
		Name:        input.Name,
		Description: input.Description,
		Complexity:  input.Complexity,
		MinAge:      input.MinAge,
		PlayTime:    input.PlayTime,
		Year:        input.Year,
		Mechanics:   mechanicsJSON(input.Mechanics),
		OwnerID:     ownerID,
	}
	if err := s.repo.Create(ctx, game); err != nil {
		return nil, err
	}

	if idempotencyKey != "" {
		id := strconv.FormatUint(uint64(game.ID), 10)
		if err := s.ledger.Bind(ctx, boardGameScope, idempotencyKey, id, s.cfg.IdempotencyTTL); err != nil {
			s.logger.Warn("idempotency bind failed",
				zap.String("scope", boardGameScope), zap.Uint("id", game.ID), zap.Error(err))
		}
	}

	dto := boardGameDTO(game)
	dto.Created = true
	return &dto, nil
}

func (s *BoardGameService) replay(ctx context.Context, idempotencyKey string) (*BoardGameDTO, error) {
	idStr, ok, err := s.ledger.Resolve(ctx, boardGameScope, idempotencyKey)
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

	game, err := s.repo.GetByID(ctx, uint(id))
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			if err := s.ledger.Unbind(ctx, boardGameScope, idStr); err != nil {
				return nil, s.fail("idempotency unbind", err)
			}
			return nil, nil
		}
		return nil, err
	}

	dto := boardGameDTO(game)
	return &dto, nil
}

func (s *BoardGameService) Update(ctx context.Context, id uint, input BoardGameInput) (*BoardGameDTO, error) {
	game := &domain.BoardGame{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		Complexity:  input.Complexity,
		MinAge:      input.MinAge,
		PlayTime:    input.PlayTime,
		Year:        input.Year,
		Mechanics:   mechanicsJSON(input.Mechanics),
	}
	if err := s.repo.Update(ctx, game); err != nil {
		return nil, err
	}

	if err := s.cache.Delete(ctx, gameIDKey(id), gameETagKey(id)); err != nil {
		return nil, s.fail("board game cache invalidate", err)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := boardGameDTO(updated)
	return &dto, nil
}

func (s *BoardGameService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	idStr := strconv.FormatUint(uint64(id), 10)
	if err := s.ledger.Unbind(ctx, boardGameScope, idStr); err != nil {
		return s.fail("idempotency unbind", err)
	}
	if err := s.cache.Delete(ctx, gameIDKey(id), gameETagKey(id)); err != nil {
		return s.fail("board game cache invalidate", err)
	}
	return nil
}

// EnqueueBatch hands a batch of games to the out-of-band worker. The caller
// answers 202 immediately; persistence is at least once.
func (s *BoardGameService) EnqueueBatch(ctx context.Context, inputs []BoardGameInput, ownerID uint) error {
	job := queue.BatchCreateJob{OwnerID: ownerID, Games: make([]queue.GamePayload, len(inputs))}
	for i, in := range inputs {
		job.Games[i] = queue.GamePayload{
			Name:        in.Name,
			Description: in.Description,
			Complexity:  in.Complexity,
			MinAge:      in.MinAge,
			PlayTime:    in.PlayTime,
			Year:        in.Year,
			Mechanics:   in.Mechanics,
		}
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return s.fail("batch job marshal", err)
	}
	if err := s.queue.Enqueue(ctx, queue.BoardGameQueue, payload); err != nil {
		return s.fail("batch job enqueue", err)
	}

	s.logger.Info("batch create enqueued",
		zap.Uint("ownerId", ownerID), zap.Int("games", len(inputs)))
	return nil
}

func (s *BoardGameService) fail(op string, err error) error {
	s.logger.Error("board game service failure", zap.String("op", op), zap.Error(err))
	return domain.Wrap(domain.KindInternal, "internal server error", err)
}
