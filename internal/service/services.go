package service

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/ludoteca/catalog-api/internal/config"
	"github.com/ludoteca/catalog-api/internal/repository"
	"go.uber.org/zap"
)

type Services struct {
	Auth      *AuthService
	User      *UserService
	BoardGame *BoardGameService
}

func NewServices(
	repos *repository.Repositories,
	cache repository.Cache,
	ledger repository.IdempotencyLedger,
	queue repository.JobQueue,
	cfg *config.Config,
	logger *zap.Logger,
) *Services {
	return &Services{
		Auth:      NewAuthService(repos.User, cfg),
		User:      NewUserService(repos.User, cache, ledger, cfg, logger),
		BoardGame: NewBoardGameService(repos.BoardGame, cache, ledger, queue, cfg, logger),
	}
}

// etagFor fingerprints a cached representation. The tag is derived from the
// exact bytes stored in the cache so a hit and a fresh compute always agree.
func etagFor(body []byte) string {
	sum := sha256.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
