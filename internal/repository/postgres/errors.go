package postgres

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ludoteca/catalog-api/internal/domain"
	"gorm.io/gorm"
)

// classify maps store-specific failures to domain errors at the lowest
// layer. notFound and duplicate name the resource so callers never have to
// inspect gorm or pgconn types themselves.
func classify(err error, notFound, duplicate *domain.Error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return duplicate
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return duplicate
	}
	return domain.Wrap(domain.KindInternal, "internal server error", err)
}
