package postgres

import (
	"context"

	"github.com/ludoteca/catalog-api/internal/domain"
	"gorm.io/gorm"
)

type boardGameRepository struct {
	db *gorm.DB
}

func NewBoardGameRepository(db *gorm.DB) *boardGameRepository {
	return &boardGameRepository{db: db}
}

func (r *boardGameRepository) Create(ctx context.Context, game *domain.BoardGame) error {
	err := r.db.WithContext(ctx).Create(game).Error
	return classify(err, domain.ErrBoardGameNotFound, domain.ErrDuplicateBoardGame)
}

func (r *boardGameRepository) CreateMany(ctx context.Context, games []*domain.BoardGame) error {
	if len(games) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Create(&games).Error
	return classify(err, domain.ErrBoardGameNotFound, domain.ErrDuplicateBoardGame)
}

func (r *boardGameRepository) GetByID(ctx context.Context, id uint) (*domain.BoardGame, error) {
	var game domain.BoardGame
	err := r.db.WithContext(ctx).First(&game, "id = ?", id).Error
	if err != nil {
		return nil, classify(err, domain.ErrBoardGameNotFound, domain.ErrDuplicateBoardGame)
	}
	return &game, nil
}

func (r *boardGameRepository) List(ctx context.Context, req domain.PageRequest) ([]*domain.BoardGame, error) {
	var games []*domain.BoardGame
	q := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Limit(req.Limit + 1)
	if req.CreatedAt != nil {
		q = q.Where("created_at >= ?", *req.CreatedAt)
	} else {
		q = q.Offset((req.Page - 1) * req.Limit)
	}
	if err := q.Find(&games).Error; err != nil {
		return nil, classify(err, domain.ErrBoardGameNotFound, domain.ErrDuplicateBoardGame)
	}
	return games, nil
}

func (r *boardGameRepository) Update(ctx context.Context, game *domain.BoardGame) error {
	res := r.db.WithContext(ctx).Model(&domain.BoardGame{ID: game.ID}).
		Select("Name", "Description", "Complexity", "MinAge", "PlayTime", "Year", "Mechanics").
		Updates(game)
	if res.Error != nil {
		return classify(res.Error, domain.ErrBoardGameNotFound, domain.ErrDuplicateBoardGame)
	}
	if res.RowsAffected == 0 {
		return domain.ErrBoardGameNotFound
	}
	return nil
}

func (r *boardGameRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.BoardGame{}, id)
	if res.Error != nil {
		return classify(res.Error, domain.ErrBoardGameNotFound, domain.ErrDuplicateBoardGame)
	}
	if res.RowsAffected == 0 {
		return domain.ErrBoardGameNotFound
	}
	return nil
}
