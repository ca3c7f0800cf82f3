package postgres

import (
	"context"

	"github.com/ludoteca/catalog-api/internal/domain"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *userRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	return classify(err, domain.ErrUserNotFound, domain.ErrDuplicateUser)
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, classify(err, domain.ErrUserNotFound, domain.ErrDuplicateUser)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "email = ?", email).Error
	if err != nil {
		return nil, classify(err, domain.ErrUserNotFound, domain.ErrDuplicateUser)
	}
	return &user, nil
}

// List fetches limit+1 rows so the service can derive hasNextPage without
// a count query.
func (r *userRepository) List(ctx context.Context, req domain.PageRequest) ([]*domain.User, error) {
	var users []*domain.User
	q := r.db.WithContext(ctx).Order("created_at ASC, id ASC").Limit(req.Limit + 1)
	if req.CreatedAt != nil {
		q = q.Where("created_at >= ?", *req.CreatedAt)
	} else {
		q = q.Offset((req.Page - 1) * req.Limit)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, classify(err, domain.ErrUserNotFound, domain.ErrDuplicateUser)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	res := r.db.WithContext(ctx).Model(&domain.User{ID: user.ID}).
		Select("Name", "Email").
		Updates(user)
	if res.Error != nil {
		return classify(res.Error, domain.ErrUserNotFound, domain.ErrDuplicateUser)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&domain.User{}, id)
	if res.Error != nil {
		return classify(res.Error, domain.ErrUserNotFound, domain.ErrDuplicateUser)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
