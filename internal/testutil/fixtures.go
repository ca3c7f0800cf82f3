package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ludoteca/catalog-api/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	name     string
	email    string
	password string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		name:     fmt.Sprintf("testuser_%s", suffix),
		email:    fmt.Sprintf("testuser_%s@example.com", suffix),
		password: "testpassword123",
	}
}

// WithName sets the display name
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.name = name
	return b
}

// WithEmail sets the email
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &domain.User{
		Name:         b.name,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// BoardGameBuilder creates test board games with a builder pattern
type BoardGameBuilder struct {
	name        string
	description string
	complexity  float64
	minAge      int
	playTime    int
	year        int
	mechanics   []string
	owner       *domain.User
	createdAt   *time.Time
}

// NewBoardGameBuilder creates a new BoardGameBuilder with default values
func NewBoardGameBuilder() *BoardGameBuilder {
	return &BoardGameBuilder{
		name:        fmt.Sprintf("Test Game %s", uuid.New().String()[:8]),
		description: "A board game for testing",
		complexity:  2.5,
		minAge:      10,
		playTime:    60,
		year:        2020,
		mechanics:   []string{"worker placement"},
	}
}

// WithName sets the game name
func (b *BoardGameBuilder) WithName(name string) *BoardGameBuilder {
	b.name = name
	return b
}

// WithComplexity sets the complexity rating
func (b *BoardGameBuilder) WithComplexity(complexity float64) *BoardGameBuilder {
	b.complexity = complexity
	return b
}

// WithMechanics sets the mechanics list
func (b *BoardGameBuilder) WithMechanics(mechanics []string) *BoardGameBuilder {
	b.mechanics = mechanics
	return b
}

// WithOwner sets the owning user
func (b *BoardGameBuilder) WithOwner(user *domain.User) *BoardGameBuilder {
	b.owner = user
	return b
}

// WithCreatedAt pins the creation timestamp, useful for cursor pagination
func (b *BoardGameBuilder) WithCreatedAt(at time.Time) *BoardGameBuilder {
	b.createdAt = &at
	return b
}

// Build creates the board game in the database
func (b *BoardGameBuilder) Build(t *testing.T, db *gorm.DB) *domain.BoardGame {
	t.Helper()

	if b.owner == nil {
		user, _ := NewUserBuilder().Build(t, db)
		b.owner = user
	}

	mechanicsJSON, _ := json.Marshal(b.mechanics)
	game := &domain.BoardGame{
		Name:        b.name,
		Description: b.description,
		Complexity:  b.complexity,
		MinAge:      b.minAge,
		PlayTime:    b.playTime,
		Year:        b.year,
		Mechanics:   datatypes.JSON(mechanicsJSON),
		OwnerID:     b.owner.ID,
	}
	if b.createdAt != nil {
		game.CreatedAt = *b.createdAt
	}

	if err := db.Create(game).Error; err != nil {
		t.Fatalf("failed to create board game: %v", err)
	}

	return game
}

// SeedBoardGames creates N test games owned by the given user
func SeedBoardGames(t *testing.T, db *gorm.DB, owner *domain.User, count int) []*domain.BoardGame {
	t.Helper()

	// Microsecond precision matches what postgres stores, keeping cursor
	// comparisons exact.
	base := time.Now().Add(-time.Duration(count) * time.Minute).Truncate(time.Microsecond)
	games := make([]*domain.BoardGame, count)
	for i := 0; i < count; i++ {
		games[i] = NewBoardGameBuilder().
			WithName(fmt.Sprintf("Seed Game %03d %s", i, uuid.New().String()[:8])).
			WithOwner(owner).
			WithCreatedAt(base.Add(time.Duration(i) * time.Minute)).
			Build(t, db)
	}
	return games
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}
