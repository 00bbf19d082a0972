// Package testutil builds the in-memory database and tokens used by tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/glowshop/internal/models"
	"github.com/Skotchmaster/glowshop/internal/repo"
	pkgdb "github.com/Skotchmaster/glowshop/pkg/db"
	"github.com/Skotchmaster/glowshop/pkg/tokens"
)

var JWTSecret = []byte("test-access-secret")

// NewDB opens a private in-memory sqlite database with the schema migrated.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, dsn)
	require.NoError(t, err)

	require.NoError(t, (&repo.GormRepo{DB: db}).Migrate(context.Background()))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func NewRepo(t *testing.T) *repo.GormRepo {
	t.Helper()
	return &repo.GormRepo{DB: NewDB(t)}
}

func Product(t *testing.T, db *gorm.DB, name, category, price string, stock int) models.Product {
	t.Helper()

	p := models.Product{
		Name:     name,
		Category: category,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
	}
	require.NoError(t, (&repo.GormRepo{DB: db}).CreateProduct(context.Background(), &p))
	return p
}

// PriceAt appends a price history entry with an explicit date.
func PriceAt(t *testing.T, db *gorm.DB, productID uuid.UUID, price string, at time.Time) {
	t.Helper()
	require.NoError(t, db.Create(&models.PriceHistory{
		ProductID: productID,
		Price:     decimal.RequireFromString(price),
		Date:      at.UTC(),
	}).Error)
}

func AccessToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()

	claims := tokens.AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JWTSecret)
	require.NoError(t, err)
	return s
}
