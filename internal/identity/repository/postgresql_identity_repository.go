// Package repository provides data persistence implementations for identity records.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/allisson/sessions/internal/database"
	"github.com/allisson/sessions/internal/identity/domain"

	apperrors "github.com/allisson/sessions/internal/errors"
)

// PostgreSQLIdentityRepository handles identity persistence for PostgreSQL
type PostgreSQLIdentityRepository struct {
	db *sql.DB
}

// NewPostgreSQLIdentityRepository creates a new PostgreSQLIdentityRepository
func NewPostgreSQLIdentityRepository(db *sql.DB) *PostgreSQLIdentityRepository {
	return &PostgreSQLIdentityRepository{
		db: db,
	}
}

// Create inserts a new identity
func (r *PostgreSQLIdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO identities (id, name, email, password, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, identity.ID, identity.Name, identity.Email, identity.Password)
	if err != nil {
		// Check for unique constraint violation (duplicate email)
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrIdentityAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create identity")
	}
	return nil
}

// FindByID retrieves an identity by ID
func (r *PostgreSQLIdentityRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	var identity domain.Identity
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, email, password, created_at, updated_at
			  FROM identities WHERE id = $1`

	err := querier.QueryRowContext(ctx, query, id).Scan(
		&identity.ID, &identity.Name, &identity.Email, &identity.Password,
		&identity.CreatedAt, &identity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to find identity by id")
	}

	return &identity, nil
}

// FindByEmail retrieves an identity by email
func (r *PostgreSQLIdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	var identity domain.Identity
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, email, password, created_at, updated_at
			  FROM identities WHERE email = $1`

	err := querier.QueryRowContext(ctx, query, email).Scan(
		&identity.ID, &identity.Name, &identity.Email, &identity.Password,
		&identity.CreatedAt, &identity.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrIdentityNotFound
		}
		return nil, apperrors.Wrap(err, "failed to find identity by email")
	}

	return &identity, nil
}

// Save updates an existing identity
func (r *PostgreSQLIdentityRepository) Save(ctx context.Context, identity *domain.Identity) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE identities SET name = $2, email = $3, password = $4, updated_at = NOW()
			  WHERE id = $1`

	result, err := querier.ExecContext(ctx, query, identity.ID, identity.Name, identity.Email, identity.Password)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrIdentityAlreadyExists
		}
		return apperrors.Wrap(err, "failed to save identity")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if rows == 0 {
		return domain.ErrIdentityNotFound
	}
	return nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
