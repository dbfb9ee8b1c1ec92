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

// MySQLIdentityRepository handles identity persistence for MySQL
type MySQLIdentityRepository struct {
	db *sql.DB
}

// NewMySQLIdentityRepository creates a new MySQLIdentityRepository
func NewMySQLIdentityRepository(db *sql.DB) *MySQLIdentityRepository {
	return &MySQLIdentityRepository{
		db: db,
	}
}

// Create inserts a new identity
func (r *MySQLIdentityRepository) Create(ctx context.Context, identity *domain.Identity) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO identities (id, name, email, password, created_at, updated_at)
			  VALUES (?, ?, ?, ?, NOW(), NOW())`

	_, err := querier.ExecContext(ctx, query, identity.ID.String(), identity.Name, identity.Email, identity.Password)
	if err != nil {
		// Check for unique constraint violation (duplicate email)
		if isMySQLDuplicateEntry(err) {
			return domain.ErrIdentityAlreadyExists
		}
		return apperrors.Wrap(err, "failed to create identity")
	}
	return nil
}

// FindByID retrieves an identity by ID
func (r *MySQLIdentityRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Identity, error) {
	var identity domain.Identity
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, email, password, created_at, updated_at
			  FROM identities WHERE id = ?`

	err := querier.QueryRowContext(ctx, query, id.String()).Scan(
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
func (r *MySQLIdentityRepository) FindByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	var identity domain.Identity
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, name, email, password, created_at, updated_at
			  FROM identities WHERE email = ?`

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
func (r *MySQLIdentityRepository) Save(ctx context.Context, identity *domain.Identity) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE identities SET name = ?, email = ?, password = ?, updated_at = NOW()
			  WHERE id = ?`

	result, err := querier.ExecContext(ctx, query, identity.Name, identity.Email, identity.Password, identity.ID.String())
	if err != nil {
		if isMySQLDuplicateEntry(err) {
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

// isMySQLDuplicateEntry checks if the error is a MySQL duplicate entry violation
func isMySQLDuplicateEntry(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry ... for key ..."
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
