package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/database"
	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
)

const credentialSelect = `
		SELECT c.id, c.owner_id, c.category_id, cat.name, c.title, c.username, c.secret, c.description,
		       c.status, c.is_featured, c.view_count, c.last_used, c.created_at, c.updated_at
		FROM credentials c
		JOIN categories cat ON cat.id = c.category_id`

// CredentialRepository implements repository.CredentialRepository using
// PostgreSQL.
type CredentialRepository struct {
	db database.DBTX
}

// NewCredentialRepository creates a new PostgreSQL-backed credential
// repository.
func NewCredentialRepository(db database.DBTX) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create inserts a credential. Secret must already be ciphertext.
func (r *CredentialRepository) Create(ctx context.Context, c *domain.Credential) (err error) {
	query := `
		INSERT INTO credentials (id, owner_id, category_id, title, username, secret, description,
		                         status, is_featured, view_count, last_used, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	ctx, end := database.TraceQuery(ctx, "CreateCredential", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		c.ID,
		c.OwnerID,
		c.CategoryID,
		c.Title,
		c.Username,
		c.Secret,
		c.Description,
		c.Status,
		c.IsFeatured,
		c.ViewCount,
		c.LastUsed,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

// GetByID retrieves a credential in any status.
func (r *CredentialRepository) GetByID(ctx context.Context, id uuid.UUID) (c *domain.Credential, err error) {
	query := credentialSelect + ` WHERE c.id = $1`
	ctx, end := database.TraceQuery(ctx, "GetCredential", query)
	defer func() { end(err) }()

	c, err = scanCredential(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("credential", id.String())
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return c, nil
}

// Update writes the editable columns. View statistics are left alone.
func (r *CredentialRepository) Update(ctx context.Context, c *domain.Credential) (err error) {
	query := `
		UPDATE credentials
		SET category_id = $1, title = $2, username = $3, secret = $4, description = $5,
		    status = $6, is_featured = $7, updated_at = $8
		WHERE id = $9`
	ctx, end := database.TraceQuery(ctx, "UpdateCredential", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query,
		c.CategoryID,
		c.Title,
		c.Username,
		c.Secret,
		c.Description,
		c.Status,
		c.IsFeatured,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("credential", c.ID.String())
	}
	return nil
}

// ListActiveByOwner returns the owner's active credentials, newest first.
func (r *CredentialRepository) ListActiveByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Credential, error) {
	return r.list(ctx, "ListCredentials",
		credentialSelect+` WHERE c.owner_id = $1 AND c.status = 'ACTIVE' ORDER BY c.created_at DESC`, ownerID)
}

// ListActiveByOwnerAndCategory narrows ListActiveByOwner to a category name.
func (r *CredentialRepository) ListActiveByOwnerAndCategory(ctx context.Context, ownerID uuid.UUID, category string) ([]domain.Credential, error) {
	return r.list(ctx, "ListCredentialsByCategory",
		credentialSelect+` WHERE c.owner_id = $1 AND c.status = 'ACTIVE' AND cat.name = $2 ORDER BY c.created_at DESC`,
		ownerID, category)
}

// ListFeatured returns the owner's active featured credentials.
func (r *CredentialRepository) ListFeatured(ctx context.Context, ownerID uuid.UUID) ([]domain.Credential, error) {
	return r.list(ctx, "ListFeaturedCredentials",
		credentialSelect+` WHERE c.owner_id = $1 AND c.status = 'ACTIVE' AND c.is_featured ORDER BY c.title`, ownerID)
}

// ListMostViewed returns the owner's active credentials by view count.
func (r *CredentialRepository) ListMostViewed(ctx context.Context, ownerID uuid.UUID, limit int) ([]domain.Credential, error) {
	return r.list(ctx, "ListMostViewedCredentials",
		credentialSelect+` WHERE c.owner_id = $1 AND c.status = 'ACTIVE' ORDER BY c.view_count DESC, c.title LIMIT $2`,
		ownerID, limit)
}

func (r *CredentialRepository) list(ctx context.Context, op, query string, args ...any) (creds []domain.Credential, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential row: %w", err)
		}
		creds = append(creds, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credential rows: %w", err)
	}
	return creds, nil
}

// RecordView counts one reveal of an active credential owned by ownerID and
// returns its ciphertext. A missing, inactive or foreign row yields
// ErrNotFound.
func (r *CredentialRepository) RecordView(ctx context.Context, id, ownerID uuid.UUID, at time.Time) (secret string, err error) {
	query := `
		UPDATE credentials
		SET view_count = view_count + 1, last_used = $1
		WHERE id = $2 AND owner_id = $3 AND status = 'ACTIVE'
		RETURNING secret`
	ctx, end := database.TraceQuery(ctx, "RecordCredentialView", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query, at, id, ownerID).Scan(&secret); err != nil {
		if database.IsNoRows(err) {
			return "", apperrors.NotFound("credential", id.String())
		}
		return "", fmt.Errorf("record credential view: %w", err)
	}
	return secret, nil
}

// SetFeatured flips the featured flag and stamps updated_at with at.
func (r *CredentialRepository) SetFeatured(ctx context.Context, id uuid.UUID, featured bool, at time.Time) (err error) {
	query := `UPDATE credentials SET is_featured = $1, updated_at = $2 WHERE id = $3`
	ctx, end := database.TraceQuery(ctx, "SetCredentialFeatured", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, featured, at, id)
	if err != nil {
		return fmt.Errorf("set credential featured: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("credential", id.String())
	}
	return nil
}

// LastUsedSince returns last_used of the owner's credentials used after since.
func (r *CredentialRepository) LastUsedSince(ctx context.Context, ownerID uuid.UUID, since time.Time) (times []time.Time, err error) {
	query := `SELECT last_used FROM credentials WHERE owner_id = $1 AND last_used > $2`
	ctx, end := database.TraceQuery(ctx, "CredentialLastUsed", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, ownerID, since)
	if err != nil {
		return nil, fmt.Errorf("list credential usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t time.Time
		if err = rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan credential usage: %w", err)
		}
		times = append(times, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credential usage: %w", err)
	}
	return times, nil
}

// Count returns the number of credentials in any status.
func (r *CredentialRepository) Count(ctx context.Context) (n int64, err error) {
	query := `SELECT COUNT(*) FROM credentials`
	ctx, end := database.TraceQuery(ctx, "CountCredentials", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count credentials: %w", err)
	}
	return n, nil
}

// CountByCategory counts active credentials per category name.
func (r *CredentialRepository) CountByCategory(ctx context.Context) (counts []domain.CategoryCount, err error) {
	query := `
		SELECT cat.name, COUNT(*)
		FROM credentials c
		JOIN categories cat ON cat.id = c.category_id
		WHERE c.status = 'ACTIVE'
		GROUP BY cat.name
		ORDER BY cat.name`
	ctx, end := database.TraceQuery(ctx, "CountCredentialsByCategory", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("count credentials by category: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cc domain.CategoryCount
		if err = rows.Scan(&cc.Category, &cc.Count); err != nil {
			return nil, fmt.Errorf("scan category count: %w", err)
		}
		counts = append(counts, cc)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category counts: %w", err)
	}
	return counts, nil
}

func scanCredential(row pgx.Row) (*domain.Credential, error) {
	var c domain.Credential
	err := row.Scan(
		&c.ID,
		&c.OwnerID,
		&c.CategoryID,
		&c.CategoryName,
		&c.Title,
		&c.Username,
		&c.Secret,
		&c.Description,
		&c.Status,
		&c.IsFeatured,
		&c.ViewCount,
		&c.LastUsed,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
