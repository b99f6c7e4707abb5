package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/internal/domain"
	"github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/database"
	apperrors "github.com/BeyzaNurKeskinn/Trinity-Password-Manager/pkg/errors"
)

const categoryColumns = `id, name, description, status, created_at, updated_at`

// CategoryRepository implements repository.CategoryRepository using
// PostgreSQL.
type CategoryRepository struct {
	db database.DBTX
}

// NewCategoryRepository creates a new PostgreSQL-backed category repository.
func NewCategoryRepository(db database.DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// Create inserts a category. A taken name yields AlreadyExists.
func (r *CategoryRepository) Create(ctx context.Context, c *domain.Category) (err error) {
	query := `INSERT INTO categories (` + categoryColumns + `) VALUES ($1, $2, $3, $4, $5, $6)`
	ctx, end := database.TraceQuery(ctx, "CreateCategory", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query, c.ID, c.Name, c.Description, c.Status, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if dup := duplicate(err, "category", map[string]string{"name": c.Name}); dup != nil {
			return dup
		}
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

// GetByID retrieves a category in any status.
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (c *domain.Category, err error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "GetCategory", query)
	defer func() { end(err) }()

	c, err = scanCategory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("category", id.String())
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// Update writes name, description and status.
func (r *CategoryRepository) Update(ctx context.Context, c *domain.Category) (err error) {
	query := `UPDATE categories SET name = $1, description = $2, status = $3, updated_at = $4 WHERE id = $5`
	ctx, end := database.TraceQuery(ctx, "UpdateCategory", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, c.Name, c.Description, c.Status, c.UpdatedAt, c.ID)
	if err != nil {
		if dup := duplicate(err, "category", map[string]string{"name": c.Name}); dup != nil {
			return dup
		}
		return fmt.Errorf("update category: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("category", c.ID.String())
	}
	return nil
}

// List returns every category ordered by name.
func (r *CategoryRepository) List(ctx context.Context) (cats []domain.Category, err error) {
	query := `SELECT ` + categoryColumns + ` FROM categories ORDER BY name`
	ctx, end := database.TraceQuery(ctx, "ListCategories", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return collectCategories(rows)
}

// ListByStatus returns categories in the given status ordered by name.
func (r *CategoryRepository) ListByStatus(ctx context.Context, status domain.Status) (cats []domain.Category, err error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE status = $1 ORDER BY name`
	ctx, end := database.TraceQuery(ctx, "ListCategoriesByStatus", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("list categories by status: %w", err)
	}
	return collectCategories(rows)
}

func collectCategories(rows pgx.Rows) ([]domain.Category, error) {
	defer rows.Close()

	var cats []domain.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		cats = append(cats, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}
	return cats, nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
