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

const userColumns = `id, username, password_hash, email, phone, role, status, frozen_at, profile_picture_key, created_at, updated_at`

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db database.DBTX
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func userUniques(u *domain.User) map[string]string {
	return map[string]string{"username": u.Username, "email": u.Email, "phone": u.Phone}
}

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) (err error) {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	ctx, end := database.TraceQuery(ctx, "CreateUser", query)
	defer func() { end(err) }()

	_, err = r.db.Exec(ctx, query,
		u.ID,
		u.Username,
		u.PasswordHash,
		u.Email,
		u.Phone,
		u.Role,
		u.Status,
		u.FrozenAt,
		u.ProfilePictureKey,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if dup := duplicate(err, "user", userUniques(u)); dup != nil {
			return dup
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, "GetUserByID", `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String(), id)
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, "GetUserByUsername", `SELECT `+userColumns+` FROM users WHERE username = $1`, username, username)
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, "GetUserByEmail", `SELECT `+userColumns+` FROM users WHERE email = $1`, email, email)
}

// GetByPhone retrieves a user by E.164 phone number.
func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	return r.getOne(ctx, "GetUserByPhone", `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone, phone)
}

func (r *UserRepository) getOne(ctx context.Context, op, query, key string, arg any) (u *domain.User, err error) {
	ctx, end := database.TraceQuery(ctx, op, query)
	defer func() { end(err) }()

	u, err = scanUser(r.db.QueryRow(ctx, query, arg))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("user", key)
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// Update modifies an existing user in the database.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) (err error) {
	query := `
		UPDATE users
		SET username = $1, password_hash = $2, email = $3, phone = $4, role = $5,
		    status = $6, frozen_at = $7, profile_picture_key = $8, updated_at = $9
		WHERE id = $10`
	ctx, end := database.TraceQuery(ctx, "UpdateUser", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query,
		u.Username,
		u.PasswordHash,
		u.Email,
		u.Phone,
		u.Role,
		u.Status,
		u.FrozenAt,
		u.ProfilePictureKey,
		u.UpdatedAt,
		u.ID,
	)
	if err != nil {
		if dup := duplicate(err, "user", userUniques(u)); dup != nil {
			return dup
		}
		return fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", u.ID.String())
	}
	return nil
}

// Delete removes a user from the database by their ID.
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) (err error) {
	query := `DELETE FROM users WHERE id = $1`
	ctx, end := database.TraceQuery(ctx, "DeleteUser", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id.String())
	}
	return nil
}

// List returns one page of users, oldest first, and the total count.
func (r *UserRepository) List(ctx context.Context, offset, limit int) (users []domain.User, total int, err error) {
	countQuery := `SELECT COUNT(*) FROM users`
	listQuery := `SELECT ` + userColumns + ` FROM users ORDER BY created_at, id LIMIT $1 OFFSET $2`
	ctx, end := database.TraceQuery(ctx, "ListUsers", listQuery)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.db.Query(ctx, listQuery, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	users, err = collectUsers(rows)
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// Count returns the number of users.
func (r *UserRepository) Count(ctx context.Context) (n int64, err error) {
	query := `SELECT COUNT(*) FROM users`
	ctx, end := database.TraceQuery(ctx, "CountUsers", query)
	defer func() { end(err) }()

	if err = r.db.QueryRow(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// ListFrozenBefore returns self-frozen users frozen at or before cutoff.
func (r *UserRepository) ListFrozenBefore(ctx context.Context, cutoff time.Time) (users []domain.User, err error) {
	query := `SELECT ` + userColumns + ` FROM users
		WHERE status = 'INACTIVE' AND frozen_at IS NOT NULL AND frozen_at <= $1
		ORDER BY frozen_at`
	ctx, end := database.TraceQuery(ctx, "ListFrozenUsers", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list frozen users: %w", err)
	}
	return collectUsers(rows)
}

func collectUsers(rows pgx.Rows) ([]domain.User, error) {
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.PasswordHash,
		&u.Email,
		&u.Phone,
		&u.Role,
		&u.Status,
		&u.FrozenAt,
		&u.ProfilePictureKey,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
