package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/choncance/choncance-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type HostProfileRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.HostProfile, error)
	// CreatePending inserts a PENDING profile and moves the account from GUEST
	// to HOST_PENDING in one transaction.
	CreatePending(ctx context.Context, userID uuid.UUID, req *domain.HostRequestRequest) (*domain.HostProfile, error)
	ListByStatus(ctx context.Context, status domain.HostStatus, limit, offset int) ([]domain.HostRequestView, error)
	// Review settles a PENDING profile and applies the matching account role.
	Review(ctx context.Context, userID uuid.UUID, status domain.HostStatus) (*domain.HostProfile, error)
}

type hostProfileRepository struct {
	db DB
}

func NewHostProfileRepository(db DB) HostProfileRepository {
	return &hostProfileRepository{db: db}
}

const hostProfileCols = `id, user_id, business_number, contact, status, created_at, updated_at`

func scanHostProfile(row pgx.Row) (*domain.HostProfile, error) {
	var p domain.HostProfile
	if err := row.Scan(&p.ID, &p.UserID, &p.BusinessNumber, &p.Contact, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *hostProfileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.HostProfile, error) {
	const q = `SELECT ` + hostProfileCols + ` FROM host_profiles WHERE user_id = $1`
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	p, err := scanHostProfile(r.db.QueryRow(ctx, q, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find host profile: %w", err)
	}
	return p, nil
}

func (r *hostProfileRepository) CreatePending(ctx context.Context, userID uuid.UUID, req *domain.HostRequestRequest) (*domain.HostProfile, error) {
	const promote = `UPDATE users SET role = $2, updated_at = now() WHERE id = $1 AND role = $3`
	const insert = `
		INSERT INTO host_profiles (user_id, business_number, contact, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + hostProfileCols

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin host request: %w", err)
	}
	defer rollback(ctx, tx)

	// Taking the row lock first serializes concurrent requests for one account.
	tag, err := tx.Exec(ctx, promote, userID, domain.RoleHostPending, domain.RoleGuest)
	if err != nil {
		return nil, fmt.Errorf("promote user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrRoleChanged
	}

	p, err := scanHostProfile(tx.QueryRow(ctx, insert, userID, req.BusinessNumber, req.Contact, domain.HostStatusPending))
	if err != nil {
		if isUniqueViolation(err, "host_profiles_user_id_key") {
			return nil, ErrHostProfileExists
		}
		return nil, fmt.Errorf("insert host profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit host request: %w", err)
	}
	return p, nil
}

func (r *hostProfileRepository) ListByStatus(ctx context.Context, status domain.HostStatus, limit, offset int) ([]domain.HostRequestView, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	const q = `
		SELECT h.id, h.user_id, h.business_number, h.contact, h.status, h.created_at, h.updated_at, u.email, u.name
		FROM host_profiles h
		JOIN users u ON u.id = h.user_id
		WHERE h.status = $1
		ORDER BY h.created_at ASC
		LIMIT $2 OFFSET $3`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := r.db.Query(ctx, q, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list host requests: %w", err)
	}
	defer rows.Close()

	views := []domain.HostRequestView{}
	for rows.Next() {
		var v domain.HostRequestView
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.BusinessNumber, &v.Contact, &v.Status, &v.CreatedAt, &v.UpdatedAt, &v.Email, &v.Name,
		); err != nil {
			return nil, fmt.Errorf("scan host request: %w", err)
		}
		views = append(views, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate host requests: %w", err)
	}
	return views, nil
}

func (r *hostProfileRepository) Review(ctx context.Context, userID uuid.UUID, status domain.HostStatus) (*domain.HostProfile, error) {
	const lock = `SELECT status FROM host_profiles WHERE user_id = $1 FOR UPDATE`
	const settle = `
		UPDATE host_profiles SET status = $2, updated_at = now()
		WHERE user_id = $1
		RETURNING ` + hostProfileCols
	const applyRole = `UPDATE users SET role = $2, is_host_approved = $3, updated_at = now() WHERE id = $1`

	role, approved := domain.RoleGuest, false
	if status == domain.HostStatusApproved {
		role, approved = domain.RoleHost, true
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin host review: %w", err)
	}
	defer rollback(ctx, tx)

	var current domain.HostStatus
	if err := tx.QueryRow(ctx, lock, userID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHostProfileNotFound
		}
		return nil, fmt.Errorf("lock host profile: %w", err)
	}
	if current != domain.HostStatusPending {
		return nil, ErrNotPending
	}

	p, err := scanHostProfile(tx.QueryRow(ctx, settle, userID, status))
	if err != nil {
		return nil, fmt.Errorf("settle host profile: %w", err)
	}
	if _, err := tx.Exec(ctx, applyRole, userID, role, approved); err != nil {
		return nil, fmt.Errorf("apply host role: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit host review: %w", err)
	}
	return p, nil
}
