package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitfitpro/bitfit/internal/telemetry/tracing"
	"github.com/bitfitpro/bitfit/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already taken")
)

type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

var _ accountsRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Create inserts the account together with its empty FREE profile.
func (r *Repo) Create(ctx context.Context, account *Account) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "accountsRepo.Create")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(
		ctx,
		`INSERT INTO account (id, email, name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5);`,
		account.ID, account.Email, account.Name, account.PasswordHash, account.CreatedAt,
	); err != nil {
		if pkg.IsUniqueViolationError(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert account: %w", err)
	}

	if _, err = tx.Exec(
		ctx,
		`INSERT INTO profile (identity_id, name, membership_type) VALUES ($1, $2, 'FREE');`,
		account.ID, account.Name,
	); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *Repo) ByEmail(ctx context.Context, email string) (_ *Account, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "accountsRepo.ByEmail")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.scanOne(r.db.QueryRow(
		ctx,
		`SELECT id, email, name, password_hash, created_at FROM account WHERE email = $1;`,
		email,
	))
}

func (r *Repo) ByID(ctx context.Context, id string) (_ *Account, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "accountsRepo.ByID")
	span.SetAttributes(attribute.String("identity.id", id))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	return r.scanOne(r.db.QueryRow(
		ctx,
		`SELECT id, email, name, password_hash, created_at FROM account WHERE id = $1;`,
		id,
	))
}

func (r *Repo) scanOne(row pgx.Row) (*Account, error) {
	var account Account
	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.PasswordHash,
		&account.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}
