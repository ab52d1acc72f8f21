package profile

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

const (
	MembershipFree     = "FREE"
	MaxAttributeLength = 256
)

var (
	ErrProfileNotFound  = errors.New("profile not found")
	ErrAttributeTooLong = errors.New("attribute too long")
	ErrUnknownIdentity  = errors.New("no account for identity")
)

// Attributes are free-form strings, the same way the client stores them.
type Attributes struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Age            string `json:"age"`
	Height         string `json:"height"`
	Weight         string `json:"weight"`
	FitnessGoal    string `json:"fitnessGoal"`
	ActivityLevel  string `json:"activityLevel"`
	MembershipType string `json:"membershipType"`
}

func (a Attributes) validate() error {
	for field, value := range map[string]string{
		"name":          a.Name,
		"age":           a.Age,
		"height":        a.Height,
		"weight":        a.Weight,
		"fitnessGoal":   a.FitnessGoal,
		"activityLevel": a.ActivityLevel,
	} {
		if len(value) > MaxAttributeLength {
			return fmt.Errorf("%w: %s", ErrAttributeTooLong, field)
		}
	}
	return nil
}

type Profile struct {
	IdentityID string     `json:"identityId"`
	Attributes Attributes `json:"attributes"`
	JoinDate   time.Time  `json:"joinDate"`
	// Synced is false when the data came from, or only reached, the local cache.
	Synced bool `json:"synced"`
}

func defaultProfile(identityID string) *Profile {
	return &Profile{
		IdentityID: identityID,
		Attributes: Attributes{MembershipType: MembershipFree},
	}
}

var _ profileRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Get(ctx context.Context, identityID string) (_ *Profile, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profileRepo.Get")
	span.SetAttributes(attribute.String("identity.id", identityID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	p := Profile{IdentityID: identityID, Synced: true}
	if err := r.db.QueryRow(
		ctx,
		`
			SELECT p.name, a.email, p.age, p.height, p.weight, p.fitness_goal,
			       p.activity_level, p.membership_type, a.created_at
			FROM profile p
			JOIN account a ON a.id = p.identity_id
			WHERE p.identity_id = $1;
		`,
		identityID,
	).Scan(
		&p.Attributes.Name,
		&p.Attributes.Email,
		&p.Attributes.Age,
		&p.Attributes.Height,
		&p.Attributes.Weight,
		&p.Attributes.FitnessGoal,
		&p.Attributes.ActivityLevel,
		&p.Attributes.MembershipType,
		&p.JoinDate,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	return &p, nil
}

// Upsert writes the editable attributes. Email and membership are never written here.
func (r *Repo) Upsert(ctx context.Context, identityID string, attrs Attributes) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "profileRepo.Upsert")
	span.SetAttributes(attribute.String("identity.id", identityID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	_, err = r.db.Exec(
		ctx,
		`
			INSERT INTO profile (identity_id, name, age, height, weight, fitness_goal, activity_level, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
			ON CONFLICT (identity_id) DO UPDATE SET
				name = EXCLUDED.name,
				age = EXCLUDED.age,
				height = EXCLUDED.height,
				weight = EXCLUDED.weight,
				fitness_goal = EXCLUDED.fitness_goal,
				activity_level = EXCLUDED.activity_level,
				updated_at = now();
		`,
		identityID, attrs.Name, attrs.Age, attrs.Height, attrs.Weight, attrs.FitnessGoal, attrs.ActivityLevel,
	)
	if pkg.IsForeignKeyViolationError(err) {
		return fmt.Errorf("%w: %s", ErrUnknownIdentity, identityID)
	}
	return err
}
