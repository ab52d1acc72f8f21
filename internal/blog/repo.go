package blog

import (
	"context"
	"errors"
	"time"

	"github.com/bitfitpro/bitfit/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// manual caching of blog posts not needed (at least for this use case):
// https://github.com/jackc/pgx/wiki/Automatic-Prepared-Statement-Caching

const postColumns = `id, title, excerpt, content, author, category, read_time_minutes, created_at, claps`

var _ blogRepo = (*Repo)(nil)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, post *Post) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := post.validate(); err != nil {
		return err
	}
	post.fillDerived()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}

	return r.db.QueryRow(
		ctx,
		`
			INSERT INTO blog_post (title, excerpt, content, author, category, read_time_minutes, created_at, claps)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id;
		`,
		post.Title, post.Excerpt, post.Content, post.Author,
		post.Category, post.ReadTimeMinutes, post.CreatedAt, post.Claps,
	).Scan(&post.ID)
}

// Update rewrites the editable fields of the post.
// createdAt and claps are not updated.
func (r *Repo) Update(ctx context.Context, post *Post) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.update")
	span.SetAttributes(attribute.Int("id", post.ID))
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if err := post.validate(); err != nil {
		return err
	}
	post.fillDerived()

	tag, err := r.db.Exec(
		ctx,
		`
			UPDATE blog_post
			SET title = $1, excerpt = $2, content = $3, author = $4, category = $5, read_time_minutes = $6
			WHERE id = $7;
		`,
		post.Title, post.Excerpt, post.Content, post.Author, post.Category, post.ReadTimeMinutes, post.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *Repo) Clap(ctx context.Context, id int) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.clap")
	defer span.End()

	var claps int
	err := r.db.QueryRow(ctx, `UPDATE blog_post SET claps = claps + 1 WHERE id = $1 RETURNING claps`, id).Scan(&claps)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrPostNotFound
	}
	return claps, err
}

func (r *Repo) Delete(ctx context.Context, id int) error {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.delete")
	defer span.End()

	tag, err := r.db.Exec(ctx, `DELETE FROM blog_post WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPostNotFound
	}
	return nil
}

func (r *Repo) All(ctx context.Context) ([]*Post, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.all")
	defer span.End()

	rows, err := r.db.Query(ctx, `SELECT `+postColumns+` FROM blog_post ORDER BY id DESC;`)
	if err != nil {
		return nil, err
	}
	return rows2posts(rows)
}

// Count returns the number of posts, in one category when category is not empty.
func (r *Repo) Count(ctx context.Context, category string) (int, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.count")
	defer span.End()

	var count int
	err := r.db.QueryRow(
		ctx,
		`SELECT COUNT(*) FROM blog_post WHERE $1::text = '' OR category = $1`,
		category,
	).Scan(&count)
	if err != nil {
		return -1, err
	}
	return count, nil
}

// Page returns the posts of the 1-based page, newest first.
func (r *Repo) Page(ctx context.Context, page, size int, category string) ([]*Post, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.page")
	span.SetAttributes(attribute.Int("page", page))
	span.SetAttributes(attribute.Int("size", size))
	span.SetAttributes(attribute.String("category", category))
	defer span.End()

	limit := size
	offset := (page - 1) * size
	log.Tracef("getting blog posts, category [%s], limit %d, offset %d", category, limit, offset)

	rows, err := r.db.Query(
		ctx,
		`
			SELECT `+postColumns+` FROM blog_post
			WHERE $1::text = '' OR category = $1
			ORDER BY id DESC
			LIMIT $2
			OFFSET $3;
		`,
		category,
		limit,
		offset,
	)
	if err != nil {
		return nil, err
	}
	return rows2posts(rows)
}

func (r *Repo) Get(ctx context.Context, id int) (*Post, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.get")
	span.SetAttributes(attribute.Int("id", id))
	defer span.End()

	rows, err := r.db.Query(ctx, `SELECT `+postColumns+` FROM blog_post WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	post, err := pgx.CollectExactlyOneRow(rows, scanPost)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	return post, err
}

func (r *Repo) Categories(ctx context.Context) ([]string, error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "blogRepo.categories")
	defer span.End()

	rows, err := r.db.Query(ctx, `SELECT DISTINCT category FROM blog_post ORDER BY category;`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func scanPost(row pgx.CollectableRow) (*Post, error) {
	var p Post
	if err := row.Scan(
		&p.ID, &p.Title, &p.Excerpt, &p.Content, &p.Author,
		&p.Category, &p.ReadTimeMinutes, &p.CreatedAt, &p.Claps,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func rows2posts(rows pgx.Rows) ([]*Post, error) {
	posts, err := pgx.CollectRows(rows, scanPost)
	if err != nil {
		return nil, err
	}
	return posts, nil
}
