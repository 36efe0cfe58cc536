package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/use-agent/harvest/models"
)

// pgUniqueViolation is the Postgres error code for unique constraint hits.
const pgUniqueViolation = "23505"

const schema = `
CREATE TABLE IF NOT EXISTS clients (
	id             TEXT PRIMARY KEY,
	client_name    TEXT NOT NULL,
	client_email   TEXT NOT NULL UNIQUE,
	registered_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	client_name TEXT NOT NULL,
	category    TEXT NOT NULL,
	url         TEXT NOT NULL,
	status      TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS tasks_created_at_idx ON tasks (created_at DESC);

CREATE TABLE IF NOT EXISTS products (
	task_id         TEXT PRIMARY KEY REFERENCES tasks (id),
	client_name     TEXT NOT NULL,
	category        TEXT NOT NULL,
	title           TEXT NOT NULL,
	price           DOUBLE PRECISION NOT NULL,
	raw_price       TEXT NOT NULL DEFAULT '',
	images          TEXT[] NOT NULL DEFAULT '{}',
	about_this_item TEXT[] NOT NULL DEFAULT '{}',
	colors          TEXT[] NOT NULL DEFAULT '{}',
	sizes           TEXT[] NOT NULL DEFAULT '{}',
	product_url     TEXT NOT NULL,
	related_links   TEXT[] NOT NULL DEFAULT '{}',
	scraped_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS products_scraped_at_idx ON products (scraped_at DESC);
`

// Postgres is the pgx-backed Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to the database, verifies the connection, and
// ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ensure schema: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the connection pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

func (s *Postgres) RegisterClient(ctx context.Context, c *models.Client) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO clients (id, client_name, client_email, registered_at)
		VALUES ($1, $2, $3, $4)`,
		c.ID, c.ClientName, strings.ToLower(c.ClientEmail), c.RegisteredAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrDuplicateClient
	}
	return err
}

func (s *Postgres) CreateTask(ctx context.Context, t *models.Task) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO tasks (id, client_name, category, url, status, created_at, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.ClientName, t.Category, t.URL, t.Status, t.CreatedAt, t.Error,
	)
	return err
}

func (s *Postgres) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	err := s.pool.QueryRow(ctx, `
		SELECT id, client_name, category, url, status, created_at, error
		FROM tasks WHERE id = $1`, id,
	).Scan(&t.ID, &t.ClientName, &t.Category, &t.URL, &t.Status, &t.CreatedAt, &t.Error)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// MarkRunning claims the task for a worker. The status predicate is the
// claim: a second worker's update matches zero rows.
func (s *Postgres) MarkRunning(ctx context.Context, id string) error {
	return s.transition(ctx, `
		UPDATE tasks SET status = 'running'
		WHERE id = $1 AND status = 'pending'`, id)
}

func (s *Postgres) MarkCompleted(ctx context.Context, id string) error {
	return s.transition(ctx, `
		UPDATE tasks SET status = 'completed', error = ''
		WHERE id = $1 AND status = 'running'`, id)
}

func (s *Postgres) MarkFailed(ctx context.Context, id, diagnostic string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE tasks SET status = 'failed', error = $2
		WHERE id = $1 AND status IN ('pending', 'running')`, id, diagnostic)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (s *Postgres) transition(ctx context.Context, sql, id string) error {
	tag, err := s.pool.Exec(ctx, sql, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (s *Postgres) ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	w := newWhere()
	if f.ClientName != "" {
		w.add("client_name = $%d", f.ClientName)
	}
	if f.Status != "" {
		w.add("status = $%d", string(f.Status))
	}
	if f.Category != "" {
		w.add("category = $%d", f.Category)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, client_name, category, url, status, created_at, error
		FROM tasks`+w.clause()+` ORDER BY created_at DESC`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.ClientName, &t.Category, &t.URL,
			&t.Status, &t.CreatedAt, &t.Error); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Postgres) InsertProduct(ctx context.Context, p *models.Product) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO products (task_id, client_name, category, title, price,
			raw_price, images, about_this_item, colors, sizes, product_url,
			related_links, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (task_id) DO NOTHING`,
		p.TaskID, p.ClientName, p.Category, p.Title, p.Price,
		p.RawPrice, p.Images, p.AboutThisItem, p.Colors, p.Sizes,
		p.ProductURL, p.RelatedLinks, p.ScrapedAt,
	)
	return err
}

func (s *Postgres) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	w := newWhere()
	if f.ClientName != "" {
		w.add("client_name = $%d", f.ClientName)
	}
	if f.Category != "" {
		w.add("category = $%d", f.Category)
	}
	if f.MinPrice != nil {
		w.add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		w.add("price <= $%d", *f.MaxPrice)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT task_id, client_name, category, title, price, raw_price,
			images, about_this_item, colors, sizes, product_url,
			related_links, scraped_at
		FROM products`+w.clause()+` ORDER BY scraped_at DESC`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.TaskID, &p.ClientName, &p.Category, &p.Title,
			&p.Price, &p.RawPrice, &p.Images, &p.AboutThisItem, &p.Colors,
			&p.Sizes, &p.ProductURL, &p.RelatedLinks, &p.ScrapedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// where accumulates AND-joined filter conditions. Each cond carries one
// $%d placeholder that gets the next positional argument number.
type where struct {
	conds []string
	args  []any
}

func newWhere() *where {
	return &where{}
}

func (w *where) add(cond string, v any) {
	w.args = append(w.args, v)
	w.conds = append(w.conds, fmt.Sprintf(cond, len(w.args)))
}

func (w *where) clause() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}
