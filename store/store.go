package store

import (
	"context"
	"errors"

	"github.com/use-agent/harvest/models"
)

var (
	// ErrDuplicateClient means the client_email is already registered.
	ErrDuplicateClient = errors.New("store: client email already registered")

	// ErrNotFound means the requested record does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrInvalidTransition means a status update lost the claim race or
	// targeted a task already in a terminal state.
	ErrInvalidTransition = errors.New("store: invalid status transition")
)

// Store is the persistence adapter for tasks, products, and clients.
//
// Status updates are compare-and-set: MarkRunning succeeds only from
// pending, terminal marks only from a non-terminal state. That is what
// upholds the single-writer and terminal-exactly-once invariants under
// concurrent access.
type Store interface {
	RegisterClient(ctx context.Context, c *models.Client) error
	CreateTask(ctx context.Context, t *models.Task) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	MarkRunning(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id, diagnostic string) error
	ListTasks(ctx context.Context, f models.TaskFilter) ([]models.Task, error)

	// InsertProduct is idempotent on task_id: re-running a task never
	// produces a second product record.
	InsertProduct(ctx context.Context, p *models.Product) error
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
}
