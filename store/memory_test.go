package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/harvest/models"
)

func newTask(id, client string, created time.Time) *models.Task {
	return &models.Task{
		ID:         id,
		ClientName: client,
		Category:   "furniture",
		URL:        "https://www.example.com/ip/" + id,
		Status:     models.StatusPending,
		CreatedAt:  created,
	}
}

func TestDuplicateClientRejected(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	c := &models.Client{ID: "c1", ClientName: "acme", ClientEmail: "ops@acme.test"}
	require.NoError(t, m.RegisterClient(ctx, c))

	dup := &models.Client{ID: "c2", ClientName: "acme-again", ClientEmail: "Ops@Acme.test"}
	err := m.RegisterClient(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateClient)
}

func TestTaskLifecycle(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateTask(ctx, newTask("t1", "acme", time.Now())))

	require.NoError(t, m.MarkRunning(ctx, "t1"))
	require.NoError(t, m.MarkCompleted(ctx, "t1"))

	got, err := m.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Empty(t, got.Error)
}

func TestTerminalStatusIsFinal(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateTask(ctx, newTask("t1", "acme", time.Now())))
	require.NoError(t, m.MarkRunning(ctx, "t1"))
	require.NoError(t, m.MarkFailed(ctx, "t1", "navigation failed"))

	// No transition may leave a terminal state.
	assert.ErrorIs(t, m.MarkCompleted(ctx, "t1"), ErrInvalidTransition)
	assert.ErrorIs(t, m.MarkRunning(ctx, "t1"), ErrInvalidTransition)
	assert.ErrorIs(t, m.MarkFailed(ctx, "t1", "again"), ErrInvalidTransition)

	got, err := m.GetTask(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Equal(t, "navigation failed", got.Error)
}

func TestMarkRunningClaimsOnce(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateTask(ctx, newTask("t1", "acme", time.Now())))
	require.NoError(t, m.MarkRunning(ctx, "t1"))

	// A second claim must lose.
	assert.ErrorIs(t, m.MarkRunning(ctx, "t1"), ErrInvalidTransition)
}

func TestListTasksFilterAndOrder(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Now()

	require.NoError(t, m.CreateTask(ctx, newTask("t1", "acme", base.Add(-2*time.Hour))))
	require.NoError(t, m.CreateTask(ctx, newTask("t2", "acme", base.Add(-1*time.Hour))))
	require.NoError(t, m.CreateTask(ctx, newTask("t3", "globex", base)))
	require.NoError(t, m.MarkRunning(ctx, "t1"))
	require.NoError(t, m.MarkFailed(ctx, "t1", "boom"))

	all, err := m.ListTasks(ctx, models.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "t3", all[0].ID) // newest first
	assert.Equal(t, "t1", all[2].ID)

	failed, err := m.ListTasks(ctx, models.TaskFilter{ClientName: "acme", Status: models.StatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "t1", failed[0].ID)
}

func TestInsertProductIdempotent(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	p := &models.Product{TaskID: "t1", ClientName: "acme", Title: "Chair", Price: 10, ScrapedAt: time.Now()}
	require.NoError(t, m.InsertProduct(ctx, p))

	p2 := &models.Product{TaskID: "t1", ClientName: "acme", Title: "Chair (redelivered)", Price: 99, ScrapedAt: time.Now()}
	require.NoError(t, m.InsertProduct(ctx, p2))

	got, err := m.ListProducts(ctx, models.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Chair", got[0].Title) // first write wins
}

func TestListProductsPriceRange(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, m.InsertProduct(ctx, &models.Product{TaskID: "t1", Price: 5, ScrapedAt: now.Add(-2 * time.Minute)}))
	require.NoError(t, m.InsertProduct(ctx, &models.Product{TaskID: "t2", Price: 50, ScrapedAt: now.Add(-1 * time.Minute)}))
	require.NoError(t, m.InsertProduct(ctx, &models.Product{TaskID: "t3", Price: 500, ScrapedAt: now}))

	min, max := 10.0, 100.0
	got, err := m.ListProducts(ctx, models.ProductFilter{MinPrice: &min, MaxPrice: &max})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t2", got[0].TaskID)

	all, err := m.ListProducts(ctx, models.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "t3", all[0].TaskID) // newest scraped first
}
