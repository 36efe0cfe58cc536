package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/use-agent/harvest/models"
)

// Memory is an in-process Store used in tests and when no Postgres DSN is
// configured. Safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	tasks    map[string]*models.Task
	products map[string]*models.Product // keyed by task_id
	clients  map[string]*models.Client  // keyed by client_email
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		tasks:    make(map[string]*models.Task),
		products: make(map[string]*models.Product),
		clients:  make(map[string]*models.Client),
	}
}

func (m *Memory) RegisterClient(_ context.Context, c *models.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(c.ClientEmail)
	if _, exists := m.clients[key]; exists {
		return ErrDuplicateClient
	}
	cp := *c
	m.clients[key] = &cp
	return nil
}

func (m *Memory) CreateTask(_ context.Context, t *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *t
	m.tasks[t.ID] = &cp
	return nil
}

func (m *Memory) GetTask(_ context.Context, id string) (*models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *Memory) MarkRunning(_ context.Context, id string) error {
	return m.transition(id, models.StatusRunning, "")
}

func (m *Memory) MarkCompleted(_ context.Context, id string) error {
	return m.transition(id, models.StatusCompleted, "")
}

func (m *Memory) MarkFailed(_ context.Context, id, diagnostic string) error {
	return m.transition(id, models.StatusFailed, diagnostic)
}

func (m *Memory) transition(id string, to models.TaskStatus, diagnostic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return ErrNotFound
	}
	if !models.ValidTransition(t.Status, to) {
		return ErrInvalidTransition
	}
	t.Status = to
	t.Error = diagnostic
	return nil
}

func (m *Memory) ListTasks(_ context.Context, f models.TaskFilter) ([]models.Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if f.ClientName != "" && t.ClientName != f.ClientName {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.Category != "" && t.Category != f.Category {
			continue
		}
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) InsertProduct(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.products[p.TaskID]; exists {
		return nil // idempotent re-write
	}
	cp := *p
	m.products[p.TaskID] = &cp
	return nil
}

func (m *Memory) ListProducts(_ context.Context, f models.ProductFilter) ([]models.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		if f.ClientName != "" && p.ClientName != f.ClientName {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ScrapedAt.After(out[j].ScrapedAt)
	})
	return out, nil
}
