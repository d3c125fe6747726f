package tasks

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps tasks in process. Owners are seeded on first access.
type MemoryStore struct {
	mu     sync.RWMutex
	seed   []Task
	owners map[string][]Task
}

// NewMemoryStore builds a store; seed is copied for every new owner.
func NewMemoryStore(seed []Task) *MemoryStore {
	return &MemoryStore{
		seed:   append([]Task(nil), seed...),
		owners: map[string][]Task{},
	}
}

var _ Store = (*MemoryStore)(nil)

// List returns the owner's tasks in insertion order.
func (s *MemoryStore) List(_ context.Context, owner string) ([]Task, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task(nil), s.ensure(owner)...), nil
}

// Create appends a task, assigning an id when empty.
func (s *MemoryStore) Create(_ context.Context, owner string, task Task) (Task, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return Task{}, err
	}
	task, err = normalizeTask(task)
	if err != nil {
		return Task{}, err
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[owner] = append(s.ensure(owner), task)
	return task, nil
}

// Toggle flips the task status.
func (s *MemoryStore) Toggle(_ context.Context, owner, id string) (Task, error) {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.ensure(owner)
	for i := range list {
		if list[i].ID == id {
			list[i] = list[i].Toggled()
			return list[i], nil
		}
	}
	return Task{}, ErrNotFound
}

// Delete removes the task.
func (s *MemoryStore) Delete(_ context.Context, owner, id string) error {
	owner, err := normalizeOwner(owner)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.ensure(owner)
	for i := range list {
		if list[i].ID == id {
			s.owners[owner] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// ensure must be called with the write lock held.
func (s *MemoryStore) ensure(owner string) []Task {
	list, ok := s.owners[owner]
	if !ok {
		list = append([]Task(nil), s.seed...)
		s.owners[owner] = list
	}
	return list
}
