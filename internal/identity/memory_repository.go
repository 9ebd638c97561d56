package identity

import (
	"context"
	"strings"
	"sync"
)

type memoryRepository struct {
	mu         sync.RWMutex
	users      map[string]User
	byUsername map[string]string
	byPhone    map[string]string
}

// NewMemoryRepository builds an in-memory user store for development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		users:      make(map[string]User),
		byUsername: make(map[string]string),
		byPhone:    make(map[string]string),
	}
}

// detach copies the string fields so request buffers never back stored keys.
func detach(user User) User {
	user.ID = strings.Clone(user.ID)
	user.Username = strings.Clone(user.Username)
	user.Phone = strings.Clone(user.Phone)
	user.OTPSecret = strings.Clone(user.OTPSecret)
	return user
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	user = detach(user)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byUsername[user.Username]; exists {
		return ErrDuplicateUsername
	}
	if _, exists := r.byPhone[user.Phone]; exists {
		return ErrDuplicatePhone
	}
	r.users[user.ID] = user
	r.byUsername[user.Username] = user.ID
	r.byPhone[user.Phone] = user.ID
	return nil
}

func (r *memoryRepository) FindByUsername(_ context.Context, username string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byUsername, username)
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByPhone(_ context.Context, phone string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookup(r.byPhone, phone)
}

func (r *memoryRepository) lookup(index map[string]string, key string) (User, error) {
	id, ok := index[key]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return r.users[id], nil
}

func (r *memoryRepository) Save(_ context.Context, user User) error {
	user = detach(user)
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[user.ID]
	if !ok {
		return ErrUserNotFound
	}
	if owner, taken := r.byPhone[user.Phone]; taken && owner != user.ID {
		return ErrDuplicatePhone
	}
	delete(r.byPhone, current.Phone)
	current.PasswordHash = user.PasswordHash
	current.Phone = user.Phone
	r.users[user.ID] = current
	r.byPhone[current.Phone] = current.ID
	return nil
}

func (r *memoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil
	}
	delete(r.users, id)
	delete(r.byUsername, user.Username)
	delete(r.byPhone, user.Phone)
	return nil
}
