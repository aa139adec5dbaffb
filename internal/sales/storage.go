package sales

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a sale with the given ID is not found.
var ErrNotFound = errors.New("sale not found")

// ErrEmptyID is returned when trying to update a sale with an empty ID.
var ErrEmptyID = errors.New("empty sale ID")

// Storage is the persistence collaborator for sales. Implementations assign
// identity and timestamps but never change domain fields.
type Storage interface {
	Insert(ctx context.Context, sale *Sale) error
	FindByID(ctx context.Context, id string) (*Sale, error)
	// Find returns the matching sales ordered by sale_date, newest first.
	Find(ctx context.Context, filter Filter) ([]*Sale, error)
	Update(ctx context.Context, sale *Sale) error
}

// LocalStorage provides an in-memory implementation for storing sales.
type LocalStorage struct {
	mu  sync.RWMutex
	m   map[string]*Sale
	now func() time.Time
}

// NewLocalStorage instantiates a new LocalStorage for sales with an empty map.
func NewLocalStorage() *LocalStorage {
	return &LocalStorage{
		m:   map[string]*Sale{},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Insert assigns a new ID and timestamps, then stores a copy of sale.
func (l *LocalStorage) Insert(_ context.Context, sale *Sale) error {
	now := l.now()
	sale.ID = uuid.NewString()
	sale.CreatedAt = now
	sale.UpdatedAt = now

	l.mu.Lock()
	defer l.mu.Unlock()
	l.m[sale.ID] = sale.Clone()
	return nil
}

// FindByID retrieves a sale from the local storage by ID.
// Returns ErrNotFound if the sale is not found.
func (l *LocalStorage) FindByID(_ context.Context, id string) (*Sale, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.m[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (l *LocalStorage) Find(_ context.Context, filter Filter) ([]*Sale, error) {
	l.mu.RLock()
	sales := make([]*Sale, 0, len(l.m))
	for _, s := range l.m {
		if filter.OwnerID != "" && s.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		sales = append(sales, s.Clone())
	}
	l.mu.RUnlock()

	sortNewestFirst(sales)
	return sales, nil
}

// Update replaces the stored sale and refreshes UpdatedAt. CreatedAt is kept.
func (l *LocalStorage) Update(_ context.Context, sale *Sale) error {
	if sale.ID == "" {
		return ErrEmptyID
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	current, ok := l.m[sale.ID]
	if !ok {
		return ErrNotFound
	}
	sale.CreatedAt = current.CreatedAt
	sale.UpdatedAt = l.now()
	l.m[sale.ID] = sale.Clone()
	return nil
}

func sortNewestFirst(sales []*Sale) {
	slices.SortStableFunc(sales, func(a, b *Sale) int {
		if c := b.SaleDate.Compare(a.SaleDate); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
