package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"fornada/internal/core/apperror"
	"fornada/internal/core/id"
	"fornada/internal/domain/orders"
	"fornada/internal/domain/settings"
	"fornada/pkg/numerator"
)

// OrderRepository provides in-memory order storage.
type OrderRepository struct {
	mu    sync.RWMutex
	heads map[id.ID]*orders.Order
	items map[id.ID][]orders.Item
}

// NewOrderRepository creates a new in-memory order repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{
		heads: make(map[id.ID]*orders.Order),
		items: make(map[id.ID][]orders.Item),
	}
}

var _ orders.Repository = (*OrderRepository)(nil)

func (r *OrderRepository) Create(_ context.Context, order *orders.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *order
	clone.Items = nil
	r.heads[order.ID] = &clone
	return nil
}

func (r *OrderRepository) Update(_ context.Context, order *orders.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.heads[order.ID]; !ok {
		return apperror.NewNotFound("order", order.ID.String())
	}
	clone := *order
	clone.Items = nil
	r.heads[order.ID] = &clone
	return nil
}

func (r *OrderRepository) GetByID(_ context.Context, orderID id.ID) (*orders.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.heads[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID.String())
	}
	clone := *order
	return &clone, nil
}

func (r *OrderRepository) List(_ context.Context, filter orders.ListFilter) ([]orders.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]orders.Order, 0, len(r.heads))
	for _, order := range r.heads {
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		if filter.ClientID != nil && order.ClientID != *filter.ClientID {
			continue
		}
		if filter.Paid != nil && order.Paid != *filter.Paid {
			continue
		}
		list = append(list, *order)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Number < list[j].Number })
	if filter.Offset > 0 {
		if filter.Offset >= len(list) {
			return []orders.Order{}, nil
		}
		list = list[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(list) {
		list = list[:filter.Limit]
	}
	return list, nil
}

func (r *OrderRepository) SaveItems(_ context.Context, orderID id.ID, items []orders.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := make([]orders.Item, len(items))
	copy(clone, items)
	r.items[orderID] = clone
	return nil
}

func (r *OrderRepository) GetItems(_ context.Context, orderID id.ID) ([]orders.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	items := make([]orders.Item, len(r.items[orderID]))
	copy(items, r.items[orderID])
	return items, nil
}

// SettingsRepository provides in-memory configuration storage.
type SettingsRepository struct {
	mu  sync.RWMutex
	cfg *settings.Config
}

// NewSettingsRepository creates a new in-memory settings repository.
func NewSettingsRepository() *SettingsRepository {
	return &SettingsRepository{}
}

var _ settings.Repository = (*SettingsRepository)(nil)

func (r *SettingsRepository) Get(_ context.Context) (*settings.Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cfg == nil {
		return nil, apperror.NewNotFound("settings", "config")
	}
	clone := *r.cfg
	return &clone, nil
}

func (r *SettingsRepository) Save(_ context.Context, cfg *settings.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *cfg
	clone.UpdatedAt = time.Now()
	r.cfg = &clone
	return nil
}

// Numberer hands out sequential numbers without a database.
type Numberer struct {
	mu   sync.Mutex
	next map[string]int64
}

// NewNumberer creates a new in-memory numberer.
func NewNumberer() *Numberer {
	return &Numberer{next: make(map[string]int64)}
}

// GetNextNumber mirrors the numerator format: PREFIX-YEAR-XXXXX.
func (n *Numberer) GetNextNumber(_ context.Context, cfg numerator.Config, _ *numerator.Options, period time.Time) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next[cfg.Prefix]++
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, n.next[cfg.Prefix]), nil
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, n.next[cfg.Prefix]), nil
}
