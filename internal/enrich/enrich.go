// Package enrich supplies customer and order context for requests.
//
// The production deployment would back this with a commerce platform
// connector; the file store here serves development and demo setups from
// a static JSON snapshot. Either way the engine only sees the
// ContextProvider contract.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/miwake-ai/miwake/internal/model"
)

// snapshot is the on-disk layout of a context file.
type snapshot struct {
	Customers []model.CustomerProfile `json:"customers"`
	Orders    []model.OrderContext    `json:"orders"`
}

// FileStore serves enrichment from a static JSON snapshot. Immutable
// after load; safe for concurrent use.
type FileStore struct {
	customers map[string]model.CustomerProfile // keyed by lowercase email
	orders    map[string]model.OrderContext    // keyed by order ID
}

// NewFileStore loads a context snapshot from path.
func NewFileStore(path string) (*FileStore, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from validated config, not user input
	if err != nil {
		return nil, fmt.Errorf("enrich: read %s: %w", path, err)
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("enrich: parse %s: %w", path, err)
	}

	s := &FileStore{
		customers: make(map[string]model.CustomerProfile, len(snap.Customers)),
		orders:    make(map[string]model.OrderContext, len(snap.Orders)),
	}
	for _, c := range snap.Customers {
		if c.Email == "" {
			return nil, fmt.Errorf("enrich: %s: customer %q has no email", path, c.CustomerID)
		}
		s.customers[strings.ToLower(c.Email)] = c
	}
	for _, o := range snap.Orders {
		if o.OrderID == "" {
			return nil, fmt.Errorf("enrich: %s: order with empty order_id", path)
		}
		s.orders[o.OrderID] = o
	}
	return s, nil
}

// Enrich looks up the customer by email and the first known order among
// orderIDs. Missing records are not errors; the context just stays
// partial.
func (s *FileStore) Enrich(_ context.Context, email string, orderIDs []string) (*model.EnrichedContext, error) {
	enriched := &model.EnrichedContext{}
	if email != "" {
		if c, ok := s.customers[strings.ToLower(email)]; ok {
			enriched.Customer = &c
		}
	}
	for _, id := range orderIDs {
		if o, ok := s.orders[id]; ok {
			enriched.Order = &o
			break
		}
	}
	return enriched, nil
}
