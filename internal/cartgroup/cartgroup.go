package cartgroup

import (
	"sort"
	"strings"

	"github.com/kiranakart/checkout-backend/pkg/types"
)

// minWarehouseIDLen is the shortest id treated as plausibly real. Warehouse
// ids are 24-char hex object ids upstream; anything shorter is a placeholder
// left behind by a partially hydrated cart line.
const minWarehouseIDLen = 12

// Group holds the lines assigned to one warehouse together with the warehouse
// metadata carried on the first line that referenced it.
type Group struct {
	WarehouseID string
	Warehouse   *types.WarehouseRef
	Lines       []types.CartLine
}

// Result is the outcome of partitioning a cart by warehouse.
type Result struct {
	Groups       map[string]*Group
	InvalidLines int
}

// WarehouseIDs returns the sorted set of warehouse ids present in the cart.
func (r Result) WarehouseIDs() []string {
	ids := make([]string, 0, len(r.Groups))
	for id := range r.Groups {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsMixed reports whether the cart spans more than one warehouse.
func (r Result) IsMixed() bool {
	return len(r.Groups) > 1
}

// Partition groups cart lines by their resolved warehouse id. Lines without a
// resolvable id are dropped from the map and counted so callers can surface a
// deferred warning. Partition itself never rejects mixed carts; that is the
// delivery calculator's call.
func Partition(lines []types.CartLine) Result {
	result := Result{Groups: make(map[string]*Group, 1)}
	for _, line := range lines {
		id := ResolveWarehouseID(line)
		if id == "" {
			result.InvalidLines++
			continue
		}
		group, ok := result.Groups[id]
		if !ok {
			group = &Group{WarehouseID: id, Warehouse: line.Warehouse}
			result.Groups[id] = group
		}
		if group.Warehouse == nil && line.Warehouse != nil {
			group.Warehouse = line.Warehouse
		}
		group.Lines = append(group.Lines, line)
	}
	return result
}

// ResolveWarehouseID resolves the warehouse id for one cart line, trying the
// explicit WarehouseID field first and the embedded warehouse reference
// second. Returns the empty string when no id resolves.
func ResolveWarehouseID(line types.CartLine) string {
	if id := strings.TrimSpace(line.WarehouseID); id != "" {
		return id
	}
	if line.Warehouse != nil {
		if id := strings.TrimSpace(line.Warehouse.ID); id != "" {
			return id
		}
	}
	return ""
}

// IsValidWarehouseID reports whether an id looks like a real warehouse id.
// Placeholder strings serialized into the cart by earlier client bugs are
// rejected here so they never reach the pricing API.
func IsValidWarehouseID(id string) bool {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return false
	}
	switch strings.ToLower(trimmed) {
	case "unknown", "undefined", "null":
		return false
	}
	return len(trimmed) >= minWarehouseIDLen
}

// SplitByValidity separates a warehouse id set into plausible and placeholder
// ids, preserving sorted order within each slice.
func SplitByValidity(ids []string) (valid, invalid []string) {
	for _, id := range ids {
		if IsValidWarehouseID(id) {
			valid = append(valid, id)
		} else {
			invalid = append(invalid, id)
		}
	}
	sort.Strings(valid)
	sort.Strings(invalid)
	return valid, invalid
}
