// Package store provides RecordStore implementations.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/pwdtools/calc-engine/generic"
	"github.com/shopspring/decimal"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	rows   map[generic.TableName][]map[string]any
	nextID map[generic.TableName]int64
}

func NewMemory() *Memory {
	return &Memory{
		rows:   make(map[generic.TableName][]map[string]any),
		nextID: make(map[generic.TableName]int64),
	}
}

// Insert appends a copy of fields. Append-only.
func (m *Memory) Insert(_ context.Context, table generic.TableName, fields map[string]any) (int64, error) {
	schema, err := generic.LookupTable(table)
	if err != nil {
		return 0, err
	}
	if err := schema.CheckRow(fields); err != nil {
		return 0, err
	}

	row := make(map[string]any, len(fields))
	for k, v := range fields {
		row[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID[table]++
	m.rows[table] = append(m.rows[table], row)
	return m.nextID[table], nil
}

func (m *Memory) Count(_ context.Context, table generic.TableName) (int64, error) {
	if _, err := generic.LookupTable(table); err != nil {
		return 0, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.rows[table])), nil
}

func (m *Memory) Sum(_ context.Context, table generic.TableName, column string) (decimal.Decimal, error) {
	schema, err := generic.LookupTable(table)
	if err != nil {
		return decimal.Zero, err
	}
	if err := schema.CheckSum(column); err != nil {
		return decimal.Zero, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, row := range m.rows[table] {
		d, err := toDecimal(row[column])
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s.%s: %w", table, column, err)
		}
		total = total.Add(d)
	}
	return total, nil
}

// Rows returns a copy of every row written to table, in insert order.
func (m *Memory) Rows(table generic.TableName) []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]map[string]any, len(m.rows[table]))
	for i, r := range m.rows[table] {
		cp := make(map[string]any, len(r))
		for k, v := range r {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return x, nil
	case string:
		if x == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(x)
	case int64:
		return decimal.NewFromInt(x), nil
	case int:
		return decimal.NewFromInt(int64(x)), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported amount type %T", v)
	}
}
