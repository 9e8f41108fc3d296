package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/entities"
	"github.com/emmanuel-ch/Product-Trailer/pkg/domain/repositories"
)

// ItemRepository persists tracked items and the movement audit trail.
type ItemRepository struct {
	store *Store
}

// NewItemRepository creates an item repository over the store.
func NewItemRepository(store *Store) *ItemRepository {
	return &ItemRepository{store: store}
}

// Verify interface compliance
var _ repositories.ItemRepository = (*ItemRepository)(nil)

// FetchAll returns every persisted item, ordered by id.
func (r *ItemRepository) FetchAll(ctx context.Context) ([]*entities.TrackedItem, error) {
	return r.fetch(ctx, `SELECT id, country, sku, qty, state, unit_value, brand, category
		FROM items ORDER BY id`)
}

// FetchActive returns the Open and PendingReceipt items, ordered by id.
func (r *ItemRepository) FetchActive(ctx context.Context) ([]*entities.TrackedItem, error) {
	return r.fetch(ctx, `SELECT id, country, sku, qty, state, unit_value, brand, category
		FROM items WHERE state != 'Closed' ORDER BY id`)
}

func (r *ItemRepository) fetch(ctx context.Context, query string) ([]*entities.TrackedItem, error) {
	rows, err := r.store.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying items: %w", err)
	}
	defer rows.Close()

	var items []*entities.TrackedItem
	for rows.Next() {
		var (
			item       entities.TrackedItem
			state, val string
		)
		if err := rows.Scan(&item.ID, &item.Country, &item.SKU, &item.Qty,
			&state, &val, &item.Brand, &item.Category); err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		st, ok := entities.ParseLifecycleState(state)
		if !ok {
			return nil, fmt.Errorf("item %s: unknown state %q", item.ID, state)
		}
		item.State = st
		item.UnitValue, err = decimal.NewFromString(val)
		if err != nil {
			return nil, fmt.Errorf("item %s: unit value: %w", item.ID, err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating items: %w", err)
	}

	for _, item := range items {
		if item.Waypoints, err = r.fetchWaypoints(ctx, item.ID); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (r *ItemRepository) fetchWaypoints(ctx context.Context, itemID string) ([]entities.Waypoint, error) {
	rows, err := r.store.db.QueryContext(ctx,
		`SELECT date, company, location, counterparty, movement_code, batch
		 FROM waypoints WHERE item_id = ? ORDER BY seq`, itemID)
	if err != nil {
		return nil, fmt.Errorf("querying waypoints of %s: %w", itemID, err)
	}
	defer rows.Close()

	var wpts []entities.Waypoint
	for rows.Next() {
		var (
			w    entities.Waypoint
			date string
		)
		if err := rows.Scan(&date, &w.Company, &w.Location,
			&w.Counterparty, &w.MovementCode, &w.Batch); err != nil {
			return nil, fmt.Errorf("scanning waypoint of %s: %w", itemID, err)
		}
		if w.Date, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("waypoint date of %s: %w", itemID, err)
		}
		wpts = append(wpts, w)
	}
	return wpts, rows.Err()
}

// SaveItems replaces the persisted item set with the given snapshot, in one
// transaction.
func (r *ItemRepository) SaveItems(ctx context.Context, runID string, items []*entities.TrackedItem) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{`DELETE FROM waypoints`, `DELETE FROM items`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clearing previous snapshot: %w", err)
		}
	}

	insItem, err := tx.PrepareContext(ctx, `INSERT INTO items
		(id, run_id, country, sku, qty, state, unit_value, brand, category)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing item insert: %w", err)
	}
	defer insItem.Close()

	insWpt, err := tx.PrepareContext(ctx, `INSERT INTO waypoints
		(item_id, seq, date, company, location, counterparty, movement_code, batch)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing waypoint insert: %w", err)
	}
	defer insWpt.Close()

	for _, item := range items {
		if _, err := insItem.ExecContext(ctx, item.ID, runID, item.Country,
			string(item.SKU), item.Qty, item.State.String(),
			item.UnitValue.String(), item.Brand, item.Category); err != nil {
			return fmt.Errorf("inserting item %s: %w", item.ID, err)
		}
		for seq, w := range item.Waypoints {
			if _, err := insWpt.ExecContext(ctx, item.ID, seq, formatTime(w.Date),
				w.Company, w.Location, w.Counterparty, w.MovementCode, w.Batch); err != nil {
				return fmt.Errorf("inserting waypoint %d of %s: %w", seq, item.ID, err)
			}
		}
	}
	return tx.Commit()
}

// SaveMovements appends the run's ledger allocation state to the audit trail.
func (r *ItemRepository) SaveMovements(ctx context.Context, runID string, movements []entities.MovementAllocation) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	ins, err := tx.PrepareContext(ctx, `INSERT INTO movements
		(run_id, seq, date, company, country, document, po, special_stock,
		 movement_code, location, counterparty, brand, category, sku, batch,
		 qty, unit_value, unallocated, item_ids)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing movement insert: %w", err)
	}
	defer ins.Close()

	for seq, m := range movements {
		l := m.Line
		if _, err := ins.ExecContext(ctx, runID, seq, formatTime(l.Date),
			l.Company, l.Country, l.Document, string(l.PO), l.SpecialStock,
			l.MovementCode, l.Location, l.Counterparty, l.Brand, l.Category,
			string(l.SKU), l.Batch, l.Qty, l.UnitValue.String(),
			m.Unallocated, strings.Join(m.ItemIDs, ",")); err != nil {
			return fmt.Errorf("inserting movement %d: %w", seq, err)
		}
	}
	return tx.Commit()
}

// MovementsForRun returns the audit trail recorded for one run, in ledger
// order.
func (r *ItemRepository) MovementsForRun(ctx context.Context, runID string) ([]entities.MovementAllocation, error) {
	rows, err := r.store.db.QueryContext(ctx, `SELECT date, company, country,
		document, po, special_stock, movement_code, location, counterparty,
		brand, category, sku, batch, qty, unit_value, unallocated, item_ids
		FROM movements WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying movements: %w", err)
	}
	defer rows.Close()

	var out []entities.MovementAllocation
	for rows.Next() {
		var (
			m                  entities.MovementAllocation
			date, po, val, ids string
			sku                string
		)
		if err := rows.Scan(&date, &m.Line.Company, &m.Line.Country,
			&m.Line.Document, &po, &m.Line.SpecialStock, &m.Line.MovementCode,
			&m.Line.Location, &m.Line.Counterparty, &m.Line.Brand,
			&m.Line.Category, &sku, &m.Line.Batch, &m.Line.Qty, &val,
			&m.Unallocated, &ids); err != nil {
			return nil, fmt.Errorf("scanning movement: %w", err)
		}
		if m.Line.Date, err = parseTime(date); err != nil {
			return nil, fmt.Errorf("movement date: %w", err)
		}
		if m.Line.UnitValue, err = decimal.NewFromString(val); err != nil {
			return nil, fmt.Errorf("movement unit value: %w", err)
		}
		m.Line.PO = entities.PONumber(po)
		m.Line.SKU = entities.SKU(sku)
		if ids != "" {
			m.ItemIDs = strings.Split(ids, ",")
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
