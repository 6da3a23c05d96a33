package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/atelier/internal/domain/errors"
	"github.com/polkiloo/atelier/internal/domain/model"
)

// orderNumberLock is the advisory lock namespace for per-year order number allocation.
const orderNumberLock int64 = 0x4f524400_00000000

// itemClaimLock is the advisory lock namespace serializing order creation per item.
const itemClaimLock int64 = 0x4954454d_00000000

const orderColumns = `id, number, COALESCE(holder_id, ''), COALESCE(session_id, ''), payment_reference,
                      contact, shipping_address, items, subtotal, shipping_cost, tax, total, status,
                      carrier, tracking_number, created_at, updated_at, paid_at, shipped_at, delivered_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o                            model.Order
		contact, address, itemsBytes []byte
	)
	err := row.Scan(
		&o.ID, &o.Number, &o.HolderID, &o.SessionID, &o.PaymentReference,
		&contact, &address, &itemsBytes,
		&o.Subtotal, &o.ShippingCost, &o.Tax, &o.Total, &o.Status,
		&o.Carrier, &o.TrackingNumber,
		&o.CreatedAt, &o.UpdatedAt, &o.PaidAt, &o.ShippedAt, &o.DeliveredAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(contact, &o.Contact); err != nil {
		return nil, fmt.Errorf("decode contact: %w", err)
	}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return nil, fmt.Errorf("decode shipping address: %w", err)
	}
	if err := json.Unmarshal(itemsBytes, &o.Items); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}
	return &o, nil
}

func nullableStatus(s *model.OrderStatus) any {
	if s == nil {
		return nil
	}
	return string(*s)
}

func insertHistory(ctx context.Context, tx pgx.Tx, orderID int64, from *model.OrderStatus, change model.StatusChange) error {
	const query = `INSERT INTO order_status_history (order_id, status_from, status_to, changed_by, note, created_at)
                   VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := tx.Exec(ctx, query, orderID, nullableStatus(from), string(change.To), change.ChangedBy, change.Note, change.At)
	return err
}

// Create allocates the next number of the order's year and inserts the order with its initial history row.
func (r *orderRepository) Create(ctx context.Context, order *model.Order, changedBy string) (*model.Order, error) {
	const highestQuery = `SELECT number FROM orders WHERE number LIKE $1
                          ORDER BY length(number) DESC, number DESC LIMIT 1`
	const insertQuery = `INSERT INTO orders (number, holder_id, session_id, payment_reference, contact,
                             shipping_address, items, subtotal, shipping_cost, tax, total, status, created_at, updated_at)
                         VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
                         RETURNING id`

	contact, err := json.Marshal(order.Contact)
	if err != nil {
		return nil, fmt.Errorf("encode contact: %w", err)
	}
	address, err := json.Marshal(order.ShippingAddress)
	if err != nil {
		return nil, fmt.Errorf("encode shipping address: %w", err)
	}
	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("encode items: %w", err)
	}

	created := *order
	year := order.CreatedAt.Year()

	err = r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if err := claimItems(ctx, tx, order.ItemIDs()); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, orderNumberLock+int64(year)); err != nil {
			return err
		}

		var highest string
		err := tx.QueryRow(ctx, highestQuery, model.OrderNumberPrefix(year)+"%").Scan(&highest)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		created.Number = model.NextOrderNumber(highest, year)

		err = tx.QueryRow(ctx, insertQuery,
			created.Number, created.HolderID, created.SessionID, created.PaymentReference,
			contact, address, items,
			created.Subtotal, created.ShippingCost, created.Tax, created.Total,
			string(created.Status), created.CreatedAt,
		).Scan(&created.ID)
		if err != nil {
			if name, ok := uniqueConstraint(err); ok {
				if name == "orders_payment_reference_key" {
					return domainErrors.ErrAlreadyExists
				}
				return domainErrors.ErrConflict
			}
			return err
		}

		return insertHistory(ctx, tx, created.ID, nil, model.StatusChange{
			To:        created.Status,
			ChangedBy: changedBy,
			Note:      "order created",
			At:        created.CreatedAt,
		})
	})
	if err != nil {
		return nil, err
	}

	created.UpdatedAt = created.CreatedAt
	return &created, nil
}

// claimItems locks the items in ascending order and fails with UnavailableItemsError
// when any of them already belongs to an order that is not cancelled.
func claimItems(ctx context.Context, tx pgx.Tx, itemIDs []int64) error {
	const lockQuery = `SELECT pg_advisory_xact_lock(k) FROM unnest($1::bigint[]) AS k`
	const soldQuery = `SELECT DISTINCT (line->>'item_id')::bigint
                       FROM orders, jsonb_array_elements(items) AS line
                       WHERE status <> 'cancelled' AND (line->>'item_id')::bigint = ANY($1)`

	ids := slices.Clone(itemIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	keys := make([]int64, len(ids))
	for i, id := range ids {
		keys[i] = itemClaimLock + id
	}

	if _, err := tx.Exec(ctx, lockQuery, keys); err != nil {
		return err
	}

	rows, err := tx.Query(ctx, soldQuery, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	sold := make(map[int64]string)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		sold[id] = string(model.AvailabilitySold)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(sold) > 0 {
		return &domainErrors.UnavailableItemsError{Reasons: sold}
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id int64) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetByPaymentReference(ctx context.Context, reference string) (*model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders WHERE payment_reference=$1`
	order, err := scanOrder(r.storage.pool.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

// ListOpenByItem returns orders containing the item that are neither cancelled nor delivered.
// Delivered orders are included on request.
func (r *orderRepository) ListOpenByItem(ctx context.Context, itemID int64, includeDelivered bool) ([]model.Order, error) {
	const query = `SELECT ` + orderColumns + ` FROM orders
                   WHERE items @> $1::jsonb AND status <> 'cancelled' AND ($2 OR status <> 'delivered')
                   ORDER BY id`

	probe, err := json.Marshal([]map[string]int64{{"item_id": itemID}})
	if err != nil {
		return nil, err
	}

	rows, err := r.storage.pool.Query(ctx, query, string(probe), includeDelivered)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ApplyStatusChange moves the order from change.From to change.To only if it is still in change.From.
func (r *orderRepository) ApplyStatusChange(ctx context.Context, change model.StatusChange) (*model.Order, error) {
	const updateQuery = `UPDATE orders SET status=$3, updated_at=$4,
                             paid_at=COALESCE($5, paid_at),
                             shipped_at=COALESCE($6, shipped_at),
                             delivered_at=COALESCE($7, delivered_at),
                             carrier=COALESCE($8, carrier),
                             tracking_number=COALESCE($9, tracking_number),
                             payment_reference=COALESCE($10, payment_reference)
                         WHERE id=$1 AND status=$2
                         RETURNING ` + orderColumns
	const statusQuery = `SELECT status FROM orders WHERE id=$1`

	var updated *model.Order
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		order, err := scanOrder(tx.QueryRow(ctx, updateQuery,
			change.OrderID, string(change.From), string(change.To), change.At,
			change.PaidAt, change.ShippedAt, change.DeliveredAt,
			change.Carrier, change.TrackingNumber, change.PaymentReference,
		))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return r.explainMissedUpdate(ctx, tx, statusQuery, change)
			}
			if name, ok := uniqueConstraint(err); ok && name == "orders_payment_reference_key" {
				return domainErrors.ErrAlreadyExists
			}
			return err
		}

		from := change.From
		if err := insertHistory(ctx, tx, order.ID, &from, change); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *orderRepository) explainMissedUpdate(ctx context.Context, tx pgx.Tx, query string, change model.StatusChange) error {
	var current model.OrderStatus
	if err := tx.QueryRow(ctx, query, change.OrderID).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainErrors.ErrNotFound
		}
		return err
	}
	return fmt.Errorf("order %d is %s, not %s: %w", change.OrderID, current, change.From, domainErrors.ErrInvalidTransition)
}

func (r *orderRepository) History(ctx context.Context, orderID int64) ([]model.StatusHistoryEntry, error) {
	const query = `SELECT id, order_id, status_from, status_to, changed_by, note, created_at
                   FROM order_status_history WHERE order_id=$1 ORDER BY created_at, id`
	rows, err := r.storage.pool.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []model.StatusHistoryEntry
	for rows.Next() {
		var entry model.StatusHistoryEntry
		if err := rows.Scan(&entry.ID, &entry.OrderID, &entry.StatusFrom, &entry.StatusTo, &entry.ChangedBy, &entry.Note, &entry.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
