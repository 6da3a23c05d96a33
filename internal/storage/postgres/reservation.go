package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/atelier/internal/domain/errors"
	"github.com/polkiloo/atelier/internal/domain/model"
)

const reservationColumns = `item_id, COALESCE(holder_id, ''), COALESCE(session_id, ''), created_at, expires_at`

// ownerPredicate matches the holder or session placeholders; empty identifiers never match.
func ownerPredicate(holderArg, sessionArg int) string {
	return fmt.Sprintf(`((NULLIF($%[1]d, '') IS NOT NULL AND holder_id = $%[1]d) OR (NULLIF($%[2]d, '') IS NOT NULL AND session_id = $%[2]d))`,
		holderArg, sessionArg)
}

var (
	ownedBy      = ownerPredicate(2, 3)
	ownedByFirst = ownerPredicate(1, 2)
)

func scanReservation(row pgx.Row) (model.Reservation, error) {
	var r model.Reservation
	err := row.Scan(&r.ItemID, &r.HolderID, &r.SessionID, &r.CreatedAt, &r.ExpiresAt)
	return r, err
}

func collectReservations(rows pgx.Rows) ([]model.Reservation, error) {
	defer rows.Close()

	var result []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Hold purges a lapsed hold on the item, then extends the caller's hold or inserts a new row.
// The insert is the decision point: a primary key violation means another holder won.
func (r *reservationRepository) Hold(ctx context.Context, res model.Reservation, now time.Time) (*model.Reservation, bool, error) {
	const purgeQuery = `DELETE FROM reservations WHERE item_id=$1 AND expires_at <= $2`
	extendQuery := `UPDATE reservations
                         SET expires_at = GREATEST(expires_at, $4),
                             holder_id = COALESCE(NULLIF($2, ''), holder_id),
                             session_id = COALESCE(NULLIF($3, ''), session_id)
                         WHERE item_id=$1 AND ` + ownedBy + `
                         RETURNING ` + reservationColumns
	const insertQuery = `INSERT INTO reservations (item_id, holder_id, session_id, created_at, expires_at)
                         VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5)
                         RETURNING ` + reservationColumns

	var (
		result  model.Reservation
		created bool
	)
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, purgeQuery, res.ItemID, now); err != nil {
			return err
		}

		extended, err := scanReservation(tx.QueryRow(ctx, extendQuery, res.ItemID, res.HolderID, res.SessionID, res.ExpiresAt))
		if err == nil {
			result = extended
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		inserted, err := scanReservation(tx.QueryRow(ctx, insertQuery, res.ItemID, res.HolderID, res.SessionID, now, res.ExpiresAt))
		if err != nil {
			if _, ok := uniqueConstraint(err); ok {
				return domainErrors.ErrConflict
			}
			return err
		}
		result = inserted
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &result, created, nil
}

func (r *reservationRepository) Get(ctx context.Context, itemID int64, now time.Time) (*model.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE item_id=$1 AND expires_at > $2`
	res, err := scanReservation(r.storage.pool.QueryRow(ctx, query, itemID, now))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrNotFound
		}
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepository) ListByItems(ctx context.Context, itemIDs []int64, now time.Time) ([]model.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations
                   WHERE item_id = ANY($1) AND expires_at > $2 ORDER BY item_id`
	rows, err := r.storage.pool.Query(ctx, query, itemIDs, now)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (r *reservationRepository) ListByOwner(ctx context.Context, holderID, sessionID string, now time.Time) ([]model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations
              WHERE ` + ownedByFirst + ` AND expires_at > $3 ORDER BY created_at`
	rows, err := r.storage.pool.Query(ctx, query, holderID, sessionID, now)
	if err != nil {
		return nil, err
	}
	return collectReservations(rows)
}

func (r *reservationRepository) ExtendOwned(ctx context.Context, itemIDs []int64, holderID, sessionID string, expiresAt, now time.Time) ([]int64, error) {
	query := `UPDATE reservations SET expires_at = GREATEST(expires_at, $4)
                   WHERE item_id = ANY($1) AND ` + ownedBy + ` AND expires_at > $5
                   RETURNING item_id`

	var missing []int64
	err := r.storage.WithinTransaction(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, itemIDs, holderID, sessionID, expiresAt, now)
		if err != nil {
			return err
		}
		defer rows.Close()

		extended := make(map[int64]struct{}, len(itemIDs))
		for rows.Next() {
			var id int64
			if err := rows.Scan(&id); err != nil {
				return err
			}
			extended[id] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			return err
		}

		for _, id := range itemIDs {
			if _, ok := extended[id]; !ok {
				missing = append(missing, id)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("holds lapsed for %v: %w", missing, domainErrors.ErrConflict)
		}
		return nil
	})
	if err != nil {
		return missing, err
	}
	return nil, nil
}

func (r *reservationRepository) Delete(ctx context.Context, itemID int64, holderID, sessionID string) error {
	query := `DELETE FROM reservations WHERE item_id=$1 AND ` + ownedBy
	tag, err := r.storage.pool.Exec(ctx, query, itemID, holderID, sessionID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotFound
	}
	return nil
}

func (r *reservationRepository) DeleteByOwner(ctx context.Context, holderID, sessionID string) (int64, error) {
	query := `DELETE FROM reservations WHERE ` + ownedByFirst
	tag, err := r.storage.pool.Exec(ctx, query, holderID, sessionID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *reservationRepository) DeleteOwnedItems(ctx context.Context, itemIDs []int64, holderID, sessionID string) (int64, error) {
	query := `DELETE FROM reservations WHERE item_id = ANY($1) AND ` + ownedBy
	tag, err := r.storage.pool.Exec(ctx, query, itemIDs, holderID, sessionID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *reservationRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `DELETE FROM reservations WHERE expires_at < $1`
	tag, err := r.storage.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
