package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/wandering-ai/wecom-agent/internal/relay/domain"
	"github.com/wandering-ai/wecom-agent/internal/relay/store"
	"github.com/wandering-ai/wecom-agent/pkg/idx"
)

type deliveriesRepo struct {
	db *sql.DB
}

const deliveryColumns = `id, api_key, msg_type, to_user, to_party, to_tag, agent_id,
	status, errcode, errmsg, msg_id, attempts,
	invalid_user, invalid_party, invalid_tag, unlicensed_user, created_at`

func (r *deliveriesRepo) CreateDelivery(ctx context.Context, d domain.Delivery) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO deliveries (`+deliveryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.APIKey, d.MsgType, d.ToUser, d.ToParty, d.ToTag, d.AgentID,
		string(d.Status), d.ErrCode, d.ErrMsg, d.MsgID, d.Attempts,
		d.InvalidUser, d.InvalidParty, d.InvalidTag, d.UnlicensedUser, toMillis(d.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *deliveriesRepo) GetDeliveryByID(ctx context.Context, id idx.ID) (domain.Delivery, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries WHERE id = ?`, id)

	d, err := scanDelivery(row)
	if err != nil {
		return domain.Delivery{}, mapNotFound(err)
	}
	return d, nil
}

func (r *deliveriesRepo) ListDeliveries(ctx context.Context, p store.ListDeliveriesParams) ([]domain.Delivery, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = store.DefaultListLimit
	}
	limit = min(limit, store.MaxListLimit)

	var (
		rows *sql.Rows
		err  error
	)
	if p.Before.IsZero() {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+deliveryColumns+` FROM deliveries ORDER BY id DESC LIMIT ?`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx,
			`SELECT `+deliveryColumns+` FROM deliveries WHERE id < ? ORDER BY id DESC LIMIT ?`,
			p.Before, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.Delivery, 0, limit)
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *deliveriesRepo) DeleteDeliveriesBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deliveries WHERE created_at < ?`, toMillis(t))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDelivery(row rowScanner) (domain.Delivery, error) {
	var (
		d         domain.Delivery
		status    string
		createdAt int64
	)
	err := row.Scan(
		&d.ID, &d.APIKey, &d.MsgType, &d.ToUser, &d.ToParty, &d.ToTag, &d.AgentID,
		&status, &d.ErrCode, &d.ErrMsg, &d.MsgID, &d.Attempts,
		&d.InvalidUser, &d.InvalidParty, &d.InvalidTag, &d.UnlicensedUser, &createdAt,
	)
	if err != nil {
		return domain.Delivery{}, err
	}

	d.Status = domain.DeliveryStatus(status)
	d.CreatedAt = fromMillis(createdAt)
	return d, nil
}
