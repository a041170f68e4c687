package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var (
	Deliveries = &DeliveryOperations{}
	Webhooks   = &WebhookOperations{}
)

type DeliveryOperations struct{}

func (o *DeliveryOperations) CreateDelivery(ctx context.Context, d *Delivery) error {
	result, err := GetDB().ExecContext(ctx, InsertDelivery,
		d.JobID, d.Mode, d.Target, boolToInt(d.Success),
		d.Message, d.Error, d.DurationMS, d.SubmittedBy)
	if err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get delivery id: %w", err)
	}
	d.ID = id
	return nil
}

func (o *DeliveryOperations) GetDeliveryByJobID(ctx context.Context, jobID string) (*Delivery, error) {
	d := &Delivery{}
	var success int
	err := GetDB().QueryRowContext(ctx, GetDeliveryByJobID, jobID).Scan(
		&d.ID, &d.JobID, &d.Mode, &d.Target, &success,
		&d.Message, &d.Error, &d.DurationMS, &d.SubmittedBy, &d.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get delivery: %w", err)
	}
	d.Success = success == 1
	return d, nil
}

func (o *DeliveryOperations) ListDeliveries(ctx context.Context, filter DeliveryFilter) ([]*Delivery, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}

	var rows *sql.Rows
	var err error
	if filter.Mode != "" {
		rows, err = GetDB().QueryContext(ctx, ListDeliveriesByMode, filter.Mode, filter.Limit, filter.Offset)
	} else {
		rows, err = GetDB().QueryContext(ctx, ListDeliveries, filter.Limit, filter.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []*Delivery
	for rows.Next() {
		d := &Delivery{}
		var success int
		if err := rows.Scan(
			&d.ID, &d.JobID, &d.Mode, &d.Target, &success,
			&d.Message, &d.Error, &d.DurationMS, &d.SubmittedBy, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		d.Success = success == 1
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

func (o *DeliveryOperations) PruneBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := GetDB().ExecContext(ctx, PruneDeliveries, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune deliveries: %w", err)
	}
	return result.RowsAffected()
}

type WebhookOperations struct{}

func (o *WebhookOperations) CreateWebhook(ctx context.Context, w *Webhook) error {
	result, err := GetDB().ExecContext(ctx, InsertWebhook,
		w.Name, w.URL, w.Secret, w.EventsJSON, boolToInt(w.Enabled))
	if err != nil {
		return fmt.Errorf("failed to create webhook: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get webhook id: %w", err)
	}
	w.ID = id
	return nil
}

func (o *WebhookOperations) GetWebhookByID(ctx context.Context, id int64) (*Webhook, error) {
	w := &Webhook{}
	var enabled int
	err := GetDB().QueryRowContext(ctx, GetWebhookByID, id).Scan(
		&w.ID, &w.Name, &w.URL, &w.Secret, &w.EventsJSON, &enabled, &w.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to get webhook: %w", err)
	}
	w.Enabled = enabled == 1
	return w, nil
}

func (o *WebhookOperations) ListWebhooks(ctx context.Context) ([]*Webhook, error) {
	return o.queryWebhooks(ctx, ListWebhooks)
}

func (o *WebhookOperations) ListWebhooksForEvent(ctx context.Context, event string) ([]*Webhook, error) {
	pattern := fmt.Sprintf("%%%q%%", event)
	return o.queryWebhooks(ctx, ListWebhooksForEvent, pattern)
}

func (o *WebhookOperations) DeleteWebhook(ctx context.Context, id int64) error {
	_, err := GetDB().ExecContext(ctx, DeleteWebhook, id)
	if err != nil {
		return fmt.Errorf("failed to delete webhook: %w", err)
	}
	return nil
}

func (o *WebhookOperations) queryWebhooks(ctx context.Context, query string, args ...any) ([]*Webhook, error) {
	rows, err := GetDB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list webhooks: %w", err)
	}
	defer rows.Close()

	var webhooks []*Webhook
	for rows.Next() {
		w := &Webhook{}
		var enabled int
		if err := rows.Scan(
			&w.ID, &w.Name, &w.URL, &w.Secret, &w.EventsJSON, &enabled, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan webhook: %w", err)
		}
		w.Enabled = enabled == 1
		webhooks = append(webhooks, w)
	}
	return webhooks, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
