package db

const (
	InsertDelivery = `
		INSERT INTO deliveries (job_id, mode, target, success, message, error, duration_ms, submitted_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	GetDeliveryByJobID = `
		SELECT id, job_id, mode, target, success, message, error, duration_ms, submitted_by, created_at
		FROM deliveries WHERE job_id = ?
	`

	ListDeliveries = `
		SELECT id, job_id, mode, target, success, message, error, duration_ms, submitted_by, created_at
		FROM deliveries ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?
	`

	ListDeliveriesByMode = `
		SELECT id, job_id, mode, target, success, message, error, duration_ms, submitted_by, created_at
		FROM deliveries WHERE mode = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?
	`

	PruneDeliveries = `
		DELETE FROM deliveries WHERE created_at < ?
	`
)

const (
	InsertWebhook = `
		INSERT INTO webhooks (name, url, secret, events_json, enabled)
		VALUES (?, ?, ?, ?, ?)
	`

	GetWebhookByID = `
		SELECT id, name, url, secret, events_json, enabled, created_at
		FROM webhooks WHERE id = ?
	`

	ListWebhooks = `
		SELECT id, name, url, secret, events_json, enabled, created_at
		FROM webhooks ORDER BY name ASC
	`

	ListWebhooksForEvent = `
		SELECT id, name, url, secret, events_json, enabled, created_at
		FROM webhooks WHERE enabled = 1 AND events_json LIKE ?
	`

	DeleteWebhook = `DELETE FROM webhooks WHERE id = ?`
)
