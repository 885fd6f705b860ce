package store

import (
    "context"
    "errors"
    "time"

    "lastmile/internal/model"
)

// Store is the persistence interface used by the API server.
type Store interface {
    // Optimization runs
    SaveRun(ctx context.Context, run model.RunSummary, response []byte) error
    GetRun(ctx context.Context, tenantID, id string) (model.RunSummary, []byte, error)
    ListRuns(ctx context.Context, tenantID, cursor string, limit int) ([]model.RunSummary, string, error)
    RunStats(ctx context.Context, tenantID string) (map[string]any, error)

    // Subscriptions
    CreateSubscription(ctx context.Context, req model.SubscriptionRequest) (model.Subscription, error)
    GetSubscriptionsForEvent(ctx context.Context, tenantID, eventType string) ([]model.Subscription, error)
    ListSubscriptions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Subscription, string, error)
    DeleteSubscription(ctx context.Context, tenantID, id string) error

    // Webhook deliveries
    EnqueueWebhook(ctx context.Context, tenantID, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
    FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
    MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode int, latencyMs int) error
    FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode int, latencyMs int) error
    ListWebhookDeliveries(ctx context.Context, tenantID, status, cursor string, limit int) ([]map[string]any, string, error)
    RetryWebhookDelivery(ctx context.Context, tenantID, id string) error
}

var ErrNotFound = errors.New("not found")
