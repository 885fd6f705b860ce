package store

// WebhookDelivery is one queued outbound webhook attempt.
type WebhookDelivery struct {
    ID             string
    TenantID       string
    SubscriptionID string
    EventType      string
    URL            string
    Secret         string
    Payload        []byte
    Status         string // pending, retry, delivered, failed
    Attempts       int
}

