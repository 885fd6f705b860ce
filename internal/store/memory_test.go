package store

import (
    "context"
    "testing"
    "time"

    "lastmile/internal/model"
)

func TestMemoryRunLifecycle(t *testing.T) {
    m := NewMemory()
    ctx := context.Background()
    run := model.RunSummary{TenantID: "t1", Objective: model.ObjectiveMinimizeCost, RouteCount: 2, DroneCount: 1, TotalCost: 42.5, TotalDistanceKm: 85}
    if err := m.SaveRun(ctx, run, []byte(`{"ok":true}`)); err != nil { t.Fatalf("SaveRun: %v", err) }
    items, next, err := m.ListRuns(ctx, "t1", "", 10)
    if err != nil { t.Fatalf("ListRuns: %v", err) }
    if len(items) != 1 || next != "" { t.Fatalf("got %d items, next=%q", len(items), next) }
    got, resp, err := m.GetRun(ctx, "t1", items[0].ID)
    if err != nil { t.Fatalf("GetRun: %v", err) }
    if got.TotalCost != 42.5 || string(resp) != `{"ok":true}` { t.Fatalf("round trip mismatch: %+v %s", got, resp) }
    if _, _, err := m.GetRun(ctx, "other", items[0].ID); err != ErrNotFound {
        t.Fatalf("cross-tenant read: err=%v, want ErrNotFound", err)
    }
    stats, err := m.RunStats(ctx, "t1")
    if err != nil { t.Fatalf("RunStats: %v", err) }
    if stats["runs"] != 1 || stats["avg_cost_per_run"] != 42.5 { t.Fatalf("stats = %v", stats) }
}

func TestMemoryListRunsCursor(t *testing.T) {
    m := NewMemory()
    ctx := context.Background()
    for i := 0; i < 5; i++ {
        if err := m.SaveRun(ctx, model.RunSummary{TenantID: "t1"}, nil); err != nil { t.Fatal(err) }
    }
    page1, next, _ := m.ListRuns(ctx, "t1", "", 2)
    if len(page1) != 2 || next == "" { t.Fatalf("page1 len=%d next=%q", len(page1), next) }
    page2, _, _ := m.ListRuns(ctx, "t1", next, 2)
    if len(page2) != 2 || page2[0].ID == page1[0].ID { t.Fatalf("page2 overlaps page1") }
}

func TestMemorySubscriptions(t *testing.T) {
    m := NewMemory()
    ctx := context.Background()
    s, err := m.CreateSubscription(ctx, model.SubscriptionRequest{TenantID: "t1", URL: "https://example.com/hook", Events: []string{"optimization.completed"}, Secret: "s"})
    if err != nil { t.Fatalf("CreateSubscription: %v", err) }
    subs, _ := m.GetSubscriptionsForEvent(ctx, "t1", "optimization.completed")
    if len(subs) != 1 || subs[0].ID != s.ID { t.Fatalf("subs = %+v", subs) }
    if subs, _ := m.GetSubscriptionsForEvent(ctx, "t1", "alert.raised"); len(subs) != 0 {
        t.Fatalf("unexpected subs for unsubscribed event: %+v", subs)
    }
    if err := m.DeleteSubscription(ctx, "t1", s.ID); err != nil { t.Fatal(err) }
    if subs, _ := m.GetSubscriptionsForEvent(ctx, "t1", "optimization.completed"); len(subs) != 0 {
        t.Fatalf("subscription survived delete: %+v", subs)
    }
}

func TestMemoryWebhookQueue(t *testing.T) {
    m := NewMemory()
    ctx := context.Background()
    id, err := m.EnqueueWebhook(ctx, "t1", "sub1", "optimization.completed", "https://example.com/hook", "sec", []byte(`{}`))
    if err != nil { t.Fatalf("EnqueueWebhook: %v", err) }
    due, _ := m.FetchDueWebhookDeliveries(ctx, 10)
    if len(due) != 1 || due[0].ID != id { t.Fatalf("due = %+v", due) }

    // Failed attempt schedules a retry in the future
    next := time.Now().Add(time.Hour)
    if err := m.MarkWebhookDelivery(ctx, id, false, &next, "boom", 500, 10); err != nil { t.Fatal(err) }
    if due, _ := m.FetchDueWebhookDeliveries(ctx, 10); len(due) != 0 {
        t.Fatalf("retry due too early: %+v", due)
    }

    // Manual retry makes it due again, then success removes it from the queue
    if err := m.RetryWebhookDelivery(ctx, "t1", id); err != nil { t.Fatal(err) }
    due, _ = m.FetchDueWebhookDeliveries(ctx, 10)
    if len(due) != 1 { t.Fatalf("retried delivery not due") }
    if err := m.MarkWebhookDelivery(ctx, id, true, nil, "", 200, 5); err != nil { t.Fatal(err) }
    if due, _ := m.FetchDueWebhookDeliveries(ctx, 10); len(due) != 0 {
        t.Fatalf("delivered webhook still due: %+v", due)
    }
    items, _, _ := m.ListWebhookDeliveries(ctx, "t1", "delivered", "", 10)
    if len(items) != 1 { t.Fatalf("delivered list = %+v", items) }
}

func TestMemoryListWebhookDeliveriesCursor(t *testing.T) {
    m := NewMemory()
    ctx := context.Background()
    for i := 0; i < 5; i++ {
        if _, err := m.EnqueueWebhook(ctx, "t1", "sub1", "alert.raised", "https://example.com/hook", "", []byte(`{}`)); err != nil {
            t.Fatalf("EnqueueWebhook: %v", err)
        }
    }

    page1, next, err := m.ListWebhookDeliveries(ctx, "t1", "", "", 2)
    if err != nil { t.Fatal(err) }
    if len(page1) != 2 || next == "" { t.Fatalf("page1 = %d items, next = %q", len(page1), next) }

    page2, next2, err := m.ListWebhookDeliveries(ctx, "t1", "", next, 2)
    if err != nil { t.Fatal(err) }
    if len(page2) != 2 || next2 == "" { t.Fatalf("page2 = %d items, next = %q", len(page2), next2) }
    if page2[0]["id"] == page1[0]["id"] { t.Fatal("cursor did not advance") }

    page3, next3, err := m.ListWebhookDeliveries(ctx, "t1", "", next2, 2)
    if err != nil { t.Fatal(err) }
    if len(page3) != 1 || next3 != "" { t.Fatalf("page3 = %d items, next = %q", len(page3), next3) }
}
