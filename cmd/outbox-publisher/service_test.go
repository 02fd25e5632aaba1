package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/localbasket/localbasket-backend/pkg/config"
	"github.com/localbasket/localbasket-backend/pkg/db/models"
	"github.com/localbasket/localbasket-backend/pkg/logger"
)

type stubOutboxRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (s *stubOutboxRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if len(s.events) > limit {
		return s.events[:limit], nil
	}
	return s.events, nil
}

func (s *stubOutboxRepo) MarkPublished(id uuid.UUID) error {
	s.published = append(s.published, id)
	return nil
}

func (s *stubOutboxRepo) MarkFailed(id uuid.UUID, err error) error {
	s.failed = append(s.failed, id)
	return nil
}

type stubBroker struct {
	channel  string
	payloads [][]byte
	failFor  map[uuid.UUID]bool
	byID     map[string]uuid.UUID
}

func (s *stubBroker) Ping(context.Context) error { return nil }

func (s *stubBroker) Publish(_ context.Context, channel string, payload any) error {
	raw := payload.([]byte)
	var envelope struct {
		AggregateID string `json:"aggregate_id"`
	}
	_ = json.Unmarshal(raw, &envelope)
	if id, ok := s.byID[envelope.AggregateID]; ok && s.failFor[id] {
		return errors.New("broker unavailable")
	}
	s.channel = channel
	s.payloads = append(s.payloads, raw)
	return nil
}

func testService(t *testing.T, repo *stubOutboxRepo, b *stubBroker) *Service {
	t.Helper()
	cfg := &config.Config{}
	cfg.Outbox.Channel = "lb-order-events"
	svc, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		Repository: repo,
		Broker:     b,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func event(aggregateID uuid.UUID) models.OutboxEvent {
	payload, _ := json.Marshal(map[string]any{"aggregate_id": aggregateID.String()})
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     "order.created",
		AggregateType: "order",
		AggregateID:   aggregateID,
		Payload:       payload,
	}
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	first := event(uuid.New())
	second := event(uuid.New())
	repo := &stubOutboxRepo{events: []models.OutboxEvent{first, second}}
	b := &stubBroker{}

	svc := testService(t, repo, b)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if b.channel != "lb-order-events" {
		t.Fatalf("channel = %q", b.channel)
	}
	if len(b.payloads) != 2 {
		t.Fatalf("published payloads = %d, want 2", len(b.payloads))
	}
	if len(repo.published) != 2 || repo.published[0] != first.ID || repo.published[1] != second.ID {
		t.Fatalf("published marks = %v", repo.published)
	}
}

func TestProcessBatchMarksFailureAndContinues(t *testing.T) {
	okEvent := event(uuid.New())
	badAggregate := uuid.New()
	badEvent := event(badAggregate)
	repo := &stubOutboxRepo{events: []models.OutboxEvent{badEvent, okEvent}}
	b := &stubBroker{
		failFor: map[uuid.UUID]bool{badAggregate: true},
		byID:    map[string]uuid.UUID{badAggregate.String(): badAggregate},
	}

	svc := testService(t, repo, b)

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to be processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != badEvent.ID {
		t.Fatalf("failed marks = %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != okEvent.ID {
		t.Fatalf("published marks = %v", repo.published)
	}
}

func TestProcessBatchEmptyQueue(t *testing.T) {
	repo := &stubOutboxRepo{}
	svc := testService(t, repo, &stubBroker{})

	processed, err := svc.processBatch(context.Background())
	if err != nil {
		t.Fatalf("processBatch: %v", err)
	}
	if processed {
		t.Fatal("empty queue should report not processed")
	}
}

func TestNextBackoffDoublesAndCaps(t *testing.T) {
	base := 500 * time.Millisecond

	next := nextBackoff(base, base, maxBackoff)
	if next != time.Second {
		t.Fatalf("first backoff = %s, want 1s", next)
	}

	current := base
	for i := 0; i < 10; i++ {
		current = nextBackoff(current, base, maxBackoff)
	}
	if current != maxBackoff {
		t.Fatalf("backoff = %s, want cap %s", current, maxBackoff)
	}
}
