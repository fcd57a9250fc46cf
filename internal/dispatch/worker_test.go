package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"MediNotify/internal/db"
	"MediNotify/internal/models"
	"MediNotify/internal/provider"
)

type fakeStore struct {
	logs      map[uuid.UUID]*models.NotificationLog
	templates map[uuid.UUID]*models.Template
	provider  *models.ProviderConfig

	insertErr   error
	providerErr error

	sentIDs   []uuid.UUID
	failedIDs []uuid.UUID
	failedMsg string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		logs:      map[uuid.UUID]*models.NotificationLog{},
		templates: map[uuid.UUID]*models.Template{},
		provider: &models.ProviderConfig{
			ID:           uuid.New(),
			ProviderType: models.ProviderResend,
			Settings:     map[string]string{"api_key": "test"},
			IsActive:     true,
			IsDefault:    true,
		},
	}
}

func (f *fakeStore) InsertLog(_ context.Context, log *models.NotificationLog) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	log.ID = uuid.New()
	f.logs[log.ID] = log
	return nil
}

func (f *fakeStore) GetLog(_ context.Context, id uuid.UUID) (*models.NotificationLog, error) {
	log, ok := f.logs[id]
	if !ok {
		return nil, db.ErrLogNotFound
	}
	return log, nil
}

func (f *fakeStore) GetTemplate(_ context.Context, id uuid.UUID) (*models.Template, error) {
	t, ok := f.templates[id]
	if !ok {
		return nil, db.ErrTemplateNotFound
	}
	return t, nil
}

func (f *fakeStore) GetDefaultProvider(_ context.Context) (*models.ProviderConfig, error) {
	if f.providerErr != nil {
		return nil, f.providerErr
	}
	return f.provider, nil
}

func (f *fakeStore) MarkSent(_ context.Context, id uuid.UUID) (bool, error) {
	log, ok := f.logs[id]
	if !ok || log.Status != models.StatusPending {
		return false, nil
	}
	log.Status = models.StatusSent
	f.sentIDs = append(f.sentIDs, id)
	return true, nil
}

func (f *fakeStore) MarkFailed(_ context.Context, id uuid.UUID, msg string) (bool, error) {
	log, ok := f.logs[id]
	if !ok || log.Status != models.StatusPending {
		return false, nil
	}
	log.Status = models.StatusFailed
	log.ErrorMessage = msg
	f.failedIDs = append(f.failedIDs, id)
	f.failedMsg = msg
	return true, nil
}

type spySender struct {
	calls   int
	lastMsg provider.Message
	err     error
}

func (s *spySender) Send(_ context.Context, msg provider.Message) (string, error) {
	s.calls++
	s.lastMsg = msg
	if s.err != nil {
		return "", s.err
	}
	return "prov-1", nil
}

func newTestWorker(store *fakeStore, sender *spySender) *Worker {
	return &Worker{
		Store: store,
		Resolve: func(models.ProviderConfig) (provider.Sender, error) {
			return sender, nil
		},
		Log: zap.NewNop(),
	}
}

func seedLog(store *fakeStore, status models.LogStatus, active bool) *models.NotificationLog {
	tmplID := uuid.New()
	store.templates[tmplID] = &models.Template{
		ID:           tmplID,
		EventTrigger: "order_confirmation",
		Subject:      "Order {{orderId}} confirmed",
		BodyHTML:     "<p>Thanks {{customerName}}, total {{grandTotal}}</p>",
		IsActive:     active,
	}
	log := &models.NotificationLog{
		ID:             uuid.New(),
		TemplateID:     tmplID,
		RecipientEmail: "jane@example.com",
		RecipientName:  "Jane Doe",
		ContextData: map[string]interface{}{
			"orderId":      "#ORD-1",
			"customerName": "Jane Doe",
			"grandTotal":   59.98,
		},
		Status: status,
	}
	store.logs[log.ID] = log
	return log
}

func TestProcessSendsAndMarksSent(t *testing.T) {
	store := newFakeStore()
	sender := &spySender{}
	w := newTestWorker(store, sender)
	log := seedLog(store, models.StatusPending, true)

	out := w.Process(context.Background(), log)

	if out.Kind != OutcomeSent {
		t.Fatalf("kind = %s, err = %v", out.Kind, out.Err)
	}
	if out.ProviderID != "prov-1" {
		t.Fatalf("provider id = %q", out.ProviderID)
	}
	if sender.calls != 1 {
		t.Fatalf("sender calls = %d", sender.calls)
	}
	if sender.lastMsg.Subject != "Order #ORD-1 confirmed" {
		t.Fatalf("subject = %q", sender.lastMsg.Subject)
	}
	if sender.lastMsg.HTML != "<p>Thanks Jane Doe, total 59.98</p>" {
		t.Fatalf("html = %q", sender.lastMsg.HTML)
	}
	if len(store.sentIDs) != 1 || store.sentIDs[0] != log.ID {
		t.Fatalf("sent ids = %v", store.sentIDs)
	}
}

func TestProcessNonPendingIsNoOp(t *testing.T) {
	store := newFakeStore()
	sender := &spySender{}
	w := newTestWorker(store, sender)
	log := seedLog(store, models.StatusSent, true)

	out := w.Process(context.Background(), log)

	if out.Kind != OutcomeSkipped {
		t.Fatalf("kind = %s", out.Kind)
	}
	if sender.calls != 0 {
		t.Fatalf("provider was called %d times for a terminal log", sender.calls)
	}
	if len(store.sentIDs)+len(store.failedIDs) != 0 {
		t.Fatal("log was mutated")
	}
}

func TestProcessInactiveTemplateSkipsWithoutMutation(t *testing.T) {
	store := newFakeStore()
	sender := &spySender{}
	w := newTestWorker(store, sender)
	log := seedLog(store, models.StatusPending, false)

	out := w.Process(context.Background(), log)

	if out.Kind != OutcomeSkipped {
		t.Fatalf("kind = %s", out.Kind)
	}
	if sender.calls != 0 {
		t.Fatal("provider called for inactive template")
	}
	if log.Status != models.StatusPending {
		t.Fatalf("log mutated to %s", log.Status)
	}
}

func TestProcessMissingTemplateSkips(t *testing.T) {
	store := newFakeStore()
	sender := &spySender{}
	w := newTestWorker(store, sender)

	log := &models.NotificationLog{
		ID:             uuid.New(),
		TemplateID:     uuid.New(), // not seeded
		RecipientEmail: "jane@example.com",
		Status:         models.StatusPending,
	}
	store.logs[log.ID] = log

	out := w.Process(context.Background(), log)
	if out.Kind != OutcomeSkipped {
		t.Fatalf("kind = %s", out.Kind)
	}
}

func TestProcessSendFailureMarksFailed(t *testing.T) {
	store := newFakeStore()
	sender := &spySender{err: &provider.SendError{
		Provider: models.ProviderResend,
		Status:   422,
		Body:     "invalid recipient",
	}}
	w := newTestWorker(store, sender)
	log := seedLog(store, models.StatusPending, true)

	out := w.Process(context.Background(), log)

	if out.Kind != OutcomeFailed {
		t.Fatalf("kind = %s", out.Kind)
	}
	if len(store.failedIDs) != 1 {
		t.Fatalf("failed ids = %v", store.failedIDs)
	}
	if store.failedMsg == "" || log.ErrorMessage == "" {
		t.Fatal("error message not recorded")
	}
	if log.Status != models.StatusFailed {
		t.Fatalf("status = %s", log.Status)
	}
}

func TestProcessNoProviderIsFatal(t *testing.T) {
	store := newFakeStore()
	store.providerErr = db.ErrNoProvider
	sender := &spySender{}
	w := newTestWorker(store, sender)
	log := seedLog(store, models.StatusPending, true)

	out := w.Process(context.Background(), log)

	if out.Kind != OutcomeFailed {
		t.Fatalf("kind = %s", out.Kind)
	}
	if !errors.Is(out.Err, db.ErrNoProvider) {
		t.Fatalf("err = %v", out.Err)
	}
	if sender.calls != 0 {
		t.Fatal("provider called despite configuration error")
	}
}

func TestEnqueueSwallowsInsertFailure(t *testing.T) {
	store := newFakeStore()
	store.insertErr = errors.New("connection refused")

	jobs := make(chan uuid.UUID, 1)
	q := &Queue{Store: store, Jobs: jobs, Log: zap.NewNop()}

	ok := q.Enqueue(context.Background(), "jane@example.com", "Jane", uuid.New(), nil)
	if ok {
		t.Fatal("enqueue reported success on insert failure")
	}
	select {
	case id := <-jobs:
		t.Fatalf("job %s queued despite failure", id)
	default:
	}
}

func TestEnqueueDoesNotBlockOnFullChannel(t *testing.T) {
	store := newFakeStore()
	jobs := make(chan uuid.UUID) // no receiver, no capacity
	q := &Queue{Store: store, Jobs: jobs, Log: zap.NewNop()}

	done := make(chan bool, 1)
	go func() {
		done <- q.Enqueue(context.Background(), "jane@example.com", "Jane", uuid.New(), nil)
	}()

	select {
	case ok := <-done:
		if !ok {
			t.Fatal("enqueue failed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue blocked on a full job channel")
	}

	// the row is still persisted for an external trigger
	if len(store.logs) != 1 {
		t.Fatalf("logs persisted = %d", len(store.logs))
	}
	for _, log := range store.logs {
		if log.Status != models.StatusPending {
			t.Fatalf("status = %s", log.Status)
		}
	}
}

func TestEnqueueQueuesPendingLog(t *testing.T) {
	store := newFakeStore()
	jobs := make(chan uuid.UUID, 1)
	q := &Queue{Store: store, Jobs: jobs, Log: zap.NewNop()}

	ok := q.Enqueue(context.Background(), "jane@example.com", "Jane", uuid.New(),
		map[string]interface{}{"orderId": "#ORD-1"})
	if !ok {
		t.Fatal("enqueue failed")
	}

	id := <-jobs
	log, err := store.GetLog(context.Background(), id)
	if err != nil {
		t.Fatalf("get log: %v", err)
	}
	if log.Status != models.StatusPending {
		t.Fatalf("status = %s", log.Status)
	}
	if log.RecipientEmail != "jane@example.com" {
		t.Fatalf("recipient = %s", log.RecipientEmail)
	}
}
