package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/entity"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/repository"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/freight/testutil"
	"gorm.io/gorm"
)

var (
	clientActor = Actor{Email: "client@test.com", Name: "Test Client", Role: entity.RoleClient}
	otherClient = Actor{Email: "other@test.com", Name: "Other Client", Role: entity.RoleClient}
	salesActor  = Actor{Email: "sales@test.com", Name: "Test Sales", Role: entity.RoleSales}
	pricingUser = Actor{Email: "pricing@test.com", Name: "Test Pricing", Role: entity.RolePricing}
	opsActor    = Actor{Email: "ops@test.com", Name: "Test Ops", Role: entity.RoleOperations}
	adminActor  = Actor{Email: "admin@test.com", Name: "Test Admin", Role: entity.RoleAdmin}
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []Email
	err  error
}

func (m *fakeMailer) Send(ctx context.Context, email Email) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, email)
	return nil
}

func (m *fakeMailer) sentTo(to string) []Email {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Email
	for _, e := range m.sent {
		if e.To == to {
			out = append(out, e)
		}
	}
	return out
}

type fakePusher struct {
	mu     sync.Mutex
	pushed []string
}

func (p *fakePusher) PushToUser(email, eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, email+":"+eventType)
	return nil
}

type fakeTeam struct {
	mu       sync.Mutex
	messages map[string][]TeamMessage
	err      error
}

func (f *fakeTeam) NotifyTeam(ctx context.Context, team string, msg TeamMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.messages == nil {
		f.messages = map[string][]TeamMessage{}
	}
	f.messages[team] = append(f.messages[team], msg)
	return nil
}

func (f *fakeTeam) count(team string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.messages[team])
}

type fakeEvents struct {
	mu     sync.Mutex
	events []StatusChangedEvent
}

func (f *fakeEvents) Publish(ctx context.Context, key string, value interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := value.(StatusChangedEvent)
	if !ok {
		return errors.New("unexpected event payload")
	}
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeEvents) names() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, ev := range f.events {
		out = append(out, ev.Event)
	}
	return out
}

type fakeStore struct{}

func (fakeStore) Upload(ctx context.Context, objectName, contentType string, r io.Reader, size int64) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return "https://files.test/" + objectName, nil
}

type testEnv struct {
	db     *gorm.DB
	svc    *Services
	mailer *fakeMailer
	pusher *fakePusher
	team   *fakeTeam
	events *fakeEvents
	guard  *MemoryGuard
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)
	env := &testEnv{
		db:     db,
		mailer: &fakeMailer{},
		pusher: &fakePusher{},
		team:   &fakeTeam{},
		events: &fakeEvents{},
		guard:  NewMemoryGuard(),
	}
	env.svc = NewServices(db, repository.NewRepositories(db), Options{
		Mailer:    env.mailer,
		Pusher:    env.pusher,
		Team:      env.team,
		Events:    env.events,
		Guard:     env.guard,
		Files:     fakeStore{},
		PortalURL: "https://portal.test",
	})
	return env
}

func (e *testEnv) loadShipment(t *testing.T, id string) *entity.Shipment {
	t.Helper()
	var s entity.Shipment
	if err := e.db.Where("id = ?", id).First(&s).Error; err != nil {
		t.Fatalf("load shipment %s: %v", id, err)
	}
	return &s
}

func (e *testEnv) loadRFQ(t *testing.T, id string) *entity.RFQ {
	t.Helper()
	var r entity.RFQ
	if err := e.db.Where("id = ?", id).First(&r).Error; err != nil {
		t.Fatalf("load rfq %s: %v", id, err)
	}
	return &r
}

func (e *testEnv) countShipmentsForRFQ(t *testing.T, rfqID string) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&entity.Shipment{}).Where("rfq_id = ?", rfqID).Count(&n).Error; err != nil {
		t.Fatalf("count shipments: %v", err)
	}
	return n
}

// seedQuotedRFQ 已报价并发给客户的询价单
func (e *testEnv) seedQuotedRFQ(t *testing.T, id, reference, status string) *entity.RFQ {
	t.Helper()
	rfq := testutil.SeedRFQ(t, e.db, id, reference, clientActor.Email, status)
	if err := e.db.Model(&entity.RFQ{}).Where("id = ?", id).
		Updates(map[string]interface{}{"quotation_amount": 4200.0, "quotation_currency": "USD"}).Error; err != nil {
		t.Fatalf("seed quotation: %v", err)
	}
	rfq.QuotationAmount = 4200
	rfq.QuotationCurrency = "USD"
	return rfq
}

func float(v float64) *float64 { return &v }

func str(v string) *string { return &v }
