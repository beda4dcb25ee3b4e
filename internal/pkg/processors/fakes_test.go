package processors

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"billhive/app/models"
	"billhive/app/repository"
	"billhive/internal/pkg/messaging"
)

// memStore is an in-memory stand-in for the database. memUnitOfWork
// clones it per transaction so a failed handler rolls back like the
// real thing.
type memStore struct {
	invoices  []models.Invoice
	customers []models.Customer
	payments  []models.Payment
	idemKeys  []models.IdempotencyKey
	plans     []models.DunningPlan
	states    []models.InvoiceDunningState
	webhooks  []models.WebhookEvent
	audits    []models.AuditLog
	comms     []models.CommunicationLog

	// when set, audit log inserts fail with this error once
	auditErrOnce error

	nextID uint
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) clone() *memStore {
	c := &memStore{
		invoices:     append([]models.Invoice(nil), s.invoices...),
		customers:    append([]models.Customer(nil), s.customers...),
		payments:     append([]models.Payment(nil), s.payments...),
		idemKeys:     append([]models.IdempotencyKey(nil), s.idemKeys...),
		plans:        append([]models.DunningPlan(nil), s.plans...),
		states:       append([]models.InvoiceDunningState(nil), s.states...),
		webhooks:     append([]models.WebhookEvent(nil), s.webhooks...),
		audits:       append([]models.AuditLog(nil), s.audits...),
		comms:        append([]models.CommunicationLog(nil), s.comms...),
		auditErrOnce: s.auditErrOnce,
		nextID:       s.nextID,
	}
	return c
}

type memUnitOfWork struct {
	store *memStore
}

func newMemUnitOfWork(store *memStore) *memUnitOfWork {
	return &memUnitOfWork{store: store}
}

func (u *memUnitOfWork) Do(_ context.Context, fn func(repos *repository.Repositories) error) error {
	tx := u.store.clone()
	repos := &repository.Repositories{
		Invoice:          &memInvoiceRepo{tx},
		Customer:         &memCustomerRepo{tx},
		Payment:          &memPaymentRepo{tx},
		IdempotencyKey:   &memIdemRepo{tx},
		Dunning:          &memDunningRepo{tx},
		WebhookEvent:     &memWebhookRepo{tx},
		AuditLog:         &memAuditRepo{tx},
		CommunicationLog: &memCommRepo{tx},
	}
	if err := fn(repos); err != nil {
		// Rollback: the injected one-shot failure is consumed even so,
		// redelivery should see a healthy store again.
		u.store.auditErrOnce = tx.auditErrOnce
		return err
	}
	*u.store = *tx
	return nil
}

type memInvoiceRepo struct{ s *memStore }

func (r *memInvoiceRepo) FindByUUID(_ context.Context, tenantID, uuid string) (*models.Invoice, error) {
	for i := range r.s.invoices {
		if r.s.invoices[i].TenantID == tenantID && r.s.invoices[i].UUID == uuid {
			inv := r.s.invoices[i]
			return &inv, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memInvoiceRepo) FindOverdue(_ context.Context, tenantID string) ([]models.Invoice, error) {
	var out []models.Invoice
	for i := range r.s.invoices {
		inv := r.s.invoices[i]
		if inv.TenantID != tenantID || inv.Status != models.InvoiceStatusOverdue {
			continue
		}
		for j := range r.s.customers {
			if r.s.customers[j].ID == inv.CustomerID {
				c := r.s.customers[j]
				inv.Customer = &c
				break
			}
		}
		out = append(out, inv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *memInvoiceRepo) Save(_ context.Context, invoice *models.Invoice) error {
	for i := range r.s.invoices {
		if r.s.invoices[i].ID == invoice.ID {
			saved := *invoice
			saved.Customer = nil
			r.s.invoices[i] = saved
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memCustomerRepo struct{ s *memStore }

func (r *memCustomerRepo) FindByUUID(_ context.Context, tenantID, uuid string) (*models.Customer, error) {
	for i := range r.s.customers {
		if r.s.customers[i].TenantID == tenantID && r.s.customers[i].UUID == uuid {
			c := r.s.customers[i]
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type memPaymentRepo struct{ s *memStore }

func (r *memPaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	payment.ID = r.s.id()
	r.s.payments = append(r.s.payments, *payment)
	return nil
}

type memIdemRepo struct{ s *memStore }

func (r *memIdemRepo) Find(_ context.Context, tenantID, operation, keyValue string) (*models.IdempotencyKey, error) {
	for i := range r.s.idemKeys {
		k := r.s.idemKeys[i]
		if k.TenantID == tenantID && k.Operation == operation && k.KeyValue == keyValue {
			return &k, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memIdemRepo) Create(_ context.Context, key *models.IdempotencyKey) error {
	for i := range r.s.idemKeys {
		k := r.s.idemKeys[i]
		if k.TenantID == key.TenantID && k.Operation == key.Operation && k.KeyValue == key.KeyValue {
			return errors.New("Error 1062 (23000): Duplicate entry")
		}
	}
	key.ID = r.s.id()
	r.s.idemKeys = append(r.s.idemKeys, *key)
	return nil
}

type memDunningRepo struct{ s *memStore }

func (r *memDunningRepo) FindDefaultActivePlan(_ context.Context, tenantID string) (*models.DunningPlan, error) {
	for i := range r.s.plans {
		p := r.s.plans[i]
		if p.TenantID == tenantID && p.IsDefault && p.IsActive {
			p.Steps = append([]models.DunningStep(nil), p.Steps...)
			sort.Slice(p.Steps, func(a, b int) bool { return p.Steps[a].StepNumber < p.Steps[b].StepNumber })
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memDunningRepo) FindStateByInvoiceID(_ context.Context, invoiceID uint) (*models.InvoiceDunningState, error) {
	for i := range r.s.states {
		if r.s.states[i].InvoiceID == invoiceID {
			st := r.s.states[i]
			return &st, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memDunningRepo) CreateState(_ context.Context, state *models.InvoiceDunningState) error {
	state.ID = r.s.id()
	r.s.states = append(r.s.states, *state)
	return nil
}

func (r *memDunningRepo) SaveState(_ context.Context, state *models.InvoiceDunningState) error {
	for i := range r.s.states {
		if r.s.states[i].InvoiceID == state.InvoiceID {
			r.s.states[i] = *state
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memWebhookRepo struct{ s *memStore }

func (r *memWebhookRepo) FindByUUID(_ context.Context, tenantID, uuid string) (*models.WebhookEvent, error) {
	for i := range r.s.webhooks {
		if r.s.webhooks[i].TenantID == tenantID && r.s.webhooks[i].UUID == uuid {
			w := r.s.webhooks[i]
			return &w, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memWebhookRepo) Save(_ context.Context, event *models.WebhookEvent) error {
	for i := range r.s.webhooks {
		if r.s.webhooks[i].ID == event.ID {
			r.s.webhooks[i] = *event
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type memAuditRepo struct{ s *memStore }

func (r *memAuditRepo) Create(_ context.Context, entry *models.AuditLog) error {
	if err := r.s.auditErrOnce; err != nil {
		r.s.auditErrOnce = nil
		return err
	}
	entry.ID = r.s.id()
	r.s.audits = append(r.s.audits, *entry)
	return nil
}

type memCommRepo struct{ s *memStore }

func (r *memCommRepo) Create(_ context.Context, entry *models.CommunicationLog) error {
	entry.ID = r.s.id()
	r.s.comms = append(r.s.comms, *entry)
	return nil
}

// publishRecorder captures published envelopes, nothing else.
type publishRecorder struct {
	published map[string][]*messaging.Envelope
}

func newPublishRecorder() *publishRecorder {
	return &publishRecorder{published: make(map[string][]*messaging.Envelope)}
}

func (p *publishRecorder) Publish(_ context.Context, queue string, envelope *messaging.Envelope) error {
	p.published[queue] = append(p.published[queue], envelope)
	return nil
}

func (p *publishRecorder) Receive(context.Context, string) (*messaging.Delivery, error) {
	return nil, nil
}

func (p *publishRecorder) Ack(context.Context, *messaging.Delivery) error { return nil }

func (p *publishRecorder) Abandon(context.Context, *messaging.Delivery) error { return nil }

func (p *publishRecorder) DeadLetter(context.Context, *messaging.Delivery, string) error {
	return nil
}

func (p *publishRecorder) Stats(context.Context, string) (messaging.QueueStats, error) {
	return messaging.QueueStats{}, nil
}

func (p *publishRecorder) RecoverStuck(context.Context, string, time.Duration) (int, error) {
	return 0, nil
}
