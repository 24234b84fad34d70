// Package usecasetest содержит in-memory реализации репозиториев для тестов use case.
package usecasetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

type txKey struct{}

type reviewKey struct {
	taskID     uuid.UUID
	reviewedID uuid.UUID
}

// Store хранит все агрегаты в памяти и эмулирует ограничения БД.
// WithinTx сериализует транзакции и откатывает изменения при ошибке.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	tasks         map[uuid.UUID]entity.Task
	applications  map[uuid.UUID]entity.Application
	transactions  map[uuid.UUID]entity.Transaction
	disputes      map[uuid.UUID]entity.Dispute
	reviews       map[reviewKey]entity.Review
	gatewayEvents map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		tasks:         make(map[uuid.UUID]entity.Task),
		applications:  make(map[uuid.UUID]entity.Application),
		transactions:  make(map[uuid.UUID]entity.Transaction),
		disputes:      make(map[uuid.UUID]entity.Dispute),
		reviews:       make(map[reviewKey]entity.Review),
		gatewayEvents: make(map[string]struct{}),
	}
}

type snapshot struct {
	tasks         map[uuid.UUID]entity.Task
	applications  map[uuid.UUID]entity.Application
	transactions  map[uuid.UUID]entity.Transaction
	disputes      map[uuid.UUID]entity.Dispute
	reviews       map[reviewKey]entity.Review
	gatewayEvents map[string]struct{}
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot{
		tasks:         copyMap(s.tasks),
		applications:  copyMap(s.applications),
		transactions:  copyMap(s.transactions),
		disputes:      copyMap(s.disputes),
		reviews:       copyMap(s.reviews),
		gatewayEvents: copyMap(s.gatewayEvents),
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = snap.tasks
	s.applications = snap.applications
	s.transactions = snap.transactions
	s.disputes = snap.disputes
	s.reviews = snap.reviews
	s.gatewayEvents = snap.gatewayEvents
}

// WithinTx реализует repository.TxManager.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *Store) Tasks() *TaskRepo               { return &TaskRepo{s} }
func (s *Store) Applications() *ApplicationRepo { return &ApplicationRepo{s} }
func (s *Store) Transactions() *TransactionRepo { return &TransactionRepo{s} }
func (s *Store) GatewayEvents() *GatewayEventRepo {
	return &GatewayEventRepo{s}
}
func (s *Store) Disputes() *DisputeRepo { return &DisputeRepo{s} }
func (s *Store) Reviews() *ReviewRepo   { return &ReviewRepo{s} }

func sortNewestFirst[T any](items []*T, createdAt func(*T) time.Time) []*T {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
	return items
}

// TaskRepo

type TaskRepo struct{ s *Store }

func cloneTask(t entity.Task) *entity.Task { return &t }

func (r *TaskRepo) Create(ctx context.Context, task *entity.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[task.ID]; ok {
		return apperror.New(apperror.ErrCodeConflict, "задача уже существует")
	}
	r.s.tasks[task.ID] = *task
	return nil
}

func (r *TaskRepo) Update(ctx context.Context, task *entity.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[task.ID]; !ok {
		return apperror.ErrTaskNotFound
	}
	r.s.tasks[task.ID] = *task
	return nil
}

func (r *TaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, apperror.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

func (r *TaskRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Task, error) {
	return r.FindByID(ctx, id)
}

func (r *TaskRepo) FindByParticipant(ctx context.Context, userID uuid.UUID) ([]*entity.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Task
	for _, t := range r.s.tasks {
		if t.IsParticipant(userID) {
			out = append(out, cloneTask(t))
		}
	}
	return sortNewestFirst(out, func(t *entity.Task) time.Time { return t.CreatedAt }), nil
}

// ApplicationRepo

type ApplicationRepo struct{ s *Store }

func cloneApplication(a entity.Application) *entity.Application { return &a }

func (r *ApplicationRepo) checkUnique(a *entity.Application) error {
	for _, other := range r.s.applications {
		if other.ID == a.ID {
			continue
		}
		if other.TaskID == a.TaskID && other.ApplicantID == a.ApplicantID {
			return apperror.New(apperror.ErrCodeConflict, "запись уже существует")
		}
		if other.TaskID == a.TaskID && other.Status == valueobject.ApplicationStatusAccepted &&
			a.Status == valueobject.ApplicationStatusAccepted {
			return apperror.New(apperror.ErrCodeConflict, "запись уже существует")
		}
	}
	return nil
}

func (r *ApplicationRepo) Create(ctx context.Context, a *entity.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.checkUnique(a); err != nil {
		return err
	}
	r.s.applications[a.ID] = *a
	return nil
}

func (r *ApplicationRepo) Update(ctx context.Context, a *entity.Application) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.applications[a.ID]; !ok {
		return apperror.ErrApplicationNotFound
	}
	if err := r.checkUnique(a); err != nil {
		return err
	}
	r.s.applications[a.ID] = *a
	return nil
}

func (r *ApplicationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.applications[id]; !ok {
		return apperror.ErrApplicationNotFound
	}
	delete(r.s.applications, id)
	return nil
}

func (r *ApplicationRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.applications[id]
	if !ok {
		return nil, apperror.ErrApplicationNotFound
	}
	return cloneApplication(a), nil
}

func (r *ApplicationRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Application, error) {
	return r.FindByID(ctx, id)
}

func (r *ApplicationRepo) filter(pred func(entity.Application) bool) []*entity.Application {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Application
	for _, a := range r.s.applications {
		if pred(a) {
			out = append(out, cloneApplication(a))
		}
	}
	return sortNewestFirst(out, func(a *entity.Application) time.Time { return a.CreatedAt })
}

func (r *ApplicationRepo) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*entity.Application, error) {
	return r.filter(func(a entity.Application) bool { return a.TaskID == taskID }), nil
}

func (r *ApplicationRepo) FindByApplicantID(ctx context.Context, applicantID uuid.UUID) ([]*entity.Application, error) {
	return r.filter(func(a entity.Application) bool { return a.ApplicantID == applicantID }), nil
}

func (r *ApplicationRepo) FindByTaskAndApplicant(ctx context.Context, taskID, applicantID uuid.UUID) (*entity.Application, error) {
	found := r.filter(func(a entity.Application) bool { return a.TaskID == taskID && a.ApplicantID == applicantID })
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *ApplicationRepo) RejectPendingExcept(ctx context.Context, taskID, exceptID uuid.UUID) ([]*entity.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var rejected []*entity.Application
	for id, a := range r.s.applications {
		if a.TaskID != taskID || a.ID == exceptID || !a.IsPending() {
			continue
		}
		if err := a.Reject(); err != nil {
			return nil, err
		}
		r.s.applications[id] = a
		rejected = append(rejected, cloneApplication(a))
	}
	return rejected, nil
}

func (r *ApplicationRepo) RejectAccepted(ctx context.Context, taskID uuid.UUID) ([]*entity.Application, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var revoked []*entity.Application
	for id, a := range r.s.applications {
		if a.TaskID != taskID || a.Status != valueobject.ApplicationStatusAccepted {
			continue
		}
		if err := a.Revoke(); err != nil {
			return nil, err
		}
		r.s.applications[id] = a
		revoked = append(revoked, cloneApplication(a))
	}
	return revoked, nil
}

// TransactionRepo

type TransactionRepo struct{ s *Store }

func cloneTransaction(t entity.Transaction) *entity.Transaction { return &t }

func (r *TransactionRepo) Create(ctx context.Context, tx *entity.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if !tx.IsBalanced() {
		return apperror.New(apperror.ErrCodeDatabaseError, "нарушено ограничение суммы транзакции")
	}
	for _, other := range r.s.transactions {
		if other.TaskID == tx.TaskID && other.IsActive() {
			return apperror.New(apperror.ErrCodeConflict, "запись уже существует")
		}
	}
	r.s.transactions[tx.ID] = *tx
	return nil
}

func (r *TransactionRepo) UpdateStatus(ctx context.Context, tx *entity.Transaction) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.transactions[tx.ID]
	if !ok {
		return apperror.ErrTransactionNotFound
	}
	amount, fee, worker := stored.Amount, stored.PlatformFee, stored.WorkerAmount
	stored = *tx
	stored.Amount, stored.PlatformFee, stored.WorkerAmount = amount, fee, worker
	r.s.transactions[tx.ID] = stored
	return nil
}

func (r *TransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.transactions[id]
	if !ok {
		return nil, apperror.ErrTransactionNotFound
	}
	return cloneTransaction(t), nil
}

func (r *TransactionRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	return r.FindByID(ctx, id)
}

func (r *TransactionRepo) FindByGatewayRefForUpdate(ctx context.Context, ref string) (*entity.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.transactions {
		if t.GatewayRef == ref {
			return cloneTransaction(t), nil
		}
	}
	return nil, apperror.ErrTransactionNotFound
}

func (r *TransactionRepo) FindActiveByTaskID(ctx context.Context, taskID uuid.UUID) (*entity.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, t := range r.s.transactions {
		if t.TaskID == taskID && t.IsActive() {
			return cloneTransaction(t), nil
		}
	}
	return nil, nil
}

func (r *TransactionRepo) FindByUserID(ctx context.Context, userID uuid.UUID, status *valueobject.TransactionStatus) ([]*entity.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Transaction
	for _, t := range r.s.transactions {
		if !t.Involves(userID) || (status != nil && t.Status != *status) {
			continue
		}
		out = append(out, cloneTransaction(t))
	}
	return sortNewestFirst(out, func(t *entity.Transaction) time.Time { return t.CreatedAt }), nil
}

// GatewayEventRepo

type GatewayEventRepo struct{ s *Store }

func (r *GatewayEventRepo) MarkProcessed(ctx context.Context, eventID, eventType, ref string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.gatewayEvents[eventID]; ok {
		return false, nil
	}
	r.s.gatewayEvents[eventID] = struct{}{}
	return true, nil
}

// DisputeRepo

type DisputeRepo struct{ s *Store }

func cloneDispute(d entity.Dispute) *entity.Dispute {
	d.EvidenceURLs = append([]string(nil), d.EvidenceURLs...)
	d.ResponseEvidenceURLs = append([]string(nil), d.ResponseEvidenceURLs...)
	return &d
}

func (r *DisputeRepo) Create(ctx context.Context, d *entity.Dispute) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, other := range r.s.disputes {
		if other.TaskID == d.TaskID && other.FiledByID == d.FiledByID && !other.IsResolved() {
			return apperror.New(apperror.ErrCodeConflict, "запись уже существует")
		}
	}
	r.s.disputes[d.ID] = *cloneDispute(*d)
	return nil
}

func (r *DisputeRepo) Update(ctx context.Context, d *entity.Dispute) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.disputes[d.ID]; !ok {
		return apperror.ErrDisputeNotFound
	}
	r.s.disputes[d.ID] = *cloneDispute(*d)
	return nil
}

func (r *DisputeRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.disputes[id]
	if !ok {
		return nil, apperror.ErrDisputeNotFound
	}
	return cloneDispute(d), nil
}

func (r *DisputeRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Dispute, error) {
	return r.FindByID(ctx, id)
}

func (r *DisputeRepo) filter(pred func(entity.Dispute) bool) []*entity.Dispute {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Dispute
	for _, d := range r.s.disputes {
		if pred(d) {
			out = append(out, cloneDispute(d))
		}
	}
	return sortNewestFirst(out, func(d *entity.Dispute) time.Time { return d.CreatedAt })
}

func (r *DisputeRepo) FindUnresolvedByTaskAndFiler(ctx context.Context, taskID, filerID uuid.UUID) (*entity.Dispute, error) {
	found := r.filter(func(d entity.Dispute) bool {
		return d.TaskID == taskID && d.FiledByID == filerID && !d.IsResolved()
	})
	if len(found) == 0 {
		return nil, nil
	}
	return found[0], nil
}

func (r *DisputeRepo) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*entity.Dispute, error) {
	return r.filter(func(d entity.Dispute) bool { return d.TaskID == taskID }), nil
}

func (r *DisputeRepo) FindByUserID(ctx context.Context, userID uuid.UUID, status *valueobject.DisputeStatus) ([]*entity.Dispute, error) {
	return r.filter(func(d entity.Dispute) bool {
		return d.IsParty(userID) && (status == nil || d.Status == *status)
	}), nil
}

func (r *DisputeRepo) FindAll(ctx context.Context, status *valueobject.DisputeStatus) ([]*entity.Dispute, error) {
	return r.filter(func(d entity.Dispute) bool { return status == nil || d.Status == *status }), nil
}

// ReviewRepo

type ReviewRepo struct{ s *Store }

func (r *ReviewRepo) Upsert(ctx context.Context, review *entity.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := reviewKey{taskID: review.TaskID, reviewedID: review.ReviewedID}
	if existing, ok := r.s.reviews[key]; ok {
		review.ID = existing.ID
		review.CreatedAt = existing.CreatedAt
	}
	r.s.reviews[key] = *review
	return nil
}

// Find возвращает отзыв о пользователе по задаче.
func (r *ReviewRepo) Find(taskID, reviewedID uuid.UUID) (*entity.Review, bool) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	review, ok := r.s.reviews[reviewKey{taskID: taskID, reviewedID: reviewedID}]
	return &review, ok
}

func (r *ReviewRepo) Count() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return len(r.s.reviews)
}
