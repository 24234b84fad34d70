package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/usecase/escrow"
)

// Sandbox - шлюз для разработки: авторизации хранятся в памяти, деньги не двигаются.
type Sandbox struct {
	mu       sync.Mutex
	captured map[string]bool
	refunded map[string]int64
	amounts  map[string]int64
}

func NewSandbox() *Sandbox {
	return &Sandbox{
		captured: make(map[string]bool),
		refunded: make(map[string]int64),
		amounts:  make(map[string]int64),
	}
}

func (s *Sandbox) Authorize(ctx context.Context, req escrow.AuthorizeRequest) (escrow.Authorization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := "sandbox_auth_" + uuid.NewString()
	s.amounts[ref] = req.Amount
	return escrow.Authorization{Ref: ref, ClientSecret: ref + "_secret"}, nil
}

func (s *Sandbox) Capture(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.amounts[ref]; !ok {
		return fmt.Errorf("sandbox: авторизация %s не найдена", ref)
	}
	s.captured[ref] = true
	return nil
}

func (s *Sandbox) Refund(ctx context.Context, ref string, amount int64, reason string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total, ok := s.amounts[ref]
	if !ok {
		return "", fmt.Errorf("sandbox: авторизация %s не найдена", ref)
	}
	if s.refunded[ref]+amount > total {
		return "", fmt.Errorf("sandbox: сумма возврата превышает авторизацию")
	}
	s.refunded[ref] += amount
	return "sandbox_refund_" + uuid.NewString(), nil
}

// Captured сообщает, было ли списание по авторизации.
func (s *Sandbox) Captured(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captured[ref]
}
