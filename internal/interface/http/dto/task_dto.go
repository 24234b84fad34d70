package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
)

type CreateTaskRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description" binding:"required"`
	Budget      *float64 `json:"budget" binding:"omitempty,gt=0"`
	Currency    string   `json:"currency"`
	Deadline    *string  `json:"deadline"`
}

// BudgetMinor переводит бюджет в минимальные единицы.
func (r CreateTaskRequest) BudgetMinor() *int64 {
	if r.Budget == nil {
		return nil
	}
	minor := valueobject.MinorFromMajor(*r.Budget)
	return &minor
}

type DisputeTaskRequest struct {
	Reason       string   `json:"reason" binding:"required"`
	Description  string   `json:"description" binding:"required"`
	EvidenceURLs []string `json:"evidence_urls"`
}

type TaskResponse struct {
	ID               uuid.UUID  `json:"id"`
	CreatorID        uuid.UUID  `json:"creator_id"`
	AssignedWorkerID *uuid.UUID `json:"assigned_worker_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Budget           *float64   `json:"budget"`
	Currency         *string    `json:"currency"`
	Deadline         *time.Time `json:"deadline"`
	Status           string     `json:"status"`
	TransactionID    *uuid.UUID `json:"transaction_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	CompletedAt      *time.Time `json:"completed_at"`
}

func ToTaskResponse(task *entity.Task) TaskResponse {
	resp := TaskResponse{
		ID:               task.ID,
		CreatorID:        task.CreatorID,
		AssignedWorkerID: task.AssignedWorkerID,
		Title:            task.Title,
		Description:      task.Description,
		Deadline:         task.Deadline,
		Status:           string(task.Status),
		TransactionID:    task.TransactionID,
		CreatedAt:        task.CreatedAt,
		UpdatedAt:        task.UpdatedAt,
		CompletedAt:      task.CompletedAt,
	}
	if task.Budget != nil {
		major := task.Budget.Major()
		currency := task.Budget.Currency
		resp.Budget = &major
		resp.Currency = &currency
	}
	return resp
}

func ToTaskResponses(tasks []*entity.Task) []TaskResponse {
	out := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, ToTaskResponse(t))
	}
	return out
}

// ParseDeadline разбирает дедлайн в формате RFC3339.
func ParseDeadline(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
