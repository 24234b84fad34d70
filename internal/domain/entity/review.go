package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
)

const PenaltyRating = 1

type Review struct {
	ID         uuid.UUID
	TaskID     uuid.UUID
	ReviewerID uuid.UUID
	ReviewedID uuid.UUID
	Rating     int
	Comment    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewReview(taskID, reviewerID, reviewedID uuid.UUID, rating int, comment string) (*Review, error) {
	if rating < 1 || rating > 5 {
		return nil, apperror.New(apperror.ErrCodeValidation, "оценка должна быть от 1 до 5")
	}
	now := time.Now()
	return &Review{
		ID:         uuid.New(),
		TaskID:     taskID,
		ReviewerID: reviewerID,
		ReviewedID: reviewedID,
		Rating:     rating,
		Comment:    comment,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// NewPenaltyReview - отзыв с минимальной оценкой, который оставляет арбитр по итогам спора.
func NewPenaltyReview(taskID, resolverID, reviewedID uuid.UUID, comment string) *Review {
	review, _ := NewReview(taskID, resolverID, reviewedID, PenaltyRating, comment)
	return review
}
