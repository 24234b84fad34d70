package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
)

type FileDisputeRequest struct {
	TaskID       uuid.UUID `json:"task_id" binding:"required"`
	Reason       string    `json:"reason" binding:"required"`
	Description  string    `json:"description" binding:"required"`
	EvidenceURLs []string  `json:"evidence_urls"`
}

type RespondDisputeRequest struct {
	Description  string   `json:"description" binding:"required"`
	EvidenceURLs []string `json:"evidence_urls"`
}

type ResolveDisputeRequest struct {
	Resolution string `json:"resolution" binding:"required"`
	Notes      string `json:"notes"`
}

type DisputeResponse struct {
	ID                   uuid.UUID  `json:"id"`
	TaskID               uuid.UUID  `json:"task_id"`
	FiledByID            uuid.UUID  `json:"filed_by_id"`
	FiledAgainstID       uuid.UUID  `json:"filed_against_id"`
	Reason               string     `json:"reason"`
	Description          string     `json:"description"`
	EvidenceURLs         []string   `json:"evidence_urls"`
	Status               string     `json:"status"`
	Resolution           *string    `json:"resolution"`
	ResolutionNotes      *string    `json:"resolution_notes"`
	ResolvedByID         *uuid.UUID `json:"resolved_by_id"`
	ResolvedAt           *time.Time `json:"resolved_at"`
	ResponseDescription  *string    `json:"response_description"`
	ResponseEvidenceURLs []string   `json:"response_evidence_urls"`
	RespondedAt          *time.Time `json:"responded_at"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type ReviewResponse struct {
	ID         uuid.UUID `json:"id"`
	TaskID     uuid.UUID `json:"task_id"`
	ReviewerID uuid.UUID `json:"reviewer_id"`
	ReviewedID uuid.UUID `json:"reviewed_id"`
	Rating     int       `json:"rating"`
	Comment    string    `json:"comment"`
}

type ResolveDisputeResponse struct {
	Dispute DisputeResponse `json:"dispute"`
	Task    TaskResponse    `json:"task"`
	Penalty *ReviewResponse `json:"penalty,omitempty"`
}

type DisputeReasonsResponse struct {
	Reasons      []valueobject.ReasonInfo `json:"reasons"`
	SupportEmail string                   `json:"support_email"`
}

func ToDisputeResponse(d *entity.Dispute) DisputeResponse {
	resp := DisputeResponse{
		ID:                   d.ID,
		TaskID:               d.TaskID,
		FiledByID:            d.FiledByID,
		FiledAgainstID:       d.FiledAgainstID,
		Reason:               string(d.Reason),
		Description:          d.Description,
		EvidenceURLs:         nonNilStrings(d.EvidenceURLs),
		Status:               string(d.Status),
		ResolutionNotes:      d.ResolutionNotes,
		ResolvedByID:         d.ResolvedByID,
		ResolvedAt:           d.ResolvedAt,
		ResponseDescription:  d.ResponseDescription,
		ResponseEvidenceURLs: nonNilStrings(d.ResponseEvidenceURLs),
		RespondedAt:          d.RespondedAt,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
	if d.Resolution != nil {
		r := string(*d.Resolution)
		resp.Resolution = &r
	}
	return resp
}

func ToDisputeResponses(disputes []*entity.Dispute) []DisputeResponse {
	out := make([]DisputeResponse, 0, len(disputes))
	for _, d := range disputes {
		out = append(out, ToDisputeResponse(d))
	}
	return out
}

func ToReviewResponse(r *entity.Review) *ReviewResponse {
	if r == nil {
		return nil
	}
	return &ReviewResponse{
		ID:         r.ID,
		TaskID:     r.TaskID,
		ReviewerID: r.ReviewerID,
		ReviewedID: r.ReviewedID,
		Rating:     r.Rating,
		Comment:    r.Comment,
	}
}

func nonNilStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}
