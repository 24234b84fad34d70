package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskmarket-backend/internal/validation"
)

const (
	MinDisputeDescriptionLength = 20
	MaxDisputeDescriptionLength = 5000
	MaxEvidenceURLs             = 10
)

type Dispute struct {
	ID                   uuid.UUID
	TaskID               uuid.UUID
	FiledByID            uuid.UUID
	FiledAgainstID       uuid.UUID
	Reason               valueobject.DisputeReason
	Description          string
	EvidenceURLs         []string
	Status               valueobject.DisputeStatus
	Resolution           *valueobject.Resolution
	ResolutionNotes      *string
	ResolvedByID         *uuid.UUID
	ResolvedAt           *time.Time
	ResponseDescription  *string
	ResponseEvidenceURLs []string
	RespondedAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func validateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	length := utf8.RuneCountInString(description)
	if length < MinDisputeDescriptionLength {
		return "", apperror.New(apperror.ErrCodeValidation, "описание должно содержать не менее 20 символов")
	}
	if length > MaxDisputeDescriptionLength {
		return "", apperror.New(apperror.ErrCodeValidation, "описание слишком длинное")
	}
	return description, nil
}

func cleanEvidence(urls []string) ([]string, error) {
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			out = append(out, u)
		}
	}
	if len(out) > MaxEvidenceURLs {
		return nil, apperror.New(apperror.ErrCodeValidation, "слишком много ссылок на доказательства")
	}
	for _, u := range out {
		if err := validation.ValidateExternalLink(u); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	return out, nil
}

func NewDispute(taskID, filedByID, filedAgainstID uuid.UUID, reason valueobject.DisputeReason, description string, evidence []string) (*Dispute, error) {
	if !reason.IsValid() {
		return nil, apperror.New(apperror.ErrCodeValidation, "некорректная причина спора")
	}
	description, err := validateDescription(description)
	if err != nil {
		return nil, err
	}
	evidence, err = cleanEvidence(evidence)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &Dispute{
		ID:             uuid.New(),
		TaskID:         taskID,
		FiledByID:      filedByID,
		FiledAgainstID: filedAgainstID,
		Reason:         reason,
		Description:    description,
		EvidenceURLs:   evidence,
		Status:         valueobject.DisputeStatusOpen,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (d *Dispute) Respond(responderID uuid.UUID, description string, evidence []string) error {
	if d.FiledAgainstID != responderID {
		return apperror.New(apperror.ErrCodeForbidden, "ответить на спор может только вторая сторона")
	}
	if d.Status != valueobject.DisputeStatusOpen || d.ResponseDescription != nil {
		return apperror.New(apperror.ErrCodeInvalidState, "на этот спор уже нельзя ответить")
	}
	description, err := validateDescription(description)
	if err != nil {
		return err
	}
	evidence, err = cleanEvidence(evidence)
	if err != nil {
		return err
	}
	now := time.Now()
	d.ResponseDescription = &description
	d.ResponseEvidenceURLs = evidence
	d.RespondedAt = &now
	d.Status = valueobject.DisputeStatusUnderReview
	d.UpdatedAt = now
	return nil
}

func (d *Dispute) Resolve(resolverID uuid.UUID, resolution valueobject.Resolution, notes string) error {
	if d.Status == valueobject.DisputeStatusResolved {
		return apperror.New(apperror.ErrCodeInvalidState, "спор уже решен")
	}
	if !resolution.IsValid() {
		return apperror.New(apperror.ErrCodeValidation, "некорректное решение спора")
	}
	now := time.Now()
	d.Status = valueobject.DisputeStatusResolved
	d.Resolution = &resolution
	if notes = strings.TrimSpace(notes); notes != "" {
		d.ResolutionNotes = &notes
	}
	d.ResolvedByID = &resolverID
	d.ResolvedAt = &now
	d.UpdatedAt = now
	return nil
}

func (d *Dispute) IsResolved() bool {
	return d.Status == valueobject.DisputeStatusResolved
}

func (d *Dispute) IsParty(userID uuid.UUID) bool {
	return d.FiledByID == userID || d.FiledAgainstID == userID
}
