package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/taskmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/taskmarket-backend/internal/repository/common"
)

const disputeColumns = `id, task_id, filed_by_id, filed_against_id, reason, description, evidence_urls, status,
		resolution, resolution_notes, resolved_by_id, resolved_at, response_description, response_evidence_urls,
		responded_at, created_at, updated_at`

type DisputeRepositoryAdapter struct {
	db *sqlx.DB
}

func NewDisputeRepositoryAdapter(db *sqlx.DB) *DisputeRepositoryAdapter {
	return &DisputeRepositoryAdapter{db: db}
}

func (r *DisputeRepositoryAdapter) Create(ctx context.Context, d *entity.Dispute) error {
	query := `
		INSERT INTO disputes (` + disputeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	row := newDisputeRow(d)
	_, err := executor(ctx, r.db).ExecContext(ctx, query,
		row.ID, row.TaskID, row.FiledByID, row.FiledAgainstID, row.Reason, row.Description, row.EvidenceURLs,
		row.Status, row.Resolution, row.ResolutionNotes, row.ResolvedByID, row.ResolvedAt,
		row.ResponseDescription, row.ResponseEvidenceURLs, row.RespondedAt, row.CreatedAt, row.UpdatedAt,
	)
	return common.MapError(err, nil, "не удалось создать спор")
}

func (r *DisputeRepositoryAdapter) Update(ctx context.Context, d *entity.Dispute) error {
	query := `
		UPDATE disputes SET status = $2, resolution = $3, resolution_notes = $4, resolved_by_id = $5,
		resolved_at = $6, response_description = $7, response_evidence_urls = $8, responded_at = $9, updated_at = $10
		WHERE id = $1
	`
	row := newDisputeRow(d)
	res, err := executor(ctx, r.db).ExecContext(ctx, query,
		row.ID, row.Status, row.Resolution, row.ResolutionNotes, row.ResolvedByID, row.ResolvedAt,
		row.ResponseDescription, row.ResponseEvidenceURLs, row.RespondedAt, row.UpdatedAt,
	)
	if err != nil {
		return common.MapError(err, nil, "не удалось обновить спор")
	}
	return requireAffected(res, apperror.ErrDisputeNotFound)
}

func (r *DisputeRepositoryAdapter) FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error) {
	return r.findOne(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id)
}

func (r *DisputeRepositoryAdapter) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Dispute, error) {
	return r.findOne(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1 FOR UPDATE`, id)
}

func (r *DisputeRepositoryAdapter) FindUnresolvedByTaskAndFiler(ctx context.Context, taskID, filerID uuid.UUID) (*entity.Dispute, error) {
	query := `
		SELECT ` + disputeColumns + ` FROM disputes
		WHERE task_id = $1 AND filed_by_id = $2 AND status <> 'resolved'
		LIMIT 1
	`
	d, err := r.findOne(ctx, query, taskID, filerID)
	if apperror.IsNotFound(err) {
		return nil, nil
	}
	return d, err
}

func (r *DisputeRepositoryAdapter) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]*entity.Dispute, error) {
	return r.findMany(ctx, `SELECT `+disputeColumns+` FROM disputes WHERE task_id = $1 ORDER BY created_at DESC`, taskID)
}

func (r *DisputeRepositoryAdapter) FindByUserID(ctx context.Context, userID uuid.UUID, status *valueobject.DisputeStatus) ([]*entity.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE (filed_by_id = $1 OR filed_against_id = $1)`
	args := []interface{}{userID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, string(*status))
	}
	return r.findMany(ctx, query+` ORDER BY created_at DESC`, args...)
}

func (r *DisputeRepositoryAdapter) FindAll(ctx context.Context, status *valueobject.DisputeStatus) ([]*entity.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes`
	var args []interface{}
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	return r.findMany(ctx, query+` ORDER BY created_at DESC`, args...)
}

func (r *DisputeRepositoryAdapter) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Dispute, error) {
	var row disputeRow
	if err := sqlx.GetContext(ctx, executor(ctx, r.db), &row, query, args...); err != nil {
		return nil, common.MapError(err, apperror.ErrDisputeNotFound, "не удалось получить спор")
	}
	return row.toEntity(), nil
}

func (r *DisputeRepositoryAdapter) findMany(ctx context.Context, query string, args ...interface{}) ([]*entity.Dispute, error) {
	var rows []disputeRow
	if err := sqlx.SelectContext(ctx, executor(ctx, r.db), &rows, query, args...); err != nil {
		return nil, common.MapError(err, nil, "не удалось получить споры")
	}
	disputes := make([]*entity.Dispute, 0, len(rows))
	for i := range rows {
		disputes = append(disputes, rows[i].toEntity())
	}
	return disputes, nil
}

type disputeRow struct {
	ID                   uuid.UUID      `db:"id"`
	TaskID               uuid.UUID      `db:"task_id"`
	FiledByID            uuid.UUID      `db:"filed_by_id"`
	FiledAgainstID       uuid.UUID      `db:"filed_against_id"`
	Reason               string         `db:"reason"`
	Description          string         `db:"description"`
	EvidenceURLs         pq.StringArray `db:"evidence_urls"`
	Status               string         `db:"status"`
	Resolution           *string        `db:"resolution"`
	ResolutionNotes      *string        `db:"resolution_notes"`
	ResolvedByID         *uuid.UUID     `db:"resolved_by_id"`
	ResolvedAt           *time.Time     `db:"resolved_at"`
	ResponseDescription  *string        `db:"response_description"`
	ResponseEvidenceURLs pq.StringArray `db:"response_evidence_urls"`
	RespondedAt          *time.Time     `db:"responded_at"`
	CreatedAt            time.Time      `db:"created_at"`
	UpdatedAt            time.Time      `db:"updated_at"`
}

func newDisputeRow(d *entity.Dispute) disputeRow {
	row := disputeRow{
		ID:                   d.ID,
		TaskID:               d.TaskID,
		FiledByID:            d.FiledByID,
		FiledAgainstID:       d.FiledAgainstID,
		Reason:               string(d.Reason),
		Description:          d.Description,
		EvidenceURLs:         pq.StringArray(nonNil(d.EvidenceURLs)),
		Status:               string(d.Status),
		ResolutionNotes:      d.ResolutionNotes,
		ResolvedByID:         d.ResolvedByID,
		ResolvedAt:           d.ResolvedAt,
		ResponseDescription:  d.ResponseDescription,
		ResponseEvidenceURLs: pq.StringArray(nonNil(d.ResponseEvidenceURLs)),
		RespondedAt:          d.RespondedAt,
		CreatedAt:            d.CreatedAt,
		UpdatedAt:            d.UpdatedAt,
	}
	if d.Resolution != nil {
		resolution := string(*d.Resolution)
		row.Resolution = &resolution
	}
	return row
}

// nonNil нужен для NOT NULL колонок-массивов: pq пишет nil-срез как NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func (r *disputeRow) toEntity() *entity.Dispute {
	d := &entity.Dispute{
		ID:                   r.ID,
		TaskID:               r.TaskID,
		FiledByID:            r.FiledByID,
		FiledAgainstID:       r.FiledAgainstID,
		Reason:               valueobject.DisputeReason(r.Reason),
		Description:          r.Description,
		EvidenceURLs:         []string(r.EvidenceURLs),
		Status:               valueobject.DisputeStatus(r.Status),
		ResolutionNotes:      r.ResolutionNotes,
		ResolvedByID:         r.ResolvedByID,
		ResolvedAt:           r.ResolvedAt,
		ResponseDescription:  r.ResponseDescription,
		ResponseEvidenceURLs: []string(r.ResponseEvidenceURLs),
		RespondedAt:          r.RespondedAt,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if r.Resolution != nil {
		resolution := valueobject.Resolution(*r.Resolution)
		d.Resolution = &resolution
	}
	return d
}

type ReviewRepositoryAdapter struct {
	db *sqlx.DB
}

func NewReviewRepositoryAdapter(db *sqlx.DB) *ReviewRepositoryAdapter {
	return &ReviewRepositoryAdapter{db: db}
}

// Upsert заменяет существующий отзыв о том же пользователе по той же задаче.
func (r *ReviewRepositoryAdapter) Upsert(ctx context.Context, review *entity.Review) error {
	query := `
		INSERT INTO reviews (id, task_id, reviewer_id, reviewed_id, rating, comment, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (task_id, reviewed_id) DO UPDATE SET
			reviewer_id = EXCLUDED.reviewer_id, rating = EXCLUDED.rating,
			comment = EXCLUDED.comment, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	err := executor(ctx, r.db).QueryRowxContext(ctx, query,
		review.ID, review.TaskID, review.ReviewerID, review.ReviewedID, review.Rating, review.Comment,
		review.CreatedAt, review.UpdatedAt,
	).Scan(&review.ID, &review.CreatedAt)
	return common.MapError(err, nil, "не удалось сохранить отзыв")
}
