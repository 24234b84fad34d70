package entity

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/ignatzorin/taskmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/taskmarket-backend/internal/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const longText = "Работа выполнена не полностью, остались недочеты"

func TestNewDispute_Validation(t *testing.T) {
	_, err := NewDispute(uuid.New(), uuid.New(), uuid.New(), "mood", longText, nil)
	assert.True(t, apperror.IsValidation(err))

	_, err = NewDispute(uuid.New(), uuid.New(), uuid.New(), valueobject.DisputeReasonIncomplete, "  слишком коротко     ", nil)
	assert.True(t, apperror.IsValidation(err))

	d, err := NewDispute(uuid.New(), uuid.New(), uuid.New(), valueobject.DisputeReasonIncomplete, "  "+longText+"  ", []string{" https://x/1.png ", ""})
	require.NoError(t, err)
	assert.Equal(t, longText, d.Description)
	assert.Equal(t, []string{"https://x/1.png"}, d.EvidenceURLs)
	assert.Equal(t, valueobject.DisputeStatusOpen, d.Status)
}

func TestNewDispute_TooMuchEvidence(t *testing.T) {
	urls := strings.Split(strings.Repeat("u,", MaxEvidenceURLs+1), ",")
	_, err := NewDispute(uuid.New(), uuid.New(), uuid.New(), valueobject.DisputeReasonOther, longText, urls)
	assert.True(t, apperror.IsValidation(err))
}

func TestNewDispute_InvalidEvidenceLink(t *testing.T) {
	_, err := NewDispute(uuid.New(), uuid.New(), uuid.New(), valueobject.DisputeReasonOther, longText, []string{"javascript:alert(1)"})
	assert.True(t, apperror.IsValidation(err))
}

func TestDispute_Respond(t *testing.T) {
	filer, against := uuid.New(), uuid.New()
	d, err := NewDispute(uuid.New(), filer, against, valueobject.DisputeReasonNoShow, longText, nil)
	require.NoError(t, err)

	assert.True(t, apperror.IsForbidden(d.Respond(filer, longText, nil)))
	assert.True(t, apperror.IsValidation(d.Respond(against, "нет", nil)))

	require.NoError(t, d.Respond(against, longText, []string{"https://x/2.png"}))
	assert.Equal(t, valueobject.DisputeStatusUnderReview, d.Status)
	assert.NotNil(t, d.RespondedAt)

	assert.True(t, apperror.IsInvalidState(d.Respond(against, longText, nil)))
}

func TestDispute_Resolve(t *testing.T) {
	filer, against, admin := uuid.New(), uuid.New(), uuid.New()
	d, err := NewDispute(uuid.New(), filer, against, valueobject.DisputeReasonSafety, longText, nil)
	require.NoError(t, err)

	assert.True(t, apperror.IsValidation(d.Resolve(admin, "split", "")))

	require.NoError(t, d.Resolve(admin, valueobject.ResolutionRefund, " вернуть деньги "))
	assert.True(t, d.IsResolved())
	assert.Equal(t, valueobject.ResolutionRefund, *d.Resolution)
	assert.Equal(t, "вернуть деньги", *d.ResolutionNotes)
	assert.Equal(t, admin, *d.ResolvedByID)
	assert.Equal(t, valueobject.DisputeReasonSafety, d.Reason)
	assert.Equal(t, filer, d.FiledByID)

	assert.True(t, apperror.IsInvalidState(d.Resolve(admin, valueobject.ResolutionPartial, "")))
}
