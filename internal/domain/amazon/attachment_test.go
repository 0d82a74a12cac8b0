package amazon

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportType(t *testing.T) {
	t.Run("supported types are valid", func(t *testing.T) {
		for _, rt := range SupportedReportTypes() {
			assert.True(t, rt.IsValid())
		}
		assert.False(t, ReportType("_GET_SOMETHING_ELSE_").IsValid())
	})

	t.Run("labels", func(t *testing.T) {
		assert.Equal(t, "Amazon Order", ReportTypeOrders.Label())
		assert.Equal(t, "Amazon Bank Statement", ReportTypeSettlement.Label())
		assert.Equal(t, "_X_", ReportType("_X_").Label())
	})
}

func TestNewReportAttachment(t *testing.T) {
	backendID := uuid.New()
	syncDate := time.Date(2024, 5, 2, 8, 0, 0, 0, time.UTC)

	t.Run("creates pending attachment", func(t *testing.T) {
		a, err := NewReportAttachment(backendID, "12345678", ReportTypeOrders, syncDate, []byte("payload"))
		require.NoError(t, err)

		assert.Equal(t, backendID, a.BackendID)
		assert.Equal(t, "12345678", a.AmazonReportID)
		assert.Equal(t, ReportTypeOrders, a.Type)
		assert.Equal(t, syncDate, a.SyncDate)
		assert.Equal(t, []byte("payload"), a.Payload)
		assert.Equal(t, AttachmentStatePending, a.State)
		assert.Empty(t, a.StateMessage)
	})

	t.Run("rejects unsupported report type", func(t *testing.T) {
		_, err := NewReportAttachment(backendID, "1", "_GET_UNKNOWN_", syncDate, nil)
		assert.ErrorIs(t, err, ErrReportTypeUnsupported)
	})
}

func TestReportAttachment_StateTransitions(t *testing.T) {
	newPending := func() *ReportAttachment {
		a, err := NewReportAttachment(uuid.New(), "r1", ReportTypeOrders, time.Now(), []byte("x"))
		require.NoError(t, err)
		return a
	}

	t.Run("pending to done", func(t *testing.T) {
		a := newPending()
		require.NoError(t, a.MarkDone())
		assert.Equal(t, AttachmentStateDone, a.State)
		assert.Empty(t, a.StateMessage)
	})

	t.Run("pending to failed keeps message", func(t *testing.T) {
		a := newPending()
		require.NoError(t, a.MarkFailed("unknown country code XX"))
		assert.Equal(t, AttachmentStateFailed, a.State)
		assert.Equal(t, "unknown country code XX", a.StateMessage)
	})

	t.Run("done attachment cannot transition again", func(t *testing.T) {
		a := newPending()
		require.NoError(t, a.MarkDone())
		assert.ErrorIs(t, a.MarkDone(), ErrAttachmentNotPending)
		assert.ErrorIs(t, a.MarkFailed("late"), ErrAttachmentNotPending)
	})

	t.Run("failed attachment cannot transition again", func(t *testing.T) {
		a := newPending()
		require.NoError(t, a.MarkFailed("boom"))
		assert.ErrorIs(t, a.MarkDone(), ErrAttachmentNotPending)
		// failure cause stays for remediation
		assert.Equal(t, "boom", a.StateMessage)
	})
}
