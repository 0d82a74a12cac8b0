package amazon

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// ReportType
// ---------------------------------------------------------------------------

// ReportType is the MWS flat-file report type identifier.
type ReportType string

const (
	// ReportTypeOrders is the unshipped-orders flat file driving sale import.
	ReportTypeOrders ReportType = "_GET_FLAT_FILE_ORDERS_DATA_"
	// ReportTypeSettlement is the settlement flat file driving payment import.
	ReportTypeSettlement ReportType = "_GET_V2_SETTLEMENT_REPORT_DATA_FLAT_FILE_V2_"
)

// SupportedReportTypes returns the report types the connector understands;
// report polling only requests these.
func SupportedReportTypes() []ReportType {
	return []ReportType{ReportTypeOrders, ReportTypeSettlement}
}

// IsValid returns true if the report type is supported.
func (t ReportType) IsValid() bool {
	return t == ReportTypeOrders || t == ReportTypeSettlement
}

// String returns the string representation of ReportType.
func (t ReportType) String() string { return string(t) }

// Label returns a human-readable name for the report type.
func (t ReportType) Label() string {
	switch t {
	case ReportTypeOrders:
		return "Amazon Order"
	case ReportTypeSettlement:
		return "Amazon Bank Statement"
	default:
		return string(t)
	}
}

// ---------------------------------------------------------------------------
// AttachmentState
// ---------------------------------------------------------------------------

// AttachmentState is the processing state of a downloaded report.
type AttachmentState string

const (
	AttachmentStatePending AttachmentState = "pending"
	AttachmentStateDone    AttachmentState = "done"
	AttachmentStateFailed  AttachmentState = "failed"
)

// ---------------------------------------------------------------------------
// ReportAttachment
// ---------------------------------------------------------------------------

// ReportAttachment is one downloaded report instance. The (backend, report
// id) pair is unique: re-polling never re-downloads an already attached
// report. An attachment is consumed exactly once; a failed one keeps its
// error message and waits for manual remediation.
type ReportAttachment struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	BackendID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_attachment_backend_report,priority:1"`
	AmazonReportID string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_attachment_backend_report,priority:2"`
	Type           ReportType      `gorm:"type:varchar(60);not null"`
	SyncDate       time.Time       `gorm:"not null"`
	Payload        []byte          `gorm:"not null"`
	State          AttachmentState `gorm:"type:varchar(10);not null;default:'pending'"`
	StateMessage   string          `gorm:"type:text"`
	CreatedAt      time.Time       `gorm:"not null"`
	UpdatedAt      time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (ReportAttachment) TableName() string { return "amazon_report_attachments" }

// NewReportAttachment creates a pending attachment for a downloaded report.
func NewReportAttachment(backendID uuid.UUID, reportID string, reportType ReportType, availableDate time.Time, payload []byte) (*ReportAttachment, error) {
	if !reportType.IsValid() {
		return nil, ErrReportTypeUnsupported
	}
	now := time.Now()
	return &ReportAttachment{
		ID:             uuid.New(),
		BackendID:      backendID,
		AmazonReportID: reportID,
		Type:           reportType,
		SyncDate:       availableDate,
		Payload:        payload,
		State:          AttachmentStatePending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// MarkDone transitions a pending attachment to done.
func (a *ReportAttachment) MarkDone() error {
	if a.State != AttachmentStatePending {
		return ErrAttachmentNotPending
	}
	a.State = AttachmentStateDone
	a.StateMessage = ""
	a.UpdatedAt = time.Now()
	return nil
}

// MarkFailed transitions a pending attachment to failed, keeping the cause
// for manual remediation.
func (a *ReportAttachment) MarkFailed(message string) error {
	if a.State != AttachmentStatePending {
		return ErrAttachmentNotPending
	}
	a.State = AttachmentStateFailed
	a.StateMessage = message
	a.UpdatedAt = time.Now()
	return nil
}

// ---------------------------------------------------------------------------
// AttachmentRepository
// ---------------------------------------------------------------------------

// AttachmentRepository persists report attachments. Create commits
// immediately: a downloaded report must never need re-downloading because a
// later item in the same pass failed.
type AttachmentRepository interface {
	// Create stores a new attachment. Returns ErrAttachmentExists when the
	// (backend, report id) pair is already attached.
	Create(ctx context.Context, attachment *ReportAttachment) error

	// Exists reports whether the (backend, report id) pair is attached.
	Exists(ctx context.Context, backendID uuid.UUID, reportID string) (bool, error)

	// FindByID finds an attachment by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*ReportAttachment, error)

	// FindPending returns the pending attachments of a backend, oldest first.
	FindPending(ctx context.Context, backendID uuid.UUID) ([]ReportAttachment, error)

	// UpdateState persists a state transition (done/failed plus message).
	UpdateState(ctx context.Context, attachment *ReportAttachment) error
}
