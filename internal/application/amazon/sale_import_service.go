package amazon

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/amazon"
	"github.com/erp/amazon-connector/internal/domain/trade"
)

// ProcessResult summarises one attachment processing pass.
type ProcessResult struct {
	Processed int `json:"processed"`
	Created   int `json:"created"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// SaleImportService consumes pending report attachments. An orders report is
// parsed into canonical sales, resolved and written to the order store; a
// settlement report is acknowledged with its row count. Each attachment is
// consumed whole or not at all: the first error marks it failed with the
// cause and the pass moves on to the next attachment.
type SaleImportService struct {
	backends    amazon.BackendRepository
	attachments amazon.AttachmentRepository
	orders      trade.SaleOrderRepository
	parser      *OrderReportParser
	resolver    *EntityResolver
	guard       *IdempotencyGuard
	logger      *zap.Logger
}

// NewSaleImportService creates a SaleImportService.
func NewSaleImportService(
	backends amazon.BackendRepository,
	attachments amazon.AttachmentRepository,
	orders trade.SaleOrderRepository,
	parser *OrderReportParser,
	resolver *EntityResolver,
	guard *IdempotencyGuard,
	logger *zap.Logger,
) *SaleImportService {
	return &SaleImportService{
		backends:    backends,
		attachments: attachments,
		orders:      orders,
		parser:      parser,
		resolver:    resolver,
		guard:       guard,
		logger:      logger,
	}
}

// ProcessPendingReports consumes every pending attachment of a backend,
// oldest first.
func (s *SaleImportService) ProcessPendingReports(ctx context.Context, backendID uuid.UUID) (*ProcessResult, error) {
	backend, err := s.backends.FindByID(ctx, backendID)
	if err != nil {
		return nil, err
	}
	pending, err := s.attachments.FindPending(ctx, backendID)
	if err != nil {
		return nil, err
	}

	result := &ProcessResult{}
	for i := range pending {
		attachment := &pending[i]
		created, skipped, err := s.processAttachment(ctx, backend, attachment)
		result.Processed++
		result.Created += created
		result.Skipped += skipped
		if err != nil {
			result.Failed++
			s.logger.Error("report attachment failed",
				zap.String("backend", backend.Name),
				zap.String("report_id", attachment.AmazonReportID),
				zap.Error(err))
			if markErr := attachment.MarkFailed(err.Error()); markErr != nil {
				return result, markErr
			}
			if updErr := s.attachments.UpdateState(ctx, attachment); updErr != nil {
				return result, updErr
			}
			continue
		}
		if markErr := attachment.MarkDone(); markErr != nil {
			return result, markErr
		}
		if updErr := s.attachments.UpdateState(ctx, attachment); updErr != nil {
			return result, updErr
		}
	}

	s.logger.Info("attachment processing pass finished",
		zap.String("backend", backend.Name),
		zap.Int("processed", result.Processed),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))
	return result, nil
}

// ProcessAttachment consumes one attachment by id, for manual remediation of
// a failed report. Only pending attachments can be processed.
func (s *SaleImportService) ProcessAttachment(ctx context.Context, attachmentID uuid.UUID) error {
	attachment, err := s.attachments.FindByID(ctx, attachmentID)
	if err != nil {
		return err
	}
	if attachment.State != amazon.AttachmentStatePending {
		return amazon.ErrAttachmentNotPending
	}
	backend, err := s.backends.FindByID(ctx, attachment.BackendID)
	if err != nil {
		return err
	}

	if _, _, err := s.processAttachment(ctx, backend, attachment); err != nil {
		if markErr := attachment.MarkFailed(err.Error()); markErr != nil {
			return markErr
		}
		if updErr := s.attachments.UpdateState(ctx, attachment); updErr != nil {
			return updErr
		}
		return err
	}
	if err := attachment.MarkDone(); err != nil {
		return err
	}
	return s.attachments.UpdateState(ctx, attachment)
}

// processAttachment dispatches on the report type. Returns how many sales
// were created and how many were skipped as already imported.
func (s *SaleImportService) processAttachment(ctx context.Context, backend *amazon.Backend, attachment *amazon.ReportAttachment) (created, skipped int, err error) {
	switch attachment.Type {
	case amazon.ReportTypeOrders:
		return s.importOrdersReport(ctx, backend, attachment)
	case amazon.ReportTypeSettlement:
		return 0, 0, s.acknowledgeSettlement(backend, attachment)
	default:
		return 0, 0, fmt.Errorf("%w: %s", amazon.ErrReportTypeUnsupported, attachment.Type)
	}
}

// importOrdersReport parses an orders flat file and writes one sale order
// per parsed sale, skipping the ones already imported.
func (s *SaleImportService) importOrdersReport(ctx context.Context, backend *amazon.Backend, attachment *amazon.ReportAttachment) (created, skipped int, err error) {
	sales, err := s.parser.Parse(attachment.Payload, backend)
	if err != nil {
		return 0, 0, err
	}

	for i := range sales {
		sale := &sales[i]
		sale.SourceRef = fmt.Sprintf("amazon.report_attachment,%s", attachment.ID)

		skip, err := s.guard.ShouldSkip(ctx, backend, sale.Origin, sale.FBA)
		if err != nil {
			return created, skipped, err
		}
		if skip {
			skipped++
			s.logger.Debug("sale already imported, skipping",
				zap.String("backend", backend.Name),
				zap.String("origin", sale.Origin))
			continue
		}

		order, err := s.resolver.Resolve(ctx, backend, sale)
		if err != nil {
			return created, skipped, err
		}
		if err := s.orders.Create(ctx, order); err != nil {
			// A concurrent pass won the race; the sale exists, that is fine.
			if errors.Is(err, trade.ErrSaleOrderExists) {
				skipped++
				continue
			}
			return created, skipped, err
		}
		created++
		s.logger.Info("created sale order from report",
			zap.String("backend", backend.Name),
			zap.String("name", order.Name),
			zap.Int("lines", len(order.Lines)))
	}
	return created, skipped, nil
}

// acknowledgeSettlement records the row count of a settlement report. The
// settlement rows are not turned into payments yet; the count is kept in the
// log for reconciliation.
func (s *SaleImportService) acknowledgeSettlement(backend *amazon.Backend, attachment *amazon.ReportAttachment) error {
	rows, err := CountSettlementRows(attachment.Payload, backend.Encoding)
	if err != nil {
		return err
	}
	s.logger.Info("settlement report acknowledged",
		zap.String("backend", backend.Name),
		zap.String("report_id", attachment.AmazonReportID),
		zap.Int("rows", rows))
	return nil
}
