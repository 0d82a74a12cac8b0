package amazon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/erp/amazon-connector/internal/domain/amazon"
)

// ReportImportResult summarises one report polling pass.
type ReportImportResult struct {
	Listed     int       `json:"listed"`
	Downloaded int       `json:"downloaded"`
	Skipped    int       `json:"skipped"`
	Watermark  time.Time `json:"watermark"`
}

// ReportImportService polls the marketplace for new flat-file reports and
// stores each one as a pending attachment. Every downloaded report commits on
// its own: a failure later in the pass never forces a re-download. The report
// watermark advances once per pass, to the newest available-date listed, and
// only when the whole pass succeeded.
type ReportImportService struct {
	backends    amazon.BackendRepository
	attachments amazon.AttachmentRepository
	clients     amazon.ClientFactory
	logger      *zap.Logger
}

// NewReportImportService creates a ReportImportService.
func NewReportImportService(
	backends amazon.BackendRepository,
	attachments amazon.AttachmentRepository,
	clients amazon.ClientFactory,
	logger *zap.Logger,
) *ReportImportService {
	return &ReportImportService{
		backends:    backends,
		attachments: attachments,
		clients:     clients,
		logger:      logger,
	}
}

// ImportReports runs one polling pass for a backend: list the supported
// report types available since the watermark, download the ones not yet
// attached, then advance the watermark.
func (s *ReportImportService) ImportReports(ctx context.Context, backendID uuid.UUID) (*ReportImportResult, error) {
	backend, err := s.backends.FindByID(ctx, backendID)
	if err != nil {
		return nil, err
	}
	client, err := s.clients.ClientFor(ctx, backend)
	if err != nil {
		return nil, err
	}

	reports, err := s.listReports(ctx, client, backend)
	if err != nil {
		return nil, err
	}

	result := &ReportImportResult{Listed: len(reports), Watermark: backend.ReportImportFrom}
	if len(reports) == 0 {
		s.logger.Info("no new reports available",
			zap.String("backend", backend.Name),
			zap.Time("since", backend.ReportImportFrom))
		return result, nil
	}

	var newest time.Time
	for _, report := range reports {
		if report.AvailableDate.After(newest) {
			newest = report.AvailableDate
		}
		downloaded, err := s.downloadReport(ctx, client, backend, report)
		if err != nil {
			// The watermark stays put so the remaining reports are listed
			// again next pass; the attachments created so far are committed.
			return nil, err
		}
		if downloaded {
			result.Downloaded++
		} else {
			result.Skipped++
		}
	}

	if backend.AdvanceReportWatermark(newest) {
		if err := s.backends.UpdateReportWatermark(ctx, backend.ID, newest); err != nil {
			return nil, err
		}
	}
	result.Watermark = backend.ReportImportFrom

	s.logger.Info("report polling pass finished",
		zap.String("backend", backend.Name),
		zap.Int("listed", result.Listed),
		zap.Int("downloaded", result.Downloaded),
		zap.Int("skipped", result.Skipped),
		zap.Time("watermark", result.Watermark))
	return result, nil
}

// listReports walks every page of the report listing.
func (s *ReportImportService) listReports(ctx context.Context, client amazon.MarketplaceClient, backend *amazon.Backend) ([]amazon.ReportInfo, error) {
	page, err := client.ListReports(ctx, backend.ReportImportFrom, amazon.SupportedReportTypes())
	if err != nil {
		return nil, fmt.Errorf("listing reports for backend %s: %w", backend.Name, err)
	}
	reports := page.Reports
	for page.NextToken != "" {
		page, err = client.ListReportsByNextToken(ctx, page.NextToken)
		if err != nil {
			return nil, fmt.Errorf("listing reports for backend %s: %w", backend.Name, err)
		}
		reports = append(reports, page.Reports...)
	}
	return reports, nil
}

// downloadReport fetches one report and stores it as a pending attachment.
// Returns false when the report was already attached.
func (s *ReportImportService) downloadReport(ctx context.Context, client amazon.MarketplaceClient, backend *amazon.Backend, report amazon.ReportInfo) (bool, error) {
	exists, err := s.attachments.Exists(ctx, backend.ID, report.ReportID)
	if err != nil {
		return false, err
	}
	if exists {
		s.logger.Debug("report already attached, skipping download",
			zap.String("backend", backend.Name),
			zap.String("report_id", report.ReportID))
		return false, nil
	}

	payload, err := client.GetReport(ctx, report.ReportID)
	if err != nil {
		return false, fmt.Errorf("downloading report %s for backend %s: %w", report.ReportID, backend.Name, err)
	}

	attachment, err := amazon.NewReportAttachment(backend.ID, report.ReportID, report.Type, report.AvailableDate, payload)
	if err != nil {
		return false, err
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		if errors.Is(err, amazon.ErrAttachmentExists) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info("downloaded report",
		zap.String("backend", backend.Name),
		zap.String("report_id", report.ReportID),
		zap.String("type", report.Type.Label()),
		zap.Int("bytes", len(payload)))
	return true, nil
}
