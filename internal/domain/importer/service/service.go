// Package service orchestrates the import flow: analyzing uploads against
// the saved mapping library, previewing normalized output, and committing
// transactions to the store.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/pocketledger/pocketledger/internal/domain/importer/dates"
	"github.com/pocketledger/pocketledger/internal/domain/importer/headers"
	"github.com/pocketledger/pocketledger/internal/domain/importer/mapping"
	"github.com/pocketledger/pocketledger/internal/domain/importer/normalize"
	"github.com/pocketledger/pocketledger/internal/domain/importer/repository"
	"github.com/pocketledger/pocketledger/internal/domain/importer/tabular"
	"github.com/pocketledger/pocketledger/pkg/metrics"
	"github.com/pocketledger/pocketledger/pkg/money"
	"github.com/pocketledger/pocketledger/pkg/storage"
)

const (
	defaultPreviewLimit = 50
	sampleRowCount      = 5
)

// AnalyzeResult describes an uploaded file and how it can be mapped.
type AnalyzeResult struct {
	UploadID uuid.UUID `json:"upload_id"`
	Filename string    `json:"filename"`

	Headers           []string             `json:"headers"`
	HasHeader         bool                 `json:"has_header"`
	DetectedHasHeader bool                 `json:"detected_has_header"`
	HeaderSource      tabular.HeaderSource `json:"header_source"`
	RowCount          int                  `json:"row_count"`
	SampleRows        [][]string           `json:"sample_rows"`

	// Match is the saved mapping recognized for this file, nil when none
	// qualified. Suggestion is the heuristic prefill offered instead.
	Match      *mapping.Match         `json:"match,omitempty"`
	Suggestion *mapping.ImportMapping `json:"suggestion,omitempty"`

	Months []dates.MonthOption `json:"months"`
}

// PreviewRequest recomputes buckets and sample output for a mapping the
// user is still editing.
type PreviewRequest struct {
	UploadID       uuid.UUID             `json:"upload_id"`
	Mapping        mapping.ImportMapping `json:"mapping"`
	HasHeader      *bool                 `json:"has_header,omitempty"`
	SelectedMonths []string              `json:"selected_months,omitempty"`
	Limit          int                   `json:"limit,omitempty"`
}

// PreviewRecord is a normalized transaction plus its display rendering.
type PreviewRecord struct {
	normalize.Transaction
	AmountDisplay string `json:"amount_display"`
}

// PreviewResult is the dry-run output of a mapping.
type PreviewResult struct {
	Months       []dates.MonthOption `json:"months"`
	Records      []PreviewRecord     `json:"records"`
	TotalRows    int                 `json:"total_rows"`
	EligibleRows int                 `json:"eligible_rows"`
}

// SaveMappingRequest asks the commit to remember the mapping. A nil ID
// creates a new library entry; a set ID replaces that entry's payload.
type SaveMappingRequest struct {
	ID   *uuid.UUID `json:"id,omitempty"`
	Name string     `json:"name"`
}

// CommitRequest finalizes an import.
type CommitRequest struct {
	UploadID       uuid.UUID             `json:"upload_id"`
	Mapping        mapping.ImportMapping `json:"mapping"`
	HasHeader      *bool                 `json:"has_header,omitempty"`
	SelectedMonths []string              `json:"selected_months,omitempty"`
	SaveMapping    *SaveMappingRequest   `json:"save_mapping,omitempty"`
}

// CommitResult reports what a commit did. A mapping-save failure is not
// fatal: the transactions are already in and MappingSaveError carries the
// user-facing message.
type CommitResult struct {
	Imported         int    `json:"imported"`
	Skipped          int    `json:"skipped"`
	MappingSaved     bool   `json:"mapping_saved"`
	MappingSaveError string `json:"mapping_save_error,omitempty"`
}

// ImportService orchestrates file analysis, preview and commit.
type ImportService struct {
	repo    repository.ImportRepository
	uploads storage.UploadStore
	logger  *slog.Logger
	metrics *metrics.ImportMetrics
	tracer  trace.Tracer
}

// NewImportService creates a new import service.
func NewImportService(repo repository.ImportRepository, uploads storage.UploadStore, logger *slog.Logger) *ImportService {
	return &ImportService{
		repo:    repo,
		uploads: uploads,
		logger:  logger,
		tracer:  otel.Tracer("pocketledger/importer"),
	}
}

// WithMetrics adds Prometheus instrumentation to the service.
func (s *ImportService) WithMetrics(m *metrics.ImportMetrics) *ImportService {
	s.metrics = m
	return s
}

// Analyze parses an uploaded file, stores it for the rest of the flow, and
// matches it against the saved mapping library. Auto-matching only runs
// when the header verdict came from detection and the headers are
// unambiguous; otherwise the heuristic suggestion is offered.
func (s *ImportService) Analyze(ctx context.Context, filename string, data []byte) (*AnalyzeResult, error) {
	ctx, span := s.tracer.Start(ctx, "import.analyze",
		trace.WithAttributes(attribute.String("filename", filename), attribute.Int("bytes", len(data))))
	defer span.End()

	start := time.Now()
	if s.metrics != nil {
		s.metrics.AnalyzesTotal.Inc()
		defer func() { s.metrics.AnalyzeSeconds.Observe(time.Since(start).Seconds()) }()
	}

	file, err := tabular.Parse(filename, data)
	if err != nil {
		if s.metrics != nil {
			s.metrics.AnalyzeFailures.Inc()
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to analyze file: %w", err)
	}

	result := &AnalyzeResult{
		Filename:          filename,
		Headers:           file.Headers,
		HasHeader:         file.HasHeader,
		DetectedHasHeader: file.DetectedHasHeader,
		HeaderSource:      file.HeaderSource,
		RowCount:          len(file.Rows),
		SampleRows:        sample(file.Rows, sampleRowCount),
	}

	outcome := "none"
	if file.HasHeader && file.HeaderSource == tabular.HeaderSourceAuto && !headers.HasAmbiguous(file.Headers) {
		saved, err := s.repo.GetColumnMappings(ctx)
		if err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("failed to load mapping library: %w", err)
		}
		if match := mapping.PickBest(file.Headers, file.HasHeader, saved); match != nil {
			result.Match = match
			if match.Exact {
				outcome = "exact"
			} else {
				outcome = "scored"
			}
		}
	}
	if result.Match == nil {
		suggestion := mapping.Suggest(file.Headers)
		result.Suggestion = &suggestion
		outcome = "suggested"
	}
	if s.metrics != nil {
		s.metrics.MappingAutoMatches.WithLabelValues(outcome).Inc()
	}

	result.Months = monthsFor(file, activeMapping(result))

	info, err := s.uploads.Save(ctx, filename, data)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	result.UploadID = info.ID

	s.logger.Info("analyzed upload",
		slog.String("upload_id", info.ID.String()),
		slog.String("filename", filename),
		slog.Int("rows", result.RowCount),
		slog.Bool("has_header", result.HasHeader),
		slog.String("match_outcome", outcome),
	)
	return result, nil
}

// Preview recomputes month buckets and renders a capped slice of the
// normalized output under the given mapping. Nothing is persisted.
func (s *ImportService) Preview(ctx context.Context, req PreviewRequest) (*PreviewResult, error) {
	ctx, span := s.tracer.Start(ctx, "import.preview",
		trace.WithAttributes(attribute.String("upload_id", req.UploadID.String())))
	defer span.End()

	file, m, err := s.materialize(ctx, req.UploadID, req.Mapping, req.HasHeader)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	records := normalize.Normalize(file, m, req.SelectedMonths)

	limit := req.Limit
	if limit <= 0 {
		limit = defaultPreviewLimit
	}
	shown := records
	if len(shown) > limit {
		shown = shown[:limit]
	}

	out := &PreviewResult{
		Months:       monthsFor(file, m),
		Records:      make([]PreviewRecord, 0, len(shown)),
		TotalRows:    len(file.Rows),
		EligibleRows: len(records),
	}
	for _, tx := range shown {
		out.Records = append(out.Records, PreviewRecord{
			Transaction:   tx,
			AmountDisplay: money.New(tx.AmountCents, tx.Currency).Display(),
		})
	}
	return out, nil
}

// Commit normalizes the staged upload and persists the result. When the
// request also asks to remember the mapping, a save failure (typically a
// name conflict) does not undo the import; it is reported alongside.
func (s *ImportService) Commit(ctx context.Context, req CommitRequest) (*CommitResult, error) {
	ctx, span := s.tracer.Start(ctx, "import.commit",
		trace.WithAttributes(attribute.String("upload_id", req.UploadID.String())))
	defer span.End()

	if s.metrics != nil {
		s.metrics.ImportsTotal.Inc()
	}

	file, m, err := s.materialize(ctx, req.UploadID, req.Mapping, req.HasHeader)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	records := normalize.Normalize(file, m, req.SelectedMonths)
	imported, err := s.repo.ImportTransactions(ctx, records)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ImportFailures.Inc()
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to import transactions: %w", err)
	}

	result := &CommitResult{
		Imported: imported,
		Skipped:  len(file.Rows) - imported,
	}
	if s.metrics != nil {
		s.metrics.RowsImported.Add(float64(result.Imported))
		s.metrics.RowsSkipped.Add(float64(result.Skipped))
	}

	if req.SaveMapping != nil {
		if err := s.saveMapping(ctx, *req.SaveMapping, m, file); err != nil {
			s.logger.Warn("import committed but mapping save failed",
				slog.String("name", req.SaveMapping.Name),
				slog.Any("error", err),
			)
			result.MappingSaveError = err.Error()
		} else {
			result.MappingSaved = true
		}
	}

	if err := s.uploads.Delete(ctx, req.UploadID); err != nil {
		s.logger.Warn("failed to remove committed upload", slog.Any("error", err))
	}

	s.logger.Info("committed import",
		slog.String("upload_id", req.UploadID.String()),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped),
		slog.Bool("mapping_saved", result.MappingSaved),
	)
	return result, nil
}

// ListMappings returns the saved mapping library.
func (s *ImportService) ListMappings(ctx context.Context) ([]mapping.SavedMapping, error) {
	return s.repo.GetColumnMappings(ctx)
}

// UpsertMapping writes a library entry directly, outside the commit flow.
// A nil id creates a new entry.
func (s *ImportService) UpsertMapping(ctx context.Context, saved mapping.SavedMapping) (mapping.SavedMapping, error) {
	if saved.ID == uuid.Nil {
		saved.ID = uuid.New()
	}
	if err := s.repo.SaveColumnMapping(ctx, saved); err != nil {
		return mapping.SavedMapping{}, err
	}
	return saved, nil
}

// DeleteMapping removes a saved mapping from the library.
func (s *ImportService) DeleteMapping(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteColumnMapping(ctx, id)
}

// Accounts lists the known account names for the mapping editor.
func (s *ImportService) Accounts(ctx context.Context) ([]string, error) {
	return s.repo.GetAccounts(ctx)
}

// Owners lists the known owner names for the mapping editor.
func (s *ImportService) Owners(ctx context.Context) ([]string, error) {
	return s.repo.GetOwners(ctx)
}

// materialize reloads a staged upload, applies a header-verdict override,
// and rebinds the request's mapping to the file's literal headers.
func (s *ImportService) materialize(ctx context.Context, uploadID uuid.UUID, m mapping.ImportMapping, hasHeader *bool) (*tabular.ParsedFile, mapping.ImportMapping, error) {
	data, info, err := s.uploads.Load(ctx, uploadID)
	if err != nil {
		return nil, mapping.ImportMapping{}, fmt.Errorf("failed to load upload: %w", err)
	}

	file, err := tabular.Parse(info.Name, data)
	if err != nil {
		return nil, mapping.ImportMapping{}, fmt.Errorf("failed to parse upload: %w", err)
	}
	if hasHeader != nil && *hasHeader != file.HasHeader {
		file = file.WithHasHeader(*hasHeader)
	}

	return file, mapping.Rebind(m, file.Headers), nil
}

// saveMapping freezes the current header signature alongside the mapping
// and writes it to the library.
func (s *ImportService) saveMapping(ctx context.Context, req SaveMappingRequest, m mapping.ImportMapping, file *tabular.ParsedFile) error {
	id := uuid.New()
	if req.ID != nil {
		id = *req.ID
	}
	return s.repo.SaveColumnMapping(ctx, mapping.SavedMapping{
		ID:      id,
		Name:    req.Name,
		Mapping: m,
		Meta: &mapping.Meta{
			Headers:   headers.SignatureSet(file.Headers),
			HasHeader: file.HasHeader,
		},
	})
}

func activeMapping(r *AnalyzeResult) mapping.ImportMapping {
	if r.Match != nil {
		return r.Match.Mapping
	}
	if r.Suggestion != nil {
		return *r.Suggestion
	}
	return mapping.ImportMapping{}
}

// monthsFor buckets the file's rows by the mapping's date column. An
// unresolved date reference yields no buckets.
func monthsFor(file *tabular.ParsedFile, m mapping.ImportMapping) []dates.MonthOption {
	col := -1
	for i, h := range file.Headers {
		if h == m.CSV.Date {
			col = i
			break
		}
	}
	if m.CSV.Date == "" {
		col = -1
	}
	return dates.BucketByMonth(file.Rows, col)
}

func sample(rows [][]string, n int) [][]string {
	if len(rows) <= n {
		return rows
	}
	return rows[:n]
}
