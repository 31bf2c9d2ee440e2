package stock

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/tx"
	"stockledger/internal/core/types"
	"stockledger/internal/domain/audit"
	"stockledger/pkg/logger"
)

var tracer = otel.Tracer("stockledger/stock")

// EntityType is the audit entity type of stock snapshots.
const EntityType = "stock_snapshot"

// Service computes stock positions and persists snapshots.
// Every operation runs in a single transaction so all reads observe one
// consistent view of the store.
type Service struct {
	txm     tx.ReadOnlyManager
	repo    Repository
	names   NameResolver
	confirm Confirmer
	audit   audit.Logger
	now     func() time.Time
}

// NewService creates a new stock service.
func NewService(
	txm tx.ReadOnlyManager,
	repo Repository,
	names NameResolver,
	confirm Confirmer,
	auditLog audit.Logger,
) *Service {
	return &Service{
		txm:     txm,
		repo:    repo,
		names:   names,
		confirm: confirm,
		audit:   auditLog,
		now:     time.Now,
	}
}

// WithClock replaces the clock that defines "today".
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) today() types.Date {
	return types.DateOf(s.now())
}

// StockReport returns non-zero stock per item as of today, sorted by barcode.
// Snapshots and ledger rows dated after today are not counted.
func (s *Service) StockReport(ctx context.Context) ([]Position, error) {
	ctx, span := tracer.Start(ctx, "stock.report")
	defer span.End()

	var (
		positions []Position
		base      types.Date
	)
	today := s.today()
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		positions, base, err = s.compute(ctx, &today)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	positions = NonZero(positions)
	span.SetAttributes(attribute.Int("stock.items", len(positions)))
	logger.Info(ctx, "stock report computed",
		"baseline", base.String(),
		"items", len(positions),
	)

	return positions, nil
}

// Preview computes the positions a snapshot for req.EndDate would store.
// Zero quantities are included. Nothing is written.
func (s *Service) Preview(ctx context.Context, req PreviewRequest) ([]Position, error) {
	ctx, span := tracer.Start(ctx, "stock.preview")
	defer span.End()

	endDate, err := parseEndDate(req.EndDate)
	if err != nil {
		return nil, s.fail(span, err)
	}
	span.SetAttributes(attribute.String("stock.end_date", endDate.String()))

	var positions []Position
	err = s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		positions, _, err = s.compute(ctx, &endDate)
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	return positions, nil
}

// CreateSnapshot persists the positions as of req.EndDate as a new snapshot
// and returns the number of rows inserted. A snapshot date can be written
// only once and must not be in the future. StartDate is validated and
// audited but does not move the baseline.
func (s *Service) CreateSnapshot(ctx context.Context, req CreateSnapshotRequest) (int64, error) {
	ctx, span := tracer.Start(ctx, "stock.create_snapshot")
	defer span.End()

	if s.confirm == nil || !s.confirm.Confirm(req.Password) {
		logger.Warn(ctx, "snapshot creation rejected: bad confirmation password")
		return 0, s.fail(span, apperror.NewUnauthorized("invalid confirmation password"))
	}

	endDate, err := parseEndDate(req.EndDate)
	if err != nil {
		return 0, s.fail(span, err)
	}
	startDate, err := types.ParseOptionalDate(req.StartDate)
	if err != nil {
		return 0, s.fail(span, apperror.NewValidation("start_date must be YYYY-MM-DD").
			WithDetail("start_date", req.StartDate))
	}
	if today := s.today(); endDate.After(today) {
		return 0, s.fail(span, apperror.NewValidation("end_date must not be in the future").
			WithDetail("end_date", endDate.String()).
			WithDetail("today", today.String()))
	}
	if startDate != nil && startDate.After(endDate) {
		return 0, s.fail(span, apperror.NewValidation("start_date must not be after end_date").
			WithDetail("start_date", startDate.String()).
			WithDetail("end_date", endDate.String()))
	}
	span.SetAttributes(attribute.String("stock.end_date", endDate.String()))

	started := time.Now()
	var inserted int64
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.LockSnapshots(ctx); err != nil {
			return err
		}

		exists, err := s.repo.SnapshotExists(ctx, endDate)
		if err != nil {
			return err
		}
		if exists {
			return apperror.NewSnapshotExists(endDate.String())
		}

		positions, base, err := s.compute(ctx, &endDate)
		if err != nil {
			return err
		}

		rows := snapshotRows(positions)
		inserted, err = s.repo.InsertSnapshot(ctx, endDate, rows)
		if err != nil {
			return err
		}

		return s.recordAudit(ctx, endDate, startDate, base, rows)
	})
	if err != nil {
		return 0, s.fail(span, err)
	}

	span.SetAttributes(attribute.Int64("stock.inserted", inserted))
	logger.Info(ctx, "stock snapshot created",
		"snap_date", endDate.String(),
		"inserted", inserted,
		"duration", time.Since(started),
	)

	return inserted, nil
}

// compute selects the baseline, reads the ledger after it and aggregates.
// asOf nil leaves the window open. Must run inside a transaction.
func (s *Service) compute(ctx context.Context, asOf *types.Date) ([]Position, types.Date, error) {
	base, err := s.repo.LatestSnapshotDate(ctx, asOf)
	if err != nil {
		return nil, types.Date{}, err
	}

	baseline, err := s.repo.SnapshotQuantities(ctx, base)
	if err != nil {
		return nil, types.Date{}, err
	}

	ledger, err := s.repo.LedgerDeltas(ctx, LedgerWindow{After: base, Through: asOf})
	if err != nil {
		return nil, types.Date{}, err
	}

	net := Aggregate(baseline, ledger)

	names, err := s.names.ResolveNames(ctx, barcodesOf(net))
	if err != nil {
		return nil, types.Date{}, err
	}

	return buildPositions(net, names), base, nil
}

func (s *Service) recordAudit(ctx context.Context, endDate types.Date, startDate *types.Date, base types.Date, rows []SnapshotRow) error {
	if s.audit == nil {
		return nil
	}

	metadata := map[string]any{
		"end_date": endDate.String(),
		"baseline": base.String(),
		"rows":     len(rows),
	}
	if startDate != nil {
		metadata["start_date"] = startDate.String()
	}
	if requestID := appctx.GetRequestID(ctx); requestID != "" {
		metadata["request_id"] = requestID
	}

	return s.audit.Log(ctx, audit.Change{
		EntityType: EntityType,
		EntityID:   endDate.String(),
		Action:     audit.ActionCreate,
		Changes:    rows,
		Metadata:   metadata,
	})
}

// fail records err on the span and converts store failures to DATABASE_ERROR.
func (s *Service) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewDatabase(err)
}

func parseEndDate(raw string) (types.Date, error) {
	d, err := types.ParseOptionalDate(raw)
	if err != nil {
		return types.Date{}, apperror.NewValidation("end_date must be YYYY-MM-DD").
			WithDetail("end_date", raw)
	}
	if d == nil {
		return types.Date{}, apperror.NewValidation("end_date is required")
	}
	return *d, nil
}
