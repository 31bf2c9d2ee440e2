package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"stockledger/internal/core/id"
	"stockledger/internal/domain/audit"
)

// Compile-time check that AuditService implements audit.Logger.
var _ audit.Logger = (*AuditService)(nil)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

const defaultCompressThreshold = 10 * 1024

// AuditEntry represents a single sys_audit row.
type AuditEntry struct {
	ID                id.ID           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          string          `db:"entity_id"`
	Action            audit.Action    `db:"action"`
	UserID            string          `db:"user_id"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	Metadata          json.RawMessage `db:"metadata"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditService writes audit entries into sys_audit within the caller's transaction.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	compressThreshold int // bytes
}

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// Log implements audit.Logger.
func (s *AuditService) Log(ctx context.Context, change audit.Change) error {
	changesJSON, err := json.Marshal(change.Changes)
	if err != nil {
		return fmt.Errorf("marshal audit changes: %w", err)
	}

	var metadataJSON json.RawMessage
	if len(change.Metadata) > 0 {
		metadataJSON, err = json.Marshal(change.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
	}

	return s.Insert(ctx, AuditEntry{
		EntityType: change.EntityType,
		EntityID:   change.EntityID,
		Action:     change.Action,
		UserID:     change.UserID,
		Changes:    changesJSON,
		Metadata:   metadataJSON,
	})
}

// Insert stores a prepared entry. Large change payloads are zstd-compressed.
func (s *AuditService) Insert(ctx context.Context, entry AuditEntry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	entry.CompressionAlgo = CompressionNone
	if len(entry.Changes) > s.compressThreshold {
		entry.ChangesCompressed = s.encoder.EncodeAll(entry.Changes, nil)
		entry.Changes = nil
		entry.CompressionAlgo = CompressionZstd
	}

	sql := `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id,
			changes, changes_compressed, compression_algo, metadata,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.txManager.GetQuerier(ctx).Exec(ctx, sql,
		entry.ID, entry.EntityType, entry.EntityID, string(entry.Action), entry.UserID,
		entry.Changes, entry.ChangesCompressed, string(entry.CompressionAlgo),
		entry.Metadata, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}
