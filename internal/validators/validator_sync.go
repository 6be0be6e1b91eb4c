package validators

import (
	"context"
	"fmt"
	"regexp"

	"github.com/MKhiriev/bank-mmudzi/models"
)

const (
	FieldTable       = "table"
	FieldRecordID    = "record_id"
	FieldOperation   = "operation"
	FieldContentHash = "content_hash"
	FieldCapturedAt  = "captured_at"
	FieldStatus      = "status"
	FieldStrategy    = "strategy"
	FieldMerged      = "merged"
	FieldColumns     = "columns"
)

// identifierRe matches the table and column names the stores accept.
var identifierRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

type SyncValidator struct{}

func NewSyncValidator() Validator {
	return &SyncValidator{}
}

func (v *SyncValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.SyncRecord:
		return v.validateSyncRecord(ctx, value, fields...)
	case *models.SyncRecord:
		return v.validateSyncRecord(ctx, *value, fields...)

	case models.ResolveConflictRequest:
		return v.validateResolveRequest(ctx, value, fields...)
	case *models.ResolveConflictRequest:
		return v.validateResolveRequest(ctx, *value, fields...)

	case models.Row:
		return v.validateRow(ctx, value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func (v *SyncValidator) validateSyncRecord(_ context.Context, rec models.SyncRecord, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldTable, FieldRecordID, FieldOperation, FieldContentHash, FieldCapturedAt, FieldStatus}
	}

	for _, f := range fields {
		switch f {
		case FieldTable:
			if !identifierRe.MatchString(rec.Table) {
				return fmt.Errorf("%w: %q", ErrInvalidTable, rec.Table)
			}
		case FieldRecordID:
			if rec.RecordID == "" {
				return ErrInvalidRecordID
			}
		case FieldOperation:
			if !rec.Op.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidOperation, rec.Op)
			}
		case FieldContentHash:
			if rec.Op != models.OperationDelete && rec.ContentHash == "" {
				return ErrInvalidContentHash
			}
		case FieldCapturedAt:
			if rec.CapturedAt.IsZero() {
				return ErrInvalidCapturedAt
			}
		case FieldStatus:
			switch rec.Status {
			case models.SyncStatusPending, models.SyncStatusSynced, models.SyncStatusConflicted:
			default:
				return fmt.Errorf("%w: %q", ErrInvalidStatus, rec.Status)
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *SyncValidator) validateResolveRequest(ctx context.Context, req models.ResolveConflictRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldStrategy, FieldMerged}
	}

	for _, f := range fields {
		switch f {
		case FieldStrategy:
			if _, err := models.ParseResolutionStrategy(req.Strategy); err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidStrategy, err)
			}
		case FieldMerged:
			if len(req.Merged) == 0 {
				continue
			}
			if strategy, err := models.ParseResolutionStrategy(req.Strategy); err == nil && strategy != models.ResolutionManual {
				return ErrMergedWithoutManual
			}
			if err := v.validateRow(ctx, req.Merged); err != nil {
				return fmt.Errorf("merged row: %w", err)
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *SyncValidator) validateRow(_ context.Context, row models.Row, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldColumns}
	}

	for _, f := range fields {
		switch f {
		case FieldColumns:
			for _, col := range row.Keys() {
				if !identifierRe.MatchString(col) {
					return fmt.Errorf("%w: %q", ErrInvalidColumn, col)
				}
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}
