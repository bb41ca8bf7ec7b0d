package repositories

import (
	"context"

	"github.com/google/uuid"

	"gstinvoice/internal/billing"
	"gstinvoice/internal/common"
)

type sequenceRepo struct {
	db DB
}

// NewSequenceRepo returns a SequenceAllocator backed by the invoice_sequences
// table. The upsert takes a row lock, so concurrent callers for one seller
// are serialised by postgres and never see the same number.
func NewSequenceRepo(db DB) billing.SequenceAllocator {
	return &sequenceRepo{db: db}
}

func (r *sequenceRepo) Next(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	query := `
		INSERT INTO invoice_sequences (seller_id, last_number, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (seller_id) DO UPDATE
		SET last_number = invoice_sequences.last_number + 1, updated_at = NOW()
		RETURNING last_number
	`
	var next int64
	if err := r.db.QueryRow(ctx, query, sellerID).Scan(&next); err != nil {
		return 0, common.NewError(common.ErrSequenceAllocation, "next invoice number", err)
	}
	return next, nil
}
