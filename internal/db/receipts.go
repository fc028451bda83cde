package db

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Receipt is the persisted form of an extraction result. Line items and the
// full record are stored as JSON alongside the flat fields used for listing
// and reporting.
type Receipt struct {
	ID              uuid.UUID  `json:"id"`
	Supplier        string     `json:"supplier"`
	TransactionDate *time.Time `json:"transaction_date"`
	PaymentTerms    string     `json:"payment_terms"`
	VATRegTIN       string     `json:"vat_reg_tin"`
	TotalAmount     float64    `json:"total_amount"`
	VATAmount       float64    `json:"vat_amount"`
	TotalAmountDue  float64    `json:"total_amount_due"`
	Confidence      float64    `json:"confidence"`
	ImageURL        string     `json:"image_url"`
	ItemsJSON       string     `json:"items_json,omitempty"`
	RecordJSON      string     `json:"record_json,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func SaveReceipt(ctx context.Context, rec *Receipt) error {
	query := `
		INSERT INTO receipts (
			supplier, transaction_date, payment_terms, vat_reg_tin,
			total_amount, vat_amount, total_amount_due, confidence,
			image_url, items_json, record_json
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`

	err := Pool.QueryRow(ctx, query,
		rec.Supplier, rec.TransactionDate, rec.PaymentTerms, rec.VATRegTIN,
		rec.TotalAmount, rec.VATAmount, rec.TotalAmountDue, rec.Confidence,
		rec.ImageURL, rec.ItemsJSON, rec.RecordJSON,
	).Scan(&rec.ID, &rec.CreatedAt)

	return err
}

func GetReceipts(ctx context.Context, limit int) ([]Receipt, error) {
	query := `
		SELECT id, COALESCE(supplier, ''), transaction_date, COALESCE(payment_terms, ''),
		       COALESCE(vat_reg_tin, ''), COALESCE(total_amount, 0), COALESCE(vat_amount, 0),
		       COALESCE(total_amount_due, 0), COALESCE(confidence, 0), COALESCE(image_url, ''), created_at
		FROM receipts
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var receipts []Receipt
	for rows.Next() {
		var rec Receipt
		err := rows.Scan(
			&rec.ID, &rec.Supplier, &rec.TransactionDate, &rec.PaymentTerms,
			&rec.VATRegTIN, &rec.TotalAmount, &rec.VATAmount,
			&rec.TotalAmountDue, &rec.Confidence, &rec.ImageURL, &rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, rec)
	}

	return receipts, nil
}

// GetReceiptByID retrieves a single receipt, including the stored JSON.
func GetReceiptByID(ctx context.Context, receiptID string) (*Receipt, error) {
	query := `
		SELECT id, COALESCE(supplier, ''), transaction_date, COALESCE(payment_terms, ''),
		       COALESCE(vat_reg_tin, ''), COALESCE(total_amount, 0), COALESCE(vat_amount, 0),
		       COALESCE(total_amount_due, 0), COALESCE(confidence, 0), COALESCE(image_url, ''),
		       COALESCE(items_json::text, ''), COALESCE(record_json::text, ''), created_at
		FROM receipts
		WHERE id = $1
	`

	var rec Receipt
	err := Pool.QueryRow(ctx, query, receiptID).Scan(
		&rec.ID, &rec.Supplier, &rec.TransactionDate, &rec.PaymentTerms,
		&rec.VATRegTIN, &rec.TotalAmount, &rec.VATAmount,
		&rec.TotalAmountDue, &rec.Confidence, &rec.ImageURL,
		&rec.ItemsJSON, &rec.RecordJSON, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteReceipt removes a receipt
func DeleteReceipt(ctx context.Context, receiptID string) error {
	_, err := Pool.Exec(ctx, "DELETE FROM receipts WHERE id = $1", receiptID)
	return err
}

// MonthlyStats represents monthly statistics
type MonthlyStats struct {
	Month         string  `json:"month"`
	TotalReceipts int     `json:"total_receipts"`
	TotalAmount   float64 `json:"total_amount"`
	TotalVAT      float64 `json:"total_vat"`
	TotalDue      float64 `json:"total_due"`
}

// GetMonthlyStats returns statistics for the current month
func GetMonthlyStats(ctx context.Context) (*MonthlyStats, error) {
	query := `
		SELECT
			COUNT(*) as total_receipts,
			COALESCE(SUM(total_amount), 0) as total_amount,
			COALESCE(SUM(vat_amount), 0) as total_vat,
			COALESCE(SUM(total_amount_due), 0) as total_due
		FROM receipts
		WHERE DATE_TRUNC('month', created_at) = DATE_TRUNC('month', CURRENT_DATE)
	`

	stats := &MonthlyStats{
		Month: time.Now().Format("2006-01"),
	}

	err := Pool.QueryRow(ctx, query).Scan(
		&stats.TotalReceipts,
		&stats.TotalAmount,
		&stats.TotalVAT,
		&stats.TotalDue,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
