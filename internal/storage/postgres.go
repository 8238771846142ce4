/**
 * PostgreSQL client for the compliance worker
 *
 * Persists finished checks as append-only records and serves the
 * admin-managed field catalog. The worker never updates a check after
 * writing it; history stays immutable for audit.
 */

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/DEMONNN69/anvay/internal/compliance"
)

// PostgresClient handles database operations
type PostgresClient struct {
	db *sql.DB
}

// CheckRecord is one finished compliance check headed for persistence.
type CheckRecord struct {
	CheckID          string
	UserID           string
	Filename         string
	MimeType         string
	FileSize         int64
	Score            int
	Status           string
	ExtractedText    string
	Fields           interface{} // stored as JSONB
	ErrorCode        string
	ErrorMessage     string
	ProcessingTimeMs int64
}

// NewPostgresClient creates a new PostgreSQL client
func NewPostgresClient(databaseURL string) (*PostgresClient, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresClient{db: db}, nil
}

// SaveCheck inserts a finished check and returns the generated record id.
// Records are append-only: re-running a check produces a new row.
func (p *PostgresClient) SaveCheck(ctx context.Context, record *CheckRecord) (string, error) {
	if record.CheckID == "" {
		return "", fmt.Errorf("check ID is required")
	}
	if record.Status == "" {
		return "", fmt.Errorf("status is required")
	}

	fieldsJSON, err := json.Marshal(record.Fields)
	if err != nil {
		return "", fmt.Errorf("failed to marshal fields: %w", err)
	}

	query := `
		INSERT INTO compliance_checks (
			check_id, user_id, filename, mime_type, file_size,
			score, status, extracted_text, fields,
			error_code, error_message, processing_time_ms,
			created_at
		) VALUES (
			$1, COALESCE(NULLIF($2, ''), 'anonymous'), $3, $4, $5,
			$6, $7, $8, COALESCE($9::jsonb, '[]'::jsonb),
			NULLIF($10, ''), NULLIF($11, ''), NULLIF($12, 0),
			NOW()
		)
		RETURNING id
	`

	var id string
	err = p.db.QueryRowContext(
		ctx,
		query,
		record.CheckID,
		record.UserID,
		record.Filename,
		record.MimeType,
		record.FileSize,
		record.Score,
		record.Status,
		record.ExtractedText,
		fieldsJSON,
		record.ErrorCode,
		record.ErrorMessage,
		record.ProcessingTimeMs,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("failed to save check (check=%s, status=%s): %w",
			record.CheckID, record.Status, err)
	}

	return id, nil
}

// GetCheck retrieves a stored check by record id.
func (p *PostgresClient) GetCheck(ctx context.Context, id string) (map[string]interface{}, error) {
	if id == "" {
		return nil, fmt.Errorf("record id is required")
	}

	query := `
		SELECT
			id, check_id, user_id, filename, mime_type, file_size,
			score, status, extracted_text, fields,
			error_code, error_message, processing_time_ms, created_at
		FROM compliance_checks
		WHERE id = $1::uuid
	`

	var (
		recordID, checkID, userID, filename string
		mimeType                            sql.NullString
		fileSize                            sql.NullInt64
		score                               int
		status, extractedText               string
		fieldsJSON                          []byte
		errorCode, errorMessage             sql.NullString
		processingTimeMs                    sql.NullInt64
		createdAt                           time.Time
	)

	err := p.db.QueryRowContext(ctx, query, id).Scan(
		&recordID, &checkID, &userID, &filename, &mimeType, &fileSize,
		&score, &status, &extractedText, &fieldsJSON,
		&errorCode, &errorMessage, &processingTimeMs, &createdAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("check not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get check: %w", err)
	}

	var fields interface{}
	if len(fieldsJSON) > 0 {
		if err := json.Unmarshal(fieldsJSON, &fields); err != nil {
			return nil, fmt.Errorf("failed to unmarshal fields: %w", err)
		}
	}

	result := map[string]interface{}{
		"id":             recordID,
		"checkId":        checkID,
		"userId":         userID,
		"filename":       filename,
		"score":          score,
		"status":         status,
		"extractedText":  extractedText,
		"fields":         fields,
		"createdAt":      createdAt,
	}
	if mimeType.Valid {
		result["mimeType"] = mimeType.String
	}
	if fileSize.Valid {
		result["fileSize"] = fileSize.Int64
	}
	if errorCode.Valid {
		result["errorCode"] = errorCode.String
	}
	if errorMessage.Valid {
		result["errorMessage"] = errorMessage.String
	}
	if processingTimeMs.Valid {
		result["processingTimeMs"] = processingTimeMs.Int64
	}
	return result, nil
}

// ListChecks returns the newest checks for a user, most recent first.
func (p *PostgresClient) ListChecks(ctx context.Context, userID string, limit int) ([]map[string]interface{}, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, check_id, filename, score, status, created_at
		FROM compliance_checks
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := p.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list checks: %w", err)
	}
	defer rows.Close()

	var checks []map[string]interface{}
	for rows.Next() {
		var (
			id, checkID, filename, status string
			score                         int
			createdAt                     time.Time
		)
		if err := rows.Scan(&id, &checkID, &filename, &score, &status, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan check row: %w", err)
		}
		checks = append(checks, map[string]interface{}{
			"id":        id,
			"checkId":   checkID,
			"filename":  filename,
			"score":     score,
			"status":    status,
			"createdAt": createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate checks: %w", err)
	}
	return checks, nil
}

// ActiveFields loads the admin-managed field catalog in display order.
// Implements compliance.FieldCatalog.
func (p *PostgresClient) ActiveFields(ctx context.Context) ([]compliance.CatalogField, error) {
	query := `
		SELECT key, name, icon
		FROM compliance_fields
		WHERE is_active = TRUE
		ORDER BY sort_order, key
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load field catalog: %w", err)
	}
	defer rows.Close()

	var fields []compliance.CatalogField
	for rows.Next() {
		var key, name, icon string
		if err := rows.Scan(&key, &name, &icon); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		fields = append(fields, compliance.CatalogField{
			Key:  compliance.FieldType(key),
			Name: name,
			Icon: icon,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate field catalog: %w", err)
	}

	// An empty catalog would zero every score; fall back to the seed set.
	if len(fields) == 0 {
		return DefaultCatalogFields(), nil
	}
	return fields, nil
}

// Ping checks database connectivity
func (p *PostgresClient) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection
func (p *PostgresClient) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// GetStats returns connection pool statistics
func (p *PostgresClient) GetStats() sql.DBStats {
	return p.db.Stats()
}
