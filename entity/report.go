package entity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Report is the append-only audit record of one pipeline run.
type Report struct {
	ID                   uuid.UUID `db:"id"`
	UserIP               string    `db:"user_ip"`
	ReporterAddress      *string   `db:"reporter_address"`
	ValidatorAddress     *string   `db:"validator_address"`
	RequestID            *int64    `db:"request_id"`
	DataSourceID         *int64    `db:"data_source_id"`
	ExternalID           *int64    `db:"external_id"`
	CachedData           bool      `db:"cached_data"`
	VerifyResponseCode   int       `db:"verify_response_code"`
	VerifyIsDelay        bool      `db:"verify_is_delay"`
	VerifyErrorType      *string   `db:"verify_error_type"`
	VerifyErrorMsg       *string   `db:"verify_error_msg"`
	ProviderResponseCode *int      `db:"provider_response_code"`
	ProviderErrorMsg     *string   `db:"provider_error_msg"`
	CreatedAt            time.Time `db:"created_at"`
}

// Failed reports whether either the verification or the provider call did
// not end with 200.
func (r *Report) Failed() bool {
	return r.VerifyResponseCode != 200 || r.ProviderResponseCode == nil || *r.ProviderResponseCode != 200
}

type ReportsRepo interface {
	Insert(ctx context.Context, report *Report) error
	FindLatest(ctx context.Context) (*Report, error)
	FindLatestFailed(ctx context.Context) (*Report, error)
	DeleteOlderThan(ctx context.Context, ts time.Time) (int64, error)
}
