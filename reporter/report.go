package reporter

import (
	"time"

	"github.com/google/uuid"

	"github.com/omni/pds-gateway/entity"
	"github.com/omni/pds-gateway/gateway"
)

// NewReport captures a pipeline outcome as an audit record.
func NewReport(o *gateway.Outcome, now time.Time) *entity.Report {
	report := &entity.Report{
		ID:         uuid.New(),
		UserIP:     o.UserIP,
		CachedData: o.Cached,
		CreatedAt:  now.UTC(),
	}
	if id := o.Identity; id != nil {
		report.ReporterAddress = optString(id.Reporter)
		report.ValidatorAddress = optString(id.Validator)
		report.RequestID = id.RequestID
		report.DataSourceID = id.DataSourceID
		report.ExternalID = id.ExternalID
	}
	if v := o.Verify; v != nil {
		report.VerifyResponseCode = v.ResponseCode
		report.VerifyIsDelay = v.IsDelay
		report.VerifyErrorType = optString(string(v.ErrorType))
		report.VerifyErrorMsg = optString(v.ErrorMsg)
	}
	if p := o.Provider; p != nil {
		code := p.ResponseCode
		report.ProviderResponseCode = &code
		report.ProviderErrorMsg = optString(p.ErrorMsg)
	}
	return report
}

type VerifyInfo struct {
	ResponseCode int     `json:"response_code"`
	IsDelay      bool    `json:"is_delay"`
	ErrorType    *string `json:"error_type,omitempty"`
	ErrorMsg     *string `json:"error_msg,omitempty"`
}

type ProviderResponseInfo struct {
	ResponseCode int     `json:"response_code"`
	ErrorMsg     *string `json:"error_msg,omitempty"`
}

// ReportInfo is the public view of a report. It never carries the caller IP.
type ReportInfo struct {
	ReporterAddress  *string               `json:"reporter_address,omitempty"`
	ValidatorAddress *string               `json:"validator_address,omitempty"`
	RequestID        *int64                `json:"request_id,omitempty"`
	DataSourceID     *int64                `json:"data_source_id,omitempty"`
	ExternalID       *int64                `json:"external_id,omitempty"`
	CachedData       bool                  `json:"cached_data"`
	Verify           VerifyInfo            `json:"verify"`
	ProviderResponse *ProviderResponseInfo `json:"provider_response,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
}

func NewReportInfo(r *entity.Report) *ReportInfo {
	if r == nil {
		return nil
	}
	info := &ReportInfo{
		ReporterAddress:  r.ReporterAddress,
		ValidatorAddress: r.ValidatorAddress,
		RequestID:        r.RequestID,
		DataSourceID:     r.DataSourceID,
		ExternalID:       r.ExternalID,
		CachedData:       r.CachedData,
		Verify: VerifyInfo{
			ResponseCode: r.VerifyResponseCode,
			IsDelay:      r.VerifyIsDelay,
			ErrorType:    r.VerifyErrorType,
			ErrorMsg:     r.VerifyErrorMsg,
		},
		CreatedAt: r.CreatedAt,
	}
	if r.ProviderResponseCode != nil {
		info.ProviderResponse = &ProviderResponseInfo{
			ResponseCode: *r.ProviderResponseCode,
			ErrorMsg:     r.ProviderErrorMsg,
		}
	}
	return info
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
