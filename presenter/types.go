package presenter

import (
	"github.com/omni/pds-gateway/reporter"
)

type GatewayInfo struct {
	AllowedDataSourceIDs []int64 `json:"allow_data_source_ids"`
	MaxDelayVerification int64   `json:"max_delay_verification"`
}

type StatusResult struct {
	GatewayInfo         *GatewayInfo         `json:"gateway_info"`
	LatestRequest       *reporter.ReportInfo `json:"latest_request"`
	LatestFailedRequest *reporter.ReportInfo `json:"latest_failed_request"`
}
