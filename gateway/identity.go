package gateway

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/omni/pds-gateway/verifier"
)

const bandPrefix = "band_"

// CallerIdentity is the oracle caller derived from the BAND_* headers.
type CallerIdentity struct {
	ChainID      string
	Validator    string
	Reporter     string
	RequestID    *int64
	ExternalID   *int64
	DataSourceID *int64
	Signature    string

	// Params holds every BAND_* header, lower-cased without the prefix, as
	// forwarded to the verify endpoint.
	Params map[string]string
}

// IdentityError rejects a request whose BAND_* headers are missing or malformed.
type IdentityError struct {
	StatusCode int
	Message    string
}

func (e *IdentityError) Error() string {
	return e.Message
}

func (e *IdentityError) Result() *verifier.Result {
	return &verifier.Result{
		ResponseCode: e.StatusCode,
		ErrorType:    verifier.KindFailedVerification,
		ErrorMsg:     e.Message,
	}
}

// BandParams collects BAND_* headers case-insensitively.
func BandParams(header http.Header) map[string]string {
	params := make(map[string]string)
	for k, v := range header {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, bandPrefix) && len(v) > 0 {
			params[lk[len(bandPrefix):]] = v[0]
		}
	}
	return params
}

// ParseIdentity builds the caller identity. The signature is only mandatory
// when requireSignature is set. The returned identity carries every field
// parsed before a failure.
func ParseIdentity(params map[string]string, requireSignature bool) (*CallerIdentity, error) {
	id := &CallerIdentity{
		ChainID:   params["chain_id"],
		Validator: params["validator"],
		Reporter:  params["reporter"],
		Signature: params["signature"],
		Params:    params,
	}

	for _, f := range []struct {
		name string
		dst  **int64
	}{
		{"request_id", &id.RequestID},
		{"external_id", &id.ExternalID},
		{"data_source_id", &id.DataSourceID},
	} {
		raw, ok := params[f.name]
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return id, &IdentityError{
				StatusCode: http.StatusBadRequest,
				Message:    fmt.Sprintf("BAND_%s header must be an integer, got %q", strings.ToUpper(f.name), raw),
			}
		}
		*f.dst = &v
	}

	if requireSignature && id.Signature == "" {
		return id, &IdentityError{
			StatusCode: http.StatusUnauthorized,
			Message:    "missing BAND_SIGNATURE header",
		}
	}
	return id, nil
}
