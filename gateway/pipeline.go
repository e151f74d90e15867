package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/omni/pds-gateway/adapter"
	"github.com/omni/pds-gateway/cache"
	"github.com/omni/pds-gateway/config"
	"github.com/omni/pds-gateway/logging"
	"github.com/omni/pds-gateway/verifier"
)

type Verifier interface {
	Verify(ctx context.Context, params map[string]string) (*verifier.Result, error)
}

// Request is a transport independent gateway request.
type Request struct {
	BandParams map[string]string
	Query      adapter.Request
	UserIP     string
}

// Response is ready to be written to the caller as JSON.
type Response struct {
	StatusCode int
	Body       json.RawMessage
	Cached     bool
}

type VerificationErrorBody struct {
	ErrorType verifier.Kind `json:"error_type"`
	ErrorMsg  string        `json:"error_msg"`
}

type ProviderErrorBody struct {
	ErrorMsg string `json:"error_msg"`
}

type Pipeline struct {
	logger         logging.Logger
	production     bool
	dedupBy        config.DedupKey
	verifier       Verifier
	cache          *cache.SignatureCache
	adapter        adapter.Handler
	adapterTimeout time.Duration
	hooks          []Hook
}

func NewPipeline(logger logging.Logger, cfg *config.Config, v Verifier, c *cache.SignatureCache, h adapter.Handler, hooks ...Hook) *Pipeline {
	return &Pipeline{
		logger:         logger,
		production:     cfg.IsProduction(),
		dedupBy:        cfg.Cache.DedupBy,
		verifier:       v,
		cache:          c,
		adapter:        h,
		adapterTimeout: cfg.Adapter.Timeout,
		hooks:          append([]Hook{metricsHook{}}, hooks...),
	}
}

// Handle runs one request through the pipeline. It never fails: every error
// is mapped to a response and reported to the hooks exactly once.
func (p *Pipeline) Handle(ctx context.Context, req *Request) *Response {
	start := time.Now()
	out := &Outcome{UserIP: req.UserIP}
	resp := p.handle(ctx, req, out)
	PipelineDurations.WithLabelValues(string(out.State)).Observe(time.Since(start).Seconds())
	return resp
}

func (p *Pipeline) handle(ctx context.Context, req *Request, out *Outcome) *Response {
	identity, err := ParseIdentity(req.BandParams, p.production)
	out.Identity = identity
	if !p.production {
		if err != nil {
			p.log(ctx).WithError(err).Warn("ignoring malformed BAND headers in development mode")
		}
		out.Verify = verifier.Success()
		return p.callAdapter(ctx, out, req.Query, "")
	}
	if err != nil {
		var idErr *IdentityError
		if errors.As(err, &idErr) {
			return p.reject(ctx, out, idErr.Result())
		}
		return p.reject(ctx, out, &verifier.Result{
			ResponseCode: http.StatusBadRequest,
			ErrorType:    verifier.KindFailedVerification,
			ErrorMsg:     err.Error(),
		})
	}

	key, bySignature := p.cacheKey(identity)
	logger := p.log(ctx).WithField("cache_key", key)

	// Only a signature key may skip verification. A request key is built from
	// caller supplied ids and is consulted after the caller is verified.
	var (
		entry  *cache.Entry
		lookup = lookupMiss
	)
	if bySignature {
		entry, lookup = p.lookup(ctx, key)
		switch lookup {
		case lookupHit:
			out.Verify = verifier.Success()
			return p.serveCached(ctx, out, entry)
		case lookupCancelled:
			return p.abandon(ctx, out)
		}
	}

	res, err := p.verifier.Verify(ctx, identity.Params)
	if err != nil {
		var verifyErr *verifier.VerificationFailedError
		if errors.As(err, &verifyErr) {
			return p.reject(ctx, out, verifyErr.Result())
		}
		return p.reject(ctx, out, &verifier.Result{
			ResponseCode: http.StatusInternalServerError,
			ErrorType:    verifier.KindServerError,
			ErrorMsg:     err.Error(),
		})
	}
	out.Verify = res

	if !bySignature {
		entry, lookup = p.lookup(ctx, key)
		switch lookup {
		case lookupHit:
			return p.serveCached(ctx, out, entry)
		case lookupCancelled:
			return p.abandon(ctx, out)
		}
	}

	// A request waits on a pending key at most once.
	switch {
	case lookup == lookupGaveUp:
		logger.Info("calling upstream after unsuccessful wait")
		p.cache.MarkPending(context.WithoutCancel(ctx), key)
	case !p.cache.Claim(ctx, key):
		logger.Debug("request is already in flight, waiting for its result")
		waited, waitRes := p.cache.Wait(ctx, key)
		switch fromWait(waitRes) {
		case lookupHit:
			return p.serveCached(ctx, out, waited)
		case lookupCancelled:
			return p.abandon(ctx, out)
		}
		logger.WithField("wait_result", waitRes.String()).Info("calling upstream after unsuccessful wait")
		p.cache.MarkPending(context.WithoutCancel(ctx), key)
	}

	return p.callAdapter(ctx, out, req.Query, key)
}

// cacheKey reports whether the key is derived from the caller's signature.
func (p *Pipeline) cacheKey(identity *CallerIdentity) (string, bool) {
	if p.dedupBy == config.DedupByRequest && identity.RequestID != nil && identity.ExternalID != nil {
		return cache.RequestKey(*identity.RequestID, *identity.ExternalID), false
	}
	return cache.SignatureKey(identity.Signature), true
}

type lookupResult int

const (
	lookupMiss lookupResult = iota
	lookupHit
	// lookupGaveUp means a pending owner timed out or failed and the wait
	// budget of the request is spent.
	lookupGaveUp
	lookupCancelled
)

func fromWait(res cache.WaitResult) lookupResult {
	switch res {
	case cache.WaitSuccess:
		return lookupHit
	case cache.WaitCancelled:
		return lookupCancelled
	default:
		return lookupGaveUp
	}
}

// lookup returns a successful entry, waiting for a pending one.
func (p *Pipeline) lookup(ctx context.Context, key string) (*cache.Entry, lookupResult) {
	entry, ok := p.cache.Lookup(ctx, key)
	if !ok {
		return nil, lookupMiss
	}
	switch entry.State {
	case cache.StateSuccess:
		return entry, lookupHit
	case cache.StatePending:
		waited, res := p.cache.Wait(ctx, key)
		return waited, fromWait(res)
	default:
		return nil, lookupMiss
	}
}

// abandon ends a request whose caller went away while waiting. The key
// stays with its owner.
func (p *Pipeline) abandon(ctx context.Context, out *Outcome) *Response {
	out.State = StateCancelled
	out.Err = ctx.Err()
	p.log(ctx).WithError(out.Err).Debug("caller went away while waiting for a concurrent request")
	p.fail(ctx, out)
	return newResponse(http.StatusServiceUnavailable, &ProviderErrorBody{ErrorMsg: "request cancelled"})
}

func (p *Pipeline) serveCached(ctx context.Context, out *Outcome, entry *cache.Entry) *Response {
	out.State = StateCached
	out.Cached = true
	out.Provider = &ProviderResponse{ResponseCode: http.StatusOK}
	p.succeed(ctx, out)
	return &Response{
		StatusCode: http.StatusOK,
		Body:       markCached(entry.Data),
		Cached:     true,
	}
}

func (p *Pipeline) callAdapter(ctx context.Context, out *Outcome, query adapter.Request, key string) *Response {
	callCtx, cancel := context.WithTimeout(ctx, p.adapterTimeout)
	defer cancel()

	resp, err := p.adapter.UnifiedCall(callCtx, query)
	var body []byte
	if err == nil {
		body, err = json.Marshal(resp)
		if err != nil {
			err = fmt.Errorf("can't marshal adapter response: %w", err)
		}
	}

	// cache transitions must land even if the caller went away
	bgCtx := context.WithoutCancel(ctx)
	if err != nil {
		if key != "" {
			p.cache.MarkFailed(bgCtx, key)
		}
		status := adapter.StatusCode(err)
		out.State = StateFailed
		out.Provider = &ProviderResponse{ResponseCode: status, ErrorMsg: err.Error()}
		out.Err = err
		p.log(ctx).WithError(err).WithField("status", status).Warn("adapter call failed")
		p.fail(ctx, out)
		return newResponse(status, &ProviderErrorBody{ErrorMsg: err.Error()})
	}

	if key != "" {
		p.cache.MarkSuccess(bgCtx, key, body)
	}
	out.State = StateResponded
	out.Provider = &ProviderResponse{ResponseCode: http.StatusOK}
	p.succeed(ctx, out)
	return &Response{StatusCode: http.StatusOK, Body: body}
}

func (p *Pipeline) reject(ctx context.Context, out *Outcome, res *verifier.Result) *Response {
	out.State = StateRejected
	out.Verify = res
	p.log(ctx).
		WithField("status", res.ResponseCode).
		WithField("error_type", res.ErrorType).
		Info("request rejected: " + res.ErrorMsg)
	p.fail(ctx, out)
	return newResponse(res.ResponseCode, &VerificationErrorBody{ErrorType: res.ErrorType, ErrorMsg: res.ErrorMsg})
}

func (p *Pipeline) log(ctx context.Context) logging.Logger {
	return logging.LoggerFromContextOr(ctx, p.logger)
}

func (p *Pipeline) succeed(ctx context.Context, out *Outcome) {
	for _, h := range p.hooks {
		h.OnSuccess(ctx, out)
	}
}

func (p *Pipeline) fail(ctx context.Context, out *Outcome) {
	for _, h := range p.hooks {
		h.OnFailure(ctx, out)
	}
}

func newResponse(status int, body interface{}) *Response {
	blob, err := json.Marshal(body)
	if err != nil {
		blob = []byte(`{"error_msg":"internal server error"}`)
		status = http.StatusInternalServerError
	}
	return &Response{StatusCode: status, Body: blob}
}

// markCached adds "cached_data": true to a cached JSON object. Other JSON
// values are returned unchanged.
func markCached(data json.RawMessage) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
		return data
	}
	obj["cached_data"] = json.RawMessage("true")
	blob, err := json.Marshal(obj)
	if err != nil {
		return data
	}
	return blob
}
