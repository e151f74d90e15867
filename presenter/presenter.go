package presenter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/omni/pds-gateway/adapter"
	"github.com/omni/pds-gateway/config"
	"github.com/omni/pds-gateway/entity"
	"github.com/omni/pds-gateway/gateway"
	"github.com/omni/pds-gateway/logging"
	mw "github.com/omni/pds-gateway/presenter/http/middleware"
	"github.com/omni/pds-gateway/presenter/http/render"
	"github.com/omni/pds-gateway/reporter"
)

const errReportsDisabled = "report store is not configured"

type Pipeline interface {
	Handle(ctx context.Context, req *gateway.Request) *gateway.Response
}

type ReportSource interface {
	Latest(ctx context.Context) (*entity.Report, error)
	LatestFailed(ctx context.Context) (*entity.Report, error)
}

type Presenter struct {
	logger   logging.Logger
	cfg      *config.Config
	pipeline Pipeline
	reports  ReportSource
	root     chi.Router
}

// NewPresenter builds the HTTP surface. reports may be nil when no report
// store is configured.
func NewPresenter(logger logging.Logger, cfg *config.Config, pipeline Pipeline, reports ReportSource) *Presenter {
	p := &Presenter{
		logger:   logger,
		cfg:      cfg,
		pipeline: pipeline,
		reports:  reports,
		root:     chi.NewMux(),
	}
	p.routes()
	return p
}

func (p *Presenter) routes() {
	p.root.Use(middleware.RequestID)
	p.root.Use(middleware.RealIP)
	p.root.Use(mw.NewLoggerMiddleware(p.logger))
	p.root.Use(mw.Recoverer)
	if p.cfg.Presenter.Throttle > 0 {
		p.root.Use(middleware.Throttle(p.cfg.Presenter.Throttle))
	}

	p.root.With(mw.GetCallerMiddleware).Get("/", p.HandleRequest)
	p.root.Get("/status", p.GetStatus)
	p.root.Route("/report", func(r chi.Router) {
		r.Get("/latest", p.GetLatestReport)
		r.Get("/latest_failed", p.GetLatestFailedReport)
	})
}

func (p *Presenter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.root.ServeHTTP(w, r)
}

// Serve listens on addr until ctx is cancelled.
func (p *Presenter) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           p.root,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			p.logger.WithError(err).Error("can't shutdown presenter gracefully")
		}
	}()

	p.logger.WithField("addr", addr).Info("starting presenter service")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("presenter failed: %w", err)
	}
	return nil
}

func (p *Presenter) HandleRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := make(adapter.Request)
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = v[0]
		}
	}

	resp := p.pipeline.Handle(ctx, &gateway.Request{
		BandParams: mw.BandParams(ctx),
		Query:      query,
		UserIP:     mw.UserIP(ctx),
	})
	render.RawJSON(w, resp.StatusCode, resp.Body)
}

func (p *Presenter) GetStatus(w http.ResponseWriter, r *http.Request) {
	if p.reports == nil {
		render.ErrorMessage(w, r, http.StatusNotImplemented, errReportsDisabled)
		return
	}
	ctx := r.Context()

	latest, err := p.reports.Latest(ctx)
	if err != nil {
		render.Error(w, r, fmt.Errorf("can't get latest report: %w", err))
		return
	}
	latestFailed, err := p.reports.LatestFailed(ctx)
	if err != nil {
		render.Error(w, r, fmt.Errorf("can't get latest failed report: %w", err))
		return
	}

	allowed := p.cfg.Verifier.AllowedDataSourceIDs
	if allowed == nil {
		allowed = []int64{}
	}
	render.JSON(w, r, http.StatusOK, &StatusResult{
		GatewayInfo: &GatewayInfo{
			AllowedDataSourceIDs: allowed,
			MaxDelayVerification: p.cfg.Verifier.MaxDelay,
		},
		LatestRequest:       reporter.NewReportInfo(latest),
		LatestFailedRequest: reporter.NewReportInfo(latestFailed),
	})
}

func (p *Presenter) GetLatestReport(w http.ResponseWriter, r *http.Request) {
	p.renderReport(w, r, false)
}

func (p *Presenter) GetLatestFailedReport(w http.ResponseWriter, r *http.Request) {
	p.renderReport(w, r, true)
}

func (p *Presenter) renderReport(w http.ResponseWriter, r *http.Request, failedOnly bool) {
	if p.reports == nil {
		render.ErrorMessage(w, r, http.StatusNotImplemented, errReportsDisabled)
		return
	}
	var (
		report *entity.Report
		err    error
	)
	if failedOnly {
		report, err = p.reports.LatestFailed(r.Context())
	} else {
		report, err = p.reports.Latest(r.Context())
	}
	if err != nil {
		render.Error(w, r, fmt.Errorf("can't get report: %w", err))
		return
	}
	if report == nil {
		render.ErrorMessage(w, r, http.StatusNotFound, "no reports yet")
		return
	}
	render.JSON(w, r, http.StatusOK, reporter.NewReportInfo(report))
}
