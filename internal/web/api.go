package web

import (
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vadiminshakov/helios/internal/domain"
	"github.com/vadiminshakov/helios/internal/funding"
	"github.com/vadiminshakov/helios/internal/metrics"
	"github.com/vadiminshakov/helios/internal/services/detail"
	"github.com/vadiminshakov/helios/internal/widget"
)

const maxFundingBody = 64 << 10

type accountResponse struct {
	Account            domain.Account `json:"account"`
	DocumentsCompleted bool           `json:"documents_completed"`
}

func (s *Server) handleWidgets(w http.ResponseWriter, _ *http.Request) {
	if s.Feed == nil {
		writeError(w, http.StatusServiceUnavailable, "widget feed not available")
		return
	}
	writeJSON(w, http.StatusOK, s.Feed.Latest())
}

func (s *Server) handleWidget(w http.ResponseWriter, r *http.Request) {
	if s.Feed == nil {
		writeError(w, http.StatusServiceUnavailable, "widget feed not available")
		return
	}
	kind, err := domain.ParseMetricKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state, ok := s.Feed.LatestOf(kind)
	if !ok {
		writeError(w, http.StatusNotFound, "no state for widget "+kind.String())
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleSetPeriod(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.controlTarget(w, r)
	if !ok {
		return
	}
	period, err := domain.ParsePeriod(r.URL.Query().Get("value"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.applyControl(w, kind, s.Board.SetPeriod(kind, period))
}

func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.controlTarget(w, r)
	if !ok {
		return
	}
	view, err := domain.ParseExposureView(r.URL.Query().Get("value"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.applyControl(w, kind, s.Board.SetView(kind, view))
}

func (s *Server) controlTarget(w http.ResponseWriter, r *http.Request) (domain.MetricKind, bool) {
	if s.Board == nil {
		writeError(w, http.StatusServiceUnavailable, "board not available")
		return "", false
	}
	kind, err := domain.ParseMetricKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return kind, true
}

func (s *Server) applyControl(w http.ResponseWriter, kind domain.MetricKind, err error) {
	switch {
	case errors.Is(err, widget.ErrUnknownWidget):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case err != nil:
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if s.Feed != nil {
		if state, ok := s.Feed.LatestOf(kind); ok {
			writeJSON(w, http.StatusOK, state)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	if s.Feed == nil {
		writeError(w, http.StatusServiceUnavailable, "widget feed not available")
		return
	}
	kind, err := domain.ParseMetricKind(r.URL.Query().Get("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name := r.URL.Query().Get("metric")
	if name == "" {
		writeError(w, http.StatusBadRequest, "metric is required")
		return
	}

	state, ok := s.Feed.LatestOf(kind)
	if !ok {
		writeError(w, http.StatusNotFound, "no state for widget "+kind.String())
		return
	}
	metric, ok := state.Metric(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown metric "+name)
		return
	}

	writeJSON(w, http.StatusOK, detail.Expand(metric))
}

func (s *Server) handleAccount(w http.ResponseWriter, _ *http.Request) {
	if s.Session == nil {
		writeError(w, http.StatusServiceUnavailable, "session not available")
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		Account:            s.Session.Account(),
		DocumentsCompleted: s.Session.DocumentsCompleted(),
	})
}

func (s *Server) handleFunding(w http.ResponseWriter, r *http.Request) {
	if s.Session == nil {
		writeError(w, http.StatusServiceUnavailable, "session not available")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxFundingBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body")
		return
	}
	ev, err := funding.Decode(body, time.Now())
	if err != nil {
		metrics.FundingEventsTotal.WithLabelValues(funding.SourceHTTP, metrics.FundingInvalid).Inc()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := funding.Apply(s.Session, ev, funding.SourceHTTP)
	s.logger.Info("funding notification",
		zap.String("payment_id", ev.PaymentID),
		zap.String("result", string(result)))

	writeJSON(w, http.StatusOK, map[string]any{
		"result":  result,
		"account": s.Session.Account(),
	})
}

func (s *Server) handleDocumentsComplete(w http.ResponseWriter, _ *http.Request) {
	if s.Session == nil {
		writeError(w, http.StatusServiceUnavailable, "session not available")
		return
	}
	s.Session.CompleteDocuments()
	writeJSON(w, http.StatusOK, map[string]bool{"documents_completed": true})
}
