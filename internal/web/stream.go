package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vadiminshakov/helios/internal/domain"
)

// maxUnthinnedSnapshots snapshots sent verbatim on first load; older ones are thinned.
const maxUnthinnedSnapshots = 100

func startStream(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	return flusher, true
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, id uint64, event string, payload []byte) {
	fmt.Fprintf(w, "id: %d\n", id)
	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", payload)
	flusher.Flush()
}

func (s *Server) handleWidgetStream(w http.ResponseWriter, r *http.Request) {
	if s.Feed == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "widget feed not available")
		return
	}
	flusher, ok := startStream(w)
	if !ok {
		return
	}

	heartbeat := time.NewTicker(s.heartbeatPoll)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(s.widgetPoll)
	defer pollTicker.Stop()

	lastIndex := parseLastEventID(r.Header.Get("Last-Event-ID"), r.URL.Query().Get("last_event_id"), s.logger)

	// a fresh client only needs the current state of every widget
	if lastIndex == 0 {
		lastIndex = s.Feed.CurrentIndex()
		for _, state := range s.Feed.Latest() {
			payload, err := json.Marshal(state)
			if err != nil {
				s.logger.Error("encode widget state", zap.Error(err))
				continue
			}
			writeEvent(w, flusher, lastIndex, "widget", payload)
		}
	}

	sendUpdates := func() {
		for _, record := range s.Feed.UpdatesAfter(lastIndex) {
			payload, err := json.Marshal(record.State)
			if err != nil {
				s.logger.Error("encode widget state", zap.Error(err))
				continue
			}
			writeEvent(w, flusher, record.Index, "widget", payload)
			lastIndex = record.Index
		}
	}
	sendUpdates()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			sendUpdates()
		}
	}
}

func (s *Server) handleBalanceStream(w http.ResponseWriter, r *http.Request) {
	if s.Snapshots == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "snapshot store not available")
		return
	}
	flusher, ok := startStream(w)
	if !ok {
		return
	}

	heartbeat := time.NewTicker(s.heartbeatPoll)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(s.snapshotPoll)
	defer pollTicker.Stop()

	lastIndex := parseLastEventID(r.Header.Get("Last-Event-ID"), r.URL.Query().Get("last_event_id"), s.logger)
	isFirstLoad := lastIndex == 0
	sendSnapshots := func() error {
		records, err := s.Snapshots.SnapshotsAfter(lastIndex)
		if err != nil {
			return err
		}

		recordsToSend := records
		if isFirstLoad && len(records) > maxUnthinnedSnapshots {
			recordsToSend = thinRecords(records)
		}
		isFirstLoad = false

		for _, record := range recordsToSend {
			payload, err := json.Marshal(record.Snapshot)
			if err != nil {
				return err
			}
			writeEvent(w, flusher, record.Index, "balance", payload)
			lastIndex = record.Index
		}
		return nil
	}

	if err := sendSnapshots(); err != nil {
		http.Error(w, "failed to load snapshots", http.StatusInternalServerError)
		s.logger.Error("balance stream initial load", zap.Error(err))
		return
	}

	// lets the client switch from "loading" to "no data yet"
	if lastIndex == 0 {
		fmt.Fprintf(w, "event: no_data\n")
		fmt.Fprintf(w, "data: {}\n\n")
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := sendSnapshots(); err != nil {
				s.logger.Warn("balance stream poll", zap.Error(err))
			}
		}
	}
}

// parseLastEventID extracts an SSE event ID from either the Last-Event-ID header or a query parameter.
// The header is preferred; the query parameter allows manual reconnects to resume from a known index.
func parseLastEventID(headerVal, queryVal string, logger *zap.Logger) uint64 {
	idStr := strings.TrimSpace(headerVal)
	if idStr == "" {
		idStr = strings.TrimSpace(queryVal)
	}
	if idStr == "" {
		return 0
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		logger.Debug("invalid last event id", zap.String("id", idStr), zap.Error(err))
		return 0
	}
	return id
}

// thinRecords keeps the newest records intact and exponentially thins older history.
func thinRecords(records []domain.BalanceSnapshotRecord) []domain.BalanceSnapshotRecord {
	if len(records) <= maxUnthinnedSnapshots {
		return records
	}

	older := records[:len(records)-maxUnthinnedSnapshots]
	var thinned []domain.BalanceSnapshotRecord

	skip := 1
	for i := len(older) - 1; i >= 0; i-- {
		thinned = append(thinned, older[i])
		i -= skip
		// double the gap every 12 kept records
		if len(thinned)%12 == 0 {
			skip *= 2
		}
	}

	// reverse into chronological order
	for l, r := 0, len(thinned)-1; l < r; l, r = l+1, r-1 {
		thinned[l], thinned[r] = thinned[r], thinned[l]
	}

	return append(thinned, records[len(records)-maxUnthinnedSnapshots:]...)
}
