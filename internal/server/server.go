// Package server implements the live tracer-snapshot HTTP/websocket
// monitor (§6 External interfaces), adapted from the teacher's
// server/server.go: the same websocket ping/pong keep-alive and
// throttled-publish loop, routed through gorilla/mux instead of three bare
// http.HandleFunc calls (SPEC_FULL.md §1 domain-stack wiring), since the
// teacher's own go.mod carries gorilla/mux but never exercises it.
//
// Unlike the teacher's html/template DOM-diffing view layer (fastview/
// cell_views/root_view), ecosim's clients are monitoring/plotting tools,
// not a browser page of updatable DOM elements, so the published payload
// is a single JSON snapshot document rather than per-element
// textContent/attribute patches — the fastview abstraction doesn't carry
// its keep across that change in audience (see DESIGN.md).
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	channerics "github.com/niceyeti/channerics/channels"

	"github.com/nereusmodel/ecosim/internal/metrics"
	"github.com/nereusmodel/ecosim/report"
	"github.com/nereusmodel/ecosim/tracer"
)

const (
	writeWait        = 1 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	closeGracePeriod = 10 * time.Second
)

var upgrader = websocket.Upgrader{}

// Server serves the current tracer snapshot, a live websocket stream of
// snapshots, and a performance-measure (annual report) download, all
// routed under one mux.
type Server struct {
	addr    string
	store   *tracer.Store
	metrics *metrics.Registry

	snapshots <-chan report.Snapshot
	lastSnapshot report.Snapshot

	perfMeasure func() ([]byte, string) // returns (payload, content-type)
}

// NewServer wires the mux route table (§1 "internal/server uses [gorilla/
// mux] to route the snapshot JSON endpoint, the websocket upgrade
// endpoint, and the performance-measure download endpoint under one mux").
func NewServer(addr string, store *tracer.Store, reg *metrics.Registry,
	snapshots <-chan report.Snapshot, perfMeasure func() ([]byte, string)) *Server {
	return &Server{addr: addr, store: store, metrics: reg, snapshots: snapshots, perfMeasure: perfMeasure}
}

// Router builds the gorilla/mux route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/snapshot", s.serveSnapshot).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.serveWebsocket).Methods(http.MethodGet)
	r.HandleFunc("/performance", s.servePerformance).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	return r
}

// Serve starts the HTTP server and blocks until ctx is done or an error
// occurs (the teacher's Serve() blocked on http.ListenAndServe directly;
// this wires a context so main can shut it down alongside the simulation
// loop).
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), closeGracePeriod)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

func (s *Server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.lastSnapshot); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) servePerformance(w http.ResponseWriter, r *http.Request) {
	if s.perfMeasure == nil {
		http.Error(w, "no performance measure available", http.StatusNotFound)
		return
	}
	payload, contentType := s.perfMeasure()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="performance.txt"`)
	_, _ = w.Write(payload)
}

// serveWebsocket streams snapshots to a single connected client, using the
// same ping/pong keep-alive loop as the teacher's publishEleUpdates: a
// read pump drains control frames, a select loop pings on a channerics
// ticker and forwards snapshots no faster than pubResolution.
func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer closeWebsocket(ws)
	s.publishSnapshots(r.Context(), ws)
}

func (s *Server) publishSnapshots(ctx context.Context, ws *websocket.Conn) {
	const pubResolution = 100 * time.Millisecond
	last := time.Now()
	pubCtx, cancelPub := context.WithCancel(ctx)
	defer cancelPub()

	pinger := channerics.NewTicker(pubCtx.Done(), pingPeriod)
	lastPong := time.Now()

	pong := make(chan struct{})
	defer close(pong)
	ws.SetPongHandler(func(string) error {
		select {
		case pong <- struct{}{}:
		case <-pubCtx.Done():
		}
		return nil
	})

	go func() {
		for {
			select {
			case <-pubCtx.Done():
				return
			default:
				if _, _, err := ws.ReadMessage(); err != nil {
					cancelPub()
					return
				}
			}
		}
	}()

	for {
		select {
		case <-pubCtx.Done():
			return
		case <-pinger:
			if time.Since(lastPong) > pingPeriod*2 {
				return
			}
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-pong:
			lastPong = time.Now()
		case snap, ok := <-s.snapshots:
			if !ok {
				return
			}
			s.lastSnapshot = snap
			if time.Since(last) < pubResolution {
				continue
			}
			last = time.Now()
			if err := ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := ws.WriteJSON(snap); err != nil {
				return
			}
		}
	}
}

func closeWebsocket(ws *websocket.Conn) {
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	ws.Close()
}
