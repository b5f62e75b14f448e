package main

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/signalflow/signalflow/pkg/prebuilt"
	"github.com/signalflow/signalflow/pkg/signalflow"
)

// workloadManager drives a synthetic play session so the metrics endpoints
// have live data to show.
type workloadManager struct {
	mu         sync.Mutex
	feedCancel context.CancelFunc
	runtime    *signalflow.Runtime
}

var wm workloadManager

func (m *workloadManager) startFeed(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.feedCancel != nil {
		http.Error(w, "feed workload already running", http.StatusConflict)
		return
	}

	channels := 4
	if v := r.URL.Query().Get("channels"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			channels = n
		}
	}
	rate := 50 * time.Millisecond
	if v := r.URL.Query().Get("rate_ms"); v != "" {
		if ms, err := time.ParseDuration(v + "ms"); err == nil {
			rate = ms
		}
	}

	g, err := prebuilt.PlotDashboard(channels)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rt := signalflow.NewRuntimeWithGraph(g)
	if _, err := rt.Play(signalflow.PlayRequest{}); err != nil {
		rt.Close()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.feedCancel = cancel
	m.runtime = rt
	go runFeedLoop(ctx, rt, channels, rate)

	w.WriteHeader(http.StatusAccepted)
	fmt.Fprintf(w, "feed workload started: channels=%d rate=%v\n", channels, rate)
}

func (m *workloadManager) stopFeed(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.feedCancel != nil {
		m.feedCancel()
		m.feedCancel = nil
	}
	if m.runtime != nil {
		m.runtime.Close()
		m.runtime = nil
	}
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprint(w, "feed workload stopped\n")
}

// runFeedLoop emits phase-shifted sine samples for every channel until the
// context is cancelled.
func runFeedLoop(ctx context.Context, rt *signalflow.Runtime, channels int, rate time.Duration) {
	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t := time.Since(start).Seconds()
			sample := make(signalflow.Sample, channels)
			for i := 0; i < channels; i++ {
				sample[fmt.Sprintf("ch%d", i)] = math.Sin(2*math.Pi*t + float64(i))
			}
			rt.EmitSamples([]signalflow.Sample{sample})
		}
	}
}
