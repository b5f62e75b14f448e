// Package main provides a minimal HTTP server exposing debug endpoints.
package main

import (
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof" // register /debug/pprof
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "signalflow-server"})

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintln(w, "SignalFlow server is running. See /healthz, /debug/vars, /debug/pprof/")
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprint(w, "ok")
	})
	mux.Handle("/debug/vars", expvar.Handler())

	// Prometheus-compatible metrics endpoint (no external deps)
	mux.HandleFunc("/metrics", promMetricsHandler)

	// Workload endpoints to generate live forwarding load
	mux.HandleFunc("/workload/feed/start", wm.startFeed)
	mux.HandleFunc("/workload/feed/stop", wm.stopFeed)

	addr := ":8080"
	if v := os.Getenv("SIGNALFLOW_ADDR"); v != "" {
		addr = v
	}
	logger.Info("starting server", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("server error", "err", err)
	}
}

// promMetricsHandler renders known expvar metrics in Prometheus text format,
// falling back to a minimal conversion for other numeric vars.
func promMetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	type meta struct {
		typ, help string
		isMap     bool
		label     string
	}
	metas := map[string]meta{
		"signalflow_samples_forwarded_total": {typ: "counter", help: "Channel sample batches forwarded", isMap: true, label: "channel"},
		"signalflow_outputs_forwarded_total": {typ: "counter", help: "Processed output batches forwarded", isMap: true, label: "source"},
		"signalflow_bus_published_total":     {typ: "counter", help: "Values published on the live bus", isMap: true, label: "target"},
		"signalflow_forward_errors_total":    {typ: "counter", help: "Forward callbacks that failed", isMap: false},
		"signalflow_forward_routes":          {typ: "gauge", help: "Active forwarding routes (source=>target edge keys)", isMap: false},
		"signalflow_bus_listeners":           {typ: "gauge", help: "Listeners attached to the live bus", isMap: false},
		"signalflow_import_skipped_total":    {typ: "counter", help: "Layout entries skipped on import", isMap: false},
	}

	varNames := make([]string, 0, 64)
	expvar.Do(func(kv expvar.KeyValue) {
		varNames = append(varNames, kv.Key)
	})
	sort.Strings(varNames)

	printed := make(map[string]bool)

	writeHeader := func(name string, m meta) {
		if printed[name] {
			return
		}
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", name, sanitizeHelp(m.help))
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", name, m.typ)
		printed[name] = true
	}

	for _, name := range varNames {
		v := expvar.Get(name)
		m, known := metas[name]
		if !known {
			if iv, ok := v.(*expvar.Int); ok {
				_, _ = fmt.Fprintf(w, "# TYPE %s gauge\n", name)
				_, _ = fmt.Fprintf(w, "%s %s\n", name, iv.String())
			}
			continue
		}
		writeHeader(name, m)
		if m.isMap {
			if mp, ok := v.(*expvar.Map); ok {
				sub := make([]expvar.KeyValue, 0, 8)
				mp.Do(func(kv expvar.KeyValue) { sub = append(sub, kv) })
				sort.Slice(sub, func(i, j int) bool { return sub[i].Key < sub[j].Key })
				for _, kv := range sub {
					fmt.Fprintf(w, "%s{%s=\"%s\"} %s\n", name, m.label, escapeLabel(kv.Key), kv.Value.String())
				}
			}
		} else {
			fmt.Fprintf(w, "%s %s\n", name, v.String())
		}
	}
}

func sanitizeHelp(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

func escapeLabel(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}
