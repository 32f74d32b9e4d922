// Package handler serves a list over HTTP:
//
//	GET    /v1/values       print the list
//	GET    /v1/values/{n}   200 if n is present, 404 otherwise
//	PUT    /v1/values/{n}   insert n
//	DELETE /v1/values/{n}   remove one n, 404 if absent
//	GET    /v1/count?predicate=even&arg=0
//	GET    /metrics
package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/lian99/Operating-Systems/concurrentlist"
	"github.com/lian99/Operating-Systems/predicates"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type listHandler struct {
	list   *concurrentlist.List[int]
	logger *zap.Logger
}

// New returns the handler for list. Metrics are served from gatherer.
func New(list *concurrentlist.List[int], gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &listHandler{list: list, logger: logger}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/v1/count", h.handleCount)
	mux.HandleFunc("/v1/values", h.handleValues)
	mux.HandleFunc("/v1/values/", h.handleValues)
	return mux
}

// splitPath trims the leading and trailing slashes of path, splits it and
// unescapes every part.
func splitPath(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, nil
	}
	parts := strings.Split(trimmed, "/")
	for i, part := range parts {
		decoded, err := url.PathUnescape(part)
		if err != nil {
			return nil, errors.Wrap(err, "decode path part")
		}
		parts[i] = decoded
	}
	return parts, nil
}

func (h *listHandler) handleValues(w http.ResponseWriter, r *http.Request) {
	parts, err := splitPath(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch len(parts) {
	case 2:
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.print(w)
	case 3:
		value, err := strconv.Atoi(parts[2])
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid value %q", parts[2]), http.StatusBadRequest)
			return
		}
		switch r.Method {
		case http.MethodGet:
			h.contains(w, value)
		case http.MethodPut:
			h.insert(w, value)
		case http.MethodDelete:
			h.remove(w, value)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		http.Error(w, "Item not found", http.StatusNotFound)
	}
}

func (h *listHandler) print(w http.ResponseWriter) {
	var buf bytes.Buffer
	if err := h.list.Print(&buf); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *listHandler) contains(w http.ResponseWriter, value int) {
	if !h.list.Contains(value) {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *listHandler) insert(w http.ResponseWriter, value int) {
	if err := h.list.Insert(value); err != nil {
		h.logger.Warn("insert: rejected", zap.Int("value", value), zap.Error(err))
		if errors.Cause(err) == concurrentlist.ErrListFull {
			http.Error(w, err.Error(), http.StatusInsufficientStorage)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.logger.Debug("insert: done", zap.Int("value", value))
	w.WriteHeader(http.StatusCreated)
}

func (h *listHandler) remove(w http.ResponseWriter, value int) {
	if !h.list.Remove(value) {
		http.Error(w, "Item not found", http.StatusNotFound)
		return
	}
	h.logger.Debug("remove: done", zap.Int("value", value))
	w.WriteHeader(http.StatusNoContent)
}

func (h *listHandler) handleCount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	name := q.Get("predicate")
	if name == "" {
		name = "all"
	}
	arg := 0
	if raw := q.Get("arg"); raw != "" {
		var err error
		if arg, err = strconv.Atoi(raw); err != nil {
			http.Error(w, fmt.Sprintf("invalid arg %q", raw), http.StatusBadRequest)
			return
		}
	}
	pred, err := predicates.Lookup(name, arg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if _, err := h.list.CountMatching(&buf, pred); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
