// Package server exposes the render pipeline over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorgonia/kifu"
	"github.com/gorgonia/kifu/game"
	wq "github.com/gorgonia/kifu/game/wq"
	"github.com/gorgonia/kifu/render"
	"github.com/gorgonia/kifu/sgf"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	maxBody      = 4 << 20
	maxDimension = 4096 // widest image a request may ask for, in pixels
)

var errBadRequest = errors.New("bad request")

// RenderRequest is the body of the render endpoints. Exactly one of Record and Tree must be set.
type RenderRequest struct {
	Record   *game.Record `json:"record,omitempty"`
	Tree     *sgf.Node    `json:"tree,omitempty"`
	Ply      *int         `json:"ply,omitempty"` // the final position when absent
	CellSize *int         `json:"cellSize,omitempty"`
	Padding  *int         `json:"padding,omitempty"`
	Labels   *bool        `json:"labels,omitempty"`
}

type renderResponse struct {
	Image string `json:"image"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves the render endpoints.
type Handler struct {
	conf kifu.Config // base configuration; requests may override the render options
	log  *zap.SugaredLogger
}

// New creates a handler. Every request builds its pipeline from conf.
func New(conf kifu.Config, log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if conf.Logger == nil {
		conf.Logger = log.Desugar()
	}
	return &Handler{conf: conf, log: log}
}

// Router returns the routes of the handler. Requests other than the websocket are cut off after timeout.
func (h *Handler) Router(timeout time.Duration) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws", h.HandleStream)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(timeout))
		r.Post("/render", h.HandleRender)
		r.Post("/render.png", h.HandleImage)
		r.Post("/animate", h.HandleAnimate)
		r.Post("/info", h.HandleInfo)
	})
	return r
}

// HandleRender answers with the position as a data URI.
func (h *Handler) HandleRender(w http.ResponseWriter, r *http.Request) {
	req, err := decode(r.Body)
	if err != nil {
		h.fail(w, err)
		return
	}
	p, rec, err := h.prepare(req)
	if err != nil {
		h.fail(w, err)
		return
	}
	uri, err := p.DataURI(r.Context(), rec, ply(req))
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, renderResponse{Image: uri})
}

// HandleImage answers with the encoded image itself.
func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	req, err := decode(r.Body)
	if err != nil {
		h.fail(w, err)
		return
	}
	p, rec, err := h.prepare(req)
	if err != nil {
		h.fail(w, err)
		return
	}
	b, err := p.Encode(r.Context(), rec, ply(req))
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", p.ContentType())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(b); err != nil {
		h.log.Warnw("write image", "error", err)
	}
}

// HandleAnimate answers with an animated GIF of the replay.
func (h *Handler) HandleAnimate(w http.ResponseWriter, r *http.Request) {
	req, err := decode(r.Body)
	if err != nil {
		h.fail(w, err)
		return
	}
	p, rec, err := h.prepare(req)
	if err != nil {
		h.fail(w, err)
		return
	}
	var buf bytes.Buffer
	if err := p.Animate(r.Context(), &buf, rec, ply(req), nil); err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/gif")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.log.Warnw("write animation", "error", err)
	}
}

// HandleInfo answers with the metadata and main line of a game tree.
func (h *Handler) HandleInfo(w http.ResponseWriter, r *http.Request) {
	req, err := decode(r.Body)
	if err != nil {
		h.fail(w, err)
		return
	}
	if req.Tree == nil {
		h.fail(w, errors.WithMessage(errBadRequest, "a game tree is required"))
		return
	}
	s, err := sgf.Info(req.Tree)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func decode(body io.Reader) (RenderRequest, error) {
	var req RenderRequest
	dec := json.NewDecoder(io.LimitReader(body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, errors.WithMessagef(errBadRequest, "invalid JSON: %v", err)
	}
	return req, nil
}

// prepare builds the pipeline and the record a request asks for.
func (h *Handler) prepare(req RenderRequest) (*kifu.Pipeline, game.Record, error) {
	var rec game.Record
	switch {
	case req.Record != nil && req.Tree != nil:
		return nil, rec, errors.WithMessage(errBadRequest, "send either a record or a tree, not both")
	case req.Record != nil:
		rec = *req.Record
	case req.Tree != nil:
		var err error
		if rec, err = sgf.Extract(req.Tree); err != nil {
			return nil, rec, err
		}
	default:
		return nil, rec, errors.WithMessage(errBadRequest, "a record or a tree is required")
	}

	conf := h.conf
	if req.CellSize != nil {
		conf.Render.CellSize = *req.CellSize
	}
	if req.Padding != nil {
		conf.Render.Padding = *req.Padding
	}
	if req.Labels != nil {
		conf.Render.Labels = *req.Labels
	}
	if rec.Size <= 0 || rec.Size > sgf.MaxSize {
		return nil, rec, errors.WithMessagef(wq.ErrInvalidSize, "board size %d, the limit is %d", rec.Size, sgf.MaxSize)
	}
	if err := conf.Render.Validate(rec.Size); err != nil {
		return nil, rec, err
	}
	if w, _ := conf.Render.Dimensions(rec.Size); w > maxDimension {
		return nil, rec, errors.WithMessagef(render.ErrInvalidOptions, "image would be %dpx wide, the limit is %d", w, maxDimension)
	}
	return kifu.New(conf), rec, nil
}

func ply(req RenderRequest) int {
	if req.Ply == nil {
		return -1
	}
	return *req.Ply
}

// status maps an error onto the HTTP status reported to the client.
func status(err error) int {
	switch errors.Cause(err) {
	case errBadRequest, wq.ErrInvalidSize, render.ErrInvalidOptions, sgf.ErrNoGame, sgf.ErrUnsupportedSize:
		return http.StatusBadRequest
	case context.DeadlineExceeded:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	code := status(err)
	if code >= http.StatusInternalServerError {
		h.log.Errorw("render failed", "error", err)
	} else {
		h.log.Infow("bad request", "error", err)
	}
	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	b, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"internal server error"}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}
