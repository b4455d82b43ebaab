package server

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorgonia/kifu/encoding/png"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxCloseReason = 120 // control frames carry at most 125 bytes
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// frameMessage is pushed to websocket clients once per ply.
type frameMessage struct {
	Ply   int    `json:"ply"`
	Image string `json:"image"`
}

// HandleStream upgrades to a websocket, reads one RenderRequest and pushes the position after
// the setup and after every ply as a data URI. The connection is closed once the replay is done.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	c, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("upgrade", "error", err)
		return
	}
	defer c.Close()
	c.SetReadLimit(maxBody)

	session := uuid.New().String()
	log := h.log.With("session", session)

	var req RenderRequest
	if err := c.ReadJSON(&req); err != nil {
		log.Infow("read request", "error", err)
		h.closeWith(c, websocket.CloseUnsupportedData, "invalid request")
		return
	}
	p, rec, err := h.prepare(req)
	if err != nil {
		_ = c.WriteJSON(errorResponse{Error: err.Error()})
		h.closeWith(c, websocket.ClosePolicyViolation, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		// a read fails once the client goes away
		for {
			if _, _, err := c.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	var buf bytes.Buffer
	err = p.Frames(ctx, rec, ply(req), func(ply int, img *image.RGBA) error {
		buf.Reset()
		if err := (png.Encoder{}).Encode(&buf, img); err != nil {
			return err
		}
		_ = c.SetWriteDeadline(time.Now().Add(writeWait))
		return c.WriteJSON(frameMessage{Ply: ply, Image: png.DataURI(png.ContentType, buf.Bytes())})
	})
	if err != nil {
		log.Infow("stream stopped", "error", err)
		_ = c.WriteJSON(errorResponse{Error: err.Error()})
		h.closeWith(c, websocket.CloseInternalServerErr, "replay failed")
		return
	}
	log.Debugw("stream done", "plies", len(rec.Moves))
	h.closeWith(c, websocket.CloseNormalClosure, "done")
}

func (h *Handler) closeWith(c *websocket.Conn, code int, reason string) {
	if len(reason) > maxCloseReason {
		reason = reason[:maxCloseReason]
	}
	msg := websocket.FormatCloseMessage(code, reason)
	_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
