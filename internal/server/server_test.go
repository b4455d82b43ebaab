package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/gif"
	stdpng "image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorgonia/kifu"
	"github.com/gorgonia/kifu/cache"
	"github.com/gorgonia/kifu/encoding/png"
	"github.com/gorgonia/kifu/render"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newServer(t *testing.T, conf kifu.Config) *httptest.Server {
	if conf.Render.CellSize == 0 {
		conf.Render = render.DefaultOptions()
	}
	h := New(conf, zaptest.NewLogger(t).Sugar())
	srv := httptest.NewServer(h.Router(5 * time.Second))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) *http.Response {
	resp, err := http.Post(srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRender_EmptyBoard(t *testing.T) {
	srv := newServer(t, kifu.Config{Cache: cache.NewMemory(4)})
	resp := post(t, srv, "/render", `{"record":{"size":19}}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body renderResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	ct, b, err := png.ParseDataURI(body.Image)
	require.NoError(t, err)
	assert.Equal(t, "image/png", ct)
	img, err := stdpng.Decode(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 840, 840), img.Bounds())
}

func TestRender_Tree(t *testing.T) {
	srv := newServer(t, kifu.Config{})
	const doc = `{
		"tree": {"properties": {"SZ": ["9"]}, "children": [{"properties": {"B": ["ee"]}}]},
		"cellSize": 10,
		"padding": 5,
		"ply": 1
	}`
	resp := post(t, srv, "/render.png", doc)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, err := stdpng.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())

	// the stone on the centre point
	r, g, b, _ := img.At(45, 45).RGBA()
	assert.Zero(t, r|g|b)
}

func TestAnimate(t *testing.T) {
	srv := newServer(t, kifu.Config{})
	const doc = `{"record":{"size":5,"moves":[{"colour":"B","x":0,"y":0},{"colour":"W","x":1,"y":1}]},"cellSize":8,"padding":4}`
	resp := post(t, srv, "/animate", doc)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/gif", resp.Header.Get("Content-Type"))
	g, err := gif.DecodeAll(resp.Body)
	require.NoError(t, err)
	assert.Len(t, g.Image, 3)
}

func TestInfo(t *testing.T) {
	srv := newServer(t, kifu.Config{})
	const doc = `{"tree": {"properties": {"PB": ["Black"], "SZ": ["19"]}, "children": [{"properties": {"B": ["pd"]}}]}}`
	resp := post(t, srv, "/info", doc)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, float64(1), body["movesCount"])
	info := body["gameInfo"].(map[string]interface{})
	assert.Equal(t, "Black", info["blackPlayer"])
	assert.Equal(t, "Unknown", info["whitePlayer"])

	resp = post(t, srv, "/info", `{"record":{"size":9}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestErrors(t *testing.T) {
	srv := newServer(t, kifu.Config{})
	cases := []struct {
		name, path, body string
		code             int
	}{
		{"bad json", "/render", `{`, http.StatusBadRequest},
		{"unknown field", "/render", `{"board":1}`, http.StatusBadRequest},
		{"empty", "/render", `{}`, http.StatusBadRequest},
		{"both", "/render", `{"record":{"size":9},"tree":{"properties":{}}}`, http.StatusBadRequest},
		{"size", "/render", `{"record":{"size":0}}`, http.StatusBadRequest},
		{"cell size", "/render.png", `{"record":{"size":9},"cellSize":0}`, http.StatusBadRequest},
		{"too big", "/render.png", `{"record":{"size":19},"cellSize":1000}`, http.StatusBadRequest},
		{"rectangular", "/animate", `{"tree":{"properties":{"SZ":["9:13"]}}}`, http.StatusBadRequest},
		{"board too large", "/render.png", `{"record":{"size":53},"cellSize":2,"padding":0}`, http.StatusBadRequest},
		{"huge board", "/animate", `{"record":{"size":4000},"cellSize":1,"padding":0}`, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp := post(t, srv, c.path, c.body)
			assert.Equal(t, c.code, resp.StatusCode)
			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestTimeout(t *testing.T) {
	h := New(kifu.Config{Render: render.DefaultOptions()}, zaptest.NewLogger(t).Sugar())
	router := h.Router(time.Nanosecond)

	moves := make([]string, 200)
	for i := range moves {
		moves[i] = fmt.Sprintf(`{"colour":"B","x":%d,"y":%d}`, i%19, i/19)
	}
	body := `{"record":{"size":19,"moves":[` + strings.Join(moves, ",") + `]}}`

	for _, path := range []string{"/render", "/render.png", "/animate"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code, path)
	}
}

type brokenEncoder struct{}

func (brokenEncoder) Encode(io.Writer, image.Image) error { return errors.New("out of ink") }
func (brokenEncoder) ContentType() string                 { return "image/png" }

func TestEncodingFailure(t *testing.T) {
	srv := newServer(t, kifu.Config{Encoder: brokenEncoder{}})
	resp := post(t, srv, "/render", `{"record":{"size":9}}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Contains(t, body.Error, "unable to encode image")
}

func TestStream(t *testing.T) {
	srv := newServer(t, kifu.Config{})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	req := `{"record":{"size":5,"moves":[{"colour":"B","x":2,"y":2},{"colour":"W","x":1,"y":1},{"colour":"B","x":3,"y":3}]},"cellSize":6,"padding":3,"ply":2}`
	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(req)))

	var plies []int
	for {
		var msg frameMessage
		if err := c.ReadJSON(&msg); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "%v", err)
			break
		}
		plies = append(plies, msg.Ply)
		_, b, err := png.ParseDataURI(msg.Image)
		require.NoError(t, err)
		img, err := stdpng.Decode(bytes.NewReader(b))
		require.NoError(t, err)
		assert.Equal(t, image.Rect(0, 0, 36, 36), img.Bounds())
	}
	assert.Equal(t, []int{0, 1, 2}, plies)
}

func TestStream_BadRequest(t *testing.T) {
	srv := newServer(t, kifu.Config{})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.WriteMessage(websocket.TextMessage, []byte(`{"record":{"size":-1}}`)))
	var msg errorResponse
	require.NoError(t, c.ReadJSON(&msg))
	assert.NotEmpty(t, msg.Error)
	_, _, err = c.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "%v", err)
}

func TestStream_ReadLimit(t *testing.T) {
	srv := newServer(t, kifu.Config{})
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer c.Close()

	// a valid request, padded past the body limit
	req := `{"record":{"size":3}}` + strings.Repeat(" ", maxBody)
	_ = c.WriteMessage(websocket.TextMessage, []byte(req))

	_ = c.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err = c.ReadMessage()
	require.Error(t, err, "no frame is served for an oversized request")
	assert.False(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "%v", err)
}
