package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/app/session"
	"github.com/shashiranjanraj/storeadmin/pkg/bind"
	"github.com/shashiranjanraj/storeadmin/pkg/logger"
	"github.com/shashiranjanraj/storeadmin/pkg/response"
	"github.com/shashiranjanraj/storeadmin/pkg/sse"
	"github.com/shashiranjanraj/storeadmin/pkg/ws"
)

const keepalive = 25 * time.Second

// EditorController exposes product editor sessions.
type EditorController struct {
	store *session.Store

	mu    sync.Mutex
	feeds map[int64]*feed

	done     chan struct{}
	doneOnce sync.Once
}

// feed streams one editor's snapshots to its WebSocket hub.
type feed struct {
	hub    *ws.Hub
	cancel func()
}

func NewEditorController(store *session.Store) *EditorController {
	return &EditorController{store: store, feeds: map[int64]*feed{}, done: make(chan struct{})}
}

type editFieldsRequest struct {
	Values   models.WorkingValues `json:"values"`
	Debounce bool                 `json:"debounce"`
}

func (c *EditorController) editor(w http.ResponseWriter, r *http.Request) (*session.Editor, bool) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return nil, false
	}
	e, err := c.store.Get(id)
	if err != nil {
		fail(w, r, err)
		return nil, false
	}
	return e, true
}

// Open starts (or rejoins) the product's editing session.
func (c *EditorController) Open(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	_, snap, err := c.store.Open(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, snap)
}

func (c *EditorController) Show(w http.ResponseWriter, r *http.Request) {
	e, ok := c.editor(w, r)
	if !ok {
		return
	}
	response.Success(w, e.Snapshot())
}

// Close discards the session and its working copy.
func (c *EditorController) Close(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}
	if err := c.store.Close(id); err != nil {
		fail(w, r, err)
		return
	}
	c.dropFeed(id)
	response.NoContent(w)
}

// EditFields sets working specification values.
func (c *EditorController) EditFields(w http.ResponseWriter, r *http.Request) {
	e, ok := c.editor(w, r)
	if !ok {
		return
	}
	var req editFieldsRequest
	if _, err := bind.JSON(r, &req); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	for defID, value := range req.Values {
		edit := e.EditField
		if req.Debounce {
			edit = e.EditFieldDebounced
		}
		if err := edit(defID, value); err != nil {
			fail(w, r, err)
			return
		}
	}
	response.Success(w, e.Snapshot())
}

// EditProduct merges product field edits.
func (c *EditorController) EditProduct(w http.ResponseWriter, r *http.Request) {
	e, ok := c.editor(w, r)
	if !ok {
		return
	}
	var patch models.ProductPatch
	if _, err := bind.JSON(r, &patch); err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if err := e.EditProduct(patch); err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, e.Snapshot())
}

// Submit saves the working copy.
func (c *EditorController) Submit(w http.ResponseWriter, r *http.Request) {
	e, ok := c.editor(w, r)
	if !ok {
		return
	}
	res, err := e.Submit(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, res)
}

// DeleteValue removes one recorded specification value.
func (c *EditorController) DeleteValue(w http.ResponseWriter, r *http.Request) {
	e, ok := c.editor(w, r)
	if !ok {
		return
	}
	defID, ok := idParam(w, r, "definition")
	if !ok {
		return
	}
	if err := e.DeleteValue(r.Context(), defID); err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, e.Snapshot())
}

// Upload stores the multipart "file" for the slot and uploads it. A failed
// upload is reported in the returned upload status, not as a request error.
func (c *EditorController) Upload(w http.ResponseWriter, r *http.Request) {
	e, ok := c.editor(w, r)
	if !ok {
		return
	}
	slot := models.ImageSlot(chi.URLParam(r, "slot"))
	if !slot.Valid() {
		response.BadRequest(w, "unknown image slot")
		return
	}
	f, hdr, err := bind.File(w, r, "file")
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	defer f.Close()

	queued, err := e.QueueUpload(r.Context(), slot, hdr.Filename, f)
	if err != nil {
		fail(w, r, err)
		return
	}
	c.finishUpload(w, r, e, queued.Key)
}

// RetryUpload runs a queued or failed upload again.
func (c *EditorController) RetryUpload(w http.ResponseWriter, r *http.Request) {
	e, ok := c.editor(w, r)
	if !ok {
		return
	}
	c.finishUpload(w, r, e, chi.URLParam(r, "key"))
}

func (c *EditorController) finishUpload(w http.ResponseWriter, r *http.Request, e *session.Editor, key string) {
	u, err := e.StartUpload(r.Context(), key)
	if err != nil && (errors.Is(err, session.ErrClosed) || errors.Is(err, session.ErrUploadNotFound)) {
		fail(w, r, err)
		return
	}
	if err != nil {
		logger.WithCtx(r.Context()).Warn("image upload failed", "product_id", e.ProductID(), "file", u.Name, "error", err)
	}
	response.Success(w, u)
}

// DeleteImage removes a gallery image.
func (c *EditorController) DeleteImage(w http.ResponseWriter, r *http.Request) {
	e, ok := c.editor(w, r)
	if !ok {
		return
	}
	imageID, ok := idParam(w, r, "image")
	if !ok {
		return
	}
	if err := e.DeleteGalleryImage(r.Context(), imageID); err != nil {
		fail(w, r, err)
		return
	}
	response.Success(w, e.Snapshot())
}

// Events streams the session's snapshots over a WebSocket.
func (c *EditorController) Events(w http.ResponseWriter, r *http.Request) {
	e, ok := c.editor(w, r)
	if !ok {
		return
	}
	initial, err := json.Marshal(e.Snapshot())
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = ws.Upgrade(w, r, c.feedFor(e), initial)
}

// Stream sends the session's snapshots as Server-Sent Events until the
// client leaves or the server shuts down.
func (c *EditorController) Stream(w http.ResponseWriter, r *http.Request) {
	e, ok := c.editor(w, r)
	if !ok {
		return
	}
	stream, err := sse.New(w, r)
	if err != nil {
		logger.WithCtx(r.Context()).Warn("event stream unavailable", "error", err)
		return
	}
	snaps, cancel := e.Subscribe()
	defer cancel()

	tick := time.NewTicker(keepalive)
	defer tick.Stop()
	for {
		select {
		case snap, ok := <-snaps:
			if !ok {
				return
			}
			if err := stream.Send("snapshot", snap.Version, snap); err != nil {
				return
			}
		case <-tick.C:
			if err := stream.Comment("keepalive"); err != nil {
				return
			}
		case <-stream.Done():
			return
		case <-c.done:
			return
		}
	}
}

func (c *EditorController) feedFor(e *session.Editor) *ws.Hub {
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.feeds[e.ProductID()]; ok {
		return f.hub
	}

	hub := ws.NewHub()
	go hub.Run()
	snaps, cancel := e.Subscribe()
	go func() {
		for snap := range snaps {
			b, err := json.Marshal(snap)
			if err != nil {
				logger.Warn("snapshot not encodable", "product_id", snap.ProductID, "error", err)
				continue
			}
			if !hub.Broadcast(b) {
				return
			}
		}
	}()
	c.feeds[e.ProductID()] = &feed{hub: hub, cancel: cancel}
	return hub
}

func (c *EditorController) dropFeed(productID int64) {
	c.mu.Lock()
	f, ok := c.feeds[productID]
	delete(c.feeds, productID)
	c.mu.Unlock()
	if ok {
		f.cancel()
		f.hub.Close()
	}
}

// Shutdown closes every event stream.
func (c *EditorController) Shutdown() {
	c.doneOnce.Do(func() { close(c.done) })
	c.mu.Lock()
	ids := make([]int64, 0, len(c.feeds))
	for id := range c.feeds {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	for _, id := range ids {
		c.dropFeed(id)
	}
}
