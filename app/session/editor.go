package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"sync"
	"time"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/app/services"
	"github.com/shashiranjanraj/storeadmin/pkg/debounce"
	"github.com/shashiranjanraj/storeadmin/pkg/logger"
	"github.com/shashiranjanraj/storeadmin/pkg/metrics"
	"github.com/shashiranjanraj/storeadmin/pkg/storage"
)

// Backend is the part of the remote client the editor reads and writes
// directly; everything else goes through the services.
type Backend interface {
	GetProduct(ctx context.Context, id int64) (models.Product, error)
	SpecificationValues(ctx context.Context, productID int64) ([]models.SpecificationValue, error)
	UpdateProduct(ctx context.Context, id int64, patch models.ProductPatch) (models.Product, error)
}

// Deps are the collaborators of every editor.
type Deps struct {
	API        Backend
	Resolver   *services.SchemaResolver
	Reconciler *services.Reconciler
	Images     *services.ImageManager
	// Staging holds picked files until their upload runs.
	Staging storage.Disk
	// Debounce is the quiet window of EditFieldDebounced.
	Debounce time.Duration
}

// Editor is the editing session of one product. All methods are safe for
// concurrent use. Results of remote calls are merged into the state
// current when they complete; results arriving after Close are dropped.
type Editor struct {
	deps      Deps
	productID int64
	debounce  *debounce.Keyed[int64]

	mu      sync.Mutex
	state   State
	gen     uint64 // bumped by Open and Close
	version uint64
	seq     uint64
	product models.Product
	patch   models.ProductPatch
	schema  []models.SpecificationDefinition
	values  models.WorkingValues
	gallery []models.ImageAttachment
	uploads []*Upload
	errMsg  string
	result  *services.ReconcileResult
	subs    map[uint64]chan Snapshot
	nextSub uint64
}

// NewEditor creates an idle editor for productID.
func NewEditor(productID int64, deps Deps) *Editor {
	return &Editor{
		deps:      deps,
		productID: productID,
		debounce:  debounce.New[int64](deps.Debounce),
		state:     StateIdle,
		values:    models.WorkingValues{},
		subs:      map[uint64]chan Snapshot{},
	}
}

// ProductID returns the edited product's id.
func (e *Editor) ProductID() int64 { return e.productID }

// State returns the current state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot returns a copy of the current state.
func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Open loads the product, its category schema, its existing specification
// values and its gallery, and starts editing. A schema that cannot be
// loaded leaves nothing to edit but does not fail the open.
func (e *Editor) Open(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	if e.state != StateIdle && e.state != StateFailed {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, ErrAlreadyOpen
	}
	e.gen++
	gen := e.gen
	e.mu.Unlock()

	log := logger.WithCtx(ctx).With("product_id", e.productID)

	product, err := e.deps.API.GetProduct(ctx, e.productID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open product %d: %w", e.productID, err)
	}

	var (
		schema   []models.SpecificationDefinition
		existing []models.SpecificationValue
		gallery  []models.ImageAttachment
		wg       sync.WaitGroup
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		var err error
		if schema, err = e.deps.Resolver.Resolve(ctx, product.CategoryID); err != nil {
			log.Warn("specification schema unavailable, nothing to edit", "category_id", product.CategoryID, "error", err)
			schema = nil
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if existing, err = e.deps.API.SpecificationValues(ctx, e.productID); err != nil {
			log.Warn("existing specification values unavailable", "error", err)
			existing = nil
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if gallery, err = e.deps.Images.ListGallery(ctx, e.productID); err != nil {
			log.Warn("gallery unavailable", "error", err)
			gallery = nil
		}
	}()
	wg.Wait()

	values := make(models.WorkingValues, len(schema))
	lookup := e.deps.Reconciler.Matcher().Build(existing)
	for _, def := range schema {
		values[def.ID] = ""
		if rec, ok := lookup(def); ok {
			values[def.ID] = rec.Value
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return Snapshot{}, ErrClosed
	}
	e.resetLocked()
	e.product = product
	e.schema = schema
	e.values = values
	e.gallery = gallery
	e.setStateLocked(StateEditing)
	return e.publishLocked(), nil
}

// Join returns the current snapshot of a session that is open, including
// one whose last submit failed, so its working copy survives for a retry.
// An idle session is opened.
func (e *Editor) Join(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	if e.state != StateIdle {
		snap := e.snapshotLocked()
		e.mu.Unlock()
		return snap, nil
	}
	e.mu.Unlock()

	snap, err := e.Open(ctx)
	if errors.Is(err, ErrAlreadyOpen) {
		return snap, nil
	}
	return snap, err
}

// EditField sets the working value of one specification definition. An
// empty value means "no value": it is neither written nor deleted on
// submit.
func (e *Editor) EditField(definitionID int64, value string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.beginEditLocked(); err != nil {
		return err
	}
	e.values[definitionID] = value
	e.publishLocked()
	return nil
}

// EditFieldDebounced applies the edit once the field has been quiet for the
// debounce window. Pending edits are flushed by Submit and dropped by Close.
func (e *Editor) EditFieldDebounced(definitionID int64, value string) error {
	if st := e.State(); !st.canEdit() {
		return ErrNotEditing
	}
	e.debounce.Trigger(definitionID, func() {
		if err := e.EditField(definitionID, value); err != nil {
			logger.Debug("debounced edit dropped", "product_id", e.productID, "definition_id", definitionID, "error", err)
		}
	})
	return nil
}

// EditProduct merges product field edits into the working copy. They are
// sent with one update call on submit.
func (e *Editor) EditProduct(patch models.ProductPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.beginEditLocked(); err != nil {
		return err
	}
	e.patch = e.patch.Merge(patch)
	e.product = patch.Apply(e.product)
	e.publishLocked()
	return nil
}

// Submit saves the working copy: pending debounced edits are applied, the
// product fields are updated when they changed, and the specification
// values are reconciled. On success the session closes. On failure it moves
// to Failed and keeps the working copy for a retry. Only one submission
// may be in flight.
func (e *Editor) Submit(ctx context.Context) (*services.ReconcileResult, error) {
	e.debounce.Flush()

	e.mu.Lock()
	if e.state == StateSubmitting {
		e.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if !e.state.canEdit() {
		e.mu.Unlock()
		return nil, ErrNotEditing
	}
	gen := e.gen
	patch := e.patch
	values := e.values.Clone()
	categoryID := e.product.CategoryID
	e.errMsg = ""
	e.result = nil
	e.setStateLocked(StateSubmitting)
	e.publishLocked()
	e.mu.Unlock()

	log := logger.WithCtx(ctx).With("product_id", e.productID)

	if !patch.Empty() {
		if _, err := e.deps.API.UpdateProduct(ctx, e.productID, patch); err != nil {
			return nil, e.fail(gen, fmt.Errorf("update product %d: %w", e.productID, err), nil)
		}
		logger.Audit(ctx, "product.updated", "product_id", e.productID)
		e.mu.Lock()
		if e.gen == gen {
			e.patch = models.ProductPatch{}
		}
		e.mu.Unlock()
	}

	res, err := e.deps.Reconciler.Reconcile(ctx, e.productID, categoryID, values)
	if err == nil {
		err = res.Err()
	}
	if err != nil {
		return res, e.fail(gen, err, res)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return res, ErrClosed
	}
	staged := e.stagedLocked()
	e.resetLocked()
	e.result = res
	e.gen++
	e.setStateLocked(StateIdle)
	e.publishLocked()
	e.dropStaged(staged)
	log.Info("product saved", "writes", len(res.Results))
	return res, nil
}

func (e *Editor) fail(gen uint64, err error, res *services.ReconcileResult) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return ErrClosed
	}
	e.errMsg = err.Error()
	e.result = res
	e.setStateLocked(StateFailed)
	e.publishLocked()
	return err
}

// Close discards the working copy unconditionally and returns to Idle.
// Remote calls still running complete, but their results are dropped.
func (e *Editor) Close() {
	e.debounce.Cancel()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	staged := e.stagedLocked()
	e.resetLocked()
	e.setStateLocked(StateIdle)
	e.publishLocked()
	e.dropStaged(staged)
}

// ─────────────────────────────────────────────
// Images
// ─────────────────────────────────────────────

// QueueUpload stages a picked file for slot. A new primary file replaces
// any primary file that has not started uploading.
func (e *Editor) QueueUpload(ctx context.Context, slot models.ImageSlot, name string, r io.Reader) (Upload, error) {
	if !slot.Valid() {
		return Upload{}, fmt.Errorf("session: unknown image slot %q", slot)
	}

	e.mu.Lock()
	if e.state == StateIdle {
		e.mu.Unlock()
		return Upload{}, ErrNotEditing
	}
	e.seq++
	gen := e.gen
	key := fmt.Sprintf("%d-%d", gen, e.seq)
	e.mu.Unlock()

	staged := path.Join("staging", strconv.FormatInt(e.productID, 10), key+"-"+path.Base(name))
	if err := e.deps.Staging.Put(ctx, staged, r); err != nil {
		return Upload{}, fmt.Errorf("stage %s: %w", name, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		e.dropStaged([]string{staged})
		return Upload{}, ErrClosed
	}

	if slot == models.SlotPrimary {
		var replaced []string
		kept := e.uploads[:0]
		for _, u := range e.uploads {
			if u.Slot == models.SlotPrimary && (u.Status == UploadPending || u.Status == UploadFailed) {
				replaced = append(replaced, u.staged)
				continue
			}
			kept = append(kept, u)
		}
		e.uploads = kept
		e.dropStaged(replaced)
	}

	u := &Upload{Key: key, Slot: slot, Name: path.Base(name), Status: UploadPending, staged: staged}
	e.uploads = append(e.uploads, u)
	e.publishLocked()
	return *u, nil
}

// StartUpload runs the upload sequence of a queued file. The outcome is
// merged into the upload with the same key in the current state.
func (e *Editor) StartUpload(ctx context.Context, key string) (Upload, error) {
	e.mu.Lock()
	u := e.findUploadLocked(key)
	if u == nil {
		e.mu.Unlock()
		return Upload{}, ErrUploadNotFound
	}
	if u.Status == UploadUploading || u.Status == UploadDone {
		out := *u
		e.mu.Unlock()
		return out, nil
	}
	u.Status = UploadUploading
	u.Error = ""
	gen := e.gen
	slot, staged, name := u.Slot, u.staged, u.Name
	e.publishLocked()
	e.mu.Unlock()

	var (
		url string
		img models.ImageAttachment
	)
	f, err := services.OpenFromDisk(ctx, e.deps.Staging, staged)
	if err == nil {
		f.Name = name
		if slot == models.SlotPrimary {
			url, err = e.deps.Images.SetPrimary(ctx, e.productID, f)
		} else {
			img, err = e.deps.Images.AddGallery(ctx, e.productID, f)
			url = img.ImageURL
		}
		f.Close()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		logger.Info("upload finished after session closed, result dropped",
			"product_id", e.productID, "file", name, "error", err)
		return Upload{}, ErrClosed
	}
	u = e.findUploadLocked(key)
	if u == nil {
		return Upload{}, ErrUploadNotFound
	}
	if err != nil {
		u.Status = UploadFailed
		u.Error = err.Error()
	} else {
		u.Status = UploadDone
		u.URL = url
		u.ImageID = img.ID
		if slot == models.SlotPrimary {
			e.product.PrimaryImageURL = url
		} else {
			e.gallery = append(e.gallery, img)
		}
		e.dropStaged([]string{staged})
	}
	e.publishLocked()
	return *u, err
}

// Upload queues a file and uploads it right away.
func (e *Editor) Upload(ctx context.Context, slot models.ImageSlot, name string, r io.Reader) (Upload, error) {
	u, err := e.QueueUpload(ctx, slot, name, r)
	if err != nil {
		return Upload{}, err
	}
	return e.StartUpload(ctx, u.Key)
}

// DeleteGalleryImage removes one gallery image.
func (e *Editor) DeleteGalleryImage(ctx context.Context, imageID int64) error {
	gen, err := e.liveGen()
	if err != nil {
		return err
	}
	if err := e.deps.Images.DeleteGallery(ctx, imageID); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return ErrClosed
	}
	kept := e.gallery[:0]
	for _, img := range e.gallery {
		if img.ID != imageID {
			kept = append(kept, img)
		}
	}
	e.gallery = kept
	e.publishLocked()
	return nil
}

// DeleteValue removes the recorded value of one definition right away and
// clears its working value.
func (e *Editor) DeleteValue(ctx context.Context, definitionID int64) error {
	gen, err := e.liveGen()
	if err != nil {
		return err
	}
	if err := e.deps.Reconciler.DeleteValue(ctx, e.productID, definitionID); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.gen != gen {
		return ErrClosed
	}
	if _, ok := e.values[definitionID]; ok {
		e.values[definitionID] = ""
	}
	e.publishLocked()
	return nil
}

// ─────────────────────────────────────────────
// Subscriptions
// ─────────────────────────────────────────────

// Subscribe returns a channel receiving the current snapshot and then one
// snapshot per change. A slow reader only misses intermediate snapshots,
// never the latest. cancel closes the channel.
func (e *Editor) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 8)

	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = ch
	ch <- e.snapshotLocked()
	e.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			delete(e.subs, id)
			close(ch)
		})
	}
}

// ─────────────────────────────────────────────
// Internals; callers hold e.mu where the name says Locked.
// ─────────────────────────────────────────────

func (e *Editor) beginEditLocked() error {
	if !e.state.canEdit() {
		return ErrNotEditing
	}
	if e.state == StateFailed {
		e.errMsg = ""
		e.setStateLocked(StateEditing)
	}
	return nil
}

func (e *Editor) liveGen() (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateIdle {
		return 0, ErrNotEditing
	}
	return e.gen, nil
}

func (e *Editor) setStateLocked(to State) {
	if e.state == to {
		return
	}
	metrics.RecordTransition(string(e.state), string(to))
	e.state = to
}

func (e *Editor) resetLocked() {
	e.product = models.Product{}
	e.patch = models.ProductPatch{}
	e.schema = nil
	e.values = models.WorkingValues{}
	e.gallery = nil
	e.uploads = nil
	e.errMsg = ""
	e.result = nil
}

func (e *Editor) findUploadLocked(key string) *Upload {
	for _, u := range e.uploads {
		if u.Key == key {
			return u
		}
	}
	return nil
}

func (e *Editor) stagedLocked() []string {
	var out []string
	for _, u := range e.uploads {
		if u.Status != UploadDone && u.Status != UploadUploading {
			out = append(out, u.staged)
		}
	}
	return out
}

func (e *Editor) dropStaged(paths []string) {
	for _, p := range paths {
		if err := e.deps.Staging.Delete(context.Background(), p); err != nil {
			logger.Warn("staged file not removed", "path", p, "error", err)
		}
	}
}

func (e *Editor) snapshotLocked() Snapshot {
	uploads := make([]Upload, len(e.uploads))
	for i, u := range e.uploads {
		uploads[i] = *u
	}
	return Snapshot{
		ProductID: e.productID,
		State:     e.state,
		Version:   e.version,
		Product:   e.product,
		Schema:    append([]models.SpecificationDefinition(nil), e.schema...),
		Values:    e.values.Clone(),
		Gallery:   append([]models.ImageAttachment(nil), e.gallery...),
		Uploads:   uploads,
		Error:     e.errMsg,
		Result:    e.result,
	}
}

func (e *Editor) publishLocked() Snapshot {
	e.version++
	snap := e.snapshotLocked()
	for _, ch := range e.subs {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
	return snap
}
