package session_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/storeadmin/app/models"
	"github.com/shashiranjanraj/storeadmin/app/services"
	"github.com/shashiranjanraj/storeadmin/app/session"
	"github.com/shashiranjanraj/storeadmin/pkg/cache"
	"github.com/shashiranjanraj/storeadmin/pkg/storage"
	"github.com/shashiranjanraj/storeadmin/pkg/testkit"
	"github.com/shashiranjanraj/storeadmin/pkg/workerpool"
)

const valuesPath = "/p_specification/values/42"

func newDeps(t *testing.T, api *testkit.FakeAPI, window time.Duration) session.Deps {
	t.Helper()
	client := api.Client()
	pool := workerpool.New(4)
	t.Cleanup(pool.Shutdown)
	resolver := services.NewSchemaResolver(client, cache.Nop{}, time.Minute)
	return session.Deps{
		API:        client,
		Resolver:   resolver,
		Reconciler: services.NewReconciler(client, resolver, pool),
		Images:     services.NewImageManager(client),
		Staging:    storage.NewLocal(t.TempDir()),
		Debounce:   window,
	}
}

func seed(api *testkit.FakeAPI) {
	api.SetSchema(5,
		models.SpecificationDefinition{ID: 1, Name: "Color"},
		models.SpecificationDefinition{ID: 2, Name: "Weight"},
	)
	api.AddProduct(models.Product{ID: 42, Name: "Phone", CategoryID: 5})
	api.SetValues(42, models.SpecificationValue{ID: 9, Name: "Color", Value: "Red"})
}

func openEditor(t *testing.T, window time.Duration) (*testkit.FakeAPI, *session.Editor) {
	t.Helper()
	api := testkit.NewFakeAPI(t)
	seed(api)
	e := session.NewEditor(42, newDeps(t, api, window))
	_, err := e.Open(context.Background())
	require.NoError(t, err)
	return api, e
}

func waitState(t *testing.T, e *session.Editor, want session.State) {
	t.Helper()
	require.Eventually(t, func() bool { return e.State() == want }, 2*time.Second, 5*time.Millisecond)
}

func TestOpen_PrepopulatesFromExistingValues(t *testing.T) {
	_, e := openEditor(t, 0)

	snap := e.Snapshot()
	assert.Equal(t, session.StateEditing, snap.State)
	assert.Equal(t, "Phone", snap.Product.Name)
	assert.Len(t, snap.Schema, 2)
	assert.Equal(t, models.WorkingValues{1: "Red", 2: ""}, snap.Values)
}

func TestOpen_SchemaFailureLeavesNothingToEdit(t *testing.T) {
	api := testkit.NewFakeAPI(t)
	seed(api)
	api.Fail(http.MethodGet, "/categories/values/5", http.StatusInternalServerError)
	e := session.NewEditor(42, newDeps(t, api, 0))

	snap, err := e.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.StateEditing, snap.State)
	assert.Empty(t, snap.Schema)
	assert.Empty(t, snap.Values)
}

func TestOpen_Twice(t *testing.T) {
	_, e := openEditor(t, 0)
	snap, err := e.Open(context.Background())
	assert.ErrorIs(t, err, session.ErrAlreadyOpen)
	assert.Equal(t, session.StateEditing, snap.State)
}

func TestSubmit_SavesAndCloses(t *testing.T) {
	api, e := openEditor(t, 0)
	require.NoError(t, e.EditField(1, "Blue"))
	require.NoError(t, e.EditField(2, "2kg"))

	res, err := e.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeSuccess, res.Outcome)

	snap := e.Snapshot()
	assert.Equal(t, session.StateIdle, snap.State)
	assert.Empty(t, snap.Values)
	assert.Same(t, res, snap.Result)

	vals := api.Values(42)
	require.Len(t, vals, 2)
	testkit.AssertCalled(t, api, http.MethodPut, "/p_specification/9")
}

func TestSubmit_ProductFieldsSentOnce(t *testing.T) {
	api, e := openEditor(t, 0)
	name, price := "Phone X", 499.0
	require.NoError(t, e.EditProduct(models.ProductPatch{Name: &name}))
	require.NoError(t, e.EditProduct(models.ProductPatch{Price: &price}))
	assert.Equal(t, "Phone X", e.Snapshot().Product.Name)

	_, err := e.Submit(context.Background())
	require.NoError(t, err)

	testkit.AssertJSONBody(t, `{"name":"Phone X","price":499}`,
		testkit.Only(t, api.CallsTo(http.MethodPut, "/products/42")))
	p, _ := api.Product(42)
	assert.Equal(t, 499.0, p.Price)
}

func TestSubmit_RejectedWhileInFlight(t *testing.T) {
	api, e := openEditor(t, 0)
	require.NoError(t, e.EditField(1, "Blue"))
	release := api.Hold(http.MethodGet, valuesPath)

	done := make(chan error, 1)
	go func() {
		_, err := e.Submit(context.Background())
		done <- err
	}()
	waitState(t, e, session.StateSubmitting)

	_, err := e.Submit(context.Background())
	assert.ErrorIs(t, err, session.ErrSubmitInFlight)
	assert.ErrorIs(t, e.EditField(2, "2kg"), session.ErrNotEditing)

	release()
	require.NoError(t, <-done)
	assert.Len(t, api.CallsTo(http.MethodPut, "/p_specification/9"), 1)
}

func TestSubmit_FailureKeepsWorkingCopy(t *testing.T) {
	api, e := openEditor(t, 0)
	api.Fail(http.MethodPost, "/p_specification", http.StatusInternalServerError, testkit.Times(1))
	require.NoError(t, e.EditField(1, "Blue"))
	require.NoError(t, e.EditField(2, "2kg"))

	res, err := e.Submit(context.Background())
	var pf *services.PartialFailureError
	require.ErrorAs(t, err, &pf)
	assert.Equal(t, services.OutcomePartialFailure, res.Outcome)

	snap := e.Snapshot()
	assert.Equal(t, session.StateFailed, snap.State)
	assert.NotEmpty(t, snap.Error)
	assert.Equal(t, "2kg", snap.Values[2])

	// Retry straight from Failed.
	res, err = e.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, services.OutcomeSuccess, res.Outcome)
	assert.Len(t, api.Values(42), 2)
}

func TestEditField_LeavesFailed(t *testing.T) {
	api, e := openEditor(t, 0)
	api.Fail(http.MethodGet, valuesPath, http.StatusBadGateway, testkit.Times(1))
	_, err := e.Submit(context.Background())
	require.Error(t, err)
	require.Equal(t, session.StateFailed, e.State())

	require.NoError(t, e.EditField(2, "3kg"))
	snap := e.Snapshot()
	assert.Equal(t, session.StateEditing, snap.State)
	assert.Empty(t, snap.Error)
	testkit.AssertNoWrites(t, api)
}

func TestClose_DropsLateSubmitResult(t *testing.T) {
	api, e := openEditor(t, 0)
	require.NoError(t, e.EditField(1, "Blue"))
	release := api.Hold(http.MethodGet, valuesPath)

	done := make(chan error, 1)
	go func() {
		_, err := e.Submit(context.Background())
		done <- err
	}()
	waitState(t, e, session.StateSubmitting)

	e.Close()
	release()

	assert.ErrorIs(t, <-done, session.ErrClosed)
	snap := e.Snapshot()
	assert.Equal(t, session.StateIdle, snap.State)
	assert.Empty(t, snap.Values)
	assert.Empty(t, snap.Error)
}

func TestClose_DiscardsEdits(t *testing.T) {
	api, e := openEditor(t, 0)
	require.NoError(t, e.EditField(1, "Blue"))

	e.Close()

	_, err := e.Submit(context.Background())
	assert.ErrorIs(t, err, session.ErrNotEditing)
	testkit.AssertNoWrites(t, api)

	snap, err := e.Open(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Red", snap.Values[1])
}

func TestEditFieldDebounced_FlushedBySubmit(t *testing.T) {
	api, e := openEditor(t, time.Hour)
	require.NoError(t, e.EditFieldDebounced(2, "1kg"))
	require.NoError(t, e.EditFieldDebounced(2, "2kg"))
	assert.Equal(t, "", e.Snapshot().Values[2])

	_, err := e.Submit(context.Background())
	require.NoError(t, err)

	testkit.AssertJSONBody(t, `{"product_id":42,"specification_id":2,"value":"2kg"}`,
		testkit.Only(t, api.CallsTo(http.MethodPost, "/p_specification")))
}

func TestEditFieldDebounced_DroppedByClose(t *testing.T) {
	api, e := openEditor(t, 20*time.Millisecond)
	require.NoError(t, e.EditFieldDebounced(2, "2kg"))
	e.Close()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, e.Snapshot().Values)
	testkit.AssertNoWrites(t, api)
}

func TestUpload_PrimaryUpdatesProduct(t *testing.T) {
	api, e := openEditor(t, 0)

	u, err := e.Upload(context.Background(), models.SlotPrimary, "front.jpg", strings.NewReader("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, session.UploadDone, u.Status)
	assert.True(t, strings.HasPrefix(u.URL, "https://files.test/"))

	data, ok := api.Uploaded(u.URL)
	require.True(t, ok)
	assert.Equal(t, "jpeg", string(data))

	assert.Equal(t, u.URL, e.Snapshot().Product.PrimaryImageURL)
	p, _ := api.Product(42)
	assert.Equal(t, u.URL, p.PrimaryImageURL)
}

func TestUpload_FailureThenRetry(t *testing.T) {
	api, e := openEditor(t, 0)
	api.Fail(http.MethodPost, "/files", http.StatusInternalServerError, testkit.Times(1))
	ctx := context.Background()

	u, err := e.Upload(ctx, models.SlotGallery, "side.jpg", strings.NewReader("jpeg"))
	require.Error(t, err)
	assert.Equal(t, session.UploadFailed, u.Status)
	assert.NotEmpty(t, u.Error)
	assert.Empty(t, api.Images(42))

	u, err = e.StartUpload(ctx, u.Key)
	require.NoError(t, err)
	assert.Equal(t, session.UploadDone, u.Status)
	assert.NotZero(t, u.ImageID)

	snap := e.Snapshot()
	require.Len(t, snap.Gallery, 1)
	assert.Equal(t, u.URL, snap.Gallery[0].ImageURL)
	require.Len(t, snap.Uploads, 1)
}

func TestQueueUpload_NewPrimaryReplacesPending(t *testing.T) {
	_, e := openEditor(t, 0)
	ctx := context.Background()

	_, err := e.QueueUpload(ctx, models.SlotPrimary, "a.jpg", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = e.QueueUpload(ctx, models.SlotGallery, "g.jpg", strings.NewReader("g"))
	require.NoError(t, err)
	_, err = e.QueueUpload(ctx, models.SlotPrimary, "b.jpg", strings.NewReader("b"))
	require.NoError(t, err)

	uploads := e.Snapshot().Uploads
	require.Len(t, uploads, 2)
	assert.Equal(t, "g.jpg", uploads[0].Name)
	assert.Equal(t, "b.jpg", uploads[1].Name)
	assert.Equal(t, session.UploadPending, uploads[1].Status)
}

func TestQueueUpload_RejectsUnknownSlot(t *testing.T) {
	_, e := openEditor(t, 0)
	_, err := e.QueueUpload(context.Background(), models.ImageSlot("banner"), "a.jpg", strings.NewReader("a"))
	assert.Error(t, err)
}

func TestStartUpload_UnknownKey(t *testing.T) {
	_, e := openEditor(t, 0)
	_, err := e.StartUpload(context.Background(), "nope")
	assert.ErrorIs(t, err, session.ErrUploadNotFound)
}

func TestDeleteGalleryImage(t *testing.T) {
	api := testkit.NewFakeAPI(t)
	seed(api)
	api.AddImages(
		models.ImageAttachment{ID: 7, ImageURL: "https://files.test/7.jpg", ProductID: 42},
		models.ImageAttachment{ID: 8, ImageURL: "https://files.test/8.jpg", ProductID: 42},
	)
	e := session.NewEditor(42, newDeps(t, api, 0))
	snap, err := e.Open(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Gallery, 2)

	require.NoError(t, e.DeleteGalleryImage(context.Background(), 7))

	gallery := e.Snapshot().Gallery
	require.Len(t, gallery, 1)
	assert.Equal(t, int64(8), gallery[0].ID)
	assert.Len(t, api.Images(42), 1)
}

func TestDeleteValue_ClearsWorkingValue(t *testing.T) {
	api, e := openEditor(t, 0)

	require.NoError(t, e.DeleteValue(context.Background(), 1))
	assert.Equal(t, "", e.Snapshot().Values[1])
	assert.Empty(t, api.Values(42))
}

func TestSubscribe_ReceivesChanges(t *testing.T) {
	_, e := openEditor(t, 0)
	ch, cancel := e.Subscribe()
	defer cancel()

	first := <-ch
	assert.Equal(t, session.StateEditing, first.State)

	require.NoError(t, e.EditField(2, "2kg"))
	next := <-ch
	assert.Greater(t, next.Version, first.Version)
	assert.Equal(t, "2kg", next.Values[2])

	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestSubscribe_SlowReaderGetsLatest(t *testing.T) {
	_, e := openEditor(t, 0)
	ch, cancel := e.Subscribe()
	defer cancel()

	for i := 0; i < 50; i++ {
		require.NoError(t, e.EditField(2, strings.Repeat("x", i+1)))
	}

	var last session.Snapshot
	for len(ch) > 0 {
		last = <-ch
	}
	assert.Equal(t, strings.Repeat("x", 50), last.Values[2])
}
