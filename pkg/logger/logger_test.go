package logger

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fakeCollection struct {
	mu   sync.Mutex
	docs []AuditDocument
}

func (f *fakeCollection) InsertMany(_ context.Context, docs []interface{}, _ ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range docs {
		f.docs = append(f.docs, d.(AuditDocument))
	}
	return &mongo.InsertManyResult{}, nil
}

func (f *fakeCollection) snapshot() []AuditDocument {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]AuditDocument(nil), f.docs...)
}

func TestNew_ProductionUsesJSON(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "production").Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	New(&buf, "local").Info("hello", "k", "v")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestWithCtx_FallsBackToBase(t *testing.T) {
	assert.Same(t, L, WithCtx(context.Background()))

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := InjectLogger(context.Background(), custom)
	assert.Same(t, custom, WithCtx(ctx))
}

func TestMongoHandler_FlushesOnClose(t *testing.T) {
	col := &fakeCollection{}
	h := newMongoHandler(col)

	log := slog.New(h).With("channel", "audit")
	log.Info("spec.update", "product_id", int64(42), "request_id", "rid-1", "value", "Blue")
	log.Debug("ignored below info")

	h.Close()
	h.Close()

	docs := col.snapshot()
	require.Len(t, docs, 1)
	assert.Equal(t, "spec.update", docs[0].Action)
	assert.Equal(t, int64(42), docs[0].ProductID)
	assert.Equal(t, "rid-1", docs[0].RequestID)
	assert.Equal(t, "Blue", docs[0].Attrs["value"])
	assert.NotContains(t, docs[0].Attrs, "channel")
}

func TestAudit_FansOutToSink(t *testing.T) {
	col := &fakeCollection{}
	h := newMongoHandler(col)
	SetAuditHandler(h)
	defer SetAuditHandler(nil)

	ctx := InjectRequestID(context.Background(), "abc")
	Audit(ctx, "image.delete", "image_id", int64(7))
	h.Close()

	require.Eventually(t, func() bool { return len(col.snapshot()) == 1 }, time.Second, 10*time.Millisecond)
	doc := col.snapshot()[0]
	assert.Equal(t, "image.delete", doc.Action)
	assert.Equal(t, "abc", doc.RequestID)
}
