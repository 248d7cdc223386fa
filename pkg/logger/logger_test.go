package logger

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func TestNewProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	New("production", &buf).Info("order placed", "order_id", 7)

	assert.Contains(t, buf.String(), `"msg":"order placed"`)
	assert.Contains(t, buf.String(), `"order_id":7`)
}

func TestNewLocalIsText(t *testing.T) {
	var buf bytes.Buffer
	New("local", &buf).Debug("stock reserved", "remaining", 90)

	assert.Contains(t, buf.String(), "msg=\"stock reserved\"")
	assert.Contains(t, buf.String(), "remaining=90")
}

func TestWithCtxFallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), WithCtx(context.Background()))

	log := Discard()
	ctx := InjectLogger(context.Background(), log)
	assert.Same(t, log, WithCtx(ctx))
}

type recordingWriter struct {
	mu   sync.Mutex
	docs []LogDocument
}

func (w *recordingWriter) InsertMany(_ context.Context, docs []interface{}, _ ...*options.InsertManyOptions) (*mongo.InsertManyResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, d := range docs {
		w.docs = append(w.docs, d.(LogDocument))
	}
	return &mongo.InsertManyResult{}, nil
}

func TestMongoHandlerFlushesOnClose(t *testing.T) {
	w := &recordingWriter{}
	h := newMongoHandler(w, slog.LevelInfo)

	log := slog.New(h).With("request_id", "req-1")
	log.Debug("dropped below level")
	log.WithGroup("stock").Info("reserved", "order_id", 42, "remaining", 90)
	h.Close()
	h.Close()

	require.Len(t, w.docs, 1)
	doc := w.docs[0]
	assert.Equal(t, "reserved", doc.Msg)
	assert.Equal(t, "req-1", doc.RequestID)
	assert.EqualValues(t, 42, doc.OrderID)
	assert.EqualValues(t, 90, doc.Attrs["stock.remaining"])
}
