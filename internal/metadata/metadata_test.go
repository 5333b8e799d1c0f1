package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/ids"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/store"
)

func TestHashFromURI(t *testing.T) {
	assert.Equal(t, "QmHash", HashFromURI("ipfs://gateway/QmHash"))
	assert.Equal(t, "meta.json", HashFromURI("https://host/path/meta.json"))
	assert.Equal(t, "bare", HashFromURI("bare"))
	assert.Equal(t, "", HashFromURI(""))
}

func TestParse_Fields(t *testing.T) {
	fields := Parse("h", []byte(`{"title":"Silk Jacket","image":"ipfs://img","link":"https://x"}`))
	assert.Equal(t, "Silk Jacket", fields.Title)
	assert.Equal(t, "ipfs://img", fields.Image)
	assert.Equal(t, "https://x", fields.Link)
}

func TestParse_SkipsInlineBase64(t *testing.T) {
	fields := Parse("h", []byte(`{"title":"ok","image":"data:image/png;base64,AAAA"}`))
	assert.Equal(t, "ok", fields.Title)
	assert.Empty(t, fields.Image)
}

func TestParse_NotAnObject(t *testing.T) {
	assert.Equal(t, Fields{}, Parse("h", []byte(`"just a string"`)))
	assert.Equal(t, Fields{}, Parse("h", []byte(`not json`)))
}

func TestParse_NonStringFieldOmitted(t *testing.T) {
	fields := Parse("h", []byte(`{"title":42,"image":"ok"}`))
	assert.Empty(t, fields.Title)
	assert.Equal(t, "ok", fields.Image)
}

func TestRegistry_RegisterIdempotent(t *testing.T) {
	r := NewRegistry(store.NewMemory())

	r.Register(entities.KindMetadata, "QmA")
	r.Register(entities.KindMetadata, "QmA")
	r.Register(entities.KindMetadata, "QmA")

	assert.Len(t, r.Pending(), 1)
}

func TestRegistry_RegisterEmptyHashNoop(t *testing.T) {
	r := NewRegistry(store.NewMemory())
	r.Register(entities.KindMetadata, "")
	assert.Empty(t, r.Pending())
}

func TestRegistry_AlreadyMaterializedNoop(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.Save(&entities.Metadata{ID: ids.Key("QmA"), Title: "existing"}))

	r := NewRegistry(st)
	r.Register(entities.KindMetadata, "QmA")
	assert.Empty(t, r.Pending())
}

func TestRegistry_SameHashDifferentKinds(t *testing.T) {
	r := NewRegistry(store.NewMemory())
	r.Register(entities.KindMetadata, "QmA")
	r.Register(entities.KindFulfillerMetadata, "QmA")
	assert.Len(t, r.Pending(), 2)
}

type stubFetcher map[string]string

func (s stubFetcher) Fetch(_ context.Context, hash string) ([]byte, error) {
	body, ok := s[hash]
	if !ok {
		return nil, assert.AnError
	}
	return []byte(body), nil
}

func TestRegistry_RunMaterializes(t *testing.T) {
	st := store.NewMemory()
	r := NewRegistry(st)
	r.Register(entities.KindFulfillerMetadata, "QmF")

	fetcher := stubFetcher{"QmF": `{"title":"Atelier","link":"https://atelier.example"}`}
	require.NoError(t, r.Run(context.Background(), fetcher))
	assert.Empty(t, r.Pending())

	e, ok, err := st.Load(entities.KindFulfillerMetadata, ids.Key("QmF"))
	require.NoError(t, err)
	require.True(t, ok)
	meta := e.(*entities.FulfillerMetadata)
	assert.Equal(t, "Atelier", meta.Title)
	assert.Equal(t, "https://atelier.example", meta.Link)
}

func TestRegistry_RunDropsFailedJob(t *testing.T) {
	st := store.NewMemory()
	r := NewRegistry(st)
	r.Register(entities.KindMetadata, "QmMissing")

	require.NoError(t, r.Run(context.Background(), stubFetcher{}))
	assert.Empty(t, r.Pending())

	_, ok, err := st.Load(entities.KindMetadata, ids.Key("QmMissing"))
	require.NoError(t, err)
	assert.False(t, ok)

	// The originating event being redelivered re-registers the job.
	r.Register(entities.KindMetadata, "QmMissing")
	assert.Len(t, r.Pending(), 1)
}

func TestHTTPFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"title":"ok"}`))
	}))
	defer srv.Close()

	f := &HTTPFetcher{Gateway: srv.URL}
	body, err := f.Fetch(context.Background(), "QmA")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"ok"}`, string(body))
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestHTTPFetcher_NotFoundIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := &HTTPFetcher{Gateway: srv.URL}
	_, err := f.Fetch(context.Background(), "QmA")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
