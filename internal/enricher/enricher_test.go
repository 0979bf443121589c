package enricher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pumpwatch-sol/internal/consts"
	"pumpwatch-sol/internal/logic/core"
)

func TestCandidateURLs(t *testing.T) {
	gws := []string{"https://a.io/", "https://b.io"}
	assert.Equal(t, []string{"https://a.io/ipfs/Qm1", "https://b.io/ipfs/Qm1"}, candidateURLs("ipfs://Qm1", gws))
	assert.Equal(t, []string{"https://a.io/ipfs/Qm1/x.json", "https://b.io/ipfs/Qm1/x.json"}, candidateURLs("ipfs://ipfs/Qm1/x.json", gws))
	assert.Equal(t, []string{"https://cf.io/ipfs/Qm2", "https://a.io/ipfs/Qm2", "https://b.io/ipfs/Qm2"}, candidateURLs("https://cf.io/ipfs/Qm2", gws))
	assert.Equal(t, []string{"https://a.io/ipfs/Qm3", "https://b.io/ipfs/Qm3"}, candidateURLs("https://a.io/ipfs/Qm3", gws))
	assert.Equal(t, []string{"https://meta.example/x.json"}, candidateURLs("https://meta.example/x.json", gws))
	assert.Nil(t, candidateURLs("ar://abc", gws))
	assert.Nil(t, candidateURLs("ipfs://", gws))
}

func TestEnrichFallsBackAcrossGateways(t *testing.T) {
	var hits atomic.Int32
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	noImage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"name":"DOGE"}`))
	}))
	defer noImage.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "/ipfs/QmAbc", r.URL.Path)
		_, _ = w.Write([]byte(`{"name":"DOGE","image":"https://img/doge.png"}`))
	}))
	defer good.Close()

	e := NewEnricher([]string{slow.URL, broken.URL, noImage.URL, good.URL}, 100*time.Millisecond, 1, 1, nil)
	assert.Equal(t, "https://img/doge.png", e.Enrich(context.Background(), "ipfs://QmAbc"))
	assert.Equal(t, int32(4), hits.Load())
}

func TestEnrichUnavailable(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer broken.Close()

	e := NewEnricher([]string{broken.URL}, time.Second, 1, 1, nil)
	assert.Equal(t, consts.UnavailableImage, e.Enrich(context.Background(), "ipfs://QmAbc"))
	assert.Equal(t, consts.UnavailableImage, e.Enrich(context.Background(), ""))
	assert.Equal(t, consts.UnavailableImage, e.Enrich(context.Background(), "data:xyz"))
}

type collect struct {
	mu  sync.Mutex
	got []*core.TokenMetadata
}

func (c *collect) EmitMetadata(m *core.TokenMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, m)
}

func (c *collect) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.got)
}

func TestEnricherWorkers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"image":"https://img/x.png"}`))
	}))
	defer srv.Close()

	out := &collect{}
	e := NewEnricher([]string{srv.URL}, time.Second, 2, 8, out)
	done := make(chan struct{})
	go func() {
		e.Start()
		close(done)
	}()

	e.Emit(&core.DecodedEvent{
		Kind:      "pumpfun_create",
		Signature: "sig",
		Roles:     core.Fields{{Name: "mint", Value: "M"}},
		Args:      core.Fields{{Name: "uri", Value: "ipfs://QmX"}},
	})
	// 没有 uri 的事件不入队
	e.Emit(&core.DecodedEvent{Signature: "no-uri"})

	require.Eventually(t, func() bool { return out.len() == 1 }, 2*time.Second, 5*time.Millisecond)
	e.Stop()
	<-done

	m := out.got[0]
	assert.Equal(t, "M", m.Mint)
	assert.Equal(t, "sig", m.Signature)
	assert.Equal(t, "ipfs://QmX", m.URI)
	assert.Equal(t, "https://img/x.png", m.Image)
}
