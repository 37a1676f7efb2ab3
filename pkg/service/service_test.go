package service

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gtex-link/gtex-link/pkg/client"
)

// fakeCaller records upstream calls and returns canned payloads.
type fakeCaller struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeCaller) Get(ctx context.Context, endpoint string, query url.Values) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, endpoint+"?"+query.Encode())
	return map[string]any{"endpoint": endpoint, "n": len(f.calls)}, nil
}

func (f *fakeCaller) Stats() client.Stats {
	return client.Stats{TotalRequests: int64(f.callCount())}
}

func (f *fakeCaller) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestService(t *testing.T) (*Service, *fakeCaller) {
	t.Helper()

	caller := &fakeCaller{}
	svc, err := New(caller, CacheConfig{Size: 100, TTL: time.Minute})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return svc, caller
}

func TestService_CachesRepeatedCalls(t *testing.T) {
	svc, caller := newTestService(t)
	ctx := context.Background()

	params := url.Values{"geneId": {"ENSG00000012048.23"}}

	first, err := svc.Genes(ctx, params)
	if err != nil {
		t.Fatalf("Genes() error = %v", err)
	}
	second, err := svc.Genes(ctx, params)
	if err != nil {
		t.Fatalf("Genes() error = %v", err)
	}

	if caller.callCount() != 1 {
		t.Errorf("upstream calls = %d, want 1 (second call served from cache)", caller.callCount())
	}
	if first["n"] != second["n"] {
		t.Errorf("cached payload differs: %v vs %v", first, second)
	}
}

func TestService_DistinctParamsMiss(t *testing.T) {
	svc, caller := newTestService(t)
	ctx := context.Background()

	svc.Genes(ctx, url.Values{"geneId": {"BRCA1"}})
	svc.Genes(ctx, url.Values{"geneId": {"BRCA2"}})

	if caller.callCount() != 2 {
		t.Errorf("upstream calls = %d, want 2 for distinct params", caller.callCount())
	}
}

func TestService_ParamOrderDoesNotMatter(t *testing.T) {
	svc, caller := newTestService(t)
	ctx := context.Background()

	p1 := url.Values{}
	p1.Set("geneId", "BRCA1")
	p1.Set("tissueSiteDetailId", "Lung")

	p2 := url.Values{}
	p2.Set("tissueSiteDetailId", "Lung")
	p2.Set("geneId", "BRCA1")

	svc.MedianGeneExpression(ctx, p1)
	svc.MedianGeneExpression(ctx, p2)

	if caller.callCount() != 1 {
		t.Errorf("upstream calls = %d, want 1 (params canonicalize identically)", caller.callCount())
	}
}

func TestService_OperationsCacheIndependently(t *testing.T) {
	svc, caller := newTestService(t)
	ctx := context.Background()

	params := url.Values{"geneId": {"BRCA1"}}
	svc.Genes(ctx, params)
	svc.Transcripts(ctx, params)
	svc.Exons(ctx, params)

	if caller.callCount() != 3 {
		t.Errorf("upstream calls = %d, want 3 (one per operation)", caller.callCount())
	}
}

func TestService_SearchGenesParams(t *testing.T) {
	svc, caller := newTestService(t)
	ctx := context.Background()

	if _, err := svc.SearchGenes(ctx, "BRCA", 0, 250); err != nil {
		t.Fatalf("SearchGenes() error = %v", err)
	}

	caller.mu.Lock()
	call := caller.calls[0]
	caller.mu.Unlock()

	want := "reference/geneSearch?geneId=BRCA&itemsPerPage=250&page=0"
	if call != want {
		t.Errorf("upstream call = %q, want %q", call, want)
	}
}

func TestService_ServiceInfo(t *testing.T) {
	svc, caller := newTestService(t)
	ctx := context.Background()

	svc.ServiceInfo(ctx)
	svc.ServiceInfo(ctx)

	if caller.callCount() != 1 {
		t.Errorf("upstream calls = %d, want 1 (service info cached)", caller.callCount())
	}
}

func TestService_CacheStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	params := url.Values{"geneId": {"BRCA1"}}
	svc.Genes(ctx, params)
	svc.Genes(ctx, params)

	stats := svc.CacheStats()

	genes, ok := stats.Caches["genes"]
	if !ok {
		t.Fatalf("stats missing genes cache: %v", stats.Caches)
	}
	if genes.Hits != 1 || genes.Misses != 1 {
		t.Errorf("genes stats = %+v, want 1 hit / 1 miss", genes)
	}
	if genes.CurrentSize != 1 {
		t.Errorf("genes CurrentSize = %d, want 1", genes.CurrentSize)
	}

	if stats.Global.Hits != 1 || stats.Global.Misses != 1 {
		t.Errorf("global stats = %+v, want 1 hit / 1 miss", stats.Global)
	}
}

func TestService_ClearCaches(t *testing.T) {
	svc, caller := newTestService(t)
	ctx := context.Background()

	params := url.Values{"geneId": {"BRCA1"}}
	svc.Genes(ctx, params)
	svc.Subjects(ctx, url.Values{"datasetId": {"gtex_v10"}})

	result := svc.ClearCaches()
	if result.ClearedEntries != 2 {
		t.Errorf("ClearedEntries = %d, want 2", result.ClearedEntries)
	}

	// A cleared cache recomputes.
	svc.Genes(ctx, params)
	if caller.callCount() != 3 {
		t.Errorf("upstream calls = %d, want 3 after clear", caller.callCount())
	}
}

func TestService_RegistersAllOperationCaches(t *testing.T) {
	svc, _ := newTestService(t)

	stats := svc.CacheStats()
	for _, name := range []string{
		"service_info", "gene_search", "genes", "transcripts", "exons",
		"neighbor_genes", "median_expression", "median_transcript_expression",
		"median_exon_expression", "median_junction_expression",
		"gene_expression", "top_genes", "single_nucleus_expression",
		"tissues", "samples", "subjects", "variants", "variants_by_location",
	} {
		if _, ok := stats.Caches[name]; !ok {
			t.Errorf("cache %q not registered", name)
		}
	}
}

func TestService_ClientStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	svc.Genes(ctx, url.Values{"geneId": {"BRCA1"}})

	if got := svc.ClientStats().TotalRequests; got != 1 {
		t.Errorf("ClientStats().TotalRequests = %d, want 1", got)
	}
}
