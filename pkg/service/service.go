// Package service exposes the GTEx Portal operations, each memoized through
// its own named TTL+LRU cache registered with a shared cache manager.
package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/gtex-link/gtex-link/pkg/cache"
	"github.com/gtex-link/gtex-link/pkg/client"
	"github.com/gtex-link/gtex-link/pkg/logging"
)

// Operation is one cached GTEx Portal call taking already-validated query
// parameters.
type Operation func(ctx context.Context, params url.Values) (map[string]any, error)

// Caller is the client surface the service needs. *client.Client satisfies
// it; tests substitute fakes.
type Caller interface {
	Get(ctx context.Context, endpoint string, query url.Values) (map[string]any, error)
	Stats() client.Stats
}

// CacheConfig bounds the per-operation caches. Size is the default entry
// budget; individual operations take fractions of it mirroring their
// response sizes and change rates.
type CacheConfig struct {
	Size int
	TTL  time.Duration
}

// DefaultCacheConfig returns the default cache budget.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Size: 1000,
		TTL:  time.Hour,
	}
}

// Service wraps the resilient client with per-operation caching. Reference
// data (genes, transcripts, tissues) changes rarely and caches at twice the
// base TTL; expression and dataset lookups use the base TTL.
type Service struct {
	client  Caller
	manager *cache.Manager
	logger  zerolog.Logger

	serviceInfo                 Operation
	searchGenes                 Operation
	genes                       Operation
	transcripts                 Operation
	exons                       Operation
	neighborGenes               Operation
	medianGeneExpression        Operation
	medianTranscriptExpression  Operation
	medianExonExpression        Operation
	medianJunctionExpression    Operation
	geneExpression              Operation
	topExpressedGenes           Operation
	singleNucleusGeneExpression Operation
	tissueSiteDetails           Operation
	samples                     Operation
	subjects                    Operation
	variants                    Operation
	variantsByLocation          Operation
}

// New creates a service around the given client. Every operation registers
// its cache with the manager here, at construction time.
func New(c Caller, cfg CacheConfig) (*Service, error) {
	if cfg.Size < 1 {
		cfg.Size = 1
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}

	s := &Service{
		client:  c,
		manager: cache.NewManager(),
		logger:  logging.NewLogger("gtex-service"),
	}

	longTTL := 2 * cfg.TTL

	type binding struct {
		target   *Operation
		name     string
		endpoint string
		maxSize  int
		ttl      time.Duration
	}

	bindings := []binding{
		{&s.serviceInfo, "service_info", endpointServiceInfo, 1, 30 * time.Minute},
		{&s.searchGenes, "gene_search", endpointGeneSearch, min(500, cfg.Size), cfg.TTL},
		{&s.genes, "genes", endpointGene, min(1000, cfg.Size), longTTL},
		{&s.transcripts, "transcripts", endpointTranscript, min(500, cfg.Size), longTTL},
		{&s.exons, "exons", endpointExon, min(300, cfg.Size), longTTL},
		{&s.neighborGenes, "neighbor_genes", endpointNeighborGene, min(300, cfg.Size), longTTL},
		{&s.medianGeneExpression, "median_expression", endpointMedianGeneExpression, min(800, cfg.Size), cfg.TTL},
		{&s.medianTranscriptExpression, "median_transcript_expression", endpointMedianTranscriptExpression, min(500, cfg.Size), cfg.TTL},
		{&s.medianExonExpression, "median_exon_expression", endpointMedianExonExpression, min(400, cfg.Size), cfg.TTL},
		{&s.medianJunctionExpression, "median_junction_expression", endpointMedianJunctionExpression, min(300, cfg.Size), cfg.TTL},
		{&s.geneExpression, "gene_expression", endpointGeneExpression, min(600, cfg.Size), cfg.TTL},
		{&s.topExpressedGenes, "top_genes", endpointTopExpressedGene, min(400, cfg.Size), cfg.TTL},
		{&s.singleNucleusGeneExpression, "single_nucleus_expression", endpointSingleNucleusGeneExpression, min(300, cfg.Size), cfg.TTL},
		{&s.tissueSiteDetails, "tissues", endpointTissueSiteDetail, min(200, cfg.Size), longTTL},
		{&s.samples, "samples", endpointSample, min(400, cfg.Size), cfg.TTL},
		{&s.subjects, "subjects", endpointSubject, min(400, cfg.Size), longTTL},
		{&s.variants, "variants", endpointVariant, min(400, cfg.Size), cfg.TTL},
		{&s.variantsByLocation, "variants_by_location", endpointVariantByLocation, min(300, cfg.Size), cfg.TTL},
	}

	for _, b := range bindings {
		op, err := s.bind(b.name, b.endpoint, b.maxSize, b.ttl)
		if err != nil {
			return nil, fmt.Errorf("bind operation %s: %w", b.name, err)
		}
		*b.target = op
	}

	return s, nil
}

// bind creates the named cache for one endpoint, registers it with the
// manager, and returns the cached operation.
func (s *Service) bind(name, endpoint string, maxSize int, ttl time.Duration) (Operation, error) {
	c := cache.New[map[string]any](name, maxSize, ttl)
	if err := s.manager.Register(c); err != nil {
		return nil, err
	}

	op := func(ctx context.Context, params url.Values) (map[string]any, error) {
		return s.client.Get(ctx, endpoint, params)
	}
	return withCache(c, ttl, op), nil
}

// withCache memoizes an operation through the given cache. The cache key is
// the canonical hash of the operation name and parameters.
func withCache(c *cache.Cache[map[string]any], ttl time.Duration, op Operation) Operation {
	return func(ctx context.Context, params url.Values) (map[string]any, error) {
		key := cache.Key(c.Name(), params)
		return c.GetOrCompute(ctx, key, ttl, func(ctx context.Context) (map[string]any, error) {
			return op(ctx, params)
		})
	}
}

// ServiceInfo fetches GTEx Portal service information.
func (s *Service) ServiceInfo(ctx context.Context) (map[string]any, error) {
	return s.serviceInfo(ctx, nil)
}

// SearchGenes searches genes by identifier or symbol prefix.
func (s *Service) SearchGenes(ctx context.Context, query string, page, pageSize int) (map[string]any, error) {
	params := url.Values{}
	params.Set("geneId", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("itemsPerPage", strconv.Itoa(pageSize))
	return s.searchGenes(ctx, params)
}

// Genes fetches gene records.
func (s *Service) Genes(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.genes(ctx, params)
}

// Transcripts fetches transcript records.
func (s *Service) Transcripts(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.transcripts(ctx, params)
}

// Exons fetches exon records.
func (s *Service) Exons(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.exons(ctx, params)
}

// NeighborGenes fetches genes adjacent to a genomic position.
func (s *Service) NeighborGenes(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.neighborGenes(ctx, params)
}

// MedianGeneExpression fetches median gene expression by tissue.
func (s *Service) MedianGeneExpression(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.medianGeneExpression(ctx, params)
}

// MedianTranscriptExpression fetches median transcript expression.
func (s *Service) MedianTranscriptExpression(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.medianTranscriptExpression(ctx, params)
}

// MedianExonExpression fetches median exon expression.
func (s *Service) MedianExonExpression(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.medianExonExpression(ctx, params)
}

// MedianJunctionExpression fetches median junction expression.
func (s *Service) MedianJunctionExpression(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.medianJunctionExpression(ctx, params)
}

// GeneExpression fetches per-sample gene expression.
func (s *Service) GeneExpression(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.geneExpression(ctx, params)
}

// TopExpressedGenes fetches the most expressed genes for a tissue.
func (s *Service) TopExpressedGenes(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.topExpressedGenes(ctx, params)
}

// SingleNucleusGeneExpression fetches single nucleus expression data.
func (s *Service) SingleNucleusGeneExpression(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.singleNucleusGeneExpression(ctx, params)
}

// TissueSiteDetails fetches tissue site metadata.
func (s *Service) TissueSiteDetails(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.tissueSiteDetails(ctx, params)
}

// Samples fetches sample records.
func (s *Service) Samples(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.samples(ctx, params)
}

// Subjects fetches subject records.
func (s *Service) Subjects(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.subjects(ctx, params)
}

// Variants fetches variant records.
func (s *Service) Variants(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.variants(ctx, params)
}

// VariantsByLocation fetches variants inside a genomic region.
func (s *Service) VariantsByLocation(ctx context.Context, params url.Values) (map[string]any, error) {
	return s.variantsByLocation(ctx, params)
}

// ClientStats returns the underlying client's statistics.
func (s *Service) ClientStats() client.Stats {
	return s.client.Stats()
}

// CacheStats returns per-cache and aggregate cache statistics.
func (s *Service) CacheStats() cache.ManagerStats {
	return s.manager.Stats()
}

// ClearCaches clears every operation cache.
func (s *Service) ClearCaches() cache.ClearResult {
	return s.manager.ClearAll()
}
