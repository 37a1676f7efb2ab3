package server

import (
	"context"
	"net/url"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// operation is a service call invoked by the passthrough handler.
type operation func(ctx context.Context, params url.Values) (map[string]any, error)

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Get("/api/health/ready", s.handleReady)
	s.router.Get("/api/health/stats", s.handleStats)

	s.router.Post("/api/cache/clear", s.handleCacheClear)

	s.router.Get("/metrics", promhttp.Handler().ServeHTTP)

	s.router.Get("/api/gtex/genes/search", s.handleGeneSearch)
	for path, op := range s.passthroughOps() {
		s.router.Get("/api/gtex/"+path, s.passthrough(path, op))
	}
}

// passthroughOps maps URL path segments to cached service operations.
func (s *Server) passthroughOps() map[string]operation {
	return map[string]operation{
		"genes":                          s.svc.Genes,
		"transcripts":                    s.svc.Transcripts,
		"exons":                          s.svc.Exons,
		"neighbor-genes":                 s.svc.NeighborGenes,
		"median-gene-expression":         s.svc.MedianGeneExpression,
		"median-transcript-expression":   s.svc.MedianTranscriptExpression,
		"median-exon-expression":         s.svc.MedianExonExpression,
		"median-junction-expression":     s.svc.MedianJunctionExpression,
		"gene-expression":                s.svc.GeneExpression,
		"top-expressed-genes":            s.svc.TopExpressedGenes,
		"single-nucleus-gene-expression": s.svc.SingleNucleusGeneExpression,
		"tissues":                        s.svc.TissueSiteDetails,
		"samples":                        s.svc.Samples,
		"subjects":                       s.svc.Subjects,
		"variants":                       s.svc.Variants,
		"variants-by-location":           s.svc.VariantsByLocation,
	}
}
