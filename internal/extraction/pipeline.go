/*

This file contains the end-to-end report analysis pipeline: fetch and hash
the document, short-circuit on a cache hit, otherwise extract tables, fan
out the estimator calls, reconcile the surviving candidates, and write the
result through to the cache.

*/

package extraction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/runfromrun/rfr/internal/cache"
	"github.com/runfromrun/rfr/internal/cusip"
	"github.com/runfromrun/rfr/internal/logger"
	"github.com/runfromrun/rfr/internal/metrics"
	"github.com/runfromrun/rfr/internal/reconcile"
	"github.com/runfromrun/rfr/internal/types"
)

var pipelineLogger = logger.GetForComponent("extraction_pipeline")

// Result is the outcome of analyzing one report document.
type Result struct {
	Table    types.AssetTable
	Document Document
	CacheHit bool
}

// Pipeline wires together the document fetcher, the table extractor, the
// estimator pool, and the result cache.
type Pipeline struct {
	fetcher    *DocumentFetcher
	extractor  TableExtractor
	estimators []ReserveEstimator
	store      *cache.Store

	// modelCallTimeout bounds each individual estimator call; a call that
	// exceeds it is dropped from the candidate set.
	modelCallTimeout time.Duration
}

func NewPipeline(fetcher *DocumentFetcher, extractor TableExtractor, estimators []ReserveEstimator, store *cache.Store, modelCallTimeout time.Duration) (*Pipeline, error) {
	if fetcher == nil || extractor == nil || store == nil {
		return nil, errors.New("pipeline requires a fetcher, an extractor, and a cache store")
	}
	if len(estimators) == 0 {
		return nil, errors.New("pipeline requires at least one reserve estimator")
	}
	return &Pipeline{
		fetcher:          fetcher,
		extractor:        extractor,
		estimators:       estimators,
		store:            store,
		modelCallTimeout: modelCallTimeout,
	}, nil
}

// AnalyzeReport produces the canonical reserve table for the report at url.
// A document whose content hash is already cached skips extraction entirely.
// A cache write failure is logged but does not fail the evaluation; the
// reconciled table is still returned.
func (p *Pipeline) AnalyzeReport(ctx context.Context, evalID, ticker, url string) (Result, error) {
	doc, err := p.fetcher.Fetch(ctx, ticker, url)
	if err != nil {
		return Result{}, err
	}

	cached, hit, err := p.store.Lookup(doc.Hash)
	if err != nil {
		return Result{}, fmt.Errorf("cache lookup failed: %w", err)
	}
	if hit {
		metrics.CacheHits.Inc()
		return Result{Table: cached, Document: doc, CacheHit: true}, nil
	}
	metrics.CacheMisses.Inc()

	table, err := p.extractAndReconcile(ctx, doc)
	if err != nil {
		return Result{}, err
	}

	if err := p.store.Put(doc.Hash, evalID, table); err != nil {
		pipelineLogger.Error().
			Str("hash", doc.Hash).
			Err(err).
			Msg("Failed to cache reconciled table, returning result anyway")
	}

	return Result{Table: table, Document: doc, CacheHit: false}, nil
}

func (p *Pipeline) extractAndReconcile(ctx context.Context, doc Document) (types.AssetTable, error) {
	grids, err := p.extractor.ExtractTables(ctx, doc.Path)
	if err != nil {
		return types.AssetTable{}, fmt.Errorf("table extraction failed for %s: %w", doc.Path, err)
	}
	pipelineLogger.Debug().
		Int("tables", len(grids)).
		Str("hash", doc.Hash).
		Msg("Extracted raw tables from document")

	markdownTables := MarkdownizeTables(grids)
	if len(markdownTables) == 0 {
		return types.AssetTable{}, ErrNoTables
	}

	prompt := BuildReportPrompt(markdownTables)
	cusipAppearance := false
	for _, table := range markdownTables {
		if cusip.Appears(table) {
			cusipAppearance = true
			break
		}
	}

	candidates := p.collectEstimates(ctx, doc, prompt)
	return reconcile.Reconcile(candidates, cusipAppearance, doc.Hash, time.Now().UTC())
}

// collectEstimates fans out one call per estimator. Failures and timeouts
// are dropped from the candidate set; the reconciler decides whether what
// survives is enough.
func (p *Pipeline) collectEstimates(ctx context.Context, doc Document, prompt string) []types.CandidateEstimate {
	var (
		mu         sync.Mutex
		candidates []types.CandidateEstimate
	)

	g, gctx := errgroup.WithContext(ctx)
	for _, estimator := range p.estimators {
		estimator := estimator
		g.Go(func() error {
			callCtx, cancel := context.WithTimeout(gctx, p.modelCallTimeout)
			defer cancel()

			start := time.Now()
			estimate, err := estimator.Estimate(callCtx, prompt)
			if err != nil {
				metrics.ModelCallsDropped.Inc()
				pipelineLogger.Warn().
					Str("model", estimator.Name()).
					Str("hash", doc.Hash).
					Dur("elapsed", time.Since(start)).
					Err(err).
					Msg("Estimator call dropped from candidate set")
				return nil
			}

			pipelineLogger.Debug().
				Str("model", estimator.Name()).
				Str("hash", doc.Hash).
				Dur("elapsed", time.Since(start)).
				Msg("Estimator call succeeded")

			mu.Lock()
			candidates = append(candidates, estimate)
			mu.Unlock()
			return nil
		})
	}
	// Workers swallow their own errors, so Wait only synchronizes.
	_ = g.Wait()

	return candidates
}
