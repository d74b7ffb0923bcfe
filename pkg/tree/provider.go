package tree

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/kinbook/lineage/pkg/common"
	"github.com/kinbook/lineage/pkg/logger"
)

// LoadFunc fetches the newest completed graph together with its ingestion
// watermark. The watermark must be monotonic across ingestions.
type LoadFunc func(ctx context.Context) (*common.Graph, int64, error)

// Provider hands out the current traversal engine. Snapshots are swapped
// atomically, so readers always see a complete graph; concurrent refreshes
// collapse into a single load.
type Provider struct {
	load       LoadFunc
	checkEvery time.Duration

	snapshot atomic.Pointer[snapshot]
	checked  atomic.Int64
	group    singleflight.Group
}

type snapshot struct {
	engine    *Engine
	watermark int64
}

type NewProviderParams struct {
	Load LoadFunc
	// CheckEvery bounds how often Current revalidates an existing snapshot
	// against storage. Zero disables revalidation; Refresh still works.
	CheckEvery time.Duration
}

func NewProvider(params NewProviderParams) *Provider {
	return &Provider{
		load:       params.Load,
		checkEvery: params.CheckEvery,
	}
}

// Current returns the engine for the newest known snapshot. The first call
// loads it; later calls revalidate at most once per check interval and keep
// serving the previous snapshot when a revalidation load fails.
func (p *Provider) Current(ctx context.Context) (*Engine, error) {
	snap := p.snapshot.Load()
	if snap == nil {
		if err := p.Refresh(ctx); err != nil {
			return nil, err
		}
		return p.snapshot.Load().engine, nil
	}

	if p.checkEvery > 0 && time.Since(time.Unix(0, p.checked.Load())) >= p.checkEvery {
		if err := p.Refresh(ctx); err != nil {
			logger.Warn("graph revalidation failed, serving previous snapshot", "error", err)
		} else {
			snap = p.snapshot.Load()
		}
	}

	return snap.engine, nil
}

// Refresh loads the latest completed graph and swaps it in only when its
// watermark is strictly newer than the current snapshot's. The watermark
// never moves backwards, so a slow load finishing after a faster one cannot
// reinstate stale data, and re-reads of an unchanged ingestion do not churn
// the engine.
func (p *Provider) Refresh(ctx context.Context) error {
	_, err, _ := p.group.Do("refresh", func() (interface{}, error) {
		graph, watermark, err := p.load(ctx)
		if err != nil {
			return nil, err
		}
		p.checked.Store(time.Now().UnixNano())

		cur := p.snapshot.Load()
		if cur != nil && watermark <= cur.watermark {
			return nil, nil
		}

		p.snapshot.Store(&snapshot{engine: NewEngine(graph), watermark: watermark})
		logger.Info("graph snapshot swapped",
			"ingestion", graph.IngestionID,
			"persons", len(graph.Persons),
			"marriages", len(graph.Marriages),
			"edges", len(graph.ParentChild))
		return nil, nil
	})
	return err
}
