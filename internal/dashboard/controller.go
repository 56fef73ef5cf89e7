package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nconklindev/stockboard/internal/chart"
	"github.com/nconklindev/stockboard/internal/errors"
	"github.com/nconklindev/stockboard/internal/inventory"
	"github.com/nconklindev/stockboard/internal/store"
	"github.com/nconklindev/stockboard/internal/types"
)

const homeTab = "ok"

// Controller runs the upload → categorize → store → render pipeline for one dashboard.
type Controller struct {
	store    store.Gateway
	renderer chart.Renderer
	buckets  []types.BucketDef
	logger   *zap.Logger
	session  *Session
}

// Analysis summarizes one Analyze run.
type Analysis struct {
	RunID    string         `json:"runId"`
	Records  int            `json:"records"`
	Dropped  int            `json:"dropped"`
	Counts   map[string]int `json:"counts"`
	Duration time.Duration  `json:"duration"`
}

// ChartView is one chart of an activated tab.
type ChartView struct {
	ID     string          `json:"id"`
	Field  string          `json:"field"`
	Title  string          `json:"title"`
	Kind   types.ChartKind `json:"kind"`
	Series types.Series    `json:"series"`
	Empty  bool            `json:"empty"`
}

// TabView is everything a tab shows.
type TabView struct {
	Key     string                   `json:"key"`
	Title   string                   `json:"title"`
	Records int                      `json:"records"`
	Metrics types.Metrics            `json:"metrics"`
	Display inventory.MetricsDisplay `json:"display"`
	Charts  []ChartView              `json:"charts"`
}

// New wires a controller. Both collaborators are required.
func New(gw store.Gateway, renderer chart.Renderer, buckets []types.BucketDef, logger *zap.Logger) (*Controller, error) {
	if gw == nil {
		return nil, errors.ConfigInvalid("dashboard requires a persistence gateway")
	}
	if renderer == nil {
		return nil, errors.ConfigInvalid("dashboard requires a chart renderer")
	}
	if err := inventory.ValidateBuckets(buckets); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:    gw,
		renderer: renderer,
		buckets:  buckets,
		logger:   logger,
		session:  NewSession(),
	}, nil
}

func (c *Controller) Buckets() []types.BucketDef {
	return c.buckets
}

func (c *Controller) Session() *Session {
	return c.session
}

// HomeTab is the tab shown after an analysis: "ok" when defined, otherwise the first tab.
func (c *Controller) HomeTab() string {
	if _, ok := c.Bucket(homeTab); ok {
		return homeTab
	}
	return c.buckets[0].Key
}

// Bucket looks up a tab definition by key.
func (c *Controller) Bucket(key string) (types.BucketDef, bool) {
	for _, def := range c.buckets {
		if def.Key == key {
			return def, true
		}
	}
	return types.BucketDef{}, false
}

// Analyze rebuilds every tab from a decoded table: records are categorized,
// all tab entries in the gateway are replaced together, and all charts are
// redrawn. On a persistence error nothing changes.
func (c *Controller) Analyze(ctx context.Context, table *types.RawTable) (*Analysis, error) {
	if table == nil || len(table.Rows) == 0 {
		return nil, errors.EmptyFile()
	}

	start := time.Now()
	runID := uuid.NewString()
	log := c.logger.With(zap.String("run", runID))
	log.Info("Analysis started", zap.Int("rows", len(table.Rows)), zap.Int("columns", len(table.Headers)))

	headerMap := inventory.NormalizeHeaders(table.Headers)
	for field, raws := range headerMap.Collisions(table.Headers) {
		log.Warn("Header collision, later column wins", zap.String("field", field), zap.Strings("headers", raws))
	}

	records := inventory.Materialize(table.Headers, table.Rows, headerMap)
	part := inventory.Categorize(records, c.buckets)

	analysis := &Analysis{
		RunID:   runID,
		Records: len(records),
		Dropped: part.Dropped,
		Counts:  make(map[string]int, len(c.buckets)),
	}
	entries := make([]store.Entry, 0, len(c.buckets))
	for _, def := range c.buckets {
		entries = append(entries, store.Entry{TabKey: def.Key, Records: part.Buckets[def.Key]})
		analysis.Counts[def.Key] = len(part.Buckets[def.Key])
	}
	// The session keeps showing the previous run unless every tab is stored.
	if err := c.store.SetAll(ctx, entries); err != nil {
		log.Error("Failed to persist tabs", zap.Error(err))
		return nil, errors.Wrap(err, "failed to persist tabs")
	}

	c.session.Reset()
	for _, e := range entries {
		c.session.cache(e.TabKey, e.Records)
	}

	for _, def := range c.buckets {
		c.render(def, part.Buckets[def.Key])
	}

	analysis.Duration = time.Since(start)
	log.Info("Analysis finished",
		zap.Int("records", analysis.Records),
		zap.Int("dropped", analysis.Dropped),
		zap.Any("counts", analysis.Counts),
		zap.Duration("took", analysis.Duration))
	return analysis, nil
}

// Activate builds a tab's view from the cache, falling back to the gateway,
// and redraws its charts.
func (c *Controller) Activate(ctx context.Context, tab string) (*TabView, error) {
	def, ok := c.Bucket(tab)
	if !ok {
		return nil, errors.NotFound("tab " + tab)
	}

	records, cached := c.session.cached(tab)
	if !cached {
		records = c.load(ctx, tab)
		c.session.cache(tab, records)
	}
	return c.render(def, records), nil
}

// LoadAll activates every tab, in definition order. Used at startup.
func (c *Controller) LoadAll(ctx context.Context) ([]*TabView, error) {
	views := make([]*TabView, 0, len(c.buckets))
	for _, def := range c.buckets {
		view, err := c.Activate(ctx, def.Key)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// load reads a tab from the gateway. Missing and unreadable entries are empty tabs.
func (c *Controller) load(ctx context.Context, tab string) []types.Record {
	records, ok, err := c.store.Get(ctx, tab)
	if err != nil {
		c.logger.Warn("Stored tab unreadable, showing it empty", zap.String("tab", tab), zap.Error(err))
		return []types.Record{}
	}
	if !ok {
		return []types.Record{}
	}
	return records
}

func (c *Controller) render(def types.BucketDef, records []types.Record) *TabView {
	metrics := inventory.ComputeMetrics(records)
	view := &TabView{
		Key:     def.Key,
		Title:   def.Title,
		Records: len(records),
		Metrics: metrics,
		Display: inventory.FormatMetrics(metrics),
		Charts:  make([]ChartView, 0, len(def.Charts)),
	}

	for _, cd := range def.Charts {
		id := inventory.ChartID(def.Key, cd.Field)
		series := inventory.Aggregate(records, cd.Field, inventory.AggregationFor(cd))

		if err := c.renderer.Render(id, cd.Kind, series); err != nil {
			c.logger.Error("Chart render failed", zap.String("chart", id), zap.Error(err))
		}
		c.session.register(RenderedChart{
			ID: id, Bucket: def.Key, Field: cd.Field, Title: cd.Title, Kind: cd.Kind, Series: series,
		})
		view.Charts = append(view.Charts, ChartView{
			ID: id, Field: cd.Field, Title: cd.Title, Kind: cd.Kind, Series: series, Empty: series.Empty(),
		})
	}
	return view
}
