package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/sectionrank/internal/classifier"
	"github.com/fyrsmithlabs/sectionrank/internal/config"
	"github.com/fyrsmithlabs/sectionrank/internal/embeddings"
	"github.com/fyrsmithlabs/sectionrank/internal/heading"
	"github.com/fyrsmithlabs/sectionrank/internal/layout"
	"github.com/fyrsmithlabs/sectionrank/internal/logging"
	"github.com/fyrsmithlabs/sectionrank/internal/ranking"
	"github.com/fyrsmithlabs/sectionrank/internal/report"
)

const instrumentationName = "github.com/fyrsmithlabs/sectionrank/internal/pipeline"

// Options configures a Runner. Only Config is required.
type Options struct {
	Config *config.Config

	// Source reads documents. Defaults to a layout.Router for the
	// configured engine.
	Source layout.Source

	// Confirmer overrides the classifier loaded from
	// Config.Classifier.ModelPath.
	Confirmer heading.Confirmer

	// Embedder is required by Run only.
	Embedder embeddings.Embedder

	// Ranker defaults to a cosine ranker over Embedder.
	Ranker ranking.Ranker

	Logger  *logging.Logger
	Tracer  trace.Tracer
	Metrics *Metrics

	// Now defaults to time.Now.
	Now func() time.Time
}

// Runner executes batch runs.
type Runner struct {
	cfg       *config.Config
	source    layout.Source
	confirmer heading.Confirmer
	embedder  embeddings.Embedder
	ranker    ranking.Ranker
	extractor *heading.Extractor
	logger    *logging.Logger
	tracer    trace.Tracer
	metrics   *Metrics
	now       func() time.Time
}

// New creates a Runner.
func New(opts Options) (*Runner, error) {
	if opts.Config == nil {
		return nil, errors.New("pipeline: config is required")
	}
	r := &Runner{
		cfg:       opts.Config,
		source:    opts.Source,
		confirmer: opts.Confirmer,
		embedder:  opts.Embedder,
		ranker:    opts.Ranker,
		extractor: heading.NewExtractor(heading.ConfigFrom(opts.Config.Heading)),
		logger:    opts.Logger,
		tracer:    opts.Tracer,
		metrics:   opts.Metrics,
		now:       opts.Now,
	}
	if r.source == nil {
		router, err := layout.NewRouter(r.cfg.Layout.Engine, r.cfg.Layout.MutoolPath)
		if err != nil {
			return nil, err
		}
		r.source = router
	}
	if r.logger == nil {
		r.logger = logging.NewNop()
	}
	if r.tracer == nil {
		r.tracer = otel.Tracer(instrumentationName)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.ranker == nil && r.embedder != nil {
		r.ranker = ranking.NewCosineRanker(r.embedder, ranking.WithTracer(r.tracer))
	}
	return r, nil
}

// Metrics returns the run metrics.
func (r *Runner) Metrics() *Metrics {
	return r.metrics
}

// Classifier returns the heading confirmer, loading the model artifact on
// first use.
func (r *Runner) Classifier() (heading.Confirmer, error) {
	if r.confirmer != nil {
		return r.confirmer, nil
	}
	c, err := classifier.LoadArtifact(r.cfg.Classifier.ModelPath)
	if err != nil {
		return nil, err
	}
	r.confirmer = c
	return c, nil
}

// Preflight loads the query and the classifier model, the inputs Run needs
// before it reads any document. Commands call it ahead of building an
// embedding provider, which may download a runtime and model; passing the
// returned confirmer as Options.Confirmer avoids loading the model twice.
func Preflight(cfg *config.Config) (Query, heading.Confirmer, error) {
	query, err := LoadQuery(cfg.Input.Dir, cfg.Input.Persona, cfg.Input.Job)
	if err != nil {
		return Query{}, nil, err
	}
	c, err := classifier.LoadArtifact(cfg.Classifier.ModelPath)
	if err != nil {
		return Query{}, nil, err
	}
	return query, c, nil
}

// DocumentResult is the extraction outcome for one document.
type DocumentResult struct {
	ID   string
	Path string

	// Failed is set when the layout could not be read; Err holds the cause.
	Failed bool
	Err    error

	Style      heading.DocumentStyle
	Lines      int
	Skipped    int
	Verdicts   map[heading.Reason]int
	Vetoed     int
	Candidates []heading.Candidate
}

// Batch holds per-document results in sorted document order.
type Batch struct {
	Documents []DocumentResult
}

// DocumentIDs returns every input document name.
func (b *Batch) DocumentIDs() []string {
	ids := make([]string, len(b.Documents))
	for i, d := range b.Documents {
		ids[i] = d.ID
	}
	return ids
}

// FailedIDs returns the names of documents whose layout could not be read.
func (b *Batch) FailedIDs() []string {
	ids := []string{}
	for _, d := range b.Documents {
		if d.Failed {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// Candidates concatenates all candidates in document order, then in
// reading order within each document.
func (b *Batch) Candidates() []heading.Candidate {
	var out []heading.Candidate
	for _, d := range b.Documents {
		out = append(out, d.Candidates...)
	}
	return out
}

// Extract reads every document in the input directory and returns its
// heading candidates. A nil confirm keeps every heuristic match.
func (r *Runner) Extract(ctx context.Context, confirm heading.Confirmer) (*Batch, error) {
	paths, err := layout.Discover(r.cfg.Input.Dir)
	if err != nil {
		return nil, err
	}

	batch := &Batch{Documents: make([]DocumentResult, len(paths))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Pipeline.Workers)
	for i, path := range paths {
		g.Go(func() error {
			doc := r.processDocument(gctx, path, confirm)
			if err := gctx.Err(); err != nil {
				return err
			}
			batch.Documents[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *Runner) processDocument(ctx context.Context, path string, confirm heading.Confirmer) DocumentResult {
	id := filepath.Base(path)
	ctx = logging.WithDocument(ctx, id)
	ctx, span := r.tracer.Start(ctx, "pipeline.Document",
		trace.WithAttributes(attribute.String("document", id)))
	defer span.End()

	start := time.Now()
	res := DocumentResult{ID: id, Path: path}
	defer func() { r.metrics.recordDocument(&res, time.Since(start)) }()

	doc, err := r.source.Extract(ctx, path)
	if err != nil {
		res.Failed = true
		res.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if ctx.Err() == nil {
			r.logger.Warn(ctx, "layout extraction failed, skipping document", zap.Error(err))
		}
		return res
	}

	res.Lines = len(doc.Lines)
	res.Skipped = doc.Skipped
	if doc.Skipped > 0 {
		r.logger.Debug(ctx, "skipped malformed lines", zap.Int("count", doc.Skipped))
	}

	out := r.extractor.Extract(id, doc.Lines, confirm)
	res.Style = out.Style
	res.Verdicts = out.Verdicts
	res.Vetoed = out.Vetoed
	res.Candidates = out.Candidates

	if !out.Style.Known {
		res.Err = ErrMissingBodyStyle
		r.logger.Warn(ctx, "no body text found, document contributes no headings",
			zap.Error(ErrMissingBodyStyle), zap.Int("lines", res.Lines))
	}

	span.SetAttributes(
		attribute.Int("document.lines", res.Lines),
		attribute.Int("document.candidates", len(res.Candidates)),
		attribute.Float64("document.body_font_size", out.Style.BodyFontSize),
	)
	r.logger.Debug(ctx, "document processed",
		zap.Int("lines", res.Lines),
		zap.Int("blocks", out.Blocks),
		zap.Int("candidates", len(res.Candidates)),
		zap.Int("vetoed", res.Vetoed),
		zap.Float64("body_font_size", out.Style.BodyFontSize),
	)
	return res
}

// Run executes a full batch and writes the report. The query, the
// classifier and the embedder are checked before any document is read.
func (r *Runner) Run(ctx context.Context) (*report.Report, error) {
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	ctx, span := r.tracer.Start(ctx, "pipeline.Run",
		trace.WithAttributes(attribute.String("run.id", runID)))
	defer span.End()

	rep, err := r.run(ctx, runID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error(ctx, "run failed", zap.Error(err))
		return nil, err
	}
	return rep, nil
}

func (r *Runner) run(ctx context.Context, runID string) (*report.Report, error) {
	query, err := LoadQuery(r.cfg.Input.Dir, r.cfg.Input.Persona, r.cfg.Input.Job)
	if err != nil {
		return nil, err
	}
	confirm, err := r.Classifier()
	if err != nil {
		return nil, err
	}
	if r.embedder == nil || r.ranker == nil {
		return nil, fmt.Errorf("%w: no embedder configured", ErrEmbeddingFailure)
	}
	r.logger.Info(ctx, "run started",
		zap.String("persona", query.Persona),
		zap.String("job", query.Job),
		zap.String("input", r.cfg.Input.Dir),
	)

	batch, err := r.Extract(ctx, confirm)
	if err != nil {
		return nil, err
	}
	candidates := batch.Candidates()

	ranked := true
	sections, err := r.rank(ctx, query, candidates)
	if err != nil {
		if r.cfg.Ranking.Strict {
			return nil, err
		}
		r.logger.Warn(ctx, "ranking failed, reporting sections unranked", zap.Error(err))
		sections = ranking.Unranked(candidates)
		ranked = false
	}

	rep := report.Build(report.Metadata{
		InputDocuments:      batch.DocumentIDs(),
		Persona:             query.Persona,
		JobToBeDone:         query.Job,
		ProcessingTimestamp: report.Timestamp(r.now()),
		RunID:               runID,
		Ranked:              ranked,
		FailedDocuments:     batch.FailedIDs(),
	}, sections)

	if err := r.writeOutputs(ctx, batch, rep); err != nil {
		return nil, err
	}

	r.logger.Info(ctx, "run finished",
		zap.Int("documents", len(batch.Documents)),
		zap.Int("failed", len(rep.Metadata.FailedDocuments)),
		zap.Int("sections", len(sections)),
		zap.Bool("ranked", ranked),
	)
	return rep, nil
}

// rank embeds the query and orders candidates. Nothing is embedded when
// there are no candidates.
func (r *Runner) rank(ctx context.Context, query Query, candidates []heading.Candidate) ([]ranking.RankedSection, error) {
	if len(candidates) == 0 {
		return []ranking.RankedSection{}, nil
	}

	qv, err := r.embedder.EmbedQuery(ctx, query.String())
	if err != nil {
		return nil, fmt.Errorf("%w: query: %w", ErrEmbeddingFailure, err)
	}
	sections, err := r.ranker.Rank(ctx, qv, candidates)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailure, err)
	}
	r.metrics.SectionsRanked.Add(float64(len(sections)))
	return sections, nil
}

func (r *Runner) writeOutputs(ctx context.Context, batch *Batch, rep *report.Report) error {
	out := r.cfg.Output
	path := filepath.Join(out.Dir, out.ReportFile)
	if err := report.WriteJSON(path, rep); err != nil {
		return err
	}
	r.logger.Info(ctx, "report written", zap.String("path", path))

	if out.WriteOutlines {
		if err := r.writeOutlines(ctx, batch); err != nil {
			return err
		}
	}
	if out.CandidatesCSV != "" {
		if err := report.WriteCandidatesFile(out.CandidatesCSV, batch.Candidates()); err != nil {
			return err
		}
	}
	return r.WriteMetrics(ctx)
}

// Outlines extracts every document with the classifier and writes one
// outline file per readable document.
func (r *Runner) Outlines(ctx context.Context) (*Batch, error) {
	confirm, err := r.Classifier()
	if err != nil {
		return nil, err
	}
	batch, err := r.Extract(ctx, confirm)
	if err != nil {
		return nil, err
	}
	if err := r.writeOutlines(ctx, batch); err != nil {
		return nil, err
	}
	return batch, r.WriteMetrics(ctx)
}

func (r *Runner) writeOutlines(ctx context.Context, batch *Batch) error {
	for _, d := range batch.Documents {
		if d.Failed {
			continue
		}
		o, err := report.BuildOutline(d.Candidates, r.cfg.Outline.TitlePolicy)
		if err != nil {
			return err
		}
		path := report.OutlinePath(r.cfg.Output.Dir, d.ID)
		if err := report.WriteJSON(path, o); err != nil {
			return err
		}
		r.logger.Debug(ctx, "outline written", zap.String("path", path), zap.String("title", o.Title))
	}
	return nil
}

// Candidates runs the heuristic alone over every document and writes the
// candidate CSV to path.
func (r *Runner) Candidates(ctx context.Context, path string) (*Batch, error) {
	batch, err := r.Extract(ctx, nil)
	if err != nil {
		return nil, err
	}
	if err := report.WriteCandidatesFile(path, batch.Candidates()); err != nil {
		return nil, err
	}
	r.logger.Info(ctx, "candidates written",
		zap.String("path", path), zap.Int("rows", len(batch.Candidates())))
	return batch, r.WriteMetrics(ctx)
}

// WriteMetrics writes the run metrics textfile when one is configured.
func (r *Runner) WriteMetrics(ctx context.Context) error {
	path := r.cfg.Metrics.Textfile
	if path == "" {
		return nil
	}
	if err := r.metrics.WriteTextfile(path); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	r.logger.Debug(ctx, "metrics written", zap.String("path", path))
	return nil
}
