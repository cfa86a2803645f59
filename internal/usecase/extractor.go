package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aer205/gh-issue-stats/internal/domain"
	"github.com/aer205/gh-issue-stats/internal/gateway"
)

// ErrTotalFailure is returned by Run when no repository could be extracted
// at all. Partial failures are reported, not returned.
var ErrTotalFailure = errors.New("extraction failed for every repository")

// Report aggregates the failure counters of one extraction run.
type Report struct {
	Repos         int
	FailedRepos   int
	Issues        int
	FailedIssues  int
	SkippedEvents int
	// Inverted counts records whose classified start postdates the finish.
	// Such records are kept; noisy histories legitimately produce them.
	Inverted int
}

// Extractor is the use case that drives the full pipeline for a set of
// repositories: list issues, filter by window, classify timelines and
// assemble the per-repository records.
type Extractor struct {
	fetcher    gateway.Fetcher
	classifier *Classifier
	window     Window
	logger     *logrus.Logger
	workers    int
}

// NewExtractor creates a new Extractor instance. workers bounds the
// concurrent timeline fetches within one repository.
func NewExtractor(fetcher gateway.Fetcher, classifier *Classifier, window Window, logger *logrus.Logger, workers int) *Extractor {
	if workers <= 0 {
		workers = 1
	}
	return &Extractor{
		fetcher:    fetcher,
		classifier: classifier,
		window:     window,
		logger:     logger,
		workers:    workers,
	}
}

// issueOutcome is the per-issue result value: either a record or a failure
// tagged with the issue number. Failures never cross issue boundaries.
type issueOutcome struct {
	number  int
	record  domain.IssueRecord
	skipped int
	err     error
}

// Run extracts every repository in order. A repository failure is logged
// and counted, never propagated to the others; only a run where every
// repository failed is an error.
func (e *Extractor) Run(ctx context.Context, urls []string) (domain.RepositoryStats, Report, error) {
	e.logger.Info("Usecase: Starting extraction run...")
	var report Report
	stats := make(domain.RepositoryStats, 0, len(urls))
	for _, url := range urls {
		repoStats, err := e.ExtractRepository(ctx, url, &report)
		if err != nil {
			if ctx.Err() != nil {
				return stats, report, ctx.Err()
			}
			e.logger.Errorf("Extraction of %s failed: %v", url, err)
			report.FailedRepos++
			continue
		}
		report.Repos++
		stats = append(stats, repoStats)
	}
	if len(urls) > 0 && report.Repos == 0 {
		return nil, report, ErrTotalFailure
	}
	e.logger.Infof("Usecase: Extraction complete: %d repositories, %d issues (%d issue failures)",
		report.Repos, report.Issues, report.FailedIssues)
	return stats, report, nil
}

// ExtractRepository runs the per-repository stages in sequence: list closed
// issues, apply the window filter, then fetch and classify the accepted
// issues' timelines concurrently. Record order follows the listing order,
// not fetch completion order.
func (e *Extractor) ExtractRepository(ctx context.Context, url string, report *Report) (domain.RepoStats, error) {
	owner, name, err := domain.ParseRepoURL(url)
	if err != nil {
		return domain.RepoStats{}, err
	}
	e.logger.Infof("Extracting statistics from %s/%s...", owner, name)

	now := time.Now().UTC()
	metas, err := e.fetcher.ListClosedIssues(ctx, owner, name, now.Add(-e.window.MaxCreatedAge))
	if err != nil {
		return domain.RepoStats{}, err
	}

	accepted := make([]domain.IssueMeta, 0, len(metas))
	for _, meta := range metas {
		if e.window.Accept(now, meta.CreatedAt, meta.ClosedAt) {
			accepted = append(accepted, meta)
		}
	}
	e.logger.Debugf("%s/%s: %d of %d issues inside the window", owner, name, len(accepted), len(metas))

	outcomes := make([]issueOutcome, len(accepted))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(e.workers)
	for i, meta := range accepted {
		eg.Go(func() error {
			outcomes[i] = e.extractIssue(egCtx, owner, name, meta)
			if outcomes[i].err != nil && egCtx.Err() != nil {
				return egCtx.Err()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return domain.RepoStats{}, err
	}

	repoStats := domain.RepoStats{
		Owner:  owner,
		Name:   name,
		URL:    url,
		Issues: make([]domain.IssueRecord, 0, len(outcomes)),
	}
	for _, outcome := range outcomes {
		if outcome.err != nil {
			e.logger.Warnf("Skipping %s/%s#%d: %v", owner, name, outcome.number, outcome.err)
			report.FailedIssues++
			continue
		}
		report.Issues++
		report.SkippedEvents += outcome.skipped
		if isInverted(outcome.record) {
			e.logger.Warnf("%s/%s#%d: start-of-work postdates end-of-work", owner, name, outcome.number)
			report.Inverted++
		}
		repoStats.Issues = append(repoStats.Issues, outcome.record)
	}
	e.logger.Infof("Done with %s/%s: %d issues", owner, name, len(repoStats.Issues))
	return repoStats, nil
}

// extractIssue fetches one issue's timeline and assembles its record. This
// is the structural join of classifier output and issue metadata; no
// further decision logic happens here.
func (e *Extractor) extractIssue(ctx context.Context, owner, name string, meta domain.IssueMeta) issueOutcome {
	events, err := e.fetcher.FetchTimeline(ctx, owner, name, meta.Number, meta.IsPull)
	if err != nil {
		return issueOutcome{number: meta.Number, err: err}
	}
	cls := e.classifier.Classify(events, meta.IsPull)

	record := domain.IssueRecord{
		Number:    meta.Number,
		CreatedAt: meta.CreatedAt,
		ClosedAt:  meta.ClosedAt,
		IsPull:    meta.IsPull,
		IsSquash:  meta.IsPull && cls.Squash,
	}
	if meta.StateReason != "" {
		reason := meta.StateReason
		record.StateReason = &reason
	}
	if cls.Start != nil {
		record.StartEvent = &cls.Start.Event
		record.StartID = &cls.Start.ID
		record.StartedAt = &cls.Start.At
	}
	if cls.Finish != nil {
		record.FinishEvent = &cls.Finish.Event
		record.FinishID = &cls.Finish.ID
		record.FinishedAt = &cls.Finish.At
	}
	return issueOutcome{number: meta.Number, record: record, skipped: cls.Skipped}
}

func isInverted(record domain.IssueRecord) bool {
	return record.StartedAt != nil && record.FinishedAt != nil && record.StartedAt.After(*record.FinishedAt)
}
