package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/aer205/gh-issue-stats/internal/domain"
	"github.com/aer205/gh-issue-stats/internal/gateway"
)

// SampleConfig controls the activity sampler.
type SampleConfig struct {
	// Days is the length of the trailing commit window.
	Days int
	// Size is the maximum number of repositories to return. Zero means
	// no truncation.
	Size int
	// PercentileCap, when nonzero, discards repositories whose commit
	// count is at or above the given percentile of the nonzero counts.
	// Cuts off outlier mega-repositories so the sample stays comparable.
	PercentileCap float64
	// Workers bounds the concurrent count requests.
	Workers int
}

// DefaultSampleConfig returns the standard sampling parameters: a 90-day
// window and a sample of 40 repositories, with no percentile cap.
func DefaultSampleConfig() SampleConfig {
	return SampleConfig{Days: 90, Size: 40, Workers: 8}
}

// Sampler selects a bounded, comparable working set of repositories by
// ranking candidates on their trailing-window commit count.
type Sampler struct {
	fetcher gateway.Fetcher
	logger  *logrus.Logger
}

// NewSampler creates a new Sampler instance.
func NewSampler(fetcher gateway.Fetcher, logger *logrus.Logger) *Sampler {
	return &Sampler{fetcher: fetcher, logger: logger}
}

// ActiveSample computes the commit count of every candidate concurrently,
// discards repositories scoring zero, applies the optional percentile cap,
// and returns up to cfg.Size repositories sorted by descending count. The
// sort is stable, so ties keep the input order. A failure to count one
// repository degrades its score to zero instead of aborting the sample.
func (s *Sampler) ActiveSample(ctx context.Context, urls []string, cfg SampleConfig) (domain.SampleSet, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	since := time.Now().UTC().AddDate(0, 0, -cfg.Days)

	candidates := make(domain.SampleSet, len(urls))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Workers)
	for i, url := range urls {
		eg.Go(func() error {
			candidates[i] = domain.SampledRepo{URL: url}
			owner, name, err := domain.ParseRepoURL(url)
			if err != nil {
				s.logger.Warnf("Skipping unparseable repository URL: %v", err)
				return nil
			}
			candidates[i].Owner = owner
			candidates[i].Name = name
			count, err := s.fetcher.CommitsSince(egCtx, owner, name, since)
			if err != nil {
				if egCtx.Err() != nil {
					return egCtx.Err()
				}
				s.logger.Warnf("Commit count for %s/%s failed, scoring 0: %v", owner, name, err)
				return nil
			}
			candidates[i].Commits = count
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	active := make(domain.SampleSet, 0, len(candidates))
	for _, c := range candidates {
		if c.Commits > 0 {
			active = append(active, c)
		}
	}

	if cfg.PercentileCap > 0 && len(active) > 0 {
		active = s.applyPercentileCap(active, cfg.PercentileCap)
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Commits > active[j].Commits
	})
	if cfg.Size > 0 && len(active) > cfg.Size {
		active = active[:cfg.Size]
	}
	s.logger.Infof("Sampled %d active repositories out of %d candidates", len(active), len(urls))
	return active, nil
}

// applyPercentileCap drops repositories at or above the given percentile of
// the nonzero commit counts.
func (s *Sampler) applyPercentileCap(active domain.SampleSet, cap float64) domain.SampleSet {
	counts := make([]float64, len(active))
	for i, c := range active {
		counts[i] = float64(c.Commits)
	}
	threshold, err := stats.Percentile(counts, cap)
	if err != nil {
		s.logger.Warnf("Percentile cap skipped: %v", err)
		return active
	}
	capped := make(domain.SampleSet, 0, len(active))
	for _, c := range active {
		if float64(c.Commits) < threshold {
			capped = append(capped, c)
		}
	}
	return capped
}
