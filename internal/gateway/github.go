// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/aer205/gh-issue-stats/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
// It is the capability interface the usecases depend on, so the classification
// and sampling logic can be tested with fixture data instead of a live API.
type Fetcher interface {
	// ListClosedIssues returns the closed issues of a repository updated
	// since the given time, in the order GitHub returns them.
	ListClosedIssues(ctx context.Context, owner, name string, since time.Time) ([]domain.IssueMeta, error)
	// FetchTimeline returns the ordered event stream of one issue.
	FetchTimeline(ctx context.Context, owner, name string, number int, isPull bool) ([]domain.TimelineEvent, error)
	// CommitsSince counts commits pushed to the repository since the given
	// time. Missing, private or empty repositories count as zero, not as
	// an error.
	CommitsSince(ctx context.Context, owner, name string, since time.Time) (int, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *logrus.Logger
}

// mergeDetailQuery fetches the data needed to decide whether a pull request
// was squash-merged: the merge commit's parent count and the number of
// commits the PR carried.
type mergeDetailQuery struct {
	Repository struct {
		PullRequest struct {
			Merged  githubv4.Boolean
			Commits struct {
				TotalCount githubv4.Int
			} `graphql:"commits(first: 1)"`
			MergeCommit struct {
				Oid     githubv4.GitObjectID
				Parents struct {
					TotalCount githubv4.Int
				} `graphql:"parents(first: 1)"`
			}
		} `graphql:"pullRequest(number: $number)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger *logrus.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// ListClosedIssues pages through the repository's closed issues. GitHub's
// "since" filter matches the update time, which is a superset of what the
// window filter accepts; the extractor narrows it down afterwards.
func (g *GitHubGateway) ListClosedIssues(ctx context.Context, owner, name string, since time.Time) ([]domain.IssueMeta, error) {
	g.logger.Debugf("Listing closed issues of %s/%s since %s", owner, name, since.Format(time.RFC3339))
	opts := &github.IssueListByRepoOptions{
		State:       "closed",
		Since:       since,
		ListOptions: github.ListOptions{PerPage: 100},
	}
	var metas []domain.IssueMeta
	for {
		issues, resp, err := g.restClient.Issues.ListByRepo(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list issues of %s/%s: %w", owner, name, err)
		}
		for _, issue := range issues {
			meta := domain.IssueMeta{
				Number:      issue.GetNumber(),
				CreatedAt:   issue.GetCreatedAt().Time,
				StateReason: issue.GetStateReason(),
				IsPull:      issue.IsPullRequest(),
			}
			if issue.ClosedAt != nil {
				closed := issue.ClosedAt.Time
				meta.ClosedAt = &closed
			}
			metas = append(metas, meta)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Debug("  Fetching next page of issues...")
	}
	g.logger.Debugf("Listed %d closed issues for %s/%s", len(metas), owner, name)
	return metas, nil
}

// FetchTimeline pages through the issue's timeline and converts each entry
// into a domain event. Commit-backed entries carry no numeric id and often
// no timestamp; the id falls back to the commit SHA and the timestamp is
// resolved through a commit lookup.
func (g *GitHubGateway) FetchTimeline(ctx context.Context, owner, name string, number int, isPull bool) ([]domain.TimelineEvent, error) {
	opts := &github.ListOptions{PerPage: 100}
	var events []domain.TimelineEvent
	for {
		timeline, resp, err := g.restClient.Issues.ListIssueTimeline(ctx, owner, name, number, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch timeline of %s/%s#%d: %w", owner, name, number, err)
		}
		for _, entry := range timeline {
			events = append(events, g.convertTimelineEntry(ctx, owner, name, entry))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		g.logger.Debugf("  Fetching next page of timeline for #%d...", number)
	}
	if isPull {
		g.annotateMergeEvents(ctx, owner, name, number, events)
	}
	return events, nil
}

func (g *GitHubGateway) convertTimelineEntry(ctx context.Context, owner, name string, entry *github.Timeline) domain.TimelineEvent {
	ev := domain.TimelineEvent{
		Type:      entry.GetEvent(),
		CreatedAt: entry.GetCreatedAt().Time,
		CommitSHA: entry.GetCommitID(),
		Actor:     entry.GetActor().GetLogin(),
	}
	if label := entry.GetLabel(); label != nil {
		ev.Label = label.GetName()
	}
	if ev.CommitSHA == "" && ev.Type == "committed" {
		// Commit entries expose the SHA only through their API URL.
		ev.CommitSHA = lastPathSegment(entry.GetURL())
	}
	if id := entry.GetID(); id != 0 {
		ev.ID = strconv.FormatInt(id, 10)
	} else {
		ev.ID = ev.CommitSHA
	}
	if ev.CreatedAt.IsZero() && ev.CommitSHA != "" {
		if date, err := g.commitDate(ctx, owner, name, ev.CommitSHA); err != nil {
			g.logger.Warnf("Could not resolve date of commit %s in %s/%s: %v", ev.CommitSHA, owner, name, err)
		} else {
			ev.CreatedAt = date
		}
	}
	return ev
}

// annotateMergeEvents marks the "merged" events of a pull request with the
// squash attribute. One GraphQL lookup per PR; a failed lookup degrades to
// squash=false with a warning instead of failing the timeline.
func (g *GitHubGateway) annotateMergeEvents(ctx context.Context, owner, name string, number int, events []domain.TimelineEvent) {
	merged := false
	for i := range events {
		if events[i].Type == "merged" {
			merged = true
			break
		}
	}
	if !merged {
		return
	}
	squash, err := g.wasSquashMerged(ctx, owner, name, number)
	if err != nil {
		g.logger.Warnf("Could not resolve merge method of %s/%s#%d: %v", owner, name, number, err)
		return
	}
	for i := range events {
		if events[i].Type == "merged" {
			events[i].Squash = squash
		}
	}
}

// wasSquashMerged reports whether the pull request was merged via squash:
// the merge commit has a single parent while the PR carried more than one
// commit. A single-commit PR merged by rebase is indistinguishable from a
// squash and is not flagged.
func (g *GitHubGateway) wasSquashMerged(ctx context.Context, owner, name string, number int) (bool, error) {
	var q mergeDetailQuery
	variables := map[string]interface{}{
		"owner":  githubv4.String(owner),
		"name":   githubv4.String(name),
		"number": githubv4.Int(number),
	}
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return false, fmt.Errorf("failed to execute GraphQL query for merge detail: %w", err)
	}
	pr := q.Repository.PullRequest
	if !bool(pr.Merged) {
		return false, nil
	}
	return int(pr.MergeCommit.Parents.TotalCount) == 1 && int(pr.Commits.TotalCount) > 1, nil
}

// CommitsSince counts commits without fetching them all: it requests a
// single commit per page and reads the index of the last page from the
// pagination links, so the count costs one API call.
func (g *GitHubGateway) CommitsSince(ctx context.Context, owner, name string, since time.Time) (int, error) {
	opts := &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: 1},
	}
	commits, resp, err := g.restClient.Repositories.ListCommits(ctx, owner, name, opts)
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusConflict) {
			// Deleted/private repository or empty commit history.
			g.logger.Debugf("No commit data for %s/%s (HTTP %d)", owner, name, resp.StatusCode)
			return 0, nil
		}
		return 0, fmt.Errorf("failed to list commits of %s/%s: %w", owner, name, err)
	}
	if resp.LastPage > 0 {
		return resp.LastPage, nil
	}
	return len(commits), nil
}

func (g *GitHubGateway) commitDate(ctx context.Context, owner, name, sha string) (time.Time, error) {
	commit, _, err := g.restClient.Repositories.GetCommit(ctx, owner, name, sha, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get commit %s: %w", sha, err)
	}
	return commit.GetCommit().GetAuthor().GetDate().Time, nil
}

func lastPathSegment(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(strings.TrimRight(url, "/"), "/")
	return parts[len(parts)-1]
}
