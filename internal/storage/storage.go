// Package storage persists extraction results as one JSON file per issue
// under <dir>/<owner>/<repo>/<number>.json.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/aer205/gh-issue-stats/internal/domain"
)

// Store handles persistent storage of issue records.
type Store struct {
	dataDir string
	logger  *logrus.Logger
}

// NewStore creates a new storage instance rooted at dataDir.
func NewStore(dataDir string, logger *logrus.Logger) *Store {
	return &Store{dataDir: dataDir, logger: logger}
}

func (s *Store) repoDir(owner, name string) string {
	return filepath.Join(s.dataDir, owner, name)
}

func (s *Store) issueFilePath(owner, name string, number int) string {
	return filepath.Join(s.repoDir(owner, name), fmt.Sprintf("%d.json", number))
}

// Save writes every issue record of every repository to its own file.
// Repository directories are created even when they hold no issues, so an
// empty extraction is distinguishable from a missing one.
func (s *Store) Save(stats domain.RepositoryStats) error {
	for _, repo := range stats {
		dir := s.repoDir(repo.Owner, repo.Name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
		for _, issue := range repo.Issues {
			data, err := json.MarshalIndent(issue, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal issue %s/%s#%d: %w", repo.Owner, repo.Name, issue.Number, err)
			}
			path := s.issueFilePath(repo.Owner, repo.Name, issue.Number)
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("failed to write issue file %s: %w", path, err)
			}
		}
		s.logger.Debugf("Saved %d issues under %s", len(repo.Issues), dir)
	}
	return nil
}

// Load reads the whole tree back. Issues come out ordered by number and
// repositories by owner then name, so a save/load round trip is
// deterministic. Files that are not <number>.json are skipped with a
// warning.
func (s *Store) Load() (domain.RepositoryStats, error) {
	owners, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read data directory %s: %w", s.dataDir, err)
	}

	var stats domain.RepositoryStats
	for _, ownerEntry := range owners {
		if !ownerEntry.IsDir() {
			continue
		}
		owner := ownerEntry.Name()
		repos, err := os.ReadDir(filepath.Join(s.dataDir, owner))
		if err != nil {
			return nil, fmt.Errorf("failed to read owner directory %s: %w", owner, err)
		}
		for _, repoEntry := range repos {
			if !repoEntry.IsDir() {
				continue
			}
			name := repoEntry.Name()
			issues, err := s.loadRepo(owner, name)
			if err != nil {
				return nil, err
			}
			stats = append(stats, domain.RepoStats{
				Owner:  owner,
				Name:   name,
				URL:    fmt.Sprintf("https://github.com/%s/%s", owner, name),
				Issues: issues,
			})
		}
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Owner != stats[j].Owner {
			return stats[i].Owner < stats[j].Owner
		}
		return stats[i].Name < stats[j].Name
	})
	return stats, nil
}

func (s *Store) loadRepo(owner, name string) ([]domain.IssueRecord, error) {
	dir := s.repoDir(owner, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read repository directory %s: %w", dir, err)
	}
	issues := make([]domain.IssueRecord, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			s.logger.Warnf("Skipping unexpected entry %s in %s", entry.Name(), dir)
			continue
		}
		if _, err := strconv.Atoi(strings.TrimSuffix(entry.Name(), ".json")); err != nil {
			s.logger.Warnf("Skipping non-issue file %s in %s", entry.Name(), dir)
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read issue file %s: %w", path, err)
		}
		var issue domain.IssueRecord
		if err := json.Unmarshal(data, &issue); err != nil {
			return nil, fmt.Errorf("failed to unmarshal issue file %s: %w", path, err)
		}
		issues = append(issues, issue)
	}
	sort.Slice(issues, func(i, j int) bool { return issues[i].Number < issues[j].Number })
	return issues, nil
}
