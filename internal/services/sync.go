package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bountydesk/bountydesk/internal/config"
	"github.com/bountydesk/bountydesk/internal/models"
	"github.com/bountydesk/bountydesk/pkg/logger"
	"github.com/google/go-github/v68/github"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// mergeAction is the outcome of the per-issue merge decision, keyed by
// (recordExists, isImmutable, timestampUnchanged, upstreamClosed). The
// decision is enforced in storage via guarded single-row writes, so
// overlapping sync passes cannot race; this table is the readable form of
// those guards.
type mergeAction int

const (
	actionCreate mergeAction = iota // no local record yet
	actionSkip                      // immutable record or unchanged timestamp
	actionUpdate                    // overwrite content fields, preserve status
	actionClose                     // overwrite content fields, force status closed
)

func mergeDecision(recordExists, isImmutable, timestampUnchanged, upstreamClosed bool) mergeAction {
	switch {
	case !recordExists:
		return actionCreate
	case isImmutable:
		return actionSkip
	case timestampUnchanged:
		return actionSkip
	case upstreamClosed:
		return actionClose
	default:
		return actionUpdate
	}
}

// SyncService reconciles local issue records with the configured upstream
// repositories. Safe to run concurrently with itself and with review actions:
// every write is a single-row conditional update.
type SyncService struct {
	db           *gorm.DB
	source       IssueSource
	org          string
	repos        []string
	fetchTimeout time.Duration
}

func NewSyncService(db *gorm.DB, source IssueSource, cfg *config.GitHubConfig) *SyncService {
	return &SyncService{
		db:           db,
		source:       source,
		org:          cfg.Org,
		repos:        cfg.Repos,
		fetchTimeout: time.Duration(cfg.FetchTimeoutSec) * time.Second,
	}
}

// repoResult aggregates the outcome of syncing one repository.
type repoResult struct {
	repo       string
	failed     bool
	created    int
	updated    int
	skipped    int
	prsSkipped int
}

// SyncAll fetches every configured repository and merge-upserts the results.
// Repositories are fetched concurrently; one repository failing never aborts
// the others. The returned SyncRun records what happened.
func (s *SyncService) SyncAll(ctx context.Context, trigger string) (*models.SyncRun, error) {
	run := &models.SyncRun{
		RunID:      uuid.NewString(),
		Trigger:    trigger,
		Status:     models.SyncRunRunning,
		ReposTotal: len(s.repos),
		StartedAt:  time.Now(),
	}
	if err := s.db.Create(run).Error; err != nil {
		return nil, err
	}

	logger.Info().Str("run_id", run.RunID).Str("trigger", trigger).
		Int("repos", len(s.repos)).Msg("sync pass started")

	results := make(chan repoResult, len(s.repos))
	var wg sync.WaitGroup
	for _, repo := range s.repos {
		wg.Add(1)
		go func(repo string) {
			defer wg.Done()
			results <- s.syncRepo(ctx, repo)
		}(repo)
	}
	wg.Wait()
	close(results)

	var failedRepos []string
	for res := range results {
		run.IssuesCreated += res.created
		run.IssuesUpdated += res.updated
		run.IssuesSkipped += res.skipped
		run.PRsSkipped += res.prsSkipped
		if res.failed {
			run.ReposFailed++
			failedRepos = append(failedRepos, res.repo)
		}
	}

	now := time.Now()
	run.FinishedAt = &now
	run.Status = models.SyncRunCompleted
	if run.ReposFailed == len(s.repos) && len(s.repos) > 0 {
		run.Status = models.SyncRunFailed
	}
	if len(failedRepos) > 0 {
		run.Error = "failed repositories: " + strings.Join(failedRepos, ", ")
	}
	if err := s.db.Save(run).Error; err != nil {
		logger.Error().Err(err).Str("run_id", run.RunID).Msg("failed to persist sync run")
	}

	logger.Info().Str("run_id", run.RunID).
		Int("created", run.IssuesCreated).
		Int("updated", run.IssuesUpdated).
		Int("skipped", run.IssuesSkipped).
		Int("repos_failed", run.ReposFailed).
		Dur("elapsed", now.Sub(run.StartedAt)).
		Msg("sync pass finished")

	return run, nil
}

// syncRepo fetches one repository and merge-upserts its issues. Fetch failures
// mark the whole repo failed; a single issue failing to save is logged and
// skipped without aborting the rest.
func (s *SyncService) syncRepo(ctx context.Context, repo string) repoResult {
	res := repoResult{repo: repo}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	issues, err := s.source.ListRepoIssues(fetchCtx, s.org, repo)
	if err != nil {
		logger.Warn().Err(err).Str("repo", repo).Msg("upstream fetch failed, skipping repository")
		res.failed = true
		return res
	}

	for _, issue := range issues {
		if issue.IsPullRequest() {
			res.prsSkipped++
			continue
		}

		outcome, err := s.upsertIssue(issue, repo)
		if err != nil {
			logger.Error().Err(err).Str("repo", repo).
				Int("number", issue.GetNumber()).Msg("failed to save issue")
			continue
		}
		switch outcome {
		case actionCreate:
			res.created++
		case actionSkip:
			res.skipped++
		default:
			res.updated++
		}
	}

	return res
}

// upsertIssue applies the merge decision for one fetched issue as two guarded
// writes: an insert that yields on conflict, then an update that only fires
// when the record is mutable and strictly older than the fetched state. A
// reviewer's valid/invalid decision survives every sync; upstream closure
// always wins.
func (s *SyncService) upsertIssue(remote *github.Issue, repo string) (mergeAction, error) {
	now := time.Now()

	rec := models.Issue{
		GitHubIssueID:   remote.GetID(),
		GitHubNumber:    remote.GetNumber(),
		Repo:            repo,
		Org:             s.org,
		Title:           remote.GetTitle(),
		Body:            remote.GetBody(),
		URL:             remote.GetHTMLURL(),
		Reporter:        remote.GetUser().GetLogin(),
		GitHubCreatedAt: remote.GetCreatedAt().Time,
		GitHubUpdatedAt: remote.GetUpdatedAt().Time,
		ReceivedAt:      now,
		Status:          models.StatusUnreviewed,
		Immutable:       false,
	}
	upstreamClosed := remote.GetState() == "closed"
	if upstreamClosed {
		rec.Status = models.StatusClosed
	}
	rec.SetLabelNames(labelNames(remote.Labels))

	// Create path: yields to an existing record instead of failing, so two
	// overlapping passes cannot double-insert the same external id.
	create := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "github_issue_id"}},
		DoNothing: true,
	}).Create(&rec)
	if create.Error != nil {
		return actionSkip, create.Error
	}
	if create.RowsAffected == 1 {
		return actionCreate, nil
	}

	// Update path: the WHERE clause encodes the skip rules (immutable records
	// and unchanged timestamps never match), so a zero row count is a no-op,
	// not an error.
	updates := map[string]interface{}{
		"github_number":     rec.GitHubNumber,
		"repo":              rec.Repo,
		"org":               rec.Org,
		"title":             rec.Title,
		"body":              rec.Body,
		"url":               rec.URL,
		"reporter":          rec.Reporter,
		"labels":            rec.Labels,
		"github_created_at": rec.GitHubCreatedAt,
		"github_updated_at": rec.GitHubUpdatedAt,
		"received_at":       now,
	}
	if upstreamClosed {
		updates["status"] = models.StatusClosed
	}

	update := s.db.Model(&models.Issue{}).
		Where("github_issue_id = ? AND immutable = ? AND github_updated_at < ?",
			rec.GitHubIssueID, false, rec.GitHubUpdatedAt).
		Updates(updates)
	if update.Error != nil {
		return actionSkip, update.Error
	}
	if update.RowsAffected == 0 {
		return actionSkip, nil
	}
	if upstreamClosed {
		return actionClose, nil
	}
	return actionUpdate, nil
}

func labelNames(labels []*github.Label) []string {
	var names []string
	for _, l := range labels {
		if name := l.GetName(); name != "" {
			names = append(names, name)
		}
	}
	return names
}
