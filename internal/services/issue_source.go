package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v68/github"
)

// IssueSource enumerates all issues (open and closed) of one upstream
// repository. The sync engine only depends on this interface; tests substitute
// a stub.
type IssueSource interface {
	ListRepoIssues(ctx context.Context, org, repo string) ([]*github.Issue, error)
}

// GitHubSource implements IssueSource against the GitHub REST API.
type GitHubSource struct {
	client *github.Client
}

// NewGitHubSource creates a source authenticated with the given token.
// An empty token yields an unauthenticated client (60 req/hour).
func NewGitHubSource(token string) *GitHubSource {
	var client *github.Client
	if token != "" {
		client = github.NewClient(nil).WithAuthToken(token)
	} else {
		client = github.NewClient(nil)
	}
	return &GitHubSource{client: client}
}

// NewGitHubSourceWithHTTPClient creates a source with a custom HTTP client and
// base URL, primarily for testing against httptest servers.
func NewGitHubSourceWithHTTPClient(httpClient *http.Client, baseURL string) *GitHubSource {
	client := github.NewClient(httpClient)
	if baseURL != "" {
		client, _ = client.WithEnterpriseURLs(baseURL, baseURL)
	}
	return &GitHubSource{client: client}
}

// ListRepoIssues pages through the full issue list of org/repo. Transient
// failures are retried with capped exponential backoff; rate-limit errors are
// not retried because the reset window is far longer than any sane backoff.
func (s *GitHubSource) ListRepoIssues(ctx context.Context, org, repo string) ([]*github.Issue, error) {
	opt := &github.IssueListByRepoOptions{
		State:       "all",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []*github.Issue
	for {
		var (
			issues []*github.Issue
			resp   *github.Response
		)

		fetch := func() error {
			var err error
			issues, resp, err = s.client.Issues.ListByRepo(ctx, org, repo, opt)
			if err != nil {
				var rateErr *github.RateLimitError
				var abuseErr *github.AbuseRateLimitError
				if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
					return backoff.Permanent(err)
				}
				return err
			}
			return nil
		}

		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = 500 * time.Millisecond
		bo.MaxElapsedTime = 15 * time.Second
		if err := backoff.Retry(fetch, backoff.WithContext(backoff.WithMaxRetries(bo, 3), ctx)); err != nil {
			return nil, fmt.Errorf("list issues for %s/%s: %w", org, repo, err)
		}

		all = append(all, issues...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}

	return all, nil
}
