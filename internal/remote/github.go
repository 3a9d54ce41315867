package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/casebook-dev/casebook/internal/models"
)

const (
	// DefaultGitHubRateLimit is requests per minute against the
	// contents API.
	DefaultGitHubRateLimit = 30
)

// GitHubStore persists the journal as files in a GitHub repository via
// the contents API. Version tokens are GitHub blob SHAs.
//
// Repository layout:
//
//	projects/<slug>/meta.json
//	projects/<slug>/journal/<date>.md
//	projects/<slug>/assets/<filename>
//	projects/<slug>/assets/.metadata/<filename>.json
type GitHubStore struct {
	rest    *github.Client
	limiter *rate.Limiter
	owner   string
	repo    string
}

// NewGitHubStore creates a store backed by the given repository.
func NewGitHubStore(token, owner, repo string, rateLimit int) *GitHubStore {
	var httpClient *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	if rateLimit <= 0 {
		rateLimit = DefaultGitHubRateLimit
	}
	limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(rateLimit)), rateLimit)

	return &GitHubStore{
		rest:    github.NewClient(httpClient),
		limiter: limiter,
		owner:   owner,
		repo:    repo,
	}
}

func projectMetaPath(slug string) string {
	return fmt.Sprintf("projects/%s/meta.json", slug)
}

func entryPath(slug, date string) string {
	return fmt.Sprintf("projects/%s/journal/%s.md", slug, date)
}

func assetPath(slug, filename string) string {
	return fmt.Sprintf("projects/%s/assets/%s", slug, filename)
}

func assetMetaPath(slug, filename string) string {
	return fmt.Sprintf("projects/%s/assets/.metadata/%s.json", slug, filename)
}

// mapGitHubErr translates contents API failures into the store's
// sentinel errors.
func mapGitHubErr(err error, resp *github.Response) error {
	if err == nil {
		return nil
	}
	if resp != nil {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return ErrNotFound
		case http.StatusConflict:
			return ErrStaleVersion
		case http.StatusUnprocessableEntity:
			if strings.Contains(err.Error(), "sha") {
				return ErrStaleVersion
			}
		}
	}
	return err
}

// Ping verifies the repository is reachable with the configured token.
func (s *GitHubStore) Ping(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, resp, err := s.rest.Repositories.Get(ctx, s.owner, s.repo)
	return mapGitHubErr(err, resp)
}

// getFile fetches a single file's decoded content and blob sha.
func (s *GitHubStore) getFile(ctx context.Context, filePath string) (string, string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", "", fmt.Errorf("rate limit wait: %w", err)
	}

	fileContent, _, resp, err := s.rest.Repositories.GetContents(ctx, s.owner, s.repo, filePath, nil)
	if err != nil {
		return "", "", mapGitHubErr(err, resp)
	}
	if fileContent == nil {
		return "", "", ErrNotFound
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return "", "", fmt.Errorf("decode content: %w", err)
	}
	return content, fileContent.GetSHA(), nil
}

// putFile creates or updates a file and returns the new blob sha.
// An empty baseSha means create; GitHub rejects the write when the
// supplied sha no longer matches.
func (s *GitHubStore) putFile(ctx context.Context, filePath, message string, content []byte, baseSha string) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
	}
	if baseSha != "" {
		opts.SHA = github.String(baseSha)
	}

	var (
		result *github.RepositoryContentResponse
		resp   *github.Response
		err    error
	)
	if baseSha == "" {
		result, resp, err = s.rest.Repositories.CreateFile(ctx, s.owner, s.repo, filePath, opts)
	} else {
		result, resp, err = s.rest.Repositories.UpdateFile(ctx, s.owner, s.repo, filePath, opts)
	}
	if err != nil {
		return "", mapGitHubErr(err, resp)
	}
	return result.Content.GetSHA(), nil
}

func (s *GitHubStore) deleteFile(ctx context.Context, filePath, message, sha string) error {
	if sha == "" {
		_, current, err := s.getFile(ctx, filePath)
		if err != nil {
			return err
		}
		sha = current
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		SHA:     github.String(sha),
	}
	_, resp, err := s.rest.Repositories.DeleteFile(ctx, s.owner, s.repo, filePath, opts)
	return mapGitHubErr(err, resp)
}

// listDir returns the directory listing at path, or nil when the
// directory does not exist.
func (s *GitHubStore) listDir(ctx context.Context, dirPath string) ([]*github.RepositoryContent, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	_, entries, resp, err := s.rest.Repositories.GetContents(ctx, s.owner, s.repo, dirPath, nil)
	if err != nil {
		if mapped := mapGitHubErr(err, resp); mapped == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return entries, nil
}

func (s *GitHubStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	dirs, err := s.listDir(ctx, "projects")
	if err != nil {
		return nil, err
	}

	var projects []models.Project
	for _, d := range dirs {
		if d.GetType() != "dir" {
			continue
		}
		p, err := s.GetProject(ctx, d.GetName())
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, nil
}

func (s *GitHubStore) GetProject(ctx context.Context, slug string) (*models.Project, error) {
	content, sha, err := s.getFile(ctx, projectMetaPath(slug))
	if err != nil {
		return nil, err
	}

	var p models.Project
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return nil, fmt.Errorf("parse project %s: %w", slug, err)
	}
	p.ID = slug
	p.RemoteSha = sha
	return &p, nil
}

func (s *GitHubStore) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	return s.writeProject(ctx, p, "")
}

func (s *GitHubStore) UpdateProject(ctx context.Context, p *models.Project, baseSha string) (*models.Project, error) {
	if baseSha == "" {
		return nil, ErrStaleVersion
	}
	return s.writeProject(ctx, p, baseSha)
}

func (s *GitHubStore) writeProject(ctx context.Context, p *models.Project, baseSha string) (*models.Project, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}

	verb := "Update"
	if baseSha == "" {
		verb = "Add"
	}
	sha, err := s.putFile(ctx, projectMetaPath(p.ID), fmt.Sprintf("%s project %s", verb, p.ID), data, baseSha)
	if err != nil {
		return nil, err
	}

	out := *p
	out.RemoteSha = sha
	return &out, nil
}

// DeleteProject removes every file under the project's directory. The
// contents API has no recursive delete, so each file goes separately.
func (s *GitHubStore) DeleteProject(ctx context.Context, slug string) error {
	return s.deleteTree(ctx, path.Join("projects", slug), fmt.Sprintf("Delete project %s", slug))
}

func (s *GitHubStore) deleteTree(ctx context.Context, dirPath, message string) error {
	entries, err := s.listDir(ctx, dirPath)
	if err != nil {
		return err
	}
	for _, e := range entries {
		switch e.GetType() {
		case "dir":
			if err := s.deleteTree(ctx, e.GetPath(), message); err != nil {
				return err
			}
		case "file":
			if err := s.deleteFile(ctx, e.GetPath(), message, e.GetSHA()); err != nil && !IsNotFound(err) {
				return err
			}
		}
	}
	return nil
}

func (s *GitHubStore) ListEntries(ctx context.Context, project string) ([]models.JournalEntry, error) {
	files, err := s.listDir(ctx, path.Join("projects", project, "journal"))
	if err != nil {
		return nil, err
	}

	var entries []models.JournalEntry
	for _, f := range files {
		name := f.GetName()
		if f.GetType() != "file" || !strings.HasSuffix(name, ".md") {
			continue
		}
		e, err := s.GetEntry(ctx, project, strings.TrimSuffix(name, ".md"))
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, nil
}

func (s *GitHubStore) GetEntry(ctx context.Context, project, date string) (*models.JournalEntry, error) {
	content, sha, err := s.getFile(ctx, entryPath(project, date))
	if err != nil {
		return nil, err
	}

	e, err := DecodeEntry(project, date, []byte(content))
	if err != nil {
		return nil, err
	}
	e.RemoteSha = sha
	return e, nil
}

func (s *GitHubStore) PutEntry(ctx context.Context, project string, e *models.JournalEntry, baseSha string) (*models.JournalEntry, error) {
	data, err := EncodeEntry(e)
	if err != nil {
		return nil, err
	}

	verb := "Update"
	if baseSha == "" {
		verb = "Add"
	}
	sha, err := s.putFile(ctx, entryPath(project, e.Date), fmt.Sprintf("%s journal entry %s (%s)", verb, e.Date, project), data, baseSha)
	if err != nil {
		return nil, err
	}

	out := *e
	out.ProjectID = project
	out.RemoteSha = sha
	return &out, nil
}

func (s *GitHubStore) DeleteEntry(ctx context.Context, project, date, baseSha string) error {
	return s.deleteFile(ctx, entryPath(project, date), fmt.Sprintf("Delete journal entry %s (%s)", date, project), baseSha)
}

func (s *GitHubStore) ListAssets(ctx context.Context, project string) ([]models.Asset, error) {
	files, err := s.listDir(ctx, path.Join("projects", project, "assets", ".metadata"))
	if err != nil {
		return nil, err
	}

	var assets []models.Asset
	for _, f := range files {
		name := f.GetName()
		if f.GetType() != "file" || !strings.HasSuffix(name, ".json") {
			continue
		}
		a, err := s.GetAsset(ctx, project, strings.TrimSuffix(name, ".json"))
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return nil, err
		}
		assets = append(assets, *a)
	}
	return assets, nil
}

func (s *GitHubStore) GetAsset(ctx context.Context, project, filename string) (*models.Asset, error) {
	content, sha, err := s.getFile(ctx, assetMetaPath(project, filename))
	if err != nil {
		return nil, err
	}

	var a models.Asset
	if err := json.Unmarshal([]byte(content), &a); err != nil {
		return nil, fmt.Errorf("parse asset %s: %w", filename, err)
	}
	a.Filename = filename
	a.ProjectID = project
	a.RemoteSha = sha
	return &a, nil
}

// UploadAsset writes the binary and its metadata sidecar. The returned
// version token is the metadata file's sha; the binary itself is
// immutable once uploaded.
func (s *GitHubStore) UploadAsset(ctx context.Context, project string, meta *models.Asset, data []byte) (*models.Asset, error) {
	if _, err := s.putFile(ctx, assetPath(project, meta.Filename), fmt.Sprintf("Add asset %s (%s)", meta.Filename, project), data, ""); err != nil {
		return nil, err
	}

	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal asset metadata: %w", err)
	}
	sha, err := s.putFile(ctx, assetMetaPath(project, meta.Filename), fmt.Sprintf("Add asset metadata %s (%s)", meta.Filename, project), metaJSON, "")
	if err != nil {
		return nil, err
	}

	out := *meta
	out.ProjectID = project
	out.RemoteSha = sha
	return &out, nil
}

func (s *GitHubStore) DeleteAsset(ctx context.Context, project, filename string) error {
	if err := s.deleteFile(ctx, assetPath(project, filename), fmt.Sprintf("Delete asset %s (%s)", filename, project), ""); err != nil && !IsNotFound(err) {
		return err
	}
	err := s.deleteFile(ctx, assetMetaPath(project, filename), fmt.Sprintf("Delete asset metadata %s (%s)", filename, project), "")
	if IsNotFound(err) {
		return nil
	}
	return err
}
