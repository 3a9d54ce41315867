package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/casebook-dev/casebook/internal/hash"
	"github.com/casebook-dev/casebook/internal/models"
)

// LocalStore persists the journal in a git repository on the local
// filesystem, for development and fully-offline use. The directory
// layout mirrors GitHubStore, and version tokens are git blob SHAs
// computed the same way, so a journal can move between the two
// backends without invalidating cached tokens.
type LocalStore struct {
	dir    string
	author string
	mu     sync.Mutex
}

// NewLocalStore opens or initializes the repository at dir.
func NewLocalStore(dir, author string) (*LocalStore, error) {
	if author == "" {
		author = "casebook"
	}
	s := &LocalStore{dir: dir, author: author}
	if err := s.ensureRepo(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LocalStore) ensureRepo() error {
	if _, err := git.PlainOpen(s.dir); err == nil {
		return nil
	} else if !errors.Is(err, git.ErrRepositoryNotExists) {
		return fmt.Errorf("open repo: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create repo dir: %w", err)
	}
	repo, err := git.PlainInit(s.dir, false)
	if err != nil {
		return fmt.Errorf("init repo: %w", err)
	}

	marker := filepath.Join(s.dir, ".casebook")
	if err := os.WriteFile(marker, []byte("casebook journal\n"), 0o644); err != nil {
		return fmt.Errorf("write marker: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if _, err := worktree.Add(".casebook"); err != nil {
		return fmt.Errorf("git add marker: %w", err)
	}
	if _, err := worktree.Commit("Initialize journal", &git.CommitOptions{Author: s.signature()}); err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}
	return nil
}

func (s *LocalStore) signature() *object.Signature {
	return &object.Signature{
		Name:  s.author,
		Email: fmt.Sprintf("%s@casebook.local", sanitizeAuthor(s.author)),
		When:  time.Now(),
	}
}

func sanitizeAuthor(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			out = append(out, r)
		case r == ' ' || r == '-' || r == '_':
			out = append(out, '.')
		}
	}
	if len(out) == 0 {
		return "user"
	}
	return string(out)
}

// Ping always succeeds once the repository directory exists.
func (s *LocalStore) Ping(ctx context.Context) error {
	_, err := os.Stat(s.dir)
	return err
}

// readFile returns a file's content and its blob sha.
func (s *LocalStore) readFile(relPath string) ([]byte, string, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, relPath))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", ErrNotFound
		}
		return nil, "", err
	}
	return data, hash.BlobSHA(data), nil
}

// writeFile enforces the compare-and-swap contract: an empty baseSha
// requires the file to be absent, a non-empty one must match the
// current blob sha. Returns the new token.
func (s *LocalStore) writeFile(relPath, message string, content []byte, baseSha string, checkBase bool) (string, error) {
	abs := filepath.Join(s.dir, relPath)

	if checkBase {
		_, current, err := s.readFile(relPath)
		switch {
		case err == nil:
			if baseSha == "" || baseSha != current {
				return "", ErrStaleVersion
			}
		case IsNotFound(err):
			if baseSha != "" {
				return "", ErrStaleVersion
			}
		default:
			return "", err
		}
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(abs, content, 0o644); err != nil {
		return "", err
	}
	if err := s.commitAll(message); err != nil {
		return "", err
	}
	return hash.BlobSHA(content), nil
}

func (s *LocalStore) removePath(relPath, message string) error {
	abs := filepath.Join(s.dir, relPath)
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return err
	}
	if err := os.RemoveAll(abs); err != nil {
		return err
	}
	return s.commitAll(message)
}

func (s *LocalStore) commitAll(message string) error {
	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		return fmt.Errorf("open repo: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("git add: %w", err)
	}
	_, err = worktree.Commit(message, &git.CommitOptions{Author: s.signature()})
	if err != nil && !errors.Is(err, git.ErrEmptyCommit) {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *LocalStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirs, err := os.ReadDir(filepath.Join(s.dir, "projects"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var projects []models.Project
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		p, err := s.getProject(d.Name())
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

func (s *LocalStore) GetProject(ctx context.Context, slug string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getProject(slug)
}

func (s *LocalStore) getProject(slug string) (*models.Project, error) {
	data, sha, err := s.readFile(projectMetaPath(slug))
	if err != nil {
		return nil, err
	}
	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse project %s: %w", slug, err)
	}
	p.ID = slug
	p.RemoteSha = sha
	return &p, nil
}

func (s *LocalStore) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	return s.writeProject(p, "", fmt.Sprintf("Add project %s", p.ID))
}

func (s *LocalStore) UpdateProject(ctx context.Context, p *models.Project, baseSha string) (*models.Project, error) {
	if baseSha == "" {
		return nil, ErrStaleVersion
	}
	return s.writeProject(p, baseSha, fmt.Sprintf("Update project %s", p.ID))
}

func (s *LocalStore) writeProject(p *models.Project, baseSha, message string) (*models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal project: %w", err)
	}
	sha, err := s.writeFile(projectMetaPath(p.ID), message, data, baseSha, true)
	if err != nil {
		return nil, err
	}

	out := *p
	out.RemoteSha = sha
	return &out, nil
}

func (s *LocalStore) DeleteProject(ctx context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.removePath(filepath.Join("projects", slug), fmt.Sprintf("Delete project %s", slug))
	if IsNotFound(err) {
		return nil
	}
	return err
}

func (s *LocalStore) ListEntries(ctx context.Context, project string) ([]models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := os.ReadDir(filepath.Join(s.dir, "projects", project, "journal"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var entries []models.JournalEntry
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".md") {
			continue
		}
		e, err := s.getEntry(project, strings.TrimSuffix(f.Name(), ".md"))
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

func (s *LocalStore) GetEntry(ctx context.Context, project, date string) (*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getEntry(project, date)
}

func (s *LocalStore) getEntry(project, date string) (*models.JournalEntry, error) {
	data, sha, err := s.readFile(entryPath(project, date))
	if err != nil {
		return nil, err
	}
	e, err := DecodeEntry(project, date, data)
	if err != nil {
		return nil, err
	}
	e.RemoteSha = sha
	return e, nil
}

func (s *LocalStore) PutEntry(ctx context.Context, project string, e *models.JournalEntry, baseSha string) (*models.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := EncodeEntry(e)
	if err != nil {
		return nil, err
	}
	verb := "Update"
	if baseSha == "" {
		verb = "Add"
	}
	sha, err := s.writeFile(entryPath(project, e.Date), fmt.Sprintf("%s journal entry %s (%s)", verb, e.Date, project), data, baseSha, true)
	if err != nil {
		return nil, err
	}

	out := *e
	out.ProjectID = project
	out.RemoteSha = sha
	return &out, nil
}

func (s *LocalStore) DeleteEntry(ctx context.Context, project, date, baseSha string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if baseSha != "" {
		_, current, err := s.readFile(entryPath(project, date))
		if err != nil {
			return err
		}
		if current != baseSha {
			return ErrStaleVersion
		}
	}
	return s.removePath(entryPath(project, date), fmt.Sprintf("Delete journal entry %s (%s)", date, project))
}

func (s *LocalStore) ListAssets(ctx context.Context, project string) ([]models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := os.ReadDir(filepath.Join(s.dir, "projects", project, "assets", ".metadata"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var assets []models.Asset
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".json") {
			continue
		}
		a, err := s.getAsset(project, strings.TrimSuffix(f.Name(), ".json"))
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

func (s *LocalStore) GetAsset(ctx context.Context, project, filename string) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getAsset(project, filename)
}

func (s *LocalStore) getAsset(project, filename string) (*models.Asset, error) {
	data, sha, err := s.readFile(assetMetaPath(project, filename))
	if err != nil {
		return nil, err
	}
	var a models.Asset
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse asset %s: %w", filename, err)
	}
	a.Filename = filename
	a.ProjectID = project
	a.RemoteSha = sha
	return &a, nil
}

func (s *LocalStore) UploadAsset(ctx context.Context, project string, meta *models.Asset, data []byte) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.writeFile(assetPath(project, meta.Filename), fmt.Sprintf("Add asset %s (%s)", meta.Filename, project), data, "", false); err != nil {
		return nil, err
	}

	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal asset metadata: %w", err)
	}
	sha, err := s.writeFile(assetMetaPath(project, meta.Filename), fmt.Sprintf("Add asset metadata %s (%s)", meta.Filename, project), metaJSON, "", false)
	if err != nil {
		return nil, err
	}

	out := *meta
	out.ProjectID = project
	out.RemoteSha = sha
	return &out, nil
}

func (s *LocalStore) DeleteAsset(ctx context.Context, project, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.removePath(assetPath(project, filename), fmt.Sprintf("Delete asset %s (%s)", filename, project)); err != nil && !IsNotFound(err) {
		return err
	}
	err := s.removePath(assetMetaPath(project, filename), fmt.Sprintf("Delete asset metadata %s (%s)", filename, project))
	if IsNotFound(err) {
		return nil
	}
	return err
}
