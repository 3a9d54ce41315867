package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/casebook-dev/casebook/internal/models"
)

// APIStore talks to a hosted casebook server. Entity representations
// returned by the server carry a "sha" version token; updates send the
// caller's base token and fail with 409 when it is stale.
type APIStore struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewAPIStore creates a store for the server rooted at baseURL.
func NewAPIStore(baseURL, token string) *APIStore {
	return &APIStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Wire shapes. Each document embeds the entity fields plus the
// server-assigned version token.
type projectDoc struct {
	models.Project
	Sha string `json:"sha"`
}

type entryDoc struct {
	models.JournalEntry
	ProjectSlug string `json:"projectSlug"`
	Sha         string `json:"sha"`
}

type assetDoc struct {
	models.Asset
	ProjectSlug string `json:"projectSlug"`
	Sha         string `json:"sha"`
}

// do issues a request with auth and base-sha headers and decodes a
// JSON response into out (when non-nil).
func (s *APIStore) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType, baseSha string, out interface{}) error {
	u := s.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	if baseSha != "" {
		req.Header.Set("If-Match", baseSha)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusPreconditionFailed:
		return ErrStaleVersion
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (s *APIStore) doJSON(ctx context.Context, method, path string, query url.Values, payload, out interface{}) error {
	return s.doJSONWithSha(ctx, method, path, query, payload, "", out)
}

func (s *APIStore) doJSONWithSha(ctx context.Context, method, path string, query url.Values, payload interface{}, baseSha string, out interface{}) error {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}
	return s.do(ctx, method, path, query, body, contentType, baseSha, out)
}

func (s *APIStore) Ping(ctx context.Context) error {
	return s.do(ctx, http.MethodGet, "/health", nil, nil, "", "", nil)
}

func (s *APIStore) ListProjects(ctx context.Context) ([]models.Project, error) {
	var docs []projectDoc
	if err := s.doJSON(ctx, http.MethodGet, "/projects", nil, nil, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Project, 0, len(docs))
	for _, d := range docs {
		p := d.Project
		p.RemoteSha = d.Sha
		out = append(out, p)
	}
	return out, nil
}

func (s *APIStore) GetProject(ctx context.Context, slug string) (*models.Project, error) {
	var doc projectDoc
	if err := s.doJSON(ctx, http.MethodGet, "/projects/"+url.PathEscape(slug), nil, nil, &doc); err != nil {
		return nil, err
	}
	p := doc.Project
	p.ID = slug
	p.RemoteSha = doc.Sha
	return &p, nil
}

func (s *APIStore) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	var doc projectDoc
	if err := s.doJSON(ctx, http.MethodPost, "/projects", nil, p, &doc); err != nil {
		return nil, err
	}
	out := doc.Project
	out.RemoteSha = doc.Sha
	return &out, nil
}

func (s *APIStore) UpdateProject(ctx context.Context, p *models.Project, baseSha string) (*models.Project, error) {
	var doc projectDoc
	if err := s.doJSONWithSha(ctx, http.MethodPatch, "/projects/"+url.PathEscape(p.ID), nil, p, baseSha, &doc); err != nil {
		return nil, err
	}
	out := doc.Project
	out.RemoteSha = doc.Sha
	return &out, nil
}

func (s *APIStore) DeleteProject(ctx context.Context, slug string) error {
	return s.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(slug), nil, nil, "", "", nil)
}

func (s *APIStore) ListEntries(ctx context.Context, project string) ([]models.JournalEntry, error) {
	q := url.Values{"project": {project}}
	var docs []entryDoc
	if err := s.doJSON(ctx, http.MethodGet, "/journal", q, nil, &docs); err != nil {
		return nil, err
	}
	out := make([]models.JournalEntry, 0, len(docs))
	for _, d := range docs {
		e := d.JournalEntry
		e.ProjectID = project
		e.RemoteSha = d.Sha
		out = append(out, e)
	}
	return out, nil
}

func (s *APIStore) GetEntry(ctx context.Context, project, date string) (*models.JournalEntry, error) {
	q := url.Values{"project": {project}}
	var doc entryDoc
	if err := s.doJSON(ctx, http.MethodGet, "/journal/"+url.PathEscape(date), q, nil, &doc); err != nil {
		return nil, err
	}
	e := doc.JournalEntry
	e.ProjectID = project
	e.Date = date
	e.RemoteSha = doc.Sha
	return &e, nil
}

func (s *APIStore) PutEntry(ctx context.Context, project string, e *models.JournalEntry, baseSha string) (*models.JournalEntry, error) {
	payload := entryDoc{JournalEntry: *e, ProjectSlug: project, Sha: baseSha}
	var doc entryDoc
	if err := s.doJSONWithSha(ctx, http.MethodPost, "/journal", nil, &payload, baseSha, &doc); err != nil {
		return nil, err
	}
	out := doc.JournalEntry
	out.ProjectID = project
	out.RemoteSha = doc.Sha
	return &out, nil
}

func (s *APIStore) DeleteEntry(ctx context.Context, project, date, baseSha string) error {
	q := url.Values{"project": {project}}
	return s.do(ctx, http.MethodDelete, "/journal/"+url.PathEscape(date), q, nil, "", baseSha, nil)
}

func (s *APIStore) ListAssets(ctx context.Context, project string) ([]models.Asset, error) {
	q := url.Values{"project": {project}}
	var docs []assetDoc
	if err := s.doJSON(ctx, http.MethodGet, "/assets", q, nil, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Asset, 0, len(docs))
	for _, d := range docs {
		a := d.Asset
		a.ProjectID = project
		a.RemoteSha = d.Sha
		out = append(out, a)
	}
	return out, nil
}

func (s *APIStore) GetAsset(ctx context.Context, project, filename string) (*models.Asset, error) {
	q := url.Values{"project": {project}, "filename": {filename}}
	var doc assetDoc
	if err := s.doJSON(ctx, http.MethodGet, "/assets/meta", q, nil, &doc); err != nil {
		return nil, err
	}
	a := doc.Asset
	a.Filename = filename
	a.ProjectID = project
	a.RemoteSha = doc.Sha
	return &a, nil
}

// UploadAsset posts the binary and metadata as one multipart request.
func (s *APIStore) UploadAsset(ctx context.Context, project string, meta *models.Asset, data []byte) (*models.Asset, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", meta.Filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(data); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"project":       project,
		"role":          meta.Role,
		"altText":       meta.AltText,
		"suggestedName": meta.SuggestedName,
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	var doc assetDoc
	if err := s.do(ctx, http.MethodPost, "/assets", nil, &buf, w.FormDataContentType(), "", &doc); err != nil {
		return nil, err
	}
	out := doc.Asset
	if out.Filename == "" {
		out.Filename = meta.Filename
	}
	out.ProjectID = project
	out.RemoteSha = doc.Sha
	return &out, nil
}

func (s *APIStore) DeleteAsset(ctx context.Context, project, filename string) error {
	q := url.Values{"project": {project}, "filename": {filename}}
	return s.do(ctx, http.MethodDelete, "/assets", q, nil, "", "", nil)
}
