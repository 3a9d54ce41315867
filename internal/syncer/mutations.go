package syncer

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/casebook-dev/casebook/internal/models"
)

// Mutations write optimistically: the cache is updated first, the
// matching operation is enqueued, and when the remote looks reachable
// one replay pass runs before returning. Offline, the enqueue alone is
// the whole mutation.

var slugSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives the URL-safe project id from a project name.
func Slugify(name string) string {
	slug := slugSanitizer.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// CreateProject caches a new project and queues its creation.
func (m *Manager) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	if p.ID == "" {
		p.ID = Slugify(p.Name)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("project name %q produces an empty slug", p.Name)
	}
	if _, err := m.cache.GetProject(p.ID); err == nil {
		return nil, fmt.Errorf("project %s already exists", p.ID)
	}

	if p.CreatedAt == "" {
		p.CreatedAt = nowISO()
	}
	p.UpdatedAt = p.CreatedAt

	if err := m.cache.PutProject(p); err != nil {
		return nil, err
	}
	if _, err := m.Enqueue(models.KindProject, models.ActionCreate, p.ID, p.ID, p, nil); err != nil {
		return nil, err
	}
	m.kick(ctx)
	return p, nil
}

// UpdateProject caches the edited project and queues the update.
func (m *Manager) UpdateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	existing, err := m.cache.GetProject(p.ID)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = nowISO()
	p.RemoteSha = existing.RemoteSha

	if err := m.cache.PutProject(p); err != nil {
		return nil, err
	}
	if _, err := m.Enqueue(models.KindProject, models.ActionUpdate, p.ID, p.ID, p, nil); err != nil {
		return nil, err
	}
	m.kick(ctx)
	return p, nil
}

// DeleteProject removes the project and everything under it from the
// cache in one transaction and queues the remote delete.
func (m *Manager) DeleteProject(ctx context.Context, slug string) error {
	if err := m.cache.DeleteProjectCascade(slug); err != nil {
		return err
	}
	if _, err := m.Enqueue(models.KindProject, models.ActionDelete, slug, slug, nil, nil); err != nil {
		return err
	}
	m.kick(ctx)
	return nil
}

// EntryInput describes one journal entry write, with an optional asset
// attached in the same user action.
type EntryInput struct {
	ProjectID string
	Date      string
	Tags      []string
	Section   string
	Content   models.EntryContent

	// Attachment, when non-nil, is uploaded as part of this entry; the
	// entry's sync operation depends on the upload completing first.
	Attachment *AssetInput
}

// AssetInput describes one asset upload.
type AssetInput struct {
	Filename string
	Data     []byte
	MimeType string
	Role     string
	AltText  string
}

// AddEntry caches a journal entry (and its optional attachment) and
// queues the operations. The entry operation depends on the asset
// operation so the entry never syncs before the file it links to.
func (m *Manager) AddEntry(ctx context.Context, in EntryInput) (*models.JournalEntry, error) {
	if in.ProjectID == "" {
		return nil, fmt.Errorf("project is required")
	}
	if in.Date == "" {
		in.Date = time.Now().Format("2006-01-02")
	}
	if in.Content.IsEmpty() {
		return nil, fmt.Errorf("entry has no content")
	}

	var dependsOn []string
	var assetNames []string
	if in.Attachment != nil {
		asset, opID, err := m.queueAsset(in.ProjectID, *in.Attachment)
		if err != nil {
			return nil, err
		}
		dependsOn = append(dependsOn, opID)
		assetNames = append(assetNames, asset.Filename)
	}

	e := &models.JournalEntry{
		ProjectID: in.ProjectID,
		Date:      in.Date,
		Tags:      in.Tags,
		Section:   in.Section,
		Assets:    assetNames,
		Content:   in.Content,
	}

	action := models.ActionCreate
	if existing, err := m.cache.GetEntry(in.ProjectID, in.Date); err == nil {
		action = models.ActionUpdate
		e.RemoteSha = existing.RemoteSha
	}

	if err := m.cache.PutEntry(e); err != nil {
		return nil, err
	}
	if _, err := m.Enqueue(models.KindJournal, action, e.Date, in.ProjectID, e, dependsOn); err != nil {
		return nil, err
	}
	m.kick(ctx)
	return e, nil
}

// DeleteEntry removes a journal entry from the cache and queues the
// remote delete.
func (m *Manager) DeleteEntry(ctx context.Context, projectID, date string) error {
	if _, err := m.cache.GetEntry(projectID, date); err != nil {
		return err
	}
	if err := m.cache.DeleteEntry(projectID, date); err != nil {
		return err
	}
	if _, err := m.Enqueue(models.KindJournal, models.ActionDelete, date, projectID, nil, nil); err != nil {
		return err
	}
	m.kick(ctx)
	return nil
}

// UploadAsset stores an asset (metadata plus blob) in the cache and
// queues its upload.
func (m *Manager) UploadAsset(ctx context.Context, projectID string, in AssetInput) (*models.Asset, error) {
	asset, _, err := m.queueAsset(projectID, in)
	if err != nil {
		return nil, err
	}
	m.kick(ctx)
	return asset, nil
}

// DeleteAsset removes an asset from the cache and queues the remote
// delete.
func (m *Manager) DeleteAsset(ctx context.Context, projectID, filename string) error {
	if err := m.cache.DeleteAsset(filename); err != nil {
		return err
	}
	if _, err := m.Enqueue(models.KindAsset, models.ActionDelete, filename, projectID, nil, nil); err != nil {
		return err
	}
	m.kick(ctx)
	return nil
}

// queueAsset does the cache writes and enqueue for one upload without
// kicking a replay, so a caller can chain a dependent entry first.
func (m *Manager) queueAsset(projectID string, in AssetInput) (*models.Asset, string, error) {
	if len(in.Data) == 0 {
		return nil, "", fmt.Errorf("asset %s is empty", in.Filename)
	}
	if in.Role == "" {
		in.Role = models.RoleOther
	}

	filename := TimestampedFilename(in.Filename)
	asset := &models.Asset{
		Filename:   filename,
		ProjectID:  projectID,
		UploadedAt: nowISO(),
		Role:       in.Role,
		AltText:    in.AltText,
		FileSize:   int64(len(in.Data)),
	}

	if err := m.cache.PutAsset(asset); err != nil {
		return nil, "", err
	}
	if err := m.cache.PutBlob(&models.AssetBlob{
		Filename:  filename,
		ProjectID: projectID,
		MimeType:  in.MimeType,
		Data:      in.Data,
	}); err != nil {
		return nil, "", err
	}

	opID, err := m.Enqueue(models.KindAsset, models.ActionCreate, filename, projectID, asset, nil)
	if err != nil {
		return nil, "", err
	}
	return asset, opID, nil
}

var unsafeFilename = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// TimestampedFilename prefixes a sanitized filename with a millisecond
// timestamp, making asset names globally unique.
func TimestampedFilename(name string) string {
	base := unsafeFilename.ReplaceAllString(filepath.Base(name), "-")
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), base)
}
