package syncer

import (
	"context"
	"fmt"
	"sync"

	"github.com/casebook-dev/casebook/internal/models"
	"github.com/casebook-dev/casebook/internal/remote"
)

// fakeRemote is an in-memory remote.Store that enforces the same
// compare-and-swap contract as the real backends and records the order
// of mutating calls.
type fakeRemote struct {
	mu sync.Mutex

	projects map[string]*models.Project
	entries  map[string]*models.JournalEntry // key project/date
	assets   map[string]*models.Asset        // key project/filename
	blobs    map[string][]byte

	// failWith, when set, makes every call fail (simulated outage).
	failWith error
	// gate, when set, blocks every mutating call until released once.
	gate chan struct{}

	calls   []string
	shaSeq  int
	pingErr error
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		projects: make(map[string]*models.Project),
		entries:  make(map[string]*models.JournalEntry),
		assets:   make(map[string]*models.Asset),
		blobs:    make(map[string][]byte),
	}
}

func (f *fakeRemote) nextSha() string {
	f.shaSeq++
	return fmt.Sprintf("sha-%d", f.shaSeq)
}

func (f *fakeRemote) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.calls = append(f.calls, call)
	return nil
}

func (f *fakeRemote) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeRemote) setFailure(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWith = err
}

func (f *fakeRemote) waitGate() {
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (f *fakeRemote) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	return f.pingErr
}

func (f *fakeRemote) ListProjects(ctx context.Context) ([]models.Project, error) {
	if err := f.record("list-projects"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Project
	for _, p := range f.projects {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeRemote) GetProject(ctx context.Context, slug string) (*models.Project, error) {
	if err := f.record("get-project:" + slug); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[slug]
	if !ok {
		return nil, remote.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakeRemote) CreateProject(ctx context.Context, p *models.Project) (*models.Project, error) {
	f.waitGate()
	if err := f.record("create-project:" + p.ID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.projects[p.ID]; exists {
		return nil, remote.ErrStaleVersion
	}
	out := *p
	out.RemoteSha = f.nextSha()
	f.projects[p.ID] = &out
	res := out
	return &res, nil
}

func (f *fakeRemote) UpdateProject(ctx context.Context, p *models.Project, baseSha string) (*models.Project, error) {
	f.waitGate()
	if err := f.record("update-project:" + p.ID); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	current, ok := f.projects[p.ID]
	if !ok {
		return nil, remote.ErrNotFound
	}
	if baseSha != current.RemoteSha {
		return nil, remote.ErrStaleVersion
	}
	out := *p
	out.RemoteSha = f.nextSha()
	f.projects[p.ID] = &out
	res := out
	return &res, nil
}

func (f *fakeRemote) DeleteProject(ctx context.Context, slug string) error {
	if err := f.record("delete-project:" + slug); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[slug]; !ok {
		return remote.ErrNotFound
	}
	delete(f.projects, slug)
	return nil
}

func entryKey(project, date string) string { return project + "/" + date }

func (f *fakeRemote) ListEntries(ctx context.Context, project string) ([]models.JournalEntry, error) {
	if err := f.record("list-entries:" + project); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.JournalEntry
	for _, e := range f.entries {
		if e.ProjectID == project {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeRemote) GetEntry(ctx context.Context, project, date string) (*models.JournalEntry, error) {
	if err := f.record("get-entry:" + entryKey(project, date)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[entryKey(project, date)]
	if !ok {
		return nil, remote.ErrNotFound
	}
	out := *e
	return &out, nil
}

func (f *fakeRemote) PutEntry(ctx context.Context, project string, e *models.JournalEntry, baseSha string) (*models.JournalEntry, error) {
	f.waitGate()
	if err := f.record("put-entry:" + entryKey(project, e.Date)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := entryKey(project, e.Date)
	if current, exists := f.entries[key]; exists {
		if baseSha != current.RemoteSha {
			return nil, remote.ErrStaleVersion
		}
	} else if baseSha != "" {
		return nil, remote.ErrNotFound
	}
	out := *e
	out.ProjectID = project
	out.RemoteSha = f.nextSha()
	f.entries[key] = &out
	res := out
	return &res, nil
}

func (f *fakeRemote) DeleteEntry(ctx context.Context, project, date, baseSha string) error {
	if err := f.record("delete-entry:" + entryKey(project, date)); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := entryKey(project, date)
	if _, ok := f.entries[key]; !ok {
		return remote.ErrNotFound
	}
	delete(f.entries, key)
	return nil
}

func (f *fakeRemote) ListAssets(ctx context.Context, project string) ([]models.Asset, error) {
	if err := f.record("list-assets:" + project); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Asset
	for _, a := range f.assets {
		if a.ProjectID == project {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeRemote) GetAsset(ctx context.Context, project, filename string) (*models.Asset, error) {
	if err := f.record("get-asset:" + entryKey(project, filename)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[entryKey(project, filename)]
	if !ok {
		return nil, remote.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (f *fakeRemote) UploadAsset(ctx context.Context, project string, meta *models.Asset, data []byte) (*models.Asset, error) {
	f.waitGate()
	if err := f.record("upload-asset:" + entryKey(project, meta.Filename)); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := *meta
	out.ProjectID = project
	out.RemoteSha = f.nextSha()
	f.assets[entryKey(project, meta.Filename)] = &out
	f.blobs[entryKey(project, meta.Filename)] = data
	res := out
	return &res, nil
}

func (f *fakeRemote) DeleteAsset(ctx context.Context, project, filename string) error {
	if err := f.record("delete-asset:" + entryKey(project, filename)); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	key := entryKey(project, filename)
	if _, ok := f.assets[key]; !ok {
		return remote.ErrNotFound
	}
	delete(f.assets, key)
	return nil
}
