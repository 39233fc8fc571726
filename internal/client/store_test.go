package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	apphttp "notesync/internal/http"
	"notesync/internal/notes"
	"notesync/internal/service"
	"notesync/internal/storage"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// newTestServer serves the real router over a temp SQLite database.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := storage.New(filepath.Join(t.TempDir(), "notesync.db"))
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("storage.Migrate() error = %v", err)
	}

	blobs := storage.NewBlobRepo(db)
	srv := httptest.NewServer(apphttp.NewRouter(&apphttp.Deps{
		NotesService:   service.NewNotesService(blobs),
		ProfileService: service.NewProfileService(blobs),
		Store:          blobs,
		Backend:        "sqlite",
	}))
	t.Cleanup(srv.Close)
	return srv
}

// clock returns increasing timestamps so every write is strictly newer.
type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore(t *testing.T, baseURL string) *Store {
	t.Helper()
	s := NewStore(NewAPI(baseURL), NewCache(t.TempDir()))
	c := &clock{t: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	s.now = c.now
	return s
}

func mustNoErr(t *testing.T, err error, op string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s error = %v", op, err)
	}
}

func TestStore_CreateProfileAndUnlock(t *testing.T) {
	srv := newTestServer(t)
	s := newTestStore(t, srv.URL)
	ctx := context.Background()

	if _, err := s.CreateProfile(ctx, "Alice", "", "12"); err == nil {
		t.Fatal("CreateProfile() accepted a PIN that is too short")
	}

	p, err := s.CreateProfile(ctx, "Alice", "", "1234")
	mustNoErr(t, err, "CreateProfile()")
	if p.Name != "alice" || p.DisplayName != "Alice" || p.PinHash != PinHash("1234") {
		t.Errorf("CreateProfile() = %+v", p)
	}

	if _, err := s.CreateProfile(ctx, "alice", "", "9999"); !errors.Is(err, ErrConflict) {
		t.Errorf("duplicate CreateProfile() error = %v, want ErrConflict", err)
	}

	cached, ok := s.Cache().Notes("alice")
	if !ok || len(cached.Notes) != 0 {
		t.Errorf("cached notes after create = %+v, %v; want empty hit", cached, ok)
	}

	if s.IsUnlocked("alice") {
		t.Error("IsUnlocked() true before Unlock()")
	}
	if err := s.Unlock(ctx, "alice", "0000", false); err == nil {
		t.Error("Unlock() accepted a wrong PIN")
	}
	mustNoErr(t, s.Unlock(ctx, "alice", "1234", true), "Unlock()")
	if !s.IsUnlocked("alice") {
		t.Error("IsUnlocked() false after Unlock()")
	}
	mustNoErr(t, s.Lock("alice"), "Lock()")
	if s.IsUnlocked("alice") {
		t.Error("IsUnlocked() true after Lock()")
	}

	profiles, err := s.ListProfiles(ctx)
	mustNoErr(t, err, "ListProfiles()")
	if len(profiles) != 1 || profiles[0].Name != "alice" {
		t.Errorf("ListProfiles() = %+v", profiles)
	}
}

func TestStore_GetProfileMissing(t *testing.T) {
	srv := newTestServer(t)
	s := newTestStore(t, srv.URL)

	if _, err := s.GetProfile(context.Background(), "ghost", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetProfile(ghost) error = %v, want ErrNotFound", err)
	}
	if _, err := s.GetProfile(context.Background(), "  ", true); !errors.Is(err, ErrInvalidName) {
		t.Errorf("GetProfile(blank) error = %v, want ErrInvalidName", err)
	}
}

func TestStore_NoteLifecycle(t *testing.T) {
	srv := newTestServer(t)
	s := newTestStore(t, srv.URL)
	ctx := context.Background()

	if _, _, err := s.CreateNote(ctx, "bob", "  ", ""); err == nil {
		t.Fatal("CreateNote() accepted a blank title")
	}

	first, _, err := s.CreateNote(ctx, "bob", "Groceries", "")
	mustNoErr(t, err, "CreateNote()")
	if first.Label != "A" || first.Color != notes.DefaultColor || first.ID == "" {
		t.Errorf("first note = %+v", first)
	}

	second, doc, err := s.CreateNote(ctx, "bob", "Work", "#ff0000")
	mustNoErr(t, err, "CreateNote()")
	if second.Label != "B" || len(doc.Notes) != 2 {
		t.Errorf("second note = %+v, doc has %d notes", second, len(doc.Notes))
	}

	doc, err = s.UpdateNote(ctx, "bob", first.ID, "", "milk, eggs", "")
	mustNoErr(t, err, "UpdateNote()")
	i := doc.Find(first.ID)
	if i < 0 {
		t.Fatal("updated note missing")
	}
	if doc.Notes[i].Title != notes.UntitledTitle || doc.Notes[i].Content != "milk, eggs" {
		t.Errorf("updated note = %+v", doc.Notes[i])
	}
	if doc.Notes[i].Color != notes.DefaultColor {
		t.Errorf("empty color changed the note color to %q", doc.Notes[i].Color)
	}

	if _, err := s.UpdateNote(ctx, "bob", "missing", "x", "y", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateNote(missing) error = %v, want ErrNotFound", err)
	}

	doc, err = s.DeleteNote(ctx, "bob", second.ID)
	mustNoErr(t, err, "DeleteNote()")
	if doc.Find(second.ID) != -1 {
		t.Error("DeleteNote() result still holds the note")
	}

	remote, err := s.LoadNotes(ctx, "bob", false)
	mustNoErr(t, err, "LoadNotes()")
	if len(remote.Notes) != 1 || remote.Notes[0].ID != first.ID {
		t.Errorf("remote notes = %+v", remote.Notes)
	}

	cached, ok := s.Cache().Notes("bob")
	if !ok || !reflect.DeepEqual(cached.Notes, remote.Notes) {
		t.Errorf("cached notes = %+v, want %+v", cached.Notes, remote.Notes)
	}

	if _, err := s.DeleteNote(ctx, "bob", second.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteNote() error = %v, want ErrNotFound", err)
	}
}

func TestStore_UpdateNoteColor(t *testing.T) {
	srv := newTestServer(t)
	s := newTestStore(t, srv.URL)
	ctx := context.Background()

	note, _, err := s.CreateNote(ctx, "hana", "Colors", "")
	mustNoErr(t, err, "CreateNote()")

	_, err = s.UpdateNote(ctx, "hana", note.ID, "Colors", "body", " #00aa55 ")
	mustNoErr(t, err, "UpdateNote()")

	// Read back from the server, not the cache.
	remote, err := s.LoadNotes(ctx, "hana", false)
	mustNoErr(t, err, "LoadNotes()")
	i := remote.Find(note.ID)
	if i < 0 {
		t.Fatal("note missing on the server")
	}
	if got := remote.Notes[i].Color; got != "#00aa55" {
		t.Errorf("color = %q, want #00aa55", got)
	}
	if got := remote.Notes[i].Content; got != "body" {
		t.Errorf("content = %q, want body", got)
	}
}

func TestStore_LoadPrefersCache(t *testing.T) {
	srv := newTestServer(t)
	s := newTestStore(t, srv.URL)
	ctx := context.Background()

	local := notes.Document{Profile: "carol", Notes: []notes.Note{{ID: "local", Label: "A"}}}
	mustNoErr(t, s.Cache().SetNotes("carol", local), "SetNotes()")

	doc, err := s.LoadNotes(ctx, "carol", true)
	mustNoErr(t, err, "LoadNotes(cache)")
	if doc.Find("local") != 0 {
		t.Errorf("LoadNotes(cache) = %+v, want the cached document", doc)
	}

	doc, err = s.LoadNotes(ctx, "carol", false)
	mustNoErr(t, err, "LoadNotes(remote)")
	if len(doc.Notes) != 0 {
		t.Errorf("LoadNotes(remote) notes = %d, want 0", len(doc.Notes))
	}

	cached, ok := s.Cache().Notes("carol")
	if !ok || len(cached.Notes) != 0 {
		t.Errorf("cache not replaced by the remote document: %+v", cached)
	}
}

func TestStore_SaveFailureKeepsOptimisticCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Failed to save notes","details":"revision conflict"}`))
	}))
	defer srv.Close()

	s := newTestStore(t, srv.URL)
	doc := notes.Document{Notes: []notes.Note{{ID: "n1", Label: "A", Title: "Draft"}}}

	_, err := s.SaveNotes(context.Background(), "dave", doc)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("SaveNotes() error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusInternalServerError || apiErr.Details != "revision conflict" {
		t.Errorf("APIError = %+v", apiErr)
	}

	cached, ok := s.Cache().Notes("dave")
	if !ok || cached.Find("n1") != 0 || cached.Profile != "dave" {
		t.Errorf("optimistic cache = %+v, %v", cached, ok)
	}
}

func TestStore_SearchAndStepNote(t *testing.T) {
	srv := newTestServer(t)
	s := newTestStore(t, srv.URL)
	ctx := context.Background()

	seed := notes.Document{Notes: []notes.Note{
		{ID: "n1", Label: "A", Title: "One", Content: "todo todo", UpdatedAt: "2024-01-01T00:00:00.000Z"},
		{ID: "n2", Label: "B", Title: "Two", Content: "nothing", UpdatedAt: "2024-01-01T00:00:00.000Z"},
		{ID: "n3", Label: "C", Title: "Three", Content: "a todo", UpdatedAt: "2024-01-01T00:00:00.000Z"},
	}}
	_, err := s.SaveNotes(ctx, "erin", seed)
	mustNoErr(t, err, "SaveNotes()")

	hits, err := s.Search(ctx, "erin", "todo", true)
	mustNoErr(t, err, "Search()")
	if len(hits) != 3 {
		t.Fatalf("Search() hits = %d, want 3", len(hits))
	}

	tests := []struct {
		name     string
		from     int
		dir      int
		wantNote string
		wantHit  int
	}{
		{"next from the first note", 0, 1, "n3", 2},
		{"next wraps to the first note", 2, 1, "n1", 0},
		{"prev lands on the last hit of the previous note", 0, -1, "n3", 2},
		{"prev from n3 lands on the last hit of n1", 2, -1, "n1", 1},
		{"stale index is clamped", 99, 1, "n1", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok, err := s.StepNote(ctx, "erin", "todo", tt.from, tt.dir)
			mustNoErr(t, err, "StepNote()")
			if !ok || p.NoteID != tt.wantNote || p.HitIndex != tt.wantHit {
				t.Errorf("StepNote() = %+v, %v; want %s@%d", p, ok, tt.wantNote, tt.wantHit)
			}
		})
	}

	if _, ok, err := s.StepNote(ctx, "erin", "absent", 0, 1); err != nil || ok {
		t.Errorf("StepNote(absent) = %v, %v; want no match", ok, err)
	}
}

func TestStore_ImportNotes(t *testing.T) {
	srv := newTestServer(t)
	s := newTestStore(t, srv.URL)
	ctx := context.Background()

	if _, err := s.ImportNotes(ctx, "frank", notes.Document{Profile: "someone-else"}); err == nil {
		t.Error("ImportNotes() accepted a document of another profile")
	}
	if _, err := s.ImportNotes(ctx, "frank", notes.Document{}); err == nil {
		t.Error("ImportNotes() accepted a document without profile")
	}

	doc, err := s.ImportNotes(ctx, "frank", notes.Document{
		Profile:   "Frank",
		UpdatedAt: "2000-01-01T00:00:00.000Z",
		Notes: []notes.Note{
			{ID: "n1", Label: "A", Title: "Imported", UpdatedAt: "2024-01-01T00:00:00.000Z"},
			{Label: "B", Title: "No id"},
		},
	})
	mustNoErr(t, err, "ImportNotes()")
	if doc.Profile != "frank" || doc.UpdatedAt == "2000-01-01T00:00:00.000Z" {
		t.Errorf("imported document not re-stamped: %+v", doc)
	}
	if len(doc.Notes) != 1 || doc.Notes[0].ID != "n1" {
		t.Errorf("imported notes = %+v", doc.Notes)
	}
}

func TestStore_EnsureDemoAndExportAll(t *testing.T) {
	srv := newTestServer(t)
	s := newTestStore(t, srv.URL)
	ctx := context.Background()

	mustNoErr(t, s.EnsureDemo(ctx), "EnsureDemo()")
	mustNoErr(t, s.EnsureDemo(ctx), "second EnsureDemo()")

	p, err := s.GetProfile(ctx, DemoProfile, false)
	mustNoErr(t, err, "GetProfile()")
	if !VerifyPin(p.PinHash, DemoPIN) {
		t.Error("demo profile does not accept the demo PIN")
	}

	doc, err := s.LoadNotes(ctx, DemoProfile, false)
	mustNoErr(t, err, "LoadNotes()")
	if len(doc.Notes) != 1 || doc.Notes[0].Title != "Welcome" {
		t.Errorf("demo notes = %+v", doc.Notes)
	}

	_, err = s.CreateProfile(ctx, "gina", "Gina", "4321")
	mustNoErr(t, err, "CreateProfile()")

	bundle, err := s.ExportAll(ctx)
	mustNoErr(t, err, "ExportAll()")
	if bundle.ExportedAt == "" || len(bundle.Profiles) != 2 || len(bundle.Notes) != 2 {
		t.Errorf("ExportAll() = %+v", bundle)
	}
}
