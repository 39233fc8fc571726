package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func newTestBlobRepo(t *testing.T) *BlobRepo {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		_ = db.Close()
	})

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return NewBlobRepo(db)
}

func TestBlobRepo_GetMissing(t *testing.T) {
	repo := newTestBlobRepo(t)

	blob, err := repo.Get(context.Background(), "data/notes/nobody_notes.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
	if blob != nil {
		t.Errorf("Get() blob = %+v, want nil", blob)
	}
}

func TestBlobRepo_CreateThenUpdate(t *testing.T) {
	repo := newTestBlobRepo(t)
	ctx := context.Background()
	key := NotesKey("alice")

	rev1, err := repo.Put(ctx, key, []byte(`{"v":1}`), "", "init")
	if err != nil {
		t.Fatalf("Put() create error = %v", err)
	}
	if rev1 == "" {
		t.Error("Put() returned an empty revision")
	}

	blob, err := repo.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(blob.Content) != `{"v":1}` || blob.Revision != rev1 {
		t.Errorf("Get() = %+v", blob)
	}

	rev2, err := repo.Put(ctx, key, []byte(`{"v":2}`), rev1, "update")
	if err != nil {
		t.Fatalf("Put() update error = %v", err)
	}
	if rev2 == rev1 {
		t.Error("Put() revision did not change with content")
	}
}

func TestBlobRepo_RestoredContentKeepsOldRevisionStale(t *testing.T) {
	repo := newTestBlobRepo(t)
	ctx := context.Background()
	key := NotesKey("alice")

	rev1, err := repo.Put(ctx, key, []byte(`A`), "", "init")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	rev2, err := repo.Put(ctx, key, []byte(`B`), rev1, "change")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	rev3, err := repo.Put(ctx, key, []byte(`A`), rev2, "restore")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if rev3 == rev1 {
		t.Fatalf("identical content reused revision %q", rev1)
	}

	if _, err := repo.Put(ctx, key, []byte(`C`), rev1, "stale"); !errors.Is(err, ErrRevisionConflict) {
		t.Errorf("Put() with stale revision error = %v, want ErrRevisionConflict", err)
	}
}

func TestBlobRepo_Conflicts(t *testing.T) {
	repo := newTestBlobRepo(t)
	ctx := context.Background()
	key := NotesKey("alice")

	rev1, err := repo.Put(ctx, key, []byte(`one`), "", "init")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	tests := []struct {
		name     string
		key      string
		revision string
	}{
		{
			name:     "create over existing",
			key:      key,
			revision: "",
		},
		{
			name:     "stale revision",
			key:      key,
			revision: "not-the-revision",
		},
		{
			name:     "update of missing key",
			key:      NotesKey("bob"),
			revision: rev1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.Put(ctx, tt.key, []byte(`two`), tt.revision, "write")
			if !errors.Is(err, ErrRevisionConflict) {
				t.Fatalf("Put() error = %v, want ErrRevisionConflict", err)
			}
			var conflict *ConflictError
			if !errors.As(err, &conflict) {
				t.Fatalf("Put() error type = %T", err)
			}
			if conflict.Key != tt.key || conflict.ExpectedRevision != tt.revision {
				t.Errorf("ConflictError = %+v", conflict)
			}
		})
	}

	// The stored content is untouched.
	blob, err := repo.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(blob.Content) != "one" {
		t.Errorf("content = %q, want one", blob.Content)
	}
}

func TestBlobRepo_SecondWriterWithSameRevisionFails(t *testing.T) {
	repo := newTestBlobRepo(t)
	ctx := context.Background()
	key := NotesKey("alice")

	base, err := repo.Put(ctx, key, []byte(`base`), "", "init")
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, err := repo.Put(ctx, key, []byte(`writer-a`), base, "a"); err != nil {
		t.Fatalf("first writer error = %v", err)
	}
	if _, err := repo.Put(ctx, key, []byte(`writer-b`), base, "b"); !errors.Is(err, ErrRevisionConflict) {
		t.Fatalf("second writer error = %v, want ErrRevisionConflict", err)
	}
}

func TestBlobRepo_List(t *testing.T) {
	repo := newTestBlobRepo(t)
	ctx := context.Background()

	for _, key := range []string{
		ProfileKey("zed"),
		ProfileKey("alice"),
		NotesKey("alice"),
		"data/profiles/nested/deep.json",
		"data/profiles_backup/x.json",
	} {
		if _, err := repo.Put(ctx, key, []byte(`{}`), "", "seed"); err != nil {
			t.Fatalf("Put(%s) error = %v", key, err)
		}
	}

	keys, err := repo.List(ctx, ProfilesDir())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := []string{"data/profiles/alice.json", "data/profiles/zed.json"}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("List() = %v, want %v", keys, want)
	}

	empty, err := repo.List(ctx, "data/nothing")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("List() missing dir = %#v, want empty slice", empty)
	}
}

func TestBlobRepo_Ping(t *testing.T) {
	repo := newTestBlobRepo(t)
	if err := repo.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
}

func TestKeys(t *testing.T) {
	if got := ProfileKey("alice"); got != "data/profiles/alice.json" {
		t.Errorf("ProfileKey() = %q", got)
	}
	if got := NotesKey("alice"); got != "data/notes/alice_notes.json" {
		t.Errorf("NotesKey() = %q", got)
	}
	if got := ProfileNameFromKey("data/profiles/alice.json"); got != "alice" {
		t.Errorf("ProfileNameFromKey() = %q", got)
	}
}
