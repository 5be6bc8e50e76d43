package notices

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestResetFromFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
		absent  bool
		want    []Notice
		wantErr bool // expect exactly one synthesized ERROR notice
	}{
		{
			name:    "valid file",
			content: `[{"level": "WARNING", "message": "clock skew detected"}]`,
			want: []Notice{
				{Level: LevelWarning, Message: "clock skew detected"},
			},
		},
		{
			name:    "empty array",
			content: `[]`,
			want:    []Notice{},
		},
		{
			name:   "absent file",
			absent: true,
			want:   []Notice{},
		},
		{
			name:    "invalid JSON",
			content: `{nope`,
			wantErr: true,
		},
		{
			name:    "wrong shape",
			content: `{"level": "ERROR"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "notices.json")
			if !tt.absent {
				if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			store := NewStore(path)
			// Pre-seed so we can verify Reset replaces rather than merges.
			store.Post(Notice{Level: LevelNotice, Message: "stale"})
			store.Reset()

			got := store.All()
			if tt.wantErr {
				if len(got) != 1 || got[0].Level != LevelError {
					t.Fatalf("Reset() on corrupt file = %+v, want single ERROR notice", got)
				}
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Reset() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestResetWithoutLocalFile(t *testing.T) {
	store := NewStore("")
	store.Post(Notice{Level: LevelNotice, Message: "stale"})
	store.Reset()

	if got := store.All(); len(got) != 0 {
		t.Errorf("Reset() with no local path = %+v, want empty", got)
	}
}

func TestPrependOrdering(t *testing.T) {
	store := NewStore("")
	store.Post(Notice{Level: LevelNotice, Message: "first posted"})
	store.Post(Notice{Level: LevelNotice, Message: "second posted"})
	store.Prepend(Notice{Level: LevelWarning, Message: "urgent"})

	got := store.All()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Message != "urgent" {
		t.Errorf("first notice = %q, want prepended notice", got[0].Message)
	}
	if got[1].Message != "first posted" || got[2].Message != "second posted" {
		t.Errorf("posted notices out of order: %+v", got)
	}
}

func TestExtendPreservesOrder(t *testing.T) {
	store := NewStore("")
	store.Post(Notice{Level: LevelNotice, Message: "existing"})
	store.Extend([]Notice{
		{Level: LevelNotice, Message: "a"},
		{Level: LevelWarning, Message: "b"},
		{Level: LevelError, Message: "c"},
	})

	got := store.All()
	wantOrder := []string{"existing", "a", "b", "c"}
	for i, msg := range wantOrder {
		if got[i].Message != msg {
			t.Errorf("notices[%d] = %q, want %q", i, got[i].Message, msg)
		}
	}
}

func TestAllReturnsCopy(t *testing.T) {
	store := NewStore("")
	store.Post(Notice{Level: LevelNotice, Message: "original"})

	got := store.All()
	got[0].Message = "mutated"

	if store.All()[0].Message != "original" {
		t.Error("All() does not isolate callers from the store's slice")
	}
}
