package core

import (
	"os"
	"testing"
	"time"
)

func TestSessionStore_CreateGetDelete(t *testing.T) {
	st := NewSessionStore(t.TempDir())

	sess, err := st.Create()
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sess.ID == "" {
		t.Fatal("session has no id")
	}
	if _, err := os.Stat(sess.Dir()); err != nil {
		t.Fatalf("scratch dir missing: %v", err)
	}

	got, ok := st.Get(sess.ID)
	if !ok || got != sess {
		t.Fatal("Get() did not return the created session")
	}
	if _, ok := st.Get("unknown"); ok {
		t.Error("Get(unknown) should report absence")
	}

	if err := st.Delete(sess.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if st.Len() != 0 {
		t.Errorf("Len() = %d after Delete", st.Len())
	}
	if _, err := os.Stat(sess.Dir()); !os.IsNotExist(err) {
		t.Errorf("scratch dir still present: %v", err)
	}
	if err := st.Delete(sess.ID); err != nil {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestSessionStore_GetOrCreate(t *testing.T) {
	st := NewSessionStore(t.TempDir())

	first, created, err := st.GetOrCreate("")
	if err != nil || !created {
		t.Fatalf("GetOrCreate(\"\") = %v, %v", created, err)
	}
	again, created, err := st.GetOrCreate(first.ID)
	if err != nil || created || again != first {
		t.Errorf("GetOrCreate(existing) = %v, %v, %v", again.ID, created, err)
	}
	other, created, _ := st.GetOrCreate("stale-cookie")
	if !created || other.ID == "stale-cookie" {
		t.Error("unknown id should start a new session with a fresh id")
	}
	if st.Len() != 2 {
		t.Errorf("Len() = %d, want 2", st.Len())
	}
}

func TestSessionStore_EvictIdle(t *testing.T) {
	st := NewSessionStore(t.TempDir())
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	idle, _ := st.Create()
	active, _ := st.Create()

	now = now.Add(45 * time.Minute)
	st.Get(active.ID)
	now = now.Add(20 * time.Minute)

	if got := st.EvictIdle(time.Hour); got != 1 {
		t.Fatalf("EvictIdle() = %d, want 1", got)
	}
	if _, ok := st.Get(idle.ID); ok {
		t.Error("idle session survived eviction")
	}
	if _, ok := st.Get(active.ID); !ok {
		t.Error("active session was evicted")
	}
}

func TestScratchName(t *testing.T) {
	tests := []struct {
		user, file, want string
	}{
		{"alice", "sales.csv", "alice_sales.csv"},
		{"", "sales.csv", "anonymous_sales.csv"},
		{"bob smith", "q1 report.csv", "bob_smith_q1_report-3b5ace0b.csv"},
		{"../root", "../../etc/passwd", "root_passwd-3754d6cb"},
		{"eve", `C:\Users\eve\data.csv`, "eve_data-d47cc053.csv"},
		{"x", "..", "x_upload-5ec1f7e7.csv"},
		{"x", ".hidden", "x_hidden-16924190"},
		{"", "a b.csv", "anonymous_a_b-0c591648.csv"},
		{"", "a_b.csv", "anonymous_a_b.csv"},
	}

	for _, tt := range tests {
		if got := scratchName(tt.user, tt.file); got != tt.want {
			t.Errorf("scratchName(%q, %q) = %q, want %q", tt.user, tt.file, got, tt.want)
		}
	}
}

func TestScratchName_Distinct(t *testing.T) {
	names := []string{"a b.csv", "a_b.csv", "a?b.csv", "dir/a_b.csv", "a_b.csv ", ".a_b.csv", "..", "/"}
	seen := make(map[string]string)
	for _, n := range names {
		got := scratchName("alice", n)
		if prev, dup := seen[got]; dup {
			t.Errorf("scratchName(%q) = scratchName(%q) = %q", n, prev, got)
		}
		seen[got] = n
	}
}
