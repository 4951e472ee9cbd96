package rehydrator

import (
	"os"
	"os/exec"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const (
	helperDirEnv    = "REHYDRATOR_HELPER_DIR"
	helperFormatEnv = "REHYDRATOR_HELPER_FORMAT"
)

// TestHelperWriteLastResult runs only inside a child process started by
// runHelper; it saves a value and exits.
func TestHelperWriteLastResult(t *testing.T) {
	dir := os.Getenv(helperDirEnv)
	if dir == "" {
		t.Skip("helper process only")
	}
	s, err := Open("tc1", Options{Dir: dir, Format: os.Getenv(helperFormatEnv)})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save("last_result", map[string]any{"id": 1, "status": "PASS"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get("cleaned_up", false); err != nil {
		t.Fatal(err)
	}
}

func runHelper(t *testing.T, dir, format string) {
	t.Helper()
	cmd := exec.Command(os.Args[0], "-test.run=^TestHelperWriteLastResult$", "-test.count=1")
	cmd.Env = append(os.Environ(), helperDirEnv+"="+dir, helperFormatEnv+"="+format)
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("helper process failed: %v\n%s", err, out)
	}
}

func TestPersistsAcrossProcesses(t *testing.T) {
	if os.Getenv(helperDirEnv) != "" {
		t.Skip("running as helper")
	}
	eachFormat(t, func(t *testing.T, format string) {
		dir := t.TempDir()
		runHelper(t, dir, format)

		s, err := Open("tc1", Options{Dir: dir, Format: format})
		if err != nil {
			t.Fatal(err)
		}
		if ok, err := s.KeyExists("last_result"); err != nil || !ok {
			t.Fatalf("KeyExists(last_result) = %v, %v", ok, err)
		}
		want := map[string]any{"id": float64(1), "status": "PASS"}
		if diff := cmp.Diff(want, mustLoad(t, s, "last_result")); diff != "" {
			t.Fatalf("mismatch (-want +got):\n%s", diff)
		}

		// The child seeded cleaned_up; this process must read it, not reseed.
		v, err := s.Get("cleaned_up", true)
		if err != nil {
			t.Fatal(err)
		}
		if v != false {
			t.Fatalf("cleaned_up = %v, want false from the child", v)
		}
	})
}
