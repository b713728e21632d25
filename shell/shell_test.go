package shell

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nfsh/pkg/rfs/memfs"
	"nfsh/pkg/slog"
)

type testUI struct {
	out bytes.Buffer
	err bytes.Buffer
}

func (u *testUI) Writer() io.Writer { return &u.out }

func (u *testUI) Printf(format string, args ...interface{}) {
	fmt.Fprintf(&u.out, format+"\n", args...)
}

func (u *testUI) PrintErrorf(format string, args ...interface{}) {
	fmt.Fprintf(&u.err, format+"\n", args...)
}

func newTestShell(t *testing.T, rsize, wsize uint32) (*Shell, *memfs.Engine) {
	t.Helper()

	eng := memfs.New("testhost", "/export", rsize, wsize)
	if err := eng.Init(); err != nil {
		t.Fatalf("init engine: %v", err)
	}

	logger := slog.NewLogger("test ")
	logger.WithOff()
	return New(eng, logger), eng
}

func run(t *testing.T, s *Shell, ui *testUI, line string) {
	t.Helper()
	if err := s.Dispatch(line, ui); err != nil {
		t.Fatalf("dispatch %q: %v", line, err)
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	// Block size 8 exercises zero, single-block, exact-multiple and
	// trailing-partial transfers.
	sizes := []int{0, 1, 8, 16, 23}

	for _, size := range sizes {
		t.Run(fmt.Sprintf("size_%d", size), func(t *testing.T) {
			s, eng := newTestShell(t, 8, 8)
			ui := &testUI{}
			dir := t.TempDir()

			content := make([]byte, size)
			for i := range content {
				content[i] = byte(i % 251)
			}

			local := filepath.Join(dir, "src.bin")
			if err := os.WriteFile(local, content, 0o644); err != nil {
				t.Fatalf("write local: %v", err)
			}

			run(t, s, ui, fmt.Sprintf("put %s /remote.bin", local))

			got, err := eng.Content("/remote.bin")
			if err != nil {
				t.Fatalf("remote content: %v", err)
			}
			if !bytes.Equal(got, content) {
				t.Fatalf("uploaded %d bytes, want %d matching bytes", len(got), len(content))
			}

			back := filepath.Join(dir, "back.bin")
			run(t, s, ui, fmt.Sprintf("get /remote.bin %s", back))

			round, rErr := os.ReadFile(back)
			if rErr != nil {
				t.Fatalf("read downloaded file: %v", rErr)
			}
			if !bytes.Equal(round, content) {
				t.Fatalf("downloaded %d bytes, want %d matching bytes", len(round), len(content))
			}
			if ui.err.Len() != 0 {
				t.Errorf("unexpected diagnostics: %s", ui.err.String())
			}
		})
	}
}

func TestPutOverwriteTruncates(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}
	dir := t.TempDir()

	if err := eng.AddFile("/target", 0o644, bytes.Repeat([]byte("x"), 100)); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	local := filepath.Join(dir, "short")
	if err := os.WriteFile(local, []byte("tiny"), 0o644); err != nil {
		t.Fatalf("write local: %v", err)
	}

	run(t, s, ui, fmt.Sprintf("put %s /target", local))

	got, err := eng.Content("/target")
	if err != nil {
		t.Fatalf("remote content: %v", err)
	}
	if string(got) != "tiny" {
		t.Errorf("content = %q, want %q", got, "tiny")
	}
}

func TestPutIntoDirectory(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}
	dir := t.TempDir()

	if err := eng.AddDir("/incoming", 0o755); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	local := filepath.Join(dir, "report.txt")
	if err := os.WriteFile(local, []byte("data"), 0o644); err != nil {
		t.Fatalf("write local: %v", err)
	}

	run(t, s, ui, fmt.Sprintf("put %s /incoming", local))

	got, err := eng.Content("/incoming/report.txt")
	if err != nil {
		t.Fatalf("remote content: %v", err)
	}
	if string(got) != "data" {
		t.Errorf("content = %q, want %q", got, "data")
	}
}

func TestPutHonorsUmask(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}
	dir := t.TempDir()

	local := filepath.Join(dir, "f")
	if err := os.WriteFile(local, []byte("x"), 0o644); err != nil {
		t.Fatalf("write local: %v", err)
	}

	run(t, s, ui, "umask 077")
	run(t, s, ui, fmt.Sprintf("put %s /f", local))

	attr, err := eng.GetAttr("/f")
	if err != nil {
		t.Fatalf("getattr: %v", err)
	}
	if attr.Mode != 0o600 {
		t.Errorf("mode = %04o, want 0600", attr.Mode)
	}
}

func TestGetIntoLocalDirectory(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}
	dir := t.TempDir()

	if err := eng.AddFile("/notes.txt", 0o644, []byte("hello")); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	run(t, s, ui, fmt.Sprintf("get /notes.txt %s", dir))

	got, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if string(got) != "hello" {
		t.Errorf("content = %q, want %q", got, "hello")
	}
}

func TestCatStreamsExactBytes(t *testing.T) {
	s, eng := newTestShell(t, 4, 4)
	ui := &testUI{}

	payload := []byte("alpha beta gamma")
	if err := eng.AddFile("/words", 0o644, payload); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	run(t, s, ui, "cat /words")

	if !bytes.Equal(ui.out.Bytes(), payload) {
		t.Errorf("cat output = %q, want %q", ui.out.Bytes(), payload)
	}
}

func TestCatDirectoryFails(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}

	if err := eng.AddDir("/d", 0o755); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	run(t, s, ui, "cat /d")

	if !strings.Contains(ui.err.String(), "is a directory") {
		t.Errorf("diagnostic = %q, want directory complaint", ui.err.String())
	}
}

func TestCdAndPwd(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}

	if err := eng.AddDir("/a", 0o755); err != nil {
		t.Fatalf("seed remote: %v", err)
	}
	if err := eng.AddDir("/a/b", 0o755); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	run(t, s, ui, "cd a")
	run(t, s, ui, "cd b")
	run(t, s, ui, "cd ../b/.")
	run(t, s, ui, "pwd")

	if got := strings.TrimSpace(ui.out.String()); got != "/a/b" {
		t.Errorf("pwd = %q, want /a/b", got)
	}

	// cd with no argument returns to the root
	run(t, s, ui, "cd")
	if s.Cwd() != "/" {
		t.Errorf("cwd = %q, want /", s.Cwd())
	}
}

func TestCdRejectsFiles(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}

	if err := eng.AddFile("/f", 0o644, nil); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	run(t, s, ui, "cd /f")

	if !strings.Contains(ui.err.String(), "not a directory") {
		t.Errorf("diagnostic = %q, want not-a-directory", ui.err.String())
	}
	if s.Cwd() != "/" {
		t.Errorf("cwd changed to %q on failed cd", s.Cwd())
	}
}

func TestMvIntoDirectory(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}

	if err := eng.AddFile("/f", 0o644, []byte("payload")); err != nil {
		t.Fatalf("seed remote: %v", err)
	}
	if err := eng.AddDir("/dst", 0o755); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	run(t, s, ui, "mv /f /dst")

	got, err := eng.Content("/dst/f")
	if err != nil {
		t.Fatalf("moved file: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("content = %q, want %q", got, "payload")
	}
	if _, sErr := eng.GetAttr("/f"); sErr == nil {
		t.Error("source still exists after mv")
	}
}

func TestMvPlainRename(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}

	if err := eng.AddFile("/old", 0o644, []byte("v")); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	run(t, s, ui, "mv /old /new")

	if _, err := eng.GetAttr("/new"); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
}

func TestLsTargetIsolation(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}

	if err := eng.AddFile("/real", 0o644, []byte("x")); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	run(t, s, ui, "ls /missing /real")

	if !strings.Contains(ui.err.String(), "/missing") {
		t.Errorf("diagnostics = %q, want mention of /missing", ui.err.String())
	}
	if !strings.Contains(ui.out.String(), "real") {
		t.Errorf("listing = %q, want /real listed despite earlier failure", ui.out.String())
	}
}

func TestLsRecursiveTerminates(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}

	for _, dir := range []string{"/a", "/a/b", "/a/b/c"} {
		if err := eng.AddDir(dir, 0o755); err != nil {
			t.Fatalf("seed %s: %v", dir, err)
		}
	}
	if err := eng.AddFile("/a/b/c/leaf", 0o644, []byte("x")); err != nil {
		t.Fatalf("seed leaf: %v", err)
	}

	run(t, s, ui, "ls -r /a")

	out := ui.out.String()
	for _, want := range []string{"/a:", "/a/b:", "/a/b/c:", "leaf"} {
		if !strings.Contains(out, want) {
			t.Errorf("recursive listing missing %q:\n%s", want, out)
		}
	}
}

func TestLsAnnotatesSymlinks(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}

	if err := eng.AddSymlink("/link", "/somewhere"); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	run(t, s, ui, "ls")

	if !strings.Contains(ui.out.String(), "link -> /somewhere") {
		t.Errorf("listing = %q, want symlink annotation", ui.out.String())
	}
}

func TestMkdirHonorsUmask(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}

	run(t, s, ui, "umask 027")
	run(t, s, ui, "mkdir /d")

	attr, err := eng.GetAttr("/d")
	if err != nil {
		t.Fatalf("getattr: %v", err)
	}
	if attr.Mode != 0o750 {
		t.Errorf("mode = %04o, want 0750", attr.Mode)
	}
}

func TestChmodAndChown(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}

	if err := eng.AddFile("/f", 0o644, nil); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	run(t, s, ui, "chmod 4711 /f")
	run(t, s, ui, "chown 1000:2000 /f")

	attr, err := eng.GetAttr("/f")
	if err != nil {
		t.Fatalf("getattr: %v", err)
	}
	if attr.Mode != 0o4711 {
		t.Errorf("mode = %04o, want 4711", attr.Mode)
	}
	if attr.UID != 1000 || attr.GID != 2000 {
		t.Errorf("owner = %d:%d, want 1000:2000", attr.UID, attr.GID)
	}
}

func TestParseOwner(t *testing.T) {
	tests := []struct {
		spec    string
		uid     int
		gid     int
		wantErr bool
	}{
		{spec: "1000", uid: 1000, gid: -1},
		{spec: "1000:2000", uid: 1000, gid: 2000},
		{spec: ":2000", uid: -1, gid: 2000},
		{spec: "0:0", uid: 0, gid: 0},
		{spec: "", wantErr: true},
		{spec: ":", wantErr: true},
		{spec: "bob", wantErr: true},
		{spec: "1000:staff", wantErr: true},
	}

	for _, tc := range tests {
		uid, gid, err := parseOwner(tc.spec)
		if tc.wantErr {
			if err == nil {
				t.Errorf("parseOwner(%q): expected error", tc.spec)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseOwner(%q): %v", tc.spec, err)
			continue
		}
		if uid != tc.uid || gid != tc.gid {
			t.Errorf("parseOwner(%q) = %d:%d, want %d:%d", tc.spec, uid, gid, tc.uid, tc.gid)
		}
	}
}

func TestRmAndRmdir(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}

	if err := eng.AddDir("/d", 0o755); err != nil {
		t.Fatalf("seed remote: %v", err)
	}
	if err := eng.AddFile("/d/f", 0o644, nil); err != nil {
		t.Fatalf("seed remote: %v", err)
	}

	// rmdir refuses a populated directory
	run(t, s, ui, "rmdir /d")
	if ui.err.Len() == 0 {
		t.Error("rmdir of non-empty directory produced no diagnostic")
	}

	ui.err.Reset()
	run(t, s, ui, "rm /d/f")
	run(t, s, ui, "rmdir /d")

	if ui.err.Len() != 0 {
		t.Errorf("unexpected diagnostics: %s", ui.err.String())
	}
	if _, err := eng.GetAttr("/d"); err == nil {
		t.Error("directory still exists after rmdir")
	}
}

func TestUnknownCommand(t *testing.T) {
	s, _ := newTestShell(t, 8, 8)
	ui := &testUI{}

	run(t, s, ui, "frobnicate /x")

	if !strings.Contains(ui.err.String(), "Unknown command") {
		t.Errorf("diagnostic = %q, want unknown-command", ui.err.String())
	}
}

func TestUsageErrorShowsUsage(t *testing.T) {
	s, _ := newTestShell(t, 8, 8)
	ui := &testUI{}

	run(t, s, ui, "mv /only-one")

	if !strings.Contains(ui.err.String(), "Usage: mv") {
		t.Errorf("diagnostic = %q, want usage line", ui.err.String())
	}
}

func TestExitPropagates(t *testing.T) {
	s, _ := newTestShell(t, 8, 8)
	ui := &testUI{}

	if err := s.Dispatch("exit", ui); err != ErrExitShell {
		t.Errorf("Dispatch(exit) = %v, want ErrExitShell", err)
	}
}

func TestRunBatch(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}

	s.RunBatch("mkdir /a; cd /a; pwd; exit; mkdir /never", ui)

	if got := strings.TrimSpace(ui.out.String()); got != "/a" {
		t.Errorf("batch output = %q, want /a", got)
	}
	if _, err := eng.GetAttr("/never"); err == nil {
		t.Error("command after exit still ran")
	}
}

func TestDfReportsUsage(t *testing.T) {
	s, _ := newTestShell(t, 8, 8)
	ui := &testUI{}

	run(t, s, ui, "df")

	out := ui.out.String()
	if !strings.Contains(out, "testhost:/export") {
		t.Errorf("df output = %q, want filesystem label", out)
	}
}

func TestHelpListsCommands(t *testing.T) {
	s, _ := newTestShell(t, 8, 8)
	ui := &testUI{}

	run(t, s, ui, "help")

	for _, name := range []string{"cd", "ls", "get", "put", "umask"} {
		if !strings.Contains(ui.out.String(), name) {
			t.Errorf("help output missing %q", name)
		}
	}
}

func TestQuotedArguments(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}

	run(t, s, ui, `mkdir "dir with spaces"`)

	if _, err := eng.GetAttr("/dir with spaces"); err != nil {
		t.Errorf("quoted mkdir target missing: %v", err)
	}
}

func TestNonASCIIArguments(t *testing.T) {
	s, eng := newTestShell(t, 8, 8)
	ui := &testUI{}

	run(t, s, ui, "mkdir résumé")

	if _, err := eng.GetAttr("/résumé"); err != nil {
		t.Errorf("non-ascii mkdir target missing: %v", err)
	}
}
