package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"rafcdn/internal/config"
	"rafcdn/internal/session"
	"rafcdn/internal/testsupport"
	"rafcdn/internal/uploads"
)

const testSessionID = "sess-1"

type fakeBackend struct {
	mu      sync.Mutex
	records []uploads.ServerRecord
	logouts int
	server  *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{records: []uploads.ServerRecord{
		{Name: "legacy.mp4", Timestamp: "2020-01-01T00:00:00.000Z"},
	}}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/upload-video", fb.handleUpload)
	mux.HandleFunc("/api/my-uploads", fb.handleHistory)
	mux.HandleFunc("/api/logout", fb.handleLogout)
	fb.server = httptest.NewServer(mux)
	t.Cleanup(fb.server.Close)
	return fb
}

func (fb *fakeBackend) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+testSessionID
}

func (fb *fakeBackend) handleUpload(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("video")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	file.Close()
	if strings.HasPrefix(header.Filename, "bad") {
		http.Error(w, "boom", http.StatusInternalServerError)
		return
	}
	size := header.Size
	fb.mu.Lock()
	fb.records = append(fb.records, uploads.ServerRecord{
		Name:      header.Filename,
		Timestamp: r.FormValue("timestamp"),
		Size:      &size,
		UploadID:  r.FormValue("upload_id"),
	})
	fb.mu.Unlock()
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

func (fb *fakeBackend) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !fb.authorized(r) {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(fb.records)
}

func (fb *fakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	fb.logouts++
	fb.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

type cliTestEnv struct {
	cfg        *config.Config
	backend    *fakeBackend
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	backend := newFakeBackend(t)
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithBaseURL(backend.server.URL)}, opts...)...)
	base := testsupport.BaseDir(cfg)

	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("RAFCDN_BASE_URL", "")
	t.Setenv("RAFCDN_DASHBOARD_TOKEN", "")
	t.Setenv(session.EnvSessionID, "")
	t.Setenv(session.EnvUsername, "")

	configPath := filepath.Join(homeDir, ".config", "rafcdn", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, backend: backend, configPath: configPath, baseDir: base}
}

func (e *cliTestEnv) signIn(t *testing.T) {
	t.Helper()
	if err := e.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	store := session.NewStore(e.cfg.SessionPath())
	if err := store.Save(session.Session{ID: testSessionID, Username: "alice", Role: "user"}); err != nil {
		t.Fatalf("save session: %v", err)
	}
}

func (e *cliTestEnv) videoFile(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(e.baseDir, "media", name)
	testsupport.WriteMP4(t, path, size)
	return path
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nstate_dir = %q\nlog_dir = %q\n\n[backend]\nbase_url = %q\nrequest_timeout = 5\n\n"+
			"[upload]\nmax_size_bytes = %d\n\n[notifications]\nntfy_topic = %q\n\n[logging]\nlevel = \"error\"\n",
		cfg.Paths.StateDir,
		cfg.Paths.LogDir,
		cfg.Backend.BaseURL,
		cfg.Upload.MaxSizeBytes,
		cfg.Notifications.NtfyTopic,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
