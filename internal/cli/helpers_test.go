package cli_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rshade/piante/internal/cli"
)

// fakeAPI serves a three-page catalog under every /piante path and a
// category list under /categorie.
type fakeAPI struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
	fail     bool
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{}
	api.Server = httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(api.Close)
	return api
}

func (a *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.requests = append(a.requests, r.URL.Path+"?"+r.URL.RawQuery)
	fail := a.fail
	a.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"statusCode":500,"message":"database offline"}`))
		return
	}

	var data any
	switch {
	case r.URL.Path == "/categorie":
		data = []map[string]any{
			{"_id": "c2", "nome": "Piante fiorite", "slug": "piante-fiorite", "ordine": 2, "attiva": true},
			{"_id": "c1", "nome": "Piante da interno", "slug": "piante-da-interno", "ordine": 1, "attiva": true},
			{"_id": "c3", "nome": "Archivio", "slug": "archivio", "ordine": 3, "attiva": false},
		}
	case strings.HasPrefix(r.URL.Path, "/piante"):
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		records := make([]map[string]any, 0, limit)
		for i := range limit {
			records = append(records, map[string]any{
				"_id":      fmt.Sprintf("p%d-%d", page, i),
				"nome":     fmt.Sprintf("Pianta %d.%d", page, i),
				"famiglia": "Lamiaceae",
				"indoor":   i%2 == 0,
			})
		}
		data = map[string]any{
			"data": records,
			"meta": map[string]int{"total": 3 * limit, "page": page, "limit": limit, "totalPages": 3},
		}
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"statusCode":404,"message":"not found"}`))
		return
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"statusCode": http.StatusOK,
		"data":       data,
		"path":       r.URL.Path,
	})
}

func (a *fakeAPI) Requests() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.requests...)
}

func (a *fakeAPI) setFail(fail bool) {
	a.mu.Lock()
	a.fail = fail
	a.mu.Unlock()
}

// workspace is a temporary home for one test: a config file pointing at the
// fake API and a file cache inside the test's temp dir.
type workspace struct {
	dir        string
	configPath string
}

func newWorkspace(t *testing.T, api *fakeAPI) workspace {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf(`api:
  base_url: %s
  timeout: 5s
cache:
  backend: file
  dir: %s
logging:
  level: error
`, api.URL, filepath.Join(dir, "cache"))
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0o600))
	return workspace{dir: dir, configPath: configPath}
}

// run executes the root command with args and returns stdout and stderr.
func (w workspace) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := cli.NewRootCmdWithArgs("test", func() (string, error) { return w.dir, nil })
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(append([]string{"--config", w.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
