package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "site.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "mibitech-site ") {
		t.Fatalf("out=%q", out)
	}
}

func TestCheckCmd(t *testing.T) {
	root := t.TempDir()
	cfgPath := writeConfig(t, "server:\n  static_root: \""+filepath.ToSlash(root)+"\"\nlogging:\n  level: error\n")
	out, err := execute(t, "check", "-c", cfgPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	for _, want := range []string{"ok: config", "ok: static root", "ok: portfolio projects=6", "configuration ok"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}

	missing := writeConfig(t, "server:\n  static_root: \""+filepath.ToSlash(filepath.Join(root, "nope"))+"\"\n")
	if _, err := execute(t, "check", "-c", missing); err == nil || !strings.Contains(err.Error(), "static root") {
		t.Fatalf("err=%v", err)
	}
}

func TestFetchCmd(t *testing.T) {
	var posted map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Test") != "1" || r.Header.Get("X-Request-Id") == "" {
			t.Errorf("headers=%v", r.Header)
		}
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":1,"name":"GitHub"}]`))
		case http.MethodPost:
			_ = json.NewDecoder(r.Body).Decode(&posted)
			_, _ = w.Write([]byte(`{"success":true}`))
		}
	}))
	defer srv.Close()

	cfgPath := writeConfig(t, "logging:\n  level: error\n")
	out, err := execute(t, "fetch", "/api/social-media/", "-c", cfgPath, "--base-url", srv.URL, "--retries", "0", "-H", "X-Test: 1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !strings.Contains(out, "\"name\": \"GitHub\"") {
		t.Fatalf("out=%q", out)
	}

	out, err = execute(t, "fetch", "/api/submit-contact/", "-c", cfgPath, "--base-url", srv.URL, "-H", "X-Test: 1", "-d", `{"name":"Ana"}`)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if posted["name"] != "Ana" || !strings.Contains(out, "\"success\": true") {
		t.Fatalf("posted=%v out=%q", posted, out)
	}

	if _, err := execute(t, "fetch", "/x", "-c", cfgPath, "-H", "novalue"); err == nil {
		t.Fatalf("expected invalid header error")
	}
}

func TestFetchCmdReportsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	cfgPath := writeConfig(t, "logging:\n  level: error\n")
	_, err := execute(t, "fetch", "/api/nope/", "-c", cfgPath, "--base-url", srv.URL, "--retries", "0")
	if err == nil || !strings.Contains(err.Error(), "HTTP error! Status: 404") {
		t.Fatalf("err=%v", err)
	}
}

func TestPageCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/views/sobre.html":
			_, _ = w.Write([]byte(`<section><h1>Sobre</h1><img src="../public/img/team.png"></section>`))
		case "/views/404.html":
			_, _ = w.Write([]byte(`<h1>404</h1>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfgPath := writeConfig(t, "logging:\n  level: error\n")
	out, err := execute(t, "page", "sobre.html", "-c", cfgPath, "--site-url", srv.URL)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	for _, want := range []string{"title: MibiTech - Sobre Nós", "page:  sobre", `src="/public/img/team.png"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in %q", want, out)
		}
	}

	out, err = execute(t, "page", "/nao-existe", "-c", cfgPath, "--site-url", srv.URL)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if !strings.Contains(out, "page:  404") {
		t.Fatalf("out=%q", out)
	}
}
