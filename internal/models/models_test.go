package models

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mibitech/mibitech-site/pkg/datafetch"
)

func noSleep(context.Context, time.Duration) error { return nil }

func newFetcher(t *testing.T, srv *httptest.Server) *datafetch.Fetcher {
	t.Helper()
	return datafetch.New(datafetch.Config{BaseURL: srv.URL, MaxRetries: datafetch.Retries(1)},
		datafetch.WithHTTPClient(srv.Client()),
		datafetch.WithSleep(noSleep),
	)
}

func TestContactUnmarshalNormalizesDrift(t *testing.T) {
	var cs []Contact
	body := `[{"id":1,"tipo":"Comercial","local":"SP","telefone":"11","email":"a@b.c"},
	          {"id":2,"stipo":"Suporte","slocal":"RJ","stelefone":"21","semail":"s@b.c"}]`
	if err := json.Unmarshal([]byte(body), &cs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if cs[0].Type != "Comercial" || cs[0].Email != "a@b.c" {
		t.Fatalf("cs[0]=%+v", cs[0])
	}
	if cs[1].Type != "Suporte" || cs[1].Place != "RJ" || cs[1].Phone != "21" || cs[1].Email != "s@b.c" {
		t.Fatalf("cs[1]=%+v", cs[1])
	}
}

func TestContactFormValidate(t *testing.T) {
	ok := ContactForm{Name: "Ana", Email: "ana@mibitech.com.br", Subject: "Oi", Message: "Olá", Privacy: true}
	if errs := ok.Validate(); errs != nil {
		t.Fatalf("errs=%v", errs)
	}

	errs := ContactForm{Email: "not-an-email"}.Validate()
	want := map[string]string{
		"name":    msgNameRequired,
		"email":   msgEmailInvalid,
		"subject": msgSubjectRequired,
		"message": msgMessageRequired,
		"privacy": msgPrivacyRequired,
	}
	if len(errs) != len(want) {
		t.Fatalf("errs=%v", errs)
	}
	for k, v := range want {
		if errs[k] != v {
			t.Fatalf("%s=%q want=%q", k, errs[k], v)
		}
	}
	if e := (ContactForm{Email: "  "}).Validate(); e["email"] != msgEmailRequired {
		t.Fatalf("email=%q", e["email"])
	}
}

func TestContactServiceSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/submit-contact" {
			t.Errorf("path=%q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"success":true,"message":"ok","id":"x1"}`))
	}))
	defer srv.Close()

	svc := NewContactService(newFetcher(t, srv), nil)
	res := svc.Submit(context.Background(), ContactForm{Name: "Ana", Email: "a@b.co", Subject: "s", Message: "m", Privacy: true})
	if !res.Success || res.ID != "x1" || svc.Status() != SubmitSuccess {
		t.Fatalf("res=%+v status=%q", res, svc.Status())
	}

	res = svc.Submit(context.Background(), ContactForm{})
	if res.Success || len(res.Errors) == 0 || svc.Status() != SubmitError {
		t.Fatalf("res=%+v", res)
	}
	svc.Reset()
	if svc.Status() != SubmitNone {
		t.Fatalf("status=%q", svc.Status())
	}
}

func TestContactServiceSubmitTransportFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewContactService(newFetcher(t, srv), nil)
	res := svc.Submit(context.Background(), ContactForm{Name: "Ana", Email: "a@b.co", Subject: "s", Message: "m", Privacy: true})
	if res.Success || res.Message != MsgSubmitFailed {
		t.Fatalf("res=%+v", res)
	}
	if calls != 1 {
		t.Fatalf("calls=%d want=1", calls)
	}
}

func TestCompanyLoads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/contacts":
			_, _ = w.Write([]byte(`[{"id":7,"stipo":"Comercial","email":"c@m.com"}]`))
		case "/api/social-media":
			_, _ = w.Write([]byte(`[{"id":3,"name":"GitHub","url":"https://github.com/mibitech","icon":"github"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewCompany(newFetcher(t, srv), newFetcher(t, srv))
	cs, err := c.Contacts(context.Background())
	if err != nil || len(cs) != 1 {
		t.Fatalf("contacts=%v err=%v", cs, err)
	}
	if got, ok := c.ContactByID(7); !ok || got.Type != "Comercial" {
		t.Fatalf("ContactByID=%+v ok=%v", got, ok)
	}
	if _, ok := c.ContactByID(8); ok {
		t.Fatalf("unexpected contact")
	}
	if _, err := c.SocialMedia(context.Background()); err != nil {
		t.Fatalf("social: %v", err)
	}
	if s, ok := c.SocialMediaByID(3); !ok || s.Name != "GitHub" {
		t.Fatalf("SocialMediaByID=%+v", s)
	}
	if ce, se := c.Errors(); ce != "" || se != "" {
		t.Fatalf("errors=%q %q", ce, se)
	}
}

func TestPortfolio(t *testing.T) {
	p := NewPortfolio(SampleProjects())
	if len(p.All()) != 6 {
		t.Fatalf("all=%d", len(p.All()))
	}
	if n := len(p.ByCategory(CategoryMobile)); n != 2 {
		t.Fatalf("mobile=%d want=2", n)
	}
	if n := len(p.ByCategory(CategoryAll)); n != 6 {
		t.Fatalf("all=%d", n)
	}

	p.SetActiveCategory("games")
	if p.ActiveCategory() != CategoryAll {
		t.Fatalf("unknown category accepted")
	}
	p.SetActiveCategory("Cloud")
	if p.ActiveCategory() != CategoryCloud {
		t.Fatalf("active=%q", p.ActiveCategory())
	}

	id := p.Add(Project{Title: "Novo", Category: CategoryWeb})
	if id != 7 {
		t.Fatalf("id=%d want=7", id)
	}
	if !p.Update(id, func(pr *Project) { pr.Title = "Renomeado"; pr.ID = 99 }) {
		t.Fatalf("update failed")
	}
	if pr, ok := p.ByID(7); !ok || pr.Title != "Renomeado" {
		t.Fatalf("pr=%+v ok=%v", pr, ok)
	}
	if !p.Delete(7) || p.Delete(7) {
		t.Fatalf("delete semantics")
	}
	if NewPortfolio(nil).Add(Project{}) != 1 {
		t.Fatalf("empty catalogue should start at 1")
	}
}

func TestLoadPortfolioFile(t *testing.T) {
	p, err := LoadPortfolioFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Len(t, p.All(), 6)

	path := filepath.Join(t.TempDir(), "projects.yaml")
	body := "projects:\n  - id: 10\n    title: Site\n    category: WEB\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	p, err = LoadPortfolioFile(path)
	require.NoError(t, err)
	got := p.ByCategory(CategoryWeb)
	require.Len(t, got, 1)
	require.Equal(t, 10, got[0].ID)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("projects: [\n"), 0o600))
	_, err = LoadPortfolioFile(bad)
	require.Error(t, err)
}

func TestRequireFields(t *testing.T) {
	f, err := RequireFields(map[string]any{"name": "a", "email": " "}, "name", "email", "subject")
	if err == nil || f != "email" {
		t.Fatalf("f=%q err=%v", f, err)
	}
	if _, err := RequireFields(map[string]any{"a": 1}, "a"); err != nil {
		t.Fatalf("err=%v", err)
	}
}
