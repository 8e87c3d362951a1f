package devapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mibitech/mibitech-site/internal/config"
	"github.com/mibitech/mibitech-site/internal/models"
	"github.com/mibitech/mibitech-site/pkg/datafetch"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	s := NewStore(db)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func setupRouter(t *testing.T) (*gin.Engine, *Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := setupStore(t)
	return NewRouter(s, nil), s
}

func TestSeededRows(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	contacts, err := s.Contacts(ctx)
	if err != nil {
		t.Fatalf("contacts: %v", err)
	}
	if len(contacts) != 2 || contacts[0].Type != "Comercial" || contacts[0].Email != "contato@mibitech.com.br" {
		t.Fatalf("contacts=%+v", contacts)
	}
	sm, err := s.SocialMedia(ctx)
	if err != nil {
		t.Fatalf("social media: %v", err)
	}
	if len(sm) != 4 || sm[3].Name != "GitHub" || sm[3].Icon != "fab fa-github" {
		t.Fatalf("social media=%+v", sm)
	}
}

func TestReopenKeepsMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s := NewStore(db)
	id, err := s.InsertMessage(context.Background(), Message{Name: "Ana", Email: "ana@x.com", Subject: "Oi", Message: "Olá"})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	_ = s.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s = NewStore(db)
	defer func() { _ = s.Close() }()
	m, err := s.Message(context.Background(), id)
	if err != nil {
		t.Fatalf("message: %v", err)
	}
	if m.Name != "Ana" || m.CreatedAt.IsZero() {
		t.Fatalf("message=%+v", m)
	}
	if _, err := s.Message(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("err=%v want ErrNotFound", err)
	}
}

func TestGetContactsHandler(t *testing.T) {
	r, _ := setupRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/contacts/", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("code=%d", w.Code)
	}
	var got []models.Contact
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[1].Type != "Suporte" {
		t.Fatalf("got=%+v", got)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("missing cors header")
	}
}

func TestSubmitContact(t *testing.T) {
	cases := []struct {
		name    string
		body    string
		code    int
		success bool
		message string
	}{
		{"missing name", `{"email":"a@b.com","subject":"s","message":"m"}`, 200, false, "Campo obrigatório ausente: name"},
		{"blank subject", `{"name":"A","email":"a@b.com","subject":"  ","message":"m"}`, 200, false, "Campo obrigatório ausente: subject"},
		{"ok", `{"name":"A","email":"a@b.com","subject":"s","message":"m","phone":"11"}`, 201, true, msgSubmitted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, s := setupRouter(t)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/submit-contact/", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)
			if w.Code != tc.code {
				t.Fatalf("code=%d want=%d body=%s", w.Code, tc.code, w.Body.String())
			}
			var res models.SubmitResult
			if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if res.Success != tc.success || res.Message != tc.message {
				t.Fatalf("res=%+v", res)
			}
			msgs, err := s.Messages(context.Background())
			if err != nil {
				t.Fatalf("messages: %v", err)
			}
			if tc.success {
				if len(msgs) != 1 || msgs[0].ID != res.ID || msgs[0].Phone != "11" {
					t.Fatalf("stored=%+v id=%q", msgs, res.ID)
				}
			} else if len(msgs) != 0 {
				t.Fatalf("rejected submission stored: %+v", msgs)
			}
		})
	}
}

func TestSubmitInvalidJSON(t *testing.T) {
	r, _ := setupRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/submit-contact/", strings.NewReader("{")))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), msgInvalidJSON) {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
}

func TestUnknownRoute(t *testing.T) {
	r, _ := setupRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/nope/", nil))
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), msgRouteNotFound) {
		t.Fatalf("code=%d body=%s", w.Code, w.Body.String())
	}
}

// The site's own client code talks to the dev backend end to end.
func TestCompanyAndContactServiceAgainstDevAPI(t *testing.T) {
	r, _ := setupRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	cfg := config.Default()
	cfg.API.BaseURL = srv.URL
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	company := models.NewCompany(datafetch.New(cfg.FetchConfig()), datafetch.New(cfg.FetchConfig()))
	contacts, err := company.Contacts(ctx)
	if err != nil {
		t.Fatalf("contacts: %v", err)
	}
	social, err := company.SocialMedia(ctx)
	if err != nil {
		t.Fatalf("social media: %v", err)
	}
	if len(contacts) != 2 || len(social) != 4 {
		t.Fatalf("contacts=%d social=%d", len(contacts), len(social))
	}
	if c, ok := company.ContactByID(contacts[0].ID); !ok || c.Place != "São Paulo, SP" {
		t.Fatalf("ContactByID=%+v ok=%v", c, ok)
	}

	svc := models.NewContactService(datafetch.New(cfg.FetchConfig()), nil)
	res := svc.Submit(ctx, models.ContactForm{
		Name: "Ana", Email: "ana@mibitech.com.br", Subject: "Orçamento", Message: "Olá", Privacy: true,
	})
	if !res.Success || res.ID == "" || svc.Status() != models.SubmitSuccess {
		t.Fatalf("res=%+v status=%q", res, svc.Status())
	}
}
