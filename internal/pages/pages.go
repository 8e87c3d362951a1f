package pages

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"

	"github.com/mibitech/mibitech-site/internal/models"
	"github.com/mibitech/mibitech-site/pkg/navigation"
	"go.uber.org/zap"
)

const (
	BaseTitle    = "MibiTech"
	NotFoundName = "404"
	ViewsPrefix  = "/views/"
)

// Page is one routable view of the site.
type Page struct {
	Name  string
	Title string
	Paths []string
	// Sitemap marks pages listed in sitemap.xml.
	Sitemap bool
}

var Pages = []Page{
	{Name: "index", Title: "Soluções em TI", Paths: []string{"/", "/index.html"}, Sitemap: true},
	{Name: "sobre", Title: "Sobre Nós", Paths: []string{"/sobre.html"}, Sitemap: true},
	{Name: "portfolio", Title: "Portfólio", Paths: []string{"/portfolio.html"}, Sitemap: true},
	{Name: "blog", Title: "Blog", Paths: []string{"/blog.html"}, Sitemap: true},
	{Name: "contato", Title: "Contato", Paths: []string{"/contato.html"}, Sitemap: true},
}

const ProjectPattern = "/portfolio/:id"

// TitleFor returns the document title for a page name.
func TitleFor(name string) string {
	if name == NotFoundName {
		return BaseTitle + " - Página não encontrada"
	}
	for _, p := range Pages {
		if p.Name == name {
			return BaseTitle + " - " + p.Title
		}
	}
	return BaseTitle
}

// ViewPath is the fragment resource for a page name.
func ViewPath(name string) string { return ViewsPrefix + name + ".html" }

// View is what the shell renders after a navigation.
type View struct {
	Page  string
	Title string
	Path  string
	HTML  string
	// Blocks are text sections produced from API data.
	Blocks []string
	Err    string
}

// Renderer draws a View.
type Renderer func(View)

type Deps struct {
	Company   *models.Company
	Portfolio *models.Portfolio
	Logger    *zap.Logger
}

// App wires the site routes onto a Router.
type App struct {
	deps   Deps
	render Renderer
	logger *zap.Logger
	ctx    context.Context

	mu     sync.Mutex
	last   View
	router *navigation.Router
}

// New builds the Router for env with every site route registered before
// the initial resolution. extra options are applied after the routes.
func New(ctx context.Context, env navigation.Env, deps Deps, render Renderer, extra ...navigation.Option) *App {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{deps: deps, render: render, logger: logger, ctx: ctx}

	opts := make([]navigation.Option, 0, 16)
	for _, p := range Pages {
		name := p.Name
		for _, path := range p.Paths {
			opts = append(opts, navigation.WithRoute(path, func(req *navigation.Request) {
				a.loadPage(req, name)
			}))
		}
	}
	opts = append(opts,
		navigation.WithRoute(ProjectPattern, a.showProject),
		navigation.WithNotFound(func(req *navigation.Request) { a.loadPage(req, NotFoundName) }),
		navigation.WithLogger(logger),
	)
	opts = append(opts, extra...)

	r := navigation.New(env, opts...)
	a.mu.Lock()
	a.router = r
	a.mu.Unlock()
	return a
}

func (a *App) Router() *navigation.Router {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.router
}

// Last returns the most recently rendered view.
func (a *App) Last() View {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last
}

func (a *App) emit(v View) {
	a.mu.Lock()
	a.last = v
	a.mu.Unlock()
	if a.render != nil {
		a.render(v)
	}
}

func (a *App) loadPage(req *navigation.Request, name string) {
	a.logger.Debug("loading page", zap.String("page", name), zap.String("path", req.Path))
	v := View{Page: name, Title: TitleFor(name), Path: req.Path}
	ctx := a.ctx
	if req.Fallback {
		ctx = req.Context()
	}
	ok := req.Router.LoadContent(ctx, ViewPath(name), func(content string) {
		v.HTML = content
	})
	if !ok {
		// Outside a fallback the failure was already handed to the
		// not-found handler, which renders the error view itself.
		if req.Fallback && name == NotFoundName {
			a.emit(View{
				Page:  NotFoundName,
				Title: TitleFor(NotFoundName),
				Path:  req.Path,
				Err:   fmt.Sprintf("Erro ao carregar a página %s", name),
			})
		}
		return
	}
	switch name {
	case "contato":
		v.Blocks = a.companyBlocks()
	case "portfolio":
		v.Blocks = a.portfolioBlocks(models.CategoryAll)
	}
	a.emit(v)
}

func (a *App) showProject(req *navigation.Request) {
	id, err := strconv.Atoi(req.Param("id"))
	if err != nil || a.deps.Portfolio == nil {
		a.loadPage(req, NotFoundName)
		return
	}
	pr, ok := a.deps.Portfolio.ByID(id)
	if !ok {
		a.loadPage(req, NotFoundName)
		return
	}
	a.emit(View{
		Page:   "portfolio",
		Title:  BaseTitle + " - " + pr.Title,
		Path:   req.Path,
		HTML:   projectHTML(pr),
		Blocks: []string{projectBlock(pr)},
	})
}

func (a *App) companyBlocks() []string {
	if a.deps.Company == nil {
		return nil
	}
	var blocks []string
	contacts, err := a.deps.Company.Contacts(a.ctx)
	if err != nil {
		blocks = append(blocks, "Contatos indisponíveis: "+err.Error())
	}
	for _, c := range contacts {
		blocks = append(blocks, contactBlock(c))
	}
	social, err := a.deps.Company.SocialMedia(a.ctx)
	if err != nil {
		blocks = append(blocks, "Redes sociais indisponíveis: "+err.Error())
	}
	for _, s := range social {
		blocks = append(blocks, fmt.Sprintf("%s: %s", s.Name, s.URL))
	}
	return blocks
}

func (a *App) portfolioBlocks(c models.Category) []string {
	if a.deps.Portfolio == nil {
		return nil
	}
	var blocks []string
	for _, pr := range a.deps.Portfolio.ByCategory(c) {
		blocks = append(blocks, fmt.Sprintf("[%d] %s (%s, %d)", pr.ID, pr.Title, pr.Category, pr.Year))
	}
	return blocks
}

func contactBlock(c models.Contact) string {
	parts := []string{c.Type}
	for _, v := range []string{c.Place, c.Phone, c.Email} {
		if v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " | ")
}

func projectBlock(p models.Project) string {
	return fmt.Sprintf("%s - %s (%d): %s", p.Title, p.Client, p.Year, strings.Join(p.Technologies, ", "))
}

func projectHTML(p models.Project) string {
	var b strings.Builder
	b.WriteString(`<article class="project">`)
	fmt.Fprintf(&b, `<h1>%s</h1>`, html.EscapeString(p.Title))
	fmt.Fprintf(&b, `<img src="%s" alt="%s">`, html.EscapeString(strings.ReplaceAll(p.Image, navigation.DefaultAssetFrom, navigation.DefaultAssetTo)), html.EscapeString(p.Title))
	fmt.Fprintf(&b, `<p>%s</p>`, html.EscapeString(p.Description))
	b.WriteString(`<ul>`)
	for _, t := range p.Technologies {
		fmt.Fprintf(&b, `<li>%s</li>`, html.EscapeString(t))
	}
	b.WriteString(`</ul><a href="/portfolio.html">Voltar ao portfólio</a></article>`)
	return b.String()
}

// SitemapPaths lists the canonical path of each sitemap page plus one entry
// per portfolio project.
func SitemapPaths(p *models.Portfolio) []string {
	var out []string
	for _, pg := range Pages {
		if pg.Sitemap && len(pg.Paths) > 0 {
			out = append(out, pg.Paths[0])
		}
	}
	if p != nil {
		for _, pr := range p.All() {
			out = append(out, "/portfolio/"+strconv.Itoa(pr.ID))
		}
	}
	return out
}
