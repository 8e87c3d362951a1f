package models

import (
	"errors"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type Category string

const (
	CategoryAll     Category = "all"
	CategoryWeb     Category = "web"
	CategoryMobile  Category = "mobile"
	CategoryDesktop Category = "desktop"
	CategoryCloud   Category = "cloud"
)

var categories = []Category{CategoryAll, CategoryWeb, CategoryMobile, CategoryDesktop, CategoryCloud}

func Categories() []Category { return append([]Category(nil), categories...) }

type Project struct {
	ID           int      `yaml:"id" json:"id"`
	Title        string   `yaml:"title" json:"title"`
	Description  string   `yaml:"description" json:"description"`
	Category     Category `yaml:"category" json:"category"`
	Image        string   `yaml:"image" json:"image"`
	Technologies []string `yaml:"technologies" json:"technologies"`
	Client       string   `yaml:"client" json:"client"`
	Year         int      `yaml:"year" json:"year"`
	Link         string   `yaml:"link" json:"link"`
}

type File struct {
	Projects []Project `yaml:"projects"`
}

// Portfolio holds the project catalogue and the active filter.
type Portfolio struct {
	mu       sync.Mutex
	projects []Project
	active   Category
}

func NewPortfolio(projects []Project) *Portfolio {
	p := &Portfolio{active: CategoryAll}
	for _, pr := range projects {
		pr.Category = normalizeCategory(pr.Category)
		p.projects = append(p.projects, pr)
	}
	return p
}

// LoadPortfolioFile reads a projects yaml file. A missing file yields the
// built-in sample catalogue.
func LoadPortfolioFile(path string) (*Portfolio, error) {
	if strings.TrimSpace(path) == "" {
		return NewPortfolio(SampleProjects()), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewPortfolio(SampleProjects()), nil
		}
		return nil, err
	}
	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, err
	}
	return NewPortfolio(f.Projects), nil
}

func (p *Portfolio) All() []Project {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Project(nil), p.projects...)
}

func (p *Portfolio) ByCategory(c Category) []Project {
	c = normalizeCategory(c)
	p.mu.Lock()
	defer p.mu.Unlock()
	if c == CategoryAll {
		return append([]Project(nil), p.projects...)
	}
	var out []Project
	for _, pr := range p.projects {
		if pr.Category == c {
			out = append(out, pr)
		}
	}
	return out
}

func (p *Portfolio) ByID(id int) (Project, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, pr := range p.projects {
		if pr.ID == id {
			return pr, true
		}
	}
	return Project{}, false
}

// SetActiveCategory ignores unknown categories.
func (p *Portfolio) SetActiveCategory(c Category) {
	c = normalizeCategory(c)
	if !isKnownCategory(c) {
		return
	}
	p.mu.Lock()
	p.active = c
	p.mu.Unlock()
}

func (p *Portfolio) ActiveCategory() Category {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Add assigns the next id (max+1, or 1 when empty) and returns it.
func (p *Portfolio) Add(pr Project) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	pr.ID = p.nextIDLocked()
	pr.Category = normalizeCategory(pr.Category)
	p.projects = append(p.projects, pr)
	return pr.ID
}

// Update applies fn to the project with id.
func (p *Portfolio) Update(id int, fn func(*Project)) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.projects {
		if p.projects[i].ID == id {
			fn(&p.projects[i])
			p.projects[i].ID = id
			return true
		}
	}
	return false
}

func (p *Portfolio) Delete(id int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range p.projects {
		if p.projects[i].ID == id {
			p.projects = append(p.projects[:i], p.projects[i+1:]...)
			return true
		}
	}
	return false
}

func (p *Portfolio) nextIDLocked() int {
	ids := make([]int, 0, len(p.projects))
	for _, pr := range p.projects {
		ids = append(ids, pr.ID)
	}
	if len(ids) == 0 {
		return 1
	}
	sort.Ints(ids)
	return ids[len(ids)-1] + 1
}

func normalizeCategory(c Category) Category {
	return Category(strings.ToLower(strings.TrimSpace(string(c))))
}

func isKnownCategory(c Category) bool {
	for _, k := range categories {
		if k == c {
			return true
		}
	}
	return false
}

// SampleProjects is the catalogue shipped with the site.
func SampleProjects() []Project {
	return []Project{
		{
			ID: 1, Title: "E-commerce Premium",
			Description:  "Plataforma completa de e-commerce com integração de pagamentos, gestão de estoque e painel administrativo personalizado.",
			Category:     CategoryWeb,
			Image:        "../public/images/project-1.jpg",
			Technologies: []string{"React", "Node.js", "MongoDB"},
			Client:       "Moda Express", Year: 2024, Link: "#",
		},
		{
			ID: 2, Title: "FastFood Delivery",
			Description:  "Aplicativo de delivery para restaurantes com rastreamento em tempo real, pagamento in-app e sistema de avaliação.",
			Category:     CategoryMobile,
			Image:        "../public/images/project-2.jpg",
			Technologies: []string{"Flutter", "Firebase", "Google Maps API"},
			Client:       "Sabor Gourmet", Year: 2024, Link: "#",
		},
		{
			ID: 3, Title: "ERP Empresarial",
			Description:  "Sistema completo de gestão empresarial com módulos de finanças, RH, vendas, compras e relatórios avançados.",
			Category:     CategoryDesktop,
			Image:        "../public/images/project-3.jpg",
			Technologies: []string{"C#", ".NET", "SQL Server"},
			Client:       "Construtech", Year: 2023, Link: "#",
		},
		{
			ID: 4, Title: "DataInsight",
			Description:  "Plataforma de análise de dados em tempo real com dashboards personalizáveis e insights automatizados.",
			Category:     CategoryCloud,
			Image:        "../public/images/project-4.jpg",
			Technologies: []string{"Python", "AWS", "Tableau"},
			Client:       "Banco Nacional", Year: 2023, Link: "#",
		},
		{
			ID: 5, Title: "EduLearn",
			Description:  "Plataforma de ensino online com cursos, avaliações, fóruns de discussão e certificados digitais.",
			Category:     CategoryWeb,
			Image:        "../public/images/project-5.jpg",
			Technologies: []string{"Vue.js", "Laravel", "MySQL"},
			Client:       "Instituto Educacional", Year: 2022, Link: "#",
		},
		{
			ID: 6, Title: "HealthTrack",
			Description:  "Aplicativo de monitoramento de saúde com integração a dispositivos wearables, lembretes de medicação e telemedicina.",
			Category:     CategoryMobile,
			Image:        "../public/images/project-6.jpg",
			Technologies: []string{"React Native", "GraphQL", "MongoDB"},
			Client:       "Clínica Saúde Total", Year: 2022, Link: "#",
		},
	}
}
