package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/swaggest/swgui"
	"github.com/swaggest/swgui/v5emb"
	"github.com/unrolled/render"
)

//go:embed templates/*.tmpl
var templates embed.FS

const (
	templatesDir = "templates"
	templateExt  = ".tmpl"
	indexPage    = "index"
)

type docsConfig struct {
	prefix       string
	apiDocURL    string
	swaggerURL   string
	docExpansion string
	oauth        *OAuthConfig
	pages        map[string]string // URL to template name.
	custom       map[string]string // Template name to source.
}

func newDocsConfig(o options) docsConfig {
	prefix := "/" + strings.Trim(o.docPrefix, "/")
	if prefix == "/" {
		prefix = ""
	}

	dc := docsConfig{
		prefix:       prefix,
		apiDocURL:    prefix + "/" + strings.Trim(o.apiDocURL, "/"),
		swaggerURL:   prefix + "/" + strings.Trim(o.swaggerURL, "/"),
		docExpansion: o.docExpansion,
		oauth:        o.oauth,
		pages: map[string]string{
			strings.Trim(o.redocURL, "/"):   "redoc",
			strings.Trim(o.rapidocURL, "/"): "rapidoc",
		},
		custom: map[string]string{},
	}

	for url, src := range o.uiTemplates {
		name := strings.Trim(url, "/")

		dc.pages[name] = name
		dc.custom[name] = src
	}

	return dc
}

// docPage is a binding of documentation page template.
type docPage struct {
	Title        string
	APIDocURL    string
	DocExpansion string
	Links        []docLink
}

type docLink struct {
	Name string
	URL  string
}

func (dc docsConfig) renderer() *render.Render {
	return render.New(render.Options{
		Directory:  templatesDir,
		Extensions: []string{templateExt},
		Asset: func(name string) ([]byte, error) {
			if src, ok := dc.custom[strings.TrimSuffix(strings.TrimPrefix(name, templatesDir+"/"), templateExt)]; ok {
				return []byte(src), nil
			}

			return templates.ReadFile(name)
		},
		AssetNames: func() []string {
			names, err := fs.Glob(templates, templatesDir+"/*"+templateExt)
			if err != nil {
				panic(err)
			}

			for name := range dc.custom {
				names = append(names, templatesDir+"/"+name+templateExt)
			}

			return names
		},
	})
}

func (a *App) mountDocs() {
	dc := a.docs
	rnd := dc.renderer()
	title := a.OpenAPICollector.Spec().Info.Title

	page := func(name string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			p := docPage{
				Title:        a.OpenAPICollector.Spec().Info.Title,
				APIDocURL:    dc.apiDocURL,
				DocExpansion: dc.docExpansion,
			}

			if name == indexPage {
				p.Links = dc.links()
			}

			if err := rnd.HTML(w, http.StatusOK, name, p); err != nil {
				a.log.Sugar().Errorw("failed to render documentation page", "page", name, "error", err)
			}
		}
	}

	a.Method(http.MethodGet, dc.apiDocURL, a.OpenAPICollector)

	if _, ok := dc.custom[strings.Trim(strings.TrimPrefix(dc.swaggerURL, dc.prefix), "/")]; !ok {
		settings, err := dc.swaggerSettings()
		if err != nil {
			panic(fmt.Sprintf("swagger ui settings: %v", err))
		}

		a.Mount(dc.swaggerURL, v5emb.NewWithConfig(swgui.Config{
			ShowTopBar: true,
			SettingsUI: settings,
		})(title, dc.apiDocURL, dc.swaggerURL))
	}

	for url, name := range dc.pages {
		a.Method(http.MethodGet, dc.prefix+"/"+url, page(name))
	}

	a.Method(http.MethodGet, dc.prefix+"/", page(indexPage))

	if dc.prefix != "" {
		a.Method(http.MethodGet, dc.prefix, http.RedirectHandler(dc.prefix+"/", http.StatusMovedPermanently))
	}
}

// swaggerSettings returns javascript values of Swagger UI configuration.
func (dc docsConfig) swaggerSettings() (map[string]string, error) {
	settings := map[string]string{
		"docExpansion": strconv.Quote(dc.docExpansion),
	}

	if dc.oauth != nil {
		cfg, err := json.Marshal(dc.oauth)
		if err != nil {
			return nil, err
		}

		settings["onComplete"] = "function() { window.ui.initOAuth(" + string(cfg) + "); }"
	}

	return settings, nil
}

func (dc docsConfig) links() []docLink {
	links := []docLink{{Name: "Swagger", URL: dc.swaggerURL}}

	urls := make([]string, 0, len(dc.pages))
	for url := range dc.pages {
		urls = append(urls, url)
	}

	sort.Strings(urls)

	for _, url := range urls {
		if dc.prefix+"/"+url == dc.swaggerURL {
			continue
		}

		links = append(links, docLink{Name: dc.pages[url], URL: dc.prefix + "/" + url})
	}

	return links
}
