package visual

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"sync"

	"chartcraft/domain/grid"
	"chartcraft/internal/errors"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml sources/*/*.mmd guides/*.md
var assets embed.FS

// Family groups kinds rendered by the same engine.
type Family string

const (
	FamilyChart   Family = "chart"
	FamilyPlot3D  Family = "chart3d"
	FamilyDiagram Family = "diagram"
	FamilyFlow    Family = "flow"
)

// Engine returns the browser engine used to draw kinds of this family.
func (f Family) Engine() string {
	switch f {
	case FamilyChart:
		return "chartjs"
	case FamilyPlot3D:
		return "plotly"
	default:
		return "mermaid"
	}
}

// Textual reports whether kinds of this family are drawn from Mermaid source.
func (f Family) Textual() bool {
	return f == FamilyDiagram || f == FamilyFlow
}

// Kind is one entry of the catalog.
type Kind struct {
	Family Family     `yaml:"-" json:"family"`
	Slug   string     `yaml:"slug" json:"slug"`
	Label  string     `yaml:"label" json:"label"`
	Shape  grid.Shape `yaml:"shape,omitempty" json:"shape,omitempty"`
	Trace  string     `yaml:"trace,omitempty" json:"trace,omitempty"`
	Guide  string     `yaml:"guide,omitempty" json:"guide,omitempty"`
	Route  string     `yaml:"-" json:"route"`
}

// Path is the page path of the kind, e.g. /flow_representation/mindmap.
func (k Kind) Path() string {
	return "/" + k.Route + "/" + k.Slug
}

// Group is a family with its ordered kinds.
type Group struct {
	ID    Family `yaml:"id" json:"id"`
	Label string `yaml:"label" json:"label"`
	Route string `yaml:"route" json:"route"`
	Kinds []Kind `yaml:"kinds" json:"kinds"`
}

type catalogFile struct {
	Families []Group `yaml:"families"`
}

// Catalog is the immutable allow-list of visualization kinds.
type Catalog struct {
	groups  []Group
	index   map[Family]map[string]Kind
	byRoute map[string]Family
}

// Parse builds a catalog from its YAML form.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "failed to parse kind catalog")
	}

	c := &Catalog{
		index:   make(map[Family]map[string]Kind),
		byRoute: make(map[string]Family),
	}
	for _, g := range file.Families {
		if g.ID == "" || g.Route == "" {
			return nil, errors.ConfigInvalid("kind catalog family needs an id and a route")
		}
		if _, dup := c.index[g.ID]; dup {
			return nil, errors.ConfigInvalid(fmt.Sprintf("kind catalog lists family %q twice", g.ID))
		}
		kinds := make(map[string]Kind, len(g.Kinds))
		for i := range g.Kinds {
			k := &g.Kinds[i]
			k.Family = g.ID
			k.Route = g.Route
			if k.Slug == "" {
				return nil, errors.ConfigInvalid(fmt.Sprintf("kind catalog family %q has an entry without a slug", g.ID))
			}
			if _, dup := kinds[k.Slug]; dup {
				return nil, errors.ConfigInvalid(fmt.Sprintf("kind catalog lists %s/%s twice", g.ID, k.Slug))
			}
			if g.ID == FamilyChart && k.Shape != grid.ShapeMulti && k.Shape != grid.ShapeSingle {
				return nil, errors.ConfigInvalid(fmt.Sprintf("chart kind %q needs shape multi or single", k.Slug))
			}
			kinds[k.Slug] = *k
		}
		c.index[g.ID] = kinds
		c.byRoute[g.Route] = g.ID
		c.groups = append(c.groups, g)
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the catalog embedded in the binary.
func Default() *Catalog {
	defaultOnce.Do(func() {
		data, err := assets.ReadFile("catalog.yaml")
		if err != nil {
			panic(fmt.Sprintf("embedded kind catalog missing: %v", err))
		}
		c, err := Parse(data)
		if err != nil {
			panic(fmt.Sprintf("embedded kind catalog invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Lookup returns the kind for slug within family. Anything outside the
// allow-list is NOT_FOUND.
func (c *Catalog) Lookup(family Family, slug string) (Kind, error) {
	kinds, ok := c.index[family]
	if !ok {
		return Kind{}, errors.NotFound(fmt.Sprintf("visualization family %q", family))
	}
	k, ok := kinds[slug]
	if !ok {
		return Kind{}, errors.NotFound(fmt.Sprintf("%s kind %q", family, slug))
	}
	return k, nil
}

// FamilyForRoute maps a URL segment such as "flow_representation" to its
// family. The legacy "3dchart" segment resolves to the 3D family.
func (c *Catalog) FamilyForRoute(route string) (Family, bool) {
	if route == "3dchart" {
		route = string(FamilyPlot3D)
	}
	f, ok := c.byRoute[route]
	return f, ok
}

// Groups returns every family in catalog order.
func (c *Catalog) Groups() []Group {
	out := make([]Group, len(c.groups))
	copy(out, c.groups)
	return out
}

// Kinds returns the kinds of one family in catalog order.
func (c *Catalog) Kinds(family Family) []Kind {
	for _, g := range c.groups {
		if g.ID == family {
			out := make([]Kind, len(g.Kinds))
			copy(out, g.Kinds)
			return out
		}
	}
	return nil
}

// Slugs returns the sorted slugs of one family.
func (c *Catalog) Slugs(family Family) []string {
	slugs := make([]string, 0, len(c.index[family]))
	for slug := range c.index[family] {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}

// DefaultSource returns the starter Mermaid source shown for a diagram or
// flow kind.
func DefaultSource(k Kind) (string, error) {
	if !k.Family.Textual() {
		return "", errors.InvalidInput(fmt.Sprintf("%s kinds have no diagram source", k.Family))
	}
	data, err := assets.ReadFile(path.Join("sources", string(k.Family), k.Slug+".mmd"))
	if err != nil {
		return "", errors.NotFound(fmt.Sprintf("default source for %s/%s", k.Family, k.Slug))
	}
	return string(data), nil
}
