package guide

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/glyphtool/glyph/internal/fsx"
)

// CatalogFile is the markdown knowledge catalog under the glyph directory.
const CatalogFile = "glyph.md"

// Catalog section headings, in render order.
const (
	SectionInsights  = "System Insights"
	SectionPages     = "Pages Discovered"
	SectionSiteMap   = "Site Map"
	SectionSelectors = "Known Selectors"
	SectionLayers    = "Build Layers"
	SectionFailures  = "Common Failures & Solutions"
)

var sectionOrder = []string{
	SectionInsights,
	SectionPages,
	SectionSiteMap,
	SectionSelectors,
	SectionLayers,
	SectionFailures,
}

// Catalog accumulates what builds learn about the system under test and
// persists it as glyph.md. Entries are deduplicated; sections keep insertion
// order.
type Catalog struct {
	fs       fsx.FS
	path     string
	sections map[string][]string
}

// NewCatalog opens the catalog under glyphDir, loading existing entries when
// glyph.md is already present.
func NewCatalog(fs fsx.FS, glyphDir string) *Catalog {
	c := &Catalog{
		fs:       fs,
		path:     filepath.Join(glyphDir, CatalogFile),
		sections: make(map[string][]string),
	}
	if text, err := fs.ReadText(c.path); err == nil {
		c.parse(text)
	}
	return c
}

func (c *Catalog) parse(text string) {
	var current string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "## "):
			current = strings.TrimPrefix(trimmed, "## ")
		case strings.HasPrefix(trimmed, "- ") && current != "":
			c.Add(current, strings.TrimPrefix(trimmed, "- "))
		}
	}
}

// Add appends item to section unless it is already present.
func (c *Catalog) Add(section, item string) {
	item = strings.TrimSpace(item)
	if item == "" {
		return
	}
	for _, existing := range c.sections[section] {
		if existing == item {
			return
		}
	}
	c.sections[section] = append(c.sections[section], item)
}

// AddInsight records a behavior observation about the system.
func (c *Catalog) AddInsight(text string) {
	c.Add(SectionInsights, text)
}

// AddPage records a discovered page.
func (c *Catalog) AddPage(url, title string) {
	if title == "" {
		c.Add(SectionPages, url)
		return
	}
	c.Add(SectionPages, fmt.Sprintf("%s (%s)", url, title))
}

// AddSelector records a selector that proved to work.
func (c *Catalog) AddSelector(label, selector string) {
	c.Add(SectionSelectors, fmt.Sprintf("%s: `%s`", label, selector))
}

// AddFailure records a failure and what resolved it.
func (c *Catalog) AddFailure(problem, solution string) {
	c.Add(SectionFailures, fmt.Sprintf("%s → %s", problem, solution))
}

// SetBuildLayers replaces the build layers section with the current layering.
func (c *Catalog) SetBuildLayers(layers [][]string) {
	items := make([]string, 0, len(layers))
	for i, layer := range layers {
		items = append(items, fmt.Sprintf("Layer %d: %s", i+1, strings.Join(layer, ", ")))
	}
	c.sections[SectionLayers] = items
}

// Items returns a copy of the entries in section.
func (c *Catalog) Items(section string) []string {
	out := make([]string, len(c.sections[section]))
	copy(out, c.sections[section])
	return out
}

// Markdown renders the catalog document.
func (c *Catalog) Markdown() string {
	var b strings.Builder
	b.WriteString("# GlyphQA System Catalog\n")
	fmt.Fprintf(&b, "*Last updated: %s*\n", time.Now().Format(time.RFC3339))

	rendered := make(map[string]bool, len(sectionOrder))
	for _, section := range sectionOrder {
		c.renderSection(&b, section)
		rendered[section] = true
	}

	extras := make([]string, 0)
	for section := range c.sections {
		if !rendered[section] {
			extras = append(extras, section)
		}
	}
	sort.Strings(extras)
	for _, section := range extras {
		c.renderSection(&b, section)
	}

	return b.String()
}

func (c *Catalog) renderSection(b *strings.Builder, section string) {
	fmt.Fprintf(b, "\n## %s\n", section)
	for _, item := range c.sections[section] {
		fmt.Fprintf(b, "- %s\n", item)
	}
}

// Save writes the catalog to glyph.md.
func (c *Catalog) Save() error {
	if err := c.fs.WriteText(c.path, c.Markdown()); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

// ResetCatalog replaces glyph.md with the empty section skeleton.
func ResetCatalog(fs fsx.FS, glyphDir string) error {
	empty := &Catalog{fs: fs, path: filepath.Join(glyphDir, CatalogFile), sections: make(map[string][]string)}
	return empty.Save()
}
