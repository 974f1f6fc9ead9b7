// Package sitetypes defines the example content types served by the engine:
// recipes, featured recipes (which reference recipes by slug) and notes.
//
// These exist to exercise the generic content-type descriptor; the engine
// itself never hard-codes a type.
package sitetypes

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rogermparent/content-engine/internal/content"
	"github.com/rogermparent/content-engine/internal/index"
)

// Site bundles the content type configs with their reference wiring.
type Site struct {
	Recipes         *content.Config
	FeaturedRecipes *content.Config
	Notes           *content.Config
}

// New builds the site's content type configs.
func New() *Site {
	recipes := &content.Config{
		ContentType:    "recipe",
		DataDirectory:  "recipes/data",
		IndexDirectory: "recipes/index",
		DataFilename:   "recipe.json",
		BuildIndexValue: func(doc content.Document) map[string]any {
			v := map[string]any{"name": content.DocString(doc, "name")}
			if img := content.DocString(doc, "image"); img != "" {
				v["image"] = img
			}
			return v
		},
		BuildIndexKey: func(slug string, doc content.Document) index.Key {
			return index.Key{Date: content.DocDate(doc), Slug: slug}
		},
		CreateDefaultSlug: func(doc content.Document) string {
			return Slugify(content.DocString(doc, "name"))
		},
	}

	featured := &content.Config{
		ContentType:    "featured-recipe",
		DataDirectory:  "featured-recipes/data",
		IndexDirectory: "featured-recipes/index",
		DataFilename:   "featured-recipe.json",
		BuildIndexValue: func(doc content.Document) map[string]any {
			return map[string]any{"recipe": content.DocString(doc, "recipe")}
		},
		BuildIndexKey: func(slug string, doc content.Document) index.Key {
			return index.Key{Date: content.DocDate(doc), Slug: slug}
		},
	}

	notes := &content.Config{
		ContentType:    "note",
		DataDirectory:  "notes/data",
		IndexDirectory: "notes/index",
		DataFilename:   "note.json",
		BuildIndexValue: func(doc content.Document) map[string]any {
			return map[string]any{"summary": content.DocString(doc, "summary")}
		},
		BuildIndexKey: func(slug string, doc content.Document) index.Key {
			return index.Key{Date: content.DocDate(doc), Slug: slug}
		},
		CreateDefaultSlug: func(doc content.Document) string {
			d := content.DocDate(doc)
			if d == 0 {
				d = time.Now().UnixMilli()
			}
			return fmt.Sprintf("note-%d", d)
		},
	}

	// A featured recipe denormalizes the referenced slug into its index
	// value, so renaming a recipe cascades through the index-scan strategy.
	recipes.ReferencedBy = []content.ReferenceSpec{
		{Config: featured, IndexField: "recipe"},
	}

	return &Site{Recipes: recipes, FeaturedRecipes: featured, Notes: notes}
}

// All returns every content type config.
func (s *Site) All() []*content.Config {
	return []*content.Config{s.Recipes, s.FeaturedRecipes, s.Notes}
}

// ByName looks a config up by its content type name.
func (s *Site) ByName(name string) (*content.Config, bool) {
	for _, cfg := range s.All() {
		if cfg.ContentType == name {
			return cfg, true
		}
	}
	return nil, false
}

// Slugify lowercases s and collapses every run of non-alphanumeric
// characters into a single hyphen.
func Slugify(s string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastHyphen = false
		} else if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
