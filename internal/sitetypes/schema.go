package sitetypes

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// Recipe is the document shape stored by the recipe content type. The engine
// treats documents as schemaless maps; this struct exists for editors and
// validation tooling via DocumentSchema.
type Recipe struct {
	Name         string   `json:"name" jsonschema:"description=Display name of the recipe"`
	Date         int64    `json:"date" jsonschema:"description=Publication date in epoch milliseconds"`
	Image        string   `json:"image,omitempty" jsonschema:"description=Filename of the recipe's uploaded image"`
	Summary      string   `json:"summary,omitempty" jsonschema:"description=Short description shown in list views"`
	Ingredients  []string `json:"ingredients,omitempty" jsonschema:"description=Ingredient lines"`
	Instructions []string `json:"instructions,omitempty" jsonschema:"description=Preparation steps in order"`
}

// FeaturedRecipe is the document shape stored by the featured-recipe content
// type. Recipe holds the slug of the promoted recipe and is rewritten by the
// reference cascade when that recipe is renamed.
type FeaturedRecipe struct {
	Recipe string `json:"recipe" jsonschema:"description=Slug of the featured recipe"`
	Date   int64  `json:"date" jsonschema:"description=Date featured, in epoch milliseconds"`
}

// Note is the document shape stored by the note content type.
type Note struct {
	Summary string `json:"summary,omitempty" jsonschema:"description=One-line summary"`
	Body    string `json:"body,omitempty" jsonschema:"description=Note body in markdown"`
	Date    int64  `json:"date" jsonschema:"description=Creation date in epoch milliseconds"`
}

// DocumentSchema returns the JSON Schema for the named content type's
// document, pretty-printed.
func DocumentSchema(contentType string) ([]byte, error) {
	var v any
	switch contentType {
	case "recipe":
		v = &Recipe{}
	case "featured-recipe":
		v = &FeaturedRecipe{}
	case "note":
		v = &Note{}
	default:
		return nil, fmt.Errorf("no document schema for content type %q", contentType)
	}
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(v)
	return json.MarshalIndent(schema, "", "  ")
}
