package quiz

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed questions.json
var questionsJSON []byte

// Catalog is the static question table, grouped by language, category and
// difficulty. Loaded and validated once at startup, read-only afterwards.
type Catalog struct {
	Languages map[string][]Category `json:"languages"`
}

// Load parses the embedded question data and validates it. Any structural
// problem is a startup error: an unresolvable selection must never surface
// while a user is answering.
func Load() (*Catalog, error) {
	return Parse(questionsJSON)
}

// Parse builds a catalog from raw JSON. Split out of Load so tests can
// feed their own data.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse question catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every invariant the controller relies on: at least one
// language, non-empty groups, 2-5 options per question and an in-range
// correct option index.
func (c *Catalog) Validate() error {
	if len(c.Languages) == 0 {
		return fmt.Errorf("catalog has no languages")
	}
	for lang, cats := range c.Languages {
		if len(cats) == 0 {
			return fmt.Errorf("language %q has no categories", lang)
		}
		for _, cat := range cats {
			if cat.ID == "" {
				return fmt.Errorf("language %q has a category without an id", lang)
			}
			if len(cat.Difficulties) == 0 {
				return fmt.Errorf("category %s/%s has no difficulties", lang, cat.ID)
			}
			for _, diff := range cat.Difficulties {
				if diff.ID == "" {
					return fmt.Errorf("category %s/%s has a difficulty without an id", lang, cat.ID)
				}
				if len(diff.Questions) == 0 {
					return fmt.Errorf("question list %s/%s/%s is empty", lang, cat.ID, diff.ID)
				}
				for i, q := range diff.Questions {
					if q.Text == "" {
						return fmt.Errorf("question %d in %s/%s/%s has no text", i, lang, cat.ID, diff.ID)
					}
					if len(q.Options) < 2 || len(q.Options) > 5 {
						return fmt.Errorf("question %d in %s/%s/%s has %d options, want 2-5", i, lang, cat.ID, diff.ID, len(q.Options))
					}
					if q.Correct < 0 || q.Correct >= len(q.Options) {
						return fmt.Errorf("question %d in %s/%s/%s has correct index %d out of range", i, lang, cat.ID, diff.ID, q.Correct)
					}
				}
			}
		}
	}
	return nil
}

// HasLanguage reports whether the catalog carries questions for lang.
func (c *Catalog) HasLanguage(lang string) bool {
	_, ok := c.Languages[lang]
	return ok
}

// Categories returns the ordered category list for a language.
func (c *Catalog) Categories(lang string) ([]Category, error) {
	cats, ok := c.Languages[lang]
	if !ok {
		return nil, fmt.Errorf("unknown catalog language %q", lang)
	}
	return cats, nil
}

// Difficulties returns the ordered difficulty list for a category.
func (c *Catalog) Difficulties(lang, category string) ([]Difficulty, error) {
	cats, err := c.Categories(lang)
	if err != nil {
		return nil, err
	}
	for _, cat := range cats {
		if cat.ID == category {
			return cat.Difficulties, nil
		}
	}
	return nil, fmt.Errorf("unknown category %q for language %q", category, lang)
}

// QuestionsFor resolves a selection to its ordered question list.
func (c *Catalog) QuestionsFor(lang, category, difficulty string) ([]Question, error) {
	diffs, err := c.Difficulties(lang, category)
	if err != nil {
		return nil, err
	}
	for _, d := range diffs {
		if d.ID == difficulty {
			return d.Questions, nil
		}
	}
	return nil, fmt.Errorf("unknown difficulty %q in %s/%s", difficulty, lang, category)
}
