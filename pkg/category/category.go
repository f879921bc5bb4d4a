package category

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/mwhitford/feedrank/pkg/config"
)

// Category is a topical bucket to score articles against. Built
// fresh per ranking request from parameters merged with defaults;
// never persisted.
type Category struct {
	Name          string
	Keywords      []string
	Subcategories []Subcategory

	Embedding []float32
}

type Subcategory struct {
	Title       string
	Description string
	Keywords    []string

	Embedding []float32
}

// Text is the string encoded for the subcategory embedding.
func (s Subcategory) Text() string {
	return fmt.Sprintf("%s\n\n%s", s.Title, s.Description)
}

// AllKeywords returns the union of the category keywords and every
// subcategory's keywords, deduplicated, first-seen order.
func (c *Category) AllKeywords() []string {
	seen := make(map[string]bool)
	var all []string

	add := func(keywords []string) {
		for _, kw := range keywords {
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			all = append(all, kw)
		}
	}

	add(c.Keywords)
	for _, sub := range c.Subcategories {
		add(sub.Keywords)
	}

	return all
}

// FromConfig converts configured default categories into the request
// model.
func FromConfig(defaults []config.Category) []Category {
	categories := make([]Category, len(defaults))
	for i, def := range defaults {
		subs := make([]Subcategory, len(def.Subcategories))
		for j, s := range def.Subcategories {
			subs[j] = Subcategory{
				Title:       s.Title,
				Description: s.Description,
				Keywords:    append([]string(nil), s.Keywords...),
			}
		}
		categories[i] = Category{
			Name:          def.Name,
			Keywords:      append([]string(nil), def.Keywords...),
			Subcategories: subs,
		}
	}

	return categories
}

// FromParams builds the category list for one request. An explicit
// parameter fully replaces the default for that field; supplying any
// subcategory title discards the entire default subcategory list for
// that category. Parameter names are 1-based: category1,
// subcategory1Title, subcategory1Desc, subcategory1Keywords,
// catKeywords1.
func FromParams(params url.Values, defaults []config.Category) []Category {
	categories := FromConfig(defaults)

	for i := range categories {
		idx := i + 1

		if name := params.Get(fmt.Sprintf("category%d", idx)); name != "" {
			categories[i].Name = name
		}

		titles := params[fmt.Sprintf("subcategory%dTitle", idx)]
		if len(titles) > 0 {
			descs := params[fmt.Sprintf("subcategory%dDesc", idx)]
			keywords := params[fmt.Sprintf("subcategory%dKeywords", idx)]

			subs := make([]Subcategory, 0, len(titles))
			for j, title := range titles {
				sub := Subcategory{Title: title}
				if j < len(descs) {
					sub.Description = descs[j]
				}
				if j < len(keywords) {
					sub.Keywords = SplitKeywords(keywords[j])
				}
				subs = append(subs, sub)
			}
			categories[i].Subcategories = subs
		}

		if kw := params.Get(fmt.Sprintf("catKeywords%d", idx)); kw != "" {
			categories[i].Keywords = SplitKeywords(kw)
		}
	}

	return categories
}

// SplitKeywords parses a comma-separated keyword string, trimming
// whitespace and dropping empty tokens.
func SplitKeywords(s string) []string {
	var keywords []string
	for _, kw := range strings.Split(s, ",") {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		keywords = append(keywords, kw)
	}

	return keywords
}

// Embedder obtains an embedding for a text. Satisfied by
// embedding.Cache.
type Embedder interface {
	ForText(ctx context.Context, text string) ([]float32, error)
}

// Encode computes category and subcategory embeddings, dispatching
// every text concurrently and awaiting them jointly. Any failure is
// fatal: a report must never be built on partial category embeddings.
func Encode(ctx context.Context, embedder Embedder, categories []Category) error {
	log.WithFields(log.Fields{"categories": len(categories)}).Debug("Encoding categories")

	g, ctx := errgroup.WithContext(ctx)

	for i := range categories {
		g.Go(func() error {
			emb, err := embedder.ForText(ctx, categories[i].Name)
			if err != nil {
				return fmt.Errorf("failed to encode category %q: %w", categories[i].Name, err)
			}
			categories[i].Embedding = emb
			return nil
		})

		for j := range categories[i].Subcategories {
			g.Go(func() error {
				sub := &categories[i].Subcategories[j]
				emb, err := embedder.ForText(ctx, sub.Text())
				if err != nil {
					return fmt.Errorf("failed to encode subcategory %q: %w", sub.Title, err)
				}
				sub.Embedding = emb
				return nil
			})
		}
	}

	return g.Wait()
}
