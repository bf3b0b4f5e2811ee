package dbpedia

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/search"
)

const (
	// maxIngredients caps the ingredients listed per remote result.
	maxIngredients = 10

	// abstractLimit is the length, in characters, an abstract is cut to.
	abstractLimit = 300

	// NoDescription is used when a resource has neither description nor abstract.
	NoDescription = "Sin descripción disponible"
)

// Abstract is the long description and picture of one resource.
type Abstract struct {
	URI       string `json:"uri"`
	Abstract  string `json:"abstract"`
	Thumbnail string `json:"thumbnail"`
}

// Search looks up resources whose English or Spanish label contains term,
// returning at most limit results. A non-positive limit uses DefaultLimit.
// Results keep the order in which the endpoint first returned them.
func (c *Client) Search(ctx context.Context, term string, limit int) ([]*search.Result, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptyTerm
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	start := time.Now()
	rows, err := c.query(ctx, buildSearchQuery(term))
	if err != nil {
		return nil, err
	}

	results := groupRows(rows, limit)
	c.logger.Debug("dbpedia search completed",
		"term", term,
		"rows", len(rows),
		"results", len(results),
		"duration", time.Since(start),
	)
	return results, nil
}

// groupRows folds per-ingredient rows into one result per resource.
func groupRows(rows []row, limit int) []*search.Result {
	var order []string
	byURI := make(map[string]*search.Result)

	for _, r := range rows {
		uri := r["dessert"].Value
		if uri == "" {
			continue
		}
		res, ok := byURI[uri]
		if !ok {
			res = search.NewResult(search.KindInstance, search.SourceDBpedia)
			res.Name = r["label"].Value
			res.URI = uri
			res.DBpediaURI = uri
			byURI[uri] = res
			order = append(order, uri)
		}

		// A short description wins over a truncated abstract.
		if d := r["description"].Value; d != "" {
			res.Description = d
		} else if a := r["abstract"].Value; a != "" && res.Description == "" {
			res.Description = truncate(a, abstractLimit)
		}

		if names := r["ingredientName"].Value; names != "" {
			for _, name := range strings.Split(names, ",") {
				res.Ingredients = appendIngredient(res.Ingredients, strings.TrimSpace(name))
			}
		}
		if label := r["ingredientLabel"].Value; label != "" {
			res.Ingredients = appendIngredient(res.Ingredients, label)
		} else if ing := r["ingredient"].Value; ing != "" {
			res.Ingredients = appendIngredient(res.Ingredients, nameFromURI(ing))
		}
	}

	if len(order) > limit {
		order = order[:limit]
	}
	results := make([]*search.Result, 0, len(order))
	for _, uri := range order {
		res := byURI[uri]
		if len(res.Ingredients) > maxIngredients {
			res.Ingredients = res.Ingredients[:maxIngredients]
		}
		if res.Description == "" {
			res.Description = NoDescription
		}
		results = append(results, res)
	}
	return results
}

// Fetch returns the abstract and thumbnail of uri in the client's language.
// A resource without an abstract yields an empty Abstract, not an error.
func (c *Client) Fetch(ctx context.Context, uri string) (*Abstract, error) {
	q, err := buildFetchQuery(uri, c.language)
	if err != nil {
		return nil, err
	}
	rows, err := c.query(ctx, q)
	if err != nil {
		return nil, err
	}

	out := &Abstract{URI: uri}
	if len(rows) > 0 {
		out.Abstract = rows[0]["abstract"].Value
		out.Thumbnail = rows[0]["thumbnail"].Value
	}
	return out, nil
}

func appendIngredient(list []string, name string) []string {
	if name == "" {
		return list
	}
	for _, have := range list {
		if have == name {
			return list
		}
	}
	return append(list, name)
}

// nameFromURI turns http://dbpedia.org/resource/Brown_sugar into "Brown sugar".
func nameFromURI(uri string) string {
	uri = strings.TrimRight(uri, "/")
	if i := strings.LastIndex(uri, "/"); i >= 0 {
		uri = uri[i+1:]
	}
	return strings.ReplaceAll(uri, "_", " ")
}

// truncate cuts s to n characters followed by "..." when it is longer.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
