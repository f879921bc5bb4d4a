package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/mwhitford/feedrank/pkg/category"
	"github.com/mwhitford/feedrank/pkg/config"
	"github.com/mwhitford/feedrank/pkg/embedding"
	"github.com/mwhitford/feedrank/pkg/feed"
	"github.com/mwhitford/feedrank/pkg/keyword"
	"github.com/mwhitford/feedrank/pkg/rank"
	"github.com/mwhitford/feedrank/pkg/scrape"
	"github.com/mwhitford/feedrank/pkg/similarity"
	"github.com/mwhitford/feedrank/pkg/store"
	"github.com/mwhitford/feedrank/pkg/types"
)

// Server serves the ranked HTML report and the JSON/management
// endpoints around it.
type Server struct {
	cfg     *config.Config
	store   *store.Store
	cache   *embedding.Cache
	engine  *rank.Engine
	fetcher *feed.Fetcher
	scraper *scrape.Scraper

	reportTmpl   *template.Template
	databaseTmpl *template.Template
	feedsTmpl    *template.Template
}

func New(cfg *config.Config, st *store.Store, cache *embedding.Cache, engine *rank.Engine, fetcher *feed.Fetcher, scraper *scrape.Scraper) *Server {
	funcs := template.FuncMap{
		"join": strings.Join,
	}

	return &Server{
		cfg:          cfg,
		store:        st,
		cache:        cache,
		engine:       engine,
		fetcher:      fetcher,
		scraper:      scraper,
		reportTmpl:   template.Must(template.New("report").Funcs(funcs).Parse(reportTemplate)),
		databaseTmpl: template.Must(template.New("database").Parse(databaseTemplate)),
		feedsTmpl:    template.Must(template.New("feeds").Parse(feedsTemplate)),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleReport)
	mux.HandleFunc("/articles", s.handleArticles)
	mux.HandleFunc("/database", s.handleDatabase)
	mux.HandleFunc("/feeds", s.handleFeeds)
	mux.HandleFunc("/experiment/search", s.handleSearch)
	mux.HandleFunc("/scrape", s.handleScrape)
	return mux
}

type categoryView struct {
	Index         int
	Name          string
	Keywords      []string
	AllKeywords   []string
	Subcategories []category.Subcategory
	Rows          []types.ScoredArticle
}

type reportView struct {
	Feeds      []string
	Categories []categoryView
}

// handleReport runs the full pipeline for one request: fetch feeds,
// build and encode categories, rank, render.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	ctx := r.Context()
	params := r.URL.Query()

	feedUrls := params["feed"]
	if len(feedUrls) == 0 {
		feedUrls = s.cfg.Feeds
	}

	categories := category.FromParams(params, s.cfg.Categories)

	articles, err := s.fetcher.Fetch(ctx, feedUrls)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error fetching feeds: %v", err), http.StatusInternalServerError)
		return
	}
	s.touchFeeds(ctx, feedUrls)

	// Category embeddings are request-fatal; a report with missing
	// category vectors would be meaningless.
	if err := category.Encode(ctx, s.cache, categories); err != nil {
		http.Error(w, fmt.Sprintf("Error encoding categories: %v", err), http.StatusInternalServerError)
		return
	}

	results, err := s.engine.Rank(ctx, articles, categories)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error ranking articles: %v", err), http.StatusInternalServerError)
		return
	}

	view := reportView{Feeds: feedUrls}
	for i := range categories {
		view.Categories = append(view.Categories, categoryView{
			Index:         i + 1,
			Name:          categories[i].Name,
			Keywords:      categories[i].Keywords,
			AllKeywords:   categories[i].AllKeywords(),
			Subcategories: categories[i].Subcategories,
			Rows:          results[i],
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.reportTmpl.Execute(w, view); err != nil {
		log.Errorf("Failed to render report: %v", err)
	}
}

func (s *Server) touchFeeds(ctx context.Context, urls []string) {
	now := time.Now()
	for _, url := range urls {
		if err := s.store.TouchFeed(ctx, url, now); err != nil {
			log.WithFields(log.Fields{"url": url}).Debugf("Failed to touch feed: %v", err)
		}
	}
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := s.store.ListArticles(r.Context())
	if err != nil {
		http.Error(w, "Error retrieving articles", http.StatusInternalServerError)
		return
	}

	type articleJSON struct {
		Title     string    `json:"title"`
		Link      string    `json:"link"`
		Image     string    `json:"image,omitempty"`
		Published time.Time `json:"published"`
	}

	out := make([]articleJSON, 0, len(articles))
	for _, a := range articles {
		out = append(out, articleJSON{Title: a.Title, Link: a.Link, Image: a.Image, Published: a.Published})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleDatabase(w http.ResponseWriter, r *http.Request) {
	articles, err := s.store.ListArticles(r.Context())
	if err != nil {
		http.Error(w, "Error retrieving articles", http.StatusInternalServerError)
		return
	}

	type row struct {
		Title            string
		Link             string
		Image            string
		Published        string
		EmbeddingPreview string
	}

	rows := make([]row, 0, len(articles))
	for _, a := range articles {
		r := row{Title: a.Title, Link: a.Link, Image: a.Image}
		if !a.Published.IsZero() {
			r.Published = a.Published.Format(time.RFC3339)
		}
		if len(a.Embedding) > 0 {
			n := min(3, len(a.Embedding))
			parts := make([]string, n)
			for i := 0; i < n; i++ {
				parts[i] = fmt.Sprintf("%.2f", a.Embedding[i])
			}
			r.EmbeddingPreview = strings.Join(parts, ", ") + "..."
		}
		rows = append(rows, r)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.databaseTmpl.Execute(w, rows); err != nil {
		log.Errorf("Failed to render database page: %v", err)
	}
}

func (s *Server) handleFeeds(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	switch r.Method {
	case http.MethodPost:
		url := r.FormValue("url")
		if url == "" {
			http.Error(w, "Missing url", http.StatusBadRequest)
			return
		}
		if err := s.store.AddFeed(ctx, url); err != nil {
			http.Error(w, "Error adding feed", http.StatusInternalServerError)
			return
		}
		http.Redirect(w, r, "/feeds", http.StatusFound)

	case http.MethodDelete:
		id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid id", http.StatusBadRequest)
			return
		}
		if err := s.store.DeleteFeed(ctx, id); err != nil {
			http.Error(w, "Error deleting feed", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, "ok")

	default:
		feeds, err := s.store.ListFeeds(ctx)
		if err != nil {
			http.Error(w, "Error retrieving feeds", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.feedsTmpl.Execute(w, feeds); err != nil {
			log.Errorf("Failed to render feeds page: %v", err)
		}
	}
}

type searchResult struct {
	Title      string   `json:"title"`
	Link       string   `json:"link"`
	Similarity *float32 `json:"similarity"`
	Match      bool     `json:"match"`
}

// handleSearch scores stored (or freshly fetched) articles against a
// free-text query plus keywords and returns the matches as JSON.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params := r.URL.Query()

	text := params.Get("text")
	keywords := category.SplitKeywords(params.Get("keywords"))
	threshold, _ := strconv.ParseFloat(params.Get("threshold"), 32)

	var articles []types.Article
	var err error
	if feedUrls := params["feed"]; len(feedUrls) > 0 {
		articles, err = s.fetcher.Fetch(ctx, feedUrls)
		if err == nil {
			articles = s.embedAll(ctx, articles)
		}
	} else {
		articles, err = s.store.ListArticles(ctx)
	}
	if err != nil {
		writeJSONError(w, err)
		return
	}

	var queryEmb []float32
	if text != "" {
		queryEmb, err = s.cache.ForText(ctx, text)
		if err != nil {
			writeJSONError(w, err)
			return
		}
	}

	results := searchArticles(articles, queryEmb, keywords)

	filtered := make([]searchResult, 0, len(results))
	for _, res := range results {
		if res.Similarity == nil || *res.Similarity >= float32(threshold) {
			filtered = append(filtered, res)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"total":    len(results),
		"filtered": len(filtered),
		"results":  filtered,
	})
}

// embedAll attaches embeddings to fetched articles, dropping none;
// an article whose embedding fails keeps a nil vector.
func (s *Server) embedAll(ctx context.Context, articles []types.Article) []types.Article {
	for i := range articles {
		emb, err := s.cache.ForArticle(ctx, articles[i])
		if err != nil {
			log.WithFields(log.Fields{"link": articles[i].Link}).Warnf("Search embedding failed: %v", err)
			continue
		}
		articles[i].Embedding = emb
	}
	return articles
}

func searchArticles(articles []types.Article, queryEmb []float32, keywords []string) []searchResult {
	results := make([]searchResult, 0, len(articles))
	for _, a := range articles {
		res := searchResult{Title: a.Title, Link: a.Link}

		if queryEmb != nil && a.Embedding != nil {
			if sim, err := similarity.Cosine(a.Embedding, queryEmb); err == nil {
				res.Similarity = &sim
			}
		}
		if len(keywords) > 0 {
			res.Match = keyword.Matched(a.Title, keywords)
		}

		results = append(results, res)
	}

	// Highest similarity first; articles without a score sink.
	sort.SliceStable(results, func(i, j int) bool {
		return simValue(results[i]) > simValue(results[j])
	})

	return results
}

func simValue(r searchResult) float32 {
	if r.Similarity == nil {
		return 0
	}
	return *r.Similarity
}

func writeJSONError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		http.Error(w, "Missing url", http.StatusBadRequest)
		return
	}

	out, err := s.scraper.ToRSS(r.Context(), target)
	if err != nil {
		http.Error(w, fmt.Sprintf("Error scraping page: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write(out)
}
