package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	nested "github.com/antonfisher/nested-logrus-formatter"
	log "github.com/sirupsen/logrus"

	"github.com/mwhitford/feedrank/pkg/category"
	"github.com/mwhitford/feedrank/pkg/config"
	"github.com/mwhitford/feedrank/pkg/embedding"
	"github.com/mwhitford/feedrank/pkg/feed"
	"github.com/mwhitford/feedrank/pkg/keyword"
	"github.com/mwhitford/feedrank/pkg/llm"
	"github.com/mwhitford/feedrank/pkg/notify"
	"github.com/mwhitford/feedrank/pkg/rank"
	"github.com/mwhitford/feedrank/pkg/report"
	"github.com/mwhitford/feedrank/pkg/scrape"
	"github.com/mwhitford/feedrank/pkg/server"
	"github.com/mwhitford/feedrank/pkg/signal"
	"github.com/mwhitford/feedrank/pkg/similarity"
	"github.com/mwhitford/feedrank/pkg/store"
)

var (
	configFile string
	listenAddr string
	llmType    llm.ClientType = llm.OpenAI
	enrich     bool
)

var rootCmd = &cobra.Command{
	Use:   "feedrank",
	Short: "RSS relevance ranking",
	Long: `feedrank fetches RSS feeds, scores articles against topical
categories using embeddings and keywords, and serves a ranked report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ranked HTML report",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Run one ranking pass and print the report to the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		return rankOnce()
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll feeds, warm the embedding cache, notify on strong matches",
	RunE: func(cmd *cobra.Command, args []string) error {
		return watch()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&listenAddr, "listen", "", "listen address, overrides config")
	rootCmd.PersistentFlags().Var(&llmType, "llm-client", "embedding provider (openai or ollama)")
	rootCmd.PersistentFlags().BoolVar(&enrich, "enrich-scrape", false, "fill scraped item descriptions via readability")

	rootCmd.AddCommand(serveCmd, rankCmd, watchCmd)

	log.SetOutput(os.Stdout)
	log.SetLevel(log.DebugLevel)
	log.SetFormatter(&nested.Formatter{
		HideKeys:         true,
		TimestampFormat:  "2006-01-02 15:04:05",
		NoUppercaseLevel: true,
	})
}

type app struct {
	cfg     *config.Config
	store   *store.Store
	cache   *embedding.Cache
	engine  *rank.Engine
	fetcher *feed.Fetcher
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.New(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to create config: %w", err)
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}

	llmClient, err := llm.NewClient(ctx, llmType, cfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	cache := embedding.NewCache(llmClient, st)

	return &app{
		cfg:     cfg,
		store:   st,
		cache:   cache,
		engine:  rank.New(cache),
		fetcher: feed.NewFetcher(),
	}, nil
}

func serve() error {
	log.Info("Starting feedrank")

	ctx, cancel := signal.SetupHandler()
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.store.Close()

	srv := &http.Server{
		Addr:    a.cfg.Listen,
		Handler: server.New(a.cfg, a.store, a.cache, a.engine, a.fetcher, scrape.New(enrich)).Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Infof("Listening on %s", a.cfg.Listen)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	log.Info("Shutting down feedrank")

	return nil
}

func rankOnce() error {
	ctx, cancel := signal.SetupHandler()
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.store.Close()

	articles, err := a.fetcher.Fetch(ctx, a.cfg.Feeds)
	if err != nil {
		return fmt.Errorf("failed to fetch feeds: %w", err)
	}

	categories := category.FromConfig(a.cfg.Categories)
	if err := category.Encode(ctx, a.cache, categories); err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	results, err := a.engine.Rank(ctx, articles, categories)
	if err != nil {
		return fmt.Errorf("failed to rank articles: %w", err)
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}

	out, err := r.Render(report.Markdown(categories, results))
	if err != nil {
		return err
	}
	fmt.Print(out)

	return nil
}

func watch() error {
	ctx, cancel := signal.SetupHandler()
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.store.Close()

	categories := category.FromConfig(a.cfg.Categories)
	if err := category.Encode(ctx, a.cache, categories); err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	var slack *notify.Slack
	if s, err := notify.New(); err == nil {
		slack = s
	} else {
		log.Infof("Slack notifications disabled: %v", err)
	}

	watcher := feed.NewWatcher(a.fetcher, a.cfg.Feeds, a.cfg.PullInterval, 24*time.Hour)
	watcher.Start(ctx)

	for article := range watcher.Stream() {
		articleFields := log.Fields{"title": article.Title, "link": article.Link}

		emb, err := a.cache.ForArticle(ctx, article)
		if err != nil {
			log.WithFields(articleFields).Errorf("Failed to embed article: %v", err)
			continue
		}
		article.Embedding = emb

		for i := range categories {
			cat := &categories[i]

			composite, err := compositeScore(article.Embedding, cat)
			if err != nil {
				log.WithFields(articleFields).Errorf("Failed to score article: %v", err)
				continue
			}

			hits := keyword.Match(article.Text(), cat.AllKeywords())
			if composite < 0.8 && len(hits) == 0 {
				continue
			}

			log.WithFields(articleFields).Infof("Match for %q (composite %.2f, keywords %v)", cat.Name, composite, hits)

			if slack != nil {
				msg := fmt.Sprintf("*%s*\n\nMatched category %q with composite %.2f\n\nRead more <%s|here>", article.Title, cat.Name, composite, article.Link)
				if err := slack.SendWebhook(ctx, msg); err != nil {
					log.WithFields(articleFields).Errorf("Failed to send webhook: %v", err)
				}
			}
		}
	}

	log.Info("Shutting down feedrank")

	return nil
}

func compositeScore(emb []float32, cat *category.Category) (float32, error) {
	composite, err := similarity.Cosine(emb, cat.Embedding)
	if err != nil {
		return 0, err
	}
	for _, sub := range cat.Subcategories {
		s, err := similarity.Cosine(emb, sub.Embedding)
		if err != nil {
			return 0, err
		}
		if s > composite {
			composite = s
		}
	}

	return composite, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
