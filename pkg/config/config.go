package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen         string        `yaml:"listen"`
	DBPath         string        `yaml:"db_path"`
	EmbeddingModel string        `yaml:"embedding_model"`
	PullInterval   time.Duration `yaml:"pull_interval"`
	Feeds          []string      `yaml:"feeds"`
	Categories     []Category    `yaml:"categories"`
}

type Category struct {
	Name          string        `yaml:"name"`
	Keywords      []string      `yaml:"keywords"`
	Subcategories []Subcategory `yaml:"subcategories"`
}

type Subcategory struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
}

// Default returns the built-in configuration: example business-news
// categories and feeds. Used when no config file is given.
func Default() *Config {
	return &Config{
		Listen:         ":3000",
		DBPath:         "feedrank.db",
		EmbeddingModel: "text-embedding-3-small",
		PullInterval:   5 * time.Minute,
		Feeds: []string{
			"https://news.google.com/rss/search?q=Private+Equity",
			"https://www.theglobeandmail.com/arc/outboundfeeds/rss/category/business",
			"https://www.cbc.ca/webfeed/rss/rss-business",
		},
		Categories: []Category{
			{
				Name:     "Private equity acquisitions",
				Keywords: []string{"inflation"},
				Subcategories: []Subcategory{
					{
						Title:       "Middle market deals",
						Description: "News about private equity companies acquiring firms in North America, focused on middle market or lower middle market firms.",
						Keywords:    []string{"acquired", "private equity"},
					},
					{
						Title:       "Industrial automation",
						Description: "Robot and PLC programming for the industrial automation space, primarily large automation projects in the automotive industry including assembly and component plants.",
						Keywords:    []string{"automation", "assembly plant"},
					},
				},
			},
			{
				Name:     "Macro economy and markets",
				Keywords: []string{"trade", "interest"},
				Subcategories: []Subcategory{
					{
						Title:       "Central bank policy",
						Description: "Interest rate decisions, inflation reports and monetary policy announcements from central banks.",
						Keywords:    []string{"rate hike", "central bank"},
					},
				},
			},
		},
	}
}

// New loads the config file and fills unset fields from Default.
func New(configFile string) (*Config, error) {
	if configFile == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	def := Default()
	if config.Listen == "" {
		config.Listen = def.Listen
	}
	if config.DBPath == "" {
		config.DBPath = def.DBPath
	}
	if config.EmbeddingModel == "" {
		config.EmbeddingModel = def.EmbeddingModel
	}
	if config.PullInterval == 0 {
		config.PullInterval = def.PullInterval
	}
	if len(config.Feeds) == 0 {
		config.Feeds = def.Feeds
	}
	if len(config.Categories) == 0 {
		config.Categories = def.Categories
	}

	return &config, nil
}
