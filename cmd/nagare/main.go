// Package main is the nagare CLI entry point.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/nagare/internal/config"
	"github.com/hyperjump/nagare/internal/embedding"
	"github.com/hyperjump/nagare/internal/ingest"
	"github.com/hyperjump/nagare/internal/models"
	"github.com/hyperjump/nagare/internal/querylog"
	"github.com/hyperjump/nagare/internal/server"
	"github.com/hyperjump/nagare/internal/trends"
	"github.com/hyperjump/nagare/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/nagare/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "analyze":
		runAnalyze()
	case "similar":
		runSimilar()
	case "record":
		runRecord()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("nagare version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// Components holds initialized services.
type Components struct {
	Store    *querylog.Store
	Embedder *embedding.LazyEmbedder
	Analyzer *trends.Analyzer
}

func (c *Components) Close() {
	if c.Store != nil {
		_ = c.Store.Close()
	}
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
}

// buildEmbedder wires the configured provider behind a lazy once-guarded
// loader, so an expensive or failing backend is only touched on first use.
func buildEmbedder(cfg *config.Config) *embedding.LazyEmbedder {
	emb := cfg.Embedding
	var factory func() (embedding.Embedder, error)
	switch emb.Provider {
	case "remote":
		factory = func() (embedding.Embedder, error) {
			apiKey := ""
			if emb.RemoteAPIKeyEnv != "" {
				apiKey = os.Getenv(emb.RemoteAPIKeyEnv)
			}
			return embedding.NewRemoteEmbedder(embedding.RemoteOptions{
				BaseURL:    emb.RemoteBaseURL,
				APIKey:     apiKey,
				Model:      emb.ModelName,
				Dimensions: emb.Dimensions,
				BatchSize:  emb.BatchSize,
				CacheSize:  emb.CacheSize,
				Timeout:    time.Duration(emb.TimeoutSeconds) * time.Second,
			})
		}
	case "mock":
		factory = func() (embedding.Embedder, error) {
			return embedding.NewMockEmbedder(emb.Dimensions), nil
		}
	default:
		factory = func() (embedding.Embedder, error) {
			return embedding.NewONNXEmbedder(emb.ModelPath, emb.ModelName, emb.Dimensions, emb.MaxTokens, emb.CacheSize)
		}
	}
	return embedding.NewLazyEmbedder(emb.ModelName, emb.Dimensions, factory)
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := querylog.NewStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize query log: %w", err)
	}

	embedder := buildEmbedder(cfg)
	analyzer := trends.NewAnalyzer(embedder, logger, trends.Options{
		SimilarityThreshold: cfg.Analysis.SimilarityThreshold,
		MinClusterSize:      cfg.Analysis.MinClusterSize,
		MinClusters:         cfg.Analysis.MinClusters,
		KMin:                cfg.Analysis.KMin,
		KMax:                cfg.Analysis.KMax,
		Seed:                cfg.Analysis.Seed,
		DefaultTopN:         cfg.Analysis.DefaultTopN,
		MinSimilarityScore:  cfg.Analysis.MinSimilarityScore,
	})

	return &Components{Store: store, Embedder: embedder, Analyzer: analyzer}, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer components.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	var ingestSvc *ingest.Watcher
	if len(cfg.Ingest.Directories) > 0 {
		ingestOpts := []ingest.Option{}
		if debugMode {
			ingestOpts = append(ingestOpts, ingest.WithLogger(logger))
		}
		ingestSvc = ingest.NewWatcher(cfg.Ingest.Directories, cfg.Ingest.Extensions, components.Store, ingestOpts...)
		if err := ingestSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start ingest watcher", zap.Error(err))
		}
		ingestSvc.SyncExistingFiles(watchCtx)
	}

	srv := server.NewServer(components.Analyzer, components.Store, components.Embedder, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	if ingestSvc != nil {
		ingestSvc.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func runAnalyze() {
	fs := flag.NewFlagSet("analyze", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	days := fs.Int("days", 30, "days of query history to analyze")
	limit := fs.Int("limit", 10, "max categories to return")
	source := fs.String("source", "user_searches", "query source: user_searches or datasets")
	file := fs.String("file", "", "analyze queries from a newline-delimited file instead of the query log")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	components, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize", zap.Error(err))
	}
	defer components.Close()

	ctx := context.Background()
	var records []models.QueryRecord
	if *file != "" {
		queries, err := readQueriesFile(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read queries file: %v\n", err)
			os.Exit(1)
		}
		for _, q := range queries {
			records = append(records, models.QueryRecord{Query: q})
		}
	} else if *source == "datasets" {
		records, err = components.Store.DatasetQueries(ctx)
	} else {
		records, err = components.Store.RecentQueries(ctx, *days)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load queries: %v\n", err)
		os.Exit(1)
	}

	result := components.Analyzer.AnalyzeRecords(ctx, records, *limit)
	if *outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("method:          %s\n", result.Method)
	fmt.Printf("total_queries:   %d\n", result.AnalysisStats.TotalQueries)
	fmt.Printf("unique_queries:  %d\n", result.AnalysisStats.UniqueQueries)
	fmt.Printf("clusters:        %d\n", result.AnalysisStats.ClustersCreated)
	fmt.Println()
	for i, cat := range result.TrendingCategories {
		fmt.Printf("%2d. %s  (%d queries, %.1f%%)\n", i+1, cat.CategoryName, cat.QueryCount, cat.PercentageOfTotal)
		fmt.Printf("    representative: %s\n", utils.Truncate(cat.RepresentativeQuery, 80))
		if len(cat.TopKeywords) > 0 {
			fmt.Printf("    keywords: %s\n", strings.Join(cat.TopKeywords, ", "))
		}
	}
}

// readQueriesFile reads newline-delimited queries, skipping blank lines.
func readQueriesFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var queries []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			queries = append(queries, line)
		}
	}
	return queries, scanner.Err()
}

func runSimilar() {
	fs := flag.NewFlagSet("similar", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	topK := fs.Int("top-k", 10, "number of similar queries to return")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: nagare similar [flags] <target query>")
		os.Exit(1)
	}
	target := strings.TrimSpace(strings.Join(fs.Args(), " "))

	body, _ := json.Marshal(models.SimilarRequest{TargetQuery: target, TopK: *topK})
	resp, err := http.Post(*serverURL+"/api/v1/trending/similar", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Similar search failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	var out struct {
		TargetQuery    string                      `json:"target_query"`
		SimilarQueries []models.SimilarQueryResult `json:"similar_queries"`
		TotalFound     int                         `json:"total_found"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("similar to %q (%d found):\n", out.TargetQuery, out.TotalFound)
	for _, sq := range out.SimilarQueries {
		fmt.Printf("%2d. %-60s %.3f\n", sq.Rank, utils.Truncate(sq.Query, 60), sq.SimilarityScore)
	}
}

func runRecord() {
	fs := flag.NewFlagSet("record", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: nagare record [flags] <query>")
		os.Exit(1)
	}
	query := strings.TrimSpace(strings.Join(fs.Args(), " "))

	body, _ := json.Marshal(models.RecordRequest{Query: query})
	resp, err := http.Post(*serverURL+"/api/v1/queries", "application/json", bytes.NewReader(body))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Request failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Record failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}
	fmt.Printf("Recorded: %s\n", query)
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	serverURL := fs.String("server", "http://localhost:8080", "server URL")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	resp, err := http.Get(*serverURL + "/api/v1/status")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		fmt.Fprintf(os.Stderr, "Status failed (%d): %s\n", resp.StatusCode, string(b))
		os.Exit(1)
	}

	if *outputFormat == "json" {
		_, _ = io.Copy(os.Stdout, resp.Body)
		fmt.Println()
		return
	}
	var status struct {
		QueriesLogged int64                  `json:"queries_logged"`
		Config        map[string]interface{} `json:"config"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		fmt.Fprintf(os.Stderr, "Parse failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("queries_logged:  %d\n", status.QueriesLogged)
	for k, v := range status.Config {
		fmt.Printf("%s: %v\n", k, v)
	}
}

func printUsage() {
	fmt.Println(`nagare - Trending search query analysis service

Usage:
  nagare server [flags]             Start the HTTP server
  nagare analyze [flags]            Run trending analysis over the query log
  nagare similar [flags] <query>    Find similar logged queries (via server)
  nagare record [flags] <query>     Log a search query (via server)
  nagare status [flags]             Show service status (via server)
  nagare version                    Show version
  nagare help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/nagare/config.yaml)
  --debug            Enable debug logging

Analyze Flags:
  --config string    Config file path
  --days int         Days of query history to analyze (default: 30)
  --limit int        Max categories to return (default: 10)
  --source string    Query source: user_searches or datasets (default: user_searches)
  --file string      Analyze a newline-delimited file of queries instead
  --output string    Output format: text or json (default: text)

Examples:
  nagare server
  nagare analyze --days 7 --limit 5
  nagare analyze --file queries.txt --output json
  nagare similar "nigeria gdp data"
  nagare record "lagos population census"
  nagare status`)
}
