// Command coursesearch runs ad-hoc searches against a configured backend:
//
//	coursesearch search "intro to biology"
//	coursesearch discover biology --availability i --page l
//	coursesearch index course_info docs.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	coursesearch "github.com/campuskit/coursesearch"
	"github.com/campuskit/coursesearch/internal/config"
	logpkg "github.com/campuskit/coursesearch/internal/logger"
	"github.com/campuskit/coursesearch/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create logger:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("coursesearch",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("backend", cfg.Elasticsearch.URL),
		zap.String("index", cfg.Elasticsearch.Index))

	client, err := newClient(cfg, logger)
	if err != nil {
		logger.Fatal("failed to create client", zap.Error(err))
	}
	defer client.Close()

	if len(os.Args) < 2 {
		usage()
	}

	ctx := context.Background()
	switch os.Args[1] {
	case "search":
		err = runSearch(ctx, client, os.Args[2:])
	case "discover":
		err = runDiscover(ctx, client, os.Args[2:])
	case "index":
		err = runIndex(ctx, client, os.Args[2:])
	case "remove":
		err = runRemove(ctx, client, os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		logger.Fatal("command failed", zap.Error(err))
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: coursesearch search|discover|index|remove ...")
	os.Exit(2)
}

func newClient(cfg config.Config, logger *zap.Logger) (*coursesearch.Client, error) {
	opts := []coursesearch.Option{
		coursesearch.WithElasticsearch(cfg.Elasticsearch.URL, cfg.Elasticsearch.Index),
		coursesearch.WithMaxBatchSize(cfg.Elasticsearch.MaxBatchSize),
		coursesearch.WithDiscoverySettings(
			cfg.Discovery.FilterFields, cfg.Discovery.FacetSize, cfg.Discovery.SearchFields),
		coursesearch.WithLogger(logger),
	}
	if cfg.Discovery.SkipEnrollmentStartFilter {
		opts = append(opts, coursesearch.WithSkipEnrollmentStartFilter())
	}
	for field, m := range cfg.FieldMappings {
		opts = append(opts, coursesearch.WithFieldMapping(field, coursesearch.FieldMapping{
			Type:   m.Type,
			Index:  m.Index,
			Format: m.Format,
		}))
	}
	if cfg.Cache.Driver == "redis" {
		opts = append(opts, coursesearch.WithRedisCache(
			cfg.Cache.Addrs, cfg.Cache.Username, cfg.Cache.Password, cfg.Cache.DB))
	}
	return coursesearch.New(opts...)
}

func runSearch(ctx context.Context, client *coursesearch.Client, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	size := fs.Int("size", 10, "page size")
	from := fs.Int("from", 0, "page offset")
	course := fs.String("course", "", "narrow to one course id")
	_ = fs.Parse(args)

	res, err := client.Search(ctx, fs.Arg(0), &coursesearch.SearchOptions{
		CourseID: *course,
		Size:     *size,
		From:     *from,
	})
	if err != nil {
		return err
	}
	return printResult(res)
}

func runDiscover(ctx context.Context, client *coursesearch.Client, args []string) error {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	size := fs.Int("size", 20, "page size")
	from := fs.Int("from", 0, "page offset")
	availability := fs.String("availability", "", "availability token: i, a, e or t")
	page := fs.String("page", "", "page position: l or d")
	primary := fs.String("classification", "", "primary classification")
	secondary := fs.String("subclassification", "", "secondary classification")
	_ = fs.Parse(args)

	res, err := client.DiscoverCourses(ctx, fs.Arg(0), &coursesearch.DiscoveryOptions{
		Size:         *size,
		From:         *from,
		Availability: coursesearch.Availability(*availability),
		PagePosition: coursesearch.PagePosition(*page),
		Classification: coursesearch.Classification{
			Primary:   *primary,
			Secondary: *secondary,
		},
	})
	if err != nil {
		return err
	}
	return printResult(res)
}

func runIndex(ctx context.Context, client *coursesearch.Client, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: coursesearch index <kind> <docs.json>")
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	var docs []map[string]any
	if err := json.Unmarshal(data, &docs); err != nil {
		return fmt.Errorf("parse %s: %w", args[1], err)
	}
	return client.Index(ctx, args[0], docs)
}

func runRemove(ctx context.Context, client *coursesearch.Client, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: coursesearch remove <kind> <id>...")
	}
	return client.Remove(ctx, args[0], args[1:])
}

func printResult(res *coursesearch.SearchResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
