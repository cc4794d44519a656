// Command corpus manages the fixed legal corpus index.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"ai-legal-engine/internal/bootstrap"
	"ai-legal-engine/internal/config"
	"ai-legal-engine/internal/pkg/logger"
	"ai-legal-engine/pkg/database"
	"ai-legal-engine/pkg/loader"
	pktNats "ai-legal-engine/pkg/nats"
	"ai-legal-engine/pkg/rag/ingest"
	"ai-legal-engine/pkg/rag/retrieval"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var verbose bool

func main() {
	root := &cobra.Command{
		Use:           "corpus",
		Short:         "Manage the Indian criminal law corpus index",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")

	root.AddCommand(indexCmd(), statsCmd(), searchCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		stop()
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}

type env struct {
	cfg *config.Config
	log logger.ILogger
	db  *gorm.DB
}

func setup() (*env, error) {
	cfg := config.Load()
	e := &env{cfg: cfg, log: logger.NewConsoleLogger(verbose)}

	switch cfg.Index.Backend {
	case config.BackendMemory:
		color.Yellow("VECTOR_BACKEND is memory: changes last only for this process")
	case config.BackendPgvector:
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return nil, err
		}
		e.db = db
	}
	return e, nil
}

func indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <file>...",
		Short: "Append PDF or text files to the fixed corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := setup()
			if err != nil {
				return err
			}

			embedder, err := bootstrap.NewEmbedder(ctx, e.cfg)
			if err != nil {
				return err
			}
			idx, err := bootstrap.NewVectorIndex(ctx, e.cfg, e.db, e.cfg.Index.Corpus, 0)
			if err != nil {
				return err
			}

			var pub *pktNats.Publisher
			if e.cfg.App.NatsURL != "" {
				if pub, err = pktNats.NewPublisher(e.cfg.App.NatsURL, e.log); err != nil {
					color.Yellow("NATS unavailable, cache invalidation skipped: %v", err)
				}
				defer pub.Close()
			}

			p := ingest.NewPipeline(idx, embedder, loader.NewRegistry(), e.log, ingest.Options{Append: true, Capacity: bootstrap.MaxCorpusVectors})
			if err := bootstrap.IndexFiles(ctx, p, args, pub, e.log); err != nil {
				return err
			}

			stats, err := p.Stats(ctx)
			if err != nil {
				return err
			}
			color.Green("Indexed %d file(s); corpus now holds %d vectors", len(args), stats.VectorCount)
			return nil
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show vector counts for the corpus and document indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			e, err := setup()
			if err != nil {
				return err
			}

			for _, name := range []string{e.cfg.Index.Corpus, e.cfg.Index.Document} {
				idx, err := bootstrap.NewVectorIndex(ctx, e.cfg, e.db, name, 0)
				if err != nil {
					return err
				}
				s, err := idx.Stats(ctx)
				if err != nil {
					return err
				}
				color.Cyan("%s", name)
				fmt.Printf("  vectors:   %d\n  dimension: %d\n", s.VectorCount, s.Dimension)
			}
			return nil
		},
	}
}

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Run a hybrid corpus search and print the passages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := setup()
			if err != nil {
				return err
			}

			embedder, err := bootstrap.NewEmbedder(ctx, e.cfg)
			if err != nil {
				return err
			}
			idx, err := bootstrap.NewVectorIndex(ctx, e.cfg, e.db, e.cfg.Index.Corpus, 0)
			if err != nil {
				return err
			}

			res, err := retrieval.NewCorpusRetriever(idx, embedder, nil, e.log).Retrieve(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if res.Empty() {
				color.Yellow("No relevant documents found.")
				return nil
			}
			printPassages(res)
			return nil
		},
	}
}

func printPassages(res retrieval.Result) {
	for i, p := range res.Passages {
		page := "-"
		if p.Page != nil {
			page = fmt.Sprint(*p.Page)
		}
		color.Cyan("#%d  %s p.%s  score=%.4f", i+1, p.Source, page, p.Score)
		fmt.Println(strings.TrimSpace(p.Content))
		fmt.Println()
	}
}
