package cmd

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/cobra"

	"github.com/kinbook/lineage/internal/util"
	"github.com/kinbook/lineage/pkg/common"
	"github.com/kinbook/lineage/pkg/ingest"
	"github.com/kinbook/lineage/pkg/loader"
	ioloader "github.com/kinbook/lineage/pkg/loader/io"
	"github.com/kinbook/lineage/pkg/register"
	pgstore "github.com/kinbook/lineage/pkg/store/pgx"
)

var (
	dryRun      bool
	databaseURL string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file...>",
	Short: "Parse transcript files into a family graph",
	Long: `Parse one or more OCR register transcripts into a family graph.

With --dry-run the graph is parsed and summarized without touching the
database. Otherwise each file becomes a completed ingestion, replacing
the stored graph.

Examples:
  lineage ingest --dry-run register.txt
  lineage ingest --database-url postgres://... register.txt`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		transcripts := ioloader.NewIOTranscriptLoader()
		files := make([]loader.TranscriptFile, 0, len(args))
		for _, path := range args {
			files = append(files, loader.TranscriptFile{Source: loader.SourceFile, Path: path})
		}
		if err := loader.Prefetch(ctx, transcripts, files, 4); err != nil {
			return err
		}

		if dryRun {
			for _, file := range files {
				text, err := transcripts.GetText(ctx, file)
				if err != nil {
					return err
				}
				parser := register.NewParser(register.NewParserParams{})
				graph, err := parser.ParseText(string(text))
				if err != nil {
					return fmt.Errorf("parse %s: %w", file.Path, err)
				}
				printSummary(file.Path, graph)
			}
			return nil
		}

		if databaseURL == "" {
			databaseURL = util.GetEnvString("DATABASE_URL", "")
		}
		if databaseURL == "" {
			return errors.New("a database URL is required, pass --database-url or set DATABASE_URL")
		}

		pool, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pool.Close()
		st := pgstore.NewStore(pool)

		for _, file := range files {
			publicID, err := gonanoid.New()
			if err != nil {
				return err
			}
			ing, err := st.CreateIngestion(ctx, publicID, loader.SourceFile, file.Path)
			if err != nil {
				return err
			}

			err = ingest.Run(ctx, ingest.RunParams{
				Store:       st,
				Loader:      transcripts,
				File:        file,
				IngestionID: ing.ID,
			})
			if err != nil {
				return fmt.Errorf("ingest %s: %w", file.Path, err)
			}

			final, err := st.GetIngestion(ctx, publicID)
			if err != nil {
				return err
			}
			fmt.Printf("%s: ingestion %s completed, %d persons, %d marriages, %d edges, %d anomalies\n",
				file.Path, final.PublicID,
				final.Counts.Persons, final.Counts.Marriages,
				final.Counts.ParentChild, final.Counts.Anomalies)
		}
		return nil
	},
}

func printSummary(path string, graph *common.Graph) {
	fmt.Printf("%s: %d lines, %d persons, %d marriages, %d parent-child edges, %d anomalies\n",
		path, graph.LineCount, len(graph.Persons), len(graph.Marriages),
		len(graph.ParentChild), len(graph.Anomalies))
	for _, a := range graph.Anomalies {
		fmt.Printf("  line %d [%s] %s\n", a.Line, a.Kind, a.Reason)
	}
}

func init() {
	ingestCmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse and summarize without writing to the database")
	ingestCmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")
	rootCmd.AddCommand(ingestCmd)
}
