package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/mohammad-safakhou/mindtutor/config"
	srv "github.com/mohammad-safakhou/mindtutor/internal/server"
	"github.com/mohammad-safakhou/mindtutor/internal/store"
	"github.com/mohammad-safakhou/mindtutor/models"
)

func main() {
	var root = &cobra.Command{Use: "mindtutor"}

	var serveAddr string
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if serveAddr == "" {
				serveAddr = os.Getenv("MINDTUTOR_HTTP_ADDR")
			}
			return srv.Run(serveAddr)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")

	var migDir string
	var migDirDefault = "file://migrations"
	var direction string
	var steps int
	var migrate = &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := os.Getenv("DATABASE_URL")
			if dsn == "" {
				host := getenv("POSTGRES_HOST", "localhost")
				port := getenv("POSTGRES_PORT", "5432")
				user := os.Getenv("POSTGRES_USER")
				pass := os.Getenv("POSTGRES_PASSWORD")
				db := os.Getenv("POSTGRES_DB")
				ssl := getenv("POSTGRES_SSLMODE", "disable")
				dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, ssl)
			}
			if migDir == "" {
				migDir = migDirDefault
			}
			return srv.Migrate(migDir, dsn, direction, steps)
		},
	}
	migrate.Flags().StringVar(&migDir, "dir", migDirDefault, "migrations source (file://migrations)")
	migrate.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrate.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")

	var cfgPath string
	var importProblems = &cobra.Command{
		Use:   "import-problems <file.json>",
		Short: "Load problems with reference solutions and mindmaps into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cfgPath, args[0])
		},
	}
	importProblems.Flags().StringVarP(&cfgPath, "config", "c", "", "config file (default is .)")

	root.AddCommand(serve, migrate, importProblems)
	_ = root.Execute()
}

// problemRecord mirrors the problems table columns in the import file.
type problemRecord struct {
	ChapterID       int64          `json:"chapter_id"`
	ChapterName     string         `json:"chapter_name"`
	Difficulty      int            `json:"difficulty"`
	ProblemContent  string         `json:"problem_content"`
	ProblemSolution string         `json:"problem_solution"`
	ProblemMindmap  models.MindMap `json:"problem_mindmap"`
}

func runImport(cfgPath, file string) error {
	cfg := config.LoadConfig(cfgPath)
	ctx := context.Background()

	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	var records []problemRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("parse %s: %w", file, err)
	}

	st, err := store.NewWithDSN(ctx, cfg.Storage.Postgres.DSN())
	if err != nil {
		return err
	}
	defer st.DB.Close()

	for i, rec := range records {
		if rec.ProblemContent == "" {
			return fmt.Errorf("record %d: problem_content is empty", i)
		}
		if rec.Difficulty < 1 || rec.Difficulty > 5 {
			return fmt.Errorf("record %d: difficulty %d out of range 1-5", i, rec.Difficulty)
		}
		if err := rec.ProblemMindmap.Validate(); err != nil {
			return fmt.Errorf("record %d: mindmap: %w", i, err)
		}
		id, err := st.InsertProblem(ctx, store.Problem{
			ChapterID:   rec.ChapterID,
			ChapterName: rec.ChapterName,
			Difficulty:  rec.Difficulty,
			Content:     rec.ProblemContent,
			Solution:    rec.ProblemSolution,
			Mindmap:     rec.ProblemMindmap,
		})
		if err != nil {
			return fmt.Errorf("record %d: insert: %w", i, err)
		}
		log.Printf("imported problem %d (chapter %q)", id, rec.ChapterName)
	}
	log.Printf("imported %d problem(s)", len(records))

	// Drop the cached catalogue so the next listing sees the new problems.
	if cfg.Storage.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.Redis.Addr(),
			Password: cfg.Storage.Redis.Password,
			DB:       cfg.Storage.Redis.DB,
		})
		cache := srv.NewCache(rdb, cfg.Storage.Redis.CacheTTL, log.Default())
		cache.Invalidate(ctx)
	}
	return nil
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
