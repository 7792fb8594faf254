// The sync-notion binary mirrors all persisted transactions into a Notion
// database, keyed by transaction ID so re-runs never duplicate pages.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/avdeev/scanledger/internal/config"
	"github.com/avdeev/scanledger/internal/logger"
	"github.com/avdeev/scanledger/internal/notionsync"
	"github.com/avdeev/scanledger/internal/store"
)

func main() {
	var (
		notionToken = flag.String("notion-token", "", "Notion API token (or set NOTION_TOKEN)")
		notionDBID  = flag.String("notion-db-id", "", "Notion database ID (or set NOTION_DATABASE_ID)")
		dryRun      = flag.Bool("dry-run", false, "preview changes without writing to Notion")
	)
	flag.Parse()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *notionToken == "" {
		*notionToken = cfg.NotionToken
	}
	if *notionDBID == "" {
		*notionDBID = cfg.NotionDatabaseID
	}
	if *notionToken == "" {
		log.Fatal().Msg("--notion-token or NOTION_TOKEN is required")
	}
	if *notionDBID == "" {
		log.Fatal().Msg("--notion-db-id or NOTION_DATABASE_ID is required")
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	syncer := notionsync.NewSyncer(
		notionsync.NewNotionClient(*notionToken),
		db, *notionDBID, cfg.OwnerEmail, log,
	)

	created, err := syncer.SyncAll(ctx, *dryRun)
	if err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	log.Info().Int("created", created).Bool("dry_run", *dryRun).Msg("Sync complete")
}
