package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/unowned-ai/readlater/pkg/content"
	pkgdb "github.com/unowned-ai/readlater/pkg/db"
	"github.com/unowned-ai/readlater/pkg/logger"
	"github.com/unowned-ai/readlater/pkg/session"
	"github.com/unowned-ai/readlater/pkg/utils"
)

const timeLayout = "2006-01-02 15:04"

func resolvedDBPath() (string, error) {
	return utils.ResolveDBPath(cfg.Database.Path)
}

// openStore opens the configured database, brings its schema up to date and
// wraps it in a content store.
func openStore() (*content.Store, *sql.DB, error) {
	path, err := resolvedDBPath()
	if err != nil {
		return nil, nil, err
	}

	dbConn, err := pkgdb.OpenDBConnection(path, cfg.Database.WAL, cfg.Database.Sync)
	if err != nil {
		return nil, nil, err
	}
	if err := pkgdb.UpgradeDB(dbConn, log, path, pkgdb.TargetSchemaVersion); err != nil {
		dbConn.Close()
		return nil, nil, err
	}
	return content.NewStore(dbConn), dbConn, nil
}

// closeDB writes the WAL back to the main database file before closing.
func closeDB(dbConn *sql.DB) {
	if cfg.Database.WAL {
		if err := pkgdb.Checkpoint(dbConn); err != nil {
			log.Warn("WAL checkpoint failed during close", logger.Error(err))
		}
	}
	if err := dbConn.Close(); err != nil {
		log.Warn("Failed to close database", logger.Error(err))
	}
}

// openSessions builds the configured session backend. The returned check
// reports backend health, nil for the memory backend.
func openSessions() (store session.Store, check func(context.Context) error, release func(), err error) {
	if cfg.Sessions.Backend != "redis" {
		return session.NewMemoryStore(), nil, func() {}, nil
	}

	client, err := session.NewRedisClient(cfg.Sessions.Redis)
	if err != nil {
		return nil, nil, nil, err
	}
	log.Info("Using Redis session store", logger.String("address", cfg.Sessions.Redis.Address))

	check = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	release = func() {
		if err := client.Close(); err != nil {
			log.Warn("Failed to close Redis client", logger.Error(err))
		}
	}
	return session.NewRedisStore(client, cfg.Sessions.Redis.TTL), check, release, nil
}

func formatTime(t time.Time) string {
	return t.Local().Format(timeLayout)
}

func printItem(w io.Writer, item content.Item) {
	t := string(item.Type)
	if t == "" {
		t = "not set"
	}
	fmt.Fprintln(w, "Item Details:")
	fmt.Fprintf(w, "ID:       %d\n", item.ID)
	fmt.Fprintf(w, "Type:     %s\n", t)
	fmt.Fprintf(w, "Status:   %s\n", item.Status)
	fmt.Fprintf(w, "Source:   %s\n", item.Source)
	fmt.Fprintf(w, "Added:    %s\n", formatTime(item.DateAdded))
	if item.DateRead != nil {
		fmt.Fprintf(w, "Read:     %s\n", formatTime(*item.DateRead))
	}
	if len(item.Tags) > 0 {
		fmt.Fprintf(w, "Tags:     %s\n", strings.Join(item.Tags, ", "))
	}
	fmt.Fprintln(w, "\nContent:")
	fmt.Fprintln(w, "------------------------------------------------------------")
	fmt.Fprintln(w, item.Content)
	fmt.Fprintln(w, "------------------------------------------------------------")
}

// printItemRow prints a one-line summary used by listings.
func printItemRow(w io.Writer, item content.Item) {
	marker := " "
	if item.Status == content.StatusUnread {
		marker = "*"
	}
	text := strings.Join(strings.Fields(item.Content), " ")
	if r := []rune(text); len(r) > 60 {
		text = string(r[:59]) + "…"
	}
	fmt.Fprintf(w, "%s %-6d %-5s %s  %s\n", marker, item.ID, item.Type, formatTime(item.DateAdded), text)
}
