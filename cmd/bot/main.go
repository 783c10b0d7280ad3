package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"rosatomquiz/internal/config"
	"rosatomquiz/internal/flow"
	"rosatomquiz/internal/quiz"
	"rosatomquiz/internal/server"
	"rosatomquiz/internal/session"
	"rosatomquiz/internal/storage"
	"rosatomquiz/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	catalog, err := quiz.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	// Probes the spreadsheet; unreachable credentials keep the process down.
	sink, err := storage.NewSheetsSink(ctx, cfg.GoogleCredentials, cfg.SheetID)
	if err != nil {
		log.Fatal(err)
	}
	log.Println("✅ Google Sheets connection successful")

	var store session.Store
	if cfg.SessionDB != "" {
		st, err := session.NewSQLiteStore(cfg.SessionDB)
		if err != nil {
			log.Fatal(err)
		}
		defer st.Close()
		store = st
		log.Printf("Using sqlite session store at %s", cfg.SessionDB)
	} else {
		store = session.NewMemoryStore()
	}

	bot, err := telegram.NewBot(cfg.BotToken)
	if err != nil {
		log.Fatal(err)
	}
	bot.SetController(flow.NewController(store, catalog, sink, bot, cfg))

	// Abandoned conversations are pruned so sessions do not leak.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			n, err := store.PruneIdle(cfg.SessionTTL)
			if err != nil {
				log.Printf("session prune failed: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("pruned %d idle sessions", n)
			}
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Println("🤖 Bot is starting...")

	if url := cfg.WebhookURL(); url != "" {
		if err := bot.SetWebhook(url); err != nil {
			log.Fatal(err)
		}
		log.Printf("Webhook set to %s", url)

		srv, err := server.New(cfg.UptimeAllow, cfg.WebhookPath, bot.WebhookHandler(ctx))
		if err != nil {
			log.Fatal(err)
		}
		log.Fatal(srv.ListenAndServe(addr))
	}

	srv, err := server.New(cfg.UptimeAllow, "", nil)
	if err != nil {
		log.Fatal(err)
	}
	go func() {
		log.Fatal(srv.ListenAndServe(addr))
	}()

	log.Println("Running in polling mode")
	bot.RunPolling(ctx)
}
