package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"telegram-price-watch/internal/config"
	pg "telegram-price-watch/internal/infra/db/postgres"
	"telegram-price-watch/internal/usecase"
)

// Seeds a handful of product pages for one chat, mostly for trying the
// watcher against a local database.
func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	chatID := flag.Int64("chat", 0, "chat id to own the seeded products")
	flag.Parse()

	if *chatID == 0 {
		log.Fatal("provide -chat with the owning chat id")
	}

	cfg, err := config.LoadConfig(*configPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	productRepo := pg.NewPostgresProductRepo(pool)
	productUC := usecase.NewProductUseCase(productRepo, nil)

	// If the chat already tracks something, do nothing
	existing, err := productUC.List(ctx, *chatID)
	if err != nil {
		log.Fatalf("list products: %v", err)
	}
	if len(existing) > 0 {
		fmt.Printf("%d products already present for chat %d. No changes.\n", len(existing), *chatID)
		for _, p := range existing {
			fmt.Printf("  - %s\n", p.URL)
		}
		return
	}

	seed := []string{
		"https://www.bol.com/nl/nl/p/logitech-mx-keys/9200000109938372/",
		"https://www.coolblue.nl/product/866294/sony-wh-1000xm5.html",
		"https://www.mediamarkt.nl/nl/product/philips-hue-white-1871795.html",
	}

	for _, url := range seed {
		p, err := productUC.Add(ctx, *chatID, url)
		if err != nil {
			log.Fatalf("add %s: %v", url, err)
		}
		fmt.Printf("added %s (id=%s)\n", p.URL, p.ID)
	}
	fmt.Println("Done.")
}
