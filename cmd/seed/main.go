package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/ikkim/udonggeum-storefront/config"
	"github.com/ikkim/udonggeum-storefront/internal/app/model"
	"github.com/ikkim/udonggeum-storefront/internal/app/repository"
	"github.com/ikkim/udonggeum-storefront/internal/kvstore"
	"github.com/ikkim/udonggeum-storefront/pkg/cartsheet"
)

func main() {
	// 명령줄 인자 확인
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	// 설정 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx := context.Background()

	// 저장소 연결
	store, closeStore, err := kvstore.NewFactory(cfg).Create(ctx)
	if err != nil {
		log.Fatal("Failed to open key-value store:", err)
	}
	defer closeStore()

	cartRepo := repository.NewCartRepository(store)

	// XLSX 파일 읽기
	fmt.Printf("Reading XLSX file: %s\n", filePath)
	lines, err := readCart(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	existing, err := cartRepo.Load(ctx)
	if err != nil {
		log.Fatal("Failed to load current guest cart:", err)
	}

	fmt.Printf("Storage driver: %s (namespace %s)\n", cfg.Storage.Driver, cfg.Storage.Namespace)
	fmt.Printf("Lines in file: %d\n", len(lines))
	fmt.Printf("Lines in current guest cart: %d (will be replaced)\n", len(existing))

	// 사용자 확인
	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	if err := cartRepo.Save(ctx, lines); err != nil {
		log.Fatal("Failed to save guest cart:", err)
	}

	summary := model.Summarize(lines)
	fmt.Println("Import completed successfully!")
	fmt.Printf("  Lines: %d\n", summary.Lines)
	fmt.Printf("  Items: %d\n", summary.Items)
	fmt.Printf("  Subtotal: %s\n", summary.Subtotal.String())
}

func readCart(filePath string) ([]model.CartLine, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	return cartsheet.Read(f)
}
