package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"nhatot-market/config"
	"nhatot-market/models"
	"nhatot-market/reports"
	"nhatot-market/scraper/nhatot"
	"nhatot-market/services"
	"nhatot-market/storage"
	"nhatot-market/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== nhatot market pipeline starting ===")
	logger.Info("Config — cities: %d | threshold: %.2f | merge snapshots: %v",
		len(cfg.Cities), cfg.DealThreshold, cfg.MergeSnapshots)

	store := storage.NewSnapshotStore(cfg.OutputDir, cfg.MergeSnapshots, logger)

	var pgWriter *storage.PostgresWriter
	if cfg.PostgresEnabled {
		var err error
		pgWriter, err = storage.NewPostgresWriter(cfg.DSN())
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			os.Exit(1)
		}
		defer pgWriter.Close()
	}

	scraper := nhatot.New(cfg, logger)
	normalizer := services.NewNormalizer(logger)

	// Cities run one at a time; a failed city never aborts the others.
	cityKeys := make([]string, 0, len(cfg.Cities))
	for key := range cfg.Cities {
		cityKeys = append(cityKeys, key)
	}
	sort.Strings(cityKeys)

	var all []*models.Listing
	var cityNames []string
	failed := 0

	for _, key := range cityKeys {
		city := cfg.Cities[key]
		logger.Info("Crawling %s", city.Name)

		ads, err := scraper.FetchCity(city)
		if err != nil {
			logger.Error("Fetch failed for %s — skipping: %v", city.Name, err)
			failed++
			continue
		}

		listings := normalizer.Normalize(ads, city)

		stored, paths, err := store.Persist(key, listings)
		if err != nil {
			logger.Error("Persist failed for %s — skipping: %v", city.Name, err)
			failed++
			continue
		}
		if paths.CSV != "" {
			logger.Info("%s: %d listings → %s | %s", city.Name, len(stored), paths.CSV, paths.XLSX)
		}

		if pgWriter != nil {
			if err := pgWriter.Write(stored); err != nil {
				logger.Error("PostgreSQL write failed for %s: %v", city.Name, err)
			}
		}

		all = append(all, stored...)
		cityNames = append(cityNames, city.Name)
	}

	if len(all) == 0 {
		logger.Error("No listings collected from any city (failed: %d). Exiting.", failed)
		os.Exit(1)
	}

	// With the Postgres mirror enabled, analytics run over the full keyed
	// history rather than just this run's batch.
	if pgWriter != nil {
		dbListings, err := pgWriter.FetchAll()
		if err != nil {
			logger.Error("Failed to fetch listings from DB for analytics: %v", err)
		} else if len(dbListings) > 0 {
			logger.Info("Analytics over %d stored listings (this run: %d)", len(dbListings), len(all))
			all = dbListings
		}
	}

	market := services.NewMarketService(logger)
	dealSvc := services.NewDealService(logger)
	trendSvc := services.NewTrendService(logger)

	districtStats := market.PriceByDistrict(all)
	categoryStats := market.PriceM2ByDistrictCategory(all)
	supply := market.SupplyByDistrict(all)
	deals := dealSvc.Detect(all, cfg.DealThreshold)
	trend := trendSvc.Last7Days(all)

	workbookPath := filepath.Join(cfg.ReportsDir, "market_report.xlsx")
	if err := reports.WriteWorkbook(workbookPath, []reports.Table{
		reports.DistrictStatsTable(districtStats),
		reports.CategoryStatsTable(categoryStats),
		reports.SupplyTable(supply),
		reports.TrendTable(trend),
		reports.DealsTable(deals),
	}); err != nil {
		logger.Error("Workbook export failed: %v", err)
	} else {
		logger.Info("Report workbook saved to %s", workbookPath)
	}

	summaryPath := filepath.Join(cfg.ReportsDir, "market_report.md")
	if err := reports.WriteSummary(summaryPath, strings.Join(cityNames, ", "), all, deals); err != nil {
		logger.Error("Summary export failed: %v", err)
	} else {
		logger.Info("Market summary saved to %s", summaryPath)
	}

	printSummary(all, districtStats, deals)

	fmt.Printf("  Done. Snapshots → %s | Reports → %s\n\n", cfg.OutputDir, cfg.ReportsDir)
}

func printSummary(listings []*models.Listing, stats []models.DistrictStats, deals []models.Deal) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  🏘  MARKET SNAPSHOT\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Listings collected : \033[1m%d\033[0m\n", len(listings))
	fmt.Printf("  Districts covered  : \033[1m%d\033[0m\n", len(stats))
	fmt.Printf("  Deals flagged      : \033[1m%d\033[0m\n", len(deals))
	fmt.Println()

	fmt.Printf("\033[1;33m  Top 5 Deals (price/m² vs district median)\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(deals) == 0 {
		fmt.Printf("  No deals below threshold\n")
	}
	for i, d := range deals {
		if i >= 5 {
			break
		}
		title := d.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		fmt.Printf("  \033[1m%d.\033[0m %-42s \033[1;32m%.2f\033[0m  %s\n",
			i+1, title, d.Score, d.District)
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}
