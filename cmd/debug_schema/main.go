package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"table-sync/core/bitable"
	"table-sync/core/config"
	"table-sync/core/reconcile"
	"table-sync/core/source"
	"table-sync/feature/flush"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	tableID := cfg.Sync.TableID
	if len(os.Args) > 1 {
		tableID = os.Args[1]
	}
	if tableID == "" {
		log.Fatal("usage: debug_schema <table-id> (or set SYNC_TABLE_ID)")
	}

	client := bitable.NewClient(cfg.Bitable)
	ctx := context.Background()

	// Test 1: field classification
	fmt.Println("=== TEST 1: Schema ===")
	fields, err := client.ListFields(ctx, tableID)
	if err != nil {
		log.Fatal(err)
	}
	schema := reconcile.ResolveSchema(fields)
	for _, f := range schema.Fields() {
		related := ""
		if f.RelatedTableID != "" {
			related = " -> " + f.RelatedTableID
		}
		fmt.Printf("%-24s type=%-3d kind=%s%s\n", f.Name, f.Type, f.Kind, related)
	}

	// Test 2: related tables
	fmt.Println("\n=== TEST 2: Link Cache ===")
	renames, err := flush.ParseRenames(cfg.Sync.Renames)
	if err != nil {
		log.Fatal(err)
	}
	links := reconcile.BuildLinkCache(ctx, client, schema, renames, zap.NewNop())
	for _, f := range schema.SingleRelations() {
		if !links.Has(f.RelatedTableID) {
			fmt.Printf("%s: related table %s NOT loaded\n", f.Name, f.RelatedTableID)
			continue
		}
		fmt.Printf("%s: %d display values via column %q\n", f.Name, links.Size(f.RelatedTableID), renames.DisplayColumn(f.Name))
	}

	// Test 3: identity keys of the configured source
	rows := 0
	if cfg.Source.Path != "" {
		fmt.Println("\n=== TEST 3: Source Keys ===")
		opts, err := cfg.Source.Options()
		if err != nil {
			log.Fatal(err)
		}
		sheet, err := source.Load(ctx, cfg.Source.Path, nil, opts)
		if err != nil {
			log.Fatal(err)
		}
		rows = len(sheet.Rows)
		for i, row := range sheet.Rows {
			if i == 5 {
				fmt.Printf("... %d more rows\n", rows-5)
				break
			}
			fmt.Printf("line %d -> %q\n", row.Line, flush.IdentityKey(row))
		}
	}

	output := map[string]interface{}{
		"table_id":    tableID,
		"field_count": len(fields),
		"kinds":       schema.Count(),
		"source_rows": rows,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	os.WriteFile("debug_schema.json", data, 0644)

	fmt.Println("\nDebug complete. Check debug_schema.json for details.")
}
