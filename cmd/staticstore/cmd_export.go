package main

import (
	"context"
	"database/sql"
	"fmt"

	"staticstore/internal/hostfs"
	"staticstore/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var exportDB string

// exportCmd copies the slot entries into a SQLite table for inspection.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Copy the slot's entries into a SQLite database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		n, err := exportSlot(cmd.Context(), cfg.Location().Path(), cfg.Storage.Slot, exportDB)
		if err != nil {
			return err
		}
		logger.Info("Exported slot", zap.Int("slot", cfg.Storage.Slot), zap.Int("entries", n), zap.String("db", exportDB))
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries to %s\n", n, exportDB)
		return nil
	},
}

const exportSchema = `CREATE TABLE IF NOT EXISTS slot_entries (
	slot   INTEGER NOT NULL,
	key    TEXT    NOT NULL,
	kind   TEXT    NOT NULL,
	number REAL,
	flag   INTEGER,
	PRIMARY KEY (slot, key)
)`

// exportSlot replaces the rows of one slot with the current file contents.
func exportSlot(ctx context.Context, path string, slot int, dbPath string) (int, error) {
	data, err := hostfs.OS{}.ReadAll(path)
	if err != nil {
		return 0, fmt.Errorf("read slot: %w", err)
	}
	st, err := store.Deserialize(data)
	if err != nil {
		return 0, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", dbPath, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, exportSchema); err != nil {
		return 0, fmt.Errorf("create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM slot_entries WHERE slot = ?`, slot); err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO slot_entries (slot, key, kind, number, flag) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, key := range st.Keys() {
		v, _ := st.Get(key)
		var number, flag any
		if n, ok := v.AsNumber(); ok {
			number = n
		}
		if b, ok := v.AsBool(); ok {
			flag = b
		}
		if _, err := stmt.ExecContext(ctx, slot, string(key), v.Kind().String(), number, flag); err != nil {
			return 0, fmt.Errorf("insert %s: %w", key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return st.Len(), nil
}
