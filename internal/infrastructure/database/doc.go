// Package database opens the SQLite file that holds connection run history
// and applies its schema.
//
//	db, err := database.Open(ctx, database.Config{Path: cfg.Database.Path, WALMode: true})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx, migrations.FS); err != nil {
//	    return err
//	}
//
// Migrations are read from any fs.FS. Files are named
// YYYYMMDD_HHMMSS_description.up.sql with an optional .down.sql, and each
// one is applied in its own transaction.
package database
