// Package db opens the PostgreSQL pool shared by the River job source and
// the dispatch journal, and applies goose migrations from an fs.FS.
//
//	pool, err := db.Open(ctx, cfg.Database.URL, db.WithMaxConns(20))
//	if err != nil {
//	    return err
//	}
//	if err := db.Migrate(ctx, pool, journal.Migrations(), "", log); err != nil {
//	    return err
//	}
//
// River keeps its own schema; apply it with job.Migrate.
package db
