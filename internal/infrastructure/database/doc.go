// Package database wraps the SQLite connection used by classtask and runs
// the embedded schema migrations.
//
// The connection opens with WAL journaling, a busy timeout, and foreign key
// enforcement; ownership and the student-teacher link both depend on the
// latter. The database file is chmodded to 0600 and all queries go through
// parameterised statements.
//
//	db, err := database.Open(database.Config{Path: cfg.Database.Path})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	if err := db.Migrate(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Migrations are additive: new columns are nullable or carry defaults, and
// every up file has a matching down file for rollback.
package database
