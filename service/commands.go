package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"inkpress/app/config"
	"inkpress/app/repositories"
)

// backupDir receives backups written without an explicit file name.
var backupDir = filepath.Join("data", "backups")

// HandleCommand handles database subcommands and returns an exit code.
func HandleCommand(args []string) int {
	if len(args) < 1 {
		printDbHelp()
		osExit(1)
		return 1
	}

	cmd := args[0]
	if cmd == "help" {
		printDbHelp()
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		osExit(1)
		return 1
	}
	dbPath := cfg.DBPath

	switch cmd {
	case "clean":
		return clean(dbPath)
	case "init":
		return initDb(dbPath)
	case "backup":
		file := ""
		if len(args) > 1 {
			file = args[1]
		}
		return backup(dbPath, file)
	case "restore":
		if len(args) < 2 {
			fmt.Println("Error: backup file path required for restore")
			osExit(1)
			return 1
		}
		return restore(dbPath, args[1])
	case "check":
		repair := len(args) > 1 && args[1] == "--repair"
		return check(dbPath, repair)
	default:
		fmt.Printf("Unknown db command: %s\n\n", cmd)
		printDbHelp()
		osExit(1)
		return 1
	}
}

// printDbHelp prints help for database subcommands.
func printDbHelp() {
	helpText := `Usage: inkpress db <command>

Commands:
  init                            Initialize a new empty database
  clean                           Remove the database
  backup [file]                   Write a backup (default data/backups/backup_<unix>.db)
  restore <file>                  Replace the database with a backup
  check [--repair]                Compare post comment lists with the comment index
  help                            Display this help message

The database location is read from INKPRESS_DB_PATH (default data/badger).
`
	fmt.Println(helpText)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// clean removes the database.
func clean(dbPath string) int {
	if !exists(dbPath) {
		fmt.Println("Database is already clean (does not exist)")
		return 0
	}

	if !confirm("Are you sure you want to clean the database? This cannot be undone.") {
		fmt.Println("Operation cancelled")
		return 1
	}

	if err := os.RemoveAll(dbPath); err != nil {
		fmt.Printf("Failed to clean database: %v\n", err)
		return 1
	}
	fmt.Println("Database cleaned successfully")
	return 0
}

// initDb initializes a new empty database.
func initDb(dbPath string) int {
	if exists(dbPath) {
		fmt.Println("Database already exists. Use 'clean' first if you want to reinitialize.")
		return 1
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		return 1
	}

	repo, err := repositories.Open(dbPath, nil)
	if err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		return 1
	}
	defer repo.Close()

	fmt.Println("Database initialized successfully")
	return 0
}

// backup writes a full backup of the database to file.
func backup(dbPath, file string) int {
	if !exists(dbPath) {
		fmt.Println("No database exists to backup")
		return 1
	}

	if file == "" {
		file = filepath.Join(backupDir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
	}
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		fmt.Printf("Failed to create backup directory: %v\n", err)
		return 1
	}

	repo, err := repositories.Open(dbPath, nil)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer repo.Close()

	f, err := os.Create(file)
	if err != nil {
		fmt.Printf("Failed to create backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if _, err := repo.Backup(f); err != nil {
		fmt.Printf("Failed to backup database: %v\n", err)
		return 1
	}

	fmt.Printf("Database backed up successfully to %s\n", file)
	return 0
}

// restore replaces the database with the contents of backupFile.
func restore(dbPath, backupFile string) int {
	fi, err := os.Stat(backupFile)
	if os.IsNotExist(err) {
		fmt.Printf("Backup file does not exist: %s\n", backupFile)
		return 1
	}
	if err != nil {
		fmt.Printf("Failed to stat backup file: %v\n", err)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Printf("Backup file is empty: %s\n", backupFile)
		return 1
	}

	if exists(dbPath) {
		if !confirm("Existing database found. Do you want to replace it?") {
			fmt.Println("Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(dbPath); err != nil {
			fmt.Printf("Failed to remove existing database: %v\n", err)
			return 1
		}
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		return 1
	}

	repo, err := repositories.Open(dbPath, nil)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer repo.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		fmt.Printf("Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic occurred during restore: %v", r)
			}
		}()
		return repo.Restore(f)
	}()
	if err != nil {
		fmt.Printf("Failed to restore database: %v\n", err)
		return 1
	}

	fmt.Println("Database restored successfully")
	return 0
}

// check reports posts whose comment list disagrees with the comment index,
// and comments whose post is gone. With repair set both are fixed.
func check(dbPath string, repair bool) int {
	if !exists(dbPath) {
		fmt.Println("No database exists to check")
		return 1
	}

	repo, err := repositories.Open(dbPath, nil)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer repo.Close()

	report, err := repo.Reconcile(context.Background(), repair)
	if err != nil {
		fmt.Printf("Failed to check database: %v\n", err)
		return 1
	}

	if report.Clean() {
		fmt.Println("Database is consistent")
		return 0
	}
	for _, d := range report.Drifts {
		fmt.Printf("post %s: missing %v, stale %v\n", d.PostID, d.Missing, d.Stale)
	}
	for _, o := range report.Orphans {
		fmt.Printf("comment %s: post %s does not exist\n", o.CommentID, o.PostID)
	}
	if repair {
		fmt.Printf("Repaired %d posts and removed %d orphaned comments\n", len(report.Drifts), len(report.Orphans))
		return 0
	}
	fmt.Println("Run 'inkpress db check --repair' to fix")
	return 1
}
