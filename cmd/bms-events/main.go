package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/bilalkmalik03/smart-bms-rasbperrypi/db"
)

func main() {
	EventsCLI()
}

func EventsCLI() {
	var dbPath, command, since string
	var limit int
	var olderThan time.Duration
	flag.StringVar(&dbPath, "db", "data/bms.db", "Path to the SQLite event database")
	flag.StringVar(&command, "cmd", "", "Command to run: list, since, prune")
	flag.IntVar(&limit, "limit", 50, "Number of most recent events for list")
	flag.StringVar(&since, "since", "", "Clock time HH:MM:SS (today) for since")
	flag.DurationVar(&olderThan, "older-than", 0, "Age cutoff for prune, e.g. 720h")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || command == "" {
		fmt.Println("\nUsage of bms-events:")
		fmt.Println("  -db string\tPath to the SQLite event database (default 'data/bms.db')")
		fmt.Println("  -cmd string\tCommand to run: list, since, prune")
		fmt.Println("  -limit int\tNumber of most recent events for list (default 50)")
		fmt.Println("  -since string\tClock time HH:MM:SS (today) for since")
		fmt.Println("  -older-than duration\tAge cutoff for prune, e.g. 720h")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	var err error
	now := time.Now()
	switch command {
	case "list":
		err = db.ListEventsCLI(dbPath, limit, os.Stdout)
	case "since":
		if since == "" {
			fmt.Println("Error: -since is required")
			os.Exit(1)
		}
		err = db.EventsSinceCLI(dbPath, since, now, os.Stdout)
	case "prune":
		if olderThan <= 0 {
			fmt.Println("Error: -older-than must be positive")
			os.Exit(1)
		}
		err = db.PruneEventsCLI(dbPath, olderThan, now, os.Stdout)
	default:
		fmt.Println("Invalid command")
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Command %s failed: %v\n", command, err)
		os.Exit(1)
	}
}
