package main

import (
	"fmt"
	"os"
	"strings"

	"inkpress/service"
)

const CliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches the subcommand named by os.Args.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("inkpress version %s\n", CliVersion)
	case "serve":
		if code := service.RunAppServer(os.Args[2:]); code != 0 {
			exit(code)
		}
	case "db":
		if code := service.HandleCommand(os.Args[2:]); code != 0 {
			exit(code)
		}
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: inkpress <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  serve [--addr <host:port>]     Run the blog API (configured from the environment or .env).
  db <command>                   Manage the database: init, clean, backup [file], restore <file>, check [--repair].
`
	fmt.Println(helpText)
}
