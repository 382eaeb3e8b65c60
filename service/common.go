package service

import (
	"fmt"
	"os"
	"strings"
)

var osExit = os.Exit

// confirm asks a yes/no question on stdout and reads the answer from stdin.
func confirm(question string) bool {
	fmt.Printf("%s [y/N] ", question)
	var response string
	fmt.Scanln(&response)
	return strings.EqualFold(strings.TrimSpace(response), "y")
}
