package main

import (
	"bytes"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(f func()) string {
	var buf bytes.Buffer
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan bool)
	go func() {
		_, _ = io.Copy(&buf, r)
		done <- true
	}()

	f()
	_ = w.Close()
	os.Stdout = oldStdout
	<-done

	return buf.String()
}

func callMain() (int, string) {
	exitCode := 0
	oldExit := exit
	defer func() { exit = oldExit }()
	exit = func(code int) {
		exitCode = code
		panic("exit")
	}

	output := captureOutput(func() {
		defer func() {
			if r := recover(); r != nil && r != "exit" {
				panic(r)
			}
		}()
		RealMain()
	})
	return exitCode, output
}

func TestRealMain(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	t.Setenv("JWT_SECRET", "")
	t.Setenv("INKPRESS_DB_PATH", t.TempDir()+"/badger")

	tests := []struct {
		name           string
		args           []string
		expectedExit   int
		expectedOutput string
	}{
		{
			name:           "no arguments",
			args:           []string{"inkpress"},
			expectedExit:   1,
			expectedOutput: "Usage: inkpress <command>",
		},
		{
			name:           "help command",
			args:           []string{"inkpress", "help"},
			expectedOutput: "Usage: inkpress <command> [options]",
		},
		{
			name:           "version command",
			args:           []string{"inkpress", "version"},
			expectedOutput: "inkpress version " + CliVersion,
		},
		{
			name:           "unknown command",
			args:           []string{"inkpress", "unknown"},
			expectedExit:   1,
			expectedOutput: "Unknown command: unknown",
		},
		{
			name:           "serve without secret",
			args:           []string{"inkpress", "serve"},
			expectedExit:   1,
			expectedOutput: "JWT_SECRET is required",
		},
		{
			name:           "db help",
			args:           []string{"inkpress", "db", "help"},
			expectedOutput: "Usage: inkpress db <command>",
		},
		{
			name:           "db check without database",
			args:           []string{"inkpress", "db", "check"},
			expectedExit:   1,
			expectedOutput: "No database exists to check",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			exitCode, output := callMain()

			assert.Contains(t, output, tt.expectedOutput)
			assert.Equal(t, tt.expectedExit, exitCode)
		})
	}
}

func TestPrintHelp(t *testing.T) {
	output := captureOutput(func() {
		printHelp()
	})

	assert.Contains(t, output, "Usage: inkpress")
	for _, cmd := range []string{"help", "version", "serve", "db <command>", "backup", "restore", "check [--repair]"} {
		assert.Contains(t, output, cmd)
	}
}
