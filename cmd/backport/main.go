package main

import (
	"fmt"
	"os"
)

func main() {
	if err := execute(); err != nil {
		if cliErr, ok := err.(*CLIError); ok {
			fmt.Fprintf(os.Stderr, "backport: %s\n", cliErr.Message)
			if cliErr.Cause != nil {
				fmt.Fprintf(os.Stderr, "  Cause: %v\n", cliErr.Cause)
			}
			os.Exit(cliErr.ExitCode())
		}

		fmt.Fprintf(os.Stderr, "backport: %v\n", err)
		os.Exit(ExitGenericError)
	}
}

// execute is the main entry point that sets up and runs the CLI
func execute() error {
	rootCmd := newRootCommand()
	return rootCmd.Execute()
}
