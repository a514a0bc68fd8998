package main

import (
	"fmt"
	"os"

	"github.com/Himanshujchavan/GROQPILOT/internal/cli"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{Use: "groqpilot-migrate"}

func main() {
	cli.SetupMigrateCLI(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
