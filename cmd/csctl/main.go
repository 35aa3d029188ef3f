// Точка входа csctl — операторской утилиты Confshare.
// Управление реестром докладчиков без остановки сервера.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:          "csctl",
	Short:        "Операторская утилита Confshare",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(speakerCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
