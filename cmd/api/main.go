package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/gameloans/core/cmd/api/commands"
)

// @title GameLoans API
// @version 1.0
// @description Video game lending tracker: catalog, loan requests, approvals and returns

// @contact.name GameLoans Support
// @contact.url https://github.com/gameloans/core

// @license.name MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:           "gameloans",
		Short:         "GameLoans API Server",
		Long:          `GameLoans keeps track of a video game collection: which games are lent, to whom, and which loan requests are waiting for approval.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
