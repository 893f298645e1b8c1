package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/bekkerfineart/gallery/cmd/gallery/commands"
)

// @title Bekker Fine Art API
// @version 1.0
// @description Storefront, dashboard and payment API of the Bekker Fine Art gallery

// @contact.name Bekker Fine Art
// @contact.url https://bekkerfineart.co.za

// @host localhost:3000
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the token returned by /admin/login.

func main() {
	rootCmd := &cobra.Command{
		Use:   "gallery",
		Short: "Bekker Fine Art gallery server",
		Long:  `Serves the Bekker Fine Art storefront and dashboard API from flat JSON files, takes PayFast payments and keeps local mirrors in step through a websocket change feed.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewResetCommand())
	rootCmd.AddCommand(commands.NewMirrorCommand())
	rootCmd.AddCommand(commands.NewHashPasswordCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
