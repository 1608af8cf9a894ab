package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/qashware/note-wallet/internal/bookkeeper"
	"github.com/qashware/note-wallet/internal/config"
	walletstatedb "github.com/qashware/note-wallet/internal/database"
	"github.com/qashware/note-wallet/internal/ledger"
	"github.com/qashware/note-wallet/internal/logger"
	"github.com/qashware/note-wallet/internal/operations"
	"github.com/qashware/note-wallet/internal/orchestrator"
)

var rootCmd = &cobra.Command{
	Use:   "note-wallet",
	Short: "Note wallet daemon",
	Long:  `A wallet daemon for note-based ledger payments: batch transfers, recallable notes and gift notes.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the wallet daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(clientCmd)
}

func initConfig() {
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	if err := config.LoadConfig(); err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	if err := logger.Init(viper.GetString("log_file"), viper.GetString("log_level")); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
}

func serve() error {
	defer logger.Cleanup()

	owner := viper.GetString("wallet_address")
	if owner == "" {
		log.Fatal("wallet_address is not configured")
	}

	if err := walletstatedb.InitSQLiteDB(viper.GetString("wallet_db_path")); err != nil {
		return err
	}

	timeout := viper.GetDuration("request_timeout")
	ledgerClient := ledger.NewClient(viper.GetString("ledger_rpc_url"), timeout)
	books := bookkeeper.NewClient(viper.GetString("bookkeeper_backend_url"), timeout)

	orch := orchestrator.New(ledgerClient, books, walletstatedb.Store{}, walletstatedb.Store{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := operations.NewWalletServer(orch, owner)
	return server.ServerLoop(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}
