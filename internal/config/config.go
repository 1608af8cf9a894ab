package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// LoadConfig loads the configuration and sets default values for development/production
func LoadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.AddConfigPath(".") // Path to look for the config file in

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; create a default one
			return createDefaultConfig()
		}
		return fmt.Errorf("error reading config file: %w", err)
	}

	// Ensure we have sensible defaults in case they are not in the config file
	setDefaults()

	return nil
}

// setDefaults sets default configuration values based on the environment
func setDefaults() {
	// Check the current environment (default is development)
	env := viper.GetString("ENV")
	if env == "" {
		env = "development"
		viper.Set("ENV", env)
	}

	// Set defaults for development and production environments
	if env == "development" {
		viper.SetDefault("bookkeeper_backend_url", "http://localhost:9002")
		viper.SetDefault("ledger_rpc_url", "http://localhost:57291")
		viper.SetDefault("allowed_origin", "http://localhost:3000")
		viper.SetDefault("wallet_db_path", "./dev_wallet.db")
		viper.SetDefault("log_level", "debug")
	} else if env == "production" {
		viper.SetDefault("bookkeeper_backend_url", "https://books.qash.network")
		viper.SetDefault("ledger_rpc_url", "https://rpc.qash.network")
		viper.SetDefault("allowed_origin", "https://app.qash.network")
		viper.SetDefault("wallet_db_path", "/var/lib/note-wallet/wallet.db")
		viper.SetDefault("log_level", "info")
	}

	// Common defaults for both environments
	viper.SetDefault("wallet_address", "")
	viper.SetDefault("network", "mainnet") // or "testnet" or "devnet"
	viper.SetDefault("api_port", 9003)
	viper.SetDefault("use_https", false)
	viper.SetDefault("cert_file", "server.crt")
	viper.SetDefault("key_file", "server.key")
	viper.SetDefault("wallet_api_key", "")
	viper.SetDefault("log_file", "./note-wallet.log")
	viper.SetDefault("request_timeout", "30s")
	viper.SetDefault("registration_retry_interval", "30s")
	viper.SetDefault("countdown_interval", "1s")
	viper.SetDefault("server_mode", true)
}

// createDefaultConfig creates a new configuration file if it doesn't exist
func createDefaultConfig() error {
	setDefaults()

	// Write the default configuration to a file
	err := viper.SafeWriteConfig()
	if err != nil {
		if os.IsExist(err) {
			// If the config already exists, attempt to overwrite it
			err = viper.WriteConfig()
			if err != nil {
				return fmt.Errorf("error writing config file: %w", err)
			}
		} else {
			return fmt.Errorf("error creating config file: %w", err)
		}
	}

	fmt.Println("Created default configuration file")
	return nil
}
