package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/contentops/content-core/internal/config"
	"github.com/contentops/content-core/internal/factory"
	"github.com/contentops/content-core/internal/platform/logger"
	"github.com/contentops/content-core/internal/recordtype"
	"github.com/contentops/content-core/internal/services"
	"github.com/contentops/content-core/internal/store"
)

var (
	typeFlag  string
	actorFlag string
	rootCmd   = &cobra.Command{
		Use:   "contentctl",
		Short: "Inspect and operate on versioned content records",
	}
)

func main() {
	rootCmd.PersistentFlags().StringVarP(&typeFlag, "type", "t", "", "Record type descriptor TOML file")
	rootCmd.PersistentFlags().StringVarP(&actorFlag, "actor", "a", "contentctl", "Actor recorded on new snapshots")

	rootCmd.AddCommand(createCmd(), mutateCmd(), promoteCmd(), restoreCmd())
	rootCmd.AddCommand(historyCmd(), showCmd(), diffCmd())
	rootCmd.AddCommand(statusCmd(), verifyCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openStore wires config to the selected store driver. The caller must invoke
// the returned close func.
func openStore() (store.Store, zerolog.Logger, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	log := logger.NewWithLevel("contentctl", cfg.LogLevel)

	st, closeStore, err := factory.NewStore(cfg, log)
	if err != nil {
		return nil, log, nil, err
	}
	return st, log, func() { _ = closeStore() }, nil
}

// openService wires the record service on top of the configured store.
func openService() (*services.RecordService, func(), error) {
	cfg, err := config.New()
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewWithLevel("contentctl", cfg.LogLevel)

	st, closeStore, err := factory.NewStore(cfg, log)
	if err != nil {
		return nil, nil, err
	}
	svc := services.NewRecordService(st, log)
	return svc, func() { _ = closeStore() }, nil
}

// loadDescriptor reads the record type descriptor named by --type.
func loadDescriptor() (*recordtype.Descriptor, error) {
	if typeFlag == "" {
		return nil, fmt.Errorf("--type is required")
	}
	return recordtype.Load(typeFlag)
}
