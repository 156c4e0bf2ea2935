package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/avezina/identity-service/internal/tools/migrate"
	"github.com/avezina/identity-service/internal/tools/purge"
	"github.com/avezina/identity-service/internal/tools/seed"
)

func main() {
	root := &cobra.Command{
		Use:           "idctl",
		Short:         "Operational tooling for the identity service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(migrate.NewCommand(), seed.NewCommand(), purge.NewCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
