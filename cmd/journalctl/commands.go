package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmanzanog/trade-journal/internal/domain"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Rewrite legacy trade records with canonical field names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			service, closer, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = closer.Close()
			}()

			n, err := service.MigrateLegacy(cmd.Context())
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "normalized %d legacy record(s)\n", n)
			return err
		},
	}
}

func newListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print every stored trade",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != formatJSON && format != formatYAML {
				return fmt.Errorf("unsupported format %q (want json or yaml)", format)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			service, closer, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = closer.Close()
			}()

			trades, err := service.ListTrades(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), format, trades)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatJSON, "output format (json, yaml)")
	return cmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Print a single trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			service, closer, err := openService(cmd.Context())
			if err != nil {
				return err
			}
			defer func() {
				_ = closer.Close()
			}()

			trade, err := service.GetTrade(cmd.Context(), args[0])
			if errors.Is(err, domain.ErrTradeNotFound) {
				return fmt.Errorf("trade %s not found", args[0])
			}
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), formatJSON, trade)
		},
	}
}

func render(w io.Writer, format string, v any) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
