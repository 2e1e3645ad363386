package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/y0f/fsclient/internal/client"
	"github.com/y0f/fsclient/internal/connector"
)

func newConnectorCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connector",
		Short: "Fetch storage connectors from the feature store",
	}
	cmd.AddCommand(newConnectorGetCmd(opts))
	cmd.AddCommand(newConnectorOnlineCmd(opts))
	return cmd
}

func newConnectorGetCmd(opts *options) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "get <name>",
		Short: "Fetch a storage connector by name with temporary credentials",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := connectorAPI(cmd, opts)
			if err != nil {
				return err
			}
			sc, err := api.Get(cmd.Context(), args[0])
			if err != nil {
				return lookupError(fmt.Sprintf("connector %q", args[0]), err)
			}
			return renderConnector(cmd, sc, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the raw connector as JSON")
	return cmd
}

func newConnectorOnlineCmd(opts *options) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "online",
		Short: "Fetch the online feature store connector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			api, err := connectorAPI(cmd, opts)
			if err != nil {
				return err
			}
			sc, err := api.GetOnlineConnector(cmd.Context())
			if err != nil {
				return lookupError("online connector", err)
			}
			return renderConnector(cmd, sc, jsonOutput)
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the raw connector as JSON")
	return cmd
}

func connectorAPI(cmd *cobra.Command, opts *options) (*connector.API, error) {
	e, err := opts.load(cmd)
	if err != nil {
		return nil, err
	}
	c := client.New(e.cfg.API, client.WithLogger(e.logger))
	return connector.NewAPI(c, e.cfg.API.FeatureStoreID), nil
}

// summaryKeys are the connection settings worth showing in table output.
var summaryKeys = []string{"connectionString", "url", "bucket", "path", "database", "bootstrapServers"}

func lookupError(what string, err error) error {
	switch {
	case client.IsNotFound(err):
		return fmt.Errorf("%s not found: %w", what, err)
	case client.IsUnauthorized(err):
		return fmt.Errorf("%s: access denied, check api.api_key and project membership: %w", what, err)
	default:
		return fmt.Errorf("get %s: %w", what, err)
	}
}

func renderConnector(cmd *cobra.Command, sc *connector.StorageConnector, jsonOutput bool) error {
	if jsonOutput {
		return renderJSON(cmd, sc)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "NAME\t%s\n", sc.Name)
	if sc.Type.Known() {
		fmt.Fprintf(w, "TYPE\t%s\n", sc.Type)
	} else {
		fmt.Fprintf(w, "TYPE\t%s (unrecognized)\n", sc.Type)
	}
	fmt.Fprintf(w, "ID\t%d\n", sc.ID)
	if sc.Description != "" {
		fmt.Fprintf(w, "DESCRIPTION\t%s\n", sc.Description)
	}
	for _, key := range summaryKeys {
		if v := sc.Setting(key); v != "" {
			fmt.Fprintf(w, "%s\t%s\n", key, v)
		}
	}

	args := sc.Arguments()
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "ARG %s\t%s\n", name, args[name])
	}
	return w.Flush()
}
