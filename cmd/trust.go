package cmd

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/goclaw-node/internal/node"
	"github.com/nextlevelbuilder/goclaw-node/internal/trust"
)

func trustCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trust",
		Short: "Manage pinned gateway TLS fingerprints",
	}
	cmd.AddCommand(trustResolveCmd(), trustProbeCmd(), trustPinCmd(), trustForgetCmd())
	return cmd
}

func trustResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Print the TLS parameters the next connection would use",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.live.Snapshot()
			cm := node.NewConnectionManager(app.live, trust.NewKeyringStore(), clientIdentity(cfg))
			ep := gatewayEndpoint(cfg.Gateway)
			params, err := cm.ResolveTLSParams(cmd.Context(), ep)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"endpoint": ep,
				"url":      ep.URL(params != nil),
				"tls":      params,
			})
		},
	}
}

func trustProbeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Fetch the gateway certificate fingerprint and offer to pin it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg := app.live.Snapshot()
			ep := gatewayEndpoint(cfg.Gateway)

			fp, err := trust.Probe(ctx, net.JoinHostPort(ep.Host, strconv.Itoa(ep.Port)), ep.Host)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "gateway %s (%s)\nsha256 %s\n", ep.Name, ep.StableID, fp)
			if ep.TLSFingerprintSHA256 != "" && trust.NormalizeFingerprint(ep.TLSFingerprintSHA256) != fp {
				fmt.Fprintln(out, "warning: fingerprint differs from the discovery hint")
			}

			confirmed := yes
			if !confirmed {
				err := huh.NewForm(huh.NewGroup(
					huh.NewConfirm().
						Title("Pin this certificate?").
						Description("Compare the fingerprint with the one shown on the gateway host.").
						Affirmative("Pin").
						Negative("Cancel").
						Value(&confirmed),
				)).Run()
				if errors.Is(err, huh.ErrUserAborted) {
					return nil
				}
				if err != nil {
					return err
				}
			}
			if !confirmed {
				fmt.Fprintln(out, "not pinned")
				return nil
			}
			if err := trust.NewKeyringStore().Save(ctx, ep.StableID, fp); err != nil {
				return err
			}
			fmt.Fprintln(out, "pinned")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "pin without asking")
	return cmd
}

func trustPinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pin <sha256>",
		Short: "Pin a known fingerprint for the configured gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ep := gatewayEndpoint(app.live.Snapshot().Gateway)
			return trust.NewKeyringStore().Save(cmd.Context(), ep.StableID, args[0])
		},
	}
}

func trustForgetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "forget",
		Short: "Remove the pinned fingerprint for the configured gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ep := gatewayEndpoint(app.live.Snapshot().Gateway)
			return trust.NewKeyringStore().Delete(cmd.Context(), ep.StableID)
		},
	}
}
