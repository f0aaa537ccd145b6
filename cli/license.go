package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"panellicense/services"
)

func newLicenseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "license",
		Short: "Manage licenses directly against the database",
	}
	cmd.AddCommand(
		newLicenseGenerateCommand(),
		newLicenseBindingCommand("activate", "Activate a license for a domain and hardware id"),
		newLicenseBindingCommand("validate", "Validate a license without changing it"),
		newLicenseKeyCommand("show", "Show a license", func(r *runtime, cmd *cobra.Command, key string) (interface{}, error) {
			return r.authority.Get(cmd.Context(), key)
		}),
		newLicenseKeyCommand("suspend", "Suspend a license", func(r *runtime, cmd *cobra.Command, key string) (interface{}, error) {
			return r.authority.Suspend(cmd.Context(), key)
		}),
		newLicenseKeyCommand("reinstate", "Reinstate a suspended license", func(r *runtime, cmd *cobra.Command, key string) (interface{}, error) {
			return r.authority.Reinstate(cmd.Context(), key)
		}),
		newLicenseKeyCommand("activity", "List the lifecycle events of a license", func(r *runtime, cmd *cobra.Command, key string) (interface{}, error) {
			return r.authority.Activity(cmd.Context(), key)
		}),
		newLicenseSetStatusCommand(),
		newLicenseListCommand(),
		newLicenseStatsCommand(),
	)
	return cmd
}

func newLicenseGenerateCommand() *cobra.Command {
	var (
		tier   string
		domain string
		userID string
		grace  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new license",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			params := services.GenerateParams{Tier: tier, Domain: domain}
			if userID != "" {
				params.UserID = &userID
			}
			if cmd.Flags().Changed("grace") {
				params.GracePeriod = &grace
			}

			lic, err := r.authority.Generate(services.ContextWithActor(cmd.Context(), cliActor), params)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), lic)
		},
	}
	cmd.Flags().StringVar(&tier, "tier", "", "license tier (basic, professional, enterprise)")
	cmd.Flags().StringVar(&domain, "domain", "", "intended domain of the installation")
	cmd.Flags().StringVar(&userID, "user", "", "owning user id")
	cmd.Flags().DurationVar(&grace, "grace", 0, "grace period after expiry (overrides license.grace_period)")
	_ = cmd.MarkFlagRequired("tier")
	_ = cmd.MarkFlagRequired("domain")
	return cmd
}

// newLicenseBindingCommand builds activate and validate, which take the same binding flags.
func newLicenseBindingCommand(use, short string) *cobra.Command {
	var p services.BindingParams
	cmd := &cobra.Command{
		Use:   use + " KEY",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			p.LicenseKey = args[0]
			ctx := services.ContextWithActor(cmd.Context(), cliActor)
			if use == "activate" {
				lic, err := r.authority.Activate(ctx, p)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), lic)
			}

			res, err := r.authority.Validate(ctx, p)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&p.Domain, "domain", "", "domain of the installation")
	cmd.Flags().StringVar(&p.HardwareID, "hardware-id", "", "hardware fingerprint of the installation")
	return cmd
}

type keyAction func(r *runtime, cmd *cobra.Command, key string) (interface{}, error)

func newLicenseKeyCommand(use, short string, action keyAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " KEY",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			cmd.SetContext(services.ContextWithActor(cmd.Context(), cliActor))
			out, err := action(r, cmd, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newLicenseSetStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status KEY STATUS",
		Short: "Set the stored status of a license (active or suspended)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			lic, err := r.authority.UpdateStatus(services.ContextWithActor(cmd.Context(), cliActor), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), lic)
		},
	}
}

func newLicenseListCommand() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the licenses of a user, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			r, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			licenses, err := r.authority.ListByUser(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), licenses)
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "owning user id")
	return cmd
}

func newLicenseStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count licenses by derived state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			counts, err := r.store.CountByState(cmd.Context(), time.Now().UTC())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), counts)
		},
	}
}
