package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"whale-copytrader/internal/ledger"
)

func newBlacklistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Manage the bought-coins file",
		Long: `The blacklist file holds the contract addresses already bought, one per
line. When save_bought_coins is on, 'copytrader run' never buys a listed
token and rewrites the file on exit.`,
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List blacklisted contract addresses",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			addrs, err := ledger.LoadBlacklist(app.Config.Persistence.BlacklistFile)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				if addrs == nil {
					addrs = []string{}
				}
				return output.JSON(addrs)
			}
			if len(addrs) == 0 {
				output.Dim("%s is empty", app.Config.Persistence.BlacklistFile)
				return nil
			}
			for _, a := range addrs {
				output.Println(a)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <contract-address>...",
		Short: "Add contract addresses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := app.Config.Persistence.BlacklistFile
			addrs, err := ledger.LoadBlacklist(path)
			if err != nil {
				return err
			}
			updated, added := addAddresses(addrs, args)
			if err := ledger.SaveBlacklist(path, updated); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]int{"added": added, "total": len(updated)})
			}
			output.Success("Added %d address(es), %d total", added, len(updated))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "remove <contract-address>...",
		Aliases: []string{"rm"},
		Short:   "Remove contract addresses",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			path := app.Config.Persistence.BlacklistFile
			addrs, err := ledger.LoadBlacklist(path)
			if err != nil {
				return err
			}
			updated, removed := removeAddresses(addrs, args)
			if err := ledger.SaveBlacklist(path, updated); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]int{"removed": removed, "total": len(updated)})
			}
			if removed == 0 {
				output.Warning("No matching addresses")
				return nil
			}
			output.Success("Removed %d address(es), %d left", removed, len(updated))
			return nil
		},
	})

	return cmd
}

func addAddresses(existing, add []string) ([]string, int) {
	seen := make(map[string]struct{}, len(existing))
	for _, a := range existing {
		seen[a] = struct{}{}
	}
	out := append([]string(nil), existing...)
	added := 0
	for _, a := range add {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
		added++
	}
	return out, added
}

func removeAddresses(existing, remove []string) ([]string, int) {
	drop := make(map[string]struct{}, len(remove))
	for _, a := range remove {
		drop[strings.TrimSpace(a)] = struct{}{}
	}
	out := make([]string, 0, len(existing))
	for _, a := range existing {
		if _, ok := drop[a]; ok {
			continue
		}
		out = append(out, a)
	}
	return out, len(existing) - len(out)
}
