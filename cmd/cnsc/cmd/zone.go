package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucat1/consulns/internal/domain"
)

var zoneCmd = &cobra.Command{
	Use:   "zone",
	Short: "Manage zones",
}

var zoneListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every indexed zone",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := getStore()
		if err != nil {
			return err
		}
		zones, err := st.Zones()
		if err != nil {
			return err
		}
		if len(zones) == 0 {
			fmt.Println("No zones found.")
			return nil
		}
		for _, z := range zones {
			fmt.Println(z.Name().String())
		}
		return nil
	},
}

var zoneAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new zone to the index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := getStore()
		if err != nil {
			return err
		}
		name := domain.NewName(args[0])
		if _, err := st.AddZone(name); err != nil {
			return err
		}
		fmt.Printf("zone %s added\n", name)
		return nil
	},
}

var zoneShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show a zone's info document and record count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := getStore()
		if err != nil {
			return err
		}
		z, err := st.Zone(domain.NewName(args[0]))
		if err != nil {
			return err
		}
		info, err := z.Info()
		if err != nil {
			return err
		}
		records, err := z.Records()
		if err != nil {
			return err
		}
		fmt.Printf("zone:            %s\n", z.Name())
		fmt.Printf("serial:          %d\n", info.Serial)
		fmt.Printf("notified_serial: %d\n", info.NotifiedSerial)
		fmt.Printf("enabled:         %t\n", info.Enabled)
		fmt.Printf("last_check:      %s\n", info.LastCheck)
		fmt.Printf("records:         %d\n", len(records))
		for _, r := range records {
			fmt.Printf("  %s\n", r.PrettyString())
		}
		return nil
	},
}

var zoneUseCmd = &cobra.Command{
	Use:   "use <name>",
	Short: "Set the current zone used by stage subcommands",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := getStore()
		if err != nil {
			return err
		}
		z, err := st.Zone(domain.NewName(args[0]))
		if err != nil {
			return err
		}
		if err := st.UseZone(z); err != nil {
			return err
		}
		fmt.Printf("current zone set to %s\n", z.Name())
		return nil
	},
}

func init() {
	zoneCmd.AddCommand(zoneListCmd, zoneAddCmd, zoneShowCmd, zoneUseCmd)
}
