package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucat1/consulns/internal/domain"
	"github.com/lucat1/consulns/internal/store"
)

var stageTTL uint32

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Inspect and edit the current zone's pending changes",
}

// currentZone resolves the CLI's implicit zone context, failing with
// ErrNoZoneSelected when no "zone use" has been run (spec §7).
func currentZone(st *store.Store) (*store.Zone, error) {
	z, err := st.CurrentZone()
	if err != nil {
		return nil, err
	}
	if z == nil {
		return nil, domain.ErrNoZoneSelected
	}
	return z, nil
}

var stageStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "List pending changes on the current zone",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := getStore()
		if err != nil {
			return err
		}
		z, err := currentZone(st)
		if err != nil {
			return err
		}
		changes, err := z.Stage().Changes()
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			fmt.Println("No pending changes.")
			return nil
		}
		for i, c := range changes {
			switch c.Kind {
			case domain.ChangeAdd:
				fmt.Printf("%d: add %s\n", i, c.Record.PrettyString())
			case domain.ChangeDel:
				fmt.Printf("%d: del %s\n", i, c.DelID)
			}
		}
		return nil
	},
}

var stageAddCmd = &cobra.Command{
	Use:   "add <name> <type> <value>",
	Short: "Stage the addition of a record",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := getStore()
		if err != nil {
			return err
		}
		z, err := currentZone(st)
		if err != nil {
			return err
		}
		typ := domain.RecordType(args[1])
		if !domain.ValidRecordType(typ) {
			return fmt.Errorf("invalid record type %q", args[1])
		}
		r := domain.NewRecord(args[0], typ, args[2], stageTTL)
		if err := z.Stage().AddRecord(r); err != nil {
			return err
		}
		fmt.Printf("staged add %s\n", r.PrettyString())
		return nil
	},
}

var stageDelCmd = &cobra.Command{
	Use:   "del <name> <type> <value>",
	Short: "Stage the deletion of a committed record by its content",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := getStore()
		if err != nil {
			return err
		}
		z, err := currentZone(st)
		if err != nil {
			return err
		}
		typ := domain.RecordType(args[1])
		if !domain.ValidRecordType(typ) {
			return fmt.Errorf("invalid record type %q", args[1])
		}
		records, err := z.Records()
		if err != nil {
			return err
		}
		target := domain.NewRecord(args[0], typ, args[2], 0).ContentKey()
		var found *domain.Record
		for i := range records {
			if records[i].ContentKey() == target {
				found = &records[i]
				break
			}
		}
		if found == nil {
			return fmt.Errorf("no committed record matching %s %s %s", args[0], args[1], args[2])
		}
		if err := z.Stage().DelRecord(*found); err != nil {
			return err
		}
		fmt.Printf("staged del %s\n", found.PrettyString())
		return nil
	},
}

var stageRevertCmd = &cobra.Command{
	Use:   "revert <index>",
	Short: "Remove the i-th pending change by insertion order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := getStore()
		if err != nil {
			return err
		}
		z, err := currentZone(st)
		if err != nil {
			return err
		}
		var idx int
		if _, err := fmt.Sscanf(args[0], "%d", &idx); err != nil {
			return fmt.Errorf("invalid index %q", args[0])
		}
		if err := z.Stage().Revert(idx); err != nil {
			return err
		}
		fmt.Printf("reverted change %d\n", idx)
		return nil
	},
}

var stageCommitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Apply every pending change to the current zone",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := getStore()
		if err != nil {
			return err
		}
		z, err := currentZone(st)
		if err != nil {
			return err
		}
		if err := z.Commit(); err != nil {
			return err
		}
		notifyReload(z.Name().String())
		fmt.Printf("committed pending changes to %s\n", z.Name())
		return nil
	},
}

func init() {
	stageAddCmd.Flags().Uint32Var(&stageTTL, "ttl", 300, "record TTL in seconds")
	stageCmd.AddCommand(stageStatusCmd, stageAddCmd, stageDelCmd, stageRevertCmd, stageCommitCmd)
}
