package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/entities"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/harness"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/store"
)

// NewDumpCommand creates the dump command. With no kind argument it emits
// the full sorted entity snapshot; with one it lists that kind only.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:           "dump [kind]",
		Short:         "Dump indexed entities as JSON",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := ""
			if len(args) == 1 {
				kind = args[0]
			}
			return runDump(rootOpts, dbPath, kind, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "entity store path (required)")
	cmd.MarkFlagRequired("db")

	return cmd
}

func runDump(opts *RootOptions, dbPath, kind string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	st, err := store.Open(dbPath)
	if err != nil {
		return formatter.Fail(err.Error())
	}
	defer st.Close()

	if kind == "" {
		snap, err := harness.Snapshot(st)
		if err != nil {
			return formatter.Fail(err.Error())
		}
		_, err = cmd.OutOrStdout().Write(snap)
		return err
	}

	if !knownKind(kind) {
		return formatter.Fail(fmt.Sprintf("unknown entity kind %q", kind))
	}
	list, err := st.List(entities.Kind(kind))
	if err != nil {
		return formatter.Fail(err.Error())
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}

func knownKind(kind string) bool {
	for _, k := range entities.Kinds() {
		if string(k) == kind {
			return true
		}
	}
	return false
}
