package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/manifest"
)

// ValidationResult summarizes a validated manifest.
type ValidationResult struct {
	Valid      bool   `json:"valid"`
	Network    string `json:"network,omitempty"`
	StartBlock uint64 `json:"start_block,omitempty"`
	Sources    int    `json:"sources,omitempty"`
}

func (r ValidationResult) String() string {
	if !r.Valid {
		return "invalid"
	}
	return fmt.Sprintf("valid: network=%s start_block=%d sources=%d",
		r.Network, r.StartBlock, r.Sources)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <manifest.cue>",
		Short: "Validate an indexing manifest",
		Long: `Validate an indexing manifest against the embedded schema.

Checks addresses, source kinds, and required fields without opening the
database or touching the network.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	m, err := manifest.Load(path)
	if err != nil {
		return formatter.Fail(err.Error())
	}

	for _, src := range m.Sources {
		formatter.VerboseLog("source %s: kind=%s address=%s infra=%d",
			src.Name, src.Kind, strings.ToLower(src.Address), src.InfraID)
	}

	return formatter.Success(ValidationResult{
		Valid:      true,
		Network:    m.Network,
		StartBlock: m.StartBlock,
		Sources:    len(m.Sources),
	})
}
