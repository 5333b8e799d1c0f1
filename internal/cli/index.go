package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/chain/chaintest"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/handlers"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/harness"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/manifest"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/metadata"
	"github.com/DIGITALAX/fgo-futures-contracts/internal/store"
)

// IndexResult reports one indexing run.
type IndexResult struct {
	Network   string `json:"network"`
	Events    int    `json:"events"`
	Skipped   int    `json:"skipped"`
	LastBlock uint64 `json:"last_block,omitempty"`
	Pending   int    `json:"pending_metadata"`
}

func (r IndexResult) String() string {
	return fmt.Sprintf("indexed %d events (%d skipped) on %s, cursor at block %d, %d metadata pending",
		r.Events, r.Skipped, r.Network, r.LastBlock, r.Pending)
}

// NewIndexCommand creates the index command, which replays a decoded
// event log (NDJSON, one event per line, ordered by block then log index)
// into the manifest's SQLite store. The cursor persisted per network makes
// re-running the same log a no-op, so feeds can overlap safely.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		eventsPath   string
		fixturesPath string
		resolveMeta  bool
	)

	cmd := &cobra.Command{
		Use:   "index <manifest.cue>",
		Short: "Replay an event log into the entity store",
		Long: `Replay a decoded contract event log into the manifest's entity store.

Events arrive as NDJSON lines ordered by block and log index. Contract
reads are answered from the --fixtures file when given; without one every
read reverts and handlers fall back to event-carried data.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(rootOpts, args[0], eventsPath, fixturesPath, resolveMeta, cmd)
		},
	}

	cmd.Flags().StringVar(&eventsPath, "events", "", "NDJSON event log (required)")
	cmd.Flags().StringVar(&fixturesPath, "fixtures", "", "yaml oracle fixtures answering contract reads")
	cmd.Flags().BoolVar(&resolveMeta, "resolve-metadata", false, "fetch pending metadata through the manifest's IPFS gateway")
	cmd.MarkFlagRequired("events")

	return cmd
}

func runIndex(opts *RootOptions, manifestPath, eventsPath, fixturesPath string, resolveMeta bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	m, err := manifest.Load(manifestPath)
	if err != nil {
		return formatter.Fail(err.Error())
	}

	oracle := chaintest.NewOracle()
	if fixturesPath != "" {
		fixtures, err := harness.LoadFixtures(fixturesPath)
		if err != nil {
			return formatter.Fail(err.Error())
		}
		oracle = harness.BuildOracle(fixtures)
	}

	st, err := store.Open(m.Database.Path)
	if err != nil {
		return formatter.Fail(err.Error())
	}
	defer st.Close()

	registry := metadata.NewRegistry(st)
	h := handlers.New(st, oracle, registry)
	for _, src := range m.Sources {
		h.RegisterSource(src.Addr(), src.Context())
		formatter.VerboseLog("registered source %s (%s)", src.Name, src.Addr())
	}

	result, err := replayLog(h, st, m, eventsPath, formatter)
	if err != nil {
		return formatter.Fail(err.Error())
	}

	if resolveMeta {
		fetcher := &metadata.HTTPFetcher{Gateway: m.IPFS.Gateway}
		if err := registry.Run(cmd.Context(), fetcher); err != nil {
			return formatter.Fail(fmt.Sprintf("resolve metadata: %v", err))
		}
	}
	result.Pending = len(registry.Pending())

	return formatter.Success(result)
}

// replayLog streams the NDJSON log through Dispatch, advancing the durable
// cursor at every block boundary. Events at or below the cursor, or before
// the manifest's start block, are skipped without dispatch.
func replayLog(h *handlers.Handlers, st *store.SQLite, m *manifest.Manifest, path string, formatter *OutputFormatter) (IndexResult, error) {
	result := IndexResult{Network: m.Network}

	f, err := os.Open(path)
	if err != nil {
		return result, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	cursor, _, err := st.Cursor(m.Network)
	if err != nil {
		return result, err
	}
	result.LastBlock = cursor

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev chain.Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			return result, fmt.Errorf("event log line %d: %w", line, err)
		}
		if ev.BlockNumber <= cursor || ev.BlockNumber < m.StartBlock {
			result.Skipped++
			continue
		}
		if ev.BlockNumber > result.LastBlock && result.LastBlock > cursor {
			if err := st.AdvanceCursor(m.Network, result.LastBlock); err != nil {
				return result, err
			}
		}
		if err := h.Dispatch(ev); err != nil {
			return result, fmt.Errorf("event log line %d: %w", line, err)
		}
		result.Events++
		result.LastBlock = ev.BlockNumber
		formatter.VerboseLog("dispatched %s at block %d", ev.Name, ev.BlockNumber)
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("read event log: %w", err)
	}

	if result.Events > 0 {
		if err := st.AdvanceCursor(m.Network, result.LastBlock); err != nil {
			return result, err
		}
	}
	return result, nil
}
