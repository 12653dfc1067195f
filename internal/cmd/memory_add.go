package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/designctl/internal/config"
	"github.com/Iron-Ham/designctl/internal/errors"
	"github.com/Iron-Ham/designctl/internal/memory"
)

var memoryAddCmd = &cobra.Command{
	Use:   "memory-add <memPath>",
	Short: "Add a memory entry from stdin, subject to the quality gate",
	Long: `Reads {"content", "category", "importance"} from stdin and appends it
to the memory store. Entries without content, with an unknown category
or with importance outside 1-10 are rejected; the rejection is reported
as ok:false with the quality_gate code and nothing is written.

With --boost or --decay and --id, no entry is read from stdin; instead
the named entry's importance is nudged up or down by one, clamped to
the 1-10 range.`,
	Args: cobra.ExactArgs(1),
	RunE: runMemoryAdd,
}

func init() {
	memoryAddCmd.Flags().String("id", "", "entry to adjust with --boost or --decay")
	memoryAddCmd.Flags().Bool("boost", false, "raise the entry's importance by one")
	memoryAddCmd.Flags().Bool("decay", false, "lower the entry's importance by one")
	rootCmd.AddCommand(memoryAddCmd)
}

func runMemoryAdd(cmd *cobra.Command, args []string) error {
	store := memory.NewStore(args[0])

	boost, _ := cmd.Flags().GetBool("boost")
	decay, _ := cmd.Flags().GetBool("decay")
	if boost || decay {
		if boost && decay {
			return fail(cmd, errors.NewCommand(errors.CodeInvalidInput,
				"--boost and --decay are mutually exclusive"), nil)
		}
		id, _ := cmd.Flags().GetString("id")
		if id == "" {
			return fail(cmd, errors.NewCommand(errors.CodeInvalidInput,
				"--boost and --decay require --id"), nil)
		}
		adjust := store.Boost
		if decay {
			adjust = store.Decay
		}
		entry, err := adjust(id)
		if err != nil {
			return fail(cmd, err, nil)
		}
		return ok(cmd, map[string]any{
			"id":         entry.ID,
			"importance": entry.Importance,
		})
	}

	cfg, err := config.Load()
	if err != nil {
		return fail(cmd, errors.Wrap(errors.CodeInternal, "failed to load config", err), nil)
	}

	var body struct {
		Content    string `json:"content"`
		Category   string `json:"category"`
		Importance int    `json:"importance"`
	}
	if err := decodeStdin(cmd, &body); err != nil {
		return fail(cmd, err, nil)
	}
	if body.Importance == 0 {
		body.Importance = cfg.Memory.DefaultImportance
	}

	id, err := store.Add(body.Content, body.Category, body.Importance, time.Now())
	if err != nil {
		return fail(cmd, err, nil)
	}
	return ok(cmd, map[string]any{"id": id})
}
