package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/chefsync/backline/internal/config"
	"github.com/chefsync/backline/internal/harness"
)

// NewValidateCommand creates the validate command. It checks config
// files (.cue) and scenario files (.yaml) without contacting a backend.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate config and scenario files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f := formatterFor(cmd, rootOpts)

			type fileResult struct {
				File  string `json:"file"`
				Kind  string `json:"kind"`
				OK    bool   `json:"ok"`
				Error string `json:"error,omitempty"`
			}
			results := make([]fileResult, 0, len(args))
			failed := 0

			for _, path := range args {
				res := fileResult{File: path, OK: true}
				switch filepath.Ext(path) {
				case ".cue":
					res.Kind = "config"
					if _, err := config.Load(path); err != nil {
						res.OK, res.Error = false, err.Error()
					}
				case ".yaml", ".yml":
					res.Kind = "scenario"
					if _, err := harness.LoadScenario(path); err != nil {
						res.OK, res.Error = false, err.Error()
					}
				default:
					res.Kind = "unknown"
					res.OK, res.Error = false, "unsupported file type (want .cue or .yaml)"
				}
				if !res.OK {
					failed++
				}
				results = append(results, res)
			}

			if f.JSON() {
				if err := f.Success(map[string]any{"results": results, "failed": failed}); err != nil {
					return err
				}
			} else {
				for _, r := range results {
					if r.OK {
						fmt.Fprintf(f.Writer, "ok\t%s\t%s\n", r.Kind, r.File)
					} else {
						fmt.Fprintf(f.Writer, "FAIL\t%s\t%s: %s\n", r.Kind, r.File, r.Error)
					}
				}
			}

			if failed > 0 {
				return NewExitError(ExitFailure, fmt.Sprintf("%d of %d files invalid", failed, len(args)))
			}
			return nil
		},
	}
}
