package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"docfactory/internal/records"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and record store status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := records.Open(filepath.Join(cfg.Paths.IndexDir, "records.json"), nil)
			if err != nil {
				return fmt.Errorf("open record store: %w", err)
			}

			counts := map[string]int{}
			for _, record := range store.List() {
				counts[record.Status]++
			}

			running, pid := daemonRunning(cfg.Paths.LogDir)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Daemon running: %s", yesNo(running))
			if running {
				fmt.Fprintf(out, " (pid %d)", pid)
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "Input directory: %s\n", cfg.Paths.InputDir)
			fmt.Fprintf(out, "Archive directory: %s\n", cfg.Paths.ArchiveDir)
			fmt.Fprintf(out, "Documents: %d total", store.Count())
			if store.Count() > 0 {
				parts := make([]string, 0, len(counts))
				for _, status := range []string{records.StatusDone, records.StatusDuplicate, records.StatusErrored, records.StatusPending} {
					if counts[status] > 0 {
						parts = append(parts, fmt.Sprintf("%d %s", counts[status], status))
					}
				}
				fmt.Fprintf(out, " (%s)", strings.Join(parts, ", "))
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

// daemonRunning checks the pid file left by the daemon and probes the
// process with signal 0.
func daemonRunning(logDir string) (bool, int) {
	data, err := os.ReadFile(filepath.Join(logDir, "docfactoryd.pid"))
	if err != nil {
		return false, 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false, 0
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		return false, 0
	}
	return true, pid
}
