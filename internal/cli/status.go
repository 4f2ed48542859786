package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the runtime host is running",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	pidFile := getPIDFilePath()
	running, pid := isRunning(pidFile)
	if !running {
		fmt.Println("Runtime is not running.")
		return nil
	}

	info, err := os.Stat(pidFile)
	if err != nil {
		fmt.Printf("Runtime is running (pid %d).\n", pid)
		return nil
	}

	uptime := time.Since(info.ModTime())
	fmt.Printf("Runtime is running (pid %d), uptime %s.\n", pid, formatDuration(uptime))
	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	return fmt.Sprintf("%02dh%02dm%02ds", h, m, s)
}
