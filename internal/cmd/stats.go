package cmd

import (
	"fmt"
	"sort"

	"github.com/openagora/agora/internal/coordination"
)

// showStats is a global flag: commands that run a hub print its bus counters
// and agent statuses before exiting.
var showStats bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&showStats, "stats", false, "Print bus statistics after the command completes")
}

// printStats renders the hub's bus counters and per-agent queue snapshots.
func printStats(hub *coordination.Hub) {
	stats := hub.Bus().Stats()

	fmt.Println()
	fmt.Println(titleStyle.Render("BUS STATISTICS"))
	fmt.Println(divider())
	fmt.Printf("%s %d sent / %d delivered / %d failed\n",
		labelStyle.Render("envelopes:"), stats.Sent, stats.Delivered, stats.Failed)
	fmt.Printf("%s %d registered, queue depth %d, history %d\n",
		labelStyle.Render("agents:"), stats.Agents, stats.QueueDepth, stats.HistorySize)

	statuses := hub.Bus().AgentStatuses()
	names := make([]string, 0, len(statuses))
	for name := range statuses {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println()
	for _, name := range names {
		s := statuses[name]
		fmt.Printf("  %-14s %-10s in=%d out=%d dropped=%d\n",
			name, s.State, s.InboundSize, s.OutboundSize, s.Dropped)
	}
	fmt.Println()
}
