package main

import (
	"fmt"
	"log/slog"
	"os"

	cmdreport "github.com/Archaeopteryx/BugsByCycleWeekSeverity/command/report"
	cmdweb "github.com/Archaeopteryx/BugsByCycleWeekSeverity/command/web"
)

// Weekly report of bug counts by severity group for a product release,
// flagging bugs whose severity was lowered before the release and raised
// again afterwards.
// Usage:
//   bugcycle report <version> [-bzdata-load[=path]] [-bzdata-save[=path]]
//   bugcycle web [-addr :8080] [-data ./data]

func main() {
	args := os.Args
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	slog.SetDefault(slog.New(h))

	if len(args) > 1 {
		sub := args[1]
		rest := append([]string{}, args[2:]...)
		switch sub {
		case "report":
			if err := cmdreport.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		case "web":
			if err := cmdweb.Run(rest); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: bugcycle report <version> [-bzdata-load[=path]] [-bzdata-save[=path]] | web [-addr :8080] [-data ./data]\nENV: set CONFIG_PATH to point to a YAML config file (default ./config.yml)")
	os.Exit(2)
}
