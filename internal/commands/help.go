package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHelpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "help",
		Short: "Show comprehensive help for fencer",
		Long:  `Display detailed help for all fencer commands and flags.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), customHelp)
		},
	}
}

const customHelp = `
 ███████╗███████╗███╗   ██╗ ██████╗███████╗██████╗
 ██╔════╝██╔════╝████╗  ██║██╔════╝██╔════╝██╔══██╗
 █████╗  █████╗  ██╔██╗ ██║██║     █████╗  ██████╔╝
 ██╔══╝  ██╔══╝  ██║╚██╗██║██║     ██╔══╝  ██╔══██╗
 ██║     ███████╗██║ ╚████║╚██████╗███████╗██║  ██║
 ╚═╝     ╚══════╝╚═╝  ╚═══╝ ╚═════╝╚══════╝╚═╝  ╚═╝

fencer - focus sessions for the terminal

COMMANDS:

  start [duration]        Start a focus session
    --apps                Apps to block this time (default: your list)
    --no-ui               Plain countdown instead of the timer screen

    Durations:
      25            25 minutes
      45m           45 minutes
      1h30m         an hour and a half (max 2h)

    Timer keys:
      p             Pause/resume
      s             Give up (not counted as completed)
      q             Quit, same as giving up

  stats                   Totals, completion rate and streaks
    --json                JSON output

  history                 Past sessions, newest first
    -n, --limit           How many to show (0 = all)
    -f, --format          table|json|yaml|csv|xlsx
    -o, --out             Write to a file

  settings                Show settings
  settings set            Change settings
    --theme               light|dark|neon
    --duration            Default session length
    --sound, --vibration, --notifications
    --unlock-neon         Unlock the neon theme
  settings edit           Edit settings in a form

  apps ls                 Show blocked apps
  apps add <app...>       Block apps
  apps rm <app...>        Unblock apps
  apps running            Show running apps you could block

  reset                   Clear session history
    --all                 Clear stats and settings too
    -y, --yes             Skip confirmation

  version                 Print version
  help                    Show this help

GLOBAL FLAGS:
  --config <file>         Config file (default ~/.config/fencer/config.toml)
  --db <file>             Database file
  --debug                 Log debug output to stderr

`
