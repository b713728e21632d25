package shell

import (
	"fmt"
	"text/tabwriter"
)

type helpCmd struct{}

func (c *helpCmd) Name() string        { return "help" }
func (c *helpCmd) Description() string { return "List commands, or show the usage of one command" }
func (c *helpCmd) Usage() string       { return "help [command]" }

func (c *helpCmd) Run(s *Shell, args []string, ui UserInterface) error {
	switch len(args) {
	case 0:
		tw := tabwriter.NewWriter(ui.Writer(), 0, 4, 2, ' ', 0)
		for _, name := range s.registry.List() {
			cmd, _ := s.registry.Get(name)
			_, _ = fmt.Fprintf(tw, "%s\t%s\n", cmd.Usage(), cmd.Description())
		}
		return tw.Flush()
	case 1:
		cmd, ok := s.registry.Get(args[0])
		if !ok {
			return fmt.Errorf("no such command %q", args[0])
		}
		ui.Printf("%s", cmd.Description())
		ui.Printf("Usage: %s", cmd.Usage())
		return nil
	default:
		return usageErrorf("help takes at most one argument")
	}
}
