package shell

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spf13/pflag"

	"nfsh/pkg/rfs"
	"nfsh/pkg/rpath"
)

const mtimeFormat = "2006-01-02 15:04"

type lsCmd struct{}

func (c *lsCmd) Name() string        { return "ls" }
func (c *lsCmd) Description() string { return "List remote files and directories" }
func (c *lsCmd) Usage() string       { return "ls [-r] [path ...]" }

// Run walks a worklist of targets. Recursion queues subdirectories on the
// same list instead of descending, so arbitrarily deep trees cannot
// overflow the stack, and a failing target never aborts the rest.
func (c *lsCmd) Run(s *Shell, args []string, ui UserInterface) error {
	flags := pflag.NewFlagSet(c.Name(), pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	recursive := flags.BoolP("recursive", "r", false, "descend into subdirectories")
	if err := flags.Parse(args); err != nil {
		return usageErrorf("%v", err)
	}

	queue := flags.Args()
	if len(queue) == 0 {
		queue = []string{"."}
	}
	headers := *recursive || len(queue) > 1

	blocks := 0
	for len(queue) > 0 {
		target := queue[0]
		queue = queue[1:]
		canonical := s.canon(target)

		attr, err := s.engine.GetAttr(canonical)
		if err != nil {
			ui.PrintErrorf("ls: %s: %v", target, err)
			continue
		}

		if !attr.IsDir() {
			tw := newListWriter(ui)
			c.printEntry(s, tw, canonical, rpath.Base(canonical), attr)
			_ = tw.Flush()
			blocks++
			continue
		}

		entries, rErr := s.engine.ReadDir(canonical)
		if rErr != nil {
			ui.PrintErrorf("ls: %s: %v", target, rErr)
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })

		if headers {
			if blocks > 0 {
				ui.Printf("")
			}
			ui.Printf("%s:", canonical)
		}
		blocks++

		tw := newListWriter(ui)
		for _, entry := range entries {
			// Join cleans "." and ".." so the self and parent markers
			// resolve to real paths for the attribute fetch.
			entryPath := rpath.Join(canonical, entry.Name)
			entryAttr, aErr := s.engine.GetAttr(entryPath)
			if aErr != nil {
				ui.PrintErrorf("ls: %s: %v", entryPath, aErr)
				continue
			}

			c.printEntry(s, tw, entryPath, entry.Name, entryAttr)

			if *recursive && entryAttr.IsDir() && entry.Name != "." && entry.Name != ".." {
				queue = append(queue, entryPath)
			}
		}
		_ = tw.Flush()
	}
	return nil
}

func newListWriter(ui UserInterface) *tabwriter.Writer {
	return tabwriter.NewWriter(ui.Writer(), 0, 4, 2, ' ', tabwriter.AlignRight)
}

// printEntry emits a single listing row. Symlinks are annotated with their
// target; when the target cannot be read the annotation is a placeholder
// rather than a failure for the whole listing.
func (c *lsCmd) printEntry(s *Shell, tw *tabwriter.Writer, path, name string, attr *rfs.Attr) {
	display := name
	if attr.IsSymlink() {
		target, err := s.engine.ReadLink(path)
		if err != nil {
			target = "(unresolved)"
		}
		display = fmt.Sprintf("%s -> %s", name, target)
	}

	_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%s\t %s\n",
		attr.ModeString(),
		attr.UID,
		attr.GID,
		attr.Size,
		attr.Mtime.Format(mtimeFormat),
		display,
	)
}
