package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/aleksaelezovic/hexagraph"
	"github.com/aleksaelezovic/hexagraph/internal/nquads"
	"github.com/aleksaelezovic/hexagraph/pkg/store"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
)

var (
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
)

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:      "insert",
			Usage:     "insert a quad",
			ArgsUsage: "<subject> <predicate> <object> [graph]",
			Action: withDB(func(c *cli.Context, db *hexagraph.DB) error {
				quad, err := quadArgs(c)
				if err != nil {
					return err
				}
				inserted, err := db.InsertQuad(quad)
				if err != nil {
					return err
				}
				return outcome(c, inserted, "inserted", "already present")
			}),
		},
		{
			Name:      "delete",
			Usage:     "delete a quad",
			ArgsUsage: "<subject> <predicate> <object> [graph]",
			Action: withDB(func(c *cli.Context, db *hexagraph.DB) error {
				quad, err := quadArgs(c)
				if err != nil {
					return err
				}
				deleted, err := db.DeleteQuad(quad)
				if err != nil {
					return err
				}
				return outcome(c, deleted, "deleted", "not present")
			}),
		},
		{
			Name:      "load",
			Usage:     "insert every quad of an N-Quads file",
			ArgsUsage: "<file.nq>",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "batch",
					Value: 1000,
					Usage: "quads per transaction",
				},
			},
			Action: withDB(load),
		},
		{
			Name:  "count",
			Usage: "print the number of quads",
			Action: withDB(func(c *cli.Context, db *hexagraph.DB) error {
				n, err := db.Count()
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, humanize.Comma(n))
				return nil
			}),
		},
		{
			Name:      "has-node",
			Usage:     "check whether a term is a subject or object in a graph",
			ArgsUsage: "<term> [graph]",
			Action: withDB(func(c *cli.Context, db *hexagraph.DB) error {
				if err := nargs(c, 1, 2); err != nil {
					return err
				}
				ok, err := db.HasNode([]byte(c.Args().Get(0)), graphArg(c, 1))
				return answer(c, ok, err)
			}),
		},
		{
			Name:      "has-edge",
			Usage:     "check whether a quad is stored",
			ArgsUsage: "<subject> <predicate> <object> [graph]",
			Action: withDB(func(c *cli.Context, db *hexagraph.DB) error {
				quad, err := quadArgs(c)
				if err != nil {
					return err
				}
				ok, err := db.HasEdge(quad.Subject, quad.Predicate, quad.Object, quad.Graph)
				return answer(c, ok, err)
			}),
		},
		{
			Name:      "adjacent",
			Usage:     "check whether two nodes are linked in either direction",
			ArgsUsage: "<node> <node> [graph]",
			Action: withDB(func(c *cli.Context, db *hexagraph.DB) error {
				if err := nargs(c, 2, 3); err != nil {
					return err
				}
				args := c.Args()
				ok, err := db.Adjacent([]byte(args.Get(0)), []byte(args.Get(1)), graphArg(c, 2))
				return answer(c, ok, err)
			}),
		},
		{
			Name:      "has-graph",
			Usage:     "check whether a graph holds any quad",
			ArgsUsage: "<graph>",
			Action: withDB(func(c *cli.Context, db *hexagraph.DB) error {
				if err := nargs(c, 1, 1); err != nil {
					return err
				}
				ok, err := db.HasGraph([]byte(c.Args().First()))
				return answer(c, ok, err)
			}),
		},
		{
			Name:      "edges",
			Usage:     "list the triples of a graph",
			ArgsUsage: "[graph]",
			Action:    withDB(edges),
		},
		{
			Name:      "resolve",
			Usage:     "print the identifier of a term, assigning one if needed",
			ArgsUsage: "<term>",
			Action: withDB(func(c *cli.Context, db *hexagraph.DB) error {
				if err := nargs(c, 1, 1); err != nil {
					return err
				}
				id, err := db.Dictionary().Resolve([]byte(c.Args().First()))
				if err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, hex.EncodeToString(id))
				return nil
			}),
		},
		{
			Name:      "lookup",
			Usage:     "print the term of a hex encoded identifier",
			ArgsUsage: "<id>",
			Action: withDB(func(c *cli.Context, db *hexagraph.DB) error {
				if err := nargs(c, 1, 1); err != nil {
					return err
				}
				id, err := hex.DecodeString(c.Args().First())
				if err != nil {
					return fmt.Errorf("invalid identifier: %w", err)
				}
				term, found, err := db.Dictionary().Lookup(id)
				if err != nil {
					return err
				}
				if !found {
					return cli.Exit("identifier not found", 1)
				}
				fmt.Fprintln(c.App.Writer, string(term))
				return nil
			}),
		},
		{
			Name:   "verify",
			Usage:  "check that all indexes agree",
			Action: withDB(verify),
		},
		{
			Name:  "usage",
			Usage: "print storage usage against the capacity ceiling",
			Action: withDB(func(c *cli.Context, db *hexagraph.DB) error {
				used, limit, err := db.Usage()
				if err != nil {
					return err
				}
				if limit == 0 {
					fmt.Fprintf(c.App.Writer, "%s used, no limit\n", humanize.IBytes(uint64(used)))
					return nil
				}
				fmt.Fprintf(c.App.Writer, "%s of %s used (%.1f%%)\n",
					humanize.IBytes(uint64(used)), humanize.IBytes(uint64(limit)),
					float64(used)/float64(limit)*100)
				return nil
			}),
		},
		{
			Name:  "clear",
			Usage: "remove every quad and dictionary entry",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "yes",
					Usage: "confirm",
				},
			},
			Action: withDB(func(c *cli.Context, db *hexagraph.DB) error {
				if !c.Bool("yes") {
					return cli.Exit("refusing to clear without --yes", 1)
				}
				if err := db.Clear(); err != nil {
					return err
				}
				fmt.Fprintln(c.App.Writer, "cleared")
				return nil
			}),
		},
	}
}

func load(c *cli.Context, db *hexagraph.DB) error {
	if err := nargs(c, 1, 1); err != nil {
		return err
	}
	batchSize := c.Int("batch")
	if batchSize <= 0 {
		return fmt.Errorf("--batch must be positive")
	}

	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}

	start := time.Now()
	parser := nquads.NewParser(string(data))
	batch := make([]store.Quad, 0, batchSize)
	var read, inserted int

	flush := func() error {
		n, err := db.InsertBatch(batch)
		if err != nil {
			return fmt.Errorf("after %d quads: %w", read-len(batch), err)
		}
		inserted += n
		batch = batch[:0]
		return nil
	}

	for {
		quad, ok, err := parser.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		batch = append(batch, quad)
		read++
		if len(batch) == batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if len(batch) > 0 {
		if err := flush(); err != nil {
			return err
		}
	}

	fmt.Fprintf(c.App.Writer, "read %s quads, inserted %s in %s\n",
		humanize.Comma(int64(read)), humanize.Comma(int64(inserted)),
		time.Since(start).Round(time.Millisecond))
	return nil
}

func edges(c *cli.Context, db *hexagraph.DB) error {
	if err := nargs(c, 0, 1); err != nil {
		return err
	}

	it, err := db.Edges(graphArg(c, 0))
	if err != nil {
		return err
	}
	defer it.Close()

	table := tablewriter.NewTable(c.App.Writer)
	table.Header([]string{"Subject", "Predicate", "Object"})

	rows := 0
	for it.Next() {
		triple := it.Triple()
		table.Append([]string{string(triple.Subject), string(triple.Predicate), string(triple.Object)})
		rows++
	}
	if err := it.Err(); err != nil {
		return err
	}

	table.Render()
	fmt.Fprintf(c.App.Writer, "%s triples\n", humanize.Comma(int64(rows)))
	return nil
}

func verify(c *cli.Context, db *hexagraph.DB) error {
	report, err := db.Verify(c.Context)
	if err != nil && !errors.Is(err, store.ErrInconsistent) {
		return err
	}

	names := make([]string, 0, len(report.Counts))
	for name := range report.Counts {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewTable(c.App.Writer)
	table.Header([]string{"Index", "Keys"})
	for _, name := range names {
		table.Append([]string{name, humanize.Comma(report.Counts[name])})
	}
	table.Render()

	for _, problem := range report.Problems {
		fmt.Fprintln(c.App.Writer, red("✗"), problem)
	}
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Fprintln(c.App.Writer, green("consistent"))
	return nil
}

func quadArgs(c *cli.Context) (store.Quad, error) {
	if err := nargs(c, 3, 4); err != nil {
		return store.Quad{}, err
	}
	args := c.Args()
	return store.NewQuad([]byte(args.Get(0)), []byte(args.Get(1)), []byte(args.Get(2)), graphArg(c, 3)), nil
}

// graphArg returns argument i as a graph, the default graph when absent
func graphArg(c *cli.Context, i int) []byte {
	if c.NArg() <= i {
		return store.DefaultGraph
	}
	return []byte(c.Args().Get(i))
}

func nargs(c *cli.Context, lo, hi int) error {
	if n := c.NArg(); n < lo || n > hi {
		return fmt.Errorf("usage: %s %s %s", c.App.Name, c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}

func answer(c *cli.Context, ok bool, err error) error {
	if err != nil {
		return err
	}
	if ok {
		fmt.Fprintln(c.App.Writer, green("true"))
	} else {
		fmt.Fprintln(c.App.Writer, red("false"))
	}
	return nil
}

func outcome(c *cli.Context, applied bool, yes, no string) error {
	if applied {
		fmt.Fprintln(c.App.Writer, green(yes))
	} else {
		fmt.Fprintln(c.App.Writer, no)
	}
	return nil
}
