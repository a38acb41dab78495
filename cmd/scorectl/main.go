// Command scorectl talks to a running scorekeeper server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	sdk "scorekeeper/sdk/go"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:  "scorectl",
		Usage: "submit, list and export leaderboard scores",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://localhost:3000", EnvVars: []string{"SCOREKEEPER_URL"}, Usage: "server root URL"},
			&cli.StringFlag{Name: "prefix", Value: "/api", Usage: "API path prefix"},
		},
		Writer: out,
		Commands: []*cli.Command{
			submitCommand(),
			topCommand(),
			exportCommand(),
			healthCommand(),
		},
	}
}

func client(c *cli.Context) (*sdk.Client, error) {
	return sdk.NewClient(c.String("server"), sdk.WithPathPrefix(c.String("prefix")))
}

func submitCommand() *cli.Command {
	return &cli.Command{
		Name:  "submit",
		Usage: "record a score",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Required: true},
			&cli.StringFlag{Name: "age", Required: true},
			&cli.StringFlag{Name: "school", Required: true},
			&cli.Int64Flag{Name: "score", Required: true},
			&cli.Int64Flag{Name: "level"},
		},
		Action: func(c *cli.Context) error {
			cl, err := client(c)
			if err != nil {
				return err
			}
			id, err := cl.Submit(c.Context, sdk.ScoreSubmission{
				PlayerName:   c.String("name"),
				PlayerAge:    c.String("age"),
				PlayerSchool: c.String("school"),
				Score:        c.Int64("score"),
				Level:        c.Int64("level"),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "saved score %d\n", id)
			return nil
		},
	}
}

func topCommand() *cli.Command {
	return &cli.Command{
		Name:  "top",
		Usage: "print the ranking",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "number of entries (server default when 0)"},
			&cli.BoolFlag{Name: "json", Usage: "print raw JSON"},
		},
		Action: func(c *cli.Context) error {
			cl, err := client(c)
			if err != nil {
				return err
			}
			scores, err := cl.Top(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}
			if c.Bool("json") {
				enc := json.NewEncoder(c.App.Writer)
				enc.SetIndent("", "  ")
				return enc.Encode(scores)
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RANK\tNAME\tSCHOOL\tSCORE\tLEVEL")
			for _, s := range scores {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\n", s.Rank, s.PlayerName, s.PlayerSchool, s.Score, s.Level)
			}
			return tw.Flush()
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "download a ranking export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "json", Usage: "json, csv, text or xlsx"},
			&cli.StringFlag{Name: "lang", Usage: "language tag, e.g. en-US"},
			&cli.StringFlag{Name: "out", Usage: "output file or directory; stdout when empty"},
		},
		Action: func(c *cli.Context) error {
			cl, err := client(c)
			if err != nil {
				return err
			}
			doc, err := cl.Export(c.Context, c.String("format"), c.String("lang"))
			if err != nil {
				return err
			}
			dest := c.String("out")
			if dest == "" {
				_, err = c.App.Writer.Write(doc.Data)
				return err
			}
			if fi, err := os.Stat(dest); err == nil && fi.IsDir() && doc.Filename != "" {
				dest = filepath.Join(dest, filepath.Base(doc.Filename))
			}
			if err := os.WriteFile(dest, doc.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "wrote %s (%d bytes)\n", dest, len(doc.Data))
			return nil
		},
	}
}

func healthCommand() *cli.Command {
	return &cli.Command{
		Name:  "health",
		Usage: "check the server",
		Action: func(c *cli.Context) error {
			cl, err := client(c)
			if err != nil {
				return err
			}
			hs, err := cl.Health(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "%s: %s (%d scores)\n", hs.Status, hs.Message, hs.ScoresCount)
			return nil
		},
	}
}
