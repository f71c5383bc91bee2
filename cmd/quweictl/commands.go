package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"quwei/internal/config"
	"quwei/internal/ime"
	"quwei/internal/logging"
	"quwei/internal/punctuation"
	"quwei/internal/quwei"
	"quwei/internal/store"
)

var errHistoryDisabled = errors.New("history is disabled (set [history] enabled = true)")

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func newEngine(cmd *cobra.Command) (*ime.Engine, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return ime.NewEngine(ime.Options{Config: cfg, Logger: logging.Discard()})
}

func openHistory(cmd *cobra.Command) (*store.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.History.Path); err != nil {
		if !cfg.History.Enabled {
			return nil, errHistoryDisabled
		}
		return nil, fmt.Errorf("no history at %s", cfg.History.Path)
	}
	return store.Open(cfg.History.Path)
}

func newTable(cmd *cobra.Command, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.SetAutoFormatHeaders(false)
	return table
}

// parseCode accepts a page code (0-999, leading zeros allowed) or a
// four-digit sub-code, which selects its page.
func parseCode(s string) (page int, sub int, err error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, 0, fmt.Errorf("invalid code %q", s)
	}
	if len(s) == 4 {
		if n < quwei.MinSubCode || n > quwei.MaxSubCode {
			return 0, 0, fmt.Errorf("sub-code %s out of range", s)
		}
		return (n - 1) / quwei.PageSize, n, nil
	}
	if len(s) > 3 {
		return 0, 0, fmt.Errorf("invalid code %q", s)
	}
	return n, 0, nil
}

func newLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup CODE",
		Short: "Show the candidates of a page code or sub-code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			page, sub, err := parseCode(args[0])
			if err != nil {
				return err
			}
			e, err := newEngine(cmd)
			if err != nil {
				return err
			}
			p, err := e.Lookup(page)
			if err != nil {
				return err
			}

			table := newTable(cmd, "KEY", "CODE", "QU", "WEI", "CHAR")
			for _, c := range p.Candidates {
				if sub != 0 && c.SubCode != sub {
					continue
				}
				qu, wei := quwei.Split(c.SubCode)
				text := c.Text
				if c.Empty() {
					text = "-"
				}
				table.Append([]string{
					c.Label,
					fmt.Sprintf("%04d", c.SubCode),
					strconv.Itoa(qu),
					strconv.Itoa(wei),
					text,
				})
			}
			table.Render()
			return nil
		},
	}
}

func newCodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "code TEXT",
		Short: "Show the quwei code of each character",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEngine(cmd)
			if err != nil {
				return err
			}
			table := newTable(cmd, "CHAR", "CODE", "KEYS")
			for _, r := range strings.Join(args, "") {
				sub, ok := e.Mapper().Code(string(r))
				if !ok {
					table.Append([]string{string(r), "-", "-"})
					continue
				}
				page := (sub - 1) / quwei.PageSize
				slot := (sub - 1) % quwei.PageSize
				table.Append([]string{
					string(r),
					fmt.Sprintf("%04d", sub),
					fmt.Sprintf("%03d %s", page, quwei.SlotLabel(slot)),
				})
			}
			table.Render()
			return nil
		},
	}
}

func newTableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table FROM [TO]",
		Short: "Dump pages FROM through TO, one line each",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _, err := parseCode(args[0])
			if err != nil {
				return err
			}
			to := from
			if len(args) == 2 {
				if to, _, err = parseCode(args[1]); err != nil {
					return err
				}
			}
			if to < from {
				return fmt.Errorf("range %03d-%03d is empty", from, to)
			}
			skipEmpty, _ := cmd.Flags().GetBool("skip-empty")

			e, err := newEngine(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for code := from; code <= to; code++ {
				p, err := e.Lookup(code)
				if err != nil {
					return err
				}
				var b strings.Builder
				empty := true
				for _, c := range p.Candidates {
					if c.Empty() {
						b.WriteString("　")
						continue
					}
					empty = false
					b.WriteString(c.Text)
				}
				if empty && skipEmpty {
					continue
				}
				fmt.Fprintf(out, "%03d  %s\n", code, strings.TrimRight(b.String(), "　"))
			}
			return nil
		},
	}
	cmd.Flags().Bool("skip-empty", false, "omit pages without any character")
	return cmd
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent commits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			s, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			commits, err := s.Recent(limit)
			if err != nil {
				return err
			}
			table := newTable(cmd, "TIME", "SOURCE", "CODE", "TEXT")
			for _, c := range commits {
				table.Append([]string{
					c.Time().Format(time.DateTime),
					string(c.Source),
					formatCode(c.Code),
					c.Text,
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "number of commits")
	return cmd
}

func newTopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top",
		Short: "List the most used candidates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			s, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			top, err := s.TopTexts(limit)
			if err != nil {
				return err
			}
			table := newTable(cmd, "TEXT", "CODE", "COUNT")
			for _, t := range top {
				table.Append([]string{t.Text, formatCode(t.Code), strconv.FormatInt(t.Count, 10)})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntP("limit", "n", 10, "number of candidates")
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Summarise the commit history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openHistory(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			st, err := s.GetStats()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Commits:  %d\n", st.Commits)
			fmt.Fprintf(out, "Sessions: %d\n", st.Sessions)
			for _, src := range []store.Source{store.SourceCandidate, store.SourceRaw, store.SourcePunctuation, store.SourceQuickPhrase} {
				fmt.Fprintf(out, "  %-12s %d\n", src, st.BySource[src])
			}
			if st.Commits > 0 {
				fmt.Fprintf(out, "First:    %s\n", time.Unix(0, st.OldestNs).Format(time.DateTime))
				fmt.Fprintf(out, "Last:     %s\n", time.Unix(0, st.NewestNs).Format(time.DateTime))
			}
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showPath, _ := cmd.Flags().GetBool("path"); showPath {
				path, _ := cmd.Flags().GetString("config")
				if path == "" {
					path = config.ConfigPath()
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().Bool("path", false, "print the configuration file path only")
	return cmd
}

func newPunctuationCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "punctuation",
		Short: "Print the punctuation table in loadable TOML form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			t := punctuation.DefaultTable()
			if cfg.Punctuation.TablePath != "" {
				if t, err = punctuation.LoadTable(cfg.Punctuation.TablePath); err != nil {
					return err
				}
			}
			data, err := t.EncodeTOML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func formatCode(code *int) string {
	if code == nil {
		return "-"
	}
	if *code < 1000 {
		return fmt.Sprintf("%03d", *code)
	}
	return fmt.Sprintf("%04d", *code)
}
