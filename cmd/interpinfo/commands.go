package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"interpinfo/internal/app"
	"interpinfo/internal/config"
	"interpinfo/internal/domain"
)

func newQueryCmd(g *globalFlags) *cobra.Command {
	var (
		ignoreCache bool
		noRaise     bool
		format      string
	)
	cmd := &cobra.Command{
		Use:   "query EXE...",
		Short: "Print interpreter info for each executable",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("--format must be json or yaml, got %q", format)
			}
			out := cmd.OutOrStdout()
			return withSession(g, out, cmd.ErrOrStderr(), func(s *session) error {
				var infos []*domain.Info
				for _, exe := range args {
					info, err := s.svc.Resolve(exe, app.ResolveOptions{
						IgnoreCache:    ignoreCache,
						SuppressErrors: noRaise,
					})
					if err != nil {
						return err
					}
					if info != nil {
						infos = append(infos, info)
					}
				}
				return writeInfos(out, format, infos)
			})
		},
	}
	cmd.Flags().BoolVar(&ignoreCache, "ignore-cache", false, "skip the in-memory cache")
	cmd.Flags().BoolVar(&noRaise, "no-raise", false, "log failures and skip the executable instead of exiting non-zero")
	cmd.Flags().StringVarP(&format, "format", "o", "json", "output format: json or yaml")
	return cmd
}

func writeInfos(w io.Writer, format string, infos []*domain.Info) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		for _, info := range infos {
			if err := enc.Encode(info); err != nil {
				return fmt.Errorf("encode yaml: %w", err)
			}
		}
		return enc.Close()
	default:
		for _, info := range infos {
			data, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return fmt.Errorf("encode json: %w", err)
			}
			if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
				return err
			}
		}
		return nil
	}
}

func newListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached interpreters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			return withSession(g, out, cmd.ErrOrStderr(), func(s *session) error {
				entries, err := s.svc.Entries()
				if err != nil {
					return err
				}
				if len(entries) == 0 {
					fmt.Fprintln(out, "No cached interpreters.")
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "PATH\tIMPLEMENTATION\tVERSION\tMODIFIED")
				for _, e := range entries {
					impl, version := "?", "?"
					if info, err := domain.FromMap(e.Content); err == nil {
						impl, version = info.Implementation, info.VersionInfo.String()
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Path, impl, version, formatMtime(e.STMtime))
				}
				return tw.Flush()
			})
		},
	}
}

func formatMtime(mtime float64) string {
	if mtime < 0 {
		return "-"
	}
	return time.Unix(0, int64(mtime*1e9)).Format(time.RFC3339)
}

func newClearCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached interpreter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			return withSession(g, out, cmd.ErrOrStderr(), func(s *session) error {
				if err := s.svc.Clear(); err != nil {
					return err
				}
				fmt.Fprintf(out, "Cleared interpreter cache in %s (%s)\n", s.appData, s.cfg.Cache.Backend)
				return nil
			})
		},
	}
}

func newConfigCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, _, err := loadConfig(g)
			if err != nil {
				return err
			}
			return config.Encode(cmd.OutOrStdout(), cfg)
		},
	}

	set := &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Persist a value to the config file",
		Example: `  interpinfo config set cache.backend sqlite
  interpinfo config set log.level debug`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, path, _, err := loadConfig(g)
			if err != nil {
				return err
			}
			if err := config.WriteValue(path, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s\n", args[0], args[1], path)
			return nil
		},
	}

	path := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, p, _, err := loadConfig(g)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), p)
			return nil
		},
	}

	cmd.AddCommand(show, set, path)
	return cmd
}
