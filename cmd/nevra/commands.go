package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/frederic-klein/nevra/internal/catalog"
	"github.com/frederic-klein/nevra/internal/reldep"
	"github.com/frederic-klein/nevra/internal/report"
	"github.com/frederic-klein/nevra/internal/resolver"
	"github.com/frederic-klein/nevra/internal/selection"
	"github.com/frederic-klein/nevra/internal/subject"
)

func newTokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens PATTERN",
		Short: "Show the tokens and signature of a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := subject.New(args[0])
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "signature %s\n", s.Signature())
			for _, t := range s.Tokens() {
				fmt.Fprintf(out, "%c %q\n", t.Abbr(), t.Content)
			}
			return nil
		},
	}
}

func newSplitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "split NEVRA",
		Short: "Split a full name-[epoch:]version-release.arch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := subject.Split(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Fields(n))
			return nil
		},
	}
}

func newPossibilitiesCmd() *cobra.Command {
	var forms []string
	var format string

	cmd := &cobra.Command{
		Use:   "possibilities PATTERN...",
		Short: "List every structural reading of patterns, without a catalog",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			parsed, err := subject.ParseForms(forms)
			if err != nil {
				return err
			}

			var entries []report.Entry
			for _, pattern := range args {
				entry := report.Entry{Kind: "package", Pattern: pattern}
				it := subject.New(pattern).Possibilities(parsed...)
				for n, ok := it.Next(); ok; n, ok = it.Next() {
					entry.Readings = append(entry.Readings, report.Reading{Form: it.Form().String(), NEVRA: n})
				}
				entries = append(entries, entry)
			}
			return report.Write(cmd.OutOrStdout(), f, entries)
		},
	}

	cmd.Flags().StringSliceVar(&forms, "form", nil, "Forms to try, in order (default NEVRA,NEVR,NEV,NA,NAME)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or yaml")
	return cmd
}

// addResolveFlags registers the flags that map onto resolution config keys.
func addResolveFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("glob", false, "Allow glob patterns in name, version and arch")
	cmd.Flags().Bool("icase", false, "Match names case-insensitively")
	cmd.Flags().StringSlice("form", nil, "Forms to try, in order (default NA,NAME,NEVRA,NEV,NEVR)")
}

func (a *app) resolveOptions() (resolver.Options, error) {
	forms, err := a.cfg.ResolverForms()
	if err != nil {
		return resolver.Options{}, err
	}
	return resolver.Options{AllowGlobs: a.cfg.AllowGlobs, ICase: a.cfg.ICase, Forms: forms}, nil
}

func newResolveCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "resolve PATTERN...",
		Short: "Resolve patterns to the readings that name existing packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			opts, err := a.resolveOptions()
			if err != nil {
				return err
			}
			cat, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			res := resolver.New(cat, a.logger)

			var entries []report.Entry
			for _, pattern := range args {
				entry, err := resolvePackage(res, cat, pattern, opts)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
			}
			if err := report.Write(cmd.OutOrStdout(), f, entries); err != nil {
				return err
			}
			return unresolved(entries)
		},
	}

	addResolveFlags(cmd)
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or yaml")
	return cmd
}

func newProvidesCmd(a *app) *cobra.Command {
	var format string
	var icase bool

	cmd := &cobra.Command{
		Use:   "provides CAPABILITY...",
		Short: `Resolve capabilities such as "P-lib" or "P-lib >= 3"`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			cat, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			res := resolver.New(cat, a.logger)

			var entries []report.Entry
			for _, pattern := range args {
				entry, err := resolveCapability(res, cat, pattern, icase || a.cfg.ICase)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
			}
			if err := report.Write(cmd.OutOrStdout(), f, entries); err != nil {
				return err
			}
			return unresolved(entries)
		},
	}

	cmd.Flags().BoolVar(&icase, "icase", false, "Match capability names case-insensitively")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or yaml")
	return cmd
}

func newWhatProvidesCmd(a *app) *cobra.Command {
	var icase bool

	cmd := &cobra.Command{
		Use:   "whatprovides CAPABILITY",
		Short: "List the packages providing a capability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dep, err := reldep.Parse(args[0])
			if err != nil {
				return err
			}
			cat, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}

			pkgs := cat.WhatProvides(dep, icase)
			if len(pkgs) == 0 {
				return fmt.Errorf("nothing provides %s", dep)
			}
			for _, p := range pkgs {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&icase, "icase", false, "Match capability names case-insensitively")
	return cmd
}

func newBatchCmd(a *app) *cobra.Command {
	var file, format string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Resolve every request of a selection file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := report.ParseFormat(format)
			if err != nil {
				return err
			}
			opts, err := a.resolveOptions()
			if err != nil {
				return err
			}

			reqs, err := selection.NewParser().Parse(file)
			if err != nil {
				return fmt.Errorf("parsing selection file: %w", err)
			}
			a.logger.Debug("selection parsed", "file", file, "requests", len(reqs))

			cat, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			res := resolver.New(cat, a.logger)

			var entries []report.Entry
			for _, req := range reqs {
				var entry report.Entry
				switch req.Kind {
				case selection.KindCapability:
					entry, err = resolveCapability(res, cat, req.Pattern, opts.ICase || req.ICase)
				default:
					reqOpts := opts
					reqOpts.AllowGlobs = opts.AllowGlobs || req.AllowGlobs
					reqOpts.ICase = opts.ICase || req.ICase
					if req.Forms != nil {
						reqOpts.Forms = req.Forms
					}
					entry, err = resolvePackage(res, cat, req.Pattern, reqOpts)
				}
				if err != nil {
					return fmt.Errorf("line %d: %w", req.Line, err)
				}
				entries = append(entries, entry)
			}
			if err := report.Write(cmd.OutOrStdout(), f, entries); err != nil {
				return err
			}
			return unresolved(entries)
		},
	}

	addResolveFlags(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "./selection", "Selection file path")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or yaml")
	return cmd
}

func newCatalogCmd(a *app) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the configured catalog",
	}

	var format string
	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the merged catalog of all repos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := a.loadCatalog(cmd.Context())
			if err != nil {
				return err
			}
			switch strings.ToLower(format) {
			case "text":
				return catalog.NewEmitter(cmd.OutOrStdout()).Emit(cat.File())
			case "yaml":
				return catalog.EncodeYAML(cmd.OutOrStdout(), cat.File())
			default:
				return fmt.Errorf("unknown format %q (want text or yaml)", format)
			}
		},
	}
	dumpCmd.Flags().StringVar(&format, "format", "text", "Output format: text or yaml")

	catalogCmd.AddCommand(dumpCmd)
	return catalogCmd
}
