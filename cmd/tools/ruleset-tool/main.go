// cmd/tools/ruleset-tool/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"price-finder/internal/relevance"
	"price-finder/pkg/ruleset"
)

func main() {
	if len(os.Args) < 2 {
		help(os.Stdout)
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string, out io.Writer) error {
	switch command {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := fs.String("path", "configs/ruleset.json", "Path to ruleset file")
		if err := fs.Parse(args); err != nil {
			return err
		}
		rs, err := ruleset.Load(*path)
		if err != nil {
			return fmt.Errorf("ruleset validation failed: %w", err)
		}
		if _, err := relevance.Compile(rs); err != nil {
			return fmt.Errorf("ruleset validation failed: %w", err)
		}
		fmt.Fprintf(out, "Ruleset %s validation passed.\n", rs.Version)
		return nil

	case "show":
		fs := flag.NewFlagSet("show", flag.ContinueOnError)
		path := fs.String("path", "", "Path to ruleset file (built-in ruleset when empty)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		rs, err := load(*path)
		if err != nil {
			return err
		}
		data, err := json.MarshalIndent(rs, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil

	case "add-term", "remove-term":
		fs := flag.NewFlagSet(command, flag.ContinueOnError)
		path := fs.String("path", "configs/ruleset.json", "Path to ruleset file")
		list := fs.String("list", "", "List name (accessory, component, query-stopword, pattern-stopword, compatibility, refurbished)")
		term := fs.String("term", "", "Term to add or remove")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *list == "" || *term == "" {
			fs.Usage()
			return fmt.Errorf("list and term are required for %s", command)
		}
		return editTerm(command, *path, *list, *term, out)

	case "bump":
		fs := flag.NewFlagSet("bump", flag.ContinueOnError)
		path := fs.String("path", "configs/ruleset.json", "Path to ruleset file")
		if err := fs.Parse(args); err != nil {
			return err
		}
		rs, err := ruleset.Load(*path)
		if err != nil {
			return err
		}
		if err := rs.BumpVersion(); err != nil {
			return err
		}
		if err := save(*path, rs); err != nil {
			return err
		}
		fmt.Fprintf(out, "Ruleset version is now %s\n", rs.Version)
		return nil

	case "try":
		fs := flag.NewFlagSet("try", flag.ContinueOnError)
		path := fs.String("path", "", "Path to ruleset file (built-in ruleset when empty)")
		query := fs.String("query", "", "Search query")
		listings := fs.String("listings", "", "JSON file with an array of {title, url}")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *query == "" || *listings == "" {
			fs.Usage()
			return fmt.Errorf("query and listings are required for try")
		}
		return try(*path, *query, *listings, out)

	default:
		help(out)
		return nil
	}
}

func load(path string) (*ruleset.Ruleset, error) {
	if path == "" {
		return ruleset.Default(), nil
	}
	return ruleset.Load(path)
}

func save(path string, rs *ruleset.Ruleset) error {
	rs.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return ruleset.Save(path, rs)
}

func editTerm(command, path, list, term string, out io.Writer) error {
	rs, err := ruleset.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load ruleset: %w", err)
	}

	var changed bool
	if command == "add-term" {
		changed, err = rs.AddTerm(list, term)
	} else {
		changed, err = rs.RemoveTerm(list, term)
	}
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintf(out, "No change: %q in %s list\n", term, list)
		return nil
	}

	if err := save(path, rs); err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated %s list (%s %q)\n", list, command, term)
	return nil
}

func try(path, query, listingsPath string, out io.Writer) error {
	rs, err := load(path)
	if err != nil {
		return err
	}
	rules, err := relevance.Compile(rs)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(listingsPath)
	if err != nil {
		return err
	}
	var raw []relevance.RawListing
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode listings: %w", err)
	}

	results, report := relevance.NewPipeline(rules).Run(raw, query)
	fmt.Fprintf(out, "Intent: %s (raw %d, normalized %d)\n", report.Intent, report.Raw, report.Normalized)
	for _, s := range report.Stages {
		fmt.Fprintf(out, "  %-14s %3d -> %3d\n", s.Stage, s.In, s.Out)
	}
	for _, c := range results {
		fmt.Fprintf(out, "%10s  %s\n", c.PriceDisplay, c.Title)
	}
	return nil
}

func help(out io.Writer) {
	fmt.Fprintln(out, "Usage: ruleset-tool <command> [options]")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  validate     Validate a ruleset file")
	fmt.Fprintln(out, "  show         Print a ruleset")
	fmt.Fprintln(out, "  add-term     Add a term to a vocabulary list")
	fmt.Fprintln(out, "  remove-term  Remove a term from a vocabulary list")
	fmt.Fprintln(out, "  bump         Increment the ruleset patch version")
	fmt.Fprintln(out, "  try          Run the pipeline over a listings file")
	fmt.Fprintln(out, "  help         Show this help message")
}
