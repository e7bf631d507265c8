package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/vango-dev/jsonpage/internal/errors"
	"github.com/vango-dev/jsonpage/internal/templates"
)

type createOptions struct {
	template    string
	description string
	output      string
	minify      bool
	skipPrompts bool
}

func createCmd() *cobra.Command {
	var opts createOptions

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new jsonpage project",
		Long: `Create a new project directory with jsonpage.json and starter pages.

Templates:
  minimal   jsonpage.json and a single page
  site      Several pages sharing imported components (default)

Examples:
  jsonpage create my-site
  jsonpage create my-site --template=minimal --yes`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCreate(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.template, "template", "t", "site", "Project template (minimal, site)")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "Project description")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "dist", "Build output directory")
	cmd.Flags().BoolVar(&opts.minify, "minify", false, "Minify build output")
	cmd.Flags().BoolVarP(&opts.skipPrompts, "yes", "y", false, "Skip prompts and use defaults")

	return cmd
}

func runCreate(cmd *cobra.Command, name string, opts createOptions) error {
	out := cmd.OutOrStdout()

	if !isValidProjectName(name) {
		return errors.New("J084").WithDetail("'" + name + "' cannot be used as a directory name")
	}

	projectDir, err := filepath.Abs(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(projectDir); !os.IsNotExist(err) {
		return errors.New("J082").WithDetail("Directory '" + name + "' already exists")
	}

	if !opts.skipPrompts && isatty.IsTerminal(os.Stdin.Fd()) {
		if err := promptForConfig(&opts); err != nil {
			return err
		}
	}
	if opts.description == "" {
		opts.description = "Pages rendered from JSON"
	}

	tmpl, err := templates.Get(opts.template)
	if err != nil {
		return err
	}

	info(out, "Creating %s from the '%s' template...", name, tmpl.Name)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return errors.New("J060").Wrap(err)
	}
	err = tmpl.Create(projectDir, templates.Config{
		ProjectName: name,
		Description: opts.description,
		Output:      opts.output,
		Minify:      opts.minify,
	})
	if err != nil {
		os.RemoveAll(projectDir)
		return err
	}

	fmt.Fprintln(out)
	success(out, "Created %s/", name)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  To get started:")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "    cd %s\n", name)
	fmt.Fprintln(out, "    jsonpage serve")
	fmt.Fprintln(out)
	return nil
}

func promptForConfig(opts *createOptions) error {
	options := make([]huh.Option[string], 0, len(templates.List()))
	for _, name := range templates.List() {
		tmpl, _ := templates.Get(name)
		options = append(options, huh.NewOption(name+" - "+tmpl.Description, name))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Description").
				Placeholder("Pages rendered from JSON").
				Value(&opts.description),
			huh.NewSelect[string]().
				Title("Template").
				Options(options...).
				Value(&opts.template),
			huh.NewConfirm().
				Title("Minify build output?").
				Value(&opts.minify),
		),
	)
	return form.Run()
}

func isValidProjectName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return false
		}
	}
	return true
}
