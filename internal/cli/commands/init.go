package commands

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/scenariowatch/internal/cli/config"
	"github.com/leapstack-labs/scenariowatch/internal/cli/output"
)

//go:embed all:templates
var projectTemplates embed.FS

// initFile is the scenariowatch.yaml written by init. Durations are kept as
// strings so the file stays readable.
type initFile struct {
	Server        string             `yaml:"server"`
	Port          int                `yaml:"port"`
	ServerRoot    string             `yaml:"server_root"`
	ServerCommand []string           `yaml:"server_command"`
	RunnerBin     string             `yaml:"runner_bin"`
	RunnerArgs    []string           `yaml:"runner_args"`
	Timeout       string             `yaml:"timeout"`
	ScenarioPaths []string           `yaml:"scenario_paths"`
	Notification  bool               `yaml:"notification"`
	HideSuccess   bool               `yaml:"hide_success"`
	ScenarioDoc   string             `yaml:"scenariodoc"`
	Console       string             `yaml:"console"`
	Errors        string             `yaml:"errors"`
	Focus         bool               `yaml:"focus"`
	HistoryPath   string             `yaml:"history_path"`
	Watch         []config.WatchRule `yaml:"watch"`
}

func defaultInitFile() initFile {
	d := config.Default()
	return initFile{
		Server:        d.Server,
		Port:          d.Port,
		ServerRoot:    d.ServerRoot,
		ServerCommand: d.ServerCommand,
		RunnerBin:     d.RunnerBin,
		RunnerArgs:    d.RunnerArgs,
		Timeout:       d.Timeout.String(),
		ScenarioPaths: d.ScenarioPaths,
		Notification:  d.Notification,
		HideSuccess:   d.HideSuccess,
		ScenarioDoc:   string(d.ScenarioDoc),
		Console:       string(d.Console),
		Errors:        string(d.Errors),
		Focus:         d.Focus,
		HistoryPath:   config.DefaultHistoryFile,
		Watch:         d.Watch,
	}
}

// renderInitFile encodes f with a leading comment.
func renderInitFile(f initFile) ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(f); err != nil {
		return nil, err
	}
	node.HeadComment = "scenariowatch configuration\n" +
		"Every key can be overridden with SCENARIOWATCH_<KEY> or the matching CLI flag."
	return yaml.Marshal(&node)
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var example bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a scenariowatch project",
		Long: `Initialize a scenariowatch project.

This creates:
  - scenariowatch.yaml configuration file
  - scenario/ directory for scenario files
  - .gitignore entry for the run history

Use --example to add a sample scenario and a static page it tests.`,
		Example: `  # Initialize in current directory
  scenariowatch init

  # Initialize with an example scenario
  scenariowatch init --example

  # Force overwrite existing config
  scenariowatch init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ModeAuto, false)
			return runInit(r, dir, force, example)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&example, "example", false, "Add an example scenario and page")

	return cmd
}

func runInit(r *output.Renderer, dir string, force, example bool) error {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.ConfigFileNames[0])
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", config.ConfigFileNames[0])
	}

	content, err := renderInitFile(defaultInitFile())
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	if err := os.WriteFile(configPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	if err := os.MkdirAll(filepath.Join(dir, config.DefaultScenarioPath), 0750); err != nil {
		return fmt.Errorf("failed to create scenario directory: %w", err)
	}

	templateName := "minimal"
	if example {
		templateName = "example"
	}
	files, err := writeTemplate(templateName, dir, force)
	if err != nil {
		return fmt.Errorf("failed to initialize project: %w", err)
	}

	r.StatusLine("created", config.ConfigFileNames[0])
	for _, f := range files {
		r.StatusLine("created", f)
	}

	r.Println("")
	r.Success("scenariowatch project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Put your scenarios in scenario/")
	r.Println("  2. Run 'scenariowatch doctor' to check the runner and server")
	r.Println("  3. Run 'scenariowatch watch' and start editing")

	return nil
}

// writeTemplate copies the embedded project template name into dir and
// returns the files it wrote, relative to dir. Existing files are kept unless
// force is set.
func writeTemplate(name, dir string, force bool) ([]string, error) {
	tmpl, err := fs.Sub(projectTemplates, path.Join("templates", name))
	if err != nil {
		return nil, err
	}

	var written []string
	err = fs.WalkDir(tmpl, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil || p == "." {
			return err
		}
		rel := targetName(p)
		target := filepath.Join(dir, filepath.FromSlash(rel))

		if d.IsDir() {
			return os.MkdirAll(target, 0750)
		}
		if _, err := os.Stat(target); err == nil && !force {
			return nil
		}
		data, err := fs.ReadFile(tmpl, p)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, 0600); err != nil {
			return err
		}
		written = append(written, rel)
		return nil
	})
	return written, err
}

// targetName maps a template file to its name in the project. Dotfiles are
// stored without the dot.
func targetName(p string) string {
	dir, file := path.Split(p)
	if file == "gitignore" {
		return dir + ".gitignore"
	}
	return p
}
