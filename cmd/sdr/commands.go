package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fwojciec/sdr"
	sdrcsv "github.com/fwojciec/sdr/csv"
	sdryaml "github.com/fwojciec/sdr/yaml"
	"github.com/spf13/cobra"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath   string
	provider     string
	apiKey       string
	model        string
	logFile      string
	telemetryDir string
	debug        bool

	env environment
}

// environment holds the variables read by main.
type environment struct {
	geminiKey    string
	anthropicKey string
}

func newRootCmd(env environment) *cobra.Command {
	o := &options{env: env}
	root := &cobra.Command{
		Use:           "sdr",
		Short:         "Simulated WhatsApp SDR desk for Meta Telecom",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	f := root.PersistentFlags()
	f.StringVar(&o.configPath, "config", "sdr.yaml", "Path to the YAML configuration")
	f.StringVar(&o.provider, "provider", "", "Provider: gemini, anthropic (auto-detected from env vars if omitted)")
	f.StringVar(&o.apiKey, "api-key", "", "API key (overrides the provider's env var)")
	f.StringVar(&o.model, "model", "", "Model ID (overrides the configuration)")
	f.StringVar(&o.logFile, "log-file", "", "Path to the JSON log file (default: no logging)")
	f.StringVar(&o.telemetryDir, "telemetry-dir", "", "Directory for trace and metric files (default: disabled)")
	f.BoolVar(&o.debug, "debug", false, "Log at debug level")

	root.AddCommand(
		newChatCmd(o),
		newOutreachCmd(o),
		newLeadsCmd(),
		newConfigCmd(o),
	)
	return root
}

func newChatCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with Catarina as an inbound visitor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), o, nil)
		},
	}
}

func newOutreachCmd(o *options) *cobra.Command {
	var (
		pattern string
		manual  []string
	)
	cmd := &cobra.Command{
		Use:   "outreach",
		Short: "Play imported leads answering Catarina's outreach",
		Example: `  sdr outreach --leads 'leads/**/*.csv'
  sdr outreach --lead 'Ana Souza,Transportes Sul,(51) 95555-4004,quente'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			roster, err := loadRoster(cmd, pattern, manual)
			if err != nil {
				return err
			}
			return runTUI(cmd.Context(), o, roster)
		},
	}
	cmd.Flags().StringVar(&pattern, "leads", "", "Glob of CSV lead files to import in front of the demo leads")
	cmd.Flags().StringArrayVar(&manual, "lead", nil, "Lead to register as name,company,phone,segment[,lines] (repeatable)")
	return cmd
}

// loadRoster returns the demo leads with the leads matched by pattern
// imported in front of them, then each manual lead added in turn, so the
// last one given comes first.
func loadRoster(cmd *cobra.Command, pattern string, manual []string) (*sdr.Roster, error) {
	roster := sdr.NewRoster(sdr.DefaultLeads()...)
	if pattern != "" {
		leads, err := sdrcsv.Import(cmd.Context(), pattern)
		if err != nil {
			return nil, fmt.Errorf("import leads: %w", err)
		}
		if _, err := roster.Import(leads...); err != nil {
			return nil, fmt.Errorf("import leads: %w", err)
		}
	}
	for _, s := range manual {
		lead, err := sdrcsv.ParseLead(s)
		if err != nil {
			return nil, fmt.Errorf("--lead %q: %w", s, err)
		}
		if _, err := roster.Add(lead); err != nil {
			return nil, fmt.Errorf("--lead %q: %w", s, err)
		}
	}
	return roster, nil
}

func newLeadsCmd() *cobra.Command {
	leads := &cobra.Command{
		Use:   "leads",
		Short: "Manage outreach leads",
	}
	leads.AddCommand(&cobra.Command{
		Use:   "import GLOB",
		Short: "Validate CSV lead files and print the leads they contain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			found, err := sdrcsv.Import(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			imported, err := sdr.NewRoster().Import(found...)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), leadTable(imported))
			fmt.Fprintf(cmd.OutOrStdout(), "%d leads\n", len(imported))
			return nil
		},
	})
	return leads
}

func leadTable(leads []sdr.Lead) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("NOME", "EMPRESA", "TELEFONE", "BASE", "LINHAS")
	for _, l := range leads {
		lines := ""
		if l.Lines > 0 {
			lines = fmt.Sprint(l.Lines)
		}
		t.Row(l.Name, l.Company, l.Phone, string(l.Segment), lines)
	}
	return t.Render()
}

func newConfigCmd(o *options) *cobra.Command {
	var write string
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(o)
			if err != nil {
				return err
			}
			if write != "" {
				if err := sdryaml.Save(write, cfg); err != nil {
					return fmt.Errorf("write config: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Configuration written to %s\n", write)
				return nil
			}
			data, err := sdryaml.Marshal(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&write, "write", "", "Write the configuration to this path instead of printing it")
	return cmd
}

// loadConfig overlays the configuration file on the defaults and applies
// flag overrides.
func loadConfig(o *options) (sdr.Config, error) {
	cfg, err := sdryaml.Load(o.configPath)
	if err != nil {
		return sdr.Config{}, fmt.Errorf("load config: %w", err)
	}
	if o.model != "" {
		cfg.Session.Model = o.model
	}
	return cfg, nil
}
