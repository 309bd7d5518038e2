package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"webpkg/internal/app"
	"webpkg/internal/config"
	"webpkg/internal/encryption"
	"webpkg/internal/model"
	"webpkg/internal/wp"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the tool config, falling back to defaults when no file exists.
func loadConfig() (*config.Config, string, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.Load(defaults["config_path"], defaults["base_dir"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config and creates a WPApp. The caller must defer app.Close().
func newApp(ctx context.Context, echo io.Writer) (*app.WPApp, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a, err := app.NewWPApp(ctx, cfg, app.Options{LogEcho: echo})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// logSink forwards log lines to a writer that can change while the app runs.
type logSink struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *logSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.w == nil {
		return len(p), nil
	}
	return s.w.Write(p)
}

func (s *logSink) Set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

// readPassphrase prompts on the terminal without echo.
func readPassphrase(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("passphrase prompt needs a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	p, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(p), nil
}

var rootCmd = &cobra.Command{
	Use:          "webpkg",
	Short:        "Package a web page, HTML file or site folder as a desktop app",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Output Dir: %s\n", cfg.OutputDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		shown := *cfg
		if shown.Vault.S3SecretAccessKey != "" {
			shown.Vault.S3SecretAccessKey = "********"
		}

		fmt.Printf("# Configuration from %s\n\n", path)
		m := &config.Manager{}
		return m.Write(os.Stdout, &shown)
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage artifact encryption keys",
}

var configKeysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the key pair used to encrypt published artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		enc := encryption.NewAgeEncryptor(cfg.Encryption)
		if enc.IsConfigured() {
			return fmt.Errorf("keys already exist at %s", cfg.Encryption.PublicKeyPath)
		}

		pass, err := readPassphrase("Passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return errors.New("passphrases do not match")
		}

		if err := enc.Setup(pass); err != nil {
			return fmt.Errorf("generating keys: %w", err)
		}
		pub, err := enc.PublicKey()
		if err != nil {
			return err
		}
		fmt.Printf("Public key:  %s\n", pub)
		fmt.Printf("Private key: %s (passphrase protected)\n", cfg.Encryption.PrivateKeyPath)
		fmt.Println("Set encryption.enabled = true to encrypt published artifacts.")
		return nil
	},
}

// recent command
var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recently packaged sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		entries := a.RecentSources()
		if len(entries) == 0 {
			fmt.Println("No recent sources.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %-6s  %s\n", e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Mode, e.Source)
		}
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View packaging run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No packaging runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.FinishedAt != nil {
				duration = r.Duration().Truncate(time.Millisecond).String()
			}
			slot := "-"
			if r.Ordinal > 0 {
				slot = fmt.Sprintf("%d", r.Ordinal)
			}
			fmt.Printf("%s  %s  %-6s  slot %-4s  %-7s  %-8s  %s\n",
				r.RunID,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Mode,
				slot,
				r.Status,
				duration,
				r.Title,
			)
			if r.Status == model.RunError {
				fmt.Printf("    %s\n", firstLine(r.Message))
			}
			if r.ArtifactKey != "" {
				fmt.Printf("    published: %s\n", r.ArtifactKey)
			}
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Show one packaging run in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.Run(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Run:      %s\n", r.RunID)
		fmt.Printf("Mode:     %s\n", r.Mode)
		fmt.Printf("Source:   %s\n", r.Source)
		fmt.Printf("Title:    %s\n", r.Title)
		fmt.Printf("Output:   %s\n", r.OutputRoot)
		if r.SlotPath != "" {
			fmt.Printf("Slot:     %s (%d)\n", r.SlotPath, r.Ordinal)
		}
		fmt.Printf("Status:   %s\n", r.Status)
		fmt.Printf("Started:  %s\n", r.StartedAt.Local().Format(time.RFC3339))
		if r.FinishedAt != nil {
			fmt.Printf("Duration: %s\n", r.Duration().Truncate(time.Millisecond))
		}
		if r.ArtifactKey != "" {
			fmt.Printf("Artifact: %s\n", r.ArtifactKey)
		}
		if r.Message != "" {
			fmt.Printf("\n%s\n", r.Message)
		}
		return nil
	},
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}

// slot command
var slotCmd = &cobra.Command{
	Use:   "slot",
	Short: "Inspect output slots",
}

var slotNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Print the ordinal the next build would use",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		if output == "" {
			a, err := newApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			output = defaultOutput(a)
			a.Close()
		}

		n, err := wp.NextOrdinal(output)
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	},
}

// artifact command
var artifactCmd = &cobra.Command{
	Use:   "artifact",
	Short: "Work with published artifacts",
}

var artifactGetCmd = &cobra.Command{
	Use:   "get KEY [DEST]",
	Short: "Download a published artifact, decrypting it if needed",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]

		var pass string
		if strings.HasSuffix(key, encryption.EncryptedSuffix) {
			p, err := readPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
			pass = p
		}

		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(args) == 1 {
			return a.FetchArtifact(key, os.Stdout, pass)
		}

		dest := args[1]
		f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
		if err != nil {
			return fmt.Errorf("creating %s: %w", dest, err)
		}
		if err := a.FetchArtifact(key, f, pass); err != nil {
			f.Close()
			os.Remove(dest)
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", dest, err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", dest)
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configKeysCmd)
	configKeysCmd.AddCommand(configKeysInitCmd)

	slotCmd.AddCommand(slotNextCmd)
	slotNextCmd.Flags().StringP("output", "o", "", "Output root to scan (default: last used)")

	artifactCmd.AddCommand(artifactGetCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(packCmd)
	rootCmd.AddCommand(recentCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to show (0 for all)")
	rootCmd.AddCommand(slotCmd)
	rootCmd.AddCommand(artifactCmd)
}
