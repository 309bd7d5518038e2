package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"webpkg/internal/app"
	"webpkg/internal/tui"
	"webpkg/internal/wp"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type packFlags struct {
	title  string
	width  string
	height string
	icon   string
	output string
	plain  bool
}

// buildRequest turns command-line input into a PackagingRequest. File and
// folder sources and the icon are made absolute so the recent list and the
// ledger stay meaningful from any working directory.
func buildRequest(mode wp.Mode, source string, f packFlags, defaultOutput string) (*wp.PackagingRequest, error) {
	width, height, err := wp.ParseDimensions(f.width, f.height)
	if err != nil {
		return nil, err
	}

	if mode != wp.ModeURL && strings.TrimSpace(source) != "" {
		abs, err := filepath.Abs(source)
		if err != nil {
			return nil, fmt.Errorf("resolving source: %w", err)
		}
		source = abs
	}

	iconPath := f.icon
	if iconPath != "" {
		abs, err := filepath.Abs(iconPath)
		if err != nil {
			return nil, fmt.Errorf("resolving icon: %w", err)
		}
		iconPath = abs
	}

	output := f.output
	if output == "" {
		output = defaultOutput
	}

	return &wp.PackagingRequest{
		Mode:         mode,
		Source:       source,
		WindowTitle:  f.title,
		WindowWidth:  width,
		WindowHeight: height,
		OutputRoot:   output,
		IconPath:     iconPath,
	}, nil
}

// resolveMode picks the mode for a pack command. An empty mode means the
// last mode used, falling back to URL.
func resolveMode(mode, last wp.Mode) wp.Mode {
	if mode != "" {
		return mode
	}
	if last.Valid() {
		return last
	}
	return wp.ModeURL
}

// defaultOutput is the last output root used, or the configured one.
func defaultOutput(a *app.WPApp) string {
	return a.UserConfig().LastOutputDir
}

func summarize(res *wp.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Slot:   %s\n", res.Slot.Path)
	fmt.Fprintf(&b, "Binary: %s", res.Commit.BinaryPath)
	if res.Commit.ContentPath != "" {
		fmt.Fprintf(&b, "\nContent: %s", res.Commit.ContentPath)
	}
	if res.PublishedKey != "" {
		fmt.Fprintf(&b, "\nPublished: %s", res.PublishedKey)
	}
	return b.String()
}

func runPack(cmd *cobra.Command, mode wp.Mode, source string) error {
	var f packFlags
	f.title, _ = cmd.Flags().GetString("title")
	f.width, _ = cmd.Flags().GetString("width")
	f.height, _ = cmd.Flags().GetString("height")
	f.icon, _ = cmd.Flags().GetString("icon")
	f.output, _ = cmd.Flags().GetString("output")
	f.plain, _ = cmd.Flags().GetBool("plain")

	sink := &logSink{}
	a, err := newApp(cmd.Context(), sink)
	if err != nil {
		return err
	}
	defer a.Close()

	mode = resolveMode(mode, a.UserConfig().LastMode)
	req, err := buildRequest(mode, source, f, defaultOutput(a))
	if err != nil {
		return err
	}

	if f.plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		sink.Set(os.Stderr)
		res, err := a.Package(cmd.Context(), req)
		if res != nil {
			fmt.Println(summarize(res))
		}
		return err
	}

	return tui.Run("webpkg: "+req.WindowTitle, func(ctx context.Context, logs io.Writer) (string, error) {
		sink.Set(logs)
		defer sink.Set(nil)

		res, err := a.Package(ctx, req)
		if res != nil && err == nil {
			return summarize(res), nil
		}
		if res != nil {
			// built locally but not published
			return "", fmt.Errorf("%s\n\n%w", summarize(res), err)
		}
		return "", err
	})
}

var packCmd = &cobra.Command{
	Use:   "pack [url|file|folder] SOURCE",
	Short: "Package a URL, HTML file or asset folder",
	Long: `Package a URL, HTML file or asset folder.

Without a mode subcommand, SOURCE is packaged in the mode used last.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPack(cmd, "", args[0])
	},
}

func newPackModeCmd(mode wp.Mode, use, short string) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(cmd, mode, args[0])
		},
	}
	addPackFlags(c)
	return c
}

func addPackFlags(c *cobra.Command) {
	c.Flags().StringP("title", "t", wp.DefaultWindowTitle, "Window title, also used for the executable name")
	c.Flags().String("width", strconv.Itoa(wp.DefaultWindowWidth), fmt.Sprintf("Window width (min %d)", wp.MinWindowWidth))
	c.Flags().String("height", strconv.Itoa(wp.DefaultWindowHeight), fmt.Sprintf("Window height (min %d)", wp.MinWindowHeight))
	c.Flags().StringP("icon", "i", "", "Icon image (png, jpeg, gif, bmp, webp or ico)")
	c.Flags().StringP("output", "o", "", "Output root (default: last used)")
	c.Flags().Bool("plain", false, "Print log lines instead of the progress view")
}

func init() {
	addPackFlags(packCmd)
	packCmd.AddCommand(newPackModeCmd(wp.ModeURL, "url URL", "Wrap a web address"))
	packCmd.AddCommand(newPackModeCmd(wp.ModeFile, "file HTML_FILE", "Bundle a single HTML file"))
	packCmd.AddCommand(newPackModeCmd(wp.ModeFolder, "folder DIR", "Bundle a folder of web assets"))
}
