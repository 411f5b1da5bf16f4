package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"treescope/pkg/analysis"
	"treescope/pkg/config"
	"treescope/pkg/diagram"
	"treescope/pkg/export"
	"treescope/pkg/hierarchy"
	"treescope/pkg/layout"
	"treescope/pkg/loader"
	"treescope/pkg/model"
	"treescope/pkg/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/goccy/go-json"
	"golang.org/x/term"
)

var version = "dev"

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	urlFlag := flag.String("url", "", "Fetch the tree document from a URL")
	dbFlag := flag.String("db", "", "Load the tree from a SQLite entities database")
	serveFlag := flag.String("serve", "", "Start the preview server on this address (e.g. :8707)")
	exportSVG := flag.String("export-svg", "", "Export the diagram to an SVG file")
	exportPNG := flag.String("export-png", "", "Export the diagram to a PNG file")
	exportHTML := flag.String("export-html", "", "Export a self-contained interactive HTML viewer")
	exportMD := flag.String("export-md", "", "Export a Markdown outline report")
	titleFlag := flag.String("title", "", "Title for exports and the viewer page")
	widthFlag := flag.Float64("width", 1200, "Export canvas width in pixels")
	heightFlag := flag.Float64("height", 800, "Export canvas height in pixels")
	expandAll := flag.Bool("expand-all", false, "Export with every node expanded instead of the initial collapsed view")
	animateSVG := flag.Bool("animate", false, "Embed enter animations in the SVG export")
	yesFlag := flag.Bool("yes", false, "Overwrite existing export files without asking")
	robotStats := flag.Bool("robot-stats", false, "Output tree shape statistics as JSON")
	flag.Parse()

	if *help {
		fmt.Println("treescope - interactive collapsible tree viewer for entity documents")
		fmt.Println()
		fmt.Println("Usage: treescope [flags] [document.json]")
		fmt.Println()
		fmt.Println("Without a document argument, treescope looks for .treescope/tree.json")
		fmt.Println("in the current directory and its parents.")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(0)
	}
	if *versionFlag {
		fmt.Printf("treescope %s\n", version)
		os.Exit(0)
	}

	cfg, layoutCfg := loadConfig()
	duration := cfg.TransitionDuration(diagram.DefaultDuration)

	docPath, root, err := loadDocument(flag.Arg(0), *urlFlag, *dbFlag, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	title := *titleFlag
	if title == "" {
		title = root.Name
	}

	if *robotStats {
		tree := hierarchy.Build(root)
		out, err := json.MarshalIndent(analysis.Summarize(tree), "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(out))
		os.Exit(0)
	}

	exported := false
	for _, job := range []struct {
		path string
		run  func(path string) error
	}{
		{*exportSVG, func(path string) error {
			return exportDiagram(path, root, layoutCfg, duration, *widthFlag, *heightFlag, *expandAll, func(f *os.File, d *diagram.Diagram, snap diagram.Snapshot, frame diagram.Frame) error {
				opts := export.SVGOptions{Title: title}
				if *animateSVG {
					opts.Animate = true
					opts.Frame = &frame
				}
				return export.WriteSVG(f, d, snap, opts)
			})
		}},
		{*exportPNG, func(path string) error {
			return exportDiagram(path, root, layoutCfg, duration, *widthFlag, *heightFlag, *expandAll, func(f *os.File, d *diagram.Diagram, snap diagram.Snapshot, frame diagram.Frame) error {
				return export.WritePNG(f, d, snap)
			})
		}},
		{*exportHTML, func(path string) error {
			_, err := export.GenerateInteractiveHTML(export.InteractiveOptions{
				Root:     root,
				Title:    title,
				Path:     path,
				Layout:   layoutCfg,
				Duration: duration,
			})
			return err
		}},
		{*exportMD, func(path string) error {
			return export.SaveMarkdownToFile(root, path)
		}},
	} {
		if job.path == "" {
			continue
		}
		if !confirmOverwrite(job.path, *yesFlag) {
			fmt.Fprintf(os.Stderr, "Skipped %s\n", job.path)
			continue
		}
		ensureIgnored(job.path)
		if err := job.run(job.path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: export %s: %v\n", job.path, err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", job.path)
		exported = true
	}
	if exported {
		os.Exit(0)
	}

	if *serveFlag != "" {
		if docPath == "" {
			fmt.Fprintln(os.Stderr, "Error: --serve needs a document file to watch (not --url or --db)")
			os.Exit(1)
		}
		runServer(*serveFlag, docPath, title, layoutCfg, duration)
		return
	}

	runTUI(title, root)
}

// loadConfig finds and loads .treescope/config.yaml, falling back to
// defaults when there is none.
func loadConfig() (*config.Config, layout.Config) {
	layoutCfg := layout.DefaultConfig()
	path, ok := config.FindConfig("")
	if !ok {
		return &config.Config{}, layoutCfg
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg, cfg.ApplyLayout(layoutCfg)
}

// loadDocument resolves the tree from the first available source: an
// explicit file argument, a URL, a SQLite database, the configured
// document, or discovery of .treescope/tree.json. The returned path is
// empty for non-file sources.
func loadDocument(arg, url, db string, cfg *config.Config) (string, *model.Entity, error) {
	switch {
	case url != "":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		root, err := loader.Fetch(ctx, url)
		return "", root, err
	case db != "":
		root, err := loader.LoadSQLite(db)
		return "", root, err
	case arg != "":
		root, err := loader.LoadFile(arg)
		return arg, root, err
	case cfg.Document != "":
		root, err := loader.LoadFile(cfg.Document)
		return cfg.Document, root, err
	default:
		path, err := loader.Discover(".")
		if err != nil {
			return "", nil, err
		}
		root, err := loader.LoadFile(path)
		return path, root, err
	}
}

func exportDiagram(path string, root *model.Entity, cfg layout.Config, duration time.Duration, w, h float64, expandAll bool, render func(*os.File, *diagram.Diagram, diagram.Snapshot, diagram.Frame) error) error {
	d := diagram.New(root, w, h, cfg)
	d.SetDuration(duration)
	if expandAll {
		d.Tree.ExpandAll()
	}
	now := time.Now()
	frame := d.Update(0, now)
	snap := d.Settled(now)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return render(f, d, snap, frame)
}

// confirmOverwrite asks before clobbering an existing file. Non-TTY runs
// (CI, pipes) never prompt and never overwrite unless --yes is given.
func confirmOverwrite(path string, yes bool) bool {
	if yes {
		return true
	}
	if _, err := os.Stat(path); err != nil {
		return true
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintf(os.Stderr, "Refusing to overwrite %s without --yes\n", path)
		return false
	}

	ok := false
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Overwrite %s?", path)).
			Value(&ok),
	))
	if err := form.Run(); err != nil {
		return false
	}
	return ok
}

// ensureIgnored keeps the default export directory out of version control.
func ensureIgnored(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	root, ok := config.FindProjectRoot("")
	if !ok {
		return
	}
	outDir := filepath.Join(root, filepath.FromSlash(loader.OutDir))
	if strings.HasPrefix(abs, outDir+string(filepath.Separator)) {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return
		}
		if err := loader.EnsureOutIgnored(root); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
}

func runServer(addr, docPath, title string, layoutCfg layout.Config, duration time.Duration) {
	srv, err := export.NewServer(addr, docPath, title, layoutCfg, duration)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := srv.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(title string, root *model.Entity) {
	// The document is already loaded; the UI's loader just hands it over.
	load := func() (*model.Entity, error) { return root, nil }
	m := ui.NewModel(title, load, ui.DefaultTheme(lipgloss.DefaultRenderer()))
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
