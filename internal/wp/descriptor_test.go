package wp_test

import (
	"strings"
	"testing"

	"webpkg/internal/wp"
)

func TestArtifactName(t *testing.T) {
	tests := map[string]string{
		"My Web App": "My_Web_App",
		"Docs":       "Docs",
		"  padded  ": "__padded__",
		"tab\tkept":  "tab\tkept",
	}
	for title, want := range tests {
		if got := wp.ArtifactName(title); got != want {
			t.Errorf("ArtifactName(%q) = %q, want %q", title, got, want)
		}
	}
}

func TestGenerate_Descriptor(t *testing.T) {
	req := &wp.PackagingRequest{
		Mode:         wp.ModeFolder,
		Source:       "/src/site",
		WindowTitle:  "Site Viewer",
		WindowWidth:  1024,
		WindowHeight: 768,
	}

	t.Run("lists staged files in order", func(t *testing.T) {
		staged := &wp.StagedInputs{Files: []wp.StagedFile{
			{Name: "z.html", Path: "/scratch/content/z.html"},
			{Name: "a/b.png", Path: "/scratch/content/a/b.png"},
			{Name: "index.html", Path: "/scratch/content/index.html"},
		}}

		descriptor, _, err := wp.Generate(req, staged)
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}

		last := -1
		for _, f := range staged.Files {
			line := `a.datas += [("` + f.Name + `", "` + f.Path + `", "DATA")]`
			idx := strings.Index(descriptor, line)
			if idx < 0 {
				t.Fatalf("descriptor missing %q:\n%s", line, descriptor)
			}
			if idx < last {
				t.Errorf("entry %q out of order", f.Name)
			}
			last = idx
		}
		if !strings.Contains(descriptor, `name="Site_Viewer"`) {
			t.Errorf("descriptor missing artifact name:\n%s", descriptor)
		}
		if !strings.Contains(descriptor, "console=False") {
			t.Error("descriptor must select a windowed build")
		}
		if strings.Contains(descriptor, "icon=") {
			t.Error("descriptor must not reference an icon when none is staged")
		}
		if !strings.Contains(descriptor, `["app.py"]`) {
			t.Error("descriptor must analyse the launcher script")
		}
	})

	t.Run("references staged icon", func(t *testing.T) {
		descriptor, _, err := wp.Generate(req, &wp.StagedInputs{IconPath: "/scratch/icon.ico"})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if !strings.Contains(descriptor, `icon="/scratch/icon.ico",`) {
			t.Errorf("descriptor missing icon line:\n%s", descriptor)
		}
	})

	t.Run("escapes quotes in names", func(t *testing.T) {
		quoted := *req
		quoted.WindowTitle = `Bob's "App"`
		descriptor, launcher, err := wp.Generate(&quoted, &wp.StagedInputs{})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if !strings.Contains(descriptor, `name="Bob's_\"App\""`) {
			t.Errorf("artifact name not escaped:\n%s", descriptor)
		}
		if !strings.Contains(launcher, `"Bob's \"App\""`) {
			t.Errorf("title not escaped:\n%s", launcher)
		}
	})
}

func TestGenerate_Launcher(t *testing.T) {
	base := wp.PackagingRequest{WindowTitle: "Viewer", WindowWidth: 900, WindowHeight: 700}

	t.Run("url mode opens the literal url", func(t *testing.T) {
		req := base
		req.Mode, req.Source = wp.ModeURL, "https://example.com/app?x=1"
		_, launcher, err := wp.Generate(&req, &wp.StagedInputs{})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		for _, want := range []string{
			`return "https://example.com/app?x=1"`,
			`"Viewer"`,
			"width=900",
			"height=700",
			"webview.start()",
		} {
			if !strings.Contains(launcher, want) {
				t.Errorf("launcher missing %q:\n%s", want, launcher)
			}
		}
		if strings.Contains(launcher, "listdir") {
			t.Error("url launcher should not scan for pages")
		}
	})

	t.Run("file mode opens the bundled file", func(t *testing.T) {
		req := base
		req.Mode, req.Source = wp.ModeFile, "/home/me/page.html"
		_, launcher, err := wp.Generate(&req, &wp.StagedInputs{Entry: "page.html"})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if !strings.Contains(launcher, `os.path.join(resource_dir(), "page.html")`) {
			t.Errorf("launcher does not open bundled file:\n%s", launcher)
		}
		if !strings.Contains(launcher, "sys._MEIPASS") {
			t.Error("launcher must resolve the bundle resource dir")
		}
	})

	t.Run("folder mode picks the first html page", func(t *testing.T) {
		req := base
		req.Mode, req.Source = wp.ModeFolder, "/home/me/site"
		_, launcher, err := wp.Generate(&req, &wp.StagedInputs{})
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		for _, want := range []string{`(".html", ".htm")`, "sys.exit(1)", "pages[0]"} {
			if !strings.Contains(launcher, want) {
				t.Errorf("launcher missing %q:\n%s", want, launcher)
			}
		}
	})
}
