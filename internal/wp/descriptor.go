package wp

import (
	"fmt"
	"strconv"
	"strings"
	"text/template"
)

// File names written into the scratch directory before the bundler runs.
const (
	LauncherFileName   = "app.py"
	DescriptorFileName = "app.spec"
)

// ArtifactName is the base name of the produced binary: the window title
// with spaces replaced by underscores.
func ArtifactName(title string) string {
	return strings.ReplaceAll(title, " ", "_")
}

var templateFuncs = template.FuncMap{
	// py renders s as a double-quoted Python string literal.
	"py": strconv.Quote,
}

var launcherTmpl = template.Must(template.New("launcher").Funcs(templateFuncs).Parse(`#!/usr/bin/env python3
# -*- coding: utf-8 -*-
import os
import sys
import webview


def resource_dir():
    if getattr(sys, "frozen", False):
        return sys._MEIPASS
    return os.path.dirname(os.path.abspath(__file__))


def target():
{{- if eq .Mode "url"}}
    return {{py .Source}}
{{- else if eq .Mode "file"}}
    return "file://" + os.path.join(resource_dir(), {{py .Entry}})
{{- else}}
    base = resource_dir()
    pages = sorted(f for f in os.listdir(base) if f.lower().endswith((".html", ".htm")))
    if not pages:
        print("no HTML file found in " + base, file=sys.stderr)
        sys.exit(1)
    return "file://" + os.path.join(base, pages[0])
{{- end}}


if __name__ == "__main__":
    webview.create_window(
        {{py .Title}},
        target(),
        width={{.Width}},
        height={{.Height}},
        text_select=True,
        confirm_close=False,
    )
    webview.start()
`))

var descriptorTmpl = template.Must(template.New("descriptor").Funcs(templateFuncs).Parse(`# -*- mode: python ; coding: utf-8 -*-

a = Analysis(
    [{{py .Launcher}}],
    pathex=[],
    binaries=[],
    datas=[],
    hiddenimports=[],
    hookspath=[],
    hooksconfig={},
    runtime_hooks=[],
    excludes=[],
    noarchive=False,
)
{{range .Files}}
a.datas += [({{py .Name}}, {{py .Path}}, "DATA")]
{{- end}}

pyz = PYZ(a.pure, a.zipped_data)

exe = EXE(
    pyz,
    a.scripts,
    a.binaries,
    a.zipfiles,
    a.datas,
    [],
    name={{py .Name}},
    debug=False,
    bootloader_ignore_signals=False,
    strip=False,
    upx=True,
    upx_exclude=[],
    runtime_tmpdir=None,
    console=False,
    disable_windowed_traceback=False,
    argv_emulation=False,
    target_arch=None,
    codesign_identity=None,
    entitlements_file=None,
{{- if .Icon}}
    icon={{py .Icon}},
{{- end}}
)
`))

type launcherData struct {
	Mode   Mode
	Source string
	Entry  string
	Title  string
	Width  int
	Height int
}

type descriptorData struct {
	Launcher string
	Files    []StagedFile
	Name     string
	Icon     string
}

// Generate renders the bundler descriptor and the launcher script for req.
// Data entries follow the order of staged.Files.
func Generate(req *PackagingRequest, staged *StagedInputs) (descriptor, launcher string, err error) {
	if staged == nil {
		staged = &StagedInputs{}
	}

	var lb strings.Builder
	err = launcherTmpl.Execute(&lb, launcherData{
		Mode:   req.Mode,
		Source: req.Source,
		Entry:  staged.Entry,
		Title:  req.WindowTitle,
		Width:  req.WindowWidth,
		Height: req.WindowHeight,
	})
	if err != nil {
		return "", "", fmt.Errorf("rendering launcher: %w", err)
	}

	var db strings.Builder
	err = descriptorTmpl.Execute(&db, descriptorData{
		Launcher: LauncherFileName,
		Files:    staged.Files,
		Name:     ArtifactName(req.WindowTitle),
		Icon:     staged.IconPath,
	})
	if err != nil {
		return "", "", fmt.Errorf("rendering descriptor: %w", err)
	}

	return db.String(), lb.String(), nil
}
