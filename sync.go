package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"mindcanvas/internal/editor"
	"mindcanvas/internal/export"
	"mindcanvas/internal/mindmap"
	"mindcanvas/internal/syncer"
	"mindcanvas/internal/templates"
)

// Every command below runs on its own goroutine and reports back with a
// message; none of them touches the editor session.

func loadMapsCmd(a *syncer.Adapter) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		maps, err := a.LoadAll(ctx)
		return mapsLoadedMsg{maps: maps, err: err}
	}
}

func openMapCmd(a *syncer.Adapter, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		doc, err := a.Load(ctx, id)
		return mapOpenedMsg{doc: doc, label: editor.LabelLoad, err: err}
	}
}

// createMapCmd creates a map, from a template when templateID is set. The
// server instantiates templates itself; offline the template is filled in
// locally over the new shell.
func createMapCmd(a *syncer.Adapter, e *mindmap.Engine, catalog *templates.Catalog, title, templateID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()

		offline := a.IsOffline()
		req := syncer.CreateRequest{Title: title, TemplateID: templateID}
		if offline {
			req.TemplateID = ""
		}
		doc, err := a.Create(ctx, req)
		if err != nil {
			return mapOpenedMsg{err: err}
		}
		if offline && templateID != "" {
			t, err := catalog.Get(templateID)
			if err != nil {
				return mapOpenedMsg{err: err}
			}
			filled := templates.Instantiate(e, t, doc.ID, doc.Title)
			filled.CreatedAt = doc.CreatedAt
			if doc, err = a.Save(ctx, filled); err != nil {
				return mapOpenedMsg{err: err}
			}
		}
		return mapOpenedMsg{doc: doc, label: editor.LabelCreate}
	}
}

// outlineTitle names an imported map after its file, cut to the longest
// title a map may carry.
func outlineTitle(path string) string {
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if r := []rune(title); len(r) > mindmap.MaxTitleLength {
		title = string(r[:mindmap.MaxTitleLength])
	}
	return title
}

// importOutlineCmd turns an indented text file into a new map named after
// the file.
func importOutlineCmd(a *syncer.Adapter, e *mindmap.Engine, path string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(path)
		if err != nil {
			return mapOpenedMsg{err: err}
		}
		outline, err := templates.FromOutline(e, "", outlineTitle(path), string(data))
		if err != nil {
			return mapOpenedMsg{err: fmt.Errorf("import %s: %w", filepath.Base(path), err)}
		}

		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		shell, err := a.Create(ctx, syncer.CreateRequest{Title: outline.Title, Tags: outline.Tags})
		if err != nil {
			return mapOpenedMsg{err: err}
		}
		outline.ID = shell.ID
		outline.OwnerID = shell.OwnerID
		outline.Version = shell.Version
		outline.CreatedAt = shell.CreatedAt
		saved, err := a.Save(ctx, outline)
		if err != nil {
			return mapOpenedMsg{err: err}
		}
		return mapOpenedMsg{doc: saved, label: editor.LabelCreate}
	}
}

func saveMapCmd(a *syncer.Adapter, doc mindmap.MindMap, histIndex, histLen int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		saved, err := a.Save(ctx, doc)
		return mapSavedMsg{doc: saved, histIndex: histIndex, histLen: histLen, err: err}
	}
}

func deleteMapCmd(a *syncer.Adapter, id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		return mapDeletedMsg{id: id, err: a.Delete(ctx, id)}
	}
}

func loginCmd(r *syncer.HTTPRemote, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		result, err := r.Login(ctx, email, password)
		return authMsg{result: result, err: err}
	}
}

func registerCmd(r *syncer.HTTPRemote, name, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		result, err := r.Register(ctx, name, email, password)
		return authMsg{result: result, err: err}
	}
}

func logoutCmd(r *syncer.HTTPRemote) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		return loggedOutMsg{err: r.Logout(ctx)}
	}
}

func searchCmd(r *syncer.HTTPRemote, query string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		results, err := r.Search(ctx, query, searchLimit)
		return searchMsg{query: query, results: results, err: err}
	}
}

// exportCmd writes doc through the export service. PDF needs a Chrome
// binary on PATH.
func exportCmd(doc mindmap.MindMap, format export.Format, path string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), exportTimeout)
		defer cancel()
		res, err := export.NewService("").Export(ctx, doc, format)
		if err != nil {
			return exportedMsg{path: path, err: err}
		}
		if err := os.WriteFile(path, res.Data, 0644); err != nil {
			return exportedMsg{path: path, err: err}
		}
		return exportedMsg{path: path}
	}
}
