// Command mindcanvas is a terminal mind map editor. Maps are kept on a
// mindcanvasd server when signed in and in a local cache otherwise.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"mindcanvas/internal/editor"
	"mindcanvas/internal/interaction"
	"mindcanvas/internal/logger"
	"mindcanvas/internal/mindmap"
	"mindcanvas/internal/syncer"
	"mindcanvas/internal/templates"
)

var (
	version = "2.0.0"
	commit  = "dev"
)

func main() {
	var (
		serverURL string
		cacheDir  string
		offline   bool
	)

	rootCmd := &cobra.Command{
		Use:     "mindcanvas [map-id]",
		Short:   "mindcanvas - terminal mind map editor",
		Long:    `mindcanvas edits mind maps in the terminal. Settings are read from ~/.mindcanvasrc; flags override them.`,
		Version: fmt.Sprintf("%s (commit: %s)", version, commit),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if serverURL != "" {
				config.ServerURL = serverURL
			}
			if cacheDir != "" {
				config.CacheDirectory = expandPath(cacheDir, "")
			}
			if offline {
				config.ServerURL = ""
			}

			closeLog := setupLogging(config)
			defer closeLog()

			m := initialModel(config)
			if len(args) == 1 {
				m.openID = args[0]
			}
			p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseAllMotion())
			_, err := p.Run()
			return err
		},
	}

	rootCmd.Flags().StringVarP(&serverURL, "server", "s", "", "API base URL (overrides ServerURL)")
	rootCmd.Flags().StringVar(&cacheDir, "cache", "", "Directory for offline copies (overrides CacheDirectory)")
	rootCmd.Flags().BoolVar(&offline, "offline", false, "Work from the local cache only")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging sends log output to the configured file so it cannot
// scribble over the alt screen.
func setupLogging(config *Config) func() {
	if config.LogFile == "" {
		logger.SetOutput(io.Discard)
		return func() {}
	}
	os.MkdirAll(filepath.Dir(config.LogFile), 0755)
	f, err := os.OpenFile(config.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		logger.SetOutput(io.Discard)
		return func() {}
	}
	logger.SetOutput(f)
	return func() { f.Close() }
}

func initialModel(config *Config) model {
	log := logger.New("mindcanvas")
	engine := mindmap.NewEngine()

	var local syncer.LocalStore
	if config.CacheDirectory != "" {
		fs, err := syncer.NewFileStore(config.CacheDirectory)
		if err != nil {
			log.Warn("cache directory unusable", map[string]interface{}{"dir": config.CacheDirectory, "error": err})
		} else {
			local = fs
		}
	}

	opts := []syncer.Option{syncer.WithEngine(engine)}
	var (
		remote *syncer.HTTPRemote
		r      syncer.Remote
	)
	if config.ServerURL != "" {
		remote = syncer.NewHTTPRemote(config.ServerURL, config.Token)
		r = remote
	}
	if remote == nil || config.Token == "" {
		opts = append(opts, syncer.Offline())
	}

	prompt := textinput.New()
	prompt.CharLimit = 256

	user := ""
	if remote != nil && config.Token != "" {
		user = config.Email
	}

	return model{
		mode:          ModeStartup,
		config:        config,
		log:           log,
		engine:        engine,
		remote:        remote,
		adapter:       syncer.New(r, local, opts...),
		catalog:       templates.Builtin(),
		templateIndex: -1,
		prompt:        prompt,
		showMinimap:   true,
		user:          user,
		loading:       true,
		now:           time.Now,
	}
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{loadMapsCmd(m.adapter)}
	if m.openID != "" {
		cmds = append(cmds, openMapCmd(m.adapter, m.openID))
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeSession()
		return m, nil

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case mapsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			m.errorMessage = describeError(msg.err)
			return m, nil
		}
		m.maps = msg.maps
		m.clampSelection()
		return m, nil

	case mapOpenedMsg:
		m.loading = false
		if errors.Is(msg.err, syncer.ErrStale) {
			return m, nil
		}
		if msg.err != nil {
			m.errorMessage = describeError(msg.err)
			return m, nil
		}
		m.openSession(msg.doc, msg.label)
		m.maps = m.adapter.Maps()
		return m, nil

	case mapSavedMsg:
		m.saving = false
		if msg.err != nil {
			m.quitAfterSave = false
			m.errorMessage = "Save failed: " + describeError(msg.err)
			return m, nil
		}
		if m.session != nil && m.session.Document().ID == msg.doc.ID {
			h := m.session.History()
			if h.Index() == msg.histIndex && h.Len() == msg.histLen {
				m.session.Adopt(msg.doc)
			}
		}
		m.maps = m.adapter.Maps()
		m.successMessage = "Saved"
		if m.quitAfterSave {
			return m, tea.Quit
		}
		return m, nil

	case mapDeletedMsg:
		if msg.err != nil {
			m.errorMessage = describeError(msg.err)
			return m, nil
		}
		m.maps = m.adapter.Maps()
		m.results = nil
		m.clampSelection()
		m.successMessage = "Mind map deleted"
		return m, nil

	case authMsg:
		m.loading = false
		if msg.err != nil {
			m.errorMessage = describeError(msg.err)
			return m, nil
		}
		m.remote.SetToken(msg.result.Token)
		m.config.Token = msg.result.Token
		m.config.Email = msg.result.User.Email
		m.adapter.GoOnline()
		m.user = msg.result.User.Email
		m.successMessage = "Signed in as " + m.user
		m.loading = true
		return m, loadMapsCmd(m.adapter)

	case loggedOutMsg:
		if msg.err != nil {
			m.log.Warn("logout failed", map[string]interface{}{"error": msg.err})
		}
		m.remote.SetToken("")
		m.config.Token = ""
		m.adapter.GoOffline()
		m.user = ""
		m.results = nil
		m.successMessage = "Signed out, working offline"
		m.loading = true
		return m, loadMapsCmd(m.adapter)

	case searchMsg:
		if msg.err != nil {
			m.errorMessage = describeError(msg.err)
			return m, nil
		}
		m.results = msg.results
		if m.results == nil {
			m.results = []syncer.SearchResult{}
		}
		m.selectedIndex = 0
		m.successMessage = fmt.Sprintf("%d result(s) for %q", len(m.results), msg.query)
		return m, nil

	case exportedMsg:
		if msg.err != nil {
			m.errorMessage = describeError(msg.err)
			return m, nil
		}
		m.successMessage = "Exported to " + msg.path
		return m, nil
	}

	if m.mode == ModePrompt {
		var cmd tea.Cmd
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	return m, nil
}

// openSession makes doc the document being edited.
func (m *model) openSession(doc mindmap.MindMap, label string) {
	w, h := m.viewSize()
	m.session = editor.Open(doc, label, editor.WithEngine(m.engine), editor.WithViewSize(w, h))
	if label == editor.LabelCreate && len(doc.Nodes) > 1 {
		m.session.ZoomToFit()
	}
	m.mode = ModeNormal
	m.zPanMode = false
	m.errorMessage = ""
	m.successMessage = fmt.Sprintf("Opened %q", doc.Title)
	m.log.Info("opened", map[string]interface{}{"id": doc.ID, "nodes": len(doc.Nodes)})
}

// closeSession returns to the map list without saving.
func (m *model) closeSession() {
	m.session = nil
	m.adapter.Close()
	m.mode = ModeStartup
	m.maps = m.adapter.Maps()
	m.clampSelection()
}

func (m *model) resizeSession() {
	if m.session == nil {
		return
	}
	w, h := m.viewSize()
	m.session.SetViewSize(w, h)
}

func (m model) layout() cellLayout {
	return cellLayout{cw: m.config.CellWidth, ch: m.config.CellHeight}
}

// canvasHeight is the number of rows above the status line.
func (m model) canvasHeight() int {
	if m.height-1 < 1 {
		return 1
	}
	return m.height - 1
}

func (m model) canvasWidth() int {
	if m.width < 1 {
		return 1
	}
	return m.width
}

// viewSize is the canvas size in screen units.
func (m model) viewSize() (float64, float64) {
	l := m.layout()
	return float64(m.canvasWidth()) * l.cw, float64(m.canvasHeight()) * l.ch
}

func (m *model) clampSelection() {
	n := len(m.maps)
	if m.results != nil {
		n = len(m.results)
	}
	if m.selectedIndex >= n {
		m.selectedIndex = n - 1
	}
	if m.selectedIndex < 0 {
		m.selectedIndex = 0
	}
}

func (m model) modeString() string {
	switch m.mode {
	case ModeStartup:
		return "MAPS"
	case ModePrompt:
		return "INPUT"
	case ModeConfirm:
		return "CONFIRM"
	}
	if m.session == nil {
		return "NORMAL"
	}
	switch m.session.Machine().Mode() {
	case interaction.DraggingNode:
		return "MOVE"
	case interaction.PanningCanvas:
		return "PAN"
	case interaction.ConnectingFrom:
		return "CONNECT"
	case interaction.EditingText:
		return "EDIT"
	}
	if m.zPanMode || m.session.Machine().SpaceHeld() {
		return "PAN"
	}
	return "NORMAL"
}
