package main

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"

	"mindcanvas/internal/editor"
	"mindcanvas/internal/logger"
	"mindcanvas/internal/mindmap"
	"mindcanvas/internal/syncer"
	"mindcanvas/internal/templates"
)

type model struct {
	width      int
	height     int
	mode       Mode
	help       bool
	helpScroll int
	zPanMode   bool

	config  *Config
	log     *logger.Logger
	engine  *mindmap.Engine
	remote  *syncer.HTTPRemote
	adapter *syncer.Adapter
	catalog *templates.Catalog
	session *editor.Session

	// Startup list.
	maps          []mindmap.MindMap
	results       []syncer.SearchResult
	selectedIndex int
	templateIndex int // -1 for a blank map
	loading       bool

	// Prompts and confirmations.
	prompt        textinput.Model
	promptKind    PromptKind
	pendingName   string
	pendingEmail  string
	registering   bool
	confirmAction ConfirmAction
	exportKind    ExportKind
	exportPath    string
	quitAfterSave bool

	// openID is a map to open as soon as the program starts.
	openID string

	// Mouse.
	now         func() time.Time
	mouseDown   bool
	lastPress   time.Time
	lastPressAt point
	doubleClick bool

	saving         bool
	showMinimap    bool
	user           string
	errorMessage   string
	successMessage string
}

type point struct {
	X, Y int
}

// Results of commands run off the update loop.

type mapsLoadedMsg struct {
	maps []mindmap.MindMap
	err  error
}

type mapOpenedMsg struct {
	doc   mindmap.MindMap
	label string
	err   error
}

type mapSavedMsg struct {
	doc mindmap.MindMap
	// histIndex and histLen identify the history state the save was taken from.
	histIndex int
	histLen   int
	err       error
}

type mapDeletedMsg struct {
	id  string
	err error
}

type authMsg struct {
	result syncer.AuthResult
	err    error
}

type loggedOutMsg struct {
	err error
}

type searchMsg struct {
	query   string
	results []syncer.SearchResult
	err     error
}

type exportedMsg struct {
	path string
	err  error
}
