package main

import "time"

type Mode int

const (
	ModeStartup Mode = iota
	ModeNormal
	ModePrompt
	ModeConfirm
)

type PromptKind int

const (
	PromptNewMap PromptKind = iota
	PromptRename
	PromptImport
	PromptSearch
	PromptName
	PromptEmail
	PromptPassword
	PromptExportFile
)

type ConfirmAction int

const (
	ConfirmDeleteNodes ConfirmAction = iota
	ConfirmDeleteMap
	ConfirmQuit
	ConfirmCloseMap
	ConfirmOverwriteFile
	ConfirmChooseExportType
)

// ExportKind is what the export prompt writes. Everything except the visual
// text dump goes through the export service.
type ExportKind int

const (
	ExportPNG ExportKind = iota
	ExportSVG
	ExportJSON
	ExportPDF
	ExportVisualTXT
)

const (
	doubleClickInterval = 400 * time.Millisecond
	syncTimeout         = 15 * time.Second
	exportTimeout       = time.Minute

	// Keyboard pan step in cells.
	panStepX = 4
	panStepY = 2

	minimapWidth  = 26
	minimapHeight = 9

	searchLimit = 50
)
