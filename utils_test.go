package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"mindcanvas/internal/apperr"
	"mindcanvas/internal/export"
	"mindcanvas/internal/mindmap"
)

func TestCleanClipboardText(t *testing.T) {
	assert.Equal(t, "a\nb\nc", cleanClipboardText("a\r\nb\rc"))
	assert.Equal(t, "tab\there", cleanClipboardText("tab\there\x00"))
	assert.Equal(t, "Hello world", cleanClipboardText(`{\rtf1\ansi Hello world}`))
}

func TestExtractTextFromHTML(t *testing.T) {
	html := "<div><b>Fish</b> &amp; chips</div>"
	assert.True(t, isHTML(html))
	assert.Equal(t, "Fish & chips", extractTextFromHTML(html))
	assert.False(t, isHTML("plain <not html"))
}

func TestSingleLine(t *testing.T) {
	assert.Equal(t, "one two three", singleLine("  one\ntwo\t three \n"))
}

func TestPluralize(t *testing.T) {
	assert.Equal(t, "1 node", pluralize(1, "node"))
	assert.Equal(t, "0 nodes", pluralize(0, "node"))
	assert.Equal(t, "3 connections", pluralize(3, "connection"))
}

func TestDescribeError(t *testing.T) {
	assert.Equal(t, "", describeError(nil))
	assert.Equal(t, "Nothing to export, the map has no nodes",
		describeError(fmt.Errorf("export: %w", export.ErrEmpty)))
	assert.Equal(t, "Mind map not found", describeError(apperr.NotFound("Mind map not found")))
	assert.Equal(t, "Network error, working from the local cache",
		describeError(apperr.Network(errors.New("dial tcp: refused"))))
	assert.Equal(t, "boom", describeError(errors.New("boom")))
}

func TestOutlineTitle(t *testing.T) {
	assert.Equal(t, "notes", outlineTitle(filepath.Join("tmp", "notes.txt")))
	assert.Equal(t, "plan.v2", outlineTitle("plan.v2.md"))

	long := outlineTitle(strings.Repeat("é", 150) + ".txt")
	assert.True(t, utf8.ValidString(long))
	assert.Equal(t, mindmap.MaxTitleLength, utf8.RuneCountInString(long))
}
