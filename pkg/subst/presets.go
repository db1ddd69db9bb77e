package subst

import (
	"fmt"
	"os"
	"strings"
)

// Preset keys.
const (
	KeyPresetText         = "Preset text"
	KeyPresetOnFirstReply = "Preset on first reply"
	KeyQuoteOnReply       = "Quote on reply"
)

// Action is the kind of edit an entry is prepared for. Actions combine:
// the first reply to an entry is Reply|FirstReply.
type Action uint8

const (
	NewEntry Action = 1 << iota
	Reply
	FirstReply
)

// ApplyPresets fills entry for action from the logbook settings:
//
//   - NewEntry: Text becomes "Preset text" after substitution. When the
//     setting names a readable file, the file content is used.
//   - FirstReply: each attribute with a "Preset on first reply <attr>"
//     setting gets that value after substitution.
//   - Reply: with "Quote on reply" set, Text is quoted line by line.
func (s *Substituter) ApplyPresets(entry *Entry, action Action) error {
	if action&NewEntry != 0 {
		preset, err := s.presetText()
		if err != nil {
			return err
		}
		entry.Text = s.Substitute(preset, entry)
	}

	if action&FirstReply != 0 {
		for name := range entry.Attrs {
			preset := s.scope.String(s.logbook, KeyPresetOnFirstReply+" "+name, "")
			if preset == "" {
				continue
			}
			entry.Attrs[name] = []string{s.Substitute(preset, entry)}
		}
	}

	if action&Reply != 0 && s.scope.Bool(s.logbook, KeyQuoteOnReply, false) {
		entry.Text = Quote(entry.Text)
	}

	return nil
}

func (s *Substituter) presetText() (string, error) {
	preset := s.scope.String(s.logbook, KeyPresetText, "")
	if preset == "" || strings.Contains(preset, "\n") {
		return preset, nil
	}

	info, err := os.Stat(preset)
	if err != nil || !info.Mode().IsRegular() {
		return preset, nil
	}

	data, err := os.ReadFile(preset)
	if err != nil {
		return "", fmt.Errorf("failed to read preset file %s: %w", preset, err)
	}
	s.logger.Debug().Str("path", preset).Msg("Preset text read from file")
	return string(data), nil
}

// Quote prefixes every line of text with "> " under a "Quote:" heading.
func Quote(text string) string {
	var b strings.Builder
	b.WriteString("\nQuote:\n")
	for _, line := range strings.SplitAfter(text, "\n") {
		if line == "" {
			continue
		}
		b.WriteString("> ")
		b.WriteString(line)
	}
	b.WriteString("\n")
	return b.String()
}
