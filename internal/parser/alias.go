// Package parser reads the converter's inputs: image metadata, VrR-VG XML
// annotations, alias and vocabulary lists, and existing dictionary files.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParseAliasDict reads comma-separated alias groups, one per line. Every term
// of a group maps to the group's first term, or to that term's existing
// target when it was already aliased by an earlier line. The second result
// lists each line's target in file order.
func ParseAliasDict(r io.Reader) (map[string]string, []string, error) {
	aliases := make(map[string]string)
	var vocab []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		terms := strings.Split(line, ",")
		target := terms[0]
		if existing, ok := aliases[target]; ok {
			target = existing
		}
		for _, term := range terms {
			aliases[term] = target
		}
		vocab = append(vocab, target)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read alias dict: %w", err)
	}
	return aliases, vocab, nil
}

// ParseList reads one token per line. Blank lines are skipped.
func ParseList(r io.Reader) ([]string, error) {
	var tokens []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		tokens = append(tokens, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read list: %w", err)
	}
	return tokens, nil
}
