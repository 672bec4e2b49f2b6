package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"blemap/internal/matcher"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
)

// MatchResponseCLI is the match command's result.
type MatchResponseCLI struct {
	Text    string          `json:"text"`
	Summary matcher.Summary `json:"result"`
}

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats the response as JSON
func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatHuman formats the response in human-readable format
func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *DoctorResponseCLI:
		return formatDoctorHuman(v)
	case *MatchResponseCLI:
		return formatMatchHuman(v)
	case *RunsListResponseCLI:
		return formatRunsListHuman(v)
	case *RunShowResponseCLI:
		return formatRunShowHuman(v)
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatDoctorHuman(resp *DoctorResponseCLI) (string, error) {
	var b strings.Builder

	if resp.Healthy {
		b.WriteString("blemap doctor: healthy\n")
	} else {
		b.WriteString("blemap doctor: problems found\n")
	}
	b.WriteString(strings.Repeat("=", 60) + "\n")

	for _, c := range resp.Checks {
		var icon string
		switch c.Status {
		case "pass":
			icon = "✓"
		case "warn":
			icon = "!"
		default:
			icon = "✗"
		}
		b.WriteString(fmt.Sprintf("%s %-12s %s\n", icon, c.Name, c.Message))
		for _, fix := range c.SuggestedFixes {
			switch {
			case fix.Command != "":
				b.WriteString(fmt.Sprintf("    fix: %s (%s)\n", fix.Command, fix.Description))
			case fix.Key != "":
				b.WriteString(fmt.Sprintf("    fix: edit %s (%s)\n", fix.Key, fix.Description))
			}
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatMatchHuman(resp *MatchResponseCLI) (string, error) {
	s := resp.Summary
	if len(s.CategorySubcategory) == 0 {
		return fmt.Sprintf("%q: no category", resp.Text), nil
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%q:\n", resp.Text))
	for i, p := range s.CategorySubcategory {
		b.WriteString(fmt.Sprintf("  %-30s %s\n", p, s.Words[i]))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatRunsListHuman(resp *RunsListResponseCLI) (string, error) {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Results database: %s\n", resp.Database))
	b.WriteString(fmt.Sprintf("Corpus digest:    %s\n", resp.CorpusDigest))
	if len(resp.Runs) == 0 {
		b.WriteString("\nNo runs recorded for this corpus.")
		return b.String(), nil
	}
	b.WriteString("\n")
	for _, r := range resp.Runs {
		mode := ""
		if r.ValidationMode {
			mode = " (validation)"
		}
		b.WriteString(fmt.Sprintf("%s  %s  %d apps, %d identifiers, %d resolved%s\n",
			r.RunID, r.StartedAt.Format(time.RFC3339), r.Apps, r.Identifiers, r.Resolved, mode))
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func formatRunShowHuman(resp *RunShowResponseCLI) (string, error) {
	var b strings.Builder
	r := resp.Run
	b.WriteString(fmt.Sprintf("Run %s\n", r.RunID))
	b.WriteString(fmt.Sprintf("  started:     %s\n", r.StartedAt.Format(time.RFC3339)))
	if r.FinishedAt != nil {
		b.WriteString(fmt.Sprintf("  finished:    %s\n", r.FinishedAt.Format(time.RFC3339)))
	}
	b.WriteString(fmt.Sprintf("  corpus:      %s\n", r.CorpusDigest))
	b.WriteString(fmt.Sprintf("  validation:  %v\n", r.ValidationMode))
	b.WriteString(fmt.Sprintf("  identifiers: %d in %d apps, %d resolved\n", r.Identifiers, r.Apps, r.Resolved))
	if resp.OutputFile != "" {
		b.WriteString(fmt.Sprintf("  written to:  %s\n", resp.OutputFile))
	}

	if len(resp.CategoryCounts) > 0 {
		cats := make([]string, 0, len(resp.CategoryCounts))
		for c := range resp.CategoryCounts {
			cats = append(cats, c)
		}
		// Most frequent first.
		sort.Slice(cats, func(i, j int) bool {
			ci, cj := resp.CategoryCounts[cats[i]], resp.CategoryCounts[cats[j]]
			if ci != cj {
				return ci > cj
			}
			return cats[i] < cats[j]
		})
		b.WriteString("\nFinal categories:\n")
		for _, c := range cats {
			b.WriteString(fmt.Sprintf("  %-30s %d\n", c, resp.CategoryCounts[c]))
		}
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
