package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sdejongh/dirlink/pkg/models"
)

// WriteMatchReport writes the matches of a run to path, or to stdout when
// path is empty. Format can be "human" or "json".
func WriteMatchReport(report *models.RunReport, path string, format string) error {
	var w io.Writer = os.Stdout
	if path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create match report: %w", err)
		}
		defer file.Close()
		w = file
	}

	return FprintMatchReport(w, report, format)
}

// FprintMatchReport writes the matches of a run to w
func FprintMatchReport(w io.Writer, report *models.RunReport, format string) error {
	switch format {
	case "json":
		return writeMatchesJSON(report, w)
	default:
		return writeMatchesHuman(report, w)
	}
}

// writeMatchesHuman lists matches grouped by target
func writeMatchesHuman(report *models.RunReport, w io.Writer) error {
	fmt.Fprintf(w, "Match Report\n")
	fmt.Fprintf(w, "============\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Run: %s\n", report.OperationID)
	fmt.Fprintf(w, "Target: %s\n", report.TargetPath)
	fmt.Fprintf(w, "Destination: %s\n", report.DestinationPath)
	fmt.Fprintf(w, "Dry Run: %v\n\n", report.DryRun)

	fmt.Fprintf(w, "Total Matches: %d (%s)\n\n", len(report.Matches), humanize.IBytes(report.Matches.TotalBytes()))

	var order []string
	byTarget := make(map[string][]int)
	for i, m := range report.Matches {
		if _, seen := byTarget[m.TargetPath]; !seen {
			order = append(order, m.TargetPath)
		}
		byTarget[m.TargetPath] = append(byTarget[m.TargetPath], i)
	}

	for _, target := range order {
		indexes := byTarget[target]
		label := fmt.Sprintf("%s (%s, %d links)", target, humanize.IBytes(report.Matches[indexes[0]].Size), len(indexes))
		fmt.Fprintf(w, "%s\n", label)
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(label)))

		for _, i := range indexes {
			fmt.Fprintf(w, "  %s", report.Matches[i].LinkPath)
			if i < len(report.Links) {
				fmt.Fprintf(w, " [%s]", report.Links[i].Status)
				if report.Links[i].Error != nil {
					fmt.Fprintf(w, "\n    Error: %v", report.Links[i].Error)
				}
			}
			fmt.Fprintf(w, "\n")
		}
		fmt.Fprintf(w, "\n")
	}

	return nil
}

// writeMatchesJSON writes the matches as a JSON document
func writeMatchesJSON(report *models.RunReport, w io.Writer) error {
	output := struct {
		Generated       string          `json:"generated"`
		OperationID     string          `json:"operation_id"`
		TargetPath      string          `json:"target_path"`
		DestinationPath string          `json:"destination_path"`
		DryRun          bool            `json:"dry_run"`
		TotalCount      int             `json:"total_count"`
		TotalBytes      uint64          `json:"total_bytes"`
		Matches         []JSONMatchData `json:"matches"`
	}{
		Generated:       time.Now().Format(time.RFC3339),
		OperationID:     report.OperationID,
		TargetPath:      report.TargetPath,
		DestinationPath: report.DestinationPath,
		DryRun:          report.DryRun,
		TotalCount:      len(report.Matches),
		TotalBytes:      report.Matches.TotalBytes(),
		Matches:         matchData(report),
	}
	if output.Matches == nil {
		output.Matches = []JSONMatchData{}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
