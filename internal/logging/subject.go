package logging

import "strings"

// FormatSubject builds the row/asset/stage subject shown in console output,
// for example "Row 3 (locating) · asset 42".
func FormatSubject(row, assetID, stage string) string {
	row = strings.TrimSpace(row)
	assetID = strings.TrimSpace(assetID)
	stage = strings.TrimSpace(stage)
	parts := make([]string, 0, 2)
	switch {
	case row != "" && stage != "":
		parts = append(parts, "Row "+row+" ("+stage+")")
	case row != "":
		parts = append(parts, "Row "+row)
	case stage != "":
		parts = append(parts, stage)
	}
	if assetID != "" {
		parts = append(parts, "asset "+assetID)
	}
	return strings.Join(parts, " · ")
}
