// pkg/ui/manifest.go - Pre-run manifest display for comparison runs
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ManifestItem represents a single item in the run manifest
type ManifestItem struct {
	Label    string
	Value    interface{}
	Icon     string
	Emphasis bool // If true, highlight this item
}

// Manifest displays what a run will do before it starts
type Manifest struct {
	Title       string
	Description string
	Items       []ManifestItem
	Writer      io.Writer
	BoxStyle    bool // If true, draw a box around the manifest
}

// NewManifest creates a new manifest with default settings
func NewManifest(title string) *Manifest {
	return &Manifest{
		Title:    title,
		Items:    make([]ManifestItem, 0),
		Writer:   os.Stderr,
		BoxStyle: true,
	}
}

// SetDescription sets a description line under the title
func (m *Manifest) SetDescription(desc string) *Manifest {
	m.Description = desc
	return m
}

// Add adds an item to the manifest
func (m *Manifest) Add(label string, value interface{}) *Manifest {
	m.Items = append(m.Items, ManifestItem{Label: label, Value: value})
	return m
}

// AddWithIcon adds an item with an icon. The icon is sanitized for the
// current terminal capability.
func (m *Manifest) AddWithIcon(icon, label string, value interface{}) *Manifest {
	m.Items = append(m.Items, ManifestItem{Icon: SanitizeString(icon), Label: label, Value: value})
	return m
}

// AddEmphasis adds an emphasized item (highlighted)
func (m *Manifest) AddEmphasis(icon, label string, value interface{}) *Manifest {
	m.Items = append(m.Items, ManifestItem{Icon: SanitizeString(icon), Label: label, Value: value, Emphasis: true})
	return m
}

// AddSource adds the report source (service URL or file path)
func (m *Manifest) AddSource(kind, detail string) *Manifest {
	m.AddWithIcon("🗄️", "Source", fmt.Sprintf("%s (%s)", detail, kind))
	return m
}

// AddSelection adds the selected report ids
func (m *Manifest) AddSelection(ids []int) *Manifest {
	strs := make([]string, len(ids))
	for i, id := range ids {
		strs[i] = fmt.Sprintf("%d", id)
	}
	m.AddEmphasis("📊", "Reports", fmt.Sprintf("%d selected: %s", len(ids), strings.Join(strs, ", ")))
	return m
}

// AddFilter adds the active filter expression
func (m *Manifest) AddFilter(expr string) *Manifest {
	if expr != "" {
		m.AddWithIcon("🔍", "Filter", expr)
	}
	return m
}

// AddExports adds the configured export formats
func (m *Manifest) AddExports(formats []string) *Manifest {
	if len(formats) > 0 {
		m.AddWithIcon("📄", "Exports", strings.Join(formats, ", "))
	}
	return m
}

// AddConcurrency adds concurrency/rate info for service fetches
func (m *Manifest) AddConcurrency(workers int, rateLimit float64) *Manifest {
	m.AddWithIcon("⚡", "Workers", fmt.Sprintf("%d concurrent", workers))
	if rateLimit > 0 {
		m.AddWithIcon("🚦", "Rate Limit", fmt.Sprintf("%.0f req/s", rateLimit))
	}
	return m
}

// Print displays the manifest
func (m *Manifest) Print() {
	if IsSilent() {
		return
	}
	if m.BoxStyle {
		m.printBoxed()
	} else {
		m.printSimple()
	}
}

// printBoxed displays the manifest in a Unicode box
func (m *Manifest) printBoxed() {
	w := m.Writer

	// Calculate max width
	maxWidth := len(m.Title) + 4
	for _, item := range m.Items {
		width := len(item.Label) + len(fmt.Sprintf("%v", item.Value)) + 10
		if width > maxWidth {
			maxWidth = width
		}
	}
	if maxWidth > 70 {
		maxWidth = 70
	}
	if maxWidth < 50 {
		maxWidth = 50
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  ╔%s╗\n", strings.Repeat("═", maxWidth))

	// Title
	titlePadding := (maxWidth - len(m.Title)) / 2
	fmt.Fprintf(w, "  ║%s\033[1m%s\033[0m%s║\n",
		strings.Repeat(" ", titlePadding),
		m.Title,
		strings.Repeat(" ", maxWidth-titlePadding-len(m.Title)))

	// Description
	if m.Description != "" {
		descPadding := (maxWidth - len(m.Description)) / 2
		fmt.Fprintf(w, "  ║%s\033[2m%s\033[0m%s║\n",
			strings.Repeat(" ", descPadding),
			m.Description,
			strings.Repeat(" ", maxWidth-descPadding-len(m.Description)))
	}

	fmt.Fprintf(w, "  ╠%s╣\n", strings.Repeat("═", maxWidth))

	// Items
	for _, item := range m.Items {
		icon := item.Icon
		if icon != "" {
			icon = icon + " "
		}

		valueStr := fmt.Sprintf("%v", item.Value)
		if item.Emphasis {
			valueStr = fmt.Sprintf("\033[1;36m%s\033[0m", valueStr)
		}

		labelPart := fmt.Sprintf("%s%s:", icon, item.Label)
		displayLen := len(icon) + len(item.Label) + 1 + len(fmt.Sprintf("%v", item.Value))
		padding := maxWidth - displayLen - 4
		if padding < 1 {
			padding = 1
		}

		fmt.Fprintf(w, "  ║  %s%s%s  ║\n", labelPart, strings.Repeat(" ", padding), valueStr)
	}

	fmt.Fprintf(w, "  ╚%s╝\n", strings.Repeat("═", maxWidth))
	fmt.Fprintln(w)
}

// printSimple displays the manifest as simple key-value pairs
func (m *Manifest) printSimple() {
	w := m.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  \033[1m%s\033[0m\n", m.Title)
	if m.Description != "" {
		fmt.Fprintf(w, "  \033[2m%s\033[0m\n", m.Description)
	}
	fmt.Fprintln(w)

	for _, item := range m.Items {
		icon := item.Icon
		if icon != "" {
			icon = icon + " "
		}

		valueStr := fmt.Sprintf("%v", item.Value)
		if item.Emphasis {
			valueStr = fmt.Sprintf("\033[1;36m%s\033[0m", valueStr)
		}

		fmt.Fprintf(w, "    %s%s: %s\n", icon, item.Label, valueStr)
	}
	fmt.Fprintln(w)
}

// === Pre-built Manifest Templates ===

// CompareManifest creates a manifest for a comparison run
func CompareManifest(sourceKind, sourceDetail string, ids []int, exports []string) *Manifest {
	m := NewManifest("COMPARISON MANIFEST")
	m.SetDescription("Report selection and run configuration")
	m.AddSource(sourceKind, sourceDetail)
	m.AddSelection(ids)
	m.AddExports(exports)
	return m
}

// RankManifest creates a manifest for a ranking run
func RankManifest(sourceKind, sourceDetail, filterExpr string, exports []string) *Manifest {
	m := NewManifest("RANKING MANIFEST")
	m.SetDescription("Score and rank reports from the source")
	m.AddSource(sourceKind, sourceDetail)
	m.AddFilter(filterExpr)
	m.AddExports(exports)
	return m
}
