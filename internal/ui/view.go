package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/organicai/scanner/internal/capture"
	"github.com/organicai/scanner/internal/domain"
	"github.com/organicai/scanner/internal/scan"
)

const healthDotTotal = 5

// healthDotCount maps a 1-10 score onto five dots
func healthDotCount(score float64) int {
	n := int(math.Round(score / 2))
	if n < 0 {
		return 0
	}
	if n > healthDotTotal {
		return healthDotTotal
	}
	return n
}

// healthDots renders the score as filled and empty dots without styling
func healthDots(score float64) string {
	n := healthDotCount(score)
	return strings.Repeat("●", n) + strings.Repeat("○", healthDotTotal-n)
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Organic AI Scanner"))
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")
	b.WriteString(m.renderBody())

	if m.picking {
		b.WriteString("\n\n")
		b.WriteString(m.filePath.View())
	}
	if m.notice != "" {
		b.WriteString("\n\n")
		b.WriteString(m.styles.Notice.Render(m.notice))
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Help.Render(m.helpLine()))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderTabs() string {
	tab := func(label string, active bool) string {
		if active {
			return m.styles.ActiveTab.Render(label)
		}
		return m.styles.Tab.Render(label)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		tab("Camera", m.mode == capture.ModeCamera),
		tab("Barcode", m.mode == capture.ModeBarcode),
	)
}

func (m Model) renderBody() string {
	switch m.snap.State {
	case scan.StateCaptured, scan.StateAnalyzing:
		return m.spinner.View() + " " + m.styles.Text.Render("Analyzing product...")
	case scan.StateResult:
		return m.renderProduct(m.snap.Product)
	case scan.StateFailed:
		return m.styles.DangerText.Render(m.snap.Message)
	default:
		if m.mode == capture.ModeBarcode {
			return m.styles.MutedText.Render("Point the camera at a product barcode.")
		}
		return m.styles.MutedText.Render("Press space to photograph a product label, or f to pick a file.")
	}
}

func (m Model) renderProduct(p *domain.Product) string {
	if p == nil {
		p = &domain.Product{}
	}

	var b strings.Builder
	name := p.Name
	if name == "" {
		name = "Unknown product"
	}
	b.WriteString(m.styles.Title.Render(name))
	b.WriteString("\n")
	b.WriteString(m.renderScore("Health Score", p.HealthScore))

	if len(p.Ingredients) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Heading.Render("Ingredients"))
		b.WriteString("\n")
		b.WriteString(m.styles.Text.Render(strings.Join(p.Ingredients, ", ")))
	}

	if len(p.Alternatives) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Heading.Render("Healthier Alternatives"))
		for _, alt := range p.Alternatives {
			b.WriteString("\n")
			b.WriteString(m.renderAlternative(alt))
		}
	}

	card := m.styles.Card
	if m.width > 4 {
		card = card.Width(m.width - 4)
	}
	return card.Render(b.String())
}

func (m Model) renderAlternative(alt domain.Alternative) string {
	var b strings.Builder
	b.WriteString(m.styles.Text.Bold(true).Render(alt.Name))
	b.WriteString("\n")
	b.WriteString(m.renderScore("", alt.HealthScore))
	if len(alt.Reasons) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Text.Render("Why it's better:"))
		for _, reason := range alt.Reasons {
			b.WriteString("\n")
			b.WriteString(m.styles.MutedText.Render("  • " + reason))
		}
	}
	if len(alt.Ingredients) > 0 {
		b.WriteString("\n")
		b.WriteString(m.styles.Text.Render("Ingredients: "))
		b.WriteString(m.styles.MutedText.Render(strings.Join(alt.Ingredients, ", ")))
	}
	return b.String()
}

func (m Model) renderScore(label string, score float64) string {
	n := healthDotCount(score)
	dots := m.styles.DotFilled.Render(strings.Repeat("●", n)) +
		m.styles.DotEmpty.Render(strings.Repeat("○", healthDotTotal-n))

	text := fmt.Sprintf("%s %s", dots, m.styles.MutedText.Render(fmt.Sprintf("%g/10", score)))
	if label == "" {
		return text
	}
	return m.styles.Text.Render(label+": ") + text
}

func (m Model) helpLine() string {
	switch {
	case m.picking:
		return "enter: scan file • esc: cancel"
	case m.snap.State == scan.StateResult:
		return "r: Scan Another • q: quit"
	case m.snap.State == scan.StateFailed:
		return "r: Try Again • q: quit"
	case m.snap.Busy():
		return "q: quit"
	default:
		return "c: camera • b: barcode • space: photo • f: file • q: quit"
	}
}
