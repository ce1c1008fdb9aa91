package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/bnema/familiar-bridge/internal/application"
	"github.com/bnema/familiar-bridge/internal/domain"
)

const cycleBarWidth = 24

func renderView(overview application.Overview, s styles) string {
	lines := []string{
		s.title.Render("Familiar Bridge"),
		s.header.Render(fmt.Sprintf("familiars: %d", len(overview.Familiars))),
		watcherLine(overview.Heartbeat, overview.At, s),
		cycleLine(overview.Cycle, overview.At, s),
		settingsLine(overview.Settings, s),
	}

	if len(overview.Familiars) == 0 {
		lines = append(lines, s.section.Render(s.empty.Render("No familiars found.")))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, familiar := range overview.Familiars {
		lines = append(lines, s.section.Render(renderFamiliar(familiar, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func watcherLine(hb application.HeartbeatView, now time.Time, s styles) string {
	label := s.key.Render("watcher:")
	if hb.LastSeen == nil {
		return label + " " + s.warning.Render("offline") + " " + s.meta.Render("(never seen)")
	}

	seen := s.meta.Render(fmt.Sprintf("(seen %s)", relative(*hb.LastSeen, now)))
	if hb.Active {
		return label + " " + s.online.Render("online") + " " + seen
	}
	return label + " " + s.warning.Render("offline") + " " + seen
}

func cycleLine(cycle domain.CycleStatus, now time.Time, s styles) string {
	label := s.key.Render("cycle:")
	if cycle.Mode == "" || cycle.Mode == domain.CycleIdle {
		return label + " " + s.empty.Render("idle")
	}

	remaining := time.Duration(cycle.RemainingMS) * time.Millisecond
	meta := "done"
	if remaining > 0 {
		meta = humanize.RelTime(now, now.Add(remaining), "left", "")
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		label,
		" ",
		s.detail.Render(modeLabel(cycle.Mode)),
		" ",
		renderProgressBar(remainingPercent(cycle), cycleBarWidth, s),
		" ",
		s.meta.Render(meta),
	)
}

func settingsLine(settings application.SettingsView, s styles) string {
	parts := []string{s.key.Render("nsfw:")}
	switch {
	case !settings.NSFWEnabled && !settings.DevNSFWOverride:
		parts = append(parts, s.detail.Render("off"))
	case settings.NSFWAllowedNow:
		parts = append(parts, s.detail.Render("on (allowed now)"))
	default:
		parts = append(parts, s.detail.Render("on (quiet hours)"))
	}
	if settings.DevNSFWOverride {
		parts = append(parts, s.warning.Render("[dev override]"))
	}

	meta := fmt.Sprintf("cap %d/day", settings.DailyNSFWCap)
	if settings.QuietHours.Start != "" && settings.QuietHours.End != "" {
		meta += fmt.Sprintf(", quiet %s-%s", settings.QuietHours.Start, settings.QuietHours.End)
	}
	parts = append(parts, s.meta.Render(meta))

	return strings.Join(parts, " ")
}

func renderFamiliar(familiar application.FamiliarStatus, s styles) string {
	parts := []string{
		s.familiar.Render(familiarTitle(familiar.Name, familiar.ID)),
		s.key.Render("hearts:") + " " + renderHearts(familiar.State.Hearts, s) + " " +
			s.meta.Render(fmt.Sprintf("%.1f/%d", familiar.State.Hearts, int(domain.MaxHearts))),
		s.detail.Render(fmt.Sprintf("pose: %s  location: %s", orNone(familiar.State.Avatar), orNone(familiar.State.Location))),
	}

	if familiar.State.Activity != "" {
		parts = append(parts, s.detail.Render("activity: "+familiar.State.Activity))
	}

	usage := familiar.Usage
	parts = append(parts, s.meta.Render(fmt.Sprintf(
		"today: %s, %s, %s",
		english.Plural(usage.PomoBlocks, "focus block", ""),
		english.Plural(usage.CameoCountToday, "cameo", ""),
		english.Plural(usage.MomentCountToday, "moment", ""),
	)))

	if familiar.Away {
		parts = append(parts, s.warning.Render("[away on a journey]"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func familiarTitle(name string, id domain.FamiliarID) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == string(id) {
		return string(id)
	}
	return fmt.Sprintf("%s (%s)", trimmed, id)
}

func renderHearts(hearts float64, s styles) string {
	total := int(domain.MaxHearts)
	full := int(math.Round(hearts))
	if full < 0 {
		full = 0
	}
	if full > total {
		full = total
	}

	return s.barBracket.Render("[") +
		s.heartFull.Render(strings.Repeat("♥", full)) +
		s.heartEmpty.Render(strings.Repeat("♡", total-full)) +
		s.barBracket.Render("]")
}

func renderProgressBar(leftPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	filled := int(math.Round(float64(width) * clampPercent(leftPercent) / 100.0))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		s.barFill.Render(strings.Repeat("=", filled)),
		s.barEmpty.Render(strings.Repeat("-", width-filled)),
		s.barBracket.Render("]"),
	)
}

func remainingPercent(cycle domain.CycleStatus) float64 {
	if cycle.LengthMS <= 0 {
		return 0
	}
	return float64(cycle.RemainingMS) / float64(cycle.LengthMS) * 100
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func relative(then, now time.Time) string {
	if now.IsZero() {
		return then.Format(time.RFC3339)
	}
	return humanize.RelTime(then, now, "ago", "from now")
}

func modeLabel(mode domain.CycleMode) string {
	switch mode {
	case domain.CycleFocus:
		return "focus"
	case domain.CycleBreak:
		return "break"
	case domain.CycleLongBreak:
		return "long break"
	default:
		return string(mode)
	}
}

func orNone(v string) string {
	if v == "" {
		return "none"
	}
	return v
}
