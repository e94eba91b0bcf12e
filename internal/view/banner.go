package view

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/nissyi-gh/pls/internal/config"
	"github.com/nissyi-gh/pls/internal/model"
)

// Quote is a short saying shown under the greeting.
type Quote struct {
	Text   string
	Author string
}

var quotes = []Quote{
	{"The secret of getting ahead is getting started.", "Mark Twain"},
	{"Well begun is half done.", "Aristotle"},
	{"It always seems impossible until it's done.", "Nelson Mandela"},
	{"Action is the foundational key to all success.", "Pablo Picasso"},
	{"Simplicity is prerequisite for reliability.", "Edsger W. Dijkstra"},
	{"Nothing will work unless you do.", "Maya Angelou"},
	{"Done is better than perfect.", "Sheryl Sandberg"},
}

// QuoteOfDay picks a quote that stays the same for a whole day.
func QuoteOfDay(now time.Time) Quote {
	return quotes[now.YearDay()%len(quotes)]
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Greeting renders the header line, e.g. "Hello sam! It's 17 Oct | 09:30 AM".
func Greeting(user string, now time.Time, style config.Style) string {
	if user == "" {
		user = "there"
	}
	text := fmt.Sprintf("Hello %s! It's %s", user, now.Format("02 Jan | 03:04 PM"))
	return fg(style.HeaderGreeting).Bold(true).Render(text)
}

// PendingMessage summarizes how many tasks are still open.
func PendingMessage(tasks []model.Task, style config.Style) string {
	pending := 0
	for _, t := range tasks {
		if !t.Completed {
			pending++
		}
	}
	var text string
	switch pending {
	case 0:
		text = "Looking good, no pending tasks"
	case 1:
		text = "You have 1 pending task"
	default:
		text = fmt.Sprintf("You have %d pending tasks", pending)
	}
	return fg(style.PendingMessage).Render(text)
}

// RenderQuote renders q as a quoted line followed by its author.
func RenderQuote(q Quote, style config.Style) string {
	return fg(style.Quote).Italic(true).Render(fmt.Sprintf("%q", q.Text)) +
		"\n" + fg(style.Author).Render("- "+q.Author)
}

// Banner stacks the greeting and quote, centered in width columns.
func Banner(user string, now time.Time, style config.Style, width int) string {
	block := lipgloss.JoinVertical(lipgloss.Center,
		Greeting(user, now, style),
		"",
		RenderQuote(QuoteOfDay(now), style),
	)
	if width <= 0 {
		return block
	}
	return Center(block, width)
}
