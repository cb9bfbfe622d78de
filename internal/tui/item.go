package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"userlist/internal/domain"
)

// ItemHeight is the number of rows a rendered user occupies.
const ItemHeight = 3

// itemGap is the blank row between two users.
const itemGap = 1

const itemStride = ItemHeight + itemGap

// ItemLines renders one user as display lines: name, email and contact.
func ItemLines(u domain.User) [ItemHeight]string {
	return [ItemHeight]string{
		fullName(u.FirstName, u.LastName, "(no name)"),
		orPlaceholder(u.Email, "(no email)"),
		contactLine(u.Children),
	}
}

func contactLine(p domain.PersonName) string {
	if p.IsZero() {
		return "  contact: none"
	}
	name := fullName(p.FirstName, p.LastName, "(no name)")
	if p.Email == "" {
		return "  contact: " + name
	}
	return fmt.Sprintf("  contact: %s <%s>", name, p.Email)
}

func fullName(first, last, placeholder string) string {
	return orPlaceholder(strings.TrimSpace(first+" "+last), placeholder)
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// itemStyle returns the style of line i of a user row.
func itemStyle(line int, selected bool) tcell.Style {
	style := tcell.StyleDefault
	switch line {
	case 0:
		style = style.Bold(true)
	case 2:
		style = style.Foreground(tcell.ColorGray)
	}
	if selected {
		style = style.Reverse(true)
	}
	return style
}
