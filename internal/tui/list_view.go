package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"userlist/internal/domain"
	"userlist/internal/services"
)

// ItemSource is the ordered, growing list a ListView displays.
type ItemSource interface {
	Len() int
	At(i int) (domain.User, bool)
}

// wheelStep is the number of rows a mouse wheel notch scrolls.
const wheelStep = 3

// ListView is a virtualized vertical list of users. Only the rows inside the
// viewport are rendered. Scroll positions are measured in rows.
type ListView struct {
	*tview.Box

	source ItemSource

	scrollTop  int
	cursor     int
	selectedID string

	scrolled    func(services.ScrollMetrics)
	scrollEvent bool
	metrics     services.ScrollMetrics
	lastLen     int
}

// NewListView returns a list view over source.
func NewListView(source ItemSource) *ListView {
	return &ListView{
		Box:    tview.NewBox(),
		source: source,
		cursor: -1,
	}
}

// SetScrollFunc sets the handler that receives the viewport metrics after a
// scroll event or whenever the metrics change.
func (v *ListView) SetScrollFunc(handler func(services.ScrollMetrics)) *ListView {
	v.scrolled = handler
	return v
}

// Cursor returns the selected index, or -1.
func (v *ListView) Cursor() int {
	return v.cursor
}

// Selected returns the selected user.
func (v *ListView) Selected() (domain.User, bool) {
	if v.cursor < 0 {
		return domain.User{}, false
	}
	return v.source.At(v.cursor)
}

// ScrollTop returns the index of the first visible row.
func (v *ListView) ScrollTop() int {
	return v.scrollTop
}

func contentHeight(n int) int {
	if n <= 0 {
		return 0
	}
	return n*itemStride - itemGap
}

func (v *ListView) maxScrollTop(height int) int {
	return max(0, contentHeight(v.source.Len())-height)
}

func (v *ListView) setCursor(index int) {
	v.cursor = index
	v.selectedID = ""
	if u, ok := v.source.At(index); ok {
		v.selectedID = u.ID
	}
}

// moveCursor moves the selection by delta items and keeps it in view.
func (v *ListView) moveCursor(delta int) {
	n := v.source.Len()
	if n == 0 {
		return
	}
	v.setCursor(min(max(v.cursor+delta, 0), n-1))
	v.ensureCursorVisible()
}

func (v *ListView) ensureCursorVisible() {
	if v.cursor < 0 {
		return
	}
	_, _, _, height := v.GetInnerRect()
	top := v.cursor * itemStride
	bottom := top + ItemHeight
	if top < v.scrollTop {
		v.scrollTop = top
	}
	if bottom > v.scrollTop+height {
		v.scrollTop = bottom - height
	}
}

func (v *ListView) scrollBy(rows int) {
	_, _, _, height := v.GetInnerRect()
	v.scrollTop = min(max(v.scrollTop+rows, 0), v.maxScrollTop(height))
}

// followSelection re-resolves the cursor by user id after the data changed.
func (v *ListView) followSelection(n int) {
	if v.cursor < 0 || v.selectedID == "" {
		return
	}
	if u, ok := v.source.At(v.cursor); ok && u.ID == v.selectedID {
		return
	}
	for i := 0; i < n; i++ {
		if u, ok := v.source.At(i); ok && u.ID == v.selectedID {
			v.cursor = i
			return
		}
	}
	v.setCursor(min(v.cursor, n-1))
}

// Draw draws this primitive onto the screen.
func (v *ListView) Draw(screen tcell.Screen) {
	v.DrawForSubclass(screen, v)

	x, y, width, height := v.GetInnerRect()
	n := v.source.Len()
	if n != v.lastLen {
		v.followSelection(n)
	}
	v.scrollTop = min(max(v.scrollTop, 0), v.maxScrollTop(height))

	if width > 0 && height > 0 {
		if n == 0 {
			printLine(screen, x, y, width, "No users", tcell.StyleDefault.Foreground(tcell.ColorGray))
		}
		for i := v.scrollTop / itemStride; i < n; i++ {
			row := i*itemStride - v.scrollTop
			if row >= height {
				break
			}
			u, ok := v.source.At(i)
			if !ok {
				break
			}
			for line, text := range ItemLines(u) {
				r := row + line
				if r < 0 || r >= height {
					continue
				}
				printLine(screen, x, y+r, width, text, itemStyle(line, i == v.cursor))
			}
		}
	}

	m := services.ScrollMetrics{
		ScrollTop:    float64(v.scrollTop),
		ClientHeight: float64(height),
		ScrollHeight: float64(contentHeight(n)),
	}
	report := v.scrollEvent || m != v.metrics || n != v.lastLen
	v.metrics = m
	v.lastLen = n
	v.scrollEvent = false
	if report && height > 0 && v.scrolled != nil {
		v.scrolled(m)
	}
}

// InputHandler returns the handler for this primitive.
func (v *ListView) InputHandler() func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
	return v.WrapInputHandler(func(event *tcell.EventKey, setFocus func(p tview.Primitive)) {
		_, _, _, height := v.GetInnerRect()
		page := max(1, height/itemStride)
		switch event.Key() {
		case tcell.KeyDown:
			v.moveCursor(1)
		case tcell.KeyUp:
			v.moveCursor(-1)
		case tcell.KeyPgDn:
			v.moveCursor(page)
		case tcell.KeyPgUp:
			v.moveCursor(-page)
		case tcell.KeyHome:
			v.moveCursor(-v.source.Len())
		case tcell.KeyEnd:
			v.moveCursor(v.source.Len())
		case tcell.KeyRune:
			switch event.Rune() {
			case 'j':
				v.moveCursor(1)
			case 'k':
				v.moveCursor(-1)
			case 'g':
				v.moveCursor(-v.source.Len())
			case 'G':
				v.moveCursor(v.source.Len())
			default:
				return
			}
		default:
			return
		}
		v.scrollEvent = true
	})
}

// MouseHandler returns the mouse handler for this primitive.
func (v *ListView) MouseHandler() func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
	return v.WrapMouseHandler(func(action tview.MouseAction, event *tcell.EventMouse, setFocus func(p tview.Primitive)) (consumed bool, capture tview.Primitive) {
		x, y := event.Position()
		if !v.InRect(x, y) {
			return false, nil
		}

		switch action {
		case tview.MouseLeftClick:
			setFocus(v)
			if index := v.indexAtPoint(y); index >= 0 {
				v.setCursor(index)
			}
			return true, nil
		case tview.MouseScrollUp:
			v.scrollBy(-wheelStep)
			v.scrollEvent = true
			return true, nil
		case tview.MouseScrollDown:
			v.scrollBy(wheelStep)
			v.scrollEvent = true
			return true, nil
		}
		return false, nil
	})
}

// indexAtPoint returns the item under screen row y, or -1 for a gap row.
func (v *ListView) indexAtPoint(y int) int {
	_, top, _, _ := v.GetInnerRect()
	row := y - top + v.scrollTop
	if row < 0 || row%itemStride >= ItemHeight {
		return -1
	}
	index := row / itemStride
	if index >= v.source.Len() {
		return -1
	}
	return index
}
