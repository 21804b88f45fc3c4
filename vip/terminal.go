package vip

import (
	"fmt"
	"image"
	"io"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"golang.org/x/image/draw"

	"github.com/nf/c8/chip8"
)

// Terminal is a Frontend that draws the display in a terminal and reads
// keypad input from the keyboard.
type Terminal struct {
	Title   string
	KeyHold time.Duration

	app    *tview.Application
	screen tcell.Screen
	view   *screenView
	status *tview.TextView
	log    *tview.TextView
}

// NewTerminal returns a terminal frontend. If showLog is set a log pane
// is shown below the display; see LogWriter.
func NewTerminal(title string, showLog bool) (*Terminal, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	t := &Terminal{
		Title:   title,
		KeyHold: DefaultKeyHold,
		app:     tview.NewApplication().SetScreen(s),
		screen:  s,
		view:    &screenView{Box: tview.NewBox()},
		status: tview.NewTextView().
			SetWrap(false),
	}
	t.status.SetBackgroundColor(tcell.ColorDarkGrey)
	t.status.SetTextColor(tcell.ColorBlack)

	rows := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(t.view, 0, 3, false).
		AddItem(t.status, 1, 0, false)
	if showLog {
		t.log = tview.NewTextView().
			SetMaxLines(1000)
		t.log.SetChangedFunc(func() { t.app.Draw() })
		rows.AddItem(t.log, 0, 1, false)
	}
	t.app.SetRoot(rows, true)
	return t, nil
}

// LogWriter returns the log pane, or nil if the terminal has none.
func (t *Terminal) LogWriter() io.Writer {
	if t.log == nil {
		return nil
	}
	return t.log
}

func (t *Terminal) Run(r *Runner, exit <-chan bool) error {
	t.view.r = r
	held := &keyHolder{keys: r.Keys(), hold: t.KeyHold}

	t.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			t.app.Stop()
			return nil
		case tcell.KeyRune:
			if k, ok := KeyFor(ev.Rune()); ok {
				held.Press(k, time.Now())
				return nil
			}
		}
		return ev
	})

	done := make(chan bool)
	defer close(done)
	go func() {
		tk := time.NewTicker(time.Second / chip8.TimerHz)
		defer tk.Stop()
		beeping := false
		for {
			select {
			case <-exit:
				// Queued so that a halt before the event loop starts still
				// stops it.
				t.app.QueueUpdate(t.app.Stop)
				return
			case <-done:
				return
			case now := <-tk.C:
				t.app.QueueUpdateDraw(func() {
					held.Expire(now)
					on := r.Machine().Timers.SoundOn()
					if on && !beeping {
						t.screen.Beep()
					}
					beeping = on
					t.status.SetText(fmt.Sprintf(" %s  [%s]  %d ips  esc quits",
						t.Title, r.Status(), r.Speed()))
				})
			}
		}
	}()

	return t.app.Run()
}

// screenView is a tview primitive that draws the CHIP-8 display using
// half-block glyphs, two pixels per terminal cell.
type screenView struct {
	*tview.Box
	r *Runner
}

func (v *screenView) Draw(s tcell.Screen) {
	v.Box.DrawForSubclass(s, v)
	if v.r == nil {
		return
	}
	x, y, w, h := v.GetInnerRect()
	f, _ := v.r.Machine().Screen.Snapshot()
	m := scaleFrame(&f, w, h*2)
	if m == nil {
		return
	}
	b := m.Bounds()
	x += (w - b.Dx()) / 2
	y += (h - b.Dy()/2) / 2
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	for row := 0; row < b.Dy(); row += 2 {
		for col := 0; col < b.Dx(); col++ {
			top := m.ColorIndexAt(col, row) != 0
			bottom := row+1 < b.Dy() && m.ColorIndexAt(col, row+1) != 0
			s.SetContent(x+col, y+row/2, halfBlock(top, bottom), nil, style)
		}
	}
}

func halfBlock(top, bottom bool) rune {
	switch {
	case top && bottom:
		return '█'
	case top:
		return '▀'
	case bottom:
		return '▄'
	}
	return ' '
}

// scaleFrame scales f to the largest size that fits in w×h pixels while
// keeping its aspect ratio. It returns nil if nothing fits.
func scaleFrame(f *chip8.Frame, w, h int) *image.Paletted {
	scale := float64(w) / chip8.Width
	if s := float64(h) / chip8.Height; s < scale {
		scale = s
	}
	dw, dh := int(scale*chip8.Width), int(scale*chip8.Height)
	if dw <= 0 || dh <= 0 {
		return nil
	}
	src := f.Image()
	dst := image.NewPaletted(image.Rect(0, 0, dw, dh), chip8.Palette)
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
