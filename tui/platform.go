package tui

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"lautenbacher.net/gyrolog/config"
	"lautenbacher.net/gyrolog/gyro"
	"lautenbacher.net/gyrolog/hardware"
)

const (
	barWidth     = 30
	fullScale    = 500_000 // mdps at ±500 dps
	logLines     = 500
	kickRaw      = 12_000
	kickDuration = 20
)

// TUIPlatform runs against a simulated gyroscope and shows the console in a
// terminal window.
type TUIPlatform struct {
	app          *tview.Application
	sampleView   *tview.TextView
	logView      *tview.TextView
	sim          *hardware.SimulatedGyro
	history      *history
	port         *hardware.Port
	osSignalChan chan os.Signal
	config       *config.Config
}

func NewPlatform(osSignalChan chan os.Signal, conf *config.Config) *TUIPlatform {
	sim := hardware.NewSimulatedGyro(byte(conf.Hardware.Simulation.DeviceID), conf.Hardware.Simulation.Seed)
	p := &TUIPlatform{
		sim:          sim,
		port:         hardware.NewPort(sim),
		history:      newHistory(),
		osSignalChan: osSignalChan,
		config:       conf,
	}
	p.initSimulationTUI()
	return p
}

func (p *TUIPlatform) Start() error {
	go func() {
		if err := p.app.Run(); err != nil {
			slog.Error("Error running TUI", "error", err)
			p.signal(os.Interrupt)
		}
	}()
	return nil
}

func (p *TUIPlatform) Stop() {
	p.app.Stop()
}

func (p *TUIPlatform) Bus() gyro.Port       { return p.port }
func (p *TUIPlatform) ChipSelect() gyro.Pin { return p.sim }
func (p *TUIPlatform) Console() io.Writer   { return p.logView }

func (p *TUIPlatform) ShowSample(s gyro.Sample) {
	p.history.add(s)
	text := sampleBars(s, barWidth) + "\n" + p.history.statsText()
	p.app.QueueUpdateDraw(func() {
		p.sampleView.SetText(text)
	})
}

func (p *TUIPlatform) signal(sig os.Signal) {
	select {
	case p.osSignalChan <- sig:
	default:
	}
}

// kick queues a short rotation burst around one axis.
func (p *TUIPlatform) kick(axis int) {
	for i := 0; i < kickDuration; i++ {
		var v [3]int16
		v[axis] = int16(kickRaw * (kickDuration - i) / kickDuration)
		p.sim.Push(v[0], v[1], v[2])
	}
}

func (p *TUIPlatform) initSimulationTUI() {
	layout := tview.NewFlex()
	layout.SetDirection(tview.FlexRow)

	intro := tview.NewTextView()
	intro.SetBorder(true).SetTitle(" GYROLOG Simulation ").SetTitleColor(tcell.ColorLightBlue)
	intro.SetText(introText(p.config.Hardware.Simulation.DeviceID))
	intro.SetTextAlign(tview.AlignCenter)
	intro.SetDynamicColors(true)
	intro.SetBackgroundColor(tcell.ColorDarkSlateGray)

	samples := tview.NewTextView()
	samples.SetBorder(true).SetTitle(" Angular rate ")
	samples.SetDynamicColors(true)
	samples.SetBackgroundColor(tcell.ColorDarkSlateGray)
	samples.SetText(sampleBars(gyro.Sample{}, barWidth))

	// Log lines contain [target]; keep dynamic colors and regions off so
	// they are printed verbatim.
	console := tview.NewTextView()
	console.SetBorder(true).SetTitle(" Console ")
	console.SetScrollable(true)
	console.SetMaxLines(logLines)

	layout.AddItem(intro, 5, 1, false)
	layout.AddItem(samples, 6, 1, false)
	layout.AddItem(console, 0, 1, true)

	p.app = tview.NewApplication()
	p.app.SetRoot(layout, true)
	p.app.SetInputCapture(
		func(event *tcell.EventKey) *tcell.EventKey {
			if event.Key() == tcell.KeyEscape {
				p.signal(os.Interrupt)
				return nil
			}
			switch event.Rune() {
			case 'x', 'X':
				p.kick(0)
			case 'y', 'Y':
				p.kick(1)
			case 'z', 'Z':
				p.kick(2)
			case 'q', 'Q':
				p.signal(os.Interrupt)
			case 'r', 'R':
				p.signal(syscall.SIGHUP)
			default:
				return event
			}
			return nil
		})
	console.SetChangedFunc(func() { p.app.Draw() })

	p.sampleView = samples
	p.logView = console
}

// introText explains the keys. r only re-reads the sampling interval;
// hardware settings need a new process.
func introText(deviceID int) string {
	var buf strings.Builder
	buf.WriteString("Hit [blue]x[-], [blue]y[-] or [blue]z[-] to rotate the simulated sensor\n")
	buf.WriteString("Hit [#ff0000]q[-] to exit, [#ff0000]r[-] to reload the sampling interval")
	if deviceID != gyro.DeviceID {
		buf.WriteString(fmt.Sprintf("\n[#ff0000]simulated WHO_AM_I is 0x%02X, initialisation will fail![-]", deviceID))
	}
	return buf.String()
}

// sampleBars renders one centred bar per axis, left for negative rates.
func sampleBars(s gyro.Sample, width int) string {
	var buf strings.Builder
	for i, v := range []int32{s.X, s.Y, s.Z} {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(fmt.Sprintf(" %c %9d ", 'x'+rune(i), v))
		buf.WriteString(bar(v, width))
	}
	return buf.String()
}

func bar(v int32, width int) string {
	half := width / 2
	n := int(int64(v) * int64(half) / fullScale)
	if n > half {
		n = half
	} else if n < -half {
		n = -half
	}

	left := strings.Repeat(" ", half)
	right := strings.Repeat(" ", half)
	if n < 0 {
		left = strings.Repeat(" ", half+n) + "[red]" + strings.Repeat("█", -n) + "[-]"
	} else if n > 0 {
		right = "[green]" + strings.Repeat("█", n) + "[-]" + strings.Repeat(" ", half-n)
	}
	return "[" + left + "|" + right + "]"
}
