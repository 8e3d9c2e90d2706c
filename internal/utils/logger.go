package utils

import (
	"log"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	log1 "github.com/charmbracelet/log"
)

// Error 配置加载前（Print 尚未初始化）使用
var Error = log.New(os.Stderr, "[ERROR] ", log.LstdFlags|log.Lshortfile)

var (
	Print    *log1.Logger
	initOnce sync.Once
)

// Init sets up the shared styled logger. Unknown levels fall back to info.
func Init(level string) {
	initOnce.Do(func() { Print = newStyled(level) })
}

// Logger returns a child logger tagged with component, e.g. "hub" or "engine".
func Logger(component string) *log1.Logger {
	Init("info")
	return Print.WithPrefix(component)
}

func newStyled(level string) *log1.Logger {
	lvl, err := log1.ParseLevel(level)
	if err != nil {
		lvl = log1.InfoLevel
	}
	l := log1.NewWithOptions(os.Stderr, log1.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           lvl,
	})

	styles := log1.DefaultStyles()
	styles.Levels[log1.DebugLevel] = lipgloss.NewStyle().
		SetString("DEBUG🃏").
		Padding(0, 1, 0, 1).
		Foreground(lipgloss.Color("#808080FF"))

	styles.Levels[log1.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO♠").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#90EE9080")).
		Foreground(lipgloss.Color("#006400FF")).Bold(true)

	styles.Levels[log1.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN♦").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#FFA500FF")).
		Foreground(lipgloss.Color("#000000FF")).Bold(true)

	styles.Levels[log1.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR🔥").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#FF0000FF")).
		Foreground(lipgloss.Color("#00FFFF00")).Bold(true)

	styles.Levels[log1.FatalLevel] = lipgloss.NewStyle().
		SetString("FATAL⚡️").
		Padding(0, 1, 0, 1).
		Background(lipgloss.Color("#000000FF")).
		Foreground(lipgloss.Color("#00FFFF00")).Bold(true)
	l.SetStyles(styles)
	return l
}
