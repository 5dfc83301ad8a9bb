package arbor

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Verbosity dictates which log levels a Logger lets through.
type Verbosity uint8

const (
	VerbosityAll        Verbosity = iota // everything, including debug chatter
	VerbosityNoDebug                     // info and up
	VerbosityOnlyIssues                  // warnings and panics
	VerbosityOnlyPanics                  // panics only
)

// LogLevel classifies a posted message.
type LogLevel uint8

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelPanic
)

// String returns the level tag used in log lines.
func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelPanic:
		return "PANIC!"
	default:
		return fmt.Sprintf("LogLevel(%d)", uint8(l))
	}
}

const (
	ansiReset  = "\x1b[0m"
	ansiGrey   = "\x1b[30m"
	ansiWhite  = "\x1b[37m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
)

func (l LogLevel) ansi() string {
	switch l {
	case LevelDebug:
		return ansiGrey
	case LevelInfo:
		return ansiWhite
	case LevelWarn:
		return ansiYellow
	default:
		return ansiRed
	}
}

// Logger is a tree's diagnostic sink. Messages are attributed to the
// posting node's singleton name or bracketed tree path, filtered by
// verbosity, written to the output writer, and retained in an uncolored
// in-memory log. A Panic-level post additionally prints a crash report
// framing a tree snapshot around the failing node.
type Logger struct {
	verbosity   Verbosity
	out         io.Writer
	color       bool
	retained    strings.Builder
	crashHeader string
	crashFooter string
}

// NewLogger creates a logger writing colored output to stderr.
func NewLogger(verbosity Verbosity) *Logger {
	l := &Logger{
		verbosity: verbosity,
		out:       os.Stderr,
		color:     true,
		crashHeader: "Unfortunately the program has crashed. Please contact the development team " +
			"with the following crash report as well as the attachment of the log posted during " +
			"the time of the crash.",
		crashFooter: "Goodbye World! (Program Exited)",
	}
	l.Post("SysLogger", LevelDebug, "System logger has initialized. Hello World!")
	return l
}

// SetOutput redirects the logger. Tests pass a buffer here.
func (l *Logger) SetOutput(w io.Writer) { l.out = w }

// SetColor toggles ANSI color codes on the output writer. The retained
// log is always uncolored.
func (l *Logger) SetColor(enabled bool) { l.color = enabled }

// SetCrashHeader replaces the message printed above crash reports.
func (l *Logger) SetCrashHeader(msg string) { l.crashHeader = msg }

// SetCrashFooter replaces the message printed below crash reports.
func (l *Logger) SetCrashFooter(msg string) { l.crashFooter = msg }

// String returns the retained, uncolored log.
func (l *Logger) String() string { return l.retained.String() }

// allows reports whether the verbosity passes the level through.
func (l *Logger) allows(level LogLevel) bool {
	switch l.verbosity {
	case VerbosityNoDebug:
		return level != LevelDebug
	case VerbosityOnlyIssues:
		return level == LevelWarn || level == LevelPanic
	case VerbosityOnlyPanics:
		return level == LevelPanic
	default:
		return true
	}
}

// Post writes one log line attributed to the named system, bypassing any
// tree. Returns the timestamp of the message whether or not it passed the
// verbosity filter.
func (l *Logger) Post(system string, level LogLevel, msg string) string {
	stamp := time.Now().UTC().Format("02/01/2006 15:04:05")
	if !l.allows(level) {
		return stamp
	}
	line := fmt.Sprintf("<%s UTC> | %s | %s | %s", stamp, system, level, msg)
	if l.color {
		_, _ = fmt.Fprintf(l.out, "%s%s%s\n", level.ansi(), line, ansiReset)
	} else {
		_, _ = fmt.Fprintln(l.out, line)
	}
	l.retained.WriteString(line)
	l.retained.WriteByte('\n')
	return stamp
}

// --- Node-attributed logging ---

// fallbackLogger serves log calls on detached nodes.
var fallbackLogger = &Logger{verbosity: VerbosityAll, out: os.Stderr}

// log routes a node-attributed message through the owning tree's logger,
// or the package fallback while detached.
func (n *NodeBase) log(level LogLevel, msg string) {
	if n.tree == nil {
		fallbackLogger.Post(n.name, level, msg)
		if level == LevelPanic {
			panic("arbor: " + msg)
		}
		return
	}
	n.tree.postLog(n.rid, level, msg)
}

// LogDebug posts a Debug-level message attributed to this node.
func (n *NodeBase) LogDebug(msg string) { n.log(LevelDebug, msg) }

// LogInfo posts an Info-level message attributed to this node.
func (n *NodeBase) LogInfo(msg string) { n.log(LevelInfo, msg) }

// LogWarn posts a Warn-level message attributed to this node and marks it
// Warned for the rest of the frame.
func (n *NodeBase) LogWarn(msg string) {
	n.status = StatusWarned
	n.statusMsg = msg
	n.log(LevelWarn, msg)
}

// LogPanic posts a Panic-level message attributed to this node, prints a
// crash report with a tree snapshot around it, terminates the tree, and
// panics. It never returns.
func (n *NodeBase) LogPanic(msg string) {
	if n.tree == nil {
		fallbackLogger.Post(n.name, LevelPanic, msg)
		panic("arbor: " + msg)
	}
	n.tree.crash(n.rid, msg)
}

// systemFor formats the attribution for a node handle: the singleton name
// when one is registered, the bracketed tree path while the node is live,
// or the bare handle once it is gone.
func (t *NodeTree) systemFor(origin RID) string {
	if name := t.singletonName(origin); name != "" {
		return name
	}
	if n, ok := t.arena.Get(origin); ok {
		return "[" + n.Base().Path() + "]"
	}
	return "[node " + origin.String() + "]"
}

// postLog writes a node-attributed line; Panic level goes on to print the
// crash report, terminate the tree, and panic.
func (t *NodeTree) postLog(origin RID, level LogLevel, msg string) {
	stamp := t.logger.Post(t.systemFor(origin), level, msg)
	if level != LevelPanic {
		return
	}

	snapshot := t.DrawTree(origin, 6, 6)
	plain := fmt.Sprintf("\n%s\n\n%s\n\nTime of Crash: %s\nExit Code: 1\n\n%s\n",
		t.logger.crashHeader, snapshot, stamp, t.logger.crashFooter)
	if t.logger.color {
		_, _ = fmt.Fprintf(t.logger.out, "\n%s%s%s\n\n%s\n%s\nTime of Crash: %s\nExit Code: 1\n\n%s%s\n",
			ansiRed, t.logger.crashHeader, ansiReset, snapshot,
			ansiRed, stamp, t.logger.crashFooter, ansiReset)
	} else {
		_, _ = fmt.Fprint(t.logger.out, plain)
	}
	t.logger.retained.WriteString(plain)

	t.setStatus(TreeTerminated)
	panic("arbor: " + msg)
}

// crash marks the origin node Panicked and routes the message through the
// Panic path: report, termination, panic.
func (t *NodeTree) crash(origin RID, msg string) {
	if n, ok := t.arena.Get(origin); ok {
		n.Base().status = StatusPanicked
		n.Base().statusMsg = msg
	}
	t.postLog(origin, LevelPanic, msg)
}

// --- Tree snapshot ---

const (
	branchPipe  = "│   " // prefix: more siblings follow below
	branchTee   = "├── " // connector: sibling entry
	branchSpace = "    " // prefix: last sibling's subtree
	branchElbow = "└── " // connector: last sibling entry
)

// DrawTree renders a box-drawing snapshot of the tree around the node
// under origin: viewUp ancestor levels and viewDown descendant levels,
// names clipped to "..." beyond the window, nodes colored by their
// per-frame status, and same-frame warnings and panics collected into
// report sections. This is what crash reports embed.
func (t *NodeTree) DrawTree(origin RID, viewUp, viewDown int) string {
	node, ok := t.arena.Get(origin)
	if !ok {
		return "[REPORT START]\n(node " + origin.String() + " is gone)\n\n[REPORT END]"
	}

	start := node.Base()
	for climb := viewUp; climb > 0 && start.parent != NilRID; climb-- {
		parent, live := t.arena.Get(start.parent)
		if !live {
			break
		}
		start = parent.Base()
	}

	var (
		out      strings.Builder
		warnings []string
		panics   []string
	)
	label := start.name
	switch start.status {
	case StatusWarned:
		label = t.colorize(ansiYellow, label)
		warnings = append(warnings, start.name+" - "+start.statusMsg)
	case StatusPanicked:
		label = t.colorize(ansiRed, label)
		panics = append(panics, start.name+" - "+start.statusMsg)
	}
	out.WriteString("[REPORT START]\n")
	out.WriteString(label)
	out.WriteByte('\n')

	// One extra level so the outermost drawn layer shows "..." in place
	// of names rather than vanishing.
	t.drawWalk(&out, start, "", viewUp+viewDown+1, &warnings, &panics)

	out.WriteString("\n[Same-Frame Warnings]")
	if len(warnings) == 0 {
		out.WriteString("\nNone")
	}
	for _, w := range warnings {
		out.WriteByte('\n')
		out.WriteString(t.colorize(ansiYellow, w))
	}

	out.WriteString("\n\n[Same-Frame Panics]")
	if len(panics) == 0 {
		out.WriteString("\nNone")
	}
	for _, p := range panics {
		out.WriteByte('\n')
		out.WriteString(t.colorize(ansiRed, p))
	}

	out.WriteString("\n\n[REPORT END]")
	return out.String()
}

func (t *NodeTree) drawWalk(out *strings.Builder, n *NodeBase, prefix string, level int, warnings, panics *[]string) {
	remaining := len(n.children)
	for _, rid := range n.children {
		remaining--
		child, ok := t.arena.Get(rid)
		if !ok {
			continue
		}
		cb := child.Base()

		connector := branchTee
		if remaining == 0 {
			connector = branchElbow
		}

		label := cb.name
		switch cb.status {
		case StatusWarned:
			label = t.colorize(ansiYellow, label)
			*warnings = append(*warnings, cb.name+" - "+cb.statusMsg)
		case StatusPanicked:
			label = t.colorize(ansiRed, label)
			*panics = append(*panics, cb.name+" - "+cb.statusMsg)
		}
		if level == 0 {
			label = "..."
		}

		out.WriteString(prefix)
		out.WriteString(connector)
		out.WriteString(label)
		out.WriteByte('\n')

		if len(cb.children) > 0 && level != 0 {
			deeper := prefix + branchPipe
			if remaining == 0 {
				deeper = prefix + branchSpace
			}
			t.drawWalk(out, cb, deeper, level-1, warnings, panics)
		}
	}
}

func (t *NodeTree) colorize(code, s string) string {
	if !t.logger.color {
		return s
	}
	return code + s + ansiReset
}
