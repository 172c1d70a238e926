package console

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"

	ncerr "tcpchat/internal/errors"
	"tcpchat/util"
)

// Dispatcher is the single reader of the console in dispatch mode.  It
// routes each operator line to the mailbox of the selected session, so
// sessions never race for console input.
//
// Lines starting with ':' are commands:
//
//	:list       show attached sessions, '*' marks the selected one
//	:use <id>   select the session that receives plain lines
//	:help       show this list
//
// A line starting with "::" is sent with one leading ':' removed.
type Dispatcher struct {
	input  LineReader
	sink   *Sink
	logger *util.Logger
	prompt bool

	mu       sync.Mutex
	targets  map[uint64]*target
	selected uint64
	ended    bool // console input is over
}

type target struct {
	remote string
	box    *Mailbox
}

// NewDispatcher returns a Dispatcher reading operator lines from input.
// When prompt is true it prints a banner and a "> " prompt.
func NewDispatcher(input LineReader, sink *Sink, logger *util.Logger, prompt bool) *Dispatcher {
	return &Dispatcher{
		input:   input,
		sink:    sink,
		logger:  logger.With("console"),
		prompt:  prompt,
		targets: make(map[uint64]*target),
	}
}

// Attach registers a session and returns the mailbox its outbound
// relay should read.  The first session attached while nothing is
// selected becomes the selection.  Once the console has ended the
// returned mailbox is already closed.
func (d *Dispatcher) Attach(id uint64, remote string) *Mailbox {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.ended {
		box := NewMailbox()
		box.Close()
		return box
	}
	if t, ok := d.targets[id]; ok {
		return t.box
	}
	t := &target{remote: remote, box: NewMailbox()}
	d.targets[id] = t
	if d.selected == 0 {
		d.selected = id
		d.logger.Info("session %d (%s) selected", id, remote)
	}
	return t.box
}

// Detach closes the session's mailbox and forgets it.  If it was
// selected, nothing is selected afterwards.  Sessions detach when their
// outbound relay ends, whether or not the connection is still up.
func (d *Dispatcher) Detach(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.targets[id]
	if !ok {
		return
	}
	t.box.Close()
	delete(d.targets, id)
	if d.selected == id {
		d.selected = 0
		d.logger.Info("session %d (%s) stopped reading; no session selected", id, t.remote)
	}
}

// Selected returns the selected session id, or 0.
func (d *Dispatcher) Selected() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selected
}

// Run reads the console until it ends or ctx is done.  When the console
// ends every attached mailbox is closed, which stops their relays.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.prompt {
		d.sink.Printf("type :help for commands")
	}
	for {
		if d.prompt {
			d.sink.Prompt()
		}
		line, err := d.input.ReadLine(ctx)
		if err != nil {
			d.closeAll()
			if util.IsClosed(err) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		d.dispatch(line)
	}
}

func (d *Dispatcher) dispatch(line string) {
	switch {
	case strings.HasPrefix(line, "::"):
		d.send(line[1:])
	case strings.HasPrefix(line, ":"):
		d.command(strings.Fields(line[1:]))
	default:
		d.send(line)
	}
}

func (d *Dispatcher) send(line string) {
	d.mu.Lock()
	id := d.selected
	t, ok := d.targets[id]
	d.mu.Unlock()

	if !ok {
		d.logger.Warn("%v, line dropped (use :list and :use <id>)", ncerr.ErrNoTarget)
		return
	}
	if !t.box.Put(line) {
		d.logger.Warn("session %d: %v, line dropped", id, ncerr.ErrSessionClosed)
		d.forget(id, t)
	}
}

// forget drops t if it is still registered under id.
func (d *Dispatcher) forget(id uint64, t *target) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.targets[id] != t {
		return
	}
	delete(d.targets, id)
	if d.selected == id {
		d.selected = 0
	}
}

func (d *Dispatcher) command(args []string) {
	if len(args) == 0 {
		d.help()
		return
	}
	switch args[0] {
	case "list", "ls":
		d.list()
	case "use":
		if len(args) != 2 {
			d.logger.Warn("usage: :use <id>")
			return
		}
		id, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			d.logger.Warn("invalid session id %q", args[1])
			return
		}
		d.use(id)
	case "help", "?":
		d.help()
	default:
		d.logger.Warn("unknown command %q (try :help)", args[0])
	}
}

func (d *Dispatcher) use(id uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.targets[id]
	if !ok {
		d.logger.Warn("no session %d", id)
		return
	}
	d.selected = id
	d.logger.Info("session %d (%s) selected", id, t.remote)
}

func (d *Dispatcher) list() {
	d.mu.Lock()
	ids := make([]uint64, 0, len(d.targets))
	for id := range d.targets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		mark := " "
		if id == d.selected {
			mark = "*"
		}
		lines = append(lines, mark+" "+strconv.FormatUint(id, 10)+"  "+d.targets[id].remote)
	}
	d.mu.Unlock()

	if len(lines) == 0 {
		d.sink.Printf("no sessions")
		return
	}
	for _, l := range lines {
		d.sink.Printf("%s", l)
	}
}

func (d *Dispatcher) help() {
	d.sink.Printf(":list       show sessions (* = selected)")
	d.sink.Printf(":use <id>   send plain lines to session <id>")
	d.sink.Printf("::text      send a line starting with ':'")
}

func (d *Dispatcher) closeAll() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ended = true
	for _, t := range d.targets {
		t.box.Close()
	}
}
