package delta

const (
	Ping = "PING"
	Done = "DONE"
)

type Bus interface {
	Publish(channel string, payload any) bool
	Subscribe(channel string, handler func(any)) func()
}

type Context struct {
	Bus Bus
}

// Delta discards its unsubscribe func: the PING listener outlives Stop.
type Delta struct{}

func (d *Delta) Name() string { return "delta" }

func (d *Delta) Init(ctx *Context) error {
	ctx.Bus.Subscribe(Ping, d.onPing)
	ctx.Bus.Subscribe(Done, d.onDone)
	return nil
}

func (d *Delta) Start() error   { return nil }
func (d *Delta) Stop() error    { return nil }
func (d *Delta) Destroy() error { return nil }

func (d *Delta) onPing(any) {}
func (d *Delta) onDone(any) {}

// Hoarder stores the unsubscribe func but teardown never calls it.
type Hoarder struct {
	unsub func()
}

func (h *Hoarder) Name() string { return "hoarder" }

func (h *Hoarder) Init(ctx *Context) error {
	h.unsub = ctx.Bus.Subscribe(Ping, h.onPing)
	return nil
}

func (h *Hoarder) Start() error   { return nil }
func (h *Hoarder) Stop() error    { return nil }
func (h *Hoarder) Destroy() error { return nil }

func (h *Hoarder) onPing(any) {}
