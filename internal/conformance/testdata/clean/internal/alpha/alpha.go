package alpha

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

type Alpha struct {
	bus   Bus
	unsub func()
}

func New() *Alpha { return &Alpha{} }

func (a *Alpha) Name() string { return "alpha" }

func (a *Alpha) Init(ctx *Context) error {
	a.bus = ctx.Bus
	a.unsub = ctx.Bus.Subscribe(Ping, a.onPing)
	ctx.Bus.Subscribe(Done, a.onDone)
	return nil
}

func (a *Alpha) Start() error {
	a.bus.Publish(Ping, nil)
	a.bus.Publish(Done, nil)
	return nil
}

func (a *Alpha) Stop() error {
	a.unsub()
	return nil
}

func (a *Alpha) Destroy() error { return nil }

func (a *Alpha) onPing(any) {}
func (a *Alpha) onDone(any) {}
