package gamma

type Gamma struct{}

func (g *Gamma) Name() string   { return "gamma" }
func (g *Gamma) Init(any) error { return nil }
func (g *Gamma) Start() error   { return nil }
func (g *Gamma) Stop() error    { return nil }
func (g *Gamma) Destroy() error { return nil }
