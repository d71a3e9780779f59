package alpha

type Bus interface {
	Publish(channel string, payload any) bool
}

func Announce(b Bus) {
	b.Publish("ROGUE", nil)
}
