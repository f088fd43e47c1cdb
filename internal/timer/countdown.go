package timer

// State is a countdown's lifecycle stage.
type State int

const (
	Running State = iota
	Alarming
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Alarming:
		return "alarming"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

// Countdown is one timer counting whole seconds down to an alarm.
type Countdown struct {
	id        int
	total     int
	remaining int
	state     State
	token     *Token
	display   Display
}

func newCountdown(id, seconds int, d Display) *Countdown {
	return &Countdown{
		id:        id,
		total:     seconds,
		remaining: seconds,
		state:     Running,
		token:     NewToken(),
		display:   d,
	}
}

// Tick advances a running countdown by one second. Remaining time is clamped
// at zero; reaching zero moves the countdown to Alarming. Ticking an alarming
// or stopped countdown changes nothing.
func (c *Countdown) Tick() State {
	if c.state != Running {
		return c.state
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.state = Alarming
	}
	return c.state
}

func (c *Countdown) ID() int          { return c.id }
func (c *Countdown) Total() int       { return c.total }
func (c *Countdown) Remaining() int   { return c.remaining }
func (c *Countdown) State() State     { return c.state }
func (c *Countdown) Token() *Token    { return c.token }
func (c *Countdown) Display() Display { return c.display }
