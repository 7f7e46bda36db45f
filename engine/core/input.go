package core

// Input is a per-engine snapshot of key and pointer state, fed from the
// window's event callback.
type Input struct {
	keys           map[Key]bool
	buttons        map[int]bool
	mouseX, mouseY float64
}

func NewInput() *Input {
	return &Input{keys: map[Key]bool{}, buttons: map[int]bool{}}
}

func (in *Input) Handle(ev Event) {
	switch e := ev.(type) {
	case EventKey:
		in.keys[e.Key] = e.Down
	case EventMouseMove:
		in.mouseX, in.mouseY = e.X, e.Y
	case EventMouseButton:
		in.buttons[e.Button] = e.Down
	}
}

func (in *Input) IsKeyDown(k Key) bool      { return in.keys[k] }
func (in *Input) IsButtonDown(b int) bool   { return in.buttons[b] }
func (in *Input) Mouse() (float64, float64) { return in.mouseX, in.mouseY }
