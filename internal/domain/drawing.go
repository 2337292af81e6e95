package domain

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ElementStyle carries the visual attributes of a drawing element. Font
// fields apply only to text elements and are omitted otherwise.
type ElementStyle struct {
	Stroke      string  `json:"stroke"`
	Fill        string  `json:"fill"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
	FontSize    float64 `json:"fontSize,omitempty"`
	FontFamily  string  `json:"fontFamily,omitempty"`
	TextAlign   string  `json:"textAlign,omitempty"`
}

// DrawingElement is a canvas object (shape, stroke, or text).
//
// ID and ClientTempID are deliberately separate: ID is assigned by the
// persistence gateway and is stable across updates and deletes, while
// ClientTempID is the identifier the drawing client picked optimistically
// before the server confirmed the create. Broadcasts of a persisted create
// carry both so the origin client can reconcile its optimistic copy with
// the canonical element.
type DrawingElement struct {
	ID           string       `json:"id,omitempty"`
	ClientTempID string       `json:"clientTempId,omitempty"`
	Type         string       `json:"type"`
	Points       []Point      `json:"points,omitempty"`
	Style        ElementStyle `json:"style"`
	Text         string       `json:"text,omitempty"`
	X            float64      `json:"x"`
	Y            float64      `json:"y"`
	Width        float64      `json:"width"`
	Height       float64      `json:"height"`
	// IsEditing is a client-only flag and never persisted.
	IsEditing bool `json:"isEditing,omitempty"`
}

// WithoutClientFields returns a copy stripped of everything the client
// owns: the optimistic temp ID, the editing flag, and any identifier the
// gateway did not assign. This is the shape the gateway persists.
func (e DrawingElement) WithoutClientFields() DrawingElement {
	out := e
	out.ID = ""
	out.ClientTempID = ""
	out.IsEditing = false
	return out
}
